package repository

import (
	"context"
	"time"

	"ConcertSync/internal/interfaces"
	"ConcertSync/internal/model"

	"gorm.io/gorm"
)

type ConcertRepository struct {
	db *gorm.DB
}

func NewConcertRepository(db *gorm.DB) interfaces.ConcertRepository {
	return &ConcertRepository{db: db}
}

// FindAttractionsByNames 名称精确匹配（大小写不敏感）。入参须已lower+trim
func (r *ConcertRepository) FindAttractionsByNames(ctx context.Context, names []string) ([]*model.Attraction, error) {
	if len(names) == 0 {
		return []*model.Attraction{}, nil
	}
	var attractions []*model.Attraction
	if err := r.db.WithContext(ctx).
		Where("lower(name) IN ?", names).
		Find(&attractions).Error; err != nil {
		return nil, &model.PersistenceError{Op: "按名称查询艺人", Err: err}
	}
	return attractions, nil
}

// FindAttractionsByAliases 别名集合包含匹配（大小写不敏感）。
// aliases为JSON字符串数组，展开逐项比对；postgres与sqlite（测试）各有展开函数
func (r *ConcertRepository) FindAttractionsByAliases(ctx context.Context, names []string) ([]*model.Attraction, error) {
	if len(names) == 0 {
		return []*model.Attraction{}, nil
	}

	var cond string
	switch r.db.Dialector.Name() {
	case "postgres":
		cond = "EXISTS (SELECT 1 FROM jsonb_array_elements_text(aliases) AS alias WHERE lower(alias) IN ?)"
	default:
		cond = "EXISTS (SELECT 1 FROM json_each(attractions.aliases) WHERE lower(json_each.value) IN ?)"
	}

	var attractions []*model.Attraction
	if err := r.db.WithContext(ctx).
		Where(cond, names).
		Find(&attractions).Error; err != nil {
		return nil, &model.PersistenceError{Op: "按别名查询艺人", Err: err}
	}
	return attractions, nil
}

// FindEventsForAttractions 按日期窗口+艺人ID检索演出：排除测试数据与无startDate的记录，
// 命中至少一个给定艺人即入选，按startDate升序返回，携带场馆与艺人子对象
func (r *ConcertRepository) FindEventsForAttractions(ctx context.Context, attractionIDs []uint64, start, end time.Time) ([]*model.Event, error) {
	if len(attractionIDs) == 0 {
		return []*model.Event{}, nil
	}
	var events []*model.Event
	if err := r.db.WithContext(ctx).Model(&model.Event{}).
		Distinct("events.*").
		Joins("JOIN event_attractions ea ON ea.event_id = events.id").
		Where("ea.attraction_id IN ?", attractionIDs).
		Where("events.is_test = ?", false).
		Where("events.start_date IS NOT NULL").
		Where("events.start_date >= ? AND events.start_date <= ?", start, end).
		Order("events.start_date ASC").
		Preload("Venue").
		Preload("Attractions").
		Find(&events).Error; err != nil {
		return nil, &model.PersistenceError{Op: "检索演出", Err: err}
	}
	return events, nil
}
