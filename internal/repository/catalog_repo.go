package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ConcertSync/internal/interfaces"
	"ConcertSync/internal/model"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) interfaces.CatalogRepository {
	return &CatalogRepository{db: db}
}

// UpsertEvent 单条演出入库：场馆→艺人→演出→关联整体替换，全部在一个事务内，
// 保证读者不会观察到演出短暂零艺人的中间态。幂等键统一为(source, source_id)
func (r *CatalogRepository) UpsertEvent(ctx context.Context, event *model.NormalizedEvent) error {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return &model.PersistenceError{Op: "begin", Err: tx.Error}
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	// 1. upsert场馆
	venue, err := r.upsertVenue(tx, &event.Venue)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("upsert场馆失败: %w, source_id: %s", err, event.Venue.SourceID)
	}

	// 2. upsert艺人（无名称的跳过，不拖垮整条演出），收集存活的艺人ID
	attractionIDs := make([]uint64, 0, len(event.Attractions))
	for i := range event.Attractions {
		na := &event.Attractions[i]
		if na.Name == "" {
			continue
		}
		attraction, err := r.upsertAttraction(tx, na)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("upsert艺人失败: %w, source_id: %s", err, na.SourceID)
		}
		attractionIDs = append(attractionIDs, attraction.ID)
	}

	// 3. upsert演出本体（引用场馆ID）
	stored, err := r.upsertEventRow(tx, event, venue.ID)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("upsert演出失败: %w, source_id: %s", err, event.SourceID)
	}

	// 4. 关联整体替换：先删后建，不做合并，确保不残留上一轮的陈旧关联
	if err := tx.Where("event_id = ?", stored.ID).Delete(&model.EventAttraction{}).Error; err != nil {
		tx.Rollback()
		return &model.PersistenceError{Op: "替换演出艺人关联(删除)", Err: err}
	}
	for _, aid := range attractionIDs {
		link := &model.EventAttraction{EventID: stored.ID, AttractionID: aid}
		if err := tx.Create(link).Error; err != nil {
			tx.Rollback()
			return &model.PersistenceError{Op: "替换演出艺人关联(写入)", Err: err}
		}
	}

	if err := tx.Commit().Error; err != nil {
		return &model.PersistenceError{Op: "commit", Err: err}
	}
	return nil
}

func (r *CatalogRepository) upsertVenue(tx *gorm.DB, nv *model.NormalizedVenue) (*model.Venue, error) {
	venue := &model.Venue{
		VenueUUID:  uuid.NewString(),
		Source:     string(nv.Source),
		SourceID:   nv.SourceID,
		Name:       nv.Name,
		City:       nv.City,
		State:      nv.State,
		Country:    nv.Country,
		PostalCode: nv.PostalCode,
		Address:    nv.Address,
		Latitude:   nv.Latitude,
		Longitude:  nv.Longitude,
	}
	if err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "source"}, {Name: "source_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "city", "state", "country", "postal_code", "address",
			"latitude", "longitude", "updated_at",
		}),
	}).Create(venue).Error; err != nil {
		return nil, err
	}
	// 冲突更新路径下不依赖驱动回填主键，统一按幂等键回查
	if err := tx.Where("source = ? AND source_id = ?", nv.Source, nv.SourceID).First(venue).Error; err != nil {
		return nil, err
	}
	return venue, nil
}

func (r *CatalogRepository) upsertAttraction(tx *gorm.DB, na *model.NormalizedAttraction) (*model.Attraction, error) {
	aliases, err := json.Marshal(na.Aliases)
	if err != nil {
		return nil, err
	}
	links := na.ExternalLinks
	if links == nil {
		links = map[string][]string{}
	}
	linksJSON, err := json.Marshal(links)
	if err != nil {
		return nil, err
	}

	attraction := &model.Attraction{
		AttractionUUID: uuid.NewString(),
		Source:         string(na.Source),
		SourceID:       na.SourceID,
		Name:           na.Name,
		Aliases:        datatypes.JSON(aliases),
		ImageURL:       na.ImageURL,
		ExternalLinks:  datatypes.JSON(linksJSON),
	}
	if err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "source"}, {Name: "source_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "aliases", "image_url", "external_links", "updated_at",
		}),
	}).Create(attraction).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("source = ? AND source_id = ?", na.Source, na.SourceID).First(attraction).Error; err != nil {
		return nil, err
	}
	return attraction, nil
}

func (r *CatalogRepository) upsertEventRow(tx *gorm.DB, ne *model.NormalizedEvent, venueID uint64) (*model.Event, error) {
	event := &model.Event{
		EventUUID:       uuid.NewString(),
		Source:          string(ne.Source),
		SourceID:        ne.SourceID,
		Name:            ne.Name,
		URL:             ne.URL,
		ImageURL:        ne.ImageURL,
		StartDate:       ne.StartDate,
		StartDateTime:   ne.StartDateTime,
		Timezone:        ne.Timezone,
		DateTBD:         ne.DateTBD,
		DateTBA:         ne.DateTBA,
		OnsaleStartDate: ne.OnsaleStartDate,
		OnsaleEndDate:   ne.OnsaleEndDate,
		MinPrice:        ne.MinPrice,
		MaxPrice:        ne.MaxPrice,
		Currency:        ne.Currency,
		GenreName:       ne.GenreName,
		SegmentName:     ne.SegmentName,
		IsTest:          ne.IsTest,
		VenueID:         venueID,
	}
	if err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "source"}, {Name: "source_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "url", "image_url", "start_date", "start_date_time", "timezone",
			"date_tbd", "date_tba", "onsale_start_date", "onsale_end_date",
			"min_price", "max_price", "currency", "genre_name", "segment_name",
			"is_test", "venue_id", "updated_at",
		}),
	}).Omit("Venue", "Attractions").Create(event).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("source = ? AND source_id = ?", ne.Source, ne.SourceID).First(event).Error; err != nil {
		return nil, err
	}
	return event, nil
}

// PruneStaleEvents 保留窗口清理：删除该源startDate落在[pastCutoff, futureCutoff]之外的演出，
// 以及它们的艺人关联。startDate缺失（TBD/TBA类）的演出永不被本规则清理；场馆不删除
func (r *CatalogRepository) PruneStaleEvents(ctx context.Context, source model.SourceType, pastCutoff, futureCutoff time.Time) (int64, error) {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return 0, &model.PersistenceError{Op: "begin", Err: tx.Error}
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	var staleIDs []uint64
	if err := tx.Model(&model.Event{}).
		Where("source = ?", source).
		Where("start_date IS NOT NULL").
		Where("start_date < ? OR start_date > ?", pastCutoff, futureCutoff).
		Pluck("id", &staleIDs).Error; err != nil {
		tx.Rollback()
		return 0, &model.PersistenceError{Op: "检索过期演出", Err: err}
	}
	if len(staleIDs) == 0 {
		tx.Rollback()
		return 0, nil
	}

	if err := tx.Where("event_id IN ?", staleIDs).Delete(&model.EventAttraction{}).Error; err != nil {
		tx.Rollback()
		return 0, &model.PersistenceError{Op: "清理演出艺人关联", Err: err}
	}
	result := tx.Where("id IN ?", staleIDs).Delete(&model.Event{})
	if result.Error != nil {
		tx.Rollback()
		return 0, &model.PersistenceError{Op: "清理过期演出", Err: result.Error}
	}

	if err := tx.Commit().Error; err != nil {
		return 0, &model.PersistenceError{Op: "commit", Err: err}
	}
	return result.RowsAffected, nil
}
