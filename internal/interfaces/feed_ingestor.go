package interfaces

import (
	"context"
	"time"

	"ConcertSync/internal/model"
)

// FeedIngestor 所有票务源必须实现的核心能力集
type FeedIngestor interface {
	GetSource() model.SourceType // 票务源标识
	// MaxPage 供应商分页硬上限：允许请求的页码区间为[0, MaxPage)，由各源自行声明
	MaxPage() int
	// FetchFeed 抓取指定国家/日期窗口的一页原始数据
	FetchFeed(ctx context.Context, country string, page int, startDate, endDate *time.Time) (*model.FeedPage, error)
	// NormalizeEvent 原始记录→归一化演出。缺少内嵌场馆时返回NormalizationError
	NormalizeEvent(raw *model.RawEvent) (*model.NormalizedEvent, error)
	// NormalizeVenue 原始场馆→归一化场馆（国家缺失兜底US，坐标缺失保持nil）
	NormalizeVenue(raw interface{}) (*model.NormalizedVenue, error)
	// NormalizeAttraction 原始艺人→归一化艺人（名称可能为空，由调用方跳过）
	NormalizeAttraction(raw interface{}) (*model.NormalizedAttraction, error)
}

// CatalogRepository 目录存储：场馆/艺人/演出的幂等upsert与过期清理
type CatalogRepository interface {
	// UpsertEvent 单条演出upsert：场馆→艺人→演出→关联整体替换，同一事务内完成
	UpsertEvent(ctx context.Context, event *model.NormalizedEvent) error
	// PruneStaleEvents 删除该源startDate落在保留窗口外的演出；startDate缺失的永不清理。
	// cutoff须为日历日零点，边界日（恰等于cutoff）保留
	PruneStaleEvents(ctx context.Context, source model.SourceType, pastCutoff, futureCutoff time.Time) (int64, error)
}

// SyncStatusRepository 每(source,country)对的同步状态，last-writer-wins
type SyncStatusRepository interface {
	MarkRunning(ctx context.Context, source model.SourceType, country string) error
	MarkSuccess(ctx context.Context, source model.SourceType, country string, ingested int) error
	MarkError(ctx context.Context, source model.SourceType, country string, message string) error
	List(ctx context.Context) ([]*model.FeedSyncStatus, error)
	// TryLock 以(source,country)为键申请advisory锁，防止同对并发重入；返回false表示他人持有
	TryLock(ctx context.Context, source model.SourceType, country string) (bool, error)
	Unlock(ctx context.Context, source model.SourceType, country string) error
}

// ConcertRepository 查询侧：艺人解析与演出检索
type ConcertRepository interface {
	// FindAttractionsByNames 按名称精确匹配（大小写不敏感），names须已归一化为小写
	FindAttractionsByNames(ctx context.Context, names []string) ([]*model.Attraction, error)
	// FindAttractionsByAliases 按别名集合包含匹配（大小写不敏感）
	FindAttractionsByAliases(ctx context.Context, names []string) ([]*model.Attraction, error)
	// FindEventsForAttractions 按日期窗口+艺人ID检索非测试演出，按startDate升序，携带场馆与艺人
	FindEventsForAttractions(ctx context.Context, attractionIDs []uint64, start, end time.Time) ([]*model.Event, error)
}
