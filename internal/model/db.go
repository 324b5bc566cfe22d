package model

import (
	"time"

	"gorm.io/datatypes"
)

type Venue struct {
	ID         uint64    `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID"`
	VenueUUID  string    `gorm:"column:venue_uuid;type:varchar(64);uniqueIndex;not null;comment:全局唯一ID"`
	Source     string    `gorm:"column:source;type:varchar(32);not null;uniqueIndex:uk_venue_source_sid;comment:来源票务源"`
	SourceID   string    `gorm:"column:source_id;type:varchar(64);not null;uniqueIndex:uk_venue_source_sid;comment:平台原生ID"`
	Name       string    `gorm:"column:name;type:varchar(256);not null;comment:场馆名称"`
	City       *string   `gorm:"column:city;type:varchar(128);comment:城市"`
	State      *string   `gorm:"column:state;type:varchar(64);comment:州/省代码"`
	Country    string    `gorm:"column:country;type:varchar(8);not null;comment:国家代码（源缺失时兜底US）"`
	PostalCode *string   `gorm:"column:postal_code;type:varchar(32);comment:邮编"`
	Address    *string   `gorm:"column:address;type:varchar(256);comment:地址"`
	Latitude   *float64  `gorm:"column:latitude;type:numeric(10,6);comment:纬度（缺失保持NULL，不得写0）"`
	Longitude  *float64  `gorm:"column:longitude;type:numeric(10,6);comment:经度（缺失保持NULL，不得写0）"`
	CreatedAt  time.Time `gorm:"column:created_at;type:timestamp;comment:创建时间"`
	UpdatedAt  time.Time `gorm:"column:updated_at;type:timestamp;comment:更新时间"`
}

type Attraction struct {
	ID             uint64         `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID"`
	AttractionUUID string         `gorm:"column:attraction_uuid;type:varchar(64);uniqueIndex;not null;comment:全局唯一ID"`
	Source         string         `gorm:"column:source;type:varchar(32);not null;uniqueIndex:uk_attraction_source_sid;comment:来源票务源"`
	SourceID       string         `gorm:"column:source_id;type:varchar(64);not null;uniqueIndex:uk_attraction_source_sid;comment:平台原生ID"`
	Name           string         `gorm:"column:name;type:varchar(256);not null;comment:艺人/演出者名称（无名称的原始记录入库前已被丢弃）"`
	Aliases        datatypes.JSON `gorm:"column:aliases;type:jsonb;not null;comment:别名集合（字符串数组）"`
	ImageURL       *string        `gorm:"column:image_url;type:varchar(512);comment:图片地址"`
	ExternalLinks  datatypes.JSON `gorm:"column:external_links;type:jsonb;not null;comment:外部链接元数据"`
	CreatedAt      time.Time      `gorm:"column:created_at;type:timestamp;comment:创建时间"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;type:timestamp;comment:更新时间"`
}

type Event struct {
	ID              uint64        `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID"`
	EventUUID       string        `gorm:"column:event_uuid;type:varchar(64);uniqueIndex;not null;comment:全局唯一ID"`
	Source          string        `gorm:"column:source;type:varchar(32);not null;uniqueIndex:uk_event_source_sid;comment:来源票务源"`
	SourceID        string        `gorm:"column:source_id;type:varchar(64);not null;uniqueIndex:uk_event_source_sid;comment:平台原生ID"`
	Name            string        `gorm:"column:name;type:varchar(512);not null;comment:演出名称"`
	URL             *string       `gorm:"column:url;type:varchar(512);comment:购票链接"`
	ImageURL        *string       `gorm:"column:image_url;type:varchar(512);comment:图片地址"`
	StartDate       *time.Time    `gorm:"column:start_date;type:date;index;comment:演出日期（日历日）"`
	StartDateTime   *time.Time    `gorm:"column:start_date_time;type:timestamp;comment:演出开始时刻"`
	Timezone        *string       `gorm:"column:timezone;type:varchar(64);comment:时区"`
	DateTBD         bool          `gorm:"column:date_tbd;type:boolean;default:false;comment:日期待定"`
	DateTBA         bool          `gorm:"column:date_tba;type:boolean;default:false;comment:日期未公布"`
	OnsaleStartDate *time.Time    `gorm:"column:onsale_start_date;type:timestamp;comment:开售时间"`
	OnsaleEndDate   *time.Time    `gorm:"column:onsale_end_date;type:timestamp;comment:停售时间"`
	MinPrice        *float64      `gorm:"column:min_price;type:numeric(12,2);comment:最低票价（仅取首个价格区间）"`
	MaxPrice        *float64      `gorm:"column:max_price;type:numeric(12,2);comment:最高票价（仅取首个价格区间）"`
	Currency        *string       `gorm:"column:currency;type:varchar(8);comment:币种"`
	GenreName       *string       `gorm:"column:genre_name;type:varchar(64);comment:流派（primary分类优先）"`
	SegmentName     *string       `gorm:"column:segment_name;type:varchar(64);comment:大类（primary分类优先）"`
	IsTest          bool          `gorm:"column:is_test;type:boolean;default:false;comment:测试数据标记"`
	VenueID         uint64        `gorm:"column:venue_id;type:bigint;not null;index;comment:所属场馆ID"`
	Venue           *Venue        `gorm:"foreignKey:VenueID"`
	Attractions     []*Attraction `gorm:"many2many:event_attractions;"`
	CreatedAt       time.Time     `gorm:"column:created_at;type:timestamp;comment:创建时间"`
	UpdatedAt       time.Time     `gorm:"column:updated_at;type:timestamp;comment:更新时间"`
}

// EventAttraction 演出-艺人关联表。每次upsert整体替换（先删后建），不做合并
type EventAttraction struct {
	EventID      uint64 `gorm:"column:event_id;primaryKey;comment:演出ID"`
	AttractionID uint64 `gorm:"column:attraction_id;primaryKey;comment:艺人ID"`
}

// FeedSyncStatus 每个(source,country)对一行，last-writer-wins
type FeedSyncStatus struct {
	ID             uint64     `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID"`
	Source         string     `gorm:"column:source;type:varchar(32);not null;uniqueIndex:uk_sync_source_country;comment:来源票务源"`
	Country        string     `gorm:"column:country;type:varchar(8);not null;uniqueIndex:uk_sync_source_country;comment:国家代码"`
	LastSyncAt     *time.Time `gorm:"column:last_sync_at;type:timestamp;comment:最近一次启动时间"`
	LastSuccessAt  *time.Time `gorm:"column:last_success_at;type:timestamp;comment:最近一次成功时间"`
	Status         string     `gorm:"column:status;type:varchar(16);not null;comment:状态：running/success/error"`
	EventsIngested int        `gorm:"column:events_ingested;type:int;default:0;comment:本轮入库演出数"`
	ErrorMessage   *string    `gorm:"column:error_message;type:text;comment:失败原因"`
	CreatedAt      time.Time  `gorm:"column:created_at;type:timestamp;comment:创建时间"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;type:timestamp;comment:更新时间"`
}

// FeedSyncStatus 状态枚举
const (
	SyncStatusRunning = "running"
	SyncStatusSuccess = "success"
	SyncStatusError   = "error"
)

func (Venue) TableName() string           { return "venues" }
func (Attraction) TableName() string      { return "attractions" }
func (Event) TableName() string           { return "events" }
func (EventAttraction) TableName() string { return "event_attractions" }
func (FeedSyncStatus) TableName() string  { return "feed_sync_statuses" }
