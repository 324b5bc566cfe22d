package model

import "time"

// SourceType 票务源类型枚举
type SourceType string

const (
	SourceTicketmaster SourceType = "ticketmaster"
)

// RawEvent 所有票务源的原始演出通用结构
type RawEvent struct {
	Source SourceType  // 来源票务源
	ID     string      // 平台原生演出ID
	Data   interface{} // 平台原生数据（TicketmasterEvent等）
}

// PageInfo 供应商返回的分页描述
type PageInfo struct {
	Number        int `json:"number"`        // 当前页码（从0开始）
	Size          int `json:"size"`          // 每页条数
	TotalPages    int `json:"totalPages"`    // 总页数
	TotalElements int `json:"totalElements"` // 总条数
}

// FeedPage 一次抓取返回的单页结果
type FeedPage struct {
	Events []*RawEvent // 原始演出列表
	Page   PageInfo    // 分页描述
}

// NormalizedVenue 统一的场馆归一化结构（抹平各票务源差异）
type NormalizedVenue struct {
	Source     SourceType // 来源票务源
	SourceID   string     // 平台原生ID
	Name       string     // 场馆名称
	Country    string     // 国家代码（源缺失时兜底US）
	City       *string    // 城市
	State      *string    // 州/省代码
	PostalCode *string    // 邮编
	Address    *string    // 地址
	Latitude   *float64   // 纬度（缺失保持nil）
	Longitude  *float64   // 经度（缺失保持nil）
}

// NormalizedAttraction 统一的艺人归一化结构
type NormalizedAttraction struct {
	Source        SourceType          // 来源票务源
	SourceID      string              // 平台原生ID
	Name          string              // 名称（为空的记录由调用方跳过）
	Aliases       []string            // 别名集合
	ImageURL      *string             // 图片地址
	ExternalLinks map[string][]string // 外部链接（平台→URL列表）
}

// NormalizedEvent 统一的演出归一化结构
type NormalizedEvent struct {
	Source          SourceType             // 来源票务源
	SourceID        string                 // 平台原生ID
	Name            string                 // 演出名称
	URL             *string                // 购票链接
	ImageURL        *string                // 图片地址
	StartDate       *time.Time             // 演出日期（日历日）
	StartDateTime   *time.Time             // 演出开始时刻
	Timezone        *string                // 时区
	DateTBD         bool                   // 日期待定
	DateTBA         bool                   // 日期未公布
	IsTest          bool                   // 测试数据标记
	OnsaleStartDate *time.Time             // 开售时间
	OnsaleEndDate   *time.Time             // 停售时间
	MinPrice        *float64               // 最低票价（仅首个价格区间）
	MaxPrice        *float64               // 最高票价（仅首个价格区间）
	Currency        *string                // 币种
	GenreName       *string                // 流派
	SegmentName     *string                // 大类
	Venue           NormalizedVenue        // 所属场馆（必有，缺失即归一化失败）
	Attractions     []NormalizedAttraction // 关联艺人（可为空）
}
