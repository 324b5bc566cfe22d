package model

// TicketmasterFeedResponse Discovery API /events.json 响应体
type TicketmasterFeedResponse struct {
	Embedded *TicketmasterEmbeddedEvents `json:"_embedded"` // 可能整体缺失（空页）
	Page     PageInfo                    `json:"page"`      // 分页描述
}

type TicketmasterEmbeddedEvents struct {
	Events []TicketmasterEvent `json:"events"`
}

// TicketmasterEvent 平台原生演出结构
type TicketmasterEvent struct {
	ID              string                       `json:"id"`              // 平台演出ID
	Name            string                       `json:"name"`            // 演出名称
	URL             string                       `json:"url"`             // 购票链接
	Test            bool                         `json:"test"`            // 测试数据标记
	Images          []TicketmasterImage          `json:"images"`          // 图片列表（取首张）
	Dates           *TicketmasterDates           `json:"dates"`           // 日期块
	Sales           *TicketmasterSales           `json:"sales"`           // 销售块
	PriceRanges     []TicketmasterPriceRange     `json:"priceRanges"`     // 价格区间（仅取首个）
	Classifications []TicketmasterClassification `json:"classifications"` // 分类（primary优先）
	Embedded        *TicketmasterEmbedded        `json:"_embedded"`       // 内嵌场馆/艺人
}

type TicketmasterEmbedded struct {
	Venues      []TicketmasterVenue      `json:"venues"`      // 所属场馆（取首个，缺失则整条跳过）
	Attractions []TicketmasterAttraction `json:"attractions"` // 关联艺人
}

type TicketmasterImage struct {
	URL string `json:"url"`
}

type TicketmasterDates struct {
	Start    *TicketmasterDateStart `json:"start"`
	Timezone string                 `json:"timezone"`
}

type TicketmasterDateStart struct {
	LocalDate string `json:"localDate"` // 日历日（YYYY-MM-DD）
	DateTime  string `json:"dateTime"`  // 时刻（RFC3339）
	DateTBD   bool   `json:"dateTBD"`
	DateTBA   bool   `json:"dateTBA"`
}

type TicketmasterSales struct {
	Public *TicketmasterPublicSale `json:"public"`
}

type TicketmasterPublicSale struct {
	StartDateTime string `json:"startDateTime"`
	EndDateTime   string `json:"endDateTime"`
}

type TicketmasterPriceRange struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Currency string  `json:"currency"`
}

type TicketmasterClassification struct {
	Primary bool                       `json:"primary"`
	Genre   *TicketmasterNamedCategory `json:"genre"`
	Segment *TicketmasterNamedCategory `json:"segment"`
}

type TicketmasterNamedCategory struct {
	Name string `json:"name"`
}

// TicketmasterVenue 平台原生场馆结构
type TicketmasterVenue struct {
	ID         string                     `json:"id"`
	Name       string                     `json:"name"`
	PostalCode string                     `json:"postalCode"`
	City       *TicketmasterCity          `json:"city"`
	State      *TicketmasterState         `json:"state"`
	Country    *TicketmasterCountry       `json:"country"`
	Address    *TicketmasterAddress       `json:"address"`
	Location   *TicketmasterGeoCoordinate `json:"location"`
}

type TicketmasterCity struct {
	Name string `json:"name"`
}

type TicketmasterState struct {
	StateCode string `json:"stateCode"`
}

type TicketmasterCountry struct {
	CountryCode string `json:"countryCode"`
}

type TicketmasterAddress struct {
	Line1 string `json:"line1"`
}

// TicketmasterGeoCoordinate 经纬度以字符串下发，解析失败视为缺失
type TicketmasterGeoCoordinate struct {
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
}

// TicketmasterAttraction 平台原生艺人结构
type TicketmasterAttraction struct {
	ID            string                             `json:"id"`
	Name          string                             `json:"name"`
	Aliases       []string                           `json:"aliases"`
	Images        []TicketmasterImage                `json:"images"`
	ExternalLinks map[string][]TicketmasterExtLinkTo `json:"externalLinks"`
}

type TicketmasterExtLinkTo struct {
	URL string `json:"url"`
}
