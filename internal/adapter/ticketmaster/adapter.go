package ticketmaster

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"ConcertSync/internal/adapter"
	"ConcertSync/internal/config"
	"ConcertSync/internal/interfaces"
	"ConcertSync/internal/model"
	"ConcertSync/internal/utils/httpclient"

	"github.com/sirupsen/logrus"
)

func init() {
	adapter.Register(model.SourceTicketmaster, NewTicketmasterIngestor)
}

type Ingestor struct {
	cfg        *config.SourceConfig
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewTicketmasterIngestor 创建Ticketmaster Discovery feed适配器
func NewTicketmasterIngestor(cfg *config.SourceConfig, logger *logrus.Logger) interfaces.FeedIngestor {
	return &Ingestor{
		cfg:        cfg,
		httpClient: httpclient.NewHTTPClient(cfg, logger),
		logger:     logger,
	}
}

// GetSource ========== 实现FeedIngestor接口 ==========
func (t *Ingestor) GetSource() model.SourceType {
	return model.SourceTicketmaster
}

// MaxPage Discovery API硬限制：page*size < PageHardLimit（默认1000）。
// size=100时允许页码0~9，无论totalPages报多少都不得越过
func (t *Ingestor) MaxPage() int {
	return t.cfg.PageHardLimit / t.cfg.PageSize
}

func (t *Ingestor) FetchFeed(ctx context.Context, country string, page int, startDate, endDate *time.Time) (*model.FeedPage, error) {
	params := url.Values{}
	params.Set("apikey", t.cfg.APIKey)
	params.Set("countryCode", country)
	params.Set("page", strconv.Itoa(page))
	params.Set("size", strconv.Itoa(t.cfg.PageSize))
	params.Set("sort", "date,asc")
	params.Set("classificationName", "Music")
	// 日期窗口：起点取当日0点，终点取当日23:59:59（批次边界不重叠）
	if startDate != nil {
		params.Set("startDateTime", startDate.Format("2006-01-02")+"T00:00:00Z")
	}
	if endDate != nil {
		params.Set("endDateTime", endDate.Format("2006-01-02")+"T23:59:59Z")
	}

	feedURL := fmt.Sprintf("%s/events.json?%s", t.cfg.BaseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("构造feed请求失败: %w", err)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		// 网络层失败视为瞬时错误，交由编排器重试
		return nil, &model.TransientFetchError{Source: t.GetSource(), URL: feedURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
		return nil, &model.TransientFetchError{
			Source: t.GetSource(),
			URL:    feedURL,
			Err:    fmt.Errorf("HTTP %d", resp.StatusCode),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed请求返回HTTP %d: %s", resp.StatusCode, feedURL)
	}

	var feed model.TicketmasterFeedResponse
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("解析feed响应失败: %w", err)
	}

	result := &model.FeedPage{Page: feed.Page}
	if feed.Embedded != nil {
		for i := range feed.Embedded.Events {
			e := feed.Embedded.Events[i]
			result.Events = append(result.Events, &model.RawEvent{
				Source: t.GetSource(),
				ID:     e.ID,
				Data:   e,
			})
		}
	}
	return result, nil
}

func (t *Ingestor) NormalizeEvent(raw *model.RawEvent) (*model.NormalizedEvent, error) {
	tmEvent, ok := raw.Data.(model.TicketmasterEvent)
	if !ok {
		return nil, &model.NormalizationError{Source: t.GetSource(), SourceID: raw.ID, Reason: "RawEvent数据类型错误"}
	}

	// 无内嵌场馆的记录无法入库，整条跳过
	if tmEvent.Embedded == nil || len(tmEvent.Embedded.Venues) == 0 {
		return nil, &model.NormalizationError{Source: t.GetSource(), SourceID: tmEvent.ID, Reason: "缺少内嵌场馆"}
	}

	venue, err := t.NormalizeVenue(tmEvent.Embedded.Venues[0])
	if err != nil {
		return nil, err
	}

	event := &model.NormalizedEvent{
		Source:   t.GetSource(),
		SourceID: tmEvent.ID,
		Name:     tmEvent.Name,
		IsTest:   tmEvent.Test,
		Venue:    *venue,
	}
	if tmEvent.URL != "" {
		event.URL = &tmEvent.URL
	}
	if len(tmEvent.Images) > 0 && tmEvent.Images[0].URL != "" {
		event.ImageURL = &tmEvent.Images[0].URL
	}

	// 日期块：日历日与时刻分开保存，TBD/TBA默认false
	if tmEvent.Dates != nil {
		if tmEvent.Dates.Timezone != "" {
			tz := tmEvent.Dates.Timezone
			event.Timezone = &tz
		}
		if start := tmEvent.Dates.Start; start != nil {
			event.DateTBD = start.DateTBD
			event.DateTBA = start.DateTBA
			if d, err := time.Parse("2006-01-02", start.LocalDate); err == nil && start.LocalDate != "" {
				event.StartDate = &d
			}
			if dt, err := time.Parse(time.RFC3339, start.DateTime); err == nil && start.DateTime != "" {
				event.StartDateTime = &dt
			}
		}
	}

	// 销售块
	if tmEvent.Sales != nil && tmEvent.Sales.Public != nil {
		if dt, err := time.Parse(time.RFC3339, tmEvent.Sales.Public.StartDateTime); err == nil && tmEvent.Sales.Public.StartDateTime != "" {
			event.OnsaleStartDate = &dt
		}
		if dt, err := time.Parse(time.RFC3339, tmEvent.Sales.Public.EndDateTime); err == nil && tmEvent.Sales.Public.EndDateTime != "" {
			event.OnsaleEndDate = &dt
		}
	}

	// 价格：仅取首个区间的min/max/currency（与上游行为保持一致，未经产品确认不得改动）
	if len(tmEvent.PriceRanges) > 0 {
		pr := tmEvent.PriceRanges[0]
		event.MinPrice = &pr.Min
		event.MaxPrice = &pr.Max
		if pr.Currency != "" {
			event.Currency = &pr.Currency
		}
	}

	// 分类：primary标记的优先，否则取首个
	if len(tmEvent.Classifications) > 0 {
		primary := tmEvent.Classifications[0]
		for _, c := range tmEvent.Classifications {
			if c.Primary {
				primary = c
				break
			}
		}
		if primary.Genre != nil && primary.Genre.Name != "" {
			event.GenreName = &primary.Genre.Name
		}
		if primary.Segment != nil && primary.Segment.Name != "" {
			event.SegmentName = &primary.Segment.Name
		}
	}

	// 艺人：逐个归一化，单个失败不拖垮整条演出
	for _, a := range tmEvent.Embedded.Attractions {
		attraction, err := t.NormalizeAttraction(a)
		if err != nil {
			t.logger.WithError(err).WithField("event_id", tmEvent.ID).Warn("艺人归一化失败，跳过")
			continue
		}
		event.Attractions = append(event.Attractions, *attraction)
	}

	return event, nil
}

func (t *Ingestor) NormalizeVenue(raw interface{}) (*model.NormalizedVenue, error) {
	tmVenue, ok := raw.(model.TicketmasterVenue)
	if !ok {
		return nil, &model.NormalizationError{Source: t.GetSource(), Reason: "场馆原始数据类型错误"}
	}

	venue := &model.NormalizedVenue{
		Source:   t.GetSource(),
		SourceID: tmVenue.ID,
		Name:     tmVenue.Name,
		Country:  "US", // 源缺失国家时兜底US
	}
	if tmVenue.Country != nil && tmVenue.Country.CountryCode != "" {
		venue.Country = tmVenue.Country.CountryCode
	}
	if tmVenue.City != nil && tmVenue.City.Name != "" {
		venue.City = &tmVenue.City.Name
	}
	if tmVenue.State != nil && tmVenue.State.StateCode != "" {
		venue.State = &tmVenue.State.StateCode
	}
	if tmVenue.PostalCode != "" {
		venue.PostalCode = &tmVenue.PostalCode
	}
	if tmVenue.Address != nil && tmVenue.Address.Line1 != "" {
		venue.Address = &tmVenue.Address.Line1
	}

	// 坐标缺失保持nil而非0，否则地理过滤会把场馆错算到几内亚湾
	if tmVenue.Location != nil {
		if lat, err := strconv.ParseFloat(tmVenue.Location.Latitude, 64); err == nil && tmVenue.Location.Latitude != "" {
			venue.Latitude = &lat
		}
		if lng, err := strconv.ParseFloat(tmVenue.Location.Longitude, 64); err == nil && tmVenue.Location.Longitude != "" {
			venue.Longitude = &lng
		}
	}

	return venue, nil
}

func (t *Ingestor) NormalizeAttraction(raw interface{}) (*model.NormalizedAttraction, error) {
	tmAttraction, ok := raw.(model.TicketmasterAttraction)
	if !ok {
		return nil, &model.NormalizationError{Source: t.GetSource(), Reason: "艺人原始数据类型错误"}
	}

	attraction := &model.NormalizedAttraction{
		Source:   t.GetSource(),
		SourceID: tmAttraction.ID,
		Name:     tmAttraction.Name, // 可能为空，入库前由存储层跳过
		Aliases:  tmAttraction.Aliases,
	}
	if attraction.Aliases == nil {
		attraction.Aliases = []string{}
	}
	if len(tmAttraction.Images) > 0 && tmAttraction.Images[0].URL != "" {
		attraction.ImageURL = &tmAttraction.Images[0].URL
	}
	if len(tmAttraction.ExternalLinks) > 0 {
		attraction.ExternalLinks = make(map[string][]string, len(tmAttraction.ExternalLinks))
		for platform, links := range tmAttraction.ExternalLinks {
			for _, l := range links {
				if l.URL != "" {
					attraction.ExternalLinks[platform] = append(attraction.ExternalLinks[platform], l.URL)
				}
			}
		}
	}

	return attraction, nil
}
