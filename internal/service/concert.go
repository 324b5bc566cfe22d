package service

import (
	"context"
	"math"
	"time"

	"ConcertSync/internal/interfaces"

	"github.com/sirupsen/logrus"
)

// ConcertQuery 演出推荐查询条件
type ConcertQuery struct {
	Artists   []string  // 自由文本艺人名列表
	Lat       float64   // 中心点纬度
	Lng       float64   // 中心点经度
	RadiusKm  float64   // 半径（公里）
	StartDate time.Time // 日期窗口起点（日历日）
	EndDate   time.Time // 日期窗口终点（日历日）
	Limit     int       // 截断条数
}

// ConcertVenue 响应中的场馆子对象
type ConcertVenue struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	City      *string  `json:"city,omitempty"`
	State     *string  `json:"state,omitempty"`
	Country   string   `json:"country"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// ConcertArtist 响应中的艺人子对象
type ConcertArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ConcertEvent 响应中的单条演出（已按距离过滤，携带四舍五入到一位小数的距离）
type ConcertEvent struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	URL           *string         `json:"url,omitempty"`
	ImageURL      *string         `json:"image_url,omitempty"`
	StartDate     string          `json:"start_date"`
	StartDateTime *time.Time      `json:"start_date_time,omitempty"`
	Timezone      *string         `json:"timezone,omitempty"`
	MinPrice      *float64        `json:"min_price,omitempty"`
	MaxPrice      *float64        `json:"max_price,omitempty"`
	Currency      *string         `json:"currency,omitempty"`
	GenreName     *string         `json:"genre_name,omitempty"`
	SegmentName   *string         `json:"segment_name,omitempty"`
	DistanceKm    float64         `json:"distance_km"`
	Venue         ConcertVenue    `json:"venue"`
	Artists       []ConcertArtist `json:"artists"`
}

// ConcertResult 推荐结果+覆盖率元信息
type ConcertResult struct {
	Events         []*ConcertEvent `json:"events"`
	ArtistsQueried int             `json:"artists_queried"` // 请求中的艺人数
	ArtistsMatched int             `json:"artists_matched"` // 目录中命中的艺人数
	Message        string          `json:"message,omitempty"`
}

// ConcertService 地理匹配服务：解析艺人→检索演出→大圆距离过滤→排序截断
type ConcertService struct {
	resolver *ArtistResolver
	repo     interfaces.ConcertRepository
	logger   *logrus.Logger
}

func NewConcertService(resolver *ArtistResolver, repo interfaces.ConcertRepository, logger *logrus.Logger) *ConcertService {
	return &ConcertService{resolver: resolver, repo: repo, logger: logger}
}

// FindConcerts 主查询路径。空命中是正常结果（带说明信息的空列表），不是错误
func (s *ConcertService) FindConcerts(ctx context.Context, q *ConcertQuery) (*ConcertResult, error) {
	result := &ConcertResult{
		Events:         []*ConcertEvent{},
		ArtistsQueried: len(q.Artists),
	}

	resolved, err := s.resolver.ResolveArtistNames(ctx, q.Artists)
	if err != nil {
		return nil, err
	}
	result.ArtistsMatched = len(resolved)
	if len(resolved) == 0 {
		result.Message = "none of the requested artists were found in the catalog"
		return result, nil
	}

	attractionIDs := make([]uint64, 0, len(resolved))
	for _, a := range resolved {
		attractionIDs = append(attractionIDs, a.ID)
	}

	// 仓储层已保证：排除测试数据、startDate在窗口内、按startDate升序
	events, err := s.repo.FindEventsForAttractions(ctx, attractionIDs, q.StartDate, q.EndDate)
	if err != nil {
		return nil, err
	}

	// 地理过滤先于limit截断；距离恰好等于半径的保留，严格大于的剔除
	for _, ev := range events {
		if ev.Venue == nil || ev.Venue.Latitude == nil || ev.Venue.Longitude == nil {
			continue // 无坐标的场馆无法做地理判定，剔除而非错判
		}
		distance := haversineKm(q.Lat, q.Lng, *ev.Venue.Latitude, *ev.Venue.Longitude)
		if distance > q.RadiusKm {
			continue
		}

		artists := make([]ConcertArtist, 0, len(ev.Attractions))
		for _, a := range ev.Attractions {
			artists = append(artists, ConcertArtist{ID: a.AttractionUUID, Name: a.Name})
		}

		result.Events = append(result.Events, &ConcertEvent{
			ID:            ev.EventUUID,
			Name:          ev.Name,
			URL:           ev.URL,
			ImageURL:      ev.ImageURL,
			StartDate:     ev.StartDate.Format("2006-01-02"),
			StartDateTime: ev.StartDateTime,
			Timezone:      ev.Timezone,
			MinPrice:      ev.MinPrice,
			MaxPrice:      ev.MaxPrice,
			Currency:      ev.Currency,
			GenreName:     ev.GenreName,
			SegmentName:   ev.SegmentName,
			DistanceKm:    math.Round(distance*10) / 10, // 输出距离保留一位小数
			Venue: ConcertVenue{
				ID:        ev.Venue.VenueUUID,
				Name:      ev.Venue.Name,
				City:      ev.Venue.City,
				State:     ev.Venue.State,
				Country:   ev.Venue.Country,
				Latitude:  ev.Venue.Latitude,
				Longitude: ev.Venue.Longitude,
			},
			Artists: artists,
		})
		if len(result.Events) >= q.Limit {
			break
		}
	}

	if len(result.Events) == 0 {
		result.Message = "no events found for the matched artists within the given window and radius"
	}
	return result, nil
}

// haversineKm 两点大圆距离（公里），地球半径取6371km
func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKm = 6371.0

	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}
