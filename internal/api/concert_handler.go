package api

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"ConcertSync/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var dateParamPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ConcertHandler 查询侧接口：按艺人+地理范围+日期窗口推荐演出
type ConcertHandler struct {
	concertService *service.ConcertService
	logger         *logrus.Logger
}

func NewConcertHandler(concertService *service.ConcertService, logger *logrus.Logger) *ConcertHandler {
	return &ConcertHandler{
		concertService: concertService,
		logger:         logger,
	}
}

// GetConcerts 演出推荐
// GET /api/concerts?artists=a,b,c&lat=..&lng=..&radius_km=..&start_date=..&end_date=..&limit=25
func (h *ConcertHandler) GetConcerts(c *gin.Context) {
	query, err := parseConcertQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.concertService.FindConcerts(c.Request.Context(), query)
	if err != nil {
		h.logger.WithError(err).Error("演出推荐查询失败")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// parseConcertQuery 解析并校验查询参数（校验规则与查询侧消费方契约一致）
func parseConcertQuery(c *gin.Context) (*service.ConcertQuery, error) {
	var artists []string
	for _, part := range strings.Split(c.Query("artists"), ",") {
		if a := strings.TrimSpace(part); a != "" {
			artists = append(artists, a)
		}
	}
	if len(artists) == 0 {
		return nil, &paramError{"artists", "至少提供一个艺人名"}
	}

	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		return nil, &paramError{"lat", "必须是[-90,90]内的数字"}
	}
	lng, err := strconv.ParseFloat(c.Query("lng"), 64)
	if err != nil || lng < -180 || lng > 180 {
		return nil, &paramError{"lng", "必须是[-180,180]内的数字"}
	}
	radiusKm, err := strconv.ParseFloat(c.Query("radius_km"), 64)
	if err != nil || radiusKm <= 0 {
		return nil, &paramError{"radius_km", "必须是正数"}
	}

	// 日期窗口：纯日历日（YYYY-MM-DD），不带时区
	startRaw := c.Query("start_date")
	endRaw := c.Query("end_date")
	if !dateParamPattern.MatchString(startRaw) {
		return nil, &paramError{"start_date", "格式必须为YYYY-MM-DD"}
	}
	if !dateParamPattern.MatchString(endRaw) {
		return nil, &paramError{"end_date", "格式必须为YYYY-MM-DD"}
	}
	startDate, err := time.Parse("2006-01-02", startRaw)
	if err != nil {
		return nil, &paramError{"start_date", "不是合法日期"}
	}
	endDate, err := time.Parse("2006-01-02", endRaw)
	if err != nil {
		return nil, &paramError{"end_date", "不是合法日期"}
	}
	if endDate.Before(startDate) {
		return nil, &paramError{"end_date", "不得早于start_date"}
	}

	limit := 25
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 || limit > 100 {
			return nil, &paramError{"limit", "必须是[1,100]内的整数"}
		}
	}

	return &service.ConcertQuery{
		Artists:   artists,
		Lat:       lat,
		Lng:       lng,
		RadiusKm:  radiusKm,
		StartDate: startDate,
		EndDate:   endDate,
		Limit:     limit,
	}, nil
}

type paramError struct {
	param  string
	reason string
}

func (e *paramError) Error() string {
	return "参数" + e.param + "非法: " + e.reason
}
