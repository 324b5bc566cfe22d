package api

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func queryContext(t *testing.T, rawQuery string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/api/concerts?"+rawQuery, nil)
	return c
}

func TestParseConcertQueryValid(t *testing.T) {
	c := queryContext(t, "artists=Taylor+Swift,+Phoebe+Bridgers+,&lat=40.7&lng=-74.0&radius_km=50&start_date=2026-09-01&end_date=2026-09-30")

	q, err := parseConcertQuery(c)
	require.NoError(t, err)
	assert.Equal(t, []string{"Taylor Swift", "Phoebe Bridgers"}, q.Artists, "艺人列表去空格去空项")
	assert.Equal(t, 40.7, q.Lat)
	assert.Equal(t, -74.0, q.Lng)
	assert.Equal(t, 50.0, q.RadiusKm)
	assert.Equal(t, "2026-09-01", q.StartDate.Format("2006-01-02"))
	assert.Equal(t, 25, q.Limit, "limit缺省25")
}

func TestParseConcertQueryLimitBounds(t *testing.T) {
	base := "artists=a&lat=0&lng=0&radius_km=10&start_date=2026-09-01&end_date=2026-09-30"

	q, err := parseConcertQuery(queryContext(t, base+"&limit=100"))
	require.NoError(t, err)
	assert.Equal(t, 100, q.Limit)

	_, err = parseConcertQuery(queryContext(t, base+"&limit=101"))
	require.Error(t, err)
	_, err = parseConcertQuery(queryContext(t, base+"&limit=0"))
	require.Error(t, err)
}

func TestParseConcertQueryRejectsBadParams(t *testing.T) {
	cases := []struct {
		name  string
		query string
	}{
		{"缺艺人", "artists=,+,&lat=0&lng=0&radius_km=10&start_date=2026-09-01&end_date=2026-09-30"},
		{"纬度越界", "artists=a&lat=91&lng=0&radius_km=10&start_date=2026-09-01&end_date=2026-09-30"},
		{"经度越界", "artists=a&lat=0&lng=-181&radius_km=10&start_date=2026-09-01&end_date=2026-09-30"},
		{"纬度非数字", "artists=a&lat=north&lng=0&radius_km=10&start_date=2026-09-01&end_date=2026-09-30"},
		{"半径为0", "artists=a&lat=0&lng=0&radius_km=0&start_date=2026-09-01&end_date=2026-09-30"},
		{"半径为负", "artists=a&lat=0&lng=0&radius_km=-5&start_date=2026-09-01&end_date=2026-09-30"},
		{"日期格式错误", "artists=a&lat=0&lng=0&radius_km=10&start_date=09/01/2026&end_date=2026-09-30"},
		{"日期不存在", "artists=a&lat=0&lng=0&radius_km=10&start_date=2026-02-30&end_date=2026-09-30"},
		{"终点早于起点", "artists=a&lat=0&lng=0&radius_km=10&start_date=2026-09-30&end_date=2026-09-01"},
		{"缺日期", "artists=a&lat=0&lng=0&radius_km=10"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseConcertQuery(queryContext(t, tc.query))
			require.Error(t, err)
			var pe *paramError
			assert.ErrorAs(t, err, &pe)
		})
	}
}

func TestParseConcertQueryBoundaryCoordinatesAccepted(t *testing.T) {
	q, err := parseConcertQuery(queryContext(t, "artists=a&lat=-90&lng=180&radius_km=0.5&start_date=2026-09-01&end_date=2026-09-01"))
	require.NoError(t, err)
	assert.Equal(t, -90.0, q.Lat)
	assert.Equal(t, 180.0, q.Lng)
	assert.Equal(t, "2026-09-01", q.EndDate.Format("2006-01-02"), "单日窗口合法")
}
