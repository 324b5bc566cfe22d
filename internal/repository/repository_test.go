package repository

import (
	"testing"
	"time"

	"ConcertSync/internal/model"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB 每个测试一个独立的内存库，schema与生产AutoMigrate保持一致
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	// 内存库绑定单连接，连接池换连接会丢库
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.SetupJoinTable(&model.Event{}, "Attractions", &model.EventAttraction{}))
	require.NoError(t, db.AutoMigrate(
		&model.Venue{},
		&model.Attraction{},
		&model.Event{},
		&model.FeedSyncStatus{},
	))
	return db
}

func ptrTime(t time.Time) *time.Time { return &t }

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// normalizedEvent 构造一条最小可入库的演出
func normalizedEvent(sourceID string, startDate *time.Time, artists ...model.NormalizedAttraction) *model.NormalizedEvent {
	return &model.NormalizedEvent{
		Source:    model.SourceTicketmaster,
		SourceID:  sourceID,
		Name:      "Event " + sourceID,
		StartDate: startDate,
		Venue: model.NormalizedVenue{
			Source:   model.SourceTicketmaster,
			SourceID: "venue-" + sourceID,
			Name:     "Venue " + sourceID,
			Country:  "US",
		},
		Attractions: artists,
	}
}

func artist(sourceID, name string, aliases ...string) model.NormalizedAttraction {
	if aliases == nil {
		aliases = []string{}
	}
	return model.NormalizedAttraction{
		Source:   model.SourceTicketmaster,
		SourceID: sourceID,
		Name:     name,
		Aliases:  aliases,
	}
}
