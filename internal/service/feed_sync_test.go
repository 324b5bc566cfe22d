package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"ConcertSync/internal/adapter"
	"ConcertSync/internal/config"
	"ConcertSync/internal/interfaces"
	"ConcertSync/internal/model"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ========== 测试替身 ==========

type fakeIngestor struct {
	source        model.SourceType
	maxPage       int
	totalPages    int
	eventsPerPage int
	failuresFor   map[int]int // 页码→前N次尝试返回瞬时错误
	attempts      map[int]int
	fetchedPages  []int
	badEventIDs   map[string]bool // 归一化失败的事件ID
}

func newFakeIngestor(totalPages, eventsPerPage int) *fakeIngestor {
	return &fakeIngestor{
		source:        "fakesource",
		maxPage:       10,
		totalPages:    totalPages,
		eventsPerPage: eventsPerPage,
		failuresFor:   map[int]int{},
		attempts:      map[int]int{},
		badEventIDs:   map[string]bool{},
	}
}

func (f *fakeIngestor) GetSource() model.SourceType { return f.source }
func (f *fakeIngestor) MaxPage() int                { return f.maxPage }

func (f *fakeIngestor) FetchFeed(_ context.Context, _ string, page int, _, _ *time.Time) (*model.FeedPage, error) {
	f.attempts[page]++
	f.fetchedPages = append(f.fetchedPages, page)
	if f.attempts[page] <= f.failuresFor[page] {
		return nil, &model.TransientFetchError{Source: f.source, URL: "fake", Err: errors.New("boom")}
	}
	feed := &model.FeedPage{
		Page: model.PageInfo{Number: page, Size: f.eventsPerPage, TotalPages: f.totalPages},
	}
	if page < f.totalPages {
		for i := 0; i < f.eventsPerPage; i++ {
			id := fmt.Sprintf("p%d-e%d", page, i)
			feed.Events = append(feed.Events, &model.RawEvent{Source: f.source, ID: id, Data: id})
		}
	}
	return feed, nil
}

func (f *fakeIngestor) NormalizeEvent(raw *model.RawEvent) (*model.NormalizedEvent, error) {
	if f.badEventIDs[raw.ID] {
		return nil, &model.NormalizationError{Source: f.source, SourceID: raw.ID, Reason: "缺少内嵌场馆"}
	}
	return &model.NormalizedEvent{
		Source:   f.source,
		SourceID: raw.ID,
		Name:     "event " + raw.ID,
		Venue:    model.NormalizedVenue{Source: f.source, SourceID: "v1", Name: "venue", Country: "US"},
	}, nil
}

func (f *fakeIngestor) NormalizeVenue(interface{}) (*model.NormalizedVenue, error) {
	return nil, errors.New("unused")
}

func (f *fakeIngestor) NormalizeAttraction(interface{}) (*model.NormalizedAttraction, error) {
	return nil, errors.New("unused")
}

type fakeCatalog struct {
	upserted     []string
	upsertErr    error
	pruneErr     error
	pruneErrFor  string // 为空表示所有源都失败
	pruneCalls   int
	pastCutoff   time.Time
	futureCutoff time.Time
}

func (f *fakeCatalog) UpsertEvent(_ context.Context, ev *model.NormalizedEvent) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserted = append(f.upserted, ev.SourceID)
	return nil
}

func (f *fakeCatalog) PruneStaleEvents(_ context.Context, source model.SourceType, pastCutoff, futureCutoff time.Time) (int64, error) {
	f.pruneCalls++
	f.pastCutoff = pastCutoff
	f.futureCutoff = futureCutoff
	if f.pruneErr != nil && (f.pruneErrFor == "" || f.pruneErrFor == string(source)) {
		return 0, f.pruneErr
	}
	return 0, nil
}

type fakeStatus struct {
	running  []string
	success  []string
	errored  []string
	ingested int
	lastMsg  string
	locked   bool // true表示锁被他人持有
}

func (f *fakeStatus) key(s model.SourceType, c string) string { return string(s) + "/" + c }

func (f *fakeStatus) MarkRunning(_ context.Context, s model.SourceType, c string) error {
	f.running = append(f.running, f.key(s, c))
	return nil
}

func (f *fakeStatus) MarkSuccess(_ context.Context, s model.SourceType, c string, ingested int) error {
	f.success = append(f.success, f.key(s, c))
	f.ingested = ingested
	return nil
}

func (f *fakeStatus) MarkError(_ context.Context, s model.SourceType, c string, msg string) error {
	f.errored = append(f.errored, f.key(s, c))
	f.lastMsg = msg
	return nil
}

func (f *fakeStatus) List(context.Context) ([]*model.FeedSyncStatus, error) { return nil, nil }

func (f *fakeStatus) TryLock(context.Context, model.SourceType, string) (bool, error) {
	return !f.locked, nil
}

func (f *fakeStatus) Unlock(context.Context, model.SourceType, string) error { return nil }

func newTestSyncService(catalog *fakeCatalog, status *fakeStatus) *FeedSyncService {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return &FeedSyncService{
		catalog: catalog,
		status:  status,
		cfg: &config.Config{Sync: config.SyncConfig{
			Countries:             "US",
			PastRetentionDays:     1,
			FutureRetentionMonths: 1,
		}},
		logger:      logger,
		pageDelay:   0, // 测试不等礼貌延迟
		backoffUnit: 0, // 测试不等退避
	}
}

// ========== 月度批次 ==========

func TestGenerateDateRanges(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	ranges := GenerateDateRanges(now, 90, 18)

	require.NotEmpty(t, ranges)
	assert.Equal(t, now.AddDate(0, 0, -90), ranges[0].Start, "首批起点应为now-90天")
	assert.Equal(t, now.AddDate(0, 18, 0), ranges[len(ranges)-1].End, "末批终点应裁剪到now+18个月")

	for i := 1; i < len(ranges); i++ {
		// 批次首尾相接不重叠：下一批起点=上一批终点+1天
		assert.Equal(t, ranges[i-1].End.AddDate(0, 0, 1), ranges[i].Start, "批次%d与%d应首尾相接", i-1, i)
	}
	for _, r := range ranges {
		assert.True(t, r.Start.Before(r.End) || r.Start.Equal(r.End))
	}
}

// ========== 分页硬上限 ==========

func TestSyncPairStopsAtPaginationCeiling(t *testing.T) {
	ing := newFakeIngestor(50, 2) // 供应商声称50页
	catalog := &fakeCatalog{}
	status := &fakeStatus{}
	s := newTestSyncService(catalog, status)

	require.NoError(t, s.SyncPair(context.Background(), ing, "US"))

	for _, p := range ing.fetchedPages {
		assert.Less(t, p, 10, "不得请求页码≥10的页面")
	}
	assert.Contains(t, ing.fetchedPages, 9, "硬上限之内的最后一页应被请求")
	assert.Equal(t, []string{"fakesource/US"}, status.success)
	assert.Equal(t, 10*2, status.ingested)
}

// ========== 重试边界 ==========

func TestFetchRetrySucceedsOnFourthAttempt(t *testing.T) {
	ing := newFakeIngestor(1, 3)
	ing.failuresFor[0] = 3 // 前3次失败，第4次成功
	catalog := &fakeCatalog{}
	status := &fakeStatus{}
	s := newTestSyncService(catalog, status)

	require.NoError(t, s.SyncPair(context.Background(), ing, "US"))

	assert.Equal(t, 4, ing.attempts[0], "3次重试=共4次尝试")
	assert.Len(t, catalog.upserted, 3, "第4次尝试成功后该页应正常入库")
	assert.Equal(t, []string{"fakesource/US"}, status.success)
}

func TestFetchRetryExhaustedSkipsPageAndContinues(t *testing.T) {
	ing := newFakeIngestor(2, 2)
	ing.failuresFor[0] = 4 // 4次尝试全失败
	catalog := &fakeCatalog{}
	status := &fakeStatus{}
	s := newTestSyncService(catalog, status)

	require.NoError(t, s.SyncPair(context.Background(), ing, "US"))

	assert.Equal(t, 4, ing.attempts[0], "重试耗尽后不再尝试该页")
	assert.Equal(t, 1, ing.attempts[1], "批次应推进到下一页而不是中止")
	assert.Len(t, catalog.upserted, 2, "仅第1页的事件入库")
	assert.Equal(t, []string{"fakesource/US"}, status.success, "页面跳过不算整对失败")
}

// ========== 单条隔离 ==========

func TestNormalizationFailureSkipsEventNotPage(t *testing.T) {
	ing := newFakeIngestor(1, 3)
	ing.badEventIDs["p0-e1"] = true
	catalog := &fakeCatalog{}
	status := &fakeStatus{}
	s := newTestSyncService(catalog, status)

	require.NoError(t, s.SyncPair(context.Background(), ing, "US"))

	assert.Equal(t, []string{"p0-e0", "p0-e2"}, catalog.upserted, "坏记录跳过，同页其余记录照常入库")
	assert.Equal(t, 2, status.ingested)
}

// ========== 对级失败隔离 ==========

func TestPersistenceFailureAbortsPair(t *testing.T) {
	ing := newFakeIngestor(3, 2)
	catalog := &fakeCatalog{upsertErr: &model.PersistenceError{Op: "begin", Err: errors.New("store down")}}
	status := &fakeStatus{}
	s := newTestSyncService(catalog, status)

	err := s.SyncPair(context.Background(), ing, "US")
	require.Error(t, err, "存储层不可用不得被当作单条跳过吞掉")
	assert.True(t, model.IsPersistence(err))

	// 首条入库失败即中止：不再抓后续页，也不进入清理
	assert.Equal(t, 1, ing.attempts[0])
	assert.Zero(t, ing.attempts[1])
	assert.Zero(t, catalog.pruneCalls)
	assert.Equal(t, []string{"fakesource/US"}, status.errored)
	assert.Empty(t, status.success)
	assert.Contains(t, status.lastMsg, "store down")
}

func TestPruneCutoffsAreCalendarDates(t *testing.T) {
	ing := newFakeIngestor(1, 1)
	catalog := &fakeCatalog{}
	status := &fakeStatus{}
	s := newTestSyncService(catalog, status) // past=1天, future=1个月

	require.NoError(t, s.SyncPair(context.Background(), ing, "US"))
	require.Equal(t, 1, catalog.pruneCalls)

	// cutoff必须截断到UTC日历日零点：带时分秒的cutoff会把边界日的演出误删
	for _, cut := range []time.Time{catalog.pastCutoff, catalog.futureCutoff} {
		h, m, sec := cut.Clock()
		assert.Zero(t, h)
		assert.Zero(t, m)
		assert.Zero(t, sec)
		assert.Zero(t, cut.Nanosecond())
		assert.Equal(t, time.UTC, cut.Location())
	}

	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	assert.Equal(t, today.AddDate(0, 0, -1), catalog.pastCutoff)
	assert.Equal(t, today.AddDate(0, 1, 0), catalog.futureCutoff)
}

func TestPruneFailureMarksPairError(t *testing.T) {
	ing := newFakeIngestor(1, 1)
	catalog := &fakeCatalog{pruneErr: &model.PersistenceError{Op: "清理过期演出", Err: errors.New("db down")}}
	status := &fakeStatus{}
	s := newTestSyncService(catalog, status)

	err := s.SyncPair(context.Background(), ing, "US")
	require.Error(t, err)
	assert.True(t, model.IsPersistence(err))
	assert.Equal(t, []string{"fakesource/US"}, status.errored)
	assert.Empty(t, status.success)
	assert.Contains(t, status.lastMsg, "db down")
}

func TestLockedPairIsSkippedWithoutError(t *testing.T) {
	ing := newFakeIngestor(1, 1)
	catalog := &fakeCatalog{}
	status := &fakeStatus{locked: true}
	s := newTestSyncService(catalog, status)

	require.NoError(t, s.SyncPair(context.Background(), ing, "US"))
	assert.Empty(t, ing.fetchedPages, "未拿到锁的对不应发起任何抓取")
	assert.Empty(t, status.running)
}

// ========== 顶层sweep ==========

func TestSyncAllIsolatesFailingPair(t *testing.T) {
	failing := newFakeIngestor(1, 1)
	failing.source = "failsource"
	healthy := newFakeIngestor(1, 1)
	healthy.source = "oksource"

	adapter.Register("failsource", func(*config.SourceConfig, *logrus.Logger) interfaces.FeedIngestor {
		return failing
	})
	adapter.Register("oksource", func(*config.SourceConfig, *logrus.Logger) interfaces.FeedIngestor {
		return healthy
	})

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	cfg := &config.Config{
		Sync: config.SyncConfig{
			Countries:             "US",
			PastRetentionDays:     1,
			FutureRetentionMonths: 1,
			EnabledSources:        []string{"failsource", "oksource"},
		},
		Sources: map[string]config.SourceConfig{
			"failsource": {}, "oksource": {},
		},
	}

	catalog := &fakeCatalog{pruneErrFor: "failsource", pruneErr: errors.New("db down")}
	status := &fakeStatus{}
	s := &FeedSyncService{
		registry: adapter.NewSourceRegistry(cfg, logger),
		catalog:  catalog,
		status:   status,
		cfg:      cfg,
		logger:   logger,
	}

	// 顶层sweep不应panic也不应返回错误：单对失败只记日志
	s.SyncAll(context.Background())

	assert.Equal(t, []string{"failsource/US"}, status.errored)
	assert.Equal(t, []string{"oksource/US"}, status.success, "健康对不受失败对影响")
}
