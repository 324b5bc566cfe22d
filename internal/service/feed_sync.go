package service

import (
	"context"
	"errors"
	"time"

	"ConcertSync/internal/adapter"
	"ConcertSync/internal/config"
	"ConcertSync/internal/interfaces"
	"ConcertSync/internal/model"

	"github.com/sirupsen/logrus"
)

const (
	// maxPageRetries 单页抓取失败后最多追加重试3次（共4次尝试）
	maxPageRetries = 3
	// defaultPageDelay 批内相邻成功页之间的礼貌性延迟（尾页之后不延迟）
	defaultPageDelay = 1500 * time.Millisecond
	// defaultBackoffUnit 指数退避单位：重试n次前等待2^n个单位（2s、4s、8s）
	defaultBackoffUnit = time.Second
)

// DateRange 一个月度批次的日期窗口（闭区间，首尾相接不重叠）
type DateRange struct {
	Start time.Time
	End   time.Time
}

// GenerateDateRanges 计算覆盖[now-pastDays, now+futureMonths]的月度批次，
// 末批裁剪到整体终点。按月分批是为了绕开供应商单窗口1000条的硬限制
func GenerateDateRanges(now time.Time, pastDays, futureMonths int) []DateRange {
	start := now.AddDate(0, 0, -pastDays)
	end := now.AddDate(0, futureMonths, 0)

	var ranges []DateRange
	current := start
	for current.Before(end) {
		batchEnd := current.AddDate(0, 1, 0)
		if batchEnd.After(end) {
			batchEnd = end
		}
		ranges = append(ranges, DateRange{Start: current, End: batchEnd})
		current = batchEnd.AddDate(0, 0, 1)
	}
	return ranges
}

// FeedSyncService 同步编排器：驱动月度批次、分页、重试退避与局部失败隔离
type FeedSyncService struct {
	registry *adapter.SourceRegistry
	catalog  interfaces.CatalogRepository
	status   interfaces.SyncStatusRepository
	cfg      *config.Config
	logger   *logrus.Logger

	pageDelay   time.Duration // 可注入（测试置0）
	backoffUnit time.Duration // 可注入（测试置0）
}

func NewFeedSyncService(
	registry *adapter.SourceRegistry,
	catalog interfaces.CatalogRepository,
	status interfaces.SyncStatusRepository,
	cfg *config.Config,
	logger *logrus.Logger,
) *FeedSyncService {
	return &FeedSyncService{
		registry:    registry,
		catalog:     catalog,
		status:      status,
		cfg:         cfg,
		logger:      logger,
		pageDelay:   defaultPageDelay,
		backoffUnit: defaultBackoffUnit,
	}
}

// SyncAll 顶层全量同步：遍历所有(票务源,国家)对。单对失败只记日志，
// 绝不影响其他对，也绝不让异常逃到调度进程
func (s *FeedSyncService) SyncAll(ctx context.Context) {
	countries := s.cfg.Sync.CountryList()
	s.logger.Infof("全量同步开始，共%d个票务源 × %d个国家", len(s.registry.ListSources()), len(countries))

	for _, ingestor := range s.registry.All() {
		for _, country := range countries {
			if err := s.SyncPair(ctx, ingestor, country); err != nil {
				s.logger.WithError(err).WithFields(logrus.Fields{
					"source":  ingestor.GetSource(),
					"country": country,
				}).Error("该(source,country)对同步失败，继续下一对")
			}
		}
	}

	s.logger.Info("全量同步结束")
}

// SyncPair 同步单个(票务源,国家)对：advisory锁防并发重入，逐批逐页抓取入库，
// 批次全部结束后清理过期演出并落同步状态
func (s *FeedSyncService) SyncPair(ctx context.Context, ingestor interfaces.FeedIngestor, country string) error {
	source := ingestor.GetSource()
	startTime := time.Now()

	acquired, err := s.status.TryLock(ctx, source, country)
	if err != nil {
		return err
	}
	if !acquired {
		s.logger.WithFields(logrus.Fields{"source": source, "country": country}).
			Warn("同对同步仍在进行中，本轮跳过")
		return nil
	}
	defer func() {
		if err := s.status.Unlock(context.WithoutCancel(ctx), source, country); err != nil {
			s.logger.WithError(err).Warn("释放同步锁失败")
		}
	}()

	if err := s.status.MarkRunning(ctx, source, country); err != nil {
		return err
	}

	totalEvents, totalSkipped, err := s.runBatches(ctx, ingestor, country)
	if err != nil {
		// 状态行落error时同步可能正被取消，用不可取消的ctx保证写入
		if markErr := s.status.MarkError(context.WithoutCancel(ctx), source, country, err.Error()); markErr != nil {
			s.logger.WithError(markErr).Error("记录同步失败状态失败")
		}
		return err
	}

	// 批次全部完成后对该源做保留窗口清理。
	// startDate是日历日（零点落库），cutoff必须截断到日历日：
	// 带时分秒的cutoff会把恰在边界日的演出误删
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	pastCutoff := today.AddDate(0, 0, -s.cfg.Sync.PastRetentionDays)
	futureCutoff := today.AddDate(0, s.cfg.Sync.FutureRetentionMonths, 0)
	pruned, err := s.catalog.PruneStaleEvents(ctx, source, pastCutoff, futureCutoff)
	if err != nil {
		if markErr := s.status.MarkError(context.WithoutCancel(ctx), source, country, err.Error()); markErr != nil {
			s.logger.WithError(markErr).Error("记录同步失败状态失败")
		}
		return err
	}
	if pruned > 0 {
		s.logger.WithFields(logrus.Fields{"source": source, "pruned": pruned}).Info("已清理保留窗口外的演出")
	}

	if err := s.status.MarkSuccess(ctx, source, country, totalEvents); err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"source":   source,
		"country":  country,
		"events":   totalEvents,
		"skipped":  totalSkipped,
		"duration": time.Since(startTime).Round(time.Millisecond).String(),
	}).Info("该(source,country)对同步完成")
	return nil
}

// runBatches 逐月度批次抓取入库。返回入库数与跳过数；
// 逃出单页/单条隔离的错误（存储不可用、ctx取消）会中止剩余批次
func (s *FeedSyncService) runBatches(ctx context.Context, ingestor interfaces.FeedIngestor, country string) (int, int, error) {
	source := ingestor.GetSource()
	ranges := GenerateDateRanges(time.Now(), s.cfg.Sync.PastRetentionDays, s.cfg.Sync.FutureRetentionMonths)

	s.logger.WithFields(logrus.Fields{
		"source":  source,
		"country": country,
		"batches": len(ranges),
	}).Info("开始按月度批次同步")

	totalEvents := 0
	totalSkipped := 0
	skippedPages := 0

	for batchIndex, rng := range ranges {
		if err := ctx.Err(); err != nil {
			return totalEvents, totalSkipped, err
		}

		page := 0
		hasMore := true
		batchEvents := 0

		for hasMore {
			feed, err := s.fetchPageWithRetry(ctx, ingestor, country, page, rng)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return totalEvents, totalSkipped, ctxErr
				}
				// 重试耗尽：跳过该页继续推进，不中止批次
				skippedPages++
				s.logger.WithError(err).WithFields(logrus.Fields{
					"source": source, "country": country, "batch": batchIndex + 1, "page": page,
				}).Error("该页重试耗尽，跳过并继续")
				page++
				if page >= ingestor.MaxPage() {
					hasMore = false
				}
				continue
			}

			if len(feed.Events) == 0 {
				break
			}

			// 逐条归一化并入库：单条失败计入跳过，不中止整页
			for _, raw := range feed.Events {
				normalized, err := ingestor.NormalizeEvent(raw)
				if err != nil {
					totalSkipped++
					// 归一化失败（如缺场馆）是预期内的，静默计数；其他错误类型记日志
					if !model.IsNormalization(err) {
						s.logger.WithError(err).WithField("event_id", raw.ID).Warn("事件归一化出现预期外错误，跳过")
					}
					continue
				}
				if err := s.catalog.UpsertEvent(ctx, normalized); err != nil {
					if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
						return totalEvents, totalSkipped, err
					}
					// 存储层不可用本地不可恢复：中止该(source,country)对剩余批次
					if model.IsPersistence(err) {
						return totalEvents, totalSkipped, err
					}
					totalSkipped++
					s.logger.WithError(err).WithField("source_id", normalized.SourceID).Debug("单条演出入库失败，跳过")
					continue
				}
				totalEvents++
				batchEvents++
			}

			s.logger.WithFields(logrus.Fields{
				"source": source, "country": country,
				"batch": batchIndex + 1, "batches": len(ranges),
				"page": page + 1, "total_pages": feed.Page.TotalPages,
				"batch_events": batchEvents,
			}).Info("单页入库完成")

			page++
			hasMore = page < feed.Page.TotalPages

			// 供应商分页硬上限：无论totalPages报多少都不得越过
			if page >= ingestor.MaxPage() {
				if hasMore {
					s.logger.WithFields(logrus.Fields{
						"source": source, "country": country, "batch": batchIndex + 1,
						"total_pages": feed.Page.TotalPages,
					}).Warn("触达供应商分页硬上限，进入下一批次")
				}
				hasMore = false
			}

			// 批内相邻成功页之间的礼貌性延迟（尾页之后不延迟）
			if hasMore {
				if !sleepCtx(ctx, s.pageDelay) {
					return totalEvents, totalSkipped, ctx.Err()
				}
			}
		}

		s.logger.WithFields(logrus.Fields{
			"source": source, "country": country,
			"batch": batchIndex + 1, "batches": len(ranges), "batch_events": batchEvents,
			"skipped_pages": skippedPages,
		}).Info("批次完成")
	}

	return totalEvents, totalSkipped, nil
}

// fetchPageWithRetry 单页抓取+指数退避重试（2s、4s、8s）。
// 全部尝试失败返回最后一次错误，由调用方决定跳页
func (s *FeedSyncService) fetchPageWithRetry(ctx context.Context, ingestor interfaces.FeedIngestor, country string, page int, rng DateRange) (*model.FeedPage, error) {
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		feed, err := ingestor.FetchFeed(ctx, country, page, &rng.Start, &rng.End)
		if err == nil {
			return feed, nil
		}
		if attempt >= maxPageRetries {
			return nil, err
		}

		backoff := time.Duration(1<<(attempt+1)) * s.backoffUnit
		s.logger.WithError(err).WithFields(logrus.Fields{
			"source": ingestor.GetSource(), "country": country, "page": page,
			"retry": attempt + 1, "max_retries": maxPageRetries, "backoff": backoff.String(),
			"transient": model.IsTransientFetch(err),
		}).Warn("单页抓取失败，退避后重试")
		if !sleepCtx(ctx, backoff) {
			return nil, ctx.Err()
		}
	}
}

// sleepCtx 可被ctx打断的sleep；返回false表示ctx已取消
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
