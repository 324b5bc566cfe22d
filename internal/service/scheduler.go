package service

import (
	"context"
	"time"

	"ConcertSync/internal/config"

	"github.com/sirupsen/logrus"
)

// SyncScheduler 周期触发全量同步：启动时可先跑一轮，之后按固定间隔触发。
// 每轮运行都套run_timeout，防止某个供应商hang死占住整条调度
type SyncScheduler struct {
	syncService *FeedSyncService
	cfg         *config.SyncConfig
	logger      *logrus.Logger
}

func NewSyncScheduler(syncService *FeedSyncService, cfg *config.SyncConfig, logger *logrus.Logger) *SyncScheduler {
	return &SyncScheduler{
		syncService: syncService,
		cfg:         cfg,
		logger:      logger,
	}
}

// Start 阻塞运行调度循环，ctx取消后返回。应在独立goroutine中调用
func (s *SyncScheduler) Start(ctx context.Context) {
	s.logger.Infof("同步调度器已启动，间隔%s", s.cfg.Interval)

	if s.cfg.RunOnStart {
		s.runOnce(ctx)
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("同步调度器已停止")
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

// TriggerAsync 管理接口触发：后台跑一轮全量同步，立即返回。
// 进度只能通过轮询FeedSyncStatus观察
func (s *SyncScheduler) TriggerAsync() {
	go s.runOnce(context.Background())
}

func (s *SyncScheduler) runOnce(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, s.cfg.RunTimeout)
	defer cancel()
	s.syncService.SyncAll(runCtx)
}
