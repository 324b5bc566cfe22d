package api

import (
	"net/http"

	"ConcertSync/internal/interfaces"
	"ConcertSync/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SyncHandler 管理侧接口：触发全量同步、轮询同步状态
type SyncHandler struct {
	scheduler  *service.SyncScheduler
	statusRepo interfaces.SyncStatusRepository
	logger     *logrus.Logger
}

func NewSyncHandler(scheduler *service.SyncScheduler, statusRepo interfaces.SyncStatusRepository, logger *logrus.Logger) *SyncHandler {
	return &SyncHandler{
		scheduler:  scheduler,
		statusRepo: statusRepo,
		logger:     logger,
	}
}

// TriggerFeedSync 触发一轮后台全量同步，立即返回202
// POST /admin/feed/sync
func (h *SyncHandler) TriggerFeedSync(c *gin.Context) {
	source := c.Query("source")

	h.scheduler.TriggerAsync()

	message := "feed sync started for all sources"
	if source != "" {
		message = "feed sync started, requested source: " + source
	}
	c.JSON(http.StatusAccepted, gin.H{
		"message": message,
		"note":    "this is a background operation, poll /admin/feed/status for progress",
	})
}

// GetFeedSyncStatus 轮询各(source,country)对的同步状态
// GET /admin/feed/status
func (h *SyncHandler) GetFeedSyncStatus(c *gin.Context) {
	rows, err := h.statusRepo.List(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("查询同步状态失败")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"statuses": rows})
}
