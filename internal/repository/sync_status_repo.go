package repository

import (
	"context"
	"database/sql"
	"hash/fnv"
	"sync"
	"time"

	"ConcertSync/internal/interfaces"
	"ConcertSync/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SyncStatusRepository struct {
	db *gorm.DB

	mu        sync.Mutex
	lockConns map[int64]*sql.Conn // 锁键→持锁连接（advisory锁是会话级的）
}

func NewSyncStatusRepository(db *gorm.DB) interfaces.SyncStatusRepository {
	return &SyncStatusRepository{db: db, lockConns: make(map[int64]*sql.Conn)}
}

// MarkRunning 同步启动：不存在则建行，存在则last-writer-wins覆盖状态并清空错误信息
func (r *SyncStatusRepository) MarkRunning(ctx context.Context, source model.SourceType, country string) error {
	now := time.Now()
	row := &model.FeedSyncStatus{
		Source:     string(source),
		Country:    country,
		LastSyncAt: &now,
		Status:     model.SyncStatusRunning,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "source"}, {Name: "country"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"last_sync_at":  now,
			"status":        model.SyncStatusRunning,
			"error_message": nil,
			"updated_at":    now,
		}),
	}).Create(row).Error
	if err != nil {
		return &model.PersistenceError{Op: "标记同步running", Err: err}
	}
	return nil
}

// MarkSuccess 同步成功：记录成功时间与本轮入库数
func (r *SyncStatusRepository) MarkSuccess(ctx context.Context, source model.SourceType, country string, ingested int) error {
	now := time.Now()
	err := r.db.WithContext(ctx).Model(&model.FeedSyncStatus{}).
		Where("source = ? AND country = ?", source, country).
		Updates(map[string]interface{}{
			"status":          model.SyncStatusSuccess,
			"last_success_at": now,
			"events_ingested": ingested,
			"error_message":   nil,
			"updated_at":      now,
		}).Error
	if err != nil {
		return &model.PersistenceError{Op: "标记同步success", Err: err}
	}
	return nil
}

// MarkError 同步失败：保留失败原因供轮询方排查
func (r *SyncStatusRepository) MarkError(ctx context.Context, source model.SourceType, country string, message string) error {
	err := r.db.WithContext(ctx).Model(&model.FeedSyncStatus{}).
		Where("source = ? AND country = ?", source, country).
		Updates(map[string]interface{}{
			"status":        model.SyncStatusError,
			"error_message": message,
			"updated_at":    time.Now(),
		}).Error
	if err != nil {
		return &model.PersistenceError{Op: "标记同步error", Err: err}
	}
	return nil
}

// List 返回全部同步状态行（进度只能通过轮询本表观察）
func (r *SyncStatusRepository) List(ctx context.Context) ([]*model.FeedSyncStatus, error) {
	var rows []*model.FeedSyncStatus
	if err := r.db.WithContext(ctx).
		Order("source ASC, country ASC").
		Find(&rows).Error; err != nil {
		return nil, &model.PersistenceError{Op: "查询同步状态", Err: err}
	}
	return rows, nil
}

// TryLock 以(source,country)为键申请会话级advisory锁，防止同对并发重入同步。
// 锁是会话级的：必须独占一条连接并保留到Unlock，加锁/解锁走连接池的
// 不同连接会让锁静默泄漏直到连接被回收。仅PostgreSQL支持；
// 其他方言（测试用sqlite）直接放行
func (r *SyncStatusRepository) TryLock(ctx context.Context, source model.SourceType, country string) (bool, error) {
	if r.db.Dialector.Name() != "postgres" {
		return true, nil
	}
	key := pairLockKey(source, country)

	sqlDB, err := r.db.DB()
	if err != nil {
		return false, &model.PersistenceError{Op: "申请同步锁", Err: err}
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return false, &model.PersistenceError{Op: "申请同步锁", Err: err}
	}

	var acquired bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", key).Scan(&acquired); err != nil {
		_ = conn.Close()
		return false, &model.PersistenceError{Op: "申请同步锁", Err: err}
	}
	if !acquired {
		_ = conn.Close()
		return false, nil
	}

	r.mu.Lock()
	r.lockConns[key] = conn
	r.mu.Unlock()
	return true, nil
}

// Unlock 在持锁连接上释放TryLock取得的advisory锁并归还连接。
// 未持锁时为no-op
func (r *SyncStatusRepository) Unlock(ctx context.Context, source model.SourceType, country string) error {
	if r.db.Dialector.Name() != "postgres" {
		return nil
	}
	key := pairLockKey(source, country)

	r.mu.Lock()
	conn, held := r.lockConns[key]
	delete(r.lockConns, key)
	r.mu.Unlock()
	if !held {
		return nil
	}
	defer conn.Close() // 连接关闭本身也会释放该会话持有的advisory锁

	if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", key); err != nil {
		return &model.PersistenceError{Op: "释放同步锁", Err: err}
	}
	return nil
}

// pairLockKey (source,country)→int64锁键
func pairLockKey(source model.SourceType, country string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(string(source) + ":" + country))
	return int64(h.Sum64())
}
