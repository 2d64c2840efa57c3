package scheduler

import (
	"sync"
	"time"

	"hotel-data-sync/internal/models"
)

// StatusHolder 同步状态持有者
// Written by whichever goroutine is executing a run, read by status-endpoint
// callers; the mutex stands in for the atomic reference the readers race on.
type StatusHolder struct {
	mu           sync.RWMutex
	status       string
	lastSyncTime *time.Time
}

// NewStatusHolder 创建状态持有者（初始 IDLE）
func NewStatusHolder() *StatusHolder {
	return &StatusHolder{status: models.SyncIdle}
}

// Set 更新当前同步状态
func (h *StatusHolder) Set(status string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.status = status
}

// Status 读取当前同步状态
func (h *StatusHolder) Status() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.status
}

// MarkSuccess 记录最后一次成功同步时间
func (h *StatusHolder) MarkSuccess(t time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastSyncTime = &t
}

// LastSyncTime 读取最后一次成功同步时间（nil 表示尚未成功）
func (h *StatusHolder) LastSyncTime() *time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.lastSyncTime == nil {
		return nil
	}
	t := *h.lastSyncTime
	return &t
}
