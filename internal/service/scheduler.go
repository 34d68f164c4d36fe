package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/switchconfigpro/switchconfigpro/internal/config"
	"github.com/switchconfigpro/switchconfigpro/pkg/logger"
)

// SchedulerService 周期备份调度：按固定间隔备份台账全量设备，
// 每轮结束后把汇总推送到可选的webhook。
type SchedulerService struct {
	cfg    *config.Config
	backup *BackupService

	httpClient *http.Client
	mutex      sync.Mutex
	running    bool
	stopChan   chan struct{}
}

// NewSchedulerService 创建调度服务
func NewSchedulerService(cfg *config.Config, backup *BackupService) *SchedulerService {
	return &SchedulerService{
		cfg:    cfg,
		backup: backup,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Start 启动调度循环
func (s *SchedulerService) Start(ctx context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}
	if !s.cfg.Scheduler.Enabled {
		logger.Info("backup scheduler disabled by configuration")
		return nil
	}

	s.running = true
	s.stopChan = make(chan struct{})
	go s.loop(ctx)

	logger.Info("backup scheduler started", "interval", s.cfg.Scheduler.Interval)
	return nil
}

// Stop 停止调度循环
func (s *SchedulerService) Stop() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if !s.running {
		return
	}
	s.running = false
	close(s.stopChan)
	logger.Info("backup scheduler stopped")
}

// Running 返回调度器是否在运行
func (s *SchedulerService) Running() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.running
}

func (s *SchedulerService) loop(ctx context.Context) {
	interval := s.cfg.Scheduler.Interval
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

// RunOnce 立即执行一轮全量备份（管理接口可手工触发）
func (s *SchedulerService) RunOnce(ctx context.Context) (*BackupSummary, error) {
	summary, err := s.backup.BackupAll(ctx)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, summary)
	return summary, nil
}

func (s *SchedulerService) runOnce(ctx context.Context) {
	summary, err := s.backup.BackupAll(ctx)
	if err != nil {
		logger.Error("scheduled backup failed", "error", err)
		return
	}
	logger.Info("scheduled backup finished", "task_id", summary.TaskID,
		"total", summary.Total, "succeeded", summary.Succeeded, "failed", summary.Failed)
	s.notify(ctx, summary)
}

// webhookPayload webhook通知载荷
type webhookPayload struct {
	Event     string    `json:"event"`
	TaskID    string    `json:"task_id"`
	Total     int       `json:"total"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	Timestamp time.Time `json:"timestamp"`
}

// notify 推送备份结果到webhook，失败只记日志不重试
func (s *SchedulerService) notify(ctx context.Context, summary *BackupSummary) {
	url := s.cfg.Scheduler.WebhookURL
	if url == "" {
		return
	}

	payload := webhookPayload{
		Event:     "backup.finished",
		TaskID:    summary.TaskID,
		Total:     summary.Total,
		Succeeded: summary.Succeeded,
		Failed:    summary.Failed,
		Timestamp: time.Now(),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Warn("failed to marshal webhook payload", "error", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		logger.Warn("failed to build webhook request", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		logger.Warn("webhook notification failed", "url", url, "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		logger.Warn("webhook returned non-success status", "url", url, "status", resp.StatusCode)
	}
}
