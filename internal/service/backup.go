package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/switchconfigpro/switchconfigpro/internal/config"
	"github.com/switchconfigpro/switchconfigpro/internal/database"
	"github.com/switchconfigpro/switchconfigpro/internal/model"
	"github.com/switchconfigpro/switchconfigpro/pkg/logger"
	"golang.org/x/sync/semaphore"
	"gorm.io/gorm"
)

// BackupService 设备配置备份：单设备抓取与批量并发备份
type BackupService struct {
	cfg     *config.Config
	exec    *ExecService
	storage StorageWriter
}

// NewBackupService 创建备份服务
func NewBackupService(cfg *config.Config, exec *ExecService, storage StorageWriter) *BackupService {
	return &BackupService{cfg: cfg, exec: exec, storage: storage}
}

// BackupSummary 批量备份汇总
type BackupSummary struct {
	TaskID    string                `json:"task_id"`
	Total     int                   `json:"total"`
	Succeeded int                   `json:"succeeded"`
	Failed    int                   `json:"failed"`
	Records   []*model.BackupRecord `json:"records"`
	Duration  time.Duration         `json:"duration"`
}

// backupCommandsFor 设备类型对应的备份命令序列
func (s *BackupService) backupCommandsFor(deviceType string) []string {
	if cmds, ok := s.cfg.Backup.Commands[deviceType]; ok && len(cmds) > 0 {
		return cmds
	}
	if cmds, ok := s.cfg.Backup.Commands["generic"]; ok && len(cmds) > 0 {
		return cmds
	}
	return []string{"show running-config"}
}

// BackupDevice 备份单台设备的运行配置
func (s *BackupService) BackupDevice(ctx context.Context, taskID string, device *model.Device) *model.BackupRecord {
	record := &model.BackupRecord{
		ID:         uuid.NewString(),
		TaskID:     taskID,
		DeviceIP:   device.IP,
		DeviceName: device.Name,
		DeviceType: device.DeviceType,
	}
	start := time.Now()

	result, err := s.exec.Run(ctx, ExecRequest{
		Host:         device.IP,
		Port:         device.Port,
		Username:     device.Username,
		Password:     device.Password,
		EnableSecret: device.EnableSecret,
		DeviceType:   device.DeviceType,
		Commands:     s.backupCommandsFor(device.DeviceType),
	})
	if err != nil {
		record.Status = model.BackupStatusFailed
		record.ErrorMsg = err.Error()
		s.touchDevice(device, model.DeviceStatusUnreachable)
		s.persistRecord(record)
		logger.Warn("device backup failed", "device_ip", device.IP, "error", err)
		return record
	}

	var b strings.Builder
	for _, ex := range result.Exchanges {
		fmt.Fprintf(&b, "! command: %s\n", ex.Command)
		b.WriteString(ex.Output)
		if !strings.HasSuffix(ex.Output, "\n") {
			b.WriteString("\n")
		}
	}

	prefix := strings.TrimSpace(s.cfg.Backup.Prefix)
	if prefix == "" {
		prefix = "backups"
	}
	obj, err := s.storage.Write(ctx, StorageMeta{
		Category:     prefix,
		DateYYYYMMDD: start.Format("20060102"),
		TimeHHMMSS:   start.Format("150405"),
		TaskID:       taskID,
		DeviceName:   device.Name,
		DeviceIP:     device.IP,
		FileSlug:     "running_config",
	}, b.String(), "")
	if err != nil {
		record.Status = model.BackupStatusFailed
		record.ErrorMsg = err.Error()
		s.persistRecord(record)
		logger.Warn("backup storage write failed", "device_ip", device.IP, "error", err)
		return record
	}

	record.Status = model.BackupStatusSuccess
	record.ObjectURI = obj.URI
	record.Size = obj.Size
	record.Checksum = obj.Checksum
	s.touchDevice(device, model.DeviceStatusReachable)
	s.persistRecord(record)

	logger.Info("device backup finished", "device_ip", device.IP, "uri", obj.URI,
		"size", obj.Size, "duration", time.Since(start).Round(time.Millisecond))
	return record
}

// BackupBatch 并发备份一组设备，并发度受配置上限约束
func (s *BackupService) BackupBatch(ctx context.Context, devices []*model.Device) *BackupSummary {
	taskID := uuid.NewString()
	start := time.Now()

	concurrent := s.cfg.Backup.Concurrent
	if concurrent <= 0 {
		concurrent = 5
	}
	sem := semaphore.NewWeighted(int64(concurrent))

	var wg sync.WaitGroup
	var mu sync.Mutex
	records := make([]*model.BackupRecord, 0, len(devices))

	for _, device := range devices {
		if err := sem.Acquire(ctx, 1); err != nil {
			// 上下文取消：剩余设备不再启动
			break
		}
		wg.Add(1)
		go func(device *model.Device) {
			defer wg.Done()
			defer sem.Release(1)
			record := s.BackupDevice(ctx, taskID, device)
			mu.Lock()
			records = append(records, record)
			mu.Unlock()
		}(device)
	}
	wg.Wait()

	summary := &BackupSummary{
		TaskID:   taskID,
		Total:    len(devices),
		Records:  records,
		Duration: time.Since(start),
	}
	for _, r := range records {
		if r.Status == model.BackupStatusSuccess {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}

	logger.Info("batch backup finished", "task_id", taskID, "total", summary.Total,
		"succeeded", summary.Succeeded, "failed", summary.Failed)
	return summary
}

// BackupAll 备份台账中的全部设备
func (s *BackupService) BackupAll(ctx context.Context) (*BackupSummary, error) {
	var devices []*model.Device
	if err := database.GetDB().Find(&devices).Error; err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	return s.BackupBatch(ctx, devices), nil
}

// ListRecords 查询备份记录，taskID为空时返回最近记录
func (s *BackupService) ListRecords(taskID string, limit int) ([]*model.BackupRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := database.GetDB().Order("created_at DESC").Limit(limit)
	if taskID != "" {
		query = query.Where("task_id = ?", taskID)
	}
	var records []*model.BackupRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (s *BackupService) persistRecord(record *model.BackupRecord) {
	if err := database.WithRetry(func(tx *gorm.DB) error {
		return tx.Create(record).Error
	}, 3, 0); err != nil {
		logger.Warn("failed to persist backup record", "device_ip", record.DeviceIP, "error", err)
	}
}

// touchDevice 回写设备可达性与检查时间
func (s *BackupService) touchDevice(device *model.Device, status string) {
	if device.ID == "" {
		return
	}
	updates := map[string]interface{}{
		"status":     status,
		"last_check": time.Now(),
	}
	if err := database.WithRetry(func(tx *gorm.DB) error {
		return tx.Model(&model.Device{}).Where("id = ?", device.ID).Updates(updates).Error
	}, 3, 0); err != nil {
		logger.Debug("failed to touch device", "device_id", device.ID, "error", err)
	}
}
