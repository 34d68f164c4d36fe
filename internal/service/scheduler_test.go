package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/switchconfigpro/switchconfigpro/internal/config"
)

// TestSchedulerDisabledByConfig 配置关闭时Start是空操作
func TestSchedulerDisabledByConfig(t *testing.T) {
	cfg := &config.Config{Scheduler: config.SchedulerConfig{Enabled: false}}
	s := NewSchedulerService(cfg, nil)

	require.NoError(t, s.Start(context.Background()), "关闭状态下启动不应该报错")
	assert.False(t, s.Running(), "调度器不应该进入运行态")
}

// TestSchedulerStartStop 启动后拒绝重复启动，Stop幂等
func TestSchedulerStartStop(t *testing.T) {
	cfg := &config.Config{Scheduler: config.SchedulerConfig{Enabled: true, Interval: time.Hour}}
	s := NewSchedulerService(cfg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.Start(ctx))
	assert.True(t, s.Running())
	assert.Error(t, s.Start(ctx), "重复启动应该报错")

	s.Stop()
	assert.False(t, s.Running())
	s.Stop() // 幂等
}

// TestSchedulerWebhookNotify webhook收到备份汇总载荷
func TestSchedulerWebhookNotify(t *testing.T) {
	received := make(chan webhookPayload, 1)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var p webhookPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		received <- p
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	cfg := &config.Config{Scheduler: config.SchedulerConfig{WebhookURL: ts.URL}}
	s := NewSchedulerService(cfg, nil)

	s.notify(context.Background(), &BackupSummary{
		TaskID:    "task-9",
		Total:     5,
		Succeeded: 4,
		Failed:    1,
	})

	select {
	case p := <-received:
		assert.Equal(t, "backup.finished", p.Event)
		assert.Equal(t, "task-9", p.TaskID)
		assert.Equal(t, 5, p.Total)
		assert.Equal(t, 4, p.Succeeded)
		assert.Equal(t, 1, p.Failed)
		assert.WithinDuration(t, time.Now(), p.Timestamp, time.Minute)
	case <-time.After(3 * time.Second):
		t.Fatal("webhook没有收到通知")
	}
}

// TestSchedulerWebhookDisabledWhenURLEmpty URL为空时不发起请求
func TestSchedulerWebhookDisabledWhenURLEmpty(t *testing.T) {
	cfg := &config.Config{Scheduler: config.SchedulerConfig{}}
	s := NewSchedulerService(cfg, nil)
	// 没有URL时直接返回，不会panic也不会请求
	s.notify(context.Background(), &BackupSummary{TaskID: "task-0"})
}

// TestBackupCommandsFor 备份命令：设备类型优先，其次generic，最后内置默认
func TestBackupCommandsFor(t *testing.T) {
	cfg := &config.Config{
		Backup: config.BackupConfig{
			Commands: map[string][]string{
				"huawei-vrp": {"display current-configuration"},
				"generic":    {"show running-config", "show version"},
			},
		},
	}
	s := NewBackupService(cfg, nil, nil)

	assert.Equal(t, []string{"display current-configuration"}, s.backupCommandsFor("huawei-vrp"))
	assert.Equal(t, []string{"show running-config", "show version"}, s.backupCommandsFor("cisco-ios"), "未配置的类型回退generic")

	empty := NewBackupService(&config.Config{}, nil, nil)
	assert.Equal(t, []string{"show running-config"}, empty.backupCommandsFor("cisco-ios"), "无任何配置时使用内置默认")
}
