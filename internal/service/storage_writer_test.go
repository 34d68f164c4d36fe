package service

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/switchconfigpro/switchconfigpro/internal/config"
)

// TestSlug 对象路径片段规整
func TestSlug(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"SW-ACCESS-01", "sw-access-01"},
		{"Core Switch 01", "core_switch_01"},
		{"a/b\\c", "a_b_c"},
		{"设备01", "01"},
		{"  ", "unknown"},
		{"192.168.1.10", "192.168.1.10"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, slug(tt.in), "输入 %q", tt.in)
	}
}

// TestObjectParts 层级规则：category/device/date_time/taskID
func TestObjectParts(t *testing.T) {
	parts := objectParts(StorageMeta{
		Category:     "reports",
		DeviceName:   "SW-01",
		DeviceIP:     "10.0.0.1",
		DateYYYYMMDD: "20260823",
		TimeHHMMSS:   "101500",
		TaskID:       "task-1",
	})
	assert.Equal(t, []string{"reports", "sw-01", "20260823_101500", "task-1"}, parts)

	// 设备名缺失时退回IP
	parts = objectParts(StorageMeta{
		Category:     "backups",
		DeviceIP:     "10.0.0.1",
		DateYYYYMMDD: "20260823",
		TimeHHMMSS:   "101500",
	})
	assert.Equal(t, []string{"backups", "10.0.0.1", "20260823_101500"}, parts)
}

// TestObjectFilename 无扩展名追加.txt
func TestObjectFilename(t *testing.T) {
	assert.Equal(t, "running_config.txt", objectFilename(StorageMeta{FileSlug: "running_config"}))
	assert.Equal(t, "report.md", objectFilename(StorageMeta{FileSlug: "Report.md"}))
}

// TestLocalStorageWriterWrite 本地写入的URI、校验和与落盘内容
func TestLocalStorageWriterWrite(t *testing.T) {
	cfg := &config.Config{
		Storage: config.StorageConfig{
			Type: "local",
			Local: config.LocalStorageConfig{
				BaseDir:        t.TempDir(),
				MkdirIfMissing: true,
			},
		},
	}
	w := &LocalStorageWriter{cfg: cfg}

	obj, err := w.Write(context.Background(), StorageMeta{
		Category:     "reports",
		DeviceName:   "SW-01",
		DateYYYYMMDD: "20260823",
		TimeHHMMSS:   "101500",
		TaskID:       "task-1",
		FileSlug:     "provision_report",
	}, "report body", "")
	require.NoError(t, err, "本地写入应该成功")

	assert.True(t, strings.HasPrefix(obj.URI, "file://"), "URI应该是file scheme")
	assert.Equal(t, int64(len("report body")), obj.Size)
	assert.True(t, strings.HasPrefix(obj.Checksum, "sha256:"))
	assert.Equal(t, "text/plain; charset=utf-8", obj.ContentType)

	data, err := os.ReadFile(strings.TrimPrefix(obj.URI, "file://"))
	require.NoError(t, err, "文件应该已落盘")
	assert.Equal(t, "report body", string(data))
	assert.Contains(t, obj.URI, "reports/sw-01/20260823_101500/task-1/provision_report.txt")
}

// TestDelegatingWriterFallsBackToLocal MinIO未初始化时选择minio后端回退本地
func TestDelegatingWriterFallsBackToLocal(t *testing.T) {
	cfg := &config.Config{
		Storage: config.StorageConfig{
			Type: "minio", // 未配置Host，minio writer不会初始化
			Local: config.LocalStorageConfig{
				BaseDir:        t.TempDir(),
				MkdirIfMissing: true,
			},
		},
	}
	w := NewStorageWriter(cfg)

	obj, err := w.Write(context.Background(), StorageMeta{
		Category: "backups",
		DeviceIP: "10.0.0.1",
		FileSlug: "running_config",
	}, "config body", "")
	require.NoError(t, err, "回退本地写入应该成功")
	assert.True(t, strings.HasPrefix(obj.URI, "file://"), "回退后URI应该是file scheme")
}
