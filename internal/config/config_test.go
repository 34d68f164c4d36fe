package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestCommandTimeoutFor 平台级超时覆盖优先于全局默认
func TestCommandTimeoutFor(t *testing.T) {
	cfg := &Config{
		Provision: ProvisionConfig{CommandTimeout: 10 * time.Second},
		DeviceDefaults: map[string]DeviceDefaultsConfig{
			"huawei-vrp": {CommandTimeout: 20 * time.Second},
			"cisco-ios":  {}, // 有条目但未覆盖超时
		},
	}

	assert.Equal(t, 20*time.Second, cfg.CommandTimeoutFor("huawei-vrp"), "平台覆盖应该优先")
	assert.Equal(t, 10*time.Second, cfg.CommandTimeoutFor("cisco-ios"), "未覆盖时使用全局默认")
	assert.Equal(t, 10*time.Second, cfg.CommandTimeoutFor("unknown"), "未知平台使用全局默认")
}

// TestInterCommandDelayFor 平台级命令间隔覆盖
func TestInterCommandDelayFor(t *testing.T) {
	cfg := &Config{
		Provision: ProvisionConfig{InterCommandDelay: 100 * time.Millisecond},
		DeviceDefaults: map[string]DeviceDefaultsConfig{
			"cisco-ios": {InterCommandDelay: 300 * time.Millisecond},
		},
	}

	assert.Equal(t, 300*time.Millisecond, cfg.InterCommandDelayFor("cisco-ios"))
	assert.Equal(t, 100*time.Millisecond, cfg.InterCommandDelayFor("huawei-vrp"))
}

// TestFailureKeywordsFor 平台级关键字追加在全局之后
func TestFailureKeywordsFor(t *testing.T) {
	cfg := &Config{
		Provision: ProvisionConfig{FailureKeywords: []string{"% Invalid input", "Error:"}},
		DeviceDefaults: map[string]DeviceDefaultsConfig{
			"huawei-vrp": {ErrorHints: []string{"Error: Unrecognized command"}},
		},
	}

	merged := cfg.FailureKeywordsFor("huawei-vrp")
	assert.Equal(t, []string{"% Invalid input", "Error:", "Error: Unrecognized command"}, merged)

	// 全局列表不能被追加操作污染
	assert.Equal(t, []string{"% Invalid input", "Error:"}, cfg.Provision.FailureKeywords)

	assert.Equal(t, []string{"% Invalid input", "Error:"}, cfg.FailureKeywordsFor("cisco-ios"), "无平台条目时仅返回全局")
}

// TestGetServerAddr 监听地址拼接
func TestGetServerAddr(t *testing.T) {
	cfg := &Config{Server: ServerConfig{Host: "0.0.0.0", Port: 18000}}
	assert.Equal(t, "0.0.0.0:18000", cfg.GetServerAddr())
}
