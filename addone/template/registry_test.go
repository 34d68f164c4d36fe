package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRegistryFallback 未注册类型回退default插件
func TestRegistryFallback(t *testing.T) {
	p := Get("no-such-device-type")
	require.NotNil(t, p)
	assert.Equal(t, "default", p.Name())
}

// TestDefaultPluginLevels default插件只承诺basic级别
func TestDefaultPluginLevels(t *testing.T) {
	p := Get("default")
	assert.Equal(t, []string{LevelBasic}, p.SecurityLevels())

	commands, ok := p.Commands(LevelBasic)
	assert.True(t, ok)
	assert.NotEmpty(t, commands)

	_, ok = p.Commands(LevelHardened)
	assert.False(t, ok, "default插件不支持更高级别")
}

// TestRegisteredContainsDefault 注册表始终包含default
func TestRegisteredContainsDefault(t *testing.T) {
	assert.Contains(t, Registered(), "default")
}
