package survey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ciscoBriefSample = `Interface              IP-Address      OK? Method Status                Protocol
Vlan1                  192.168.1.1     YES manual up                    up
FastEthernet0/1        unassigned      YES unset  up                    up
FastEthernet0/2        unassigned      YES unset  down                  down`

// TestParseColumnarInterfaces 列式简表：首列名称、次列IP、末两列状态
func TestParseColumnarInterfaces(t *testing.T) {
	rows := ParseColumnarInterfaces(ciscoBriefSample)
	require.Len(t, rows, 3, "表头不计入数据行")

	assert.Equal(t, "Vlan1", rows[0].Name)
	assert.Equal(t, "192.168.1.1", rows[0].IPAddress)
	assert.Equal(t, "up", rows[0].Status)
	assert.Equal(t, "up", rows[0].Protocol)

	assert.Equal(t, "FastEthernet0/2", rows[2].Name)
	assert.Equal(t, "down", rows[2].Status)
	assert.Equal(t, "down", rows[2].Protocol)
}

// TestSplitConfigSections 分隔行切分，小节首行作为标题
func TestSplitConfigSections(t *testing.T) {
	raw := `!
version 15.0
hostname SW-01
!
interface Vlan1
 ip address 192.168.1.1 255.255.255.0
 no shutdown
!
line vty 0 4
 transport input ssh
!`

	sections := SplitConfigSections(raw, "!")
	require.Len(t, sections, 3)

	assert.Equal(t, "version 15.0", sections[0].Heading)
	assert.Len(t, sections[0].Lines, 2)

	assert.Equal(t, "interface Vlan1", sections[1].Heading)
	assert.Equal(t, []string{"interface Vlan1", " ip address 192.168.1.1 255.255.255.0", " no shutdown"}, sections[1].Lines)

	assert.Equal(t, "line vty 0 4", sections[2].Heading)
}

// TestDefaultPluginParseVersion 通用解析：版本号与uptime宽松匹配
func TestDefaultPluginParseVersion(t *testing.T) {
	p := &DefaultPlugin{}
	info := p.ParseVersion("Some Vendor OS Software, Version 4.2.1, RELEASE\nbox uptime is 3 days, 1 hour")
	assert.Equal(t, "4.2.1", info.Version, "尾随逗号应该剔除")
	assert.Equal(t, "3 days, 1 hour", info.Uptime)

	empty := p.ParseVersion("garbage with no recognizable fields")
	assert.Empty(t, empty.Version)
	assert.Empty(t, empty.Uptime)
}

// TestRegistryFallback 未注册类型回退default插件
func TestRegistryFallback(t *testing.T) {
	p := Get("no-such-device-type")
	require.NotNil(t, p)
	assert.Equal(t, "default", p.Name())
}
