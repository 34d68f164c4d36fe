package console

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderSubstitutesAllPlaceholders(t *testing.T) {
	commands := []string{
		"hostname {hostname}",
		"ip domain-name {domain}",
		"interface vlan 1",
		"ip address {ip_address} {subnet_mask}",
	}
	fields := map[string]string{
		"hostname":    "sw-core-01",
		"domain":      "lab.local",
		"ip_address":  "192.168.10.2",
		"subnet_mask": "255.255.255.0",
	}

	rendered := Render(commands, fields)
	require.Len(t, rendered, len(commands), "渲染不改变命令条数与顺序")

	joined := strings.Join(rendered, "\n")
	assert.NotContains(t, joined, "{", "全部字段就位时不应残留占位符")
	assert.NotContains(t, joined, "}", "全部字段就位时不应残留占位符")
	assert.Equal(t, "hostname sw-core-01", rendered[0])
	assert.Equal(t, "ip address 192.168.10.2 255.255.255.0", rendered[3])
}

func TestRenderKeepsUnresolvedPlaceholderLiteral(t *testing.T) {
	rendered := Render([]string{"ip default-gateway {gateway}"}, map[string]string{})
	require.Len(t, rendered, 1)
	assert.Equal(t, "ip default-gateway {gateway}", rendered[0],
		"缺失字段的占位符必须原样保留，不得替换为空串")
}

func TestRenderRepeatedPlaceholder(t *testing.T) {
	rendered := Render(
		[]string{"username {username} privilege 15 secret {password}", "banner motd #{username}#"},
		map[string]string{"username": "netadmin", "password": "s3cret!pass"},
	)
	assert.Equal(t, "username netadmin privilege 15 secret s3cret!pass", rendered[0])
	assert.Equal(t, "banner motd #netadmin#", rendered[1], "同一占位符多处出现均应替换")
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := &NetworkConfig{
		Hostname:   "ab",          // 过短
		Username:   "x",           // 过短
		Password:   "short",       // 过短
		IPAddress:  "not-an-ip",   // 非点分四段
		SubnetMask: "255.255.255", // 只有三段
		Gateway:    "10.0.0.256",  // 段超界
	}

	errs := cfg.Validate()
	assert.Len(t, errs, 6, "全部规则都应执行并收集全部违规项")
}

func TestValidateIPFormatErrorMentioned(t *testing.T) {
	cfg := &NetworkConfig{
		Hostname:   "sw-core-01",
		Username:   "netadmin",
		Password:   "longenough1",
		IPAddress:  "10.0.0",
		SubnetMask: "255.255.255.0",
		Gateway:    "10.0.0.1",
	}

	errs := cfg.Validate()
	require.NotEmpty(t, errs, "非法IP必须产生错误")
	found := false
	for _, e := range errs {
		if strings.Contains(e, "IP") && strings.Contains(e, "ip_address") {
			found = true
		}
	}
	assert.True(t, found, "错误信息应指明IP格式问题")
}

func TestValidatePassesOnGoodConfig(t *testing.T) {
	cfg := &NetworkConfig{
		Hostname:       "sw-core-01",
		Domain:         "lab.local",
		IPAddress:      "192.168.10.2",
		SubnetMask:     "255.255.255.0",
		Gateway:        "192.168.10.1",
		Username:       "netadmin",
		Password:       "longenough1",
		EnablePassword: "enable-secret",
	}
	assert.Empty(t, cfg.Validate(), "合法配置不应有任何错误")
}

func TestIsDottedQuad(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"192.168.1.1", true},
		{"0.0.0.0", true},
		{"255.255.255.255", true},
		{"256.1.1.1", false},
		{"1.2.3", false},
		{"1.2.3.4.5", false},
		{"a.b.c.d", false},
		{"1.2.3.04", false},
		{"", false},
		{"1..2.3", false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, isDottedQuad(c.in), "点分四段判定错误: %s", c.in)
	}
}

func TestNetworkConfigFields(t *testing.T) {
	cfg := &NetworkConfig{Hostname: "h-1", Password: "p"}
	fields := cfg.Fields()
	assert.Equal(t, "h-1", fields["hostname"])
	assert.Equal(t, "p", fields["password"])
	assert.Contains(t, fields, "enable_password")
	assert.Contains(t, fields, "subnet_mask")
	assert.Len(t, fields, 8, "字段映射应覆盖全部8个配置字段")
}
