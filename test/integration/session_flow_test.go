package integration

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/switchconfigpro/switchconfigpro/pkg/console"
	"github.com/switchconfigpro/switchconfigpro/simulate"
)

// startSimulator 启动一台模拟交换机并返回就绪的会话
func startSimulator(t *testing.T, profile simulate.DeviceProfile) (*simulate.Server, *console.Session) {
	t.Helper()

	sim, err := simulate.NewServer(profile)
	require.NoError(t, err, "创建模拟器应该成功")
	require.NoError(t, sim.Start("127.0.0.1:0"), "启动模拟器应该成功")
	t.Cleanup(sim.Stop)

	transport := console.NewSSHTransport(console.SSHParams{
		Host:           "127.0.0.1",
		Port:           sim.Port(),
		Username:       "admin",
		Password:       "switch",
		ConnectTimeout: 5 * time.Second,
	})
	require.NoError(t, transport.Open(), "连接模拟器应该成功")

	session := console.NewSession("it-session", transport, console.SessionOptions{
		ReadSlice:      200 * time.Millisecond,
		DefaultTimeout: 5 * time.Second,
	})
	t.Cleanup(func() { _ = session.Close() })
	return sim, session
}

// TestSessionModeLifecycle 连接后经提示符判定模式，逐级提权再逐级退出
func TestSessionModeLifecycle(t *testing.T) {
	_, session := startSimulator(t, simulate.DeviceProfile{
		Family:       simulate.FamilyCiscoIOS,
		Hostname:     "SW-IT-01",
		Password:     "switch",
		EnableSecret: "enable123",
	})
	ctx := context.Background()

	ex, err := session.RefreshPrompt(ctx, 5*time.Second)
	require.NoError(t, err, "刷新提示符应该成功")
	assert.Equal(t, console.PromptUser, ex.Prompt, "初始应该处于用户模式提示符")
	assert.Equal(t, console.ModeUser, session.Mode(), "初始模式应该是user")

	// 提权会先停在Password:提示，由会话层送出口令
	_, err = session.Enable(ctx, "enable", "enable123", 5*time.Second)
	require.NoError(t, err, "提权应该成功")
	assert.Equal(t, console.ModeEnable, session.Mode(), "提权后模式应该是enable")

	_, err = session.EnterConfig(ctx, "configure terminal", 5*time.Second)
	require.NoError(t, err, "进入配置模式应该成功")
	assert.Equal(t, console.ModeConfig, session.Mode(), "应该处于配置模式")

	// 主机名变更后提示符随之变化
	_, err = session.SendCommand(ctx, "hostname SW-RENAMED", 5*time.Second)
	require.NoError(t, err)
	assert.Contains(t, session.LastPrompt(), "SW-RENAMED", "提示符应该反映新主机名")
	assert.Equal(t, console.ModeConfig, session.Mode(), "改名后仍应处于配置模式")

	_, err = session.ExitMode(ctx, 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, console.ModeEnable, session.Mode(), "退出配置模式后应该回到enable")
}

// TestSessionEnableBadSecret 口令错误时设备拒绝提权，模式保持user
func TestSessionEnableBadSecret(t *testing.T) {
	_, session := startSimulator(t, simulate.DeviceProfile{
		Family:       simulate.FamilyCiscoIOS,
		Hostname:     "SW-IT-02",
		Password:     "switch",
		EnableSecret: "correct-secret",
	})
	ctx := context.Background()

	_, err := session.RefreshPrompt(ctx, 5*time.Second)
	require.NoError(t, err)

	_, err = session.Enable(ctx, "enable", "wrong-secret", 5*time.Second)
	require.ErrorIs(t, err, console.ErrEnableRejected, "口令错误应该返回提权被拒")
	assert.Equal(t, console.ModeUser, session.Mode(), "口令错误后应该留在用户模式")
}

// TestSessionClassifyByVersion 通过版本横幅识别设备类型
func TestSessionClassifyByVersion(t *testing.T) {
	cases := []struct {
		family     string
		versionCmd string
		expected   string
	}{
		{simulate.FamilyCiscoIOS, "show version", "cisco-ios"},
		{simulate.FamilyHuaweiVRP, "display version", "huawei-vrp"},
	}
	for _, tc := range cases {
		t.Run(tc.expected, func(t *testing.T) {
			_, session := startSimulator(t, simulate.DeviceProfile{
				Family:   tc.family,
				Hostname: "SW-CLASSIFY",
				Password: "switch",
			})
			ctx := context.Background()

			_, err := session.RefreshPrompt(ctx, 5*time.Second)
			require.NoError(t, err)

			ex, err := session.SendCommand(ctx, tc.versionCmd, 5*time.Second)
			require.NoError(t, err)
			assert.False(t, ex.TimedOut, "版本命令不应该超时")
			assert.Equal(t, tc.expected, console.DetectDeviceType(ex.Output), "应该识别出正确的设备类型")
		})
	}
}

// TestSessionPaginationAutoSpace 长回显分页时会话层自动按空格翻页
func TestSessionPaginationAutoSpace(t *testing.T) {
	_, session := startSimulator(t, simulate.DeviceProfile{
		Family:       simulate.FamilyCiscoIOS,
		Hostname:     "SW-PAGE",
		Password:     "switch",
		EnableSecret: "",
		PageSize:     6,
	})
	ctx := context.Background()

	_, err := session.RefreshPrompt(ctx, 5*time.Second)
	require.NoError(t, err)
	_, err = session.Enable(ctx, "enable", "", 5*time.Second)
	require.NoError(t, err)

	ex, err := session.SendCommand(ctx, "show running-config", 10*time.Second)
	require.NoError(t, err, "分页输出应该被自动翻完")
	assert.False(t, ex.TimedOut, "自动翻页后不应该超时")
	// 首尾两页的内容都要在，翻页标记本身不计入输出
	assert.Contains(t, ex.Output, "hostname SW-PAGE", "应该包含首页内容")
	assert.Contains(t, ex.Output, "line vty 0 4", "应该包含末页内容")
	assert.NotContains(t, ex.Output, "--More--", "翻页标记应该被剔除")
}

// TestSessionDisablePaging 关闭分页后长回显一次返回
func TestSessionDisablePaging(t *testing.T) {
	_, session := startSimulator(t, simulate.DeviceProfile{
		Family:   simulate.FamilyCiscoIOS,
		Hostname: "SW-NOPAGE",
		Password: "switch",
		PageSize: 6,
	})
	ctx := context.Background()

	_, err := session.RefreshPrompt(ctx, 5*time.Second)
	require.NoError(t, err)
	_, err = session.Enable(ctx, "enable", "", 5*time.Second)
	require.NoError(t, err)

	_, err = session.SendCommand(ctx, "terminal length 0", 5*time.Second)
	require.NoError(t, err)

	ex, err := session.SendCommand(ctx, "show running-config", 5*time.Second)
	require.NoError(t, err)
	assert.Contains(t, ex.Output, "line vty 0 4", "关闭分页后应该一次取回全部输出")
}

// TestSessionConfirmPrompt 确认提示由交互式发送的预设答案应答
func TestSessionConfirmPrompt(t *testing.T) {
	_, session := startSimulator(t, simulate.DeviceProfile{
		Family:      simulate.FamilyCiscoIOS,
		Hostname:    "SW-KEYGEN",
		Password:    "switch",
		KeygenDelay: 50 * time.Millisecond,
	})
	ctx := context.Background()

	_, err := session.RefreshPrompt(ctx, 5*time.Second)
	require.NoError(t, err)
	_, err = session.Enable(ctx, "enable", "", 5*time.Second)
	require.NoError(t, err)
	_, err = session.EnterConfig(ctx, "configure terminal", 5*time.Second)
	require.NoError(t, err)

	ex, err := session.SendInteractive(ctx, "crypto key generate rsa modulus 2048", "yes", 10*time.Second)
	require.NoError(t, err, "确认提示应该被自动应答")
	assert.False(t, ex.TimedOut, "应答确认后命令应该正常收尾")
	assert.Contains(t, ex.Output, "[OK]", "密钥生成应该完成")
}

// TestSessionInvalidCommand 未知命令的设备报错原样保留在输出里
func TestSessionInvalidCommand(t *testing.T) {
	_, session := startSimulator(t, simulate.DeviceProfile{
		Family:   simulate.FamilyCiscoIOS,
		Hostname: "SW-ERR",
		Password: "switch",
	})
	ctx := context.Background()

	_, err := session.RefreshPrompt(ctx, 5*time.Second)
	require.NoError(t, err)

	ex, err := session.SendCommand(ctx, "no-such-command", 5*time.Second)
	require.NoError(t, err, "设备报错不是传输故障")
	assert.True(t, strings.Contains(ex.Output, "% Invalid input"), "输出应该包含设备报错")
	assert.Equal(t, console.ModeUser, session.Mode(), "报错后模式不变")
}
