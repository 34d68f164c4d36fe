package integration

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/switchconfigpro/switchconfigpro/internal/config"
	"github.com/switchconfigpro/switchconfigpro/internal/database"
	"github.com/switchconfigpro/switchconfigpro/internal/model"
	"github.com/switchconfigpro/switchconfigpro/internal/service"
	"github.com/switchconfigpro/switchconfigpro/pkg/console"
	"github.com/switchconfigpro/switchconfigpro/simulate"
)

// testConfig 构造贴近默认但节奏更快的测试配置
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		SSH: config.SSHConfig{
			Port:           22,
			ConnectTimeout: 5 * time.Second,
		},
		Console: config.ConsoleConfig{
			ReadSlice: 200 * time.Millisecond,
		},
		Provision: config.ProvisionConfig{
			CommandTimeout:        5 * time.Second,
			SlowTimeoutMultiplier: 3,
			InterCommandDelay:     10 * time.Millisecond,
			FailureThreshold:      0.5,
			SSHServiceWait:        0,
			DefaultSecurityLevel:  "standard",
			FailureKeywords:       []string{"% Invalid input", "% Incomplete command", "Error:"},
		},
		Storage: config.StorageConfig{
			Type: "local",
			Local: config.LocalStorageConfig{
				BaseDir:        t.TempDir(),
				MkdirIfMissing: true,
			},
		},
		Session: config.SessionConfig{
			IdleTimeout:     time.Minute,
			CleanupInterval: time.Minute,
		},
	}
}

// TestTransitionEndToEnd 完整切换编排：SSH接入模拟器 → 分类 →
// 标准模板下发 → 跳过外部验证 → 汇总与落库
func TestTransitionEndToEnd(t *testing.T) {
	sim, err := simulate.NewServer(simulate.DeviceProfile{
		Family:       simulate.FamilyCiscoIOS,
		Hostname:     "Switch",
		Password:     "console",
		EnableSecret: "enable123",
		PageSize:     10,
		KeygenDelay:  100 * time.Millisecond,
	})
	require.NoError(t, err)
	require.NoError(t, sim.Start("127.0.0.1:0"))
	defer sim.Stop()

	cfg := testConfig(t)
	storage := service.NewStorageWriter(cfg)

	sessions := service.NewSessionService(cfg)
	defer sessions.CloseAll()
	verify := service.NewVerifyService(cfg)
	provision := service.NewProvisionService(cfg, sessions, verify, storage)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	result, err := provision.Transition(ctx, service.TransitionRequest{
		Transport: "ssh",
		SSH: service.SSHConnectRequest{
			Host:     "127.0.0.1",
			Port:     sim.Port(),
			Username: "console",
			Password: "console",
		},
		SecurityLevel: "standard",
		EnableSecret:  "enable123",
		Network: console.NetworkConfig{
			Hostname:       "SW-ACCESS-01",
			Domain:         "example.local",
			IPAddress:      "192.168.1.10",
			SubnetMask:     "255.255.255.0",
			Gateway:        "192.168.1.254",
			Username:       "netadmin",
			Password:       "Str0ngPass!",
			EnablePassword: "enable123",
		},
		SkipVerify: true,
	})
	require.NoError(t, err, "切换编排应该完成")
	require.NotNil(t, result)

	assert.Equal(t, "cisco-ios", result.DeviceType, "应该识别为cisco-ios")
	assert.Equal(t, service.StatusSuccess, result.ApplyStatus, "全部步骤应该成功")
	// 跳过外部验证时SSH可用性没有得到证明，汇总封顶为partial
	assert.Equal(t, "partial", result.Summary)
	assert.False(t, result.SSHVerified)

	require.NotNil(t, result.Apply)
	assert.Zero(t, result.Apply.WarningSteps, "不应该有被标记的步骤")
	assert.NotEmpty(t, result.SSHStatusBefore, "下发前应该留档SSH服务状态")
	assert.Contains(t, result.Report, "Console-to-SSH Transition Report")
	assert.Contains(t, result.Report, "SSH Before:", "报告应该记录切换前的SSH状态")
	assert.Contains(t, result.Report, "SSH Verify:   skipped")

	// 报告应该落到本地存储
	require.NotEmpty(t, result.Apply.ReportURI, "下发报告应该有存储URI")
	content, err := os.ReadFile(strings.TrimPrefix(result.Apply.ReportURI, "file://"))
	require.NoError(t, err, "报告文件应该存在")
	assert.Contains(t, string(content), "Configuration Provision Report")

	// 切换与下发记录应该落库
	var transition model.TransitionRun
	require.NoError(t, database.GetDB().Where("id = ?", result.RunID).First(&transition).Error, "切换记录应该落库")
	assert.Equal(t, "partial", transition.Summary)

	var run model.ProvisionRun
	require.NoError(t, database.GetDB().Where("id = ?", result.Apply.RunID).First(&run).Error, "下发记录应该落库")
	assert.Equal(t, service.StatusSuccess, run.Status)

	var steps []model.ProvisionStep
	require.NoError(t, database.GetDB().Where("run_id = ?", result.Apply.RunID).Order("seq").Find(&steps).Error)
	assert.Equal(t, result.Apply.TotalSteps, len(steps), "单步明细数量应该一致")

	// 编排结束后console会话必须已断开
	assert.Empty(t, sessions.List(), "切换结束后不应该残留会话")
}

// TestTransitionEnableDegraded 提权口令错误不是传输故障：编排走完，
// 配置步骤全部跳过，汇总降级为partial
func TestTransitionEnableDegraded(t *testing.T) {
	sim, err := simulate.NewServer(simulate.DeviceProfile{
		Family:       simulate.FamilyCiscoIOS,
		Hostname:     "Switch",
		Password:     "console",
		EnableSecret: "enable123",
	})
	require.NoError(t, err)
	require.NoError(t, sim.Start("127.0.0.1:0"))
	defer sim.Stop()

	cfg := testConfig(t)
	storage := service.NewStorageWriter(cfg)

	sessions := service.NewSessionService(cfg)
	defer sessions.CloseAll()
	provision := service.NewProvisionService(cfg, sessions, service.NewVerifyService(cfg), storage)

	ctx := context.Background()
	result, err := provision.Transition(ctx, service.TransitionRequest{
		Transport: "ssh",
		SSH: service.SSHConnectRequest{
			Host:     "127.0.0.1",
			Port:     sim.Port(),
			Username: "console",
			Password: "console",
		},
		SecurityLevel: "standard",
		EnableSecret:  "wrongpass",
		Network: console.NetworkConfig{
			Hostname:       "SW-ACCESS-02",
			Domain:         "example.local",
			IPAddress:      "192.168.1.11",
			SubnetMask:     "255.255.255.0",
			Gateway:        "192.168.1.254",
			Username:       "netadmin",
			Password:       "Str0ngPass!",
			EnablePassword: "enable123",
		},
		SkipVerify: true,
	})
	require.NoError(t, err, "提权被拒应该降级收尾而不是报错")
	require.NotNil(t, result)

	assert.Equal(t, "partial", result.Summary)
	assert.Equal(t, service.StatusPartialSuccess, result.ApplyStatus)
	require.NotNil(t, result.Apply)
	assert.NotEmpty(t, result.Apply.EnableError, "应该带回提权降级说明")
	assert.Zero(t, result.Apply.TotalSteps, "一条配置都不应该下发")
	assert.Contains(t, result.Report, "Enable:       degraded", "报告应该标注提权降级")

	// 降级的运行照常落库
	var transition model.TransitionRun
	require.NoError(t, database.GetDB().Where("id = ?", result.RunID).First(&transition).Error)
	assert.Equal(t, "partial", transition.Summary)
}

// TestTransitionValidationFailure 字段校验不通过时不接触设备配置，直接判failed
func TestTransitionValidationFailure(t *testing.T) {
	sim, err := simulate.NewServer(simulate.DeviceProfile{
		Family:   simulate.FamilyCiscoIOS,
		Hostname: "Switch",
		Password: "console",
	})
	require.NoError(t, err)
	require.NoError(t, sim.Start("127.0.0.1:0"))
	defer sim.Stop()

	cfg := testConfig(t)
	storage := service.NewStorageWriter(cfg)

	sessions := service.NewSessionService(cfg)
	defer sessions.CloseAll()
	provision := service.NewProvisionService(cfg, sessions, service.NewVerifyService(cfg), storage)

	ctx := context.Background()
	result, err := provision.Transition(ctx, service.TransitionRequest{
		Transport: "ssh",
		SSH: service.SSHConnectRequest{
			Host:     "127.0.0.1",
			Port:     sim.Port(),
			Username: "console",
			Password: "console",
		},
		Network: console.NetworkConfig{
			Hostname:   "SW",        // 过短
			IPAddress:  "300.1.2.3", // 非法IP
			SubnetMask: "255.255.255.0",
			Gateway:    "192.168.1.254",
			Username:   "netadmin",
			Password:   "Str0ngPass!",
		},
		SkipVerify: true,
	})
	require.NoError(t, err, "校验失败走正常返回而不是错误")
	require.NotNil(t, result)

	assert.Equal(t, "failed", result.Summary)
	assert.Equal(t, service.StatusFailed, result.ApplyStatus)
	require.NotNil(t, result.Apply)
	assert.NotEmpty(t, result.Apply.ValidationErrors, "应该带回完整违规列表")
	assert.Contains(t, result.Report, "validation failed")
}

// TestSessionServiceClassifyAndExecute 会话服务的连接、分类与命令执行
func TestSessionServiceClassifyAndExecute(t *testing.T) {
	sim, err := simulate.NewServer(simulate.DeviceProfile{
		Family:   simulate.FamilyHuaweiVRP,
		Hostname: "CE-IT-01",
		Password: "console",
	})
	require.NoError(t, err)
	require.NoError(t, sim.Start("127.0.0.1:0"))
	defer sim.Stop()

	cfg := testConfig(t)
	sessions := service.NewSessionService(cfg)
	defer sessions.CloseAll()

	ctx := context.Background()
	info, err := sessions.ConnectSSH(ctx, service.SSHConnectRequest{
		Host:     "127.0.0.1",
		Port:     sim.Port(),
		Username: "console",
		Password: "console",
	})
	require.NoError(t, err, "连接应该成功")
	assert.Equal(t, "user", info.Mode, "VRP的<>提示符映射为user模式")

	// 分类：show version失败后回退display version
	classify, err := sessions.Classify(ctx, info.ID)
	require.NoError(t, err, "分类应该成功")
	assert.Equal(t, "huawei-vrp", classify.DeviceType)

	ex, err := sessions.Execute(ctx, info.ID, "display ip interface brief", 0)
	require.NoError(t, err)
	assert.Contains(t, ex.Output, "Vlanif1", "接口简表应该返回")

	require.NoError(t, sessions.Disconnect(info.ID))
	_, err = sessions.Get(info.ID)
	assert.Error(t, err, "断开后会话应该不可见")

	// 落库的会话记录状态应该是closed
	var record model.SessionRecord
	require.NoError(t, database.GetDB().Where("id = ?", info.ID).First(&record).Error)
	assert.Equal(t, model.SessionStatusClosed, record.Status)
}
