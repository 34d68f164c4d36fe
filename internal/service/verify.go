package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/scrapli/scrapligo/driver/options"
	"github.com/scrapli/scrapligo/platform"
	"github.com/switchconfigpro/switchconfigpro/internal/config"
	"github.com/switchconfigpro/switchconfigpro/pkg/console"
	"github.com/switchconfigpro/switchconfigpro/pkg/logger"
)

// VerifyService 外部SSH可达性验证：用独立的SSH客户端栈连入设备，
// 证明切换后的管理通道对第三方工具同样可用，而不是只对本进程可用。
type VerifyService struct {
	cfg *config.Config
}

// NewVerifyService 创建验证服务
func NewVerifyService(cfg *config.Config) *VerifyService {
	return &VerifyService{cfg: cfg}
}

// VerifyRequest SSH验证请求
type VerifyRequest struct {
	Host       string `json:"host" binding:"required"`
	Port       int    `json:"port"`
	Username   string `json:"username" binding:"required"`
	Password   string `json:"password" binding:"required"`
	DeviceType string `json:"device_type"`
}

// VerifyResult SSH验证结果
type VerifyResult struct {
	Reachable     bool   `json:"reachable"`
	VersionBanner string `json:"version_banner"`
	Error         string `json:"error,omitempty"`
}

// scrapliPlatformFor 设备类型到scrapli平台标识的映射
func scrapliPlatformFor(deviceType string) string {
	switch deviceType {
	case console.DeviceCiscoIOS, console.DeviceCiscoIOSXE:
		return "cisco_iosxe"
	case console.DeviceHuaweiVRP:
		return "huawei_vrp"
	default:
		return "cisco_iosxe"
	}
}

// versionCommandFor 平台验证用的只读版本命令
func versionCommandFor(deviceType string) string {
	if deviceType == console.DeviceHuaweiVRP {
		return "display version"
	}
	return "show version"
}

// Verify 连入设备并执行只读版本命令，任何阶段失败都视为不可达
func (s *VerifyService) Verify(req VerifyRequest) *VerifyResult {
	if req.Port <= 0 {
		req.Port = s.cfg.SSH.Port
	}
	timeout := s.cfg.Provision.VerifyTimeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	platformOS := scrapliPlatformFor(req.DeviceType)
	p, err := platform.NewPlatform(
		platformOS,
		req.Host,
		options.WithAuthNoStrictKey(),
		options.WithAuthUsername(req.Username),
		options.WithAuthPassword(req.Password),
		options.WithPort(req.Port),
		options.WithTimeoutOps(timeout),
	)
	if err != nil {
		return &VerifyResult{Error: fmt.Sprintf("create platform failed: %v", err)}
	}

	driver, err := p.GetNetworkDriver()
	if err != nil {
		return &VerifyResult{Error: fmt.Sprintf("get network driver failed: %v", err)}
	}

	if err := driver.Open(); err != nil {
		logger.Warn("ssh verification connect failed", "host", req.Host, "port", req.Port, "error", err)
		return &VerifyResult{Error: fmt.Sprintf("open connection failed: %v", err)}
	}
	defer driver.Close()

	resp, err := driver.SendCommand(versionCommandFor(req.DeviceType))
	if err != nil {
		return &VerifyResult{Error: fmt.Sprintf("send command failed: %v", err)}
	}
	if resp.Failed != nil {
		return &VerifyResult{Error: fmt.Sprintf("command failed: %v", resp.Failed)}
	}

	banner := strings.TrimSpace(resp.Result)
	if idx := strings.Index(banner, "\n"); idx >= 0 {
		banner = strings.TrimSpace(banner[:idx])
	}

	logger.Info("ssh verification succeeded", "host", req.Host, "port", req.Port, "platform", platformOS)
	return &VerifyResult{Reachable: true, VersionBanner: banner}
}
