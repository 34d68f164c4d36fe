package service

import (
	"context"
	"time"

	"github.com/switchconfigpro/switchconfigpro/addone/survey"
	"github.com/switchconfigpro/switchconfigpro/addone/template"
	"github.com/switchconfigpro/switchconfigpro/internal/config"
	"github.com/switchconfigpro/switchconfigpro/pkg/logger"
)

// SurveyService 设备巡检：在已有会话上采集版本、接口与运行配置并结构化
type SurveyService struct {
	cfg      *config.Config
	sessions *SessionService
}

// NewSurveyService 创建巡检服务
func NewSurveyService(cfg *config.Config, sessions *SessionService) *SurveyService {
	return &SurveyService{cfg: cfg, sessions: sessions}
}

// SurveyReport 巡检报告
type SurveyReport struct {
	SessionID  string                 `json:"session_id"`
	DeviceType string                 `json:"device_type"`
	Version    survey.VersionInfo     `json:"version"`
	Interfaces []survey.InterfaceRow  `json:"interfaces"`
	Sections   []survey.ConfigSection `json:"sections,omitempty"`
	Duration   time.Duration          `json:"duration"`
}

// Survey 执行一轮巡检
// includeConfig 为真时额外抓取并切分运行配置，长回显代价更高。
func (s *SurveyService) Survey(ctx context.Context, sessionID string, includeConfig bool) (*SurveyReport, error) {
	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	start := time.Now()

	deviceType := session.DeviceType()
	parser := survey.Get(deviceType)
	timeout := s.cfg.CommandTimeoutFor(deviceType)

	// 关闭分页，巡检回显普遍超过一屏
	if pagingCmd := template.Get(deviceType).DisablePagingCommand(); pagingCmd != "" {
		if _, err := session.SendCommand(ctx, pagingCmd, timeout); err != nil {
			return nil, err
		}
	}

	report := &SurveyReport{SessionID: sessionID, DeviceType: deviceType}

	versionEx, err := session.SendCommand(ctx, parser.VersionCommand(), timeout)
	if err != nil {
		return nil, err
	}
	report.Version = parser.ParseVersion(versionEx.Output)

	briefEx, err := session.SendCommand(ctx, parser.InterfaceBriefCommand(), timeout)
	if err != nil {
		return nil, err
	}
	report.Interfaces = parser.ParseInterfaceBrief(briefEx.Output)

	if includeConfig {
		// 运行配置回显大，给足扩展超时
		slowTimeout := timeout * time.Duration(s.cfg.Provision.SlowTimeoutMultiplier)
		configEx, err := session.SendCommand(ctx, parser.RunningConfigCommand(), slowTimeout)
		if err != nil {
			return nil, err
		}
		report.Sections = parser.ParseRunningConfig(configEx.Output)
	}

	report.Duration = time.Since(start)
	logger.Info("device survey finished", "session_id", sessionID, "device_type", deviceType,
		"interfaces", len(report.Interfaces), "sections", len(report.Sections))
	return report, nil
}
