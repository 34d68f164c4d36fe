package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/switchconfigpro/switchconfigpro/addone/template"
	"github.com/switchconfigpro/switchconfigpro/internal/config"
	"github.com/switchconfigpro/switchconfigpro/pkg/console"
	"github.com/switchconfigpro/switchconfigpro/pkg/logger"
)

// ExecService 一次性命令执行：连接、执行、断开，不进入会话注册表
type ExecService struct {
	cfg *config.Config
}

// NewExecService 创建一次性执行服务
func NewExecService(cfg *config.Config) *ExecService {
	return &ExecService{cfg: cfg}
}

// ExecRequest 一次性执行请求
type ExecRequest struct {
	Host         string   `json:"host" binding:"required"`
	Port         int      `json:"port"`
	Username     string   `json:"username" binding:"required"`
	Password     string   `json:"password" binding:"required"`
	EnableSecret string   `json:"enable_secret"`
	DeviceType   string   `json:"device_type"`
	Commands     []string `json:"commands" binding:"required"`
	// TimeoutSec 单命令超时（秒），0走设备类型默认
	TimeoutSec int `json:"timeout_sec"`
}

// ExecResult 一次性执行结果
type ExecResult struct {
	TaskID     string         `json:"task_id"`
	DeviceType string         `json:"device_type"`
	Exchanges  []ExecExchange `json:"exchanges"`
	Duration   time.Duration  `json:"duration"`
}

// ExecExchange 单命令执行回显
type ExecExchange struct {
	Command  string        `json:"command"`
	Output   string        `json:"output"`
	TimedOut bool          `json:"timed_out"`
	Duration time.Duration `json:"duration"`
}

// Run 执行一次性命令序列
// 自动提权与关闭分页，设备类型未指定时现场分类。
func (s *ExecService) Run(ctx context.Context, req ExecRequest) (*ExecResult, error) {
	if req.Port <= 0 {
		req.Port = s.cfg.SSH.Port
	}
	start := time.Now()
	taskID := uuid.NewString()

	transport := console.NewSSHTransport(console.SSHParams{
		Host:             req.Host,
		Port:             req.Port,
		Username:         req.Username,
		Password:         req.Password,
		ConnectTimeout:   s.cfg.SSH.ConnectTimeout,
		KeepAlive:        s.cfg.SSH.KeepAlive,
		LegacyAlgorithms: s.cfg.SSH.LegacyAlgorithms,
	})
	if err := transport.Open(); err != nil {
		return nil, fmt.Errorf("connect failed: %w", err)
	}
	defer transport.Close()

	session := console.NewSession(taskID, transport, console.SessionOptions{
		ReadSlice:      s.cfg.Console.ReadSlice,
		DefaultTimeout: s.cfg.Provision.CommandTimeout,
	})

	baseTimeout := s.cfg.CommandTimeoutFor(req.DeviceType)
	if req.TimeoutSec > 0 {
		baseTimeout = time.Duration(req.TimeoutSec) * time.Second
	}

	if _, err := session.RefreshPrompt(ctx, baseTimeout); err != nil {
		return nil, fmt.Errorf("initial prompt probe failed: %w", err)
	}

	deviceType := req.DeviceType
	if deviceType == "" {
		ex, err := session.SendCommand(ctx, "show version", baseTimeout)
		if err != nil {
			return nil, err
		}
		deviceType = console.DetectDeviceType(ex.Output)
		if deviceType == console.DeviceGeneric {
			if ex2, err := session.SendCommand(ctx, "display version", baseTimeout); err == nil {
				deviceType = console.DetectDeviceType(ex2.Output)
			}
		}
		session.SetDeviceType(deviceType)
	} else {
		session.SetDeviceType(deviceType)
	}

	if req.EnableSecret != "" {
		if _, err := session.Enable(ctx, "enable", req.EnableSecret, baseTimeout); err != nil {
			return nil, fmt.Errorf("enable mode failed: %w", err)
		}
	}

	plugin := template.Get(deviceType)
	if pagingCmd := plugin.DisablePagingCommand(); pagingCmd != "" {
		if _, err := session.SendCommand(ctx, pagingCmd, baseTimeout); err != nil {
			return nil, fmt.Errorf("disable paging failed: %w", err)
		}
	}

	interDelay := s.cfg.InterCommandDelayFor(deviceType)
	exchanges := make([]ExecExchange, 0, len(req.Commands))
	for i, cmd := range req.Commands {
		ex, err := session.SendCommand(ctx, cmd, baseTimeout)
		if err != nil {
			return nil, fmt.Errorf("command %q failed: %w", cmd, err)
		}
		exchanges = append(exchanges, ExecExchange{
			Command:  cmd,
			Output:   ex.Output,
			TimedOut: ex.TimedOut,
			Duration: ex.Duration,
		})
		if interDelay > 0 && i < len(req.Commands)-1 {
			time.Sleep(interDelay)
		}
	}

	logger.Info("one-shot exec finished", "task_id", taskID, "host", req.Host,
		"device_type", deviceType, "commands", len(req.Commands))
	return &ExecResult{
		TaskID:     taskID,
		DeviceType: deviceType,
		Exchanges:  exchanges,
		Duration:   time.Since(start),
	}, nil
}
