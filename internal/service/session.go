package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/switchconfigpro/switchconfigpro/addone/template"
	"github.com/switchconfigpro/switchconfigpro/internal/config"
	"github.com/switchconfigpro/switchconfigpro/internal/database"
	"github.com/switchconfigpro/switchconfigpro/internal/model"
	"github.com/switchconfigpro/switchconfigpro/pkg/cache"
	"github.com/switchconfigpro/switchconfigpro/pkg/console"
	"github.com/switchconfigpro/switchconfigpro/pkg/logger"
	"gorm.io/gorm"
)

// SessionService 设备会话生命周期管理
type SessionService struct {
	cfg      *config.Config
	registry *console.Registry
}

// NewSessionService 创建会话服务
func NewSessionService(cfg *config.Config) *SessionService {
	return &SessionService{
		cfg:      cfg,
		registry: console.NewRegistry(),
	}
}

// Registry 返回底层会话注册表
func (s *SessionService) Registry() *console.Registry {
	return s.registry
}

// SerialConnectRequest 串口连接请求
type SerialConnectRequest struct {
	Device   string `json:"device" binding:"required"`
	BaudRate int    `json:"baud_rate"`
	DataBits int    `json:"data_bits"`
	StopBits int    `json:"stop_bits"`
	Parity   string `json:"parity"`
}

// SSHConnectRequest SSH连接请求
type SSHConnectRequest struct {
	Host     string `json:"host" binding:"required"`
	Port     int    `json:"port"`
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SessionInfo 会话对外视图
type SessionInfo struct {
	ID           string    `json:"id"`
	Transport    string    `json:"transport"`
	Target       string    `json:"target"`
	DeviceType   string    `json:"device_type"`
	Mode         string    `json:"mode"`
	LastPrompt   string    `json:"last_prompt"`
	LastActivity time.Time `json:"last_activity"`
}

// sessionMeta 注册表之外的会话静态属性
type sessionMeta struct {
	transport string
	target    string
}

// ConnectSerial 打开串口会话：打开传输、诱发提示符重绘、登记并落库
func (s *SessionService) ConnectSerial(ctx context.Context, req SerialConnectRequest) (*SessionInfo, error) {
	if req.BaudRate <= 0 {
		req.BaudRate = s.cfg.Console.BaudRate
	}
	if req.DataBits <= 0 {
		req.DataBits = s.cfg.Console.DataBits
	}
	if req.StopBits <= 0 {
		req.StopBits = s.cfg.Console.StopBits
	}
	if req.Parity == "" {
		req.Parity = s.cfg.Console.Parity
	}

	transport := console.NewSerialTransport(console.SerialParams{
		Device:   req.Device,
		BaudRate: req.BaudRate,
		DataBits: req.DataBits,
		StopBits: req.StopBits,
		Parity:   req.Parity,
	})
	return s.attach(ctx, transport, "serial", req.Device)
}

// ConnectSSH 打开SSH会话
func (s *SessionService) ConnectSSH(ctx context.Context, req SSHConnectRequest) (*SessionInfo, error) {
	if req.Port <= 0 {
		req.Port = s.cfg.SSH.Port
	}
	transport := console.NewSSHTransport(console.SSHParams{
		Host:             req.Host,
		Port:             req.Port,
		Username:         req.Username,
		Password:         req.Password,
		ConnectTimeout:   s.cfg.SSH.ConnectTimeout,
		KeepAlive:        s.cfg.SSH.KeepAlive,
		LegacyAlgorithms: s.cfg.SSH.LegacyAlgorithms,
	})
	return s.attach(ctx, transport, "ssh", fmt.Sprintf("%s:%d", req.Host, req.Port))
}

// attach 连接共通流程：开传输、建会话、刷新提示符、登记、落库
func (s *SessionService) attach(ctx context.Context, transport console.Transport, transportKind, target string) (*SessionInfo, error) {
	if err := transport.Open(); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	session := console.NewSession(id, transport, console.SessionOptions{
		ReadSlice:      s.cfg.Console.ReadSlice,
		DefaultTimeout: s.cfg.Provision.CommandTimeout,
	})

	// 已缓存的设备事实直接带入，跳过冷启动时的重复分类
	if fact, err := cache.GetDeviceFact(ctx, target); err == nil && fact.DeviceType != "" {
		session.SetDeviceType(fact.DeviceType)
	}

	// 空回车诱发提示符重绘，确定初始模式；超时不是致命错误
	if _, err := session.RefreshPrompt(ctx, s.cfg.Provision.CommandTimeout); err != nil {
		_ = transport.Close()
		return nil, fmt.Errorf("initial prompt probe failed: %w", err)
	}

	if err := s.registry.Put(session); err != nil {
		_ = transport.Close()
		return nil, err
	}

	record := &model.SessionRecord{
		ID:          id,
		Transport:   transportKind,
		Target:      target,
		DeviceType:  session.DeviceType(),
		Mode:        string(session.Mode()),
		LastPrompt:  session.LastPrompt(),
		Status:      model.SessionStatusActive,
		ConnectedAt: time.Now(),
	}
	if err := database.WithRetry(func(tx *gorm.DB) error {
		return tx.Create(record).Error
	}, 3, 0); err != nil {
		logger.Warn("failed to persist session record", "session_id", id, "error", err)
	}

	logger.Info("session connected", "session_id", id, "transport", transportKind, "target", target, "mode", session.Mode())
	return s.info(session, sessionMeta{transport: transportKind, target: target}), nil
}

// Get 查找会话
func (s *SessionService) Get(id string) (*console.Session, error) {
	session, ok := s.registry.Get(id)
	if !ok {
		return nil, fmt.Errorf("session %s not found", id)
	}
	return session, nil
}

// Info 返回会话对外视图
func (s *SessionService) Info(id string) (*SessionInfo, error) {
	session, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	meta := s.lookupMeta(id)
	return s.info(session, meta), nil
}

// List 返回全部会话视图
func (s *SessionService) List() []*SessionInfo {
	sessions := s.registry.List()
	out := make([]*SessionInfo, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, s.info(session, s.lookupMeta(session.ID())))
	}
	return out
}

// Stats 返回注册表统计
func (s *SessionService) Stats() map[string]interface{} {
	return s.registry.Stats()
}

// Disconnect 关闭并摘除会话
func (s *SessionService) Disconnect(id string) error {
	session, ok := s.registry.Remove(id)
	if !ok {
		return fmt.Errorf("session %s not found", id)
	}
	closeErr := session.Close()
	s.markClosed(id, model.SessionStatusClosed)
	logger.Info("session disconnected", "session_id", id)
	return closeErr
}

// Execute 在会话上执行单条命令
func (s *SessionService) Execute(ctx context.Context, id, command string, timeout time.Duration) (*console.Exchange, error) {
	session, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = s.cfg.CommandTimeoutFor(session.DeviceType())
	}
	ex, err := session.SendCommand(ctx, command, timeout)
	s.afterExchange(session, err)
	return ex, err
}

// ExecuteInteractive 执行带确认自动应答的命令
func (s *SessionService) ExecuteInteractive(ctx context.Context, id, command, confirmAnswer string, timeout time.Duration) (*console.Exchange, error) {
	session, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = s.cfg.CommandTimeoutFor(session.DeviceType())
	}
	ex, err := session.SendInteractive(ctx, command, confirmAnswer, timeout)
	s.afterExchange(session, err)
	return ex, err
}

// Enable 进入特权模式
func (s *SessionService) Enable(ctx context.Context, id, secret string) (*console.Exchange, error) {
	session, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	ex, err := session.Enable(ctx, "enable", secret, s.cfg.CommandTimeoutFor(session.DeviceType()))
	s.afterExchange(session, err)
	return ex, err
}

// EnterConfig 进入配置模式，进入命令取自设备类型对应的模板插件
func (s *SessionService) EnterConfig(ctx context.Context, id string) (*console.Exchange, error) {
	session, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	plugin := template.Get(session.DeviceType())
	ex, err := session.EnterConfig(ctx, plugin.EnterConfigCommand(), s.cfg.CommandTimeoutFor(session.DeviceType()))
	s.afterExchange(session, err)
	return ex, err
}

// ExitMode 退出当前模式
func (s *SessionService) ExitMode(ctx context.Context, id string) (*console.Exchange, error) {
	session, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	ex, err := session.ExitMode(ctx, s.cfg.CommandTimeoutFor(session.DeviceType()))
	s.afterExchange(session, err)
	return ex, err
}

// RefreshPrompt 重新判定会话模式
func (s *SessionService) RefreshPrompt(ctx context.Context, id string) (*console.Exchange, error) {
	session, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	ex, err := session.RefreshPrompt(ctx, s.cfg.CommandTimeoutFor(session.DeviceType()))
	s.afterExchange(session, err)
	return ex, err
}

// ClassifyResult 分类结果
type ClassifyResult struct {
	DeviceType    string `json:"device_type"`
	VersionBanner string `json:"version_banner"`
	FromCache     bool   `json:"from_cache"`
}

// Classify 识别设备类型：发送版本命令并按横幅关键字判定
// Cisco与Huawei的版本命令不同，按序尝试直到横幅可判定；
// 结果写入会话与设备事实缓存。
func (s *SessionService) Classify(ctx context.Context, id string) (*ClassifyResult, error) {
	session, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	meta := s.lookupMeta(id)
	if meta.target != "" {
		if fact, err := cache.GetDeviceFact(ctx, meta.target); err == nil && fact.DeviceType != "" {
			session.SetDeviceType(fact.DeviceType)
			return &ClassifyResult{DeviceType: fact.DeviceType, VersionBanner: fact.VersionBanner, FromCache: true}, nil
		}
	}

	timeout := s.cfg.CommandTimeoutFor(session.DeviceType())
	var banner string
	deviceType := console.DeviceGeneric
	for _, command := range []string{"show version", "display version"} {
		ex, err := session.SendCommand(ctx, command, timeout)
		if err != nil {
			s.afterExchange(session, err)
			return nil, err
		}
		banner = ex.Output
		if deviceType = console.DetectDeviceType(banner); deviceType != console.DeviceGeneric {
			break
		}
	}

	session.SetDeviceType(deviceType)
	s.afterExchange(session, nil)

	if meta.target != "" {
		fact := cache.DeviceFact{DeviceType: deviceType, VersionBanner: firstLine(banner), ClassifiedAt: time.Now()}
		if err := cache.PutDeviceFact(ctx, meta.target, fact); err != nil {
			logger.Warn("failed to cache device fact", "target", meta.target, "error", err)
		}
	}

	logger.Info("device classified", "session_id", id, "device_type", deviceType)
	return &ClassifyResult{DeviceType: deviceType, VersionBanner: firstLine(banner)}, nil
}

// StartCleanup 启动闲置会话清理循环，上下文取消时退出
func (s *SessionService) StartCleanup(ctx context.Context) {
	interval := s.cfg.Session.CleanupInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweepIdle()
			}
		}
	}()
}

// sweepIdle 回收闲置超时的会话
func (s *SessionService) sweepIdle() {
	idle := s.registry.IdleSessions(s.cfg.Session.IdleTimeout)
	for _, id := range idle {
		session, ok := s.registry.Remove(id)
		if !ok {
			continue
		}
		_ = session.Close()
		s.markClosed(id, model.SessionStatusClosed)
		logger.Info("idle session reclaimed", "session_id", id)
	}
}

// CloseAll 进程退出时关闭全部会话
func (s *SessionService) CloseAll() {
	for _, session := range s.registry.List() {
		s.markClosed(session.ID(), model.SessionStatusClosed)
	}
	s.registry.CloseAll()
}

// afterExchange 交互后维护：传输故障时标记记录并摘除死会话
func (s *SessionService) afterExchange(session *console.Session, err error) {
	if err == nil {
		s.touchRecord(session)
		return
	}
	if !session.IsOpen() || session.Mode() == console.ModeUnknown {
		if _, ok := s.registry.Remove(session.ID()); ok {
			_ = session.Close()
			s.markClosed(session.ID(), model.SessionStatusFaulty)
			logger.Warn("faulty session removed", "session_id", session.ID(), "error", err)
		}
	}
}

// touchRecord 回写会话记录的模式与提示符
func (s *SessionService) touchRecord(session *console.Session) {
	updates := map[string]interface{}{
		"device_type": session.DeviceType(),
		"mode":        string(session.Mode()),
		"last_prompt": session.LastPrompt(),
	}
	if err := database.WithRetry(func(tx *gorm.DB) error {
		return tx.Model(&model.SessionRecord{}).Where("id = ?", session.ID()).Updates(updates).Error
	}, 3, 0); err != nil {
		logger.Debug("failed to touch session record", "session_id", session.ID(), "error", err)
	}
}

// markClosed 回写会话关闭状态
func (s *SessionService) markClosed(id, status string) {
	updates := map[string]interface{}{
		"status":    status,
		"closed_at": time.Now(),
	}
	if err := database.WithRetry(func(tx *gorm.DB) error {
		return tx.Model(&model.SessionRecord{}).Where("id = ?", id).Updates(updates).Error
	}, 3, 0); err != nil {
		logger.Debug("failed to mark session closed", "session_id", id, "error", err)
	}
}

// lookupMeta 从会话记录读取传输与目标
func (s *SessionService) lookupMeta(id string) sessionMeta {
	var record model.SessionRecord
	if err := database.GetDB().Where("id = ?", id).First(&record).Error; err != nil {
		return sessionMeta{}
	}
	return sessionMeta{transport: record.Transport, target: record.Target}
}

func (s *SessionService) info(session *console.Session, meta sessionMeta) *SessionInfo {
	return &SessionInfo{
		ID:           session.ID(),
		Transport:    meta.transport,
		Target:       meta.target,
		DeviceType:   session.DeviceType(),
		Mode:         string(session.Mode()),
		LastPrompt:   session.LastPrompt(),
		LastActivity: session.LastActivity(),
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.Index(s, "\n"); idx >= 0 {
		return strings.TrimSpace(s[:idx])
	}
	return s
}
