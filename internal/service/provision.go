package service

import (
	"context"
	"errors"
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

// 下发结果状态
const (
	StatusSuccess        = "SUCCESS"
	StatusPartialSuccess = "PARTIAL SUCCESS"
	StatusFailed         = "FAILED"
)

// 步骤结论
const (
	OutcomeOK      = "ok"
	OutcomeWarning = "warning"
)

// ProvisionService 模板下发与端到端切换编排
type ProvisionService struct {
	cfg      *config.Config
	sessions *SessionService
	verify   *VerifyService
	storage  StorageWriter
}

// NewProvisionService 创建下发服务
func NewProvisionService(cfg *config.Config, sessions *SessionService, verify *VerifyService, storage StorageWriter) *ProvisionService {
	return &ProvisionService{
		cfg:      cfg,
		sessions: sessions,
		verify:   verify,
		storage:  storage,
	}
}

// ApplyRequest 模板下发请求
type ApplyRequest struct {
	SessionID     string                `json:"session_id" binding:"required"`
	DeviceType    string                `json:"device_type"`
	SecurityLevel string                `json:"security_level"`
	EnableSecret  string                `json:"enable_secret"`
	Network       console.NetworkConfig `json:"network"`
}

// StepResult 单步下发结果
type StepResult struct {
	Seq      int           `json:"seq"`
	Command  string        `json:"command"`
	Outcome  string        `json:"outcome"`
	Excerpt  string        `json:"excerpt"`
	TimedOut bool          `json:"timed_out"`
	Duration time.Duration `json:"duration"`
}

// ApplyResult 模板下发结果
type ApplyResult struct {
	RunID            string       `json:"run_id"`
	Status           string       `json:"status"`
	DeviceType       string       `json:"device_type"`
	SecurityLevel    string       `json:"security_level"`
	TotalSteps       int          `json:"total_steps"`
	WarningSteps     int          `json:"warning_steps"`
	Steps            []StepResult `json:"steps"`
	ReportURI        string       `json:"report_uri,omitempty"`
	ValidationErrors []string     `json:"validation_errors,omitempty"`
	// EnableError 提权被拒时的降级说明，配置步骤被跳过
	EnableError string `json:"enable_error,omitempty"`
}

// ApplyTemplate 按设备类型与安全级别下发配置模板
// 流水线：校验字段 → 渲染 → 进特权/配置模式 → 逐条执行 →
// 退出配置模式 → 保存 → 聚合判定 → 落库与报告。
func (s *ProvisionService) ApplyTemplate(ctx context.Context, req ApplyRequest) (*ApplyResult, error) {
	session, err := s.sessions.Get(req.SessionID)
	if err != nil {
		return nil, err
	}

	deviceType := req.DeviceType
	if deviceType == "" {
		deviceType = session.DeviceType()
	}
	level := req.SecurityLevel
	if level == "" {
		level = s.cfg.Provision.DefaultSecurityLevel
	}

	plugin := template.Get(deviceType)
	commands, ok := plugin.Commands(level)
	if !ok {
		return nil, fmt.Errorf("security level %q not supported for device type %q", level, deviceType)
	}

	// 渲染前完成全部字段校验，一次返回完整违规列表
	if errs := req.Network.Validate(); len(errs) > 0 {
		return &ApplyResult{
			Status:           StatusFailed,
			DeviceType:       deviceType,
			SecurityLevel:    level,
			ValidationErrors: errs,
		}, nil
	}

	rendered := console.Render(commands, req.Network.Fields())
	startTime := time.Now()
	runID := uuid.NewString()

	logger.Info("template apply started", "run_id", runID, "session_id", req.SessionID,
		"device_type", deviceType, "security_level", level, "steps", len(rendered))

	baseTimeout := s.cfg.CommandTimeoutFor(deviceType)
	interDelay := s.cfg.InterCommandDelayFor(deviceType)

	// 特权模式是配置模式的前置，已在特权/配置模式时Enable为空操作。
	// 口令被拒或缺失不是传输故障：记录降级、跳过配置步骤，仅传输故障致命
	enableErr := ""
	if _, err := session.Enable(ctx, "enable", req.EnableSecret, baseTimeout); err != nil {
		if !errors.Is(err, console.ErrEnableRejected) && !errors.Is(err, console.ErrEnableSecretRequired) {
			return nil, fmt.Errorf("enable mode failed: %w", err)
		}
		enableErr = err.Error()
		logger.Warn("enable mode not attained, configuration steps skipped",
			"run_id", runID, "session_id", req.SessionID, "error", err)
	}

	var steps []StepResult
	if enableErr == "" {
		// 关闭分页，避免长回显卡在翻页提示上
		if pagingCmd := plugin.DisablePagingCommand(); pagingCmd != "" {
			if _, err := session.SendCommand(ctx, pagingCmd, baseTimeout); err != nil {
				return nil, fmt.Errorf("disable paging failed: %w", err)
			}
		}

		if _, err := session.EnterConfig(ctx, plugin.EnterConfigCommand(), baseTimeout); err != nil {
			return nil, fmt.Errorf("config mode failed: %w", err)
		}

		var execErr error
		steps, execErr = s.runSteps(ctx, session, plugin, rendered, deviceType, baseTimeout, interDelay)
		if execErr != nil {
			return nil, execErr
		}

		// 退出配置模式后保存；保存可能触发确认提示，自动应答
		if _, err := session.ExitMode(ctx, baseTimeout); err != nil {
			return nil, fmt.Errorf("exit config mode failed: %w", err)
		}
		if saveCmd := plugin.SaveCommand(); saveCmd != "" {
			saveTimeout := baseTimeout * time.Duration(s.slowMultiplier())
			ex, err := session.SendInteractive(ctx, saveCmd, "y", saveTimeout)
			if err != nil {
				return nil, fmt.Errorf("save config failed: %w", err)
			}
			steps = append(steps, s.classifyStep(len(steps)+1, saveCmd, ex, deviceType))
		}
	}

	warnings := 0
	for _, st := range steps {
		if st.Outcome == OutcomeWarning {
			warnings++
		}
	}
	status := aggregateStatus(len(steps), warnings, s.cfg.Provision.FailureThreshold)
	if enableErr != "" {
		// 一步未下发的运行最多算部分成功
		status = StatusPartialSuccess
	}

	result := &ApplyResult{
		RunID:         runID,
		Status:        status,
		DeviceType:    deviceType,
		SecurityLevel: level,
		TotalSteps:    len(steps),
		WarningSteps:  warnings,
		Steps:         steps,
		EnableError:   enableErr,
	}

	// 下发改变了设备身份事实，旧缓存立即失效
	meta := s.sessions.lookupMeta(req.SessionID)
	if meta.target != "" {
		_ = cache.DropDeviceFact(ctx, meta.target)
	}

	report := renderApplyReport(runID, deviceType, level, req.Network.Hostname, status, enableErr, steps, startTime)
	if obj, err := s.storage.Write(ctx, StorageMeta{
		Category:     "reports",
		DateYYYYMMDD: startTime.Format("20060102"),
		TimeHHMMSS:   startTime.Format("150405"),
		TaskID:       runID,
		DeviceName:   req.Network.Hostname,
		DeviceIP:     req.Network.IPAddress,
		FileSlug:     "provision_report",
	}, report, ""); err != nil {
		logger.Warn("failed to store provision report", "run_id", runID, "error", err)
	} else {
		result.ReportURI = obj.URI
	}

	s.persistRun(req.SessionID, result, req.Network.Hostname, startTime)

	logger.Info("template apply finished", "run_id", runID, "status", status,
		"total_steps", len(steps), "warning_steps", warnings)
	return result, nil
}

// runSteps 逐条执行渲染后的命令，慢操作应用扩展超时
func (s *ProvisionService) runSteps(ctx context.Context, session *console.Session, plugin template.Plugin, commands []string, deviceType string, baseTimeout, interDelay time.Duration) ([]StepResult, error) {
	steps := make([]StepResult, 0, len(commands))
	for i, cmd := range commands {
		timeout := baseTimeout
		if isSlowCommand(cmd, plugin.SlowMarkers()) {
			timeout = baseTimeout * time.Duration(s.slowMultiplier())
		}

		ex, err := session.SendInteractive(ctx, cmd, "yes", timeout)
		if err != nil {
			// 传输故障终止整个下发，已执行的步骤无法回滚
			return steps, fmt.Errorf("step %d %q transport failed: %w", i+1, cmd, err)
		}
		steps = append(steps, s.classifyStep(i+1, cmd, ex, deviceType))

		if interDelay > 0 && i < len(commands)-1 {
			time.Sleep(interDelay)
		}
	}
	return steps, nil
}

// classifyStep 按失败关键字与超时把单步归为 ok 或 warning
func (s *ProvisionService) classifyStep(seq int, cmd string, ex *console.Exchange, deviceType string) StepResult {
	outcome := OutcomeOK
	if ex.TimedOut {
		outcome = OutcomeWarning
	} else {
		lower := strings.ToLower(ex.Output)
		for _, kw := range s.cfg.FailureKeywordsFor(deviceType) {
			if kw == "" {
				continue
			}
			if strings.Contains(lower, strings.ToLower(kw)) {
				outcome = OutcomeWarning
				break
			}
		}
	}
	if outcome == OutcomeWarning {
		logger.Warn("provision step flagged", "seq", seq, "command", cmd, "timed_out", ex.TimedOut)
	}
	return StepResult{
		Seq:      seq,
		Command:  cmd,
		Outcome:  outcome,
		Excerpt:  excerpt(ex.Output, 400),
		TimedOut: ex.TimedOut,
		Duration: ex.Duration,
	}
}

func (s *ProvisionService) slowMultiplier() int {
	if m := s.cfg.Provision.SlowTimeoutMultiplier; m > 1 {
		return m
	}
	return 9
}

// aggregateStatus 聚合判定：零警告为SUCCESS，
// 警告占比达到阈值为FAILED，其余为PARTIAL SUCCESS。
func aggregateStatus(total, warnings int, threshold float64) string {
	if total == 0 || warnings == 0 {
		return StatusSuccess
	}
	if float64(warnings)/float64(total) >= threshold {
		return StatusFailed
	}
	return StatusPartialSuccess
}

// isSlowCommand 命令包含任一慢操作标记即视为慢操作
func isSlowCommand(cmd string, markers []string) bool {
	lower := strings.ToLower(cmd)
	for _, m := range markers {
		if m != "" && strings.Contains(lower, strings.ToLower(m)) {
			return true
		}
	}
	return false
}

// persistRun 落库下发记录与单步明细
func (s *ProvisionService) persistRun(sessionID string, result *ApplyResult, hostname string, startTime time.Time) {
	run := &model.ProvisionRun{
		ID:            result.RunID,
		SessionID:     sessionID,
		DeviceType:    result.DeviceType,
		SecurityLevel: result.SecurityLevel,
		Hostname:      hostname,
		Status:        result.Status,
		TotalSteps:    result.TotalSteps,
		WarningSteps:  result.WarningSteps,
		ReportURI:     result.ReportURI,
		StartTime:     startTime,
		EndTime:       time.Now(),
	}
	if err := database.WithRetry(func(tx *gorm.DB) error {
		return tx.Create(run).Error
	}, 3, 0); err != nil {
		logger.Warn("failed to persist provision run", "run_id", result.RunID, "error", err)
		return
	}
	for _, st := range result.Steps {
		step := &model.ProvisionStep{
			RunID:    result.RunID,
			Seq:      st.Seq,
			Command:  st.Command,
			Outcome:  st.Outcome,
			Excerpt:  st.Excerpt,
			TimedOut: st.TimedOut,
			Duration: st.Duration.Milliseconds(),
		}
		if err := database.WithRetry(func(tx *gorm.DB) error {
			return tx.Create(step).Error
		}, 3, 0); err != nil {
			logger.Warn("failed to persist provision step", "run_id", result.RunID, "seq", st.Seq, "error", err)
		}
	}
}

// TransitionRequest 控制台到SSH管理的端到端切换请求
type TransitionRequest struct {
	// Transport console接入方式：serial | ssh
	Transport     string                `json:"transport" binding:"required"`
	Serial        SerialConnectRequest  `json:"serial"`
	SSH           SSHConnectRequest     `json:"ssh"`
	SecurityLevel string                `json:"security_level"`
	EnableSecret  string                `json:"enable_secret"`
	Network       console.NetworkConfig `json:"network"`
	// SkipVerify 跳过外部SSH验证（目标地址对本服务不可路由时）
	SkipVerify bool `json:"skip_verify"`
}

// TransitionResult 端到端切换结果
type TransitionResult struct {
	RunID       string `json:"run_id"`
	Summary     string `json:"summary"` // success | partial | failed
	DeviceType  string `json:"device_type"`
	ApplyStatus string `json:"apply_status"`
	SSHVerified bool   `json:"ssh_verified"`
	// SSHStatusBefore 下发前设备SSH服务状态（只读查询），留档对比切换前后
	SSHStatusBefore string        `json:"ssh_status_before,omitempty"`
	Apply           *ApplyResult  `json:"apply,omitempty"`
	Verify          *VerifyResult `json:"verify,omitempty"`
	Report          string        `json:"report"`
}

// Transition 端到端编排：接入 → 分类 → 提权 → 下发 → 等待SSH服务 →
// 外部验证 → 断开。设备在流程结束后应当可以通过SSH管理。
func (s *ProvisionService) Transition(ctx context.Context, req TransitionRequest) (*TransitionResult, error) {
	startTime := time.Now()
	runID := uuid.NewString()

	var info *SessionInfo
	var err error
	var target string
	switch strings.ToLower(strings.TrimSpace(req.Transport)) {
	case "serial":
		info, err = s.sessions.ConnectSerial(ctx, req.Serial)
		target = req.Serial.Device
	case "ssh":
		info, err = s.sessions.ConnectSSH(ctx, req.SSH)
		target = fmt.Sprintf("%s:%d", req.SSH.Host, req.SSH.Port)
	default:
		return nil, fmt.Errorf("unsupported transport %q", req.Transport)
	}
	if err != nil {
		return nil, fmt.Errorf("console connect failed: %w", err)
	}
	sessionID := info.ID
	defer func() {
		_ = s.sessions.Disconnect(sessionID)
	}()

	classify, err := s.sessions.Classify(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("device classification failed: %w", err)
	}

	// 下发前先留档设备当前的SSH服务状态，只读查询失败不影响切换
	sshBefore := ""
	if statusCmd := template.Get(classify.DeviceType).SSHStatusCommand(); statusCmd != "" {
		if ex, err := s.sessions.Execute(ctx, sessionID, statusCmd, 0); err != nil {
			logger.Warn("ssh status check before apply failed", "run_id", runID, "error", err)
		} else {
			sshBefore = firstLine(strings.TrimSpace(ex.Output))
		}
	}

	applyResult, err := s.ApplyTemplate(ctx, ApplyRequest{
		SessionID:     sessionID,
		DeviceType:    classify.DeviceType,
		SecurityLevel: req.SecurityLevel,
		EnableSecret:  req.EnableSecret,
		Network:       req.Network,
	})
	if err != nil {
		s.persistTransition(runID, req.Transport, target, classify.DeviceType, req.SecurityLevel, "", false, "failed", err.Error(), startTime)
		return nil, err
	}
	if len(applyResult.ValidationErrors) > 0 {
		result := &TransitionResult{
			RunID:       runID,
			Summary:     "failed",
			DeviceType:  classify.DeviceType,
			ApplyStatus: applyResult.Status,
			Apply:       applyResult,
			Report:      "validation failed: " + strings.Join(applyResult.ValidationErrors, "; "),
		}
		s.persistTransition(runID, req.Transport, target, classify.DeviceType, req.SecurityLevel, applyResult.Status, false, result.Summary, result.Report, startTime)
		return result, nil
	}

	var verifyResult *VerifyResult
	if !req.SkipVerify && applyResult.Status != StatusFailed {
		// 设备的SSH服务在密钥生成后需要时间完成初始化
		wait := s.cfg.Provision.SSHServiceWait
		if wait > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}
		verifyResult = s.verify.Verify(VerifyRequest{
			Host:       req.Network.IPAddress,
			Port:       s.cfg.SSH.Port,
			Username:   req.Network.Username,
			Password:   req.Network.Password,
			DeviceType: classify.DeviceType,
		})
	}

	sshVerified := verifyResult != nil && verifyResult.Reachable
	summary := transitionSummary(applyResult.Status, sshVerified, req.SkipVerify)
	report := renderTransitionReport(runID, req.Transport, target, sshBefore, classify, applyResult, verifyResult, summary, startTime)

	result := &TransitionResult{
		RunID:           runID,
		Summary:         summary,
		DeviceType:      classify.DeviceType,
		ApplyStatus:     applyResult.Status,
		SSHVerified:     sshVerified,
		SSHStatusBefore: sshBefore,
		Apply:           applyResult,
		Verify:          verifyResult,
		Report:          report,
	}
	s.persistTransition(runID, req.Transport, target, classify.DeviceType, applyResult.SecurityLevel, applyResult.Status, sshVerified, summary, report, startTime)

	logger.Info("transition finished", "run_id", runID, "summary", summary,
		"apply_status", applyResult.Status, "ssh_verified", sshVerified)
	return result, nil
}

// transitionSummary 汇总判定：下发成功且SSH验证通过为success，
// 下发FAILED或验证未通过为failed，其余为partial。
func transitionSummary(applyStatus string, sshVerified, skipVerify bool) string {
	if applyStatus == StatusFailed {
		return "failed"
	}
	// 未验证的切换最多只能算partial，SSH可用性没有得到外部证明
	if skipVerify {
		return "partial"
	}
	if !sshVerified {
		return "failed"
	}
	if applyStatus == StatusSuccess {
		return "success"
	}
	return "partial"
}

// persistTransition 落库切换记录
func (s *ProvisionService) persistTransition(runID, transport, target, deviceType, level, applyStatus string, sshVerified bool, summary, report string, startTime time.Time) {
	run := &model.TransitionRun{
		ID:            runID,
		Transport:     transport,
		Target:        target,
		DeviceType:    deviceType,
		SecurityLevel: level,
		ApplyStatus:   applyStatus,
		SSHVerified:   sshVerified,
		Summary:       summary,
		Report:        report,
		StartTime:     startTime,
		EndTime:       time.Now(),
	}
	if err := database.WithRetry(func(tx *gorm.DB) error {
		return tx.Create(run).Error
	}, 3, 0); err != nil {
		logger.Warn("failed to persist transition run", "run_id", runID, "error", err)
	}
}

// renderApplyReport 生成人类可读的下发报告
func renderApplyReport(runID, deviceType, level, hostname, status, enableError string, steps []StepResult, startTime time.Time) string {
	var b strings.Builder
	b.WriteString("==== Configuration Provision Report ====\n")
	fmt.Fprintf(&b, "Run ID:         %s\n", runID)
	fmt.Fprintf(&b, "Hostname:       %s\n", hostname)
	fmt.Fprintf(&b, "Device Type:    %s\n", deviceType)
	fmt.Fprintf(&b, "Security Level: %s\n", level)
	fmt.Fprintf(&b, "Started:        %s\n", startTime.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Status:         %s\n", status)
	if enableError != "" {
		fmt.Fprintf(&b, "Enable:         degraded (%s), configuration steps skipped\n", enableError)
	}
	b.WriteString("\n---- Steps ----\n")
	for _, st := range steps {
		flag := "OK "
		if st.Outcome == OutcomeWarning {
			flag = "WARN"
		}
		fmt.Fprintf(&b, "[%s] %3d  %-50s (%s)\n", flag, st.Seq, st.Command, st.Duration.Round(time.Millisecond))
		if st.Outcome == OutcomeWarning && st.Excerpt != "" {
			fmt.Fprintf(&b, "       output: %s\n", firstLine(st.Excerpt))
		}
	}
	return b.String()
}

// renderTransitionReport 生成端到端切换报告
func renderTransitionReport(runID, transport, target, sshBefore string, classify *ClassifyResult, apply *ApplyResult, verify *VerifyResult, summary string, startTime time.Time) string {
	var b strings.Builder
	b.WriteString("==== Console-to-SSH Transition Report ====\n")
	fmt.Fprintf(&b, "Run ID:       %s\n", runID)
	fmt.Fprintf(&b, "Transport:    %s (%s)\n", transport, target)
	fmt.Fprintf(&b, "Device Type:  %s\n", classify.DeviceType)
	if classify.VersionBanner != "" {
		fmt.Fprintf(&b, "Version:      %s\n", classify.VersionBanner)
	}
	if sshBefore != "" {
		fmt.Fprintf(&b, "SSH Before:   %s\n", sshBefore)
	}
	fmt.Fprintf(&b, "Started:      %s\n", startTime.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Apply Status: %s (%d/%d steps flagged)\n", apply.Status, apply.WarningSteps, apply.TotalSteps)
	if apply.EnableError != "" {
		fmt.Fprintf(&b, "Enable:       degraded (%s)\n", apply.EnableError)
	}
	if verify != nil {
		if verify.Reachable {
			fmt.Fprintf(&b, "SSH Verify:   reachable (%s)\n", verify.VersionBanner)
		} else {
			fmt.Fprintf(&b, "SSH Verify:   unreachable (%s)\n", verify.Error)
		}
	} else {
		b.WriteString("SSH Verify:   skipped\n")
	}
	fmt.Fprintf(&b, "Summary:      %s\n", strings.ToUpper(summary))
	return b.String()
}

// excerpt 截断输出节选
func excerpt(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
