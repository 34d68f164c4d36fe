package console

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/switchconfigpro/switchconfigpro/internal/util"
	"github.com/switchconfigpro/switchconfigpro/pkg/logger"
)

// Mode 会话所处的设备模式
type Mode string

const (
	ModeUser    Mode = "user"
	ModeEnable  Mode = "enable"
	ModeConfig  Mode = "config"
	ModeUnknown Mode = "unknown"
)

// 会话层错误
var (
	// ErrEnableSecretRequired 设备要求enable密码但未提供
	ErrEnableSecretRequired = errors.New("enable secret required but not provided")
	// ErrEnableRejected enable密码被设备拒绝或未能进入特权模式
	ErrEnableRejected = errors.New("enable authentication rejected")
	// ErrNotInEnableMode 从用户模式进入配置模式被本地拒绝
	ErrNotInEnableMode = errors.New("config mode requires enable mode")
)

// SessionOptions 会话可调参数
type SessionOptions struct {
	// ReadSlice 单次传输读取窗口，总预算在多次读取间递减
	ReadSlice time.Duration
	// DefaultTimeout 调用方未指定超时时的交互超时
	DefaultTimeout time.Duration
}

// Session 一条设备对话：独占一个传输，串行化所有交互
// 模式永远由设备实际回显的提示符重新判定，而不是由已发送的命令推断。
type Session struct {
	id        string
	transport Transport

	// 同一会话同时最多一个在途交互
	mutex sync.Mutex

	stateMutex   sync.RWMutex
	mode         Mode
	lastPrompt   string
	deviceType   string
	lastActivity time.Time

	readSlice      time.Duration
	defaultTimeout time.Duration
}

// Exchange 一次命令交互的结果
// TimedOut 表示未等到提示符而按期限返回，输出为已累积的部分内容，不属于致命错误。
type Exchange struct {
	Command  string        `json:"command"`
	Output   string        `json:"output"`
	Prompt   PromptKind    `json:"-"`
	TimedOut bool          `json:"timed_out"`
	Duration time.Duration `json:"duration"`
}

// exchangeOptions 单次交互的内部选项
type exchangeOptions struct {
	confirmAnswer  string
	stopOnPassword bool
	// maskCommand 日志中以星号替代命令内容（口令输入）
	maskCommand bool
}

// NewSession 创建会话，初始模式为 unknown，设备类型为 generic
func NewSession(id string, transport Transport, opts SessionOptions) *Session {
	if opts.ReadSlice <= 0 {
		opts.ReadSlice = 500 * time.Millisecond
	}
	if opts.DefaultTimeout <= 0 {
		opts.DefaultTimeout = 10 * time.Second
	}
	return &Session{
		id:             id,
		transport:      transport,
		mode:           ModeUnknown,
		deviceType:     DeviceGeneric,
		lastActivity:   time.Now(),
		readSlice:      opts.ReadSlice,
		defaultTimeout: opts.DefaultTimeout,
	}
}

// ID 返回会话标识
func (s *Session) ID() string { return s.id }

// Mode 返回当前模式
func (s *Session) Mode() Mode {
	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()
	return s.mode
}

// LastPrompt 返回最近一次响应的尾部提示符行
func (s *Session) LastPrompt() string {
	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()
	return s.lastPrompt
}

// DeviceType 返回设备类型标签
func (s *Session) DeviceType() string {
	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()
	return s.deviceType
}

// SetDeviceType 设置设备类型标签（分类器识别后写入）
func (s *Session) SetDeviceType(deviceType string) {
	s.stateMutex.Lock()
	defer s.stateMutex.Unlock()
	if deviceType != "" {
		s.deviceType = deviceType
	}
}

// LastActivity 返回最近一次交互时间
func (s *Session) LastActivity() time.Time {
	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()
	return s.lastActivity
}

// IsOpen 返回底层传输是否可用
func (s *Session) IsOpen() bool { return s.transport.IsOpen() }

// Close 关闭底层传输
func (s *Session) Close() error { return s.transport.Close() }

// SendCommand 发送单条命令并等待提示符收尾
func (s *Session) SendCommand(ctx context.Context, command string, timeout time.Duration) (*Exchange, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.exchangeLocked(ctx, command, timeout, exchangeOptions{})
}

// SendInteractive 发送命令并自动应答yes/no确认提示，用于破坏性命令
func (s *Session) SendInteractive(ctx context.Context, command, confirmAnswer string, timeout time.Duration) (*Exchange, error) {
	if confirmAnswer == "" {
		confirmAnswer = "yes"
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.exchangeLocked(ctx, command, timeout, exchangeOptions{confirmAnswer: confirmAnswer})
}

// RefreshPrompt 发送空回车诱发设备重绘提示符，用于连接后的初始模式判定
func (s *Session) RefreshPrompt(ctx context.Context, timeout time.Duration) (*Exchange, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.exchangeLocked(ctx, "", timeout, exchangeOptions{})
}

// Enable 进入特权模式：发送enable命令，遇到密码提示自动输入enable密码
// 已处于特权或配置模式时不与设备交互，返回 (nil, nil)。
func (s *Session) Enable(ctx context.Context, enableCmd, secret string, timeout time.Duration) (*Exchange, error) {
	if strings.TrimSpace(enableCmd) == "" {
		enableCmd = "enable"
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if m := s.Mode(); m == ModeEnable || m == ModeConfig {
		return nil, nil
	}

	ex, err := s.exchangeLocked(ctx, enableCmd, timeout, exchangeOptions{stopOnPassword: true})
	if err != nil {
		return ex, err
	}

	if ex.Prompt == PromptPassword {
		if secret == "" {
			return ex, ErrEnableSecretRequired
		}
		// stopOnPassword: 密码错误时设备会再次提示，提前停止而不是等满超时
		ex2, err := s.exchangeLocked(ctx, secret, timeout, exchangeOptions{stopOnPassword: true, maskCommand: true})
		if err != nil {
			return ex2, err
		}
		if s.Mode() != ModeEnable {
			return ex2, ErrEnableRejected
		}
		return ex2, nil
	}

	if s.Mode() == ModeEnable {
		return ex, nil
	}
	return ex, ErrEnableRejected
}

// EnterConfig 进入配置模式：仅允许从特权模式进入，配置模式下幂等，
// 用户模式下本地拒绝，不接触传输层。
func (s *Session) EnterConfig(ctx context.Context, enterCmd string, timeout time.Duration) (*Exchange, error) {
	if strings.TrimSpace(enterCmd) == "" {
		enterCmd = "configure terminal"
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()

	switch s.Mode() {
	case ModeConfig:
		return nil, nil
	case ModeEnable:
	default:
		return nil, ErrNotInEnableMode
	}

	ex, err := s.exchangeLocked(ctx, enterCmd, timeout, exchangeOptions{})
	if err != nil {
		return ex, err
	}
	if s.Mode() != ModeConfig {
		return ex, fmt.Errorf("device did not enter config mode, prompt %q", s.LastPrompt())
	}
	return ex, nil
}

// ExitMode 发送exit退出当前模式
// 新模式由设备实际提示符重新判定，部分设备会折叠多级exit。
func (s *Session) ExitMode(ctx context.Context, timeout time.Duration) (*Exchange, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.exchangeLocked(ctx, "exit", timeout, exchangeOptions{})
}

// exchangeLocked 单次交互核心循环：调用方必须已持有交互锁
// 读预算随总超时递减；翻页发送单个空格续读；模式提示符收尾；
// 超时返回已累积内容并标记TimedOut；传输故障立即中止且会话模式置为unknown。
func (s *Session) exchangeLocked(ctx context.Context, command string, timeout time.Duration, opts exchangeOptions) (*Exchange, error) {
	if timeout <= 0 {
		timeout = s.defaultTimeout
	}
	start := time.Now()
	deadline := start.Add(timeout)

	if err := s.transport.Write([]byte(command + "\r\n")); err != nil {
		s.fault()
		return nil, fmt.Errorf("transport write failed: %w", err)
	}

	var acc string
	confirmAnswered := false
	for {
		if err := ctx.Err(); err != nil {
			s.fault()
			return nil, err
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return s.finish(command, acc, true, start, opts), nil
		}
		slice := s.readSlice
		if slice > remaining {
			slice = remaining
		}

		chunk, err := s.transport.Read(slice)
		if err != nil {
			s.fault()
			return nil, fmt.Errorf("transport read failed: %w", err)
		}
		if len(chunk) == 0 {
			continue
		}
		acc += sanitizeChunk(util.EnsureUTF8Bytes(chunk))

		switch MatchPrompt(acc) {
		case PromptMore:
			// 翻页应答为单个空格（不带换行），标记本身不计入响应内容
			if err := s.transport.Write([]byte(" ")); err != nil {
				s.fault()
				return nil, fmt.Errorf("transport write failed: %w", err)
			}
			acc = StripPagingMarkers(acc)
		case PromptConfirm:
			// 每条命令最多自动应答一次确认，防止同一提示被重复应答
			if opts.confirmAnswer != "" && !confirmAnswered {
				if err := s.transport.Write([]byte(opts.confirmAnswer + "\r\n")); err != nil {
					s.fault()
					return nil, fmt.Errorf("transport write failed: %w", err)
				}
				confirmAnswered = true
			}
		case PromptPassword:
			if opts.stopOnPassword {
				return s.finish(command, acc, false, start, opts), nil
			}
		case PromptUser, PromptEnable, PromptConfig:
			return s.finish(command, acc, false, start, opts), nil
		}
	}
}

// finish 收尾一次交互：剥离命令回显，按实际提示符重新判定模式
func (s *Session) finish(command, acc string, timedOut bool, start time.Time, opts exchangeOptions) *Exchange {
	output := stripEcho(acc, command)
	kind := MatchPrompt(output)

	s.stateMutex.Lock()
	s.lastPrompt = LastNonBlankLine(output)
	s.mode = modeFromPrompt(kind)
	s.lastActivity = time.Now()
	s.stateMutex.Unlock()

	logged := command
	if opts.maskCommand {
		logged = "******"
	}
	logger.DebugExchange(logged, output, 5)

	return &Exchange{
		Command:  command,
		Output:   output,
		Prompt:   kind,
		TimedOut: timedOut,
		Duration: time.Since(start),
	}
}

// fault 传输故障：会话置为unknown，调用方应废弃并重建会话
func (s *Session) fault() {
	s.stateMutex.Lock()
	s.mode = ModeUnknown
	s.lastActivity = time.Now()
	s.stateMutex.Unlock()
}

// sanitizeChunk 清洗一段设备输出：统一换行、去除ANSI转义与不可见控制符
func sanitizeChunk(s string) string {
	// CRLF -> \n，孤立CR去除，避免回车被误判为换行
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "")

	b := make([]byte, 0, len(s))
	skip := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if skip {
			// 跳过直到CSI序列的字母结尾
			if (ch >= 'A' && ch <= 'Z') || (ch >= 'a' && ch <= 'z') {
				skip = false
			}
			continue
		}
		if ch == 0x1b {
			skip = true
			continue
		}
		if ch < 0x20 && ch != '\n' && ch != '\t' {
			continue
		}
		b = append(b, ch)
	}
	return string(b)
}

// stripEcho 剥离响应首行中的命令回显
func stripEcho(acc, command string) string {
	cmd := strings.TrimSpace(command)
	if cmd == "" || acc == "" {
		return acc
	}
	first := acc
	rest := ""
	if idx := strings.Index(acc, "\n"); idx >= 0 {
		first = acc[:idx]
		rest = acc[idx+1:]
	} else {
		return acc
	}
	trimmed := strings.TrimSpace(first)
	if trimmed == cmd {
		return rest
	}
	// 回显行可能带提示符前缀（如 SW-1#show version），剥掉提示符后须与命令
	// 完全一致；正常输出行仅以命令文本结尾不算回显
	if idx := strings.LastIndexAny(trimmed, ">#]"); idx >= 0 && strings.TrimSpace(trimmed[idx+1:]) == cmd {
		return rest
	}
	return acc
}
