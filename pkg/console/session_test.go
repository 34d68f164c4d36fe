package console

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedTransport 按脚本逐段吐出设备输出的内存传输，记录全部写入
type scriptedTransport struct {
	mutex    sync.Mutex
	script   [][]byte
	writes   []string
	opened   bool
	readErr  error
	writeErr error
}

func newScripted(chunks ...string) *scriptedTransport {
	t := &scriptedTransport{opened: true}
	for _, c := range chunks {
		t.script = append(t.script, []byte(c))
	}
	return t
}

func (t *scriptedTransport) Open() error {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.opened = true
	return nil
}

func (t *scriptedTransport) Write(p []byte) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if t.writeErr != nil {
		return t.writeErr
	}
	t.writes = append(t.writes, string(p))
	return nil
}

func (t *scriptedTransport) Read(timeout time.Duration) ([]byte, error) {
	t.mutex.Lock()
	if t.readErr != nil {
		err := t.readErr
		t.mutex.Unlock()
		return nil, err
	}
	if len(t.script) > 0 {
		chunk := t.script[0]
		t.script = t.script[1:]
		t.mutex.Unlock()
		return chunk, nil
	}
	t.mutex.Unlock()
	// 脚本耗尽时模拟读取窗口等满无数据
	time.Sleep(timeout)
	return nil, nil
}

func (t *scriptedTransport) Close() error {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.opened = false
	return nil
}

func (t *scriptedTransport) IsOpen() bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.opened
}

func (t *scriptedTransport) writeCount() int {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return len(t.writes)
}

func (t *scriptedTransport) writtenSpaces() int {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	n := 0
	for _, w := range t.writes {
		if w == " " {
			n++
		}
	}
	return n
}

func testSession(t Transport) *Session {
	return NewSession("test", t, SessionOptions{
		ReadSlice:      20 * time.Millisecond,
		DefaultTimeout: 2 * time.Second,
	})
}

func TestSendCommandPagination(t *testing.T) {
	// 脚本：正文片段、翻页标记、后续片段、收尾提示符
	tr := newScripted(
		"interface GigabitEthernet0/1\n",
		"--More--",
		"interface GigabitEthernet0/2\n",
		"Switch#",
	)
	s := testSession(tr)

	ex, err := s.SendCommand(context.Background(), "show running-config", 2*time.Second)
	require.NoError(t, err, "翻页交互不应报错")
	require.NotNil(t, ex)

	assert.False(t, ex.TimedOut, "正常收尾不应标记超时")
	assert.Equal(t, 1, tr.writtenSpaces(), "每个翻页标记应恰好应答一个空格")
	assert.NotContains(t, ex.Output, "More", "翻页标记不应计入响应")
	assert.Contains(t, ex.Output, "GigabitEthernet0/1", "第一页正文应保留")
	assert.Contains(t, ex.Output, "GigabitEthernet0/2", "第二页正文应保留")
	assert.Contains(t, ex.Output, "Switch#", "收尾提示符行应包含在响应中")
	assert.Equal(t, ModeEnable, s.Mode(), "收尾后模式应重判为enable")
}

func TestSendCommandMultiplePages(t *testing.T) {
	tr := newScripted(
		"page1\n",
		"--More--",
		"page2\n",
		"--More--",
		"page3\n",
		"Switch#",
	)
	s := testSession(tr)

	ex, err := s.SendCommand(context.Background(), "show version", 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 2, tr.writtenSpaces(), "两个翻页标记应各应答一个空格")
	assert.Contains(t, ex.Output, "page1")
	assert.Contains(t, ex.Output, "page2")
	assert.Contains(t, ex.Output, "page3")
}

func TestSendCommandTimeoutReturnsPartial(t *testing.T) {
	// 设备只回了半截输出，之后沉默
	tr := newScripted("partial output without prompt\n")
	s := testSession(tr)

	start := time.Now()
	ex, err := s.SendCommand(context.Background(), "show tech-support", 150*time.Millisecond)
	require.NoError(t, err, "协议超时不是错误")
	require.NotNil(t, ex)

	assert.True(t, ex.TimedOut, "应标记为超时")
	assert.Contains(t, ex.Output, "partial output", "超时也应返回已累积的部分输出")
	assert.Equal(t, ModeUnknown, s.Mode(), "无提示符收尾时模式重判为unknown")
	assert.Less(t, time.Since(start), 1*time.Second, "应在超时预算附近返回")
}

func TestSendCommandTimeoutEmptyOutput(t *testing.T) {
	tr := newScripted()
	s := testSession(tr)

	ex, err := s.SendCommand(context.Background(), "show clock", 100*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, ex.TimedOut, "静默设备应按超时返回")
	assert.Equal(t, "", ex.Output, "无数据时输出为空")
}

func TestSendCommandTransportFaultIsFatal(t *testing.T) {
	tr := newScripted()
	tr.readErr = errors.New("device unplugged")
	s := testSession(tr)

	_, err := s.SendCommand(context.Background(), "show version", 1*time.Second)
	require.Error(t, err, "传输故障必须上抛")
	assert.Contains(t, err.Error(), "device unplugged")
	assert.Equal(t, ModeUnknown, s.Mode(), "传输故障后会话置为unknown")
}

func TestSendCommandWriteFaultIsFatal(t *testing.T) {
	tr := newScripted()
	tr.writeErr = errors.New("broken pipe")
	s := testSession(tr)

	_, err := s.SendCommand(context.Background(), "show version", 1*time.Second)
	require.Error(t, err)
	assert.Equal(t, ModeUnknown, s.Mode())
}

func TestRefreshPromptDerivesUserMode(t *testing.T) {
	// 初始unknown，设备回显 hostname> 结尾后应判为user
	tr := newScripted("\nSwitchA>")
	s := testSession(tr)
	require.Equal(t, ModeUnknown, s.Mode(), "初始模式应为unknown")

	ex, err := s.RefreshPrompt(context.Background(), 1*time.Second)
	require.NoError(t, err)
	assert.Equal(t, ModeUser, s.Mode(), "hostname>结尾应判为user模式")
	assert.Equal(t, "SwitchA>", s.LastPrompt(), "末行提示符应被记录")
	assert.False(t, ex.TimedOut)
}

func TestEnterConfigRejectedFromUserMode(t *testing.T) {
	tr := newScripted("\nSwitchA>")
	s := testSession(tr)
	_, err := s.RefreshPrompt(context.Background(), 1*time.Second)
	require.NoError(t, err)
	require.Equal(t, ModeUser, s.Mode())

	writesBefore := tr.writeCount()
	ex, err := s.EnterConfig(context.Background(), "", 1*time.Second)
	assert.ErrorIs(t, err, ErrNotInEnableMode, "用户模式进配置模式应被本地拒绝")
	assert.Nil(t, ex)
	assert.Equal(t, writesBefore, tr.writeCount(), "本地拒绝不应有任何传输写入")
}

func TestEnterConfigIdempotentInConfigMode(t *testing.T) {
	tr := newScripted("\nSwitch(config)#")
	s := testSession(tr)
	_, err := s.RefreshPrompt(context.Background(), 1*time.Second)
	require.NoError(t, err)
	require.Equal(t, ModeConfig, s.Mode())

	writesBefore := tr.writeCount()
	ex, err := s.EnterConfig(context.Background(), "", 1*time.Second)
	assert.NoError(t, err, "已处于配置模式应为幂等")
	assert.Nil(t, ex)
	assert.Equal(t, writesBefore, tr.writeCount(), "幂等路径不应接触设备")
}

func TestEnterConfigFromEnable(t *testing.T) {
	tr := newScripted("\nSwitch#", "configure terminal\nSwitch(config)#")
	s := testSession(tr)
	_, err := s.RefreshPrompt(context.Background(), 1*time.Second)
	require.NoError(t, err)
	require.Equal(t, ModeEnable, s.Mode())

	_, err = s.EnterConfig(context.Background(), "", 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, ModeConfig, s.Mode(), "配置命令后模式应重判为config")
}

func TestEnableWithPassword(t *testing.T) {
	tr := newScripted(
		"\nSwitch>",
		"enable\nPassword: ",
		"\nSwitch#",
	)
	s := testSession(tr)
	_, err := s.RefreshPrompt(context.Background(), 1*time.Second)
	require.NoError(t, err)
	require.Equal(t, ModeUser, s.Mode())

	ex, err := s.Enable(context.Background(), "", "mysecret99", 2*time.Second)
	require.NoError(t, err, "正确的enable密码应成功")
	require.NotNil(t, ex)
	assert.Equal(t, ModeEnable, s.Mode(), "enable后模式应为enable")

	tr.mutex.Lock()
	defer tr.mutex.Unlock()
	assert.Contains(t, tr.writes, "enable\r\n", "应发送enable命令")
	assert.Contains(t, tr.writes, "mysecret99\r\n", "应发送enable密码")
}

func TestEnableSecretRequired(t *testing.T) {
	tr := newScripted("\nSwitch>", "enable\nPassword: ")
	s := testSession(tr)
	_, err := s.RefreshPrompt(context.Background(), 1*time.Second)
	require.NoError(t, err)

	_, err = s.Enable(context.Background(), "", "", 2*time.Second)
	assert.ErrorIs(t, err, ErrEnableSecretRequired, "无密码可发时应报告缺失")
	assert.NotEqual(t, ModeEnable, s.Mode(), "失败时不应转入enable模式")
}

func TestEnableRejectedOnReprompt(t *testing.T) {
	// 密码错误：设备再次提示Password
	tr := newScripted(
		"\nSwitch>",
		"enable\nPassword: ",
		"\nPassword: ",
	)
	s := testSession(tr)
	_, err := s.RefreshPrompt(context.Background(), 1*time.Second)
	require.NoError(t, err)

	_, err = s.Enable(context.Background(), "", "wrongpass", 2*time.Second)
	assert.ErrorIs(t, err, ErrEnableRejected, "密码被拒时应报告被拒")
	assert.NotEqual(t, ModeEnable, s.Mode())
}

func TestEnableNoopWhenAlreadyPrivileged(t *testing.T) {
	tr := newScripted("\nSwitch#")
	s := testSession(tr)
	_, err := s.RefreshPrompt(context.Background(), 1*time.Second)
	require.NoError(t, err)
	require.Equal(t, ModeEnable, s.Mode())

	writesBefore := tr.writeCount()
	ex, err := s.Enable(context.Background(), "", "whatever1", 1*time.Second)
	assert.NoError(t, err)
	assert.Nil(t, ex, "已处于特权模式时enable应为无操作")
	assert.Equal(t, writesBefore, tr.writeCount())
}

func TestSendInteractiveAnswersConfirmation(t *testing.T) {
	tr := newScripted(
		"The rsa keypair already exists. Replace? [yes/no]: ",
		"Generating keys...\n",
		"Switch(config)#",
	)
	s := testSession(tr)

	ex, err := s.SendInteractive(context.Background(), "crypto key generate rsa", "", 2*time.Second)
	require.NoError(t, err)
	assert.False(t, ex.TimedOut)
	assert.Contains(t, ex.Output, "Generating keys", "确认后的输出应保留")

	tr.mutex.Lock()
	defer tr.mutex.Unlock()
	assert.Contains(t, tr.writes, "yes\r\n", "确认提示应自动应答默认yes")
}

func TestSendInteractiveAnswersConfirmationOnce(t *testing.T) {
	// 确认行之后设备先吐了空行，不应触发第二次应答
	tr := newScripted(
		"Replace keys? [yes/no]: ",
		"\n\n",
		"done\nSwitch#",
	)
	s := testSession(tr)

	_, err := s.SendInteractive(context.Background(), "crypto key generate rsa", "no", 2*time.Second)
	require.NoError(t, err)

	tr.mutex.Lock()
	defer tr.mutex.Unlock()
	answers := 0
	for _, w := range tr.writes {
		if w == "no\r\n" {
			answers++
		}
	}
	assert.Equal(t, 1, answers, "同一确认提示只应答一次")
}

func TestPlainSendCommandDoesNotAnswerConfirmation(t *testing.T) {
	// 非交互发送遇到确认提示：不应答，等满超时后返回部分输出
	tr := newScripted("Erase startup-config? [confirm]")
	s := testSession(tr)

	ex, err := s.SendCommand(context.Background(), "write erase", 150*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, ex.TimedOut, "无人应答确认时应按超时收尾")

	tr.mutex.Lock()
	defer tr.mutex.Unlock()
	for _, w := range tr.writes {
		assert.NotEqual(t, "yes\r\n", w, "普通发送不得自动应答确认")
	}
}

func TestExchangeStripsCommandEcho(t *testing.T) {
	tr := newScripted("show clock\n10:23:01.123 UTC\nSwitch#")
	s := testSession(tr)

	ex, err := s.SendCommand(context.Background(), "show clock", 1*time.Second)
	require.NoError(t, err)
	assert.NotContains(t, ex.Output, "show clock", "命令回显应被剥离")
	assert.Contains(t, ex.Output, "10:23:01", "正文应保留")
}

func TestExchangeStripsPromptPrefixedEcho(t *testing.T) {
	// 回显行带着上一提示符前缀，依然是回显
	tr := newScripted("SW-1#show version\nCisco IOS Software\nSW-1#")
	s := testSession(tr)

	ex, err := s.SendCommand(context.Background(), "show version", 1*time.Second)
	require.NoError(t, err)
	assert.NotContains(t, ex.Output, "show version", "带提示符前缀的回显应被剥离")
	assert.Contains(t, ex.Output, "Cisco IOS Software", "正文应保留")
}

func TestExchangeKeepsOutputEndingWithCommand(t *testing.T) {
	// 首行只是恰好以命令文本结尾的正常输出，不是回显
	tr := newScripted("system status\nUptime: 42 days\nSwitch#")
	s := testSession(tr)

	ex, err := s.SendCommand(context.Background(), "status", 1*time.Second)
	require.NoError(t, err)
	assert.Contains(t, ex.Output, "system status", "以命令文本结尾的正常首行应保留")
	assert.Contains(t, ex.Output, "Uptime: 42 days")
}

func TestSessionSerializesExchanges(t *testing.T) {
	// 两个并发交互必须串行：第二个在第一个完成前不得写入
	tr := newScripted("\nSwitch#", "\nSwitch#")
	s := testSession(tr)

	var wg sync.WaitGroup
	wg.Add(2)
	for i := 0; i < 2; i++ {
		go func() {
			defer wg.Done()
			_, _ = s.SendCommand(context.Background(), "show clock", 1*time.Second)
		}()
	}
	wg.Wait()

	tr.mutex.Lock()
	defer tr.mutex.Unlock()
	assert.Len(t, tr.writes, 2, "两次交互应各写入一次命令")
}

func TestSessionMetadata(t *testing.T) {
	tr := newScripted()
	s := NewSession("sess-1", tr, SessionOptions{})

	assert.Equal(t, "sess-1", s.ID())
	assert.Equal(t, ModeUnknown, s.Mode(), "初始模式unknown")
	assert.Equal(t, DeviceGeneric, s.DeviceType(), "初始设备类型generic")

	s.SetDeviceType(DeviceCiscoIOSXE)
	assert.Equal(t, DeviceCiscoIOSXE, s.DeviceType())

	s.SetDeviceType("")
	assert.Equal(t, DeviceCiscoIOSXE, s.DeviceType(), "空设备类型不应覆盖已有值")

	assert.True(t, s.IsOpen())
	require.NoError(t, s.Close())
	assert.False(t, s.IsOpen())
}
