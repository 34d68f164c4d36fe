package console

import (
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
)

// SSHParams SSH连接参数，创建后不可变
type SSHParams struct {
	Host             string        `json:"host"`
	Port             int           `json:"port"`
	Username         string        `json:"username"`
	Password         string        `json:"password"`
	ConnectTimeout   time.Duration `json:"connect_timeout"`
	KeepAlive        time.Duration `json:"keep_alive"`
	LegacyAlgorithms bool          `json:"legacy_algorithms"`
}

// SSHTransport SSH shell通道传输
// 读协程把stdout/stderr数据推入有界块通道，Read在其上做超时有界消费，
// 同一时刻最多一个未决读取，与会话层的单飞交互约束一致。
type SSHTransport struct {
	params  SSHParams
	client  *ssh.Client
	session *ssh.Session
	stdin   io.WriteCloser

	chunks chan []byte
	faults chan error
	done   chan struct{}

	mutex  sync.Mutex
	opened bool
}

// NewSSHTransport 创建SSH传输
func NewSSHTransport(params SSHParams) *SSHTransport {
	if params.Port <= 0 {
		params.Port = 22
	}
	if params.ConnectTimeout <= 0 {
		params.ConnectTimeout = 30 * time.Second
	}
	return &SSHTransport{params: params}
}

// Open 建立SSH连接并打开带PTY的shell通道
func (t *SSHTransport) Open() error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.opened {
		return ErrAlreadyOpen
	}

	sshConfig := &ssh.ClientConfig{
		User:            t.params.Username,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         t.params.ConnectTimeout,
	}

	if t.params.LegacyAlgorithms {
		applyLegacyAlgorithms(sshConfig)
	}

	if t.params.Password != "" {
		// 同时尝试 password 与 keyboard-interactive，提高与网络设备的兼容性
		sshConfig.Auth = []ssh.AuthMethod{
			ssh.Password(t.params.Password),
			ssh.KeyboardInteractive(func(user, instruction string, questions []string, echos []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range questions {
					answers[i] = t.params.Password
				}
				return answers, nil
			}),
		}
	}

	address := fmt.Sprintf("%s:%d", t.params.Host, t.params.Port)
	dialer := &net.Dialer{Timeout: t.params.ConnectTimeout}

	conn, err := dialer.Dial("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to dial %s: %w", address, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, address, sshConfig)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to create SSH connection: %w", err)
	}
	client := ssh.NewClient(sshConn, chans, reqs)

	session, err := client.NewSession()
	if err != nil {
		client.Close()
		return fmt.Errorf("failed to create SSH session: %w", err)
	}

	// 设置终端模式（启用回显，兼容网络设备CLI），并使用终端类型回退
	modes := ssh.TerminalModes{
		ssh.ECHO:          1,
		ssh.TTY_OP_ISPEED: 14400,
		ssh.TTY_OP_OSPEED: 14400,
	}
	var ptyErr error
	for _, term := range []string{"vt100", "xterm", "ansi", "dumb"} {
		if ptyErr = session.RequestPty(term, 80, 24, modes); ptyErr == nil {
			break
		}
	}
	if ptyErr != nil {
		session.Close()
		client.Close()
		return fmt.Errorf("failed to request pty: %w", ptyErr)
	}

	stdin, err := session.StdinPipe()
	if err != nil {
		session.Close()
		client.Close()
		return fmt.Errorf("failed to get stdin: %w", err)
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		session.Close()
		client.Close()
		return fmt.Errorf("failed to get stdout: %w", err)
	}
	stderr, err := session.StderrPipe()
	if err != nil {
		session.Close()
		client.Close()
		return fmt.Errorf("failed to get stderr: %w", err)
	}

	if err := session.Shell(); err != nil {
		session.Close()
		client.Close()
		return fmt.Errorf("failed to start shell: %w", err)
	}

	t.client = client
	t.session = session
	t.stdin = stdin
	t.chunks = make(chan []byte, 64)
	t.faults = make(chan error, 2)
	t.done = make(chan struct{})
	t.opened = true

	go t.pump(stdout)
	go t.pump(stderr)
	if t.params.KeepAlive > 0 {
		go t.keepAlive()
	}

	return nil
}

// pump 把通道输出搬运进块通道，硬故障进入故障通道
func (t *SSHTransport) pump(r io.Reader) {
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case t.chunks <- chunk:
			case <-t.done:
				return
			}
		}
		if err != nil {
			select {
			case t.faults <- err:
			case <-t.done:
			}
			return
		}
	}
}

// keepAlive 周期性发送保活请求，失败即视为链路故障
func (t *SSHTransport) keepAlive() {
	ticker := time.NewTicker(t.params.KeepAlive)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if _, _, err := t.client.SendRequest("keepalive@openssh.com", true, nil); err != nil {
				select {
				case t.faults <- fmt.Errorf("keepalive failed: %w", err):
				case <-t.done:
				}
				return
			}
		case <-t.done:
			return
		}
	}
}

// Write 写入shell通道
func (t *SSHTransport) Write(p []byte) error {
	t.mutex.Lock()
	stdin, open := t.stdin, t.opened
	t.mutex.Unlock()

	if !open {
		return ErrTransportClosed
	}
	if _, err := stdin.Write(p); err != nil {
		return fmt.Errorf("ssh write failed: %w", err)
	}
	return nil
}

// Read 超时有界读取：等到第一块后吸干已到达数据并返回，期限内无数据返回空切片
func (t *SSHTransport) Read(timeout time.Duration) ([]byte, error) {
	t.mutex.Lock()
	open := t.opened
	t.mutex.Unlock()

	if !open {
		return nil, ErrTransportClosed
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var acc []byte
	select {
	case chunk := <-t.chunks:
		acc = append(acc, chunk...)
	case err := <-t.faults:
		return nil, fmt.Errorf("ssh read failed: %w", err)
	case <-timer.C:
		return nil, nil
	}

	// 吸干同批到达的数据，减少会话层的read轮次
	for {
		select {
		case chunk := <-t.chunks:
			acc = append(acc, chunk...)
		default:
			return acc, nil
		}
	}
}

// Close 关闭shell通道与SSH连接
func (t *SSHTransport) Close() error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if !t.opened {
		return nil
	}
	t.opened = false
	close(t.done)

	if t.session != nil {
		t.session.Close()
	}
	if t.client != nil {
		if err := t.client.Close(); err != nil {
			return fmt.Errorf("ssh close failed: %w", err)
		}
	}
	return nil
}

// IsOpen 返回连接是否打开
func (t *SSHTransport) IsOpen() bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.opened
}

// applyLegacyAlgorithms 放宽算法列表以兼容老旧网络设备
func applyLegacyAlgorithms(cfg *ssh.ClientConfig) {
	cfg.Config.KeyExchanges = []string{
		"diffie-hellman-group14-sha256",
		"diffie-hellman-group14-sha1",
		"diffie-hellman-group1-sha1",
		"diffie-hellman-group-exchange-sha256",
		"diffie-hellman-group-exchange-sha1",
		"ecdh-sha2-nistp256",
		"ecdh-sha2-nistp384",
		"ecdh-sha2-nistp521",
	}
	cfg.Config.Ciphers = []string{
		"aes128-ctr",
		"aes192-ctr",
		"aes256-ctr",
		"aes128-gcm@openssh.com",
		"aes256-gcm@openssh.com",
		"aes128-cbc",
		"aes192-cbc",
		"aes256-cbc",
		"3des-cbc",
	}
	cfg.Config.MACs = []string{
		"hmac-sha2-256-etm@openssh.com",
		"hmac-sha2-256",
		"hmac-sha1",
		"hmac-sha1-96",
	}
	cfg.HostKeyAlgorithms = []string{
		"ssh-rsa",
		"rsa-sha2-256",
		"rsa-sha2-512",
		"ecdsa-sha2-nistp256",
		"ecdsa-sha2-nistp384",
		"ecdsa-sha2-nistp521",
	}
}
