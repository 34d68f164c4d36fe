package simulate

import (
	"bufio"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/switchconfigpro/switchconfigpro/pkg/logger"
	"golang.org/x/crypto/ssh"
)

// 模拟设备家族
const (
	FamilyCiscoIOS   = "cisco-ios"
	FamilyCiscoIOSXE = "cisco-ios-xe"
	FamilyHuaweiVRP  = "huawei-vrp"
)

// DeviceProfile 一台模拟交换机的行为参数
type DeviceProfile struct {
	Family   string
	Hostname string
	// Password 登录密码，空串表示接受任意密码
	Password string
	// EnableSecret 提权密码，空串表示enable直接放行
	EnableSecret string
	// PageSize 分页行数，0表示不分页
	PageSize int
	// KeygenDelay 密钥生成命令的人为延迟
	KeygenDelay time.Duration
}

// Server SSH交换机模拟器：按网络设备CLI的提示符语义应答，
// 供集成测试与演示环境使用。
type Server struct {
	profile  DeviceProfile
	listener net.Listener
	hostKey  ssh.Signer

	mu      sync.Mutex
	wg      sync.WaitGroup
	started bool
}

// NewServer 创建模拟器
func NewServer(profile DeviceProfile) (*Server, error) {
	if profile.Hostname == "" {
		profile.Hostname = "Switch"
	}
	if profile.Family == "" {
		profile.Family = FamilyCiscoIOS
	}
	signer, err := generateHostKey()
	if err != nil {
		return nil, fmt.Errorf("failed to init host key: %w", err)
	}
	return &Server{profile: profile, hostKey: signer}, nil
}

// generateHostKey 生成一次性RSA host key，模拟器不持久化指纹
func generateHostKey() (ssh.Signer, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("failed to generate host key: %w", err)
	}
	privDER := x509.MarshalPKCS1PrivateKey(key)
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: privDER})
	return ssh.ParsePrivateKey(pemBytes)
}

// Start 监听并接受连接，listen为"host:0"时分配临时端口
func (s *Server) Start(listen string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("simulator already started")
	}

	ln, err := net.Listen("tcp", listen)
	if err != nil {
		return err
	}
	s.listener = ln
	s.started = true

	go s.acceptLoop()
	logger.Info("simulator started", "addr", ln.Addr().String(), "family", s.profile.Family)
	return nil
}

// Addr 返回实际监听地址
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Port 返回实际监听端口，未启动返回0
func (s *Server) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return 0
	}
	if addr, ok := s.listener.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}
	return 0
}

// Stop 关闭监听并等待在途会话结束
func (s *Server) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	ln := s.listener
	s.mu.Unlock()

	if ln != nil {
		_ = ln.Close()
	}
	s.wg.Wait()
	logger.Info("simulator stopped")
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		s.wg.Add(1)
		go func(c net.Conn) {
			defer s.wg.Done()
			s.handleConn(c)
		}(conn)
	}
}

func (s *Server) handleConn(nc net.Conn) {
	srvCfg := &ssh.ServerConfig{
		PasswordCallback: func(meta ssh.ConnMetadata, password []byte) (*ssh.Permissions, error) {
			if s.profile.Password == "" || string(password) == s.profile.Password {
				return nil, nil
			}
			return nil, fmt.Errorf("access denied")
		},
		KeyboardInteractiveCallback: func(meta ssh.ConnMetadata, challenge ssh.KeyboardInteractiveChallenge) (*ssh.Permissions, error) {
			answers, err := challenge(meta.User(), "Authentication", []string{"Password:"}, []bool{false})
			if err != nil {
				return nil, err
			}
			if s.profile.Password == "" || (len(answers) > 0 && strings.TrimSpace(answers[0]) == s.profile.Password) {
				return nil, nil
			}
			return nil, fmt.Errorf("access denied")
		},
	}
	srvCfg.AddHostKey(s.hostKey)

	conn, chans, reqs, err := ssh.NewServerConn(nc, srvCfg)
	if err != nil {
		_ = nc.Close()
		return
	}
	defer conn.Close()
	go ssh.DiscardRequests(reqs)

	for ch := range chans {
		if ch.ChannelType() != "session" {
			ch.Reject(ssh.UnknownChannelType, "unknown channel type")
			continue
		}
		channel, requests, err := ch.Accept()
		if err != nil {
			continue
		}
		go s.handleSession(channel, requests)
	}
}

func (s *Server) handleSession(channel ssh.Channel, requests <-chan *ssh.Request) {
	defer channel.Close()
	for req := range requests {
		switch req.Type {
		case "pty-req", "env", "window-change":
			req.Reply(true, nil)
		case "shell":
			req.Reply(true, nil)
			newShell(s.profile, channel).run()
			return
		default:
			req.Reply(false, nil)
		}
	}
}

// shellState 一条交互会话的状态机
type shellState struct {
	profile  DeviceProfile
	channel  ssh.Channel
	reader   *bufio.Reader
	hostname string
	// mode: user | enable | config
	mode string
	// submode 配置子视图标记，如 config-if / config-line
	submode        string
	pagingDisabled bool
}

func newShell(profile DeviceProfile, channel ssh.Channel) *shellState {
	return &shellState{
		profile:  profile,
		channel:  channel,
		reader:   bufio.NewReader(channel),
		hostname: profile.Hostname,
		mode:     "user",
	}
}

// prompt 按当前模式构造提示符
func (sh *shellState) prompt() string {
	if sh.profile.Family == FamilyHuaweiVRP {
		if sh.mode == "config" {
			if sh.submode != "" {
				return "[" + sh.hostname + "-" + sh.submode + "]"
			}
			return "[" + sh.hostname + "]"
		}
		return "<" + sh.hostname + ">"
	}
	switch sh.mode {
	case "config":
		if sh.submode != "" {
			return sh.hostname + "(config-" + sh.submode + ")#"
		}
		return sh.hostname + "(config)#"
	case "enable":
		return sh.hostname + "#"
	default:
		return sh.hostname + ">"
	}
}

func (sh *shellState) write(text string) {
	_, _ = sh.channel.Write([]byte(text))
}

func (sh *shellState) printPrompt() {
	sh.write("\r\n" + sh.prompt())
}

// readLine 读取一行输入，兼容CR结尾的客户端
func (sh *shellState) readLine() (string, error) {
	var b strings.Builder
	for {
		ch, err := sh.reader.ReadByte()
		if err != nil {
			return b.String(), err
		}
		if ch == '\n' || ch == '\r' {
			// 吸收CRLF的第二个字节
			if ch == '\r' {
				if next, err := sh.reader.Peek(1); err == nil && len(next) == 1 && next[0] == '\n' {
					_, _ = sh.reader.ReadByte()
				}
			}
			return b.String(), nil
		}
		b.WriteByte(ch)
	}
}

func (sh *shellState) run() {
	sh.printPrompt()
	for {
		line, err := sh.readLine()
		if err != nil {
			if err != io.EOF {
				logger.Debug("simulator session read error", "error", err)
			}
			return
		}
		cmd := strings.TrimSpace(line)
		if cmd == "" {
			sh.printPrompt()
			continue
		}
		// 命令回显，真实设备的PTY会回显输入行
		sh.write(cmd + "\r\n")

		if done := sh.dispatch(cmd); done {
			return
		}
		sh.printPrompt()
	}
}

// dispatch 处理一条命令，返回true表示会话结束
func (sh *shellState) dispatch(cmd string) bool {
	lower := strings.ToLower(cmd)

	switch {
	case lower == "exit" || lower == "quit":
		switch {
		case sh.mode == "config" && sh.submode != "":
			sh.submode = ""
			return false
		case sh.mode == "config":
			sh.mode = "enable"
			return false
		case sh.mode == "enable":
			sh.mode = "user"
			return false
		default:
			return true
		}

	case lower == "end" || lower == "return":
		if sh.mode == "config" {
			sh.mode = "enable"
			sh.submode = ""
		}
		return false

	case lower == "enable":
		if sh.mode != "user" {
			return false
		}
		if sh.profile.EnableSecret != "" {
			sh.write("Password: ")
			secret, err := sh.readLine()
			if err != nil {
				return true
			}
			if strings.TrimSpace(secret) != sh.profile.EnableSecret {
				sh.write("\r\n% Bad secrets\r\n")
				return false
			}
			sh.write("\r\n")
		}
		sh.mode = "enable"
		return false

	case lower == "configure terminal" || lower == "system-view":
		if sh.mode != "enable" {
			sh.write("% Invalid input detected at '^' marker.\r\n")
			return false
		}
		sh.mode = "config"
		return false

	case lower == "terminal length 0" || strings.HasPrefix(lower, "screen-length 0"):
		sh.pagingDisabled = true
		return false

	case strings.HasPrefix(lower, "hostname ") || strings.HasPrefix(lower, "sysname "):
		if sh.mode != "config" {
			sh.write("% Invalid input detected at '^' marker.\r\n")
			return false
		}
		parts := strings.Fields(cmd)
		if len(parts) > 1 {
			sh.hostname = parts[1]
		}
		return false

	case lower == "show version" || lower == "display version":
		sh.writePaged(versionBanner(sh.profile.Family, sh.hostname))
		return false

	case lower == "show running-config" || lower == "display current-configuration":
		if sh.mode == "user" {
			sh.write("% Invalid input detected at '^' marker.\r\n")
			return false
		}
		sh.writePaged(runningConfig(sh.profile.Family, sh.hostname))
		return false

	case lower == "show ip interface brief" || lower == "display ip interface brief":
		sh.writePaged(interfaceBrief(sh.profile.Family))
		return false

	case lower == "show ip ssh" || lower == "display ssh server status":
		sh.write(sshStatus(sh.profile.Family))
		return false

	case strings.HasPrefix(lower, "crypto key generate rsa") || strings.HasPrefix(lower, "rsa local-key-pair create"):
		if sh.mode != "config" && sh.profile.Family != FamilyHuaweiVRP {
			sh.write("% Invalid input detected at '^' marker.\r\n")
			return false
		}
		// 确认提示：等待客户端自动应答
		sh.write("The key name will be: " + sh.hostname + "\r\n")
		sh.write("Confirm to replace the existing key? [yes/no]: ")
		answer, err := sh.readLine()
		if err != nil {
			return true
		}
		sh.write("\r\n")
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(answer)), "y") {
			sh.write("Key generation cancelled.\r\n")
			return false
		}
		if sh.profile.KeygenDelay > 0 {
			time.Sleep(sh.profile.KeygenDelay)
		}
		sh.write("Generating RSA keys, keys will be non-exportable...\r\n[OK]\r\n")
		return false

	case lower == "write memory" || lower == "save":
		if sh.profile.Family == FamilyHuaweiVRP {
			sh.write("The current configuration will be written to the device. Continue? [Y/N]: ")
			answer, err := sh.readLine()
			if err != nil {
				return true
			}
			sh.write("\r\n")
			if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(answer)), "y") {
				return false
			}
			sh.write("Save the configuration successfully.\r\n")
			return false
		}
		sh.write("Building configuration...\r\n[OK]\r\n")
		return false

	case sh.mode == "config" && (strings.HasPrefix(lower, "interface ") || strings.HasPrefix(lower, "interface vlan")):
		sh.submode = "if"
		return false

	case sh.mode == "config" && (strings.HasPrefix(lower, "line ") || strings.HasPrefix(lower, "user-interface ")):
		sh.submode = "line"
		return false

	default:
		// 配置模式下的其余命令静默接受，贴近真实设备行为
		if sh.mode == "config" {
			return false
		}
		sh.write("% Invalid input detected at '^' marker.\r\n")
		return false
	}
}

// writePaged 输出长文本，未关闭分页时按页输出并等待空格续读
func (sh *shellState) writePaged(text string) {
	lines := strings.Split(text, "\n")
	pageSize := sh.profile.PageSize
	if sh.pagingDisabled || pageSize <= 0 {
		for _, ln := range lines {
			sh.write(ln + "\r\n")
		}
		return
	}

	count := 0
	for i, ln := range lines {
		sh.write(ln + "\r\n")
		count++
		if count >= pageSize && i < len(lines)-1 {
			sh.write(" --More-- ")
			// 等待单个按键：空格续页，q中止
			ch, err := sh.reader.ReadByte()
			if err != nil {
				return
			}
			// 擦除翻页标记，真实设备用退格覆盖
			sh.write("\r          \r")
			if ch == 'q' || ch == 'Q' {
				return
			}
			count = 0
		}
	}
}

// versionBanner 各家族的版本横幅样例
func versionBanner(family, hostname string) string {
	switch family {
	case FamilyHuaweiVRP:
		return "Huawei Versatile Routing Platform Software\n" +
			"VRP (R) software, Version 8.180 (CE6850EI V200R005C10SPC800)\n" +
			"Copyright (C) 2012-2018 Huawei Technologies Co., Ltd.\n" +
			"HUAWEI CE6850-48S4Q-EI uptime is 0 day, 2 hours, 11 minutes"
	case FamilyCiscoIOSXE:
		return "Cisco IOS XE Software, Version 16.09.04\n" +
			"Cisco IOS Software [Fuji], Catalyst L3 Switch Software (CAT9K_IOSXE), Version 16.9.4, RELEASE SOFTWARE (fc2)\n" +
			"Copyright (c) 1986-2019 by Cisco Systems, Inc.\n" +
			hostname + " uptime is 1 hour, 30 minutes\n" +
			"cisco C9300-24T (X86) processor with 1392780K/6147K bytes of memory.\n" +
			"System serial number   : FCW2318L0GH"
	default:
		return "Cisco IOS Software, C2960 Software (C2960-LANBASEK9-M), Version 15.0(2)SE11, RELEASE SOFTWARE (fc3)\n" +
			"Copyright (c) 1986-2017 by Cisco Systems, Inc.\n" +
			hostname + " uptime is 2 hours, 45 minutes\n" +
			"cisco WS-C2960-24TT-L (PowerPC405) processor (revision B0) with 65536K bytes of memory.\n" +
			"System serial number   : FOC1010X0UZ"
	}
}

// runningConfig 运行配置样例，行数足以触发分页
func runningConfig(family, hostname string) string {
	if family == FamilyHuaweiVRP {
		return "#\n" +
			"sysname " + hostname + "\n" +
			"#\n" +
			"vlan batch 10 20 30\n" +
			"#\n" +
			"interface Vlanif1\n" +
			" ip address 192.168.1.1 255.255.255.0\n" +
			"#\n" +
			"interface GigabitEthernet0/0/1\n" +
			" port link-type access\n" +
			" port default vlan 10\n" +
			"#\n" +
			"interface GigabitEthernet0/0/2\n" +
			" port link-type trunk\n" +
			" port trunk allow-pass vlan 10 20\n" +
			"#\n" +
			"stelnet server enable\n" +
			"#\n" +
			"user-interface vty 0 4\n" +
			" authentication-mode aaa\n" +
			" protocol inbound ssh\n" +
			"#\n" +
			"return"
	}
	return "Building configuration...\n" +
		"!\n" +
		"version 15.0\n" +
		"hostname " + hostname + "\n" +
		"!\n" +
		"ip domain-name example.local\n" +
		"!\n" +
		"interface Vlan1\n" +
		" ip address 192.168.1.1 255.255.255.0\n" +
		" no shutdown\n" +
		"!\n" +
		"interface FastEthernet0/1\n" +
		" switchport mode access\n" +
		"!\n" +
		"interface FastEthernet0/2\n" +
		" switchport mode access\n" +
		"!\n" +
		"interface GigabitEthernet0/1\n" +
		" switchport mode trunk\n" +
		"!\n" +
		"ip default-gateway 192.168.1.254\n" +
		"ip ssh version 2\n" +
		"!\n" +
		"line vty 0 4\n" +
		" transport input ssh\n" +
		" login local\n" +
		"!\n" +
		"end"
}

// interfaceBrief 接口简表样例
func interfaceBrief(family string) string {
	if family == FamilyHuaweiVRP {
		return "Interface                         IP Address/Mask      Physical   Protocol\n" +
			"Vlanif1                           192.168.1.1/24       up         up\n" +
			"GigabitEthernet0/0/1              unassigned           up         up\n" +
			"GigabitEthernet0/0/2              unassigned           down       down"
	}
	return "Interface              IP-Address      OK? Method Status                Protocol\n" +
		"Vlan1                  192.168.1.1     YES manual up                    up\n" +
		"FastEthernet0/1        unassigned      YES unset  up                    up\n" +
		"FastEthernet0/2        unassigned      YES unset  down                  down\n" +
		"GigabitEthernet0/1     unassigned      YES unset  up                    up"
}

// sshStatus SSH服务状态样例
func sshStatus(family string) string {
	if family == FamilyHuaweiVRP {
		return "SSH version                         : 2.0\r\n" +
			"SSH connection timeout              : 60 seconds\r\n" +
			"SSH server key generating interval  : 0 hours\r\n" +
			"Stelnet server                      : Enable\r\n"
	}
	return "SSH Enabled - version 2.0\r\n" +
		"Authentication methods:publickey,keyboard-interactive,password\r\n" +
		"Authentication timeout: 120 secs; Authentication retries: 3\r\n"
}
