package template

// 安全级别封闭词汇表
const (
	LevelBasic    = "basic"
	LevelStandard = "standard"
	LevelHardened = "hardened"
)

// Plugin 模板插件接口：按设备类型提供命令模板与交互要素
type Plugin interface {
	// Name 设备类型标签（如 cisco-ios、huawei-vrp）
	Name() string
	// VersionCommand 版本横幅命令，供设备分类使用
	VersionCommand() string
	// EnterConfigCommand 进入配置模式命令
	EnterConfigCommand() string
	// DisablePagingCommand 关闭分页命令，空串表示无需关闭
	DisablePagingCommand() string
	// SSHStatusCommand 只读的SSH服务状态探测命令
	SSHStatusCommand() string
	// SaveCommand 保存配置命令（在配置模式之外执行），可能触发确认提示
	SaveCommand() string
	// SlowMarkers 慢操作标记：命令包含任一标记即应用扩展超时
	SlowMarkers() []string
	// SecurityLevels 该插件支持的安全级别
	SecurityLevels() []string
	// Commands 指定安全级别的有序命令模板，占位符为 {field} 形式
	Commands(securityLevel string) ([]string, bool)
}

// DefaultPlugin 通用默认插件，按Cisco风格语法兜底
type DefaultPlugin struct{}

func (p *DefaultPlugin) Name() string { return "default" }

func (p *DefaultPlugin) VersionCommand() string { return "show version" }

func (p *DefaultPlugin) EnterConfigCommand() string { return "configure terminal" }

func (p *DefaultPlugin) DisablePagingCommand() string { return "terminal length 0" }

func (p *DefaultPlugin) SSHStatusCommand() string { return "show ip ssh" }

func (p *DefaultPlugin) SaveCommand() string { return "write memory" }

func (p *DefaultPlugin) SlowMarkers() []string {
	return []string{"crypto key generate"}
}

func (p *DefaultPlugin) SecurityLevels() []string {
	return []string{LevelBasic}
}

func (p *DefaultPlugin) Commands(securityLevel string) ([]string, bool) {
	if securityLevel != LevelBasic {
		return nil, false
	}
	return []string{
		"hostname {hostname}",
		"ip domain-name {domain}",
		"username {username} secret {password}",
		"enable secret {enable_password}",
		"interface vlan 1",
		"ip address {ip_address} {subnet_mask}",
		"no shutdown",
		"exit",
		"ip default-gateway {gateway}",
		"crypto key generate rsa modulus 1024",
		"ip ssh version 2",
		"line vty 0 4",
		"transport input ssh",
		"login local",
		"exit",
	}, true
}
