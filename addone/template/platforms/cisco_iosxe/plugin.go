package cisco_iosxe

import "github.com/switchconfigpro/switchconfigpro/addone/template"

// Plugin 为 cisco-ios-xe 设备的SSH化模板插件
// 语法与经典IOS一致，差异在默认密钥长度与可用的加固项。
type Plugin struct{}

func (p *Plugin) Name() string { return "cisco-ios-xe" }

func (p *Plugin) VersionCommand() string { return "show version" }

func (p *Plugin) EnterConfigCommand() string { return "configure terminal" }

func (p *Plugin) DisablePagingCommand() string { return "terminal length 0" }

func (p *Plugin) SSHStatusCommand() string { return "show ip ssh" }

func (p *Plugin) SaveCommand() string { return "write memory" }

func (p *Plugin) SlowMarkers() []string {
	return []string{"crypto key generate"}
}

func (p *Plugin) SecurityLevels() []string {
	return []string{template.LevelBasic, template.LevelStandard, template.LevelHardened}
}

func (p *Plugin) Commands(securityLevel string) ([]string, bool) {
	switch securityLevel {
	case template.LevelBasic:
		return []string{
			"hostname {hostname}",
			"ip domain name {domain}",
			"username {username} secret {password}",
			"enable secret {enable_password}",
			"interface vlan 1",
			"ip address {ip_address} {subnet_mask}",
			"no shutdown",
			"exit",
			"ip default-gateway {gateway}",
			"crypto key generate rsa modulus 2048",
			"ip ssh version 2",
			"line vty 0 4",
			"transport input ssh",
			"login local",
			"exit",
		}, true
	case template.LevelStandard:
		return []string{
			"hostname {hostname}",
			"ip domain name {domain}",
			"service password-encryption",
			"username {username} privilege 15 secret {password}",
			"enable secret {enable_password}",
			"interface vlan 1",
			"ip address {ip_address} {subnet_mask}",
			"no shutdown",
			"exit",
			"ip default-gateway {gateway}",
			"crypto key generate rsa modulus 2048",
			"ip ssh version 2",
			"ip ssh time-out 60",
			"ip ssh authentication-retries 3",
			"line vty 0 4",
			"transport input ssh",
			"login local",
			"exec-timeout 10 0",
			"exit",
		}, true
	case template.LevelHardened:
		return []string{
			"hostname {hostname}",
			"ip domain name {domain}",
			"service password-encryption",
			"username {username} privilege 15 secret {password}",
			"enable secret {enable_password}",
			"interface vlan 1",
			"ip address {ip_address} {subnet_mask}",
			"no shutdown",
			"exit",
			"ip default-gateway {gateway}",
			"crypto key generate rsa modulus 4096",
			"ip ssh version 2",
			"ip ssh time-out 60",
			"ip ssh authentication-retries 3",
			"ip ssh server algorithm encryption aes256-ctr aes192-ctr aes128-ctr",
			"login block-for 120 attempts 3 within 60",
			"no ip http server",
			"no ip http secure-server",
			"line vty 0 4",
			"transport input ssh",
			"login local",
			"exec-timeout 5 0",
			"exit",
		}, true
	}
	return nil, false
}

func init() {
	template.Register("cisco-ios-xe", &Plugin{})
}
