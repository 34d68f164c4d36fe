package huawei_vrp

import "github.com/switchconfigpro/switchconfigpro/addone/template"

// Plugin 为 huawei-vrp 设备的SSH化模板插件
type Plugin struct{}

func (p *Plugin) Name() string { return "huawei-vrp" }

func (p *Plugin) VersionCommand() string { return "display version" }

func (p *Plugin) EnterConfigCommand() string { return "system-view" }

func (p *Plugin) DisablePagingCommand() string { return "screen-length 0 temporary" }

func (p *Plugin) SSHStatusCommand() string { return "display ssh server status" }

// SaveCommand VRP的save会触发 [Y/N] 确认
func (p *Plugin) SaveCommand() string { return "save" }

func (p *Plugin) SlowMarkers() []string {
	return []string{"rsa local-key-pair create"}
}

func (p *Plugin) SecurityLevels() []string {
	return []string{template.LevelBasic, template.LevelStandard, template.LevelHardened}
}

func (p *Plugin) Commands(securityLevel string) ([]string, bool) {
	switch securityLevel {
	case template.LevelBasic:
		return []string{
			"sysname {hostname}",
			"interface Vlanif 1",
			"ip address {ip_address} {subnet_mask}",
			"quit",
			"ip route-static 0.0.0.0 0.0.0.0 {gateway}",
			"rsa local-key-pair create",
			"stelnet server enable",
			"aaa",
			"local-user {username} password cipher {password}",
			"local-user {username} privilege level 15",
			"local-user {username} service-type ssh",
			"quit",
			"ssh user {username} authentication-type password",
			"user-interface vty 0 4",
			"authentication-mode aaa",
			"protocol inbound ssh",
			"quit",
		}, true
	case template.LevelStandard:
		return []string{
			"sysname {hostname}",
			"interface Vlanif 1",
			"ip address {ip_address} {subnet_mask}",
			"quit",
			"ip route-static 0.0.0.0 0.0.0.0 {gateway}",
			"rsa local-key-pair create",
			"stelnet server enable",
			"ssh server timeout 60",
			"ssh server authentication-retries 3",
			"aaa",
			"local-user {username} password cipher {password}",
			"local-user {username} privilege level 15",
			"local-user {username} service-type ssh",
			"quit",
			"ssh user {username} authentication-type password",
			"user-interface vty 0 4",
			"authentication-mode aaa",
			"protocol inbound ssh",
			"idle-timeout 10 0",
			"quit",
		}, true
	case template.LevelHardened:
		return []string{
			"sysname {hostname}",
			"interface Vlanif 1",
			"ip address {ip_address} {subnet_mask}",
			"quit",
			"ip route-static 0.0.0.0 0.0.0.0 {gateway}",
			"rsa local-key-pair create",
			"stelnet server enable",
			"ssh server timeout 60",
			"ssh server authentication-retries 3",
			"ssh server compatible-ssh1x disable",
			"undo telnet server enable",
			"aaa",
			"local-user {username} password cipher {password}",
			"local-user {username} privilege level 15",
			"local-user {username} service-type ssh",
			"quit",
			"ssh user {username} authentication-type password",
			"user-interface vty 0 4",
			"authentication-mode aaa",
			"protocol inbound ssh",
			"idle-timeout 5 0",
			"quit",
		}, true
	}
	return nil, false
}

func init() {
	template.Register("huawei-vrp", &Plugin{})
}
