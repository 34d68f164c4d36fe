package cisco_ios

import (
	"regexp"
	"strings"

	"github.com/switchconfigpro/switchconfigpro/addone/survey"
)

// Plugin 解析 cisco-ios / cisco-ios-xe 巡检回显
type Plugin struct {
	name string
}

func (p *Plugin) Name() string { return p.name }

func (p *Plugin) VersionCommand() string { return "show version" }

func (p *Plugin) InterfaceBriefCommand() string { return "show ip interface brief" }

func (p *Plugin) RunningConfigCommand() string { return "show running-config" }

var (
	// "Cisco IOS Software, C2960 Software (...), Version 15.0(2)SE11, ..."
	versionRe = regexp.MustCompile(`(?i)Version\s+([\w.()]+)`)
	modelRe   = regexp.MustCompile(`(?i)cisco\s+(WS-[\w-]+|C\d{4}[\w-]*|ISR\d+[\w/-]*)`)
	uptimeRe  = regexp.MustCompile(`(?i)uptime is\s+(.+)`)
	serialRe  = regexp.MustCompile(`(?i)System serial number\s*:\s*(\S+)`)
)

func (p *Plugin) ParseVersion(raw string) survey.VersionInfo {
	info := survey.VersionInfo{Vendor: "cisco"}
	if m := versionRe.FindStringSubmatch(raw); len(m) > 1 {
		info.Version = strings.TrimRight(m[1], ",")
	}
	if m := modelRe.FindStringSubmatch(raw); len(m) > 1 {
		info.Model = m[1]
	}
	if m := uptimeRe.FindStringSubmatch(raw); len(m) > 1 {
		info.Uptime = strings.TrimSpace(m[1])
	}
	if m := serialRe.FindStringSubmatch(raw); len(m) > 1 {
		info.Serial = m[1]
	}
	return info
}

func (p *Plugin) ParseInterfaceBrief(raw string) []survey.InterfaceRow {
	return survey.ParseColumnarInterfaces(raw)
}

func (p *Plugin) ParseRunningConfig(raw string) []survey.ConfigSection {
	return survey.SplitConfigSections(raw, "!")
}

func init() {
	// XE与经典IOS的巡检回显形状一致，共用一套解析
	survey.Register("cisco-ios", &Plugin{name: "cisco-ios"})
	survey.Register("cisco-ios-xe", &Plugin{name: "cisco-ios-xe"})
}
