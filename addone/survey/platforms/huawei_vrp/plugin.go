package huawei_vrp

import (
	"regexp"
	"strings"

	"github.com/switchconfigpro/switchconfigpro/addone/survey"
)

// Plugin 解析 huawei-vrp 巡检回显
type Plugin struct{}

func (p *Plugin) Name() string { return "huawei-vrp" }

func (p *Plugin) VersionCommand() string { return "display version" }

func (p *Plugin) InterfaceBriefCommand() string { return "display ip interface brief" }

func (p *Plugin) RunningConfigCommand() string { return "display current-configuration" }

var (
	// "VRP (R) software, Version 8.180 (CE6850 V200R005C10SPC800)"
	versionRe = regexp.MustCompile(`(?i)Version\s+([\w.]+)\s*(?:\(([\w\s]+?)\s+V?[\w]+\))?`)
	uptimeRe  = regexp.MustCompile(`(?i)uptime is\s+(.+)`)
	modelRe   = regexp.MustCompile(`(?i)(?:HUAWEI\s+)?(CE\d+[\w-]*|S\d{4}[\w-]*)\s+(?:Routing Switch\s+)?uptime`)
)

func (p *Plugin) ParseVersion(raw string) survey.VersionInfo {
	info := survey.VersionInfo{Vendor: "huawei"}
	if m := versionRe.FindStringSubmatch(raw); len(m) > 1 {
		info.Version = m[1]
		if len(m) > 2 && m[2] != "" {
			info.Model = strings.TrimSpace(m[2])
		}
	}
	if info.Model == "" {
		if m := modelRe.FindStringSubmatch(raw); len(m) > 1 {
			info.Model = m[1]
		}
	}
	if m := uptimeRe.FindStringSubmatch(raw); len(m) > 1 {
		info.Uptime = strings.TrimSpace(m[1])
	}
	return info
}

// ParseInterfaceBrief VRP简表：Interface / IP Address/Mask / Physical / Protocol
func (p *Plugin) ParseInterfaceBrief(raw string) []survey.InterfaceRow {
	lines := strings.Split(strings.ReplaceAll(raw, "\r", "\n"), "\n")
	rows := make([]survey.InterfaceRow, 0)
	for _, ln := range lines {
		ln = strings.TrimSpace(ln)
		if ln == "" {
			continue
		}
		parts := strings.Fields(ln)
		if len(parts) < 4 {
			continue
		}
		if strings.EqualFold(parts[0], "interface") || strings.HasPrefix(ln, "*") {
			continue
		}
		rows = append(rows, survey.InterfaceRow{
			Name:      parts[0],
			IPAddress: strings.SplitN(parts[1], "/", 2)[0],
			Status:    parts[2],
			Protocol:  parts[3],
		})
	}
	return rows
}

func (p *Plugin) ParseRunningConfig(raw string) []survey.ConfigSection {
	return survey.SplitConfigSections(raw, "#")
}

func init() {
	survey.Register("huawei-vrp", &Plugin{})
}
