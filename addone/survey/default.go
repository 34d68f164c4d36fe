package survey

import (
	"regexp"
	"strings"
)

// Plugin 巡检解析插件接口：把show/display回显解析为结构化记录
type Plugin interface {
	// Name 设备类型标签
	Name() string
	// VersionCommand 版本巡检命令
	VersionCommand() string
	// InterfaceBriefCommand 接口简表巡检命令
	InterfaceBriefCommand() string
	// RunningConfigCommand 运行配置巡检命令
	RunningConfigCommand() string
	// ParseVersion 解析版本横幅
	ParseVersion(raw string) VersionInfo
	// ParseInterfaceBrief 解析接口简表
	ParseInterfaceBrief(raw string) []InterfaceRow
	// ParseRunningConfig 按小节切分运行配置
	ParseRunningConfig(raw string) []ConfigSection
}

// DefaultPlugin 通用兜底解析：正则宽松匹配，解析不出则留空
type DefaultPlugin struct{}

func (p *DefaultPlugin) Name() string { return "default" }

func (p *DefaultPlugin) VersionCommand() string { return "show version" }

func (p *DefaultPlugin) InterfaceBriefCommand() string { return "show ip interface brief" }

func (p *DefaultPlugin) RunningConfigCommand() string { return "show running-config" }

var (
	genericVersionRe = regexp.MustCompile(`(?i)version\s+([\w.\-()]+)`)
	genericUptimeRe  = regexp.MustCompile(`(?i)uptime is\s+(.+)`)
)

func (p *DefaultPlugin) ParseVersion(raw string) VersionInfo {
	info := VersionInfo{}
	if m := genericVersionRe.FindStringSubmatch(raw); len(m) > 1 {
		info.Version = strings.TrimRight(m[1], ",")
	}
	if m := genericUptimeRe.FindStringSubmatch(raw); len(m) > 1 {
		info.Uptime = strings.TrimSpace(m[1])
	}
	return info
}

func (p *DefaultPlugin) ParseInterfaceBrief(raw string) []InterfaceRow {
	return ParseColumnarInterfaces(raw)
}

func (p *DefaultPlugin) ParseRunningConfig(raw string) []ConfigSection {
	return SplitConfigSections(raw, "!")
}

// ParseColumnarInterfaces 解析列式接口简表：首列接口名、次列IP，末两列状态
// Cisco与通用平台的 "show ip interface brief" 都符合该形状。
func ParseColumnarInterfaces(raw string) []InterfaceRow {
	lines := strings.Split(strings.ReplaceAll(raw, "\r", "\n"), "\n")
	rows := make([]InterfaceRow, 0)
	for _, ln := range lines {
		ln = strings.TrimSpace(ln)
		if ln == "" {
			continue
		}
		parts := strings.Fields(ln)
		if len(parts) < 4 {
			continue
		}
		// 跳过表头行
		if strings.EqualFold(parts[0], "interface") {
			continue
		}
		row := InterfaceRow{
			Name:      parts[0],
			IPAddress: parts[1],
			Status:    parts[len(parts)-2],
			Protocol:  parts[len(parts)-1],
		}
		rows = append(rows, row)
	}
	return rows
}

// SplitConfigSections 以分隔行切分运行配置为小节，小节首行作为标题
func SplitConfigSections(raw string, separator string) []ConfigSection {
	lines := strings.Split(strings.ReplaceAll(raw, "\r", "\n"), "\n")
	sections := make([]ConfigSection, 0)
	var current *ConfigSection
	for _, ln := range lines {
		trimmed := strings.TrimRight(ln, " \t")
		if strings.TrimSpace(trimmed) == separator {
			if current != nil && len(current.Lines) > 0 {
				sections = append(sections, *current)
			}
			current = nil
			continue
		}
		if strings.TrimSpace(trimmed) == "" {
			continue
		}
		if current == nil {
			current = &ConfigSection{Heading: strings.TrimSpace(trimmed)}
		}
		current.Lines = append(current.Lines, trimmed)
	}
	if current != nil && len(current.Lines) > 0 {
		sections = append(sections, *current)
	}
	return sections
}
