package console

import (
	"regexp"
	"strings"
)

// PromptKind 提示符类别
type PromptKind int

const (
	PromptNone PromptKind = iota
	PromptUser
	PromptEnable
	PromptConfig
	PromptPassword
	PromptMore
	PromptConfirm
)

// String 返回提示符类别名称
func (k PromptKind) String() string {
	switch k {
	case PromptUser:
		return "user"
	case PromptEnable:
		return "enable"
	case PromptConfig:
		return "config"
	case PromptPassword:
		return "password"
	case PromptMore:
		return "more"
	case PromptConfirm:
		return "confirm"
	default:
		return "none"
	}
}

// 提示符模式表：全部锚定到缓冲区最后一个非空行的行尾。
// 顺序即优先级：确认/翻页先于密码，密码先于模式提示符；
// (config)# 同样以 # 结尾，所以 config 必须先于 enable 判定。
var promptPatterns = []struct {
	kind PromptKind
	re   *regexp.Regexp
}{
	{PromptConfirm, regexp.MustCompile(`(?i)\[(?:yes/no|y/n)\][?:\s]*$|\(y(?:es)?/no?\)[?:\s]*$|\[confirm\]\s*$`)},
	{PromptMore, regexp.MustCompile(`(?i)-+\s?\(?more[\s%0-9]*\)?\s?-+\s*$`)},
	{PromptPassword, regexp.MustCompile(`(?i)password[^:]*:\s*$`)},
	{PromptConfig, regexp.MustCompile(`^[^\s(]*\(config[^)]*\)#\s*$|^\[[^\[\]]*\]\s*$`)},
	{PromptEnable, regexp.MustCompile(`^[^\s>]*#\s*$`)},
	{PromptUser, regexp.MustCompile(`^<?[^\s<>]*>\s*$`)},
}

// pagingArtifactRe 用于从累积输出中剔除翻页标记本身
var pagingArtifactRe = regexp.MustCompile(`(?i)[ \t]*-+\s?\(?more[\s%0-9]*\)?\s?-+[ \t]*`)

// MatchPrompt 判定累积缓冲是否以某类提示符收尾
// 只检查最后一个非空行；空缓冲永不匹配。
func MatchPrompt(buffer string) PromptKind {
	line := LastNonBlankLine(buffer)
	if line == "" {
		return PromptNone
	}
	for _, p := range promptPatterns {
		if p.re.MatchString(line) {
			return p.kind
		}
	}
	return PromptNone
}

// LastNonBlankLine 返回缓冲区最后一个非空行（去掉行尾空白）
func LastNonBlankLine(buffer string) string {
	if buffer == "" {
		return ""
	}
	lines := strings.Split(buffer, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimRight(lines[i], " \t\r")
		if line != "" {
			return line
		}
	}
	return ""
}

// StripPagingMarkers 从输出中剔除翻页标记文本，翻页行不计入响应内容
func StripPagingMarkers(s string) string {
	return pagingArtifactRe.ReplaceAllString(s, "")
}

// modeFromPrompt 将提示符类别映射为会话模式
// 非模式类提示符（密码/翻页/确认/无）一律视为 unknown。
func modeFromPrompt(kind PromptKind) Mode {
	switch kind {
	case PromptUser:
		return ModeUser
	case PromptEnable:
		return ModeEnable
	case PromptConfig:
		return ModeConfig
	default:
		return ModeUnknown
	}
}
