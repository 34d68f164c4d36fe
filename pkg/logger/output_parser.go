package logger

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// OutputLines 表示设备响应的头部和尾部行
type OutputLines struct {
	HeadLines []string `json:"head_lines"`
	TailLines []string `json:"tail_lines"`
}

// ParseOutputLines 解析设备响应，提取头部和尾部行
// maxLines: head和tail各自的最大行数
func ParseOutputLines(output string, maxLines int) OutputLines {
	if maxLines <= 0 {
		maxLines = 5 // 默认最多5行
	}

	// 统一换行符处理
	output = strings.ReplaceAll(output, "\r\n", "\n")
	output = strings.ReplaceAll(output, "\r", "\n")

	lines := strings.Split(output, "\n")
	total := len(lines)
	if total == 1 && lines[0] == "" {
		return OutputLines{}
	}

	headCount := maxLines
	if headCount > total {
		headCount = total
	}
	head := make([]string, headCount)
	copy(head, lines[:headCount])

	// 总行数不超过maxLines时head和tail相同
	if total <= maxLines {
		tail := make([]string, len(head))
		copy(tail, head)
		return OutputLines{HeadLines: head, TailLines: tail}
	}

	tail := make([]string, maxLines)
	copy(tail, lines[total-maxLines:])
	return OutputLines{HeadLines: head, TailLines: tail}
}

// FormatOutputLines 格式化输出行为字符串，用于日志记录
func FormatOutputLines(lines OutputLines) string {
	var parts []string

	if len(lines.HeadLines) > 0 {
		parts = append(parts, "head-lines: ["+strings.Join(lines.HeadLines, " ⟩ ")+"]")
	}

	if len(lines.TailLines) > 0 {
		// head和tail完全相同时只显示一次
		if !areSlicesEqual(lines.HeadLines, lines.TailLines) {
			parts = append(parts, "tail-lines: ["+strings.Join(lines.TailLines, " ⟩ ")+"]")
		}
	}

	return strings.Join(parts, ", ")
}

// areSlicesEqual 比较两个字符串切片是否相等
func areSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// DebugExchange 在debug级别记录一次命令交互的head/tail-lines
func DebugExchange(command string, output string, maxLines int) {
	if GetLogger().Level < logrus.DebugLevel {
		return
	}

	lines := ParseOutputLines(output, maxLines)
	if len(lines.HeadLines) == 0 && len(lines.TailLines) == 0 {
		return
	}

	Debugf("Exchange [%s]: %s", command, FormatOutputLines(lines))
}
