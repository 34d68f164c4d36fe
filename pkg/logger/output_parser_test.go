package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestParseOutputLines 头尾行提取与换行符归一化
func TestParseOutputLines(t *testing.T) {
	out := ParseOutputLines("a\r\nb\rc\nd\ne\nf\ng", 3)
	assert.Equal(t, []string{"a", "b", "c"}, out.HeadLines)
	assert.Equal(t, []string{"e", "f", "g"}, out.TailLines)
}

// TestParseOutputLinesShort 总行数不超过maxLines时head与tail相同
func TestParseOutputLinesShort(t *testing.T) {
	out := ParseOutputLines("one\ntwo", 5)
	assert.Equal(t, []string{"one", "two"}, out.HeadLines)
	assert.Equal(t, out.HeadLines, out.TailLines)
}

// TestParseOutputLinesEmpty 空响应返回零值
func TestParseOutputLinesEmpty(t *testing.T) {
	out := ParseOutputLines("", 5)
	assert.Empty(t, out.HeadLines)
	assert.Empty(t, out.TailLines)
}

// TestFormatOutputLines head与tail相同时只显示一次
func TestFormatOutputLines(t *testing.T) {
	same := ParseOutputLines("one\ntwo", 5)
	assert.NotContains(t, FormatOutputLines(same), "tail-lines")

	diff := ParseOutputLines("a\nb\nc\nd\ne\nf", 2)
	s := FormatOutputLines(diff)
	assert.Contains(t, s, "head-lines")
	assert.Contains(t, s, "tail-lines")
}
