package service

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestAggregateStatus 聚合判定：零警告成功，占比达阈值失败，其余部分成功
func TestAggregateStatus(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		warnings  int
		threshold float64
		expected  string
	}{
		{"零警告为成功", 10, 0, 0.5, StatusSuccess},
		{"零步骤视为成功", 0, 0, 0.5, StatusSuccess},
		{"低于阈值为部分成功", 10, 4, 0.5, StatusPartialSuccess},
		{"单个警告为部分成功", 20, 1, 0.5, StatusPartialSuccess},
		{"达到阈值为失败", 10, 5, 0.5, StatusFailed},
		{"超过阈值为失败", 10, 6, 0.5, StatusFailed},
		{"全部警告为失败", 10, 10, 0.5, StatusFailed},
		{"更严的阈值", 10, 3, 0.3, StatusFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, aggregateStatus(tt.total, tt.warnings, tt.threshold))
		})
	}
}

// TestTransitionSummary 切换汇总：下发失败或验证未通过为failed，
// 跳过验证封顶为partial
func TestTransitionSummary(t *testing.T) {
	tests := []struct {
		name        string
		applyStatus string
		sshVerified bool
		skipVerify  bool
		expected    string
	}{
		{"下发成功且验证通过", StatusSuccess, true, false, "success"},
		{"下发成功但验证未通过", StatusSuccess, false, false, "failed"},
		{"下发部分成功且验证通过", StatusPartialSuccess, true, false, "partial"},
		{"下发失败", StatusFailed, false, false, "failed"},
		{"下发失败时跳过验证也失败", StatusFailed, false, true, "failed"},
		{"跳过验证封顶partial", StatusSuccess, false, true, "partial"},
		{"部分成功且跳过验证", StatusPartialSuccess, false, true, "partial"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, transitionSummary(tt.applyStatus, tt.sshVerified, tt.skipVerify))
		})
	}
}

// TestIsSlowCommand 慢操作标记大小写不敏感子串匹配
func TestIsSlowCommand(t *testing.T) {
	markers := []string{"crypto key generate", "rsa local-key-pair create"}

	assert.True(t, isSlowCommand("crypto key generate rsa modulus 2048", markers))
	assert.True(t, isSlowCommand("CRYPTO KEY GENERATE RSA", markers), "匹配应该大小写不敏感")
	assert.True(t, isSlowCommand("rsa local-key-pair create", markers))
	assert.False(t, isSlowCommand("ip ssh version 2", markers))
	assert.False(t, isSlowCommand("crypto key generate rsa", nil), "无标记时不是慢操作")
	assert.False(t, isSlowCommand("anything", []string{""}), "空标记不参与匹配")
}

// TestExcerpt 输出节选截断
func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short", excerpt("  short  ", 400))
	long := strings.Repeat("a", 500)
	got := excerpt(long, 400)
	assert.Equal(t, 403, len(got))
	assert.True(t, strings.HasSuffix(got, "..."))
}

// TestRenderApplyReport 报告包含概要字段与被标记步骤的输出节选
func TestRenderApplyReport(t *testing.T) {
	steps := []StepResult{
		{Seq: 1, Command: "hostname SW-01", Outcome: OutcomeOK, Duration: 120 * time.Millisecond},
		{Seq: 2, Command: "bad command", Outcome: OutcomeWarning, Excerpt: "% Invalid input detected", TimedOut: false},
	}
	report := renderApplyReport("run-1", "cisco-ios", "standard", "SW-01", StatusPartialSuccess, "", steps, time.Now())

	assert.Contains(t, report, "Configuration Provision Report")
	assert.Contains(t, report, "run-1")
	assert.Contains(t, report, "cisco-ios")
	assert.Contains(t, report, StatusPartialSuccess)
	assert.Contains(t, report, "[OK ]")
	assert.Contains(t, report, "[WARN]")
	assert.Contains(t, report, "% Invalid input detected", "被标记步骤应该带输出节选")
	assert.NotContains(t, report, "Enable:", "未降级时不应出现提权降级行")
}

// TestRenderApplyReportEnableDegraded 提权被拒的运行在报告中标注降级
func TestRenderApplyReportEnableDegraded(t *testing.T) {
	report := renderApplyReport("run-2", "cisco-ios", "standard", "SW-02", StatusPartialSuccess,
		"enable authentication rejected", nil, time.Now())

	assert.Contains(t, report, StatusPartialSuccess)
	assert.Contains(t, report, "Enable:         degraded (enable authentication rejected)")
}
