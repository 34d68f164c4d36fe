package console

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// placeholderRe 模板占位符语法：{fieldName}，大小写敏感，不支持嵌套与转义
var placeholderRe = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

// Render 渲染模板命令序列：逐条替换每个 {key} 为 fields[key]
// 无对应字段的占位符保留原样，不替换为空串也不报错，
// 调用方应在渲染前完成字段校验。
func Render(commands []string, fields map[string]string) []string {
	rendered := make([]string, 0, len(commands))
	for _, cmd := range commands {
		rendered = append(rendered, placeholderRe.ReplaceAllStringFunc(cmd, func(m string) string {
			key := m[1 : len(m)-1]
			if v, ok := fields[key]; ok {
				return v
			}
			return m
		}))
	}
	return rendered
}

// NetworkConfig 模板渲染所需的网络配置字段集
type NetworkConfig struct {
	Hostname       string `json:"hostname"`
	Domain         string `json:"domain"`
	IPAddress      string `json:"ip_address"`
	SubnetMask     string `json:"subnet_mask"`
	Gateway        string `json:"gateway"`
	Username       string `json:"username"`
	Password       string `json:"password"`
	EnablePassword string `json:"enable_password"`
}

// Fields 返回占位符替换用的字段映射
func (c *NetworkConfig) Fields() map[string]string {
	return map[string]string{
		"hostname":        c.Hostname,
		"domain":          c.Domain,
		"ip_address":      c.IPAddress,
		"subnet_mask":     c.SubnetMask,
		"gateway":         c.Gateway,
		"username":        c.Username,
		"password":        c.Password,
		"enable_password": c.EnablePassword,
	}
}

// Validate 渲染前的字段校验：所有规则全部执行，收集全部违规项，
// 不在第一个错误处短路，调用方一次往返即可拿到完整错误列表。
func (c *NetworkConfig) Validate() []string {
	var errs []string

	if len(c.Hostname) < 3 {
		errs = append(errs, "hostname must be at least 3 characters")
	}
	if len(c.Username) < 3 {
		errs = append(errs, "username must be at least 3 characters")
	}
	if len(c.Password) < 8 {
		errs = append(errs, "password must be at least 8 characters")
	}
	if !isDottedQuad(c.IPAddress) {
		errs = append(errs, fmt.Sprintf("ip_address %q is not a valid dotted-quad IP address", c.IPAddress))
	}
	if !isDottedQuad(c.SubnetMask) {
		errs = append(errs, fmt.Sprintf("subnet_mask %q is not a valid dotted-quad IP mask", c.SubnetMask))
	}
	if !isDottedQuad(c.Gateway) {
		errs = append(errs, fmt.Sprintf("gateway %q is not a valid dotted-quad IP address", c.Gateway))
	}

	return errs
}

// isDottedQuad 判定点分四段形式：四段0-255的十进制数
func isDottedQuad(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return false
	}
	for _, p := range parts {
		if p == "" || len(p) > 3 {
			return false
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > 255 {
			return false
		}
		// 拒绝 "01" 这类前导零写法
		if p != strconv.Itoa(n) {
			return false
		}
	}
	return true
}
