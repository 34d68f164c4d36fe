package console

import "strings"

// 设备类型封闭词汇表
const (
	DeviceCiscoIOSXE = "cisco-ios-xe"
	DeviceCiscoIOS   = "cisco-ios"
	DeviceHuaweiVRP  = "huawei-vrp"
	DeviceGeneric    = "generic"
)

// classifyRule 按关键字匹配设备类型，任一关键字命中即成立
type classifyRule struct {
	deviceType string
	keywords   []string
}

// 规则顺序即优先级：厂商+变体组合先于裸厂商关键字，
// "IOS XE" 必须在 "cisco" 之前判定，否则XE设备会被归为普通IOS。
var classifyRules = []classifyRule{
	{DeviceCiscoIOSXE, []string{"ios xe", "ios-xe", "iosxe"}},
	{DeviceCiscoIOS, []string{"cisco ios", "cisco", " ios "}},
	{DeviceHuaweiVRP, []string{"huawei", "vrp"}},
}

// DetectDeviceType 根据版本横幅文本判定设备类型，大小写不敏感
// 纯函数，不与设备交互；无法判定时返回 generic。
func DetectDeviceType(versionText string) string {
	lower := strings.ToLower(versionText)
	for _, rule := range classifyRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.deviceType
			}
		}
	}
	return DeviceGeneric
}

// KnownDeviceTypes 返回分类器可产出的全部设备类型
func KnownDeviceTypes() []string {
	return []string{DeviceCiscoIOSXE, DeviceCiscoIOS, DeviceHuaweiVRP, DeviceGeneric}
}
