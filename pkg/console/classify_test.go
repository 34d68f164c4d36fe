package console

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectDeviceType(t *testing.T) {
	cases := []struct {
		name    string
		version string
		want    string
	}{
		{
			"cisco ios xe优先于cisco ios",
			"Cisco IOS XE Software, Version 17.03.04a\nCisco IOS Software [Amsterdam]",
			DeviceCiscoIOSXE,
		},
		{
			"经典cisco ios",
			"Cisco IOS Software, C2960 Software (C2960-LANBASEK9-M), Version 15.0(2)SE11",
			DeviceCiscoIOS,
		},
		{
			"huawei vrp",
			"Huawei Versatile Routing Platform Software\nVRP (R) software, Version 8.180",
			DeviceHuaweiVRP,
		},
		{
			"仅vrp关键字",
			"VRP software version 5.170",
			DeviceHuaweiVRP,
		},
		{
			"无法识别回落generic",
			"SomeVendor SwitchOS v1.2.3",
			DeviceGeneric,
		},
		{
			"空文本回落generic",
			"",
			DeviceGeneric,
		},
		{
			"大小写不敏感",
			"cisco ios xe software, version 16.9",
			DeviceCiscoIOSXE,
		},
		{
			"ios-xe连字符写法",
			"ROM: IOS-XE ROMMON",
			DeviceCiscoIOSXE,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, DetectDeviceType(c.version), "设备类型判定错误")
		})
	}
}

func TestDetectDeviceTypeXEBeforePlainIOS(t *testing.T) {
	// 同一横幅同时含有XE与普通IOS字样时必须判为XE
	banner := "Cisco IOS XE Software Version 17.6\nCisco IOS Software"
	assert.Equal(t, DeviceCiscoIOSXE, DetectDeviceType(banner),
		"厂商+变体组合必须先于裸厂商关键字")
	assert.NotEqual(t, DeviceCiscoIOS, DetectDeviceType(banner))
}

func TestKnownDeviceTypes(t *testing.T) {
	types := KnownDeviceTypes()
	assert.Contains(t, types, DeviceCiscoIOSXE)
	assert.Contains(t, types, DeviceCiscoIOS)
	assert.Contains(t, types, DeviceHuaweiVRP)
	assert.Contains(t, types, DeviceGeneric)
}
