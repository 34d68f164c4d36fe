package main

// 引入模板平台插件，触发各平台的 init() 完成注册
import (
	_ "github.com/switchconfigpro/switchconfigpro/addone/template/platforms/cisco_ios"
	_ "github.com/switchconfigpro/switchconfigpro/addone/template/platforms/cisco_iosxe"
	_ "github.com/switchconfigpro/switchconfigpro/addone/template/platforms/huawei_vrp"
)
