package main

// 引入巡检平台插件，触发各平台的 init() 完成注册
import (
	_ "github.com/switchconfigpro/switchconfigpro/addone/survey/platforms/cisco_ios"
	_ "github.com/switchconfigpro/switchconfigpro/addone/survey/platforms/huawei_vrp"
)
