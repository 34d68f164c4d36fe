package main

import (
	"context"
	"fmt"
	"time"

	"github.com/switchconfigpro/switchconfigpro/pkg/console"
	"github.com/switchconfigpro/switchconfigpro/simulate"
)

// 模拟器冒烟：起一台模拟交换机，走完 连接 → 分类 → 提权 → 配置模式 的链路
func main() {
	sim, err := simulate.NewServer(simulate.DeviceProfile{
		Family:       simulate.FamilyCiscoIOS,
		Hostname:     "SW-DEMO",
		Password:     "switch",
		EnableSecret: "enable123",
		PageSize:     12,
	})
	if err != nil {
		panic(err)
	}
	if err := sim.Start("127.0.0.1:0"); err != nil {
		panic(err)
	}
	defer sim.Stop()
	fmt.Println("simulator listening on", sim.Addr())

	transport := console.NewSSHTransport(console.SSHParams{
		Host:           "127.0.0.1",
		Port:           sim.Port(),
		Username:       "admin",
		Password:       "switch",
		ConnectTimeout: 5 * time.Second,
	})
	if err := transport.Open(); err != nil {
		panic(err)
	}

	session := console.NewSession("simtest", transport, console.SessionOptions{
		ReadSlice:      300 * time.Millisecond,
		DefaultTimeout: 5 * time.Second,
	})
	defer session.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if _, err := session.RefreshPrompt(ctx, 5*time.Second); err != nil {
		panic(err)
	}
	fmt.Println("mode after connect:", session.Mode())

	// 1) 版本识别
	ex, err := session.SendCommand(ctx, "show version", 10*time.Second)
	if err != nil {
		panic(err)
	}
	fmt.Println("detected device type:", console.DetectDeviceType(ex.Output))

	// 2) 提权
	if _, err := session.Enable(ctx, "enable", "enable123", 5*time.Second); err != nil {
		fmt.Println("enable error:", err)
	}
	fmt.Println("mode after enable:", session.Mode())

	// 3) 配置模式与主机名变更
	if _, err := session.EnterConfig(ctx, "configure terminal", 5*time.Second); err != nil {
		fmt.Println("config error:", err)
	}
	fmt.Println("mode after config:", session.Mode())

	if _, err := session.SendCommand(ctx, "hostname SW-RENAMED", 5*time.Second); err != nil {
		fmt.Println("hostname error:", err)
	}
	fmt.Println("prompt after rename:", session.LastPrompt())
}
