package main

import (
	"errors"
	"sync"

	"github.com/switchconfigpro/switchconfigpro/internal/config"
	"github.com/switchconfigpro/switchconfigpro/pkg/logger"
	"github.com/switchconfigpro/switchconfigpro/simulate"
)

// simulatorManager 模拟器生命周期管理，实现管理接口的启停控制
type simulatorManager struct {
	cfg *config.Config

	mu  sync.Mutex
	srv *simulate.Server
}

// Start 按当前配置启动模拟器，已在运行时报错
func (m *simulatorManager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.srv != nil {
		return errors.New("simulator already running")
	}

	profile, err := simulate.LoadProfile(m.cfg.Simulate.ConfigPath)
	if err != nil {
		logger.Warn("Simulate: failed to load profile, using defaults", "path", m.cfg.Simulate.ConfigPath, "error", err)
		profile = simulate.DeviceProfile{}
	}
	srv, err := simulate.NewServer(profile)
	if err != nil {
		return err
	}
	if err := srv.Start(m.cfg.Simulate.Listen); err != nil {
		return err
	}
	m.srv = srv
	logger.Info("Simulate: started", "addr", srv.Addr(), "family", profile.Family)
	return nil
}

// Stop 停止模拟器，未运行时为空操作
func (m *simulatorManager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.srv == nil {
		return
	}
	m.srv.Stop()
	m.srv = nil
}

// Status 返回运行状态与监听地址
func (m *simulatorManager) Status() (bool, string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.srv == nil {
		return false, ""
	}
	return true, m.srv.Addr()
}
