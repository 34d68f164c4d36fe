package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/switchconfigpro/switchconfigpro/api/router"
	"github.com/switchconfigpro/switchconfigpro/internal/config"
	"github.com/switchconfigpro/switchconfigpro/internal/database"
	"github.com/switchconfigpro/switchconfigpro/internal/service"
	"github.com/switchconfigpro/switchconfigpro/pkg/cache"
	"github.com/switchconfigpro/switchconfigpro/pkg/logger"
)

func main() {
	// 加载配置
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	if err := logger.Init(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		FilePath:   cfg.Log.FilePath,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	}); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	logger.Info("Starting Switch Config Pro Server", "version", "1.0.0")

	// 初始化数据库
	if err := database.InitSQLite(cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", "error", err)
	}
	defer database.Close()

	// 初始化设备事实缓存（host为空表示禁用，启动不致命）
	if err := cache.InitRedis(cfg.Redis); err != nil {
		logger.Warn("Failed to initialize redis cache, running without cache", "error", err)
	}
	defer cache.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 存储写入器
	storage := service.NewStorageWriter(cfg)

	// 装配服务
	sessionService := service.NewSessionService(cfg)
	verifyService := service.NewVerifyService(cfg)
	execService := service.NewExecService(cfg)
	provisionService := service.NewProvisionService(cfg, sessionService, verifyService, storage)
	surveyService := service.NewSurveyService(cfg, sessionService)
	backupService := service.NewBackupService(cfg, execService, storage)
	schedulerService := service.NewSchedulerService(cfg, backupService)
	transferService := service.NewTransferService(cfg)

	// 空闲会话回收
	sessionService.StartCleanup(ctx)
	defer sessionService.CloseAll()

	// 周期备份调度（按配置开关）
	if err := schedulerService.Start(ctx); err != nil {
		logger.Fatal("Failed to start backup scheduler", "error", err)
	}
	defer schedulerService.Stop()

	// 设备模拟器（可选，管理接口可随时启停）
	simulator := &simulatorManager{cfg: cfg}
	if cfg.Simulate.Enabled {
		if err := simulator.Start(); err != nil {
			logger.Warn("Simulate: failed to start", "listen", cfg.Simulate.Listen, "error", err)
		}
	}
	defer simulator.Stop()

	// 设置路由
	r := router.SetupRouter(router.Services{
		Session:   sessionService,
		Provision: provisionService,
		Exec:      execService,
		Survey:    surveyService,
		Backup:    backupService,
		Scheduler: schedulerService,
		Transfer:  transferService,
		Verify:    verifyService,
		Simulator: simulator,
	})

	// 创建HTTP服务器
	server := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        r,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20, // 1MB
	}

	// 启动服务器
	go func() {
		logger.Info("Server starting", "port", cfg.Server.Port, "mode", cfg.Server.Mode)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// 配置文件监听与热更新
	go func() {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			logger.Warn("Config watch init failed", "error", err)
			return
		}
		defer watcher.Close()
		path := "configs/config.yaml"
		if err := watcher.Add(path); err != nil {
			logger.Warn("Config watch add failed", "error", err)
			return
		}
		var debounce *time.Timer
		debounceInterval := 300 * time.Millisecond
		trigger := func() {
			newCfg, err := config.Load(path)
			if err != nil {
				logger.Warn("Config reload failed", "error", err)
				return
			}
			// 原地覆盖，保持指针不变
			*cfg = *newCfg
			// 刷新日志配置
			_ = logger.Init(logger.Config{
				Level:      cfg.Log.Level,
				Format:     cfg.Log.Format,
				Output:     cfg.Log.Output,
				FilePath:   cfg.Log.FilePath,
				MaxSize:    cfg.Log.MaxSize,
				MaxBackups: cfg.Log.MaxBackups,
				MaxAge:     cfg.Log.MaxAge,
				Compress:   cfg.Log.Compress,
			})
			logger.Info("Config reloaded")
			// 模拟开关变化时动态启停
			running, _ := simulator.Status()
			if cfg.Simulate.Enabled && !running {
				if err := simulator.Start(); err != nil {
					logger.Warn("Simulate: failed to start after reload", "error", err)
				}
			} else if !cfg.Simulate.Enabled && running {
				simulator.Stop()
				logger.Info("Simulate: stopped by config reload")
			}
		}
		for {
			select {
			case ev := <-watcher.Events:
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					if debounce != nil {
						debounce.Stop()
					}
					debounce = time.AfterFunc(debounceInterval, trigger)
				}
			case err := <-watcher.Errors:
				logger.Warn("Config watch error", "error", err)
			}
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Server shutting down...")

	// 优雅关闭服务器
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	} else {
		logger.Info("Server shutdown complete")
	}
}
