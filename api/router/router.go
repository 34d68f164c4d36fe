package router

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/switchconfigpro/switchconfigpro/api/handler"
	"github.com/switchconfigpro/switchconfigpro/internal/service"
	"github.com/switchconfigpro/switchconfigpro/pkg/logger"
)

// Services 路由装配所需的服务集合
type Services struct {
	Session   *service.SessionService
	Provision *service.ProvisionService
	Exec      *service.ExecService
	Survey    *service.SurveyService
	Backup    *service.BackupService
	Scheduler *service.SchedulerService
	Transfer  *service.TransferService
	Verify    *service.VerifyService
	// Simulator 可选的模拟器控制，未配置时相关接口返回503
	Simulator handler.SimulatorControl
}

// SetupRouter 设置路由
func SetupRouter(services Services) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(CORSMiddleware())
	r.Use(RequestIDMiddleware())
	r.Use(LoggingMiddleware())

	sessionHandler := handler.NewSessionHandler(services.Session)
	templateHandler := handler.NewTemplateHandler()
	provisionHandler := handler.NewProvisionHandler(services.Provision)
	execHandler := handler.NewExecHandler(services.Exec)
	surveyHandler := handler.NewSurveyHandler(services.Survey)
	backupHandler := handler.NewBackupHandler(services.Backup, services.Scheduler)
	transferHandler := handler.NewTransferHandler(services.Transfer)
	verifyHandler := handler.NewVerifyHandler(services.Verify)
	deviceHandler := handler.NewDeviceHandler(services.Verify)
	adminHandler := handler.NewAdminHandler(services.Session, services.Simulator)

	// 根路径
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":    "Switch Config Pro",
			"version": "1.0.0",
			"status":  "running",
		})
	})

	// API v1 路由组
	v1 := r.Group("/api/v1")
	{
		// 健康检查
		v1.GET("/health", adminHandler.Health)

		// 会话管理路由
		sessions := v1.Group("/sessions")
		{
			sessions.POST("/serial", sessionHandler.ConnectSerial)
			sessions.POST("/ssh", sessionHandler.ConnectSSH)
			sessions.GET("", sessionHandler.List)
			sessions.GET("/stats", sessionHandler.Stats)
			sessions.GET("/:id", sessionHandler.Get)
			sessions.DELETE("/:id", sessionHandler.Disconnect)
			sessions.POST("/:id/execute", sessionHandler.Execute)
			sessions.POST("/:id/enable", sessionHandler.Enable)
			sessions.POST("/:id/config", sessionHandler.EnterConfig)
			sessions.POST("/:id/exit", sessionHandler.ExitMode)
			sessions.POST("/:id/refresh", sessionHandler.RefreshPrompt)
			sessions.POST("/:id/classify", sessionHandler.Classify)
			sessions.POST("/:id/survey", surveyHandler.Survey)
		}

		// 模板路由
		templates := v1.Group("/templates")
		{
			templates.GET("", templateHandler.Catalog)
			templates.POST("/render", templateHandler.Render)
			templates.POST("/validate", templateHandler.Validate)
			templates.GET("/:device_type/:level", templateHandler.Get)
		}

		// 下发与切换路由
		provision := v1.Group("/provision")
		{
			provision.POST("/apply", provisionHandler.Apply)
			provision.POST("/transition", provisionHandler.Transition)
			provision.GET("/runs", provisionHandler.ListRuns)
			provision.GET("/runs/:id", provisionHandler.GetRun)
			provision.GET("/transitions", provisionHandler.ListTransitions)
			provision.GET("/transitions/:id", provisionHandler.GetTransition)
		}

		// 一次性执行路由
		v1.POST("/exec", execHandler.Run)

		// SSH验证路由
		v1.POST("/verify/ssh", verifyHandler.Verify)

		// 文件传输路由
		transfer := v1.Group("/transfer")
		{
			transfer.POST("/upload", transferHandler.Upload)
			transfer.POST("/download", transferHandler.Download)
		}

		// 备份路由
		backup := v1.Group("/backup")
		{
			backup.POST("/batch", backupHandler.Batch)
			backup.GET("/records", backupHandler.Records)
			backup.POST("/scheduled/run", backupHandler.TriggerScheduled)
			backup.GET("/scheduled/status", backupHandler.SchedulerStatus)
		}

		// 设备管理路由
		devices := v1.Group("/devices")
		{
			devices.POST("", deviceHandler.CreateDevice)
			devices.GET("", deviceHandler.ListDevices)
			devices.GET("/:id", deviceHandler.GetDevice)
			devices.PUT("/:id", deviceHandler.UpdateDevice)
			devices.DELETE("/:id", deviceHandler.DeleteDevice)
			devices.POST("/:id/test", deviceHandler.TestConnection)
		}

		// 管理路由
		admin := v1.Group("/admin")
		{
			admin.GET("/stats", adminHandler.Stats)
			admin.GET("/log/level", adminHandler.GetLogLevel)
			admin.PUT("/log/level", adminHandler.SetLogLevel)
			admin.GET("/log/tail", adminHandler.TailLog)
			admin.GET("/simulator", adminHandler.SimulatorStatus)
			admin.POST("/simulator/start", adminHandler.SimulatorStart)
			admin.POST("/simulator/stop", adminHandler.SimulatorStop)
			admin.GET("/device-defaults", adminHandler.GetDeviceDefaults)
			admin.PUT("/device-defaults/:device_type", adminHandler.UpdateDeviceDefaults)
		}
	}

	// 404处理
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    "NOT_FOUND",
			"message": "接口不存在",
			"path":    c.Request.URL.Path,
		})
	})

	return r
}

// CORSMiddleware 跨域中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// RequestIDMiddleware 请求ID中间件
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = generateRequestID()
		}
		c.Header("X-Request-ID", requestID)
		c.Set("request_id", requestID)
		c.Next()
	}
}

// LoggingMiddleware 日志中间件
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start)
		requestID := c.GetString("request_id")
		method := c.Request.Method
		path := c.Request.URL.Path
		statusCode := c.Writer.Status()
		clientIP := c.ClientIP()

		logger.Info("HTTP Request",
			"request_id", requestID,
			"method", method,
			"path", path,
			"status", statusCode,
			"duration", duration,
			"client_ip", clientIP,
		)

		if statusCode >= 400 {
			logger.Error("HTTP Error",
				"request_id", requestID,
				"method", method,
				"path", path,
				"status", statusCode,
				"duration", duration,
				"client_ip", clientIP,
			)
		}
	}
}

// generateRequestID 生成请求ID
func generateRequestID() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}
