package handler

import (
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/switchconfigpro/switchconfigpro/internal/config"
	"github.com/switchconfigpro/switchconfigpro/internal/database"
	"github.com/switchconfigpro/switchconfigpro/internal/model"
	"github.com/switchconfigpro/switchconfigpro/internal/service"
	"github.com/switchconfigpro/switchconfigpro/pkg/cache"
	"github.com/switchconfigpro/switchconfigpro/pkg/logger"
)

// SimulatorControl 模拟器运行控制，由装配方注入
type SimulatorControl interface {
	Start() error
	Stop()
	Status() (running bool, addr string)
}

// AdminHandler 管理与运维处理器
type AdminHandler struct {
	sessions  *service.SessionService
	simulator SimulatorControl
}

func NewAdminHandler(sessions *service.SessionService, simulator SimulatorControl) *AdminHandler {
	return &AdminHandler{sessions: sessions, simulator: simulator}
}

// Health 处理 GET /api/v1/health
func (h *AdminHandler) Health(c *gin.Context) {
	status := "healthy"
	checks := gin.H{}

	if err := database.Health(); err != nil {
		status = "degraded"
		checks["database"] = err.Error()
	} else {
		checks["database"] = "ok"
	}

	if cache.Enabled() {
		if err := cache.Health(c.Request.Context()); err != nil {
			status = "degraded"
			checks["redis"] = err.Error()
		} else {
			checks["redis"] = "ok"
		}
	} else {
		checks["redis"] = "disabled"
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":    status,
		"checks":    checks,
		"timestamp": time.Now().Format("2006-01-02 15:04:05"),
	})
}

// Stats 处理 GET /api/v1/admin/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"code":    "SUCCESS",
		"message": "获取运行统计成功",
		"data": gin.H{
			"sessions": h.sessions.Stats(),
			"database": database.GetStats(),
			"redis":    cache.GetStats(),
		},
	})
}

// GetLogLevel 处理 GET /api/v1/admin/log/level
func (h *AdminHandler) GetLogLevel(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"code": "SUCCESS", "message": "获取日志级别成功", "data": gin.H{"level": logger.Level()}})
}

// LogLevelRequest 日志级别调整请求
type LogLevelRequest struct {
	Level string `json:"level" binding:"required"`
}

// SetLogLevel 处理 PUT /api/v1/admin/log/level：运行时调整，无需重启
func (h *AdminHandler) SetLogLevel(c *gin.Context) {
	var req LogLevelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "BAD_REQUEST", "message": err.Error()})
		return
	}
	if err := logger.SetLevel(req.Level); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_LEVEL", "message": err.Error()})
		return
	}
	logger.Info("log level changed", "level", req.Level)
	c.JSON(http.StatusOK, gin.H{"code": "SUCCESS", "message": "日志级别已调整", "data": gin.H{"level": logger.Level()}})
}

// GetDeviceDefaults 处理 GET /api/v1/admin/device-defaults
func (h *AdminHandler) GetDeviceDefaults(c *gin.Context) {
	var rows []model.DeviceDefaults
	if err := database.GetDB().Find(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": "QUERY_FAILED", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    "SUCCESS",
		"message": "获取设备默认参数成功",
		"data": gin.H{
			"persisted": rows,
			"effective": config.Get().DeviceDefaults,
		},
	})
}

// DeviceDefaultsRequest 设备默认参数更新请求
type DeviceDefaultsRequest struct {
	ErrorHints          []string `json:"error_hints"`
	CommandTimeoutMS    int      `json:"command_timeout_ms"`
	InterCommandDelayMS int      `json:"inter_command_delay_ms"`
}

// UpdateDeviceDefaults 处理 PUT /api/v1/admin/device-defaults/:device_type
// 落库并同步到内存配置，立即对后续下发生效。
func (h *AdminHandler) UpdateDeviceDefaults(c *gin.Context) {
	deviceType := strings.TrimSpace(c.Param("device_type"))
	if deviceType == "" {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_DEVICE_TYPE", "message": "设备类型不能为空"})
		return
	}

	var req DeviceDefaultsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_PARAMS", "message": "参数解析失败: " + err.Error()})
		return
	}

	row := model.DeviceDefaults{
		DeviceType:          deviceType,
		ErrorHints:          strings.Join(req.ErrorHints, ","),
		CommandTimeoutMS:    req.CommandTimeoutMS,
		InterCommandDelayMS: req.InterCommandDelayMS,
	}
	if err := database.GetDB().Save(&row).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": "SAVE_FAILED", "message": err.Error()})
		return
	}

	cfg := config.Get()
	if cfg.DeviceDefaults == nil {
		cfg.DeviceDefaults = make(map[string]config.DeviceDefaultsConfig)
	}
	cfg.DeviceDefaults[deviceType] = config.DeviceDefaultsConfig{
		ErrorHints:        req.ErrorHints,
		CommandTimeout:    time.Duration(req.CommandTimeoutMS) * time.Millisecond,
		InterCommandDelay: time.Duration(req.InterCommandDelayMS) * time.Millisecond,
	}

	logger.Info("device defaults updated", "device_type", deviceType)
	c.JSON(http.StatusOK, gin.H{"code": "SUCCESS", "message": "设备默认参数已更新", "data": row})
}

// TailLog 处理 GET /api/v1/admin/log/tail?lines=N
// 仅在日志输出包含文件时可用。
func (h *AdminHandler) TailLog(c *gin.Context) {
	cfg := config.Get()
	if cfg.Log.Output != "file" && cfg.Log.Output != "both" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"code": "LOG_FILE_DISABLED", "message": "日志未写入文件"})
		return
	}

	lines := 200
	if raw := c.Query("lines"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 5000 {
			lines = n
		}
	}

	tail, err := tailFile(cfg.Log.FilePath, lines)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": "READ_FAILED", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    "SUCCESS",
		"message": "获取日志尾部成功",
		"data":    gin.H{"file": cfg.Log.FilePath, "lines": tail},
	})
}

// tailFile 读取文件尾部N行，文件末尾起按块回退扫描
func tailFile(path string, n int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	const block = 64 * 1024
	size := info.Size()
	var buf []byte
	offset := size
	for offset > 0 {
		step := int64(block)
		if step > offset {
			step = offset
		}
		offset -= step
		chunk := make([]byte, step)
		if _, err := f.ReadAt(chunk, offset); err != nil {
			return nil, err
		}
		buf = append(chunk, buf...)
		if strings.Count(string(buf), "\n") > n {
			break
		}
	}

	all := strings.Split(strings.TrimRight(string(buf), "\n"), "\n")
	if len(all) > n {
		all = all[len(all)-n:]
	}
	return all, nil
}

// SimulatorStatus 处理 GET /api/v1/admin/simulator
func (h *AdminHandler) SimulatorStatus(c *gin.Context) {
	if h.simulator == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"code": "SIMULATOR_UNAVAILABLE", "message": "模拟器未配置"})
		return
	}
	running, addr := h.simulator.Status()
	c.JSON(http.StatusOK, gin.H{
		"code":    "SUCCESS",
		"message": "获取模拟器状态成功",
		"data":    gin.H{"running": running, "addr": addr},
	})
}

// SimulatorStart 处理 POST /api/v1/admin/simulator/start
func (h *AdminHandler) SimulatorStart(c *gin.Context) {
	if h.simulator == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"code": "SIMULATOR_UNAVAILABLE", "message": "模拟器未配置"})
		return
	}
	if err := h.simulator.Start(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": "SIMULATOR_START_FAILED", "message": err.Error()})
		return
	}
	_, addr := h.simulator.Status()
	logger.Info("simulator started via admin api", "addr", addr)
	c.JSON(http.StatusOK, gin.H{"code": "SUCCESS", "message": "模拟器已启动", "data": gin.H{"addr": addr}})
}

// SimulatorStop 处理 POST /api/v1/admin/simulator/stop
func (h *AdminHandler) SimulatorStop(c *gin.Context) {
	if h.simulator == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"code": "SIMULATOR_UNAVAILABLE", "message": "模拟器未配置"})
		return
	}
	h.simulator.Stop()
	logger.Info("simulator stopped via admin api")
	c.JSON(http.StatusOK, gin.H{"code": "SUCCESS", "message": "模拟器已停止"})
}
