package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/switchconfigpro/switchconfigpro/internal/service"
)

// SessionHandler 会话管理处理器
type SessionHandler struct {
	svc *service.SessionService
}

func NewSessionHandler(svc *service.SessionService) *SessionHandler {
	return &SessionHandler{svc: svc}
}

// ConnectSerial 处理 POST /api/v1/sessions/serial
func (h *SessionHandler) ConnectSerial(c *gin.Context) {
	var req service.SerialConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "BAD_REQUEST", "message": err.Error()})
		return
	}

	info, err := h.svc.ConnectSerial(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"code": "CONNECT_FAILED", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": "SUCCESS", "message": "串口会话已建立", "data": info})
}

// ConnectSSH 处理 POST /api/v1/sessions/ssh
func (h *SessionHandler) ConnectSSH(c *gin.Context) {
	var req service.SSHConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "BAD_REQUEST", "message": err.Error()})
		return
	}

	info, err := h.svc.ConnectSSH(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"code": "CONNECT_FAILED", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": "SUCCESS", "message": "SSH会话已建立", "data": info})
}

// List 处理 GET /api/v1/sessions
func (h *SessionHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"code": "SUCCESS", "message": "获取会话列表成功", "data": h.svc.List()})
}

// Get 处理 GET /api/v1/sessions/:id
func (h *SessionHandler) Get(c *gin.Context) {
	info, err := h.svc.Info(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"code": "NOT_FOUND", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": "SUCCESS", "message": "获取会话成功", "data": info})
}

// Disconnect 处理 DELETE /api/v1/sessions/:id
func (h *SessionHandler) Disconnect(c *gin.Context) {
	if err := h.svc.Disconnect(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"code": "NOT_FOUND", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": "SUCCESS", "message": "会话已断开"})
}

// ExecuteRequest 命令执行请求
type ExecuteRequest struct {
	Command string `json:"command" binding:"required"`
	// ConfirmAnswer 非空时自动应答确认提示
	ConfirmAnswer string `json:"confirm_answer"`
	TimeoutSec    int    `json:"timeout_sec"`
}

// Execute 处理 POST /api/v1/sessions/:id/execute
func (h *SessionHandler) Execute(c *gin.Context) {
	var req ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "BAD_REQUEST", "message": err.Error()})
		return
	}

	timeout := time.Duration(req.TimeoutSec) * time.Second
	var ex interface{}
	var err error
	if req.ConfirmAnswer != "" {
		ex, err = h.svc.ExecuteInteractive(c.Request.Context(), c.Param("id"), req.Command, req.ConfirmAnswer, timeout)
	} else {
		ex, err = h.svc.Execute(c.Request.Context(), c.Param("id"), req.Command, timeout)
	}
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"code": "EXECUTE_FAILED", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": "SUCCESS", "message": "命令执行完成", "data": ex})
}

// EnableRequest 提权请求
type EnableRequest struct {
	Secret string `json:"secret"`
}

// Enable 处理 POST /api/v1/sessions/:id/enable
func (h *SessionHandler) Enable(c *gin.Context) {
	var req EnableRequest
	// 请求体可为空（设备无enable密码）
	_ = c.ShouldBindJSON(&req)

	ex, err := h.svc.Enable(c.Request.Context(), c.Param("id"), req.Secret)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"code": "ENABLE_FAILED", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": "SUCCESS", "message": "已进入特权模式", "data": ex})
}

// EnterConfig 处理 POST /api/v1/sessions/:id/config
func (h *SessionHandler) EnterConfig(c *gin.Context) {
	ex, err := h.svc.EnterConfig(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"code": "CONFIG_MODE_FAILED", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": "SUCCESS", "message": "已进入配置模式", "data": ex})
}

// ExitMode 处理 POST /api/v1/sessions/:id/exit
func (h *SessionHandler) ExitMode(c *gin.Context) {
	ex, err := h.svc.ExitMode(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"code": "EXIT_FAILED", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": "SUCCESS", "message": "已退出当前模式", "data": ex})
}

// RefreshPrompt 处理 POST /api/v1/sessions/:id/refresh
func (h *SessionHandler) RefreshPrompt(c *gin.Context) {
	ex, err := h.svc.RefreshPrompt(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"code": "REFRESH_FAILED", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": "SUCCESS", "message": "提示符已刷新", "data": ex})
}

// Classify 处理 POST /api/v1/sessions/:id/classify
func (h *SessionHandler) Classify(c *gin.Context) {
	result, err := h.svc.Classify(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"code": "CLASSIFY_FAILED", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": "SUCCESS", "message": "设备分类完成", "data": result})
}

// Stats 处理 GET /api/v1/sessions/stats
func (h *SessionHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"code": "SUCCESS", "message": "获取会话统计成功", "data": h.svc.Stats()})
}
