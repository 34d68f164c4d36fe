package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/switchconfigpro/switchconfigpro/addone/template"
	"github.com/switchconfigpro/switchconfigpro/pkg/console"
)

// TemplateHandler 配置模板处理器
type TemplateHandler struct{}

func NewTemplateHandler() *TemplateHandler { return &TemplateHandler{} }

// Catalog 处理 GET /api/v1/templates：已注册设备类型及其安全级别
func (h *TemplateHandler) Catalog(c *gin.Context) {
	catalog := make(map[string][]string)
	for _, name := range template.Registered() {
		catalog[name] = template.Get(name).SecurityLevels()
	}
	c.JSON(http.StatusOK, gin.H{"code": "SUCCESS", "message": "获取模板目录成功", "data": catalog})
}

// Get 处理 GET /api/v1/templates/:device_type/:level：原始命令模板
func (h *TemplateHandler) Get(c *gin.Context) {
	deviceType := c.Param("device_type")
	level := c.Param("level")

	plugin := template.Get(deviceType)
	commands, ok := plugin.Commands(level)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"code": "LEVEL_NOT_SUPPORTED", "message": "该设备类型不支持此安全级别"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    "SUCCESS",
		"message": "获取模板成功",
		"data": gin.H{
			"device_type":    plugin.Name(),
			"security_level": level,
			"commands":       commands,
			"slow_markers":   plugin.SlowMarkers(),
		},
	})
}

// RenderRequest 模板渲染预览请求
type RenderRequest struct {
	DeviceType    string                `json:"device_type" binding:"required"`
	SecurityLevel string                `json:"security_level" binding:"required"`
	Network       console.NetworkConfig `json:"network"`
}

// Render 处理 POST /api/v1/templates/render：校验字段并返回渲染结果
func (h *TemplateHandler) Render(c *gin.Context) {
	var req RenderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "BAD_REQUEST", "message": err.Error()})
		return
	}

	plugin := template.Get(req.DeviceType)
	commands, ok := plugin.Commands(req.SecurityLevel)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"code": "LEVEL_NOT_SUPPORTED", "message": "该设备类型不支持此安全级别"})
		return
	}

	if errs := req.Network.Validate(); len(errs) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"code":    "VALIDATION_FAILED",
			"message": "字段校验未通过",
			"data":    gin.H{"errors": errs},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    "SUCCESS",
		"message": "模板渲染成功",
		"data": gin.H{
			"device_type":    plugin.Name(),
			"security_level": req.SecurityLevel,
			"commands":       console.Render(commands, req.Network.Fields()),
		},
	})
}

// ValidateRequest 字段校验请求
type ValidateRequest struct {
	Network console.NetworkConfig `json:"network"`
}

// Validate 处理 POST /api/v1/templates/validate：只做字段校验
func (h *TemplateHandler) Validate(c *gin.Context) {
	var req ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "BAD_REQUEST", "message": err.Error()})
		return
	}

	errs := req.Network.Validate()
	c.JSON(http.StatusOK, gin.H{
		"code":    "SUCCESS",
		"message": "校验完成",
		"data":    gin.H{"valid": len(errs) == 0, "errors": errs},
	})
}
