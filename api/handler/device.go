package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/switchconfigpro/switchconfigpro/internal/database"
	"github.com/switchconfigpro/switchconfigpro/internal/model"
	"github.com/switchconfigpro/switchconfigpro/internal/service"
)

// DeviceHandler 设备台账处理器
type DeviceHandler struct {
	verify *service.VerifyService
}

func NewDeviceHandler(verify *service.VerifyService) *DeviceHandler {
	return &DeviceHandler{verify: verify}
}

// CreateDevice 处理 POST /api/v1/devices
func (h *DeviceHandler) CreateDevice(c *gin.Context) {
	var device model.Device
	if err := c.ShouldBindJSON(&device); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "BAD_REQUEST", "message": err.Error()})
		return
	}
	if device.IP == "" || device.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"code": "BAD_REQUEST", "message": "设备名与IP不能为空"})
		return
	}
	if device.ID == "" {
		device.ID = uuid.NewString()
	}
	if device.Port <= 0 {
		device.Port = 22
	}
	if device.DeviceType == "" {
		device.DeviceType = "generic"
	}
	device.Status = model.DeviceStatusUnknown

	if err := database.GetDB().Create(&device).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"code": "CREATE_FAILED", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": "SUCCESS", "message": "设备创建成功", "data": device})
}

// ListDevices 处理 GET /api/v1/devices
func (h *DeviceHandler) ListDevices(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	query := database.GetDB().Order("created_at DESC").Limit(limit)
	if dt := c.Query("device_type"); dt != "" {
		query = query.Where("device_type = ?", dt)
	}

	var devices []model.Device
	if err := query.Find(&devices).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": "QUERY_FAILED", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": "SUCCESS", "message": "获取设备列表成功", "data": devices})
}

// GetDevice 处理 GET /api/v1/devices/:id
func (h *DeviceHandler) GetDevice(c *gin.Context) {
	var device model.Device
	if err := database.GetDB().Where("id = ?", c.Param("id")).First(&device).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"code": "NOT_FOUND", "message": "设备不存在"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": "SUCCESS", "message": "获取设备成功", "data": device})
}

// UpdateDevice 处理 PUT /api/v1/devices/:id
func (h *DeviceHandler) UpdateDevice(c *gin.Context) {
	var device model.Device
	if err := database.GetDB().Where("id = ?", c.Param("id")).First(&device).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"code": "NOT_FOUND", "message": "设备不存在"})
		return
	}

	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "BAD_REQUEST", "message": err.Error()})
		return
	}
	// 主键与审计字段不可改
	delete(updates, "id")
	delete(updates, "created_at")
	delete(updates, "updated_at")

	if err := database.GetDB().Model(&device).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": "UPDATE_FAILED", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": "SUCCESS", "message": "设备更新成功", "data": device})
}

// DeleteDevice 处理 DELETE /api/v1/devices/:id
func (h *DeviceHandler) DeleteDevice(c *gin.Context) {
	result := database.GetDB().Where("id = ?", c.Param("id")).Delete(&model.Device{})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": "DELETE_FAILED", "message": result.Error.Error()})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"code": "NOT_FOUND", "message": "设备不存在"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": "SUCCESS", "message": "设备删除成功"})
}

// TestConnection 处理 POST /api/v1/devices/:id/test：SSH可达性验证并回写状态
func (h *DeviceHandler) TestConnection(c *gin.Context) {
	var device model.Device
	if err := database.GetDB().Where("id = ?", c.Param("id")).First(&device).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"code": "NOT_FOUND", "message": "设备不存在"})
		return
	}

	result := h.verify.Verify(service.VerifyRequest{
		Host:       device.IP,
		Port:       device.Port,
		Username:   device.Username,
		Password:   device.Password,
		DeviceType: device.DeviceType,
	})

	status := model.DeviceStatusUnreachable
	if result.Reachable {
		status = model.DeviceStatusReachable
	}
	updates := map[string]interface{}{"status": status, "last_check": time.Now()}
	if result.VersionBanner != "" {
		updates["version"] = result.VersionBanner
	}
	_ = database.GetDB().Model(&device).Updates(updates).Error

	c.JSON(http.StatusOK, gin.H{"code": "SUCCESS", "message": "连通性测试完成", "data": result})
}
