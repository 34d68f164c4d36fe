package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/switchconfigpro/switchconfigpro/internal/database"
	"github.com/switchconfigpro/switchconfigpro/internal/model"
	"github.com/switchconfigpro/switchconfigpro/internal/service"
)

// BackupHandler 配置备份处理器
type BackupHandler struct {
	svc       *service.BackupService
	scheduler *service.SchedulerService
}

func NewBackupHandler(svc *service.BackupService, scheduler *service.SchedulerService) *BackupHandler {
	return &BackupHandler{svc: svc, scheduler: scheduler}
}

// BatchRequest 批量备份请求：按设备标识选择台账设备
type BatchRequest struct {
	DeviceIDs []string `json:"device_ids"`
}

// Batch 处理 POST /api/v1/backup/batch
// 请求未指定设备时备份台账全量。
func (h *BackupHandler) Batch(c *gin.Context) {
	var req BatchRequest
	_ = c.ShouldBindJSON(&req)

	var devices []*model.Device
	query := database.GetDB()
	if len(req.DeviceIDs) > 0 {
		query = query.Where("id IN ?", req.DeviceIDs)
	}
	if err := query.Find(&devices).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": "QUERY_FAILED", "message": err.Error()})
		return
	}
	if len(devices) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"code": "NO_DEVICES", "message": "没有匹配的设备"})
		return
	}

	summary := h.svc.BackupBatch(c.Request.Context(), devices)
	c.JSON(http.StatusOK, gin.H{"code": "SUCCESS", "message": "批量备份完成", "data": summary})
}

// Records 处理 GET /api/v1/backup/records
func (h *BackupHandler) Records(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	records, err := h.svc.ListRecords(c.Query("task_id"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": "QUERY_FAILED", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": "SUCCESS", "message": "获取备份记录成功", "data": records})
}

// TriggerScheduled 处理 POST /api/v1/backup/scheduled/run：手工触发一轮全量备份
func (h *BackupHandler) TriggerScheduled(c *gin.Context) {
	summary, err := h.scheduler.RunOnce(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": "BACKUP_FAILED", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": "SUCCESS", "message": "全量备份完成", "data": summary})
}

// SchedulerStatus 处理 GET /api/v1/backup/scheduled/status
func (h *BackupHandler) SchedulerStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"code":    "SUCCESS",
		"message": "获取调度状态成功",
		"data":    gin.H{"running": h.scheduler.Running()},
	})
}
