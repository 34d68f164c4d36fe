package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/switchconfigpro/switchconfigpro/internal/database"
	"github.com/switchconfigpro/switchconfigpro/internal/model"
	"github.com/switchconfigpro/switchconfigpro/internal/service"
)

// ProvisionHandler 模板下发与端到端切换处理器
type ProvisionHandler struct {
	svc *service.ProvisionService
}

func NewProvisionHandler(svc *service.ProvisionService) *ProvisionHandler {
	return &ProvisionHandler{svc: svc}
}

// Apply 处理 POST /api/v1/provision/apply
func (h *ProvisionHandler) Apply(c *gin.Context) {
	var req service.ApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "BAD_REQUEST", "message": err.Error()})
		return
	}

	result, err := h.svc.ApplyTemplate(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"code": "APPLY_FAILED", "message": err.Error()})
		return
	}
	if len(result.ValidationErrors) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"code": "VALIDATION_FAILED", "message": "字段校验未通过", "data": result})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": "SUCCESS", "message": "模板下发完成", "data": result})
}

// Transition 处理 POST /api/v1/provision/transition
func (h *ProvisionHandler) Transition(c *gin.Context) {
	var req service.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "BAD_REQUEST", "message": err.Error()})
		return
	}

	result, err := h.svc.Transition(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"code": "TRANSITION_FAILED", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": "SUCCESS", "message": "切换流程完成", "data": result})
}

// GetRun 处理 GET /api/v1/provision/runs/:id：下发记录与单步明细
func (h *ProvisionHandler) GetRun(c *gin.Context) {
	id := c.Param("id")

	var run model.ProvisionRun
	if err := database.GetDB().Where("id = ?", id).First(&run).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"code": "NOT_FOUND", "message": "下发记录不存在"})
		return
	}

	var steps []model.ProvisionStep
	if err := database.GetDB().Where("run_id = ?", id).Order("seq ASC").Find(&steps).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": "QUERY_FAILED", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    "SUCCESS",
		"message": "获取下发记录成功",
		"data":    gin.H{"run": run, "steps": steps},
	})
}

// ListRuns 处理 GET /api/v1/provision/runs
func (h *ProvisionHandler) ListRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	var runs []model.ProvisionRun
	if err := database.GetDB().Order("created_at DESC").Limit(limit).Find(&runs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": "QUERY_FAILED", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": "SUCCESS", "message": "获取下发记录列表成功", "data": runs})
}

// GetTransition 处理 GET /api/v1/provision/transitions/:id
func (h *ProvisionHandler) GetTransition(c *gin.Context) {
	var run model.TransitionRun
	if err := database.GetDB().Where("id = ?", c.Param("id")).First(&run).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"code": "NOT_FOUND", "message": "切换记录不存在"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": "SUCCESS", "message": "获取切换记录成功", "data": run})
}

// ListTransitions 处理 GET /api/v1/provision/transitions
func (h *ProvisionHandler) ListTransitions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	var runs []model.TransitionRun
	if err := database.GetDB().Order("created_at DESC").Limit(limit).Find(&runs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": "QUERY_FAILED", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": "SUCCESS", "message": "获取切换记录列表成功", "data": runs})
}
