package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/switchconfigpro/switchconfigpro/internal/service"
)

// ExecHandler 一次性执行处理器
type ExecHandler struct {
	svc *service.ExecService
}

func NewExecHandler(svc *service.ExecService) *ExecHandler {
	return &ExecHandler{svc: svc}
}

// Run 处理 POST /api/v1/exec
func (h *ExecHandler) Run(c *gin.Context) {
	var req service.ExecRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "BAD_REQUEST", "message": err.Error()})
		return
	}
	if len(req.Commands) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"code": "BAD_REQUEST", "message": "命令列表不能为空"})
		return
	}

	result, err := h.svc.Run(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"code": "EXEC_FAILED", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": "SUCCESS", "message": "执行完成", "data": result})
}
