package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/switchconfigpro/switchconfigpro/internal/service"
)

// VerifyHandler SSH可达性验证处理器
type VerifyHandler struct {
	svc *service.VerifyService
}

func NewVerifyHandler(svc *service.VerifyService) *VerifyHandler {
	return &VerifyHandler{svc: svc}
}

// Verify 处理 POST /api/v1/verify/ssh
func (h *VerifyHandler) Verify(c *gin.Context) {
	var req service.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "BAD_REQUEST", "message": err.Error()})
		return
	}

	result := h.svc.Verify(req)
	c.JSON(http.StatusOK, gin.H{"code": "SUCCESS", "message": "验证完成", "data": result})
}
