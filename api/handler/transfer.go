package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/switchconfigpro/switchconfigpro/internal/service"
)

// TransferHandler 文件传输处理器
type TransferHandler struct {
	svc *service.TransferService
}

func NewTransferHandler(svc *service.TransferService) *TransferHandler {
	return &TransferHandler{svc: svc}
}

// Upload 处理 POST /api/v1/transfer/upload
func (h *TransferHandler) Upload(c *gin.Context) {
	var req service.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "BAD_REQUEST", "message": err.Error()})
		return
	}

	result, err := h.svc.Upload(req)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"code": "UPLOAD_FAILED", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": "SUCCESS", "message": "上传完成", "data": result})
}

// Download 处理 POST /api/v1/transfer/download
func (h *TransferHandler) Download(c *gin.Context) {
	var req service.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "BAD_REQUEST", "message": err.Error()})
		return
	}

	result, err := h.svc.Download(req)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"code": "DOWNLOAD_FAILED", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": "SUCCESS", "message": "下载完成", "data": result})
}
