package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/switchconfigpro/switchconfigpro/internal/service"
)

// SurveyHandler 设备巡检处理器
type SurveyHandler struct {
	svc *service.SurveyService
}

func NewSurveyHandler(svc *service.SurveyService) *SurveyHandler {
	return &SurveyHandler{svc: svc}
}

// Survey 处理 POST /api/v1/sessions/:id/survey
func (h *SurveyHandler) Survey(c *gin.Context) {
	includeConfig := c.DefaultQuery("include_config", "false") == "true"

	report, err := h.svc.Survey(c.Request.Context(), c.Param("id"), includeConfig)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"code": "SURVEY_FAILED", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": "SUCCESS", "message": "巡检完成", "data": report})
}
