package handler

import (
	"net/http"
	"time"

	"github.com/SergeiKhy/portfolio/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AnalyticsHandler struct {
	service service.AnalyticsService
	logger  *zap.Logger
	now     func() time.Time
}

func NewAnalyticsHandler(service service.AnalyticsService, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{service: service, logger: logger, now: time.Now}
}

// GetAnalytics godoc
// @Summary Event summary for the dashboard
// @Description Defaults to the last 30 days. Storage failures yield a zeroed summary.
// @Tags analytics
// @Produce json
// @Param startDate query string false "YYYY-MM-DD or RFC3339"
// @Param endDate query string false "YYYY-MM-DD or RFC3339"
// @Success 200 {object} models.Analytics
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/analytics [get]
func (h *AnalyticsHandler) GetAnalytics(c *gin.Context) {
	window, err := service.ParseWindow(c.Query("startDate"), c.Query("endDate"), h.now())
	if err != nil {
		respondError(c, h.logger, err, "parse analytics window")
		return
	}

	c.JSON(http.StatusOK, h.service.GetAnalytics(c.Request.Context(), window))
}
