package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/SergeiKhy/portfolio/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const healthCheckTimeout = 2 * time.Second

// Pinger зависимость, доступность которой проверяет /health
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	deps      map[string]Pinger
	processor service.ClickProcessor
	logger    *zap.Logger
}

func NewHealthHandler(deps map[string]Pinger, processor service.ClickProcessor, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{deps: deps, processor: processor, logger: logger}
}

type HealthResponse struct {
	Status     string                `json:"status"`
	Checks     map[string]string     `json:"checks"`
	ClickQueue *service.ChannelStats `json:"click_queue,omitempty"`
}

// HealthCheck godoc
// @Summary Liveness and dependency check
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	resp := HealthResponse{Status: "ok", Checks: make(map[string]string, len(h.deps))}
	for name, dep := range h.deps {
		if err := dep.Ping(ctx); err != nil {
			// текст ошибки драйвера содержит адреса, наружу отдаём только статус
			h.logger.Error("Health check failed", zap.String("dependency", name), zap.Error(err))
			resp.Status = "degraded"
			resp.Checks[name] = "error"
			continue
		}
		resp.Checks[name] = "ok"
	}

	if h.processor != nil {
		stats := h.processor.Stats()
		resp.ClickQueue = &stats
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}
