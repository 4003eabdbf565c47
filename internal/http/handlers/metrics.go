package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/partforge/sourcing-backend/internal/observability"
)

type MetricsHandler struct {
	metrics *observability.Metrics
}

func NewMetricsHandler(metrics *observability.Metrics) *MetricsHandler {
	return &MetricsHandler{metrics: metrics}
}

// GET /metrics
func (h *MetricsHandler) Expose(c *gin.Context) {
	c.Header("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	c.Status(http.StatusOK)
	if err := h.metrics.WritePrometheus(c.Writer); err != nil {
		_ = c.Error(err)
	}
}
