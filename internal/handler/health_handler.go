package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"labassist/internal/metrics"
)

// HealthHandler handles health check and metrics endpoints.
type HealthHandler struct {
	providers []string
	metrics   *metrics.Tracker
}

// NewHealthHandler creates a new HealthHandler reporting the configured
// reasoning providers and, when tracker is non-nil, pipeline metrics.
func NewHealthHandler(providers []string, tracker *metrics.Tracker) *HealthHandler {
	return &HealthHandler{providers: providers, metrics: tracker}
}

// Liveness handles GET /healthz
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// Readiness handles GET /readyz
func (h *HealthHandler) Readiness(c *gin.Context) {
	if len(h.providers) == 0 {
		c.JSON(http.StatusServiceUnavailable, HealthResponse{Status: "unavailable", Error: "no reasoning provider configured"})
		return
	}
	c.JSON(http.StatusOK, HealthResponse{Status: "ok", Providers: h.providers})
}

// Metrics godoc
// @Summary Pipeline metrics
// @Description Count, average, min and max of stage timings (seconds) and error counters
// @Tags health
// @Produce json
// @Success 200 {object} APIResponse{data=map[string]metrics.Stat}
// @Router /metrics [get]
func (h *HealthHandler) Metrics(c *gin.Context) {
	RespondOK(c, h.metrics.Summary())
}
