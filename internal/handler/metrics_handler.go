package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/careers-admin-api/internal/service"
	"github.com/noah-isme/careers-admin-api/pkg/response"
)

type liveSessions interface {
	Active() int
}

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics  *service.MetricsService
	sessions liveSessions
	started  time.Time
}

// NewMetricsHandler constructs a metrics handler. sessions may be nil.
func NewMetricsHandler(metrics *service.MetricsService, sessions liveSessions) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, sessions: sessions, started: time.Now()}
}

// Prometheus serves the Prometheus scrape endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	h.refreshGauges()
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Summary godoc
// @Summary Metrics summary
// @Description Aggregated request, cache, review and wizard counters
// @Tags Metrics
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/metrics [get]
func (h *MetricsHandler) Summary(c *gin.Context) {
	active := h.refreshGauges()
	response.JSON(c, http.StatusOK, h.metrics.Snapshot(), nil, map[string]interface{}{
		"wizard_sessions": active,
		"uptime_seconds":  int64(time.Since(h.started).Seconds()),
	})
}

// Health responds to liveness probes.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "uptime_seconds": int64(time.Since(h.started).Seconds())})
}

func (h *MetricsHandler) refreshGauges() int {
	if h.sessions == nil {
		return 0
	}
	n := h.sessions.Active()
	h.metrics.SetWizardSessions(n)
	return n
}
