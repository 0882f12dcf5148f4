package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"example.com/textile/erp/internal/metrics"
	"example.com/textile/erp/internal/version"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const healthTimeout = 3 * time.Second

// Pinger is a dependency that can report its reachability
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck is one component reported by /health. Only required
// components make the service unhealthy; the rest degrade.
type HealthCheck struct {
	Name     string
	Required bool
	Enabled  bool
	Pinger   Pinger
}

// ComponentHealth is the reported state of one component
type ComponentHealth struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// MetricsHandler serves health, metrics and version information
type MetricsHandler struct {
	metrics *metrics.Metrics
	checks  []HealthCheck
}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler(m *metrics.Metrics, checks []HealthCheck) *MetricsHandler {
	return &MetricsHandler{metrics: m, checks: checks}
}

// HandleGetMetrics returns all metrics
func (h *MetricsHandler) HandleGetMetrics(c *gin.Context) {
	h.metrics.SetGauge("goroutines", int64(runtime.NumGoroutine()))
	c.JSON(http.StatusOK, h.metrics.Snapshot())
}

// HandleGetHealthCheck pings every component
func (h *MetricsHandler) HandleGetHealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	healthy := true
	details := make(map[string]ComponentHealth, len(h.checks))
	for _, check := range h.checks {
		if !check.Enabled {
			details[check.Name] = ComponentHealth{Status: "disabled"}
			continue
		}
		if err := check.Pinger.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("component", check.Name).Msg("Health check failed")
			details[check.Name] = ComponentHealth{Status: "down", Error: err.Error()}
			h.metrics.SetHealth(check.Name, false)
			if check.Required {
				healthy = false
			}
			continue
		}
		details[check.Name] = ComponentHealth{Status: "up"}
		h.metrics.SetHealth(check.Name, true)
	}

	status := http.StatusOK
	overall := "healthy"
	if !healthy {
		status = http.StatusServiceUnavailable
		overall = "unhealthy"
	}
	c.JSON(status, gin.H{
		"status":     overall,
		"components": details,
	})
}

// HandleGetVersion returns build information
func (h *MetricsHandler) HandleGetVersion(c *gin.Context) {
	c.JSON(http.StatusOK, version.Get())
}
