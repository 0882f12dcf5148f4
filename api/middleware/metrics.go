package middleware

import (
	"time"

	"example.com/textile/erp/internal/metrics"

	"github.com/gin-gonic/gin"
)

// Metrics records a timer and an error rate per route. Unmatched routes are
// grouped under "unmatched" to keep the metric set bounded.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		name := metrics.HTTPRequests + "." + c.Request.Method + " " + route
		m.IncrementCounter(metrics.HTTPRequests)
		m.RecordDuration(name, time.Since(start))
		m.RecordResult(name, c.Writer.Status() >= 500)
	}
}
