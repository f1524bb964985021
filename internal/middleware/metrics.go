package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/officer-registry-api/internal/service"
)

// UnmatchedRoute labels requests that hit no registered route. Raw paths carry officer ids and
// reference numbers, so they are never used as a label value.
const UnmatchedRoute = "unmatched"

// Metrics records method, route template, status and latency for every request.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = UnmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
