package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/playtrack-api/internal/service"
)

// unmatchedRoute labels requests that hit no registered route, keeping raw
// paths such as probed URLs out of the metric label set.
const unmatchedRoute = "unmatched"

// Metrics returns middleware that captures request metrics using the provided service.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = unmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
