package middleware

import (
	"time"

	"github.com/aman-churiwal/blog-api/internal/metrics"
	"github.com/gin-gonic/gin"
)

// Metrics records requests by route template, never by raw path.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveRequest(route, c.Request.Method, c.Writer.Status(), time.Since(start))
	}
}
