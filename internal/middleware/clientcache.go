package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ClientCache marks GET responses cacheable by clients. Requests carrying
// credentials get private so shared caches never keep per-user bodies.
// Error responses override it with no-store.
func ClientCache(maxAge int) gin.HandlerFunc {
	public := fmt.Sprintf("public, max-age=%d", maxAge)
	private := fmt.Sprintf("private, max-age=%d", maxAge)

	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet {
			if c.GetHeader("Authorization") != "" {
				c.Header("Cache-Control", private)
			} else {
				c.Header("Cache-Control", public)
			}
		}
		c.Next()
	}
}
