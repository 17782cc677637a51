package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS allows every origin when allowOrigins is empty.
func CORS(allowOrigins []string) gin.HandlerFunc {
	config := cors.DefaultConfig()
	if len(allowOrigins) == 0 {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = allowOrigins
		config.AllowCredentials = true
	}
	config.AddAllowHeaders("Authorization")
	config.AddExposeHeaders(headerRequestID, headerLimit, headerRemaining, headerReset, headerRetryAfter)
	config.MaxAge = 12 * time.Hour

	return cors.New(config)
}
