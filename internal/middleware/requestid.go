package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	keyRequestID    = "request_id"
	headerRequestID = "X-Request-ID"
)

// RequestID reuses a caller-supplied id or generates one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}

		c.Set(keyRequestID, id)
		c.Header(headerRequestID, id)
		c.Next()
	}
}
