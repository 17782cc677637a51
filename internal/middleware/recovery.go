package middleware

import (
	"fmt"

	"github.com/aman-churiwal/blog-api/internal/apperrors"
	"github.com/aman-churiwal/blog-api/internal/response"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error().
					Str("request_id", c.GetString(keyRequestID)).
					Str("panic", fmt.Sprint(rec)).
					Msg("recovered from panic")

				response.Error(c, apperrors.New(apperrors.KindInternal, "panic"))
			}
		}()
		c.Next()
	}
}
