package middleware

import (
	"math"
	"strconv"
	"time"

	"github.com/aman-churiwal/blog-api/internal/apperrors"
	"github.com/aman-churiwal/blog-api/internal/ratelimit"
	"github.com/aman-churiwal/blog-api/internal/response"
	"github.com/aman-churiwal/blog-api/internal/tier"
	"github.com/gin-gonic/gin"
)

const (
	headerLimit      = "X-RateLimit-Limit"
	headerRemaining  = "X-RateLimit-Remaining"
	headerReset      = "X-RateLimit-Reset"
	headerRetryAfter = "Retry-After"
)

// RateLimit applies the caller's tier policy for the request path.
// A store fault rejects the request with 503.
func RateLimit(tiers *tier.Resolver, limiter *ratelimit.FixedWindow) gin.HandlerFunc {
	return rateLimit(tiers, limiter, time.Now)
}

func rateLimit(tiers *tier.Resolver, limiter *ratelimit.FixedWindow, now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		identity := Identity(c)
		path := c.Request.URL.Path

		policy, err := tiers.Resolve(ctx, identity, path)
		if err != nil {
			response.Error(c, err)
			return
		}

		decision, err := limiter.Check(ctx, identity.Key(), path, policy)
		if err != nil {
			response.Error(c, err)
			return
		}

		c.Header(headerLimit, strconv.Itoa(decision.Limit))
		c.Header(headerRemaining, strconv.Itoa(decision.Remaining))
		c.Header(headerReset, strconv.FormatInt(decision.ResetAt.Unix(), 10))

		if !decision.Allowed {
			retryAfter := int(math.Ceil(decision.ResetAt.Sub(now()).Seconds()))
			c.Header(headerRetryAfter, strconv.Itoa(max(retryAfter, 0)))
			response.Error(c, apperrors.RateLimited("Rate limit exceeded."))
			return
		}

		c.Next()
	}
}

// LoginThrottle is a per-IP burst guard in front of credential checks.
func LoginThrottle(guard *ratelimit.LocalGuard) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !guard.Allow(c.ClientIP()) {
			c.Header(headerRetryAfter, "1")
			response.Error(c, apperrors.RateLimited("Too many login attempts."))
			return
		}
		c.Next()
	}
}
