package middleware

import (
	"github.com/aman-churiwal/blog-api/internal/apperrors"
	"github.com/aman-churiwal/blog-api/internal/auth"
	"github.com/aman-churiwal/blog-api/internal/models"
	"github.com/aman-churiwal/blog-api/internal/response"
	"github.com/gin-gonic/gin"
)

const keyIdentity = "identity"

// Authenticate resolves the caller on every request. A missing or bad
// token never fails here: the caller is anonymous, keyed by client IP.
func Authenticate(resolver *auth.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := resolver.Optional(c.Request.Context(), c.GetHeader("Authorization"), c.ClientIP())
		c.Set(keyIdentity, identity)
		c.Next()
	}
}

// RequireUser rejects anonymous callers. The precise failure is recomputed
// so a store fault surfaces as a server error rather than a 401.
func RequireUser(resolver *auth.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !Identity(c).IsAnonymous() {
			c.Next()
			return
		}

		identity, err := resolver.Required(c.Request.Context(), c.GetHeader("Authorization"), c.ClientIP())
		if err != nil {
			response.Error(c, err)
			return
		}

		c.Set(keyIdentity, identity)
		c.Next()
	}
}

// RequireSuperuser must run after RequireUser.
func RequireSuperuser() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			response.Error(c, apperrors.Unauthorized("User not authenticated."))
			return
		}
		if !user.IsSuperuser {
			response.Error(c, apperrors.Forbidden("You do not have enough privileges."))
			return
		}
		c.Next()
	}
}

// Identity returns the resolved caller, anonymous if Authenticate did not run.
func Identity(c *gin.Context) auth.Identity {
	if v, ok := c.Get(keyIdentity); ok {
		if identity, ok := v.(auth.Identity); ok {
			return identity
		}
	}
	return auth.Anonymous(c.ClientIP())
}

func CurrentUser(c *gin.Context) *models.User {
	return Identity(c).User
}

// AccessToken is the raw bearer token of the request, if any.
func AccessToken(c *gin.Context) string {
	token, _ := auth.BearerToken(c.GetHeader("Authorization"))
	return token
}
