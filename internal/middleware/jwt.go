package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yucheyahyasukaca/trainingcenter/internal/auth"
	"github.com/yucheyahyasukaca/trainingcenter/pkg/response"
)

// ContextIdentity is the key for the *auth.Identity in gin context.
const ContextIdentity = "identity"

// TokenValidator resolves a bearer token to an identity.
type TokenValidator interface {
	Validate(token string) (*auth.Identity, error)
}

// OptionalJWT attaches the identity when a valid bearer token is present and
// otherwise lets the request through anonymously. Services decide whether an
// identity is required.
func OptionalJWT(v TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			if id, err := v.Validate(token); err == nil {
				c.Set(ContextIdentity, id)
			}
		}
		c.Next()
	}
}

// JWT rejects requests without a valid bearer token.
func JWT(v TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		token, ok := bearerToken(c)
		if !ok {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		id, err := v.Validate(token)
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		c.Set(ContextIdentity, id)
		c.Next()
	}
}

// CurrentUser returns the identity attached by OptionalJWT or JWT, or nil.
func CurrentUser(c *gin.Context) *auth.Identity {
	v, ok := c.Get(ContextIdentity)
	if !ok {
		return nil
	}
	id, _ := v.(*auth.Identity)
	return id
}

func bearerToken(c *gin.Context) (string, bool) {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
