package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/yucheyahyasukaca/trainingcenter/pkg/response"
)

// RequireRole returns a middleware that allows only the given roles. Use after JWT or OptionalJWT.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{})
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		id := CurrentUser(c)
		if id == nil {
			response.Unauthorized(c, "authentication required")
			c.Abort()
			return
		}
		if _, ok := allowed[id.Role]; !ok {
			response.Forbidden(c, "insufficient permissions")
			c.Abort()
			return
		}
		c.Next()
	}
}
