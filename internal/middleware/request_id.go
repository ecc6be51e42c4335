package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// ContextRequestID is the key for the request id in gin context.
	ContextRequestID = "request_id"
	headerRequestID  = "X-Request-ID"
)

// RequestID reuses an inbound X-Request-ID or generates one, and echoes it back.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(ContextRequestID, id)
		c.Header(headerRequestID, id)
		c.Next()
	}
}
