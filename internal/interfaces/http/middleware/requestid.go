// Package middleware holds the gin middleware chain for the gateway's HTTP
// surface: request IDs, access logging, CORS, and HTTP metrics.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HeaderRequestID is the request-ID header honored on ingress and always set
// on egress.
const HeaderRequestID = "X-Request-ID"

// ContextRequestID is the gin context key the request ID is stored under.
const ContextRequestID = "request_id"

// RequestID assigns each request a unique ID, reusing the client-provided one
// when present.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ContextRequestID, id)
		c.Writer.Header().Set(HeaderRequestID, id)
		c.Next()
	}
}

// GetRequestID returns the request ID assigned by RequestID, or "".
func GetRequestID(c *gin.Context) string {
	return c.GetString(ContextRequestID)
}
