package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"todo-project/pkg/logger"
)

const requestIDHeader = "X-Request-Id"

// RequestID assigns each request an id (honoring an inbound X-Request-Id),
// attaches it to the request-scoped logger, and echoes it on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		ctx := logger.WithRequestID(c.Request.Context(), id)
		c.Request = c.Request.WithContext(ctx)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}
