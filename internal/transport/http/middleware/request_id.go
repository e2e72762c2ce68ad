package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/virgantara/yii2-basic-template/internal/infra/logger"
)

const (
	requestIDHeader = "X-Request-ID"

	// Inbound IDs longer than this are assumed hostile and replaced.
	maxRequestIDLength = 64
)

// RequestID tags each request with an identifier the logging middleware
// picks up. An ID supplied by an upstream proxy is kept so one request can
// be traced across services; otherwise a fresh UUID is minted. The ID is
// echoed back on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.NewString()
		}

		c.Writer.Header().Set(requestIDHeader, id)
		c.Request = c.Request.WithContext(
			context.WithValue(c.Request.Context(), logger.RequestIDKey{}, id))

		c.Next()
	}
}
