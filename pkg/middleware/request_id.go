package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"outagewatch/pkg/logger"
)

const RequestIDHeader = "X-Request-ID"

// RequestID takes the caller's X-Request-ID or generates one, and attaches a
// request-scoped logger to the request context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.Set("RequestID", requestID)
		c.Writer.Header().Set(RequestIDHeader, requestID)

		ctx := logger.WithComponent(c.Request.Context(), "api")
		ctx = logger.WithLogger(ctx, logger.FromContext(ctx).With(zap.String("request_id", requestID)))
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
