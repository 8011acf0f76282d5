package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"outagewatch/pkg/logger"
	"outagewatch/pkg/response"
)

// ErrorHandler turns errors attached with c.Error into a JSON response when
// the handler did not write one itself.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last()

		logger.FromContext(c.Request.Context()).Error("request error",
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
			zap.Error(err.Err),
			zap.Int("status", c.Writer.Status()),
		)

		if c.Writer.Written() {
			return
		}
		status := c.Writer.Status()
		if status < http.StatusBadRequest {
			status = http.StatusInternalServerError
		}
		response.Error(c, status, http.StatusText(status), nil)
	}
}

// Recovery logs panics with a stack and answers 500.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.FromContext(c.Request.Context()).Error("panic recovered",
			zap.Any("error", recovered),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
			zap.Stack("stack"),
		)
		response.Error(c, http.StatusInternalServerError, "Internal Server Error", nil)
	})
}
