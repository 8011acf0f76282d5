package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"outagewatch/pkg/logger"
)

// quietPaths are polled often and only logged on failure.
var quietPaths = map[string]bool{
	"/health":            true,
	"/metrics":           true,
	"/favicon.ico":       true,
	"/api/v1/screenshot": true,
	"/api/v1/status":     true,
}

// GinZapLogger logs each request through zap.
func GinZapLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.Request.URL.Path
		statusCode := c.Writer.Status()
		if statusCode < 400 && (quietPaths[path] || (strings.HasPrefix(path, "/swagger/") && path != "/swagger/index.html")) {
			return
		}

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("ip", c.ClientIP()),
			zap.Int("status", statusCode),
			zap.Duration("latency", time.Since(start)),
			zap.Int("response_size", c.Writer.Size()),
		}
		if c.Request.URL.RawQuery != "" {
			fields = append(fields, zap.String("query", c.Request.URL.RawQuery))
		}
		if gin.Mode() == gin.DebugMode {
			fields = append(fields, zap.String("user_agent", c.Request.UserAgent()))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("error", c.Errors.String()))
		}

		log := logger.FromContext(c.Request.Context())
		switch {
		case statusCode >= 500:
			log.Error("Internal server error", fields...)
		case statusCode >= 400:
			log.Warn("Client request error", fields...)
		case statusCode >= 300:
			log.Info("Request redirect", fields...)
		default:
			log.Debug("HTTP request completed", fields...)
		}
	}
}
