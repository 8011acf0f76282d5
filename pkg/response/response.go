package response

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"outagewatch/pkg/logger"
)

// Error response field names
const (
	FieldError     = "error"
	FieldMessage   = "message"
	FieldCode      = "code"
	FieldDetails   = "details"
	FieldRequestID = "request_id"
)

// Error writes an error response in the API's error shape and aborts the
// handler chain.
func Error(c *gin.Context, statusCode int, message string, err error) {
	errorResp := gin.H{
		FieldError:   true,
		FieldMessage: message,
		FieldCode:    statusCode,
	}
	if requestID := c.GetString("RequestID"); requestID != "" {
		errorResp[FieldRequestID] = requestID
	}

	if err != nil {
		errorResp[FieldDetails] = err.Error()
		logger.Debug("API error",
			zap.String("message", message),
			zap.Error(err),
			zap.Int("status_code", statusCode))
	}

	c.AbortWithStatusJSON(statusCode, errorResp)
}
