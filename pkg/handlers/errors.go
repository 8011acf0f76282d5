package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"outagewatch/pkg/browser"
	"outagewatch/pkg/logger"
	"outagewatch/pkg/monitor"
	"outagewatch/pkg/response"
)

// Common error type definitions
var (
	// ErrInvalidParam indicates invalid parameter error
	ErrInvalidParam = errors.New("invalid parameter")

	// ErrServiceUnavailable indicates service unavailable error
	ErrServiceUnavailable = errors.New("service unavailable")
)

// APIError represents a custom API error structure
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("API Error (Code: %d, Message: %s): %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("API Error (Code: %d, Message: %s)", e.Code, e.Message)
}

// Unwrap supports error wrapping
func (e *APIError) Unwrap() error {
	return e.Err
}

// NewAPIError creates a new API error
func NewAPIError(code int, message string, err error) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewBadRequestError creates a 400 Bad Request error
func NewBadRequestError(message string, err error) *APIError {
	return NewAPIError(http.StatusBadRequest, message, err)
}

// NewServiceUnavailableError creates a 503 Service Unavailable error
func NewServiceUnavailableError(message string, err error) *APIError {
	return NewAPIError(http.StatusServiceUnavailable, message, err)
}

// HandleError provides unified error handling
func HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code >= http.StatusInternalServerError && apiErr.Err != nil {
			logger.Error("API error occurred",
				zap.Int("code", apiErr.Code),
				zap.String("message", apiErr.Message),
				zap.Error(apiErr.Err))
		}
		response.Error(c, apiErr.Code, apiErr.Message, apiErr.Err)
		return
	}

	var initErr *browser.InitializationError
	switch {
	case errors.As(err, &initErr):
		logger.Warn("Browser initialization failed", zap.String("stage", initErr.Stage), zap.Error(err))
		response.Error(c, http.StatusBadGateway, "Browser initialization failed", err)
	case errors.Is(err, ErrInvalidParam):
		response.Error(c, http.StatusBadRequest, "Invalid parameter", err)
	case errors.Is(err, browser.ErrNotReady):
		response.Error(c, http.StatusServiceUnavailable, "Browser session is not ready", err)
	case errors.Is(err, browser.ErrSessionClosed):
		response.Error(c, http.StatusServiceUnavailable, "Browser session is closed", err)
	case errors.Is(err, ErrServiceUnavailable):
		response.Error(c, http.StatusServiceUnavailable, "Service unavailable", err)
	case errors.Is(err, browser.ErrInitInProgress):
		response.Error(c, http.StatusConflict, "Browser initialization already running", err)
	case errors.Is(err, monitor.ErrBusy):
		response.Error(c, http.StatusConflict, "A check is already running", err)
	default:
		logger.Error("Unexpected error occurred", zap.Error(err), zap.String("path", c.Request.URL.Path))
		response.Error(c, http.StatusInternalServerError, "Internal server error", err)
	}
}

// WrapError wraps an error and adds context information
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
