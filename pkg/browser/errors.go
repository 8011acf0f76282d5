package browser

import (
	"errors"
	"fmt"
)

var (
	ErrSessionClosed  = errors.New("browser session closed")
	ErrNotReady       = errors.New("browser session not ready")
	ErrInitInProgress = errors.New("browser session initialization already in progress")
	ErrNotVisible     = errors.New("element not visible")
)

// InitializationError reports which stage of session startup failed.
type InitializationError struct {
	Stage string
	Err   error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("browser init failed at %s: %v", e.Stage, e.Err)
}

func (e *InitializationError) Unwrap() error {
	return e.Err
}
