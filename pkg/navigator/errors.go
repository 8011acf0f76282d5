package navigator

import (
	"fmt"
	"time"
)

// NavigationError is a fatal pipeline failure: the page no longer looks like
// the form we know how to fill.
type NavigationError struct {
	Step   string
	Reason string
	Err    error
}

func (e *NavigationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("navigation %s: %s", e.Step, e.Reason)
	}
	return fmt.Sprintf("navigation %s: %s: %v", e.Step, e.Reason, e.Err)
}

func (e *NavigationError) Unwrap() error {
	return e.Err
}

// CaptchaTimeoutError means a challenge stayed on screen past the ceiling.
type CaptchaTimeoutError struct {
	Waited time.Duration
	Polls  int
}

func (e *CaptchaTimeoutError) Error() string {
	return fmt.Sprintf("captcha still present after %v (%d polls)", e.Waited, e.Polls)
}
