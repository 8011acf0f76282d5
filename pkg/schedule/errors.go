package schedule

import "errors"

var (
	ErrEmptyPayload       = errors.New("empty schedule payload")
	ErrUnsupportedVersion = errors.New("unsupported schedule schema version")
	ErrUnknownStatus      = errors.New("unknown outage status")
)
