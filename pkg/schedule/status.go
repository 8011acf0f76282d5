package schedule

import (
	"fmt"
	"strings"
)

// Status is the outage classification of one hour of the report.
type Status int

const (
	StatusPowered Status = iota
	StatusScheduled
	StatusFirstHalf
	StatusSecondHalf
	StatusUnknown
)

var statusNames = map[Status]string{
	StatusPowered:    "powered",
	StatusScheduled:  "scheduled",
	StatusFirstHalf:  "first_half",
	StatusSecondHalf: "second_half",
	StatusUnknown:    "unknown",
}

// String returns the canonical name used in hashes and persisted documents.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return statusNames[StatusUnknown]
}

// IsOutage reports whether the hour is anything other than fully powered.
func (s Status) IsOutage() bool {
	return s != StatusPowered
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Legacy rows stored the raw
// cell class instead of a status name, so both forms are accepted.
func (s *Status) UnmarshalText(text []byte) error {
	value := strings.TrimSpace(string(text))
	if parsed, ok := ParseStatus(value); ok {
		*s = parsed
		return nil
	}
	if parsed, ok := ClassifyCell(value); ok {
		*s = parsed
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownStatus, value)
}

// ParseStatus resolves a canonical status name.
func ParseStatus(name string) (Status, bool) {
	for status, n := range statusNames {
		if n == name {
			return status, true
		}
	}
	return StatusUnknown, false
}

// Cell class tokens used by the report table. Order matters:
// "cell-non-scheduled" must be matched before the "cell-scheduled" prefix family.
var cellClassPatterns = []struct {
	token  string
	status Status
}{
	{"cell-non-scheduled", StatusPowered},
	{"cell-first-half", StatusFirstHalf},
	{"cell-second-half", StatusSecondHalf},
	{"cell-scheduled-maybe", StatusScheduled},
	{"cell-scheduled", StatusScheduled},
}

// ClassifyCell maps a data cell's class attribute to a status. The boolean is
// false when no known token is present; the returned status is then Powered.
func ClassifyCell(class string) (Status, bool) {
	tokens := strings.Fields(class)
	for _, pattern := range cellClassPatterns {
		for _, token := range tokens {
			if token == pattern.token {
				return pattern.status, true
			}
		}
	}
	return StatusPowered, false
}
