package schedule

import (
	"fmt"
	"time"
)

// HoursPerDay is the number of hour cells the report table carries.
const HoursPerDay = 24

// UnknownTimestamp is returned when the "last updated" node cannot be read.
const UnknownTimestamp = "Unknown"

// Tab selects one of the two date tabs above the report table.
type Tab int

const (
	TabToday Tab = iota
	TabTomorrow
)

func (t Tab) String() string {
	if t == TabTomorrow {
		return "tomorrow"
	}
	return "today"
}

// Anomaly records a cell that could not be classified with confidence.
// Anomalies never change the hash; they exist so operators can see them.
type Anomaly struct {
	Hour   string `json:"hour"`
	Class  string `json:"class,omitempty"`
	Reason string `json:"reason"`
}

// Schedule is one day of the outage report.
type Schedule struct {
	ReportDate string
	HourLabels []string
	CellStatus map[string]Status
	Anomalies  []Anomaly
}

// FromCells builds a schedule from the header labels and data cell classes of
// the rendered table. Hours without a data cell are marked Unknown; classes
// matching no known pattern default to Powered and are recorded as anomalies.
func FromCells(reportDate string, labels, classes []string) Schedule {
	s := Schedule{
		ReportDate: reportDate,
		HourLabels: make([]string, 0, len(labels)),
		CellStatus: make(map[string]Status, len(labels)),
	}

	for i, label := range labels {
		s.HourLabels = append(s.HourLabels, label)
		if i >= len(classes) {
			s.CellStatus[label] = StatusUnknown
			s.Anomalies = append(s.Anomalies, Anomaly{Hour: label, Reason: "missing data cell"})
			continue
		}
		status, ok := ClassifyCell(classes[i])
		if !ok {
			s.Anomalies = append(s.Anomalies, Anomaly{Hour: label, Class: classes[i], Reason: "unrecognized cell class"})
		}
		s.CellStatus[label] = status
	}

	if len(labels) != HoursPerDay {
		s.Anomalies = append(s.Anomalies, Anomaly{
			Reason: fmt.Sprintf("expected %d hour cells, got %d", HoursPerDay, len(labels)),
		})
	}
	return s
}

// StatusOf returns the status for an hour label, treating absent hours as Powered.
func (s Schedule) StatusOf(label string) Status {
	if status, ok := s.CellStatus[label]; ok {
		return status
	}
	return StatusPowered
}

// OutageHours lists the labels that are not fully powered, in table order.
func (s Schedule) OutageHours() []string {
	var hours []string
	for _, label := range s.HourLabels {
		if s.StatusOf(label).IsOutage() {
			hours = append(hours, label)
		}
	}
	return hours
}

// HasAnomalies reports whether any cell was parsed with reduced confidence.
func (s Schedule) HasAnomalies() bool {
	return len(s.Anomalies) > 0
}

// IsEmpty reports whether no hours were extracted at all.
func (s Schedule) IsEmpty() bool {
	return len(s.HourLabels) == 0 && len(s.CellStatus) == 0
}

// Snapshot is one persisted observation of the report. Snapshots are immutable
// once written.
type Snapshot struct {
	ID                    uint
	CapturedAt            time.Time
	ReportUpdateTimestamp string
	ScheduleHash          string
	Schedule              Schedule
	TomorrowHash          string
	ScheduleTomorrow      *Schedule
	SchemaVersion         int
}

// NewSnapshot hashes the captured schedules and stamps the current schema version.
func NewSnapshot(capturedAt time.Time, reportTimestamp string, today Schedule, tomorrow *Schedule) Snapshot {
	snap := Snapshot{
		CapturedAt:            capturedAt,
		ReportUpdateTimestamp: reportTimestamp,
		ScheduleHash:          Hash(today),
		Schedule:              today,
		SchemaVersion:         SchemaVersion,
	}
	if tomorrow != nil {
		t := *tomorrow
		snap.ScheduleTomorrow = &t
		snap.TomorrowHash = Hash(t)
	}
	return snap
}

// SameContent reports whether two snapshots carry identical schedules for both
// days. Report timestamps are not compared.
func (s Snapshot) SameContent(other Snapshot) bool {
	return s.ScheduleHash == other.ScheduleHash && s.TomorrowHash == other.TomorrowHash
}

// Day returns the schedule published for a report date, looking at both days.
// An empty date never matches.
func (s Snapshot) Day(date string) (Schedule, bool) {
	switch {
	case date == "":
		return Schedule{}, false
	case s.Schedule.ReportDate == date:
		return s.Schedule, true
	case s.ScheduleTomorrow != nil && s.ScheduleTomorrow.ReportDate == date:
		return *s.ScheduleTomorrow, true
	}
	return Schedule{}, false
}

// CarryTomorrow fills a missing Tomorrow from prev when both snapshots describe
// the same Today. A tab that failed to load is not a schedule change.
func (s Snapshot) CarryTomorrow(prev Snapshot) Snapshot {
	if s.ScheduleTomorrow != nil || prev.ScheduleTomorrow == nil {
		return s
	}
	if s.Schedule.ReportDate != prev.Schedule.ReportDate {
		return s
	}
	t := *prev.ScheduleTomorrow
	s.ScheduleTomorrow = &t
	s.TomorrowHash = prev.TomorrowHash
	return s
}
