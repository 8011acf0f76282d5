package models

import "time"

// SystemStatus represents the status response
type SystemStatus struct {
	Service             string           `json:"service" example:"outagewatch"`
	Version             string           `json:"version" example:"1.0.0"`
	Timestamp           time.Time        `json:"timestamp" example:"2025-11-04T08:13:24Z"`
	Uptime              string           `json:"uptime" example:"3h12m5s"`
	SessionState        string           `json:"session_state" example:"ready"`
	LastReportTimestamp string           `json:"last_report_timestamp" example:"04.11.2025 10:41"`
	LastCheckAt         *time.Time       `json:"last_check_at,omitempty"`
	LastOutcome         string           `json:"last_outcome,omitempty" example:"unchanged"`
	LastError           string           `json:"last_error,omitempty"`
	LastChangeAt        *time.Time       `json:"last_change_at,omitempty"`
	BaselineHash        string           `json:"baseline_hash,omitempty"`
	BaselineCapturedAt  *time.Time       `json:"baseline_captured_at,omitempty"`
	OutageHoursToday    []string         `json:"outage_hours_today"`
	HasCookies          bool             `json:"has_cookies"`
	Ticks               int              `json:"ticks" example:"42"`
	Scheduler           *SchedulerStatus `json:"scheduler,omitempty"`
}

// SchedulerStatus represents the scheduler status
type SchedulerStatus struct {
	Running   bool      `json:"running" example:"true"`
	JobCount  int       `json:"job_count" example:"2"`
	Entries   int       `json:"entries" example:"2"`
	Timestamp time.Time `json:"timestamp" example:"2025-11-04T08:13:24Z"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status       string    `json:"status" example:"healthy"`
	Timestamp    time.Time `json:"timestamp" example:"2025-11-04T08:13:24Z"`
	Service      string    `json:"service" example:"outagewatch"`
	Version      string    `json:"version" example:"1.0.0"`
	SessionState string    `json:"session_state" example:"ready"`
}

// ClickRequest is a synthetic click at viewport coordinates.
type ClickRequest struct {
	X *float64 `json:"x" binding:"required" example:"640"`
	Y *float64 `json:"y" binding:"required" example:"360"`
}

// ActionResponse reports the result of an operator action.
type ActionResponse struct {
	Success      bool      `json:"success" example:"true"`
	Message      string    `json:"message" example:"Browser session initialized"`
	SessionState string    `json:"session_state,omitempty" example:"ready"`
	Outcome      string    `json:"outcome,omitempty" example:"same_hash"`
	Timestamp    time.Time `json:"timestamp" example:"2025-11-04T08:13:24Z"`
}

// SnapshotSummary is one stored observation without the full cell map.
type SnapshotSummary struct {
	ID                    uint      `json:"id" example:"12"`
	CapturedAt            time.Time `json:"captured_at" example:"2025-11-04T08:13:24Z"`
	ReportUpdateTimestamp string    `json:"report_update_timestamp" example:"04.11.2025 10:41"`
	ScheduleHash          string    `json:"schedule_hash"`
	TomorrowHash          string    `json:"tomorrow_hash,omitempty"`
	TomorrowDate          string    `json:"tomorrow_date,omitempty" example:"05.11.25"`
	OutageHoursToday      []string  `json:"outage_hours_today"`
	OutageHoursTomorrow   []string  `json:"outage_hours_tomorrow,omitempty"`
	Anomalies             int       `json:"anomalies" example:"0"`
	SchemaVersion         int       `json:"schema_version" example:"2"`
}

// SnapshotListResponse represents the snapshot history response
type SnapshotListResponse struct {
	Snapshots []SnapshotSummary `json:"snapshots"`
	Count     int               `json:"count" example:"1"`
}

// JobListResponse represents the scheduled jobs response
type JobListResponse struct {
	Jobs      []interface{} `json:"jobs"`
	Count     int           `json:"count" example:"2"`
	Timestamp time.Time     `json:"timestamp" example:"2025-11-04T08:13:24Z"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     bool   `json:"error" example:"true"`
	Message   string `json:"message" example:"Browser session is not ready"`
	Code      int    `json:"code" example:"503"`
	Details   string `json:"details,omitempty" example:"browser session not ready"`
	RequestID string `json:"request_id,omitempty"`
}
