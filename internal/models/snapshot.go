package models

import (
	"time"

	"gorm.io/datatypes"
)

// ScheduleSnapshot is one stored observation of the outage report. Rows are
// only ever inserted.
type ScheduleSnapshot struct {
	ID                    uint           `gorm:"primaryKey" json:"id"`
	CapturedAt            time.Time      `gorm:"index;not null" json:"captured_at"`
	ReportUpdateTimestamp string         `gorm:"size:128" json:"report_update_timestamp"`
	ScheduleHash          string         `gorm:"size:64;index" json:"schedule_hash"`
	Schedule              datatypes.JSON `json:"schedule"`
	TomorrowHash          string         `gorm:"size:64" json:"tomorrow_hash"`
	ScheduleTomorrow      datatypes.JSON `json:"schedule_tomorrow"`
	SchemaVersion         int            `gorm:"default:1" json:"schema_version"`
	CreatedAt             time.Time      `json:"created_at"`
}

// TableName returns the table name for ScheduleSnapshot model
func (ScheduleSnapshot) TableName() string {
	return "schedule_snapshots"
}
