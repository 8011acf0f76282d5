package schedule

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// SchemaVersion is the version written by EncodeSchedule.
//
// Version 1 rows (never tagged) stored {"date"|"report_date", "hours": {label: status}}
// and were sometimes double-encoded as a JSON string.
const SchemaVersion = 2

type scheduleDoc struct {
	Version    int               `json:"version"`
	ReportDate string            `json:"report_date"`
	HourLabels []string          `json:"hour_labels"`
	CellStatus map[string]Status `json:"cell_status"`
	Anomalies  []Anomaly         `json:"anomalies,omitempty"`
}

type legacyDoc struct {
	Date       string            `json:"date"`
	ReportDate string            `json:"report_date"`
	Hours      map[string]string `json:"hours"`
}

// EncodeSchedule serialises a schedule in the current schema version.
func EncodeSchedule(s Schedule) ([]byte, error) {
	doc := scheduleDoc{
		Version:    SchemaVersion,
		ReportDate: s.ReportDate,
		HourLabels: s.HourLabels,
		CellStatus: s.CellStatus,
		Anomalies:  s.Anomalies,
	}
	if doc.HourLabels == nil {
		doc.HourLabels = []string{}
	}
	if doc.CellStatus == nil {
		doc.CellStatus = map[string]Status{}
	}
	return json.Marshal(doc)
}

// DecodeSchedule is the single deserialisation boundary for persisted
// schedules. It accepts the current document, untagged legacy documents and
// either of those wrapped in a JSON string.
func DecodeSchedule(raw []byte) (Schedule, error) {
	return decodeSchedule(raw, 0)
}

func decodeSchedule(raw []byte, depth int) (Schedule, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Schedule{}, ErrEmptyPayload
	}

	if raw[0] == '"' {
		if depth > 0 {
			return Schedule{}, fmt.Errorf("schedule payload encoded more than twice")
		}
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return Schedule{}, fmt.Errorf("failed to unwrap string payload: %w", err)
		}
		return decodeSchedule([]byte(inner), depth+1)
	}

	var head map[string]json.RawMessage
	if err := json.Unmarshal(raw, &head); err != nil {
		return Schedule{}, fmt.Errorf("failed to parse schedule payload: %w", err)
	}

	if _, tagged := head["version"]; tagged {
		return decodeCurrent(raw)
	}
	return decodeLegacy(raw)
}

func decodeCurrent(raw []byte) (Schedule, error) {
	var doc scheduleDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Schedule{}, fmt.Errorf("failed to decode schedule v%d: %w", SchemaVersion, err)
	}
	if doc.Version > SchemaVersion {
		return Schedule{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, doc.Version)
	}

	s := Schedule{
		ReportDate: doc.ReportDate,
		HourLabels: doc.HourLabels,
		CellStatus: doc.CellStatus,
		Anomalies:  doc.Anomalies,
	}
	if s.CellStatus == nil {
		s.CellStatus = map[string]Status{}
	}
	if len(s.HourLabels) == 0 && len(s.CellStatus) > 0 {
		s.HourLabels = sortedKeys(s.CellStatus)
	}
	return s, nil
}

func decodeLegacy(raw []byte) (Schedule, error) {
	var doc legacyDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Schedule{}, fmt.Errorf("failed to decode legacy schedule: %w", err)
	}

	s := Schedule{
		ReportDate: doc.ReportDate,
		CellStatus: make(map[string]Status, len(doc.Hours)),
	}
	if s.ReportDate == "" {
		s.ReportDate = doc.Date
	}

	for label, value := range doc.Hours {
		var status Status
		if err := status.UnmarshalText([]byte(value)); err != nil {
			status = StatusUnknown
			s.Anomalies = append(s.Anomalies, Anomaly{Hour: label, Class: value, Reason: "unrecognized legacy status"})
		}
		s.CellStatus[label] = status
	}
	s.HourLabels = sortedKeys(s.CellStatus)
	sort.Slice(s.Anomalies, func(i, j int) bool { return s.Anomalies[i].Hour < s.Anomalies[j].Hour })
	return s, nil
}

func sortedKeys(m map[string]Status) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
