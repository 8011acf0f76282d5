package notifier

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"outagewatch/pkg/logger"
	"outagewatch/pkg/schedule"
)

// Notification describes one detected schedule change.
type Notification struct {
	ReportTimestamp string
	Report          schedule.ChangeReport
	Today           schedule.Schedule
	TodayPNG        []byte
	// Rollover is set when Today was compared with the previous day's
	// Tomorrow after the report date moved.
	Rollover bool
	// Tomorrow fields are set only when the page offered a second day.
	TomorrowReport *schedule.ChangeReport
	Tomorrow       *schedule.Schedule
	TomorrowPNG    []byte
}

// Sink delivers notifications. Notify is called at most once per change.
type Sink interface {
	Notify(ctx context.Context, n Notification) error
}

var classificationTitles = map[schedule.Classification]string{
	schedule.ClassNone:       "Графік без змін",
	schedule.ClassRearranged: "Відключення перенесено",
	schedule.ClassMoreOutage: "Відключень побільшало",
	schedule.ClassLessOutage: "Відключень поменшало",
	schedule.ClassMixed:      "Графік уточнено",
}

// Caption renders a short plain-text summary of a change report.
func Caption(day string, r schedule.ChangeReport, reportTimestamp string) string {
	title, ok := classificationTitles[r.Classification]
	if !ok {
		title = string(r.Classification)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "⚡ %s (%s)\n", title, day)
	if len(r.AddedOutageHours) > 0 {
		fmt.Fprintf(&b, "➕ Нові відключення: %s\n", strings.Join(r.AddedOutageHours, ", "))
	}
	if len(r.RemovedOutageHours) > 0 {
		fmt.Fprintf(&b, "➖ Скасовано: %s\n", strings.Join(r.RemovedOutageHours, ", "))
	}
	if len(r.ChangedHours) > 0 {
		fmt.Fprintf(&b, "🔁 Змінено: %s\n", strings.Join(r.ChangedHours, ", "))
	}
	if r.NetHourDelta != 0 {
		fmt.Fprintf(&b, "Δ годин: %+d\n", r.NetHourDelta)
	}
	if reportTimestamp != "" {
		fmt.Fprintf(&b, "🕒 Оновлено: %s", reportTimestamp)
	}
	return strings.TrimRight(b.String(), "\n")
}

// LogSink writes notifications to the log. It is used when no messenger is
// configured.
type LogSink struct{}

func (LogSink) Notify(ctx context.Context, n Notification) error {
	fields := []zap.Field{
		zap.String("classification", string(n.Report.Classification)),
		zap.Strings("added", n.Report.AddedOutageHours),
		zap.Strings("removed", n.Report.RemovedOutageHours),
		zap.Strings("changed", n.Report.ChangedHours),
		zap.Int("net_hour_delta", n.Report.NetHourDelta),
		zap.String("report_timestamp", n.ReportTimestamp),
		zap.Bool("rollover", n.Rollover),
	}
	if n.TomorrowReport != nil {
		fields = append(fields, zap.String("tomorrow_classification", string(n.TomorrowReport.Classification)))
	}
	logger.FromContext(ctx).Info("Schedule changed", fields...)
	return nil
}
