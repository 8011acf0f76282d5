package schedule

import "sort"

// Classification summarises how the outage hours moved between two schedules.
type Classification string

const (
	ClassNone       Classification = "none"
	ClassRearranged Classification = "rearranged"
	ClassMoreOutage Classification = "more_outage"
	ClassLessOutage Classification = "less_outage"
	ClassMixed      Classification = "mixed"
)

// ChangeReport is the human-readable outcome of Diff.
type ChangeReport struct {
	AddedOutageHours   []string       `json:"added_outage_hours"`
	RemovedOutageHours []string       `json:"removed_outage_hours"`
	ChangedHours       []string       `json:"changed_hours,omitempty"`
	NetHourDelta       int            `json:"net_hour_delta"`
	Classification     Classification `json:"classification"`
}

// Changed reports whether the diff found anything worth notifying about.
func (r ChangeReport) Changed() bool {
	return r.Classification != ClassNone
}

// Diff compares two schedules hour by hour. Hours missing from either side
// count as Powered. Powered→outage hours are added, outage→Powered hours are
// removed and outage→different outage hours are recorded as changed.
func Diff(old, cur Schedule) ChangeReport {
	var report ChangeReport

	for _, label := range unionLabels(old, cur) {
		before, after := old.StatusOf(label), cur.StatusOf(label)
		switch {
		case before == after:
		case !before.IsOutage() && after.IsOutage():
			report.AddedOutageHours = append(report.AddedOutageHours, label)
		case before.IsOutage() && !after.IsOutage():
			report.RemovedOutageHours = append(report.RemovedOutageHours, label)
		default:
			report.ChangedHours = append(report.ChangedHours, label)
		}
	}

	added, removed := len(report.AddedOutageHours), len(report.RemovedOutageHours)
	report.NetHourDelta = added - removed

	switch {
	case added == 0 && removed == 0 && len(report.ChangedHours) == 0:
		report.Classification = ClassNone
	case added == removed && added > 0:
		report.Classification = ClassRearranged
	case report.NetHourDelta > 0:
		report.Classification = ClassMoreOutage
	case report.NetHourDelta < 0:
		report.Classification = ClassLessOutage
	default:
		report.Classification = ClassMixed
	}
	return report
}

// Comparison holds the per-day reports of one snapshot against a baseline.
// Tomorrow is nil when the current snapshot has no second day.
type Comparison struct {
	Today    ChangeReport
	Tomorrow *ChangeReport
	// Rollover is set when Today was matched against the baseline's Tomorrow.
	Rollover bool
}

// Changed reports whether either compared day moved.
func (c Comparison) Changed() bool {
	return c.Today.Changed() || (c.Tomorrow != nil && c.Tomorrow.Changed())
}

// Compare diffs each day of cur against the baseline day with the same report
// date, so that after midnight the new Today is compared with the old
// Tomorrow. Without readable dates the days are paired by position. A
// Tomorrow with no counterpart is diffed against an empty schedule.
func Compare(base, cur Snapshot) Comparison {
	var c Comparison

	prevToday, ok := base.Day(cur.Schedule.ReportDate)
	if !ok {
		prevToday = base.Schedule
	}
	c.Rollover = ok && prevToday.ReportDate != base.Schedule.ReportDate
	c.Today = Diff(prevToday, cur.Schedule)

	if cur.ScheduleTomorrow == nil {
		return c
	}
	prevTomorrow, ok := base.Day(cur.ScheduleTomorrow.ReportDate)
	if !ok && cur.ScheduleTomorrow.ReportDate == "" && base.ScheduleTomorrow != nil {
		prevTomorrow = *base.ScheduleTomorrow
	}
	report := Diff(prevTomorrow, *cur.ScheduleTomorrow)
	c.Tomorrow = &report
	return c
}

func unionLabels(a, b Schedule) []string {
	seen := make(map[string]struct{})
	var labels []string
	add := func(s Schedule) {
		for _, label := range canonicalLabels(s) {
			if _, ok := seen[label]; ok {
				continue
			}
			seen[label] = struct{}{}
			labels = append(labels, label)
		}
	}
	add(a)
	add(b)
	sort.Strings(labels)
	return labels
}
