package schedule

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hourLabels() []string {
	labels := make([]string, HoursPerDay)
	for i := range labels {
		labels[i] = fmt.Sprintf("%02d:00-%02d:00", i, i+1)
	}
	return labels
}

func allPowered() Schedule {
	labels := hourLabels()
	s := Schedule{ReportDate: "18.10.2026", HourLabels: labels, CellStatus: map[string]Status{}}
	for _, label := range labels {
		s.CellStatus[label] = StatusPowered
	}
	return s
}

func with(s Schedule, status Status, labels ...string) Schedule {
	out := Schedule{ReportDate: s.ReportDate, HourLabels: s.HourLabels, CellStatus: map[string]Status{}}
	for k, v := range s.CellStatus {
		out.CellStatus[k] = v
	}
	for _, label := range labels {
		out.CellStatus[label] = status
	}
	return out
}

func TestHashIsDeterministic(t *testing.T) {
	s := with(allPowered(), StatusScheduled, "14:00-15:00")
	assert.Equal(t, Hash(s), Hash(s))
	assert.Len(t, Hash(s), 64)
}

func TestHashIgnoresLabelOrder(t *testing.T) {
	s := with(allPowered(), StatusFirstHalf, "03:00-04:00")

	reversed := Schedule{CellStatus: s.CellStatus}
	for i := len(s.HourLabels) - 1; i >= 0; i-- {
		reversed.HourLabels = append(reversed.HourLabels, s.HourLabels[i])
	}

	assert.Equal(t, Hash(s), Hash(reversed))
}

func TestHashIgnoresDateAndAnomalies(t *testing.T) {
	a := allPowered()
	b := allPowered()
	b.ReportDate = "19.10.2026"
	b.Anomalies = []Anomaly{{Hour: "00:00-01:00", Class: "cell-weird", Reason: "unrecognized cell class"}}

	assert.Equal(t, Hash(a), Hash(b))
}

func TestHashDistinguishesStatuses(t *testing.T) {
	a := with(allPowered(), StatusFirstHalf, "10:00-11:00")
	b := with(allPowered(), StatusSecondHalf, "10:00-11:00")
	assert.NotEqual(t, Hash(a), Hash(b))
}

func TestDiffRearranged(t *testing.T) {
	old := with(allPowered(), StatusScheduled, "14:00-15:00")
	cur := with(allPowered(), StatusScheduled, "20:00-21:00")

	report := Diff(old, cur)

	assert.Equal(t, ClassRearranged, report.Classification)
	assert.Equal(t, []string{"20:00-21:00"}, report.AddedOutageHours)
	assert.Equal(t, []string{"14:00-15:00"}, report.RemovedOutageHours)
	assert.Equal(t, 0, report.NetHourDelta)
}

func TestDiffMoreOutage(t *testing.T) {
	old := allPowered()
	cur := with(old, StatusScheduled, "08:00-09:00", "09:00-10:00")
	cur = with(cur, StatusSecondHalf, "17:00-18:00")

	report := Diff(old, cur)

	assert.Equal(t, ClassMoreOutage, report.Classification)
	assert.Equal(t, 3, report.NetHourDelta)
	assert.Empty(t, report.RemovedOutageHours)
}

func TestDiffLessOutage(t *testing.T) {
	old := with(allPowered(), StatusScheduled, "08:00-09:00", "09:00-10:00")
	cur := with(old, StatusPowered, "09:00-10:00")

	report := Diff(old, cur)

	assert.Equal(t, ClassLessOutage, report.Classification)
	assert.Equal(t, -1, report.NetHourDelta)
}

func TestDiffMixedOnPartialHourChange(t *testing.T) {
	old := with(allPowered(), StatusScheduled, "12:00-13:00")
	cur := with(old, StatusFirstHalf, "12:00-13:00")

	report := Diff(old, cur)

	assert.Equal(t, ClassMixed, report.Classification)
	assert.Equal(t, []string{"12:00-13:00"}, report.ChangedHours)
	assert.Zero(t, report.NetHourDelta)
}

func TestDiffNoneWhenHashesMatch(t *testing.T) {
	old := with(allPowered(), StatusScheduled, "00:00-01:00")
	cur := with(allPowered(), StatusScheduled, "00:00-01:00")
	cur.ReportDate = "other"

	require.Equal(t, Hash(old), Hash(cur))
	report := Diff(old, cur)
	assert.Equal(t, ClassNone, report.Classification)
	assert.False(t, report.Changed())
}

func TestDiffAddedAndRemovedAreDisjoint(t *testing.T) {
	statuses := []Status{StatusPowered, StatusScheduled, StatusFirstHalf, StatusSecondHalf, StatusUnknown}
	labels := hourLabels()

	for seed := 0; seed < 200; seed++ {
		old, cur := allPowered(), allPowered()
		for i, label := range labels {
			old.CellStatus[label] = statuses[(seed+i*7)%len(statuses)]
			cur.CellStatus[label] = statuses[(seed*3+i*5)%len(statuses)]
		}

		report := Diff(old, cur)
		removed := map[string]bool{}
		for _, h := range report.RemovedOutageHours {
			removed[h] = true
		}
		for _, h := range report.AddedOutageHours {
			assert.False(t, removed[h], "hour %s both added and removed (seed %d)", h, seed)
		}
	}
}

func TestFromCellsUnrecognizedClassDefaultsToPowered(t *testing.T) {
	labels := hourLabels()
	classes := make([]string, len(labels))
	for i := range classes {
		classes[i] = "cell-non-scheduled"
	}
	classes[5] = "cell-something-new"

	s := FromCells("18.10.2026", labels, classes)

	assert.Equal(t, StatusPowered, s.CellStatus[labels[5]])
	require.True(t, s.HasAnomalies())
	require.Len(t, s.Anomalies, 1)
	assert.Equal(t, labels[5], s.Anomalies[0].Hour)
	assert.Equal(t, "cell-something-new", s.Anomalies[0].Class)
}

func TestFromCellsMissingCellsAreUnknown(t *testing.T) {
	labels := hourLabels()
	s := FromCells("", labels, []string{"cell-scheduled", "cell-first-half"})

	assert.Equal(t, StatusScheduled, s.CellStatus[labels[0]])
	assert.Equal(t, StatusFirstHalf, s.CellStatus[labels[1]])
	for _, label := range labels[2:] {
		assert.Equal(t, StatusUnknown, s.CellStatus[label])
	}
	assert.Len(t, s.Anomalies, HoursPerDay-2)
}

func TestFromCellsShortHeaderIsFlagged(t *testing.T) {
	s := FromCells("", []string{"00-01", "01-02"}, []string{"cell-scheduled", "cell-scheduled"})
	require.Len(t, s.Anomalies, 1)
	assert.Contains(t, s.Anomalies[0].Reason, "expected 24")
}

func TestClassifyCell(t *testing.T) {
	cases := map[string]Status{
		"cell-non-scheduled":         StatusPowered,
		"cell-scheduled":             StatusScheduled,
		"cell-scheduled-maybe":       StatusScheduled,
		"cell-first-half":            StatusFirstHalf,
		"td cell-second-half active": StatusSecondHalf,
	}
	for class, want := range cases {
		got, ok := ClassifyCell(class)
		assert.True(t, ok, class)
		assert.Equal(t, want, got, class)
	}

	got, ok := ClassifyCell("cell-scheduledish")
	assert.False(t, ok)
	assert.Equal(t, StatusPowered, got)
}

func TestNewSnapshotHashesBothDays(t *testing.T) {
	today := with(allPowered(), StatusScheduled, "10:00-11:00")
	tomorrow := allPowered()

	snap := NewSnapshot(time.Now(), "18.10.2026 10:15", today, &tomorrow)

	assert.Equal(t, Hash(today), snap.ScheduleHash)
	assert.Equal(t, Hash(tomorrow), snap.TomorrowHash)
	assert.Equal(t, SchemaVersion, snap.SchemaVersion)

	other := NewSnapshot(time.Now(), "18.10.2026 11:00", today, &tomorrow)
	assert.True(t, snap.SameContent(other))
}

func dated(s Schedule, date string) Schedule {
	s.ReportDate = date
	return s
}

func TestCarryTomorrowKeepsPreviousDay(t *testing.T) {
	today := with(allPowered(), StatusScheduled, "14:00-15:00")
	tomorrow := dated(with(allPowered(), StatusScheduled, "09:00-10:00"), "19.10.2026")
	base := NewSnapshot(time.Now(), "18.10.2026 09:00", today, &tomorrow)

	cur := NewSnapshot(time.Now(), "18.10.2026 10:00", today, nil).CarryTomorrow(base)

	require.NotNil(t, cur.ScheduleTomorrow)
	assert.Equal(t, base.TomorrowHash, cur.TomorrowHash)
	assert.True(t, cur.SameContent(base))
}

func TestCarryTomorrowSkipsNewDay(t *testing.T) {
	tomorrow := dated(allPowered(), "19.10.2026")
	base := NewSnapshot(time.Now(), "18.10.2026 22:00", allPowered(), &tomorrow)

	cur := NewSnapshot(time.Now(), "19.10.2026 00:10", dated(allPowered(), "19.10.2026"), nil).CarryTomorrow(base)

	assert.Nil(t, cur.ScheduleTomorrow)
	assert.Empty(t, cur.TomorrowHash)
}

func TestCompareSameDay(t *testing.T) {
	base := NewSnapshot(time.Now(), "18.10.2026 09:00", with(allPowered(), StatusScheduled, "14:00-15:00"), nil)
	cur := NewSnapshot(time.Now(), "18.10.2026 10:00", with(allPowered(), StatusScheduled, "20:00-21:00"), nil)

	c := Compare(base, cur)

	assert.True(t, c.Changed())
	assert.False(t, c.Rollover)
	assert.Equal(t, ClassRearranged, c.Today.Classification)
	assert.Nil(t, c.Tomorrow)
}

func TestCompareRolloverMatchesPreviousTomorrow(t *testing.T) {
	tomorrow := dated(with(allPowered(), StatusScheduled, "09:00-10:00"), "19.10.2026")
	base := NewSnapshot(time.Now(), "18.10.2026 22:00", with(allPowered(), StatusScheduled, "14:00-15:00"), &tomorrow)
	cur := NewSnapshot(time.Now(), "19.10.2026 00:10", tomorrow, nil)

	c := Compare(base, cur)

	assert.True(t, c.Rollover)
	assert.Equal(t, ClassNone, c.Today.Classification)
	assert.False(t, c.Changed())
}

func TestCompareNewTomorrowAgainstEmpty(t *testing.T) {
	base := NewSnapshot(time.Now(), "18.10.2026 09:00", allPowered(), nil)
	tomorrow := dated(with(allPowered(), StatusScheduled, "09:00-10:00"), "19.10.2026")
	cur := NewSnapshot(time.Now(), "18.10.2026 12:00", allPowered(), &tomorrow)

	c := Compare(base, cur)

	require.NotNil(t, c.Tomorrow)
	assert.Equal(t, ClassMoreOutage, c.Tomorrow.Classification)
	assert.Equal(t, []string{"09:00-10:00"}, c.Tomorrow.AddedOutageHours)
	assert.True(t, c.Changed())
}

func TestCompareUndatedDaysPairByPosition(t *testing.T) {
	baseTomorrow := dated(with(allPowered(), StatusScheduled, "09:00-10:00"), "")
	base := NewSnapshot(time.Now(), "18.10.2026 09:00", dated(allPowered(), ""), &baseTomorrow)
	curTomorrow := dated(with(allPowered(), StatusScheduled, "09:00-10:00"), "")
	cur := NewSnapshot(time.Now(), "18.10.2026 10:00", dated(allPowered(), ""), &curTomorrow)

	c := Compare(base, cur)

	require.NotNil(t, c.Tomorrow)
	assert.Equal(t, ClassNone, c.Tomorrow.Classification)
	assert.False(t, c.Changed())
}
