package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"outagewatch/internal/models"
	"outagewatch/pkg/schedule"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := Open(Config{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "outagewatch.db")})
	require.NoError(t, err)
	s, err := New(db)
	require.NoError(t, err)
	return s
}

func sample(outage ...string) schedule.Schedule {
	s := schedule.Schedule{ReportDate: "18.10.26", CellStatus: map[string]schedule.Status{}}
	for h := 0; h < 24; h++ {
		label := time.Date(0, 1, 1, h, 0, 0, 0, time.UTC).Format("15:04")
		s.HourLabels = append(s.HourLabels, label)
		s.CellStatus[label] = schedule.StatusPowered
	}
	for _, label := range outage {
		s.CellStatus[label] = schedule.StatusScheduled
	}
	return s
}

func TestLoadLatestEmpty(t *testing.T) {
	_, err := newTestStore(t).LoadLatest(context.Background())
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestAppendAndLoadLatest(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)

	first := schedule.NewSnapshot(base, "18.10.2026 09:00", sample(), nil)
	tomorrow := sample("08:00", "09:00")
	second := schedule.NewSnapshot(base.Add(time.Hour), "18.10.2026 10:55", sample("14:00"), &tomorrow)
	require.NoError(t, s.Append(ctx, first))
	require.NoError(t, s.Append(ctx, second))

	latest, err := s.LoadLatest(ctx)
	require.NoError(t, err)
	assert.NotZero(t, latest.ID)
	assert.Equal(t, "18.10.2026 10:55", latest.ReportUpdateTimestamp)
	assert.Equal(t, second.ScheduleHash, latest.ScheduleHash)
	assert.Equal(t, second.ScheduleHash, schedule.Hash(latest.Schedule))
	assert.Equal(t, schedule.SchemaVersion, latest.SchemaVersion)
	require.NotNil(t, latest.ScheduleTomorrow)
	assert.Equal(t, []string{"08:00", "09:00"}, latest.ScheduleTomorrow.OutageHours())
	assert.True(t, latest.SameContent(second))

	all, err := s.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, latest.ID, all[0].ID)
	assert.Nil(t, all[1].ScheduleTomorrow)
}

func TestLoadLatestNormalisesLegacyRows(t *testing.T) {
	s := newTestStore(t)
	legacy := `"{\"date\":\"17.10.26\",\"hours\":{\"01:00\":\"powered\",\"00:00\":\"scheduled\"}}"`
	require.NoError(t, s.db.Create(&models.ScheduleSnapshot{
		CapturedAt:            time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC),
		ReportUpdateTimestamp: "17.10.2026 07:30",
		Schedule:              datatypes.JSON(legacy),
		SchemaVersion:         1,
	}).Error)

	snap, err := s.LoadLatest(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "17.10.26", snap.Schedule.ReportDate)
	assert.Equal(t, []string{"00:00", "01:00"}, snap.Schedule.HourLabels)
	assert.Equal(t, schedule.StatusScheduled, snap.Schedule.StatusOf("00:00"))
	assert.Equal(t, schedule.Hash(snap.Schedule), snap.ScheduleHash)
	assert.Nil(t, snap.ScheduleTomorrow)
	assert.Equal(t, 1, snap.SchemaVersion)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(Config{Driver: "oracle"})
	assert.ErrorIs(t, err, ErrUnsupportedDriver)
}
