package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"outagewatch/internal/models"
	"outagewatch/pkg/logger"
	"outagewatch/pkg/schedule"
)

var (
	ErrNoSnapshot        = errors.New("no snapshot stored")
	ErrUnsupportedDriver = errors.New("unsupported database driver")
)

type Config struct {
	Driver string
	DSN    string
}

type gormWriter struct{}

func (gormWriter) Printf(format string, args ...interface{}) {
	logger.Sugar.Debugf(format, args...)
}

// Open connects to sqlite or mysql.
func Open(cfg Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite", "":
		dialector = sqlite.Open(cfg.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.New(gormWriter{}, gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Driver, err)
	}
	return db, nil
}

// Store is the append-only snapshot log.
type Store struct {
	db *gorm.DB
}

// New migrates the schema. Migration only adds tables and columns.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&models.ScheduleSnapshot{}); err != nil {
		return nil, fmt.Errorf("migrate snapshots: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) LoadLatest(ctx context.Context) (schedule.Snapshot, error) {
	var row models.ScheduleSnapshot
	err := s.db.WithContext(ctx).Order("captured_at DESC, id DESC").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return schedule.Snapshot{}, ErrNoSnapshot
	}
	if err != nil {
		return schedule.Snapshot{}, fmt.Errorf("load latest snapshot: %w", err)
	}
	return fromRow(row)
}

// List returns up to limit snapshots, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]schedule.Snapshot, error) {
	var rows []models.ScheduleSnapshot
	if err := s.db.WithContext(ctx).Order("captured_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	out := make([]schedule.Snapshot, 0, len(rows))
	for _, row := range rows {
		snap, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, nil
}

func (s *Store) Append(ctx context.Context, snap schedule.Snapshot) error {
	row, err := toRow(snap)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("append snapshot: %w", err)
	}
	return nil
}

func toRow(snap schedule.Snapshot) (models.ScheduleSnapshot, error) {
	today, err := schedule.EncodeSchedule(snap.Schedule)
	if err != nil {
		return models.ScheduleSnapshot{}, fmt.Errorf("encode schedule: %w", err)
	}
	row := models.ScheduleSnapshot{
		CapturedAt:            snap.CapturedAt,
		ReportUpdateTimestamp: snap.ReportUpdateTimestamp,
		ScheduleHash:          snap.ScheduleHash,
		Schedule:              datatypes.JSON(today),
		TomorrowHash:          snap.TomorrowHash,
		SchemaVersion:         schedule.SchemaVersion,
	}
	if snap.ScheduleTomorrow != nil {
		tomorrow, err := schedule.EncodeSchedule(*snap.ScheduleTomorrow)
		if err != nil {
			return models.ScheduleSnapshot{}, fmt.Errorf("encode tomorrow: %w", err)
		}
		row.ScheduleTomorrow = datatypes.JSON(tomorrow)
	}
	return row, nil
}

func fromRow(row models.ScheduleSnapshot) (schedule.Snapshot, error) {
	today, err := schedule.DecodeSchedule(row.Schedule)
	if err != nil {
		return schedule.Snapshot{}, fmt.Errorf("snapshot %d: %w", row.ID, err)
	}
	snap := schedule.Snapshot{
		ID:                    row.ID,
		CapturedAt:            row.CapturedAt,
		ReportUpdateTimestamp: row.ReportUpdateTimestamp,
		ScheduleHash:          row.ScheduleHash,
		Schedule:              today,
		TomorrowHash:          row.TomorrowHash,
		SchemaVersion:         row.SchemaVersion,
	}
	// Old rows predate hashing in the database.
	if snap.ScheduleHash == "" {
		snap.ScheduleHash = schedule.Hash(today)
	}

	if raw := bytes.TrimSpace(row.ScheduleTomorrow); len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		tomorrow, err := schedule.DecodeSchedule(raw)
		if err != nil {
			return schedule.Snapshot{}, fmt.Errorf("snapshot %d tomorrow: %w", row.ID, err)
		}
		snap.ScheduleTomorrow = &tomorrow
		if snap.TomorrowHash == "" {
			snap.TomorrowHash = schedule.Hash(tomorrow)
		}
	}
	return snap, nil
}
