package handlers

import (
	"context"
	"time"

	"outagewatch/pkg/config"
	"outagewatch/pkg/logger"
	"outagewatch/pkg/monitor"
	"outagewatch/pkg/scheduler"
	"outagewatch/pkg/schedule"
)

const (
	ServiceName    = "outagewatch"
	ServiceVersion = "1.0.0"
)

// SnapshotLister reads stored snapshots, newest first.
type SnapshotLister interface {
	List(ctx context.Context, limit int) ([]schedule.Snapshot, error)
}

// HandlerService provides HTTP handlers for the API
type HandlerService struct {
	config    *config.Config
	ctx       context.Context
	monitor   *monitor.Monitor
	snapshots SnapshotLister
	scheduler *scheduler.TaskScheduler
	started   time.Time
}

// NewHandlerService creates a new handler service. ctx bounds background
// init and restart runs started from the API.
func NewHandlerService(ctx context.Context, cfg *config.Config, mon *monitor.Monitor, snapshots SnapshotLister) *HandlerService {
	logger.Info("Initializing handler service")

	return &HandlerService{
		config:    cfg,
		ctx:       ctx,
		monitor:   mon,
		snapshots: snapshots,
		started:   time.Now(),
	}
}

// SetScheduler sets the scheduler reference (called after scheduler is created)
func (h *HandlerService) SetScheduler(s *scheduler.TaskScheduler) {
	h.scheduler = s
}

// GetConfig returns the handler service configuration
func (h *HandlerService) GetConfig() *config.Config {
	return h.config
}

// IsSchedulerAvailable checks if scheduler is available
func (h *HandlerService) IsSchedulerAvailable() bool {
	return h.scheduler != nil
}
