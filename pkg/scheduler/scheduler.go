package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"outagewatch/pkg/logger"
)

// Job statuses
const (
	JobStatusScheduled = "scheduled"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// Job names
const (
	JobPoll         = "poll"
	JobDailyRestart = "daily_restart"
)

// Error variables
var (
	ErrJobNotFound = fmt.Errorf("job not found")
)

// Runner is what the scheduled jobs drive.
type Runner interface {
	Poll(ctx context.Context) error
	Restart(ctx context.Context) error
}

// Config holds scheduler configuration
type Config struct {
	PollCron    string
	RestartCron string // empty disables the restart job
	Location    *time.Location
}

// TaskScheduler manages scheduled tasks using cron
type TaskScheduler struct {
	cron      *cron.Cron
	config    *Config
	ctx       context.Context
	jobs      map[string]*ScheduledJob
	jobsMutex sync.RWMutex
	runner    Runner
}

// ScheduledJob represents a scheduled job
type ScheduledJob struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Cron      string       `json:"cron"`
	NextRun   time.Time    `json:"next_run"`
	LastRun   time.Time    `json:"last_run"`
	Status    string       `json:"status"`
	LastError string       `json:"last_error,omitempty"`
	Runs      int          `json:"runs"`
	EntryID   cron.EntryID `json:"-"`

	run func(ctx context.Context) error
}

// NewTaskScheduler creates a new task scheduler
func NewTaskScheduler(ctx context.Context, config *Config, runner Runner) (*TaskScheduler, error) {
	logger.Info("Initializing task scheduler")

	loc := config.Location
	if loc == nil {
		loc = time.Local
	}
	cronLog := cronLogger{}

	// Overlapping polls are dropped, not queued.
	cronScheduler := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)

	scheduler := &TaskScheduler{
		cron:   cronScheduler,
		config: config,
		ctx:    ctx,
		jobs:   make(map[string]*ScheduledJob),
		runner: runner,
	}

	if err := scheduler.loadConfiguredJobs(); err != nil {
		return nil, fmt.Errorf("failed to load configured jobs: %w", err)
	}

	logger.Info("Task scheduler initialized",
		zap.Int("job_count", len(scheduler.jobs)),
		zap.String("location", loc.String()))
	return scheduler, nil
}

// Start starts the task scheduler and blocks until its context is cancelled.
func (ts *TaskScheduler) Start() error {
	logger.Info("Starting task scheduler")

	ts.cron.Start()

	ts.jobsMutex.Lock()
	for _, job := range ts.jobs {
		if err := ts.updateJobNextRunTime(job); err != nil {
			logger.Warn("Failed to update next run time after start",
				zap.String("job_name", job.Name),
				zap.Error(err))
		}
	}
	ts.jobsMutex.Unlock()

	ts.logScheduledJobs()

	<-ts.ctx.Done()
	logger.Info("Task scheduler context cancelled")

	return nil
}

// Shutdown gracefully shuts down the task scheduler
func (ts *TaskScheduler) Shutdown(ctx context.Context) error {
	logger.Info("Shutting down task scheduler")

	cronCtx := ts.cron.Stop()

	select {
	case <-cronCtx.Done():
		logger.Info("All scheduled jobs completed")
	case <-ctx.Done():
		logger.Warn("Scheduler shutdown timeout, some jobs may still be running")
	}

	return nil
}

// AddJob adds a new scheduled job
func (ts *TaskScheduler) AddJob(job *ScheduledJob, run func(ctx context.Context) error) error {
	ts.jobsMutex.Lock()
	defer ts.jobsMutex.Unlock()

	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	job.run = run

	entryID, err := ts.cron.AddFunc(job.Cron, ts.createJobFunction(job))
	if err != nil {
		return fmt.Errorf("failed to add cron job %s: %w", job.Name, err)
	}

	job.EntryID = entryID
	job.Status = JobStatusScheduled

	if err := ts.updateJobNextRunTime(job); err != nil {
		logger.Warn("Failed to update next run time", zap.String("job_name", job.Name), zap.Error(err))
	}

	ts.jobs[job.ID] = job

	logger.Info("Added scheduled job",
		zap.String("job_id", job.ID),
		zap.String("job_name", job.Name),
		zap.String("cron", job.Cron),
		zap.Time("next_run", job.NextRun),
	)

	return nil
}

// GetJobs returns copies of all scheduled jobs
func (ts *TaskScheduler) GetJobs() []ScheduledJob {
	ts.jobsMutex.Lock()
	defer ts.jobsMutex.Unlock()

	jobs := make([]ScheduledJob, 0, len(ts.jobs))
	for _, job := range ts.jobs {
		_ = ts.updateJobNextRunTime(job)
		jobs = append(jobs, *job)
	}

	return jobs
}

// GetJobByName returns a copy of the named job
func (ts *TaskScheduler) GetJobByName(name string) (ScheduledJob, error) {
	ts.jobsMutex.RLock()
	defer ts.jobsMutex.RUnlock()

	for _, job := range ts.jobs {
		if job.Name == name {
			return *job, nil
		}
	}
	return ScheduledJob{}, fmt.Errorf("%w: %s", ErrJobNotFound, name)
}

// GetStatus returns scheduler status
func (ts *TaskScheduler) GetStatus() map[string]interface{} {
	ts.jobsMutex.RLock()
	defer ts.jobsMutex.RUnlock()

	return map[string]interface{}{
		"running":   ts.cron != nil,
		"job_count": len(ts.jobs),
		"entries":   len(ts.cron.Entries()),
		"timestamp": time.Now().UTC(),
	}
}

// loadConfiguredJobs registers the poll job and, when configured, the daily
// browser restart.
func (ts *TaskScheduler) loadConfiguredJobs() error {
	if ts.config.PollCron == "" {
		return fmt.Errorf("poll cron expression is required")
	}
	if err := ts.AddJob(&ScheduledJob{Name: JobPoll, Cron: ts.config.PollCron}, ts.runner.Poll); err != nil {
		return err
	}

	if ts.config.RestartCron == "" {
		logger.Info("Daily browser restart disabled")
		return nil
	}
	return ts.AddJob(&ScheduledJob{Name: JobDailyRestart, Cron: ts.config.RestartCron}, ts.runner.Restart)
}

// createJobFunction creates a function to execute for a scheduled job
func (ts *TaskScheduler) createJobFunction(job *ScheduledJob) func() {
	return func() {
		logger.Debug("Executing scheduled job", zap.String("job_id", job.ID), zap.String("job_name", job.Name))

		start := time.Now()
		ts.updateJob(job, func(j *ScheduledJob) {
			j.Status = JobStatusRunning
			j.LastRun = start
			j.Runs++
		})

		err := job.run(ts.ctx)
		if err != nil {
			logger.Error("Scheduled job failed",
				zap.String("job_name", job.Name),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err))
			ts.updateJob(job, func(j *ScheduledJob) {
				j.Status = JobStatusFailed
				j.LastError = err.Error()
			})
			return
		}

		logger.Debug("Scheduled job completed",
			zap.String("job_name", job.Name),
			zap.Duration("duration", time.Since(start)))
		ts.updateJob(job, func(j *ScheduledJob) {
			j.Status = JobStatusCompleted
			j.LastError = ""
		})
	}
}

// logScheduledJobs logs information about all scheduled jobs
func (ts *TaskScheduler) logScheduledJobs() {
	ts.jobsMutex.RLock()
	defer ts.jobsMutex.RUnlock()

	if len(ts.jobs) == 0 {
		logger.Info("No scheduled jobs configured")
		return
	}

	for _, job := range ts.jobs {
		logger.Info("Scheduled job",
			zap.String("job_name", job.Name),
			zap.String("cron", job.Cron),
			zap.Time("next_run", job.NextRun),
			zap.String("status", job.Status),
		)
	}
}

// updateJobNextRunTime updates the next run time for a job. Callers hold jobsMutex.
func (ts *TaskScheduler) updateJobNextRunTime(job *ScheduledJob) error {
	entry := ts.cron.Entry(job.EntryID)
	if entry.Valid() && !entry.Next.IsZero() {
		job.NextRun = entry.Next
		return nil
	}

	// Before Start the cron entry has no next time yet.
	schedule, err := cron.ParseStandard(job.Cron)
	if err != nil {
		return fmt.Errorf("failed to parse cron expression %s: %w", job.Cron, err)
	}
	loc := ts.config.Location
	if loc == nil {
		loc = time.Local
	}
	job.NextRun = schedule.Next(time.Now().In(loc))
	return nil
}

func (ts *TaskScheduler) updateJob(job *ScheduledJob, fn func(*ScheduledJob)) {
	ts.jobsMutex.Lock()
	defer ts.jobsMutex.Unlock()
	fn(job)
}

// cronLogger routes cron's own messages into zap.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Sugar.Debugw("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Sugar.Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
