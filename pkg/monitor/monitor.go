package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"outagewatch/pkg/browser"
	"outagewatch/pkg/extractor"
	"outagewatch/pkg/logger"
	"outagewatch/pkg/metrics"
	"outagewatch/pkg/navigator"
	"outagewatch/pkg/notifier"
	"outagewatch/pkg/schedule"
	"outagewatch/pkg/store"
)

var ErrBusy = errors.New("a check is already running")

// Store is the snapshot log the monitor reads its baseline from.
type Store interface {
	LoadLatest(ctx context.Context) (schedule.Snapshot, error)
	Append(ctx context.Context, snap schedule.Snapshot) error
}

type Recorder interface {
	Tick(outcome string, took time.Duration)
	Notified()
	Anomalies(n int)
}

// Capturer reads the report from the page.
type Capturer interface {
	ReportTimestamp(ctx context.Context, page browser.Page) (string, error)
	Capture(ctx context.Context, page browser.Page) (*extractor.Capture, error)
}

// CaptchaWaiter blocks while a challenge is on screen.
type CaptchaWaiter interface {
	AwaitCaptcha(ctx context.Context, page browser.Page) (bool, error)
}

type Config struct {
	Session     *browser.Session
	Captcha     CaptchaWaiter
	Extractor   Capturer
	Store       Store
	Sink        notifier.Sink
	Recorder    Recorder
	TickTimeout time.Duration
}

// Monitor runs poll ticks against the shared browser session.
type Monitor struct {
	session     *browser.Session
	captcha     CaptchaWaiter
	extractor   Capturer
	store       Store
	sink        notifier.Sink
	rec         Recorder
	tickTimeout time.Duration
	now         func() time.Time

	// tickMu keeps scheduled ticks and forced checks from overlapping.
	tickMu sync.Mutex

	mu            sync.RWMutex
	baseline      *schedule.Snapshot
	lastTimestamp string
	lastCheckAt   time.Time
	lastOutcome   string
	lastError     string
	lastChangeAt  time.Time
	ticks         int
}

func New(cfg Config) *Monitor {
	if cfg.Recorder == nil {
		cfg.Recorder = nopRecorder{}
	}
	if cfg.Sink == nil {
		cfg.Sink = notifier.LogSink{}
	}
	if cfg.TickTimeout <= 0 {
		cfg.TickTimeout = 5 * time.Minute
	}
	return &Monitor{
		session:     cfg.Session,
		captcha:     cfg.Captcha,
		extractor:   cfg.Extractor,
		store:       cfg.Store,
		sink:        cfg.Sink,
		rec:         cfg.Recorder,
		tickTimeout: cfg.TickTimeout,
		now:         time.Now,
	}
}

func (m *Monitor) Session() *browser.Session {
	return m.session
}

// Init starts the browser session and loads the baseline. With an empty
// store the first capture becomes the baseline and nothing is sent.
func (m *Monitor) Init(ctx context.Context) error {
	ctx = logger.WithComponent(ctx, "monitor")
	if err := m.session.Init(ctx); err != nil {
		logger.FromContext(ctx).Error("Browser session init failed", zap.Error(err))
		return err
	}
	m.loadBaseline(ctx)
	m.captureBaselineIfMissing(ctx)
	return nil
}

func (m *Monitor) captureBaselineIfMissing(ctx context.Context) {
	m.mu.RLock()
	missing := m.baseline == nil
	m.mu.RUnlock()
	if !missing {
		return
	}
	m.tickMu.Lock()
	defer m.tickMu.Unlock()
	_, _ = m.tick(ctx, false)
}

// Restart recycles the browser. The baseline survives.
func (m *Monitor) Restart(ctx context.Context) error {
	ctx = logger.WithComponent(ctx, "monitor")
	if err := m.session.Restart(ctx); err != nil {
		logger.FromContext(ctx).Error("Browser session restart failed", zap.Error(err))
		return err
	}
	m.loadBaseline(ctx)
	return nil
}

func (m *Monitor) loadBaseline(ctx context.Context) {
	m.mu.RLock()
	loaded := m.baseline != nil
	m.mu.RUnlock()
	if loaded || m.store == nil {
		return
	}

	snap, err := m.store.LoadLatest(ctx)
	switch {
	case errors.Is(err, store.ErrNoSnapshot):
		logger.FromContext(ctx).Info("No stored snapshot, capturing a baseline")
	case err != nil:
		logger.FromContext(ctx).Error("Failed to load baseline snapshot", zap.Error(err))
	default:
		m.setBaseline(snap)
		logger.FromContext(ctx).Info("Baseline loaded",
			zap.Uint("snapshot_id", snap.ID),
			zap.String("report_timestamp", snap.ReportUpdateTimestamp),
			zap.String("hash", snap.ScheduleHash))
	}
}

func (m *Monitor) setBaseline(snap schedule.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.baseline = &snap
	m.lastTimestamp = snap.ReportUpdateTimestamp
}

// Poll runs one scheduled tick.
func (m *Monitor) Poll(ctx context.Context) error {
	if !m.tickMu.TryLock() {
		logger.Debug("Previous check still running, skipping tick")
		m.rec.Tick(metrics.OutcomeSkipped, 0)
		return nil
	}
	defer m.tickMu.Unlock()
	_, err := m.tick(ctx, false)
	return err
}

// ForceCheck captures regardless of the report timestamp. The hash gate
// still decides whether anything is sent.
func (m *Monitor) ForceCheck(ctx context.Context) (string, error) {
	if !m.tickMu.TryLock() {
		return "", ErrBusy
	}
	defer m.tickMu.Unlock()
	return m.tick(ctx, true)
}

func (m *Monitor) tick(ctx context.Context, force bool) (string, error) {
	start := m.now()
	ctx = logger.WithCycleID(logger.WithComponent(ctx, "monitor"), uuid.NewString())
	ctx, cancel := context.WithTimeout(ctx, m.tickTimeout)
	defer cancel()

	outcome, err := m.poll(ctx, force)
	if errors.Is(err, browser.ErrSessionClosed) || errors.Is(err, browser.ErrNotReady) {
		outcome, err = metrics.OutcomeSkipped, nil
	}
	m.finish(ctx, outcome, err, start)
	return outcome, err
}

func (m *Monitor) poll(ctx context.Context, force bool) (string, error) {
	log := logger.FromContext(ctx)

	page, err := m.session.Page()
	if err != nil {
		log.Debug("Session not ready, skipping tick", zap.Stringer("state", m.session.State()))
		return metrics.OutcomeSkipped, nil
	}

	seen, err := m.captcha.AwaitCaptcha(ctx, page)
	if err != nil {
		return metrics.OutcomeFailed, err
	}
	if seen {
		if err := m.session.SaveCookies(ctx); err != nil {
			log.Warn("Failed to save cookies after CAPTCHA", zap.Error(err))
		}
	}

	m.mu.RLock()
	baseline, lastTimestamp := m.baseline, m.lastTimestamp
	m.mu.RUnlock()

	if baseline != nil && !force {
		ts, err := m.extractor.ReportTimestamp(ctx, page)
		if err != nil {
			return metrics.OutcomeFailed, err
		}
		if ts == lastTimestamp {
			log.Debug("Report timestamp unchanged", zap.String("report_timestamp", ts))
			return metrics.OutcomeUnchanged, nil
		}
		log.Info("Report timestamp changed", zap.String("previous", lastTimestamp), zap.String("current", ts))
	}

	capture, err := m.extractor.Capture(ctx, page)
	if err != nil {
		return metrics.OutcomeFailed, err
	}
	snap := schedule.NewSnapshot(capture.CapturedAt, capture.Timestamp, capture.Today, capture.Tomorrow)
	anomalies := len(capture.Today.Anomalies)
	if capture.Tomorrow != nil {
		anomalies += len(capture.Tomorrow.Anomalies)
	}
	m.rec.Anomalies(anomalies)

	if baseline == nil {
		m.persist(ctx, snap)
		m.setBaseline(snap)
		log.Info("Baseline captured", zap.String("hash", snap.ScheduleHash))
		return metrics.OutcomeBaseline, nil
	}

	snap = snap.CarryTomorrow(*baseline)
	if snap.SameContent(*baseline) {
		m.mu.Lock()
		m.lastTimestamp = snap.ReportUpdateTimestamp
		m.mu.Unlock()
		log.Info("Report touched without schedule change", zap.String("hash", snap.ScheduleHash))
		return metrics.OutcomeSameHash, nil
	}

	cmp := schedule.Compare(*baseline, snap)
	if !cmp.Changed() {
		m.persist(ctx, snap)
		m.setBaseline(snap)
		log.Info("Report moved to a new day without schedule change",
			zap.String("report_date", snap.Schedule.ReportDate),
			zap.String("hash", snap.ScheduleHash))
		return metrics.OutcomeSameHash, nil
	}

	n := notifier.Notification{
		ReportTimestamp: snap.ReportUpdateTimestamp,
		Report:          cmp.Today,
		Today:           snap.Schedule,
		TodayPNG:        capture.TodayPNG,
		Rollover:        cmp.Rollover,
	}
	if capture.Tomorrow != nil && cmp.Tomorrow != nil {
		n.Tomorrow = snap.ScheduleTomorrow
		n.TomorrowReport = cmp.Tomorrow
		n.TomorrowPNG = capture.TomorrowPNG
	}

	// Write before notify: at most one message per change.
	m.persist(ctx, snap)
	m.setBaseline(snap)
	m.mu.Lock()
	m.lastChangeAt = capture.CapturedAt
	m.mu.Unlock()

	log.Info("Schedule changed",
		zap.String("classification", string(n.Report.Classification)),
		zap.Strings("added", n.Report.AddedOutageHours),
		zap.Strings("removed", n.Report.RemovedOutageHours),
		zap.Int("net_hour_delta", n.Report.NetHourDelta))

	if err := m.sink.Notify(ctx, n); err != nil {
		log.Error("Notification failed", zap.Error(err))
	} else {
		m.rec.Notified()
	}
	return metrics.OutcomeChanged, nil
}

func (m *Monitor) persist(ctx context.Context, snap schedule.Snapshot) {
	if m.store == nil {
		return
	}
	if err := m.store.Append(ctx, snap); err != nil {
		logger.FromContext(ctx).Error("Failed to persist snapshot", zap.Error(err))
	}
}

func (m *Monitor) finish(ctx context.Context, outcome string, err error, start time.Time) {
	took := m.now().Sub(start)
	log := logger.FromContext(ctx)

	switch {
	case err != nil:
		m.session.MarkDegraded()
		var navErr *navigator.NavigationError
		if errors.As(err, &navErr) {
			log.Error("Tick failed on page structure", zap.Error(err), zap.Duration("took", took))
		} else {
			log.Warn("Tick failed, next tick retries", zap.Error(err), zap.Duration("took", took))
		}
	case outcome != metrics.OutcomeSkipped:
		m.session.MarkReady()
	}

	m.rec.Tick(outcome, took)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.ticks++
	m.lastCheckAt = start
	m.lastOutcome = outcome
	m.lastError = ""
	if err != nil {
		m.lastError = err.Error()
	}
}

// Status is the operator view of the watcher.
type Status struct {
	SessionState        string     `json:"session_state"`
	LastReportTimestamp string     `json:"last_report_timestamp"`
	LastCheckAt         *time.Time `json:"last_check_at,omitempty"`
	LastOutcome         string     `json:"last_outcome,omitempty"`
	LastError           string     `json:"last_error,omitempty"`
	LastChangeAt        *time.Time `json:"last_change_at,omitempty"`
	BaselineHash        string     `json:"baseline_hash,omitempty"`
	BaselineCapturedAt  *time.Time `json:"baseline_captured_at,omitempty"`
	OutageHoursToday    []string   `json:"outage_hours_today"`
	HasCookies          bool       `json:"has_cookies"`
	Ticks               int        `json:"ticks"`
}

func (m *Monitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st := Status{
		SessionState:        m.session.State().String(),
		LastReportTimestamp: m.lastTimestamp,
		LastOutcome:         m.lastOutcome,
		LastError:           m.lastError,
		HasCookies:          m.session.HasCookies(),
		Ticks:               m.ticks,
		OutageHoursToday:    []string{},
	}
	if st.LastReportTimestamp == "" {
		st.LastReportTimestamp = schedule.UnknownTimestamp
	}
	if !m.lastCheckAt.IsZero() {
		t := m.lastCheckAt
		st.LastCheckAt = &t
	}
	if !m.lastChangeAt.IsZero() {
		t := m.lastChangeAt
		st.LastChangeAt = &t
	}
	if m.baseline != nil {
		st.BaselineHash = m.baseline.ScheduleHash
		t := m.baseline.CapturedAt
		st.BaselineCapturedAt = &t
		if hours := m.baseline.Schedule.OutageHours(); hours != nil {
			st.OutageHoursToday = hours
		}
	}
	return st
}

type nopRecorder struct{}

func (nopRecorder) Tick(string, time.Duration) {}
func (nopRecorder) Notified()                  {}
func (nopRecorder) Anomalies(int)              {}
