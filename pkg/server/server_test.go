package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"outagewatch/pkg/browser"
	"outagewatch/pkg/browser/browsertest"
	"outagewatch/pkg/config"
	"outagewatch/pkg/extractor"
	"outagewatch/pkg/metrics"
	"outagewatch/pkg/middleware"
	"outagewatch/pkg/models"
	"outagewatch/pkg/monitor"
	"outagewatch/pkg/navigator"
	"outagewatch/pkg/schedule"
	"outagewatch/pkg/scheduler"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type noCaptcha struct{}

func (noCaptcha) AwaitCaptcha(context.Context, browser.Page) (bool, error) { return false, nil }

type fixedCapturer struct {
	mu        sync.Mutex
	timestamp string
	outage    []int
}

func (f *fixedCapturer) ReportTimestamp(context.Context, browser.Page) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.timestamp, nil
}

func (f *fixedCapturer) Capture(context.Context, browser.Page) (*extractor.Capture, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	labels := make([]string, schedule.HoursPerDay)
	classes := make([]string, schedule.HoursPerDay)
	for i := range labels {
		labels[i] = fmt.Sprintf("%02d-%02d", i, i+1)
		classes[i] = "cell-non-scheduled"
	}
	for _, h := range f.outage {
		classes[h] = "cell-scheduled"
	}
	return &extractor.Capture{
		CapturedAt: time.Now(),
		Timestamp:  f.timestamp,
		Today:      schedule.FromCells("18.10.26", labels, classes),
	}, nil
}

type fakeSnapshots struct {
	snaps []schedule.Snapshot
	err   error
	limit int
}

func (f *fakeSnapshots) List(_ context.Context, limit int) ([]schedule.Snapshot, error) {
	f.limit = limit
	if f.err != nil {
		return nil, f.err
	}
	if len(f.snaps) > limit {
		return f.snaps[:limit], nil
	}
	return f.snaps, nil
}

type fixture struct {
	launcher  *browsertest.Launcher
	monitor   *monitor.Monitor
	snapshots *fakeSnapshots
	server    *HTTPServer
}

func newFixture(t *testing.T, mutate func(*config.Config)) *fixture {
	t.Helper()
	return newFixtureWithPreparer(t, mutate, nil)
}

func newFixtureWithPreparer(t *testing.T, mutate func(*config.Config), prep browser.Preparer) *fixture {
	t.Helper()
	cfg, err := config.LoadConfig(t.TempDir() + "/missing.yaml")
	require.NoError(t, err)
	cfg.Browser.CookieFile = t.TempDir() + "/cookies.json"
	if mutate != nil {
		mutate(cfg)
	}

	f := &fixture{
		launcher:  &browsertest.Launcher{},
		snapshots: &fakeSnapshots{},
	}
	session := browser.NewSession(browser.SessionConfig{
		Launcher: f.launcher,
		Preparer: prep,
		Cookies:  browser.NewCookieStore(cfg.Browser.CookieFile),
	})
	t.Cleanup(session.Teardown)

	f.monitor = monitor.New(monitor.Config{
		Session:   session,
		Captcha:   noCaptcha{},
		Extractor: &fixedCapturer{timestamp: "18.10.2026 09:00", outage: []int{14, 15}},
	})

	reg := prometheus.NewRegistry()
	_, err = metrics.NewRecorder(reg)
	require.NoError(t, err)

	f.server, err = NewHTTPServer(context.Background(), &Config{
		Address:   "127.0.0.1",
		Port:      0,
		Config:    cfg,
		Monitor:   f.monitor,
		Snapshots: f.snapshots,
		Gatherer:  reg,
	})
	require.NoError(t, err)
	return f
}

func (f *fixture) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func TestNewHTTPServerNeedsMonitor(t *testing.T) {
	_, err := NewHTTPServer(context.Background(), &Config{})
	assert.Error(t, err)
}

func TestHealthIsLiveWithoutBrowser(t *testing.T) {
	f := newFixture(t, nil)

	rr := f.do(http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get(middleware.RequestIDHeader))

	health := decode[models.HealthResponse](t, rr)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "uninitialized", health.SessionState)
}

func TestStatusBeforeInit(t *testing.T) {
	f := newFixture(t, nil)

	rr := f.do(http.MethodGet, "/api/v1/status", "")
	require.Equal(t, http.StatusOK, rr.Code)

	status := decode[models.SystemStatus](t, rr)
	assert.Equal(t, "outagewatch", status.Service)
	assert.Equal(t, "uninitialized", status.SessionState)
	assert.Equal(t, schedule.UnknownTimestamp, status.LastReportTimestamp)
	assert.Empty(t, status.OutageHoursToday)
	assert.Nil(t, status.Scheduler)
}

func TestScreenshotNeedsBrowser(t *testing.T) {
	f := newFixture(t, nil)

	rr := f.do(http.MethodGet, "/api/v1/screenshot", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	errResp := decode[models.ErrorResponse](t, rr)
	assert.True(t, errResp.Error)
	assert.Equal(t, http.StatusServiceUnavailable, errResp.Code)
}

func TestInitWaitThenOperate(t *testing.T) {
	f := newFixture(t, nil)

	rr := f.do(http.MethodPost, "/api/v1/init?wait=true", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	action := decode[models.ActionResponse](t, rr)
	assert.Equal(t, "ready", action.SessionState)

	status := decode[models.SystemStatus](t, f.do(http.MethodGet, "/api/v1/status", ""))
	assert.Equal(t, "ready", status.SessionState)
	assert.Equal(t, "18.10.2026 09:00", status.LastReportTimestamp)
	assert.Equal(t, []string{"14-15", "15-16"}, status.OutageHoursToday)
	assert.Equal(t, metrics.OutcomeBaseline, status.LastOutcome)

	rr = f.do(http.MethodGet, "/api/v1/screenshot", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
	assert.Equal(t, "png", rr.Body.String())
	assert.Equal(t, 1, f.launcher.Last().Count("viewport screenshot"))

	rr = f.do(http.MethodPost, "/api/v1/click", `{"x": 640, "y": 360}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, 1, f.launcher.Last().Count("mouse 640,360"))

	rr = f.do(http.MethodPost, "/api/v1/check", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, metrics.OutcomeSameHash, decode[models.ActionResponse](t, rr).Outcome)

	rr = f.do(http.MethodPost, "/api/v1/cookies/clear", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, f.launcher.Last().Count("clearcookies"))
}

func TestInitAsyncAccepted(t *testing.T) {
	f := newFixture(t, nil)

	rr := f.do(http.MethodGet, "/api/v1/init", "")
	require.Equal(t, http.StatusAccepted, rr.Code)

	assert.Eventually(t, func() bool {
		return f.monitor.Session().State() == browser.StateReady
	}, 2*time.Second, 10*time.Millisecond)
}

func TestInitOnClosedSession(t *testing.T) {
	f := newFixture(t, nil)
	f.monitor.Session().Teardown()

	rr := f.do(http.MethodPost, "/api/v1/init", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	rr = f.do(http.MethodPost, "/api/v1/restart", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestOperatorSurfaceSurvivesAbortedInit(t *testing.T) {
	var attempts atomic.Int32
	f := newFixtureWithPreparer(t, nil, browser.PreparerFunc(func(context.Context, browser.Page) error {
		if attempts.Add(1) == 1 {
			return &navigator.CaptchaTimeoutError{Waited: 5 * time.Minute, Polls: 300}
		}
		return nil
	}))

	rr := f.do(http.MethodPost, "/api/v1/init?wait=true", "")
	require.Equal(t, http.StatusBadGateway, rr.Code, rr.Body.String())
	assert.Contains(t, decode[models.ErrorResponse](t, rr).Details, "captcha still present")

	status := decode[models.SystemStatus](t, f.do(http.MethodGet, "/api/v1/status", ""))
	assert.Equal(t, "uninitialized", status.SessionState)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/health", "").Code)

	rr = f.do(http.MethodPost, "/api/v1/check", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, metrics.OutcomeSkipped, decode[models.ActionResponse](t, rr).Outcome)

	rr = f.do(http.MethodPost, "/api/v1/init?wait=true", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "ready", decode[models.ActionResponse](t, rr).SessionState)
	assert.Len(t, f.launcher.Launched(), 2)
}

func TestRestartWaitKeepsBaseline(t *testing.T) {
	f := newFixture(t, nil)
	require.Equal(t, http.StatusOK, f.do(http.MethodPost, "/api/v1/init?wait=true", "").Code)
	before := decode[models.SystemStatus](t, f.do(http.MethodGet, "/api/v1/status", ""))

	rr := f.do(http.MethodPost, "/api/v1/restart?wait=true", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Len(t, f.launcher.Launched(), 2)
	assert.Equal(t, 1, f.launcher.Released())

	after := decode[models.SystemStatus](t, f.do(http.MethodGet, "/api/v1/status", ""))
	assert.Equal(t, before.BaselineHash, after.BaselineHash)
}

func TestClickValidation(t *testing.T) {
	f := newFixture(t, nil)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing y", `{"x": 1}`, http.StatusBadRequest},
		{"not json", `x=1`, http.StatusBadRequest},
		{"negative", `{"x": -1, "y": 5}`, http.StatusBadRequest},
		{"no browser", `{"x": 1, "y": 5}`, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := f.do(http.MethodPost, "/api/v1/click", tt.body)
			assert.Equal(t, tt.want, rr.Code, rr.Body.String())
		})
	}
}

func TestClickRateLimited(t *testing.T) {
	f := newFixture(t, func(cfg *config.Config) {
		cfg.Server.ClickRate = 0.001
		cfg.Server.ClickBurst = 2
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, f.do(http.MethodPost, "/api/v1/click", `{"x": -1, "y": -1}`).Code)
	}
	assert.Equal(t, []int{http.StatusBadRequest, http.StatusBadRequest, http.StatusTooManyRequests}, codes)
}

func TestSnapshotsEndpoint(t *testing.T) {
	f := newFixture(t, nil)
	tomorrow := schedule.FromCells("19.10.26", []string{"00-01"}, []string{"cell-scheduled"})
	f.snapshots.snaps = []schedule.Snapshot{
		schedule.NewSnapshot(time.Now(), "18.10.2026 11:00", schedule.FromCells("18.10.26", []string{"00-01"}, []string{"cell-scheduled"}), &tomorrow),
		schedule.NewSnapshot(time.Now().Add(-time.Hour), "18.10.2026 09:00", schedule.FromCells("18.10.26", []string{"00-01"}, []string{"cell-non-scheduled"}), nil),
	}

	rr := f.do(http.MethodGet, "/api/v1/snapshots", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 20, f.snapshots.limit)
	list := decode[models.SnapshotListResponse](t, rr)
	require.Equal(t, 2, list.Count)
	assert.Equal(t, "18.10.2026 11:00", list.Snapshots[0].ReportUpdateTimestamp)
	assert.Equal(t, "19.10.26", list.Snapshots[0].TomorrowDate)
	assert.Equal(t, []string{"00-01"}, list.Snapshots[0].OutageHoursToday)
	assert.Empty(t, list.Snapshots[1].OutageHoursToday)

	f.do(http.MethodGet, "/api/v1/snapshots?limit=10000", "")
	assert.Equal(t, 500, f.snapshots.limit)

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/api/v1/snapshots?limit=abc", "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/api/v1/snapshots?limit=0", "").Code)

	f.snapshots.err = errors.New("database is locked")
	assert.Equal(t, http.StatusInternalServerError, f.do(http.MethodGet, "/api/v1/snapshots", "").Code)
}

func TestConfigEndpointMasksSecrets(t *testing.T) {
	f := newFixture(t, func(cfg *config.Config) {
		cfg.Telegram.BotToken = "123456789:ABCDEFGHIJKLMNOP"
	})

	rr := f.do(http.MethodGet, "/api/v1/config", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "ABCDEFGHIJKLMNOP")
	assert.Contains(t, rr.Body.String(), "1234***NOP")
}

func TestSchedulerEndpoints(t *testing.T) {
	f := newFixture(t, nil)

	assert.Equal(t, http.StatusServiceUnavailable, f.do(http.MethodGet, "/api/v1/scheduler/status", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, f.do(http.MethodGet, "/api/v1/scheduler/jobs", "").Code)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	sched, err := scheduler.NewTaskScheduler(ctx, &scheduler.Config{
		PollCron:    "@every 5m",
		RestartCron: "0 4 * * *",
		Location:    time.UTC,
	}, f.monitor)
	require.NoError(t, err)
	f.server.SetScheduler(sched)

	rr := f.do(http.MethodGet, "/api/v1/scheduler/jobs", "")
	require.Equal(t, http.StatusOK, rr.Code)
	jobs := decode[struct {
		Jobs  []scheduler.ScheduledJob `json:"jobs"`
		Count int                      `json:"count"`
	}](t, rr)
	assert.Equal(t, 2, jobs.Count)

	status := decode[models.SystemStatus](t, f.do(http.MethodGet, "/api/v1/status", ""))
	require.NotNil(t, status.Scheduler)
	assert.Equal(t, 2, status.Scheduler.JobCount)
}

func TestMetricsAndSwaggerRoutes(t *testing.T) {
	f := newFixture(t, nil)

	rr := f.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "outagewatch_notifications_total")

	rr = f.do(http.MethodGet, "/swagger/doc.json", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "/scheduler/jobs")

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/api/v1/nope", "").Code)
}
