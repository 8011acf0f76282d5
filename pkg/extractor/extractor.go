package extractor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"outagewatch/pkg/browser"
	"outagewatch/pkg/logger"
	"outagewatch/pkg/navigator"
	"outagewatch/pkg/schedule"
)

var ErrNoTable = errors.New("schedule table not found")

// Capture is everything read from the page in one pass.
type Capture struct {
	CapturedAt  time.Time
	Timestamp   string
	Today       schedule.Schedule
	TodayPNG    []byte
	Tomorrow    *schedule.Schedule
	TomorrowPNG []byte
}

// Extractor reads the report out of an already prepared page.
type Extractor struct {
	cfg      Config
	overlays []navigator.Dismisser
	now      func() time.Time
}

// New returns an extractor. Overlays are closed at the start of each capture.
func New(cfg Config, overlays ...navigator.Dismisser) *Extractor {
	return &Extractor{cfg: cfg, overlays: overlays, now: time.Now}
}

func (e *Extractor) waits(afterReload func(context.Context, browser.Page), retries int) *browser.WaitStrategy {
	return &browser.WaitStrategy{
		MaxRetries:  retries,
		Backoff:     e.cfg.RetryBackoff,
		AfterReload: afterReload,
	}
}

func (e *Extractor) closeOverlays(ctx context.Context, page browser.Page) {
	navigator.DismissAll(ctx, page, e.overlays)
}

// ReportTimestamp returns the trimmed "last updated" text. When it cannot be
// read the sentinel schedule.UnknownTimestamp comes back with the error.
func (e *Extractor) ReportTimestamp(ctx context.Context, page browser.Page) (string, error) {
	sel := e.cfg.Selectors.Timestamp
	var text string
	err := e.waits(e.closeOverlays, e.cfg.TimestampRetries).Retry(ctx, page, "report timestamp", func(ctx context.Context) error {
		if err := page.WaitVisible(ctx, sel, e.cfg.TimestampTimeout); err != nil {
			return err
		}
		t, err := page.Text(ctx, sel)
		if err != nil {
			return err
		}
		text = strings.TrimSpace(t)
		if text == "" {
			return fmt.Errorf("%s is empty", sel)
		}
		return nil
	})
	if err != nil {
		return schedule.UnknownTimestamp, err
	}
	return text, nil
}

// Schedule reads the active table. Unrecognised cells become Powered with an
// anomaly attached.
func (e *Extractor) Schedule(ctx context.Context, page browser.Page, tab schedule.Tab) (schedule.Schedule, error) {
	sel := e.cfg.Selectors
	if err := page.WaitVisible(ctx, sel.HeaderCells, e.cfg.TableTimeout); err != nil {
		return schedule.Schedule{}, fmt.Errorf("%s table: %w", tab, err)
	}
	labels, err := page.TextAll(ctx, sel.HeaderCells)
	if err != nil {
		return schedule.Schedule{}, fmt.Errorf("%s header: %w", tab, err)
	}
	classes, err := page.ClassAll(ctx, sel.DataCells)
	if err != nil {
		return schedule.Schedule{}, fmt.Errorf("%s cells: %w", tab, err)
	}
	if len(labels) == 0 {
		return schedule.Schedule{}, fmt.Errorf("%s: %w", tab, ErrNoTable)
	}

	reportDate, err := page.Text(ctx, sel.tab(tab))
	if err != nil {
		logger.FromContext(ctx).Debug("Tab date not readable", zap.Stringer("tab", tab), zap.Error(err))
	}

	s := schedule.FromCells(strings.TrimSpace(reportDate), labels, classes)
	if s.HasAnomalies() {
		logger.FromContext(ctx).Warn("Schedule parsed with anomalies",
			zap.Stringer("tab", tab),
			zap.Int("anomalies", len(s.Anomalies)),
			zap.Any("details", s.Anomalies))
	}
	return s, nil
}

// SwitchTab clicks a date tab and waits for the table to re-render.
func (e *Extractor) SwitchTab(ctx context.Context, page browser.Page, tab schedule.Tab) error {
	sel := e.cfg.Selectors.tab(tab)
	if err := page.WaitVisible(ctx, sel, e.cfg.TabTimeout); err != nil {
		return fmt.Errorf("%s tab: %w", tab, err)
	}
	if err := page.Click(ctx, sel); err != nil {
		return fmt.Errorf("%s tab: %w", tab, err)
	}
	return browser.Sleep(ctx, e.cfg.TabSettle)
}

// Screenshot captures and crops the page, retrying once after a reload. The
// reload drops the selected tab, so it is re-selected.
func (e *Extractor) Screenshot(ctx context.Context, page browser.Page, tab schedule.Tab) ([]byte, error) {
	afterReload := func(ctx context.Context, page browser.Page) {
		e.closeOverlays(ctx, page)
		if tab != schedule.TabToday {
			if err := e.SwitchTab(ctx, page, tab); err != nil {
				logger.FromContext(ctx).Warn("Failed to reselect tab after reload", zap.Error(err))
			}
		}
	}

	var shot []byte
	err := e.waits(afterReload, e.cfg.ScreenshotRetries).Retry(ctx, page, tab.String()+" screenshot", func(ctx context.Context) error {
		var err error
		shot, err = page.Screenshot(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	cropped, err := Crop(shot, e.cfg.CropTop, e.cfg.CropBottom)
	if err != nil {
		logger.FromContext(ctx).Warn("Screenshot left uncropped", zap.Error(err))
	}
	return cropped, nil
}

// Capture reads the timestamp, both days and their screenshots. Tomorrow is
// best-effort; the page is always left on Today.
func (e *Extractor) Capture(ctx context.Context, page browser.Page) (*Capture, error) {
	log := logger.FromContext(ctx)
	e.closeOverlays(ctx, page)

	ts, err := e.ReportTimestamp(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}
	today, err := e.Schedule(ctx, page, schedule.TabToday)
	if err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}
	todayPNG, err := e.Screenshot(ctx, page, schedule.TabToday)
	if err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}

	c := &Capture{
		CapturedAt: e.now(),
		Timestamp:  ts,
		Today:      today,
		TodayPNG:   todayPNG,
	}

	if err := e.captureTomorrow(ctx, page, c); err != nil {
		if ctx.Err() != nil || errors.Is(err, browser.ErrSessionClosed) {
			return nil, err
		}
		log.Warn("Tomorrow schedule unavailable", zap.Error(err))
	}

	if err := e.SwitchTab(ctx, page, schedule.TabToday); err != nil {
		log.Warn("Failed to return to today's tab", zap.Error(err))
	}

	log.Info("Report captured",
		zap.String("report_timestamp", ts),
		zap.Int("today_outage_hours", len(today.OutageHours())),
		zap.Bool("has_tomorrow", c.Tomorrow != nil))
	return c, nil
}

func (e *Extractor) captureTomorrow(ctx context.Context, page browser.Page, c *Capture) error {
	if err := e.SwitchTab(ctx, page, schedule.TabTomorrow); err != nil {
		return err
	}
	tomorrow, err := e.Schedule(ctx, page, schedule.TabTomorrow)
	if err != nil {
		return err
	}
	shot, err := e.Screenshot(ctx, page, schedule.TabTomorrow)
	if err != nil {
		return err
	}
	c.Tomorrow = &tomorrow
	c.TomorrowPNG = shot
	return nil
}
