package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"outagewatch/pkg/logger"
)

type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateDegraded
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateDegraded:
		return "degraded"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type SessionConfig struct {
	Launcher Launcher
	Preparer Preparer
	// Cookies is optional; without it the jar lives only as long as the
	// browser.
	Cookies       *CookieStore
	OnStateChange func(State)
}

// Session owns the single browser and its tab.
type Session struct {
	launcher      Launcher
	preparer      Preparer
	cookies       *CookieStore
	onStateChange func(State)

	// initMu serialises Init and Restart; mu guards the fields below.
	initMu  sync.Mutex
	mu      sync.Mutex
	state   State
	page    Page
	release func()
}

func NewSession(cfg SessionConfig) *Session {
	return &Session{
		launcher:      cfg.Launcher,
		preparer:      cfg.Preparer,
		cookies:       cfg.Cookies,
		onStateChange: cfg.OnStateChange,
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Init launches the browser and prepares the page. It is a no-op on a live
// session and fails fast when another initialization is running.
func (s *Session) Init(ctx context.Context) error {
	if !s.initMu.TryLock() {
		return ErrInitInProgress
	}
	defer s.initMu.Unlock()
	return s.initLocked(ctx)
}

// Restart saves cookies, drops the browser and initializes from scratch.
// A pending Init is interrupted because its page goes away.
func (s *Session) Restart(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	page, release := s.page, s.release
	s.page, s.release = nil, nil
	s.setStateLocked(StateUninitialized)
	s.mu.Unlock()

	if page != nil {
		s.saveCookies(ctx, page)
		release()
	}
	logger.FromContext(ctx).Info("Browser session restarting")

	s.initMu.Lock()
	defer s.initMu.Unlock()
	return s.initLocked(ctx)
}

// Teardown releases the browser for good.
func (s *Session) Teardown() {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	page, release := s.page, s.release
	s.page, s.release = nil, nil
	s.setStateLocked(StateClosed)
	s.mu.Unlock()

	if page != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		s.saveCookies(ctx, page)
		cancel()
		release()
	}
	logger.Info("Browser session closed")
}

func (s *Session) initLocked(ctx context.Context) error {
	s.mu.Lock()
	switch {
	case s.state == StateClosed:
		s.mu.Unlock()
		return ErrSessionClosed
	case s.page != nil && (s.state == StateReady || s.state == StateDegraded):
		s.mu.Unlock()
		return nil
	}
	s.setStateLocked(StateInitializing)
	s.mu.Unlock()

	log := logger.FromContext(ctx)
	log.Info("Initializing browser session")

	page, release, err := s.launcher.Launch(ctx)
	if err != nil {
		s.resetIfInitializing()
		return &InitializationError{Stage: "launch", Err: err}
	}

	if s.cookies != nil {
		cookies, err := s.cookies.Load()
		if err != nil {
			log.Warn("Ignoring unreadable cookie file", zap.Error(err))
		} else if len(cookies) > 0 {
			if err := page.SetCookies(ctx, cookies); err != nil {
				log.Warn("Failed to restore cookies", zap.Error(err))
			} else {
				log.Info("Restored cookies", zap.Int("count", len(cookies)))
			}
		}
	}

	// Publish the page before preparing so the operator can see and click
	// through a challenge while Prepare waits on it.
	s.mu.Lock()
	if s.state != StateInitializing {
		s.mu.Unlock()
		release()
		return ErrSessionClosed
	}
	s.page, s.release = page, release
	s.mu.Unlock()

	if s.preparer != nil {
		if err := s.preparer.Prepare(ctx, page); err != nil {
			s.dropPage(page)
			release()
			return &InitializationError{Stage: "navigate", Err: err}
		}
	}

	s.mu.Lock()
	if s.page != page || s.state != StateInitializing {
		// Restart or Teardown took the page while we were preparing.
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.setStateLocked(StateReady)
	s.mu.Unlock()

	s.saveCookies(ctx, page)
	log.Info("Browser session ready")
	return nil
}

func (s *Session) resetIfInitializing() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateInitializing {
		s.setStateLocked(StateUninitialized)
	}
}

func (s *Session) dropPage(page Page) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.page != page {
		return
	}
	s.page, s.release = nil, nil
	if s.state != StateClosed {
		s.setStateLocked(StateUninitialized)
	}
}

// Page returns the tab for polling. Only Ready and Degraded sessions hand it
// out.
func (s *Session) Page() (Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.state == StateClosed:
		return nil, ErrSessionClosed
	case s.page == nil || (s.state != StateReady && s.state != StateDegraded):
		return nil, ErrNotReady
	}
	return s.page, nil
}

// OperatorPage returns the tab whenever one exists, including while the
// session is still initializing.
func (s *Session) OperatorPage() (Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return nil, ErrSessionClosed
	}
	if s.page == nil {
		return nil, ErrNotReady
	}
	return s.page, nil
}

func (s *Session) MarkDegraded() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateReady {
		s.setStateLocked(StateDegraded)
	}
}

func (s *Session) MarkReady() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateDegraded {
		s.setStateLocked(StateReady)
	}
}

// Screenshot captures the visible part of the live tab for the operator.
// Its pixels are the coordinates ClickAt expects.
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	page, err := s.OperatorPage()
	if err != nil {
		return nil, err
	}
	return page.ViewportScreenshot(ctx)
}

// ClickAt dispatches a synthetic mouse click at viewport coordinates.
func (s *Session) ClickAt(ctx context.Context, x, y float64) error {
	page, err := s.OperatorPage()
	if err != nil {
		return err
	}
	return page.MouseClick(ctx, x, y)
}

// SaveCookies writes the tab's cookies to the cookie file.
func (s *Session) SaveCookies(ctx context.Context) error {
	if s.cookies == nil {
		return nil
	}
	page, err := s.OperatorPage()
	if err != nil {
		return err
	}
	cookies, err := page.Cookies(ctx)
	if err != nil {
		return fmt.Errorf("read cookies: %w", err)
	}
	return s.cookies.Save(cookies)
}

// ClearCookies empties both the live jar and the cookie file.
func (s *Session) ClearCookies(ctx context.Context) error {
	if page, err := s.OperatorPage(); err == nil {
		if err := page.ClearCookies(ctx); err != nil {
			return fmt.Errorf("clear browser cookies: %w", err)
		}
	}
	if s.cookies != nil {
		return s.cookies.Clear()
	}
	return nil
}

func (s *Session) HasCookies() bool {
	return s.cookies != nil && s.cookies.Exists()
}

func (s *Session) saveCookies(ctx context.Context, page Page) {
	if s.cookies == nil {
		return
	}
	cookies, err := page.Cookies(ctx)
	if err != nil {
		logger.FromContext(ctx).Warn("Failed to read cookies", zap.Error(err))
		return
	}
	if err := s.cookies.Save(cookies); err != nil {
		logger.FromContext(ctx).Warn("Failed to persist cookies", zap.Error(err))
	}
}

func (s *Session) setStateLocked(st State) {
	if s.state == st {
		return
	}
	s.state = st
	if s.onStateChange != nil {
		s.onStateChange(st)
	}
}
