package browser_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"outagewatch/pkg/browser"
	"outagewatch/pkg/browser/browsertest"
)

func newSession(t *testing.T, launcher browser.Launcher, prep browser.Preparer) (*browser.Session, *browser.CookieStore, *[]browser.State) {
	t.Helper()
	store := browser.NewCookieStore(filepath.Join(t.TempDir(), "cookies.json"))
	var mu sync.Mutex
	var states []browser.State
	s := browser.NewSession(browser.SessionConfig{
		Launcher: launcher,
		Preparer: prep,
		Cookies:  store,
		OnStateChange: func(st browser.State) {
			mu.Lock()
			states = append(states, st)
			mu.Unlock()
		},
	})
	return s, store, &states
}

func TestSessionInitReachesReady(t *testing.T) {
	launcher := &browsertest.Launcher{}
	prepared := 0
	s, store, states := newSession(t, launcher, browser.PreparerFunc(func(ctx context.Context, p browser.Page) error {
		prepared++
		return p.SetCookies(ctx, []browser.Cookie{{Name: "sid", Value: "1", Domain: "example.com"}})
	}))

	_, err := s.Page()
	assert.ErrorIs(t, err, browser.ErrNotReady)

	require.NoError(t, s.Init(context.Background()))
	assert.Equal(t, browser.StateReady, s.State())
	assert.Equal(t, 1, prepared)
	assert.Equal(t, []browser.State{browser.StateInitializing, browser.StateReady}, *states)

	page, err := s.Page()
	require.NoError(t, err)
	assert.Same(t, launcher.Last(), page)

	saved, err := store.Load()
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "sid", saved[0].Name)
	assert.True(t, s.HasCookies())
}

func TestSessionInitIsIdempotent(t *testing.T) {
	launcher := &browsertest.Launcher{}
	s, _, _ := newSession(t, launcher, nil)

	require.NoError(t, s.Init(context.Background()))
	require.NoError(t, s.Init(context.Background()))
	assert.Len(t, launcher.Launched(), 1)
}

func TestSessionInitRestoresCookies(t *testing.T) {
	launcher := &browsertest.Launcher{}
	s, store, _ := newSession(t, launcher, nil)
	require.NoError(t, store.Save([]browser.Cookie{{Name: "cf", Value: "ok"}}))

	require.NoError(t, s.Init(context.Background()))

	cookies, err := launcher.Last().Cookies(context.Background())
	require.NoError(t, err)
	require.Len(t, cookies, 1)
	assert.Equal(t, "cf", cookies[0].Name)
}

func TestSessionLaunchFailure(t *testing.T) {
	launcher := &browsertest.Launcher{Err: errors.New("no chrome")}
	s, _, _ := newSession(t, launcher, nil)

	err := s.Init(context.Background())

	var initErr *browser.InitializationError
	require.ErrorAs(t, err, &initErr)
	assert.Equal(t, "launch", initErr.Stage)
	assert.Equal(t, browser.StateUninitialized, s.State())
}

func TestSessionPrepareFailureReleasesBrowser(t *testing.T) {
	launcher := &browsertest.Launcher{}
	navErr := errors.New("field missing")
	s, _, _ := newSession(t, launcher, browser.PreparerFunc(func(context.Context, browser.Page) error {
		return navErr
	}))

	err := s.Init(context.Background())

	var initErr *browser.InitializationError
	require.ErrorAs(t, err, &initErr)
	assert.Equal(t, "navigate", initErr.Stage)
	assert.ErrorIs(t, err, navErr)
	assert.Equal(t, browser.StateUninitialized, s.State())
	assert.Equal(t, 1, launcher.Released())
	_, err = s.OperatorPage()
	assert.ErrorIs(t, err, browser.ErrNotReady)
}

func TestSessionOperatorReachesPageDuringInit(t *testing.T) {
	launcher := &browsertest.Launcher{}
	entered := make(chan struct{})
	proceed := make(chan struct{})
	s, _, _ := newSession(t, launcher, browser.PreparerFunc(func(ctx context.Context, _ browser.Page) error {
		close(entered)
		<-proceed
		return nil
	}))

	done := make(chan error, 1)
	go func() { done <- s.Init(context.Background()) }()
	<-entered

	assert.Equal(t, browser.StateInitializing, s.State())
	assert.ErrorIs(t, s.Init(context.Background()), browser.ErrInitInProgress)

	_, err := s.Page()
	assert.ErrorIs(t, err, browser.ErrNotReady)

	require.NoError(t, s.ClickAt(context.Background(), 10, 20))
	assert.Equal(t, 1, launcher.Last().Count("mouse 10,20"))
	_, err = s.Screenshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, launcher.Last().Count("viewport screenshot"))
	assert.Zero(t, launcher.Last().Count("screenshot"))

	close(proceed)
	require.NoError(t, <-done)
	assert.Equal(t, browser.StateReady, s.State())
}

func TestSessionTeardownIsFinal(t *testing.T) {
	launcher := &browsertest.Launcher{}
	s, _, _ := newSession(t, launcher, nil)
	require.NoError(t, s.Init(context.Background()))
	page := launcher.Last()

	s.Teardown()
	s.Teardown()

	assert.Equal(t, browser.StateClosed, s.State())
	assert.Equal(t, 1, launcher.Released())
	assert.ErrorIs(t, page.Reload(context.Background()), browser.ErrSessionClosed)
	assert.ErrorIs(t, s.Init(context.Background()), browser.ErrSessionClosed)
	assert.ErrorIs(t, s.Restart(context.Background()), browser.ErrSessionClosed)
	_, err := s.Page()
	assert.ErrorIs(t, err, browser.ErrSessionClosed)
}

func TestSessionTeardownInterruptsPrepare(t *testing.T) {
	launcher := &browsertest.Launcher{}
	entered := make(chan struct{})
	s, _, _ := newSession(t, launcher, browser.PreparerFunc(func(ctx context.Context, p browser.Page) error {
		close(entered)
		for {
			if err := p.Reload(ctx); err != nil {
				return err
			}
			time.Sleep(time.Millisecond)
		}
	}))

	done := make(chan error, 1)
	go func() { done <- s.Init(context.Background()) }()
	<-entered
	s.Teardown()

	err := <-done
	assert.ErrorIs(t, err, browser.ErrSessionClosed)
	assert.Equal(t, browser.StateClosed, s.State())
}

func TestSessionRestartReplacesBrowser(t *testing.T) {
	launcher := &browsertest.Launcher{}
	s, _, _ := newSession(t, launcher, nil)
	require.NoError(t, s.Init(context.Background()))
	first := launcher.Last()

	require.NoError(t, s.Restart(context.Background()))

	assert.Len(t, launcher.Launched(), 2)
	assert.True(t, first.Closed())
	page, err := s.Page()
	require.NoError(t, err)
	assert.Same(t, launcher.Last(), page)
	assert.Equal(t, browser.StateReady, s.State())
}

func TestSessionDegradedRoundTrip(t *testing.T) {
	s, _, _ := newSession(t, &browsertest.Launcher{}, nil)

	s.MarkDegraded()
	assert.Equal(t, browser.StateUninitialized, s.State())

	require.NoError(t, s.Init(context.Background()))
	s.MarkDegraded()
	assert.Equal(t, browser.StateDegraded, s.State())
	_, err := s.Page()
	assert.NoError(t, err)

	s.MarkReady()
	assert.Equal(t, browser.StateReady, s.State())
}

func TestSessionClearCookies(t *testing.T) {
	launcher := &browsertest.Launcher{}
	s, store, _ := newSession(t, launcher, nil)
	require.NoError(t, store.Save([]browser.Cookie{{Name: "a"}}))
	require.NoError(t, s.Init(context.Background()))

	require.NoError(t, s.ClearCookies(context.Background()))

	assert.False(t, s.HasCookies())
	cookies, err := launcher.Last().Cookies(context.Background())
	require.NoError(t, err)
	assert.Empty(t, cookies)
}
