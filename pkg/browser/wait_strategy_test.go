package browser_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"outagewatch/pkg/browser"
	"outagewatch/pkg/browser/browsertest"
)

func TestRetryReloadsBeforeFinalAttempt(t *testing.T) {
	page := browsertest.NewPage()
	afterReload := 0
	ws := &browser.WaitStrategy{MaxRetries: 3, AfterReload: func(context.Context, browser.Page) { afterReload++ }}

	attempts := 0
	err := ws.Retry(context.Background(), page, "dropdown", func(context.Context) error {
		attempts++
		if page.Count("reload") == 0 {
			return errors.New("not visible")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 1, page.Count("reload"))
	assert.Equal(t, 1, afterReload)
}

func TestRetryStopsOnFirstSuccess(t *testing.T) {
	page := browsertest.NewPage()
	ws := &browser.WaitStrategy{MaxRetries: 3}

	err := ws.Retry(context.Background(), page, "step", func(context.Context) error { return nil })

	require.NoError(t, err)
	assert.Zero(t, page.Count("reload"))
}

func TestRetryExhausted(t *testing.T) {
	page := browsertest.NewPage()
	ws := &browser.WaitStrategy{MaxRetries: 2}
	cause := errors.New("still missing")

	err := ws.Retry(context.Background(), page, "step", func(context.Context) error { return cause })

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 1, page.Count("reload"))
}

func TestRetryHonoursCancellation(t *testing.T) {
	page := browsertest.NewPage()
	ws := &browser.WaitStrategy{MaxRetries: 5}
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := ws.Retry(ctx, page, "step", func(context.Context) error {
		calls++
		cancel()
		return errors.New("boom")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
