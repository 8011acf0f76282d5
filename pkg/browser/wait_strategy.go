package browser

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"outagewatch/pkg/logger"
)

// WaitStrategy retries flaky page steps in place. The page is reloaded
// before the last attempt because the site keeps the entered address across
// a reload.
type WaitStrategy struct {
	MaxRetries int
	Backoff    time.Duration
	// AfterReload runs after the pre-final reload, e.g. to close dialogs
	// that the reload brought back.
	AfterReload func(ctx context.Context, page Page)
}

// Retry runs fn until it succeeds, the context ends or the attempts run out.
func (ws *WaitStrategy) Retry(ctx context.Context, page Page, name string, fn func(ctx context.Context) error) error {
	attempts := ws.MaxRetries
	if attempts < 1 {
		attempts = 1
	}
	backoff := ws.Backoff

	var lastErr error
	for i := 1; i <= attempts; i++ {
		if i == attempts && attempts > 1 {
			logger.FromContext(ctx).Info("Reloading page before final attempt", zap.String("step", name))
			if err := page.Reload(ctx); err != nil {
				return fmt.Errorf("%s: reload before final attempt: %w", name, err)
			}
			if ws.AfterReload != nil {
				ws.AfterReload(ctx, page)
			}
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		logger.FromContext(ctx).Warn("Page step failed",
			zap.String("step", name),
			zap.Int("attempt", i),
			zap.Int("max_attempts", attempts),
			zap.Error(err))

		if i < attempts {
			if err := Sleep(ctx, backoff); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			backoff *= 2
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", name, attempts, lastErr)
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
