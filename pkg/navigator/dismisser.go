package navigator

import (
	"context"
	"time"

	"go.uber.org/zap"

	"outagewatch/pkg/browser"
	"outagewatch/pkg/logger"
)

// Dismisser closes one optional overlay. Absence is not an error.
type Dismisser struct {
	Name     string
	Selector string
	Timeout  time.Duration
}

// Dismiss reports whether the overlay was found and closed.
func (d Dismisser) Dismiss(ctx context.Context, page browser.Page) bool {
	log := logger.FromContext(ctx).With(zap.String("dialog", d.Name))
	if d.Selector == "" {
		return false
	}
	if err := page.WaitVisible(ctx, d.Selector, d.Timeout); err != nil {
		log.Debug("Dialog not shown")
		return false
	}
	if err := page.Click(ctx, d.Selector); err != nil {
		log.Debug("Dialog close failed", zap.Error(err))
		return false
	}
	log.Info("Dialog dismissed")
	return true
}

// DismissAll runs the dismissers in order and returns how many closed
// something.
func DismissAll(ctx context.Context, page browser.Page, dismissers []Dismisser) int {
	closed := 0
	for _, d := range dismissers {
		if ctx.Err() != nil {
			break
		}
		if d.Dismiss(ctx, page) {
			closed++
		}
	}
	return closed
}
