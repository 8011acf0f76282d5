package navigator

import (
	"context"
	"math/rand"
	"time"

	"outagewatch/pkg/browser"
)

// Humanizer decides how keystrokes and pauses look to the site.
type Humanizer interface {
	Type(ctx context.Context, page browser.Page, selector, text string) error
	Pause(ctx context.Context, d time.Duration) error
}

// JitterHumanizer types one rune at a time with a randomised delay and
// stretches pauses by up to Jitter.
type JitterHumanizer struct {
	KeyDelay time.Duration
	Jitter   time.Duration
}

func NewJitterHumanizer() *JitterHumanizer {
	return &JitterHumanizer{KeyDelay: 100 * time.Millisecond, Jitter: 60 * time.Millisecond}
}

func (h *JitterHumanizer) Type(ctx context.Context, page browser.Page, selector, text string) error {
	for _, r := range text {
		if err := page.SendKeys(ctx, selector, string(r)); err != nil {
			return err
		}
		if err := browser.Sleep(ctx, h.KeyDelay+h.jitter()); err != nil {
			return err
		}
	}
	return nil
}

func (h *JitterHumanizer) Pause(ctx context.Context, d time.Duration) error {
	return browser.Sleep(ctx, d+h.jitter())
}

func (h *JitterHumanizer) jitter() time.Duration {
	if h.Jitter <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(h.Jitter)))
}

// NoJitter types everything at once and never waits.
type NoJitter struct{}

func (NoJitter) Type(ctx context.Context, page browser.Page, selector, text string) error {
	return page.SendKeys(ctx, selector, text)
}

func (NoJitter) Pause(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}
