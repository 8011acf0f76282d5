package navigator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"outagewatch/pkg/browser"
	"outagewatch/pkg/logger"
)

// CaptchaOutcome is reported once per challenge wait.
type CaptchaOutcome string

const (
	CaptchaResolved CaptchaOutcome = "resolved"
	CaptchaTimedOut CaptchaOutcome = "timeout"
	CaptchaAborted  CaptchaOutcome = "aborted"
)

type Config struct {
	URL       string
	Selectors Selectors
	Address   AddressQuery
	Timing    Timing
	Humanizer Humanizer
	// OnCaptcha is called after each challenge wait ends.
	OnCaptcha func(CaptchaOutcome)
}

// Pipeline walks the shutdowns page from a blank tab to a filled address.
type Pipeline struct {
	url        string
	sel        Selectors
	addr       AddressQuery
	timing     Timing
	humanizer  Humanizer
	dismissers []Dismisser
	onCaptcha  func(CaptchaOutcome)

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

func New(cfg Config) *Pipeline {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Humanizer == nil {
		cfg.Humanizer = NewJitterHumanizer()
	}
	p := &Pipeline{
		url:       cfg.URL,
		sel:       cfg.Selectors,
		addr:      cfg.Address,
		timing:    cfg.Timing,
		humanizer: cfg.Humanizer,
		onCaptcha: cfg.OnCaptcha,
		now:       time.Now,
		sleep:     browser.Sleep,
	}
	p.dismissers = []Dismisser{
		{Name: "warning", Selector: cfg.Selectors.WarningClose, Timeout: cfg.Timing.DialogTimeout},
		{Name: "survey", Selector: cfg.Selectors.SurveyClose, Timeout: cfg.Timing.DialogTimeout},
	}
	return p
}

func (p *Pipeline) URL() string {
	return p.url
}

// Dismissers returns the overlay closers in the order they run.
func (p *Pipeline) Dismissers() []Dismisser {
	return append([]Dismisser(nil), p.dismissers...)
}

// SurveyDismisser closes the survey modal, which may pop up at any time.
func (p *Pipeline) SurveyDismisser() Dismisser {
	return p.dismissers[1]
}

// Prepare opens the page and fills the address. It runs once per browser.
func (p *Pipeline) Prepare(ctx context.Context, page browser.Page) error {
	if err := p.Run(ctx, page); err != nil {
		return err
	}
	return p.FillAddress(ctx, page)
}

// Run navigates to the page, closes overlays and waits out a challenge.
func (p *Pipeline) Run(ctx context.Context, page browser.Page) error {
	log := logger.FromContext(ctx)
	log.Info("Opening shutdowns page", zap.String("url", p.url))

	navCtx, cancel := context.WithTimeout(ctx, p.timing.NavigateTimeout)
	err := page.Navigate(navCtx, p.url)
	cancel()
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, browser.ErrSessionClosed) {
			return err
		}
		return &NavigationError{Step: "open", Reason: "page did not load", Err: err}
	}
	if err := p.humanizer.Pause(ctx, p.timing.SettleAfterLoad); err != nil {
		return err
	}

	closed := DismissAll(ctx, page, p.dismissers)
	log.Debug("Overlays handled", zap.Int("closed", closed))

	_, err = p.AwaitCaptcha(ctx, page)
	return err
}

// AwaitCaptcha suspends while a challenge is on screen, polling for it to be
// solved through the operator API. It reports whether a challenge was seen.
func (p *Pipeline) AwaitCaptcha(ctx context.Context, page browser.Page) (bool, error) {
	if p.sel.Captcha == "" {
		return false, nil
	}
	present, err := page.Exists(ctx, p.sel.Captcha)
	if err != nil {
		return false, fmt.Errorf("check captcha: %w", err)
	}
	if !present {
		return false, nil
	}

	log := logger.FromContext(ctx)
	log.Warn("CAPTCHA detected, waiting for operator",
		zap.Duration("ceiling", p.timing.CaptchaCeiling))

	start := p.now()
	polls := 0
	for {
		if err := p.sleep(ctx, p.timing.CaptchaPoll); err != nil {
			p.reportCaptcha(CaptchaAborted)
			return true, err
		}
		polls++

		present, err := page.Exists(ctx, p.sel.Captcha)
		if errors.Is(err, browser.ErrSessionClosed) {
			p.reportCaptcha(CaptchaAborted)
			return true, err
		}
		if err == nil && !present {
			log.Info("CAPTCHA resolved", zap.Int("polls", polls), zap.Duration("waited", p.now().Sub(start)))
			p.reportCaptcha(CaptchaResolved)
			return true, nil
		}

		if waited := p.now().Sub(start); waited > p.timing.CaptchaCeiling {
			p.reportCaptcha(CaptchaTimedOut)
			return true, &CaptchaTimeoutError{Waited: waited, Polls: polls}
		}
	}
}

func (p *Pipeline) reportCaptcha(outcome CaptchaOutcome) {
	if p.onCaptcha != nil {
		p.onCaptcha(outcome)
	}
}

type field struct {
	name    string
	input   string
	options string
	value   string
	ordinal int
	expect  string
	settle  time.Duration
}

func (p *Pipeline) fields() []field {
	return []field{
		{"city", p.sel.CityInput, p.sel.CityOptions, p.addr.City, p.addr.CityOrdinal, p.addr.ExpectCity, p.timing.SettleAfterSelect},
		{"street", p.sel.StreetInput, p.sel.StreetOptions, p.addr.Street, p.addr.StreetOrdinal, p.addr.ExpectStreet, p.timing.SettleAfterSelect},
		{"house", p.sel.HouseInput, p.sel.HouseOptions, p.addr.House, p.addr.HouseOrdinal, p.addr.ExpectHouse, p.timing.SettleAfterHouse},
	}
}

// FillAddress enters city, street and house through the autocomplete form.
func (p *Pipeline) FillAddress(ctx context.Context, page browser.Page) error {
	for _, f := range p.fields() {
		if err := p.fillField(ctx, page, f); err != nil {
			return err
		}
	}
	logger.FromContext(ctx).Info("Address entered",
		zap.String("city", p.addr.City),
		zap.String("street", p.addr.Street),
		zap.String("house", p.addr.House))
	return nil
}

func (p *Pipeline) fillField(ctx context.Context, page browser.Page, f field) error {
	log := logger.FromContext(ctx).With(zap.String("field", f.name))

	if err := page.WaitVisible(ctx, f.input, p.timing.FieldTimeout); err != nil {
		if ctx.Err() != nil || errors.Is(err, browser.ErrSessionClosed) {
			return err
		}
		return &NavigationError{Step: f.name, Reason: "input missing", Err: err}
	}

	option := optionSelector(f.options, f.ordinal)
	ws := &browser.WaitStrategy{
		MaxRetries: p.timing.DropdownRetries,
		Backoff:    p.timing.RetryBackoff,
		AfterReload: func(ctx context.Context, page browser.Page) {
			DismissAll(ctx, page, p.dismissers)
		},
	}
	err := ws.Retry(ctx, page, f.name+" dropdown", func(ctx context.Context) error {
		if err := page.WaitVisible(ctx, f.input, p.timing.FieldTimeout); err != nil {
			return err
		}
		if err := page.Click(ctx, f.input); err != nil {
			return err
		}
		if err := page.Clear(ctx, f.input); err != nil {
			return err
		}
		if err := p.humanizer.Type(ctx, page, f.input, f.value); err != nil {
			return err
		}
		if err := page.DispatchEvent(ctx, f.input, "change"); err != nil {
			return err
		}
		if err := p.humanizer.Pause(ctx, p.timing.SettleAfterType); err != nil {
			return err
		}
		return page.WaitVisible(ctx, option, p.timing.OptionTimeout)
	})
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, browser.ErrSessionClosed) {
			return err
		}
		return &NavigationError{Step: f.name, Reason: fmt.Sprintf("suggestion %d never appeared", f.ordinal), Err: err}
	}

	if f.expect != "" {
		text, err := page.Text(ctx, option)
		if err != nil {
			return &NavigationError{Step: f.name, Reason: "suggestion unreadable", Err: err}
		}
		if !strings.Contains(strings.ToLower(text), strings.ToLower(f.expect)) {
			return &NavigationError{
				Step:   f.name,
				Reason: fmt.Sprintf("suggestion %d is %q, expected it to contain %q", f.ordinal, strings.TrimSpace(text), f.expect),
			}
		}
	}

	if err := page.Click(ctx, option); err != nil {
		return &NavigationError{Step: f.name, Reason: "suggestion not clickable", Err: err}
	}
	log.Debug("Suggestion picked", zap.Int("ordinal", f.ordinal))
	return p.humanizer.Pause(ctx, f.settle)
}
