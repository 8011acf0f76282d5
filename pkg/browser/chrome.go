package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	cdpbrowser "github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"outagewatch/pkg/logger"
)

// ChromeLauncher starts a local Chrome through chromedp.
type ChromeLauncher struct {
	Fingerprint Fingerprint
	Headless    bool
	ExecPath    string
	// Origin is granted the geolocation permission.
	Origin string
}

func (l *ChromeLauncher) Launch(ctx context.Context) (Page, func(), error) {
	fp := l.Fingerprint
	execPath := FindChrome(l.ExecPath)
	if execPath == "" {
		logger.Warn("Chrome path not detected, relying on PATH lookup")
	}

	// The browser must outlive the context of whoever asked for it.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), AllocatorOptions(fp, l.Headless, execPath)...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(logger.Sugar.Debugf))
	release := func() {
		tabCancel()
		allocCancel()
	}

	p := &chromePage{tabCtx: tabCtx}
	setup := chromedp.ActionFunc(func(ctx context.Context) error {
		if err := emulation.SetDeviceMetricsOverride(int64(fp.Width), int64(fp.Height), 1, false).Do(ctx); err != nil {
			return fmt.Errorf("viewport: %w", err)
		}
		if err := emulation.SetUserAgentOverride(fp.UserAgent).
			WithAcceptLanguage(fp.AcceptLanguage).
			WithPlatform(fp.Platform).Do(ctx); err != nil {
			return fmt.Errorf("user agent: %w", err)
		}
		if err := emulation.SetLocaleOverride().WithLocale(fp.Locale).Do(ctx); err != nil {
			return fmt.Errorf("locale: %w", err)
		}
		if err := emulation.SetTimezoneOverride(fp.Timezone).Do(ctx); err != nil {
			return fmt.Errorf("timezone: %w", err)
		}
		if err := emulation.SetGeolocationOverride().
			WithLatitude(fp.Latitude).
			WithLongitude(fp.Longitude).
			WithAccuracy(100).Do(ctx); err != nil {
			return fmt.Errorf("geolocation: %w", err)
		}
		if l.Origin != "" {
			err := cdpbrowser.GrantPermissions([]cdpbrowser.PermissionType{cdpbrowser.PermissionTypeGeolocation}).
				WithOrigin(l.Origin).Do(ctx)
			if err != nil {
				logger.Warn("Failed to grant geolocation permission", zap.Error(err))
			}
		}
		if _, err := page.AddScriptToEvaluateOnNewDocument(fp.StealthScript()).Do(ctx); err != nil {
			return fmt.Errorf("stealth script: %w", err)
		}
		return nil
	})

	// The first Run on the tab context starts the browser process. It must
	// use the tab context itself, so the caller's deadline is applied by
	// releasing the browser instead.
	stop := context.AfterFunc(ctx, release)
	err := chromedp.Run(tabCtx, network.Enable(), setup)
	if !stop() {
		return nil, nil, fmt.Errorf("start chrome: %w", ctx.Err())
	}
	if err != nil {
		release()
		return nil, nil, fmt.Errorf("start chrome: %w", err)
	}

	logger.Info("Chrome started",
		zap.Bool("headless", l.Headless),
		zap.String("exec_path", execPath),
		zap.String("timezone", fp.Timezone),
		zap.String("locale", fp.Locale))
	return p, release, nil
}

// chromePage runs actions on the single tab. Every call derives from the tab
// context so tearing the browser down interrupts in-flight operations.
type chromePage struct {
	tabCtx context.Context
}

func (p *chromePage) run(ctx context.Context, actions ...chromedp.Action) error {
	if p.tabCtx.Err() != nil {
		return ErrSessionClosed
	}
	runCtx, cancel := context.WithCancel(p.tabCtx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err == nil {
		return nil
	}
	if p.tabCtx.Err() != nil {
		return ErrSessionClosed
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %v", ctxErr, err)
	}
	return err
}

func (p *chromePage) Navigate(ctx context.Context, url string) error {
	return p.run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

func (p *chromePage) Reload(ctx context.Context) error {
	return p.run(ctx,
		chromedp.Reload(),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

func (p *chromePage) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	err := p.run(waitCtx, chromedp.WaitVisible(selector, chromedp.ByQuery))
	if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return fmt.Errorf("%w: %s after %v", ErrNotVisible, selector, timeout)
	}
	return err
}

func (p *chromePage) Exists(ctx context.Context, selector string) (bool, error) {
	var found bool
	expr := fmt.Sprintf(`document.querySelector(%s) !== null`, jsString(selector))
	if err := p.run(ctx, chromedp.Evaluate(expr, &found)); err != nil {
		return false, err
	}
	return found, nil
}

func (p *chromePage) Click(ctx context.Context, selector string) error {
	return p.run(ctx, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible))
}

func (p *chromePage) Clear(ctx context.Context, selector string) error {
	return p.run(ctx, chromedp.Clear(selector, chromedp.ByQuery))
}

func (p *chromePage) SendKeys(ctx context.Context, selector, text string) error {
	return p.run(ctx, chromedp.SendKeys(selector, text, chromedp.ByQuery))
}

func (p *chromePage) DispatchEvent(ctx context.Context, selector, event string) error {
	var ok bool
	expr := fmt.Sprintf(`(() => {
	const el = document.querySelector(%s);
	if (!el) return false;
	el.dispatchEvent(new Event(%s, { bubbles: true }));
	return true;
})()`, jsString(selector), jsString(event))
	if err := p.run(ctx, chromedp.Evaluate(expr, &ok)); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotVisible, selector)
	}
	return nil
}

func (p *chromePage) Text(ctx context.Context, selector string) (string, error) {
	var text string
	if err := p.run(ctx, chromedp.Text(selector, &text, chromedp.ByQuery, chromedp.NodeVisible)); err != nil {
		return "", err
	}
	return text, nil
}

func (p *chromePage) TextAll(ctx context.Context, selector string) ([]string, error) {
	var out []string
	expr := fmt.Sprintf(`Array.from(document.querySelectorAll(%s)).map(e => e.textContent.trim())`, jsString(selector))
	if err := p.run(ctx, chromedp.Evaluate(expr, &out)); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *chromePage) ClassAll(ctx context.Context, selector string) ([]string, error) {
	var out []string
	expr := fmt.Sprintf(`Array.from(document.querySelectorAll(%s)).map(e => e.className || '')`, jsString(selector))
	if err := p.run(ctx, chromedp.Evaluate(expr, &out)); err != nil {
		return nil, err
	}
	return out, nil
}

// Screenshot captures the full page as PNG.
func (p *chromePage) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := p.run(ctx, chromedp.FullScreenshot(&buf, 100)); err != nil {
		return nil, err
	}
	return buf, nil
}

// ViewportScreenshot captures the visible area only.
func (p *chromePage) ViewportScreenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := p.run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, err
	}
	return buf, nil
}

func (p *chromePage) MouseClick(ctx context.Context, x, y float64) error {
	return p.run(ctx, chromedp.MouseClickXY(x, y))
}

func (p *chromePage) Cookies(ctx context.Context) ([]Cookie, error) {
	var raw []*network.Cookie
	err := p.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		raw, err = network.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, err
	}

	out := make([]Cookie, 0, len(raw))
	for _, c := range raw {
		cookie := Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
			SameSite: string(c.SameSite),
		}
		if !c.Session && c.Expires > 0 {
			sec, frac := math.Modf(c.Expires)
			cookie.Expires = time.Unix(int64(sec), int64(frac*1e9)).UTC()
		}
		out = append(out, cookie)
	}
	return out, nil
}

func (p *chromePage) SetCookies(ctx context.Context, cookies []Cookie) error {
	if len(cookies) == 0 {
		return nil
	}
	params := make([]*network.CookieParam, 0, len(cookies))
	for _, c := range cookies {
		param := &network.CookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
		}
		if c.SameSite != "" {
			param.SameSite = network.CookieSameSite(c.SameSite)
		}
		if !c.Expires.IsZero() {
			exp := cdp.TimeSinceEpoch(c.Expires)
			param.Expires = &exp
		}
		params = append(params, param)
	}
	return p.run(ctx, network.SetCookies(params))
}

func (p *chromePage) ClearCookies(ctx context.Context) error {
	return p.run(ctx, network.ClearBrowserCookies())
}

func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
