package browser

import (
	"context"
	"time"
)

// Page is the subset of tab operations the scraper needs. Selectors are CSS
// query selectors.
type Page interface {
	Navigate(ctx context.Context, url string) error
	Reload(ctx context.Context) error
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	Exists(ctx context.Context, selector string) (bool, error)
	Click(ctx context.Context, selector string) error
	Clear(ctx context.Context, selector string) error
	SendKeys(ctx context.Context, selector, text string) error
	DispatchEvent(ctx context.Context, selector, event string) error
	Text(ctx context.Context, selector string) (string, error)
	TextAll(ctx context.Context, selector string) ([]string, error)
	ClassAll(ctx context.Context, selector string) ([]string, error)
	// Screenshot captures the full page; ViewportScreenshot only what is on
	// screen, in the coordinate space of MouseClick.
	Screenshot(ctx context.Context) ([]byte, error)
	ViewportScreenshot(ctx context.Context) ([]byte, error)
	MouseClick(ctx context.Context, x, y float64) error
	Cookies(ctx context.Context) ([]Cookie, error)
	SetCookies(ctx context.Context, cookies []Cookie) error
	ClearCookies(ctx context.Context) error
}

// Launcher starts a browser and returns its single tab plus a release func
// that shuts the browser down.
type Launcher interface {
	Launch(ctx context.Context) (Page, func(), error)
}

// Preparer brings a freshly launched page to the state the poller expects.
type Preparer interface {
	Prepare(ctx context.Context, page Page) error
}

// PreparerFunc adapts a function to Preparer.
type PreparerFunc func(ctx context.Context, page Page) error

func (f PreparerFunc) Prepare(ctx context.Context, page Page) error {
	return f(ctx, page)
}

// Cookie is the persisted form of a browser cookie.
type Cookie struct {
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Domain   string    `json:"domain"`
	Path     string    `json:"path"`
	Expires  time.Time `json:"expires,omitempty"`
	HTTPOnly bool      `json:"http_only"`
	Secure   bool      `json:"secure"`
	SameSite string    `json:"same_site,omitempty"`
}

// Expired reports whether a non-session cookie has passed its expiry.
func (c Cookie) Expired(now time.Time) bool {
	return !c.Expires.IsZero() && !c.Expires.After(now)
}
