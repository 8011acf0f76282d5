// Package browsertest provides an in-memory browser.Page for tests.
package browsertest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"outagewatch/pkg/browser"
)

// Page is a scriptable fake tab. Elements are keyed by selector. Hooks run
// without the lock held so they may call back into the page.
type Page struct {
	mu sync.Mutex

	visible map[string]bool
	texts   map[string]string
	lists   map[string][]string
	classes map[string][]string
	values  map[string]string
	cookies []browser.Cookie
	calls   []string
	closed  bool

	png             []byte
	screenshotFails int

	OnClick    func(selector string)
	OnReload   func()
	OnNavigate func(url string)
	OnSendKeys func(selector, text string)
	OnWait     func(selector string)
}

func NewPage() *Page {
	return &Page{
		visible: map[string]bool{},
		texts:   map[string]string{},
		lists:   map[string][]string{},
		classes: map[string][]string{},
		values:  map[string]string{},
		png:     []byte("png"),
	}
}

func (p *Page) SetVisible(selector string, visible bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.visible[selector] = visible
}

func (p *Page) SetText(selector, text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.visible[selector] = true
	p.texts[selector] = text
}

func (p *Page) SetList(selector string, texts []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lists[selector] = append([]string(nil), texts...)
}

func (p *Page) SetClasses(selector string, classes []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.classes[selector] = append([]string(nil), classes...)
}

func (p *Page) SetScreenshot(png []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.png = png
}

// FailScreenshots makes the next n screenshots fail.
func (p *Page) FailScreenshots(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.screenshotFails = n
}

// Close makes every later operation fail with browser.ErrSessionClosed.
func (p *Page) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
}

func (p *Page) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Value returns what has been typed into selector since the last Clear.
func (p *Page) Value(selector string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.values[selector]
}

// Calls returns the recorded operations as "op selector" strings.
func (p *Page) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

// Count returns how many recorded calls equal call.
func (p *Page) Count(call string) int {
	n := 0
	for _, c := range p.Calls() {
		if c == call {
			n++
		}
	}
	return n
}

func (p *Page) record(ctx context.Context, call string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return browser.ErrSessionClosed
	}
	p.calls = append(p.calls, call)
	return nil
}

func (p *Page) isVisible(selector string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.visible[selector]
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	if err := p.record(ctx, "navigate "+url); err != nil {
		return err
	}
	if p.OnNavigate != nil {
		p.OnNavigate(url)
	}
	return nil
}

func (p *Page) Reload(ctx context.Context) error {
	if err := p.record(ctx, "reload"); err != nil {
		return err
	}
	if p.OnReload != nil {
		p.OnReload()
	}
	return nil
}

// WaitVisible never blocks; an invisible element fails immediately.
func (p *Page) WaitVisible(ctx context.Context, selector string, _ time.Duration) error {
	if err := p.record(ctx, "wait "+selector); err != nil {
		return err
	}
	if p.OnWait != nil {
		p.OnWait(selector)
	}
	if !p.isVisible(selector) {
		return fmt.Errorf("%w: %s", browser.ErrNotVisible, selector)
	}
	return nil
}

func (p *Page) Exists(ctx context.Context, selector string) (bool, error) {
	if err := p.record(ctx, "exists "+selector); err != nil {
		return false, err
	}
	return p.isVisible(selector), nil
}

func (p *Page) Click(ctx context.Context, selector string) error {
	if err := p.record(ctx, "click "+selector); err != nil {
		return err
	}
	if !p.isVisible(selector) {
		return fmt.Errorf("%w: %s", browser.ErrNotVisible, selector)
	}
	if p.OnClick != nil {
		p.OnClick(selector)
	}
	return nil
}

func (p *Page) Clear(ctx context.Context, selector string) error {
	if err := p.record(ctx, "clear "+selector); err != nil {
		return err
	}
	p.mu.Lock()
	p.values[selector] = ""
	p.mu.Unlock()
	return nil
}

func (p *Page) SendKeys(ctx context.Context, selector, text string) error {
	if err := p.record(ctx, "keys "+selector); err != nil {
		return err
	}
	p.mu.Lock()
	p.values[selector] += text
	p.mu.Unlock()
	if p.OnSendKeys != nil {
		p.OnSendKeys(selector, text)
	}
	return nil
}

func (p *Page) DispatchEvent(ctx context.Context, selector, event string) error {
	return p.record(ctx, "event "+event+" "+selector)
}

func (p *Page) Text(ctx context.Context, selector string) (string, error) {
	if err := p.record(ctx, "text "+selector); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	text, ok := p.texts[selector]
	if !ok || !p.visible[selector] {
		return "", fmt.Errorf("%w: %s", browser.ErrNotVisible, selector)
	}
	return text, nil
}

func (p *Page) TextAll(ctx context.Context, selector string) ([]string, error) {
	if err := p.record(ctx, "textall "+selector); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.lists[selector]...), nil
}

func (p *Page) ClassAll(ctx context.Context, selector string) ([]string, error) {
	if err := p.record(ctx, "classall "+selector); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.classes[selector]...), nil
}

func (p *Page) Screenshot(ctx context.Context) ([]byte, error) {
	if err := p.record(ctx, "screenshot"); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.screenshotFails > 0 {
		p.screenshotFails--
		return nil, errors.New("screenshot failed")
	}
	return append([]byte(nil), p.png...), nil
}

func (p *Page) ViewportScreenshot(ctx context.Context) ([]byte, error) {
	if err := p.record(ctx, "viewport screenshot"); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]byte(nil), p.png...), nil
}

func (p *Page) MouseClick(ctx context.Context, x, y float64) error {
	return p.record(ctx, fmt.Sprintf("mouse %.0f,%.0f", x, y))
}

func (p *Page) Cookies(ctx context.Context) ([]browser.Cookie, error) {
	if err := p.record(ctx, "cookies"); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]browser.Cookie(nil), p.cookies...), nil
}

func (p *Page) SetCookies(ctx context.Context, cookies []browser.Cookie) error {
	if err := p.record(ctx, "setcookies"); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cookies = append([]browser.Cookie(nil), cookies...)
	return nil
}

func (p *Page) ClearCookies(ctx context.Context) error {
	if err := p.record(ctx, "clearcookies"); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cookies = nil
	return nil
}

var _ browser.Page = (*Page)(nil)
