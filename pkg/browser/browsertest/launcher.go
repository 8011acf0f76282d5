package browsertest

import (
	"context"
	"sync"

	"outagewatch/pkg/browser"
)

// Launcher hands out fake pages. NewPage builds each one; nil means a
// blank Page.
type Launcher struct {
	NewPage func() *Page
	Err     error

	mu       sync.Mutex
	launched []*Page
	released int
}

func (l *Launcher) Launch(ctx context.Context) (browser.Page, func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if l.Err != nil {
		return nil, nil, l.Err
	}
	page := NewPage()
	if l.NewPage != nil {
		page = l.NewPage()
	}

	l.mu.Lock()
	l.launched = append(l.launched, page)
	l.mu.Unlock()

	var once sync.Once
	release := func() {
		once.Do(func() {
			page.Close()
			l.mu.Lock()
			l.released++
			l.mu.Unlock()
		})
	}
	return page, release, nil
}

func (l *Launcher) Launched() []*Page {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*Page(nil), l.launched...)
}

func (l *Launcher) Released() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.released
}

// Last returns the most recently launched page.
func (l *Launcher) Last() *Page {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.launched) == 0 {
		return nil
	}
	return l.launched[len(l.launched)-1]
}
