// Package fake provides an in-memory browser for exercising agents without
// launching a real browser process.
package fake

import (
	"context"
	"fmt"
	"sync"

	"browser-bench/internal/application/port/output"
	"browser-bench/internal/domain/entity"
)

var (
	_ output.BrowserPort    = (*Browser)(nil)
	_ output.BrowserFactory = (*Factory)(nil)
)

// Browser records every call and serves canned page state.
type Browser struct {
	mu sync.Mutex

	URL      string
	Text     string
	Elements []entity.UIElement
	Shot     entity.Screenshot

	// Err, when set, is returned from every action.
	Err error
	// ShotErr is returned from Screenshot only.
	ShotErr error

	Calls  []string
	Filled map[string]string
	Closed bool
}

func New() *Browser {
	return &Browser{
		URL:    "about:blank",
		Shot:   entity.Screenshot{Data: []byte{0xff, 0xd8, 0xff}, Format: "jpeg", Width: 1024, Height: 880},
		Filled: make(map[string]string),
	}
}

func (b *Browser) record(format string, args ...interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Calls = append(b.Calls, fmt.Sprintf(format, args...))
	return b.Err
}

func (b *Browser) Navigate(ctx context.Context, url string) error {
	if err := b.record("navigate %s", url); err != nil {
		return err
	}
	b.mu.Lock()
	b.URL = url
	b.mu.Unlock()
	return ctx.Err()
}

func (b *Browser) Click(ctx context.Context, selector string) error {
	return b.record("click %s", selector)
}

func (b *Browser) Fill(ctx context.Context, selector, text string) error {
	if err := b.record("fill %s", selector); err != nil {
		return err
	}
	b.mu.Lock()
	b.Filled[selector] = text
	b.mu.Unlock()
	return nil
}

func (b *Browser) PressEnter(ctx context.Context) error {
	return b.record("press_enter")
}

func (b *Browser) Scroll(ctx context.Context, direction string) error {
	return b.record("scroll %s", direction)
}

func (b *Browser) GetPageText(ctx context.Context) (string, error) {
	if err := b.record("text"); err != nil {
		return "", err
	}
	return b.Text, nil
}

func (b *Browser) GetUIElements(ctx context.Context) ([]entity.UIElement, error) {
	if err := b.record("elements"); err != nil {
		return nil, err
	}
	return b.Elements, nil
}

func (b *Browser) Screenshot(ctx context.Context) (*entity.Screenshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ShotErr != nil {
		return nil, b.ShotErr
	}
	shot := b.Shot
	return &shot, nil
}

func (b *Browser) CurrentURL() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.URL
}

func (b *Browser) Close() {
	b.mu.Lock()
	b.Closed = true
	b.mu.Unlock()
}

func (b *Browser) IsClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.Closed
}

// Factory hands out a new Browser per Open and remembers them.
type Factory struct {
	mu       sync.Mutex
	Browsers []*Browser
	OpenErr  error
	Setup    func(*Browser)
}

func (f *Factory) Open(ctx context.Context) (output.BrowserPort, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.OpenErr != nil {
		return nil, f.OpenErr
	}
	b := New()
	if f.Setup != nil {
		f.Setup(b)
	}
	f.Browsers = append(f.Browsers, b)
	return b, nil
}

func (f *Factory) Opened() []*Browser {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Browser(nil), f.Browsers...)
}
