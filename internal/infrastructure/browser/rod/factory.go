package rod

import (
	"context"
	"fmt"
	"time"

	"browser-bench/internal/application/port/output"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

var _ output.BrowserFactory = (*Factory)(nil)

const (
	defaultTimeout = 15 * time.Second
	windowWidth    = 1280
	windowHeight   = 1100
)

type BrowserConfig struct {
	Headless  bool
	NoSandbox bool
	Timeout   time.Duration
	// Bin is the browser executable; empty lets the launcher find or download one.
	Bin    string
	Width  int
	Height int
}

func DefaultConfig() BrowserConfig {
	return BrowserConfig{
		Headless:  true,
		NoSandbox: true,
		Timeout:   defaultTimeout,
		Width:     windowWidth,
		Height:    windowHeight,
	}
}

// Factory launches a separate browser process for every Open call, so
// concurrent tasks never share cookies, tabs or history.
type Factory struct {
	cfg BrowserConfig
}

func NewFactory(cfg BrowserConfig) *Factory {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = windowWidth, windowHeight
	}
	return &Factory{cfg: cfg}
}

func (f *Factory) Config() BrowserConfig {
	return f.cfg
}

func (f *Factory) Open(ctx context.Context) (output.BrowserPort, error) {
	return NewBrowserAdapter(ctx, f.cfg)
}

func NewBrowserAdapter(ctx context.Context, cfg BrowserConfig) (*BrowserAdapter, error) {
	l := launcher.New().
		Context(ctx).
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox).
		Set("window-size", fmt.Sprintf("%d,%d", cfg.Width, cfg.Height)).
		Delete("use-mock-keychain")
	if cfg.Bin != "" {
		l = l.Bin(cfg.Bin)
	}

	url, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(url)
	if err := browser.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("failed to connect browser: %w", err)
	}

	adapter := &BrowserAdapter{
		browser:  browser,
		launcher: l,
		timeout:  cfg.Timeout,
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		adapter.Close()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             cfg.Width,
		Height:            cfg.Height,
		DeviceScaleFactor: 1,
	}); err != nil {
		adapter.Close()
		return nil, fmt.Errorf("failed to set viewport: %w", err)
	}
	adapter.page = page

	return adapter, nil
}
