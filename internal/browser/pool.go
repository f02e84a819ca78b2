// Package browser implements the bounded Browser Pool of §4.5: a fixed
// number of concurrent sessions against one shared Chrome instance, each
// leased out in its own incognito page and guaranteed to be released on
// every exit path. Adapted from the session-management approach of
// go-rod/rod's launcher+browser wiring.
package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"

	"github.com/generalbots/botengine/internal/capability"
)

// Config configures the shared browser connection and per-session defaults.
type Config struct {
	// DebuggerURL, if set, connects to an already-running Chrome instead of
	// launching a new one.
	DebuggerURL string
	// Bin is the Chrome/Chromium binary path used when DebuggerURL is empty.
	Bin string
	// LaunchFlags are extra "--name" or "--name=value" launcher flags.
	LaunchFlags       []string
	Headless          bool
	ViewportWidth     int
	ViewportHeight    int
	NavigationTimeout time.Duration
	// MaxSessions bounds how many leases may be outstanding at once.
	MaxSessions int
}

// DefaultConfig returns sensible defaults matching the §4.5 default bound of
// four concurrent sessions.
func DefaultConfig() Config {
	return Config{
		Headless:          true,
		ViewportWidth:     1920,
		ViewportHeight:    1080,
		NavigationTimeout: 30 * time.Second,
		MaxSessions:       4,
	}
}

func (c Config) viewportWidth() int {
	if c.ViewportWidth == 0 {
		return 1920
	}
	return c.ViewportWidth
}

func (c Config) viewportHeight() int {
	if c.ViewportHeight == 0 {
		return 1080
	}
	return c.ViewportHeight
}

func (c Config) navigationTimeout() time.Duration {
	if c.NavigationTimeout == 0 {
		return 30 * time.Second
	}
	return c.NavigationTimeout
}

// Pool owns one shared browser connection and bounds how many BrowserLease
// sessions may be open against it concurrently.
type Pool struct {
	cfg Config
	sem chan struct{}

	mu      sync.Mutex
	browser *rod.Browser
}

// New builds a Pool. The underlying Chrome instance is not started until
// Start is called, so constructing a Pool never fails.
func New(cfg Config) *Pool {
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = 4
	}
	return &Pool{cfg: cfg, sem: make(chan struct{}, cfg.MaxSessions)}
}

// Start connects to an existing Chrome (DebuggerURL) or launches a new one,
// falling back to a plain launch if the configured flags fail to apply.
func (p *Pool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.browser != nil {
		if _, err := p.browser.Version(); err == nil {
			return nil
		}
		_ = p.browser.Close()
		p.browser = nil
	}

	controlURL := p.cfg.DebuggerURL
	if controlURL == "" {
		var err error
		controlURL, err = p.launch()
		if err != nil {
			return fmt.Errorf("launch chrome: %w", err)
		}
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("connect to chrome: %w", err)
	}
	p.browser = browser
	return nil
}

func (p *Pool) launch() (string, error) {
	l := launcher.New().Headless(p.cfg.Headless)
	if p.cfg.Bin != "" {
		l = l.Bin(p.cfg.Bin)
	}
	for _, raw := range p.cfg.LaunchFlags {
		name, val, hasVal := strings.Cut(strings.TrimLeft(raw, "-"), "=")
		if hasVal {
			l = l.Set(flags.Flag(name), val)
		} else {
			l = l.Set(flags.Flag(name))
		}
	}
	url, err := l.Launch()
	if err == nil {
		return url, nil
	}

	fallback := launcher.New().Headless(p.cfg.Headless)
	if p.cfg.Bin != "" {
		fallback = fallback.Bin(p.cfg.Bin)
	}
	altURL, altErr := fallback.Launch()
	if altErr != nil {
		return "", fmt.Errorf("%w (fallback: %v)", err, altErr)
	}
	return altURL, nil
}

// Close releases the shared browser connection. It does not wait for
// outstanding leases; callers should drain those first.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.browser == nil {
		return nil
	}
	err := p.browser.Close()
	p.browser = nil
	return err
}

// WithBrowser blocks until a slot is free, opens a fresh incognito page, runs
// fn against it, and releases both the page and the semaphore slot
// unconditionally — whether fn returns an error, panics, or ctx is cancelled
// mid-flight (§4.5's guaranteed-release invariant).
func (p *Pool) WithBrowser(ctx context.Context, fn func(ctx context.Context, session capability.BrowserSession) error) error {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-p.sem }()

	p.mu.Lock()
	br := p.browser
	p.mu.Unlock()
	if br == nil {
		return fmt.Errorf("browser pool not started")
	}

	incognito, err := br.Incognito()
	if err != nil {
		return fmt.Errorf("incognito context: %w", err)
	}
	page, err := incognito.Page(proto.TargetCreateTarget{})
	if err != nil {
		return fmt.Errorf("open page: %w", err)
	}
	defer func() { _ = page.Close() }()

	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             p.cfg.viewportWidth(),
		Height:            p.cfg.viewportHeight(),
		DeviceScaleFactor: 1,
		Mobile:            false,
	}).Call(page); err != nil {
		return fmt.Errorf("set viewport: %w", err)
	}

	session := &Session{page: page.Context(ctx).Timeout(p.cfg.navigationTimeout())}
	return fn(ctx, session)
}
