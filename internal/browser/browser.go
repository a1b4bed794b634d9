// Package browser owns the playwright engine and the Walmart page sessions
// built on top of it.
package browser

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Engine wraps one playwright instance and one launched browser. Region
// runs each get their own context via NewRegionPage; the engine itself is
// shared across the whole batch.
type Engine struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	opts    *Options
	logger  *slog.Logger
}

type Options struct {
	Headless       bool
	Timeout        time.Duration
	UserAgent      string
	ViewportWidth  int
	ViewportHeight int
	Locale         string
	TimezoneID     string
	HomeURL        string
}

func DefaultOptions() *Options {
	return &Options{
		Headless:       false,
		Timeout:        30 * time.Second,
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		ViewportWidth:  1920,
		ViewportHeight: 1080,
		Locale:         "en-US",
		TimezoneID:     "America/New_York",
		HomeURL:        "https://www.walmart.com",
	}
}

// NewEngine starts playwright and launches the browser. This is the only
// failure that aborts a whole batch.
func NewEngine(opts *Options) (*Engine, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	b, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--no-sandbox",
			"--window-size=1920,1080",
		},
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	return &Engine{
		pw:      pw,
		browser: b,
		opts:    opts,
		logger:  slog.Default().With("component", "browser"),
	}, nil
}

func (e *Engine) Close() error {
	var errs []error

	if e.browser != nil {
		if err := e.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
		}
	}

	if e.pw != nil {
		if err := e.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during close: %v", errs)
	}

	return nil
}

// stealthScript hides the automation marker before any page script runs.
const stealthScript = `
Object.defineProperty(navigator, 'webdriver', {
	get: () => undefined,
});
`
