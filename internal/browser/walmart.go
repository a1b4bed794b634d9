package browser

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/playwright-community/playwright-go"

	"github.com/staplewatch/grocery-price-tracker/internal/price"
)

// storeSelectorPatterns are the controls that open the store/delivery
// picker on the home surface, most common variant first.
var storeSelectorPatterns = []string{
	`[data-automation-id="fulfillment-address"] button`,
	`button:has-text("Add an address")`,
	`button[aria-label*="store selector"]`,
	`button:has-text("How do you want your items?")`,
}

var zipInputPatterns = []string{
	`input[name="postalCode"]`,
	`input[aria-label*="zip code"]`,
	`input[placeholder*="ZIP"]`,
}

var confirmPatterns = []string{
	`button:has-text("Set as my store")`,
	`button:has-text("Save")`,
}

// WalmartPage is one region run's exclusive view of the site: an isolated
// browser context with a stable fingerprint plus the page inside it. It is
// created by Engine.NewRegionPage and must be closed by the caller on every
// exit path.
type WalmartPage struct {
	browserCtx playwright.BrowserContext
	page       playwright.Page
	homeURL    string
	logger     *slog.Logger
}

// NewRegionPage builds the isolated context for one region run. When
// statePath names an existing snapshot the context resumes that session;
// otherwise it starts cold and the caller goes through the interactive
// setup. The stealth script is installed before any page script can run.
func (e *Engine) NewRegionPage(region, statePath string) (*WalmartPage, error) {
	opts := playwright.BrowserNewContextOptions{
		UserAgent:  playwright.String(e.opts.UserAgent),
		Locale:     playwright.String(e.opts.Locale),
		TimezoneId: playwright.String(e.opts.TimezoneID),
		Viewport: &playwright.Size{
			Width:  e.opts.ViewportWidth,
			Height: e.opts.ViewportHeight,
		},
	}
	if statePath != "" {
		opts.StorageStatePath = playwright.String(statePath)
	}

	browserCtx, err := e.browser.NewContext(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	if err := browserCtx.AddInitScript(playwright.Script{
		Content: playwright.String(stealthScript),
	}); err != nil {
		browserCtx.Close()
		return nil, fmt.Errorf("failed to add init script: %w", err)
	}

	page, err := browserCtx.NewPage()
	if err != nil {
		browserCtx.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	page.SetDefaultTimeout(float64(e.opts.Timeout.Milliseconds()))

	return &WalmartPage{
		browserCtx: browserCtx,
		page:       page,
		homeURL:    e.opts.HomeURL,
		logger:     e.logger.With("region", region),
	}, nil
}

func (w *WalmartPage) NavigateHome(ctx context.Context) error {
	return w.navigate(ctx, w.homeURL)
}

func (w *WalmartPage) NavigateProduct(ctx context.Context, url string) error {
	return w.navigate(ctx, url)
}

func (w *WalmartPage) navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := w.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	if err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

func (w *WalmartPage) Title() (string, error) {
	return w.page.Title()
}

// BodyText returns the page's visible text, bounded so a hung frame cannot
// stall the run.
func (w *WalmartPage) BodyText() (string, error) {
	return w.page.Locator("body").InnerText(playwright.LocatorInnerTextOptions{
		Timeout: playwright.Float(3000),
	})
}

func (w *WalmartPage) Content() (string, error) {
	return w.page.Content()
}

// SelectRegion drives the store picker to the given ZIP. Every step is
// best-effort: a missing control means the page may already be on the
// right region, not a failure.
func (w *WalmartPage) SelectRegion(ctx context.Context, zip string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	opened := false
	for _, sel := range storeSelectorPatterns {
		loc := w.page.Locator(sel).First()
		if err := loc.WaitFor(playwright.LocatorWaitForOptions{Timeout: playwright.Float(3000)}); err != nil {
			continue
		}
		if err := loc.Click(); err != nil {
			w.logger.Debug("store selector click failed", "selector", sel, "error", err)
			continue
		}
		opened = true
		break
	}
	if !opened {
		w.logger.Info("no store selector control found, region may already be set")
		return nil
	}

	filled := false
	for _, sel := range zipInputPatterns {
		input := w.page.Locator(sel).First()
		if err := input.WaitFor(playwright.LocatorWaitForOptions{Timeout: playwright.Float(5000)}); err != nil {
			continue
		}
		if err := input.Fill(zip); err != nil {
			w.logger.Debug("zip fill failed", "selector", sel, "error", err)
			continue
		}
		if err := input.Press("Enter"); err != nil {
			w.logger.Debug("zip submit failed", "selector", sel, "error", err)
			continue
		}
		filled = true
		break
	}
	if !filled {
		w.logger.Info("no zip input found after opening selector")
		return nil
	}

	for _, sel := range confirmPatterns {
		btn := w.page.Locator(sel).First()
		if err := btn.WaitFor(playwright.LocatorWaitForOptions{Timeout: playwright.Float(3000)}); err != nil {
			continue
		}
		if err := btn.Click(); err == nil {
			break
		}
	}

	w.logger.Info("region selected", "zip", zip)
	return nil
}

// PriceText tries the known price selectors in order and returns the text
// of the first element found.
func (w *WalmartPage) PriceText() (string, bool) {
	for _, sel := range price.Selectors {
		loc := w.page.Locator(sel).First()
		if err := loc.WaitFor(playwright.LocatorWaitForOptions{Timeout: playwright.Float(2000)}); err != nil {
			continue
		}
		text, err := loc.TextContent()
		if err != nil || text == "" {
			continue
		}
		return text, true
	}
	return "", false
}

// SaveSession writes the context's storage state to path. The snapshot is
// opaque; only the engine reads it back.
func (w *WalmartPage) SaveSession(path string) error {
	if _, err := w.browserCtx.StorageState(path); err != nil {
		return fmt.Errorf("failed to save session state: %w", err)
	}
	return nil
}

func (w *WalmartPage) Screenshot(path string) error {
	_, err := w.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return nil
}

// Close releases the page and its context. The engine-level browser stays
// up for the next region.
func (w *WalmartPage) Close() error {
	var errs []error

	if err := w.page.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close page: %w", err))
	}
	if err := w.browserCtx.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close context: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during close: %v", errs)
	}
	return nil
}
