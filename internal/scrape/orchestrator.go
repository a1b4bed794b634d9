// Package scrape sequences one region run through session restore, bot-wall
// handling, identity verification, and price extraction, producing exactly
// one classified outcome per region.
package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/staplewatch/grocery-price-tracker/internal/detect"
	"github.com/staplewatch/grocery-price-tracker/internal/identity"
	"github.com/staplewatch/grocery-price-tracker/internal/models"
	"github.com/staplewatch/grocery-price-tracker/internal/price"
	"github.com/staplewatch/grocery-price-tracker/internal/ratelimit"
)

// ProductPage is one region run's exclusive browsing session. The
// playwright implementation lives in internal/browser; tests substitute a
// fake.
type ProductPage interface {
	NavigateHome(ctx context.Context) error
	NavigateProduct(ctx context.Context, url string) error
	Title() (string, error)
	BodyText() (string, error)
	Content() (string, error)
	SelectRegion(ctx context.Context, zip string) error
	PriceText() (string, bool)
	SaveSession(path string) error
	Screenshot(path string) error
	Close() error
}

// PageFactory creates the browsing session for one region run. A non-empty
// statePath resumes a saved session.
type PageFactory interface {
	NewRegionPage(region, statePath string) (ProductPage, error)
}

// PageFactoryFunc adapts a function to the PageFactory interface.
type PageFactoryFunc func(region, statePath string) (ProductPage, error)

func (f PageFactoryFunc) NewRegionPage(region, statePath string) (ProductPage, error) {
	return f(region, statePath)
}

// SessionStore tracks which regions already have a saved session snapshot.
type SessionStore interface {
	Has(region string) bool
	PathFor(region string) string
}

// Orchestrator runs the per-region state machine.
type Orchestrator struct {
	pages         PageFactory
	sessions      SessionStore
	detector      *detect.Detector
	operator      Operator
	product       models.CanonicalProduct
	productURL    string
	screenshotDir string
	waitBase      time.Duration
	waitJitter    time.Duration
	logger        *slog.Logger
}

type OrchestratorOptions struct {
	Product       models.CanonicalProduct
	ProductURL    string
	ScreenshotDir string
	WaitBase      time.Duration
	WaitJitter    time.Duration
}

func NewOrchestrator(pages PageFactory, sessions SessionStore, detector *detect.Detector, operator Operator, opts OrchestratorOptions) *Orchestrator {
	return &Orchestrator{
		pages:         pages,
		sessions:      sessions,
		detector:      detector,
		operator:      operator,
		product:       opts.Product,
		productURL:    opts.ProductURL,
		screenshotDir: opts.ScreenshotDir,
		waitBase:      opts.WaitBase,
		waitJitter:    opts.WaitJitter,
		logger:        slog.Default().With("component", "orchestrator"),
	}
}

// ScrapeRegion runs one region to a terminal outcome. Faults inside the
// run are converted to an error outcome here; they never escape to the
// batch. The page and its context are released exactly once on every path.
func (o *Orchestrator) ScrapeRegion(ctx context.Context, region string) models.ScrapeOutcome {
	logger := o.logger.With("region", region)

	hasSession := o.sessions.Has(region)
	statePath := ""
	if hasSession {
		statePath = o.sessions.PathFor(region)
	}

	page, err := o.pages.NewRegionPage(region, statePath)
	if err != nil {
		logger.Error("failed to create region page", "error", err)
		return models.ScrapeOutcome{
			Region:     region,
			Status:     models.StatusError,
			Diagnostic: &models.Diagnostic{Message: fmt.Sprintf("failed to create region page: %v", err)},
		}
	}
	defer func() {
		if err := page.Close(); err != nil {
			logger.Warn("failed to release page", "error", err)
		}
	}()

	if !hasSession {
		if err := o.ensureRegionInteractive(ctx, page, region, logger); err != nil {
			return o.fail(page, region, err, logger)
		}
	} else {
		logger.Info("resuming saved session, skipping region setup")
	}

	if err := page.NavigateProduct(ctx, o.productURL); err != nil {
		return o.fail(page, region, err, logger)
	}

	if o.detector.Check(page) {
		logger.Warn("bot wall on product page")
		outcome := models.ScrapeOutcome{Region: region, Status: models.StatusCaptcha}
		if path, err := o.screenshot(page, "blocked_"+region); err == nil {
			outcome.Diagnostic = &models.Diagnostic{
				Message:        "challenge page on product navigation",
				ScreenshotPath: path,
			}
		}
		return outcome
	}

	// Settle before touching the page, with jitter so repeated runs do
	// not produce a uniform timing signature.
	if err := ratelimit.Sleep(ctx, o.waitBase, o.waitJitter); err != nil {
		return o.fail(page, region, err, logger)
	}

	title, err := page.Title()
	if err != nil {
		return o.fail(page, region, err, logger)
	}
	content, err := page.Content()
	if err != nil {
		return o.fail(page, region, err, logger)
	}

	observed := identity.Extract(content, title)
	logger.Info("observed identity", "brand", observed.Brand, "name", observed.Name, "size_hint", observed.SizeHint)

	if !identity.Matches(observed, o.product) {
		logger.Warn("identity mismatch", "expected_brand", o.product.Brand, "expected_count", o.product.ExpectedCount)
		return models.ScrapeOutcome{Region: region, Status: models.StatusMismatch, Identity: observed}
	}

	value, ok := o.extractPrice(page, content)
	if !ok {
		logger.Warn("no price found on verified page")
		return models.ScrapeOutcome{Region: region, Status: models.StatusMissing, Identity: observed}
	}

	logger.Info("price extracted", "price", value)
	return models.ScrapeOutcome{
		Region:   region,
		Status:   models.StatusOK,
		Price:    value,
		HasPrice: true,
		Identity: observed,
	}
}

// ensureRegionInteractive is the cold-start path: load the home surface,
// let the operator clear any challenge, set the delivery region through
// the UI, then persist the session so later runs skip all of this.
func (o *Orchestrator) ensureRegionInteractive(ctx context.Context, page ProductPage, region string, logger *slog.Logger) error {
	if err := page.NavigateHome(ctx); err != nil {
		return err
	}

	if o.detector.Check(page) {
		logger.Info("bot wall on home surface, waiting for operator")
		if err := o.operator.ResolveChallenge(ctx, region); err != nil {
			return fmt.Errorf("challenge not resolved: %w", err)
		}
	}

	if err := page.SelectRegion(ctx, region); err != nil {
		return err
	}

	if err := page.SaveSession(o.sessions.PathFor(region)); err != nil {
		// The run can still finish; only the next run loses the shortcut.
		logger.Warn("failed to persist session snapshot", "error", err)
	}

	return nil
}

func (o *Orchestrator) extractPrice(page ProductPage, content string) (float64, bool) {
	if text, ok := page.PriceText(); ok {
		if v, ok := price.Parse(text); ok {
			return v, true
		}
	}
	return price.FromHTML(content)
}

// fail converts a fault into a terminal error outcome with a best-effort
// screenshot diagnostic. The deferred close in ScrapeRegion releases the
// page afterwards.
func (o *Orchestrator) fail(page ProductPage, region string, err error, logger *slog.Logger) models.ScrapeOutcome {
	logger.Error("region run failed", "error", err)

	diag := &models.Diagnostic{Message: err.Error()}
	if path, shotErr := o.screenshot(page, "error_"+region); shotErr == nil {
		diag.ScreenshotPath = path
	} else {
		logger.Warn("failed to capture diagnostic screenshot", "error", shotErr)
	}

	return models.ScrapeOutcome{Region: region, Status: models.StatusError, Diagnostic: diag}
}

func (o *Orchestrator) screenshot(page ProductPage, name string) (string, error) {
	path := filepath.Join(o.screenshotDir, name+".png")
	if err := page.Screenshot(path); err != nil {
		return "", err
	}
	return path, nil
}
