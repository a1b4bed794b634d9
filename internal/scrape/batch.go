package scrape

import (
	"context"
	"log/slog"
	"time"

	"github.com/staplewatch/grocery-price-tracker/internal/models"
	"github.com/staplewatch/grocery-price-tracker/internal/ratelimit"
)

// RegionScraper is the per-region unit the batch iterates.
type RegionScraper interface {
	ScrapeRegion(ctx context.Context, region string) models.ScrapeOutcome
}

// Runner processes regions strictly one at a time with a jittered delay
// between them. Sequential on purpose: parallel sessions share a timing
// and fingerprint signature, and an operator can only resolve one
// challenge at a time.
type Runner struct {
	scraper RegionScraper
	limiter *ratelimit.JitteredLimiter
	logger  *slog.Logger
}

func NewRunner(scraper RegionScraper, delayBase, delayJitter time.Duration) *Runner {
	return &Runner{
		scraper: scraper,
		limiter: ratelimit.NewJittered(delayBase, delayJitter),
		logger:  slog.Default().With("component", "batch"),
	}
}

// Run returns one outcome per requested region, in input order. A fault in
// one region never aborts the rest; cancellation converts the remaining
// regions to error outcomes so the summary still covers every request.
func (r *Runner) Run(ctx context.Context, regions []string) []models.ScrapeOutcome {
	outcomes := make([]models.ScrapeOutcome, 0, len(regions))

	for _, region := range regions {
		if err := ctx.Err(); err != nil {
			outcomes = append(outcomes, cancelled(region, err))
			continue
		}

		if err := r.limiter.Wait(ctx); err != nil {
			r.logger.Warn("batch cancelled", "error", err)
			outcomes = append(outcomes, cancelled(region, err))
			continue
		}

		r.logger.Info("scraping region", "region", region)
		outcome := r.scraper.ScrapeRegion(ctx, region)
		r.logger.Info("region finished", "region", region, "status", outcome.Status)
		outcomes = append(outcomes, outcome)
	}

	return outcomes
}

func cancelled(region string, err error) models.ScrapeOutcome {
	return models.ScrapeOutcome{
		Region:     region,
		Status:     models.StatusError,
		Diagnostic: &models.Diagnostic{Message: err.Error()},
	}
}
