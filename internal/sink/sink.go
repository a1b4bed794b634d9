// Package sink persists scrape outcomes through the storage collaborator.
package sink

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/staplewatch/grocery-price-tracker/internal/models"
)

// Store is the external storage collaborator. Price rows are appended,
// never merged.
type Store interface {
	UpsertItem(ctx context.Context, item models.Item) (int64, error)
	InsertPrice(ctx context.Context, rec models.PriceRecord) error
}

// Sink maps each scrape outcome to exactly one persisted price record.
type Sink struct {
	store    Store
	product  models.CanonicalProduct
	storeTag string
	url      string
	now      func() time.Time
	logger   *slog.Logger
}

func New(store Store, product models.CanonicalProduct, storeTag, url string) *Sink {
	return &Sink{
		store:    store,
		product:  product,
		storeTag: storeTag,
		url:      url,
		now:      time.Now,
		logger:   slog.Default().With("component", "sink"),
	}
}

// Record persists one outcome. Absent prices are stored as zero with the
// outcome status carried through, so failed regions still leave a row.
func (s *Sink) Record(ctx context.Context, outcome models.ScrapeOutcome) error {
	itemID, err := s.store.UpsertItem(ctx, models.Item{
		Name:        s.product.Name,
		Brand:       s.product.Brand,
		UPC:         s.product.UPC,
		StoreItemID: s.product.StableID,
		Unit:        s.product.Unit,
		Category:    s.product.Category,
		UnitSizeStd: s.product.UnitSizeStd,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert item: %w", err)
	}

	rec := models.PriceRecord{
		ItemID:           itemID,
		Store:            s.storeTag,
		Zip:              outcome.Region,
		Date:             s.now(),
		Price:            outcome.Price,
		UnitSizeObserved: s.observedSize(outcome),
		URL:              s.url,
		Status:           outcome.Status,
	}

	if err := s.store.InsertPrice(ctx, rec); err != nil {
		return fmt.Errorf("failed to insert price: %w", err)
	}

	s.logger.Info("outcome persisted",
		"region", outcome.Region,
		"status", outcome.Status,
		"price", outcome.Price)
	return nil
}

// RecordAll persists every outcome of a batch, keeping going past
// individual failures so one bad region cannot drop the rest.
func (s *Sink) RecordAll(ctx context.Context, outcomes []models.ScrapeOutcome) error {
	var firstErr error
	for _, outcome := range outcomes {
		if err := s.Record(ctx, outcome); err != nil {
			s.logger.Error("failed to persist outcome", "region", outcome.Region, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// observedSize prefers the count parsed from the page; without one the
// canonical declared size stands in.
func (s *Sink) observedSize(outcome models.ScrapeOutcome) float64 {
	if n, ok := parseLeadingInt(outcome.Identity.SizeHint); ok {
		return float64(n)
	}
	return s.product.UnitSizeStd
}

func parseLeadingInt(s string) (int, bool) {
	n := 0
	seen := false
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
		seen = true
	}
	return n, seen
}
