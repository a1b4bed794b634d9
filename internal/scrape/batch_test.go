package scrape

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/staplewatch/grocery-price-tracker/internal/models"
)

type scriptedScraper struct {
	statuses map[string]models.Status
	calls    []string
}

func (s *scriptedScraper) ScrapeRegion(ctx context.Context, region string) models.ScrapeOutcome {
	s.calls = append(s.calls, region)
	status, ok := s.statuses[region]
	if !ok {
		status = models.StatusOK
	}
	out := models.ScrapeOutcome{Region: region, Status: status}
	if status == models.StatusOK {
		out.Price = 3.48
		out.HasPrice = true
	}
	return out
}

func TestRunnerOneOutcomePerRegionInOrder(t *testing.T) {
	scraper := &scriptedScraper{statuses: map[string]models.Status{
		"10001": models.StatusCaptcha,
		"60614": models.StatusMissing,
	}}
	runner := NewRunner(scraper, 0, 0)

	regions := []string{"30328", "10001", "60614", "94103"}
	outcomes := runner.Run(context.Background(), regions)

	assert.Len(t, outcomes, len(regions))
	for i, outcome := range outcomes {
		assert.Equal(t, regions[i], outcome.Region)
	}
	assert.Equal(t, regions, scraper.calls, "regions processed strictly in input order")

	valid := map[models.Status]bool{
		models.StatusOK: true, models.StatusMismatch: true, models.StatusMissing: true,
		models.StatusCaptcha: true, models.StatusError: true,
	}
	for _, outcome := range outcomes {
		assert.True(t, valid[outcome.Status])
		assert.Equal(t, outcome.Status == models.StatusOK, outcome.HasPrice)
	}
}

func TestRunnerCancelledContextStillCoversEveryRegion(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scraper := &scriptedScraper{}
	runner := NewRunner(scraper, 0, 0)

	outcomes := runner.Run(ctx, []string{"30328", "10001"})

	assert.Len(t, outcomes, 2)
	for _, outcome := range outcomes {
		assert.Equal(t, models.StatusError, outcome.Status)
	}
	assert.Empty(t, scraper.calls, "no region should run after cancellation")
}
