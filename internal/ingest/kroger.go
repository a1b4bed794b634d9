// Package ingest pulls staple prices out of a captured weekly-ad JSON
// feed. Unlike the browser scraper, this path is a plain HTTP fetch: the
// endpoint URL (including store id) is captured from the site's network
// traffic and handed in whole.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/staplewatch/grocery-price-tracker/internal/catalog"
	"github.com/staplewatch/grocery-price-tracker/internal/jsonwalk"
	"github.com/staplewatch/grocery-price-tracker/internal/models"
	"github.com/staplewatch/grocery-price-tracker/internal/sink"
)

var adPriceRe = regexp.MustCompile(`(\d+\.\d{2})`)

var nameKeys = []string{"name", "title", "headline", "productName", "description"}
var priceKeys = []string{"price", "salePrice", "offerPrice", "currentPrice", "finalPrice", "priceString", "ctaText"}

// Ingester matches catalog staples against weekly-ad feed nodes and stores
// one ok price row per hit.
type Ingester struct {
	client   *http.Client
	store    sink.Store
	storeTag string
	logger   *slog.Logger
}

func New(store sink.Store, storeTag string) *Ingester {
	return &Ingester{
		client:   &http.Client{Timeout: 30 * time.Second},
		store:    store,
		storeTag: storeTag,
		logger:   slog.Default().With("component", "ingest"),
	}
}

// Result summarizes one ingest run.
type Result struct {
	Scanned int
	Saved   int
	Misses  []string
}

// Run fetches the feed and persists a price for every catalog entry it can
// match. Entries without a match are reported, not failed.
func (g *Ingester) Run(ctx context.Context, endpoint, zip string, entries []catalog.Entry) (*Result, error) {
	feed, err := g.fetch(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	candidates := jsonwalk.Flatten(feed)
	g.logger.Info("scanned feed", "nodes", len(candidates))

	res := &Result{Scanned: len(candidates)}
	today := time.Now()

	for _, entry := range entries {
		price, ok := findPrice(candidates, entry)
		if !ok {
			res.Misses = append(res.Misses, entry.Name)
			continue
		}

		itemID, err := g.store.UpsertItem(ctx, entry.Item(g.storeTag))
		if err != nil {
			return res, fmt.Errorf("failed to upsert item %q: %w", entry.Name, err)
		}

		rec := models.PriceRecord{
			ItemID:           itemID,
			Store:            g.storeTag,
			Zip:              zip,
			Date:             today,
			Price:            price,
			UnitSizeObserved: entry.UnitSizeStd,
			URL:              endpoint,
			Status:           models.StatusOK,
		}
		if err := g.store.InsertPrice(ctx, rec); err != nil {
			return res, fmt.Errorf("failed to insert price for %q: %w", entry.Name, err)
		}

		res.Saved++
		g.logger.Info("price ingested", "item", entry.Name, "price", price)
	}

	return res, nil
}

func (g *Ingester) fetch(ctx context.Context, endpoint string) (any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed body: %w", err)
	}

	var feed any
	if err := json.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	return feed, nil
}

// findPrice scans candidates in document order for the first node whose
// name satisfies the entry's token rules and that carries a parseable
// price.
func findPrice(candidates []jsonwalk.Node, entry catalog.Entry) (float64, bool) {
	for _, node := range candidates {
		name := jsonwalk.FirstString(node, nameKeys...)
		if name == "" {
			continue
		}
		if len(entry.MatchAny) > 0 && !hasAny(name, entry.MatchAny) {
			continue
		}
		if len(entry.MustHave) > 0 && !hasAll(name, entry.MustHave) {
			continue
		}

		if price, ok := nodePrice(node); ok {
			return price, true
		}
	}
	return 0, false
}

// nodePrice digs a price string out of the node's known price keys,
// including nested pricing objects.
func nodePrice(node jsonwalk.Node) (float64, bool) {
	for _, key := range priceKeys {
		switch v := node[key].(type) {
		case string:
			if price, ok := parseAdPrice(v); ok {
				return price, true
			}
		case float64:
			return v, true
		}
	}

	for _, key := range []string{"pricing", "prices"} {
		nested, ok := node[key].(map[string]any)
		if !ok {
			continue
		}
		for _, k := range []string{"sale", "current", "regular"} {
			switch v := nested[k].(type) {
			case string:
				if price, ok := parseAdPrice(v); ok {
					return price, true
				}
			case float64:
				return v, true
			}
		}
	}

	return 0, false
}

func parseAdPrice(s string) (float64, bool) {
	m := adPriceRe.FindStringSubmatch(strings.ReplaceAll(s, ",", ""))
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func hasAny(text string, tokens []string) bool {
	t := strings.ToLower(text)
	for _, tok := range tokens {
		if strings.Contains(t, strings.ToLower(tok)) {
			return true
		}
	}
	return false
}

func hasAll(text string, tokens []string) bool {
	t := strings.ToLower(text)
	for _, tok := range tokens {
		if !strings.Contains(t, strings.ToLower(tok)) {
			return false
		}
	}
	return true
}
