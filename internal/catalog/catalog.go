// Package catalog loads the canonical staple-item catalog used by the
// weekly-ad ingester.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/staplewatch/grocery-price-tracker/internal/models"
)

// Entry is one tracked staple plus the token rules that locate it inside
// an ad feed. MatchAny is satisfied by any one token; MustHave requires
// all of them.
type Entry struct {
	Name        string   `json:"name"`
	Brand       string   `json:"brand"`
	Category    string   `json:"category"`
	Unit        string   `json:"unit"`
	UnitSizeStd float64  `json:"unit_size_std"`
	UPC         string   `json:"upc"`
	MatchAny    []string `json:"match_any"`
	MustHave    []string `json:"must_have"`
}

// Item converts the entry to the persisted item shape, deriving a stable
// store item id from the given tag.
func (e Entry) Item(storeTag string) models.Item {
	return models.Item{
		Name:        e.Name,
		Brand:       e.Brand,
		UPC:         e.UPC,
		StoreItemID: storeTag + "_" + slug(e.Name),
		Unit:        e.Unit,
		Category:    e.Category,
		UnitSizeStd: e.UnitSizeStd,
	}
}

func slug(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			out = append(out, r)
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		case r == ' ':
			out = append(out, '_')
		}
	}
	return string(out)
}

// Load reads a catalog file.
func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("items catalog not found: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	return entries, nil
}
