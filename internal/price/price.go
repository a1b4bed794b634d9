// Package price recovers a currency amount from a product page.
package price

import (
	"regexp"
	"strconv"
	"strings"
)

// Selectors is the ordered list of element lookups tried before falling
// back to a raw-markup scan. Layouts drift; earlier entries are the ones
// currently served, later ones have been seen on older page variants.
var Selectors = []string{
	`[itemprop="price"]`,
	`[data-automation-id="product-price"] span.f1`,
	`span[data-testid="price-wrap"] span`,
	`span.price-group`,
}

var currencyRe = regexp.MustCompile(`\$([\d,]+\.\d{2})`)

// Parse extracts a dollar amount from element text. Thousands separators
// are stripped.
func Parse(text string) (float64, bool) {
	m := currencyRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}

	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// FromHTML scans the full rendered markup for the first currency amount.
// Last resort when no known price element is present.
func FromHTML(html string) (float64, bool) {
	return Parse(html)
}
