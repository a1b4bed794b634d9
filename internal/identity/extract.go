// Package identity derives what a product page claims to be and decides
// whether that claim matches the canonical product being tracked.
package identity

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/staplewatch/grocery-price-tracker/internal/jsonwalk"
	"github.com/staplewatch/grocery-price-tracker/internal/models"
)

var sizeHintRe = regexp.MustCompile(`(?i)(\d+)\s*(?:count|ct)\b`)

// Extract parses the rendered markup into an observed identity. Structured
// data blocks are scanned in document order; the first one exposing a name
// or brand wins. Pages without usable structured data fall back to the
// page title with an empty brand.
func Extract(html, title string) models.ObservedIdentity {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fromTitle(title)
	}

	var found *models.ObservedIdentity
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var root any
		if err := json.Unmarshal([]byte(s.Text()), &root); err != nil {
			return true
		}

		node, ok := jsonwalk.FindFirst(root, func(n jsonwalk.Node) bool {
			return jsonwalk.String(n, "name") != "" || brandName(n) != ""
		})
		if !ok {
			return true
		}

		name := jsonwalk.String(node, "name")
		found = &models.ObservedIdentity{
			Brand:    brandName(node),
			Name:     name,
			SizeHint: sizeHint(name),
		}
		return false
	})

	if found != nil {
		return *found
	}
	return fromTitle(title)
}

func fromTitle(title string) models.ObservedIdentity {
	return models.ObservedIdentity{
		Name:     title,
		SizeHint: sizeHint(title),
	}
}

// brandName handles both JSON-LD brand shapes: a plain string and a
// {"@type": "Brand", "name": ...} object.
func brandName(n jsonwalk.Node) string {
	switch b := n["brand"].(type) {
	case string:
		return b
	case map[string]any:
		return jsonwalk.String(b, "name")
	}
	return ""
}

func sizeHint(name string) string {
	return sizeHintRe.FindString(name)
}
