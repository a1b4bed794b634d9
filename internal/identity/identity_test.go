package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/staplewatch/grocery-price-tracker/internal/models"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name  string
		html  string
		title string
		want  models.ObservedIdentity
	}{
		{
			name: "product block with brand object",
			html: `<html><head>
				<script type="application/ld+json">
				{"@type":"Product","name":"Great Value Large White Eggs, 12 Count",
				 "brand":{"@type":"Brand","name":"Great Value"}}
				</script></head></html>`,
			title: "ignored",
			want: models.ObservedIdentity{
				Brand:    "Great Value",
				Name:     "Great Value Large White Eggs, 12 Count",
				SizeHint: "12 Count",
			},
		},
		{
			name: "brand as plain string",
			html: `<script type="application/ld+json">
				{"name":"Eggland's Best Eggs 18 ct","brand":"Eggland's Best"}
				</script>`,
			want: models.ObservedIdentity{
				Brand:    "Eggland's Best",
				Name:     "Eggland's Best Eggs 18 ct",
				SizeHint: "18 ct",
			},
		},
		{
			name: "product nested under @graph",
			html: `<script type="application/ld+json">
				{"@context":"https://schema.org","@graph":[
					{"@type":"Product","name":"Large Eggs, 12 Count","brand":{"name":"Great Value"}}
				]}
				</script>`,
			want: models.ObservedIdentity{
				Brand:    "Great Value",
				Name:     "Large Eggs, 12 Count",
				SizeHint: "12 Count",
			},
		},
		{
			name: "first block wins over later blocks",
			html: `<script type="application/ld+json">{"name":"First Product 6 Count"}</script>
				<script type="application/ld+json">{"name":"Second Product 12 Count"}</script>`,
			want: models.ObservedIdentity{
				Name:     "First Product 6 Count",
				SizeHint: "6 Count",
			},
		},
		{
			name: "malformed block skipped, next one used",
			html: `<script type="application/ld+json">{not json</script>
				<script type="application/ld+json">{"name":"Eggs 12 ct","brand":"Great Value"}</script>`,
			want: models.ObservedIdentity{
				Brand:    "Great Value",
				Name:     "Eggs 12 ct",
				SizeHint: "12 ct",
			},
		},
		{
			name:  "no structured data falls back to title",
			html:  `<html><body><h1>hello</h1></body></html>`,
			title: "Great Value Large White Eggs, 12 Count - Walmart.com",
			want: models.ObservedIdentity{
				Name:     "Great Value Large White Eggs, 12 Count - Walmart.com",
				SizeHint: "12 Count",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract(tt.html, tt.title))
		})
	}
}

func TestMatches(t *testing.T) {
	canonical := models.CanonicalProduct{
		Brand:         "Great Value",
		Name:          "Great Value Large White Eggs, 12 Count",
		ExpectedCount: 12,
	}

	tests := []struct {
		name     string
		observed models.ObservedIdentity
		want     bool
	}{
		{
			name: "empty brand with matching count",
			observed: models.ObservedIdentity{
				Name:     "Great Value Large White Eggs, 12 Count",
				SizeHint: "12 Count",
			},
			want: true,
		},
		{
			name: "brand mismatch short-circuits despite matching size",
			observed: models.ObservedIdentity{
				Brand:    "Kirkland",
				Name:     "Kirkland Eggs 12 Count",
				SizeHint: "12 Count",
			},
			want: false,
		},
		{
			name: "case-insensitive brand match",
			observed: models.ObservedIdentity{
				Brand:    "great value",
				Name:     "Great Value Eggs, 12 ct",
				SizeHint: "12 ct",
			},
			want: true,
		},
		{
			name: "count digits in name phrase only",
			observed: models.ObservedIdentity{
				Brand: "Great Value",
				Name:  "Great Value Large White Eggs, 12 Count, Grade A",
			},
			want: true,
		},
		{
			name: "wrong count rejected",
			observed: models.ObservedIdentity{
				Name:     "Great Value Large White Eggs, 18 Count",
				SizeHint: "18 Count",
			},
			want: false,
		},
		{
			name: "count digits without unit token rejected",
			observed: models.ObservedIdentity{
				Name:     "Great Value Eggs Dozen 12",
				SizeHint: "12",
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.observed, canonical))
		})
	}
}
