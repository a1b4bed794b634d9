package identity

import (
	"strconv"
	"strings"

	"github.com/staplewatch/grocery-price-tracker/internal/models"
)

// Matches decides whether an observed identity is the canonical product.
// A non-empty observed brand that differs from the canonical brand rejects
// outright. Otherwise the canonical count digits must appear in the size
// hint or as a "<count> Count"/"<count> ct" phrase in the name, and a
// count-unit token must be present somewhere.
func Matches(observed models.ObservedIdentity, canonical models.CanonicalProduct) bool {
	if observed.Brand != "" && !strings.EqualFold(observed.Brand, canonical.Brand) {
		return false
	}

	count := strconv.Itoa(canonical.ExpectedCount)
	name := strings.ToLower(observed.Name)
	hint := strings.ToLower(observed.SizeHint)

	hasCount := strings.Contains(hint, count) ||
		strings.Contains(name, count+" count") ||
		strings.Contains(name, count+" ct")

	hasUnit := containsUnitToken(hint) || containsUnitToken(name)

	return hasCount && hasUnit
}

func containsUnitToken(s string) bool {
	return strings.Contains(s, "count") || strings.Contains(s, "ct")
}
