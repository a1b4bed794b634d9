package models

import "time"

// Status classifies the outcome of a single region scrape.
type Status string

const (
	StatusOK       Status = "ok"
	StatusMismatch Status = "mismatch"
	StatusMissing  Status = "missing"
	StatusCaptcha  Status = "captcha"
	StatusError    Status = "error"
)

// CanonicalProduct is the reference identity a scrape is expected to observe.
// It is supplied by configuration and never modified at runtime.
type CanonicalProduct struct {
	StableID      string  `json:"stable_id"`
	Name          string  `json:"name"`
	Brand         string  `json:"brand"`
	ExpectedCount int     `json:"expected_count"`
	Category      string  `json:"category"`
	Unit          string  `json:"unit"`
	UnitSizeStd   float64 `json:"unit_size_std"`
	UPC           string  `json:"upc"`
}

// ObservedIdentity is what a loaded product page claims to be.
type ObservedIdentity struct {
	Brand    string
	Name     string
	SizeHint string
}

// Diagnostic carries failure context for offline inspection.
type Diagnostic struct {
	Message        string
	ScreenshotPath string
}

// ScrapeOutcome is the single classified result for one region in a batch.
// Price is meaningful only when Status is StatusOK.
type ScrapeOutcome struct {
	Region     string
	Status     Status
	Price      float64
	HasPrice   bool
	Identity   ObservedIdentity
	Diagnostic *Diagnostic
}

// PriceRecord is the shape handed to the storage collaborator. Each record
// is appended; same-day reruns produce independent rows.
type PriceRecord struct {
	ItemID           int64
	Store            string
	Zip              string
	Date             time.Time
	Price            float64
	UnitSizeObserved float64
	URL              string
	Status           Status
}

// Item is a persisted catalog item.
type Item struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Brand       string  `json:"brand"`
	UPC         string  `json:"upc"`
	StoreItemID string  `json:"store_item_id"`
	Unit        string  `json:"unit"`
	Category    string  `json:"category"`
	UnitSizeStd float64 `json:"unit_size_std"`
}
