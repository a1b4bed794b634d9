// Package detect recognizes anti-automation challenge pages.
package detect

import (
	"log/slog"
	"strings"
)

// Page is the slice of a loaded page the detector inspects.
type Page interface {
	Title() (string, error)
	BodyText() (string, error)
}

var defaultMarkers = []string{
	"robot or human",
	"are you human",
}

// Detector inspects loaded pages for challenge-wall markers.
type Detector struct {
	markers []string
	// failClosed treats a failed title probe as a wall. Default is
	// fail-open: a page we cannot read is assumed not to be a wall.
	failClosed bool
	logger     *slog.Logger
}

func New(failClosed bool) *Detector {
	return &Detector{
		markers:    defaultMarkers,
		failClosed: failClosed,
		logger:     slog.Default().With("component", "botwall"),
	}
}

// Match reports whether title or body text contains a challenge marker.
// Matching is case-insensitive substring.
func (d *Detector) Match(title, body string) bool {
	title = strings.ToLower(title)
	body = strings.ToLower(body)
	for _, m := range d.markers {
		if strings.Contains(title, m) || strings.Contains(body, m) {
			return true
		}
	}
	return false
}

// Check probes the page title and best-effort body text for a wall.
func (d *Detector) Check(page Page) bool {
	title, err := page.Title()
	if err != nil {
		d.logger.Warn("failed to read page title", "error", err)
		return d.failClosed
	}

	body, err := page.BodyText()
	if err != nil {
		// A wall page still has a title; keep going with what we have.
		d.logger.Debug("failed to read body text", "error", err)
		body = ""
	}

	return d.Match(title, body)
}
