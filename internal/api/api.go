// Package api exposes the read-only HTTP surface over stored items and
// prices.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/staplewatch/grocery-price-tracker/internal/database"
	"github.com/staplewatch/grocery-price-tracker/internal/models"
)

// Reader is the slice of the price store the API serves.
type Reader interface {
	ListItems(ctx context.Context) ([]models.Item, error)
	LatestPrices(ctx context.Context, zip string, limit int) ([]database.PriceRow, error)
}

type Handlers struct {
	store  Reader
	logger *slog.Logger
}

func NewHandlers(store Reader, logger *slog.Logger) *Handlers {
	return &Handlers{
		store:  store,
		logger: logger.With("component", "api"),
	}
}

// Router wires the read endpoints.
func (h *Handlers) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}))

	r.Get("/health", h.Health)
	r.Get("/items", h.ListItems)
	r.Get("/prices/latest", h.LatestPrices)

	return r
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListItems(r.Context())
	if err != nil {
		h.logger.Error("failed to list items", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to list items")
		return
	}

	h.respondJSON(w, http.StatusOK, items)
}

func (h *Handlers) LatestPrices(w http.ResponseWriter, r *http.Request) {
	zip := r.URL.Query().Get("zip")

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	prices, err := h.store.LatestPrices(r.Context(), zip, limit)
	if err != nil {
		h.logger.Error("failed to query prices", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to query prices")
		return
	}

	h.respondJSON(w, http.StatusOK, prices)
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
