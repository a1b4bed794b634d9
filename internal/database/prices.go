package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/staplewatch/grocery-price-tracker/internal/models"
)

// EventTypePriceRecorded is published for every persisted price row.
const EventTypePriceRecorded = "PRICE_RECORDED"

// PriceStore is the storage collaborator for scraped and ingested prices.
// Price rows are append-only: same-day reruns produce independent records.
type PriceStore struct {
	db     *DB
	outbox *OutboxRepository
}

func NewPriceStore(db *DB) *PriceStore {
	return &PriceStore{
		db:     db,
		outbox: NewOutboxRepository(db),
	}
}

// UpsertItem creates the item if it is new and returns its id. Reference
// fields are refreshed on conflict so catalog edits propagate.
func (s *PriceStore) UpsertItem(ctx context.Context, item models.Item) (int64, error) {
	query := `
		INSERT INTO item (name, brand, upc, store_item_id, unit, category, unit_size_std)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (store_item_id) DO UPDATE SET
			name = EXCLUDED.name,
			brand = EXCLUDED.brand,
			unit_size_std = EXCLUDED.unit_size_std
		RETURNING id`

	var id int64
	err := s.db.QueryRow(ctx, query,
		item.Name, item.Brand, item.UPC, item.StoreItemID, item.Unit, item.Category, item.UnitSizeStd,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert item: %w", err)
	}

	return id, nil
}

// priceRecordedPayload is the event body shipped to the price stream.
type priceRecordedPayload struct {
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
	ItemID    int64     `json:"item_id"`
	Store     string    `json:"store"`
	Zip       string    `json:"zip"`
	Date      string    `json:"date"`
	Price     float64   `json:"price"`
	Status    string    `json:"status"`
}

// InsertPrice appends one price row and queues a PRICE_RECORDED event in
// the same transaction.
func (s *PriceStore) InsertPrice(ctx context.Context, rec models.PriceRecord) error {
	payload, err := json.Marshal(priceRecordedPayload{
		EventType: EventTypePriceRecorded,
		Timestamp: time.Now(),
		ItemID:    rec.ItemID,
		Store:     rec.Store,
		Zip:       rec.Zip,
		Date:      rec.Date.Format("2006-01-02"),
		Price:     rec.Price,
		Status:    string(rec.Status),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal price event: %w", err)
	}

	return s.db.Transaction(ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO price (item_id, store, zip, date, price, unit_size_observed, url, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

		_, err := tx.Exec(ctx, query,
			rec.ItemID, rec.Store, rec.Zip, rec.Date, rec.Price,
			rec.UnitSizeObserved, rec.URL, string(rec.Status),
		)
		if err != nil {
			return fmt.Errorf("failed to insert price: %w", err)
		}

		event := &OutboxEvent{
			AggregateType: "price",
			AggregateID:   fmt.Sprintf("%d", rec.ItemID),
			EventType:     EventTypePriceRecorded,
			Payload:       payload,
			TargetStream:  "stream:price_events",
		}
		if err := s.outbox.InsertWithTx(ctx, tx, event); err != nil {
			return err
		}

		return nil
	})
}

// PriceRow is a read-model row for the API.
type PriceRow struct {
	ItemName string    `json:"item"`
	Brand    string    `json:"brand"`
	Store    string    `json:"store"`
	Zip      string    `json:"zip"`
	Date     time.Time `json:"date"`
	Price    float64   `json:"price"`
	Status   string    `json:"status"`
}

// LatestPrices returns the most recent price rows, optionally filtered by
// ZIP.
func (s *PriceStore) LatestPrices(ctx context.Context, zip string, limit int) ([]PriceRow, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT i.name, i.brand, p.store, p.zip, p.date, p.price, p.status
		FROM price p
		JOIN item i ON i.id = p.item_id
		WHERE ($1 = '' OR p.zip = $1)
		ORDER BY p.date DESC, p.id DESC
		LIMIT $2`

	rows, err := s.db.Query(ctx, query, zip, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query prices: %w", err)
	}
	defer rows.Close()

	var out []PriceRow
	for rows.Next() {
		var r PriceRow
		if err := rows.Scan(&r.ItemName, &r.Brand, &r.Store, &r.Zip, &r.Date, &r.Price, &r.Status); err != nil {
			return nil, fmt.Errorf("failed to scan price row: %w", err)
		}
		out = append(out, r)
	}

	return out, nil
}

// ListItems returns all tracked items.
func (s *PriceStore) ListItems(ctx context.Context) ([]models.Item, error) {
	query := `
		SELECT id, name, brand, upc, store_item_id, unit, category, unit_size_std
		FROM item
		ORDER BY name ASC`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var items []models.Item
	for rows.Next() {
		var it models.Item
		err := rows.Scan(&it.ID, &it.Name, &it.Brand, &it.UPC, &it.StoreItemID, &it.Unit, &it.Category, &it.UnitSizeStd)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, it)
	}

	return items, nil
}
