package database

import (
	"context"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS item (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	brand TEXT NOT NULL DEFAULT '',
	upc TEXT NOT NULL DEFAULT '',
	store_item_id TEXT NOT NULL UNIQUE,
	unit TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL DEFAULT '',
	unit_size_std DOUBLE PRECISION NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS price (
	id BIGSERIAL PRIMARY KEY,
	item_id BIGINT NOT NULL REFERENCES item(id) ON DELETE CASCADE,
	store TEXT NOT NULL,
	zip TEXT NOT NULL,
	date DATE NOT NULL,
	price NUMERIC(8,2) NOT NULL,
	unit_size_observed DOUBLE PRECISION NOT NULL DEFAULT 0,
	url TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'ok',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_price_item_date ON price (item_id, date);
CREATE INDEX IF NOT EXISTS idx_price_zip_date ON price (zip, date);

CREATE TABLE IF NOT EXISTS outbox_event (
	id UUID PRIMARY KEY,
	aggregate_type TEXT NOT NULL,
	aggregate_id TEXT NOT NULL,
	event_type TEXT NOT NULL,
	payload JSONB NOT NULL,
	target_stream TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending',
	retry_count INT NOT NULL DEFAULT 0,
	error_message TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	processed_at TIMESTAMPTZ,
	next_retry_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_outbox_pending ON outbox_event (status, next_retry_at);
`

// EnsureSchema creates the tables this service owns if they do not exist.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}
