package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the tables this service owns. Idempotent; runs at
// startup and in integration test setup.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS property_records (
	property_id   TEXT PRIMARY KEY,
	artifact_id   UUID NOT NULL UNIQUE,
	artifact_kind TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS artifacts (
	id                UUID PRIMARY KEY,
	property_id       TEXT NOT NULL UNIQUE,
	kind              TEXT NOT NULL,
	name              TEXT NOT NULL,
	symbol            TEXT NOT NULL,
	issuer            TEXT NOT NULL,
	valuation         TEXT NOT NULL,
	details_ref       TEXT NOT NULL DEFAULT '',
	base_metadata_uri TEXT NOT NULL DEFAULT '',
	administrator     TEXT NOT NULL,
	total_supply      BIGINT NOT NULL DEFAULT 0,
	max_supply        BIGINT NOT NULL DEFAULT 0,
	issued            BIGINT NOT NULL DEFAULT 0,
	created_at        TIMESTAMPTZ NOT NULL,
	updated_at        TIMESTAMPTZ NOT NULL,
	CONSTRAINT artifacts_issued_within_cap CHECK (issued >= 0 AND issued <= max_supply OR kind <> 'unit')
);
`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
