// Package postgres provides a PostgreSQL-backed ledger.Store using the
// same snapshot table as store/sqlite.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/moneyflow/ledger-engine/store/sqlstore"
)

var Dialect = sqlstore.Dialect{
	Name:        "postgres",
	Placeholder: sqlstore.Dollar,
	Schema: `
	CREATE TABLE IF NOT EXISTS ledger_snapshots (
		version BIGSERIAL PRIMARY KEY,
		saved_at TEXT NOT NULL,
		tx_count INTEGER NOT NULL,
		payload TEXT NOT NULL
	);`,
}

type Store struct {
	*sqlstore.Store
}

// New connects to dsn (a lib/pq connection string or URL), checks the
// connection and migrates the schema.
func New(ctx context.Context, dsn string, opts ...sqlstore.Option) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	inner, err := sqlstore.New(ctx, db, Dialect, opts...)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &Store{Store: inner}, nil
}
