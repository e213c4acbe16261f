/*
Package sqlite provides a SQLite-backed ledger.Store.

PURPOSE:
  Keeps versioned ledger snapshots in a local SQLite file. The SQL itself
  lives in store/sqlstore; this package owns the driver, the connection
  string and the SQLite schema.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New(ctx, "./data/moneyflow.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  p, err := ledger.Open(ctx, store)

SEE ALSO:
  - store/sqlstore: Snapshot queries
  - store/postgres: Same schema on PostgreSQL
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/moneyflow/ledger-engine/store/sqlstore"
)

var Dialect = sqlstore.Dialect{
	Name:        "sqlite",
	Placeholder: sqlstore.QuestionMark,
	Schema: `
	CREATE TABLE IF NOT EXISTS ledger_snapshots (
		version INTEGER PRIMARY KEY AUTOINCREMENT,
		saved_at TEXT NOT NULL,
		tx_count INTEGER NOT NULL,
		payload TEXT NOT NULL
	);`,
}

// Store implements ledger.Store using SQLite.
type Store struct {
	*sqlstore.Store
}

// New opens (creating if needed) the database at dbPath.
// Use ":memory:" for an in-memory database.
func New(ctx context.Context, dbPath string, opts ...sqlstore.Option) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: ":memory:" databases are per connection, and SQLite
	// has a single writer anyway.
	db.SetMaxOpenConns(1)

	inner, err := sqlstore.New(ctx, db, Dialect, opts...)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &Store{Store: inner}, nil
}
