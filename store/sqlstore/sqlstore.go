/*
Package sqlstore keeps ledger snapshots in a SQL database.

PURPOSE:
  Shared implementation behind store/sqlite and store/postgres. Each Save
  inserts a new snapshot row (the full persisted blob) and prunes old rows
  beyond the retention count, inside one SQL transaction. Load reads the
  newest row.

KEY TABLES:
  ledger_snapshots:
    version    Monotonic snapshot number
    saved_at   RFC 3339 UTC time of the save
    tx_count   Number of transactions in the snapshot
    payload    The JSON blob (see ledger.EncodeJSON)

DIALECTS:
  Only the schema and the placeholder syntax differ between drivers.

SEE ALSO:
  - ledger/store.go: Store contract
  - store/sqlite, store/postgres: Driver wiring
*/
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/moneyflow/ledger-engine/ledger"
)

// DefaultRetention is how many snapshots are kept when no option says
// otherwise.
const DefaultRetention = 20

// Dialect describes the SQL differences between drivers.
type Dialect struct {
	Name   string
	Schema string
	// Placeholder renders the n-th (1-based) bind parameter.
	Placeholder func(n int) string
}

// QuestionMark is the placeholder style of SQLite and MySQL.
func QuestionMark(int) string { return "?" }

// Dollar is the placeholder style of PostgreSQL.
func Dollar(n int) string { return fmt.Sprintf("$%d", n) }

// Version describes one stored snapshot.
type Version struct {
	Version int64     `json:"version"`
	SavedAt time.Time `json:"savedAt"`
	TxCount int       `json:"txCount"`
}

// Store implements ledger.Store on a *sql.DB.
type Store struct {
	db      *sql.DB
	dialect Dialect
	retain  int
	now     func() time.Time
	mu      sync.Mutex
}

type Option func(*Store)

// WithRetention keeps the newest n snapshots; n <= 0 keeps all.
func WithRetention(n int) Option {
	return func(s *Store) { s.retain = n }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New migrates the schema and returns a store over db.
func New(ctx context.Context, db *sql.DB, dialect Dialect, opts ...Option) (*Store, error) {
	s := &Store{db: db, dialect: dialect, retain: DefaultRetention, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if _, err := db.ExecContext(ctx, dialect.Schema); err != nil {
		return nil, fmt.Errorf("migrate %s schema: %w", dialect.Name, err)
	}
	return s, nil
}

// DB exposes the underlying handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// q rewrites "?" placeholders into the dialect's style.
func (s *Store) q(query string) string {
	if s.dialect.Placeholder == nil {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString(s.dialect.Placeholder(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// =============================================================================
// ledger.Store
// =============================================================================

func (s *Store) Load(ctx context.Context) (*ledger.State, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM ledger_snapshots ORDER BY version DESC LIMIT 1`).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrNoState
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return ledger.DecodeJSON([]byte(payload))
}

func (s *Store) Save(ctx context.Context, st *ledger.State) error {
	payload, err := ledger.EncodeJSON(st)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer sqlTx.Rollback()

	_, err = sqlTx.ExecContext(ctx,
		s.q(`INSERT INTO ledger_snapshots (saved_at, tx_count, payload) VALUES (?, ?, ?)`),
		s.now().UTC().Format(time.RFC3339Nano), len(st.Transactions), string(payload))
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	if s.retain > 0 {
		_, err = sqlTx.ExecContext(ctx, s.q(`
			DELETE FROM ledger_snapshots
			WHERE version NOT IN (
				SELECT version FROM ledger_snapshots ORDER BY version DESC LIMIT ?
			)`), s.retain)
		if err != nil {
			return fmt.Errorf("prune snapshots: %w", err)
		}
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

// =============================================================================
// HISTORY
// =============================================================================

// Versions lists stored snapshots, newest first.
func (s *Store) Versions(ctx context.Context) ([]Version, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT version, saved_at, tx_count FROM ledger_snapshots ORDER BY version DESC`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []Version
	for rows.Next() {
		var v Version
		var savedAt string
		if err := rows.Scan(&v.Version, &savedAt, &v.TxCount); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		v.SavedAt, _ = time.Parse(time.RFC3339Nano, savedAt)
		out = append(out, v)
	}
	return out, rows.Err()
}

// LoadVersion returns a specific snapshot.
func (s *Store) LoadVersion(ctx context.Context, version int64) (*ledger.State, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		s.q(`SELECT payload FROM ledger_snapshots WHERE version = ?`), version).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &ledger.NotFoundError{What: "snapshot", Key: fmt.Sprint(version)}
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %d: %w", version, err)
	}
	return ledger.DecodeJSON([]byte(payload))
}
