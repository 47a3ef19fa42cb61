// Package postgres provides a Postgres-backed record store: one JSONB row
// per record plus a single cursor row claimed with FOR UPDATE NOWAIT.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"latticecore/pkg/record"
)

// Compile-time contract assertion.
var _ record.Store = (*Store)(nil)

const (
	defaultDriver = "pgx"
	// Default DSN keeps parity with OpenStore defaults while allowing overrides via env.
	defaultDSN = "postgres://localhost/latticecore?sslmode=disable"

	// Postgres reports a failed NOWAIT lock acquisition with this SQLSTATE.
	lockNotAvailable = "55P03"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store is a Postgres-backed record store.
type Store struct {
	db *sql.DB
}

// NewStore opens a Postgres-backed store using the provided DSN (falls back
// to defaultDSN), ensures the schema exists, and seeds the cursor row.
func NewStore(dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := ensureSchema(ctx, db); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

func ensureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS records (
			kind TEXT NOT NULL,
			id BIGINT NOT NULL,
			payload JSONB NOT NULL,
			PRIMARY KEY (kind, id)
		)`,
		`CREATE TABLE IF NOT EXISTS cursor (
			slot INT PRIMARY KEY CHECK (slot = 0),
			payload JSONB NOT NULL
		)`,
		`INSERT INTO cursor(slot, payload) VALUES (0, '{}') ON CONFLICT (slot) DO NOTHING`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// Get returns the row with the given kind and id.
func (s *Store) Get(ctx context.Context, kind record.Kind, id int64) (record.Row, bool, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM records WHERE kind=$1 AND id=$2`, string(kind), id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, record.NewStorageError("get", err)
	}
	row, err := record.UnmarshalRow(kind, payload)
	if err != nil {
		return nil, false, record.NewStorageError("get", err)
	}
	return row, true, nil
}

// LoadKind returns all rows of the given kind ordered by id.
func (s *Store) LoadKind(ctx context.Context, kind record.Kind) ([]record.Row, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM records WHERE kind=$1 ORDER BY id`, string(kind))
	if err != nil {
		return nil, record.NewStorageError("load", err)
	}
	defer func() { _ = rows.Close() }()
	var out []record.Row
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, record.NewStorageError("load", err)
		}
		row, err := record.UnmarshalRow(kind, payload)
		if err != nil {
			return nil, record.NewStorageError("load", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, record.NewStorageError("load", err)
	}
	return out, nil
}

// MaxID returns the largest id stored for the given kind, zero when empty.
func (s *Store) MaxID(ctx context.Context, kind record.Kind) (int64, error) {
	var max int64
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0) FROM records WHERE kind=$1`, string(kind)).Scan(&max); err != nil {
		return 0, record.NewStorageError("max id", err)
	}
	return max, nil
}

// Apply applies the batch in one transaction; on any failure the
// transaction rolls back and nothing is applied.
func (s *Store) Apply(ctx context.Context, batch record.Batch) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return record.NewStorageError("apply", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	for _, kind := range record.Kinds() {
		if err := upsertRows(ctx, tx, kind, batch.Inserts[kind]); err != nil {
			return err
		}
		if err := upsertRows(ctx, tx, kind, batch.Updates[kind]); err != nil {
			return err
		}
		for _, id := range batch.Deletes[kind] {
			if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE kind=$1 AND id=$2`, string(kind), id); err != nil {
				return record.NewStorageError("apply", err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return record.NewStorageError("apply", err)
	}
	committed = true
	return nil
}

func upsertRows(ctx context.Context, tx *sql.Tx, kind record.Kind, rows []record.Row) error {
	for _, row := range rows {
		payload, err := record.MarshalRow(row)
		if err != nil {
			return record.NewStorageError("apply", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO records(kind,id,payload) VALUES($1,$2,$3) ON CONFLICT(kind,id) DO UPDATE SET payload=EXCLUDED.payload`,
			string(kind), row.RecordID(), payload); err != nil {
			return record.NewStorageError("apply", err)
		}
	}
	return nil
}

// ClaimCursor locks the cursor row with FOR UPDATE NOWAIT, stamps the claim,
// and commits. A writer already holding the row lock surfaces as lock
// contention (SQLSTATE 55P03), never retried here.
func (s *Store) ClaimCursor(ctx context.Context, claim record.CursorClaim) (record.Cursor, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return record.Cursor{}, record.NewStorageError("claim cursor", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	var payload []byte
	if err := tx.QueryRowContext(ctx, `SELECT payload FROM cursor WHERE slot=0 FOR UPDATE NOWAIT`).Scan(&payload); err != nil {
		if isLockNotAvailable(err) {
			return record.Cursor{}, &record.LockContentionError{Owner: claim.Owner, Err: err}
		}
		return record.Cursor{}, record.NewStorageError("claim cursor", err)
	}
	var cursor record.Cursor
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &cursor); err != nil {
			return record.Cursor{}, record.NewStorageError("claim cursor", err)
		}
	}
	cursor.Owner = claim.Owner
	cursor.Token = claim.Token
	cursor.ClaimedAt = claim.At
	stamped, err := json.Marshal(cursor)
	if err != nil {
		return record.Cursor{}, record.NewStorageError("claim cursor", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE cursor SET payload=$1 WHERE slot=0`, stamped); err != nil {
		return record.Cursor{}, record.NewStorageError("claim cursor", err)
	}
	if err := tx.Commit(); err != nil {
		return record.Cursor{}, record.NewStorageError("claim cursor", err)
	}
	committed = true
	return cursor, nil
}

// WriteCursor persists an advanced cursor.
func (s *Store) WriteCursor(ctx context.Context, cursor record.Cursor) error {
	payload, err := json.Marshal(cursor)
	if err != nil {
		return record.NewStorageError("write cursor", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO cursor(slot,payload) VALUES(0,$1) ON CONFLICT(slot) DO UPDATE SET payload=EXCLUDED.payload`,
		payload); err != nil {
		return record.NewStorageError("write cursor", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func isLockNotAvailable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == lockNotAvailable
}

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore
// function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
