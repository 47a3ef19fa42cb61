// Package sqlite persists records in a single SQLite file: one row per
// record as a JSON payload, plus one row holding the shared id cursor.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"latticecore/pkg/record"
)

// Compile-time contract assertion.
var _ record.Store = (*Store)(nil)

const defaultPath = "latticecore.db"

// Store is a SQLite-backed record store. The mutex serializes writers within
// the process; cross-process writers coordinate through SQLite's own file
// locking, surfaced as lock contention on busy cursor claims.
type Store struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// NewStore opens (creating if needed) the SQLite file at path, defaulting to
// ./latticecore.db, and ensures the schema exists.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = defaultPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS records (
		kind TEXT NOT NULL,
		id INTEGER NOT NULL,
		payload BLOB NOT NULL,
		PRIMARY KEY (kind, id)
	)`); err != nil {
		return nil, fmt.Errorf("create records table: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS cursor (
		slot INTEGER PRIMARY KEY CHECK (slot = 0),
		payload BLOB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create cursor table: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Get returns the row with the given kind and id.
func (s *Store) Get(ctx context.Context, kind record.Kind, id int64) (record.Row, bool, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM records WHERE kind=? AND id=?`, string(kind), id).Scan(&payload)
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
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM records WHERE kind=? ORDER BY id`, string(kind))
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
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0) FROM records WHERE kind=?`, string(kind)).Scan(&max); err != nil {
		return 0, record.NewStorageError("max id", err)
	}
	return max, nil
}

// Apply applies the batch in one transaction; on any failure the
// transaction rolls back and nothing is applied.
func (s *Store) Apply(ctx context.Context, batch record.Batch) (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
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
			if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE kind=? AND id=?`, string(kind), id); err != nil {
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
			`INSERT INTO records(kind,id,payload) VALUES(?,?,?) ON CONFLICT(kind,id) DO UPDATE SET payload=excluded.payload`,
			string(kind), row.RecordID(), payload); err != nil {
			return record.NewStorageError("apply", err)
		}
	}
	return nil
}

// ClaimCursor stamps the claim onto the cursor row and flushes it in its own
// committed write. A busy or locked database means another writer holds the
// file and is reported as lock contention, never retried here.
func (s *Store) ClaimCursor(ctx context.Context, claim record.CursorClaim) (record.Cursor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cursor, err := s.readCursor(ctx)
	if err != nil {
		return record.Cursor{}, err
	}
	cursor.Owner = claim.Owner
	cursor.Token = claim.Token
	cursor.ClaimedAt = claim.At
	if err := s.writeCursor(ctx, cursor); err != nil {
		if isBusy(err) {
			return record.Cursor{}, &record.LockContentionError{Owner: claim.Owner, Err: err}
		}
		return record.Cursor{}, record.NewStorageError("claim cursor", err)
	}
	return cursor, nil
}

// WriteCursor persists an advanced cursor.
func (s *Store) WriteCursor(ctx context.Context, cursor record.Cursor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writeCursor(ctx, cursor); err != nil {
		return record.NewStorageError("write cursor", err)
	}
	return nil
}

func (s *Store) readCursor(ctx context.Context) (record.Cursor, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM cursor WHERE slot=0`).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return record.Cursor{}, nil
	}
	if err != nil {
		return record.Cursor{}, record.NewStorageError("read cursor", err)
	}
	var cursor record.Cursor
	if err := json.Unmarshal(payload, &cursor); err != nil {
		return record.Cursor{}, record.NewStorageError("read cursor", err)
	}
	return cursor, nil
}

func (s *Store) writeCursor(ctx context.Context, cursor record.Cursor) error {
	payload, err := json.Marshal(cursor)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO cursor(slot,payload) VALUES(0,?) ON CONFLICT(slot) DO UPDATE SET payload=excluded.payload`,
		payload)
	return err
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// isBusy matches the sqlite busy/locked conditions. The driver surfaces them
// in error text rather than sentinel values.
func isBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "table is locked") ||
		strings.Contains(msg, "SQLITE_BUSY")
}
