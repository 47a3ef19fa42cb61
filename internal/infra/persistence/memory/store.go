// Package memory provides an in-memory implementation of the record store
// used for tests and ephemeral environments.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"latticecore/pkg/record"
)

// Compile-time contract assertion.
var _ record.Store = (*Store)(nil)

// Store keeps all rows and the id cursor in process memory behind a mutex.
// Rows are cloned on the way in and out, so callers never share state with
// the store.
type Store struct {
	mu     sync.Mutex
	rows   map[record.Kind]map[int64]record.Row
	cursor record.Cursor
}

// NewStore constructs an empty in-memory store.
func NewStore() *Store {
	return &Store{rows: make(map[record.Kind]map[int64]record.Row)}
}

// Get returns the row with the given kind and id.
func (s *Store) Get(_ context.Context, kind record.Kind, id int64) (record.Row, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[kind][id]
	if !ok {
		return nil, false, nil
	}
	return record.Clone(row), true, nil
}

// LoadKind returns all rows of the given kind ordered by id.
func (s *Store) LoadKind(_ context.Context, kind record.Kind) ([]record.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	table := s.rows[kind]
	out := make([]record.Row, 0, len(table))
	for _, row := range table {
		out = append(out, record.Clone(row))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordID() < out[j].RecordID() })
	return out, nil
}

// MaxID returns the largest id stored for the given kind, zero when empty.
func (s *Store) MaxID(_ context.Context, kind record.Kind) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var max int64
	for id := range s.rows[kind] {
		if id > max {
			max = id
		}
	}
	return max, nil
}

// Apply applies the batch atomically: the batch is validated in full before
// any mutation, so a malformed batch leaves the store untouched. Deletes of
// absent ids are no-ops.
func (s *Store) Apply(_ context.Context, batch record.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := validateBatch(batch.Inserts, "insert"); err != nil {
		return err
	}
	if err := validateBatch(batch.Updates, "update"); err != nil {
		return err
	}
	for kind, rows := range batch.Inserts {
		s.put(kind, rows)
	}
	for kind, rows := range batch.Updates {
		s.put(kind, rows)
	}
	for kind, ids := range batch.Deletes {
		table := s.rows[kind]
		for _, id := range ids {
			delete(table, id)
		}
	}
	return nil
}

func validateBatch(groups map[record.Kind][]record.Row, op string) error {
	for kind, rows := range groups {
		for _, row := range rows {
			if row == nil {
				return fmt.Errorf("apply: nil %s row for kind %s", op, kind)
			}
			if row.Kind() != kind {
				return fmt.Errorf("apply: %s row is a %s, keyed as %s", op, row.Kind(), kind)
			}
			if row.RecordID() == 0 {
				return fmt.Errorf("apply: %s %s row without id", op, kind)
			}
		}
	}
	return nil
}

func (s *Store) put(kind record.Kind, rows []record.Row) {
	table, ok := s.rows[kind]
	if !ok {
		table = make(map[int64]record.Row)
		s.rows[kind] = table
	}
	for _, row := range rows {
		table[row.RecordID()] = record.Clone(row)
	}
}

// ClaimCursor stamps the claim onto the cursor and returns it. The store's
// mutex makes the claim and the read one step, so a single-process caller
// can never observe contention here.
func (s *Store) ClaimCursor(_ context.Context, claim record.CursorClaim) (record.Cursor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor.Owner = claim.Owner
	s.cursor.Token = claim.Token
	s.cursor.ClaimedAt = claim.At
	return s.cursor.Clone(), nil
}

// WriteCursor persists an advanced cursor.
func (s *Store) WriteCursor(_ context.Context, cursor record.Cursor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor = cursor.Clone()
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}
