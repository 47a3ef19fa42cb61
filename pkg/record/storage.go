package record

import "context"

// Batch is a mixed set of inserts, updates, and deletes applied atomically.
// Rows in Inserts and Updates carry their final ids.
type Batch struct {
	Inserts map[Kind][]Row
	Updates map[Kind][]Row
	Deletes map[Kind][]int64
}

// Insert stages rows for insertion.
func (b *Batch) Insert(kind Kind, rows ...Row) {
	if len(rows) == 0 {
		return
	}
	if b.Inserts == nil {
		b.Inserts = map[Kind][]Row{}
	}
	b.Inserts[kind] = append(b.Inserts[kind], rows...)
}

// Update stages full replacement rows.
func (b *Batch) Update(kind Kind, rows ...Row) {
	if len(rows) == 0 {
		return
	}
	if b.Updates == nil {
		b.Updates = map[Kind][]Row{}
	}
	b.Updates[kind] = append(b.Updates[kind], rows...)
}

// Delete stages ids for removal.
func (b *Batch) Delete(kind Kind, ids ...int64) {
	if len(ids) == 0 {
		return
	}
	if b.Deletes == nil {
		b.Deletes = map[Kind][]int64{}
	}
	b.Deletes[kind] = append(b.Deletes[kind], ids...)
}

// Empty reports whether the batch stages nothing.
func (b Batch) Empty() bool {
	return len(b.Inserts) == 0 && len(b.Updates) == 0 && len(b.Deletes) == 0
}

// Store is the storage contract the engine runs against. Implementations
// must apply batches atomically (a failed Apply leaves the store unchanged)
// and make ClaimCursor a synchronous flush: when it returns without error the
// claim is durable, and a flush lost to a concurrent writer must surface an
// error rather than succeed silently.
type Store interface {
	// Get point-reads one row.
	Get(ctx context.Context, kind Kind, id int64) (Row, bool, error)
	// LoadKind bulk-reads every row of one kind.
	LoadKind(ctx context.Context, kind Kind) ([]Row, error)
	// MaxID returns the largest id present for kind, zero when empty.
	MaxID(ctx context.Context, kind Kind) (int64, error)
	// Apply applies the batch atomically.
	Apply(ctx context.Context, batch Batch) error
	// ClaimCursor stamps the cursor with claim, flushes it, and returns the
	// cursor as claimed.
	ClaimCursor(ctx context.Context, claim CursorClaim) (Cursor, error)
	// WriteCursor persists an advanced cursor.
	WriteCursor(ctx context.Context, cursor Cursor) error
	// Close releases backend resources.
	Close() error
}

// BuildSnapshot loads every kind from the store into a fresh snapshot.
func BuildSnapshot(ctx context.Context, store Store) (*Snapshot, error) {
	snap := NewSnapshot()
	for _, kind := range kinds {
		rows, err := store.LoadKind(ctx, kind)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			snap.Insert(row)
		}
	}
	return snap, nil
}
