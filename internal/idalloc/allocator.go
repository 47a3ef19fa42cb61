// Package idalloc implements the identifier allocator: contiguous id ranges
// reserved from the single shared cursor record, with claim-marker locking
// and max-plus-one reconciliation against the backing tables.
package idalloc

import (
	"context"
	"time"

	"github.com/google/uuid"

	"latticecore/pkg/record"
)

// Allocator reserves id ranges per allocation family. It is not safe for
// concurrent use by itself; the coordinator serializes calls.
type Allocator struct {
	store record.Store
	owner string
	now   func() time.Time
}

// New builds an allocator writing claims as owner. A nil now defaults to
// time.Now.
func New(store record.Store, owner string, now func() time.Time) *Allocator {
	if now == nil {
		now = time.Now
	}
	return &Allocator{store: store, owner: owner, now: now}
}

// Allocate reserves count contiguous ids for kind's allocation family:
//
//  1. claim the cursor with a fresh marker and a synchronous flush,
//  2. read the family's next id,
//  3. reconcile against max(existing id)+1 over the family's kinds, so a
//     missing or stale cursor still never reissues an id,
//  4. reserve [next, next+count),
//  5. advance the cursor and persist it.
//
// A failed claim flush is contention, never success, and surfaces as a
// LockContentionError; Allocate does not retry. A failed cursor persist means
// the range must not be used.
func (a *Allocator) Allocate(ctx context.Context, kind record.Kind, count int) (record.IDRange, error) {
	if !kind.Valid() {
		return record.IDRange{}, record.Validationf(kind, "unknown record kind")
	}
	if count <= 0 {
		return record.IDRange{}, record.Validationf(kind, "id allocation needs a positive count")
	}
	claim := record.CursorClaim{Owner: a.owner, Token: uuid.NewString(), At: a.now()}
	cursor, err := a.store.ClaimCursor(ctx, claim)
	if err != nil {
		if record.IsLockContention(err) {
			return record.IDRange{}, err
		}
		return record.IDRange{}, &record.LockContentionError{Owner: a.owner, Err: err}
	}
	family := kind.AllocationFamily()
	next := cursor.NextID(family)
	for _, familyKind := range record.FamilyKinds(family) {
		maxID, err := a.store.MaxID(ctx, familyKind)
		if err != nil {
			return record.IDRange{}, err
		}
		if maxID >= next {
			next = maxID + 1
		}
	}
	if next < 1 {
		next = 1
	}
	reserved := record.IDRange{First: next, Count: count}
	cursor.SetNext(family, next+int64(count))
	if err := a.store.WriteCursor(ctx, cursor); err != nil {
		return record.IDRange{}, err
	}
	return reserved, nil
}
