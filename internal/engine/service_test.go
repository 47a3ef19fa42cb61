package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"latticecore/internal/infra/persistence/memory"
	"latticecore/pkg/record"
)

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	opts = append([]Option{WithOwner("test-writer")}, opts...)
	svc, err := NewService(memory.NewStore(), opts...)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	t.Cleanup(func() {
		if err := svc.Close(); err != nil {
			t.Errorf("close: %v", err)
		}
	})
	return svc
}

// seedPlant inserts a tank class, two tanks, a relationship class, and a
// relationship through the service, returning nothing; ids are deterministic
// (classes 1-2, entities 1-3).
func seedPlant(t *testing.T, svc *Service) {
	t.Helper()
	ctx := context.Background()
	mustInsert(t, svc, record.KindObjectClass, record.ObjectClass{Name: "tank"})
	mustInsert(t, svc, record.KindRelationshipClass, record.RelationshipClass{Name: "feeds", ObjectClassIDs: []int64{1, 1}})
	mustInsert(t, svc, record.KindObject, record.Object{ClassID: 1, Name: "t1"}, record.Object{ClassID: 1, Name: "t2"})
	if _, _, err := svc.Insert(ctx, record.KindRelationship, []record.Row{
		record.Relationship{ClassID: 2, Name: "t1_t2", ObjectIDs: []int64{1, 2}},
	}, true); err != nil {
		t.Fatalf("insert relationship: %v", err)
	}
}

func mustInsert(t *testing.T, svc *Service, kind record.Kind, rows ...record.Row) []record.Row {
	t.Helper()
	accepted, errLog, err := svc.Insert(context.Background(), kind, rows, true)
	if err != nil || len(errLog) != 0 {
		t.Fatalf("insert %s: %v %v", kind, err, errLog)
	}
	return accepted
}

func TestServiceInsertAllocatesSequentialIDs(t *testing.T) {
	svc := newTestService(t)
	accepted := mustInsert(t, svc, record.KindObjectClass,
		record.ObjectClass{Name: "tank"},
		record.ObjectClass{Name: "valve"},
	)
	if len(accepted) != 2 {
		t.Fatalf("expected two accepted rows, got %d", len(accepted))
	}
	for i, want := range []int64{1, 2} {
		if got := accepted[i].RecordID(); got != want {
			t.Fatalf("row %d allocated id %d, want %d", i, got, want)
		}
	}

	row, err := svc.Get(context.Background(), record.KindObjectClass, 2)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if row.(record.ObjectClass).Name != "valve" {
		t.Fatalf("unexpected row: %+v", row)
	}
}

func TestServiceFamiliesShareIDSpace(t *testing.T) {
	svc := newTestService(t)
	seedPlant(t, svc)

	// Classes share one id space (1, 2); objects and relationships share
	// another (1, 2, 3).
	rel, err := svc.Get(context.Background(), record.KindRelationship, 3)
	if err != nil {
		t.Fatalf("relationship id: %v", err)
	}
	if rel.(record.Relationship).Name != "t1_t2" {
		t.Fatalf("unexpected relationship: %+v", rel)
	}
	if _, err := svc.Get(context.Background(), record.KindObject, 3); !record.IsNotFound(err) {
		t.Fatalf("object 3 should not exist, got %v", err)
	}
}

func TestServiceInsertNonStrictKeepsGoing(t *testing.T) {
	svc := newTestService(t)
	accepted, errLog, err := svc.Insert(context.Background(), record.KindObjectClass, []record.Row{
		record.ObjectClass{Name: "tank"},
		record.ObjectClass{Name: "tank"},
		record.ObjectClass{Name: "valve"},
	}, false)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if len(accepted) != 2 || len(errLog) != 1 {
		t.Fatalf("expected 2 accepted / 1 rejected, got %d / %d", len(accepted), len(errLog))
	}

	rows, err := svc.List(context.Background(), record.KindObjectClass)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("store holds %d rows, want 2", len(rows))
	}
}

func TestServiceInsertStrictAppliesNothing(t *testing.T) {
	svc := newTestService(t)
	_, _, err := svc.Insert(context.Background(), record.KindObjectClass, []record.Row{
		record.ObjectClass{Name: "tank"},
		record.ObjectClass{Name: "tank"},
	}, true)
	if !record.IsValidation(err) {
		t.Fatalf("expected validation failure, got %v", err)
	}
	rows, err := svc.List(context.Background(), record.KindObjectClass)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("strict failure leaked %d rows", len(rows))
	}
}

func TestServiceInsertAllRejectedSkipsAllocation(t *testing.T) {
	svc := newTestService(t)
	mustInsert(t, svc, record.KindObjectClass, record.ObjectClass{Name: "tank"})

	accepted, errLog, err := svc.Insert(context.Background(), record.KindObjectClass, []record.Row{
		record.ObjectClass{Name: "tank"},
	}, false)
	if err != nil || len(accepted) != 0 || len(errLog) != 1 {
		t.Fatalf("unexpected result: %v %v %v", accepted, errLog, err)
	}

	// The failed batch must not have burned ids.
	next := mustInsert(t, svc, record.KindObjectClass, record.ObjectClass{Name: "valve"})
	if got := next[0].RecordID(); got != 2 {
		t.Fatalf("allocation skipped ids: got %d, want 2", got)
	}
}

func TestServiceUpdate(t *testing.T) {
	svc := newTestService(t)
	seedPlant(t, svc)

	updated, errLog, err := svc.Update(context.Background(), record.KindObject, []record.Row{
		record.Object{ID: 1, Name: "main-tank"},
	}, true)
	if err != nil || len(errLog) != 0 {
		t.Fatalf("update: %v %v", err, errLog)
	}
	if updated[0].(record.Object).Name != "main-tank" {
		t.Fatalf("unexpected merged row: %+v", updated[0])
	}

	row, err := svc.Get(context.Background(), record.KindObject, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if row.(record.Object).Name != "main-tank" {
		t.Fatalf("update not visible in session view: %+v", row)
	}

	// Non-strict collects rejections without failing the call.
	_, errLog, err = svc.Update(context.Background(), record.KindObject, []record.Row{
		record.Object{ID: 99, Name: "ghost"},
	}, false)
	if err != nil || len(errLog) != 1 || !record.IsNotFound(errLog[0]) {
		t.Fatalf("unexpected result: %v %v", errLog, err)
	}
}

func TestServiceRemoveCascades(t *testing.T) {
	svc := newTestService(t)
	seedPlant(t, svc)
	ctx := context.Background()

	removed, err := svc.Remove(ctx, map[record.Kind][]int64{
		record.KindObjectClass: {1},
	})
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	want := map[record.Kind][]int64{
		record.KindObjectClass:       {1},
		record.KindRelationshipClass: {2},
		record.KindObject:            {1, 2},
		record.KindRelationship:      {3},
	}
	for kind, ids := range want {
		got := removed[kind].Sorted()
		if len(got) != len(ids) {
			t.Fatalf("%s: removed %v, want %v", kind, got, ids)
		}
		for i := range ids {
			if got[i] != ids[i] {
				t.Fatalf("%s: removed %v, want %v", kind, got, ids)
			}
		}
	}

	for kind := range want {
		rows, err := svc.List(ctx, kind)
		if err != nil {
			t.Fatalf("list %s: %v", kind, err)
		}
		if len(rows) != 0 {
			t.Fatalf("%s still holds %d rows", kind, len(rows))
		}
	}

	// Removing an id that is already gone is not an error.
	removed, err = svc.Remove(ctx, map[record.Kind][]int64{record.KindObject: {1}})
	if err != nil {
		t.Fatalf("re-remove: %v", err)
	}
	if got := removed[record.KindObject].Sorted(); len(got) != 1 || got[0] != 1 {
		t.Fatalf("missing root did not pass through: %v", removed)
	}
}

func TestServiceCascadingIDsIsReadOnly(t *testing.T) {
	svc := newTestService(t)
	seedPlant(t, svc)
	ctx := context.Background()

	resolved, err := svc.CascadingIDs(ctx, map[record.Kind][]int64{
		record.KindObjectClass: {1},
	})
	if err != nil {
		t.Fatalf("cascading ids: %v", err)
	}
	if len(resolved[record.KindObject]) != 2 || len(resolved[record.KindRelationship]) != 1 {
		t.Fatalf("unexpected closure: %v", resolved)
	}

	rows, err := svc.List(ctx, record.KindObject)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("resolving a cascade mutated the dataset: %d objects left", len(rows))
	}
}

func TestServiceGetOrAdd(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	row, added, err := svc.GetOrAdd(ctx, record.KindObjectClass, record.ObjectClass{Name: "tank"})
	if err != nil || !added {
		t.Fatalf("first: %v added=%v", err, added)
	}
	firstID := row.RecordID()
	if firstID == 0 {
		t.Fatalf("added row carries no id")
	}

	row, added, err = svc.GetOrAdd(ctx, record.KindObjectClass, record.ObjectClass{Name: "tank"})
	if err != nil || added {
		t.Fatalf("second: %v added=%v", err, added)
	}
	if row.RecordID() != firstID {
		t.Fatalf("got id %d, want existing %d", row.RecordID(), firstID)
	}

	// Plain validation failures still surface.
	if _, _, err := svc.GetOrAdd(ctx, record.KindObjectClass, record.ObjectClass{}); !record.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestServiceSessionBookkeeping(t *testing.T) {
	svc := newTestService(t)
	seedPlant(t, svc)
	ctx := context.Background()

	added := svc.Session()
	if got := added[record.KindObject].Sorted(); len(got) != 2 {
		t.Fatalf("session objects %v", got)
	}
	if got := added[record.KindRelationship].Sorted(); len(got) != 1 || got[0] != 3 {
		t.Fatalf("session relationships %v", got)
	}

	// The returned sets are copies.
	added[record.KindObject].Add(99)
	if svc.Session()[record.KindObject].Has(99) {
		t.Fatalf("session bookkeeping aliased to caller")
	}

	if _, err := svc.Remove(ctx, map[record.Kind][]int64{record.KindRelationship: {3}}); err != nil {
		t.Fatalf("remove: %v", err)
	}
	added = svc.Session()
	if _, ok := added[record.KindRelationship]; ok {
		t.Fatalf("removed id still tracked: %v", added)
	}
	if got := added[record.KindObject].Sorted(); len(got) != 2 {
		t.Fatalf("unrelated bookkeeping disturbed: %v", got)
	}
}

func TestServiceRefreshSession(t *testing.T) {
	store := memory.NewStore()
	writer, err := NewService(store, WithOwner("writer"))
	if err != nil {
		t.Fatalf("writer: %v", err)
	}
	reader, err := NewService(store, WithOwner("reader"))
	if err != nil {
		t.Fatalf("reader: %v", err)
	}
	ctx := context.Background()

	accepted, _, err := writer.Insert(ctx, record.KindObjectClass, []record.Row{record.ObjectClass{Name: "tank"}}, true)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	classID := accepted[0].RecordID()

	// The reader's view predates the insert until it refreshes.
	if _, err := reader.Get(ctx, record.KindObjectClass, classID); !record.IsNotFound(err) {
		t.Fatalf("stale session already sees the row: %v", err)
	}
	if err := reader.RefreshSession(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if _, err := reader.Get(ctx, record.KindObjectClass, classID); err != nil {
		t.Fatalf("refreshed session misses the row: %v", err)
	}

	// Refresh keeps the writer's added ids while dropping ones removed
	// elsewhere.
	if _, err := reader.Remove(ctx, map[record.Kind][]int64{record.KindObjectClass: {classID}}); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := writer.RefreshSession(ctx); err != nil {
		t.Fatalf("writer refresh: %v", err)
	}
	if _, ok := writer.Session()[record.KindObjectClass]; ok {
		t.Fatalf("writer still tracks an id removed by another session")
	}
}

func TestServiceReadValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Get(ctx, record.Kind("species"), 1); !record.IsValidation(err) {
		t.Fatalf("get unknown kind: %v", err)
	}
	if _, err := svc.List(ctx, record.Kind("species")); !record.IsValidation(err) {
		t.Fatalf("list unknown kind: %v", err)
	}
	if _, err := svc.Get(ctx, record.KindObject, 7); !record.IsNotFound(err) {
		t.Fatalf("get missing row: %v", err)
	}
	if _, err := svc.Remove(ctx, map[record.Kind][]int64{record.Kind("species"): {1}}); !record.IsValidation(err) {
		t.Fatalf("remove unknown kind: %v", err)
	}
}

func TestServiceReadsAreIsolated(t *testing.T) {
	svc := newTestService(t)
	seedPlant(t, svc)
	ctx := context.Background()

	row, err := svc.Get(ctx, record.KindRelationship, 3)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	rel := row.(record.Relationship)
	rel.ObjectIDs[0] = 999

	again, err := svc.Get(ctx, record.KindRelationship, 3)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if again.(record.Relationship).ObjectIDs[0] != 1 {
		t.Fatalf("session view corrupted through a read")
	}
}

func TestServiceMetadataUsage(t *testing.T) {
	svc := newTestService(t)
	seedPlant(t, svc)
	ctx := context.Background()

	meta := mustInsert(t, svc, record.KindMetadata,
		record.Metadata{Name: "source", Value: "survey"},
		record.Metadata{Name: "source", Value: "estimate"},
	)
	sharedID := meta[0].RecordID()
	mustInsert(t, svc, record.KindEntityMetadata,
		record.EntityMetadata{EntityID: 1, MetadataID: sharedID},
		record.EntityMetadata{EntityID: 2, MetadataID: sharedID},
	)

	usage, err := svc.MetadataUsage(ctx)
	if err != nil {
		t.Fatalf("usage: %v", err)
	}
	if usage[sharedID] != 2 {
		t.Fatalf("usage[%d] = %d, want 2", sharedID, usage[sharedID])
	}
	if _, ok := usage[meta[1].RecordID()]; ok {
		t.Fatalf("unreferenced metadata reported: %v", usage)
	}
}

func TestServiceOwner(t *testing.T) {
	svc := newTestService(t)
	if svc.Owner() != "test-writer" {
		t.Fatalf("owner %q", svc.Owner())
	}

	direct, err := NewService(memory.NewStore())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	defer direct.Close()
	if !strings.Contains(direct.Owner(), "@") {
		t.Fatalf("default owner %q is not user@host", direct.Owner())
	}
}

func TestDefaultOwnerFallbacks(t *testing.T) {
	t.Setenv("USER", "")
	owner := defaultOwner()
	if !strings.HasPrefix(owner, "unknown@") {
		t.Fatalf("owner %q", owner)
	}

	t.Setenv("USER", "pat")
	if owner := defaultOwner(); !strings.HasPrefix(owner, "pat@") {
		t.Fatalf("owner %q", owner)
	}
}

func TestServiceSnapshotLoadFailure(t *testing.T) {
	if _, err := NewService(failingStore{}); err == nil {
		t.Fatalf("expected load failure")
	}
}

type failingStore struct{}

var errBroken = errors.New("backend down")

func (failingStore) Get(context.Context, record.Kind, int64) (record.Row, bool, error) {
	return nil, false, errBroken
}
func (failingStore) LoadKind(context.Context, record.Kind) ([]record.Row, error) {
	return nil, errBroken
}
func (failingStore) MaxID(context.Context, record.Kind) (int64, error) { return 0, errBroken }
func (failingStore) Apply(context.Context, record.Batch) error         { return errBroken }
func (failingStore) ClaimCursor(context.Context, record.CursorClaim) (record.Cursor, error) {
	return record.Cursor{}, errBroken
}
func (failingStore) WriteCursor(context.Context, record.Cursor) error { return errBroken }
func (failingStore) Close() error                                     { return nil }
