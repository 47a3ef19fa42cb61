package check

import (
	"errors"
	"testing"

	"latticecore/pkg/record"
)

func int64Ptr(v int64) *int64 { return &v }

func strPtr(s string) *string { return &s }

// plantSnapshot builds the fixture used across the checker tests: tank,
// valve, and pipe object classes, one object of each, and a three-way
// relationship class over them.
func plantSnapshot() *record.Snapshot {
	snap := record.NewSnapshot()
	snap.Insert(record.ObjectClass{ID: 1, Name: "tank"})
	snap.Insert(record.ObjectClass{ID: 2, Name: "valve"})
	snap.Insert(record.ObjectClass{ID: 3, Name: "pipe"})
	snap.Insert(record.RelationshipClass{ID: 4, Name: "tank__valve__pipe", ObjectClassIDs: []int64{1, 2, 3}})
	snap.Insert(record.Object{ID: 1, ClassID: 1, Name: "tank1"})
	snap.Insert(record.Object{ID: 2, ClassID: 2, Name: "valve1"})
	snap.Insert(record.Object{ID: 3, ClassID: 3, Name: "pipe1"})
	return snap
}

func TestCheckInsertIntraBatchDuplicate(t *testing.T) {
	checker := New(record.NewSnapshot())
	accepted, log, err := checker.CheckInsert(record.KindObjectClass, []record.Row{
		record.ObjectClass{Name: "tank"},
		record.ObjectClass{Name: "tank"},
		record.ObjectClass{Name: "valve"},
	}, false)
	if err != nil {
		t.Fatalf("non-strict check errored: %v", err)
	}
	if len(accepted) != 2 {
		t.Fatalf("expected first and third accepted, got %d", len(accepted))
	}
	if accepted[0].(record.ObjectClass).Name != "tank" || accepted[1].(record.ObjectClass).Name != "valve" {
		t.Fatalf("unexpected accepted rows: %+v", accepted)
	}
	if len(log) != 1 {
		t.Fatalf("expected one log entry, got %d", len(log))
	}
	var verr *record.ValidationError
	if !errors.As(log[0], &verr) {
		t.Fatalf("expected validation error, got %v", log[0])
	}
	// The duplicated sibling has no id yet.
	if verr.ExistingID != 0 {
		t.Fatalf("sibling duplicate should carry no existing id, got %d", verr.ExistingID)
	}
}

func TestCheckInsertStrictAbortsBatch(t *testing.T) {
	checker := New(record.NewSnapshot())
	accepted, log, err := checker.CheckInsert(record.KindObjectClass, []record.Row{
		record.ObjectClass{Name: "tank"},
		record.ObjectClass{Name: "tank"},
		record.ObjectClass{Name: "valve"},
	}, true)
	if err == nil {
		t.Fatalf("strict check should fail the whole batch")
	}
	if accepted != nil || log != nil {
		t.Fatalf("strict failure must not return partial results: %v %v", accepted, log)
	}
}

func TestCheckInsertDuplicateOfExistingCarriesID(t *testing.T) {
	checker := New(plantSnapshot())
	_, log, err := checker.CheckInsert(record.KindObjectClass, []record.Row{record.ObjectClass{Name: "tank"}}, false)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	var verr *record.ValidationError
	if len(log) != 1 || !errors.As(log[0], &verr) {
		t.Fatalf("expected one validation error, got %v", log)
	}
	if verr.ExistingID != 1 {
		t.Fatalf("expected existing id 1, got %d", verr.ExistingID)
	}
}

func TestCheckInsertBoundaryValidation(t *testing.T) {
	checker := New(record.NewSnapshot())
	_, log, err := checker.CheckInsert(record.KindObject, []record.Row{
		nil,
		record.Tool{Name: "not-an-object"},
		record.Object{ID: 7, ClassID: 1, Name: "preassigned"},
	}, false)
	if err != nil {
		t.Fatalf("non-strict check errored: %v", err)
	}
	if len(log) != 3 {
		t.Fatalf("expected three rejections, got %d: %v", len(log), log)
	}
	for _, entry := range log {
		if !record.IsValidation(entry) {
			t.Fatalf("expected validation errors, got %v", entry)
		}
	}
}

func TestCheckInsertUnknownKind(t *testing.T) {
	checker := New(record.NewSnapshot())
	if _, _, err := checker.CheckInsert(record.Kind("species"), nil, false); !record.IsValidation(err) {
		t.Fatalf("expected validation error for unknown kind, got %v", err)
	}
	if _, _, err := checker.CheckUpdate(record.Kind("species"), nil, false); !record.IsValidation(err) {
		t.Fatalf("expected validation error for unknown kind, got %v", err)
	}
}

func TestCheckInsertClassNameSharedAcrossClassKinds(t *testing.T) {
	// Class names are unique across object and relationship classes.
	checker := New(plantSnapshot())
	_, log, err := checker.CheckInsert(record.KindRelationshipClass, []record.Row{
		record.RelationshipClass{Name: "tank", ObjectClassIDs: []int64{1}},
	}, false)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(log) != 1 || !record.IsValidation(log[0]) {
		t.Fatalf("expected shared-name rejection, got %v", log)
	}
}

func TestCheckInsertSnapshotUntouched(t *testing.T) {
	snap := plantSnapshot()
	checker := New(snap)
	if _, _, err := checker.CheckInsert(record.KindObjectClass, []record.Row{record.ObjectClass{Name: "pump"}}, false); err != nil {
		t.Fatalf("check: %v", err)
	}
	if snap.Len(record.KindObjectClass) != 3 {
		t.Fatalf("checker mutated the snapshot")
	}
	if _, ok := snap.Get(record.KindObjectClass, 0); ok {
		t.Fatalf("placeholder row leaked into the snapshot")
	}
}

func TestCheckInsertRelationships(t *testing.T) {
	snap := plantSnapshot()

	// Over existing objects of the right classes it passes.
	checker := New(snap)
	accepted, log, err := checker.CheckInsert(record.KindRelationship, []record.Row{
		record.Relationship{ClassID: 4, Name: "t1_v1_p1", ObjectIDs: []int64{1, 2, 3}},
	}, false)
	if err != nil || len(log) != 0 || len(accepted) != 1 {
		t.Fatalf("valid relationship rejected: %v %v", err, log)
	}

	// A missing object id is a not-found error.
	checker = New(snap)
	_, log, err = checker.CheckInsert(record.KindRelationship, []record.Row{
		record.Relationship{ClassID: 4, Name: "ghost", ObjectIDs: []int64{1, 2, 99}},
	}, false)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	var nf *record.NotFoundError
	if len(log) != 1 || !errors.As(log[0], &nf) {
		t.Fatalf("expected not-found, got %v", log)
	}
	if nf.Kind != record.KindObject || nf.ID != 99 {
		t.Fatalf("unexpected not-found target: %+v", nf)
	}

	// The wrong class at a position is a validation error.
	checker = New(snap)
	_, log, err = checker.CheckInsert(record.KindRelationship, []record.Row{
		record.Relationship{ClassID: 4, Name: "swapped", ObjectIDs: []int64{2, 1, 3}},
	}, false)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(log) != 1 || !record.IsValidation(log[0]) || record.IsNotFound(log[0]) {
		t.Fatalf("expected class-mismatch validation error, got %v", log)
	}

	// Arity must match the class dimension list.
	checker = New(snap)
	_, log, _ = checker.CheckInsert(record.KindRelationship, []record.Row{
		record.Relationship{ClassID: 4, Name: "short", ObjectIDs: []int64{1, 2}},
	}, false)
	if len(log) != 1 || !record.IsValidation(log[0]) {
		t.Fatalf("expected arity error, got %v", log)
	}
}

func TestCheckInsertEntityGroups(t *testing.T) {
	snap := plantSnapshot()
	snap.Insert(record.Object{ID: 4, ClassID: 1, Name: "tank2"})

	checker := New(snap)
	accepted, log, err := checker.CheckInsert(record.KindEntityGroup, []record.Row{
		record.EntityGroup{ClassID: 1, GroupID: 1, MemberID: 4},
	}, false)
	if err != nil || len(log) != 0 || len(accepted) != 1 {
		t.Fatalf("valid group rejected: %v %v", err, log)
	}

	// Group and member must share the group's class.
	checker = New(snap)
	_, log, _ = checker.CheckInsert(record.KindEntityGroup, []record.Row{
		record.EntityGroup{ClassID: 1, GroupID: 1, MemberID: 2},
	}, false)
	if len(log) != 1 || !record.IsValidation(log[0]) {
		t.Fatalf("expected class-mismatch error, got %v", log)
	}

	// A missing entity reports the entity union, not one concrete kind.
	checker = New(snap)
	_, log, _ = checker.CheckInsert(record.KindEntityGroup, []record.Row{
		record.EntityGroup{ClassID: 1, GroupID: 1, MemberID: 77},
	}, false)
	var nf *record.NotFoundError
	if len(log) != 1 || !errors.As(log[0], &nf) || nf.ID != 77 {
		t.Fatalf("expected entity not-found, got %v", log)
	}
}
