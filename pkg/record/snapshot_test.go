package record

import "testing"

func TestSnapshotInsertIsDeepCopy(t *testing.T) {
	snap := NewSnapshot()
	rel := Relationship{ID: 1, ClassID: 1, Name: "r", ObjectIDs: []int64{1, 2}}
	snap.Insert(rel)
	rel.ObjectIDs[0] = 99
	got, ok := snap.Get(KindRelationship, 1)
	if !ok {
		t.Fatalf("relationship missing")
	}
	if got.(Relationship).ObjectIDs[0] != 1 {
		t.Fatalf("snapshot aliases caller slice")
	}
}

func TestSnapshotInsertReplaces(t *testing.T) {
	snap := NewSnapshot()
	snap.Insert(Tool{ID: 3, Name: "old"})
	snap.Insert(Tool{ID: 3, Name: "new"})
	got, _ := snap.Get(KindTool, 3)
	if got.(Tool).Name != "new" {
		t.Fatalf("insert should replace by id")
	}
	if snap.Len(KindTool) != 1 {
		t.Fatalf("expected one tool, got %d", snap.Len(KindTool))
	}
}

func TestSnapshotDelete(t *testing.T) {
	snap := NewSnapshot()
	snap.Insert(Alternative{ID: 5, Name: "base"})
	snap.Delete(KindAlternative, 5)
	if _, ok := snap.Get(KindAlternative, 5); ok {
		t.Fatalf("delete should remove the row")
	}
	// Deleting a missing id is a no-op.
	snap.Delete(KindAlternative, 5)
	snap.Delete(Kind("bogus"), 5)
}

func TestSnapshotRowsSortedByID(t *testing.T) {
	snap := NewSnapshot()
	for _, id := range []int64{4, 1, 3, 2} {
		snap.Insert(Scenario{ID: id, Name: "s" + string(rune('0'+id))})
	}
	rows := snap.Rows(KindScenario)
	if len(rows) != 4 {
		t.Fatalf("expected four rows, got %d", len(rows))
	}
	for i, row := range rows {
		if row.RecordID() != int64(i+1) {
			t.Fatalf("rows not sorted: %v", rows)
		}
	}
	ids := snap.IDs(KindScenario)
	for id := int64(1); id <= 4; id++ {
		if !ids.Has(id) {
			t.Fatalf("IDs missing %d", id)
		}
	}
}

func TestSnapshotGetUnknownKind(t *testing.T) {
	snap := NewSnapshot()
	if _, ok := snap.Get(Kind("bogus"), 1); ok {
		t.Fatalf("unknown kind should miss")
	}
}

func TestSnapshotCloneIndependent(t *testing.T) {
	snap := NewSnapshot()
	snap.Insert(ObjectClass{ID: 1, Name: "pump"})
	snap.Insert(Object{ID: 1, ClassID: 1, Name: "pump-1"})
	clone := snap.Clone()
	clone.Delete(KindObject, 1)
	clone.Insert(ObjectClass{ID: 2, Name: "pipe"})
	if _, ok := snap.Get(KindObject, 1); !ok {
		t.Fatalf("clone delete leaked into original")
	}
	if _, ok := snap.Get(KindObjectClass, 2); ok {
		t.Fatalf("clone insert leaked into original")
	}
}

func TestSnapshotMaxIDSpansFamily(t *testing.T) {
	snap := NewSnapshot()
	snap.Insert(Object{ID: 5, ClassID: 1, Name: "o"})
	snap.Insert(Relationship{ID: 9, ClassID: 2, Name: "r", ObjectIDs: []int64{5}})
	if got := snap.MaxID(FamilyEntity); got != 9 {
		t.Fatalf("family max should span object and relationship, got %d", got)
	}
	if got := snap.MaxID(FamilyEntityClass); got != 0 {
		t.Fatalf("empty family max should be zero, got %d", got)
	}
	if got := snap.MaxID(Family(KindAlternative)); got != 0 {
		t.Fatalf("empty single-kind family max should be zero, got %d", got)
	}
}
