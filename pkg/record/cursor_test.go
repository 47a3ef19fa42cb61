package record

import (
	"testing"
	"time"
)

func TestCursorNextDefaults(t *testing.T) {
	var c Cursor
	if c.NextID(FamilyEntity) != 0 {
		t.Fatalf("fresh cursor should report zero")
	}
	c.SetNext(FamilyEntity, 12)
	if c.NextID(FamilyEntity) != 12 {
		t.Fatalf("SetNext not visible")
	}
	if c.NextID(FamilyEntityClass) != 0 {
		t.Fatalf("other families stay zero")
	}
}

func TestCursorClone(t *testing.T) {
	c := Cursor{Owner: "ops@host", Token: "tok", ClaimedAt: time.Now().UTC()}
	c.SetNext(FamilyEntity, 3)
	clone := c.Clone()
	clone.SetNext(FamilyEntity, 99)
	if c.NextID(FamilyEntity) != 3 {
		t.Fatalf("clone shares the next map")
	}
	if clone.Owner != "ops@host" || clone.Token != "tok" {
		t.Fatalf("clone lost claim fields: %+v", clone)
	}
	empty := Cursor{}
	if empty.Clone().Next != nil {
		t.Fatalf("cloning an empty cursor should keep a nil map")
	}
}

func TestIDRange(t *testing.T) {
	r := IDRange{First: 10, Count: 3}
	if r.Last() != 12 {
		t.Fatalf("expected last 12, got %d", r.Last())
	}
	ids := r.IDs()
	if len(ids) != 3 || ids[0] != 10 || ids[2] != 12 {
		t.Fatalf("unexpected ids %v", ids)
	}
	single := IDRange{First: 1, Count: 1}
	if single.Last() != 1 || len(single.IDs()) != 1 {
		t.Fatalf("unexpected single range %v", single)
	}
}
