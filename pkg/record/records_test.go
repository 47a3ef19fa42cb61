package record

import "testing"

func strPtr(s string) *string { return &s }

func TestWithIDPreservesVariant(t *testing.T) {
	rows := []Row{
		ObjectClass{Name: "pump"},
		RelationshipClass{Name: "feeds", ObjectClassIDs: []int64{1, 2}},
		Object{ClassID: 1, Name: "pump-1"},
		Relationship{ClassID: 1, Name: "r", ObjectIDs: []int64{1}},
		EntityGroup{ClassID: 1, GroupID: 1, MemberID: 2},
		ParameterDefinition{Name: "p"},
		ParameterValue{DefinitionID: 1, AlternativeID: 1},
		ParameterTag{Tag: "t"},
		ParameterDefinitionTag{DefinitionID: 1, TagID: 1},
		ParameterValueList{Name: "speeds"},
		Alternative{Name: "base"},
		Scenario{Name: "s"},
		ScenarioAlternative{ScenarioID: 1, AlternativeID: 1, Rank: 1},
		Feature{DefinitionID: 1, ValueListID: 1},
		Tool{Name: "sim"},
		ToolFeature{ToolID: 1, FeatureID: 1},
		ToolFeatureMethod{ToolFeatureID: 1, ValueListID: 1, MethodIndex: 0},
		Metadata{Name: "authors", Value: "ops"},
		EntityMetadata{EntityID: 1, MetadataID: 1},
		ParameterValueMetadata{ValueID: 1, MetadataID: 1},
	}
	for i, row := range rows {
		id := int64(i + 100)
		got := WithID(row, id)
		if got.RecordID() != id {
			t.Errorf("%s: expected id %d, got %d", row.Kind(), id, got.RecordID())
		}
		if got.Kind() != row.Kind() {
			t.Errorf("WithID changed kind %s to %s", row.Kind(), got.Kind())
		}
		if row.RecordID() != 0 {
			t.Errorf("%s: WithID mutated its input", row.Kind())
		}
	}
}

func TestCloneIsolatesMutableFields(t *testing.T) {
	rel := Relationship{ID: 1, Name: "r", ObjectIDs: []int64{1, 2}}
	cloned := Clone(rel).(Relationship)
	cloned.ObjectIDs[0] = 99
	if rel.ObjectIDs[0] != 1 {
		t.Fatalf("Clone shares ObjectIDs")
	}

	list := ParameterValueList{ID: 1, Name: "speeds", Values: [][]byte{[]byte("low"), []byte("high")}}
	clonedList := Clone(list).(ParameterValueList)
	clonedList.Values[0][0] = 'X'
	if string(list.Values[0]) != "low" {
		t.Fatalf("Clone shares value bytes")
	}

	def := ParameterDefinition{ID: 1, Name: "p", ObjectClassID: int64Ptr(4), DefaultValue: []byte("low"), Description: strPtr("d")}
	clonedDef := Clone(def).(ParameterDefinition)
	*clonedDef.ObjectClassID = 9
	clonedDef.DefaultValue[0] = 'X'
	if *def.ObjectClassID != 4 || string(def.DefaultValue) != "low" {
		t.Fatalf("Clone shares pointer or byte fields")
	}

	// Scalar-only variants pass through unchanged.
	meta := Metadata{ID: 2, Name: "authors", Value: "ops"}
	if Clone(meta).(Metadata) != meta {
		t.Fatalf("scalar clone should equal original")
	}
}

func TestCloneKeepsNilFields(t *testing.T) {
	obj := Object{ID: 1, ClassID: 1, Name: "o"}
	cloned := Clone(obj).(Object)
	if cloned.Description != nil {
		t.Fatalf("nil description should stay nil")
	}
	rel := Relationship{ID: 1, Name: "r"}
	if Clone(rel).(Relationship).ObjectIDs != nil {
		t.Fatalf("nil slice should stay nil")
	}
}

func int64Ptr(v int64) *int64 { return &v }
