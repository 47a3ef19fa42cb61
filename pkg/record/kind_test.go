package record

import "testing"

func TestKindsReferenceOrder(t *testing.T) {
	order := map[Kind]int{}
	for i, kind := range Kinds() {
		order[kind] = i
	}
	if len(order) != 20 {
		t.Fatalf("expected 20 kinds, got %d", len(order))
	}
	// A referenced kind must come before every kind that points at it.
	pairs := [][2]Kind{
		{KindObjectClass, KindObject},
		{KindObjectClass, KindRelationshipClass},
		{KindRelationshipClass, KindRelationship},
		{KindObject, KindRelationship},
		{KindParameterValueList, KindParameterDefinition},
		{KindParameterDefinition, KindParameterValue},
		{KindAlternative, KindParameterValue},
		{KindParameterTag, KindParameterDefinitionTag},
		{KindScenario, KindScenarioAlternative},
		{KindParameterDefinition, KindFeature},
		{KindFeature, KindToolFeature},
		{KindTool, KindToolFeature},
		{KindToolFeature, KindToolFeatureMethod},
		{KindMetadata, KindEntityMetadata},
		{KindParameterValue, KindParameterValueMetadata},
	}
	for _, pair := range pairs {
		if order[pair[0]] >= order[pair[1]] {
			t.Errorf("%s must come before %s", pair[0], pair[1])
		}
	}
}

func TestKindsReturnsCopy(t *testing.T) {
	first := Kinds()
	first[0] = Kind("mutated")
	if Kinds()[0] != KindObjectClass {
		t.Fatalf("Kinds must return an independent copy")
	}
}

func TestKindValid(t *testing.T) {
	for _, kind := range Kinds() {
		if !kind.Valid() {
			t.Errorf("%s should be valid", kind)
		}
	}
	if Kind("species").Valid() {
		t.Fatalf("unknown kind must be invalid")
	}
	if Kind("").Valid() {
		t.Fatalf("empty kind must be invalid")
	}
}

func TestAllocationFamilies(t *testing.T) {
	if KindObjectClass.AllocationFamily() != FamilyEntityClass {
		t.Errorf("object_class should allocate from entity_class")
	}
	if KindRelationshipClass.AllocationFamily() != FamilyEntityClass {
		t.Errorf("relationship_class should allocate from entity_class")
	}
	if KindObject.AllocationFamily() != FamilyEntity {
		t.Errorf("object should allocate from entity")
	}
	if KindRelationship.AllocationFamily() != FamilyEntity {
		t.Errorf("relationship should allocate from entity")
	}
	if KindAlternative.AllocationFamily() != Family(KindAlternative) {
		t.Errorf("alternative should allocate from its own family")
	}
}

func TestFamilyKindsRoundTrip(t *testing.T) {
	// Every kind must be listed by the family it allocates from.
	for _, kind := range Kinds() {
		found := false
		for _, member := range FamilyKinds(kind.AllocationFamily()) {
			if member == kind {
				found = true
			}
		}
		if !found {
			t.Errorf("%s missing from FamilyKinds(%s)", kind, kind.AllocationFamily())
		}
	}
	if got := FamilyKinds(FamilyEntityClass); len(got) != 2 {
		t.Fatalf("entity_class family should have two kinds, got %v", got)
	}
	if got := FamilyKinds(Family("bogus")); got != nil {
		t.Fatalf("unknown family should yield nil, got %v", got)
	}
}
