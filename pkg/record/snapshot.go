package record

import "sort"

// Snapshot is an in-memory view of one dataset, keyed by record id per kind.
// Insert stores a deep copy, so a snapshot never aliases caller-owned state.
// Reads hand out value copies; their slice fields still point at snapshot
// storage and must be treated as immutable (copy before modifying).
type Snapshot struct {
	ObjectClasses           map[int64]ObjectClass
	RelationshipClasses     map[int64]RelationshipClass
	Objects                 map[int64]Object
	Relationships           map[int64]Relationship
	EntityGroups            map[int64]EntityGroup
	ParameterDefinitions    map[int64]ParameterDefinition
	ParameterValues         map[int64]ParameterValue
	ParameterTags           map[int64]ParameterTag
	ParameterDefinitionTags map[int64]ParameterDefinitionTag
	ParameterValueLists     map[int64]ParameterValueList
	Alternatives            map[int64]Alternative
	Scenarios               map[int64]Scenario
	ScenarioAlternatives    map[int64]ScenarioAlternative
	Features                map[int64]Feature
	Tools                   map[int64]Tool
	ToolFeatures            map[int64]ToolFeature
	ToolFeatureMethods      map[int64]ToolFeatureMethod
	Metadata                map[int64]Metadata
	EntityMetadata          map[int64]EntityMetadata
	ParameterValueMetadata  map[int64]ParameterValueMetadata
}

// NewSnapshot returns an empty snapshot with all kind maps allocated.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		ObjectClasses:           map[int64]ObjectClass{},
		RelationshipClasses:     map[int64]RelationshipClass{},
		Objects:                 map[int64]Object{},
		Relationships:           map[int64]Relationship{},
		EntityGroups:            map[int64]EntityGroup{},
		ParameterDefinitions:    map[int64]ParameterDefinition{},
		ParameterValues:         map[int64]ParameterValue{},
		ParameterTags:           map[int64]ParameterTag{},
		ParameterDefinitionTags: map[int64]ParameterDefinitionTag{},
		ParameterValueLists:     map[int64]ParameterValueList{},
		Alternatives:            map[int64]Alternative{},
		Scenarios:               map[int64]Scenario{},
		ScenarioAlternatives:    map[int64]ScenarioAlternative{},
		Features:                map[int64]Feature{},
		Tools:                   map[int64]Tool{},
		ToolFeatures:            map[int64]ToolFeature{},
		ToolFeatureMethods:      map[int64]ToolFeatureMethod{},
		Metadata:                map[int64]Metadata{},
		EntityMetadata:          map[int64]EntityMetadata{},
		ParameterValueMetadata:  map[int64]ParameterValueMetadata{},
	}
}

// Insert stores a deep copy of row under its id, replacing any existing row.
func (s *Snapshot) Insert(row Row) {
	switch r := Clone(row).(type) {
	case ObjectClass:
		s.ObjectClasses[r.ID] = r
	case RelationshipClass:
		s.RelationshipClasses[r.ID] = r
	case Object:
		s.Objects[r.ID] = r
	case Relationship:
		s.Relationships[r.ID] = r
	case EntityGroup:
		s.EntityGroups[r.ID] = r
	case ParameterDefinition:
		s.ParameterDefinitions[r.ID] = r
	case ParameterValue:
		s.ParameterValues[r.ID] = r
	case ParameterTag:
		s.ParameterTags[r.ID] = r
	case ParameterDefinitionTag:
		s.ParameterDefinitionTags[r.ID] = r
	case ParameterValueList:
		s.ParameterValueLists[r.ID] = r
	case Alternative:
		s.Alternatives[r.ID] = r
	case Scenario:
		s.Scenarios[r.ID] = r
	case ScenarioAlternative:
		s.ScenarioAlternatives[r.ID] = r
	case Feature:
		s.Features[r.ID] = r
	case Tool:
		s.Tools[r.ID] = r
	case ToolFeature:
		s.ToolFeatures[r.ID] = r
	case ToolFeatureMethod:
		s.ToolFeatureMethods[r.ID] = r
	case Metadata:
		s.Metadata[r.ID] = r
	case EntityMetadata:
		s.EntityMetadata[r.ID] = r
	case ParameterValueMetadata:
		s.ParameterValueMetadata[r.ID] = r
	}
}

// Delete removes the row with the given kind and id, if present.
func (s *Snapshot) Delete(kind Kind, id int64) {
	switch kind {
	case KindObjectClass:
		delete(s.ObjectClasses, id)
	case KindRelationshipClass:
		delete(s.RelationshipClasses, id)
	case KindObject:
		delete(s.Objects, id)
	case KindRelationship:
		delete(s.Relationships, id)
	case KindEntityGroup:
		delete(s.EntityGroups, id)
	case KindParameterDefinition:
		delete(s.ParameterDefinitions, id)
	case KindParameterValue:
		delete(s.ParameterValues, id)
	case KindParameterTag:
		delete(s.ParameterTags, id)
	case KindParameterDefinitionTag:
		delete(s.ParameterDefinitionTags, id)
	case KindParameterValueList:
		delete(s.ParameterValueLists, id)
	case KindAlternative:
		delete(s.Alternatives, id)
	case KindScenario:
		delete(s.Scenarios, id)
	case KindScenarioAlternative:
		delete(s.ScenarioAlternatives, id)
	case KindFeature:
		delete(s.Features, id)
	case KindTool:
		delete(s.Tools, id)
	case KindToolFeature:
		delete(s.ToolFeatures, id)
	case KindToolFeatureMethod:
		delete(s.ToolFeatureMethods, id)
	case KindMetadata:
		delete(s.Metadata, id)
	case KindEntityMetadata:
		delete(s.EntityMetadata, id)
	case KindParameterValueMetadata:
		delete(s.ParameterValueMetadata, id)
	}
}

// Get returns the row with the given kind and id.
func (s *Snapshot) Get(kind Kind, id int64) (Row, bool) {
	switch kind {
	case KindObjectClass:
		r, ok := s.ObjectClasses[id]
		return r, ok
	case KindRelationshipClass:
		r, ok := s.RelationshipClasses[id]
		return r, ok
	case KindObject:
		r, ok := s.Objects[id]
		return r, ok
	case KindRelationship:
		r, ok := s.Relationships[id]
		return r, ok
	case KindEntityGroup:
		r, ok := s.EntityGroups[id]
		return r, ok
	case KindParameterDefinition:
		r, ok := s.ParameterDefinitions[id]
		return r, ok
	case KindParameterValue:
		r, ok := s.ParameterValues[id]
		return r, ok
	case KindParameterTag:
		r, ok := s.ParameterTags[id]
		return r, ok
	case KindParameterDefinitionTag:
		r, ok := s.ParameterDefinitionTags[id]
		return r, ok
	case KindParameterValueList:
		r, ok := s.ParameterValueLists[id]
		return r, ok
	case KindAlternative:
		r, ok := s.Alternatives[id]
		return r, ok
	case KindScenario:
		r, ok := s.Scenarios[id]
		return r, ok
	case KindScenarioAlternative:
		r, ok := s.ScenarioAlternatives[id]
		return r, ok
	case KindFeature:
		r, ok := s.Features[id]
		return r, ok
	case KindTool:
		r, ok := s.Tools[id]
		return r, ok
	case KindToolFeature:
		r, ok := s.ToolFeatures[id]
		return r, ok
	case KindToolFeatureMethod:
		r, ok := s.ToolFeatureMethods[id]
		return r, ok
	case KindMetadata:
		r, ok := s.Metadata[id]
		return r, ok
	case KindEntityMetadata:
		r, ok := s.EntityMetadata[id]
		return r, ok
	case KindParameterValueMetadata:
		r, ok := s.ParameterValueMetadata[id]
		return r, ok
	default:
		return nil, false
	}
}

// IDs returns the ids present for kind.
func (s *Snapshot) IDs(kind Kind) IDSet {
	out := IDSet{}
	for _, row := range s.Rows(kind) {
		out.Add(row.RecordID())
	}
	return out
}

// Len returns the number of rows stored for kind.
func (s *Snapshot) Len(kind Kind) int {
	return len(s.Rows(kind))
}

// Rows returns the rows of kind sorted by id.
func (s *Snapshot) Rows(kind Kind) []Row {
	var out []Row
	switch kind {
	case KindObjectClass:
		for _, r := range s.ObjectClasses {
			out = append(out, r)
		}
	case KindRelationshipClass:
		for _, r := range s.RelationshipClasses {
			out = append(out, r)
		}
	case KindObject:
		for _, r := range s.Objects {
			out = append(out, r)
		}
	case KindRelationship:
		for _, r := range s.Relationships {
			out = append(out, r)
		}
	case KindEntityGroup:
		for _, r := range s.EntityGroups {
			out = append(out, r)
		}
	case KindParameterDefinition:
		for _, r := range s.ParameterDefinitions {
			out = append(out, r)
		}
	case KindParameterValue:
		for _, r := range s.ParameterValues {
			out = append(out, r)
		}
	case KindParameterTag:
		for _, r := range s.ParameterTags {
			out = append(out, r)
		}
	case KindParameterDefinitionTag:
		for _, r := range s.ParameterDefinitionTags {
			out = append(out, r)
		}
	case KindParameterValueList:
		for _, r := range s.ParameterValueLists {
			out = append(out, r)
		}
	case KindAlternative:
		for _, r := range s.Alternatives {
			out = append(out, r)
		}
	case KindScenario:
		for _, r := range s.Scenarios {
			out = append(out, r)
		}
	case KindScenarioAlternative:
		for _, r := range s.ScenarioAlternatives {
			out = append(out, r)
		}
	case KindFeature:
		for _, r := range s.Features {
			out = append(out, r)
		}
	case KindTool:
		for _, r := range s.Tools {
			out = append(out, r)
		}
	case KindToolFeature:
		for _, r := range s.ToolFeatures {
			out = append(out, r)
		}
	case KindToolFeatureMethod:
		for _, r := range s.ToolFeatureMethods {
			out = append(out, r)
		}
	case KindMetadata:
		for _, r := range s.Metadata {
			out = append(out, r)
		}
	case KindEntityMetadata:
		for _, r := range s.EntityMetadata {
			out = append(out, r)
		}
	case KindParameterValueMetadata:
		for _, r := range s.ParameterValueMetadata {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordID() < out[j].RecordID() })
	return out
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	out := NewSnapshot()
	for _, kind := range kinds {
		for _, row := range s.Rows(kind) {
			out.Insert(row)
		}
	}
	return out
}

// MaxID returns the largest id present across the kinds of family f, or zero
// when the family is empty.
func (s *Snapshot) MaxID(f Family) int64 {
	var max int64
	for _, kind := range FamilyKinds(f) {
		for _, row := range s.Rows(kind) {
			if id := row.RecordID(); id > max {
				max = id
			}
		}
	}
	return max
}
