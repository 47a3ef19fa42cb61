package check

import "latticecore/pkg/record"

// Composite index keys.
type classNameKey struct {
	classID int64
	name    string
}

type pairKey struct {
	a, b int64
}

type tripleKey struct {
	a, b, c int64
}

type rankKey struct {
	scenarioID int64
	rank       int
}

type methodKey struct {
	toolFeatureID int64
	index         int
}

type nameValueKey struct {
	name, value string
}

// state holds the per-call working view: value copies of every kind map plus
// the unique-key indexes, built once from the snapshot and then consulted and
// extended as candidates are accepted. The snapshot itself is never touched,
// so a failed batch leaves no trace.
type state struct {
	objectClasses        map[int64]record.ObjectClass
	relationshipClasses  map[int64]record.RelationshipClass
	objects              map[int64]record.Object
	relationships        map[int64]record.Relationship
	entityGroups         map[int64]record.EntityGroup
	parameterDefinitions map[int64]record.ParameterDefinition
	parameterValues      map[int64]record.ParameterValue
	parameterTags        map[int64]record.ParameterTag
	definitionTags       map[int64]record.ParameterDefinitionTag
	valueLists           map[int64]record.ParameterValueList
	alternatives         map[int64]record.Alternative
	scenarios            map[int64]record.Scenario
	scenarioAlternatives map[int64]record.ScenarioAlternative
	features             map[int64]record.Feature
	tools                map[int64]record.Tool
	toolFeatures         map[int64]record.ToolFeature
	toolFeatureMethods   map[int64]record.ToolFeatureMethod
	metadata             map[int64]record.Metadata
	entityMetadata       map[int64]record.EntityMetadata
	valueMetadata        map[int64]record.ParameterValueMetadata

	// classNames spans object and relationship classes: class names are
	// unique across the whole class union.
	classNames        map[string]int64
	objectKeys        map[classNameKey]int64
	relationshipKeys  map[classNameKey]int64
	groupKeys         map[pairKey]int64
	definitionKeys    map[classNameKey]int64
	valueKeys         map[tripleKey]int64
	tagNames          map[string]int64
	definitionTagKeys map[pairKey]int64
	listNames         map[string]int64
	alternativeNames  map[string]int64
	scenarioNames     map[string]int64
	scenarioAltKeys   map[pairKey]int64
	scenarioRankKeys  map[rankKey]int64
	featureKeys       map[int64]int64
	toolNames         map[string]int64
	toolFeatureKeys   map[pairKey]int64
	methodKeys        map[methodKey]int64
	metadataKeys      map[nameValueKey]int64
	entityMetadataKeys map[pairKey]int64
	valueMetadataKeys  map[pairKey]int64
}

func newState(snap *record.Snapshot) *state {
	st := &state{
		objectClasses:        make(map[int64]record.ObjectClass, len(snap.ObjectClasses)),
		relationshipClasses:  make(map[int64]record.RelationshipClass, len(snap.RelationshipClasses)),
		objects:              make(map[int64]record.Object, len(snap.Objects)),
		relationships:        make(map[int64]record.Relationship, len(snap.Relationships)),
		entityGroups:         make(map[int64]record.EntityGroup, len(snap.EntityGroups)),
		parameterDefinitions: make(map[int64]record.ParameterDefinition, len(snap.ParameterDefinitions)),
		parameterValues:      make(map[int64]record.ParameterValue, len(snap.ParameterValues)),
		parameterTags:        make(map[int64]record.ParameterTag, len(snap.ParameterTags)),
		definitionTags:       make(map[int64]record.ParameterDefinitionTag, len(snap.ParameterDefinitionTags)),
		valueLists:           make(map[int64]record.ParameterValueList, len(snap.ParameterValueLists)),
		alternatives:         make(map[int64]record.Alternative, len(snap.Alternatives)),
		scenarios:            make(map[int64]record.Scenario, len(snap.Scenarios)),
		scenarioAlternatives: make(map[int64]record.ScenarioAlternative, len(snap.ScenarioAlternatives)),
		features:             make(map[int64]record.Feature, len(snap.Features)),
		tools:                make(map[int64]record.Tool, len(snap.Tools)),
		toolFeatures:         make(map[int64]record.ToolFeature, len(snap.ToolFeatures)),
		toolFeatureMethods:   make(map[int64]record.ToolFeatureMethod, len(snap.ToolFeatureMethods)),
		metadata:             make(map[int64]record.Metadata, len(snap.Metadata)),
		entityMetadata:       make(map[int64]record.EntityMetadata, len(snap.EntityMetadata)),
		valueMetadata:        make(map[int64]record.ParameterValueMetadata, len(snap.ParameterValueMetadata)),

		classNames:        map[string]int64{},
		objectKeys:        map[classNameKey]int64{},
		relationshipKeys:  map[classNameKey]int64{},
		groupKeys:         map[pairKey]int64{},
		definitionKeys:    map[classNameKey]int64{},
		valueKeys:         map[tripleKey]int64{},
		tagNames:          map[string]int64{},
		definitionTagKeys: map[pairKey]int64{},
		listNames:         map[string]int64{},
		alternativeNames:  map[string]int64{},
		scenarioNames:     map[string]int64{},
		scenarioAltKeys:   map[pairKey]int64{},
		scenarioRankKeys:  map[rankKey]int64{},
		featureKeys:       map[int64]int64{},
		toolNames:         map[string]int64{},
		toolFeatureKeys:   map[pairKey]int64{},
		methodKeys:        map[methodKey]int64{},
		metadataKeys:      map[nameValueKey]int64{},
		entityMetadataKeys: map[pairKey]int64{},
		valueMetadataKeys:  map[pairKey]int64{},
	}
	for id, r := range snap.ObjectClasses {
		st.objectClasses[id] = r
		st.classNames[r.Name] = id
	}
	for id, r := range snap.RelationshipClasses {
		st.relationshipClasses[id] = r
		st.classNames[r.Name] = id
	}
	for id, r := range snap.Objects {
		st.objects[id] = r
		st.objectKeys[classNameKey{r.ClassID, r.Name}] = id
	}
	for id, r := range snap.Relationships {
		st.relationships[id] = r
		st.relationshipKeys[classNameKey{r.ClassID, r.Name}] = id
	}
	for id, r := range snap.EntityGroups {
		st.entityGroups[id] = r
		st.groupKeys[pairKey{r.GroupID, r.MemberID}] = id
	}
	for id, r := range snap.ParameterDefinitions {
		st.parameterDefinitions[id] = r
		st.definitionKeys[classNameKey{r.EntityClassID, r.Name}] = id
	}
	for id, r := range snap.ParameterValues {
		st.parameterValues[id] = r
		st.valueKeys[tripleKey{r.EntityID, r.DefinitionID, r.AlternativeID}] = id
	}
	for id, r := range snap.ParameterTags {
		st.parameterTags[id] = r
		st.tagNames[r.Tag] = id
	}
	for id, r := range snap.ParameterDefinitionTags {
		st.definitionTags[id] = r
		st.definitionTagKeys[pairKey{r.DefinitionID, r.TagID}] = id
	}
	for id, r := range snap.ParameterValueLists {
		st.valueLists[id] = r
		st.listNames[r.Name] = id
	}
	for id, r := range snap.Alternatives {
		st.alternatives[id] = r
		st.alternativeNames[r.Name] = id
	}
	for id, r := range snap.Scenarios {
		st.scenarios[id] = r
		st.scenarioNames[r.Name] = id
	}
	for id, r := range snap.ScenarioAlternatives {
		st.scenarioAlternatives[id] = r
		st.scenarioAltKeys[pairKey{r.ScenarioID, r.AlternativeID}] = id
		st.scenarioRankKeys[rankKey{r.ScenarioID, r.Rank}] = id
	}
	for id, r := range snap.Features {
		st.features[id] = r
		st.featureKeys[r.DefinitionID] = id
	}
	for id, r := range snap.Tools {
		st.tools[id] = r
		st.toolNames[r.Name] = id
	}
	for id, r := range snap.ToolFeatures {
		st.toolFeatures[id] = r
		st.toolFeatureKeys[pairKey{r.ToolID, r.FeatureID}] = id
	}
	for id, r := range snap.ToolFeatureMethods {
		st.toolFeatureMethods[id] = r
		st.methodKeys[methodKey{r.ToolFeatureID, r.MethodIndex}] = id
	}
	for id, r := range snap.Metadata {
		st.metadata[id] = r
		st.metadataKeys[nameValueKey{r.Name, r.Value}] = id
	}
	for id, r := range snap.EntityMetadata {
		st.entityMetadata[id] = r
		st.entityMetadataKeys[pairKey{r.EntityID, r.MetadataID}] = id
	}
	for id, r := range snap.ParameterValueMetadata {
		st.valueMetadata[id] = r
		st.valueMetadataKeys[pairKey{r.ValueID, r.MetadataID}] = id
	}
	return st
}

// entityClassName resolves a class id across the object/relationship class
// union.
func (st *state) entityClassName(id int64) (string, bool) {
	if c, ok := st.objectClasses[id]; ok {
		return c.Name, true
	}
	if c, ok := st.relationshipClasses[id]; ok {
		return c.Name, true
	}
	return "", false
}

// entity resolves an entity id across the object/relationship union,
// returning its class id and name.
func (st *state) entity(id int64) (classID int64, name string, ok bool) {
	if o, found := st.objects[id]; found {
		return o.ClassID, o.Name, true
	}
	if r, found := st.relationships[id]; found {
		return r.ClassID, r.Name, true
	}
	return 0, "", false
}

// listHasValue reports whether one of the list's values byte-equals v.
// Values are opaque, so membership is exact byte comparison.
func listHasValue(list record.ParameterValueList, v []byte) bool {
	for _, member := range list.Values {
		if string(member) == string(v) {
			return true
		}
	}
	return false
}

// notFoundEntity reports a missing id in the object/relationship union,
// where the record kind cannot be narrowed further.
func notFoundEntity(id int64) error {
	return &record.NotFoundError{Kind: record.Kind(record.FamilyEntity), ID: id}
}

func equalInt64s(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func cloneIDs(in []int64) []int64 {
	out := make([]int64, len(in))
	copy(out, in)
	return out
}

func sameID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
