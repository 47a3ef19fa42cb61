package record

// Row is implemented by every record kind. Rows travel by value: checker,
// resolver, and stores all hand out copies, never views into shared state.
type Row interface {
	// RecordID returns the record id, zero for unallocated insert candidates.
	RecordID() int64
	// Kind returns the record kind of the concrete variant.
	Kind() Kind
}

// ObjectClass is a class of plain entities.
type ObjectClass struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Description  *string `json:"description,omitempty"`
	DisplayOrder int     `json:"display_order,omitempty"`
	DisplayIcon  *int64  `json:"display_icon,omitempty"`
	Hidden       *bool   `json:"hidden,omitempty"`
}

// RecordID implements Row.
func (c ObjectClass) RecordID() int64 { return c.ID }

// Kind implements Row.
func (ObjectClass) Kind() Kind { return KindObjectClass }

// RelationshipClass is a class of typed relationships. ObjectClassIDs lists
// the member class per dimension, in order; its length is the dimension count.
type RelationshipClass struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	Description    *string `json:"description,omitempty"`
	ObjectClassIDs []int64 `json:"object_class_id_list"`
	Hidden         *bool   `json:"hidden,omitempty"`
}

// RecordID implements Row.
func (c RelationshipClass) RecordID() int64 { return c.ID }

// Kind implements Row.
func (RelationshipClass) Kind() Kind { return KindRelationshipClass }

// Object is a plain entity belonging to one object class.
type Object struct {
	ID          int64   `json:"id"`
	ClassID     int64   `json:"class_id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

// RecordID implements Row.
func (o Object) RecordID() int64 { return o.ID }

// Kind implements Row.
func (Object) Kind() Kind { return KindObject }

// Relationship is a typed relationship. ObjectIDs lists the member object per
// dimension, in the order fixed by the relationship class.
type Relationship struct {
	ID        int64   `json:"id"`
	ClassID   int64   `json:"class_id"`
	Name      string  `json:"name"`
	ObjectIDs []int64 `json:"object_id_list"`
}

// RecordID implements Row.
func (r Relationship) RecordID() int64 { return r.ID }

// Kind implements Row.
func (Relationship) Kind() Kind { return KindRelationship }

// EntityGroup makes the entity MemberID a member of the group entity GroupID.
// Both entities belong to the class ClassID.
type EntityGroup struct {
	ID       int64 `json:"id"`
	ClassID  int64 `json:"entity_class_id"`
	GroupID  int64 `json:"entity_id"`
	MemberID int64 `json:"member_id"`
}

// RecordID implements Row.
func (g EntityGroup) RecordID() int64 { return g.ID }

// Kind implements Row.
func (EntityGroup) Kind() Kind { return KindEntityGroup }

// ParameterDefinition defines a typed parameter scoped to exactly one class.
// Exactly one of ObjectClassID and RelationshipClassID is set; EntityClassID
// is derived from whichever it is and never supplied by callers.
type ParameterDefinition struct {
	ID                  int64   `json:"id"`
	Name                string  `json:"name"`
	ObjectClassID       *int64  `json:"object_class_id,omitempty"`
	RelationshipClassID *int64  `json:"relationship_class_id,omitempty"`
	EntityClassID       int64   `json:"entity_class_id"`
	ValueListID         *int64  `json:"parameter_value_list_id,omitempty"`
	DefaultValue        []byte  `json:"default_value,omitempty"`
	Description         *string `json:"description,omitempty"`
}

// RecordID implements Row.
func (d ParameterDefinition) RecordID() int64 { return d.ID }

// Kind implements Row.
func (ParameterDefinition) Kind() Kind { return KindParameterDefinition }

// ParameterValue binds an opaque value to (entity, definition, alternative).
// Exactly one of ObjectID and RelationshipID is set; EntityID and
// EntityClassID are derived.
type ParameterValue struct {
	ID             int64  `json:"id"`
	DefinitionID   int64  `json:"parameter_definition_id"`
	ObjectID       *int64 `json:"object_id,omitempty"`
	RelationshipID *int64 `json:"relationship_id,omitempty"`
	EntityID       int64  `json:"entity_id"`
	EntityClassID  int64  `json:"entity_class_id"`
	AlternativeID  int64  `json:"alternative_id"`
	Value          []byte `json:"value,omitempty"`
}

// RecordID implements Row.
func (v ParameterValue) RecordID() int64 { return v.ID }

// Kind implements Row.
func (ParameterValue) Kind() Kind { return KindParameterValue }

// ParameterTag is a reusable label for parameter definitions.
type ParameterTag struct {
	ID          int64   `json:"id"`
	Tag         string  `json:"tag"`
	Description *string `json:"description,omitempty"`
}

// RecordID implements Row.
func (t ParameterTag) RecordID() int64 { return t.ID }

// Kind implements Row.
func (ParameterTag) Kind() Kind { return KindParameterTag }

// ParameterDefinitionTag attaches a tag to a parameter definition.
type ParameterDefinitionTag struct {
	ID           int64 `json:"id"`
	DefinitionID int64 `json:"parameter_definition_id"`
	TagID        int64 `json:"parameter_tag_id"`
}

// RecordID implements Row.
func (t ParameterDefinitionTag) RecordID() int64 { return t.ID }

// Kind implements Row.
func (ParameterDefinitionTag) Kind() Kind { return KindParameterDefinitionTag }

// ParameterValueList is a named ordered list of distinct opaque values.
type ParameterValueList struct {
	ID     int64    `json:"id"`
	Name   string   `json:"name"`
	Values [][]byte `json:"value_list"`
}

// RecordID implements Row.
func (l ParameterValueList) RecordID() int64 { return l.ID }

// Kind implements Row.
func (ParameterValueList) Kind() Kind { return KindParameterValueList }

// Alternative is one variant axis for parameter values.
type Alternative struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

// RecordID implements Row.
func (a Alternative) RecordID() int64 { return a.ID }

// Kind implements Row.
func (Alternative) Kind() Kind { return KindAlternative }

// Scenario composes alternatives by rank.
type Scenario struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Active      *bool   `json:"active,omitempty"`
}

// RecordID implements Row.
func (s Scenario) RecordID() int64 { return s.ID }

// Kind implements Row.
func (Scenario) Kind() Kind { return KindScenario }

// ScenarioAlternative places an alternative in a scenario at a rank. Both
// (scenario, alternative) and (scenario, rank) are unique.
type ScenarioAlternative struct {
	ID            int64 `json:"id"`
	ScenarioID    int64 `json:"scenario_id"`
	AlternativeID int64 `json:"alternative_id"`
	Rank          int   `json:"rank"`
}

// RecordID implements Row.
func (s ScenarioAlternative) RecordID() int64 { return s.ID }

// Kind implements Row.
func (ScenarioAlternative) Kind() Kind { return KindScenarioAlternative }

// Feature exposes a parameter definition to tools. The definition must carry
// a value list; ValueListID is derived from it.
type Feature struct {
	ID           int64   `json:"id"`
	DefinitionID int64   `json:"parameter_definition_id"`
	ValueListID  int64   `json:"parameter_value_list_id"`
	Description  *string `json:"description,omitempty"`
}

// RecordID implements Row.
func (f Feature) RecordID() int64 { return f.ID }

// Kind implements Row.
func (Feature) Kind() Kind { return KindFeature }

// Tool is a named consumer of features.
type Tool struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

// RecordID implements Row.
func (t Tool) RecordID() int64 { return t.ID }

// Kind implements Row.
func (Tool) Kind() Kind { return KindTool }

// ToolFeature attaches a feature to a tool.
type ToolFeature struct {
	ID        int64 `json:"id"`
	ToolID    int64 `json:"tool_id"`
	FeatureID int64 `json:"feature_id"`
	Required  *bool `json:"required,omitempty"`
}

// RecordID implements Row.
func (t ToolFeature) RecordID() int64 { return t.ID }

// Kind implements Row.
func (ToolFeature) Kind() Kind { return KindToolFeature }

// ToolFeatureMethod selects one value of the feature's value list as a method
// for a tool feature. MethodIndex indexes into the list; ValueListID is
// derived from the tool feature.
type ToolFeatureMethod struct {
	ID            int64 `json:"id"`
	ToolFeatureID int64 `json:"tool_feature_id"`
	ValueListID   int64 `json:"parameter_value_list_id"`
	MethodIndex   int   `json:"method_index"`
}

// RecordID implements Row.
func (m ToolFeatureMethod) RecordID() int64 { return m.ID }

// Kind implements Row.
func (ToolFeatureMethod) Kind() Kind { return KindToolFeatureMethod }

// Metadata is a shared name/value pair referenced by join records.
type Metadata struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

// RecordID implements Row.
func (m Metadata) RecordID() int64 { return m.ID }

// Kind implements Row.
func (Metadata) Kind() Kind { return KindMetadata }

// EntityMetadata attaches a metadata record to an entity.
type EntityMetadata struct {
	ID         int64 `json:"id"`
	EntityID   int64 `json:"entity_id"`
	MetadataID int64 `json:"metadata_id"`
}

// RecordID implements Row.
func (m EntityMetadata) RecordID() int64 { return m.ID }

// Kind implements Row.
func (EntityMetadata) Kind() Kind { return KindEntityMetadata }

// ParameterValueMetadata attaches a metadata record to a parameter value.
type ParameterValueMetadata struct {
	ID         int64 `json:"id"`
	ValueID    int64 `json:"parameter_value_id"`
	MetadataID int64 `json:"metadata_id"`
}

// RecordID implements Row.
func (m ParameterValueMetadata) RecordID() int64 { return m.ID }

// Kind implements Row.
func (ParameterValueMetadata) Kind() Kind { return KindParameterValueMetadata }

// WithID returns a copy of row with its id set. The concrete variant is
// preserved.
func WithID(row Row, id int64) Row {
	switch r := row.(type) {
	case ObjectClass:
		r.ID = id
		return r
	case RelationshipClass:
		r.ID = id
		return r
	case Object:
		r.ID = id
		return r
	case Relationship:
		r.ID = id
		return r
	case EntityGroup:
		r.ID = id
		return r
	case ParameterDefinition:
		r.ID = id
		return r
	case ParameterValue:
		r.ID = id
		return r
	case ParameterTag:
		r.ID = id
		return r
	case ParameterDefinitionTag:
		r.ID = id
		return r
	case ParameterValueList:
		r.ID = id
		return r
	case Alternative:
		r.ID = id
		return r
	case Scenario:
		r.ID = id
		return r
	case ScenarioAlternative:
		r.ID = id
		return r
	case Feature:
		r.ID = id
		return r
	case Tool:
		r.ID = id
		return r
	case ToolFeature:
		r.ID = id
		return r
	case ToolFeatureMethod:
		r.ID = id
		return r
	case Metadata:
		r.ID = id
		return r
	case EntityMetadata:
		r.ID = id
		return r
	case ParameterValueMetadata:
		r.ID = id
		return r
	default:
		return row
	}
}

// Clone returns a deep copy of row: slice fields and pointer fields are
// duplicated so the copy shares no mutable state with the original.
func Clone(row Row) Row {
	switch r := row.(type) {
	case ObjectClass:
		r.Description = clonePtr(r.Description)
		r.DisplayIcon = clonePtr(r.DisplayIcon)
		r.Hidden = clonePtr(r.Hidden)
		return r
	case RelationshipClass:
		r.Description = clonePtr(r.Description)
		r.ObjectClassIDs = cloneInt64s(r.ObjectClassIDs)
		r.Hidden = clonePtr(r.Hidden)
		return r
	case Object:
		r.Description = clonePtr(r.Description)
		return r
	case Relationship:
		r.ObjectIDs = cloneInt64s(r.ObjectIDs)
		return r
	case ParameterDefinition:
		r.ObjectClassID = clonePtr(r.ObjectClassID)
		r.RelationshipClassID = clonePtr(r.RelationshipClassID)
		r.ValueListID = clonePtr(r.ValueListID)
		r.DefaultValue = cloneBytes(r.DefaultValue)
		r.Description = clonePtr(r.Description)
		return r
	case ParameterValue:
		r.ObjectID = clonePtr(r.ObjectID)
		r.RelationshipID = clonePtr(r.RelationshipID)
		r.Value = cloneBytes(r.Value)
		return r
	case ParameterTag:
		r.Description = clonePtr(r.Description)
		return r
	case ParameterValueList:
		r.Values = cloneByteLists(r.Values)
		return r
	case Alternative:
		r.Description = clonePtr(r.Description)
		return r
	case Scenario:
		r.Description = clonePtr(r.Description)
		r.Active = clonePtr(r.Active)
		return r
	case Feature:
		r.Description = clonePtr(r.Description)
		return r
	case Tool:
		r.Description = clonePtr(r.Description)
		return r
	case ToolFeature:
		r.Required = clonePtr(r.Required)
		return r
	default:
		// Remaining variants hold only scalar fields.
		return row
	}
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneInt64s(in []int64) []int64 {
	if in == nil {
		return nil
	}
	out := make([]int64, len(in))
	copy(out, in)
	return out
}

func cloneBytes(in []byte) []byte {
	if in == nil {
		return nil
	}
	out := make([]byte, len(in))
	copy(out, in)
	return out
}

func cloneByteLists(in [][]byte) [][]byte {
	if in == nil {
		return nil
	}
	out := make([][]byte, len(in))
	for i, v := range in {
		out[i] = cloneBytes(v)
	}
	return out
}
