// Package record defines the record kinds, tagged-variant row types, dataset
// snapshot, id cursor, error taxonomy, and storage contract shared by the
// latticecore engine components.
package record

// Kind identifies the kind of record stored in a dataset.
type Kind string

// Supported record kind identifiers used in batches, cascades, and persistence.
const (
	// KindObjectClass identifies a class of plain entities.
	KindObjectClass Kind = "object_class"
	// KindRelationshipClass identifies a class of typed relationships.
	KindRelationshipClass Kind = "relationship_class"
	// KindObject identifies a plain entity.
	KindObject Kind = "object"
	// KindRelationship identifies a typed relationship between objects.
	KindRelationship Kind = "relationship"
	// KindEntityGroup identifies a group/member join between entities of one class.
	KindEntityGroup Kind = "entity_group"
	// KindParameterDefinition identifies a typed parameter scoped to one class.
	KindParameterDefinition Kind = "parameter_definition"
	// KindParameterValue identifies a parameter value bound to an entity and alternative.
	KindParameterValue Kind = "parameter_value"
	// KindParameterTag identifies a reusable parameter tag.
	KindParameterTag Kind = "parameter_tag"
	// KindParameterDefinitionTag identifies a definition/tag join.
	KindParameterDefinitionTag Kind = "parameter_definition_tag"
	// KindParameterValueList identifies a named ordered list of opaque values.
	KindParameterValueList Kind = "parameter_value_list"
	// KindAlternative identifies an alternative (a variant axis for values).
	KindAlternative Kind = "alternative"
	// KindScenario identifies a scenario composed of ranked alternatives.
	KindScenario Kind = "scenario"
	// KindScenarioAlternative identifies a ranked scenario/alternative join.
	KindScenarioAlternative Kind = "scenario_alternative"
	// KindFeature identifies a listed parameter definition exposed to tools.
	KindFeature Kind = "feature"
	// KindTool identifies a tool.
	KindTool Kind = "tool"
	// KindToolFeature identifies a tool/feature join.
	KindToolFeature Kind = "tool_feature"
	// KindToolFeatureMethod identifies a method choice inside a tool feature.
	KindToolFeatureMethod Kind = "tool_feature_method"
	// KindMetadata identifies a shared name/value metadata record.
	KindMetadata Kind = "metadata"
	// KindEntityMetadata identifies an entity/metadata join.
	KindEntityMetadata Kind = "entity_metadata"
	// KindParameterValueMetadata identifies a value/metadata join.
	KindParameterValueMetadata Kind = "parameter_value_metadata"
)

// kinds lists every record kind in reference order: referenced kinds come
// before the kinds that point at them, so loading or importing in this order
// never observes a dangling reference.
var kinds = []Kind{
	KindObjectClass,
	KindRelationshipClass,
	KindObject,
	KindRelationship,
	KindEntityGroup,
	KindParameterValueList,
	KindParameterDefinition,
	KindAlternative,
	KindParameterValue,
	KindParameterTag,
	KindParameterDefinitionTag,
	KindScenario,
	KindScenarioAlternative,
	KindFeature,
	KindTool,
	KindToolFeature,
	KindToolFeatureMethod,
	KindMetadata,
	KindEntityMetadata,
	KindParameterValueMetadata,
}

// Kinds returns every record kind in reference order. The returned slice is
// a copy and safe to modify.
func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	copy(out, kinds)
	return out
}

// Valid reports whether k names a known record kind.
func (k Kind) Valid() bool {
	for _, known := range kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Family identifies an id allocation family. Classes share one family and
// entities another, so ids stay unique across the object/relationship split
// and derived class/entity references remain unambiguous.
type Family string

// Shared allocation families; every other kind allocates from a family named
// after the kind itself.
const (
	// FamilyEntityClass is shared by object classes and relationship classes.
	FamilyEntityClass Family = "entity_class"
	// FamilyEntity is shared by objects and relationships.
	FamilyEntity Family = "entity"
)

// AllocationFamily returns the id allocation family for k.
func (k Kind) AllocationFamily() Family {
	switch k {
	case KindObjectClass, KindRelationshipClass:
		return FamilyEntityClass
	case KindObject, KindRelationship:
		return FamilyEntity
	default:
		return Family(k)
	}
}

// FamilyKinds returns the record kinds that allocate ids from f.
func FamilyKinds(f Family) []Kind {
	switch f {
	case FamilyEntityClass:
		return []Kind{KindObjectClass, KindRelationshipClass}
	case FamilyEntity:
		return []Kind{KindObject, KindRelationship}
	default:
		k := Kind(f)
		if !k.Valid() {
			return nil
		}
		return []Kind{k}
	}
}
