package record

import (
	"encoding/json"
	"fmt"
)

// MarshalRow encodes a row as JSON for persistence payloads.
func MarshalRow(row Row) ([]byte, error) {
	data, err := json.Marshal(row)
	if err != nil {
		return nil, fmt.Errorf("marshal %s row: %w", row.Kind(), err)
	}
	return data, nil
}

// UnmarshalRow decodes a persistence payload into the concrete variant for
// kind.
func UnmarshalRow(kind Kind, data []byte) (Row, error) {
	var (
		row Row
		err error
	)
	switch kind {
	case KindObjectClass:
		var r ObjectClass
		err = json.Unmarshal(data, &r)
		row = r
	case KindRelationshipClass:
		var r RelationshipClass
		err = json.Unmarshal(data, &r)
		row = r
	case KindObject:
		var r Object
		err = json.Unmarshal(data, &r)
		row = r
	case KindRelationship:
		var r Relationship
		err = json.Unmarshal(data, &r)
		row = r
	case KindEntityGroup:
		var r EntityGroup
		err = json.Unmarshal(data, &r)
		row = r
	case KindParameterDefinition:
		var r ParameterDefinition
		err = json.Unmarshal(data, &r)
		row = r
	case KindParameterValue:
		var r ParameterValue
		err = json.Unmarshal(data, &r)
		row = r
	case KindParameterTag:
		var r ParameterTag
		err = json.Unmarshal(data, &r)
		row = r
	case KindParameterDefinitionTag:
		var r ParameterDefinitionTag
		err = json.Unmarshal(data, &r)
		row = r
	case KindParameterValueList:
		var r ParameterValueList
		err = json.Unmarshal(data, &r)
		row = r
	case KindAlternative:
		var r Alternative
		err = json.Unmarshal(data, &r)
		row = r
	case KindScenario:
		var r Scenario
		err = json.Unmarshal(data, &r)
		row = r
	case KindScenarioAlternative:
		var r ScenarioAlternative
		err = json.Unmarshal(data, &r)
		row = r
	case KindFeature:
		var r Feature
		err = json.Unmarshal(data, &r)
		row = r
	case KindTool:
		var r Tool
		err = json.Unmarshal(data, &r)
		row = r
	case KindToolFeature:
		var r ToolFeature
		err = json.Unmarshal(data, &r)
		row = r
	case KindToolFeatureMethod:
		var r ToolFeatureMethod
		err = json.Unmarshal(data, &r)
		row = r
	case KindMetadata:
		var r Metadata
		err = json.Unmarshal(data, &r)
		row = r
	case KindEntityMetadata:
		var r EntityMetadata
		err = json.Unmarshal(data, &r)
		row = r
	case KindParameterValueMetadata:
		var r ParameterValueMetadata
		err = json.Unmarshal(data, &r)
		row = r
	default:
		return nil, fmt.Errorf("unmarshal row: unknown kind %q", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("unmarshal %s row: %w", kind, err)
	}
	return row, nil
}
