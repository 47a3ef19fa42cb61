// Package check implements the constraint checker: batch validation of
// insert and update candidates per record kind against a dataset snapshot,
// with intra-batch siblings treated exactly like preexisting rows.
package check

import "latticecore/pkg/record"

// ops bundles the per-kind behaviors behind the generic entry points.
// validate runs the insert rules on a complete row and returns it with
// derived fields set. admit claims the row's unique keys and registers it for
// reference lookups. pop simulates removal of the current row for an update;
// merge lays a partial over the popped copy, rejecting immutable-field
// changes. Kinds without mutable fields leave pop and merge nil.
type ops struct {
	validate func(*state, record.Row) (record.Row, error)
	admit    func(*state, record.Row)
	pop      func(*state, int64) (record.Row, error)
	merge    func(*state, record.Row, record.Row) (record.Row, error)
}

var kindOps = map[record.Kind]ops{
	record.KindObjectClass:            {validateObjectClass, admitObjectClass, popObjectClass, mergeObjectClass},
	record.KindRelationshipClass:      {validateRelationshipClass, admitRelationshipClass, popRelationshipClass, mergeRelationshipClass},
	record.KindObject:                 {validateObject, admitObject, popObject, mergeObject},
	record.KindRelationship:           {validateRelationship, admitRelationship, popRelationship, mergeRelationship},
	record.KindEntityGroup:            {validate: validateEntityGroup, admit: admitEntityGroup},
	record.KindParameterDefinition:    {validateParameterDefinition, admitParameterDefinition, popParameterDefinition, mergeParameterDefinition},
	record.KindParameterValue:         {validateParameterValue, admitParameterValue, popParameterValue, mergeParameterValue},
	record.KindParameterTag:           {validateParameterTag, admitParameterTag, popParameterTag, mergeParameterTag},
	record.KindParameterDefinitionTag: {validate: validateParameterDefinitionTag, admit: admitParameterDefinitionTag},
	record.KindParameterValueList:     {validateParameterValueList, admitParameterValueList, popParameterValueList, mergeParameterValueList},
	record.KindAlternative:            {validateAlternative, admitAlternative, popAlternative, mergeAlternative},
	record.KindScenario:               {validateScenario, admitScenario, popScenario, mergeScenario},
	record.KindScenarioAlternative:    {validateScenarioAlternative, admitScenarioAlternative, popScenarioAlternative, mergeScenarioAlternative},
	record.KindFeature:                {validateFeature, admitFeature, popFeature, mergeFeature},
	record.KindTool:                   {validateTool, admitTool, popTool, mergeTool},
	record.KindToolFeature:            {validateToolFeature, admitToolFeature, popToolFeature, mergeToolFeature},
	record.KindToolFeatureMethod:      {validateToolFeatureMethod, admitToolFeatureMethod, popToolFeatureMethod, mergeToolFeatureMethod},
	record.KindMetadata:               {validateMetadata, admitMetadata, popMetadata, mergeMetadata},
	record.KindEntityMetadata:         {validate: validateEntityMetadata, admit: admitEntityMetadata},
	record.KindParameterValueMetadata: {validate: validateParameterValueMetadata, admit: admitParameterValueMetadata},
}

// Checker validates one batch per call against the snapshot it was built
// from. Build a fresh Checker per batch: accepted candidates extend the
// internal indexes so later siblings see them, and that working state is not
// meant to outlive the call. The snapshot itself is never mutated.
type Checker struct {
	st *state
}

// New builds a checker over snap.
func New(snap *record.Snapshot) *Checker {
	return &Checker{st: newState(snap)}
}

// CheckInsert validates insert candidates for kind in order. Accepted
// candidates are returned with derived fields set and their unique keys
// claimed, so an intra-batch duplicate fails exactly like a preexisting one.
// In strict mode the first failure aborts the whole batch; otherwise failures
// land in the returned log and valid candidates are still accepted.
func (c *Checker) CheckInsert(kind record.Kind, rows []record.Row, strict bool) ([]record.Row, record.ErrorLog, error) {
	op, ok := kindOps[kind]
	if !ok {
		return nil, nil, record.Validationf(kind, "unknown record kind")
	}
	var (
		accepted []record.Row
		log      record.ErrorLog
	)
	for _, row := range rows {
		normalized, err := c.insertOne(op, kind, row)
		if err != nil {
			if strict {
				return nil, nil, err
			}
			log = append(log, err)
			continue
		}
		accepted = append(accepted, normalized)
	}
	return accepted, log, nil
}

func (c *Checker) insertOne(op ops, kind record.Kind, row record.Row) (record.Row, error) {
	if row == nil {
		return nil, record.Validationf(kind, "nil record")
	}
	if row.Kind() != kind {
		return nil, record.Validationf(kind, "record is a %s, not a %s", row.Kind(), kind)
	}
	if row.RecordID() != 0 {
		return nil, record.Validationf(kind, "insert candidate carries id %d", row.RecordID())
	}
	normalized, err := op.validate(c.st, row)
	if err != nil {
		return nil, err
	}
	op.admit(c.st, normalized)
	return normalized, nil
}

// CheckUpdate validates partial updates for kind in order. Each partial must
// carry the id of an existing row; zero and nil fields mean unchanged. The
// current row is popped from every index (simulated removal), the partial is
// merged onto the popped copy, and the merged row re-runs the insert rules —
// so a self-rename passes while a rename onto another row's key fails.
// Accepted rows are returned in full, ready to apply. A failed candidate is
// restored before checking continues.
func (c *Checker) CheckUpdate(kind record.Kind, rows []record.Row, strict bool) ([]record.Row, record.ErrorLog, error) {
	op, ok := kindOps[kind]
	if !ok {
		return nil, nil, record.Validationf(kind, "unknown record kind")
	}
	if op.pop == nil || op.merge == nil {
		return nil, nil, record.Validationf(kind, "%s records have no updatable fields; remove and re-insert instead", kind)
	}
	var (
		accepted []record.Row
		log      record.ErrorLog
	)
	for _, row := range rows {
		merged, err := c.updateOne(op, kind, row)
		if err != nil {
			if strict {
				return nil, nil, err
			}
			log = append(log, err)
			continue
		}
		accepted = append(accepted, merged)
	}
	return accepted, log, nil
}

func (c *Checker) updateOne(op ops, kind record.Kind, row record.Row) (record.Row, error) {
	if row == nil {
		return nil, record.Validationf(kind, "nil record")
	}
	if row.Kind() != kind {
		return nil, record.Validationf(kind, "record is a %s, not a %s", row.Kind(), kind)
	}
	if row.RecordID() == 0 {
		return nil, record.Validationf(kind, "update candidate carries no id")
	}
	current, err := op.pop(c.st, row.RecordID())
	if err != nil {
		return nil, err
	}
	merged, err := op.merge(c.st, current, row)
	if err != nil {
		op.admit(c.st, current)
		return nil, err
	}
	validated, err := op.validate(c.st, merged)
	if err != nil {
		op.admit(c.st, current)
		return nil, err
	}
	op.admit(c.st, validated)
	return validated, nil
}
