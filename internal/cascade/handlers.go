package cascade

import "latticecore/pkg/record"

// Handlers find direct dependents only; the runner handles recursion and
// dedup. Removal flows strictly downward: a class pulls in its entities,
// definitions, and the relationship classes built on it, never its siblings.

func cascadeObjectClass(rn *run, ids record.IDSet) {
	objects := record.IDSet{}
	for id, o := range rn.snap.Objects {
		if ids.Has(o.ClassID) {
			objects.Add(id)
		}
	}
	rn.visit(record.KindObject, objects)

	relClasses := record.IDSet{}
	for id, rc := range rn.snap.RelationshipClasses {
		for _, classID := range rc.ObjectClassIDs {
			if ids.Has(classID) {
				relClasses.Add(id)
				break
			}
		}
	}
	rn.visit(record.KindRelationshipClass, relClasses)

	rn.visit(record.KindParameterDefinition, definitionsOfClasses(rn.snap, ids))
}

func cascadeRelationshipClass(rn *run, ids record.IDSet) {
	rels := record.IDSet{}
	for id, rel := range rn.snap.Relationships {
		if ids.Has(rel.ClassID) {
			rels.Add(id)
		}
	}
	rn.visit(record.KindRelationship, rels)

	rn.visit(record.KindParameterDefinition, definitionsOfClasses(rn.snap, ids))
}

func cascadeObject(rn *run, ids record.IDSet) {
	rels := record.IDSet{}
	for id, rel := range rn.snap.Relationships {
		for _, objectID := range rel.ObjectIDs {
			if ids.Has(objectID) {
				rels.Add(id)
				break
			}
		}
	}
	rn.visit(record.KindRelationship, rels)

	cascadeEntityDependents(rn, ids)
}

func cascadeRelationship(rn *run, ids record.IDSet) {
	cascadeEntityDependents(rn, ids)
}

// cascadeEntityDependents pulls in the records hanging off any entity:
// parameter values, group joins on either side, and metadata joins.
func cascadeEntityDependents(rn *run, ids record.IDSet) {
	values := record.IDSet{}
	for id, v := range rn.snap.ParameterValues {
		if ids.Has(v.EntityID) {
			values.Add(id)
		}
	}
	rn.visit(record.KindParameterValue, values)

	groups := record.IDSet{}
	for id, g := range rn.snap.EntityGroups {
		if ids.Has(g.GroupID) || ids.Has(g.MemberID) {
			groups.Add(id)
		}
	}
	rn.visit(record.KindEntityGroup, groups)

	joins := record.IDSet{}
	for id, em := range rn.snap.EntityMetadata {
		if ids.Has(em.EntityID) {
			joins.Add(id)
		}
	}
	rn.visit(record.KindEntityMetadata, joins)
}

func cascadeParameterDefinition(rn *run, ids record.IDSet) {
	values := record.IDSet{}
	for id, v := range rn.snap.ParameterValues {
		if ids.Has(v.DefinitionID) {
			values.Add(id)
		}
	}
	rn.visit(record.KindParameterValue, values)

	features := record.IDSet{}
	for id, f := range rn.snap.Features {
		if ids.Has(f.DefinitionID) {
			features.Add(id)
		}
	}
	rn.visit(record.KindFeature, features)

	tags := record.IDSet{}
	for id, dt := range rn.snap.ParameterDefinitionTags {
		if ids.Has(dt.DefinitionID) {
			tags.Add(id)
		}
	}
	rn.visit(record.KindParameterDefinitionTag, tags)
}

func cascadeParameterValue(rn *run, ids record.IDSet) {
	joins := record.IDSet{}
	for id, pm := range rn.snap.ParameterValueMetadata {
		if ids.Has(pm.ValueID) {
			joins.Add(id)
		}
	}
	rn.visit(record.KindParameterValueMetadata, joins)
}

func cascadeParameterTag(rn *run, ids record.IDSet) {
	joins := record.IDSet{}
	for id, dt := range rn.snap.ParameterDefinitionTags {
		if ids.Has(dt.TagID) {
			joins.Add(id)
		}
	}
	rn.visit(record.KindParameterDefinitionTag, joins)
}

func cascadeParameterValueList(rn *run, ids record.IDSet) {
	// Features are built on the list and go with it. Definitions keep their
	// reference; the resolver removes records, it cannot clear fields.
	features := record.IDSet{}
	for id, f := range rn.snap.Features {
		if ids.Has(f.ValueListID) {
			features.Add(id)
		}
	}
	rn.visit(record.KindFeature, features)
}

func cascadeAlternative(rn *run, ids record.IDSet) {
	values := record.IDSet{}
	for id, v := range rn.snap.ParameterValues {
		if ids.Has(v.AlternativeID) {
			values.Add(id)
		}
	}
	rn.visit(record.KindParameterValue, values)

	joins := record.IDSet{}
	for id, sa := range rn.snap.ScenarioAlternatives {
		if ids.Has(sa.AlternativeID) {
			joins.Add(id)
		}
	}
	rn.visit(record.KindScenarioAlternative, joins)
}

func cascadeScenario(rn *run, ids record.IDSet) {
	joins := record.IDSet{}
	for id, sa := range rn.snap.ScenarioAlternatives {
		if ids.Has(sa.ScenarioID) {
			joins.Add(id)
		}
	}
	rn.visit(record.KindScenarioAlternative, joins)
}

func cascadeFeature(rn *run, ids record.IDSet) {
	joins := record.IDSet{}
	for id, tf := range rn.snap.ToolFeatures {
		if ids.Has(tf.FeatureID) {
			joins.Add(id)
		}
	}
	rn.visit(record.KindToolFeature, joins)
}

func cascadeTool(rn *run, ids record.IDSet) {
	joins := record.IDSet{}
	for id, tf := range rn.snap.ToolFeatures {
		if ids.Has(tf.ToolID) {
			joins.Add(id)
		}
	}
	rn.visit(record.KindToolFeature, joins)
}

func cascadeToolFeature(rn *run, ids record.IDSet) {
	methods := record.IDSet{}
	for id, m := range rn.snap.ToolFeatureMethods {
		if ids.Has(m.ToolFeatureID) {
			methods.Add(id)
		}
	}
	rn.visit(record.KindToolFeatureMethod, methods)
}

func cascadeMetadata(rn *run, ids record.IDSet) {
	entityJoins := record.IDSet{}
	for id, em := range rn.snap.EntityMetadata {
		if ids.Has(em.MetadataID) {
			entityJoins.Add(id)
		}
	}
	rn.visit(record.KindEntityMetadata, entityJoins)

	valueJoins := record.IDSet{}
	for id, pm := range rn.snap.ParameterValueMetadata {
		if ids.Has(pm.MetadataID) {
			valueJoins.Add(id)
		}
	}
	rn.visit(record.KindParameterValueMetadata, valueJoins)
}

// definitionsOfClasses returns the parameter definitions scoped to any of the
// given class ids; class ids span the object/relationship class union.
func definitionsOfClasses(snap *record.Snapshot, classIDs record.IDSet) record.IDSet {
	out := record.IDSet{}
	for id, d := range snap.ParameterDefinitions {
		if classIDs.Has(d.EntityClassID) {
			out.Add(id)
		}
	}
	return out
}
