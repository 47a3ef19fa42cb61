package check

import "latticecore/pkg/record"

func validateParameterDefinition(st *state, row record.Row) (record.Row, error) {
	d := row.(record.ParameterDefinition)
	if d.Name == "" {
		return nil, record.Validationf(record.KindParameterDefinition, "missing parameter name")
	}
	switch {
	case d.ObjectClassID != nil && d.RelationshipClassID != nil:
		return nil, record.Validationf(record.KindParameterDefinition, "parameter %q can't be scoped to both an object class and a relationship class", d.Name)
	case d.ObjectClassID != nil:
		if _, ok := st.objectClasses[*d.ObjectClassID]; !ok {
			return nil, record.NotFound(record.KindObjectClass, *d.ObjectClassID)
		}
		d.EntityClassID = *d.ObjectClassID
	case d.RelationshipClassID != nil:
		if _, ok := st.relationshipClasses[*d.RelationshipClassID]; !ok {
			return nil, record.NotFound(record.KindRelationshipClass, *d.RelationshipClassID)
		}
		d.EntityClassID = *d.RelationshipClassID
	default:
		return nil, record.Validationf(record.KindParameterDefinition, "parameter %q is missing an object class or relationship class reference", d.Name)
	}
	if existing, dup := st.definitionKeys[classNameKey{d.EntityClassID, d.Name}]; dup {
		className, _ := st.entityClassName(d.EntityClassID)
		return nil, record.Duplicatef(record.KindParameterDefinition, existing, "class %q already has a parameter named %q", className, d.Name)
	}
	if d.ValueListID != nil {
		list, ok := st.valueLists[*d.ValueListID]
		if !ok {
			return nil, record.NotFound(record.KindParameterValueList, *d.ValueListID)
		}
		if d.DefaultValue != nil && !listHasValue(list, d.DefaultValue) {
			return nil, record.Validationf(record.KindParameterDefinition, "default value of parameter %q is not in value list %q", d.Name, list.Name)
		}
	}
	return d, nil
}

func admitParameterDefinition(st *state, row record.Row) {
	d := row.(record.ParameterDefinition)
	st.definitionKeys[classNameKey{d.EntityClassID, d.Name}] = d.ID
	if d.ID != 0 {
		st.parameterDefinitions[d.ID] = d
	}
}

func popParameterDefinition(st *state, id int64) (record.Row, error) {
	d, ok := st.parameterDefinitions[id]
	if !ok {
		return nil, record.NotFound(record.KindParameterDefinition, id)
	}
	delete(st.parameterDefinitions, id)
	delete(st.definitionKeys, classNameKey{d.EntityClassID, d.Name})
	return d, nil
}

func mergeParameterDefinition(st *state, cur, partial record.Row) (record.Row, error) {
	d := cur.(record.ParameterDefinition)
	p := partial.(record.ParameterDefinition)
	if p.ObjectClassID != nil || p.RelationshipClassID != nil {
		// Explicit re-scope: the variant pair replaces both sides and the
		// class reference is re-derived. Values pin the definition to its
		// class, so a definition with values cannot move.
		if !sameID(p.ObjectClassID, d.ObjectClassID) || !sameID(p.RelationshipClassID, d.RelationshipClassID) {
			for _, v := range st.parameterValues {
				if v.DefinitionID == d.ID {
					return nil, record.Validationf(record.KindParameterDefinition, "can't re-scope parameter %q while it has values", d.Name)
				}
			}
			d.ObjectClassID = p.ObjectClassID
			d.RelationshipClassID = p.RelationshipClassID
			d.EntityClassID = 0
		}
	}
	if p.Name != "" {
		d.Name = p.Name
	}
	if p.ValueListID != nil {
		d.ValueListID = p.ValueListID
	}
	if p.DefaultValue != nil {
		d.DefaultValue = p.DefaultValue
	}
	if p.Description != nil {
		d.Description = p.Description
	}
	return d, nil
}

func validateParameterValue(st *state, row record.Row) (record.Row, error) {
	v := row.(record.ParameterValue)
	if v.DefinitionID == 0 {
		return nil, record.Validationf(record.KindParameterValue, "missing parameter definition reference")
	}
	def, ok := st.parameterDefinitions[v.DefinitionID]
	if !ok {
		return nil, record.NotFound(record.KindParameterDefinition, v.DefinitionID)
	}
	switch {
	case v.ObjectID != nil && v.RelationshipID != nil:
		return nil, record.Validationf(record.KindParameterValue, "a value of parameter %q can't be bound to both an object and a relationship", def.Name)
	case v.ObjectID != nil:
		obj, ok := st.objects[*v.ObjectID]
		if !ok {
			return nil, record.NotFound(record.KindObject, *v.ObjectID)
		}
		v.EntityID = obj.ID
		v.EntityClassID = obj.ClassID
	case v.RelationshipID != nil:
		rel, ok := st.relationships[*v.RelationshipID]
		if !ok {
			return nil, record.NotFound(record.KindRelationship, *v.RelationshipID)
		}
		v.EntityID = rel.ID
		v.EntityClassID = rel.ClassID
	default:
		return nil, record.Validationf(record.KindParameterValue, "a value of parameter %q is missing an object or relationship reference", def.Name)
	}
	if v.EntityClassID != def.EntityClassID {
		_, entityName, _ := st.entity(v.EntityID)
		className, _ := st.entityClassName(def.EntityClassID)
		return nil, record.Validationf(record.KindParameterValue, "parameter %q is not defined for entity %q (it belongs to class %q)", def.Name, entityName, className)
	}
	if v.AlternativeID == 0 {
		return nil, record.Validationf(record.KindParameterValue, "a value of parameter %q is missing an alternative reference", def.Name)
	}
	alt, ok := st.alternatives[v.AlternativeID]
	if !ok {
		return nil, record.NotFound(record.KindAlternative, v.AlternativeID)
	}
	if existing, dup := st.valueKeys[tripleKey{v.EntityID, v.DefinitionID, v.AlternativeID}]; dup {
		_, entityName, _ := st.entity(v.EntityID)
		return nil, record.Duplicatef(record.KindParameterValue, existing, "entity %q already has a value for parameter %q in alternative %q", entityName, def.Name, alt.Name)
	}
	if def.ValueListID != nil {
		// The list may have been removed out from under the definition, in
		// which case membership is unenforceable.
		if list, ok := st.valueLists[*def.ValueListID]; ok && !listHasValue(list, v.Value) {
			_, entityName, _ := st.entity(v.EntityID)
			return nil, record.Validationf(record.KindParameterValue, "value of parameter %q for entity %q is not in value list %q", def.Name, entityName, list.Name)
		}
	}
	return v, nil
}

func admitParameterValue(st *state, row record.Row) {
	v := row.(record.ParameterValue)
	st.valueKeys[tripleKey{v.EntityID, v.DefinitionID, v.AlternativeID}] = v.ID
	if v.ID != 0 {
		st.parameterValues[v.ID] = v
	}
}

func popParameterValue(st *state, id int64) (record.Row, error) {
	v, ok := st.parameterValues[id]
	if !ok {
		return nil, record.NotFound(record.KindParameterValue, id)
	}
	delete(st.parameterValues, id)
	delete(st.valueKeys, tripleKey{v.EntityID, v.DefinitionID, v.AlternativeID})
	return v, nil
}

func mergeParameterValue(_ *state, cur, partial record.Row) (record.Row, error) {
	v := cur.(record.ParameterValue)
	p := partial.(record.ParameterValue)
	if p.DefinitionID != 0 && p.DefinitionID != v.DefinitionID {
		return nil, record.Validationf(record.KindParameterValue, "can't change the parameter definition of a value")
	}
	if p.ObjectID != nil && !sameID(p.ObjectID, v.ObjectID) {
		return nil, record.Validationf(record.KindParameterValue, "can't change the object of a parameter value")
	}
	if p.RelationshipID != nil && !sameID(p.RelationshipID, v.RelationshipID) {
		return nil, record.Validationf(record.KindParameterValue, "can't change the relationship of a parameter value")
	}
	if p.AlternativeID != 0 && p.AlternativeID != v.AlternativeID {
		return nil, record.Validationf(record.KindParameterValue, "can't change the alternative of a parameter value")
	}
	if p.Value != nil {
		v.Value = p.Value
	}
	return v, nil
}

func validateParameterTag(st *state, row record.Row) (record.Row, error) {
	t := row.(record.ParameterTag)
	if t.Tag == "" {
		return nil, record.Validationf(record.KindParameterTag, "missing tag")
	}
	if existing, dup := st.tagNames[t.Tag]; dup {
		return nil, record.Duplicatef(record.KindParameterTag, existing, "there is already a parameter tag %q", t.Tag)
	}
	return t, nil
}

func admitParameterTag(st *state, row record.Row) {
	t := row.(record.ParameterTag)
	st.tagNames[t.Tag] = t.ID
	if t.ID != 0 {
		st.parameterTags[t.ID] = t
	}
}

func popParameterTag(st *state, id int64) (record.Row, error) {
	t, ok := st.parameterTags[id]
	if !ok {
		return nil, record.NotFound(record.KindParameterTag, id)
	}
	delete(st.parameterTags, id)
	delete(st.tagNames, t.Tag)
	return t, nil
}

func mergeParameterTag(_ *state, cur, partial record.Row) (record.Row, error) {
	t := cur.(record.ParameterTag)
	p := partial.(record.ParameterTag)
	if p.Tag != "" {
		t.Tag = p.Tag
	}
	if p.Description != nil {
		t.Description = p.Description
	}
	return t, nil
}

func validateParameterDefinitionTag(st *state, row record.Row) (record.Row, error) {
	dt := row.(record.ParameterDefinitionTag)
	def, ok := st.parameterDefinitions[dt.DefinitionID]
	if !ok {
		return nil, record.NotFound(record.KindParameterDefinition, dt.DefinitionID)
	}
	tag, ok := st.parameterTags[dt.TagID]
	if !ok {
		return nil, record.NotFound(record.KindParameterTag, dt.TagID)
	}
	if existing, dup := st.definitionTagKeys[pairKey{dt.DefinitionID, dt.TagID}]; dup {
		return nil, record.Duplicatef(record.KindParameterDefinitionTag, existing, "parameter %q already has tag %q", def.Name, tag.Tag)
	}
	return dt, nil
}

func admitParameterDefinitionTag(st *state, row record.Row) {
	dt := row.(record.ParameterDefinitionTag)
	st.definitionTagKeys[pairKey{dt.DefinitionID, dt.TagID}] = dt.ID
	if dt.ID != 0 {
		st.definitionTags[dt.ID] = dt
	}
}

func validateParameterValueList(st *state, row record.Row) (record.Row, error) {
	l := row.(record.ParameterValueList)
	if l.Name == "" {
		return nil, record.Validationf(record.KindParameterValueList, "missing value list name")
	}
	if existing, dup := st.listNames[l.Name]; dup {
		return nil, record.Duplicatef(record.KindParameterValueList, existing, "there is already a parameter value list named %q", l.Name)
	}
	if len(l.Values) == 0 {
		return nil, record.Validationf(record.KindParameterValueList, "parameter value list %q needs at least one value", l.Name)
	}
	seen := make(map[string]struct{}, len(l.Values))
	for _, v := range l.Values {
		if _, dup := seen[string(v)]; dup {
			return nil, record.Validationf(record.KindParameterValueList, "duplicate value in parameter value list %q", l.Name)
		}
		seen[string(v)] = struct{}{}
	}
	return l, nil
}

func admitParameterValueList(st *state, row record.Row) {
	l := row.(record.ParameterValueList)
	st.listNames[l.Name] = l.ID
	if l.ID != 0 {
		st.valueLists[l.ID] = l
	}
}

func popParameterValueList(st *state, id int64) (record.Row, error) {
	l, ok := st.valueLists[id]
	if !ok {
		return nil, record.NotFound(record.KindParameterValueList, id)
	}
	delete(st.valueLists, id)
	delete(st.listNames, l.Name)
	return l, nil
}

func mergeParameterValueList(_ *state, cur, partial record.Row) (record.Row, error) {
	l := cur.(record.ParameterValueList)
	p := partial.(record.ParameterValueList)
	if p.Name != "" {
		l.Name = p.Name
	}
	if p.Values != nil {
		l.Values = p.Values
	}
	return l, nil
}
