package check

import "latticecore/pkg/record"

func validateMetadata(st *state, row record.Row) (record.Row, error) {
	m := row.(record.Metadata)
	if m.Name == "" {
		return nil, record.Validationf(record.KindMetadata, "missing metadata name")
	}
	if m.Value == "" {
		return nil, record.Validationf(record.KindMetadata, "missing metadata value")
	}
	if existing, dup := st.metadataKeys[nameValueKey{m.Name, m.Value}]; dup {
		return nil, record.Duplicatef(record.KindMetadata, existing, "metadata %q: %q already exists", m.Name, m.Value)
	}
	return m, nil
}

func admitMetadata(st *state, row record.Row) {
	m := row.(record.Metadata)
	st.metadataKeys[nameValueKey{m.Name, m.Value}] = m.ID
	if m.ID != 0 {
		st.metadata[m.ID] = m
	}
}

func popMetadata(st *state, id int64) (record.Row, error) {
	m, ok := st.metadata[id]
	if !ok {
		return nil, record.NotFound(record.KindMetadata, id)
	}
	delete(st.metadata, id)
	delete(st.metadataKeys, nameValueKey{m.Name, m.Value})
	return m, nil
}

func mergeMetadata(_ *state, cur, partial record.Row) (record.Row, error) {
	m := cur.(record.Metadata)
	p := partial.(record.Metadata)
	if p.Name != "" {
		m.Name = p.Name
	}
	if p.Value != "" {
		m.Value = p.Value
	}
	return m, nil
}

func validateEntityMetadata(st *state, row record.Row) (record.Row, error) {
	em := row.(record.EntityMetadata)
	if em.EntityID == 0 {
		return nil, record.Validationf(record.KindEntityMetadata, "missing entity id")
	}
	_, entityName, ok := st.entity(em.EntityID)
	if !ok {
		return nil, notFoundEntity(em.EntityID)
	}
	if _, ok := st.metadata[em.MetadataID]; !ok {
		return nil, record.NotFound(record.KindMetadata, em.MetadataID)
	}
	if existing, dup := st.entityMetadataKeys[pairKey{em.EntityID, em.MetadataID}]; dup {
		return nil, record.Duplicatef(record.KindEntityMetadata, existing, "entity %q already has that metadata", entityName)
	}
	return em, nil
}

func admitEntityMetadata(st *state, row record.Row) {
	em := row.(record.EntityMetadata)
	st.entityMetadataKeys[pairKey{em.EntityID, em.MetadataID}] = em.ID
	if em.ID != 0 {
		st.entityMetadata[em.ID] = em
	}
}

func validateParameterValueMetadata(st *state, row record.Row) (record.Row, error) {
	pm := row.(record.ParameterValueMetadata)
	if pm.ValueID == 0 {
		return nil, record.Validationf(record.KindParameterValueMetadata, "missing parameter value id")
	}
	if _, ok := st.parameterValues[pm.ValueID]; !ok {
		return nil, record.NotFound(record.KindParameterValue, pm.ValueID)
	}
	if _, ok := st.metadata[pm.MetadataID]; !ok {
		return nil, record.NotFound(record.KindMetadata, pm.MetadataID)
	}
	if existing, dup := st.valueMetadataKeys[pairKey{pm.ValueID, pm.MetadataID}]; dup {
		return nil, record.Duplicatef(record.KindParameterValueMetadata, existing, "parameter value %d already has that metadata", pm.ValueID)
	}
	return pm, nil
}

func admitParameterValueMetadata(st *state, row record.Row) {
	pm := row.(record.ParameterValueMetadata)
	st.valueMetadataKeys[pairKey{pm.ValueID, pm.MetadataID}] = pm.ID
	if pm.ID != 0 {
		st.valueMetadata[pm.ID] = pm
	}
}
