package check

import "latticecore/pkg/record"

func validateAlternative(st *state, row record.Row) (record.Row, error) {
	a := row.(record.Alternative)
	if a.Name == "" {
		return nil, record.Validationf(record.KindAlternative, "missing alternative name")
	}
	if existing, dup := st.alternativeNames[a.Name]; dup {
		return nil, record.Duplicatef(record.KindAlternative, existing, "there is already an alternative named %q", a.Name)
	}
	return a, nil
}

func admitAlternative(st *state, row record.Row) {
	a := row.(record.Alternative)
	st.alternativeNames[a.Name] = a.ID
	if a.ID != 0 {
		st.alternatives[a.ID] = a
	}
}

func popAlternative(st *state, id int64) (record.Row, error) {
	a, ok := st.alternatives[id]
	if !ok {
		return nil, record.NotFound(record.KindAlternative, id)
	}
	delete(st.alternatives, id)
	delete(st.alternativeNames, a.Name)
	return a, nil
}

func mergeAlternative(_ *state, cur, partial record.Row) (record.Row, error) {
	a := cur.(record.Alternative)
	p := partial.(record.Alternative)
	if p.Name != "" {
		a.Name = p.Name
	}
	if p.Description != nil {
		a.Description = p.Description
	}
	return a, nil
}

func validateScenario(st *state, row record.Row) (record.Row, error) {
	s := row.(record.Scenario)
	if s.Name == "" {
		return nil, record.Validationf(record.KindScenario, "missing scenario name")
	}
	if existing, dup := st.scenarioNames[s.Name]; dup {
		return nil, record.Duplicatef(record.KindScenario, existing, "there is already a scenario named %q", s.Name)
	}
	return s, nil
}

func admitScenario(st *state, row record.Row) {
	s := row.(record.Scenario)
	st.scenarioNames[s.Name] = s.ID
	if s.ID != 0 {
		st.scenarios[s.ID] = s
	}
}

func popScenario(st *state, id int64) (record.Row, error) {
	s, ok := st.scenarios[id]
	if !ok {
		return nil, record.NotFound(record.KindScenario, id)
	}
	delete(st.scenarios, id)
	delete(st.scenarioNames, s.Name)
	return s, nil
}

func mergeScenario(_ *state, cur, partial record.Row) (record.Row, error) {
	s := cur.(record.Scenario)
	p := partial.(record.Scenario)
	if p.Name != "" {
		s.Name = p.Name
	}
	if p.Description != nil {
		s.Description = p.Description
	}
	if p.Active != nil {
		s.Active = p.Active
	}
	return s, nil
}

func validateScenarioAlternative(st *state, row record.Row) (record.Row, error) {
	sa := row.(record.ScenarioAlternative)
	scen, ok := st.scenarios[sa.ScenarioID]
	if !ok {
		return nil, record.NotFound(record.KindScenario, sa.ScenarioID)
	}
	alt, ok := st.alternatives[sa.AlternativeID]
	if !ok {
		return nil, record.NotFound(record.KindAlternative, sa.AlternativeID)
	}
	if sa.Rank < 1 {
		return nil, record.Validationf(record.KindScenarioAlternative, "rank of alternative %q in scenario %q must be positive", alt.Name, scen.Name)
	}
	if existing, dup := st.scenarioAltKeys[pairKey{sa.ScenarioID, sa.AlternativeID}]; dup {
		return nil, record.Duplicatef(record.KindScenarioAlternative, existing, "alternative %q is already in scenario %q", alt.Name, scen.Name)
	}
	if existing, dup := st.scenarioRankKeys[rankKey{sa.ScenarioID, sa.Rank}]; dup {
		return nil, record.Duplicatef(record.KindScenarioAlternative, existing, "scenario %q already has an alternative at rank %d", scen.Name, sa.Rank)
	}
	return sa, nil
}

func admitScenarioAlternative(st *state, row record.Row) {
	sa := row.(record.ScenarioAlternative)
	st.scenarioAltKeys[pairKey{sa.ScenarioID, sa.AlternativeID}] = sa.ID
	st.scenarioRankKeys[rankKey{sa.ScenarioID, sa.Rank}] = sa.ID
	if sa.ID != 0 {
		st.scenarioAlternatives[sa.ID] = sa
	}
}

func popScenarioAlternative(st *state, id int64) (record.Row, error) {
	sa, ok := st.scenarioAlternatives[id]
	if !ok {
		return nil, record.NotFound(record.KindScenarioAlternative, id)
	}
	delete(st.scenarioAlternatives, id)
	delete(st.scenarioAltKeys, pairKey{sa.ScenarioID, sa.AlternativeID})
	delete(st.scenarioRankKeys, rankKey{sa.ScenarioID, sa.Rank})
	return sa, nil
}

func mergeScenarioAlternative(_ *state, cur, partial record.Row) (record.Row, error) {
	sa := cur.(record.ScenarioAlternative)
	p := partial.(record.ScenarioAlternative)
	if p.ScenarioID != 0 && p.ScenarioID != sa.ScenarioID {
		return nil, record.Validationf(record.KindScenarioAlternative, "can't move a scenario alternative to another scenario")
	}
	if p.AlternativeID != 0 {
		sa.AlternativeID = p.AlternativeID
	}
	if p.Rank != 0 {
		sa.Rank = p.Rank
	}
	return sa, nil
}

func validateFeature(st *state, row record.Row) (record.Row, error) {
	f := row.(record.Feature)
	if f.DefinitionID == 0 {
		return nil, record.Validationf(record.KindFeature, "missing parameter definition reference")
	}
	def, ok := st.parameterDefinitions[f.DefinitionID]
	if !ok {
		return nil, record.NotFound(record.KindParameterDefinition, f.DefinitionID)
	}
	if def.ValueListID == nil {
		return nil, record.Validationf(record.KindFeature, "parameter %q can't be a feature because it has no value list", def.Name)
	}
	f.ValueListID = *def.ValueListID
	if existing, dup := st.featureKeys[f.DefinitionID]; dup {
		return nil, record.Duplicatef(record.KindFeature, existing, "parameter %q is already a feature", def.Name)
	}
	return f, nil
}

func admitFeature(st *state, row record.Row) {
	f := row.(record.Feature)
	st.featureKeys[f.DefinitionID] = f.ID
	if f.ID != 0 {
		st.features[f.ID] = f
	}
}

func popFeature(st *state, id int64) (record.Row, error) {
	f, ok := st.features[id]
	if !ok {
		return nil, record.NotFound(record.KindFeature, id)
	}
	delete(st.features, id)
	delete(st.featureKeys, f.DefinitionID)
	return f, nil
}

func mergeFeature(_ *state, cur, partial record.Row) (record.Row, error) {
	f := cur.(record.Feature)
	p := partial.(record.Feature)
	if p.DefinitionID != 0 {
		f.DefinitionID = p.DefinitionID
	}
	if p.Description != nil {
		f.Description = p.Description
	}
	return f, nil
}

func validateTool(st *state, row record.Row) (record.Row, error) {
	t := row.(record.Tool)
	if t.Name == "" {
		return nil, record.Validationf(record.KindTool, "missing tool name")
	}
	if existing, dup := st.toolNames[t.Name]; dup {
		return nil, record.Duplicatef(record.KindTool, existing, "there is already a tool named %q", t.Name)
	}
	return t, nil
}

func admitTool(st *state, row record.Row) {
	t := row.(record.Tool)
	st.toolNames[t.Name] = t.ID
	if t.ID != 0 {
		st.tools[t.ID] = t
	}
}

func popTool(st *state, id int64) (record.Row, error) {
	t, ok := st.tools[id]
	if !ok {
		return nil, record.NotFound(record.KindTool, id)
	}
	delete(st.tools, id)
	delete(st.toolNames, t.Name)
	return t, nil
}

func mergeTool(_ *state, cur, partial record.Row) (record.Row, error) {
	t := cur.(record.Tool)
	p := partial.(record.Tool)
	if p.Name != "" {
		t.Name = p.Name
	}
	if p.Description != nil {
		t.Description = p.Description
	}
	return t, nil
}

func validateToolFeature(st *state, row record.Row) (record.Row, error) {
	tf := row.(record.ToolFeature)
	tool, ok := st.tools[tf.ToolID]
	if !ok {
		return nil, record.NotFound(record.KindTool, tf.ToolID)
	}
	feature, ok := st.features[tf.FeatureID]
	if !ok {
		return nil, record.NotFound(record.KindFeature, tf.FeatureID)
	}
	if existing, dup := st.toolFeatureKeys[pairKey{tf.ToolID, tf.FeatureID}]; dup {
		label := featureLabel(st, feature)
		return nil, record.Duplicatef(record.KindToolFeature, existing, "tool %q already has feature %q", tool.Name, label)
	}
	if tf.Required == nil {
		required := false
		tf.Required = &required
	}
	return tf, nil
}

func admitToolFeature(st *state, row record.Row) {
	tf := row.(record.ToolFeature)
	st.toolFeatureKeys[pairKey{tf.ToolID, tf.FeatureID}] = tf.ID
	if tf.ID != 0 {
		st.toolFeatures[tf.ID] = tf
	}
}

func popToolFeature(st *state, id int64) (record.Row, error) {
	tf, ok := st.toolFeatures[id]
	if !ok {
		return nil, record.NotFound(record.KindToolFeature, id)
	}
	delete(st.toolFeatures, id)
	delete(st.toolFeatureKeys, pairKey{tf.ToolID, tf.FeatureID})
	return tf, nil
}

func mergeToolFeature(_ *state, cur, partial record.Row) (record.Row, error) {
	tf := cur.(record.ToolFeature)
	p := partial.(record.ToolFeature)
	if p.ToolID != 0 && p.ToolID != tf.ToolID {
		return nil, record.Validationf(record.KindToolFeature, "can't change the tool of a tool feature")
	}
	if p.FeatureID != 0 && p.FeatureID != tf.FeatureID {
		return nil, record.Validationf(record.KindToolFeature, "can't change the feature of a tool feature")
	}
	if p.Required != nil {
		tf.Required = p.Required
	}
	return tf, nil
}

func validateToolFeatureMethod(st *state, row record.Row) (record.Row, error) {
	m := row.(record.ToolFeatureMethod)
	tf, ok := st.toolFeatures[m.ToolFeatureID]
	if !ok {
		return nil, record.NotFound(record.KindToolFeature, m.ToolFeatureID)
	}
	feature, ok := st.features[tf.FeatureID]
	if !ok {
		return nil, record.NotFound(record.KindFeature, tf.FeatureID)
	}
	list, ok := st.valueLists[feature.ValueListID]
	if !ok {
		return nil, record.NotFound(record.KindParameterValueList, feature.ValueListID)
	}
	m.ValueListID = feature.ValueListID
	if m.MethodIndex < 1 || m.MethodIndex > len(list.Values) {
		return nil, record.Validationf(record.KindToolFeatureMethod, "method index %d is out of range for value list %q (%d values)", m.MethodIndex, list.Name, len(list.Values))
	}
	if existing, dup := st.methodKeys[methodKey{m.ToolFeatureID, m.MethodIndex}]; dup {
		return nil, record.Duplicatef(record.KindToolFeatureMethod, existing, "tool feature already has a method at index %d", m.MethodIndex)
	}
	return m, nil
}

func admitToolFeatureMethod(st *state, row record.Row) {
	m := row.(record.ToolFeatureMethod)
	st.methodKeys[methodKey{m.ToolFeatureID, m.MethodIndex}] = m.ID
	if m.ID != 0 {
		st.toolFeatureMethods[m.ID] = m
	}
}

func popToolFeatureMethod(st *state, id int64) (record.Row, error) {
	m, ok := st.toolFeatureMethods[id]
	if !ok {
		return nil, record.NotFound(record.KindToolFeatureMethod, id)
	}
	delete(st.toolFeatureMethods, id)
	delete(st.methodKeys, methodKey{m.ToolFeatureID, m.MethodIndex})
	return m, nil
}

func mergeToolFeatureMethod(_ *state, cur, partial record.Row) (record.Row, error) {
	m := cur.(record.ToolFeatureMethod)
	p := partial.(record.ToolFeatureMethod)
	if p.ToolFeatureID != 0 && p.ToolFeatureID != m.ToolFeatureID {
		return nil, record.Validationf(record.KindToolFeatureMethod, "can't change the tool feature of a method")
	}
	if p.MethodIndex != 0 {
		m.MethodIndex = p.MethodIndex
	}
	return m, nil
}

// featureLabel names a feature by its definition where possible.
func featureLabel(st *state, f record.Feature) string {
	if def, ok := st.parameterDefinitions[f.DefinitionID]; ok {
		return def.Name
	}
	return "?"
}
