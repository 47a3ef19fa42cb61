package check

import "latticecore/pkg/record"

// defaultDisplayOrder is assigned when an object class does not specify one.
const defaultDisplayOrder = 99

func validateObjectClass(st *state, row record.Row) (record.Row, error) {
	c := row.(record.ObjectClass)
	if c.Name == "" {
		return nil, record.Validationf(record.KindObjectClass, "missing class name")
	}
	if existing, dup := st.classNames[c.Name]; dup {
		return nil, record.Duplicatef(record.KindObjectClass, existing, "there is already a class named %q", c.Name)
	}
	if c.DisplayOrder == 0 {
		c.DisplayOrder = defaultDisplayOrder
	}
	return c, nil
}

func admitObjectClass(st *state, row record.Row) {
	c := row.(record.ObjectClass)
	st.classNames[c.Name] = c.ID
	if c.ID != 0 {
		st.objectClasses[c.ID] = c
	}
}

func popObjectClass(st *state, id int64) (record.Row, error) {
	c, ok := st.objectClasses[id]
	if !ok {
		return nil, record.NotFound(record.KindObjectClass, id)
	}
	delete(st.objectClasses, id)
	delete(st.classNames, c.Name)
	return c, nil
}

func mergeObjectClass(_ *state, cur, partial record.Row) (record.Row, error) {
	c := cur.(record.ObjectClass)
	p := partial.(record.ObjectClass)
	if p.Name != "" {
		c.Name = p.Name
	}
	if p.Description != nil {
		c.Description = p.Description
	}
	if p.DisplayOrder != 0 {
		c.DisplayOrder = p.DisplayOrder
	}
	if p.DisplayIcon != nil {
		c.DisplayIcon = p.DisplayIcon
	}
	if p.Hidden != nil {
		c.Hidden = p.Hidden
	}
	return c, nil
}

func validateRelationshipClass(st *state, row record.Row) (record.Row, error) {
	c := row.(record.RelationshipClass)
	if c.Name == "" {
		return nil, record.Validationf(record.KindRelationshipClass, "missing class name")
	}
	if existing, dup := st.classNames[c.Name]; dup {
		return nil, record.Duplicatef(record.KindRelationshipClass, existing, "there is already a class named %q", c.Name)
	}
	if len(c.ObjectClassIDs) == 0 {
		return nil, record.Validationf(record.KindRelationshipClass, "relationship class %q needs at least one object class", c.Name)
	}
	for _, classID := range c.ObjectClassIDs {
		if _, ok := st.objectClasses[classID]; !ok {
			return nil, record.NotFound(record.KindObjectClass, classID)
		}
	}
	return c, nil
}

func admitRelationshipClass(st *state, row record.Row) {
	c := row.(record.RelationshipClass)
	st.classNames[c.Name] = c.ID
	if c.ID != 0 {
		st.relationshipClasses[c.ID] = c
	}
}

func popRelationshipClass(st *state, id int64) (record.Row, error) {
	c, ok := st.relationshipClasses[id]
	if !ok {
		return nil, record.NotFound(record.KindRelationshipClass, id)
	}
	delete(st.relationshipClasses, id)
	delete(st.classNames, c.Name)
	return c, nil
}

func mergeRelationshipClass(_ *state, cur, partial record.Row) (record.Row, error) {
	c := cur.(record.RelationshipClass)
	p := partial.(record.RelationshipClass)
	if p.ObjectClassIDs != nil && !equalInt64s(p.ObjectClassIDs, c.ObjectClassIDs) {
		return nil, record.Validationf(record.KindRelationshipClass, "can't change the object classes of relationship class %q", c.Name)
	}
	if p.Name != "" {
		c.Name = p.Name
	}
	if p.Description != nil {
		c.Description = p.Description
	}
	if p.Hidden != nil {
		c.Hidden = p.Hidden
	}
	return c, nil
}

func validateObject(st *state, row record.Row) (record.Row, error) {
	o := row.(record.Object)
	if o.Name == "" {
		return nil, record.Validationf(record.KindObject, "missing object name")
	}
	if o.ClassID == 0 {
		return nil, record.Validationf(record.KindObject, "missing class id for object %q", o.Name)
	}
	cls, ok := st.objectClasses[o.ClassID]
	if !ok {
		return nil, record.NotFound(record.KindObjectClass, o.ClassID)
	}
	if existing, dup := st.objectKeys[classNameKey{o.ClassID, o.Name}]; dup {
		return nil, record.Duplicatef(record.KindObject, existing, "there is already an object named %q in class %q", o.Name, cls.Name)
	}
	return o, nil
}

func admitObject(st *state, row record.Row) {
	o := row.(record.Object)
	st.objectKeys[classNameKey{o.ClassID, o.Name}] = o.ID
	if o.ID != 0 {
		st.objects[o.ID] = o
	}
}

func popObject(st *state, id int64) (record.Row, error) {
	o, ok := st.objects[id]
	if !ok {
		return nil, record.NotFound(record.KindObject, id)
	}
	delete(st.objects, id)
	delete(st.objectKeys, classNameKey{o.ClassID, o.Name})
	return o, nil
}

func mergeObject(_ *state, cur, partial record.Row) (record.Row, error) {
	o := cur.(record.Object)
	p := partial.(record.Object)
	if p.ClassID != 0 && p.ClassID != o.ClassID {
		return nil, record.Validationf(record.KindObject, "can't change the class of object %q", o.Name)
	}
	if p.Name != "" {
		o.Name = p.Name
	}
	if p.Description != nil {
		o.Description = p.Description
	}
	return o, nil
}

func validateRelationship(st *state, row record.Row) (record.Row, error) {
	r := row.(record.Relationship)
	if r.Name == "" {
		return nil, record.Validationf(record.KindRelationship, "missing relationship name")
	}
	if r.ClassID == 0 {
		return nil, record.Validationf(record.KindRelationship, "missing class id for relationship %q", r.Name)
	}
	cls, ok := st.relationshipClasses[r.ClassID]
	if !ok {
		return nil, record.NotFound(record.KindRelationshipClass, r.ClassID)
	}
	if existing, dup := st.relationshipKeys[classNameKey{r.ClassID, r.Name}]; dup {
		return nil, record.Duplicatef(record.KindRelationship, existing, "there is already a relationship named %q in class %q", r.Name, cls.Name)
	}
	if len(r.ObjectIDs) != len(cls.ObjectClassIDs) {
		return nil, record.Validationf(record.KindRelationship, "relationship %q needs %d objects, got %d", r.Name, len(cls.ObjectClassIDs), len(r.ObjectIDs))
	}
	for i, objectID := range r.ObjectIDs {
		obj, ok := st.objects[objectID]
		if !ok {
			return nil, record.NotFound(record.KindObject, objectID)
		}
		if obj.ClassID != cls.ObjectClassIDs[i] {
			wantName, _ := st.entityClassName(cls.ObjectClassIDs[i])
			return nil, record.Validationf(record.KindRelationship, "object %q at position %d of relationship %q is not of class %q", obj.Name, i, r.Name, wantName)
		}
	}
	return r, nil
}

func admitRelationship(st *state, row record.Row) {
	r := row.(record.Relationship)
	st.relationshipKeys[classNameKey{r.ClassID, r.Name}] = r.ID
	if r.ID != 0 {
		st.relationships[r.ID] = r
	}
}

func popRelationship(st *state, id int64) (record.Row, error) {
	r, ok := st.relationships[id]
	if !ok {
		return nil, record.NotFound(record.KindRelationship, id)
	}
	delete(st.relationships, id)
	delete(st.relationshipKeys, classNameKey{r.ClassID, r.Name})
	return r, nil
}

func mergeRelationship(_ *state, cur, partial record.Row) (record.Row, error) {
	r := cur.(record.Relationship)
	p := partial.(record.Relationship)
	if p.ClassID != 0 && p.ClassID != r.ClassID {
		return nil, record.Validationf(record.KindRelationship, "can't change the class of relationship %q", r.Name)
	}
	if p.Name != "" {
		r.Name = p.Name
	}
	if p.ObjectIDs != nil {
		r.ObjectIDs = cloneIDs(p.ObjectIDs)
	}
	return r, nil
}

func validateEntityGroup(st *state, row record.Row) (record.Row, error) {
	g := row.(record.EntityGroup)
	if g.ClassID == 0 {
		return nil, record.Validationf(record.KindEntityGroup, "missing class id")
	}
	if g.GroupID == 0 || g.MemberID == 0 {
		return nil, record.Validationf(record.KindEntityGroup, "missing group or member entity id")
	}
	groupClassID, groupName, ok := st.entity(g.GroupID)
	if !ok {
		return nil, notFoundEntity(g.GroupID)
	}
	memberClassID, memberName, ok := st.entity(g.MemberID)
	if !ok {
		return nil, notFoundEntity(g.MemberID)
	}
	className, ok := st.entityClassName(g.ClassID)
	if !ok {
		return nil, record.NotFound(record.KindObjectClass, g.ClassID)
	}
	if groupClassID != g.ClassID || memberClassID != g.ClassID {
		return nil, record.Validationf(record.KindEntityGroup, "group %q and member %q must both belong to class %q", groupName, memberName, className)
	}
	if existing, dup := st.groupKeys[pairKey{g.GroupID, g.MemberID}]; dup {
		return nil, record.Duplicatef(record.KindEntityGroup, existing, "entity %q is already a member of group %q", memberName, groupName)
	}
	return g, nil
}

func admitEntityGroup(st *state, row record.Row) {
	g := row.(record.EntityGroup)
	st.groupKeys[pairKey{g.GroupID, g.MemberID}] = g.ID
	if g.ID != 0 {
		st.entityGroups[g.ID] = g
	}
}
