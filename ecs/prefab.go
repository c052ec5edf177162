package ecs

// findEntityInPrefabs walks the InstanceOf links of typ, depth first, to the
// prefab whose own type holds component. Returns 0 when no prefab does. The
// caller guarantees the inheritance graph is acyclic.
func (w *World) findEntityInPrefabs(typ Type, component Entity) Entity {
	for _, id := range typ {
		if !id.IsInstanceOf() {
			continue
		}
		prefab := id.Mask()
		ptype := w.GetType(prefab)
		if ptype.Has(component) {
			return prefab
		}
		if found := w.findEntityInPrefabs(ptype, component); found != 0 {
			return found
		}
	}
	return 0
}

// OwningEntity resolves the entity that actually stores component. When
// start is non-zero its own table type replaces typ. Returns start when the
// component is owned directly, the owning prefab when inherited, 0 when
// neither.
func (w *World) OwningEntity(start Entity, typ Type, component Entity) Entity {
	if start != 0 {
		rec := w.recordOf(start)
		if rec == nil || rec.table == nil {
			panic("ecs: missing record for entity")
		}
		typ = rec.table.typ
	}
	if typ.Has(component) {
		return start
	}
	return w.findEntityInPrefabs(typ, component)
}

// containerContains searches the ChildOf parents embedded in tableType for
// one whose own type contains sub, following the parents' InstanceOf links.
// Returns the witness component and the parent entity, or zeros.
func (w *World) containerContains(tableType, sub Type, matchAll bool) (Entity, Entity) {
	for _, id := range tableType {
		if !id.IsChildOf() {
			continue
		}
		parent := id.Mask()
		rec := w.recordOf(parent)
		if rec == nil {
			panic("ecs: missing record for container parent")
		}
		if rec.table == nil {
			continue
		}
		if witness := w.TypeContains(rec.table.typ, sub, matchAll, true); witness != 0 {
			return witness, parent
		}
	}
	return 0, 0
}

// containerHasComponent reports whether some ChildOf parent embedded in
// tableType carries component, and which parent.
func (w *World) containerHasComponent(tableType Type, component Entity) (Entity, bool) {
	for _, id := range tableType {
		if !id.IsChildOf() {
			continue
		}
		parent := id.Mask()
		rec := w.recordOf(parent)
		if rec == nil {
			panic("ecs: missing record for container parent")
		}
		if rec.table == nil {
			continue
		}
		if w.TypeHas(rec.table.typ, component, true) {
			return parent, true
		}
	}
	return 0, false
}
