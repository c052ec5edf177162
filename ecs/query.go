package ecs

import (
	"unsafe"

	"github.com/kamstrup/intmap"
)

// Reference names an external entity from which a column's data must be
// fetched: prefab inheritance, an explicit entity, a container parent or the
// query's system. Ptr is borrowed from the owning table's column and goes
// stale when that column reallocates; the world raises its resolve flag when
// that happens.
type Reference struct {
	Entity    Entity
	Component Entity
	Ptr       unsafe.Pointer
}

// MatchedTable is the per-table access plan of a query. Columns[c] is a
// tri-state: > 0 means the term's component is stored in this table at
// column Columns[c]-1; 0 means handle-only (tag, empty source or missing
// optional); < 0 means the data lives behind References[-Columns[c]-1].
// Components[c] holds the resolved component, which for Or terms may differ
// per table.
type MatchedTable struct {
	Table      *Table
	Columns    []int32
	Components []Entity
	References []Reference
}

// resolveRefs re-caches the borrowed pointers after column storage moved.
func (mt *MatchedTable) resolveRefs(w *World) {
	for i := range mt.References {
		ref := &mt.References[i]
		if ref.Entity != InvalidEntity {
			ref.Ptr = w.GetPtr(ref.Entity, ref.Component)
		}
	}
}

// entityCheck is a negated fixed-entity term folded out of the term list.
type entityCheck struct {
	source    Entity
	component Entity
}

// Query continuously maintains the set of archetype tables matching a
// signature, with a per-table column access plan. Queries are created
// through World.NewQuery and receive new-table events until freed.
type Query struct {
	world  *World
	sig    *Signature
	system Entity

	// bulk accumulators, one interned type per source kind
	andFromSelf   Type
	andFromOwned  Type
	andFromShared Type
	andFromSystem Type

	notFromSelf      Type
	notFromOwned     Type
	notFromShared    Type
	notFromContainer Type

	notFromEntity []entityCheck

	cascadeBy int
	hasRefs   bool

	tables  []*MatchedTable
	matched *intmap.Map[uint64, struct{}]
}

// Tables returns the matched-table plans in table registration order.
func (q *Query) Tables() []*MatchedTable { return q.tables }

// Signature returns the signature the query was compiled from.
func (q *Query) Signature() *Signature { return q.sig }

// CascadeBy returns the 1-based column index of the cascade term, or 0.
// With several cascade terms the last one wins.
func (q *Query) CascadeBy() int { return q.cascadeBy }

// HasRefs reports whether any matched table resolves a column through a
// reference.
func (q *Query) HasRefs() bool { return q.hasRefs }

// postprocess reduces the signature in one pass into the per-kind
// accumulators used for fast table rejection, registers watches on fixed
// entity sources and folds negated terms into the summary. Negated terms are
// then normalised to an empty source: they never carry data, so the plan
// builder hands out a handle-only column for them.
func (q *Query) postprocess() {
	w := q.world
	for i := range q.sig.Terms {
		term := &q.sig.Terms[i]

		switch term.Component {
		case Prefab:
			q.sig.MatchPrefab = true
		case Disabled:
			q.sig.MatchDisabled = true
		}

		if term.From == FromEntity {
			w.SetWatch(term.Source)
		}

		switch {
		case term.From == FromCascade:
			q.cascadeBy = i + 1

		case term.Op == OpOr:
			// evaluated per table

		case term.Op == OpNot:
			switch term.From {
			case FromSelf:
				q.notFromSelf = w.TypeAdd(q.notFromSelf, term.Component)
			case FromOwned:
				q.notFromOwned = w.TypeAdd(q.notFromOwned, term.Component)
			case FromShared:
				q.notFromShared = w.TypeAdd(q.notFromShared, term.Component)
			case FromEntity:
				q.notFromEntity = append(q.notFromEntity, entityCheck{term.Source, term.Component})
			case FromEmpty:
				// already handle-only
			default:
				q.notFromContainer = w.TypeAdd(q.notFromContainer, term.Component)
			}
			term.From = FromEmpty

		case term.Op == OpAnd:
			switch term.From {
			case FromSelf:
				q.andFromSelf = w.TypeAdd(q.andFromSelf, term.Component)
			case FromOwned:
				q.andFromOwned = w.TypeAdd(q.andFromOwned, term.Component)
			case FromShared:
				q.andFromShared = w.TypeAdd(q.andFromShared, term.Component)
			case FromSystem:
				q.andFromSystem = w.TypeAdd(q.andFromSystem, term.Component)
			}
		}
	}
}

// matches decides whether a table satisfies the signature. Checks run
// cheapest-rejection first: builtin filters, bulk accumulators, then the
// per-term constructs the summary cannot express.
func (q *Query) matches(t *Table) bool {
	w := q.world
	tt := t.typ

	if !q.sig.MatchDisabled && w.TypeHas(tt, Disabled, false) {
		return false
	}
	if !q.sig.MatchPrefab && w.TypeHas(tt, Prefab, false) {
		return false
	}

	if len(q.andFromSelf) > 0 && w.TypeContains(tt, q.andFromSelf, true, true) == 0 {
		return false
	}
	if len(q.andFromOwned) > 0 && w.TypeContains(tt, q.andFromOwned, true, false) == 0 {
		return false
	}
	if len(q.andFromShared) > 0 {
		// Owned components override shared ones: the table must not own the
		// components directly, yet they must be reachable through prefabs.
		if w.TypeContains(tt, q.andFromShared, true, false) != 0 {
			return false
		}
		if w.TypeContains(tt, q.andFromShared, true, true) == 0 {
			return false
		}
	}

	if len(q.notFromSelf) > 0 && w.TypeContains(tt, q.notFromSelf, false, true) != 0 {
		return false
	}
	if len(q.notFromOwned) > 0 && w.TypeContains(tt, q.notFromOwned, false, false) != 0 {
		return false
	}
	if len(q.notFromShared) > 0 && w.TypeContains(tt, q.notFromShared, false, false) == 0 {
		// The dual of the shared rule: inheritable without being owned.
		if w.TypeContains(tt, q.notFromShared, false, true) != 0 {
			return false
		}
	}
	if len(q.notFromContainer) > 0 {
		if c, _ := w.containerContains(tt, q.notFromContainer, false); c != 0 {
			return false
		}
	}

	for i := range q.sig.Terms {
		term := &q.sig.Terms[i]
		switch term.Op {
		case OpAnd:
			switch term.From {
			case FromSelf, FromOwned, FromShared:
				// covered by the bulk tests above
			case FromContainer:
				if _, ok := w.containerHasComponent(tt, term.Component); !ok {
					return false
				}
			case FromEntity:
				if !w.TypeHas(w.GetType(term.Source), term.Component, false) {
					return false
				}
			}
		case OpOr:
			switch term.From {
			case FromSelf:
				if w.TypeContains(tt, term.Type, false, true) == 0 {
					return false
				}
			case FromContainer:
				if c, _ := w.containerContains(tt, term.Type, false); c == 0 {
					return false
				}
			}
		}
	}

	for _, chk := range q.notFromEntity {
		if w.TypeHas(w.GetType(chk.source), chk.component, false) {
			return false
		}
	}

	return true
}

// addTable builds the access plan for a table that matched. For each term it
// resolves the component, decides the tri-state column value and allocates a
// reference when the data lives on another entity.
func (q *Query) addTable(t *Table) {
	w := q.world
	tt := t.typ
	n := len(q.sig.Terms)

	mt := &MatchedTable{
		Table:      t,
		Columns:    make([]int32, n),
		Components: make([]Entity, n),
	}

	for c := range q.sig.Terms {
		term := &q.sig.Terms[c]
		var entity, component Entity

		// negated terms were normalised to an empty source
		if term.Op == OpNot && term.From != FromEmpty {
			panic("ecs: negated term carries a data source")
		}

		switch term.From {
		case FromSelf, FromEntity, FromOwned, FromShared:
			switch term.Op {
			case OpAnd, OpOptional:
				component = term.Component
			case OpOr:
				component = w.TypeContains(tt, term.Type, false, true)
			}
			if term.From == FromEntity {
				entity = term.Source
			}

		case FromEmpty:
			// handle only, no data
			component = term.Component
			mt.Columns[c] = 0

		case FromContainer, FromCascade:
			switch term.Op {
			case OpAnd, OpOptional:
				component = term.Component
				entity, _ = w.containerHasComponent(tt, component)
			case OpOr:
				component, entity = w.containerContains(tt, term.Type, false)
			}

		case FromSystem:
			if term.Op == OpAnd {
				component = term.Component
			}
			entity = q.system
		}

		if entity == 0 && term.From != FromEmpty && component != 0 {
			idx := tt.IndexOf(component)
			mt.Columns[c] = int32(idx)
			if idx != -1 {
				// column 0 is reserved for the entity ids
				mt.Columns[c]++
				if w.ComponentSize(component) == 0 {
					// tags carry no data
					mt.Columns[c] = 0
				}
			}
			// idx == -1 means the component is inherited from a prefab and
			// resolves as a reference below
		}

		if term.Op == OpOptional && !w.TypeHas(tt, component, true) {
			mt.Columns[c] = 0
		}

		// A reference is needed when the data lives on another entity: a
		// fixed or container source, a prefab-inherited component, or a
		// cascade column (root tables keep an unresolved slot so a later
		// reparent only has to fill it in).
		if entity != 0 || mt.Columns[c] == -1 || term.From == FromCascade {
			if size := w.ComponentSize(component); w.isComponent(component) && size > 0 {
				var e Entity
				switch term.From {
				case FromEntity, FromCascade:
					e = entity
				default:
					e = w.OwningEntity(entity, tt, component)
					if e == 0 {
						panic("ecs: no owning entity for referenced component")
					}
				}

				ref := Reference{Entity: e, Component: component}
				if e != InvalidEntity {
					ref.Ptr = w.GetPtr(e, component)
					w.SetWatch(e)
				}
				mt.References = append(mt.References, ref)
				mt.Columns[c] = -int32(len(mt.References))
				q.hasRefs = true
			} else if mt.Columns[c] == -1 {
				// inherited tag: nothing to resolve, hand out an empty column
				mt.Columns[c] = 0
			}
		}

		mt.Components[c] = component
	}

	q.tables = append(q.tables, mt)
	q.matched.Put(t.id, struct{}{})
}

// MatchTable tests t against the query and, on a match, appends its access
// plan. Tables already planned are left untouched, so repeated registration
// of the same table is safe. Reports whether t is matched.
func (q *Query) MatchTable(t *Table) bool {
	if _, seen := q.matched.Get(t.id); seen {
		return true
	}
	if !q.matches(t) {
		return false
	}
	q.addTable(t)
	return true
}
