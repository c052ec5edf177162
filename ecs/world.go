package ecs

import (
	"log/slog"
	"slices"
	"unsafe"

	"github.com/kamstrup/intmap"
)

// World owns the entity index, the component records, the interned type
// store, the archetype tables and the live queries. All mutation runs on one
// control thread; no operation suspends.
type World struct {
	logger *slog.Logger

	entityIndex *intmap.Map[Entity, *record]
	components  *intmap.Map[Entity, componentInfo]
	watched     *intmap.Map[Entity, struct{}]
	typeStore   *intmap.Map[uint64, []Type]

	tables      []*Table
	tablesByKey *intmap.Map[uint64, []*Table]
	tableSeq    uint64

	registry queryRegistry

	nextHandle    Entity
	shouldResolve bool
}

// Option configures a World.
type Option func(*World)

// WithLogger routes the world's diagnostics to l.
func WithLogger(l *slog.Logger) Option {
	return func(w *World) { w.logger = l }
}

// NewWorld creates an empty world with the builtin tags registered.
func NewWorld(opts ...Option) *World {
	w := &World{
		logger:      slog.New(slog.DiscardHandler),
		entityIndex: intmap.New[Entity, *record](256),
		components:  intmap.New[Entity, componentInfo](64),
		watched:     intmap.New[Entity, struct{}](64),
		typeStore:   intmap.New[uint64, []Type](64),
		tablesByKey: intmap.New[uint64, []*Table](64),
		nextHandle:  firstUserHandle,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.components.Put(Prefab, componentInfo{name: "Prefab"})
	w.components.Put(Disabled, componentInfo{name: "Disabled"})
	return w
}

func (w *World) newHandle() Entity {
	h := w.nextHandle
	w.nextHandle++
	return h
}

// NewEntity creates an entity whose type is the canonical form of ids and
// stores it in that type's table.
func (w *World) NewEntity(ids ...Entity) Entity {
	e := w.newHandle()
	if len(ids) == 0 {
		w.entityIndex.Put(e, &record{})
		return e
	}
	w.attach(e, w.NewType(ids...))
	return e
}

// NewPrefab creates a template entity: its type carries the Prefab tag plus
// ids. Instances created with NewInstance inherit its components.
func (w *World) NewPrefab(ids ...Entity) Entity {
	e := w.newHandle()
	w.attach(e, w.NewType(append(ids[:len(ids):len(ids)], Prefab)...))
	return e
}

// NewInstance creates an entity inheriting from prefab, plus owned ids.
func (w *World) NewInstance(prefab Entity, ids ...Entity) Entity {
	e := w.newHandle()
	w.attach(e, w.NewType(append(ids[:len(ids):len(ids)], prefab|InstanceOf)...))
	return e
}

// NewChild creates an entity contained in parent, plus owned ids.
func (w *World) NewChild(parent Entity, ids ...Entity) Entity {
	e := w.newHandle()
	w.attach(e, w.NewType(append(ids[:len(ids):len(ids)], parent|ChildOf)...))
	return e
}

func (w *World) attach(e Entity, typ Type) {
	t := w.getTable(typ)
	row := t.insert(w, e)
	w.entityIndex.Put(e, &record{table: t, row: row})
}

// getTable returns the unique table for typ, creating and announcing it to
// the live queries on first use.
func (w *World) getTable(typ Type) *Table {
	k := typ.key()
	bucket, _ := w.tablesByKey.Get(k)
	for _, t := range bucket {
		if slices.Equal(t.typ, typ) {
			return t
		}
	}

	w.tableSeq++
	t := newTable(w, w.tableSeq, typ)
	w.tablesByKey.Put(k, append(bucket, t))
	w.tables = append(w.tables, t)
	w.logger.Debug("table created", "table", t.id, "components", len(typ))
	w.registry.notifyTable(t)
	return t
}

func (w *World) recordOf(e Entity) *record {
	rec, ok := w.entityIndex.Get(e.Mask())
	if !ok {
		return nil
	}
	return rec
}

// GetType returns the type of e, or nil when e stores nothing.
func (w *World) GetType(e Entity) Type {
	rec := w.recordOf(e)
	if rec == nil || rec.table == nil {
		return nil
	}
	return rec.table.typ
}

// GetRecord returns the table and row where e lives. The table is nil for
// entities without components.
func (w *World) GetRecord(e Entity) (*Table, int) {
	rec := w.recordOf(e)
	if rec == nil {
		return nil, 0
	}
	return rec.table, rec.row
}

// GetPtr returns a borrowed pointer to e's own data for component c, or nil
// when e does not store c. The pointer is invalidated when the column
// reallocates.
func (w *World) GetPtr(e, c Entity) unsafe.Pointer {
	rec := w.recordOf(e)
	if rec == nil || rec.table == nil {
		return nil
	}
	return rec.table.Ptr(c, rec.row)
}

// Has reports whether e carries c, owned or inherited.
func (w *World) Has(e, c Entity) bool {
	return w.TypeHas(w.GetType(e), c, true)
}

// SetWatch flags e so that plans referencing it are notified on mutation.
func (w *World) SetWatch(e Entity) {
	w.watched.Put(e.Mask(), struct{}{})
}

// Watched reports whether e was flagged by SetWatch.
func (w *World) Watched(e Entity) bool {
	_, ok := w.watched.Get(e.Mask())
	return ok
}

// Tables returns the live tables in creation order.
func (w *World) Tables() []*Table { return w.tables }

// notifyRealloc records that borrowed column pointers into t went stale.
func (w *World) notifyRealloc(*Table) {
	w.shouldResolve = true
}

// ShouldResolve reports whether any cached reference pointer may be
// dangling.
func (w *World) ShouldResolve() bool { return w.shouldResolve }

// ResolveReferences re-caches every reference pointer held by live queries
// and lowers the resolve flag.
func (w *World) ResolveReferences() {
	for _, q := range w.registry.queries {
		for _, mt := range q.tables {
			mt.resolveRefs(w)
		}
	}
	w.shouldResolve = false
}
