package ecs

import "github.com/kamstrup/intmap"

// queryRegistry holds the live queries and fans new-table events out to
// them.
type queryRegistry struct {
	queries []*Query
}

func (r *queryRegistry) add(q *Query) {
	r.queries = append(r.queries, q)
}

func (r *queryRegistry) remove(q *Query) {
	for i, existing := range r.queries {
		if existing == q {
			r.queries = append(r.queries[:i], r.queries[i+1:]...)
			return
		}
	}
}

func (r *queryRegistry) notifyTable(t *Table) {
	for _, q := range r.queries {
		q.MatchTable(t)
	}
}

// NewQuery compiles sig into a live query: the signature is summarised once,
// every existing table is matched eagerly, and tables created later are
// matched incrementally. Ownership of the signature moves into the query.
func (w *World) NewQuery(sig *Signature) *Query {
	return w.NewSystemQuery(sig, 0)
}

// NewSystemQuery additionally binds the system entity that FromSystem terms
// resolve against.
func (w *World) NewSystemQuery(sig *Signature, system Entity) *Query {
	q := &Query{
		world:   w,
		sig:     sig,
		system:  system,
		matched: intmap.New[uint64, struct{}](8),
	}
	q.postprocess()
	for _, t := range w.tables {
		q.MatchTable(t)
	}
	w.registry.add(q)
	w.logger.Debug("query registered", "terms", len(sig.Terms), "tables", len(q.tables))
	return q
}

// FreeQuery removes q from the registry; it receives no further table
// events.
func (w *World) FreeQuery(q *Query) {
	w.registry.remove(q)
}
