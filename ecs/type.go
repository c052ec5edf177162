package ecs

import "slices"

// Type is a canonical, ascending-sorted sequence of entity ids identifying an
// archetype. Types are interned by the world: equal multisets resolve to the
// same backing slice, so identity comparison of contents is cheap. A Type is
// immutable once interned; TypeAdd produces a new interned Type.
type Type []Entity

// IndexOf returns the position of c in the canonical order, or -1.
func (t Type) IndexOf(c Entity) int {
	for i, e := range t {
		if e == c {
			return i
		}
	}
	return -1
}

// Has reports direct membership, without following inheritance links.
func (t Type) Has(c Entity) bool {
	return t.IndexOf(c) != -1
}

// key hashes the id sequence. FNV-1a over the raw 64-bit ids.
func (t Type) key() uint64 {
	var h uint64 = 14695981039346656037
	const prime uint64 = 1099511628211
	for _, e := range t {
		h ^= uint64(e)
		h *= prime
	}
	return h
}

// NewType interns the given ids as a canonical type. Ids are sorted ascending
// and duplicates are dropped.
func (w *World) NewType(ids ...Entity) Type {
	sorted := make(Type, len(ids))
	copy(sorted, ids)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	return w.intern(sorted)
}

// TypeAdd returns the interned type holding t's ids plus e. Returns t itself
// when e is already present.
func (w *World) TypeAdd(t Type, e Entity) Type {
	if t.Has(e) {
		return t
	}
	grown := make(Type, 0, len(t)+1)
	grown = append(grown, t...)
	grown = append(grown, e)
	slices.Sort(grown)
	return w.intern(grown)
}

// intern resolves sorted to the canonical instance, storing it on first use.
func (w *World) intern(sorted Type) Type {
	k := sorted.key()
	bucket, _ := w.typeStore.Get(k)
	for _, existing := range bucket {
		if slices.Equal(existing, sorted) {
			return existing
		}
	}
	w.typeStore.Put(k, append(bucket, sorted))
	return sorted
}

// TypeHas reports whether typ holds e, transparently following InstanceOf
// links in typ when searchPrefabs is set.
func (w *World) TypeHas(typ Type, e Entity, searchPrefabs bool) bool {
	if typ.Has(e) {
		return true
	}
	if !searchPrefabs {
		return false
	}
	for _, id := range typ {
		if !id.IsInstanceOf() {
			continue
		}
		if w.TypeHas(w.GetType(id.Mask()), e, true) {
			return true
		}
	}
	return false
}

// TypeContains returns a witness component from sub that is present in super,
// honouring the two booleans. With matchAll every element of sub must be
// present and the witness is the last matched; otherwise the first match
// suffices. With searchPrefabs, InstanceOf links in super are followed. The
// caller guarantees the inheritance graph is acyclic.
func (w *World) TypeContains(super, sub Type, matchAll, searchPrefabs bool) Entity {
	var witness Entity
	for _, c := range sub {
		found := w.TypeHas(super, c, searchPrefabs)
		if matchAll {
			if !found {
				return 0
			}
			witness = c
		} else if found {
			return c
		}
	}
	if matchAll {
		return witness
	}
	return 0
}
