package ecs_test

import (
	"testing"

	"github.com/plus3/archon/ecs"
)

func benchWorld() (*ecs.World, []ecs.Entity) {
	w := ecs.NewWorld()
	comps := make([]ecs.Entity, 16)
	for i := range comps {
		comps[i] = w.NewComponent("comp", 8)
	}
	// one table per 2-subset of components
	for i := 0; i < len(comps); i++ {
		for j := i + 1; j < len(comps); j++ {
			w.NewEntity(comps[i], comps[j])
		}
	}
	return w, comps
}

func BenchmarkNewQuery(b *testing.B) {
	w, comps := benchWorld()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		q := w.NewQuery(ecs.NewSignature(ecs.And(comps[0]), ecs.And(comps[1])))
		w.FreeQuery(q)
	}
}

func BenchmarkTableFanout(b *testing.B) {
	w, comps := benchWorld()
	for i := 0; i < 8; i++ {
		w.NewQuery(ecs.NewSignature(ecs.And(comps[i]), ecs.Not(comps[i+8])))
	}
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		c := w.NewComponent("bench", 8)
		w.NewEntity(c, comps[i%8])
	}
}

func BenchmarkTypeContains(b *testing.B) {
	w, comps := benchWorld()
	super := w.NewType(comps[:8]...)
	sub := w.NewType(comps[2], comps[5])
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if w.TypeContains(super, sub, true, true) == 0 {
			b.Fatal("expected a witness")
		}
	}
}
