package main

import (
	"flag"
	"log"
	"math/rand"
	"os"
	"runtime"
	"time"

	"github.com/pkg/profile"
	"github.com/plus3/archon/ecs"
)

func main() {
	componentCount := flag.Int("components", 64, "Number of components to register (one in four is a tag).")
	tableCount := flag.Int("tables", 2000, "Number of entities to spawn before queries exist (entities with equal types share a table).")
	queryCount := flag.Int("queries", 200, "Number of queries to compile against the populated world.")
	extraTables := flag.Int("extra-tables", 500, "Entities spawned after the queries, exercising incremental matching on any new tables.")
	seed := flag.Int64("seed", 1, "Seed for the table and signature generators.")
	profileMode := flag.String("profile", "", "Write a profile: cpu or mem.")
	flag.Parse()

	switch *profileMode {
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	case "mem":
		defer profile.Start(profile.MemProfileAllocs, profile.ProfilePath(".")).Stop()
	case "":
	default:
		log.Fatalf("unknown profile mode %q", *profileMode)
	}

	rng := rand.New(rand.NewSource(*seed))

	log.Println("Starting query stress test...")

	report := &Report{
		Components:  *componentCount,
		Tables:      *tableCount,
		Queries:     *queryCount,
		ExtraTables: *extraTables,
	}
	runtime.ReadMemStats(&report.MemStatsStart)

	// 1. Register components, a few prefabs and container parents.
	w := ecs.NewWorld()
	gen := newGenerator(w, rng, *componentCount)

	// 2. Populate tables before any query exists.
	start := time.Now()
	for i := 0; i < *tableCount; i++ {
		gen.spawnEntity()
	}
	report.PopulateTime = time.Since(start)
	report.LiveTables = len(w.Tables())

	// 3. Compile queries against the populated world.
	queries := make([]*ecs.Query, 0, *queryCount)
	start = time.Now()
	for i := 0; i < *queryCount; i++ {
		q := w.NewQuery(gen.randomSignature())
		queries = append(queries, q)
	}
	report.CompileTime = time.Since(start)

	// 4. Create more tables so every query re-matches incrementally.
	start = time.Now()
	for i := 0; i < *extraTables; i++ {
		gen.spawnEntity()
	}
	report.IncrementalTime = time.Since(start)

	for _, q := range queries {
		report.MatchedTables += len(q.Tables())
		for _, mt := range q.Tables() {
			report.References += len(mt.References)
		}
	}
	report.LiveTablesEnd = len(w.Tables())

	runtime.ReadMemStats(&report.MemStatsEnd)

	if err := report.Generate(os.Stdout); err != nil {
		log.Fatalf("failed to generate report: %v", err)
	}
}

// generator draws random entities and signatures over a fixed component set.
type generator struct {
	w       *ecs.World
	rng     *rand.Rand
	comps   []ecs.Entity
	parents []ecs.Entity
	prefabs []ecs.Entity
}

func newGenerator(w *ecs.World, rng *rand.Rand, componentCount int) *generator {
	g := &generator{w: w, rng: rng}
	for i := 0; i < componentCount; i++ {
		if i%4 == 3 {
			g.comps = append(g.comps, w.NewTag("Tag"))
		} else {
			g.comps = append(g.comps, w.NewComponent("Comp", uint32(8*(1+i%4))))
		}
	}
	for i := 0; i < 4; i++ {
		g.prefabs = append(g.prefabs, w.NewPrefab(g.pick(3)...))
	}
	for i := 0; i < 8; i++ {
		g.parents = append(g.parents, w.NewEntity(g.pick(3)...))
	}
	return g
}

func (g *generator) pick(max int) []ecs.Entity {
	n := g.rng.Intn(max) + 1
	ids := make([]ecs.Entity, 0, n)
	for i := 0; i < n; i++ {
		ids = append(ids, g.comps[g.rng.Intn(len(g.comps))])
	}
	return ids
}

func (g *generator) spawnEntity() {
	ids := g.pick(5)
	switch g.rng.Intn(5) {
	case 0:
		ids = append(ids, g.parents[g.rng.Intn(len(g.parents))]|ecs.ChildOf)
	case 1:
		ids = append(ids, g.prefabs[g.rng.Intn(len(g.prefabs))]|ecs.InstanceOf)
	}
	g.w.NewEntity(ids...)
}

func (g *generator) randomSignature() *ecs.Signature {
	n := g.rng.Intn(4) + 1
	terms := make([]ecs.Term, 0, n)
	for i := 0; i < n; i++ {
		c := g.comps[g.rng.Intn(len(g.comps))]
		switch g.rng.Intn(7) {
		case 0, 1, 2:
			terms = append(terms, ecs.And(c))
		case 3:
			terms = append(terms, ecs.Not(c))
		case 4:
			terms = append(terms, ecs.Optional(c))
		case 5:
			d := g.comps[g.rng.Intn(len(g.comps))]
			terms = append(terms, ecs.Or(g.w.NewType(c, d)))
		case 6:
			terms = append(terms, ecs.AndFrom(ecs.FromContainer, c))
		}
	}
	return ecs.NewSignature(terms...)
}
