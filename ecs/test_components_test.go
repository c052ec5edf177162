package ecs_test

import (
	"unsafe"

	"github.com/plus3/archon/ecs"
)

// Common test component layouts
type Position struct {
	X, Y float32
}

type Velocity struct {
	DX, DY float32
}

type Transform struct {
	M [6]float32
}

type Mesh struct {
	Handle uint32
}

type Health struct {
	Current int32
	Max     int32
}

func sizeOf[T any]() uint32 {
	var v T
	return uint32(unsafe.Sizeof(v))
}

// testWorld bundles a world with the component handles every test needs.
type testWorld struct {
	w *ecs.World

	pos       ecs.Entity
	vel       ecs.Entity
	transform ecs.Entity
	mesh      ecs.Entity
	health    ecs.Entity
	dead      ecs.Entity
}

func newTestWorld() *testWorld {
	w := ecs.NewWorld()
	return &testWorld{
		w:         w,
		pos:       w.NewComponent("Position", sizeOf[Position]()),
		vel:       w.NewComponent("Velocity", sizeOf[Velocity]()),
		transform: w.NewComponent("Transform", sizeOf[Transform]()),
		mesh:      w.NewComponent("Mesh", sizeOf[Mesh]()),
		health:    w.NewComponent("Health", sizeOf[Health]()),
		dead:      w.NewTag("Dead"),
	}
}
