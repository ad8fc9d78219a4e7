package entity

import (
	"testing"

	"voxelworld/internal/geom"
	"voxelworld/internal/physics"
	"voxelworld/internal/registry"
)

func TestNewIDsAreUniqueAndNonzero(t *testing.T) {
	a, b := NewID(), NewID()
	if a == 0 || b == 0 {
		t.Fatal("entity IDs must never be zero")
	}
	if a == b {
		t.Fatal("consecutive entity IDs must differ")
	}
}

func TestGoodReflectsPhysicsAndDestruction(t *testing.T) {
	desc := &registry.EntityDescriptor{Name: "player", HalfExtent: [3]float64{0.3, 0.9, 0.3}, Mass: 80}
	obj := physics.NewAABox(geom.PositionF{Dimension: geom.Overworld}, geom.VectorF{X: 0.3, Y: 0.9, Z: 0.3}, geom.VectorF{Y: -10},
		physics.Properties{Mass: 80, Friction: 0.5, Bounciness: 0, ContactMask1: 1, ContactMask2: 1})
	e := New(desc, obj)
	if !e.Good() {
		t.Fatal("freshly created entity with a live physics object should be Good")
	}
	e.Destroy()
	if e.Good() {
		t.Fatal("destroyed entity should not be Good")
	}
	if !e.Destroyed() {
		t.Fatal("Destroyed() should report true after Destroy()")
	}
}

func TestEmptyPhysicsObjectIsNotGood(t *testing.T) {
	desc := &registry.EntityDescriptor{Name: "marker"}
	e := New(desc, physics.NewEmpty())
	if e.Good() {
		t.Fatal("entity backed by an Empty physics object should not be Good")
	}
}
