package physics

import (
	"math"
	"testing"

	"voxelworld/internal/geom"
)

func box(y float64, props Properties) *Object {
	return NewAABox(
		geom.PositionF{X: 0, Y: y, Z: 0, Dimension: geom.Overworld},
		geom.VectorF{X: 0.5, Y: 0.5, Z: 0.5},
		geom.VectorF{Y: -10},
		props,
	)
}

func TestGravityAccelerates(t *testing.T) {
	w := NewWorld(nil)
	o := box(100, Properties{Mass: 1, Friction: 0, Bounciness: 0, ContactMask1: 1, ContactMask2: 1})
	w.Add(o)
	w.Move(1)
	if o.Velocity.Y >= 0 {
		t.Fatalf("expected downward velocity after falling, got %v", o.Velocity.Y)
	}
	if o.Position.Y >= 100 {
		t.Fatalf("expected object to have fallen, got y=%v", o.Position.Y)
	}
}

func TestRestsOnInfiniteMassFloor(t *testing.T) {
	w := NewWorld(nil)
	floor := NewAABox(geom.PositionF{Y: -0.5}, geom.VectorF{X: 50, Y: 0.5, Z: 50}, geom.VectorF{},
		Properties{Mass: InfiniteMass, Friction: 0.5, Bounciness: 0, ContactMask1: 1, ContactMask2: 1})
	dropped := box(0.55, Properties{Mass: 1, Friction: 0.5, Bounciness: 0, ContactMask1: 1, ContactMask2: 1})
	w.Add(floor)
	w.Add(dropped)

	for i := 0; i < 200; i++ {
		w.Move(w.CurrentTime + 1.0/60)
	}

	if dropped.Position.Y < 0.4 || dropped.Position.Y > 0.7 {
		t.Fatalf("expected object to settle near the floor, got y=%v", dropped.Position.Y)
	}
	if math.Abs(dropped.Velocity.Y) > 1 {
		t.Fatalf("expected small rest velocity, got %v", dropped.Velocity.Y)
	}
}

func TestContactMaskPreventsCollision(t *testing.T) {
	w := NewWorld(nil)
	floor := NewAABox(geom.PositionF{Y: -0.5}, geom.VectorF{X: 50, Y: 0.5, Z: 50}, geom.VectorF{},
		Properties{Mass: InfiniteMass, Friction: 0, Bounciness: 0, ContactMask1: 2, ContactMask2: 2})
	dropped := box(0.55, Properties{Mass: 1, Friction: 0, Bounciness: 0, ContactMask1: 1, ContactMask2: 1})
	w.Add(floor)
	w.Add(dropped)

	for i := 0; i < 120; i++ {
		w.Move(w.CurrentTime + 1.0/60)
	}

	if dropped.Position.Y > -5 {
		t.Fatalf("expected object to fall through floor with disjoint contact masks, got y=%v", dropped.Position.Y)
	}
}

func TestBouncinessNeverAddsEnergy(t *testing.T) {
	w := NewWorld(nil)
	floor := NewAABox(geom.PositionF{Y: -0.5}, geom.VectorF{X: 50, Y: 0.5, Z: 50}, geom.VectorF{},
		Properties{Mass: InfiniteMass, Friction: 0, Bounciness: 1, ContactMask1: 1, ContactMask2: 1})
	dropped := box(10, Properties{Mass: 1, Friction: 0, Bounciness: 1, ContactMask1: 1, ContactMask2: 1})
	w.Add(floor)
	w.Add(dropped)

	maxHeight := dropped.Position.Y
	for i := 0; i < 600; i++ {
		w.Move(w.CurrentTime + 1.0/60)
		if dropped.Position.Y > maxHeight+ContactEPS && i > 60 {
			t.Fatalf("bounce %d exceeded prior peak height: %v > %v", i, dropped.Position.Y, maxHeight)
		}
		if dropped.Position.Y > maxHeight {
			maxHeight = dropped.Position.Y
		}
	}
}
