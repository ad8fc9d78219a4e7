// Package physics implements the continuous-time AABB stepper (spec §4.5),
// grounded on original_source/include/new_physics.h and physics.h: axis-aligned
// boxes integrated with gravity/acceleration, then resolved against each other
// by discrete overlap tests after each integration pass. No swept
// time-of-impact search is done, so a box moving far enough in one step can
// pass through a thin collider without an overlap ever being seen.
//
// The package never imports internal/voxel: broad-phase access to block
// geometry is supplied by the caller through the BlockSolid callback, keeping
// the dependency direction voxel -> physics rather than the reverse.
package physics

import (
	"math"

	"voxelworld/internal/geom"
)

// InfiniteMass marks a fixed object (terrain colliders) that never moves in
// response to a collision, mirroring Physics::Properties::INFINITE_MASS.
const InfiniteMass = 1e20

// ContactEPS is the minimum penetration/separation treated as "touching"
// rather than "overlapping" or "apart" (spec §4.5).
const ContactEPS = 1e-3

// geometricEPS pads AABB extents during overlap tests so that two boxes
// resting exactly flush register as touching, not apart.
const geometricEPS = 1e-4

// Kind distinguishes the two object variants spec §4.5 supports.
type Kind uint8

const (
	Empty Kind = iota
	AABox
)

// Properties carries the per-object material constants used to resolve a
// collision (spec §4.5), plus the two contact masks that gate whether a given
// pair of objects can collide at all.
type Properties struct {
	Mass        float64
	Friction    float64
	Bounciness  float64
	ContactMask1 uint32
	ContactMask2 uint32
}

// CanContact reports whether a and b are allowed to collide: each object's
// mask1 must share a bit with the other's mask2 (spec §4.5 contact masks).
func CanContact(a, b Properties) bool {
	return a.ContactMask1&b.ContactMask2 != 0 && b.ContactMask1&a.ContactMask2 != 0
}

// Object is one physics body: either Empty (no collision, used for entities
// that opt out of the stepper) or an AABox integrated with gravity.
type Object struct {
	Kind Kind

	Position     geom.PositionF
	HalfExtent   geom.VectorF
	Velocity     geom.VectorF
	Acceleration geom.VectorF
	Gravity      geom.VectorF

	Properties Properties

	// Supported is true while this object rests on top of an object with
	// infinite mass (terrain or a fixed collider); the stepper disables gravity's contribution to
	// acceleration for as long as support holds (spec §4.5).
	Supported bool

	lastCalcTime float64
}

// NewAABox constructs a box object at rest, with acceleration defaulting to
// gravity the way AABox::resetAcceleration does each tick.
func NewAABox(pos geom.PositionF, halfExtent geom.VectorF, gravity geom.VectorF, props Properties) *Object {
	return &Object{
		Kind:         AABox,
		Position:     pos,
		HalfExtent:   halfExtent,
		Gravity:      gravity,
		Acceleration: gravity,
		Properties:   props,
	}
}

func NewEmpty() *Object {
	return &Object{Kind: Empty}
}

func (o *Object) Good() bool { return o.Kind != Empty }

func (o *Object) infiniteMass() bool { return o.Properties.Mass >= InfiniteMass }

// ResetAcceleration reapplies gravity for the next tick, unless the object is
// currently supported, in which case gravity is withheld.
func (o *Object) ResetAcceleration() {
	if o.Kind != AABox {
		return
	}
	if o.Supported {
		o.Acceleration = geom.VectorF{}
		return
	}
	o.Acceleration = o.Gravity
}

// integrate advances position/velocity by dt using the same second-order
// update as AABox::calcPos (position uses the ½at² term; velocity is
// first-order in acceleration).
func (o *Object) integrate(dt float64) {
	if o.Kind != AABox || dt <= 0 {
		return
	}
	half := o.Acceleration.Scale(0.5 * dt * dt)
	o.Position = o.Position.Add(o.Velocity.Scale(dt)).Add(half)
	o.Velocity = o.Velocity.Add(o.Acceleration.Scale(dt))
}

func (o *Object) min() geom.VectorF {
	return geom.VectorF{X: o.Position.X - o.HalfExtent.X, Y: o.Position.Y - o.HalfExtent.Y, Z: o.Position.Z - o.HalfExtent.Z}
}

func (o *Object) max() geom.VectorF {
	return geom.VectorF{X: o.Position.X + o.HalfExtent.X, Y: o.Position.Y + o.HalfExtent.Y, Z: o.Position.Z + o.HalfExtent.Z}
}

// overlap reports whether two boxes interpenetrate (within geometricEPS) and,
// if so, the separating axis with least penetration depth and its sign,
// mirroring physics.h's isBoxCollision.
func overlap(a, b *Object) (normal geom.VectorF, ok bool) {
	ext := geom.VectorF{
		X: a.HalfExtent.X + b.HalfExtent.X + geometricEPS,
		Y: a.HalfExtent.Y + b.HalfExtent.Y + geometricEPS,
		Z: a.HalfExtent.Z + b.HalfExtent.Z + geometricEPS,
	}
	delta := geom.VectorF{X: a.Position.X - b.Position.X, Y: a.Position.Y - b.Position.Y, Z: a.Position.Z - b.Position.Z}
	ad := geom.VectorF{X: math.Abs(delta.X), Y: math.Abs(delta.Y), Z: math.Abs(delta.Z)}
	if ad.X > ext.X || ad.Y > ext.Y || ad.Z > ext.Z {
		return geom.VectorF{}, false
	}
	dist := geom.VectorF{X: ext.X - ad.X, Y: ext.Y - ad.Y, Z: ext.Z - ad.Z}
	switch {
	case dist.X < dist.Y && dist.X < dist.Z:
		if delta.X > 0 {
			normal = geom.VectorF{X: 1}
		} else {
			normal = geom.VectorF{X: -1}
		}
	case dist.Y < dist.Z:
		if delta.Y > 0 {
			normal = geom.VectorF{Y: 1}
		} else {
			normal = geom.VectorF{Y: -1}
		}
	default:
		if delta.Z > 0 {
			normal = geom.VectorF{Z: 1}
		} else {
			normal = geom.VectorF{Z: -1}
		}
	}
	return normal, true
}
