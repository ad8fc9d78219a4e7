package physics

import (
	"math"

	"voxelworld/internal/geom"
)

// maxIterations caps the number of collision-resolve-and-retry passes taken
// within a single Move call, so a degenerate configuration (objects wedged
// together) cannot spin the stepper forever (spec §4.5).
const maxIterations = 16

// BlockSolid reports whether the unit block cell containing pos is solid,
// used for entity/terrain broad-phase collision. The caller (internal/serverside
// or internal/clientside) supplies this so the physics package never imports the world store.
type BlockSolid func(pos geom.PositionI) (solid bool, halfExtent geom.VectorF)

// World steps a set of Objects forward in time, resolving collisions among
// them and against terrain queried through BlockSolid.
type World struct {
	CurrentTime float64
	Objects     []*Object
	BlockSolid  BlockSolid
}

func NewWorld(blockSolid BlockSolid) *World {
	return &World{BlockSolid: blockSolid}
}

func (w *World) Add(o *Object) {
	o.lastCalcTime = w.CurrentTime
	w.Objects = append(w.Objects, o)
}

func (w *World) Remove(o *Object) {
	for i, other := range w.Objects {
		if other == o {
			w.Objects = append(w.Objects[:i], w.Objects[i+1:]...)
			return
		}
	}
}

// Move advances the simulation to runToTime, integrating every object and
// resolving collisions that occur along the way (spec §4.5's "World::move").
func (w *World) Move(runToTime float64) {
	dt := runToTime - w.CurrentTime
	if dt <= 0 {
		return
	}
	for _, o := range w.Objects {
		o.ResetAcceleration()
	}
	for iter := 0; iter < maxIterations; iter++ {
		for _, o := range w.Objects {
			o.integrate(dt)
		}
		if !w.resolveOnce() {
			break
		}
	}
	w.CurrentTime = runToTime
	for _, o := range w.Objects {
		o.lastCalcTime = w.CurrentTime
	}
	w.updateSupport()
}

// resolveOnce finds overlapping pairs after integration and applies an impulse
// along the least-penetration axis, reflecting velocity by the pair's
// combined bounciness and damping the tangential components by friction.
// Positions are not corrected; only velocities change.
// Returns true if any pair needed resolving (caller re-integrates once more
// to let the correction settle).
func (w *World) resolveOnce() bool {
	resolved := false
	for i := 0; i < len(w.Objects); i++ {
		a := w.Objects[i]
		if a.Kind != AABox {
			continue
		}
		for j := i + 1; j < len(w.Objects); j++ {
			b := w.Objects[j]
			if b.Kind != AABox || !CanContact(a.Properties, b.Properties) {
				continue
			}
			normal, ok := overlap(a, b)
			if !ok {
				continue
			}
			w.resolvePair(a, b, normal)
			resolved = true
		}
		if w.BlockSolid != nil {
			w.resolveAgainstTerrain(a)
		}
	}
	return resolved
}

func (w *World) resolvePair(a, b *Object, normal geom.VectorF) {
	aInf, bInf := a.infiniteMass(), b.infiniteMass()
	if aInf && bInf {
		return
	}
	relVel := a.Velocity.Sub(b.Velocity)
	closing := relVel.Dot(normal)
	if closing >= 0 {
		// already separating
		return
	}
	bounce := a.Properties.Bounciness * b.Properties.Bounciness
	friction := math.Sqrt(a.Properties.Friction * b.Properties.Friction)

	var invMassA, invMassB float64
	if !aInf {
		invMassA = 1 / a.Properties.Mass
	}
	if !bInf {
		invMassB = 1 / b.Properties.Mass
	}
	invMassSum := invMassA + invMassB
	if invMassSum == 0 {
		return
	}

	j := -(1 + bounce) * closing / invMassSum
	impulse := normal.Scale(j)
	if !aInf {
		a.Velocity = a.Velocity.Add(impulse.Scale(invMassA))
	}
	if !bInf {
		b.Velocity = b.Velocity.Sub(impulse.Scale(invMassB))
	}

	tangentVel := relVel.Sub(normal.Scale(relVel.Dot(normal)))
	if tangentVel.Length() > ContactEPS {
		tangent := tangentVel.Normalize()
		jt := -tangentVel.Dot(tangent) * friction / invMassSum
		frictionImpulse := tangent.Scale(jt)
		if !aInf {
			a.Velocity = a.Velocity.Add(frictionImpulse.Scale(invMassA))
		}
		if !bInf {
			b.Velocity = b.Velocity.Sub(frictionImpulse.Scale(invMassB))
		}
	}

	// normal points from b towards a, so a positive Y means a sits on b.
	if normal.Y > 0 && bInf {
		a.Supported = true
	} else if normal.Y < 0 && aInf {
		b.Supported = true
	}
}

// resolveAgainstTerrain treats every solid block cell overlapping o's AABB as
// an infinite-mass AABox and resolves against each.
func (w *World) resolveAgainstTerrain(o *Object) {
	min, max := o.min(), o.max()
	x0, x1 := int(math.Floor(min.X-geometricEPS)), int(math.Floor(max.X+geometricEPS))
	y0, y1 := int(math.Floor(min.Y-geometricEPS)), int(math.Floor(max.Y+geometricEPS))
	z0, z1 := int(math.Floor(min.Z-geometricEPS)), int(math.Floor(max.Z+geometricEPS))
	for x := x0; x <= x1; x++ {
		for y := y0; y <= y1; y++ {
			for z := z0; z <= z1; z++ {
				pos := geom.PositionI{X: x, Y: y, Z: z, Dimension: o.Position.Dimension}
				solid, halfExtent := w.BlockSolid(pos)
				if !solid {
					continue
				}
				block := &Object{
					Kind:       AABox,
					Position:   geom.PositionF{X: float64(x) + 0.5, Y: float64(y) + 0.5, Z: float64(z) + 0.5, Dimension: o.Position.Dimension},
					HalfExtent: halfExtent,
					Properties: Properties{Mass: InfiniteMass, Friction: 1, Bounciness: 0, ContactMask1: ^uint32(0), ContactMask2: ^uint32(0)},
				}
				if normal, ok := overlap(o, block); ok {
					w.resolvePair(o, block, normal)
				}
			}
		}
	}
}

// updateSupport clears Supported for any object whose vertical speed is at
// least ContactEPS, so gravity resumes next tick once it moves off its perch.
// Contact with the supporting object is not rechecked here.
func (w *World) updateSupport() {
	for _, o := range w.Objects {
		if o.Kind != AABox {
			continue
		}
		o.Supported = o.Supported && math.Abs(o.Velocity.Y) < ContactEPS
	}
}
