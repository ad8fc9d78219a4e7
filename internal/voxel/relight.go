package voxel

import "voxelworld/internal/geom"

// RecomputeLighting reassigns pos's Lighting from its six neighbors using
// CalcLighting, then returns true if the value changed. Callers propagate a
// changed value outward to the six neighbors in turn (a standard flood-fill
// lighting update), which this method does not do itself so callers can
// choose their own frontier/queue strategy.
func (w *World) RecomputeLighting(pos geom.PositionI) bool {
	it := NewBlockIterator(w, pos)
	b := it.Get()
	if !b.Good() {
		return false
	}

	neighbor := func(face geom.Face) Lighting {
		np := pos.AddVector(geom.FaceVectors[face])
		nit := NewBlockIterator(w, np)
		return nit.Get().Light
	}

	next := CalcLighting(b.Descriptor.Light,
		neighbor(geom.FaceNX), neighbor(geom.FacePX),
		neighbor(geom.FaceNY), neighbor(geom.FacePY),
		neighbor(geom.FaceNZ), neighbor(geom.FacePZ))

	if next == b.Light {
		return false
	}
	b.Light = next
	return it.Set(b)
}

// RelightColumn recomputes lighting top-down for one (x, z) column, the way
// the generator's light pass seeds a freshly generated chunk: starting from
// sky lighting above the highest solid block and propagating the calc
// downward one block at a time.
func (w *World) RelightColumn(x, z int, dim geom.Dimension, topY int) {
	above := Sky()
	for y := topY; y >= 0; y-- {
		pos := geom.PositionI{X: x, Y: y, Z: z, Dimension: dim}
		it := NewBlockIterator(w, pos)
		b := it.Get()
		if !b.Good() {
			continue
		}
		b.Light = CalcLighting(b.Descriptor.Light, above, above, above, above, above, above)
		it.Set(b)
		above = b.Light
	}
}
