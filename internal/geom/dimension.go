// Package geom holds the spatial primitives shared by the world, generator,
// physics, and protocol packages: dimensions, integer/float positions, and
// vectors (spec §3).
package geom

import "voxelworld/internal/codec"

// Dimension tags a coordinate space. Positions in different dimensions never
// interact physically (spec glossary).
type Dimension uint8

const (
	Overworld Dimension = iota
	Nether
	dimensionCount
)

func (d Dimension) String() string {
	switch d {
	case Overworld:
		return "Overworld"
	case Nether:
		return "Nether"
	default:
		return "Unknown"
	}
}

func (d Dimension) Write(w *codec.Writer) error {
	return w.WriteU8(uint8(d))
}

func ReadDimension(r *codec.Reader) (Dimension, error) {
	v, err := r.ReadLimitedU8(0, uint8(dimensionCount-1))
	return Dimension(v), err
}
