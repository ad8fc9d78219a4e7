package geom

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"voxelworld/internal/codec"
)

// PositionI is an integer 3D position tagged with a Dimension (spec §3).
// Equality compares all four fields; arithmetic between values in different
// dimensions is a logic error and panics rather than silently producing a
// meaningless position.
type PositionI struct {
	X, Y, Z   int
	Dimension Dimension
}

func (p PositionI) String() string {
	return fmt.Sprintf("(%d, %d, %d)@%s", p.X, p.Y, p.Z, p.Dimension)
}

func (p PositionI) checkSameDimension(o PositionI) {
	if p.Dimension != o.Dimension {
		panic(fmt.Sprintf("position arithmetic across dimensions: %v vs %v", p.Dimension, o.Dimension))
	}
}

func (p PositionI) Add(o PositionI) PositionI {
	p.checkSameDimension(o)
	return PositionI{p.X + o.X, p.Y + o.Y, p.Z + o.Z, p.Dimension}
}

func (p PositionI) Sub(o PositionI) PositionI {
	p.checkSameDimension(o)
	return PositionI{p.X - o.X, p.Y - o.Y, p.Z - o.Z, p.Dimension}
}

func (p PositionI) AddVector(v VectorI) PositionI {
	return PositionI{p.X + v.X, p.Y + v.Y, p.Z + v.Z, p.Dimension}
}

func (p PositionI) ToFloat() PositionF {
	return PositionF{float64(p.X), float64(p.Y), float64(p.Z), p.Dimension}
}

func (p PositionI) Write(w *codec.Writer) error {
	if err := w.WriteS32(int32(p.X)); err != nil {
		return err
	}
	if err := w.WriteS32(int32(p.Y)); err != nil {
		return err
	}
	if err := w.WriteS32(int32(p.Z)); err != nil {
		return err
	}
	return p.Dimension.Write(w)
}

func ReadPositionI(r *codec.Reader) (PositionI, error) {
	x, err := r.ReadS32()
	if err != nil {
		return PositionI{}, err
	}
	y, err := r.ReadS32()
	if err != nil {
		return PositionI{}, err
	}
	z, err := r.ReadS32()
	if err != nil {
		return PositionI{}, err
	}
	dim, err := ReadDimension(r)
	if err != nil {
		return PositionI{}, err
	}
	return PositionI{int(x), int(y), int(z), dim}, nil
}

// PositionF is a floating 3D position tagged with a Dimension.
type PositionF struct {
	X, Y, Z   float64
	Dimension Dimension
}

func (p PositionF) checkSameDimension(o PositionF) {
	if p.Dimension != o.Dimension {
		panic(fmt.Sprintf("position arithmetic across dimensions: %v vs %v", p.Dimension, o.Dimension))
	}
}

func (p PositionF) Add(v VectorF) PositionF {
	return PositionF{p.X + v.X, p.Y + v.Y, p.Z + v.Z, p.Dimension}
}

func (p PositionF) Sub(o PositionF) VectorF {
	p.checkSameDimension(o)
	return VectorF{p.X - o.X, p.Y - o.Y, p.Z - o.Z}
}

func (p PositionF) Floor() PositionI {
	return PositionI{ifloor(p.X), ifloor(p.Y), ifloor(p.Z), p.Dimension}
}

func (p PositionF) Vec3() mgl64.Vec3 {
	return mgl64.Vec3{p.X, p.Y, p.Z}
}

func (p PositionF) Write(w *codec.Writer) error {
	if err := w.WriteF64(p.X); err != nil {
		return err
	}
	if err := w.WriteF64(p.Y); err != nil {
		return err
	}
	if err := w.WriteF64(p.Z); err != nil {
		return err
	}
	return p.Dimension.Write(w)
}

func ReadPositionF(r *codec.Reader) (PositionF, error) {
	x, err := r.ReadFiniteF64()
	if err != nil {
		return PositionF{}, err
	}
	y, err := r.ReadFiniteF64()
	if err != nil {
		return PositionF{}, err
	}
	z, err := r.ReadFiniteF64()
	if err != nil {
		return PositionF{}, err
	}
	dim, err := ReadDimension(r)
	if err != nil {
		return PositionF{}, err
	}
	return PositionF{x, y, z, dim}, nil
}

func ifloor(v float64) int {
	i := int(v)
	if v < 0 && float64(i) != v {
		i--
	}
	return i
}
