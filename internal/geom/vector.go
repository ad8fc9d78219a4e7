package geom

import (
	"github.com/go-gl/mathgl/mgl64"
	"voxelworld/internal/codec"
)

// VectorI is a dimensionless integer displacement (block-face moves,
// iterator deltas).
type VectorI struct {
	X, Y, Z int
}

var FaceVectors = map[Face]VectorI{
	FaceNX: {-1, 0, 0},
	FacePX: {1, 0, 0},
	FaceNY: {0, -1, 0},
	FacePY: {0, 1, 0},
	FaceNZ: {0, 0, -1},
	FacePZ: {0, 0, 1},
}

// Face names one of the six axis-aligned directions a block iterator can
// move in.
type Face uint8

const (
	FaceNX Face = iota
	FacePX
	FaceNY
	FacePY
	FaceNZ
	FacePZ
)

func (f Face) Opposite() Face {
	switch f {
	case FaceNX:
		return FacePX
	case FacePX:
		return FaceNX
	case FaceNY:
		return FacePY
	case FacePY:
		return FaceNY
	case FaceNZ:
		return FacePZ
	case FacePZ:
		return FaceNZ
	default:
		return f
	}
}

// VectorF is a dimensionless float displacement, backed by mgl64.Vec3 so
// geometry operations (length, dot, cross) come from the ecosystem's linear
// algebra library rather than being hand-rolled.
type VectorF struct {
	X, Y, Z float64
}

func (v VectorF) Vec3() mgl64.Vec3 { return mgl64.Vec3{v.X, v.Y, v.Z} }

func VectorFFromVec3(v mgl64.Vec3) VectorF { return VectorF{v[0], v[1], v[2]} }

func (v VectorF) Add(o VectorF) VectorF {
	return VectorFFromVec3(v.Vec3().Add(o.Vec3()))
}

func (v VectorF) Sub(o VectorF) VectorF {
	return VectorFFromVec3(v.Vec3().Sub(o.Vec3()))
}

func (v VectorF) Scale(s float64) VectorF {
	return VectorFFromVec3(v.Vec3().Mul(s))
}

func (v VectorF) Dot(o VectorF) float64 {
	return v.Vec3().Dot(o.Vec3())
}

func (v VectorF) Length() float64 {
	return v.Vec3().Len()
}

func (v VectorF) Normalize() VectorF {
	l := v.Length()
	if l == 0 {
		return VectorF{}
	}
	return v.Scale(1 / l)
}

func (v VectorF) Write(w *codec.Writer) error {
	if err := w.WriteF64(v.X); err != nil {
		return err
	}
	if err := w.WriteF64(v.Y); err != nil {
		return err
	}
	return w.WriteF64(v.Z)
}

func ReadVectorF(r *codec.Reader) (VectorF, error) {
	x, err := r.ReadFiniteF64()
	if err != nil {
		return VectorF{}, err
	}
	y, err := r.ReadFiniteF64()
	if err != nil {
		return VectorF{}, err
	}
	z, err := r.ReadFiniteF64()
	if err != nil {
		return VectorF{}, err
	}
	return VectorF{x, y, z}, nil
}
