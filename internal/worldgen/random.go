// Package worldgen implements the deterministic terrain generation pipeline
// (spec §4.4): a seeded hash-based noise source, a worker pool that pulls
// chunk positions off a World's NeedsGeneration queue, and an ordered list of
// generator parts that fill a chunk's blocks and lighting.
//
// Grounded on _examples/original_source/include/world_generator.h's
// WorldRandom: a pure hash of (position, seed, random class) rather than a
// conventional PRNG stream, so any thread can compute any sample
// independently and two runs with the same seed always agree.
package worldgen

import (
	"math"
	"sync/atomic"

	"voxelworld/internal/geom"
)

// RandomClass namespaces a random stream so, e.g., terrain height and biome
// selection never correlate even when sampled at the same position.
type RandomClass uint32

const (
	RandomClassNull RandomClass = iota
	RandomClassGround
	RandomClassBiome
	RandomClassUserStart
)

var nextRandomClass atomic.Uint32

// NewRandomClass allocates a fresh class, starting at RandomClassUserStart, the way
// a generator part registers its own private noise channel at startup.
func NewRandomClass() RandomClass {
	if nextRandomClass.Load() == 0 {
		nextRandomClass.Store(uint32(RandomClassUserStart))
	}
	return RandomClass(nextRandomClass.Add(1) - 1)
}

// WorldRandom is the seeded, position-addressable noise source every
// generator part draws from.
type WorldRandom struct {
	Seed uint32
}

func NewWorldRandom(seed uint32) *WorldRandom {
	return &WorldRandom{Seed: seed}
}

// internalRandom mirrors WorldRandom::internalRandom exactly: a chain of
// multiply-add mixing steps over (position, class, seed), finished with a
// 3-round 64-bit LCG mix, keeping only the high 32 bits.
func (r *WorldRandom) internalRandom(pos geom.PositionI, rc RandomClass) uint32 {
	v := uint64(int64(pos.X))
	v *= 65537
	v += uint64(int64(pos.Y))
	v *= 8191
	v += uint64(int64(pos.Z))
	v *= 1627
	v += uint64(rc)
	v *= 65537
	v += uint64(r.Seed)
	v ^= 0x123456789ABCDEF
	for i := 0; i < 3; i++ {
		v = 1 + v*6364136223846793005
	}
	return uint32(v >> 32)
}

func (r *WorldRandom) RandomU32(pos geom.PositionI, rc RandomClass) uint32 {
	return r.internalRandom(pos, rc)
}

func (r *WorldRandom) RandomS32(pos geom.PositionI, rc RandomClass) int32 {
	return int32(r.RandomU32(pos, rc))
}

// RandomFloat maps one integer lattice point to [0, 1); it never returns a
// negative value. RandomFloat3D and RandomFloat2D keep that range, and FBM
// and FBM2D rescale each sample to [-1, 1) before summing.
func (r *WorldRandom) RandomFloat(pos geom.PositionI, rc RandomClass) float32 {
	return float32(int64(r.RandomU32(pos, rc))) / float32(int64(1)<<32)
}

func ifloor(v float64) int {
	f := math.Floor(v)
	return int(f)
}

// RandomFloat3D trilinearly interpolates RandomFloat across the unit lattice
// cell containing pos, producing smooth 3D noise.
func (r *WorldRandom) RandomFloat3D(pos geom.PositionF, rc RandomClass) float32 {
	base := geom.PositionI{X: ifloor(pos.X), Y: ifloor(pos.Y), Z: ifloor(pos.Z), Dimension: pos.Dimension}
	tx := float32(pos.X - math.Floor(pos.X))
	ty := float32(pos.Y - math.Floor(pos.Y))
	tz := float32(pos.Z - math.Floor(pos.Z))

	at := func(dx, dy, dz int) float32 {
		return r.RandomFloat(base.AddVector(geom.VectorI{X: dx, Y: dy, Z: dz}), rc)
	}

	vnxnynz, vnxnypz := at(0, 0, 0), at(0, 0, 1)
	vnxpynz, vnxpypz := at(0, 1, 0), at(0, 1, 1)
	vpxnynz, vpxnypz := at(1, 0, 0), at(1, 0, 1)
	vpxpynz, vpxpypz := at(1, 1, 0), at(1, 1, 1)

	vnxny := vnxnynz + tz*(vnxnypz-vnxnynz)
	vnxpy := vnxpynz + tz*(vnxpypz-vnxpynz)
	vpxny := vpxnynz + tz*(vpxnypz-vpxnynz)
	vpxpy := vpxpynz + tz*(vpxpypz-vpxpynz)

	vnx := vnxny + ty*(vnxpy-vnxny)
	vpx := vpxny + ty*(vpxpy-vpxny)
	return vnx + tx*(vpx-vnx)
}

// RandomFloat2D is RandomFloat3D restricted to the X/Z plane (Y ignored),
// used for horizontal-only fields like biome selection.
func (r *WorldRandom) RandomFloat2D(pos geom.PositionF, rc RandomClass) float32 {
	base := geom.PositionI{X: ifloor(pos.X), Z: ifloor(pos.Z), Dimension: pos.Dimension}
	tx := float32(pos.X - math.Floor(pos.X))
	tz := float32(pos.Z - math.Floor(pos.Z))

	at := func(dx, dz int) float32 {
		return r.RandomFloat(base.AddVector(geom.VectorI{X: dx, Z: dz}), rc)
	}
	vnxnz, vnxpz := at(0, 0), at(0, 1)
	vpxnz, vpxpz := at(1, 0), at(1, 1)
	vnx := vnxnz + tz*(vnxpz-vnxnz)
	vpx := vpxnz + tz*(vpxpz-vpxnz)
	return vnx + tx*(vpx-vnx)
}

// FBM sums octaves of RandomFloat3D at increasing frequency (scale) and
// decreasing amplitude (factor), the standard fractal-Brownian-motion
// construction for natural-looking terrain.
func (r *WorldRandom) FBM(pos geom.PositionF, scale geom.VectorF, factor float32, octaves int, rc RandomClass) float32 {
	var total, amplitude float32 = 0, 1
	for i := 0; i < octaves; i++ {
		total += amplitude * (2*r.RandomFloat3D(pos, rc) - 1)
		amplitude *= factor
		pos = geom.PositionF{X: pos.X * scale.X, Y: pos.Y * scale.Y, Z: pos.Z * scale.Z, Dimension: pos.Dimension}
	}
	return total
}

// FBM2D is FBM with the Y scale pinned to 1, for horizontal-only fractal
// fields (biome boundaries, surface roughness).
func (r *WorldRandom) FBM2D(pos geom.PositionF, scale geom.VectorF, factor float32, octaves int, rc RandomClass) float32 {
	scale.Y = 1
	var total, amplitude float32 = 0, 1
	for i := 0; i < octaves; i++ {
		total += amplitude * (2*r.RandomFloat2D(pos, rc) - 1)
		amplitude *= factor
		pos = geom.PositionF{X: pos.X * scale.X, Y: pos.Y, Z: pos.Z * scale.Z, Dimension: pos.Dimension}
	}
	return total
}
