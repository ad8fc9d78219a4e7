// Package voxel is the world/chunk store: block storage, lighting, update
// tracking, and the block iterator (spec §3, §4.3). Grounded throughout on
// chunk-server/internal/world/chunk.go's column storage and on
// original_source/include/light.h for the lighting recompute, which this
// package ports byte-for-byte rather than approximating.
package voxel

import (
	"voxelworld/internal/codec"
	"voxelworld/internal/registry"
)

// MaxIntensity is the top of each 4-bit light channel.
const MaxIntensity = 15

// Lighting packs the three 4-bit channels spec §3 names: artificial light
// (placed sources), scattered natural light (indirect sky), and direct
// natural light (a clear path straight up to the sky).
type Lighting struct {
	Artificial       uint8
	ScatteredNatural uint8
	DirectNatural    uint8
}

// Sky is the lighting value assigned to an unobstructed column above the
// generated terrain surface.
func Sky() Lighting {
	return Lighting{ScatteredNatural: MaxIntensity, DirectNatural: MaxIntensity}
}

func decay1(v uint8) uint8 {
	if v == 0 {
		return 0
	}
	return v - 1
}

func decay2(v uint8) uint8 {
	if v <= 1 {
		return 0
	}
	return v - 2
}

func maxU8(a, b uint8) uint8 {
	if a > b {
		return a
	}
	return b
}

// CalcLighting recomputes a block's own lighting from its light-interaction
// kind, emission, and its six neighbors' lighting, exactly mirroring
// Lighting::calc in light.h: each channel decays by one step away from its
// brightest neighbor (Water decays artificial/scattered light an extra step
// and reduces direct light by two), an Opaque block blocks everything, and the
// block's own emission floors the artificial channel afterward.
func CalcLighting(p registry.LightProperties, nx, px, ny, py, nz, pz Lighting) Lighting {
	v := py
	v.Artificial = maxU8(v.Artificial, nx.Artificial)
	v.Artificial = maxU8(v.Artificial, px.Artificial)
	v.Artificial = maxU8(v.Artificial, ny.Artificial)
	v.Artificial = maxU8(v.Artificial, nz.Artificial)
	v.Artificial = maxU8(v.Artificial, pz.Artificial)

	v.ScatteredNatural = maxU8(v.ScatteredNatural, nx.ScatteredNatural)
	v.ScatteredNatural = maxU8(v.ScatteredNatural, px.ScatteredNatural)
	v.ScatteredNatural = maxU8(v.ScatteredNatural, ny.ScatteredNatural)
	v.ScatteredNatural = maxU8(v.ScatteredNatural, nz.ScatteredNatural)
	v.ScatteredNatural = maxU8(v.ScatteredNatural, pz.ScatteredNatural)

	v.Artificial = decay1(v.Artificial)
	v.ScatteredNatural = decay1(v.ScatteredNatural)

	switch p.Kind {
	case registry.Transparent:
		// light passes through unchanged beyond the decay already applied
	case registry.ScatteringTranslucent:
		v.DirectNatural = 0
	case registry.Water:
		v.DirectNatural = decay2(v.DirectNatural)
		v.Artificial = decay1(v.Artificial)
		v.ScatteredNatural = decay1(v.ScatteredNatural)
	case registry.NonscatteringTranslucent:
		v.DirectNatural = decay1(v.DirectNatural)
	case registry.Opaque:
		v = Lighting{}
	}

	v.Artificial = maxU8(v.Artificial, p.Emit)
	v.ScatteredNatural = maxU8(v.ScatteredNatural, v.DirectNatural)
	return v
}

// ApparentBrightness blends the scattered channel against the sky's current
// natural brightness (0..MaxIntensity, e.g. dimmed at night), the way a
// renderer picks a final light level for a block face.
func (l Lighting) ApparentBrightness(naturalBrightness uint) uint {
	scattered := uint(l.ScatteredNatural) * naturalBrightness / MaxIntensity
	art := uint(l.Artificial)
	if art > scattered {
		return art
	}
	return scattered
}

func (l Lighting) Write(w *codec.Writer) error {
	v := uint16(l.Artificial&0xF)<<8 | uint16(l.ScatteredNatural&0xF)<<4 | uint16(l.DirectNatural&0xF)
	return w.WriteU16(v)
}

func ReadLighting(r *codec.Reader) (Lighting, error) {
	v, err := r.ReadLimitedU16(0, (1<<12)-1)
	if err != nil {
		return Lighting{}, err
	}
	return Lighting{
		Artificial:       uint8((v >> 8) & MaxIntensity),
		ScatteredNatural: uint8((v >> 4) & MaxIntensity),
		DirectNatural:    uint8(v & MaxIntensity),
	}, nil
}
