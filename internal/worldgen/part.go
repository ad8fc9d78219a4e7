package worldgen

import (
	"voxelworld/internal/geom"
	"voxelworld/internal/registry"
	"voxelworld/internal/voxel"
)

// Context is everything a WorldGeneratorPart needs to fill in one chunk:
// the chunk itself, the shared random source, and the registry to resolve
// block descriptors from.
type Context struct {
	Chunk    *voxel.Chunk
	Random   *WorldRandom
	Registry *registry.Registry
	World    *voxel.World
}

// Part is one stage of the generation pipeline (spec §4.4): parts run in
// increasing Precedence order so, e.g., terrain shape always runs before
// surface cover, which always runs before lighting.
type Part interface {
	Precedence() float64
	Generate(ctx *Context)
}

// Precedence constants for the built-in parts; a caller adding a custom part
// (ore veins, structures, ...) picks a value between these to run it at the
// appropriate point in the pipeline.
const (
	PrecedenceLand       = 0
	PrecedenceCover      = 1
	PrecedenceBasicLight = 1e10
)

func localOrigin(pos voxel.ChunkPosition) geom.PositionI {
	return geom.PositionI{X: pos.X, Z: pos.Z, Dimension: pos.Dimension}
}

// columnHeight samples pos's terrain height as spec §4.4's "biome-weighted
// sum": one shared noise field, scaled per biome by biomeHeightOffset/
// biomeHeightScaleFactor relative to the caller's baseHeight/heightScale (the
// Plains entry), then combined by BiomeWeights(pos) rather than handed to a
// single hard-coded biome. LandPart and CoverPart both call this so a
// column's shape and its cover layer never disagree about where the surface
// is.
func columnHeight(r *WorldRandom, pos geom.PositionF, baseHeight, heightScale float64) int {
	noise := r.FBM2D(pos, geom.VectorF{X: 0.02, Z: 0.02}, 0.5, 4, RandomClassGround)
	weights := BiomeWeights(r, pos)
	var blockValue float64
	for b := Biome(0); b < biomeCount; b++ {
		base := baseHeight + biomeHeightOffset[b]
		scale := heightScale * biomeHeightScaleFactor[b]
		blockValue += float64(weights[b]) * (base + float64(noise)*scale)
	}
	height := int(blockValue)
	if height < 1 {
		height = 1
	}
	if height >= voxel.ChunkHeight {
		height = voxel.ChunkHeight - 1
	}
	return height
}

// LandPart carves the base terrain shape: solid stone below a per-column
// height sampled from biome-weighted FBM noise (columnHeight), air above it.
type LandPart struct {
	BaseHeight  float64
	HeightScale float64
}

func (p *LandPart) Precedence() float64 { return PrecedenceLand }

func (p *LandPart) Generate(ctx *Context) {
	stone, _ := ctx.Registry.Block("stone")
	bedrock, _ := ctx.Registry.Block("bedrock")
	origin := ctx.Chunk.Position
	for lx := 0; lx < voxel.ChunkSize; lx++ {
		for lz := 0; lz < voxel.ChunkSize; lz++ {
			x, z := origin.X+lx, origin.Z+lz
			colPos := geom.PositionF{X: float64(x), Z: float64(z), Dimension: origin.Dimension}
			height := columnHeight(ctx.Random, colPos, p.BaseHeight, p.HeightScale)
			ctx.Chunk.SetLocal(lx, 0, lz, voxel.BlockData{Descriptor: bedrock})
			for ly := 1; ly <= height; ly++ {
				ctx.Chunk.SetLocal(lx, ly, lz, voxel.BlockData{Descriptor: stone})
			}
		}
	}
}

// CoverPart replaces the top few blocks of solid ground with the column's
// dominant biome's surface material (spec §4.4: "ask the dominant biome for
// cover(pos, depth)"), once LandPart has run.
type CoverPart struct {
	BaseHeight  float64
	HeightScale float64
}

func (p *CoverPart) Precedence() float64 { return PrecedenceCover }

func (p *CoverPart) Generate(ctx *Context) {
	origin := ctx.Chunk.Position
	for lx := 0; lx < voxel.ChunkSize; lx++ {
		for lz := 0; lz < voxel.ChunkSize; lz++ {
			x, z := origin.X+lx, origin.Z+lz
			colPos := geom.PositionF{X: float64(x), Z: float64(z), Dimension: origin.Dimension}
			height := columnHeight(ctx.Random, colPos, p.BaseHeight, p.HeightScale)
			biome := DominantBiome(ctx.Random, colPos)
			for ly := height - 2; ly <= height; ly++ {
				if ly < 1 {
					continue
				}
				desc := biomeCover(ctx.Registry, biome, height-ly)
				if desc == nil {
					continue
				}
				ctx.Chunk.SetLocal(lx, ly, lz, voxel.BlockData{Descriptor: desc})
			}
		}
	}
}

// BasicLightPart seeds every column's lighting top-down once terrain and
// cover have been placed, the pipeline's final, lowest-precedence stage.
type BasicLightPart struct{}

func (p *BasicLightPart) Precedence() float64 { return PrecedenceBasicLight }

func (p *BasicLightPart) Generate(ctx *Context) {
	origin := ctx.Chunk.Position
	for lx := 0; lx < voxel.ChunkSize; lx++ {
		for lz := 0; lz < voxel.ChunkSize; lz++ {
			ctx.World.RelightColumn(origin.X+lx, origin.Z+lz, origin.Dimension, voxel.ChunkHeight-1)
		}
	}
}
