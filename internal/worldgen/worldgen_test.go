package worldgen

import (
	"context"
	"testing"

	"voxelworld/internal/geom"
	"voxelworld/internal/registry"
	"voxelworld/internal/voxel"
)

func TestWorldRandomIsDeterministic(t *testing.T) {
	r1 := NewWorldRandom(42)
	r2 := NewWorldRandom(42)
	pos := geom.PositionI{X: 5, Y: 6, Z: 7}
	if r1.RandomU32(pos, RandomClassGround) != r2.RandomU32(pos, RandomClassGround) {
		t.Fatal("same seed and position must produce the same value")
	}
}

func TestWorldRandomDiffersByClass(t *testing.T) {
	r := NewWorldRandom(1)
	pos := geom.PositionI{X: 1, Y: 2, Z: 3}
	a := r.RandomU32(pos, RandomClassGround)
	b := r.RandomU32(pos, RandomClassBiome)
	if a == b {
		t.Fatal("different random classes at the same position should (overwhelmingly likely) differ")
	}
}

func TestFBMIsBoundedByAmplitudeSum(t *testing.T) {
	r := NewWorldRandom(7)
	pos := geom.PositionF{X: 1.5, Y: 2.5, Z: 3.5}
	v := r.FBM(pos, geom.VectorF{X: 0.5, Y: 0.5, Z: 0.5}, 0.5, 4, RandomClassGround)
	// sum of |amplitude| over 4 octaves of factor 0.5 is 1+0.5+0.25+0.125=1.875
	if v < -1.875 || v > 1.875 {
		t.Fatalf("FBM result %v outside expected amplitude bound", v)
	}
}

func TestBiomeWeightsSumToOne(t *testing.T) {
	r := NewWorldRandom(3)
	weights := BiomeWeights(r, geom.PositionF{X: 10, Z: 20})
	var sum float32
	for _, w := range weights {
		if w < 0 {
			t.Fatalf("weight must not be negative, got %v", w)
		}
		sum += w
	}
	if sum < 0.999 || sum > 1.001 {
		t.Fatalf("weights should sum to 1, got %v", sum)
	}
}

func TestGeneratorFillsChunkWithSolidGround(t *testing.T) {
	reg := registry.Builtin()
	gen := NewGenerator(99, reg, DefaultParts())
	world := voxel.NewWorld(reg, geom.Overworld, nil)
	chunk, _ := world.GetOrCreateChunk(voxel.ChunkPosition{Dimension: geom.Overworld})
	gen.GenerateChunk(world, chunk)

	b := chunk.GetLocal(0, 0, 0)
	bedrock, _ := reg.Block("bedrock")
	if b.Descriptor != bedrock {
		t.Fatalf("expected bedrock at y=0, got %+v", b)
	}
	grass, _ := reg.Block("grass")
	found := false
	for ly := 1; ly < voxel.ChunkHeight; ly++ {
		if chunk.GetLocal(0, ly, 0).Descriptor == grass {
			found = true
			break
		}
	}
	if !found {
		t.Fatal("expected a grass block somewhere in the generated column")
	}
}

func TestMergeGeneratedChunkOnlyReplacesGoodBlocks(t *testing.T) {
	reg := registry.Builtin()
	stone, _ := reg.Block("stone")
	dirt, _ := reg.Block("dirt")

	live := voxel.NewChunk(voxel.ChunkPosition{Dimension: geom.Overworld}, voxel.NewMemoryStorage())
	live.SetLocal(0, 5, 0, voxel.BlockData{Descriptor: dirt})
	live.SetLocal(1, 5, 0, voxel.BlockData{Descriptor: dirt})

	throwaway := voxel.NewChunk(voxel.ChunkPosition{Dimension: geom.Overworld}, voxel.NewMemoryStorage())
	throwaway.SetLocal(0, 5, 0, voxel.BlockData{Descriptor: stone})
	// (1, 5, 0) is left air in throwaway, so the merge must not touch live's
	// dirt there.

	mergeGeneratedChunk(live, throwaway)

	if got := live.GetLocal(0, 5, 0); got.Descriptor != stone {
		t.Fatalf("expected throwaway's stone to replace live's dirt, got %+v", got)
	}
	if got := live.GetLocal(1, 5, 0); got.Descriptor != dirt {
		t.Fatalf("expected live's dirt to survive an ungenerated (air) throwaway cell, got %+v", got)
	}
}

func TestRunDrainsNeedsGenerationQueue(t *testing.T) {
	reg := registry.Builtin()
	gen := NewGenerator(1, reg, DefaultParts())
	gen.ThreadCount = 2
	world := voxel.NewWorld(reg, geom.Overworld, nil)
	world.GetOrCreateChunk(voxel.ChunkPosition{X: 0, Z: 0, Dimension: geom.Overworld})
	world.GetOrCreateChunk(voxel.ChunkPosition{X: voxel.ChunkSize, Z: 0, Dimension: geom.Overworld})

	if err := gen.Run(context.Background(), world); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if world.NeedsGeneration.Len() != 0 {
		t.Fatalf("expected queue drained, got %d remaining", world.NeedsGeneration.Len())
	}
	if world.Generated.Len() != 2 {
		t.Fatalf("expected 2 chunks marked generated, got %d", world.Generated.Len())
	}
}
