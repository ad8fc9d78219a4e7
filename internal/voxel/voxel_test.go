package voxel

import (
	"testing"

	"voxelworld/internal/geom"
	"voxelworld/internal/registry"
)

func TestUpdateListPreservesInsertionOrderAndDedups(t *testing.T) {
	l := NewUpdateList()
	a := geom.PositionI{X: 1}
	b := geom.PositionI{X: 2}
	if !l.Add(a) || !l.Add(b) {
		t.Fatal("first insertions should report added")
	}
	if l.Add(a) {
		t.Fatal("re-adding an existing position should report not-added")
	}
	items := l.Items()
	if len(items) != 2 || items[0] != a || items[1] != b {
		t.Fatalf("unexpected order: %v", items)
	}
}

func TestUpdateListMergeClearsSource(t *testing.T) {
	dst := NewUpdateList()
	src := NewUpdateList()
	src.Add(geom.PositionI{X: 1})
	src.Add(geom.PositionI{X: 2})
	dst.Add(geom.PositionI{X: 2})
	dst.Merge(src)
	if dst.Len() != 2 {
		t.Fatalf("expected 2 merged entries, got %d", dst.Len())
	}
	if src.Len() != 0 {
		t.Fatal("Merge should clear the source list")
	}
}

func TestChunkSetGetRoundTripAndTrim(t *testing.T) {
	reg := registry.Builtin()
	stone, _ := reg.Block("stone")
	c := NewChunk(ChunkPosition{Dimension: geom.Overworld}, NewMemoryStorage())
	b := BlockData{Descriptor: stone, IData: 7}
	if !c.SetLocal(3, 10, 5, b) {
		t.Fatal("SetLocal failed")
	}
	got := c.GetLocal(3, 10, 5)
	if got.Descriptor != stone || got.IData != 7 {
		t.Fatalf("got %+v", got)
	}
	if c.GetLocal(3, 11, 5).Good() {
		t.Fatal("untouched cell above the set block should read as air")
	}
	// clearing back to air should trim the column to empty
	if !c.SetLocal(3, 10, 5, BlockData{}) {
		t.Fatal("clearing SetLocal failed")
	}
	if c.GetLocal(3, 10, 5).Good() {
		t.Fatal("expected air after clearing")
	}
}

func TestWorldCreatesAndLinksNeighborChunks(t *testing.T) {
	reg := registry.Builtin()
	w := NewWorld(reg, geom.Overworld, nil)
	a, created := w.GetOrCreateChunk(ChunkPosition{X: 0, Z: 0, Dimension: geom.Overworld})
	if !created {
		t.Fatal("expected first call to create the chunk")
	}
	b, created := w.GetOrCreateChunk(ChunkPosition{X: ChunkSize, Z: 0, Dimension: geom.Overworld})
	if !created {
		t.Fatal("expected neighbor chunk to be created")
	}
	if a.px != b || b.nx != a {
		t.Fatal("expected mutual neighbor pointers to be linked")
	}
	if w.NeedsGeneration.Len() != 2 {
		t.Fatalf("expected both new chunks queued for generation, got %d", w.NeedsGeneration.Len())
	}
}

func TestBlockIteratorCrossesChunkBoundary(t *testing.T) {
	reg := registry.Builtin()
	stone, _ := reg.Block("stone")
	w := NewWorld(reg, geom.Overworld, nil)

	it := NewBlockIterator(w, geom.PositionI{X: ChunkSize - 1, Y: 5, Z: 0, Dimension: geom.Overworld})
	it.Set(BlockData{Descriptor: stone})
	it.MoveBy(geom.VectorI{X: 1})
	if it.Get().Good() {
		t.Fatal("expected air just across the chunk boundary")
	}
	it.Set(BlockData{Descriptor: stone})
	if cp := ChunkPositionContaining(it.Position()); cp.X != ChunkSize {
		t.Fatalf("expected iterator to have crossed into chunk X=%d, got %d", ChunkSize, cp.X)
	}
}

func TestCalcLightingOpaqueBlocksEverything(t *testing.T) {
	bright := Sky()
	dark := Lighting{}
	opaque := registry.LightProperties{Kind: registry.Opaque}
	got := CalcLighting(opaque, bright, bright, bright, bright, bright, bright)
	if got != dark {
		t.Fatalf("opaque block should read fully dark, got %+v", got)
	}
}

func TestCalcLightingDirectSunlightPassesStraightDown(t *testing.T) {
	bright := Sky()
	transparent := registry.LightProperties{Kind: registry.Transparent}
	got := CalcLighting(transparent, Lighting{}, Lighting{}, Lighting{}, bright, Lighting{}, Lighting{})
	// direct light is untouched by a Transparent block, and the final
	// scattered = max(scattered, direct) line restores full brightness even
	// though the scattered channel itself decayed by one step.
	if got != bright {
		t.Fatalf("got %+v want unchanged sky lighting %+v", got, bright)
	}
}

func TestCalcLightingScatteredDecaysOneStepWithoutDirectAbove(t *testing.T) {
	dim := Lighting{ScatteredNatural: 10}
	transparent := registry.LightProperties{Kind: registry.Transparent}
	got := CalcLighting(transparent, Lighting{}, Lighting{}, Lighting{}, dim, Lighting{}, Lighting{})
	if got.ScatteredNatural != 9 {
		t.Fatalf("expected scattered light to decay by one, got %d", got.ScatteredNatural)
	}
}

func TestCalcLightingEmitFloorsArtificial(t *testing.T) {
	dark := Lighting{}
	opaque := registry.LightProperties{Kind: registry.Transparent, Emit: 10}
	got := CalcLighting(opaque, dark, dark, dark, dark, dark, dark)
	if got.Artificial != 10 {
		t.Fatalf("expected emit to floor artificial light at 10, got %d", got.Artificial)
	}
}

func TestBlockAtDoesNotCreateChunks(t *testing.T) {
	reg := registry.Builtin()
	w := NewWorld(reg, geom.Overworld, nil)
	pos := geom.PositionI{X: 5, Y: 5, Z: 5, Dimension: geom.Overworld}
	if _, ok := w.BlockAt(pos); ok {
		t.Fatal("expected BlockAt to report absent for an unloaded chunk")
	}
	if len(w.AllChunkPositions()) != 0 {
		t.Fatal("BlockAt must never create a chunk as a side effect")
	}

	it := NewBlockIterator(w, pos)
	stone, _ := reg.Block("stone")
	it.Set(BlockData{Descriptor: stone})

	got, ok := w.BlockAt(pos)
	if !ok || got.Descriptor != stone {
		t.Fatalf("BlockAt after Set = %+v, %v", got, ok)
	}
}
