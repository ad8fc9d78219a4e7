package voxel

import (
	"bytes"
	"testing"

	"voxelworld/internal/codec"
	"voxelworld/internal/geom"
	"voxelworld/internal/registry"
)

func TestSaveLoadWorldRoundTrip(t *testing.T) {
	reg := registry.Builtin()
	stone, _ := reg.Block("stone")
	dirt, _ := reg.Block("dirt")

	w := NewWorld(reg, geom.Overworld, nil)
	it := NewBlockIterator(w, geom.PositionI{X: 1, Y: 2, Z: 3, Dimension: geom.Overworld})
	it.Set(BlockData{Descriptor: stone, IData: 5})
	it2 := NewBlockIterator(w, geom.PositionI{X: 100, Y: 4, Z: 100, Dimension: geom.Overworld})
	it2.Set(BlockData{Descriptor: dirt})

	var buf bytes.Buffer
	if err := SaveWorld(&buf, w); err != nil {
		t.Fatalf("SaveWorld: %v", err)
	}

	loaded, err := LoadWorld(&buf, reg, geom.Overworld, nil)
	if err != nil {
		t.Fatalf("LoadWorld: %v", err)
	}

	got := NewBlockIterator(loaded, geom.PositionI{X: 1, Y: 2, Z: 3, Dimension: geom.Overworld}).Get()
	if got.Descriptor != stone || got.IData != 5 {
		t.Fatalf("got %+v", got)
	}
	got2 := NewBlockIterator(loaded, geom.PositionI{X: 100, Y: 4, Z: 100, Dimension: geom.Overworld}).Get()
	if got2.Descriptor != dirt {
		t.Fatalf("got %+v", got2)
	}
}

func TestLoadWorldRejectsUnknownDescriptor(t *testing.T) {
	writerReg := registry.New()
	writerReg.RegisterBlock(&registry.BlockDescriptor{Name: "gadolinium_ore"})
	writerReg.Seal()
	unknownBlock, _ := writerReg.Block("gadolinium_ore")

	w := NewWorld(writerReg, geom.Overworld, nil)
	NewBlockIterator(w, geom.PositionI{Dimension: geom.Overworld}).Set(BlockData{Descriptor: unknownBlock})

	var buf bytes.Buffer
	if err := SaveWorld(&buf, w); err != nil {
		t.Fatalf("SaveWorld: %v", err)
	}

	_, err := LoadWorld(&buf, registry.Builtin(), geom.Overworld, nil)
	if !codec.IsKind(err, codec.KindInvalidDataValue) {
		t.Fatalf("expected KindInvalidDataValue loading with a registry missing the saved block, got %v", err)
	}
}
