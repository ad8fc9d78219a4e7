package voxel

import (
	"voxelworld/internal/codec"
	"voxelworld/internal/registry"
)

// Extra carries descriptor-specific side data a block instance needs beyond
// its descriptor and light value (sign text, chest inventory, ...), mirroring
// entity.h's Extra side channel used on the block side too.
type Extra = map[string]any

// BlockData is one occupied cell: a shared pointer to an immutable
// descriptor, an instance-specific integer payload (rotation, growth stage),
// its current Lighting, and optional Extra data (spec §3).
type BlockData struct {
	Descriptor *registry.BlockDescriptor
	IData      int32
	Light      Lighting
	Extra      Extra
}

// Good reports whether this cell holds a real block. The zero value (no
// descriptor) represents an empty cell: Chunk pads columns with it below the
// highest written block, trims it from a column's top, and returns it for
// cells nothing was written to. Air written by the registry's "air" block is
// a BlockData whose Descriptor names that block and is therefore itself Good.
func (b BlockData) Good() bool {
	return b.Descriptor != nil
}

func (b BlockData) isAir(reg *registry.Registry) bool {
	if !b.Good() {
		return true
	}
	air, ok := reg.Block("air")
	return ok && b.Descriptor == air
}

// Write serializes a block for the save-file format (spec §2 supplemented
// feature, grounded on original_source/include/game_store_stream.h). Extra
// data is intentionally not persisted in this minimal wire form; descriptors
// without structured Extra payloads round-trip fully.
func (b BlockData) Write(w *codec.Writer, table *codec.InternTable) error {
	if err := registry.WriteBlockRef(w, table, b.Descriptor); err != nil {
		return err
	}
	if !b.Good() {
		return nil
	}
	if err := w.WriteS32(b.IData); err != nil {
		return err
	}
	return b.Light.Write(w)
}

func ReadBlockData(r *codec.Reader, table *codec.InternTable, reg *registry.Registry) (BlockData, error) {
	desc, err := registry.ReadBlockRef(r, table, reg)
	if err != nil {
		return BlockData{}, err
	}
	if desc == nil {
		return BlockData{}, nil
	}
	idata, err := r.ReadS32()
	if err != nil {
		return BlockData{}, err
	}
	light, err := ReadLighting(r)
	if err != nil {
		return BlockData{}, err
	}
	return BlockData{Descriptor: desc, IData: idata, Light: light}, nil
}
