package voxel

import (
	"bytes"
	"fmt"
	"io"

	"voxelworld/internal/codec"
	"voxelworld/internal/geom"
	"voxelworld/internal/registry"
)

// SaveWorld writes every loaded chunk of w to a single file-format stream
// (spec §2, grounded on original_source/include/game_store_stream.h): magic
// + version header, then one entry per chunk giving its position followed by
// its non-empty columns. Chunks are compressed as a unit with the package's
// LZ77 codec, matching the original's "store" pass over a throwaway buffer
// before writing the compressed result to the real stream.
func SaveWorld(w io.Writer, world *World) error {
	var raw bytes.Buffer
	cw := codec.NewWriter(&raw)
	table := codec.NewInternTable()

	positions := world.AllChunkPositions()
	if err := cw.WriteU32(uint32(len(positions))); err != nil {
		return err
	}
	for _, pos := range positions {
		chunk, ok := world.GetChunk(pos)
		if !ok {
			continue
		}
		if err := writeChunkPosition(cw, pos); err != nil {
			return err
		}
		if err := writeChunkColumns(cw, table, chunk); err != nil {
			return err
		}
	}

	fw := codec.NewWriter(w)
	if err := codec.WriteFileHeader(fw, codec.CurrentFileVersion); err != nil {
		return err
	}
	return codec.WriteCompressed(w, raw.Bytes())
}

// LoadWorld reads a stream produced by SaveWorld into a freshly constructed
// World using reg to resolve descriptor references. A descriptor name that
// SaveWorld wrote but reg no longer has (e.g. a removed block kind) surfaces
// as a codec.KindInvalidDataValue error rather than silently dropping data.
func LoadWorld(r io.Reader, reg *registry.Registry, dim geom.Dimension, storage StorageFactory) (*World, error) {
	fr := codec.NewReader(r)
	version, err := codec.ReadFileHeader(fr, codec.CurrentFileVersion)
	if err != nil {
		return nil, err
	}
	if version != codec.CurrentFileVersion {
		return nil, fmt.Errorf("voxel: unsupported save version %d", version)
	}

	cr, err := codec.NewCompressedReader(r)
	if err != nil {
		return nil, err
	}
	rr := codec.NewReader(cr)
	table := codec.NewInternTable()

	world := NewWorld(reg, dim, storage)
	count, err := rr.ReadU32()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < count; i++ {
		pos, err := readChunkPosition(rr)
		if err != nil {
			return nil, err
		}
		chunk, _ := world.GetOrCreateChunk(pos)
		chunk.MarkGenerated()
		world.NeedsGeneration.Remove(chunkPos(pos))
		world.Generated.Add(chunkPos(pos))
		if err := readChunkColumns(rr, table, reg, chunk); err != nil {
			return nil, err
		}
	}
	return world, nil
}

func writeChunkPosition(w *codec.Writer, pos ChunkPosition) error {
	if err := w.WriteS32(int32(pos.X)); err != nil {
		return err
	}
	if err := w.WriteS32(int32(pos.Z)); err != nil {
		return err
	}
	return pos.Dimension.Write(w)
}

func readChunkPosition(r *codec.Reader) (ChunkPosition, error) {
	x, err := r.ReadS32()
	if err != nil {
		return ChunkPosition{}, err
	}
	z, err := r.ReadS32()
	if err != nil {
		return ChunkPosition{}, err
	}
	dim, err := geom.ReadDimension(r)
	if err != nil {
		return ChunkPosition{}, err
	}
	return ChunkPosition{X: int(x), Z: int(z), Dimension: dim}, nil
}

func writeChunkColumns(w *codec.Writer, table *codec.InternTable, c *Chunk) error {
	type col struct {
		idx  int
		data []BlockData
	}
	var cols []col
	c.mu.RLock()
	store := c.store
	c.mu.RUnlock()
	if store != nil {
		_ = store.ForEach(func(idx int, data []BlockData) bool {
			cp := make([]BlockData, len(data))
			copy(cp, data)
			cols = append(cols, col{idx: idx, data: cp})
			return true
		})
	}
	if err := w.WriteU32(uint32(len(cols))); err != nil {
		return err
	}
	for _, entry := range cols {
		if err := w.WriteU32(uint32(entry.idx)); err != nil {
			return err
		}
		if err := w.WriteU32(uint32(len(entry.data))); err != nil {
			return err
		}
		for _, b := range entry.data {
			if err := b.Write(w, table); err != nil {
				return err
			}
		}
	}
	return nil
}

func readChunkColumns(r *codec.Reader, table *codec.InternTable, reg *registry.Registry, c *Chunk) error {
	numCols, err := r.ReadU32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < numCols; i++ {
		idx, err := r.ReadU32()
		if err != nil {
			return err
		}
		n, err := r.ReadU32()
		if err != nil {
			return err
		}
		col := make([]BlockData, n)
		for j := range col {
			b, err := ReadBlockData(r, table, reg)
			if err != nil {
				return err
			}
			col[j] = b
		}
		lx, lz := int(idx)%ChunkSize, int(idx)/ChunkSize
		for ly, b := range col {
			if b.Good() {
				c.SetLocal(lx, ly, lz, b)
			}
		}
	}
	return nil
}
