package voxel

import (
	"log"
	"sync"
	"sync/atomic"

	"voxelworld/internal/geom"
)

const (
	// ChunkSize is the horizontal (X and Z) extent of a chunk, in blocks.
	ChunkSize = 16
	// ChunkHeight is the full vertical extent of a chunk, in blocks.
	ChunkHeight = 256
)

// ChunkPosition names a chunk by the world position of its origin (spec §3).
// X and Z are always multiples of ChunkSize.
type ChunkPosition struct {
	X, Z      int
	Dimension geom.Dimension
}

// ChunkPositionContaining returns the chunk that owns pos.
func ChunkPositionContaining(pos geom.PositionI) ChunkPosition {
	return ChunkPosition{X: floorDiv(pos.X, ChunkSize) * ChunkSize, Z: floorDiv(pos.Z, ChunkSize) * ChunkSize, Dimension: pos.Dimension}
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// ChunkState tracks a chunk's progress through the generation pipeline
// (spec §4.4): a chunk starts Ungenerated, moves to Generating while a
// worker owns it, and becomes Generated once merged back into the world.
type ChunkState int32

const (
	Ungenerated ChunkState = iota
	Generating
	Generated
)

// BlockStorage is the pluggable backing store for one chunk's block columns,
// grounded on chunk-server/internal/world's BlockStorage abstraction: chunks
// address columns by a flattened (x, z) index and store a trimmed, contiguous
// run of blocks from y=0 upward. Swapping implementations (memory vs.
// goleveldb-backed) never touches Chunk's own logic.
type BlockStorage interface {
	LoadColumn(idx int) (col []BlockData, ok bool, err error)
	SaveColumn(idx int, col []BlockData) error
	Delete(idx int) error
	ForEach(fn func(idx int, col []BlockData) bool) error
	Close() error
}

// Chunk is ChunkSize x ChunkHeight x ChunkSize blocks of one dimension,
// addressed by local (x, y, z) in [0, ChunkSize) x [0, ChunkHeight) x
// [0, ChunkSize). Neighbor chunks are cached as plain pointers refreshed at
// construction time (Go's garbage collector handles the resulting reference
// cycle directly, so no weak-pointer workaround is needed here unlike the
// shared_ptr original).
type Chunk struct {
	Position ChunkPosition

	mu    sync.RWMutex
	store BlockStorage

	state atomic.Int32

	nx, px, nz, pz *Chunk
}

func NewChunk(pos ChunkPosition, store BlockStorage) *Chunk {
	return &Chunk{Position: pos, store: store}
}

func (c *Chunk) State() ChunkState { return ChunkState(c.state.Load()) }

func (c *Chunk) MarkGenerating() bool {
	return c.state.CompareAndSwap(int32(Ungenerated), int32(Generating))
}

func (c *Chunk) MarkGenerated() { c.state.Store(int32(Generated)) }

func (c *Chunk) columnIndex(lx, lz int) int { return lz*ChunkSize + lx }

func inBounds(lx, ly, lz int) bool {
	return lx >= 0 && lx < ChunkSize && ly >= 0 && ly < ChunkHeight && lz >= 0 && lz < ChunkSize
}

// GetLocal reads the block at local coordinates. A column shorter than ly
// (because trailing air was trimmed) reads as air.
func (c *Chunk) GetLocal(lx, ly, lz int) BlockData {
	if !inBounds(lx, ly, lz) {
		return BlockData{}
	}
	idx := c.columnIndex(lx, lz)
	c.mu.RLock()
	store := c.store
	c.mu.RUnlock()
	if store == nil {
		return BlockData{}
	}
	col, ok, err := store.LoadColumn(idx)
	if err != nil {
		log.Printf("voxel: chunk %v load column %d: %v", c.Position, idx, err)
		return BlockData{}
	}
	if !ok || ly >= len(col) {
		return BlockData{}
	}
	return col[ly]
}

// SetLocal writes the block at local coordinates, trimming the column's
// trailing run of zero-value (air) entries so storage cost tracks the
// highest occupied block rather than ChunkHeight.
func (c *Chunk) SetLocal(lx, ly, lz int, b BlockData) bool {
	if !inBounds(lx, ly, lz) {
		return false
	}
	idx := c.columnIndex(lx, lz)
	c.mu.Lock()
	defer c.mu.Unlock()
	store := c.store
	if store == nil {
		return false
	}
	col, ok, err := store.LoadColumn(idx)
	if err != nil {
		log.Printf("voxel: chunk %v load column %d: %v", c.Position, idx, err)
		return false
	}
	if !ok {
		col = make([]BlockData, ly+1)
	} else if ly >= len(col) {
		expanded := make([]BlockData, ly+1)
		copy(expanded, col)
		col = expanded
	}
	col[ly] = b
	col = trimColumn(col)
	if len(col) == 0 {
		err = store.Delete(idx)
	} else {
		err = store.SaveColumn(idx, col)
	}
	if err != nil {
		log.Printf("voxel: chunk %v persist column %d: %v", c.Position, idx, err)
		return false
	}
	return true
}

func trimColumn(col []BlockData) []BlockData {
	end := len(col)
	for end > 0 && !col[end-1].Good() {
		end--
	}
	return col[:end]
}

// ForEachBlock visits every Good block (cells holding a descriptor, air
// descriptor included), skipping zero-value cells, invoking fn with local
// coordinates. fn returning false stops iteration early.
func (c *Chunk) ForEachBlock(fn func(lx, ly, lz int, b BlockData) bool) {
	c.mu.RLock()
	store := c.store
	c.mu.RUnlock()
	if store == nil {
		return
	}
	if err := store.ForEach(func(idx int, col []BlockData) bool {
		lx, lz := idx%ChunkSize, idx/ChunkSize
		for ly, b := range col {
			if !b.Good() {
				continue
			}
			if !fn(lx, ly, lz, b) {
				return false
			}
		}
		return true
	}); err != nil {
		log.Printf("voxel: chunk %v iterate blocks: %v", c.Position, err)
	}
}

// linkNeighbor wires c and other as mutual neighbors across face, refreshing
// the cached pointers the block iterator's fast path reads (spec §4.3's
// "weak neighbor links refreshed when either neighbor is created").
func linkNeighbor(c, other *Chunk, face geom.Face) {
	switch face {
	case geom.FaceNX:
		c.nx, other.px = other, c
	case geom.FacePX:
		c.px, other.nx = other, c
	case geom.FaceNZ:
		c.nz, other.pz = other, c
	case geom.FacePZ:
		c.pz, other.nz = other, c
	}
}

func (c *Chunk) Close() error {
	c.mu.Lock()
	store := c.store
	c.mu.Unlock()
	if store == nil {
		return nil
	}
	return store.Close()
}
