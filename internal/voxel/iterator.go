package voxel

import "voxelworld/internal/geom"

// BlockIterator is a cursor into a World at a specific PositionI, caching the
// chunk it last resolved so repeated Get/Set calls and small Move steps
// don't re-hash the chunk map every time (spec §4.3). Crossing a chunk
// boundary follows the current chunk's cached neighbor pointer when one
// is set, falling back to a world lookup (and chunk creation) otherwise.
type BlockIterator struct {
	world *World
	pos   geom.PositionI
	chunk *Chunk
	lx, ly, lz int
}

// NewBlockIterator resolves pos's owning chunk, creating it (and queuing it
// for generation) if it doesn't exist yet.
func NewBlockIterator(w *World, pos geom.PositionI) *BlockIterator {
	it := &BlockIterator{world: w, pos: pos}
	it.resolve()
	return it
}

func (it *BlockIterator) localCoords() (lx, ly, lz int) {
	cp := it.chunk.Position
	return it.pos.X - cp.X, it.pos.Y, it.pos.Z - cp.Z
}

func (it *BlockIterator) resolve() {
	cp := ChunkPositionContaining(it.pos)
	chunk, _ := it.world.GetOrCreateChunk(cp)
	it.chunk = chunk
	it.lx, it.ly, it.lz = it.localCoords()
}

func (it *BlockIterator) Position() geom.PositionI { return it.pos }

// Get returns the block at the iterator's current position. A y outside
// [0, ChunkHeight) synthesizes the world's virtual bedrock floor or lit-air
// ceiling (spec §4.3, testable property #8.2) rather than an empty cell.
func (it *BlockIterator) Get() BlockData {
	if b, ok := syntheticBlock(it.world.Registry, it.ly); ok {
		return b
	}
	return it.chunk.GetLocal(it.lx, it.ly, it.lz)
}

// Set writes b at the iterator's current position and marks it dirty for
// client sync.
func (it *BlockIterator) Set(b BlockData) bool {
	if it.ly < 0 || it.ly >= ChunkHeight {
		return false
	}
	ok := it.chunk.SetLocal(it.lx, it.ly, it.lz, b)
	if ok {
		it.world.MarkDirty(it.pos)
	}
	return ok
}

// Move repositions the iterator to an arbitrary absolute position, following
// the current chunk's cached neighbor pointer when the move is a single-step
// face crossing and the link is already populated; otherwise it falls back
// to a full world lookup.
func (it *BlockIterator) Move(to geom.PositionI) {
	d := to.Sub(it.pos) // panics if to is in a different dimension
	delta := geom.VectorI{X: d.X, Y: d.Y, Z: d.Z}
	it.pos = to
	if face, ok := singleStepFace(delta); ok {
		if next := it.neighborFor(face); next != nil {
			it.chunk = next
			it.lx, it.ly, it.lz = it.localCoords()
			return
		}
	}
	it.resolve()
}

// MoveBy is the += form of Move: step by a displacement rather than to an
// absolute position.
func (it *BlockIterator) MoveBy(delta geom.VectorI) {
	it.Move(it.pos.AddVector(delta))
}

func (it *BlockIterator) neighborFor(face geom.Face) *Chunk {
	// it.pos already holds the new position; it.lx/it.lz are still the old
	// local coordinates, so measure the new ones against the current chunk.
	lx, lz := it.pos.X-it.chunk.Position.X, it.pos.Z-it.chunk.Position.Z
	lxOut := lx < 0 || lx >= ChunkSize
	lzOut := lz < 0 || lz >= ChunkSize
	if !lxOut && !lzOut {
		return it.chunk
	}
	switch face {
	case geom.FaceNX:
		return it.chunk.nx
	case geom.FacePX:
		return it.chunk.px
	case geom.FaceNZ:
		return it.chunk.nz
	case geom.FacePZ:
		return it.chunk.pz
	default:
		return nil
	}
}

func singleStepFace(delta geom.VectorI) (geom.Face, bool) {
	switch delta {
	case geom.VectorI{X: -1}:
		return geom.FaceNX, true
	case geom.VectorI{X: 1}:
		return geom.FacePX, true
	case geom.VectorI{Y: -1}:
		return geom.FaceNY, true
	case geom.VectorI{Y: 1}:
		return geom.FacePY, true
	case geom.VectorI{Z: -1}:
		return geom.FaceNZ, true
	case geom.VectorI{Z: 1}:
		return geom.FacePZ, true
	default:
		return 0, false
	}
}
