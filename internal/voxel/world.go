package voxel

import (
	"sync"

	"voxelworld/internal/entity"
	"voxelworld/internal/geom"
	"voxelworld/internal/registry"
)

// StorageFactory builds the BlockStorage backing a newly created chunk. The
// default, used unless a server config opts into a persistent backend, is
// NewMemoryStorage.
type StorageFactory func(ChunkPosition) BlockStorage

// World is the live chunk and entity store for one dimension (spec §3). It
// holds no generator or random-number state of its own: the generation
// pipeline (internal/worldgen) is composed alongside a World rather than
// owned by it, so this package never needs to import worldgen.
//
// A single sync.RWMutex guards the chunk and entity maps; every exported
// method takes and releases it without calling back into another exported
// method while held, replacing the original's recursive-lock discipline with
// the simpler non-reentrant pattern idiomatic Go code uses.
type World struct {
	Registry  *registry.Registry
	Dimension geom.Dimension
	Storage   StorageFactory

	mu              sync.RWMutex
	chunks          map[ChunkPosition]*Chunk
	entities        map[entity.ID]*entity.Entity
	entitiesByChunk map[ChunkPosition]map[entity.ID]struct{}

	// PendingClientUpdates collects block positions changed since the last
	// sync to connected clients (spec §4.3).
	PendingClientUpdates *UpdateList

	// NeedsGeneration, Generating, and Generated track each chunk's place in
	// the generation pipeline (spec §4.4); entries are chunk origins encoded
	// as a geom.PositionI with Y=0.
	NeedsGeneration *UpdateList
	Generating      *UpdateList
	Generated       *UpdateList

	// DestroyedEntitySnapshots accumulates the ID of each entity that was
	// removed after it stopped being Good(), since the last client sync, so
	// clients can be told to drop it even though it no longer exists to walk
	// (spec §4.3).
	DestroyedEntitySnapshots []entity.ID
}

func NewWorld(reg *registry.Registry, dim geom.Dimension, storage StorageFactory) *World {
	if storage == nil {
		storage = func(ChunkPosition) BlockStorage { return NewMemoryStorage() }
	}
	return &World{
		Registry:             reg,
		Dimension:            dim,
		Storage:              storage,
		chunks:               make(map[ChunkPosition]*Chunk),
		entities:             make(map[entity.ID]*entity.Entity),
		entitiesByChunk:      make(map[ChunkPosition]map[entity.ID]struct{}),
		PendingClientUpdates: NewUpdateList(),
		NeedsGeneration:      NewUpdateList(),
		Generating:           NewUpdateList(),
		Generated:            NewUpdateList(),
	}
}

func chunkPos(cp ChunkPosition) geom.PositionI {
	return geom.PositionI{X: cp.X, Z: cp.Z, Dimension: cp.Dimension}
}

// GetChunk looks up an existing chunk without creating one.
func (w *World) GetChunk(pos ChunkPosition) (*Chunk, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	c, ok := w.chunks[pos]
	return c, ok
}

// GetOrCreateChunk returns the chunk at pos, creating and linking it to any
// already-present neighbors if it didn't exist, and queuing it for
// generation. The returned bool is true if this call created the chunk.
func (w *World) GetOrCreateChunk(pos ChunkPosition) (*Chunk, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if c, ok := w.chunks[pos]; ok {
		return c, false
	}
	c := NewChunk(pos, w.Storage(pos))
	w.chunks[pos] = c

	neighborFaces := []struct {
		face  geom.Face
		delta ChunkPosition
	}{
		{geom.FaceNX, ChunkPosition{X: pos.X - ChunkSize, Z: pos.Z, Dimension: pos.Dimension}},
		{geom.FacePX, ChunkPosition{X: pos.X + ChunkSize, Z: pos.Z, Dimension: pos.Dimension}},
		{geom.FaceNZ, ChunkPosition{X: pos.X, Z: pos.Z - ChunkSize, Dimension: pos.Dimension}},
		{geom.FacePZ, ChunkPosition{X: pos.X, Z: pos.Z + ChunkSize, Dimension: pos.Dimension}},
	}
	for _, n := range neighborFaces {
		if other, ok := w.chunks[n.delta]; ok {
			linkNeighbor(c, other, n.face)
		}
	}

	w.NeedsGeneration.Add(chunkPos(pos))
	return c, true
}

// AllChunkPositions returns a snapshot of every chunk currently loaded.
func (w *World) AllChunkPositions() []ChunkPosition {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]ChunkPosition, 0, len(w.chunks))
	for pos := range w.chunks {
		out = append(out, pos)
	}
	return out
}

// MarkDirty records that the block at pos changed and must be resent to
// clients tracking that chunk.
func (w *World) MarkDirty(pos geom.PositionI) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.PendingClientUpdates.Add(pos)
}

// AddEntity inserts e into the world's spatial index at its current physics
// position.
func (w *World) AddEntity(e *entity.Entity) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entities[e.ID] = e
	cp := ChunkPositionContaining(e.Physics.Position.Floor())
	set, ok := w.entitiesByChunk[cp]
	if !ok {
		set = make(map[entity.ID]struct{})
		w.entitiesByChunk[cp] = set
	}
	set[e.ID] = struct{}{}
}

// RemoveEntity drops e from the index. If e is no longer Good(), its ID is
// queued in DestroyedEntitySnapshots so pending client syncs can tell
// observers to drop it.
func (w *World) RemoveEntity(id entity.ID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, ok := w.entities[id]
	if !ok {
		return
	}
	delete(w.entities, id)
	cp := ChunkPositionContaining(e.Physics.Position.Floor())
	if set, ok := w.entitiesByChunk[cp]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(w.entitiesByChunk, cp)
		}
	}
	if !e.Good() {
		w.DestroyedEntitySnapshots = append(w.DestroyedEntitySnapshots, id)
	}
}

// Entity looks up a live entity by ID.
func (w *World) Entity(id entity.ID) (*entity.Entity, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	e, ok := w.entities[id]
	return e, ok
}

// RelocateEntity updates the spatial index after e's physics position moved
// into a different chunk; callers invoke this once per tick per moved
// entity, not on every physics substep.
func (w *World) RelocateEntity(id entity.ID, oldChunk ChunkPosition) {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, ok := w.entities[id]
	if !ok {
		return
	}
	newChunk := ChunkPositionContaining(e.Physics.Position.Floor())
	if newChunk == oldChunk {
		return
	}
	if set, ok := w.entitiesByChunk[oldChunk]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(w.entitiesByChunk, oldChunk)
		}
	}
	set, ok := w.entitiesByChunk[newChunk]
	if !ok {
		set = make(map[entity.ID]struct{})
		w.entitiesByChunk[newChunk] = set
	}
	set[id] = struct{}{}
}

// DrainPendingClientUpdates returns every block position changed since the
// last drain, in first-changed order, and clears the pending list (spec
// §4.6's world.copy_out_updates()).
func (w *World) DrainPendingClientUpdates() []geom.PositionI {
	w.mu.Lock()
	defer w.mu.Unlock()
	// Copy out: Clear keeps the backing array, which later Adds overwrite.
	items := append([]geom.PositionI(nil), w.PendingClientUpdates.Items()...)
	w.PendingClientUpdates.Clear()
	return items
}

// DrainDestroyedEntities returns every entity ID destroyed since the last
// drain and clears the list (spec §4.6's world.copy_out_destroyed_entities()).
func (w *World) DrainDestroyedEntities() []entity.ID {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := w.DestroyedEntitySnapshots
	w.DestroyedEntitySnapshots = nil
	return out
}

// BlockAt is a side-effect-free lookup: unlike BlockIterator, it never
// creates or queues a chunk for generation, so callers that merely need to
// ask "is this cell solid" (physics broad-phase) don't accidentally pull
// unloaded terrain into existence. Out-of-range y synthesizes the world's
// virtual floor and ceiling (spec §4.3, testable property #8.2): bedrock
// below y=0, lit air at and above ChunkHeight.
func (w *World) BlockAt(pos geom.PositionI) (BlockData, bool) {
	if b, ok := syntheticBlock(w.Registry, pos.Y); ok {
		return b, true
	}
	cp := ChunkPositionContaining(pos)
	c, ok := w.GetChunk(cp)
	if !ok {
		return BlockData{}, false
	}
	lx, lz := pos.X-cp.X, pos.Z-cp.Z
	return c.GetLocal(lx, pos.Y, lz), true
}

// syntheticBlock returns the virtual block standing in for a y coordinate
// outside [0, ChunkHeight): opaque bedrock below the world, lit air above it.
// ok is false for any in-range y, meaning the caller must consult real chunk
// storage instead.
func syntheticBlock(reg *registry.Registry, y int) (BlockData, bool) {
	switch {
	case y < 0:
		bedrock, ok := reg.Block("bedrock")
		if !ok {
			return BlockData{}, false
		}
		return BlockData{Descriptor: bedrock}, true
	case y >= ChunkHeight:
		air, ok := reg.Block("air")
		if !ok {
			return BlockData{}, false
		}
		return BlockData{Descriptor: air, Light: Sky()}, true
	default:
		return BlockData{}, false
	}
}

// AllEntities returns a snapshot of every live entity in the world, used by
// the server tick to find entities within a client's view AABB without
// needing a spatial query structure beyond the per-chunk index.
func (w *World) AllEntities() []*entity.Entity {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]*entity.Entity, 0, len(w.entities))
	for _, e := range w.entities {
		out = append(out, e)
	}
	return out
}

// EntitiesInChunk returns the IDs of entities currently indexed under pos.
func (w *World) EntitiesInChunk(pos ChunkPosition) []entity.ID {
	w.mu.RLock()
	defer w.mu.RUnlock()
	set, ok := w.entitiesByChunk[pos]
	if !ok {
		return nil
	}
	out := make([]entity.ID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}
