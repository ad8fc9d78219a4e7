// Package entity defines the mobile, non-block game objects: players, mobs,
// dropped items (spec §3's EntityData). An Entity pairs a descriptor looked
// up from internal/registry with a physics.Object and an optional render
// mirror and side-channel Extra data, grounded on
// original_source/include/entity.h's Entity::ExtraData union.
package entity

import (
	"sync/atomic"

	"voxelworld/internal/physics"
	"voxelworld/internal/registry"
)

// ID is a process-wide monotonically increasing entity identifier. Zero is
// never issued, mirroring NullId in the asset-reference protocol.
type ID uint64

var nextID uint64

func NewID() ID {
	return ID(atomic.AddUint64(&nextID, 1))
}

// Entity is one live instance of an EntityDescriptor.
type Entity struct {
	ID         ID
	Descriptor *registry.EntityDescriptor
	Physics    *physics.Object

	// Extra holds descriptor-specific side data (inventory contents, AI
	// state, ...) that the core engine does not interpret, mirroring
	// entity.h's dynamically-typed Extra union.
	Extra map[string]any

	// destroyed is set once Good() should start reporting false; the owning
	// World is responsible for queuing a final render snapshot before
	// dropping the entity (spec §4.3's "destroyed entity snapshots").
	destroyed bool
}

func New(desc *registry.EntityDescriptor, obj *physics.Object) *Entity {
	return &Entity{
		ID:         NewID(),
		Descriptor: desc,
		Physics:    obj,
		Extra:      make(map[string]any),
	}
}

// Good mirrors spec §3: an entity is alive as long as it hasn't been marked
// destroyed and its physics object is a live (non-Empty) body.
func (e *Entity) Good() bool {
	return !e.destroyed && e.Physics != nil && e.Physics.Good()
}

func (e *Entity) Destroy() { e.destroyed = true }

func (e *Entity) Destroyed() bool { return e.destroyed }
