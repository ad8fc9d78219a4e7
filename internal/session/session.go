// Package session implements the per-connection asset registry (spec §4.2,
// the original's Client class): two-way maps between opaque 64-bit IDs and
// the shared objects they name, so that a server only ever sends a given
// mesh, script, or texture once per connection and thereafter refers to it
// by a small integer.
//
// Grounded on _examples/original_source/include/client.h. The original's
// DataType-indexed arrays of maps under one recursive_mutex become, here, a
// DataType-indexed slice of (idMap, ptrMap) pairs guarded by a single plain
// sync.Mutex: every exported method takes the lock once and never calls
// another exported method while holding it, so there is nothing to
// re-enter.
package session

import "sync/atomic"

// DataType distinguishes the kinds of object this registry interns. The
// order and membership mirror client.h's Client::DataType enum, adapted to
// this engine's actual Go types.
type DataType int

const (
	Image DataType = iota
	RenderObjectBlockMesh
	RenderObjectEntityMesh
	RenderObjectEntity
	RenderObjectEntitySet
	RenderObjectWorld
	ServerFlag
	UpdateList
	VectorF
	PositionF
	Script
	Double
	Float
	Player
	PhysicsWorld

	Last
)

// ID is the opaque, per-session, process-unique handle assigned to an
// interned object. NullID never names a real object.
type ID = uint64

// NullID is the handle for "no object" (spec: write NullId for a nil
// reference instead of allocating one).
const NullID ID = 0

var nextID atomic.Uint64

// newID mints a fresh process-global ID. Monotonic and never reused, the
// same guarantee client.h's getNewId gives via its own atomic counter; IDs
// are unique within the process but carry no meaning across sessions.
func newID() ID {
	return nextID.Add(1)
}
