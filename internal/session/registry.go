package session

import "sync"

// slot holds the two-way mapping for one DataType: which ID an object has
// been assigned, and which object an ID currently names.
type slot struct {
	idMap  map[any]ID
	ptrMap map[ID]any
}

func newSlot() slot {
	return slot{idMap: make(map[any]ID), ptrMap: make(map[ID]any)}
}

// Session is one connection's asset registry: per-DataType object<->ID
// tables plus a set of lazily-created named singletons (property
// references). IDs handed out by a Session are meaningful only for the
// lifetime of that connection; reconnecting starts over with empty tables,
// even though the underlying process-global ID counter keeps advancing.
type Session struct {
	mu         sync.Mutex
	slots      [Last]slot
	properties map[propertyKey]any
}

// New creates an empty, ready-to-use Session.
func New() *Session {
	s := &Session{properties: make(map[propertyKey]any)}
	for i := range s.slots {
		s.slots[i] = newSlot()
	}
	return s
}

// GetID returns the ID previously assigned to obj under dt, or NullID if
// obj has never been interned under that type.
func (s *Session) GetID(obj any, dt DataType) ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slots[dt].idMap[obj]
}

// MakeID allocates a fresh ID for obj under dt and binds both directions.
// obj must be non-nil and must not already have an ID under dt; violating
// either is a caller bug, so MakeID panics rather than silently
// overwriting an existing mapping.
func (s *Session) MakeID(obj any, dt DataType) ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if obj == nil {
		panic("session: MakeID called with nil object")
	}
	if _, ok := s.slots[dt].idMap[obj]; ok {
		panic("session: MakeID called for an object that already has an id")
	}
	id := newID()
	s.slots[dt].idMap[obj] = id
	s.slots[dt].ptrMap[id] = obj
	return id
}

// SetPtr establishes both directions for an externally chosen id, used when
// a reader learns an object's id before it has decoded the object's payload
// (see ReadObject).
func (s *Session) SetPtr(obj any, id ID, dt DataType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[dt].idMap[obj] = id
	s.slots[dt].ptrMap[id] = obj
}

// GetPtr is the reverse lookup: the object bound to id under dt, if any.
func (s *Session) GetPtr(id ID, dt DataType) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.slots[dt].ptrMap[id]
	return obj, ok
}

// RemoveID erases the mapping for id under dt, in both directions.
func (s *Session) RemoveID(id ID, dt DataType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl := s.slots[dt]
	if obj, ok := sl.ptrMap[id]; ok {
		delete(sl.idMap, obj)
	}
	delete(sl.ptrMap, id)
}

// RemovePtr erases the mapping for obj under dt, in both directions.
func (s *Session) RemovePtr(obj any, dt DataType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl := s.slots[dt]
	if id, ok := sl.idMap[obj]; ok {
		delete(sl.ptrMap, id)
	}
	delete(sl.idMap, obj)
}

// GetAllPtrs returns every object currently interned under dt, in no
// particular order. Used by, e.g., a disconnect handler that needs to tear
// down every render object a session ever sent.
func (s *Session) GetAllPtrs(dt DataType) []any {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl := s.slots[dt]
	out := make([]any, 0, len(sl.ptrMap))
	for _, obj := range sl.ptrMap {
		out = append(out, obj)
	}
	return out
}

// propertyKey names one lazily-created singleton slot: a DataType plus a
// caller-chosen tag, standing in for the original's compile-time template
// slot parameter.
type propertyKey struct {
	dt   DataType
	slot string
}

// PropertyRef returns the singleton registered under (dt, tag) for this
// session, calling factory to create it on first access. Later calls with
// the same (dt, tag) — even with a different factory — return the
// already-created value; factory's type parameter must match or the type
// assertion panics, which only happens on a caller bug (mismatched tag
// reuse across two different property kinds).
func PropertyRef[T any](s *Session, dt DataType, tag string, factory func() *T) *T {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := propertyKey{dt: dt, slot: tag}
	if v, ok := s.properties[key]; ok {
		return v.(*T)
	}
	v := factory()
	s.properties[key] = v
	return v
}
