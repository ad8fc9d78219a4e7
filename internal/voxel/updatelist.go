package voxel

import "voxelworld/internal/geom"

// UpdateList is an insertion-ordered set of positions: a position already
// present is not re-appended, but the original insertion order is preserved
// for everything else (spec §3's "order-preserving set", used for per-tick
// dirty tracking and the generator's needs-generation/generating/generated
// queues).
type UpdateList struct {
	order []geom.PositionI
	index map[geom.PositionI]int
}

func NewUpdateList() *UpdateList {
	return &UpdateList{index: make(map[geom.PositionI]int)}
}

// Add inserts pos if not already present. Returns true if it was newly added.
func (l *UpdateList) Add(pos geom.PositionI) bool {
	if _, ok := l.index[pos]; ok {
		return false
	}
	l.index[pos] = len(l.order)
	l.order = append(l.order, pos)
	return true
}

func (l *UpdateList) Remove(pos geom.PositionI) bool {
	i, ok := l.index[pos]
	if !ok {
		return false
	}
	delete(l.index, pos)
	l.order = append(l.order[:i], l.order[i+1:]...)
	for j := i; j < len(l.order); j++ {
		l.index[l.order[j]] = j
	}
	return true
}

func (l *UpdateList) Contains(pos geom.PositionI) bool {
	_, ok := l.index[pos]
	return ok
}

func (l *UpdateList) Clear() {
	l.order = l.order[:0]
	l.index = make(map[geom.PositionI]int)
}

// Items returns the positions in insertion order. The returned slice must
// not be mutated by the caller.
func (l *UpdateList) Items() []geom.PositionI { return l.order }

func (l *UpdateList) Len() int { return len(l.order) }

// Merge appends every position of other not already present, preserving
// other's relative order, then clears other (the "throwaway-world merge-back"
// pattern the generation pipeline uses to fold a worker's results into the
// live world's queues).
func (l *UpdateList) Merge(other *UpdateList) {
	for _, pos := range other.order {
		l.Add(pos)
	}
	other.Clear()
}
