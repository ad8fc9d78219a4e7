// Package registry holds the process-global, immutable dictionaries of
// block and entity descriptors (spec §3, design note "Global descriptor
// registries"). Descriptors are registered once at startup, before any
// World exists, and never mutated afterward.
package registry

import (
	"fmt"
	"sync"

	"voxelworld/internal/codec"
)

// BlockDescriptor names an immutable kind of block. The registry owns the
// only instances; a BlockData value stores a pointer to one of these, never
// a copy (spec §3: "descriptor is a shared reference ... whose lifetime
// outlives all blocks").
type BlockDescriptor struct {
	Name       string
	Light      LightProperties
	Solid      bool
	Opaque     bool
	Appearance string // texture/material tag; content beyond this is out of scope
}

// LightProperties mirrors spec §3's LightProperties (kind + emit).
type LightProperties struct {
	Kind LightKind
	Emit uint8
}

type LightKind uint8

const (
	Transparent LightKind = iota
	ScatteringTranslucent
	NonscatteringTranslucent
	Water
	Opaque
	lightKindCount
)

// EntityDescriptor names an immutable kind of entity.
type EntityDescriptor struct {
	Name       string
	HalfExtent [3]float64 // AABB half-extents used to seed a PhysicsObject
	Mass       float64
	Appearance string
}

// Registry is the immutable, process-global dictionary of descriptors,
// passed into the world constructor rather than reached for as a package
// singleton (per the design note's "explicit registry object" guidance).
type Registry struct {
	mu       sync.RWMutex
	blocks   map[string]*BlockDescriptor
	entities map[string]*EntityDescriptor
	sealed   bool
}

func New() *Registry {
	return &Registry{
		blocks:   make(map[string]*BlockDescriptor),
		entities: make(map[string]*EntityDescriptor),
	}
}

// RegisterBlock adds a block descriptor. Panics if called after Seal, since
// registration only happens once at startup.
func (r *Registry) RegisterBlock(d *BlockDescriptor) *BlockDescriptor {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		panic("registry: RegisterBlock after Seal")
	}
	if _, exists := r.blocks[d.Name]; exists {
		panic(fmt.Sprintf("registry: duplicate block descriptor %q", d.Name))
	}
	r.blocks[d.Name] = d
	return d
}

func (r *Registry) RegisterEntity(d *EntityDescriptor) *EntityDescriptor {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		panic("registry: RegisterEntity after Seal")
	}
	if _, exists := r.entities[d.Name]; exists {
		panic(fmt.Sprintf("registry: duplicate entity descriptor %q", d.Name))
	}
	r.entities[d.Name] = d
	return d
}

// Seal marks the registry immutable. Worlds constructed with a Registry
// should call Seal first; further registration panics.
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

func (r *Registry) Block(name string) (*BlockDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.blocks[name]
	return d, ok
}

func (r *Registry) Entity(name string) (*EntityDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.entities[name]
	return d, ok
}

func (r *Registry) HasBlock(name string) bool {
	_, ok := r.Block(name)
	return ok
}

func (r *Registry) HasEntity(name string) bool {
	_, ok := r.Entity(name)
	return ok
}

// WriteBlockRef writes d by name through table, interning on first
// occurrence (spec §4.1).
func WriteBlockRef(w *codec.Writer, table *codec.InternTable, d *BlockDescriptor) error {
	if d == nil {
		return w.WriteBool(false)
	}
	if err := w.WriteBool(true); err != nil {
		return err
	}
	return table.WriteName(w, d.Name)
}

// ReadBlockRef resolves a descriptor reference against reg.
func ReadBlockRef(r *codec.Reader, table *codec.InternTable, reg *Registry) (*BlockDescriptor, error) {
	present, err := r.ReadBool()
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, nil
	}
	name, err := table.ReadName(r, reg.HasBlock)
	if err != nil {
		return nil, err
	}
	d, _ := reg.Block(name)
	return d, nil
}

func WriteEntityRef(w *codec.Writer, table *codec.InternTable, d *EntityDescriptor) error {
	if d == nil {
		return w.WriteBool(false)
	}
	if err := w.WriteBool(true); err != nil {
		return err
	}
	return table.WriteName(w, d.Name)
}

func ReadEntityRef(r *codec.Reader, table *codec.InternTable, reg *Registry) (*EntityDescriptor, error) {
	present, err := r.ReadBool()
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, nil
	}
	name, err := table.ReadName(r, reg.HasEntity)
	if err != nil {
		return nil, err
	}
	d, _ := reg.Entity(name)
	return d, nil
}

// Builtin registers the small set of block kinds the core engine itself
// needs to exist (air, bedrock, stone, dirt, grass, water, sand) plus the
// "player" entity, so World and the generator have something to generate
// with; specific block/entity *content* beyond this
// is out of scope (spec §1).
func Builtin() *Registry {
	reg := New()
	reg.RegisterBlock(&BlockDescriptor{
		Name:  "air",
		Light: LightProperties{Kind: Transparent, Emit: 0},
	})
	reg.RegisterBlock(&BlockDescriptor{
		Name:   "bedrock",
		Light:  LightProperties{Kind: Opaque, Emit: 0},
		Solid:  true,
		Opaque: true,
	})
	reg.RegisterBlock(&BlockDescriptor{
		Name:   "stone",
		Light:  LightProperties{Kind: Opaque, Emit: 0},
		Solid:  true,
		Opaque: true,
	})
	reg.RegisterBlock(&BlockDescriptor{
		Name:   "dirt",
		Light:  LightProperties{Kind: Opaque, Emit: 0},
		Solid:  true,
		Opaque: true,
	})
	reg.RegisterBlock(&BlockDescriptor{
		Name:   "grass",
		Light:  LightProperties{Kind: Opaque, Emit: 0},
		Solid:  true,
		Opaque: true,
	})
	reg.RegisterBlock(&BlockDescriptor{
		Name:  "water",
		Light: LightProperties{Kind: Water, Emit: 0},
		Solid: false,
	})
	reg.RegisterBlock(&BlockDescriptor{
		Name:   "sand",
		Light:  LightProperties{Kind: Opaque, Emit: 0},
		Solid:  true,
		Opaque: true,
	})
	reg.RegisterEntity(&EntityDescriptor{
		Name:       "player",
		HalfExtent: [3]float64{0.3, 0.9, 0.3},
		Mass:       80,
	})
	reg.Seal()
	return reg
}
