package protocol

import (
	"voxelworld/internal/codec"
	"voxelworld/internal/entity"
	"voxelworld/internal/geom"
	"voxelworld/internal/registry"
	"voxelworld/internal/voxel"
)

// RenderObjectTag is the type discriminator every render object begins
// with (spec §4.6: "Render-objects begin with a type tag (Entity or
// Block)").
type RenderObjectTag uint8

const (
	RenderObjectEntity RenderObjectTag = iota
	RenderObjectBlock
)

// BlockUpdate is one position's new block state, the payload behind a
// RenderObjectBlock tag.
type BlockUpdate struct {
	Position geom.PositionI
	Block    voxel.BlockData
}

// EntitySnapshot is one entity's render-relevant state, the payload behind
// a RenderObjectEntity tag: enough for a client to place, move, or remove
// its local mirror of the entity without needing the server's full physics
// state.
type EntitySnapshot struct {
	ID         entity.ID
	Descriptor *registry.EntityDescriptor
	Position   geom.PositionF
	Velocity   geom.VectorF
	Destroyed  bool
}

// RenderObject is a tagged union of the two update kinds a server ever
// sends in an UpdateRenderObjects batch. Exactly one of Block/Entity is
// non-nil, selected by Tag.
type RenderObject struct {
	Tag    RenderObjectTag
	Block  *BlockUpdate
	Entity *EntitySnapshot
}

func WriteRenderObject(w *codec.Writer, table *codec.InternTable, ro RenderObject) error {
	if err := w.WriteU8(uint8(ro.Tag)); err != nil {
		return err
	}
	switch ro.Tag {
	case RenderObjectBlock:
		if err := ro.Block.Position.Write(w); err != nil {
			return err
		}
		return ro.Block.Block.Write(w, table)
	case RenderObjectEntity:
		return writeEntitySnapshot(w, table, ro.Entity)
	default:
		return &codec.FormatError{Kind: codec.KindInvalidDataValue, Msg: "unknown render object tag"}
	}
}

func ReadRenderObject(r *codec.Reader, table *codec.InternTable, reg *registry.Registry) (RenderObject, error) {
	tagByte, err := r.ReadLimitedU8(uint8(RenderObjectEntity), uint8(RenderObjectBlock))
	if err != nil {
		return RenderObject{}, err
	}
	tag := RenderObjectTag(tagByte)
	switch tag {
	case RenderObjectBlock:
		pos, err := geom.ReadPositionI(r)
		if err != nil {
			return RenderObject{}, err
		}
		block, err := voxel.ReadBlockData(r, table, reg)
		if err != nil {
			return RenderObject{}, err
		}
		return RenderObject{Tag: tag, Block: &BlockUpdate{Position: pos, Block: block}}, nil
	default:
		snap, err := readEntitySnapshot(r, table, reg)
		if err != nil {
			return RenderObject{}, err
		}
		return RenderObject{Tag: tag, Entity: snap}, nil
	}
}

func writeEntitySnapshot(w *codec.Writer, table *codec.InternTable, s *EntitySnapshot) error {
	if err := w.WriteU64(uint64(s.ID)); err != nil {
		return err
	}
	if err := registry.WriteEntityRef(w, table, s.Descriptor); err != nil {
		return err
	}
	if err := s.Position.Write(w); err != nil {
		return err
	}
	if err := s.Velocity.Write(w); err != nil {
		return err
	}
	return w.WriteBool(s.Destroyed)
}

func readEntitySnapshot(r *codec.Reader, table *codec.InternTable, reg *registry.Registry) (*EntitySnapshot, error) {
	id, err := r.ReadU64()
	if err != nil {
		return nil, err
	}
	desc, err := registry.ReadEntityRef(r, table, reg)
	if err != nil {
		return nil, err
	}
	pos, err := geom.ReadPositionF(r)
	if err != nil {
		return nil, err
	}
	vel, err := geom.ReadVectorF(r)
	if err != nil {
		return nil, err
	}
	destroyed, err := r.ReadBool()
	if err != nil {
		return nil, err
	}
	return &EntitySnapshot{ID: entity.ID(id), Descriptor: desc, Position: pos, Velocity: vel, Destroyed: destroyed}, nil
}
