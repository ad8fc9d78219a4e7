package protocol

import (
	"voxelworld/internal/codec"
	"voxelworld/internal/geom"
	"voxelworld/internal/registry"
)

// UpdateRenderObjectsMsg batches render-object updates into one message
// (spec §4.6): block changes and entity snapshots drained from a session's
// outgoing UpdateList, in the order they were first queued.
type UpdateRenderObjectsMsg struct {
	Objects []RenderObject
}

func WriteUpdateRenderObjects(w *codec.Writer, table *codec.InternTable, msg UpdateRenderObjectsMsg) error {
	if err := WriteEvent(w, EventUpdateRenderObjects); err != nil {
		return err
	}
	if err := w.WriteU64(uint64(len(msg.Objects))); err != nil {
		return err
	}
	for _, ro := range msg.Objects {
		if err := WriteRenderObject(w, table, ro); err != nil {
			return err
		}
	}
	return nil
}

func ReadUpdateRenderObjectsBody(r *codec.Reader, table *codec.InternTable, reg *registry.Registry) (UpdateRenderObjectsMsg, error) {
	count, err := r.ReadU64()
	if err != nil {
		return UpdateRenderObjectsMsg{}, err
	}
	objects := make([]RenderObject, 0, count)
	for i := uint64(0); i < count; i++ {
		ro, err := ReadRenderObject(r, table, reg)
		if err != nil {
			return UpdateRenderObjectsMsg{}, err
		}
		objects = append(objects, ro)
	}
	return UpdateRenderObjectsMsg{Objects: objects}, nil
}

// UpdatePositionAndVelocityMsg is the client's latest input state
// (spec §4.6): position, velocity, view angles, requested view distance,
// and flight/age flags the server folds into the player entity.
type UpdatePositionAndVelocityMsg struct {
	Position     geom.PositionF
	Velocity     geom.VectorF
	Phi, Theta   float64
	ViewDistance uint32
	Flying       bool
	Age          float32
}

func WriteUpdatePositionAndVelocity(w *codec.Writer, msg UpdatePositionAndVelocityMsg) error {
	if err := WriteEvent(w, EventUpdatePositionAndVelocity); err != nil {
		return err
	}
	if err := msg.Position.Write(w); err != nil {
		return err
	}
	if err := msg.Velocity.Write(w); err != nil {
		return err
	}
	if err := w.WriteF64(msg.Phi); err != nil {
		return err
	}
	if err := w.WriteF64(msg.Theta); err != nil {
		return err
	}
	if err := w.WriteU32(msg.ViewDistance); err != nil {
		return err
	}
	if err := w.WriteBool(msg.Flying); err != nil {
		return err
	}
	return w.WriteF32(msg.Age)
}

func ReadUpdatePositionAndVelocityBody(r *codec.Reader) (UpdatePositionAndVelocityMsg, error) {
	pos, err := geom.ReadPositionF(r)
	if err != nil {
		return UpdatePositionAndVelocityMsg{}, err
	}
	vel, err := geom.ReadVectorF(r)
	if err != nil {
		return UpdatePositionAndVelocityMsg{}, err
	}
	phi, err := r.ReadFiniteF64()
	if err != nil {
		return UpdatePositionAndVelocityMsg{}, err
	}
	theta, err := r.ReadFiniteF64()
	if err != nil {
		return UpdatePositionAndVelocityMsg{}, err
	}
	viewDistance, err := r.ReadU32()
	if err != nil {
		return UpdatePositionAndVelocityMsg{}, err
	}
	flying, err := r.ReadBool()
	if err != nil {
		return UpdatePositionAndVelocityMsg{}, err
	}
	age, err := r.ReadFiniteF32()
	if err != nil {
		return UpdatePositionAndVelocityMsg{}, err
	}
	return UpdatePositionAndVelocityMsg{
		Position: pos, Velocity: vel, Phi: phi, Theta: theta,
		ViewDistance: viewDistance, Flying: flying, Age: age,
	}, nil
}

// RequestChunkMsg asks the server to begin streaming the chunk containing
// origin; size, in blocks, lets a client ask for a single chunk (one chunk
// width) or a square x/z batch of chunk columns starting at origin in one
// request.
type RequestChunkMsg struct {
	Origin geom.PositionI
	Size   uint32
}

func WriteRequestChunk(w *codec.Writer, msg RequestChunkMsg) error {
	if err := WriteEvent(w, EventRequestChunk); err != nil {
		return err
	}
	if err := msg.Origin.Write(w); err != nil {
		return err
	}
	return w.WriteU32(msg.Size)
}

func ReadRequestChunkBody(r *codec.Reader) (RequestChunkMsg, error) {
	origin, err := geom.ReadPositionI(r)
	if err != nil {
		return RequestChunkMsg{}, err
	}
	size, err := r.ReadU32()
	if err != nil {
		return RequestChunkMsg{}, err
	}
	return RequestChunkMsg{Origin: origin, Size: size}, nil
}

// WriteRequestState writes the empty-bodied RequestState message, by which
// a server solicits a client's next UpdatePositionAndVelocity.
func WriteRequestState(w *codec.Writer) error {
	return WriteEvent(w, EventRequestState)
}

// SendPlayerMsg delivers the server-side player entity's render object to
// its own client, once per session, so the client can tell its own avatar
// apart from every other entity snapshot it receives.
type SendPlayerMsg struct {
	Entity EntitySnapshot
}

func WriteSendPlayer(w *codec.Writer, table *codec.InternTable, msg SendPlayerMsg) error {
	if err := WriteEvent(w, EventSendPlayer); err != nil {
		return err
	}
	return writeEntitySnapshot(w, table, &msg.Entity)
}

func ReadSendPlayerBody(r *codec.Reader, table *codec.InternTable, reg *registry.Registry) (SendPlayerMsg, error) {
	snap, err := readEntitySnapshot(r, table, reg)
	if err != nil {
		return SendPlayerMsg{}, err
	}
	return SendPlayerMsg{Entity: *snap}, nil
}
