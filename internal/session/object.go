package session

import "voxelworld/internal/codec"

// WriteObject implements client.h's writeObject protocol: if obj is nil,
// write NullID. If obj already has an id under dt, write just that id.
// Otherwise mint a new id, write it, then serialize obj's body with encode
// and remember the mapping for later writes in this session.
func WriteObject[T any](w *codec.Writer, s *Session, dt DataType, obj *T, encode func(*codec.Writer, *T) error) error {
	if obj == nil {
		return w.WriteU64(NullID)
	}
	if id := s.GetID(any(obj), dt); id != NullID {
		return w.WriteU64(id)
	}
	id := s.MakeID(any(obj), dt)
	if err := w.WriteU64(id); err != nil {
		return err
	}
	return encode(w, obj)
}

// ReadObject is writeObject's inverse: decode an id; NullID means nil; a
// known id resolves to the object already bound to it; an unknown id is
// decoded with decode and then bound, so later references to the same id
// in this stream resolve without re-reading the payload.
func ReadObject[T any](r *codec.Reader, s *Session, dt DataType, decode func(*codec.Reader) (*T, error)) (*T, error) {
	id, err := r.ReadU64()
	if err != nil {
		return nil, err
	}
	if id == NullID {
		return nil, nil
	}
	if existing, ok := s.GetPtr(id, dt); ok {
		return existing.(*T), nil
	}
	obj, err := decode(r)
	if err != nil {
		return nil, err
	}
	s.SetPtr(any(obj), id, dt)
	return obj, nil
}

// ReadObjectNonNull is ReadObject for references the protocol guarantees
// are never nil (e.g. the player's own entity); it turns a NullID on the
// wire into a format error instead of a silent nil.
func ReadObjectNonNull[T any](r *codec.Reader, s *Session, dt DataType, decode func(*codec.Reader) (*T, error)) (*T, error) {
	obj, err := ReadObject(r, s, dt, decode)
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, &codec.FormatError{Kind: codec.KindInvalidDataValue, Msg: "unexpected null object reference"}
	}
	return obj, nil
}
