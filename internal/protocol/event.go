// Package protocol implements the wire framing and message bodies spec §4.6
// describes: one event byte followed by an event-specific payload, plus the
// render-object encoding render-object updates and player snapshots share.
//
// Grounded on _examples/original_source/include/network_protocol.h for event
// framing (the exact NetworkEvent ordering and its readLimitedU8 bounds
// check) and on spec.md §4.6 for the fifth event, SendPlayer, which the
// distillation added beyond the original four.
package protocol

import "voxelworld/internal/codec"

// Event is one message's type tag.
type Event uint8

const (
	// EventUpdateRenderObjects carries a batch of block/entity render-object
	// updates, server -> client.
	EventUpdateRenderObjects Event = iota
	// EventUpdatePositionAndVelocity carries a player's latest input state,
	// client -> server.
	EventUpdatePositionAndVelocity
	// EventRequestChunk asks the server to begin streaming a chunk,
	// client -> server.
	EventRequestChunk
	// EventRequestState asks the client to send its next
	// UpdatePositionAndVelocity, server -> client.
	EventRequestState
	// EventSendPlayer delivers the server-side player entity's render
	// object once per session, server -> client.
	EventSendPlayer

	eventLast
)

// WriteEvent writes a message's one-byte type tag.
func WriteEvent(w *codec.Writer, ev Event) error {
	return w.WriteU8(uint8(ev))
}

// ReadEvent reads and bounds-checks a message's type tag, mirroring the
// original's readLimitedU8(0, Last).
func ReadEvent(r *codec.Reader) (Event, error) {
	v, err := r.ReadLimitedU8(0, uint8(eventLast))
	if err != nil {
		return 0, err
	}
	return Event(v), nil
}
