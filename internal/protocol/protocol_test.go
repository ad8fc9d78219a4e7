package protocol

import (
	"bytes"
	"testing"

	"voxelworld/internal/codec"
	"voxelworld/internal/entity"
	"voxelworld/internal/geom"
	"voxelworld/internal/registry"
	"voxelworld/internal/voxel"
)

func TestEventRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := codec.NewWriter(&buf)
	if err := WriteEvent(w, EventRequestChunk); err != nil {
		t.Fatal(err)
	}
	r := codec.NewReader(&buf)
	got, err := ReadEvent(r)
	if err != nil {
		t.Fatal(err)
	}
	if got != EventRequestChunk {
		t.Fatalf("got %v, want %v", got, EventRequestChunk)
	}
}

func TestUpdateRenderObjectsRoundTrip(t *testing.T) {
	reg := registry.Builtin()
	stone, _ := reg.Block("stone")
	player, _ := reg.Entity("player")

	msg := UpdateRenderObjectsMsg{
		Objects: []RenderObject{
			{
				Tag: RenderObjectBlock,
				Block: &BlockUpdate{
					Position: geom.PositionI{X: 1, Y: 2, Z: 3, Dimension: geom.Overworld},
					Block:    voxel.BlockData{Descriptor: stone},
				},
			},
			{
				Tag: RenderObjectEntity,
				Entity: &EntitySnapshot{
					ID:         entity.ID(7),
					Descriptor: player,
					Position:   geom.PositionF{X: 1.5, Y: 2.5, Z: 3.5, Dimension: geom.Overworld},
					Velocity:   geom.VectorF{X: 0, Y: -1, Z: 0},
				},
			},
		},
	}

	var buf bytes.Buffer
	w := codec.NewWriter(&buf)
	writeTable := codec.NewInternTable()
	if err := WriteUpdateRenderObjects(w, writeTable, msg); err != nil {
		t.Fatalf("write: %v", err)
	}

	r := codec.NewReader(&buf)
	event, err := ReadEvent(r)
	if err != nil {
		t.Fatalf("read event: %v", err)
	}
	if event != EventUpdateRenderObjects {
		t.Fatalf("event = %v, want EventUpdateRenderObjects", event)
	}
	readTable := codec.NewInternTable()
	got, err := ReadUpdateRenderObjectsBody(r, readTable, reg)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if len(got.Objects) != 2 {
		t.Fatalf("got %d objects, want 2", len(got.Objects))
	}
	if got.Objects[0].Block.Block.Descriptor != stone {
		t.Fatalf("block descriptor mismatch: %+v", got.Objects[0].Block)
	}
	if got.Objects[1].Entity.ID != entity.ID(7) || got.Objects[1].Entity.Descriptor != player {
		t.Fatalf("entity snapshot mismatch: %+v", got.Objects[1].Entity)
	}
}

func TestUpdatePositionAndVelocityRoundTrip(t *testing.T) {
	msg := UpdatePositionAndVelocityMsg{
		Position:     geom.PositionF{X: 10, Y: 20, Z: 30, Dimension: geom.Overworld},
		Velocity:     geom.VectorF{X: 1, Y: 0, Z: -1},
		Phi:          0.5,
		Theta:        1.2,
		ViewDistance: 8,
		Flying:       true,
		Age:          3.25,
	}
	var buf bytes.Buffer
	w := codec.NewWriter(&buf)
	if err := WriteUpdatePositionAndVelocity(w, msg); err != nil {
		t.Fatal(err)
	}
	r := codec.NewReader(&buf)
	event, err := ReadEvent(r)
	if err != nil || event != EventUpdatePositionAndVelocity {
		t.Fatalf("event = %v, %v", event, err)
	}
	got, err := ReadUpdatePositionAndVelocityBody(r)
	if err != nil {
		t.Fatal(err)
	}
	if got != msg {
		t.Fatalf("got %+v, want %+v", got, msg)
	}
}

func TestRequestChunkRoundTrip(t *testing.T) {
	msg := RequestChunkMsg{Origin: geom.PositionI{X: 16, Z: 32, Dimension: geom.Overworld}, Size: 4}
	var buf bytes.Buffer
	w := codec.NewWriter(&buf)
	if err := WriteRequestChunk(w, msg); err != nil {
		t.Fatal(err)
	}
	r := codec.NewReader(&buf)
	event, err := ReadEvent(r)
	if err != nil || event != EventRequestChunk {
		t.Fatalf("event = %v, %v", event, err)
	}
	got, err := ReadRequestChunkBody(r)
	if err != nil {
		t.Fatal(err)
	}
	if got != msg {
		t.Fatalf("got %+v, want %+v", got, msg)
	}
}

func TestSendPlayerRoundTrip(t *testing.T) {
	reg := registry.Builtin()
	player, _ := reg.Entity("player")
	msg := SendPlayerMsg{Entity: EntitySnapshot{
		ID:         entity.ID(1),
		Descriptor: player,
		Position:   geom.PositionF{Dimension: geom.Overworld},
	}}
	var buf bytes.Buffer
	w := codec.NewWriter(&buf)
	table := codec.NewInternTable()
	if err := WriteSendPlayer(w, table, msg); err != nil {
		t.Fatal(err)
	}
	r := codec.NewReader(&buf)
	event, err := ReadEvent(r)
	if err != nil || event != EventSendPlayer {
		t.Fatalf("event = %v, %v", event, err)
	}
	got, err := ReadSendPlayerBody(r, codec.NewInternTable(), reg)
	if err != nil {
		t.Fatal(err)
	}
	if got.Entity.ID != msg.Entity.ID || got.Entity.Descriptor != player {
		t.Fatalf("got %+v", got)
	}
}

func TestRequestStateHasNoBody(t *testing.T) {
	var buf bytes.Buffer
	w := codec.NewWriter(&buf)
	if err := WriteRequestState(w); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 1 {
		t.Fatalf("expected a single event byte, got %d bytes", buf.Len())
	}
}
