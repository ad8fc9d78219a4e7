package registry

import (
	"bytes"
	"testing"

	"voxelworld/internal/codec"
)

func TestRegisterDuplicatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate block name")
		}
	}()
	r := New()
	r.RegisterBlock(&BlockDescriptor{Name: "stone"})
	r.RegisterBlock(&BlockDescriptor{Name: "stone"})
}

func TestRegisterAfterSealPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic registering after Seal")
		}
	}()
	r := New()
	r.Seal()
	r.RegisterBlock(&BlockDescriptor{Name: "stone"})
}

func TestBlockRefRoundTrip(t *testing.T) {
	reg := Builtin()
	stone, _ := reg.Block("stone")

	var buf bytes.Buffer
	w := codec.NewWriter(&buf)
	table := codec.NewInternTable()
	if err := WriteBlockRef(w, table, stone); err != nil {
		t.Fatalf("WriteBlockRef: %v", err)
	}
	// write it twice to exercise the intern-table's second-occurrence path
	if err := WriteBlockRef(w, table, stone); err != nil {
		t.Fatalf("WriteBlockRef (2nd): %v", err)
	}
	if err := WriteBlockRef(w, table, nil); err != nil {
		t.Fatalf("WriteBlockRef (nil): %v", err)
	}

	r := codec.NewReader(&buf)
	readTable := codec.NewInternTable()
	got, err := ReadBlockRef(r, readTable, reg)
	if err != nil {
		t.Fatalf("ReadBlockRef: %v", err)
	}
	if got != stone {
		t.Fatalf("got %v want %v", got, stone)
	}
	got2, err := ReadBlockRef(r, readTable, reg)
	if err != nil {
		t.Fatalf("ReadBlockRef (2nd): %v", err)
	}
	if got2 != stone {
		t.Fatalf("2nd occurrence: got %v want %v", got2, stone)
	}
	gotNil, err := ReadBlockRef(r, readTable, reg)
	if err != nil {
		t.Fatalf("ReadBlockRef (nil): %v", err)
	}
	if gotNil != nil {
		t.Fatalf("expected nil, got %v", gotNil)
	}
}

func TestReadBlockRefRejectsUnknownName(t *testing.T) {
	reg := Builtin()
	other := New()
	other.RegisterBlock(&BlockDescriptor{Name: "unobtainium"})
	other.Seal()
	unobtainium, _ := other.Block("unobtainium")

	var buf bytes.Buffer
	w := codec.NewWriter(&buf)
	table := codec.NewInternTable()
	if err := WriteBlockRef(w, table, unobtainium); err != nil {
		t.Fatalf("WriteBlockRef: %v", err)
	}

	r := codec.NewReader(&buf)
	_, err := ReadBlockRef(r, codec.NewInternTable(), reg)
	if !codec.IsKind(err, codec.KindInvalidDataValue) {
		t.Fatalf("expected KindInvalidDataValue, got %v", err)
	}
}

func TestBuiltinIsSealedAndComplete(t *testing.T) {
	reg := Builtin()
	for _, name := range []string{"air", "bedrock", "stone", "dirt", "grass", "water", "sand"} {
		if !reg.HasBlock(name) {
			t.Fatalf("Builtin registry missing block %q", name)
		}
	}
	if !reg.HasEntity("player") {
		t.Fatal("Builtin registry missing entity \"player\"")
	}
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic registering into sealed Builtin registry")
		}
	}()
	reg.RegisterBlock(&BlockDescriptor{Name: "extra"})
}
