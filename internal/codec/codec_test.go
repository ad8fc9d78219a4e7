package codec

import (
	"bytes"
	"math"
	"testing"
)

func TestPrimitiveRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	if err := w.WriteU8(0xAB); err != nil {
		t.Fatalf("WriteU8: %v", err)
	}
	if err := w.WriteS16(-1234); err != nil {
		t.Fatalf("WriteS16: %v", err)
	}
	if err := w.WriteU32(0xDEADBEEF); err != nil {
		t.Fatalf("WriteU32: %v", err)
	}
	if err := w.WriteU64(0x0102030405060708); err != nil {
		t.Fatalf("WriteU64: %v", err)
	}
	if err := w.WriteF32(3.5); err != nil {
		t.Fatalf("WriteF32: %v", err)
	}
	if err := w.WriteF64(math.Pi); err != nil {
		t.Fatalf("WriteF64: %v", err)
	}
	if err := w.WriteBool(true); err != nil {
		t.Fatalf("WriteBool: %v", err)
	}

	r := NewReader(&buf)
	if v, err := r.ReadU8(); err != nil || v != 0xAB {
		t.Fatalf("ReadU8 = %v, %v", v, err)
	}
	if v, err := r.ReadS16(); err != nil || v != -1234 {
		t.Fatalf("ReadS16 = %v, %v", v, err)
	}
	if v, err := r.ReadU32(); err != nil || v != 0xDEADBEEF {
		t.Fatalf("ReadU32 = %v, %v", v, err)
	}
	if v, err := r.ReadU64(); err != nil || v != 0x0102030405060708 {
		t.Fatalf("ReadU64 = %v, %v", v, err)
	}
	if v, err := r.ReadF32(); err != nil || v != 3.5 {
		t.Fatalf("ReadF32 = %v, %v", v, err)
	}
	if v, err := r.ReadF64(); err != nil || v != math.Pi {
		t.Fatalf("ReadF64 = %v, %v", v, err)
	}
	if v, err := r.ReadBool(); err != nil || v != true {
		t.Fatalf("ReadBool = %v, %v", v, err)
	}
}

func TestStringRoundTrip(t *testing.T) {
	cases := []string{"", "hello", "chunk (0,0)", "日本語", "emoji \U0001F600", "ab߿c"}
	for _, s := range cases {
		var buf bytes.Buffer
		w := NewWriter(&buf)
		if err := w.WriteString(s); err != nil {
			t.Fatalf("WriteString(%q): %v", s, err)
		}
		r := NewReader(&buf)
		got, err := r.ReadString()
		if err != nil {
			t.Fatalf("ReadString(%q): %v", s, err)
		}
		if got != s {
			t.Fatalf("round trip mismatch: got %q want %q", got, s)
		}
	}
}

func TestReadStringRejectsOverlongCodepoint(t *testing.T) {
	var buf bytes.Buffer
	// Encode a 4-byte sequence for 0x110000, one past the valid range.
	buf.Write([]byte{0xF4, 0x90, 0x80, 0x80, 0x00})
	r := NewReader(&buf)
	_, err := r.ReadString()
	if !IsKind(err, KindUTFDataFormat) {
		t.Fatalf("expected KindUTFDataFormat, got %v", err)
	}
}

func TestLimitedReadersRejectOutOfRange(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	_ = w.WriteU8(200)
	r := NewReader(&buf)
	_, err := r.ReadLimitedU8(0, 100)
	if !IsKind(err, KindInvalidDataValue) {
		t.Fatalf("expected KindInvalidDataValue, got %v", err)
	}
}

func TestFiniteFloatRejectsNaNAndInf(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	_ = w.WriteF32(float32(math.NaN()))
	_ = w.WriteF32(float32(math.Inf(1)))
	r := NewReader(&buf)
	if _, err := r.ReadFiniteF32(); !IsKind(err, KindInvalidDataValue) {
		t.Fatalf("expected NaN rejection, got %v", err)
	}
	if _, err := r.ReadFiniteF32(); !IsKind(err, KindInvalidDataValue) {
		t.Fatalf("expected Inf rejection, got %v", err)
	}
}

func TestLZ77RoundTrip(t *testing.T) {
	cases := [][]byte{
		nil,
		[]byte("a"),
		[]byte("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"),
		[]byte("the quick brown fox jumps over the lazy dog the quick brown fox"),
		bytes.Repeat([]byte{0x00, 0xFF, 0x42}, 500),
	}
	for _, data := range cases {
		compressed := Compress(data)
		got, err := Decompress(compressed)
		if err != nil {
			t.Fatalf("Decompress: %v", err)
		}
		if !bytes.Equal(got, data) {
			t.Fatalf("round trip mismatch: got %v want %v", got, data)
		}
	}
}

func TestLZ77RejectsOffsetOutsideWindow(t *testing.T) {
	// length=1 (upper 6 bits), offset=1000 (lower 10 bits, within range but
	// there is no history yet) -> offset > len(out) should fail.
	code := uint16(1)<<10 | uint16(1000)
	data := []byte{byte(code >> 8), byte(code), 'x'}
	if _, err := Decompress(data); !IsKind(err, KindLZ77Format) {
		t.Fatalf("expected KindLZ77Format, got %v", err)
	}
}

func TestFileHeaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := WriteFileHeader(w, 1); err != nil {
		t.Fatalf("WriteFileHeader: %v", err)
	}
	r := NewReader(&buf)
	version, err := ReadFileHeader(r, CurrentFileVersion)
	if err != nil {
		t.Fatalf("ReadFileHeader: %v", err)
	}
	if version != 1 {
		t.Fatalf("version = %d, want 1", version)
	}
}

func TestFileHeaderRejectsBadMagic(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("NOTVOXEL")
	w := NewWriter(&buf)
	_ = w.WriteU32(1)
	r := NewReader(bytes.NewReader(buf.Bytes()))
	if _, err := ReadFileHeader(r, CurrentFileVersion); !IsKind(err, KindInvalidFileFormat) {
		t.Fatalf("expected KindInvalidFileFormat, got %v", err)
	}
}

func TestFileHeaderRejectsFutureVersion(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	_ = WriteFileHeader(w, 99)
	r := NewReader(&buf)
	if _, err := ReadFileHeader(r, CurrentFileVersion); !IsKind(err, KindVersionTooNew) {
		t.Fatalf("expected KindVersionTooNew, got %v", err)
	}
}

func TestInternTableRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	wt := NewInternTable()
	names := []string{"air", "stone", "air", "dirt", "stone"}
	for _, n := range names {
		if err := wt.WriteName(w, n); err != nil {
			t.Fatalf("WriteName(%q): %v", n, err)
		}
	}

	r := NewReader(&buf)
	rt := NewInternTable()
	known := map[string]bool{"air": true, "stone": true, "dirt": true}
	for _, want := range names {
		got, err := rt.ReadName(r, func(n string) bool { return known[n] })
		if err != nil {
			t.Fatalf("ReadName: %v", err)
		}
		if got != want {
			t.Fatalf("got %q want %q", got, want)
		}
	}
}

func TestInternTableRejectsUnknownName(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	wt := NewInternTable()
	_ = wt.WriteName(w, "phantom")

	r := NewReader(&buf)
	rt := NewInternTable()
	_, err := rt.ReadName(r, func(n string) bool { return false })
	if !IsKind(err, KindInvalidDataValue) {
		t.Fatalf("expected KindInvalidDataValue, got %v", err)
	}
}
