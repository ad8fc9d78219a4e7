package geom

import (
	"bytes"
	"testing"

	"voxelworld/internal/codec"
)

func TestPositionIRoundTrip(t *testing.T) {
	p := PositionI{X: -5, Y: 64, Z: 1000, Dimension: Nether}
	var buf bytes.Buffer
	if err := p.Write(codec.NewWriter(&buf)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := ReadPositionI(codec.NewReader(&buf))
	if err != nil {
		t.Fatalf("ReadPositionI: %v", err)
	}
	if got != p {
		t.Fatalf("got %v want %v", got, p)
	}
}

func TestPositionFRoundTrip(t *testing.T) {
	p := PositionF{X: 0.5, Y: 65.5, Z: -0.25, Dimension: Overworld}
	var buf bytes.Buffer
	if err := p.Write(codec.NewWriter(&buf)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := ReadPositionF(codec.NewReader(&buf))
	if err != nil {
		t.Fatalf("ReadPositionF: %v", err)
	}
	if got != p {
		t.Fatalf("got %v want %v", got, p)
	}
}

func TestPositionArithmeticAcrossDimensionsPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic mixing dimensions")
		}
	}()
	a := PositionI{Dimension: Overworld}
	b := PositionI{Dimension: Nether}
	a.Add(b)
}

func TestFaceOppositeIsInvolution(t *testing.T) {
	faces := []Face{FaceNX, FacePX, FaceNY, FacePY, FaceNZ, FacePZ}
	for _, f := range faces {
		if f.Opposite().Opposite() != f {
			t.Fatalf("opposite(opposite(%v)) != %v", f, f)
		}
		if FaceVectors[f.Opposite()] != (VectorI{
			X: -FaceVectors[f].X,
			Y: -FaceVectors[f].Y,
			Z: -FaceVectors[f].Z,
		}) {
			t.Fatalf("face vector for opposite of %v is not negated", f)
		}
	}
}

func TestVectorFArithmetic(t *testing.T) {
	a := VectorF{1, 2, 3}
	b := VectorF{4, 5, 6}
	sum := a.Add(b)
	if sum != (VectorF{5, 7, 9}) {
		t.Fatalf("Add = %v", sum)
	}
	if a.Dot(b) != 32 {
		t.Fatalf("Dot = %v, want 32", a.Dot(b))
	}
}
