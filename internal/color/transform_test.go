package color

import (
	"math"
	"testing"
)

func TestGammaTransformInsignificant(t *testing.T) {
	xf, err := NewGammaTransform(DefaultScreenGamma, DefaultFileGamma)
	if err != nil {
		t.Fatalf("NewGammaTransform: %v", err)
	}
	if xf != nil {
		t.Fatalf("expected no correction, got exponent %g", xf.Exponent())
	}
	// A nil transform leaves rows alone.
	row := []byte{1, 2, 3}
	xf.TransformRow(row, 3, 8, false)
	if row[0] != 1 || row[1] != 2 || row[2] != 3 {
		t.Errorf("nil transform modified row: %v", row)
	}
}

func TestGammaTransformRow8(t *testing.T) {
	xf, err := NewGammaTransform(2.2, 1.0)
	if err != nil {
		t.Fatalf("NewGammaTransform: %v", err)
	}
	if math.Abs(xf.Exponent()-1/2.2) > 1e-12 {
		t.Fatalf("exponent = %g", xf.Exponent())
	}
	row := []byte{0, 255, 64, 64}
	xf.TransformRow(row, 2, 8, true)
	want0 := byte(0)
	want2 := byte(math.Round(math.Pow(64.0/255, 1/2.2) * 255))
	if row[0] != want0 || row[1] != 255 || row[2] != want2 || row[3] != 64 {
		t.Errorf("row = %v, want [%d 255 %d 64]", row, want0, want2)
	}
}

func TestGammaTransformRow16(t *testing.T) {
	xf, err := NewGammaTransform(1.0, 2.0)
	if err != nil {
		t.Fatalf("NewGammaTransform: %v", err)
	}
	// One RGB pixel, big-endian.
	row := []byte{0x80, 0x00, 0xff, 0xff, 0x00, 0x00}
	xf.TransformRow(row, 3, 16, false)
	got := uint16(row[0])<<8 | uint16(row[1])
	want := uint16(math.Round(math.Pow(float64(0x8000)/65535, 0.5) * 65535))
	if got != want {
		t.Errorf("sample 0 = %#04x, want %#04x", got, want)
	}
	if row[2] != 0xff || row[3] != 0xff || row[4] != 0 || row[5] != 0 {
		t.Errorf("end points moved: %v", row[2:])
	}
}

func TestGammaTransformInvalid(t *testing.T) {
	if _, err := NewGammaTransform(0, 0.45); err == nil {
		t.Error("expected error for zero screen gamma")
	}
}

func TestParseIntent(t *testing.T) {
	for _, i := range []Intent{IntentPerceptual, IntentRelativeColorimetric, IntentSaturation, IntentAbsoluteColorimetric} {
		got, err := ParseIntent(i.String())
		if err != nil || got != i {
			t.Errorf("ParseIntent(%q) = %v, %v", i.String(), got, err)
		}
	}
	if _, err := ParseIntent("vivid"); err == nil {
		t.Error("expected error for unknown intent")
	}
}
