package color

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/davesmith10/pngcms/internal/color/icctest"
)

func TestParseProfileInfo(t *testing.T) {
	data := icctest.RGB("sRGB test", 2.2)
	pi, err := ParseProfileInfo(data)
	if err != nil {
		t.Fatalf("ParseProfileInfo: %v", err)
	}
	if pi.ColorSpace != "RGB " || pi.PCS != "XYZ " || pi.Class != "mntr" {
		t.Errorf("unexpected header: %+v", pi)
	}
	if pi.Version != "2.1.0" {
		t.Errorf("version = %q, want 2.1.0", pi.Version)
	}
	if int(pi.Size) != len(data) {
		t.Errorf("size = %d, want %d", pi.Size, len(data))
	}
	t.Logf("%s %s profile, %d bytes", ColorSpaceName(pi.ColorSpace), ProfileClassName(pi.Class), pi.Size)
}

func TestParseProfileErrors(t *testing.T) {
	good := icctest.RGB("x", 2.2)

	badMagic := append([]byte(nil), good...)
	copy(badMagic[36:], "nope")

	truncated := append([]byte(nil), good[:132]...)
	binary.BigEndian.PutUint32(truncated[128:], 50)

	tests := map[string][]byte{
		"short":          good[:100],
		"bad magic":      badMagic,
		"no tag table":   good[:128],
		"truncated tags": truncated,
	}
	for name, data := range tests {
		if _, err := ParseProfile(data); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestCurveKinds(t *testing.T) {
	table := make([]byte, 12+2*1024)
	copy(table, "curv")
	binary.BigEndian.PutUint32(table[8:], 1024)
	for i := 0; i < 1024; i++ {
		v := srgbToLinear(float64(i) / 1023)
		binary.BigEndian.PutUint16(table[12+2*i:], uint16(math.Round(v*65535)))
	}

	p, err := ParseProfile(icctest.Profile("RGB ",
		icctest.Identity("lin "),
		icctest.Gamma("g18 ", 1.8),
		icctest.Gamma("g22 ", 2.2),
		icctest.Parametric("pg  ", 0, 2.4),
		icctest.Parametric("psrg", 3, 2.4, 1/1.055, 0.055/1.055, 1/12.92, 0.04045),
		icctest.Parametric("pg4 ", 4, 2.0, 1, 0, 1, 0, 0, 0),
		icctest.Parametric("poff", 1, 2.0, 1, -0.2),
		icctest.Tag{Sig: "tabl", Data: table},
	))
	if err != nil {
		t.Fatalf("ParseProfile: %v", err)
	}

	tests := []struct {
		sig  string
		kind CurveKind
		g    float64
	}{
		{"lin ", CurveLinear, 1},
		{"g18 ", CurveGamma, 1.8},
		{"g22 ", CurveGamma, 2.2},
		{"pg  ", CurveGamma, 2.4},
		{"psrg", CurveSRGB, 2.2},
		{"pg4 ", CurveGamma, 2.0},
		{"poff", CurveOther, math.Log(0.09) / math.Log(0.5)},
		{"tabl", CurveSRGB, 2.2},
	}
	for _, tt := range tests {
		c, err := p.Curve(tt.sig)
		if err != nil {
			t.Errorf("%q: %v", tt.sig, err)
			continue
		}
		if c.Kind != tt.kind || math.Abs(c.Gamma-tt.g) > 0.01 {
			t.Errorf("%q: got %s, want %s %g", tt.sig, c, tt.kind, tt.g)
		}
	}

	if _, err := p.Curve("none"); err == nil {
		t.Error("missing tag: expected error")
	}
}

func TestProfileColorants(t *testing.T) {
	p, err := ParseProfile(icctest.RGB("Display", 1.8))
	if err != nil {
		t.Fatalf("ParseProfile: %v", err)
	}
	x, y, z, err := p.ToXYZ(IntentRelativeColorimetric, 1, 0, 0)
	if err != nil {
		t.Fatalf("ToXYZ: %v", err)
	}
	red, ok := xyzToXY(x, y, z)
	if !ok {
		t.Fatal("red colorant has no chromaticity")
	}
	want, _ := xyzToXY(icctest.RedD50[0], icctest.RedD50[1], icctest.RedD50[2])
	if math.Abs(red.X-want.X) > 1e-3 || math.Abs(red.Y-want.Y) > 1e-3 {
		t.Errorf("red = %+v, want %+v", red, want)
	}
	if _, ok := p.MediaWhite(); !ok {
		t.Error("version 2 profile reports no media white")
	}
	if _, ok := p.Tag("rXYZ"); !ok {
		t.Error("rXYZ tag not found")
	}
}

func TestDescription(t *testing.T) {
	p, err := ParseProfile(icctest.RGB("Adobe RGB (1998)", 2.2))
	if err != nil {
		t.Fatalf("ParseProfile: %v", err)
	}
	if got := p.Description(); got != "Adobe RGB (1998)" {
		t.Errorf("Description = %q", got)
	}
}
