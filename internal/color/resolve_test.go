package color_test

import (
	"math"
	"testing"

	"github.com/davesmith10/pngcms/internal/color"
	"github.com/davesmith10/pngcms/internal/color/icctest"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func intent(i color.Intent) *color.Intent { return &i }

func TestResolveICCBeatsSRGB(t *testing.T) {
	res := color.Resolve(color.Chunks{
		ICC:   &color.ICCChunk{Name: "icc", Profile: icctest.RGB("Wide", 1.8)},
		SRGB:  intent(color.IntentPerceptual),
		Gamma: 0.45455,
	})
	if res.Source != color.SourceICC {
		t.Fatalf("source = %s, want iCCP", res.Source)
	}
	if res.Space.IsSRGB() {
		t.Fatal("ICC profile resolved to sRGB")
	}
	if res.Space.Name != "Wide" {
		t.Errorf("name = %q, want %q", res.Space.Name, "Wide")
	}
	if len(res.Space.ICC) == 0 {
		t.Error("resolved space dropped the profile bytes")
	}
}

func TestResolveBadICCFallsThrough(t *testing.T) {
	res := color.Resolve(color.Chunks{
		ICC:  &color.ICCChunk{Name: "junk", Profile: []byte("not a profile")},
		SRGB: intent(color.IntentRelativeColorimetric),
	})
	if res.Source != color.SourceSRGB {
		t.Fatalf("source = %s, want sRGB", res.Source)
	}
	if res.ICCError == nil {
		t.Error("expected ICCError for an unparsable profile")
	}
	if !res.Space.IsSRGB() {
		t.Errorf("space = %s, want sRGB", res.Space)
	}
}

func TestResolveGamma(t *testing.T) {
	for _, g := range []float64{0.45455, 0.5, 0.8, 1.0, 2.2} {
		res := color.Resolve(color.Chunks{Gamma: g})
		if res.Source != color.SourceGamma {
			t.Fatalf("g=%g: source = %s, want gAMA", g, res.Source)
		}
		if diff := cmp.Diff(color.SRGBChromaticities, res.Space.Chromaticities); diff != "" {
			t.Errorf("g=%g: chromaticities mismatch (-want +got):\n%s", g, diff)
		}
		for i, c := range res.Space.TRC {
			if math.Abs(c.Gamma-1/g) > 1e-9 {
				t.Errorf("g=%g: TRC[%d] exponent = %g, want %g", g, i, c.Gamma, 1/g)
			}
		}
		if g == 1 && res.Space.TRC[0].Kind != color.CurveLinear {
			t.Errorf("g=1: curve kind = %s, want linear", res.Space.TRC[0].Kind)
		}
	}
}

func TestResolveGammaWithChromaticities(t *testing.T) {
	chrm := color.Chromaticities{
		White: color.Chromaticity{X: 0.3457, Y: 0.3585},
		Red:   color.Chromaticity{X: 0.7347, Y: 0.2653},
		Green: color.Chromaticity{X: 0.1596, Y: 0.8404},
		Blue:  color.Chromaticity{X: 0.0366, Y: 0.0001},
	}
	res := color.Resolve(color.Chunks{Gamma: 0.5, Chrm: &chrm})
	if diff := cmp.Diff(chrm, res.Space.Chromaticities); diff != "" {
		t.Errorf("chromaticities mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveUnresolved(t *testing.T) {
	// cHRM alone does not describe a space.
	res := color.Resolve(color.Chunks{Chrm: &color.SRGBChromaticities})
	if !res.Unresolved() {
		t.Fatalf("source = %s, want none", res.Source)
	}
	if res.Space != nil {
		t.Errorf("space = %v, want nil", res.Space)
	}
}

func TestEmit(t *testing.T) {
	rel := color.IntentRelativeColorimetric
	linear := color.FromChromaticities("lin", color.SRGBChromaticities, color.Linear)
	gamma18 := color.FromChromaticities("g18", color.SRGBChromaticities, color.Curve{Kind: color.CurveGamma, Gamma: 1.8})
	srgbShaped := color.FromChromaticities("", color.SRGBChromaticities, color.SRGBCurve)
	chrm := color.SRGBChromaticities

	tests := []struct {
		name  string
		space *color.Space
		want  color.Emission
	}{
		{"nil", nil, color.Emission{SRGB: &rel}},
		{"srgb", color.SRGB, color.Emission{SRGB: &rel}},
		{"linear", linear, color.Emission{Gamma: 1.0, Chrm: &chrm}},
		{"gamma 1.8 falls back to 2.2", gamma18, color.Emission{Gamma: 2.2, Chrm: &chrm}},
		{"srgb-shaped", srgbShaped, color.Emission{Gamma: 2.2, Chrm: &chrm}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := color.Emit(tt.space, rel)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Emit mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEmitCMYKNeverCarriesProfile(t *testing.T) {
	space, err := color.FromICC(icctest.CMYK("Coated"))
	if err != nil {
		t.Fatalf("FromICC: %v", err)
	}
	if !space.CMYK {
		t.Fatal("CMYK profile not flagged CMYK")
	}
	em := color.Emit(space, color.IntentPerceptual)
	if em.ICC != nil {
		t.Error("CMYK space emitted an ICC profile")
	}
	if em.Gamma != 2.2 || em.Chrm == nil || em.SRGB != nil {
		t.Errorf("unexpected emission for CMYK: %+v", em)
	}
}

func TestEmitProfileName(t *testing.T) {
	tests := []struct {
		name, want string
	}{
		{"Short", "Short"},
		{"0123456789", "0123456789"},
		{"A very long profile description", "GEGL"},
		{"", "GEGL"},
		{"Caf\xe9", "GEGL"},
	}
	for _, tt := range tests {
		space, err := color.FromICC(icctest.RGB(tt.name, 1.8))
		if err != nil {
			t.Fatalf("FromICC(%q): %v", tt.name, err)
		}
		em := color.Emit(space, color.IntentPerceptual)
		if em.ICC == nil {
			t.Fatalf("%q: no ICC emitted", tt.name)
		}
		if em.ICC.Name != tt.want {
			t.Errorf("%q: keyword = %q, want %q", tt.name, em.ICC.Name, tt.want)
		}
	}
}

func TestFromICCRGB(t *testing.T) {
	space, err := color.FromICC(icctest.RGB("Display", 2.2))
	if err != nil {
		t.Fatalf("FromICC: %v", err)
	}
	xy := func(v [3]float64) color.Chromaticity {
		s := v[0] + v[1] + v[2]
		return color.Chromaticity{X: v[0] / s, Y: v[1] / s}
	}
	want := color.Chromaticities{
		White: xy(icctest.WhiteD50),
		Red:   xy(icctest.RedD50),
		Green: xy(icctest.GreenD50),
		Blue:  xy(icctest.BlueD50),
	}
	if diff := cmp.Diff(want, space.Chromaticities, cmpopts.EquateApprox(0, 1e-4)); diff != "" {
		t.Errorf("primaries mismatch (-want +got):\n%s", diff)
	}
	for i, c := range space.TRC {
		if !c.Is22() {
			t.Errorf("TRC[%d] = %s, want 2.2", i, c)
		}
	}
	if space.CMYK {
		t.Error("RGB profile flagged CMYK")
	}
}

func TestFromICCGray(t *testing.T) {
	space, err := color.FromICC(icctest.Gray("Gray", 1.0))
	if err != nil {
		t.Fatalf("FromICC: %v", err)
	}
	for i, c := range space.TRC {
		if c.Kind != color.CurveLinear {
			t.Errorf("TRC[%d] = %s, want linear", i, c)
		}
	}
}
