package color

import (
	"errors"
	"fmt"
	"math"
)

// CurveKind classifies a transfer curve.
type CurveKind int

const (
	CurveSRGB CurveKind = iota
	CurveGamma
	CurveLinear
	CurveOther
)

func (k CurveKind) String() string {
	switch k {
	case CurveSRGB:
		return "sRGB"
	case CurveGamma:
		return "gamma"
	case CurveLinear:
		return "linear"
	default:
		return "other"
	}
}

// Curve is a per-channel transfer curve. Gamma is the exponent for
// CurveGamma and an approximation for CurveOther.
type Curve struct {
	Kind  CurveKind
	Gamma float64
}

var (
	SRGBCurve = Curve{Kind: CurveSRGB, Gamma: 2.2}
	Linear    = Curve{Kind: CurveLinear, Gamma: 1}
	Gamma22   = Curve{Kind: CurveGamma, Gamma: 2.2}
)

// Is22 reports whether the curve is sRGB-shaped or a pure 2.2 gamma.
func (c Curve) Is22() bool {
	return c.Kind == CurveSRGB || (c.Kind == CurveGamma && math.Abs(c.Gamma-2.2) < 0.01)
}

func (c Curve) String() string {
	if c.Kind == CurveGamma || c.Kind == CurveOther {
		return fmt.Sprintf("%s %.4g", c.Kind, c.Gamma)
	}
	return c.Kind.String()
}

// Chromaticity is a CIE xy coordinate.
type Chromaticity struct {
	X, Y float64
}

// Chromaticities holds a white point and the three primaries.
type Chromaticities struct {
	White, Red, Green, Blue Chromaticity
}

// SRGBChromaticities are the Rec. 709 primaries with a D65 white point.
var SRGBChromaticities = Chromaticities{
	White: Chromaticity{0.3127, 0.3290},
	Red:   Chromaticity{0.6400, 0.3300},
	Green: Chromaticity{0.3000, 0.6000},
	Blue:  Chromaticity{0.1500, 0.0600},
}

// Space describes the color space of an image. A nil *Space means sRGB.
// Values are immutable once resolved.
type Space struct {
	Name string
	Chromaticities
	TRC  [3]Curve
	ICC  []byte
	CMYK bool
}

// SRGB is the well-known sRGB space.
var SRGB = &Space{
	Name:           "sRGB",
	Chromaticities: SRGBChromaticities,
	TRC:            [3]Curve{SRGBCurve, SRGBCurve, SRGBCurve},
}

// IsSRGB reports whether s is nil or the well-known sRGB space.
func (s *Space) IsSRGB() bool {
	return s == nil || s == SRGB
}

func (s *Space) String() string {
	if s.IsSRGB() {
		return "sRGB"
	}
	if s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("chromaticities w=(%.4f,%.4f) trc=%s", s.White.X, s.White.Y, s.TRC[0])
}

// FromChromaticities builds a space with the same curve on all channels.
func FromChromaticities(name string, c Chromaticities, trc Curve) *Space {
	return &Space{Name: name, Chromaticities: c, TRC: [3]Curve{trc, trc, trc}}
}

// FromICC derives a space from an embedded ICC profile. RGB matrix/TRC
// profiles contribute their primaries and curves; gray and CMYK profiles keep
// the sRGB primaries.
func FromICC(data []byte) (*Space, error) {
	p, err := ParseProfile(data)
	if err != nil {
		return nil, err
	}
	s := &Space{
		Name:           p.Description(),
		Chromaticities: SRGBChromaticities,
		TRC:            [3]Curve{SRGBCurve, SRGBCurve, SRGBCurve},
		ICC:            data,
	}
	switch p.ColorSpace {
	case "RGB ":
		if err := s.readPrimaries(p); err != nil {
			return nil, err
		}
		for i, tag := range [3]string{"rTRC", "gTRC", "bTRC"} {
			c, err := p.Curve(tag)
			if err != nil {
				return nil, err
			}
			s.TRC[i] = c
		}
	case "GRAY":
		c, err := p.Curve("kTRC")
		if err != nil {
			return nil, err
		}
		s.TRC = [3]Curve{c, c, c}
	case "CMYK":
		s.CMYK = true
	default:
		return nil, fmt.Errorf("unsupported ICC color space %q", p.ColorSpace)
	}
	return s, nil
}

func (s *Space) readPrimaries(p *Profile) error {
	if wp, ok := p.MediaWhite(); ok {
		s.White = wp
	}
	for _, prim := range []struct {
		device [3]float64
		dst    *Chromaticity
	}{
		{[3]float64{1, 0, 0}, &s.Red},
		{[3]float64{0, 1, 0}, &s.Green},
		{[3]float64{0, 0, 1}, &s.Blue},
	} {
		x, y, z, err := p.ToXYZ(IntentRelativeColorimetric, prim.device[:]...)
		if err != nil {
			return err
		}
		c, ok := xyzToXY(x, y, z)
		if !ok {
			return errors.New("ICC colorant has zero luminance sum")
		}
		*prim.dst = c
	}
	return nil
}

func xyzToXY(x, y, z float64) (Chromaticity, bool) {
	sum := x + y + z
	if sum == 0 {
		return Chromaticity{}, false
	}
	return Chromaticity{X: x / sum, Y: y / sum}, true
}
