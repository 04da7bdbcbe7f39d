package color

import (
	"fmt"
	"math"
)

// Intent is a rendering intent. Values match both the ICC header field and
// the PNG sRGB chunk.
type Intent uint8

// Rendering intents.
const (
	IntentPerceptual           Intent = 0
	IntentRelativeColorimetric Intent = 1
	IntentSaturation           Intent = 2
	IntentAbsoluteColorimetric Intent = 3
)

// ParseIntent converts a string intent name to an Intent.
func ParseIntent(s string) (Intent, error) {
	switch s {
	case "perceptual":
		return IntentPerceptual, nil
	case "relative":
		return IntentRelativeColorimetric, nil
	case "saturation":
		return IntentSaturation, nil
	case "absolute":
		return IntentAbsoluteColorimetric, nil
	default:
		return 0, fmt.Errorf("unknown rendering intent: %q", s)
	}
}

func (i Intent) String() string {
	switch i {
	case IntentPerceptual:
		return "perceptual"
	case IntentRelativeColorimetric:
		return "relative"
	case IntentSaturation:
		return "saturation"
	case IntentAbsoluteColorimetric:
		return "absolute"
	default:
		return fmt.Sprintf("Intent(%d)", uint8(i))
	}
}

// Default gammas used when a PNG carries no color information.
const (
	DefaultFileGamma   = 0.45455
	DefaultScreenGamma = 2.2
)

// gammaThreshold is the smallest deviation from 1 of the combined exponent
// that is worth correcting.
const gammaThreshold = 0.05

// Transform applies a gamma correction to gamma-encoded samples.
type Transform struct {
	exp   float64
	lut8  []uint8
	lut16 []uint16
}

// NewGammaTransform returns the correction that maps samples encoded with
// fileGamma to a display with screenGamma. It returns nil when the combined
// exponent is too close to 1 to matter.
func NewGammaTransform(screenGamma, fileGamma float64) (*Transform, error) {
	if screenGamma <= 0 || fileGamma <= 0 {
		return nil, fmt.Errorf("invalid gamma pair screen=%g file=%g", screenGamma, fileGamma)
	}
	exp := 1 / (screenGamma * fileGamma)
	if math.Abs(exp-1) < gammaThreshold {
		return nil, nil
	}
	return &Transform{exp: exp}, nil
}

// Exponent returns the exponent applied to normalized samples.
func (t *Transform) Exponent() float64 {
	return t.exp
}

// TransformRow corrects the color channels of one row in place. Alpha
// channels (the last of each pixel when hasAlpha) are left alone. 16-bit
// samples are big-endian.
func (t *Transform) TransformRow(row []byte, channels, depth int, hasAlpha bool) {
	if t == nil {
		return
	}
	nColor := channels
	if hasAlpha {
		nColor--
	}
	if depth == 16 {
		lut := t.table16()
		for i := 0; i+2*channels <= len(row); i += 2 * channels {
			for c := 0; c < nColor; c++ {
				o := i + 2*c
				v := lut[uint16(row[o])<<8|uint16(row[o+1])]
				row[o], row[o+1] = byte(v>>8), byte(v)
			}
		}
		return
	}
	lut := t.table8()
	for i := 0; i+channels <= len(row); i += channels {
		for c := 0; c < nColor; c++ {
			row[i+c] = lut[row[i+c]]
		}
	}
}

func (t *Transform) table8() []uint8 {
	if t.lut8 == nil {
		t.lut8 = make([]uint8, 256)
		for i := range t.lut8 {
			t.lut8[i] = uint8(math.Round(math.Pow(float64(i)/255, t.exp) * 255))
		}
	}
	return t.lut8
}

func (t *Transform) table16() []uint16 {
	if t.lut16 == nil {
		t.lut16 = make([]uint16, 65536)
		for i := range t.lut16 {
			t.lut16[i] = uint16(math.Round(math.Pow(float64(i)/65535, t.exp) * 65535))
		}
	}
	return t.lut16
}
