package color

import "strings"

// ICCChunk is an embedded profile with its keyword, already inflated.
type ICCChunk struct {
	Name    string
	Profile []byte
}

// Chunks holds the color-related ancillary chunks of a PNG. Gamma is the
// decoded gAMA value (e.g. 0.45455) and zero when absent.
type Chunks struct {
	ICC   *ICCChunk
	SRGB  *Intent
	Gamma float64
	Chrm  *Chromaticities
}

// Source tells which chunk a Resolution came from.
type Source int

const (
	SourceNone Source = iota
	SourceICC
	SourceSRGB
	SourceGamma
)

func (s Source) String() string {
	switch s {
	case SourceICC:
		return "iCCP"
	case SourceSRGB:
		return "sRGB"
	case SourceGamma:
		return "gAMA"
	default:
		return "none"
	}
}

// Resolution is the outcome of Resolve. ICCError is set when an iCCP chunk
// was present but could not be used; resolution then continued with the
// remaining chunks.
type Resolution struct {
	Space    *Space
	Source   Source
	ICCError error
}

// Unresolved reports whether no chunk described the color space. Callers
// treat the image as sRGB but apply the default gamma correction.
func (r Resolution) Unresolved() bool {
	return r.Source == SourceNone
}

// Resolve picks the color space described by a PNG's chunks. An ICC profile
// wins over everything else, then the sRGB chunk, then gAMA (with cHRM or the
// sRGB primaries).
func Resolve(ch Chunks) Resolution {
	var res Resolution
	if ch.ICC != nil {
		s, err := FromICC(ch.ICC.Profile)
		if err == nil {
			if s.Name == "" {
				s.Name = ch.ICC.Name
			}
			return Resolution{Space: s, Source: SourceICC}
		}
		res.ICCError = err
	}
	if ch.SRGB != nil {
		res.Space, res.Source = SRGB, SourceSRGB
		return res
	}
	if ch.Gamma > 0 {
		prim := SRGBChromaticities
		if ch.Chrm != nil {
			prim = *ch.Chrm
		}
		trc := Curve{Kind: CurveGamma, Gamma: 1 / ch.Gamma}
		if ch.Gamma == 1 {
			trc = Linear
		}
		res.Space = FromChromaticities("", prim, trc)
		res.Source = SourceGamma
		return res
	}
	return res
}

// Emission lists the color chunks to write for a space. Gamma is zero when
// no gAMA chunk is to be written.
type Emission struct {
	SRGB  *Intent
	Gamma float64
	Chrm  *Chromaticities
	ICC   *ICCChunk
}

// placeholderProfileName replaces profile names too long for the keyword.
const (
	placeholderProfileName = "GEGL"
	maxProfileNameLen      = 10
)

// Emit picks the chunks describing space. sRGB (or nil) gets the sRGB chunk
// alone. Other spaces always get cHRM and a gAMA that is 2.2 unless the curve
// is linear; curves that are neither sRGB-like, 2.2 nor linear are
// approximated by 2.2. CMYK spaces never carry their profile.
func Emit(space *Space, intent Intent) Emission {
	if space.IsSRGB() {
		return Emission{SRGB: &intent}
	}
	chrm := space.Chromaticities
	e := Emission{Chrm: &chrm, Gamma: 2.2}
	trc := space.TRC[0]
	if !space.CMYK && trc.Kind == CurveLinear {
		e.Gamma = 1.0
	}
	if !space.CMYK && len(space.ICC) > 0 {
		name := space.Name
		if len(name) > maxProfileNameLen || !isKeyword(name) {
			name = placeholderProfileName
		}
		e.ICC = &ICCChunk{Name: name, Profile: space.ICC}
	}
	return e
}

// isKeyword reports whether name can be written as a PNG keyword.
func isKeyword(name string) bool {
	if name == "" || name[0] == ' ' || name[len(name)-1] == ' ' || strings.Contains(name, "  ") {
		return false
	}
	for i := 0; i < len(name); i++ {
		if name[i] < 0x20 || name[i] > 0x7e {
			return false
		}
	}
	return true
}
