package color

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"unicode/utf16"

	"seehuhn.de/go/icc"
)

const (
	maxProfileSize = 4 * 1024 * 1024 // 4 MB
	acspMagic      = "acsp"
	headerSize     = 128
)

// ProfileInfo contains metadata parsed from an ICC profile header.
type ProfileInfo struct {
	Size       uint32
	Version    string
	ColorSpace string // "RGB ", "CMYK", etc.
	PCS        string // "XYZ ", "Lab "
	Class      string // "mntr", "prtr", "scnr", etc.
}

// ParseProfileInfo reads ICC header metadata from raw profile bytes.
func ParseProfileInfo(data []byte) (*ProfileInfo, error) {
	p, err := decodeProfile(data)
	if err != nil {
		return nil, err
	}
	info := profileInfo(p, len(data))
	return &info, nil
}

func decodeProfile(data []byte) (*icc.Profile, error) {
	if len(data) < headerSize {
		return nil, errors.New("ICC profile too short (< 128 bytes)")
	}
	if len(data) > maxProfileSize {
		return nil, fmt.Errorf("ICC profile too large (%d bytes, max %d)", len(data), maxProfileSize)
	}
	if sig := string(data[36:40]); sig != acspMagic {
		return nil, fmt.Errorf("invalid ICC signature %q (expected %q)", sig, acspMagic)
	}
	p, err := icc.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding ICC profile: %w", err)
	}
	return p, nil
}

func profileInfo(p *icc.Profile, size int) ProfileInfo {
	return ProfileInfo{
		Size:       uint32(size),
		Version:    p.Version.String(),
		ColorSpace: signature(uint32(p.ColorSpace)),
		PCS:        signature(uint32(p.PCS)),
		Class:      signature(uint32(p.Class)),
	}
}

// signature spells a four-byte ICC signature.
func signature(v uint32) string {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return string(b[:])
}

func tagType(sig string) icc.TagType {
	return icc.TagType(binary.BigEndian.Uint32([]byte(sig)))
}

// LoadProfile reads an ICC profile from disk and validates it.
func LoadProfile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading ICC profile: %w", err)
	}
	if _, err := ParseProfileInfo(data); err != nil {
		return nil, fmt.Errorf("validating ICC profile %s: %w", path, err)
	}
	return data, nil
}

// ColorSpaceName returns a human-readable name for an ICC color space signature.
func ColorSpaceName(sig string) string {
	switch sig {
	case "RGB ":
		return "RGB"
	case "CMYK":
		return "CMYK"
	case "GRAY":
		return "Grayscale"
	case "Lab ":
		return "CIELAB"
	case "XYZ ":
		return "CIEXYZ"
	default:
		return sig
	}
}

// ProfileClassName returns a human-readable name for an ICC profile class.
func ProfileClassName(sig string) string {
	switch sig {
	case "mntr":
		return "Display"
	case "prtr":
		return "Output"
	case "scnr":
		return "Input"
	case "link":
		return "DeviceLink"
	case "spac":
		return "ColorSpace"
	case "abst":
		return "Abstract"
	case "nmcl":
		return "NamedColor"
	default:
		return sig
	}
}

// Profile is a decoded ICC profile.
type Profile struct {
	ProfileInfo
	Data []byte
	raw  *icc.Profile
}

// ParseProfile decodes the header and tag table of an ICC profile.
func ParseProfile(data []byte) (*Profile, error) {
	if len(data) >= headerSize && len(data) < headerSize+4 {
		return nil, errors.New("ICC profile has no tag table")
	}
	p, err := decodeProfile(data)
	if err != nil {
		return nil, err
	}
	return &Profile{ProfileInfo: profileInfo(p, len(data)), Data: data, raw: p}, nil
}

// Tag returns the raw payload of a tag, including its 8-byte type header.
func (p *Profile) Tag(sig string) ([]byte, bool) {
	b, ok := p.raw.TagData[tagType(sig)]
	return b, ok
}

// ToXYZ maps a device color, components in [0, 1], to PCS XYZ.
func (p *Profile) ToXYZ(intent Intent, device ...float64) (x, y, z float64, err error) {
	t, err := icc.NewTransform(p.raw, icc.DeviceToPCS, icc.RenderingIntent(intent))
	if err != nil {
		return 0, 0, 0, fmt.Errorf("ICC transform: %w", err)
	}
	x, y, z = t.ToXYZ(device)
	return x, y, z, nil
}

// MediaWhite returns the chromaticity of the media white of an RGB profile.
// Version 4 profiles adapt it to D50, so ok is false for them.
func (p *Profile) MediaWhite() (c Chromaticity, ok bool) {
	if p.raw.Version >= icc.Version4_0_0 {
		return Chromaticity{}, false
	}
	x, y, z, err := p.ToXYZ(IntentAbsoluteColorimetric, 1, 1, 1)
	if err != nil {
		return Chromaticity{}, false
	}
	return xyzToXY(x, y, z)
}

// Curve classifies a curveType or parametricCurveType tag.
func (p *Profile) Curve(sig string) (Curve, error) {
	b, ok := p.Tag(sig)
	if !ok {
		return Curve{}, fmt.Errorf("ICC tag %q missing", sig)
	}
	c, err := icc.DecodeCurve(b)
	if err != nil {
		return Curve{}, fmt.Errorf("ICC tag %q: %w", sig, err)
	}
	return classifyCurve(c.Evaluate), nil
}

// Description returns the profile's display name from its desc tag, or the
// empty string.
func (p *Profile) Description() string {
	b, ok := p.Tag("desc")
	if !ok || len(b) < 12 {
		return ""
	}
	switch string(b[0:4]) {
	case "desc":
		n := int(binary.BigEndian.Uint32(b[8:12]))
		if n > len(b)-12 {
			n = len(b) - 12
		}
		return strings.TrimRight(string(b[12:12+n]), "\x00")
	case "mluc":
		if len(b) < 28 {
			return ""
		}
		size := int(binary.BigEndian.Uint32(b[20:24]))
		off := int(binary.BigEndian.Uint32(b[24:28]))
		if off+size > len(b) || size%2 != 0 {
			return ""
		}
		u := make([]uint16, size/2)
		for i := range u {
			u[i] = binary.BigEndian.Uint16(b[off+2*i:])
		}
		return strings.TrimRight(string(utf16.Decode(u)), "\x00")
	}
	return ""
}

func gammaCurve(g float64) Curve {
	switch {
	case math.Abs(g-1) < 0.001:
		return Linear
	case math.Abs(g-2.2) < 0.01:
		return Gamma22
	}
	return Curve{Kind: CurveGamma, Gamma: g}
}

const (
	curveSamples   = 16
	curveTolerance = 0.002
	srgbTolerance  = 0.005
)

// classifyCurve samples a transfer function. Pure powers become gamma
// curves, curves that trace sRGB become SRGBCurve, and anything else is
// CurveOther with the gamma through its midpoint.
func classifyCurve(f func(float64) float64) Curve {
	var xs, vs [curveSamples - 1]float64
	linear := true
	for i := range xs {
		xs[i] = float64(i+1) / curveSamples
		vs[i] = f(xs[i])
		if math.Abs(vs[i]-xs[i]) > curveTolerance {
			linear = false
		}
	}
	if linear {
		return Linear
	}

	mid := f(0.5)
	if mid <= 0 || mid >= 1 {
		return Curve{Kind: CurveOther}
	}
	g := math.Log(mid) / math.Log(0.5)
	if maxDeviation(xs[:], vs[:], func(x float64) float64 { return math.Pow(x, g) }) < curveTolerance {
		return gammaCurve(g)
	}
	if maxDeviation(xs[:], vs[:], srgbToLinear) < srgbTolerance {
		return SRGBCurve
	}
	return Curve{Kind: CurveOther, Gamma: g}
}

func maxDeviation(xs, vs []float64, f func(float64) float64) float64 {
	var d float64
	for i, x := range xs {
		d = max(d, math.Abs(vs[i]-f(x)))
	}
	return d
}

func srgbToLinear(v float64) float64 {
	if v <= 0.04045 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}
