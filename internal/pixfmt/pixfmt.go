// Package pixfmt maps PNG color types and bit depths to the pixel formats
// rows are exchanged in, and back.
package pixfmt

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sys/cpu"

	"github.com/davesmith10/pngcms/internal/color"
)

// PNG color types.
const (
	ColorTypeGray      = 0
	ColorTypeRGB       = 2
	ColorTypePalette   = 3
	ColorTypeGrayAlpha = 4
	ColorTypeRGBA      = 6

	colorMaskAlpha = 4
)

// ErrUnsupportedFormat is returned for color type / bit depth combinations
// that have no pixel format.
var ErrUnsupportedFormat = errors.New("unsupported pixel format")

// Layout is the channel layout of a pixel.
type Layout int

const (
	Gray Layout = iota
	GrayAlpha
	RGB
	RGBA
)

// Channels returns the number of samples per pixel.
func (l Layout) Channels() int {
	switch l {
	case Gray:
		return 1
	case GrayAlpha:
		return 2
	case RGB:
		return 3
	default:
		return 4
	}
}

// HasAlpha reports whether the last channel is alpha.
func (l Layout) HasAlpha() bool {
	return l == GrayAlpha || l == RGBA
}

// ColorChannels returns the number of channels other than alpha.
func (l Layout) ColorChannels() int {
	if l.HasAlpha() {
		return l.Channels() - 1
	}
	return l.Channels()
}

func (l Layout) String() string {
	switch l {
	case Gray:
		return "Y'"
	case GrayAlpha:
		return "Y'A"
	case RGB:
		return "R'G'B'"
	default:
		return "R'G'B'A"
	}
}

// Format describes how samples of a row are laid out. Samples are always
// gamma-encoded ("perceptual") and tagged with Space; Order applies to
// 16-bit samples only.
type Format struct {
	Layout     Layout
	Depth      int
	Perceptual bool
	Order      binary.ByteOrder
	Space      *color.Space
}

// New returns a perceptual format in host byte order.
func New(l Layout, depth int, space *color.Space) Format {
	return Format{Layout: l, Depth: normalizeDepth(depth), Perceptual: true, Order: NativeOrder(), Space: space}
}

// Channels returns the number of samples per pixel.
func (f Format) Channels() int { return f.Layout.Channels() }

// HasAlpha reports whether the format carries an alpha channel.
func (f Format) HasAlpha() bool { return f.Layout.HasAlpha() }

// BytesPerPixel returns the size of one pixel.
func (f Format) BytesPerPixel() int {
	return f.Channels() * f.Depth / 8
}

// RowBytes returns the size of a row of width pixels.
func (f Format) RowBytes(width int) int {
	return width * f.BytesPerPixel()
}

// BigEndian reports whether 16-bit samples are stored most significant byte
// first.
func (f Format) BigEndian() bool {
	return f.Order == nil || f.Order == binary.BigEndian
}

// Compatible reports whether rows of f and g have identical sample
// layout, ignoring byte order and color space.
func (f Format) Compatible(g Format) bool {
	return f.Layout == g.Layout && f.Depth == g.Depth
}

func (f Format) String() string {
	return fmt.Sprintf("%s u%d", f.Layout, f.Depth)
}

// Parse reads names such as "R'G'B'A u16" or "Y' u8".
func Parse(name string) (Format, error) {
	parts := strings.Fields(name)
	if len(parts) != 2 {
		return Format{}, fmt.Errorf("invalid pixel format %q", name)
	}
	var l Layout
	switch parts[0] {
	case "Y'":
		l = Gray
	case "Y'A":
		l = GrayAlpha
	case "R'G'B'":
		l = RGB
	case "R'G'B'A":
		l = RGBA
	default:
		return Format{}, fmt.Errorf("invalid pixel format %q: unknown layout %q", name, parts[0])
	}
	switch parts[1] {
	case "u8":
		return New(l, 8, nil), nil
	case "u16":
		return New(l, 16, nil), nil
	}
	return Format{}, fmt.Errorf("invalid pixel format %q: unknown sample type %q", name, parts[1])
}

// NativeOrder returns the host byte order.
func NativeOrder() binary.ByteOrder {
	if cpu.IsBigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func normalizeDepth(depth int) int {
	if depth == 16 {
		return 16
	}
	return 8
}

// ForDecode picks the format a PNG is decoded into. Sub-byte depths are
// expanded to 8 bits and a valid tRNS chunk becomes an alpha channel.
// Palette images become RGB, or RGBA when tRNS is present.
func ForDecode(bitDepth, colorType int, hasTRNS bool, space *color.Space) (Format, error) {
	if bitDepth > 8 && bitDepth < 16 {
		return Format{}, fmt.Errorf("%w: bit depth %d", ErrUnsupportedFormat, bitDepth)
	}
	if hasTRNS {
		colorType |= colorMaskAlpha
	}
	var l Layout
	switch colorType {
	case ColorTypeGray:
		l = Gray
	case ColorTypeGrayAlpha:
		l = GrayAlpha
	case ColorTypeRGB, ColorTypePalette:
		l = RGB
	case ColorTypeRGBA, ColorTypePalette | colorMaskAlpha:
		l = RGBA
	default:
		return Format{}, fmt.Errorf("%w: color type %d", ErrUnsupportedFormat, colorType)
	}
	return New(l, bitDepth, space), nil
}

// ForEncode picks the PNG color type and bit depth for rows with the given
// number of color channels (alpha not counted). Any depth other than 16
// becomes 8.
func ForEncode(hasAlpha bool, channels, bitDepth int) (colorType, depth int) {
	depth = normalizeDepth(bitDepth)
	switch {
	case hasAlpha && channels == 1:
		colorType = ColorTypeGrayAlpha
	case hasAlpha:
		colorType = ColorTypeRGBA
	case channels == 1:
		colorType = ColorTypeGray
	default:
		colorType = ColorTypeRGB
	}
	return colorType, depth
}

// LayoutFor returns the layout written for a PNG color type.
func LayoutFor(colorType int) (Layout, error) {
	switch colorType {
	case ColorTypeGray:
		return Gray, nil
	case ColorTypeGrayAlpha:
		return GrayAlpha, nil
	case ColorTypeRGB:
		return RGB, nil
	case ColorTypeRGBA:
		return RGBA, nil
	}
	return 0, fmt.Errorf("%w: color type %d", ErrUnsupportedFormat, colorType)
}
