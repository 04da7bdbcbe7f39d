package pngio

import (
	"encoding/binary"
	"fmt"

	"github.com/davesmith10/pngcms/internal/color"
)

// Color types, as per the PNG spec.
const (
	ColorGray      = 0
	ColorRGB       = 2
	ColorPalette   = 3
	ColorGrayAlpha = 4
	ColorRGBA      = 6
)

// Interlace methods.
const (
	InterlaceNone  = 0
	InterlaceAdam7 = 1
)

// Header is the content of the IHDR chunk.
type Header struct {
	Width     int
	Height    int
	BitDepth  int
	ColorType int
	Interlace int
}

// Channels returns the number of samples per pixel as stored.
func (h Header) Channels() int {
	switch h.ColorType {
	case ColorGrayAlpha:
		return 2
	case ColorRGB:
		return 3
	case ColorRGBA:
		return 4
	default:
		return 1
	}
}

// BitsPerPixel returns the stored size of a pixel in bits.
func (h Header) BitsPerPixel() int {
	return h.Channels() * h.BitDepth
}

// rowBytes returns the size of a stored row of width pixels, without the
// filter byte.
func (h Header) rowBytes(width int) int {
	return (h.BitsPerPixel()*width + 7) / 8
}

// Validate checks the dimensions and the color type / bit depth pairing.
func (h Header) Validate() error {
	if h.Width <= 0 || h.Height <= 0 {
		return FormatError("non-positive dimension")
	}
	if int64(h.Width) > maxChunkLength || int64(h.Height) > maxChunkLength {
		return FormatError("dimension too large")
	}
	nPixels := int64(h.Width) * int64(h.Height)
	// There can be up to 8 bytes per pixel, for 16 bits per channel RGBA.
	if nPixels != int64(int(nPixels)) || nPixels > (1<<62)/8 {
		return UnsupportedError("dimension overflow")
	}
	ok := false
	switch h.ColorType {
	case ColorGray:
		ok = h.BitDepth == 1 || h.BitDepth == 2 || h.BitDepth == 4 || h.BitDepth == 8 || h.BitDepth == 16
	case ColorPalette:
		ok = h.BitDepth == 1 || h.BitDepth == 2 || h.BitDepth == 4 || h.BitDepth == 8
	case ColorRGB, ColorGrayAlpha, ColorRGBA:
		ok = h.BitDepth == 8 || h.BitDepth == 16
	}
	if !ok {
		return FormatError(fmt.Sprintf("bit depth %d, color type %d", h.BitDepth, h.ColorType))
	}
	if h.Interlace != InterlaceNone && h.Interlace != InterlaceAdam7 {
		return FormatError(fmt.Sprintf("interlace method %d", h.Interlace))
	}
	return nil
}

func parseIHDR(b []byte) (Header, error) {
	if len(b) != 13 {
		return Header{}, FormatError("bad IHDR length")
	}
	if b[10] != 0 {
		return Header{}, UnsupportedError("compression method")
	}
	if b[11] != 0 {
		return Header{}, UnsupportedError("filter method")
	}
	h := Header{
		Width:     int(int32(binary.BigEndian.Uint32(b[0:4]))),
		Height:    int(int32(binary.BigEndian.Uint32(b[4:8]))),
		BitDepth:  int(b[8]),
		ColorType: int(b[9]),
		Interlace: int(b[12]),
	}
	return h, h.Validate()
}

func (h Header) marshal() []byte {
	b := make([]byte, 13)
	binary.BigEndian.PutUint32(b[0:4], uint32(h.Width))
	binary.BigEndian.PutUint32(b[4:8], uint32(h.Height))
	b[8] = byte(h.BitDepth)
	b[9] = byte(h.ColorType)
	b[12] = byte(h.Interlace)
	return b
}

// Info is everything read before the first IDAT chunk.
type Info struct {
	Header

	// Palette holds PLTE entries as RGB triples.
	Palette [][3]byte

	// TRNS is the raw tRNS payload; HasTRNS is set only when it is valid
	// for the color type.
	TRNS    []byte
	HasTRNS bool

	// Color chunks, in the form the resolver consumes.
	Color color.Chunks

	// Background holds the bKGD samples (one per stored channel, or the
	// palette index), nil when absent.
	Background []uint16
}

// trnsGray returns the transparent gray sample.
func (in *Info) trnsGray() uint16 {
	return binary.BigEndian.Uint16(in.TRNS)
}

// trnsRGB returns the transparent color.
func (in *Info) trnsRGB() (r, g, b uint16) {
	return binary.BigEndian.Uint16(in.TRNS[0:]),
		binary.BigEndian.Uint16(in.TRNS[2:]),
		binary.BigEndian.Uint16(in.TRNS[4:])
}
