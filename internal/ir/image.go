// Package ir holds the in-memory raster rows are decoded into and encoded
// from.
package ir

import (
	"encoding/binary"
	"fmt"

	"github.com/davesmith10/pngcms/internal/pixfmt"
)

// Image is a raster stored row-major in Format. 16-bit samples use
// Format.Order.
type Image struct {
	Width  int
	Height int
	Format pixfmt.Format
	Pix    []byte // len = Height * Format.RowBytes(Width)
}

// NewImage allocates a zeroed image.
func NewImage(width, height int, f pixfmt.Format) *Image {
	return &Image{
		Width:  width,
		Height: height,
		Format: f,
		Pix:    make([]byte, height*f.RowBytes(width)),
	}
}

// Stride returns the size of a row.
func (m *Image) Stride() int {
	return m.Format.RowBytes(m.Width)
}

// Row returns row y in the image's own format.
func (m *Image) Row(y int) []byte {
	s := m.Stride()
	return m.Pix[y*s : (y+1)*s]
}

func (m *Image) checkRow(y int, f pixfmt.Format, p []byte) error {
	if y < 0 || y >= m.Height {
		return fmt.Errorf("row %d out of range [0,%d)", y, m.Height)
	}
	if n := f.RowBytes(m.Width); len(p) < n {
		return fmt.Errorf("row buffer too small: %d < %d", len(p), n)
	}
	return nil
}

// GetRow copies row y into p, converted to f.
func (m *Image) GetRow(y int, f pixfmt.Format, p []byte) error {
	if err := m.checkRow(y, f, p); err != nil {
		return err
	}
	ConvertRow(p, f, m.Row(y), m.Format, m.Width)
	return nil
}

// SetRow stores p, in format f, as row y.
func (m *Image) SetRow(y int, f pixfmt.Format, p []byte) error {
	if err := m.checkRow(y, f, p); err != nil {
		return err
	}
	ConvertRow(m.Row(y), m.Format, p, f, m.Width)
	return nil
}

// ConvertRow converts width pixels from src in sf to dst in df. Layouts
// are mapped channel-wise (gray is replicated to RGB, RGB is reduced to
// Rec. 709 luma, missing alpha is opaque) and depths are rescaled. Samples
// are not converted between color spaces.
func ConvertRow(dst []byte, df pixfmt.Format, src []byte, sf pixfmt.Format, width int) {
	if df.Compatible(sf) {
		n := df.RowBytes(width)
		copy(dst[:n], src[:n])
		if df.Depth == 16 && df.BigEndian() != sf.BigEndian() {
			swap16(dst[:n])
		}
		return
	}
	rd, wr := sampleReader(sf), sampleWriter(df)
	sc, dc := sf.Channels(), df.Channels()
	var px [4]uint16
	for x := 0; x < width; x++ {
		for c := 0; c < sc; c++ {
			px[c] = rd(src, x*sc+c)
		}
		r, g, b, a := toRGBA(px, sf.Layout)
		switch df.Layout {
		case pixfmt.Gray:
			wr(dst, x*dc, luma(r, g, b))
		case pixfmt.GrayAlpha:
			wr(dst, x*dc, luma(r, g, b))
			wr(dst, x*dc+1, a)
		case pixfmt.RGB:
			wr(dst, x*dc, r)
			wr(dst, x*dc+1, g)
			wr(dst, x*dc+2, b)
		case pixfmt.RGBA:
			wr(dst, x*dc, r)
			wr(dst, x*dc+1, g)
			wr(dst, x*dc+2, b)
			wr(dst, x*dc+3, a)
		}
	}
}

func toRGBA(px [4]uint16, l pixfmt.Layout) (r, g, b, a uint16) {
	switch l {
	case pixfmt.Gray:
		return px[0], px[0], px[0], 0xffff
	case pixfmt.GrayAlpha:
		return px[0], px[0], px[0], px[1]
	case pixfmt.RGB:
		return px[0], px[1], px[2], 0xffff
	default:
		return px[0], px[1], px[2], px[3]
	}
}

func luma(r, g, b uint16) uint16 {
	return uint16((2126*uint32(r) + 7152*uint32(g) + 722*uint32(b) + 5000) / 10000)
}

// sampleReader returns a function reading sample i of a row, scaled to 16
// bits.
func sampleReader(f pixfmt.Format) func(p []byte, i int) uint16 {
	if f.Depth == 8 {
		return func(p []byte, i int) uint16 { return uint16(p[i]) * 0x101 }
	}
	order := byteOrder(f)
	return func(p []byte, i int) uint16 { return order.Uint16(p[2*i:]) }
}

// sampleWriter returns a function storing a 16-bit value as sample i.
func sampleWriter(f pixfmt.Format) func(p []byte, i int, v uint16) {
	if f.Depth == 8 {
		return func(p []byte, i int, v uint16) { p[i] = uint8((uint32(v)*0xff + 0x7fff) / 0xffff) }
	}
	order := byteOrder(f)
	return func(p []byte, i int, v uint16) { order.PutUint16(p[2*i:], v) }
}

func byteOrder(f pixfmt.Format) binary.ByteOrder {
	if f.BigEndian() {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func swap16(b []byte) {
	for i := 0; i+1 < len(b); i += 2 {
		b[i], b[i+1] = b[i+1], b[i]
	}
}
