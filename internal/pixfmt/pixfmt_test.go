package pixfmt

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/davesmith10/pngcms/internal/color"
)

func TestForDecode(t *testing.T) {
	tests := []struct {
		bitDepth, colorType int
		trns                bool
		want                string
	}{
		{1, ColorTypeGray, false, "Y' u8"},
		{2, ColorTypeGray, false, "Y' u8"},
		{4, ColorTypeGray, true, "Y'A u8"},
		{8, ColorTypeGray, false, "Y' u8"},
		{16, ColorTypeGray, false, "Y' u16"},
		{16, ColorTypeGray, true, "Y'A u16"},
		{8, ColorTypeGrayAlpha, false, "Y'A u8"},
		{16, ColorTypeGrayAlpha, false, "Y'A u16"},
		{8, ColorTypeRGB, false, "R'G'B' u8"},
		{8, ColorTypeRGB, true, "R'G'B'A u8"},
		{16, ColorTypeRGB, true, "R'G'B'A u16"},
		{8, ColorTypeRGBA, false, "R'G'B'A u8"},
		{16, ColorTypeRGBA, false, "R'G'B'A u16"},
		// Palettes without tRNS stay opaque.
		{1, ColorTypePalette, false, "R'G'B' u8"},
		{8, ColorTypePalette, false, "R'G'B' u8"},
		{4, ColorTypePalette, true, "R'G'B'A u8"},
		{8, ColorTypePalette, true, "R'G'B'A u8"},
	}
	for _, tt := range tests {
		f, err := ForDecode(tt.bitDepth, tt.colorType, tt.trns, nil)
		if err != nil {
			t.Errorf("ForDecode(%d, %d, %t): %v", tt.bitDepth, tt.colorType, tt.trns, err)
			continue
		}
		if got := f.String(); got != tt.want {
			t.Errorf("ForDecode(%d, %d, %t) = %q, want %q", tt.bitDepth, tt.colorType, tt.trns, got, tt.want)
		}
		if !f.Perceptual {
			t.Errorf("ForDecode(%d, %d, %t): not perceptual", tt.bitDepth, tt.colorType, tt.trns)
		}
	}
}

func TestForDecodeUnsupported(t *testing.T) {
	for _, tc := range []struct{ depth, ct int }{
		{12, ColorTypeRGB},
		{9, ColorTypeGray},
		{8, 1},
		{8, 5},
	} {
		_, err := ForDecode(tc.depth, tc.ct, false, nil)
		if !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("ForDecode(%d, %d): err = %v, want ErrUnsupportedFormat", tc.depth, tc.ct, err)
		}
	}
}

func TestForDecodeKeepsSpace(t *testing.T) {
	s := color.FromChromaticities("x", color.SRGBChromaticities, color.Linear)
	f, err := ForDecode(8, ColorTypeRGB, false, s)
	if err != nil {
		t.Fatal(err)
	}
	if f.Space != s {
		t.Error("space not carried into the format")
	}
}

func TestForEncode(t *testing.T) {
	tests := []struct {
		alpha     bool
		channels  int
		depth     int
		wantType  int
		wantDepth int
	}{
		{true, 1, 8, ColorTypeGrayAlpha, 8},
		{true, 3, 16, ColorTypeRGBA, 16},
		{false, 1, 16, ColorTypeGray, 16},
		{false, 3, 8, ColorTypeRGB, 8},
		{false, 3, 4, ColorTypeRGB, 8},
		{false, 1, 12, ColorTypeGray, 8},
		{true, 3, 32, ColorTypeRGBA, 8},
	}
	for _, tt := range tests {
		ct, d := ForEncode(tt.alpha, tt.channels, tt.depth)
		if ct != tt.wantType || d != tt.wantDepth {
			t.Errorf("ForEncode(%t, %d, %d) = (%d, %d), want (%d, %d)",
				tt.alpha, tt.channels, tt.depth, ct, d, tt.wantType, tt.wantDepth)
		}
	}
}

func TestParse(t *testing.T) {
	for _, name := range []string{"Y' u8", "Y'A u16", "R'G'B' u8", "R'G'B'A u16"} {
		f, err := Parse(name)
		if err != nil {
			t.Errorf("Parse(%q): %v", name, err)
			continue
		}
		if f.String() != name {
			t.Errorf("Parse(%q).String() = %q", name, f.String())
		}
	}
	for _, name := range []string{"", "RGB u8", "R'G'B' float", "R'G'B' u8 extra"} {
		if _, err := Parse(name); err == nil {
			t.Errorf("Parse(%q): expected error", name)
		}
	}
}

func TestFormatSizes(t *testing.T) {
	f := New(RGBA, 16, nil)
	if f.BytesPerPixel() != 8 || f.RowBytes(3) != 24 || f.Channels() != 4 || !f.HasAlpha() {
		t.Errorf("unexpected sizes for %s", f)
	}
	g := New(Gray, 8, nil)
	if g.BytesPerPixel() != 1 || g.HasAlpha() || g.Layout.ColorChannels() != 1 {
		t.Errorf("unexpected sizes for %s", g)
	}
	if New(RGB, 12, nil).Depth != 8 {
		t.Error("depth not normalized to 8")
	}
}

func TestByteOrder(t *testing.T) {
	f := New(RGB, 16, nil)
	if f.Order != NativeOrder() {
		t.Errorf("New uses %v, want native %v", f.Order, NativeOrder())
	}
	f.Order = binary.BigEndian
	if !f.BigEndian() {
		t.Error("BigEndian() false for big-endian order")
	}
	f.Order = binary.LittleEndian
	if f.BigEndian() {
		t.Error("BigEndian() true for little-endian order")
	}
	if !(Format{}).BigEndian() {
		t.Error("zero format should default to big-endian")
	}
	if !f.Compatible(New(RGB, 16, color.SRGB)) {
		t.Error("formats differing only in order and space should be compatible")
	}
}

func TestLayoutFor(t *testing.T) {
	for ct, want := range map[int]Layout{
		ColorTypeGray:      Gray,
		ColorTypeGrayAlpha: GrayAlpha,
		ColorTypeRGB:       RGB,
		ColorTypeRGBA:      RGBA,
	} {
		l, err := LayoutFor(ct)
		if err != nil || l != want {
			t.Errorf("LayoutFor(%d) = %v, %v", ct, l, err)
		}
	}
	if _, err := LayoutFor(ColorTypePalette); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("LayoutFor(palette): err = %v", err)
	}
}
