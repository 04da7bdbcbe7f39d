package png

import (
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"

	"github.com/davesmith10/pngcms/internal/color"
	"github.com/davesmith10/pngcms/internal/pixfmt"
	"github.com/davesmith10/pngcms/internal/pngio"
)

// Encoder defaults.
const (
	DefaultCompression = 3
	DefaultBitDepth    = 16
)

// EncodeOptions describes the image to write.
type EncodeOptions struct {
	Width  int
	Height int

	// Space describes the samples; nil means sRGB.
	Space *color.Space

	// Channels is the number of color channels (1 for gray, 3 for RGB),
	// not counting alpha.
	Channels int
	HasAlpha bool

	// Compression is the deflate level, 1-9. Zero selects
	// DefaultCompression; other values are clamped.
	Compression int

	// BitDepth is 8 or 16. Zero selects DefaultBitDepth; anything other
	// than 16 writes 8 bits.
	BitDepth int

	// Intent goes into the sRGB chunk. Nil means relative colorimetric.
	Intent *color.Intent

	// Interlace writes an Adam7 image. Every row is then requested once per
	// pass, seven times in all.
	Interlace bool

	// Order is the byte order rows are requested in; nil means the host's.
	Order binary.ByteOrder

	Logger *slog.Logger
}

// Format returns the format rows are requested in, and the PNG color type
// they are written as.
func (o *EncodeOptions) Format() (pixfmt.Format, int, error) {
	depth := o.BitDepth
	if depth == 0 {
		depth = DefaultBitDepth
	}
	colorType, depth := pixfmt.ForEncode(o.HasAlpha, o.Channels, depth)
	l, err := pixfmt.LayoutFor(colorType)
	if err != nil {
		return pixfmt.Format{}, 0, err
	}
	f := pixfmt.New(l, depth, o.Space)
	if o.Order != nil {
		f.Order = o.Order
	}
	return f, colorType, nil
}

func (o *EncodeOptions) level() int {
	if o.Compression == 0 {
		return DefaultCompression
	}
	return min(max(o.Compression, 1), 9)
}

// Encode writes a PNG to w, pulling Height rows from src in increasing y
// order, or Height rows per pass (7 passes) for interlaced output. w is
// borrowed; if it has a Flush method it is flushed at the end. On error the
// output is truncated and must be discarded.
func Encode(w io.Writer, src RowReader, opts EncodeOptions) error {
	const op = "encode"
	log := logger(opts.Logger)
	if opts.Width <= 0 || opts.Height <= 0 {
		return &Error{Op: op, Kind: ErrEncode, Err: fmt.Errorf("invalid dimensions %dx%d", opts.Width, opts.Height)}
	}
	f, colorType, err := opts.Format()
	if err != nil {
		return wrap(op, ErrEncode, err)
	}

	pw, err := pngio.NewWriter(w, opts.level())
	if err != nil {
		return wrap(op, ErrEncode, err)
	}
	defer pw.Close()

	h := pngio.Header{
		Width:     opts.Width,
		Height:    opts.Height,
		BitDepth:  f.Depth,
		ColorType: colorType,
	}
	if opts.Interlace {
		h.Interlace = pngio.InterlaceAdam7
	}
	if err := pw.SetHeader(h); err != nil {
		return wrap(op, ErrEncode, err)
	}

	white := uint16(1<<f.Depth - 1)
	switch colorType {
	case pngio.ColorRGB, pngio.ColorRGBA:
		intent := color.IntentRelativeColorimetric
		if opts.Intent != nil {
			intent = *opts.Intent
		}
		em := color.Emit(opts.Space, intent)
		if opts.Space != nil && opts.Space.CMYK && len(opts.Space.ICC) > 0 {
			log.Debug("png: not embedding CMYK profile", "space", opts.Space.String())
		}
		pw.SetColor(em)
		pw.SetBackground(white, white, white)
	default:
		pw.SetBackground(white)
	}
	if f.Depth == 16 && !f.BigEndian() {
		pw.SetSwap()
	}

	if err := pw.WriteInfo(); err != nil {
		return wrap(op, ErrEncode, err)
	}

	row := make([]byte, f.RowBytes(opts.Width))
	for pass := 0; pass < pw.Passes(); pass++ {
		for y := 0; y < opts.Height; y++ {
			if err := src.GetRow(y, f, row); err != nil {
				return &Error{Op: op, Kind: ErrEncode, Err: fmt.Errorf("fetching row %d: %w", y, err)}
			}
			if err := pw.WriteRow(row); err != nil {
				return wrap(op, ErrEncode, err)
			}
		}
	}

	if err := pw.WriteEnd(); err != nil {
		return wrap(op, ErrEncode, err)
	}
	return nil
}
