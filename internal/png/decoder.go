package png

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/davesmith10/pngcms/internal/color"
	"github.com/davesmith10/pngcms/internal/pixfmt"
	"github.com/davesmith10/pngcms/internal/pngio"
)

// DecodeOptions configures a Decoder.
type DecodeOptions struct {
	// Target is the format the caller would like rows in. It is honored
	// when its layout and depth match what the stream decodes to; only its
	// byte order is taken. Otherwise the negotiated format is used.
	Target *pixfmt.Format

	// Logger receives warnings about damaged ancillary chunks. Nil
	// discards them.
	Logger *slog.Logger
}

// Decoder streams the rows of one PNG image. It is good for a single
// DecodeInto call.
type Decoder struct {
	pr     *pngio.Reader
	info   *ImageInfo
	format pixfmt.Format
	row    []byte
	log    *slog.Logger
	used   bool
}

// NewDecoder reads the stream up to the image data and prepares the row
// transforms. r is borrowed and never closed.
func NewDecoder(r io.Reader, opts DecodeOptions) (*Decoder, error) {
	log := logger(opts.Logger)
	pr, err := openStream(r, "decode", log)
	if err != nil {
		return nil, err
	}
	d := &Decoder{pr: pr, log: log}
	if err := d.setup(opts.Target); err != nil {
		d.Close()
		return nil, wrap("decode", ErrDecode, err)
	}
	return d, nil
}

func (d *Decoder) setup(target *pixfmt.Format) error {
	info, res, err := describe(d.pr, d.log)
	if err != nil {
		return err
	}
	f := info.Format
	if target != nil {
		if target.Compatible(f) {
			f.Order = target.Order
		} else {
			d.log.Debug("png: requested format not available", "requested", target.String(), "using", f.String())
		}
	}

	d.pr.SetExpandGray()
	d.pr.SetTRNSToAlpha()
	d.pr.SetPaletteToRGB()
	if f.Depth == 16 && !f.BigEndian() {
		d.pr.SetSwap()
	}
	if res.Unresolved() {
		// The default pair is below the correction threshold, so untagged
		// images decode unchanged.
		if err := d.pr.SetGamma(color.DefaultScreenGamma, color.DefaultFileGamma); err != nil {
			return err
		}
	}

	channels, depth, err := d.pr.UpdateInfo()
	if err != nil {
		return err
	}
	if channels != f.Channels() || depth != f.Depth {
		return fmt.Errorf("decoder produces %d channels at %d bits, want %s", channels, depth, f)
	}
	info.Format = f
	d.info, d.format = info, f
	d.row = make([]byte, f.RowBytes(info.Width))
	return nil
}

// Info returns the stream's metadata.
func (d *Decoder) Info() *ImageInfo { return d.info }

// Format returns the format rows are delivered in.
func (d *Decoder) Format() pixfmt.Format { return d.format }

// DecodeInto decodes every row into dst. Interlaced images are delivered
// once per pass; from the second pass on each row is first read back from
// dst so the new pass can fill in its pixels, which requires dst to be a
// RowBuffer. On error dst may hold partial rows.
func (d *Decoder) DecodeInto(dst RowWriter) error {
	if d.used {
		return &Error{Op: "decode", Kind: ErrDecode, Err: errors.New("decoder already used")}
	}
	d.used = true

	passes := d.pr.Passes()
	var back RowReader
	if passes > 1 {
		rb, ok := dst.(RowReader)
		if !ok {
			return &Error{Op: "decode", Kind: ErrDecode, Err: errors.New("interlaced image needs a readable destination")}
		}
		back = rb
	}

	for pass := 0; pass < passes; pass++ {
		for y := 0; y < d.info.Height; y++ {
			switch {
			case pass > 0:
				if err := back.GetRow(y, d.format, d.row); err != nil {
					return &Error{Op: "decode", Kind: ErrDecode, Err: fmt.Errorf("reading back row %d: %w", y, err)}
				}
			case passes > 1:
				clear(d.row)
			}
			if err := d.pr.ReadRow(d.row); err != nil {
				return wrap("decode", ErrDecode, err)
			}
			if err := dst.SetRow(y, d.format, d.row); err != nil {
				return &Error{Op: "decode", Kind: ErrDecode, Err: fmt.Errorf("storing row %d: %w", y, err)}
			}
		}
	}

	if err := d.pr.ReadEnd(); err != nil {
		return wrap("decode", ErrDecode, err)
	}
	return nil
}

// Close releases the inflater and the row buffer. The stream is not
// closed.
func (d *Decoder) Close() error {
	d.row = nil
	if err := d.pr.Close(); err != nil {
		return wrap("decode", ErrDecode, err)
	}
	return nil
}

// Decode decodes r into dst and returns the stream's metadata.
func Decode(r io.Reader, dst RowWriter, opts DecodeOptions) (*ImageInfo, error) {
	d, err := NewDecoder(r, opts)
	if err != nil {
		return nil, err
	}
	defer d.Close()
	if err := d.DecodeInto(dst); err != nil {
		return nil, err
	}
	return d.info, nil
}
