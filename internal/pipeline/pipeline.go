package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/davesmith10/pngcms/internal/color"
	"github.com/davesmith10/pngcms/internal/ir"
	"github.com/davesmith10/pngcms/internal/pixfmt"
	"github.com/davesmith10/pngcms/internal/png"
)

// LoadOptions controls Load.
type LoadOptions struct {
	Target *pixfmt.Format // optional requested row format
	Logger *slog.Logger
}

// SaveOptions controls Save and the encode half of Run.
type SaveOptions struct {
	Compression int  // deflate level (1-9), 0 for the default of 3
	BitDepth    int  // 8 or 16, 0 for the default of 16
	Interlace   bool // write Adam7
	Intent      *color.Intent
	Logger      *slog.Logger
}

// Options controls a PNG to PNG re-encode.
type Options struct {
	Target *pixfmt.Format
	Save   SaveOptions
}

// Result holds the output of a pipeline run.
type Result struct {
	Data      []byte // encoded PNG
	SrcWidth  int
	SrcHeight int
	SrcInfo   *png.ImageInfo
	DstFormat pixfmt.Format
}

// ctxRows checks for cancellation before every row.
type ctxRows struct {
	ctx context.Context
	buf png.RowBuffer
}

func (c ctxRows) GetRow(y int, f pixfmt.Format, p []byte) error {
	if err := c.ctx.Err(); err != nil {
		return err
	}
	return c.buf.GetRow(y, f, p)
}

func (c ctxRows) SetRow(y int, f pixfmt.Format, p []byte) error {
	if err := c.ctx.Err(); err != nil {
		return err
	}
	return c.buf.SetRow(y, f, p)
}

func logger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l
}

// Load decodes the PNG at locator into a new image.
func Load(ctx context.Context, locator string, opts LoadOptions) (*ir.Image, *png.ImageInfo, error) {
	log := logger(opts.Logger)
	r, err := OpenInput(locator)
	if err != nil {
		log.Warn("could not open input", "locator", locator, "err", err)
		return nil, nil, fmt.Errorf("opening %s: %w", locator, err)
	}
	defer r.Close()

	img, info, err := decode(ctx, r, opts.Target, log)
	if err != nil {
		return nil, nil, fmt.Errorf("loading %s: %w", locator, err)
	}
	return img, info, nil
}

func decode(ctx context.Context, r io.Reader, target *pixfmt.Format, log *slog.Logger) (*ir.Image, *png.ImageInfo, error) {
	dec, err := png.NewDecoder(r, png.DecodeOptions{Target: target, Logger: log})
	if err != nil {
		return nil, nil, err
	}
	defer dec.Close()

	info := dec.Info()
	img := ir.NewImage(info.Width, info.Height, dec.Format())
	if err := dec.DecodeInto(ctxRows{ctx: ctx, buf: img}); err != nil {
		return nil, nil, err
	}
	log.Debug("decoded", "width", info.Width, "height", info.Height, "format", info.Format.String(), "space", info.Space.String(), "source", info.Source.String())
	return img, info, nil
}

// Save encodes img as a PNG at locator.
func Save(ctx context.Context, locator string, img *ir.Image, opts SaveOptions) error {
	log := logger(opts.Logger)
	w, err := OpenOutput(locator)
	if err != nil {
		log.Warn("could not open output", "locator", locator, "err", err)
		return fmt.Errorf("opening %s: %w", locator, err)
	}
	if err := png.Encode(w, ctxRows{ctx: ctx, buf: img}, encodeOptions(img, opts)); err != nil {
		w.Close()
		return fmt.Errorf("saving %s: %w", locator, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", locator, err)
	}
	return nil
}

func encodeOptions(img *ir.Image, opts SaveOptions) png.EncodeOptions {
	return png.EncodeOptions{
		Width:       img.Width,
		Height:      img.Height,
		Space:       img.Format.Space,
		Channels:    img.Format.Layout.ColorChannels(),
		HasAlpha:    img.Format.HasAlpha(),
		Compression: opts.Compression,
		BitDepth:    opts.BitDepth,
		Intent:      opts.Intent,
		Interlace:   opts.Interlace,
		Logger:      opts.Logger,
	}
}

// BoundingBox reports the dimensions of the PNG at locator from its header
// alone. Failures are logged and reported as 0x0.
func BoundingBox(locator string, log *slog.Logger) (width, height int) {
	log = logger(log)
	r, err := OpenInput(locator)
	if err != nil {
		log.Warn("could not open input", "locator", locator, "err", err)
		return 0, 0
	}
	defer r.Close()
	info, err := png.GetInfo(r, log)
	if err != nil {
		log.Warn("could not read PNG header", "locator", locator, "err", err)
		return 0, 0
	}
	return info.Width, info.Height
}

// Run re-encodes PNG data: decode → encode with new settings.
func Run(ctx context.Context, data []byte, opts Options) (*Result, error) {
	log := logger(opts.Save.Logger)

	// 1. Decode
	img, info, err := decode(ctx, bytes.NewReader(data), opts.Target, log)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	// 2. Encode
	eo := encodeOptions(img, opts.Save)
	dst, _, err := eo.Format()
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, ctxRows{ctx: ctx, buf: img}, eo); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}

	return &Result{
		Data:      buf.Bytes(),
		SrcWidth:  info.Width,
		SrcHeight: info.Height,
		SrcInfo:   info,
		DstFormat: dst,
	}, nil
}
