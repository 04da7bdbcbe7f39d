// Package png decodes and encodes PNG streams row by row, resolving the
// color space from the stream's chunks on the way in and describing it with
// chunks on the way out.
package png

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/davesmith10/pngcms/internal/color"
	"github.com/davesmith10/pngcms/internal/pixfmt"
	"github.com/davesmith10/pngcms/internal/pngio"
)

// ImageInfo contains metadata about a PNG stream.
type ImageInfo struct {
	Width      int
	Height     int
	BitDepth   int
	ColorType  int
	Interlaced bool
	HasTRNS    bool

	// Format is the pixel format rows decode into.
	Format pixfmt.Format

	// Space is the resolved color space, nil when the stream describes
	// none (treated as sRGB). Source tells which chunk it came from.
	Space  *color.Space
	Source color.Source

	ICC         []byte // embedded profile, nil if absent
	ProfileName string
	Background  []uint16 // bKGD samples as stored, nil if absent
}

// ColorTypeName returns a readable name for a PNG color type.
func ColorTypeName(ct int) string {
	switch ct {
	case pngio.ColorGray:
		return "Grayscale"
	case pngio.ColorRGB:
		return "RGB"
	case pngio.ColorPalette:
		return "Palette"
	case pngio.ColorGrayAlpha:
		return "Grayscale+Alpha"
	case pngio.ColorRGBA:
		return "RGBA"
	default:
		return fmt.Sprintf("color type %d", ct)
	}
}

// GetInfo reads the chunks before the image data and resolves the color
// space and pixel format. No pixel data is read; r is left positioned just
// after the first IDAT chunk header.
func GetInfo(r io.Reader, log *slog.Logger) (*ImageInfo, error) {
	pr, err := openStream(r, "inspect", logger(log))
	if err != nil {
		return nil, err
	}
	defer pr.Close()
	info, _, err := describe(pr, logger(log))
	if err != nil {
		return nil, wrap("inspect", ErrDecode, err)
	}
	return info, nil
}

// InspectFile is GetInfo on a file it opens and closes itself.
func InspectFile(path string, log *slog.Logger) (*ImageInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &Error{Op: "inspect", Kind: ErrIO, Err: err}
	}
	defer f.Close()
	return GetInfo(f, log)
}

// openStream checks the signature itself, so that a short or foreign
// stream fails before any parser state exists, then reads the header
// chunks.
func openStream(r io.Reader, op string, log *slog.Logger) (*pngio.Reader, error) {
	var sig [len(pngio.Signature)]byte
	if _, err := io.ReadFull(r, sig[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, &Error{Op: op, Kind: ErrInvalidHeader, Err: errors.New("short read")}
		}
		return nil, &Error{Op: op, Kind: ErrIO, Err: err}
	}
	if string(sig[:]) != pngio.Signature {
		return nil, &Error{Op: op, Kind: ErrInvalidHeader, Err: errors.New("signature mismatch")}
	}

	pr := pngio.NewReader(r, pngio.ReaderOptions{
		SignatureRead: true,
		Warn: func(msg string) {
			log.Warn("png: "+msg, "op", op)
		},
	})
	if err := pr.ReadInfo(); err != nil {
		pr.Close()
		return nil, wrap(op, ErrDecode, err)
	}
	return pr, nil
}

// describe resolves the color space and negotiates the pixel format for
// what ReadInfo parsed.
func describe(pr *pngio.Reader, log *slog.Logger) (*ImageInfo, color.Resolution, error) {
	in := pr.Info()
	res := color.Resolve(in.Color)
	if res.ICCError != nil {
		log.Warn("png: ignoring unusable ICC profile", "err", res.ICCError)
	}
	f, err := pixfmt.ForDecode(in.BitDepth, in.ColorType, in.HasTRNS, res.Space)
	if err != nil {
		return nil, res, err
	}
	info := &ImageInfo{
		Width:      in.Width,
		Height:     in.Height,
		BitDepth:   in.BitDepth,
		ColorType:  in.ColorType,
		Interlaced: in.Interlace == pngio.InterlaceAdam7,
		HasTRNS:    in.HasTRNS,
		Format:     f,
		Space:      res.Space,
		Source:     res.Source,
		Background: in.Background,
	}
	if icc := in.Color.ICC; icc != nil {
		info.ICC = icc.Profile
		info.ProfileName = icc.Name
	}
	return info, res, nil
}

func logger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l
}
