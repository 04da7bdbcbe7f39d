package pngio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/davesmith10/pngcms/internal/color"
)

// Decoding stage.
// The PNG specification says that the IHDR, PLTE (if present), tRNS (if
// present), IDAT and IEND chunks must appear in that order. There may be
// multiple IDAT chunks, and IDAT chunks must be sequential (i.e. they may not
// have any other chunks between them).
// https://www.w3.org/TR/PNG/#5ChunkOrdering
const (
	dsStart = iota
	dsSeenIHDR
	dsSeenPLTE
	dsSeenIDAT
	dsSeenIEND
)

// maxICCSize bounds an inflated iCCP profile.
const maxICCSize = 4 * 1024 * 1024

// ReaderOptions configures a Reader.
type ReaderOptions struct {
	// SignatureRead tells the Reader the 8-byte signature was already
	// consumed and checked by the caller.
	SignatureRead bool

	// Warn receives benign problems (bad ancillary chunks and the like)
	// that do not stop decoding. May be nil.
	Warn func(msg string)
}

// Reader decodes a PNG stream row by row.
//
// Call ReadInfo, optionally set transforms, call UpdateInfo, then ReadRow
// Height times per pass, then ReadEnd. Close releases the inflater and may
// be called at any point.
type Reader struct {
	cr   *chunkReader
	opts ReaderOptions
	info Info

	stage      int
	idatLength uint32
	zr         io.ReadCloser

	expandGray   bool
	trnsToAlpha  bool
	paletteToRGB bool
	swap         bool
	gamma        *color.Transform
	updated      bool

	outChannels int
	outDepth    int

	pass int
	y    int
	cr0  []byte // current stored row, filter byte first
	pr0  []byte // previous stored row of the same pass
	tmp  []byte // expanded pass row before it is combined
}

// NewReader returns a Reader over r. Nothing is read until ReadInfo.
func NewReader(r io.Reader, opts ReaderOptions) *Reader {
	return &Reader{cr: newChunkReader(r), opts: opts}
}

func (d *Reader) warn(format string, args ...any) {
	if d.opts.Warn != nil {
		d.opts.Warn(fmt.Sprintf(format, args...))
	}
}

// Info returns what ReadInfo parsed.
func (d *Reader) Info() *Info {
	return &d.info
}

// ReadInfo reads the signature (unless already consumed) and every chunk up
// to the first IDAT.
func (d *Reader) ReadInfo() error {
	if d.stage != dsStart {
		return errors.New("png: ReadInfo called twice")
	}
	if !d.opts.SignatureRead {
		var sig [len(Signature)]byte
		if err := d.cr.readFull(sig[:]); err != nil {
			return err
		}
		if string(sig[:]) != Signature {
			return FormatError("not a PNG file")
		}
	}
	for d.stage != dsSeenIDAT {
		length, typ, err := d.cr.next()
		if err != nil {
			return err
		}
		if typ == chunkIDAT {
			if d.stage < dsSeenIHDR {
				return chunkOrderError
			}
			if d.info.ColorType == ColorPalette && d.stage != dsSeenPLTE {
				return FormatError("missing palette")
			}
			d.idatLength = length
			d.stage = dsSeenIDAT
			break
		}
		if err := d.readChunk(length, typ); err != nil {
			return err
		}
	}
	return nil
}

func (d *Reader) readChunk(length uint32, typ string) error {
	switch typ {
	case chunkIHDR:
		if d.stage != dsStart {
			return chunkOrderError
		}
		b, err := d.cr.data(length)
		if err != nil {
			return err
		}
		if err := d.cr.verify(); err != nil {
			return err
		}
		h, err := parseIHDR(b)
		if err != nil {
			return err
		}
		d.info.Header = h
		d.stage = dsSeenIHDR
		return nil
	case chunkPLTE:
		if d.stage != dsSeenIHDR {
			return chunkOrderError
		}
		b, err := d.cr.data(length)
		if err != nil {
			return err
		}
		if err := d.cr.verify(); err != nil {
			return err
		}
		if err := d.parsePLTE(b); err != nil {
			return err
		}
		d.stage = dsSeenPLTE
		return nil
	case chunkIEND:
		return chunkOrderError
	}

	if d.stage == dsStart {
		return chunkOrderError
	}
	if IsCritical(typ) {
		return UnsupportedError(fmt.Sprintf("critical chunk %q", typ))
	}

	// Ancillary chunks: a damaged one is dropped with a warning.
	var b []byte
	var err error
	switch typ {
	case chunkTRNS, chunkGAMA, chunkCHRM, chunkSRGB, chunkICCP, chunkBKGD:
		b, err = d.cr.data(length)
	default:
		err = d.cr.skip(length)
	}
	if err != nil {
		return err
	}
	if err := d.cr.verify(); err != nil {
		var fe FormatError
		if errors.As(err, &fe) {
			d.warn("%s: CRC error, chunk ignored", typ)
			return nil
		}
		return err
	}
	if b == nil {
		return nil
	}
	if err := d.parseAncillary(typ, b); err != nil {
		d.warn("%s: %v, chunk ignored", typ, err)
	}
	return nil
}

func (d *Reader) parsePLTE(b []byte) error {
	n := len(b) / 3
	if len(b)%3 != 0 || n == 0 || n > 256 || (d.info.ColorType == ColorPalette && n > 1<<d.info.BitDepth) {
		return FormatError("bad PLTE length")
	}
	switch d.info.ColorType {
	case ColorGray, ColorGrayAlpha:
		return FormatError("PLTE in gray image")
	case ColorRGB, ColorRGBA:
		// A suggested palette; not needed to decode.
		return nil
	}
	d.info.Palette = make([][3]byte, n)
	for i := range d.info.Palette {
		copy(d.info.Palette[i][:], b[3*i:])
	}
	return nil
}

func (d *Reader) parseAncillary(typ string, b []byte) error {
	in := &d.info
	switch typ {
	case chunkTRNS:
		switch in.ColorType {
		case ColorGray:
			if len(b) != 2 {
				return errors.New("bad length")
			}
		case ColorRGB:
			if len(b) != 6 {
				return errors.New("bad length")
			}
		case ColorPalette:
			if len(b) == 0 || len(b) > len(in.Palette) {
				return errors.New("bad length")
			}
		default:
			return errors.New("invalid with alpha channel")
		}
		in.TRNS, in.HasTRNS = b, true
	case chunkGAMA:
		if len(b) != 4 {
			return errors.New("bad length")
		}
		g := binary.BigEndian.Uint32(b)
		if g == 0 {
			return errors.New("zero gamma")
		}
		in.Color.Gamma = float64(g) / 100000
	case chunkCHRM:
		if len(b) != 32 {
			return errors.New("bad length")
		}
		var v [8]float64
		for i := range v {
			v[i] = float64(binary.BigEndian.Uint32(b[4*i:])) / 100000
		}
		in.Color.Chrm = &color.Chromaticities{
			White: color.Chromaticity{X: v[0], Y: v[1]},
			Red:   color.Chromaticity{X: v[2], Y: v[3]},
			Green: color.Chromaticity{X: v[4], Y: v[5]},
			Blue:  color.Chromaticity{X: v[6], Y: v[7]},
		}
	case chunkSRGB:
		if len(b) != 1 || b[0] > 3 {
			return errors.New("bad rendering intent")
		}
		intent := color.Intent(b[0])
		in.Color.SRGB = &intent
	case chunkICCP:
		icc, err := parseICCP(b)
		if err != nil {
			return err
		}
		in.Color.ICC = icc
	case chunkBKGD:
		return d.parseBKGD(b)
	}
	return nil
}

func parseICCP(b []byte) (*color.ICCChunk, error) {
	nul := bytes.IndexByte(b, 0)
	if nul < 1 || nul > 79 {
		return nil, errors.New("bad profile name")
	}
	if len(b) < nul+2 || b[nul+1] != 0 {
		return nil, errors.New("unknown compression method")
	}
	zr, err := zlib.NewReader(bytes.NewReader(b[nul+2:]))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	profile, err := io.ReadAll(io.LimitReader(zr, maxICCSize+1))
	if err != nil {
		return nil, err
	}
	if len(profile) > maxICCSize {
		return nil, errors.New("profile too large")
	}
	return &color.ICCChunk{Name: string(b[:nul]), Profile: profile}, nil
}

func (d *Reader) parseBKGD(b []byte) error {
	in := &d.info
	switch in.ColorType {
	case ColorPalette:
		if len(b) != 1 {
			return errors.New("bad length")
		}
		in.Background = []uint16{uint16(b[0])}
	case ColorGray, ColorGrayAlpha:
		if len(b) != 2 {
			return errors.New("bad length")
		}
		in.Background = []uint16{binary.BigEndian.Uint16(b)}
	default:
		if len(b) != 6 {
			return errors.New("bad length")
		}
		in.Background = []uint16{
			binary.BigEndian.Uint16(b[0:]),
			binary.BigEndian.Uint16(b[2:]),
			binary.BigEndian.Uint16(b[4:]),
		}
	}
	return nil
}

// SetExpandGray expands gray samples below 8 bits to 8 bits.
func (d *Reader) SetExpandGray() { d.expandGray = true }

// SetTRNSToAlpha turns a valid tRNS chunk into a full alpha channel.
func (d *Reader) SetTRNSToAlpha() { d.trnsToAlpha = true }

// SetPaletteToRGB expands palette indices to RGB triples.
func (d *Reader) SetPaletteToRGB() { d.paletteToRGB = true }

// SetSwap delivers 16-bit samples least significant byte first.
func (d *Reader) SetSwap() { d.swap = true }

// SetGamma corrects samples encoded for fileGamma to screenGamma. An
// insignificant correction installs nothing.
func (d *Reader) SetGamma(screenGamma, fileGamma float64) error {
	t, err := color.NewGammaTransform(screenGamma, fileGamma)
	if err != nil {
		return err
	}
	d.gamma = t
	return nil
}

// Passes returns the number of times each row must be read: 7 for Adam7
// images, 1 otherwise.
func (d *Reader) Passes() int {
	if d.info.Interlace == InterlaceAdam7 {
		return len(interlacing)
	}
	return 1
}

// UpdateInfo fixes the transforms and sizes the row buffers. It returns the
// number of channels and the bit depth of the rows ReadRow produces.
func (d *Reader) UpdateInfo() (channels, depth int, err error) {
	if d.stage != dsSeenIDAT {
		return 0, 0, errors.New("png: UpdateInfo before ReadInfo")
	}
	in := &d.info
	channels, depth = in.Channels(), in.BitDepth
	switch in.ColorType {
	case ColorPalette:
		if !d.paletteToRGB {
			return 0, 0, UnsupportedError("palette output without expansion")
		}
		channels, depth = 3, 8
	case ColorGray:
		if depth < 8 {
			if !d.expandGray {
				return 0, 0, UnsupportedError("packed gray output")
			}
			depth = 8
		}
	}
	if d.trnsToAlpha && in.HasTRNS {
		channels++
	}
	d.outChannels, d.outDepth = channels, depth

	rowSize := 1 + in.rowBytes(in.Width)
	d.cr0 = make([]byte, rowSize)
	d.pr0 = make([]byte, rowSize)
	d.tmp = make([]byte, in.Width*channels*depth/8)

	d.zr, err = zlib.NewReader(d)
	if err != nil {
		return 0, 0, d.inflateError(err)
	}
	d.updated = true
	return channels, depth, nil
}

// RowBytes returns the size of an output row.
func (d *Reader) RowBytes() int {
	return d.info.Width * d.outChannels * d.outDepth / 8
}

// ReadRow decodes the next row into row. For interlaced images row must
// hold the pixels produced by earlier passes: only the pixels of the
// current pass are written, and rows without pixels in the current pass
// are left untouched.
func (d *Reader) ReadRow(row []byte) error {
	if !d.updated {
		return errors.New("png: ReadRow before UpdateInfo")
	}
	if d.pass >= d.Passes() {
		return errors.New("png: ReadRow past the last row")
	}
	if len(row) < d.RowBytes() {
		return fmt.Errorf("png: row buffer too small: %d < %d", len(row), d.RowBytes())
	}
	defer d.advance()

	in := &d.info
	if in.Interlace != InterlaceAdam7 {
		if err := d.readStored(in.Width); err != nil {
			return err
		}
		d.expand(row, d.cr0[1:], in.Width)
		return nil
	}

	p := interlacing[d.pass]
	pw, _ := p.passSize(in.Width, in.Height)
	if pw == 0 || !p.contains(d.y) {
		return nil
	}
	if err := d.readStored(pw); err != nil {
		return err
	}
	d.expand(d.tmp, d.cr0[1:], pw)
	bpp := d.outChannels * d.outDepth / 8
	for i, x := 0, p.xOffset; i < pw; i, x = i+1, x+p.xFactor {
		copy(row[x*bpp:(x+1)*bpp], d.tmp[i*bpp:(i+1)*bpp])
	}
	return nil
}

func (d *Reader) advance() {
	d.y++
	if d.y == d.info.Height {
		d.y = 0
		d.pass++
		clear(d.pr0)
	}
}

// readStored inflates and unfilters one stored row of width pixels into
// d.cr0.
func (d *Reader) readStored(width int) error {
	n := 1 + d.info.rowBytes(width)
	cr, pr := d.cr0[:n], d.pr0[:n]
	if _, err := io.ReadFull(d.zr, cr); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return FormatError("not enough pixel data")
		}
		return d.inflateError(err)
	}
	bpp := max(1, d.info.BitsPerPixel()/8)
	if err := unfilter(cr[0], cr[1:], pr[1:], bpp); err != nil {
		return err
	}
	copy(pr, cr)
	return nil
}

func (d *Reader) inflateError(err error) error {
	var ioErr *IOError
	var fe FormatError
	if errors.As(err, &ioErr) || errors.As(err, &fe) || errors.Is(err, io.ErrUnexpectedEOF) {
		return err
	}
	return FormatError("zlib: " + err.Error())
}

// Read presents one or more IDAT chunks as one continuous stream (minus the
// intermediate chunk headers and footers).
func (d *Reader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for d.idatLength == 0 {
		// We have exhausted an IDAT chunk. Verify the checksum of that chunk.
		if err := d.cr.verify(); err != nil {
			return 0, err
		}
		// Read the length and chunk type of the next chunk, and check that
		// it is an IDAT chunk.
		length, typ, err := d.cr.next()
		if err != nil {
			return 0, err
		}
		if typ != chunkIDAT {
			return 0, FormatError("not enough pixel data")
		}
		d.idatLength = length
	}
	n, err := d.cr.r.Read(p[:min(len(p), int(d.idatLength))])
	d.cr.crc.Write(p[:n])
	d.idatLength -= uint32(n)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, &IOError{Err: err}
	}
	if errors.Is(err, io.EOF) && d.idatLength > 0 {
		return n, io.ErrUnexpectedEOF
	}
	return n, nil
}

// ReadEnd checks the end of the zlib stream and reads the remaining chunks
// through IEND. Chunks after the image data are skipped.
func (d *Reader) ReadEnd() error {
	if d.zr != nil {
		var one [1]byte
		n, err := io.ReadFull(d.zr, one[:])
		if n != 0 {
			d.warn("IDAT: extra compressed data")
		} else if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
			return d.inflateError(err)
		}
	}
	// Skip whatever is left of the last IDAT chunk, then the trailing chunks.
	if err := d.cr.skip(d.idatLength); err != nil {
		return err
	}
	d.idatLength = 0
	if err := d.cr.verify(); err != nil {
		return err
	}
	for {
		length, typ, err := d.cr.next()
		if err != nil {
			return err
		}
		if typ == chunkIEND {
			if length != 0 {
				return FormatError("bad IEND length")
			}
			if err := d.cr.verify(); err != nil {
				return err
			}
			d.stage = dsSeenIEND
			return nil
		}
		if IsCritical(typ) && typ != chunkIDAT {
			return UnsupportedError(fmt.Sprintf("critical chunk %q", typ))
		}
		if err := d.cr.skip(length); err != nil {
			return err
		}
		if err := d.cr.verify(); err != nil {
			d.warn("%s: CRC error after image data", typ)
		}
	}
}

// Close releases the inflater. It is safe to call more than once.
func (d *Reader) Close() error {
	if d.zr == nil {
		return nil
	}
	err := d.zr.Close()
	d.zr = nil
	d.cr0, d.pr0, d.tmp = nil, nil, nil
	return err
}
