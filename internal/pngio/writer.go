package pngio

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/davesmith10/pngcms/internal/color"
)

// Flusher is implemented by output streams that can push buffered bytes to
// their destination.
type Flusher interface {
	Flush() error
}

// Writer encodes a PNG stream row by row.
//
// Call SetHeader and any chunk setters, then WriteInfo, then WriteRow Height
// times per pass, then WriteEnd. Close releases the deflater.
type Writer struct {
	w     io.Writer
	level int

	header  Header
	emit    color.Emission
	bkgd    []uint16
	swap    bool
	written bool

	zw   *zlib.Writer
	bw   *bufio.Writer
	pass int
	y    int
	cr   [nFilter][]byte
	pr   []byte
	in   []byte // pass pixels gathered from a full row
	done bool
}

// NewWriter returns a Writer that deflates image data at level (1-9).
func NewWriter(w io.Writer, level int) (*Writer, error) {
	if level < 1 || level > 9 {
		return nil, fmt.Errorf("png: compression level %d out of range 1-9", level)
	}
	return &Writer{w: w, level: level}, nil
}

// SetHeader sets the IHDR content. Palette images are not written.
func (e *Writer) SetHeader(h Header) error {
	if err := h.Validate(); err != nil {
		return err
	}
	if h.ColorType == ColorPalette || h.BitDepth < 8 {
		return UnsupportedError("palette or packed output")
	}
	e.header = h
	return nil
}

// SetColor sets the color chunks to write.
func (e *Writer) SetColor(em color.Emission) { e.emit = em }

// SetBackground sets the bKGD samples, one per color channel.
func (e *Writer) SetBackground(v ...uint16) { e.bkgd = v }

// SetSwap accepts 16-bit rows least significant byte first.
func (e *Writer) SetSwap() { e.swap = true }

// Passes returns how many times each row must be written.
func (e *Writer) Passes() int {
	if e.header.Interlace == InterlaceAdam7 {
		return len(interlacing)
	}
	return 1
}

// WriteInfo writes the signature, IHDR and the ancillary chunks that must
// precede the image data.
func (e *Writer) WriteInfo() error {
	if e.header.Width == 0 {
		return errors.New("png: WriteInfo before SetHeader")
	}
	if e.written {
		return errors.New("png: WriteInfo called twice")
	}
	e.written = true
	if _, err := io.WriteString(e.w, Signature); err != nil {
		return &IOError{Err: err}
	}
	if err := writeChunk(e.w, chunkIHDR, e.header.marshal()); err != nil {
		return err
	}
	if icc := e.emit.ICC; icc != nil {
		b, err := marshalICCP(icc, e.level)
		if err != nil {
			return err
		}
		if err := writeChunk(e.w, chunkICCP, b); err != nil {
			return err
		}
	} else if e.emit.SRGB != nil {
		if err := writeChunk(e.w, chunkSRGB, []byte{byte(*e.emit.SRGB)}); err != nil {
			return err
		}
	}
	if e.emit.Gamma > 0 {
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], uint32(e.emit.Gamma*100000+0.5))
		if err := writeChunk(e.w, chunkGAMA, b[:]); err != nil {
			return err
		}
	}
	if c := e.emit.Chrm; c != nil {
		b := make([]byte, 32)
		for i, v := range [8]float64{c.White.X, c.White.Y, c.Red.X, c.Red.Y, c.Green.X, c.Green.Y, c.Blue.X, c.Blue.Y} {
			binary.BigEndian.PutUint32(b[4*i:], uint32(v*100000+0.5))
		}
		if err := writeChunk(e.w, chunkCHRM, b); err != nil {
			return err
		}
	}
	if len(e.bkgd) > 0 {
		b := make([]byte, 2*len(e.bkgd))
		for i, v := range e.bkgd {
			binary.BigEndian.PutUint16(b[2*i:], v)
		}
		if err := writeChunk(e.w, chunkBKGD, b); err != nil {
			return err
		}
	}

	rowSize := 1 + e.header.rowBytes(e.header.Width)
	for i := range e.cr {
		e.cr[i] = make([]byte, rowSize)
	}
	e.pr = make([]byte, rowSize)
	e.in = make([]byte, rowSize-1)
	e.bw = bufio.NewWriterSize(chunkWriter{e.w}, 1<<15)
	zw, err := zlib.NewWriterLevel(e.bw, e.level)
	if err != nil {
		return err
	}
	e.zw = zw
	return nil
}

func marshalICCP(icc *color.ICCChunk, level int) ([]byte, error) {
	if len(icc.Name) < 1 || len(icc.Name) > 79 {
		return nil, FormatError(fmt.Sprintf("bad iCCP profile name %q", icc.Name))
	}
	var buf bytes.Buffer
	buf.WriteString(icc.Name)
	buf.Write([]byte{0, 0})
	zw, err := zlib.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(icc.Profile); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteRow writes one full-width row in the header's format. For
// interlaced images every row is written once per pass and only the pixels
// of the current pass are taken from it.
func (e *Writer) WriteRow(row []byte) error {
	if e.zw == nil {
		return errors.New("png: WriteRow before WriteInfo")
	}
	if e.pass >= e.Passes() {
		return errors.New("png: WriteRow past the last row")
	}
	n := e.header.rowBytes(e.header.Width)
	if len(row) < n {
		return fmt.Errorf("png: row too short: %d < %d", len(row), n)
	}
	defer e.advance()

	src := row[:n]
	width := e.header.Width
	if e.header.Interlace == InterlaceAdam7 {
		p := interlacing[e.pass]
		pw, _ := p.passSize(e.header.Width, e.header.Height)
		if pw == 0 || !p.contains(e.y) {
			return nil
		}
		bpp := e.header.BitsPerPixel() / 8
		for i, x := 0, p.xOffset; i < pw; i, x = i+1, x+p.xFactor {
			copy(e.in[i*bpp:(i+1)*bpp], row[x*bpp:(x+1)*bpp])
		}
		src, width = e.in[:pw*bpp], pw
	}
	return e.writeStored(src, width)
}

func (e *Writer) writeStored(src []byte, width int) error {
	n := 1 + e.header.rowBytes(width)
	cr0 := e.cr[0][:n]
	copy(cr0[1:], src)
	if e.swap && e.header.BitDepth == 16 {
		for i := 1; i+1 < n; i += 2 {
			cr0[i], cr0[i+1] = cr0[i+1], cr0[i]
		}
	}
	var cr [nFilter][]byte
	for i := range cr {
		cr[i] = e.cr[i][:n]
	}
	pr := e.pr[:n]
	f := chooseFilter(&cr, pr, e.header.BitsPerPixel()/8)
	if _, err := e.zw.Write(cr[f]); err != nil {
		return wrapWriteError(err)
	}
	// The previous row keeps the unfiltered bytes.
	copy(pr, cr0)
	return nil
}

func (e *Writer) advance() {
	e.y++
	if e.y == e.header.Height {
		e.y = 0
		e.pass++
		clear(e.pr)
	}
}

// WriteEnd finishes the image data, writes IEND and flushes the stream.
func (e *Writer) WriteEnd() error {
	if e.zw == nil {
		return errors.New("png: WriteEnd before WriteInfo")
	}
	if e.pass < e.Passes() {
		return fmt.Errorf("png: WriteEnd after %d of %d rows", e.pass*e.header.Height+e.y, e.Passes()*e.header.Height)
	}
	if err := e.zw.Close(); err != nil {
		return wrapWriteError(err)
	}
	if err := e.bw.Flush(); err != nil {
		return wrapWriteError(err)
	}
	e.done = true
	if err := writeChunk(e.w, chunkIEND, nil); err != nil {
		return err
	}
	if f, ok := e.w.(Flusher); ok {
		if err := f.Flush(); err != nil {
			return &IOError{Err: err}
		}
	}
	return nil
}

// Close releases the deflater. It is safe to call more than once.
func (e *Writer) Close() error {
	if e.zw == nil {
		return nil
	}
	if !e.done {
		// Drop unwritten data; the output is incomplete anyway.
		e.zw.Reset(io.Discard)
	}
	e.zw, e.bw = nil, nil
	e.cr = [nFilter][]byte{}
	e.pr, e.in = nil, nil
	return nil
}

func wrapWriteError(err error) error {
	var ioErr *IOError
	if errors.As(err, &ioErr) {
		return err
	}
	return fmt.Errorf("png: deflate: %w", err)
}

// chunkWriter wraps every write in an IDAT chunk.
type chunkWriter struct {
	w io.Writer
}

func (c chunkWriter) Write(b []byte) (int, error) {
	if err := writeChunk(c.w, chunkIDAT, b); err != nil {
		return 0, err
	}
	return len(b), nil
}
