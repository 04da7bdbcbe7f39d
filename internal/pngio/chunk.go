// Package pngio reads and writes the PNG bitstream: chunk framing, CRCs,
// IHDR, the ancillary chunks that carry color information, row filtering,
// Adam7 interlacing and the zlib-compressed IDAT stream.
//
// It is a row-oriented primitive. Callers drive it one row at a time and get
// every failure back as an error value.
package pngio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"hash/crc32"
	"io"
)

// Signature is the 8-byte magic that starts every PNG stream.
const Signature = "\x89PNG\r\n\x1a\n"

// Chunk types understood by this package.
const (
	chunkIHDR = "IHDR"
	chunkPLTE = "PLTE"
	chunkIDAT = "IDAT"
	chunkIEND = "IEND"
	chunkTRNS = "tRNS"
	chunkGAMA = "gAMA"
	chunkCHRM = "cHRM"
	chunkSRGB = "sRGB"
	chunkICCP = "iCCP"
	chunkBKGD = "bKGD"
)

const maxChunkLength = 0x7fffffff

// A FormatError reports that the input is not a valid PNG.
type FormatError string

func (e FormatError) Error() string { return "png: invalid format: " + string(e) }

var chunkOrderError = FormatError("chunk out of order")

// An UnsupportedError reports that the input uses a valid but unimplemented PNG feature.
type UnsupportedError string

func (e UnsupportedError) Error() string { return "png: unsupported feature: " + string(e) }

// An IOError reports that the underlying stream failed.
type IOError struct {
	Err error
}

func (e *IOError) Error() string { return "png: i/o: " + e.Err.Error() }

func (e *IOError) Unwrap() error { return e.Err }

// IsCritical reports whether a chunk type is critical (upper-case first letter).
func IsCritical(typ string) bool {
	return len(typ) == 4 && typ[0] >= 'A' && typ[0] <= 'Z'
}

// chunkReader frames the stream into chunks and checks their CRCs.
type chunkReader struct {
	r   io.Reader
	crc hash.Hash32
	tmp [8]byte
}

func newChunkReader(r io.Reader) *chunkReader {
	return &chunkReader{r: r, crc: crc32.NewIEEE()}
}

// readFull reads len(p) bytes. A clean or partial EOF becomes
// io.ErrUnexpectedEOF; any other stream failure is wrapped in *IOError.
func (c *chunkReader) readFull(p []byte) error {
	_, err := io.ReadFull(c.r, p)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return io.ErrUnexpectedEOF
	default:
		return &IOError{Err: err}
	}
}

// next reads a chunk header and starts the CRC over the chunk type.
func (c *chunkReader) next() (length uint32, typ string, err error) {
	if err := c.readFull(c.tmp[:8]); err != nil {
		return 0, "", err
	}
	length = binary.BigEndian.Uint32(c.tmp[:4])
	if length > maxChunkLength {
		return 0, "", FormatError(fmt.Sprintf("bad chunk length: %d", length))
	}
	c.crc.Reset()
	c.crc.Write(c.tmp[4:8])
	return length, string(c.tmp[4:8]), nil
}

// data reads n payload bytes into a new slice.
func (c *chunkReader) data(n uint32) ([]byte, error) {
	buf := make([]byte, n)
	if err := c.readFull(buf); err != nil {
		return nil, err
	}
	c.crc.Write(buf)
	return buf, nil
}

// skip discards n payload bytes, keeping the CRC running.
func (c *chunkReader) skip(n uint32) error {
	var ignored [4096]byte
	for n > 0 {
		m := min(len(ignored), int(n))
		if err := c.readFull(ignored[:m]); err != nil {
			return err
		}
		c.crc.Write(ignored[:m])
		n -= uint32(m)
	}
	return nil
}

// verify reads the trailing CRC and compares it with the running one.
func (c *chunkReader) verify() error {
	if err := c.readFull(c.tmp[:4]); err != nil {
		return err
	}
	if binary.BigEndian.Uint32(c.tmp[:4]) != c.crc.Sum32() {
		return FormatError("invalid checksum")
	}
	return nil
}

// writeChunk writes one complete chunk.
func writeChunk(w io.Writer, typ string, data []byte) error {
	if len(data) > maxChunkLength {
		return UnsupportedError(fmt.Sprintf("%s chunk too large: %d bytes", typ, len(data)))
	}
	var hdr [8]byte
	binary.BigEndian.PutUint32(hdr[:4], uint32(len(data)))
	copy(hdr[4:], typ)
	crc := crc32.NewIEEE()
	crc.Write(hdr[4:8])
	crc.Write(data)
	var footer [4]byte
	binary.BigEndian.PutUint32(footer[:], crc.Sum32())

	if _, err := w.Write(hdr[:]); err != nil {
		return &IOError{Err: err}
	}
	if _, err := w.Write(data); err != nil {
		return &IOError{Err: err}
	}
	if _, err := w.Write(footer[:]); err != nil {
		return &IOError{Err: err}
	}
	return nil
}
