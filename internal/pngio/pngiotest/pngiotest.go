// Package pngiotest assembles PNG streams chunk by chunk, for tests that
// need inputs the encoder never writes (palettes, packed gray, damaged
// chunks).
package pngiotest

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"

	"github.com/klauspost/compress/zlib"
)

// Chunk is a chunk to place between IHDR and IDAT.
type Chunk struct {
	Type   string
	Data   []byte
	BadCRC bool
}

// IHDR describes the image.
type IHDR struct {
	Width, Height, BitDepth, ColorType int
}

// Build returns a non-interlaced PNG whose rows are stored with filter type
// None. Each row must hold the packed samples without the filter byte.
func Build(h IHDR, rows [][]byte, chunks ...Chunk) []byte {
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")

	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:], uint32(h.Width))
	binary.BigEndian.PutUint32(ihdr[4:], uint32(h.Height))
	ihdr[8], ihdr[9] = byte(h.BitDepth), byte(h.ColorType)
	writeChunk(&buf, Chunk{Type: "IHDR", Data: ihdr})

	for _, c := range chunks {
		writeChunk(&buf, c)
	}

	var z bytes.Buffer
	zw := zlib.NewWriter(&z)
	for _, r := range rows {
		zw.Write([]byte{0})
		zw.Write(r)
	}
	zw.Close()
	writeChunk(&buf, Chunk{Type: "IDAT", Data: z.Bytes()})
	writeChunk(&buf, Chunk{Type: "IEND"})
	return buf.Bytes()
}

func writeChunk(buf *bytes.Buffer, c Chunk) {
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(c.Data)))
	buf.Write(n[:])
	crc := crc32.NewIEEE()
	crc.Write([]byte(c.Type))
	crc.Write(c.Data)
	buf.WriteString(c.Type)
	buf.Write(c.Data)
	sum := crc.Sum32()
	if c.BadCRC {
		sum = ^sum
	}
	binary.BigEndian.PutUint32(n[:], sum)
	buf.Write(n[:])
}

// Gamma returns a gAMA chunk for g (e.g. 0.45455).
func Gamma(g float64) Chunk {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(g*100000+0.5))
	return Chunk{Type: "gAMA", Data: b}
}

// SRGB returns an sRGB chunk.
func SRGB(intent byte) Chunk {
	return Chunk{Type: "sRGB", Data: []byte{intent}}
}

// ICCP returns an iCCP chunk carrying profile.
func ICCP(name string, profile []byte) Chunk {
	var b bytes.Buffer
	b.WriteString(name)
	b.Write([]byte{0, 0})
	zw := zlib.NewWriter(&b)
	zw.Write(profile)
	zw.Close()
	return Chunk{Type: "iCCP", Data: b.Bytes()}
}
