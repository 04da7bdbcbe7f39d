package png

import "github.com/davesmith10/pngcms/internal/pixfmt"

// RowReader supplies rows to the encoder. GetRow fills p with row y
// converted to f; p holds exactly f.RowBytes(width) bytes. A progressive
// encode asks for each row once; an interlaced one asks again on every pass.
type RowReader interface {
	GetRow(y int, f pixfmt.Format, p []byte) error
}

// RowWriter receives decoded rows. p is reused for the next row and must
// not be retained.
type RowWriter interface {
	SetRow(y int, f pixfmt.Format, p []byte) error
}

// RowBuffer is a destination that can also hand rows back, as interlaced
// decoding requires.
type RowBuffer interface {
	RowReader
	RowWriter
}
