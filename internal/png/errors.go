package png

import (
	"errors"
	"fmt"

	"github.com/davesmith10/pngcms/internal/pixfmt"
	"github.com/davesmith10/pngcms/internal/pngio"
)

// Error kinds. Match them with errors.Is.
var (
	ErrInvalidHeader     = errors.New("invalid PNG header")
	ErrUnsupportedFormat = pixfmt.ErrUnsupportedFormat
	ErrDecode            = errors.New("PNG decode failed")
	ErrEncode            = errors.New("PNG encode failed")
	ErrIO                = errors.New("PNG stream I/O failed")
)

// Error is returned by every operation in this package. Kind is one of the
// Err* values above; Err is the underlying cause.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("png %s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("png %s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// wrap classifies err. Stream failures become ErrIO, unsupported formats
// keep their kind, and everything else becomes fallback.
func wrap(op string, fallback, err error) error {
	if err == nil {
		return nil
	}
	var pe *Error
	if errors.As(err, &pe) {
		return err
	}
	var ioErr *pngio.IOError
	switch {
	case errors.As(err, &ioErr):
		return &Error{Op: op, Kind: ErrIO, Err: ioErr.Err}
	case errors.Is(err, pixfmt.ErrUnsupportedFormat):
		return &Error{Op: op, Kind: ErrUnsupportedFormat, Err: err}
	}
	return &Error{Op: op, Kind: fallback, Err: err}
}
