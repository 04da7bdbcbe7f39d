package pipeline

import (
	"bufio"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
)

// WriteFlushCloser is an output stream.
type WriteFlushCloser interface {
	io.Writer
	Flush() error
	Close() error
}

type input struct {
	*bufio.Reader
	c io.Closer
}

func (in *input) Close() error {
	if in.c == nil {
		return nil
	}
	return in.c.Close()
}

type output struct {
	*bufio.Writer
	c io.Closer
}

func (out *output) Close() error {
	err := out.Flush()
	if out.c != nil {
		if cerr := out.c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// localPath turns a locator into a file path. "-" is returned as is.
func localPath(locator string) (string, error) {
	if !strings.Contains(locator, "://") {
		return locator, nil
	}
	u, err := url.Parse(locator)
	if err != nil {
		return "", fmt.Errorf("parsing %s: %w", locator, err)
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("unsupported URI scheme %q", u.Scheme)
	}
	return u.Path, nil
}

// OpenInput opens a path, a file:// URI, or "-" for stdin. Closing the
// result does not close stdin.
func OpenInput(locator string) (io.ReadCloser, error) {
	path, err := localPath(locator)
	if err != nil {
		return nil, err
	}
	if path == "-" {
		return &input{Reader: bufio.NewReader(os.Stdin)}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &input{Reader: bufio.NewReader(f), c: f}, nil
}

// OpenOutput creates a path, a file:// URI, or "-" for stdout. Close
// flushes; it does not close stdout.
func OpenOutput(locator string) (WriteFlushCloser, error) {
	path, err := localPath(locator)
	if err != nil {
		return nil, err
	}
	if path == "-" {
		return &output{Writer: bufio.NewWriter(os.Stdout)}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &output{Writer: bufio.NewWriter(f), c: f}, nil
}
