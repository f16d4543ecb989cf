package qsh

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
)

// Source is a decompressed QSH byte stream. Close releases both the
// decompressor and the underlying file when one was opened by Open.
type Source struct {
	r       io.Reader
	closers []io.Closer
}

// Open opens a QSH capture file and wraps it in the right decompressor.
func Open(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open qsh file: %w", err)
	}
	src, err := NewSource(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	src.closers = append(src.closers, f)
	return src, nil
}

// NewSource wraps an already-open compressed stream. Captures are gzip
// framed; streams without the gzip magic are treated as raw deflate.
func NewSource(r io.Reader) (*Source, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(2)
	if err != nil {
		return nil, fmt.Errorf("read container magic: %w", io.ErrUnexpectedEOF)
	}
	if magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("open gzip container: %w", err)
		}
		return &Source{r: gz, closers: []io.Closer{gz}}, nil
	}
	fr := flate.NewReader(br)
	return &Source{r: fr, closers: []io.Closer{fr}}, nil
}

func (s *Source) Read(p []byte) (int, error) { return s.r.Read(p) }

// Close closes the decompressor and any file opened by Open.
func (s *Source) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
