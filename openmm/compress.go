package openmm

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Compression is chosen from the file name: .gz files are gzip-compressed,
// .zst files zstd-compressed and anything else is plain text.

type compression int

const (
	plain compression = iota
	gzipped
	zstandard
)

func compressionFor(name string) compression {
	n := strings.ToLower(name)
	switch {
	case strings.HasSuffix(n, ".gz"):
		return gzipped
	case strings.HasSuffix(n, ".zst"):
		return zstandard
	}
	return plain
}

type multiCloser struct {
	io.Reader
	closers []func() error
}

func (m *multiCloser) Close() error {
	var err error
	for _, c := range m.closers {
		if e := c(); e != nil && err == nil {
			err = e
		}
	}
	return err
}

// openReader opens the named file, and wraps it in a decompressor if needed.
// A corrupted compressed stream is a format error.
func openReader(name string) (io.ReadCloser, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	br := bufio.NewReader(f)
	switch compressionFor(name) {
	case gzipped:
		z, err := gzip.NewReader(br)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("%w: %s: %w", ErrFormat, name, err)
		}
		return &multiCloser{Reader: z, closers: []func() error{z.Close, f.Close}}, nil
	case zstandard:
		z, err := zstd.NewReader(br)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("%w: %s: %w", ErrFormat, name, err)
		}
		return &multiCloser{Reader: z, closers: []func() error{func() error { z.Close(); return nil }, f.Close}}, nil
	}
	return &multiCloser{Reader: br, closers: []func() error{f.Close}}, nil
}

type writeCloser struct {
	io.Writer
	closers []func() error
}

func (w *writeCloser) Close() error {
	var err error
	for _, c := range w.closers {
		if e := c(); e != nil && err == nil {
			err = e
		}
	}
	return err
}

// createWriter creates the named file, with a compressor if needed. Closing
// the returned writer flushes everything to disk.
func createWriter(name string) (io.WriteCloser, error) {
	f, err := os.Create(name)
	if err != nil {
		return nil, err
	}
	bw := bufio.NewWriter(f)
	switch compressionFor(name) {
	case gzipped:
		z := gzip.NewWriter(bw)
		return &writeCloser{Writer: z, closers: []func() error{z.Close, bw.Flush, f.Close}}, nil
	case zstandard:
		z, err := zstd.NewWriter(bw, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
		if err != nil {
			f.Close()
			return nil, err
		}
		return &writeCloser{Writer: z, closers: []func() error{z.Close, bw.Flush, f.Close}}, nil
	}
	return &writeCloser{Writer: bw, closers: []func() error{bw.Flush, f.Close}}, nil
}

// ReadXMLFile reads a system from the named file. Errors opening the file
// are returned as they are, errors in its contents wrap ErrFormat.
func ReadXMLFile(name string) (*System, error) {
	r, err := openReader(name)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	S, err := ReadXML(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return S, nil
}

// WriteXMLFile writes the system to the named file.
func (S *System) WriteXMLFile(name string) error {
	w, err := createWriter(name)
	if err != nil {
		return err
	}
	if err := S.WriteXML(w); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
