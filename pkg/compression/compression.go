// Package compression recognises gzip and zstd payloads by their magic bytes and
// provides matching readers and writers.
package compression

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// Type represents the compression algorithm used.
type Type uint8

const (
	TypeNone Type = iota
	TypeGzip
	TypeZstd
)

// String returns the algorithm name.
func (t Type) String() string {
	switch t {
	case TypeGzip:
		return "gzip"
	case TypeZstd:
		return "zstd"
	default:
		return "none"
	}
}

// Level represents the compression level.
type Level int

const (
	LevelFastest Level = 1
	LevelDefault Level = 3
	LevelBest    Level = 9
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// Detect identifies the compression of data from its leading bytes.
func Detect(data []byte) Type {
	switch {
	case bytes.HasPrefix(data, zstdMagic):
		return TypeZstd
	case bytes.HasPrefix(data, gzipMagic):
		return TypeGzip
	default:
		return TypeNone
	}
}

// ErrTooLarge is returned when decoded output exceeds the caller's limit.
var ErrTooLarge = fmt.Errorf("decompressed data too large")

// Decode undoes gzip or zstd compression detected in data. Uncompressed input is
// returned as is. maxSize > 0 bounds the decoded length.
func Decode(data []byte, maxSize int64) ([]byte, Type, error) {
	t := Detect(data)
	if t == TypeNone {
		return data, t, nil
	}

	r, err := NewReader(t, bytes.NewReader(data))
	if err != nil {
		return nil, t, err
	}
	defer r.Close()

	var src io.Reader = r
	if maxSize > 0 {
		src = io.LimitReader(r, maxSize+1)
	}
	out, err := io.ReadAll(src)
	if err != nil {
		return nil, t, fmt.Errorf("failed to decompress %s data: %w", t, err)
	}
	if maxSize > 0 && int64(len(out)) > maxSize {
		return nil, t, fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, maxSize)
	}
	return out, t, nil
}

// NewReader returns a reader that decompresses r.
func NewReader(t Type, r io.Reader) (io.ReadCloser, error) {
	switch t {
	case TypeGzip:
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return gz, nil
	case TypeZstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		return dec.IOReadCloser(), nil
	case TypeNone:
		return io.NopCloser(r), nil
	default:
		return nil, fmt.Errorf("unknown compression type: %d", t)
	}
}

// NewWriter returns a writer that compresses into w. Close flushes it.
func NewWriter(t Type, w io.Writer, level Level) (io.WriteCloser, error) {
	switch t {
	case TypeGzip:
		gzipLevel := gzip.DefaultCompression
		switch level {
		case LevelFastest:
			gzipLevel = gzip.BestSpeed
		case LevelBest:
			gzipLevel = gzip.BestCompression
		}
		return gzip.NewWriterLevel(w, gzipLevel)
	case TypeZstd:
		zstdLevel := zstd.SpeedDefault
		switch level {
		case LevelFastest:
			zstdLevel = zstd.SpeedFastest
		case LevelBest:
			zstdLevel = zstd.SpeedBestCompression
		}
		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstdLevel))
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		return enc, nil
	case TypeNone:
		return nopWriteCloser{w}, nil
	default:
		return nil, fmt.Errorf("unknown compression type: %d", t)
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
