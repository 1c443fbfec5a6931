// Package writer provides JSON and compressed JSON encoders shared by the output formats.
package writer

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/webpack-chart/pkg/compression"
)

// Encoder writes values of type T to an io.Writer.
type Encoder[T any] interface {
	Write(data T, w io.Writer) error
}

// JSONWriter writes data as JSON.
type JSONWriter[T any] struct {
	// Indent specifies the indentation for pretty printing.
	// Empty string means compact output.
	Indent string
}

// NewJSONWriter creates a new JSON writer with compact output.
func NewJSONWriter[T any]() *JSONWriter[T] {
	return &JSONWriter[T]{}
}

// NewPrettyJSONWriter creates a JSON writer with pretty printing.
func NewPrettyJSONWriter[T any]() *JSONWriter[T] {
	return &JSONWriter[T]{Indent: "  "}
}

// Write writes the data as JSON to the writer.
func (w *JSONWriter[T]) Write(data T, out io.Writer) error {
	encoder := json.NewEncoder(out)
	if w.Indent != "" {
		encoder.SetIndent("", w.Indent)
	}
	return encoder.Encode(data)
}

// GzipWriter writes data as gzipped JSON.
type GzipWriter[T any] struct {
	// CompressionLevel is the gzip compression level (1-9).
	CompressionLevel int
}

// NewGzipWriter creates a new gzip writer with default compression.
func NewGzipWriter[T any]() *GzipWriter[T] {
	return &GzipWriter[T]{CompressionLevel: gzip.DefaultCompression}
}

// Write writes the data as gzipped JSON to the writer.
func (w *GzipWriter[T]) Write(data T, out io.Writer) error {
	gz, err := gzip.NewWriterLevel(out, w.CompressionLevel)
	if err != nil {
		return fmt.Errorf("failed to create gzip writer: %w", err)
	}

	if err := json.NewEncoder(gz).Encode(data); err != nil {
		gz.Close()
		return fmt.Errorf("failed to encode data: %w", err)
	}

	return gz.Close()
}

// ZstdWriter writes data as zstd-compressed JSON.
type ZstdWriter[T any] struct {
	Level compression.Level
}

// NewZstdWriter creates a zstd writer at the default level.
func NewZstdWriter[T any]() *ZstdWriter[T] {
	return &ZstdWriter[T]{Level: compression.LevelDefault}
}

// Write writes the data as zstd-compressed JSON to the writer.
func (w *ZstdWriter[T]) Write(data T, out io.Writer) error {
	zw, err := compression.NewWriter(compression.TypeZstd, out, w.Level)
	if err != nil {
		return err
	}

	if err := json.NewEncoder(zw).Encode(data); err != nil {
		zw.Close()
		return fmt.Errorf("failed to encode data: %w", err)
	}

	return zw.Close()
}

// WriteResult contains statistics about a written file.
type WriteResult struct {
	Path  string
	Bytes int64
}

// WriteFile encodes data with enc into a newly created file at path.
func WriteFile[T any](enc Encoder[T], data T, path string) (*WriteResult, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if err := enc.Write(data, file); err != nil {
		return nil, err
	}

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	return &WriteResult{Path: path, Bytes: info.Size()}, nil
}
