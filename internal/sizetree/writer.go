package sizetree

import (
	"fmt"
	"io"
	"strings"

	"github.com/webpack-chart/pkg/writer"
)

// Writer defines the interface for writing tree output.
type Writer interface {
	Write(t *Tree, w io.Writer) error
}

// NewJSONWriter creates a compact JSON writer.
func NewJSONWriter() Writer {
	return writer.NewJSONWriter[*Tree]()
}

// NewPrettyJSONWriter creates an indented JSON writer.
func NewPrettyJSONWriter() Writer {
	return writer.NewPrettyJSONWriter[*Tree]()
}

// NewGzipWriter creates a gzipped JSON writer.
func NewGzipWriter() Writer {
	return writer.NewGzipWriter[*Tree]()
}

// NewZstdWriter creates a zstd-compressed JSON writer.
func NewZstdWriter() Writer {
	return writer.NewZstdWriter[*Tree]()
}

// FoldedWriter writes one "seg;seg;seg value" line per node that carries a
// direct contribution, the collapsed-stack format read by flamegraph tools.
type FoldedWriter struct{}

// NewFoldedWriter creates a new folded format writer.
func NewFoldedWriter() *FoldedWriter {
	return &FoldedWriter{}
}

// Write writes the tree in folded format.
func (w *FoldedWriter) Write(t *Tree, out io.Writer) error {
	if t == nil || t.Root == nil {
		return nil
	}
	for _, c := range t.Root.Children {
		if err := w.writeNode(c, nil, out); err != nil {
			return err
		}
	}
	return nil
}

func (w *FoldedWriter) writeNode(n *Node, prefix []string, out io.Writer) error {
	stack := make([]string, len(prefix), len(prefix)+1)
	copy(stack, prefix)
	stack = append(stack, foldedLabel(n.Label))

	if self := n.SelfValue(); self > 0 {
		if _, err := fmt.Fprintf(out, "%s %d\n", strings.Join(stack, ";"), self); err != nil {
			return err
		}
	}

	for _, c := range n.Children {
		if err := w.writeNode(c, stack, out); err != nil {
			return err
		}
	}
	return nil
}

// foldedLabel keeps separators and whitespace out of a frame.
func foldedLabel(label string) string {
	if label == "" {
		return "(empty)"
	}
	return strings.NewReplacer(";", "_", " ", "_", "\n", "_").Replace(label)
}

// Format names an output format.
type Format string

const (
	FormatJSON   Format = "json"
	FormatPretty Format = "pretty"
	FormatGzip   Format = "gzip"
	FormatZstd   Format = "zstd"
	FormatFolded Format = "folded"
)

// Extension returns the conventional file suffix for the format.
func (f Format) Extension() string {
	switch f {
	case FormatGzip:
		return ".tree.json.gz"
	case FormatZstd:
		return ".tree.json.zst"
	case FormatFolded:
		return ".folded"
	default:
		return ".tree.json"
	}
}

// NewWriter returns the writer for a format name.
func NewWriter(format Format) (Writer, error) {
	switch format {
	case FormatJSON:
		return NewJSONWriter(), nil
	case FormatPretty:
		return NewPrettyJSONWriter(), nil
	case FormatGzip:
		return NewGzipWriter(), nil
	case FormatZstd:
		return NewZstdWriter(), nil
	case FormatFolded:
		return NewFoldedWriter(), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriteFile writes the tree to path using w.
func WriteFile(w Writer, t *Tree, path string) (*writer.WriteResult, error) {
	return writer.WriteFile[*Tree](w, t, path)
}
