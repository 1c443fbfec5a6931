package chart

import (
	"fmt"

	"github.com/webpack-chart/internal/sizetree"
)

// DefaultLabelThreshold is the smallest angular span, in degrees, that gets a label.
const DefaultLabelThreshold = 15.0

// RenderContext describes one slice as the renderer sees it.
type RenderContext struct {
	Level int
	Start float64 // degrees
	End   float64 // degrees
	Node  *sizetree.Node
}

// Span returns the angular width of the slice.
func (c RenderContext) Span() float64 {
	return c.End - c.Start
}

// Labeler produces slice label text.
type Labeler struct {
	Threshold float64
}

// NewLabeler creates a labeler. A negative threshold selects the default.
func NewLabeler(threshold float64) *Labeler {
	if threshold < 0 {
		threshold = DefaultLabelThreshold
	}
	return &Labeler{Threshold: threshold}
}

// Label returns the text for a slice and false when the slice is too narrow
// to carry one. The centre slice also shows the total size.
func (l *Labeler) Label(ctx RenderContext, label string) (string, bool) {
	if ctx.Span() <= l.Threshold {
		return "", false
	}
	if ctx.Level != 0 {
		return label, true
	}

	if label == "" {
		label = "All"
	}
	var value int64
	if ctx.Node != nil {
		value = ctx.Node.Value
	}
	return fmt.Sprintf("%s (size: %s)", label, FormatSize(value)), true
}
