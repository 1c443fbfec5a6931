package chart

import (
	"github.com/webpack-chart/internal/sizetree"
)

// LayoutOptions controls slice generation.
type LayoutOptions struct {
	// MaxDepth is the number of rings drawn around the centre.
	MaxDepth int
	Style    Style
	Labeler  *Labeler
}

// DefaultLayoutOptions returns four rings, the default style and a 15 degree threshold.
func DefaultLayoutOptions() *LayoutOptions {
	return &LayoutOptions{
		MaxDepth: 4,
		Style:    DefaultStyle{},
		Labeler:  NewLabeler(DefaultLabelThreshold),
	}
}

// Slice is one segment of the sunburst.
type Slice struct {
	Path            []string `json:"path"`
	Label           string   `json:"label"`
	Text            string   `json:"text,omitempty"`
	LabelHidden     bool     `json:"labelHidden"`
	Value           int64    `json:"value"`
	Size            string   `json:"size"`
	Level           int      `json:"level"`
	Start           float64  `json:"start"`
	End             float64  `json:"end"`
	Fill            string   `json:"fill,omitempty"`
	LabelBackground string   `json:"labelBackground,omitempty"`
	HasChildren     bool     `json:"hasChildren"`
}

// View is the laid-out selection. Root is the centre disc; Slices holds the rings
// in depth-first order.
type View struct {
	Style  string  `json:"style"`
	Root   Slice   `json:"root"`
	Slices []Slice `json:"slices"`
}

// Layout lays out node and up to MaxDepth levels below it. The centre spans the
// full circle and each child takes a share of its parent's span proportional to
// value. Zero-valued subtrees get no slices.
func Layout(node *sizetree.Node, opts *LayoutOptions) *View {
	if opts == nil {
		opts = DefaultLayoutOptions()
	}
	style := opts.Style
	if style == nil {
		style = DefaultStyle{}
	}
	labeler := opts.Labeler
	if labeler == nil {
		labeler = NewLabeler(DefaultLabelThreshold)
	}

	l := &layouter{maxDepth: opts.MaxDepth, style: style, labeler: labeler}
	view := &View{Style: style.Name(), Slices: make([]Slice, 0)}
	if node == nil {
		return view
	}

	view.Root = l.slice(node, 0, 0, 360)
	view.Slices = l.rings(node, 1, 0, 360, view.Slices)
	return view
}

type layouter struct {
	maxDepth int
	style    Style
	labeler  *Labeler
}

func (l *layouter) rings(parent *sizetree.Node, level int, start, end float64, out []Slice) []Slice {
	if level > l.maxDepth || parent.Value <= 0 {
		return out
	}

	span := end - start
	cursor := start
	for _, child := range parent.Children {
		if child.Value <= 0 {
			continue
		}
		width := span * float64(child.Value) / float64(parent.Value)
		out = append(out, l.slice(child, level, cursor, cursor+width))
		out = l.rings(child, level+1, cursor, cursor+width, out)
		cursor += width
	}
	return out
}

func (l *layouter) slice(n *sizetree.Node, level int, start, end float64) Slice {
	text, shown := l.labeler.Label(RenderContext{Level: level, Start: start, End: end, Node: n}, n.Label)
	return Slice{
		Path:            n.Path(),
		Label:           n.Label,
		Text:            text,
		LabelHidden:     !shown,
		Value:           n.Value,
		Size:            FormatSize(n.Value),
		Level:           level,
		Start:           start,
		End:             end,
		Fill:            l.style.SliceFill(level),
		LabelBackground: l.style.LabelBackground(level),
		HasChildren:     !n.IsLeaf(),
	}
}
