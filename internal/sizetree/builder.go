package sizetree

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/webpack-chart/internal/report"
	"github.com/webpack-chart/pkg/telemetry"
)

// BuilderOptions holds configuration options for the tree builder.
type BuilderOptions struct {
	// Separator splits module names into segments.
	Separator string
}

// DefaultBuilderOptions returns default builder options.
func DefaultBuilderOptions() *BuilderOptions {
	return &BuilderOptions{Separator: "/"}
}

// Builder builds size trees from reports. It holds no state between builds.
type Builder struct {
	opts *BuilderOptions
}

// NewBuilder creates a new tree builder.
func NewBuilder(opts *BuilderOptions) *Builder {
	if opts == nil {
		opts = DefaultBuilderOptions()
	}
	if opts.Separator == "" {
		opts.Separator = "/"
	}
	return &Builder{opts: opts}
}

// Build folds every module record into a tree rooted at the report's public path.
//
// Each record's size is added to every node on its path, not only the last one.
// A record naming a directory that other records also pass through is therefore
// counted in that directory's value on top of its contents.
func (b *Builder) Build(ctx context.Context, r *report.Report) (*Tree, error) {
	if r == nil {
		return nil, fmt.Errorf("nil report: %w", report.ErrMalformedReport)
	}

	_, span := telemetry.Tracer("sizetree").Start(ctx, "sizetree.Build")
	defer span.End()

	root := NewNode(r.PublicPath, 0)

	for _, m := range r.Modules {
		select {
		case <-ctx.Done():
			span.RecordError(ctx.Err())
			return nil, ctx.Err()
		default:
		}

		b.fold(root, m)
	}

	tree := &Tree{Root: root, ModuleCount: len(r.Modules)}
	sortChildren(root)

	for _, c := range root.Children {
		root.Value += c.Value
	}
	tree.TotalSize = root.Value

	root.Walk(func(n *Node) bool {
		tree.NodeCount++
		if d := n.Depth(); d > tree.MaxDepth {
			tree.MaxDepth = d
		}
		return true
	})

	span.SetAttributes(
		attribute.Int("sizetree.modules", tree.ModuleCount),
		attribute.Int("sizetree.nodes", tree.NodeCount),
		attribute.Int64("sizetree.total_size", tree.TotalSize),
	)

	return tree, nil
}

func (b *Builder) fold(root *Node, m report.Module) {
	node := root
	for _, segment := range strings.Split(m.Name, b.opts.Separator) {
		node = node.getOrAddChild(segment)
		node.Value += m.Size
	}
}

// sortChildren orders children by descending value at every level.
// Ties keep insertion order.
func sortChildren(n *Node) {
	sort.SliceStable(n.Children, func(i, j int) bool {
		return n.Children[i].Value > n.Children[j].Value
	})
	for i, c := range n.Children {
		n.childIndex[c.Label] = i
		sortChildren(c)
	}
}
