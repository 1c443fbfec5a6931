// Package navigation holds the drill-down state of a size tree viewer.
//
// A Controller references the whole tree and the node currently on display.
// Activating a node with children zooms into it; activating the displayed node
// again zooms back out to its parent. Nothing else changes the selection.
package navigation

import (
	"github.com/webpack-chart/internal/sizetree"
)

// Transition describes what an activation did to the selection.
type Transition int

const (
	TransitionNone Transition = iota
	TransitionZoomIn
	TransitionZoomOut
)

// String returns the lower-case name of the transition.
func (t Transition) String() string {
	switch t {
	case TransitionZoomIn:
		return "zoom_in"
	case TransitionZoomOut:
		return "zoom_out"
	default:
		return "none"
	}
}

// Controller owns the selection for one tree. It is not safe for concurrent use;
// callers serialise events.
type Controller struct {
	tree     *sizetree.Tree
	selected *sizetree.Node
}

// NewController creates a controller showing the root of tree.
func NewController(tree *sizetree.Tree) *Controller {
	c := &Controller{}
	c.Initialize(tree)
	return c
}

// Initialize replaces the tree and resets the selection to its root.
// A nil tree is replaced by an empty one.
func (c *Controller) Initialize(tree *sizetree.Tree) {
	if tree == nil || tree.Root == nil {
		tree = sizetree.Empty("")
	}
	c.tree = tree
	c.selected = tree.Root
}

// Tree returns the full tree.
func (c *Controller) Tree() *sizetree.Tree {
	return c.tree
}

// Selected returns the node currently on display.
func (c *Controller) Selected() *sizetree.Node {
	return c.selected
}

// Activate applies a click on node.
func (c *Controller) Activate(node *sizetree.Node) Transition {
	if node == nil {
		return TransitionNone
	}
	if node == c.selected {
		return c.ZoomOut()
	}
	if node.IsLeaf() || !c.tree.Contains(node) {
		return TransitionNone
	}
	c.selected = node
	return TransitionZoomIn
}

// ZoomOut moves the selection to its parent. At the root it does nothing.
func (c *Controller) ZoomOut() Transition {
	parent := c.selected.Parent()
	if parent == nil {
		return TransitionNone
	}
	c.selected = parent
	return TransitionZoomOut
}

// Breadcrumb returns the nodes from the root down to the selection.
func (c *Controller) Breadcrumb() []*sizetree.Node {
	crumbs := make([]*sizetree.Node, c.selected.Depth()+1)
	i := len(crumbs) - 1
	for n := c.selected; n != nil; n = n.Parent() {
		crumbs[i] = n
		i--
	}
	return crumbs
}
