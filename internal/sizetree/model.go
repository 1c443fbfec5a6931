// Package sizetree folds flat module records into a nested size tree.
package sizetree

// Node is one path segment of the size hierarchy.
type Node struct {
	Label    string  `json:"label"`
	Value    int64   `json:"value"`
	Children []*Node `json:"children"`

	parent     *Node
	childIndex map[string]int
}

// NewNode creates a node with no children.
func NewNode(label string, value int64) *Node {
	return &Node{
		Label:    label,
		Value:    value,
		Children: make([]*Node, 0),
	}
}

// Parent returns the enclosing node, or nil for the root.
func (n *Node) Parent() *Node {
	return n.parent
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// Depth returns the number of edges between the node and its root.
func (n *Node) Depth() int {
	depth := 0
	for p := n.parent; p != nil; p = p.parent {
		depth++
	}
	return depth
}

// Path returns the labels from the root down to n, root excluded.
func (n *Node) Path() []string {
	path := make([]string, n.Depth())
	i := len(path) - 1
	for cur := n; cur.parent != nil; cur = cur.parent {
		path[i] = cur.Label
		i--
	}
	return path
}

// Child returns the child with the given label, or nil.
func (n *Node) Child(label string) *Node {
	if n.childIndex != nil {
		if idx, ok := n.childIndex[label]; ok {
			return n.Children[idx]
		}
		return nil
	}
	for _, c := range n.Children {
		if c.Label == label {
			return c
		}
	}
	return nil
}

// SelfValue returns the part of Value contributed by records ending at this node.
func (n *Node) SelfValue() int64 {
	self := n.Value
	for _, c := range n.Children {
		self -= c.Value
	}
	return self
}

// Walk visits n and its descendants depth-first in child order.
// Returning false from fn skips the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Equal reports whether two subtrees have the same labels, values and child order.
func (n *Node) Equal(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	if n.Label != other.Label || n.Value != other.Value || len(n.Children) != len(other.Children) {
		return false
	}
	for i := range n.Children {
		if !n.Children[i].Equal(other.Children[i]) {
			return false
		}
	}
	return true
}

// getOrAddChild returns the child labelled label, creating it with value 0.
func (n *Node) getOrAddChild(label string) *Node {
	if n.childIndex == nil {
		n.childIndex = make(map[string]int)
	}
	if idx, ok := n.childIndex[label]; ok {
		return n.Children[idx]
	}
	child := NewNode(label, 0)
	child.parent = n
	n.childIndex[label] = len(n.Children)
	n.Children = append(n.Children, child)
	return child
}

// Tree is a built size tree and its summary.
type Tree struct {
	Root        *Node `json:"root"`
	TotalSize   int64 `json:"totalSize"`
	ModuleCount int   `json:"moduleCount"`
	NodeCount   int   `json:"nodeCount"`
	MaxDepth    int   `json:"maxDepth"`
}

// Empty returns a tree whose root has value 0 and no children.
func Empty(label string) *Tree {
	return &Tree{Root: NewNode(label, 0), NodeCount: 1}
}

// Find returns the node reached by following labels from the root, or nil.
// An empty path yields the root.
func (t *Tree) Find(path []string) *Node {
	if t == nil || t.Root == nil {
		return nil
	}
	node := t.Root
	for _, label := range path {
		node = node.Child(label)
		if node == nil {
			return nil
		}
	}
	return node
}

// Contains reports whether n belongs to this tree, by identity.
func (t *Tree) Contains(n *Node) bool {
	if t == nil || n == nil {
		return false
	}
	root := n
	for root.parent != nil {
		root = root.parent
	}
	return root == t.Root
}
