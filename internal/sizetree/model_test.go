package sizetree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNode_Navigation(t *testing.T) {
	tree := build(t, exampleReport())
	b := tree.Find([]string{"a", "b"})
	require.NotNil(t, b)

	assert.Equal(t, []string{"a", "b"}, b.Path())
	assert.Equal(t, 2, b.Depth())
	assert.True(t, b.IsLeaf())
	assert.Same(t, tree.Root.Children[0], b.Parent())
	assert.Nil(t, tree.Root.Parent())
	assert.Empty(t, tree.Root.Path())
}

func TestNode_ChildWithoutIndex(t *testing.T) {
	parent := NewNode("p", 3)
	parent.Children = append(parent.Children, NewNode("x", 3))

	assert.Equal(t, "x", parent.Child("x").Label)
	assert.Nil(t, parent.Child("y"))
}

func TestNode_Walk_SkipChildren(t *testing.T) {
	tree := build(t, exampleReport())

	var visited []string
	tree.Root.Walk(func(n *Node) bool {
		visited = append(visited, n.Label)
		return n.Label != "a"
	})
	assert.Equal(t, []string{"/", "a", "d"}, visited)
}

func TestNode_Equal(t *testing.T) {
	a := build(t, exampleReport()).Root
	b := build(t, exampleReport()).Root

	assert.True(t, a.Equal(b))
	b.Children[1].Value++
	assert.False(t, a.Equal(b))

	var nilNode *Node
	assert.True(t, nilNode.Equal(nil))
	assert.False(t, a.Equal(nil))
}

func TestTree_Find(t *testing.T) {
	tree := build(t, exampleReport())

	assert.Same(t, tree.Root, tree.Find(nil))
	assert.Equal(t, int64(30), tree.Find([]string{"a", "c"}).Value)
	assert.Nil(t, tree.Find([]string{"a", "zzz"}))
	assert.Nil(t, tree.Find([]string{"d", "x"}))

	var nilTree *Tree
	assert.Nil(t, nilTree.Find(nil))
}

func TestTree_Contains(t *testing.T) {
	tree := build(t, exampleReport())
	other := build(t, exampleReport())

	assert.True(t, tree.Contains(tree.Root))
	assert.True(t, tree.Contains(tree.Find([]string{"a", "b"})))
	assert.False(t, tree.Contains(other.Find([]string{"a", "b"})))
	assert.False(t, tree.Contains(NewNode("a", 40)))
	assert.False(t, tree.Contains(nil))
}

func TestEmpty(t *testing.T) {
	tree := Empty("/")
	assert.Equal(t, int64(0), tree.Root.Value)
	assert.Empty(t, tree.Root.Children)
	assert.True(t, tree.Contains(tree.Root))
}
