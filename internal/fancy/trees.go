package fancy

import (
	"github.com/charmbracelet/lipgloss/tree"
)

// ComponentTree creates a component-specific styled tree
type ComponentTree struct {
	tree *tree.Tree
}

// NewComponentTree creates a new component tree with appropriate styling
func NewComponentTree(title string) *ComponentTree {
	t := tree.New()
	t.EnumeratorStyle(BranchStyle)
	t.Enumerator(tree.RoundedEnumerator)
	t.Root(title)

	return &ComponentTree{
		tree: t,
	}
}

// Tree returns the underlying tree
func (c *ComponentTree) Tree() *tree.Tree {
	return c.tree
}

// AddChild adds a child node to the root branch
func (c *ComponentTree) AddChild(child any) *ComponentTree {
	c.tree.Child(child)
	return c
}

// String renders the tree
func (c *ComponentTree) String() string {
	return c.tree.String()
}

// JobTree creates a tree for a build job
func JobTree(id string) *ComponentTree {
	return NewComponentTree(JobStyle.Render(id))
}

// SectionTree creates a tree for a configuration section
func SectionTree(name string) *ComponentTree {
	return NewComponentTree(ComponentStyle.Render(name))
}
