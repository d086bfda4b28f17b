package scene

import (
	"slide-annotator/pkg/geometry"
)

// Group is an ordered container of nodes. Layers are groups of KindLayer.
type Group struct {
	nodeBase
	Name     string
	Visible  bool
	children []Node
}

// NewGroup creates an empty group.
func NewGroup() *Group {
	return &Group{nodeBase: newBase(KindGroup), Visible: true}
}

// NewLayer creates an empty named layer.
func NewLayer(name string) *Group {
	return &Group{nodeBase: newBase(KindLayer), Name: name, Visible: true}
}

// Children returns a copy of the child list.
func (g *Group) Children() []Node {
	return append([]Node(nil), g.children...)
}

// ChildCount returns the number of children.
func (g *Group) ChildCount() int { return len(g.children) }

// AddChild appends a node, detaching it from any previous parent.
func (g *Group) AddChild(n Node) {
	g.InsertChild(len(g.children), n)
}

// InsertChild inserts a node at index i (clamped to the valid range).
func (g *Group) InsertChild(i int, n Node) {
	if n.Parent() != nil {
		n.Remove()
	}
	if i < 0 {
		i = 0
	}
	if i > len(g.children) {
		i = len(g.children)
	}
	g.children = append(g.children, nil)
	copy(g.children[i+1:], g.children[i:])
	g.children[i] = n
	n.base().parent = g
}

// IndexOf returns the child index of n, or -1.
func (g *Group) IndexOf(n Node) int {
	for i, c := range g.children {
		if c == n {
			return i
		}
	}
	return -1
}

func (g *Group) removeChild(n Node) {
	if i := g.IndexOf(n); i >= 0 {
		g.children = append(g.children[:i], g.children[i+1:]...)
		n.base().parent = nil
	}
}

// RemoveChildren detaches every child.
func (g *Group) RemoveChildren() {
	for _, c := range g.children {
		c.base().parent = nil
	}
	g.children = nil
}

// Remove detaches the group from its parent.
func (g *Group) Remove() {
	if g.parent != nil {
		g.parent.removeChild(g)
	}
}

// Transform composes m after the group's matrix.
func (g *Group) Transform(m geometry.AffineTransform) {
	g.matrix = m.Compose(g.matrix)
	if g.applyMatrix {
		g.Bake()
	}
}

// Bake pushes the group's matrix down into its children.
func (g *Group) Bake() {
	if g.matrix.IsIdentity() {
		return
	}
	m := g.matrix
	g.matrix = geometry.Identity()
	for _, c := range g.children {
		c.Transform(m)
	}
}

// Bounds returns the union of the children's bounds in parent coordinates.
func (g *Group) Bounds() geometry.Rect {
	var pts []geometry.Point2D
	for _, c := range g.children {
		for _, p := range c.Bounds().Corners() {
			pts = append(pts, g.matrix.Apply(p))
		}
	}
	return geometry.BoundingBox(pts)
}
