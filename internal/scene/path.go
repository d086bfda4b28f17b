package scene

import (
	"slide-annotator/pkg/geometry"
)

// Path is a single polyline, open or closed.
type Path struct {
	nodeBase
	points []geometry.Point2D
	closed bool
}

// NewPath creates a path through points.
func NewPath(points []geometry.Point2D, closed bool) *Path {
	return &Path{nodeBase: newBase(KindPath), points: append([]geometry.Point2D(nil), points...), closed: closed}
}

// Points returns the path's local coordinates.
func (p *Path) Points() []geometry.Point2D {
	return append([]geometry.Point2D(nil), p.points...)
}

// WorldPoints returns the coordinates with the local matrix applied.
func (p *Path) WorldPoints() []geometry.Point2D {
	return geometry.TransformPoints(p.matrix, p.points)
}

// SetPoints replaces the path's coordinates.
func (p *Path) SetPoints(points []geometry.Point2D) {
	p.points = append([]geometry.Point2D(nil), points...)
}

// Closed reports whether the path is closed.
func (p *Path) Closed() bool { return p.closed }

// Region returns the path as a single ring, or nothing if it is open.
func (p *Path) Region() geometry.Region {
	if !p.closed || len(p.points) < 3 {
		return nil
	}
	return geometry.Region{geometry.Ring(p.WorldPoints())}
}

// Remove detaches the path from its parent.
func (p *Path) Remove() {
	if p.parent != nil {
		p.parent.removeChild(p)
	}
}

// Transform composes m after the path's matrix.
func (p *Path) Transform(m geometry.AffineTransform) {
	p.matrix = m.Compose(p.matrix)
	if p.applyMatrix {
		p.Bake()
	}
}

// Bake applies the matrix to the points.
func (p *Path) Bake() {
	if p.matrix.IsIdentity() {
		return
	}
	p.points = geometry.TransformPoints(p.matrix, p.points)
	p.matrix = geometry.Identity()
}

// Bounds returns the bounding box in parent coordinates.
func (p *Path) Bounds() geometry.Rect {
	return geometry.BoundingBox(p.WorldPoints())
}

// CompoundPath is a set of sub-paths painted as one shape. Closed sub-paths
// combine under the even-odd rule.
type CompoundPath struct {
	nodeBase
	children []*Path
}

// NewCompoundPath creates a compound path from sub-paths.
func NewCompoundPath(children ...*Path) *CompoundPath {
	return &CompoundPath{nodeBase: newBase(KindCompoundPath), children: children}
}

// NewCompoundPathFromRegion creates a closed compound path holding the rings.
func NewCompoundPathFromRegion(g geometry.Region) *CompoundPath {
	c := &CompoundPath{nodeBase: newBase(KindCompoundPath)}
	c.SetRegion(g)
	return c
}

// Paths returns the sub-paths.
func (c *CompoundPath) Paths() []*Path {
	return append([]*Path(nil), c.children...)
}

// SetPaths replaces the sub-paths.
func (c *CompoundPath) SetPaths(paths []*Path) {
	c.children = append([]*Path(nil), paths...)
}

// SetRegion replaces the sub-paths with closed rings given in parent
// coordinates and resets the matrix.
func (c *CompoundPath) SetRegion(g geometry.Region) {
	c.matrix = geometry.Identity()
	c.children = c.children[:0]
	for _, ring := range g {
		if len(ring) < 3 {
			continue
		}
		c.children = append(c.children, NewPath(ring, true))
	}
}

// Region returns the closed sub-paths as rings in parent coordinates.
func (c *CompoundPath) Region() geometry.Region {
	var g geometry.Region
	for _, p := range c.children {
		if p.closed && len(p.points) >= 3 {
			g = append(g, geometry.Ring(geometry.TransformPoints(c.matrix.Compose(p.matrix), p.points)))
		}
	}
	return g
}

// Lines returns every sub-path's points in parent coordinates.
func (c *CompoundPath) Lines() [][]geometry.Point2D {
	out := make([][]geometry.Point2D, 0, len(c.children))
	for _, p := range c.children {
		out = append(out, geometry.TransformPoints(c.matrix.Compose(p.matrix), p.points))
	}
	return out
}

// Remove detaches the compound path from its parent.
func (c *CompoundPath) Remove() {
	if c.parent != nil {
		c.parent.removeChild(c)
	}
}

// Transform composes m after the compound path's matrix.
func (c *CompoundPath) Transform(m geometry.AffineTransform) {
	c.matrix = m.Compose(c.matrix)
	if c.applyMatrix {
		c.Bake()
	}
}

// Bake applies the matrix to every sub-path.
func (c *CompoundPath) Bake() {
	if c.matrix.IsIdentity() {
		return
	}
	for _, p := range c.children {
		p.Transform(c.matrix)
		p.Bake()
	}
	c.matrix = geometry.Identity()
}

// Bounds returns the bounding box in parent coordinates.
func (c *CompoundPath) Bounds() geometry.Rect {
	var pts []geometry.Point2D
	for _, l := range c.Lines() {
		pts = append(pts, l...)
	}
	return geometry.BoundingBox(pts)
}
