package annotation

import (
	"math"

	"slide-annotator/internal/scene"
	"slide-annotator/pkg/geometry"
)

const (
	defaultMarkerRadius = 5
	defaultFontSize     = 18
	ellipseSegments     = 64
	rightAngleTolerance = 1e-6
)

// keepTranslation reduces a node's matrix to the translation it applies to
// anchor, so the node moves with the transform but keeps its size and
// orientation.
func keepTranslation(n scene.Node, anchor geometry.Point2D) {
	m := n.Matrix()
	d := m.Apply(anchor).Sub(anchor)
	n.SetMatrix(geometry.Translation(d.X, d.Y))
}

func rescaleSize(n scene.Node, key string, def, zoom float64) float64 {
	v, ok := n.Rescale()[key]
	if !ok || v <= 0 {
		v = def
	}
	if zoom <= 0 {
		zoom = 1
	}
	return v / zoom
}

// Point is a single location drawn as a screen-constant circle marker.
type Point struct {
	path   *scene.Path
	center geometry.Point2D
	placed bool
	zoom   float64
}

// NewPoint creates a point at c.
func NewPoint(c geometry.Point2D) *Point {
	p := &Point{path: scene.NewPath(nil, true), zoom: 1}
	p.path.SetApplyMatrix(false)
	p.SetCenter(c)
	return p
}

func buildPoint(g *Geometry) (Item, error) {
	var coords position
	if err := g.decodeCoords(&coords); err != nil {
		return nil, err
	}
	if len(coords) == 0 {
		p := NewPoint(geometry.Point2D{})
		p.placed = false
		return p, nil
	}
	c, err := coords.point()
	if err != nil {
		return nil, err
	}
	return NewPoint(c), nil
}

func (p *Point) Type() string     { return "Point" }
func (p *Point) Subtype() string  { return "" }
func (p *Point) Node() scene.Node { return p.path }
func (p *Point) SetStyle(s Style) { applyStyle(p.path, s); p.rebuild() }

// Center returns the point location including any pending transform.
func (p *Point) Center() geometry.Point2D {
	return p.path.Matrix().Apply(p.center)
}

// SetCenter moves the point.
func (p *Point) SetCenter(c geometry.Point2D) {
	p.center = c
	p.placed = true
	p.path.SetMatrix(geometry.Identity())
	p.rebuild()
}

// Placed reports whether the point has a location yet.
func (p *Point) Placed() bool { return p.placed }

func (p *Point) rebuild() {
	r := rescaleSize(p.path, "radius", defaultMarkerRadius, p.zoom)
	p.path.SetPoints(geometry.EllipsePoints(p.center, r, r, 0, 24))
}

// Rescale resizes the marker for a new zoom.
func (p *Point) Rescale(zoom float64) {
	p.zoom = zoom
	p.rebuild()
}

// OnTransform keeps the marker unscaled; only its location moves.
func (p *Point) OnTransform(TransformOp, TransformParams) {
	keepTranslation(p.path, p.center)
}

// Bake folds the pending translation into the center.
func (p *Point) Bake() {
	if p.placed {
		p.SetCenter(p.Center())
	}
}

func (p *Point) Geometry() *Geometry {
	if !p.placed {
		return newGeometry("Point", "", []any{}, nil)
	}
	return newGeometry("Point", "", pos(p.Center()), nil)
}

// PointText is a text label anchored at a point. The text stays upright and
// screen-constant under transforms.
type PointText struct {
	text   *scene.Text
	anchor geometry.Point2D
	zoom   float64
}

// NewPointText creates a text label.
func NewPointText(anchor geometry.Point2D, content string) *PointText {
	t := &PointText{text: scene.NewText(content, anchor, defaultFontSize), anchor: anchor, zoom: 1}
	t.text.SetApplyMatrix(false)
	return t
}

func buildPointText(g *Geometry) (Item, error) {
	var coords position
	if err := g.decodeCoords(&coords); err != nil {
		return nil, err
	}
	var anchor geometry.Point2D
	if len(coords) > 0 {
		c, err := coords.point()
		if err != nil {
			return nil, err
		}
		anchor = c
	}
	return NewPointText(anchor, g.str("content")), nil
}

func (t *PointText) Type() string     { return "Point" }
func (t *PointText) Subtype() string  { return "PointText" }
func (t *PointText) Node() scene.Node { return t.text }
func (t *PointText) SetStyle(s Style) { applyStyle(t.text, s); t.Rescale(t.zoom) }

// Content returns the label text.
func (t *PointText) Content() string { return t.text.Content }

// SetContent replaces the label text.
func (t *PointText) SetContent(s string) { t.text.Content = s }

// Anchor returns the text origin including any pending transform.
func (t *PointText) Anchor() geometry.Point2D { return t.text.Anchor() }

// Rescale keeps the font size constant on screen.
func (t *PointText) Rescale(zoom float64) {
	t.zoom = zoom
	t.text.FontSize = rescaleSize(t.text, "fontSize", defaultFontSize, zoom)
}

// OnTransform discards the scale and rotation of the step, keeping only the
// anchor displacement.
func (t *PointText) OnTransform(TransformOp, TransformParams) {
	keepTranslation(t.text, t.anchor)
}

// Bake folds the pending translation into the anchor.
func (t *PointText) Bake() {
	t.anchor = t.text.Anchor()
	t.text.SetAnchor(t.anchor)
}

func (t *PointText) Geometry() *Geometry {
	return newGeometry("Point", "PointText", pos(t.Anchor()), map[string]any{"content": t.text.Content})
}

// Rectangle is a possibly rotated rectangle given by center, size and angle.
type Rectangle struct {
	path *scene.Path
}

// NewRectangle creates a rectangle; angle is in degrees.
func NewRectangle(center geometry.Point2D, width, height, angle float64) *Rectangle {
	r := &Rectangle{path: scene.NewPath(nil, true)}
	r.SetShape(center, width, height, angle)
	return r
}

func buildRectangle(g *Geometry) (Item, error) {
	var coords position
	if err := g.decodeCoords(&coords); err != nil {
		return nil, err
	}
	var c geometry.Point2D
	if len(coords) > 0 {
		var err error
		if c, err = coords.point(); err != nil {
			return nil, err
		}
	}
	return NewRectangle(c, g.number("width", 0), g.number("height", 0), g.number("angle", 0)), nil
}

func (r *Rectangle) Type() string     { return "Point" }
func (r *Rectangle) Subtype() string  { return "Rectangle" }
func (r *Rectangle) Node() scene.Node { return r.path }
func (r *Rectangle) SetStyle(s Style) { applyStyle(r.path, s) }

// SetShape replaces the rectangle; angle is in degrees.
func (r *Rectangle) SetShape(center geometry.Point2D, width, height, angle float64) {
	rot := geometry.RotationAbout(angle*math.Pi/180, center)
	local := geometry.NewRect(center.X-width/2, center.Y-height/2, width, height).Corners()
	r.path.SetMatrix(geometry.Identity())
	r.path.SetPoints(geometry.TransformPoints(rot, local[:]))
}

// Shape derives center, size and angle (degrees) from the placed corners.
// It is exact only while Rectangular holds.
func (r *Rectangle) Shape() (center geometry.Point2D, width, height, angle float64) {
	pts := r.path.WorldPoints()
	if len(pts) != 4 {
		return geometry.Point2D{}, 0, 0, 0
	}
	center = geometry.Centroid(pts)
	u, v := pts[1].Sub(pts[0]), pts[3].Sub(pts[0])
	width = math.Hypot(u.X, u.Y)
	height = math.Hypot(v.X, v.Y)
	if width > 0 {
		angle = math.Atan2(u.Y, u.X) * 180 / math.Pi
	}
	return center, width, height, angle
}

// Rectangular reports whether the placed corners still form a rectangle. A
// rotated rectangle scaled unevenly becomes a parallelogram.
func (r *Rectangle) Rectangular() bool {
	pts := r.path.WorldPoints()
	if len(pts) != 4 {
		return true
	}
	return geometry.Orthogonal(pts[1].Sub(pts[0]), pts[3].Sub(pts[0]), rightAngleTolerance)
}

// Bake folds the matrix into the corners, which are re-derived from the
// shape while they stay rectangular.
func (r *Rectangle) Bake() {
	r.path.Bake()
	if r.Rectangular() {
		r.SetShape(r.Shape())
	}
}

// Demote returns the corners as a polygon once they stop being rectangular.
func (r *Rectangle) Demote() Item {
	if r.Rectangular() {
		return nil
	}
	return NewPolygon(geometry.Region{geometry.Ring(r.path.WorldPoints())})
}

func (r *Rectangle) OrientedBox() [4]geometry.Point2D {
	var box [4]geometry.Point2D
	copy(box[:], r.path.WorldPoints())
	return box
}

func (r *Rectangle) Geometry() *Geometry {
	c, w, h, a := r.Shape()
	return newGeometry("Point", "Rectangle", pos(c), map[string]any{"width": w, "height": h, "angle": a})
}

// Ellipse is an ellipse given by center, radii and angle of the major axis.
type Ellipse struct {
	path *scene.Path
}

// NewEllipse creates an ellipse; angle is in degrees.
func NewEllipse(center geometry.Point2D, major, minor, angle float64) *Ellipse {
	e := &Ellipse{path: scene.NewPath(nil, true)}
	e.SetShape(center, major, minor, angle)
	return e
}

func buildEllipse(g *Geometry) (Item, error) {
	var coords position
	if err := g.decodeCoords(&coords); err != nil {
		return nil, err
	}
	var c geometry.Point2D
	if len(coords) > 0 {
		var err error
		if c, err = coords.point(); err != nil {
			return nil, err
		}
	}
	return NewEllipse(c, g.number("majorRadius", 0), g.number("minorRadius", 0), g.number("angle", 0)), nil
}

func (e *Ellipse) Type() string     { return "Point" }
func (e *Ellipse) Subtype() string  { return "Ellipse" }
func (e *Ellipse) Node() scene.Node { return e.path }
func (e *Ellipse) SetStyle(s Style) { applyStyle(e.path, s) }

// SetShape replaces the ellipse; angle is in degrees.
func (e *Ellipse) SetShape(center geometry.Point2D, major, minor, angle float64) {
	e.path.SetMatrix(geometry.Identity())
	e.path.SetPoints(geometry.EllipsePoints(center, major, minor, angle*math.Pi/180, ellipseSegments))
}

// diameters returns the outline's center and the conjugate semi-diameters
// through its first sample and the sample a quarter turn later. Any affine
// image of the outline keeps them conjugate, not principal.
func (e *Ellipse) diameters() (c, u, v geometry.Point2D, ok bool) {
	pts := e.path.WorldPoints()
	if len(pts) != ellipseSegments {
		return c, u, v, false
	}
	c = geometry.Centroid(pts)
	return c, pts[0].Sub(c), pts[ellipseSegments/4].Sub(c), true
}

// Shape derives center, radii and angle (degrees) of the placed outline.
func (e *Ellipse) Shape() (center geometry.Point2D, major, minor, angle float64) {
	c, u, v, ok := e.diameters()
	if !ok {
		return geometry.Point2D{}, 0, 0, 0
	}
	major, minor, rad := geometry.PrincipalAxes(u, v)
	return c, major, minor, rad * 180 / math.Pi
}

// Bake folds the matrix into the outline and resamples it along its
// principal axes.
func (e *Ellipse) Bake() {
	e.path.Bake()
	if _, _, _, ok := e.diameters(); ok {
		e.SetShape(e.Shape())
	}
}

// OrientedBox is the rectangle circumscribing the ellipse along its axes.
func (e *Ellipse) OrientedBox() [4]geometry.Point2D {
	c, major, minor, angle := e.Shape()
	if major == 0 && minor == 0 {
		return [4]geometry.Point2D{}
	}
	rad := angle * math.Pi / 180
	u := geometry.Pt(math.Cos(rad), math.Sin(rad)).Scale(major)
	v := geometry.Pt(-math.Sin(rad), math.Cos(rad)).Scale(minor)
	return [4]geometry.Point2D{
		c.Sub(u).Sub(v),
		c.Add(u).Sub(v),
		c.Add(u).Add(v),
		c.Sub(u).Add(v),
	}
}

func (e *Ellipse) Geometry() *Geometry {
	c, a, b, ang := e.Shape()
	return newGeometry("Point", "Ellipse", pos(c), map[string]any{"majorRadius": a, "minorRadius": b, "angle": ang})
}
