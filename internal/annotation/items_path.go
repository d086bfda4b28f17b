package annotation

import (
	"slide-annotator/internal/scene"
	"slide-annotator/pkg/geometry"
)

// LineString is an open polyline.
type LineString struct {
	path *scene.Path
}

// NewLineString creates a polyline through pts.
func NewLineString(pts []geometry.Point2D) *LineString {
	return &LineString{path: scene.NewPath(pts, false)}
}

func buildLineString(g *Geometry) (Item, error) {
	var coords []position
	if err := g.decodeCoords(&coords); err != nil {
		return nil, err
	}
	pts, err := toPoints(coords)
	if err != nil {
		return nil, err
	}
	return NewLineString(pts), nil
}

func (l *LineString) Type() string     { return "LineString" }
func (l *LineString) Subtype() string  { return "" }
func (l *LineString) Node() scene.Node { return l.path }
func (l *LineString) SetStyle(s Style) { applyStyle(l.path, s) }

// Points returns the vertices including any pending transform.
func (l *LineString) Points() []geometry.Point2D { return l.path.WorldPoints() }

func (l *LineString) Geometry() *Geometry {
	return newGeometry("LineString", "", fromPoints(l.path.WorldPoints()), nil)
}

// MultiLineString is a set of open polylines painted as one item.
type MultiLineString struct {
	path *scene.CompoundPath
}

// NewMultiLineString creates a multi-polyline.
func NewMultiLineString(lines [][]geometry.Point2D) *MultiLineString {
	paths := make([]*scene.Path, len(lines))
	for i, l := range lines {
		paths[i] = scene.NewPath(l, false)
	}
	return &MultiLineString{path: scene.NewCompoundPath(paths...)}
}

func buildMultiLineString(g *Geometry) (Item, error) {
	var coords [][]position
	if err := g.decodeCoords(&coords); err != nil {
		return nil, err
	}
	lines := make([][]geometry.Point2D, 0, len(coords))
	for _, c := range coords {
		pts, err := toPoints(c)
		if err != nil {
			return nil, err
		}
		lines = append(lines, pts)
	}
	return NewMultiLineString(lines), nil
}

func (m *MultiLineString) Type() string     { return "MultiLineString" }
func (m *MultiLineString) Subtype() string  { return "" }
func (m *MultiLineString) Node() scene.Node { return m.path }
func (m *MultiLineString) SetStyle(s Style) { applyStyle(m.path, s) }

func (m *MultiLineString) Geometry() *Geometry {
	lines := m.path.Lines()
	out := make([][][2]float64, len(lines))
	for i, l := range lines {
		out[i] = fromPoints(l)
	}
	return newGeometry("MultiLineString", "", out, nil)
}

// Polygon is a single area with holes.
type Polygon struct {
	path *scene.CompoundPath
}

// NewPolygon creates a polygon from rings.
func NewPolygon(g geometry.Region) *Polygon {
	return &Polygon{path: scene.NewCompoundPathFromRegion(g)}
}

func buildPolygon(g *Geometry) (Item, error) {
	var coords [][]position
	if err := g.decodeCoords(&coords); err != nil {
		return nil, err
	}
	region, err := toRegion(coords)
	if err != nil {
		return nil, err
	}
	return NewPolygon(region), nil
}

func (p *Polygon) Type() string     { return "Polygon" }
func (p *Polygon) Subtype() string  { return "" }
func (p *Polygon) Node() scene.Node { return p.path }
func (p *Polygon) SetStyle(s Style) { applyStyle(p.path, s) }

// Region returns the rings including any pending transform.
func (p *Polygon) Region() geometry.Region { return p.path.Region() }

// SetRegion replaces the rings.
func (p *Polygon) SetRegion(g geometry.Region) { p.path.SetRegion(g) }

// Geometry emits the outer ring first, followed by its holes.
func (p *Polygon) Geometry() *Geometry {
	var rings geometry.Region
	for _, poly := range p.path.Region().Outers() {
		rings = append(rings, poly...)
	}
	return newGeometry("Polygon", "", fromRegion(rings), nil)
}

// MultiPolygon is a set of areas painted as one item.
type MultiPolygon struct {
	path *scene.CompoundPath
}

// NewMultiPolygon creates a multi-polygon from rings; they are regrouped
// into polygons by nesting on output.
func NewMultiPolygon(g geometry.Region) *MultiPolygon {
	return &MultiPolygon{path: scene.NewCompoundPathFromRegion(g)}
}

func buildMultiPolygon(g *Geometry) (Item, error) {
	var coords [][][]position
	if err := g.decodeCoords(&coords); err != nil {
		return nil, err
	}
	var all geometry.Region
	for _, poly := range coords {
		region, err := toRegion(poly)
		if err != nil {
			return nil, err
		}
		all = append(all, region...)
	}
	return NewMultiPolygon(all), nil
}

func (m *MultiPolygon) Type() string     { return "MultiPolygon" }
func (m *MultiPolygon) Subtype() string  { return "" }
func (m *MultiPolygon) Node() scene.Node { return m.path }
func (m *MultiPolygon) SetStyle(s Style) { applyStyle(m.path, s) }

// Region returns every ring including any pending transform.
func (m *MultiPolygon) Region() geometry.Region { return m.path.Region() }

// SetRegion replaces the rings.
func (m *MultiPolygon) SetRegion(g geometry.Region) { m.path.SetRegion(g) }

func (m *MultiPolygon) Geometry() *Geometry {
	polys := m.path.Region().Outers()
	out := make([][][][2]float64, len(polys))
	for i, poly := range polys {
		out[i] = fromRegion(poly)
	}
	return newGeometry("MultiPolygon", "", out, nil)
}
