package geometry

import (
	"math"

	"gonum.org/v1/gonum/floats/scalar"
)

// Ring is a closed polygon boundary. The closing edge from the last point back
// to the first is implicit; the first point is not repeated.
type Ring []Point2D

// Region is a set of non-crossing rings interpreted with the even-odd rule:
// a ring nested inside an odd number of other rings is a hole.
type Region []Ring

// OpenRing strips a repeated closing point, as found in GeoJSON rings.
func OpenRing(points []Point2D) Ring {
	n := len(points)
	if n > 1 && points[0] == points[n-1] {
		points = points[:n-1]
	}
	return Ring(append([]Point2D(nil), points...))
}

// Closed returns the ring with its first point repeated at the end.
func (r Ring) Closed() []Point2D {
	if len(r) == 0 {
		return []Point2D{}
	}
	out := make([]Point2D, 0, len(r)+1)
	out = append(out, r...)
	return append(out, r[0])
}

// SignedArea returns the shoelace area. Positive means counter-clockwise in
// y-up coordinates.
func (r Ring) SignedArea() float64 {
	n := len(r)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += r[i].X*r[j].Y - r[j].X*r[i].Y
	}
	return sum / 2
}

// Area returns the unsigned area enclosed by the ring.
func (r Ring) Area() float64 {
	return math.Abs(r.SignedArea())
}

// Reversed returns a copy of the ring with opposite orientation.
func (r Ring) Reversed() Ring {
	out := make(Ring, len(r))
	for i, p := range r {
		out[len(r)-1-i] = p
	}
	return out
}

// Translate returns a copy of the ring shifted by d.
func (r Ring) Translate(d Point2D) Ring {
	out := make(Ring, len(r))
	for i, p := range r {
		out[i] = p.Add(d)
	}
	return out
}

// Transform returns a copy of the ring with t applied.
func (r Ring) Transform(t AffineTransform) Ring {
	return Ring(TransformPoints(t, r))
}

// interiorPoint returns a point strictly inside the ring, next to its
// lowest-leftmost vertex. That vertex is always convex, so a tiny step along
// the bisector of its edges lands inside.
func (r Ring) interiorPoint() Point2D {
	best := 0
	for i := 1; i < len(r); i++ {
		if r[i].X < r[best].X || (r[i].X == r[best].X && r[i].Y < r[best].Y) {
			best = i
		}
	}
	n := len(r)
	v := r[best]
	prev := r[(best+n-1)%n]
	next := r[(best+1)%n]
	a := unit(prev.Sub(v))
	b := unit(next.Sub(v))
	dir := unit(a.Add(b))
	eps := 1e-7 * math.Max(1, math.Max(math.Abs(v.X), math.Abs(v.Y)))
	return v.Add(dir.Scale(eps))
}

func unit(p Point2D) Point2D {
	l := math.Hypot(p.X, p.Y)
	if l == 0 {
		return p
	}
	return p.Scale(1 / l)
}

// Equal reports whether two rings describe the same boundary within tol,
// regardless of starting vertex and orientation.
func (r Ring) Equal(other Ring, tol float64) bool {
	n := len(r)
	if n != len(other) {
		return false
	}
	if n == 0 {
		return true
	}
	same := func(a, b Point2D) bool {
		return scalar.EqualWithinAbs(a.X, b.X, tol) && scalar.EqualWithinAbs(a.Y, b.Y, tol)
	}
	for off := 0; off < n; off++ {
		if !same(r[0], other[off]) {
			continue
		}
		forward, backward := true, true
		for i := 1; i < n && (forward || backward); i++ {
			if forward && !same(r[i], other[(off+i)%n]) {
				forward = false
			}
			if backward && !same(r[i], other[(off-i+n)%n]) {
				backward = false
			}
		}
		if forward || backward {
			return true
		}
	}
	return false
}

// Depths returns, for each ring, how many other rings enclose it.
func (g Region) Depths() []int {
	depths := make([]int, len(g))
	for i, ring := range g {
		if len(ring) < 3 {
			continue
		}
		p := ring.interiorPoint()
		for j, other := range g {
			if i != j && PointInPolygon(p, other) {
				depths[i]++
			}
		}
	}
	return depths
}

// Area returns the even-odd area of the region.
func (g Region) Area() float64 {
	var total float64
	for i, d := range g.Depths() {
		a := g[i].Area()
		if d%2 == 1 {
			a = -a
		}
		total += a
	}
	return total
}

// ClippedArea returns the even-odd area of the region inside rect. Rings are
// clipped individually, which is exact because rings never cross.
func (g Region) ClippedArea(rect Rect) float64 {
	clip := rect.Ring()
	var total float64
	for i, d := range g.Depths() {
		a := Ring(IntersectPolygons(g[i], clip)).Area()
		if d%2 == 1 {
			a = -a
		}
		total += a
	}
	return total
}

// Normalized returns a copy with outer rings counter-clockwise and holes
// clockwise, dropping degenerate rings.
func (g Region) Normalized() Region {
	depths := g.Depths()
	out := make(Region, 0, len(g))
	for i, ring := range g {
		if len(ring) < 3 || ring.Area() == 0 {
			continue
		}
		ccw := ring.SignedArea() > 0
		if (depths[i]%2 == 0) != ccw {
			ring = ring.Reversed()
		} else {
			ring = append(Ring(nil), ring...)
		}
		out = append(out, ring)
	}
	return out
}

// Outers groups the region into polygons: each even-depth ring followed by
// the odd-depth rings directly inside it.
func (g Region) Outers() []Region {
	depths := g.Depths()
	var polys []Region
	owner := make(map[int]int)
	for i, d := range depths {
		if d%2 == 0 {
			owner[i] = len(polys)
			polys = append(polys, Region{g[i]})
		}
	}
	for i, d := range depths {
		if d%2 == 0 {
			continue
		}
		p := g[i].interiorPoint()
		best, bestDepth := -1, -1
		for j, dj := range depths {
			if dj%2 == 0 && dj < d && dj > bestDepth && PointInPolygon(p, g[j]) {
				best, bestDepth = j, dj
			}
		}
		if best >= 0 {
			idx := owner[best]
			polys[idx] = append(polys[idx], g[i])
		}
	}
	return polys
}

// Translate returns a copy of the region shifted by d.
func (g Region) Translate(d Point2D) Region {
	out := make(Region, len(g))
	for i, r := range g {
		out[i] = r.Translate(d)
	}
	return out
}

// Transform returns a copy of the region with t applied.
func (g Region) Transform(t AffineTransform) Region {
	out := make(Region, len(g))
	for i, r := range g {
		out[i] = r.Transform(t)
	}
	return out
}

// Bounds returns the bounding box of the ring.
func (r Ring) Bounds() Rect { return BoundingBox(r) }

// Bounds returns the bounding box of all ring vertices.
func (g Region) Bounds() Rect {
	var pts []Point2D
	for _, r := range g {
		pts = append(pts, r...)
	}
	return BoundingBox(pts)
}

// Dedupe drops rings that are geometrically equal to an earlier ring.
func (g Region) Dedupe(tol float64) Region {
	out := make(Region, 0, len(g))
	for _, r := range g {
		dup := false
		for _, kept := range out {
			if r.Equal(kept, tol) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, r)
		}
	}
	return out
}

// IntersectPolygons computes the intersection of a polygon with a convex,
// counter-clockwise clip polygon using the Sutherland-Hodgman algorithm.
// Returns nil if there is no intersection or if inputs are invalid.
func IntersectPolygons(subject, clip []Point2D) []Point2D {
	if len(subject) < 3 || len(clip) < 3 {
		return nil
	}

	output := make([]Point2D, len(subject))
	copy(output, subject)

	for i := 0; i < len(clip); i++ {
		if len(output) == 0 {
			return nil
		}

		edgeStart := clip[i]
		edgeEnd := clip[(i+1)%len(clip)]
		output = clipPolygonByEdge(output, edgeStart, edgeEnd)
	}

	if len(output) < 3 {
		return nil
	}

	return output
}

// clipPolygonByEdge clips a polygon against a single edge using
// the Sutherland-Hodgman algorithm.
func clipPolygonByEdge(polygon []Point2D, edgeStart, edgeEnd Point2D) []Point2D {
	var clipped []Point2D

	for i := 0; i < len(polygon); i++ {
		current := polygon[i]
		next := polygon[(i+1)%len(polygon)]

		currentInside := isInsideEdge(current, edgeStart, edgeEnd)
		nextInside := isInsideEdge(next, edgeStart, edgeEnd)

		if currentInside {
			clipped = append(clipped, current)
			if !nextInside {
				if intersection, ok := lineIntersection(current, next, edgeStart, edgeEnd); ok {
					clipped = append(clipped, intersection)
				}
			}
		} else if nextInside {
			if intersection, ok := lineIntersection(current, next, edgeStart, edgeEnd); ok {
				clipped = append(clipped, intersection)
			}
		}
	}

	return clipped
}

// isInsideEdge checks if a point is on the inside (left side) of the directed edge.
func isInsideEdge(p, edgeStart, edgeEnd Point2D) bool {
	return (edgeEnd.X-edgeStart.X)*(p.Y-edgeStart.Y)-
		(edgeEnd.Y-edgeStart.Y)*(p.X-edgeStart.X) >= 0
}

// lineIntersection computes the intersection point of line p1-p2 with line
// e1-e2. Returns false for parallel lines.
func lineIntersection(p1, p2, e1, e2 Point2D) (Point2D, bool) {
	x1, y1 := p1.X, p1.Y
	x2, y2 := p2.X, p2.Y
	x3, y3 := e1.X, e1.Y
	x4, y4 := e2.X, e2.Y

	denom := (x1-x2)*(y3-y4) - (y1-y2)*(x3-x4)
	if math.Abs(denom) < 1e-10 {
		return Point2D{}, false
	}

	t := ((x1-x3)*(y3-y4) - (y1-y3)*(x3-x4)) / denom

	return Point2D{
		X: x1 + t*(x2-x1),
		Y: y1 + t*(y2-y1),
	}, true
}

// PointInPolygon tests if a point is inside a polygon using ray casting.
func PointInPolygon(p Point2D, polygon []Point2D) bool {
	if len(polygon) < 3 {
		return false
	}

	inside := false
	n := len(polygon)

	for i := 0; i < n; i++ {
		j := (i + 1) % n
		pi, pj := polygon[i], polygon[j]

		if ((pi.Y > p.Y) != (pj.Y > p.Y)) &&
			(p.X < (pj.X-pi.X)*(p.Y-pi.Y)/(pj.Y-pi.Y)+pi.X) {
			inside = !inside
		}
	}

	return inside
}

// PointToSegmentDistance returns the distance from p to the segment a-b.
func PointToSegmentDistance(p, a, b Point2D) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	if dx == 0 && dy == 0 {
		return p.Distance(a)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / (dx*dx + dy*dy)
	t = math.Max(0, math.Min(1, t))
	return p.Distance(Point2D{X: a.X + t*dx, Y: a.Y + t*dy})
}
