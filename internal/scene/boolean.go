package scene

import (
	"errors"
	"fmt"

	polyclip "github.com/ctessum/polyclip-go"

	"slide-annotator/pkg/geometry"
)

// ErrKernel is returned when the boolean kernel fails outright.
var ErrKernel = errors.New("boolean kernel failure")

// Op is a boolean set operation on closed regions.
type Op int

const (
	OpUnion Op = iota
	OpSubtract
	OpIntersect
)

func (o Op) String() string {
	switch o {
	case OpUnion:
		return "union"
	case OpSubtract:
		return "subtract"
	case OpIntersect:
		return "intersect"
	default:
		return "unknown"
	}
}

// Kernel performs boolean operations on even-odd regions.
type Kernel interface {
	Combine(a geometry.Region, op Op, b geometry.Region) (geometry.Region, error)
}

// PolyclipKernel implements Kernel with the Martinez-Rueda algorithm from
// polyclip-go.
type PolyclipKernel struct{}

// Combine computes a op b.
func (PolyclipKernel) Combine(a geometry.Region, op Op, b geometry.Region) (out geometry.Region, err error) {
	a, b = dropDegenerate(a), dropDegenerate(b)
	switch {
	case len(b) == 0 && op != OpIntersect:
		return copyRegion(a), nil
	case len(a) == 0 && op == OpUnion:
		return copyRegion(b), nil
	case len(a) == 0 || len(b) == 0:
		return geometry.Region{}, nil
	}

	var pop polyclip.Op
	switch op {
	case OpUnion:
		pop = polyclip.UNION
	case OpSubtract:
		pop = polyclip.DIFFERENCE
	case OpIntersect:
		pop = polyclip.INTERSECTION
	default:
		return nil, fmt.Errorf("%w: unsupported op %d", ErrKernel, op)
	}

	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("%w: %s panicked: %v", ErrKernel, op, r)
		}
	}()

	result := toPolyclip(a).Construct(pop, toPolyclip(b))
	return dropDegenerate(fromPolyclip(result)), nil
}

// Unite is a convenience for k.Combine(a, OpUnion, b).
func Unite(k Kernel, a, b geometry.Region) (geometry.Region, error) {
	return k.Combine(a, OpUnion, b)
}

// Subtract is a convenience for k.Combine(a, OpSubtract, b).
func Subtract(k Kernel, a, b geometry.Region) (geometry.Region, error) {
	return k.Combine(a, OpSubtract, b)
}

func toPolyclip(g geometry.Region) polyclip.Polygon {
	poly := make(polyclip.Polygon, 0, len(g))
	for _, ring := range g {
		c := make(polyclip.Contour, len(ring))
		for i, p := range ring {
			c[i] = polyclip.Point{X: p.X, Y: p.Y}
		}
		poly = append(poly, c)
	}
	return poly
}

func fromPolyclip(poly polyclip.Polygon) geometry.Region {
	g := make(geometry.Region, 0, len(poly))
	for _, c := range poly {
		ring := make(geometry.Ring, len(c))
		for i, p := range c {
			ring[i] = geometry.Point2D{X: p.X, Y: p.Y}
		}
		g = append(g, geometry.OpenRing(ring))
	}
	return g
}

func dropDegenerate(g geometry.Region) geometry.Region {
	out := make(geometry.Region, 0, len(g))
	for _, r := range g {
		if len(r) >= 3 && r.Area() > 1e-12 {
			out = append(out, r)
		}
	}
	return out
}

func copyRegion(g geometry.Region) geometry.Region {
	out := make(geometry.Region, len(g))
	for i, r := range g {
		out[i] = append(geometry.Ring(nil), r...)
	}
	return out
}
