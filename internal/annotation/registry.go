package annotation

import (
	"fmt"
)

// BuildFunc constructs an item from a geometry record. The record may have
// empty coordinates, which yields an empty item of that kind.
type BuildFunc func(g *Geometry) (Item, error)

// Constructor builds items for one (type, subtype) pair.
type Constructor struct {
	Type    string
	Subtype string
	Build   BuildFunc
}

// Registry maps (type, subtype) pairs to constructors.
type Registry struct {
	ctors map[string]Constructor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{ctors: make(map[string]Constructor)}
}

func key(typ, subtype string) string {
	if subtype == "" {
		return typ
	}
	return typ + ":" + subtype
}

// Register adds c, replacing any constructor for the same pair.
func (r *Registry) Register(c Constructor) {
	r.ctors[key(c.Type, c.Subtype)] = c
}

// Lookup returns the constructor for a pair.
func (r *Registry) Lookup(typ, subtype string) (Constructor, bool) {
	c, ok := r.ctors[key(typ, subtype)]
	return c, ok
}

// FromGeometry builds an item from a geometry record. A nil record yields a
// placeholder.
func (r *Registry) FromGeometry(g *Geometry) (Item, error) {
	if g == nil {
		return newPlaceholder(), nil
	}
	c, ok := r.Lookup(g.Type, g.Subtype())
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedGeometry, key(g.Type, g.Subtype()))
	}
	it, err := c.Build(g)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", key(g.Type, g.Subtype()), err)
	}
	return it, nil
}

// New builds an empty item of the given kind.
func (r *Registry) New(typ, subtype string) (Item, error) {
	return r.FromGeometry(newGeometry(typ, subtype, []any{}, nil))
}

// RegisterDefaults registers every built-in item kind.
func RegisterDefaults(r *Registry) {
	r.Register(Constructor{Type: "Point", Build: buildPoint})
	r.Register(Constructor{Type: "Point", Subtype: "PointText", Build: buildPointText})
	r.Register(Constructor{Type: "Point", Subtype: "Rectangle", Build: buildRectangle})
	r.Register(Constructor{Type: "Point", Subtype: "Ellipse", Build: buildEllipse})
	r.Register(Constructor{Type: "LineString", Build: buildLineString})
	r.Register(Constructor{Type: "MultiLineString", Build: buildMultiLineString})
	r.Register(Constructor{Type: "Polygon", Build: buildPolygon})
	r.Register(Constructor{Type: "MultiPolygon", Build: buildMultiPolygon})
	r.Register(Constructor{Type: "GeometryCollection", Subtype: "Raster", Build: buildRaster})
}
