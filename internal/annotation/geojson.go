package annotation

import (
	"encoding/json"
	"fmt"
	"math"

	"slide-annotator/pkg/geometry"
)

// Geometry is the GeoJSON-like geometry record of a feature. The subtype tag
// and kind-specific parameters live in Properties.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
	Properties  map[string]any  `json:"properties,omitempty"`
}

// Subtype returns the geometry's subtype tag, or "".
func (g *Geometry) Subtype() string {
	if g == nil {
		return ""
	}
	s, _ := g.Properties["subtype"].(string)
	return s
}

// newGeometry builds a geometry record. Coordinates must be finite.
func newGeometry(typ, subtype string, coords any, props map[string]any) *Geometry {
	raw, err := json.Marshal(coords)
	if err != nil {
		panic(fmt.Sprintf("annotation: encode %s coordinates: %v", typ, err))
	}
	if subtype != "" {
		if props == nil {
			props = map[string]any{}
		}
		props["subtype"] = subtype
	}
	return &Geometry{Type: typ, Coordinates: raw, Properties: props}
}

// decodeCoords unmarshals the coordinates; absent or null coordinates leave v
// untouched.
func (g *Geometry) decodeCoords(v any) error {
	if len(g.Coordinates) == 0 || string(g.Coordinates) == "null" {
		return nil
	}
	if err := json.Unmarshal(g.Coordinates, v); err != nil {
		return fmt.Errorf("%w: %s coordinates: %v", ErrInvalidGeometry, g.Type, err)
	}
	return nil
}

func (g *Geometry) number(key string, def float64) float64 {
	if v, ok := g.Properties[key].(float64); ok && !math.IsNaN(v) && !math.IsInf(v, 0) {
		return v
	}
	return def
}

func (g *Geometry) str(key string) string {
	s, _ := g.Properties[key].(string)
	return s
}

// decodeProp re-decodes a nested property object into v.
func (g *Geometry) decodeProp(key string, v any) error {
	raw, ok := g.Properties[key]
	if !ok {
		return nil
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// position is a GeoJSON position; only x and y are used.
type position []float64

func (p position) point() (geometry.Point2D, error) {
	if len(p) < 2 {
		return geometry.Point2D{}, fmt.Errorf("%w: position needs 2 values, got %d", ErrInvalidGeometry, len(p))
	}
	for _, v := range p[:2] {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return geometry.Point2D{}, fmt.Errorf("%w: non-finite coordinate", ErrInvalidGeometry)
		}
	}
	return geometry.Point2D{X: p[0], Y: p[1]}, nil
}

func pos(p geometry.Point2D) [2]float64 {
	return [2]float64{p.X, p.Y}
}

func toPoints(ps []position) ([]geometry.Point2D, error) {
	out := make([]geometry.Point2D, len(ps))
	for i, p := range ps {
		pt, err := p.point()
		if err != nil {
			return nil, err
		}
		out[i] = pt
	}
	return out, nil
}

func fromPoints(pts []geometry.Point2D) [][2]float64 {
	out := make([][2]float64, len(pts))
	for i, p := range pts {
		out[i] = pos(p)
	}
	return out
}

func toRegion(rings [][]position) (geometry.Region, error) {
	g := make(geometry.Region, 0, len(rings))
	for _, r := range rings {
		pts, err := toPoints(r)
		if err != nil {
			return nil, err
		}
		ring := geometry.OpenRing(pts)
		if len(ring) < 3 {
			return nil, fmt.Errorf("%w: ring needs 3 distinct points, got %d", ErrInvalidGeometry, len(ring))
		}
		g = append(g, ring)
	}
	return g, nil
}

// fromRegion emits rings closed, with the first point repeated.
func fromRegion(g geometry.Region) [][][2]float64 {
	out := make([][][2]float64, 0, len(g))
	for _, r := range g {
		out = append(out, fromPoints(r.Closed()))
	}
	return out
}

// featureProps is the wire form of a feature's properties.
type featureProps struct {
	styleProps
	Label    *string        `json:"label,omitempty"`
	Userdata map[string]any `json:"userdata"`
	Selected bool           `json:"selected,omitempty"`
}

// FeatureJSON is the wire form of a feature.
type FeatureJSON struct {
	Type       string       `json:"type"`
	Geometry   *Geometry    `json:"geometry"`
	Properties featureProps `json:"properties"`
}

type collectionProps struct {
	Label        string         `json:"label,omitempty"`
	DefaultStyle styleProps     `json:"defaultStyle"`
	Visible      *bool          `json:"visible,omitempty"`
	Userdata     map[string]any `json:"userdata,omitempty"`
}

// CollectionJSON is the wire form of a feature collection.
type CollectionJSON struct {
	Type       string            `json:"type"`
	Features   []json.RawMessage `json:"features"`
	Properties collectionProps   `json:"properties"`
}
