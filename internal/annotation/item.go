// Package annotation is the item model: geometry items bound to scene-graph
// nodes, the constructor registry that builds them from GeoJSON, and the
// Feature / FeatureCollection / Document hierarchy that owns them.
package annotation

import (
	"errors"

	"slide-annotator/internal/scene"
	"slide-annotator/pkg/geometry"
)

var (
	// ErrUnsupportedGeometry is returned when no constructor is registered
	// for a (type, subtype) pair.
	ErrUnsupportedGeometry = errors.New("unsupported geometry")
	// ErrNotPlaceholder is returned when initializing a feature that already
	// has geometry.
	ErrNotPlaceholder = errors.New("feature is not a placeholder")
	// ErrInvalidGeometry is returned for malformed coordinates or properties.
	ErrInvalidGeometry = errors.New("invalid geometry")
)

// Item is a geometry kind bound to the scene node that renders it.
type Item interface {
	// Type is the GeoJSON geometry type; "" for a placeholder.
	Type() string
	Subtype() string
	Node() scene.Node
	// Geometry serializes the item's current shape, including any matrix
	// accumulated on its node. Placeholders return nil.
	Geometry() *Geometry
	SetStyle(Style)
}

// TransformOp identifies the gesture driving an OnTransform call.
type TransformOp int

const (
	TransformResize TransformOp = iota
	TransformRotate
)

func (op TransformOp) String() string {
	switch op {
	case TransformResize:
		return "resize"
	case TransformRotate:
		return "rotate"
	default:
		return "unknown"
	}
}

// TransformParams describes one incremental transform step.
type TransformParams struct {
	// Matrix is the increment just composed onto the item's node.
	Matrix geometry.AffineTransform
	// Anchor is the fixed point of the step.
	Anchor geometry.Point2D
	// Angle is the rotation increment in radians.
	Angle float64
}

// Transformer is implemented by items that correct the naive matrix effect
// on some of their parts.
type Transformer interface {
	OnTransform(op TransformOp, p TransformParams)
}

// Rescaler is implemented by items with parts sized in screen pixels.
type Rescaler interface {
	Rescale(zoom float64)
}

// Baker is implemented by items that keep state outside their node and must
// fold the node's matrix into it.
type Baker interface {
	Bake()
}

// Demoter is implemented by items whose baked geometry can leave their
// parametric form. Demote returns the replacement, or nil while the item
// still represents its outline.
type Demoter interface {
	Demote() Item
}

// Oriented is implemented by items with an intrinsic rotation. OrientedBox
// returns the item's frame corners, clockwise from its top-left.
type Oriented interface {
	OrientedBox() [4]geometry.Point2D
}

// RegionEditor is implemented by area items whose rings can be rewritten.
type RegionEditor interface {
	Item
	Region() geometry.Region
	SetRegion(geometry.Region)
}

// ModeTag returns "type" or "type:subtype".
func ModeTag(it Item) string {
	if it.Subtype() == "" {
		return it.Type()
	}
	return it.Type() + ":" + it.Subtype()
}

// Bake folds the item's accumulated matrix into its geometry.
func Bake(it Item) {
	if b, ok := it.(Baker); ok {
		b.Bake()
		return
	}
	it.Node().Bake()
}
