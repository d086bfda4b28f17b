// Package scene is the vector scene graph the annotation items render into.
//
// Nodes carry a local matrix. In matrix-composition mode (ApplyMatrix false)
// transforms accumulate in that matrix; otherwise they are baked into the
// node's coordinates immediately.
package scene

import (
	"slide-annotator/pkg/geometry"
)

// Kind enumerates the types of nodes in the scene graph.
type Kind int

const (
	KindGroup Kind = iota
	KindLayer
	KindPath
	KindCompoundPath
	KindText
	KindRaster
)

func (k Kind) String() string {
	switch k {
	case KindGroup:
		return "group"
	case KindLayer:
		return "layer"
	case KindPath:
		return "path"
	case KindCompoundPath:
		return "compound-path"
	case KindText:
		return "text"
	case KindRaster:
		return "raster"
	default:
		return "unknown"
	}
}

// Style is the paint state of a node.
type Style struct {
	FillColor     string
	StrokeColor   string
	StrokeWidth   float64
	FillOpacity   float64
	StrokeOpacity float64
}

// Node is the capability set the annotation model relies on. Every node kind
// in this package implements it; the unexported methods keep implementations
// inside the package.
type Node interface {
	Kind() Kind
	Parent() *Group

	Style() Style
	SetStyle(Style)
	// EffectiveStrokeWidth is the stroke width after zoom rescaling.
	EffectiveStrokeWidth() float64
	SetEffectiveStrokeWidth(float64)
	Rescale() map[string]float64
	SetRescale(map[string]float64)
	Selected() bool
	SetSelected(bool)

	Matrix() geometry.AffineTransform
	SetMatrix(geometry.AffineTransform)
	ApplyMatrix() bool
	SetApplyMatrix(bool)
	// Transform composes m after the node's current matrix, baking it when
	// ApplyMatrix is set.
	Transform(m geometry.AffineTransform)
	// Bake folds the local matrix into the node's coordinates.
	Bake()
	// Bounds is the bounding box in parent coordinates.
	Bounds() geometry.Rect

	// Remove detaches the node from its parent.
	Remove()

	base() *nodeBase
}

// Shape is a node that encloses area.
type Shape interface {
	Node
	// Region returns the enclosed rings in parent coordinates.
	Region() geometry.Region
}

type nodeBase struct {
	kind        Kind
	parent      *Group
	style       Style
	strokeWidth float64
	rescale     map[string]float64
	selected    bool
	matrix      geometry.AffineTransform
	applyMatrix bool
}

func newBase(kind Kind) nodeBase {
	return nodeBase{kind: kind, matrix: geometry.Identity(), applyMatrix: true}
}

func (n *nodeBase) base() *nodeBase { return n }

func (n *nodeBase) Kind() Kind         { return n.kind }
func (n *nodeBase) Parent() *Group     { return n.parent }
func (n *nodeBase) Style() Style       { return n.style }
func (n *nodeBase) Selected() bool     { return n.selected }
func (n *nodeBase) SetSelected(v bool) { n.selected = v }

func (n *nodeBase) SetStyle(s Style) {
	n.style = s
	n.strokeWidth = s.StrokeWidth
}

func (n *nodeBase) EffectiveStrokeWidth() float64     { return n.strokeWidth }
func (n *nodeBase) SetEffectiveStrokeWidth(w float64) { n.strokeWidth = w }

func (n *nodeBase) Rescale() map[string]float64 {
	return copyRescale(n.rescale)
}

func (n *nodeBase) SetRescale(r map[string]float64) {
	n.rescale = copyRescale(r)
}

func (n *nodeBase) Matrix() geometry.AffineTransform     { return n.matrix }
func (n *nodeBase) SetMatrix(m geometry.AffineTransform) { n.matrix = m }
func (n *nodeBase) ApplyMatrix() bool                    { return n.applyMatrix }
func (n *nodeBase) SetApplyMatrix(v bool)                { n.applyMatrix = v }

func copyRescale(r map[string]float64) map[string]float64 {
	if r == nil {
		return nil
	}
	out := make(map[string]float64, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// GlobalMatrix returns the transform from the node's local space to the root.
func GlobalMatrix(n Node) geometry.AffineTransform {
	m := n.Matrix()
	for p := n.Parent(); p != nil; p = p.Parent() {
		m = p.Matrix().Compose(m)
	}
	return m
}

// CopyAttributes copies style, rescale descriptor and selection from src to
// dst. The matrix is not copied.
func CopyAttributes(dst, src Node) {
	dst.SetStyle(src.Style())
	dst.SetEffectiveStrokeWidth(src.EffectiveStrokeWidth())
	dst.SetRescale(src.Rescale())
	dst.SetSelected(src.Selected())
}

// ReplaceWith detaches old from its parent and attaches replacement at the
// same child index. It is a no-op for the hierarchy when old has no parent.
func ReplaceWith(old, replacement Node) {
	p := old.Parent()
	if p == nil {
		return
	}
	idx := p.IndexOf(old)
	old.Remove()
	p.InsertChild(idx, replacement)
}
