// Package transform implements the generic multi-item transform tool: a
// box around the selection with corner resize handles and a rotate handle,
// driving matrix updates on every selected item regardless of its kind.
package transform

import (
	"errors"
	"log"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"slide-annotator/internal/annotation"
	"slide-annotator/internal/tool"
	"slide-annotator/internal/viewer"
	"slide-annotator/pkg/geometry"
)

// ErrEmptySelection is returned when a transform is requested with nothing
// transformable selected.
var ErrEmptySelection = errors.New("transform: nothing selected")

// Handle identifies a grip on the overlay. Corner handles share their index
// with the box corner they sit on.
type Handle int

const (
	HandleNone Handle = iota - 1
	HandleTopLeft
	HandleTopRight
	HandleBottomRight
	HandleBottomLeft
	HandleRotate
)

func (h Handle) String() string {
	switch h {
	case HandleTopLeft:
		return "top-left"
	case HandleTopRight:
		return "top-right"
	case HandleBottomRight:
		return "bottom-right"
	case HandleBottomLeft:
		return "bottom-left"
	case HandleRotate:
		return "rotate"
	default:
		return "none"
	}
}

const (
	minScale  = 1e-3
	snapAngle = math.Pi / 12
)

// Options sizes the overlay in screen pixels.
type Options struct {
	HandleOffset float64 // rotate handle distance above the box
	HandleSize   float64 // hit radius of every handle
}

func DefaultOptions() Options {
	return Options{HandleOffset: 30, HandleSize: 8}
}

// Tool is the transform tool.
type Tool struct {
	tool.Base

	host viewer.Host
	doc  *annotation.Document
	opts Options

	items   []*annotation.Feature
	corners [4]geometry.Point2D
	bound   bool
	g       *gesture
}

type gesture struct {
	handle  Handle
	origin  geometry.Point2D    // pointer at pointer-down
	start   [4]geometry.Point2D // box at pointer-down
	applied geometry.AffineTransform
	angle   float64 // rotation applied so far
	saved   []bool  // ApplyMatrix of each item before the gesture
}

// New creates a transform tool over doc. It rebinds to the selection
// whenever it changes outside a gesture.
func New(host viewer.Host, doc *annotation.Document, opts Options) *Tool {
	t := &Tool{host: host, doc: doc, opts: opts}
	rebind := func(annotation.Event) {
		if t.g == nil {
			t.bind()
		}
	}
	for _, ev := range []annotation.EventType{
		annotation.EventItemSelected,
		annotation.EventItemDeselected,
		annotation.EventItemReplaced,
		annotation.EventItemRemoved,
	} {
		doc.On(ev, rebind)
	}
	return t
}

func (t *Tool) Name() string { return "transform" }

// Enabled allows transforming anything except an empty or fresh selection.
func (t *Tool) Enabled(mode string) bool {
	return mode != tool.ModeSelect && mode != tool.ModeNew
}

func (t *Tool) OnActivate() { t.bind() }

// OnDeactivate ends a gesture in progress and, when finishing, unbinds.
func (t *Tool) OnDeactivate(finish bool) {
	if t.g != nil {
		t.end()
	}
	if finish {
		t.items = nil
		t.bound = false
	}
}

// Items returns the features the overlay is bound to.
func (t *Tool) Items() []*annotation.Feature { return t.items }

// Corners returns the overlay box, clockwise from its top-left.
func (t *Tool) Corners() [4]geometry.Point2D { return t.corners }

// Bound reports whether the overlay encloses a selection.
func (t *Tool) Bound() bool { return t.bound }

// Active reports whether a gesture is in progress.
func (t *Tool) Active() bool { return t.g != nil }

// Angle is the overlay's rotation in radians.
func (t *Tool) Angle() float64 {
	d := t.corners[1].Sub(t.corners[0])
	return math.Atan2(d.Y, d.X)
}

// bind computes the overlay box for the current selection. A single item
// with its own orientation gets its own frame; anything else gets the
// axis-aligned union of node bounds.
func (t *Tool) bind() {
	t.items = nil
	for _, f := range t.doc.SelectedFeatures() {
		if !f.IsPlaceholder() {
			t.items = append(t.items, f)
		}
	}
	t.bound = false
	if len(t.items) == 0 {
		return
	}
	if len(t.items) == 1 {
		if o, ok := t.items[0].Item().(annotation.Oriented); ok {
			box := o.OrientedBox()
			if box[0] != box[2] {
				t.corners = box
				t.bound = true
				return
			}
		}
	}
	var union geometry.Rect
	first := true
	for _, f := range t.items {
		b := f.Node().Bounds()
		if b.Width <= 0 && b.Height <= 0 {
			continue
		}
		if first {
			union, first = b, false
		} else {
			union = union.Union(b)
		}
	}
	if first {
		return
	}
	t.corners = union.Corners()
	t.bound = true
}

func (t *Tool) screenUnits(px float64) float64 {
	z := t.host.Zoom()
	if z <= 0 {
		z = 1
	}
	return px / z
}

// HandlePoint returns the image position of h.
func (t *Tool) HandlePoint(h Handle) geometry.Point2D {
	if h >= HandleTopLeft && h <= HandleBottomLeft {
		return t.corners[h]
	}
	c := t.corners
	top := vec(c[0].Add(c[1]).Scale(0.5))
	up := r2.Sub(vec(c[0]), vec(c[3]))
	if r2.Norm(up) == 0 {
		up = r2.Vec{Y: -1}
	}
	return pt(r2.Add(top, r2.Scale(t.screenUnits(t.opts.HandleOffset), r2.Unit(up))))
}

// HitTest returns the handle under an image point. The stem joining the rotate
// handle to the top edge grips the rotate handle too.
func (t *Tool) HitTest(p geometry.Point2D) Handle {
	if !t.bound {
		return HandleNone
	}
	r := t.screenUnits(t.opts.HandleSize)
	for _, h := range []Handle{HandleRotate, HandleTopLeft, HandleTopRight, HandleBottomRight, HandleBottomLeft} {
		if t.HandlePoint(h).Distance(p) <= r {
			return h
		}
	}
	top := t.corners[0].Add(t.corners[1]).Scale(0.5)
	if geometry.PointToSegmentDistance(p, top, t.HandlePoint(HandleRotate)) <= r/2 {
		return HandleRotate
	}
	return HandleNone
}

func (t *Tool) PointerDown(ev tool.PointerEvent) {
	if t.g != nil {
		return
	}
	if !t.bound {
		t.bind()
	}
	if h := t.HitTest(ev.Point); h != HandleNone {
		t.begin(h, ev.Point)
	}
}

func (t *Tool) PointerDrag(ev tool.PointerEvent) {
	if t.g == nil {
		return
	}
	if t.g.handle == HandleRotate {
		t.rotateTo(ev.Point, ev.Modifiers.Has(tool.ModShift))
		return
	}
	t.resizeTo(ev.Point, ev.Modifiers.Has(tool.ModShift))
}

func (t *Tool) PointerUp(tool.PointerEvent) {
	if t.g != nil {
		t.end()
	}
}

// begin switches every item to matrix composition for the gesture.
func (t *Tool) begin(h Handle, origin geometry.Point2D) {
	g := &gesture{
		handle:  h,
		origin:  origin,
		start:   t.corners,
		applied: geometry.Identity(),
		saved:   make([]bool, len(t.items)),
	}
	for i, f := range t.items {
		n := f.Node()
		g.saved[i] = n.ApplyMatrix()
		n.SetApplyMatrix(false)
	}
	t.g = g
}

// step moves the selection to total, measured from the gesture start.
func (t *Tool) step(op annotation.TransformOp, total geometry.AffineTransform, anchor geometry.Point2D, angle float64) {
	inv, ok := t.g.applied.Inverse()
	if !ok {
		log.Printf("Transform: singular accumulated matrix, ignoring step")
		return
	}
	inc := total.Compose(inv)
	params := annotation.TransformParams{Matrix: inc, Anchor: anchor, Angle: angle}
	for _, f := range t.items {
		f.Node().Transform(inc)
		if tr, ok := f.Item().(annotation.Transformer); ok {
			tr.OnTransform(op, params)
		}
	}
	t.g.applied = total
	for i, c := range t.g.start {
		t.corners[i] = total.Apply(c)
	}
}

// end bakes each item's accumulated matrix once, restores its mode and
// rebinds the overlay to the result.
func (t *Tool) end() {
	for i, f := range t.items {
		f.Bake()
		f.Node().SetApplyMatrix(t.g.saved[i])
	}
	t.g = nil
	t.bind()
}

// resizeTo drags the gesture's corner to p, keeping the opposite corner
// fixed. proportional projects the drag onto the box diagonal.
func (t *Tool) resizeTo(p geometry.Point2D, proportional bool) {
	i := int(t.g.handle)
	start := t.g.start
	anchor := start[(i+2)%4]
	ex, ey := axes(start)

	rel := func(q geometry.Point2D) r2.Vec {
		d := r2.Sub(vec(q), vec(anchor))
		return r2.Vec{X: r2.Dot(d, ex), Y: r2.Dot(d, ey)}
	}
	u0 := rel(start[i])
	u := rel(p)
	if proportional {
		if n2 := r2.Norm2(u0); n2 > 0 {
			u = r2.Scale(r2.Dot(u, u0)/n2, u0)
		}
	}
	total, err := scaleAbout(start, anchor, ratio(u.X, u0.X), ratio(u.Y, u0.Y))
	if err != nil {
		log.Printf("Transform: %v", err)
		return
	}
	t.step(annotation.TransformResize, total, anchor, 0)
}

// rotateTo turns the selection about the box center by the change in
// bearing from the gesture origin to p. snap rounds to 15 degrees.
func (t *Tool) rotateTo(p geometry.Point2D, snap bool) {
	c := geometry.Centroid(t.g.start[:])
	angle := bearing(c, p) - bearing(c, t.g.origin)
	if snap {
		angle = math.Round(angle/snapAngle) * snapAngle
	}
	delta := angle - t.g.angle
	t.g.angle = angle
	t.step(annotation.TransformRotate, geometry.RotationAbout(angle, c), c, delta)
}

// RotateBy rotates the selection about its box center in one step.
func (t *Tool) RotateBy(angle float64) error {
	if err := t.ready(); err != nil {
		return err
	}
	c := geometry.Centroid(t.corners[:])
	t.begin(HandleRotate, c)
	t.g.angle = angle
	t.step(annotation.TransformRotate, geometry.RotationAbout(angle, c), c, angle)
	t.end()
	return nil
}

// ScaleBy scales the selection along the box axes about its center.
func (t *Tool) ScaleBy(sx, sy float64) error {
	if err := t.ready(); err != nil {
		return err
	}
	c := geometry.Centroid(t.corners[:])
	total, err := scaleAbout(t.corners, c, sx, sy)
	if err != nil {
		return err
	}
	t.begin(HandleBottomRight, c)
	t.step(annotation.TransformResize, total, c, 0)
	t.end()
	return nil
}

func (t *Tool) ready() error {
	if t.g != nil {
		t.end()
	}
	t.bind()
	if !t.bound {
		return ErrEmptySelection
	}
	return nil
}

// scaleAbout fits the affine transform that scales box by (sx, sy) along
// its own axes with anchor fixed.
func scaleAbout(box [4]geometry.Point2D, anchor geometry.Point2D, sx, sy float64) (geometry.AffineTransform, error) {
	ex, ey := axes(box)
	a := vec(anchor)
	var src, dst [3]geometry.Point2D
	for k, idx := range []int{0, 1, 3} {
		d := r2.Sub(vec(box[idx]), a)
		moved := r2.Add(a, r2.Add(r2.Scale(r2.Dot(d, ex)*sx, ex), r2.Scale(r2.Dot(d, ey)*sy, ey)))
		src[k] = box[idx]
		dst[k] = pt(moved)
	}
	return geometry.AffineFromPoints(src, dst)
}

// axes returns the box's unit width and height directions.
func axes(box [4]geometry.Point2D) (ex, ey r2.Vec) {
	ex = r2.Sub(vec(box[1]), vec(box[0]))
	ey = r2.Sub(vec(box[3]), vec(box[0]))
	if r2.Norm(ex) == 0 {
		ex = r2.Vec{X: 1}
	}
	if r2.Norm(ey) == 0 {
		ey = r2.Vec{X: -ex.Y, Y: ex.X}
	}
	return r2.Unit(ex), r2.Unit(ey)
}

// ratio is num/den clamped away from zero.
func ratio(num, den float64) float64 {
	if den == 0 {
		return 1
	}
	s := num / den
	if math.Abs(s) < minScale {
		if s < 0 {
			return -minScale
		}
		return minScale
	}
	return s
}

func bearing(c, p geometry.Point2D) float64 {
	return math.Atan2(p.Y-c.Y, p.X-c.X)
}

func vec(p geometry.Point2D) r2.Vec { return r2.Vec{X: p.X, Y: p.Y} }
func pt(v r2.Vec) geometry.Point2D  { return geometry.Pt(v.X, v.Y) }
