// Package draw provides the shape creation tools. Each one turns a selected
// placeholder feature into its kind on the first pointer-down and edits
// that shape for the rest of the gesture.
package draw

import (
	"errors"
	"fmt"
	"log"
	"math"

	"slide-annotator/internal/annotation"
	"slide-annotator/internal/tool"
	"slide-annotator/pkg/geometry"
)

// ErrNoTarget is returned when the selection holds no feature the tool can
// draw into.
var ErrNoTarget = errors.New("draw: no single placeholder or matching shape selected")

// target returns the single selected feature, initializing a placeholder to
// (typ, subtype). Features of another kind are rejected.
func target(doc *annotation.Document, typ, subtype string) (*annotation.Feature, error) {
	sel := doc.SelectedFeatures()
	if len(sel) != 1 {
		return nil, ErrNoTarget
	}
	f := sel[0]
	if f.IsPlaceholder() {
		if err := f.Initialize(typ, subtype); err != nil {
			return nil, fmt.Errorf("create %s: %w", typ, err)
		}
		return f, nil
	}
	it := f.Item()
	if it.Type() != typ || it.Subtype() != subtype {
		return nil, fmt.Errorf("%w: selected %s", ErrNoTarget, annotation.ModeTag(it))
	}
	return f, nil
}

// Point places a point marker and moves it while dragging.
type Point struct {
	tool.Base
	doc   *annotation.Document
	point *annotation.Point
}

func NewPoint(doc *annotation.Document) *Point { return &Point{doc: doc} }

func (t *Point) Name() string { return "point" }

func (t *Point) Enabled(mode string) bool {
	return mode == tool.ModeNew || mode == "Point"
}

func (t *Point) PointerDown(ev tool.PointerEvent) {
	f, err := target(t.doc, "Point", "")
	if err != nil {
		log.Printf("Draw: %v", err)
		return
	}
	t.point = f.Item().(*annotation.Point)
	t.point.SetCenter(ev.Point)
}

func (t *Point) PointerDrag(ev tool.PointerEvent) {
	if t.point != nil {
		t.point.SetCenter(ev.Point)
	}
}

func (t *Point) PointerUp(tool.PointerEvent) { t.point = nil }

func (t *Point) OnDeactivate(bool) { t.point = nil }

// Rectangle drags out an axis-aligned rectangle between the pointer-down
// corner and the current pointer. Shift constrains it to a square.
type Rectangle struct {
	tool.Base
	doc   *annotation.Document
	rect  *annotation.Rectangle
	start geometry.Point2D
}

func NewRectangle(doc *annotation.Document) *Rectangle { return &Rectangle{doc: doc} }

func (t *Rectangle) Name() string { return "rectangle" }

func (t *Rectangle) Enabled(mode string) bool {
	return mode == tool.ModeNew || mode == "Point:Rectangle"
}

func (t *Rectangle) PointerDown(ev tool.PointerEvent) {
	f, err := target(t.doc, "Point", "Rectangle")
	if err != nil {
		log.Printf("Draw: %v", err)
		return
	}
	t.rect = f.Item().(*annotation.Rectangle)
	t.start = ev.Point
	t.rect.SetShape(ev.Point, 0, 0, 0)
}

func (t *Rectangle) PointerDrag(ev tool.PointerEvent) {
	if t.rect == nil {
		return
	}
	d := ev.Point.Sub(t.start)
	if ev.Modifiers.Has(tool.ModShift) {
		side := math.Max(math.Abs(d.X), math.Abs(d.Y))
		d = geometry.Pt(math.Copysign(side, d.X), math.Copysign(side, d.Y))
	}
	center := t.start.Add(d.Scale(0.5))
	t.rect.SetShape(center, math.Abs(d.X), math.Abs(d.Y), 0)
}

func (t *Rectangle) PointerUp(tool.PointerEvent) { t.rect = nil }

func (t *Rectangle) OnDeactivate(bool) { t.rect = nil }
