package draw

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slide-annotator/internal/annotation"
	"slide-annotator/internal/tool"
	"slide-annotator/pkg/geometry"
)

func newDoc() (*annotation.Document, *annotation.FeatureCollection) {
	reg := annotation.NewRegistry()
	annotation.RegisterDefaults(reg)
	doc := annotation.NewDocument(reg)
	return doc, doc.AddCollection("test")
}

func TestPointPlacesAndMoves(t *testing.T) {
	doc, fc := newDoc()
	f := fc.CreateFeature()
	f.Select()
	pt := NewPoint(doc)

	pt.PointerDown(tool.PointerEvent{Point: geometry.Pt(3, 4)})
	p, ok := f.Item().(*annotation.Point)
	require.True(t, ok)
	assert.True(t, p.Placed())
	assert.Equal(t, geometry.Pt(3, 4), p.Center())

	pt.PointerDrag(tool.PointerEvent{Point: geometry.Pt(7, 1)})
	pt.PointerUp(tool.PointerEvent{})
	assert.Equal(t, geometry.Pt(7, 1), p.Center())

	pt.PointerDown(tool.PointerEvent{Point: geometry.Pt(0, 0)})
	assert.Same(t, p, f.Item())
	assert.Equal(t, geometry.Pt(0, 0), p.Center())
}

func TestRectangleDrag(t *testing.T) {
	doc, fc := newDoc()
	f := fc.CreateFeature()
	f.Select()
	rt := NewRectangle(doc)

	rt.PointerDown(tool.PointerEvent{Point: geometry.Pt(10, 10)})
	rt.PointerDrag(tool.PointerEvent{Point: geometry.Pt(4, 18)})
	rt.PointerUp(tool.PointerEvent{})

	r, ok := f.Item().(*annotation.Rectangle)
	require.True(t, ok)
	c, w, h, angle := r.Shape()
	assert.InDelta(t, 7, c.X, 1e-9)
	assert.InDelta(t, 14, c.Y, 1e-9)
	assert.InDelta(t, 6, w, 1e-9)
	assert.InDelta(t, 8, h, 1e-9)
	assert.InDelta(t, 0, angle, 1e-9)
	assert.Equal(t, "Point:Rectangle", annotation.ModeTag(f.Item()))
}

func TestRectangleSquare(t *testing.T) {
	doc, fc := newDoc()
	f := fc.CreateFeature()
	f.Select()
	rt := NewRectangle(doc)

	rt.PointerDown(tool.PointerEvent{Point: geometry.Pt(0, 0)})
	rt.PointerDrag(tool.PointerEvent{Point: geometry.Pt(-3, 5), Modifiers: tool.ModShift})

	_, w, h, _ := f.Item().(*annotation.Rectangle).Shape()
	assert.InDelta(t, 5, w, 1e-9)
	assert.InDelta(t, 5, h, 1e-9)
}

func TestWrongTarget(t *testing.T) {
	doc, fc := newDoc()
	_, err := target(doc, "Point", "")
	assert.ErrorIs(t, err, ErrNoTarget)

	r := fc.AddItem(annotation.NewRectangle(geometry.Pt(0, 0), 1, 1, 0), annotation.DefaultStyle())
	r.Select()
	_, err = target(doc, "Point", "")
	assert.ErrorIs(t, err, ErrNoTarget)

	pt := NewPoint(doc)
	pt.PointerDown(tool.PointerEvent{Point: geometry.Pt(1, 1)})
	pt.PointerDrag(tool.PointerEvent{Point: geometry.Pt(2, 2)})
	assert.Equal(t, "Rectangle", r.Item().Subtype())
}

func TestEnabledModes(t *testing.T) {
	pt := NewPoint(nil)
	assert.True(t, pt.Enabled(tool.ModeNew))
	assert.True(t, pt.Enabled("Point"))
	assert.False(t, pt.Enabled("Point:Rectangle"))
	assert.False(t, pt.Enabled(tool.ModeSelect))

	rt := NewRectangle(nil)
	assert.True(t, rt.Enabled(tool.ModeNew))
	assert.True(t, rt.Enabled("Point:Rectangle"))
	assert.False(t, rt.Enabled("Point"))
}
