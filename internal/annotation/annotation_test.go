package annotation

import (
	"encoding/json"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slide-annotator/internal/scene"
	"slide-annotator/pkg/geometry"
)

func region(f *Feature) geometry.Region {
	return f.Item().(RegionEditor).Region()
}

func newTestDocument() *Document {
	reg := NewRegistry()
	RegisterDefaults(reg)
	return NewDocument(reg)
}

// assertNumbersClose compares decoded JSON values, allowing numeric
// differences up to tol.
func assertNumbersClose(t *testing.T, want, got any, tol float64, path string) {
	t.Helper()
	switch w := want.(type) {
	case float64:
		g, ok := got.(float64)
		require.True(t, ok, "%s: want number, got %T", path, got)
		assert.InDelta(t, w, g, tol, path)
	case []any:
		g, ok := got.([]any)
		require.True(t, ok, "%s: want array, got %T", path, got)
		require.Len(t, g, len(w), path)
		for i := range w {
			assertNumbersClose(t, w[i], g[i], tol, path)
		}
	case map[string]any:
		g, ok := got.(map[string]any)
		require.True(t, ok, "%s: want object, got %T", path, got)
		require.Len(t, g, len(w), path)
		for k := range w {
			assertNumbersClose(t, w[k], g[k], tol, path+"."+k)
		}
	default:
		assert.Equal(t, want, got, path)
	}
}

func decode(t *testing.T, data []byte) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal(data, &v))
	return v
}

func TestRoundTrip(t *testing.T) {
	cases := []struct {
		name    string
		feature string
	}{
		{"point", `{"type":"Feature","geometry":{"type":"Point","coordinates":[10.5,20.25]},"properties":{"label":"p"}}`},
		{"point text", `{"type":"Feature","geometry":{"type":"Point","coordinates":[3,4],"properties":{"subtype":"PointText","content":"hello"}},"properties":{}}`},
		{"rectangle", `{"type":"Feature","geometry":{"type":"Point","coordinates":[50,60],"properties":{"subtype":"Rectangle","width":20,"height":10,"angle":30}},"properties":{"fillColor":"#ff0000"}}`},
		{"ellipse", `{"type":"Feature","geometry":{"type":"Point","coordinates":[5,5],"properties":{"subtype":"Ellipse","majorRadius":8,"minorRadius":3,"angle":-45}},"properties":{}}`},
		{"linestring", `{"type":"Feature","geometry":{"type":"LineString","coordinates":[[0,0],[10,0],[10,10]]},"properties":{"strokeWidth":3}}`},
		{"multilinestring", `{"type":"Feature","geometry":{"type":"MultiLineString","coordinates":[[[0,0],[1,1]],[[2,2],[3,3],[4,2]]]},"properties":{}}`},
		{"polygon with hole", `{"type":"Feature","geometry":{"type":"Polygon","coordinates":[[[0,0],[10,0],[10,10],[0,10],[0,0]],[[2,2],[4,2],[4,4],[2,4],[2,2]]]},"properties":{"fillOpacity":0.5,"rescale":{"strokeWidth":2}}}`},
		{"multipolygon", `{"type":"Feature","geometry":{"type":"MultiPolygon","coordinates":[[[[0,0],[1,0],[1,1],[0,0]]],[[[5,5],[6,5],[6,6],[5,5]]]]},"properties":{"userdata":{"source":"test"}}}`},
		{"placeholder", `{"type":"Feature","geometry":null,"properties":{"label":"todo"}}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc := newTestDocument()
			fc := doc.AddCollection("c")

			first, err := doc.CreateFeatureFromGeoJSON(fc, []byte(tc.feature))
			require.NoError(t, err)
			out1, err := first.MarshalGeoJSON()
			require.NoError(t, err)

			second, err := doc.CreateFeatureFromGeoJSON(fc, out1)
			require.NoError(t, err)
			out2, err := second.MarshalGeoJSON()
			require.NoError(t, err)

			assertNumbersClose(t, decode(t, out1), decode(t, out2), 1e-6, tc.name)
			assert.Equal(t, first.Style(), second.Style())
			assert.Equal(t, first.Label(), second.Label())
		})
	}
}

func TestRoundTripPreservesInput(t *testing.T) {
	doc := newTestDocument()
	fc := doc.AddCollection("c")
	in := `{"type":"Feature","geometry":{"type":"Point","coordinates":[50,60],"properties":{"subtype":"Rectangle","width":20,"height":10,"angle":30}},"properties":{}}`
	f, err := doc.CreateFeatureFromGeoJSON(fc, []byte(in))
	require.NoError(t, err)

	g := f.Item().Geometry()
	assert.Equal(t, "Rectangle", g.Subtype())
	assert.InDelta(t, 20, g.Properties["width"], 1e-9)
	assert.InDelta(t, 10, g.Properties["height"], 1e-9)
	assert.InDelta(t, 30, g.Properties["angle"], 1e-9)
	assertNumbersClose(t, []any{50.0, 60.0}, decode(t, g.Coordinates), 1e-9, "center")
}

func TestRegistryOverride(t *testing.T) {
	reg := NewRegistry()
	RegisterDefaults(reg)

	called := false
	reg.Register(Constructor{Type: "Polygon", Build: func(g *Geometry) (Item, error) {
		called = true
		return buildPolygon(g)
	}})

	_, err := reg.FromGeometry(&Geometry{Type: "Polygon", Coordinates: json.RawMessage(`[]`)})
	require.NoError(t, err)
	assert.True(t, called)

	_, ok := reg.Lookup("Point", "Ellipse")
	assert.True(t, ok)
	_, ok = reg.Lookup("Point", "Star")
	assert.False(t, ok)
}

func TestBulkLoadSkipsUnsupported(t *testing.T) {
	doc := newTestDocument()
	data := `[{"type":"FeatureCollection","properties":{"label":"cells","defaultStyle":{"fillColor":"#00ff00"}},"features":[
		{"type":"Feature","geometry":{"type":"Circle","coordinates":[0,0]},"properties":{}},
		{"type":"Feature","geometry":{"type":"Point","coordinates":[1,2]},"properties":{}},
		{"type":"Feature","geometry":{"type":"Polygon","coordinates":[[[0,0],[1,0]]]},"properties":{}}
	]}]`

	warnings, err := doc.LoadGeoJSON([]byte(data))
	require.NoError(t, err)
	require.Len(t, warnings, 2)
	assert.ErrorIs(t, warnings[0], ErrUnsupportedGeometry)
	assert.ErrorIs(t, warnings[1], ErrInvalidGeometry)

	colls := doc.Collections()
	require.Len(t, colls, 1)
	assert.Equal(t, "cells", colls[0].Label())
	require.Len(t, colls[0].Features(), 1)
	assert.Equal(t, "#00ff00", colls[0].Features()[0].Style().FillColor)
}

func TestLoadMalformedDocument(t *testing.T) {
	_, err := newTestDocument().LoadGeoJSON([]byte(`[{"type":`))
	assert.Error(t, err)
}

func TestSingleCreateFails(t *testing.T) {
	doc := newTestDocument()
	fc := doc.AddCollection("c")
	_, err := doc.CreateFeatureFromGeoJSON(fc, []byte(`{"type":"Feature","geometry":{"type":"Circle","coordinates":[0,0]},"properties":{}}`))
	assert.ErrorIs(t, err, ErrUnsupportedGeometry)
	assert.Empty(t, fc.Features())
	assert.Equal(t, 0, fc.Layer().ChildCount())
}

func TestInitializePolygonScenario(t *testing.T) {
	doc := newTestDocument()
	fc := doc.AddCollection("new")
	f := fc.CreateFeature()
	require.True(t, f.IsPlaceholder())
	require.NoError(t, f.Initialize("Polygon", ""))

	data, err := doc.MarshalGeoJSON()
	require.NoError(t, err)

	var out []struct {
		Features []struct {
			Geometry struct {
				Type        string          `json:"type"`
				Coordinates json.RawMessage `json:"coordinates"`
			} `json:"geometry"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(data, &out))
	require.Len(t, out, 1)
	require.Len(t, out[0].Features, 1)
	assert.Equal(t, "Polygon", out[0].Features[0].Geometry.Type)
	assert.JSONEq(t, `[]`, string(out[0].Features[0].Geometry.Coordinates))
}

func TestInitializeErrors(t *testing.T) {
	doc := newTestDocument()
	fc := doc.AddCollection("c")
	f := fc.CreateFeature()

	err := f.Initialize("Circle", "")
	assert.ErrorIs(t, err, ErrUnsupportedGeometry)
	assert.True(t, f.IsPlaceholder())

	require.NoError(t, f.Initialize("Point", "Rectangle"))
	assert.ErrorIs(t, f.Initialize("Polygon", ""), ErrNotPlaceholder)
}

func TestReplacePreservesIdentity(t *testing.T) {
	doc := newTestDocument()
	fc := doc.AddCollection("c")
	fc.CreateFeature()
	f, err := doc.CreateFeatureFromGeoJSON(fc, []byte(`{"type":"Feature","geometry":{"type":"Polygon","coordinates":[[[0,0],[4,0],[4,4],[0,0]]]},"properties":{"label":"Foo","fillColor":"#123456","rescale":{"strokeWidth":3},"selected":true}}`))
	require.NoError(t, err)
	fc.CreateFeature()

	var featureEvents, docEvents int
	f.On(EventItemReplaced, func(ev Event) {
		featureEvents++
		assert.Equal(t, "Polygon", ev.Previous.Type())
	})
	doc.On(EventItemReplaced, func(Event) { docEvents++ })

	id := f.ID
	f.ReplaceItem(NewMultiPolygon(geometry.Region{geometry.NewRect(0, 0, 1, 1).Ring()}))

	assert.Equal(t, id, f.ID)
	assert.Equal(t, "Foo", f.Label())
	assert.True(t, f.Selected())
	assert.True(t, f.Node().Selected())
	assert.Equal(t, "#123456", f.Style().FillColor)
	assert.Equal(t, 3.0, f.Node().Rescale()["strokeWidth"])
	assert.Equal(t, 1, featureEvents)
	assert.Equal(t, 1, docEvents)
	assert.Equal(t, 1, fc.Layer().IndexOf(f.Node()))
	assert.Equal(t, 3, fc.Layer().ChildCount())
}

func TestReplaceWithUntypedPanics(t *testing.T) {
	f := newTestDocument().AddCollection("c").CreateFeature()
	assert.Panics(t, func() { f.ReplaceItem(newPlaceholder()) })
}

func TestSelectionEvents(t *testing.T) {
	doc := newTestDocument()
	f := doc.AddCollection("c").CreateFeature()

	var got []EventType
	doc.On(EventItemSelected, func(ev Event) { got = append(got, ev.Type) })
	doc.On(EventItemDeselected, func(ev Event) { got = append(got, ev.Type) })

	f.Select()
	f.Select()
	assert.Equal(t, []*Feature{f}, doc.SelectedFeatures())
	doc.DeselectAll()
	assert.Empty(t, doc.SelectedFeatures())
	assert.Equal(t, []EventType{EventItemSelected, EventItemDeselected}, got)
}

func TestLabels(t *testing.T) {
	doc := newTestDocument()
	fc := doc.AddCollection("c")
	f := fc.CreateFeature()
	require.NoError(t, f.Initialize("Point", "Ellipse"))

	assert.Equal(t, LabelAuto, f.LabelSource())
	assert.Equal(t, "Point:Ellipse", f.Label())
	assert.Nil(t, f.GeoJSON().Properties.Label)

	f.SetLabel("nucleus")
	assert.Equal(t, LabelUser, f.LabelSource())
	require.NotNil(t, f.GeoJSON().Properties.Label)
	assert.Equal(t, "nucleus", *f.GeoJSON().Properties.Label)

	f.SetLabel("")
	assert.Equal(t, "Point:Ellipse", f.Label())
}

func TestSelectedSerializedOnlyWhenSet(t *testing.T) {
	f := newTestDocument().AddCollection("c").CreateFeature()
	b, err := f.MarshalGeoJSON()
	require.NoError(t, err)
	assert.NotContains(t, string(b), `"selected"`)

	f.Select()
	b, err = f.MarshalGeoJSON()
	require.NoError(t, err)
	assert.Contains(t, string(b), `"selected":true`)
}

func TestRescale(t *testing.T) {
	doc := newTestDocument()
	fc := doc.AddCollection("c")
	f, err := doc.CreateFeatureFromGeoJSON(fc, []byte(`{"type":"Feature","geometry":{"type":"Point","coordinates":[0,0],"properties":{"subtype":"PointText","content":"x"}},"properties":{"rescale":{"strokeWidth":2,"fontSize":20}}}`))
	require.NoError(t, err)

	doc.Rescale(4)
	assert.InDelta(t, 0.5, f.Node().EffectiveStrokeWidth(), 1e-9)
	assert.InDelta(t, 5, f.Item().(*PointText).text.FontSize, 1e-9)
}

func TestPointTextStaysUpright(t *testing.T) {
	pt := NewPointText(geometry.Pt(10, 0), "label")
	n := pt.Node()
	n.SetApplyMatrix(false)

	m := geometry.Rotation(math.Pi / 2).Compose(geometry.Scale(3, 3))
	n.Transform(m)
	pt.OnTransform(TransformRotate, TransformParams{Matrix: m})

	got := n.Matrix()
	assert.Equal(t, 1.0, got.A)
	assert.Equal(t, 0.0, got.B)
	assert.Equal(t, 1.0, got.D)
	assert.InDelta(t, 0, pt.Anchor().X, 1e-9)
	assert.InDelta(t, 30, pt.Anchor().Y, 1e-9)

	Bake(pt)
	assert.True(t, n.Matrix().IsIdentity())
	assert.InDelta(t, 30, pt.Anchor().Y, 1e-9)
	assert.InDelta(t, defaultFontSize, pt.text.FontSize, 1e-9)
}

func TestEllipseSurvivesAffine(t *testing.T) {
	e := NewEllipse(geometry.Pt(0, 0), 4, 2, 0)
	e.Node().Transform(geometry.Rotation(math.Pi / 2))
	c, major, minor, angle := e.Shape()
	assert.InDelta(t, 0, c.X, 1e-9)
	assert.InDelta(t, 4, major, 1e-9)
	assert.InDelta(t, 2, minor, 1e-9)
	assert.InDelta(t, 90, angle, 1e-9)
}

func TestEllipseStretchRoundTrips(t *testing.T) {
	doc := newTestDocument()
	fc := doc.AddCollection("c")
	f := fc.AddItem(NewEllipse(geometry.Pt(0, 0), 20, 10, 45), DefaultStyle())
	fc.AddItem(NewPolygon(geometry.Region{geometry.NewRect(30, 30, 10, 10).Ring()}), DefaultStyle())
	stretch := geometry.Scale(2, 1)
	for _, g := range fc.Features() {
		g.Node().Transform(stretch)
		g.Bake()
	}

	data, err := f.MarshalGeoJSON()
	require.NoError(t, err)
	back, err := doc.CreateFeatureFromGeoJSON(fc, data)
	require.NoError(t, err)

	undo, ok := stretch.Inverse()
	require.True(t, ok)
	tilt := geometry.Rotation(-math.Pi / 4)
	outline := back.Node().(*scene.Path).WorldPoints()
	require.Len(t, outline, ellipseSegments)
	for _, q := range outline {
		p := tilt.Apply(undo.Apply(q))
		assert.InDelta(t, 1, p.X*p.X/400+p.Y*p.Y/100, 1e-9)
	}

	want := geometry.Ring(geometry.TransformPoints(stretch, geometry.EllipsePoints(geometry.Pt(0, 0), 20, 10, math.Pi/4, ellipseSegments)))
	assert.InDelta(t, want.Area(), geometry.Ring(outline).Area(), 1e-6)
	_, major, minor, _ := back.Item().(*Ellipse).Shape()
	assert.InDelta(t, 400, major*minor, 1e-6)
	assert.InDelta(t, 200, region(fc.Features()[1]).Area(), 1e-6)
}

func TestStretchedRectangleBecomesPolygon(t *testing.T) {
	doc := newTestDocument()
	fc := doc.AddCollection("c")
	f := fc.AddItem(NewRectangle(geometry.Pt(50, 50), 20, 10, 30), DefaultStyle())
	f.SetLabel("stroma")
	f.Select()
	var replaced int
	doc.On(EventItemReplaced, func(Event) { replaced++ })

	f.Node().Transform(geometry.Scale(2, 1))
	f.Bake()

	assert.Equal(t, 1, replaced)
	assert.Equal(t, "Polygon", f.Item().Type())
	assert.Equal(t, "stroma", f.Label())
	assert.True(t, f.Selected())
	assert.InDelta(t, 400, region(f).Area(), 1e-6)
}

func TestStretchedUprightRectangleKeepsKind(t *testing.T) {
	fc := newTestDocument().AddCollection("c")
	r := NewRectangle(geometry.Pt(50, 50), 20, 10, 90)
	f := fc.AddItem(r, DefaultStyle())

	f.Node().Transform(geometry.Scale(2, 1))
	f.Bake()

	assert.Same(t, r, f.Item())
	c, w, h, angle := r.Shape()
	assert.InDelta(t, 100, c.X, 1e-9)
	assert.InDelta(t, 20, w, 1e-9)
	assert.InDelta(t, 20, h, 1e-9)
	assert.InDelta(t, 90, angle, 1e-9)
}

func TestRasterRoundTrip(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	r := NewRaster(img, geometry.Translation(5, 6))

	doc := newTestDocument()
	fc := doc.AddCollection("c")
	f := fc.AddItem(r, doc.DefaultStyle())
	b, err := f.MarshalGeoJSON()
	require.NoError(t, err)

	g, err := doc.CreateFeatureFromGeoJSON(fc, b)
	require.NoError(t, err)
	back, ok := g.Item().(*Raster)
	require.True(t, ok)
	assert.Equal(t, img.Pix, back.Image().Pix)
	assert.Equal(t, geometry.Translation(5, 6), back.Node().Matrix())
	assert.Equal(t, "GeometryCollection:Raster", ModeTag(back))
}

func TestRemoveCollection(t *testing.T) {
	doc := newTestDocument()
	fc := doc.AddCollection("c")
	a := fc.CreateFeature()
	fc.CreateFeature()

	removed := 0
	doc.On(EventItemRemoved, func(Event) { removed++ })
	doc.RemoveCollection(fc)

	assert.Equal(t, 2, removed)
	assert.Empty(t, doc.Collections())
	assert.Nil(t, a.Node().Parent())
	assert.Nil(t, a.Collection())
	assert.Equal(t, 0, doc.Root().ChildCount())
}

func TestCollectionAddedEvent(t *testing.T) {
	doc := newTestDocument()
	var got *FeatureCollection
	doc.On(EventFeatureCollectionAdded, func(ev Event) { got = ev.Collection })
	fc := doc.AddCollection("c")
	assert.Same(t, fc, got)
}
