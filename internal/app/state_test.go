package app

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slide-annotator/internal/annotation"
	"slide-annotator/internal/config"
	"slide-annotator/internal/tool"
	"slide-annotator/internal/viewer"
	"slide-annotator/pkg/geometry"
)

func slide() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 40, 40))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(10, 10, 20, 20), &image.Uniform{C: color.Black}, image.Point{}, draw.Src)
	return img
}

func newSession(t *testing.T) (*State, *viewer.StaticHost) {
	t.Helper()
	host := viewer.NewStaticHost(slide(), 40, 40)
	return NewState(config.Default(), host), host
}

func TestWandSession(t *testing.T) {
	s, _ := newSession(t)
	assert.Equal(t, ToolNavigate, s.Tools.Active().Name())

	var modes []interface{}
	s.On(EventModeChanged, func(d interface{}) { modes = append(modes, d) })

	f := s.Doc.AddCollection("cells").CreateFeature()
	f.Select()
	s.Tick()
	assert.Equal(t, tool.ModeNew, s.Tools.Mode())

	require.NoError(t, s.Select(ToolWand))
	s.SetModified(false)
	s.PointerDown(tool.PointerEvent{Point: geometry.Pt(15, 15)})
	s.PointerUp(tool.PointerEvent{Point: geometry.Pt(15, 15)})

	poly, ok := f.Item().(*annotation.Polygon)
	require.True(t, ok)
	assert.InDelta(t, 100, poly.Region().Area(), 1e-6)
	assert.True(t, s.Modified)
	assert.Equal(t, "Polygon", s.Tools.Mode())
	assert.Equal(t, ToolWand, s.Tools.Active().Name())
	assert.Contains(t, modes, "Polygon")
}

func TestSuspendedWandSurvivesPan(t *testing.T) {
	s, host := newSession(t)
	f := s.Doc.AddCollection("cells").CreateFeature()
	f.Select()
	s.Tick()
	require.NoError(t, s.Select(ToolWand))
	s.PointerDown(tool.PointerEvent{Point: geometry.Pt(15, 15)})
	require.True(t, s.Wand.Pending())

	before, err := f.MarshalGeoJSON()
	require.NoError(t, err)

	require.NoError(t, s.Select(ToolNavigate))
	s.PointerDrag(tool.PointerEvent{Delta: geometry.Pt(-5, -5)})
	require.Equal(t, geometry.Pt(5, 5), host.ViewportToImage(geometry.Pt(0, 0)))

	after, err := f.MarshalGeoJSON()
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
	assert.True(t, s.Wand.Pending())

	// Resuming applies the selection in the frame it was grown in.
	require.NoError(t, s.Select(ToolWand))
	s.PointerUp(tool.PointerEvent{Point: geometry.Pt(15, 15)})
	require.NoError(t, s.Wand.Err())
	assert.False(t, s.Wand.Pending())
	assert.InDelta(t, 100, f.Item().(annotation.RegionEditor).Region().Area(), 1e-6)
	assert.InDelta(t, 10, f.Item().(annotation.RegionEditor).Region().Bounds().X, 1e-6)
}

func TestSelectionChangeFinishesWand(t *testing.T) {
	s, _ := newSession(t)
	fc := s.Doc.AddCollection("cells")
	f := fc.CreateFeature()
	f.Select()
	s.Tick()
	require.NoError(t, s.Select(ToolWand))

	pt, err := s.Doc.CreateFeatureFromGeoJSON(fc, []byte(`{"type":"Feature","geometry":{"type":"Point","coordinates":[1,1]},"properties":{}}`))
	require.NoError(t, err)
	f.Deselect()
	pt.Select()
	s.Loop.RunUntilIdle(8)

	assert.Equal(t, "Point", s.Tools.Mode())
	assert.Equal(t, ToolNavigate, s.Tools.Active().Name())
	assert.ErrorIs(t, s.Select(ToolWand), tool.ErrToolDisabled)
}

func TestZoomRescales(t *testing.T) {
	s, host := newSession(t)
	f := s.Doc.AddCollection("cells").CreateFeature()
	host.SetView(2, geometry.Pt(0, 0))
	assert.InDelta(t, 0.5, f.Node().EffectiveStrokeWidth(), 1e-9)
}

func TestNavigatePans(t *testing.T) {
	s, host := newSession(t)
	s.PointerDrag(tool.PointerEvent{Delta: geometry.Pt(-5, -5)})
	assert.Equal(t, geometry.Pt(5, 5), host.ViewportToImage(geometry.Pt(0, 0)))
	assert.False(t, s.Modified)
}

func TestProjectRoundTrip(t *testing.T) {
	dir := t.TempDir()
	imgPath := filepath.Join(dir, "slide.png")
	out, err := os.Create(imgPath)
	require.NoError(t, err)
	require.NoError(t, png.Encode(out, slide()))
	require.NoError(t, out.Close())

	host, err := viewer.Load(imgPath)
	require.NoError(t, err)
	s := NewState(config.Default(), host)
	fc := s.Doc.AddCollection("cells")
	_, err = s.Doc.CreateFeatureFromGeoJSON(fc, []byte(`{"type":"Feature","geometry":{"type":"Point","coordinates":[3,4]},"properties":{"label":"nucleus"}}`))
	require.NoError(t, err)

	projPath := filepath.Join(dir, "slide.annproj")
	require.NoError(t, s.SaveProject(projPath))
	assert.False(t, s.Modified)
	assert.Equal(t, "slide", s.Project.Name)
	assert.FileExists(t, filepath.Join(dir, "slide_annotations.geojson"))

	opened, warnings, err := Open(config.Default(), projPath)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, opened.Doc.Features(), 1)
	assert.Equal(t, "nucleus", opened.Doc.Features()[0].Label())
	assert.Equal(t, "cells", opened.Doc.Collections()[0].Label())
	assert.False(t, opened.Modified)
}

func TestOpenWithoutDocument(t *testing.T) {
	dir := t.TempDir()
	imgPath := filepath.Join(dir, "slide.png")
	out, err := os.Create(imgPath)
	require.NoError(t, err)
	require.NoError(t, png.Encode(out, slide()))
	require.NoError(t, out.Close())

	projPath := filepath.Join(dir, "empty.annproj")
	require.NoError(t, os.WriteFile(projPath, []byte(`{"version":1,"name":"empty","image":"slide.png"}`), 0644))

	s, _, err := Open(config.Default(), projPath)
	require.NoError(t, err)
	assert.Empty(t, s.Doc.Features())
	assert.Equal(t, filepath.Join(dir, "empty_annotations.geojson"), s.DocumentPath)
}

func TestLoadDocumentWarnings(t *testing.T) {
	s, _ := newSession(t)
	path := filepath.Join(t.TempDir(), "doc.geojson")
	require.NoError(t, os.WriteFile(path, []byte(`[{"type":"FeatureCollection","features":[
		{"type":"Feature","geometry":{"type":"Hexagon","coordinates":[]},"properties":{}},
		{"type":"Feature","geometry":{"type":"Point","coordinates":[1,2]},"properties":{}}
	],"properties":{"label":"a"}}]`), 0644))

	warnings, err := s.LoadDocument(path)
	require.NoError(t, err)
	assert.Len(t, warnings, 1)
	assert.ErrorIs(t, warnings[0], annotation.ErrUnsupportedGeometry)
	assert.Len(t, s.Doc.Features(), 1)
}

func TestFileWatcherCheck(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.geojson")
	w := NewFileWatcher(path, time.Hour)
	assert.False(t, w.Check())

	require.NoError(t, os.WriteFile(path, []byte("[]"), 0644))
	assert.True(t, w.Check())
	assert.False(t, w.Check())

	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))
	assert.True(t, w.Check())
}

func TestFileWatcherCallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.geojson")
	w := NewFileWatcher(path, 5*time.Millisecond)
	changed := make(chan string, 1)
	w.OnChange(func(p string) {
		select {
		case changed <- p:
		default:
		}
	})
	w.Start()
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("[]"), 0644))
	select {
	case p := <-changed:
		assert.Equal(t, filepath.Base(path), filepath.Base(p))
	case <-time.After(2 * time.Second):
		t.Fatal("no change reported")
	}
}
