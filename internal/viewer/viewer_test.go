package viewer

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slide-annotator/pkg/geometry"
)

func checker(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(0)
			if x >= w/2 {
				v = 255
			}
			img.Set(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

func TestCoordinateMapping(t *testing.T) {
	h := NewStaticHost(checker(100, 100), 50, 50)
	h.SetView(2, geometry.Pt(10, 20))

	s := h.ImageToViewport(geometry.Pt(15, 25))
	assert.Equal(t, geometry.Pt(10, 10), s)
	assert.Equal(t, geometry.Pt(15, 25), h.ViewportToImage(s))
	assert.Equal(t, geometry.NewRect(10, 20, 25, 25), h.VisibleImageRect())
}

func TestZoomAboutKeepsAnchor(t *testing.T) {
	h := NewStaticHost(checker(100, 100), 50, 50)
	s := geometry.Pt(20, 30)
	before := h.ViewportToImage(s)
	h.ZoomAbout(4, s)
	after := h.ViewportToImage(s)
	assert.InDelta(t, before.X, after.X, 1e-9)
	assert.InDelta(t, before.Y, after.Y, 1e-9)
}

func TestPanFollowsDrag(t *testing.T) {
	h := NewStaticHost(checker(100, 100), 50, 50)
	h.SetView(2, geometry.Pt(10, 10))
	h.Pan(geometry.Pt(-8, 4))
	assert.Equal(t, geometry.Pt(14, 8), h.ViewportToImage(geometry.Pt(0, 0)))
}

func TestSnapshotFrame(t *testing.T) {
	h := NewStaticHost(checker(20, 20), 40, 40)
	h.SetView(2, geometry.Pt(0, 0))

	buf, err := h.Snapshot(image.Rect(10, 0, 30, 40))
	require.NoError(t, err)
	assert.Equal(t, 20, buf.Width)
	assert.Equal(t, 40, buf.Height)
	assert.Equal(t, geometry.Pt(5, 0), buf.Frame.Origin)
	assert.Equal(t, 2.0, buf.Frame.Scale)

	// Screen x=10..19 shows image x=5..9 (black), 20..29 shows 10..14 (white).
	assert.Equal(t, byte(0), buf.Pix[0])
	assert.Equal(t, byte(255), buf.Pix[10*4])
}

func TestSnapshotEmpty(t *testing.T) {
	h := NewStaticHost(checker(10, 10), 10, 10)
	_, err := h.Snapshot(image.Rect(20, 20, 30, 30))
	assert.ErrorIs(t, err, ErrEmptySnapshot)
}

func TestEventsFire(t *testing.T) {
	h := NewStaticHost(checker(10, 10), 10, 10)
	var got []EventType
	h.On(EventViewportChange, func(e Event) { got = append(got, e.Type) })
	h.On(EventResize, func(e Event) { got = append(got, e.Type) })
	h.SetView(3, geometry.Pt(0, 0))
	h.Resize(20, 20)
	assert.Equal(t, []EventType{EventViewportChange, EventResize}, got)
}

func TestCompositeNormal(t *testing.T) {
	base := image.NewRGBA(image.Rect(0, 0, 2, 1))
	over := image.NewRGBA(image.Rect(0, 0, 1, 1))
	over.Set(0, 0, color.RGBA{R: 255, A: 255})

	c := Composite{Base: base}
	c.Add(over, BlendNormal, 0.5, image.Pt(1, 0))
	out := c.Render()
	assert.Equal(t, uint8(0), out.RGBAAt(0, 0).R)
	assert.Equal(t, uint8(128), out.RGBAAt(1, 0).R)
}

func TestIsSupportedFormat(t *testing.T) {
	assert.True(t, IsSupportedFormat("slide.TIF"))
	assert.False(t, IsSupportedFormat("slide.svs"))
}
