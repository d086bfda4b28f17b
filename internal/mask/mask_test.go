package mask

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slide-annotator/pkg/geometry"
)

func uniform(w, h int, v byte) *Buffer {
	pix := make([]byte, w*h*4)
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = v, v, v, 255
	}
	return &Buffer{Pix: pix, Width: w, Height: h, BytesPerPixel: 4, Frame: Frame{Scale: 1}}
}

func paint(b *Buffer, r image.Rectangle, v byte) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			p := b.pixel(x, y)
			p[0], p[1], p[2] = v, v, v
		}
	}
}

func fill(w, h int, r image.Rectangle) *Mask {
	m := New(w, h, Frame{Scale: 1})
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			m.Set(x, y)
		}
	}
	return m
}

func TestFloodFillUniform(t *testing.T) {
	m, err := FloodFill(uniform(10, 10, 128), image.Pt(5, 5), 10)
	require.NoError(t, err)
	assert.Equal(t, 100, m.Count())
	assert.Equal(t, Bounds{MinX: 0, MinY: 0, MaxX: 9, MaxY: 9}, m.Bounds)
	require.NotNil(t, m.SeedColor)
	assert.Equal(t, uint8(128), m.SeedColor.R)
}

func TestFloodFillStopsAtEdge(t *testing.T) {
	buf := uniform(10, 10, 0)
	paint(buf, image.Rect(5, 0, 6, 10), 200)

	m, err := FloodFill(buf, image.Pt(1, 1), 10)
	require.NoError(t, err)
	assert.Equal(t, 50, m.Count())
	assert.Equal(t, Bounds{MinX: 0, MinY: 0, MaxX: 4, MaxY: 9}, m.Bounds)
}

func TestFloodFillThreshold(t *testing.T) {
	buf := uniform(4, 1, 100)
	paint(buf, image.Rect(2, 0, 3, 1), 108)
	paint(buf, image.Rect(3, 0, 4, 1), 120)

	m, err := FloodFill(buf, image.Pt(0, 0), 10)
	require.NoError(t, err)
	assert.Equal(t, 3, m.Count())

	m, err = FloodFill(buf, image.Pt(0, 0), 20)
	require.NoError(t, err)
	assert.Equal(t, 4, m.Count())
}

func TestGlobalThresholdIgnoresConnectivity(t *testing.T) {
	buf := uniform(10, 10, 0)
	paint(buf, image.Rect(5, 0, 6, 10), 200)

	m, err := GlobalThreshold(buf, image.Pt(1, 1), 10)
	require.NoError(t, err)
	assert.Equal(t, 90, m.Count())
	assert.Equal(t, Bounds{MinX: 0, MinY: 0, MaxX: 9, MaxY: 9}, m.Bounds)
}

func TestSeedOutOfBounds(t *testing.T) {
	_, err := FloodFill(uniform(4, 4, 0), image.Pt(4, 0), 10)
	assert.ErrorIs(t, err, ErrSeedOutOfBounds)

	_, err = GlobalThreshold(&Buffer{Width: 2, Height: 2, BytesPerPixel: 4}, image.Pt(0, 0), 10)
	assert.ErrorIs(t, err, ErrBadBuffer)
}

func TestUnionAndSubtract(t *testing.T) {
	a := fill(10, 10, image.Rect(0, 0, 5, 5))
	b := fill(10, 10, image.Rect(3, 3, 8, 8))

	u, err := Union(a, b)
	require.NoError(t, err)
	assert.Equal(t, 25+25-4, u.Count())
	assert.Equal(t, Bounds{MinX: 0, MinY: 0, MaxX: 7, MaxY: 7}, u.Bounds)

	d, err := Subtract(a, b)
	require.NoError(t, err)
	assert.Equal(t, 21, d.Count())
	assert.Equal(t, Bounds{MinX: 0, MinY: 0, MaxX: 4, MaxY: 4}, d.Bounds)

	d, err = Subtract(fill(10, 10, image.Rect(0, 0, 5, 1)), fill(10, 10, image.Rect(3, 0, 5, 1)))
	require.NoError(t, err)
	assert.Equal(t, Bounds{MinX: 0, MinY: 0, MaxX: 2, MaxY: 0}, d.Bounds)

	_, err = Union(a, New(3, 3, Frame{}))
	assert.ErrorIs(t, err, ErrSizeMismatch)
}

func TestSubtractToEmpty(t *testing.T) {
	a := fill(4, 4, image.Rect(1, 1, 3, 3))
	d, err := Subtract(a, a)
	require.NoError(t, err)
	assert.True(t, d.IsEmpty())
	assert.Equal(t, 0, d.Count())
}

func TestBorder(t *testing.T) {
	b := Border(fill(10, 10, image.Rect(2, 2, 7, 7)))
	assert.Equal(t, 25-9, b.Count())
	assert.False(t, b.At(4, 4))
	assert.True(t, b.At(2, 4))
}

func TestFrameRoundTrip(t *testing.T) {
	f := Frame{Origin: geometry.Pt(100, 50), Scale: 0.5}
	p := f.ToLocal(10, 20)
	assert.Equal(t, geometry.Pt(120, 90), p)
	x, y := f.ToPixel(p)
	assert.InDelta(t, 10, x, 1e-9)
	assert.InDelta(t, 20, y, 1e-9)
}

func TestRasterizeSquare(t *testing.T) {
	ring := geometry.NewRect(2.5, 2.5, 5, 5).Ring()
	m := Rasterize(geometry.Region{ring}, 10, 10, Frame{Scale: 1}, 0.02)
	assert.Equal(t, 36, m.Count())
	assert.Equal(t, Bounds{MinX: 2, MinY: 2, MaxX: 7, MaxY: 7}, m.Bounds)
}

func TestRasterizeHole(t *testing.T) {
	g := geometry.Region{
		geometry.NewRect(0, 0, 10, 10).Ring(),
		geometry.NewRect(4, 4, 2, 2).Ring(),
	}
	m := Rasterize(g, 10, 10, Frame{Scale: 1}, 0.02)
	assert.Equal(t, 96, m.Count())
	assert.False(t, m.At(4, 4))
}

func TestRasterizeFrame(t *testing.T) {
	// Item-local square (10,10)-(12,12) at two buffer pixels per unit.
	ring := geometry.NewRect(10, 10, 2, 2).Ring()
	m := Rasterize(geometry.Region{ring}, 8, 8, Frame{Origin: geometry.Pt(10, 10), Scale: 2}, 0.02)
	assert.Equal(t, 16, m.Count())
	assert.Equal(t, Bounds{MinX: 0, MinY: 0, MaxX: 3, MaxY: 3}, m.Bounds)
}

func TestTraceSquare(t *testing.T) {
	m := fill(10, 10, image.Rect(2, 2, 8, 8))
	cs, err := Trace(m, TraceOptions{MinArea: 4, Simplify: 0.5})
	require.NoError(t, err)
	require.Len(t, cs, 1)
	assert.False(t, cs[0].Hole)
	assert.InDelta(t, 36, cs[0].Ring.Area(), 1e-9)
	b := cs[0].Ring.Bounds()
	assert.InDelta(t, 2, b.X, 1e-9)
	assert.InDelta(t, 2, b.Y, 1e-9)
	assert.InDelta(t, 6, b.Width, 1e-9)
}

func TestTraceKeepsThinRuns(t *testing.T) {
	m := fill(10, 10, image.Rect(1, 4, 9, 5))
	cs, err := Trace(m, TraceOptions{MinArea: 4})
	require.NoError(t, err)
	require.Len(t, cs, 1)
	assert.InDelta(t, 8, cs[0].Ring.Area(), 1e-9)
	b := cs[0].Ring.Bounds()
	assert.InDelta(t, 1, b.Height, 1e-9)
}

func TestTraceScaledFrame(t *testing.T) {
	m := fill(8, 8, image.Rect(0, 0, 4, 4))
	m.Frame = Frame{Origin: geometry.Pt(10, 10), Scale: 2}
	g, err := Vectorize(m, TraceOptions{MinArea: 1})
	require.NoError(t, err)
	assert.InDelta(t, 4, g.Area(), 1e-9)
	b := g[0].Bounds()
	assert.InDelta(t, 10, b.X, 1e-9)
	assert.InDelta(t, 12, b.X+b.Width, 1e-9)
}

func TestTraceHoleLabeling(t *testing.T) {
	m := fill(10, 10, image.Rect(0, 0, 10, 10))
	for y := 4; y < 6; y++ {
		for x := 4; x < 6; x++ {
			m.Data[y*m.Width+x] = 0
		}
	}
	cs, err := Trace(m, TraceOptions{MinArea: 1})
	require.NoError(t, err)
	require.Len(t, cs, 2)

	holes := 0
	for _, c := range cs {
		if c.Hole {
			holes++
		}
	}
	assert.Equal(t, 1, holes)
	assert.InDelta(t, 96, ToRegion(cs).Area(), 1e-9)
}

func TestTraceDropsSlivers(t *testing.T) {
	m := fill(10, 10, image.Rect(1, 1, 4, 2))
	cs, err := Trace(m, TraceOptions{MinArea: 4})
	require.NoError(t, err)
	assert.Empty(t, cs)
}

func TestDilate(t *testing.T) {
	m := fill(10, 10, image.Rect(4, 4, 6, 6))
	d, err := Dilate(m, 1)
	require.NoError(t, err)
	assert.Equal(t, 16, d.Count())
	assert.Equal(t, Bounds{MinX: 3, MinY: 3, MaxX: 6, MaxY: 6}, d.Bounds)

	edge, err := Dilate(fill(4, 4, image.Rect(0, 0, 1, 1)), 1)
	require.NoError(t, err)
	assert.Equal(t, 4, edge.Count())
}

func TestTraceRasterizeRecoversMask(t *testing.T) {
	m := fill(12, 12, image.Rect(3, 2, 9, 10))
	g, err := Vectorize(m, TraceOptions{MinArea: 4, Simplify: 0.5})
	require.NoError(t, err)
	back := Rasterize(g, 12, 12, m.Frame, 0.02)
	assert.Equal(t, m.Data, back.Data)
}
