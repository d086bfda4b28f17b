// Package mask implements binary pixel selections over a viewport snapshot:
// region growing from a seed, bit-level combination, dilation, contour
// tracing into vector rings and rasterizing vector rings back into a mask.
package mask

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"slide-annotator/pkg/geometry"
)

var (
	// ErrSeedOutOfBounds is returned when a seed lies outside the buffer.
	ErrSeedOutOfBounds = errors.New("seed outside buffer")
	// ErrSizeMismatch is returned when combining masks of different sizes.
	ErrSizeMismatch = errors.New("mask size mismatch")
	// ErrBadBuffer is returned for buffers whose pixel slice does not match
	// their declared shape.
	ErrBadBuffer = errors.New("invalid pixel buffer")
)

// Frame maps buffer pixel coordinates to item-local coordinates:
// local = Origin + pixel/Scale.
type Frame struct {
	Origin geometry.Point2D
	Scale  float64 // buffer pixels per item-local unit
}

// ToLocal converts a pixel-space position to item-local coordinates.
func (f Frame) ToLocal(x, y float64) geometry.Point2D {
	s := f.scale()
	return geometry.Point2D{X: f.Origin.X + x/s, Y: f.Origin.Y + y/s}
}

// ToPixel converts an item-local point to pixel space.
func (f Frame) ToPixel(p geometry.Point2D) (float64, float64) {
	s := f.scale()
	return (p.X - f.Origin.X) * s, (p.Y - f.Origin.Y) * s
}

func (f Frame) scale() float64 {
	if f.Scale <= 0 {
		return 1
	}
	return f.Scale
}

// Buffer is a packed pixel snapshot, rows top to bottom.
type Buffer struct {
	Pix           []byte
	Width         int
	Height        int
	BytesPerPixel int
	Frame         Frame
}

// BufferFromImage packs an RGBA image into a 4-byte-per-pixel buffer.
func BufferFromImage(img *image.RGBA, f Frame) *Buffer {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	pix := make([]byte, 0, w*h*4)
	for y := 0; y < h; y++ {
		off := (y+b.Min.Y-img.Rect.Min.Y)*img.Stride + (b.Min.X-img.Rect.Min.X)*4
		pix = append(pix, img.Pix[off:off+w*4]...)
	}
	return &Buffer{Pix: pix, Width: w, Height: h, BytesPerPixel: 4, Frame: f}
}

func (b *Buffer) validate() error {
	if b == nil || b.Width <= 0 || b.Height <= 0 || b.BytesPerPixel <= 0 {
		return ErrBadBuffer
	}
	if len(b.Pix) < b.Width*b.Height*b.BytesPerPixel {
		return fmt.Errorf("%w: have %d bytes, want %d", ErrBadBuffer, len(b.Pix), b.Width*b.Height*b.BytesPerPixel)
	}
	return nil
}

func (b *Buffer) pixel(x, y int) []byte {
	off := (y*b.Width + x) * b.BytesPerPixel
	return b.Pix[off : off+b.BytesPerPixel]
}

func (b *Buffer) colorAt(x, y int) color.RGBA {
	p := b.pixel(x, y)
	switch len(p) {
	case 1:
		return color.RGBA{R: p[0], G: p[0], B: p[0], A: 255}
	case 2:
		return color.RGBA{R: p[0], G: p[0], B: p[0], A: p[1]}
	case 3:
		return color.RGBA{R: p[0], G: p[1], B: p[2], A: 255}
	default:
		return color.RGBA{R: p[0], G: p[1], B: p[2], A: p[3]}
	}
}

// Bounds is an inclusive pixel rectangle. An empty rectangle has MaxX < MinX.
type Bounds struct {
	MinX, MinY, MaxX, MaxY int
}

// EmptyBounds is the bounds of a mask with no selected pixels.
var EmptyBounds = Bounds{MinX: 0, MinY: 0, MaxX: -1, MaxY: -1}

// Empty reports whether the rectangle contains no pixels.
func (b Bounds) Empty() bool {
	return b.MaxX < b.MinX || b.MaxY < b.MinY
}

// Union returns the smallest rectangle containing both.
func (b Bounds) Union(o Bounds) Bounds {
	if b.Empty() {
		return o
	}
	if o.Empty() {
		return b
	}
	return Bounds{
		MinX: min(b.MinX, o.MinX),
		MinY: min(b.MinY, o.MinY),
		MaxX: max(b.MaxX, o.MaxX),
		MaxY: max(b.MaxY, o.MaxY),
	}
}

// Rect converts to a half-open image rectangle.
func (b Bounds) Rect() image.Rectangle {
	if b.Empty() {
		return image.Rectangle{}
	}
	return image.Rect(b.MinX, b.MinY, b.MaxX+1, b.MaxY+1)
}

// Mask is a binary raster; Data holds one byte per pixel, 1 meaning selected.
type Mask struct {
	Width     int
	Height    int
	Data      []byte
	Bounds    Bounds
	SeedColor *color.RGBA
	Frame     Frame
}

// New creates an empty mask.
func New(width, height int, f Frame) *Mask {
	return &Mask{
		Width:  width,
		Height: height,
		Data:   make([]byte, width*height),
		Bounds: EmptyBounds,
		Frame:  f,
	}
}

// At reports whether pixel (x, y) is selected. Out-of-range pixels are not.
func (m *Mask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.Data[y*m.Width+x] != 0
}

// Set selects pixel (x, y) and grows the bounds.
func (m *Mask) Set(x, y int) {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return
	}
	m.Data[y*m.Width+x] = 1
	m.Bounds = m.Bounds.Union(Bounds{MinX: x, MinY: y, MaxX: x, MaxY: y})
}

// Count returns the number of selected pixels.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.Data {
		if v != 0 {
			n++
		}
	}
	return n
}

// IsEmpty reports whether no pixel is selected.
func (m *Mask) IsEmpty() bool {
	return m == nil || m.Bounds.Empty()
}

// Clone returns a deep copy.
func (m *Mask) Clone() *Mask {
	out := *m
	out.Data = append([]byte(nil), m.Data...)
	if m.SeedColor != nil {
		c := *m.SeedColor
		out.SeedColor = &c
	}
	return &out
}

// Tighten recomputes the bounding rectangle by scanning within the current
// bounds.
func (m *Mask) Tighten() {
	if m.Bounds.Empty() {
		return
	}
	old := m.Bounds
	m.Bounds = EmptyBounds
	for y := old.MinY; y <= old.MaxY; y++ {
		row := m.Data[y*m.Width : (y+1)*m.Width]
		for x := old.MinX; x <= old.MaxX; x++ {
			if row[x] != 0 {
				m.Bounds = m.Bounds.Union(Bounds{MinX: x, MinY: y, MaxX: x, MaxY: y})
			}
		}
	}
}

// Union returns a OR b.
func Union(a, b *Mask) (*Mask, error) {
	if err := sameSize(a, b); err != nil {
		return nil, err
	}
	out := a.Clone()
	for i, v := range b.Data {
		if v != 0 {
			out.Data[i] = 1
		}
	}
	out.Bounds = a.Bounds.Union(b.Bounds)
	if b.SeedColor != nil {
		c := *b.SeedColor
		out.SeedColor = &c
	}
	return out, nil
}

// Subtract returns a AND NOT b.
func Subtract(a, b *Mask) (*Mask, error) {
	if err := sameSize(a, b); err != nil {
		return nil, err
	}
	out := a.Clone()
	for i, v := range b.Data {
		if v != 0 {
			out.Data[i] = 0
		}
	}
	out.Tighten()
	return out, nil
}

func sameSize(a, b *Mask) error {
	if a.Width != b.Width || a.Height != b.Height {
		return fmt.Errorf("%w: %dx%d vs %dx%d", ErrSizeMismatch, a.Width, a.Height, b.Width, b.Height)
	}
	return nil
}

// Border returns the selected pixels that have at least one unselected
// 4-neighbour, or touch the mask edge.
func Border(m *Mask) *Mask {
	out := New(m.Width, m.Height, m.Frame)
	if m.Bounds.Empty() {
		return out
	}
	for y := m.Bounds.MinY; y <= m.Bounds.MaxY; y++ {
		for x := m.Bounds.MinX; x <= m.Bounds.MaxX; x++ {
			if !m.At(x, y) {
				continue
			}
			if !m.At(x-1, y) || !m.At(x+1, y) || !m.At(x, y-1) || !m.At(x, y+1) {
				out.Set(x, y)
			}
		}
	}
	return out
}

// Image renders the mask as an RGBA overlay with selected pixels painted c.
func (m *Mask) Image(c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, m.Width, m.Height))
	for i, v := range m.Data {
		if v != 0 {
			o := i * 4
			img.Pix[o], img.Pix[o+1], img.Pix[o+2], img.Pix[o+3] = c.R, c.G, c.B, c.A
		}
	}
	return img
}
