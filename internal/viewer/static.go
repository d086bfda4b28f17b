package viewer

import (
	"fmt"
	"image"
	"image/color"
	stddraw "image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
	_ "golang.org/x/image/tiff"

	"slide-annotator/internal/mask"
	"slide-annotator/pkg/geometry"
)

// StaticHost is a Host over an in-memory image with a fixed-size screen.
type StaticHost struct {
	Path  string
	Image *image.RGBA

	screenW, screenH int
	zoom             float64
	origin           geometry.Point2D // image point at the screen's top-left

	listeners map[EventType][]Listener
}

// NewStaticHost creates a host showing img at zoom 1 from its top-left.
func NewStaticHost(img image.Image, screenW, screenH int) *StaticHost {
	return &StaticHost{
		Image:     toRGBA(img),
		screenW:   screenW,
		screenH:   screenH,
		zoom:      1,
		listeners: make(map[EventType][]Listener),
	}
}

// Load decodes an image file (TIFF, PNG or JPEG) into a host whose screen
// fits the whole image at zoom 1.
func Load(path string) (*StaticHost, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	b := img.Bounds()
	h := NewStaticHost(img, b.Dx(), b.Dy())
	h.Path = path
	return h, nil
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	stddraw.Draw(rgba, rgba.Bounds(), img, b.Min, stddraw.Src)
	return rgba
}

// On registers a listener.
func (h *StaticHost) On(t EventType, l Listener) {
	h.listeners[t] = append(h.listeners[t], l)
}

func (h *StaticHost) emit(t EventType) {
	ev := Event{Type: t, Zoom: h.zoom}
	for _, l := range h.listeners[t] {
		l(ev)
	}
}

// Open announces the image to listeners.
func (h *StaticHost) Open() { h.emit(EventOpen) }

// Zoom returns screen pixels per image pixel.
func (h *StaticHost) Zoom() float64 { return h.zoom }

// Viewport returns the screen rectangle.
func (h *StaticHost) Viewport() image.Rectangle {
	return image.Rect(0, 0, h.screenW, h.screenH)
}

// VisibleImageRect returns the screen's footprint in image coordinates.
func (h *StaticHost) VisibleImageRect() geometry.Rect {
	return geometry.NewRect(h.origin.X, h.origin.Y, float64(h.screenW)/h.zoom, float64(h.screenH)/h.zoom)
}

// SetView zooms and pans so that img point origin sits at the screen's
// top-left.
func (h *StaticHost) SetView(zoom float64, origin geometry.Point2D) {
	if zoom <= 0 {
		zoom = 1
	}
	h.zoom = zoom
	h.origin = origin
	h.emit(EventViewportChange)
}

// ZoomAbout changes the zoom keeping the image point under screen point s
// fixed.
func (h *StaticHost) ZoomAbout(zoom float64, s geometry.Point2D) {
	anchor := h.ViewportToImage(s)
	if zoom <= 0 {
		zoom = 1
	}
	h.SetView(zoom, anchor.Sub(s.Scale(1/zoom)))
}

// Pan moves the view by a screen-pixel drag.
func (h *StaticHost) Pan(screenDelta geometry.Point2D) {
	h.SetView(h.zoom, h.origin.Sub(screenDelta.Scale(1/h.zoom)))
}

// Resize changes the screen size.
func (h *StaticHost) Resize(w, hgt int) {
	h.screenW, h.screenH = w, hgt
	h.emit(EventResize)
}

// ImageToViewport maps an image point to screen pixels.
func (h *StaticHost) ImageToViewport(p geometry.Point2D) geometry.Point2D {
	return p.Sub(h.origin).Scale(h.zoom)
}

// ViewportToImage maps a screen point to image coordinates.
func (h *StaticHost) ViewportToImage(p geometry.Point2D) geometry.Point2D {
	return h.origin.Add(p.Scale(1 / h.zoom))
}

// Snapshot renders the screen pixels inside r. Areas outside the image are
// transparent black.
func (h *StaticHost) Snapshot(r image.Rectangle) (*mask.Buffer, error) {
	r = r.Intersect(h.Viewport())
	if r.Empty() {
		return nil, ErrEmptySnapshot
	}

	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	topLeft := h.ViewportToImage(geometry.Pt(float64(r.Min.X), float64(r.Min.Y)))
	// Source-to-destination: d = zoom * (s - topLeft).
	s2d := f64.Aff3{
		h.zoom, 0, -h.zoom * topLeft.X,
		0, h.zoom, -h.zoom * topLeft.Y,
	}
	var interp draw.Transformer = draw.ApproxBiLinear
	if h.zoom >= 1 {
		interp = draw.NearestNeighbor
	}
	interp.Transform(dst, s2d, h.Image, h.Image.Bounds(), draw.Src, nil)

	buf := mask.BufferFromImage(dst, mask.Frame{Origin: topLeft, Scale: h.zoom})
	return buf, nil
}

// PixelAt returns the image color at the given image pixel.
func (h *StaticHost) PixelAt(x, y int) color.Color {
	if !image.Pt(x, y).In(h.Image.Bounds()) {
		return color.Black
	}
	return h.Image.At(x, y)
}

// SupportedFormats returns the list of supported image formats.
func SupportedFormats() []string {
	return []string{".tiff", ".tif", ".png", ".jpg", ".jpeg"}
}

// IsSupportedFormat checks if the given path has a supported image format.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}
