// Package viewer defines the image viewer host the editing core runs inside,
// and a static in-memory implementation used by the CLI and tests.
package viewer

import (
	"errors"
	"image"

	"slide-annotator/internal/mask"
	"slide-annotator/pkg/geometry"
)

// ErrEmptySnapshot is returned when a snapshot rectangle has no pixels on
// screen.
var ErrEmptySnapshot = errors.New("empty snapshot rectangle")

// EventType identifies a host lifecycle event.
type EventType int

const (
	EventOpen EventType = iota
	EventResize
	EventViewportChange
)

func (e EventType) String() string {
	switch e {
	case EventOpen:
		return "open"
	case EventResize:
		return "resize"
	case EventViewportChange:
		return "viewport-change"
	default:
		return "unknown"
	}
}

// Event is delivered to host listeners.
type Event struct {
	Type EventType
	Zoom float64
}

// Listener receives host events.
type Listener func(Event)

// Host is the viewer collaborator. Image coordinates are item-local
// coordinates; viewport coordinates are screen pixels.
type Host interface {
	// Zoom returns screen pixels per image pixel.
	Zoom() float64
	// Viewport returns the on-screen area in screen pixels.
	Viewport() image.Rectangle
	// VisibleImageRect returns the on-screen area in image coordinates.
	VisibleImageRect() geometry.Rect
	ImageToViewport(p geometry.Point2D) geometry.Point2D
	ViewportToImage(p geometry.Point2D) geometry.Point2D
	// Snapshot rasterizes the on-screen pixels inside r, a half-open rectangle
	// in screen pixels. The buffer's frame maps its pixels to image
	// coordinates.
	Snapshot(r image.Rectangle) (*mask.Buffer, error)
	On(EventType, Listener)
}
