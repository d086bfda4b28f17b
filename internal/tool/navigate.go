package tool

import (
	"slide-annotator/pkg/geometry"
)

// Navigate is the default tool: dragging pans the viewer.
type Navigate struct {
	Base
	pan func(screenDelta geometry.Point2D)
}

// NewNavigate creates the navigation tool. pan may be nil.
func NewNavigate(pan func(screenDelta geometry.Point2D)) *Navigate {
	return &Navigate{pan: pan}
}

func (n *Navigate) Name() string        { return "navigate" }
func (n *Navigate) Enabled(string) bool { return true }

// PointerDrag pans by the drag delta.
func (n *Navigate) PointerDrag(ev PointerEvent) {
	if n.pan != nil {
		n.pan(ev.Delta)
	}
}
