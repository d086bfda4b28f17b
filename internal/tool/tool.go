// Package tool hosts the editing tools: a single-active-tool state machine
// that owns the input capture slot and derives the editing mode from the
// current selection.
package tool

import (
	"slide-annotator/pkg/geometry"
)

// State is a tool's lifecycle state.
type State int

const (
	Inactive State = iota
	Activating
	Active
	Deactivating
)

func (s State) String() string {
	switch s {
	case Inactive:
		return "inactive"
	case Activating:
		return "activating"
	case Active:
		return "active"
	case Deactivating:
		return "deactivating"
	default:
		return "unknown"
	}
}

// Modifiers is a bit set of held modifier keys.
type Modifiers uint8

const (
	ModShift Modifiers = 1 << iota
	ModAlt
	ModCtrl
)

// Has reports whether all bits in m are held.
func (mods Modifiers) Has(m Modifiers) bool { return mods&m == m }

// PointerEvent is a pointer sample. Point is in image coordinates, Screen
// in viewport pixels. Delta is the screen movement since the previous
// sample of the same drag.
type PointerEvent struct {
	Point     geometry.Point2D
	Screen    geometry.Point2D
	Delta     geometry.Point2D
	Modifiers Modifiers
}

// KeyEvent is a key press.
type KeyEvent struct {
	Key       string
	Modifiers Modifiers
}

// Key names used by the built-in tools.
const (
	KeyEscape = "Escape"
	KeyEnter  = "Enter"
	KeyDelete = "Delete"
)

// Tool is an editing affordance hosted by a Manager.
type Tool interface {
	Name() string
	// Enabled reports whether the tool may run in a mode.
	Enabled(mode string) bool
	OnActivate()
	// OnDeactivate is called when the tool loses input capture. With finish
	// set, in-flight edits are committed and all temporary scene nodes are
	// removed; otherwise state is kept so the tool can resume.
	OnDeactivate(finish bool)
	PointerDown(PointerEvent)
	PointerDrag(PointerEvent)
	PointerUp(PointerEvent)
	KeyDown(KeyEvent)
}

// Base provides no-op input handlers for embedding.
type Base struct{}

func (Base) OnActivate()              {}
func (Base) OnDeactivate(bool)        {}
func (Base) PointerDown(PointerEvent) {}
func (Base) PointerDrag(PointerEvent) {}
func (Base) PointerUp(PointerEvent)   {}
func (Base) KeyDown(KeyEvent)         {}

// Capture is the input-capture object a tool descriptor owns. Input reaches
// a tool only while its capture is the manager's holder.
type Capture struct {
	owner string
}

// Owner returns the name of the owning tool.
func (c *Capture) Owner() string { return c.owner }

// descriptor tracks one registered tool.
type descriptor struct {
	tool    Tool
	state   State
	capture *Capture
}
