package tool

import (
	"errors"
	"fmt"
	"log"

	"slide-annotator/internal/annotation"
)

// Modes derived from the selection.
const (
	ModeSelect         = "select"
	ModeNew            = "new"
	ModeMultiselection = "multiselection"
)

var (
	// ErrUnknownTool is returned when activating an unregistered tool.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrToolDisabled is returned when activating a tool the mode forbids.
	ErrToolDisabled = errors.New("tool disabled in current mode")
	// ErrDeferred is returned when an activation requested during another
	// transition was queued for the next tick instead of run.
	ErrDeferred = errors.New("activation deferred")
)

// DeriveMode maps a selection to its editing mode.
func DeriveMode(selected []*annotation.Feature) string {
	switch {
	case len(selected) == 0:
		return ModeSelect
	case len(selected) > 1:
		return ModeMultiselection
	case selected[0].IsPlaceholder():
		return ModeNew
	default:
		return annotation.ModeTag(selected[0].Item())
	}
}

// Manager owns the tools and the single input-capture slot.
type Manager struct {
	loop   *Loop
	doc    *annotation.Document
	tools  []*descriptor
	byName map[string]*descriptor

	active       *descriptor
	holder       *Capture
	defaultTool  string
	inTransition bool

	mode          string
	updatePending bool
	recomputes    int
	refreshes     int

	// OnRefresh is called after each mode recomputation with the mode and
	// the enablement of every tool.
	OnRefresh func(mode string, enabled map[string]bool)
}

// NewManager creates a manager scheduling mode updates on loop.
func NewManager(loop *Loop) *Manager {
	return &Manager{loop: loop, byName: make(map[string]*descriptor), mode: ModeSelect}
}

// Register adds a tool. The first registered tool is the default until
// SetDefault is called.
func (m *Manager) Register(t Tool) {
	d := &descriptor{tool: t, capture: &Capture{owner: t.Name()}}
	m.tools = append(m.tools, d)
	m.byName[t.Name()] = d
	if m.defaultTool == "" {
		m.defaultTool = t.Name()
	}
}

// SetDefault names the tool activated after a forced deactivation.
func (m *Manager) SetDefault(name string) { m.defaultTool = name }

// Tool returns a registered tool by name.
func (m *Manager) Tool(name string) (Tool, bool) {
	d, ok := m.byName[name]
	if !ok {
		return nil, false
	}
	return d.tool, true
}

// Active returns the active tool, or nil.
func (m *Manager) Active() Tool {
	if m.active == nil {
		return nil
	}
	return m.active.tool
}

// State returns a tool's lifecycle state.
func (m *Manager) State(name string) State {
	if d, ok := m.byName[name]; ok {
		return d.state
	}
	return Inactive
}

// Holder returns the capture currently receiving input, or nil.
func (m *Manager) Holder() *Capture { return m.holder }

// Mode returns the last computed mode.
func (m *Manager) Mode() string { return m.mode }

// Stats returns how many mode recomputations and toolbar refreshes ran.
func (m *Manager) Stats() (recomputes, refreshes int) { return m.recomputes, m.refreshes }

// Activate gives a tool input capture, suspending the active one first.
// Activating a tool that is active or activating is a no-op. An activation
// requested from inside another transition is queued for the next tick and
// returns ErrDeferred: capture has not moved when it returns.
func (m *Manager) Activate(name string) error {
	d, ok := m.byName[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	if d.state == Active || d.state == Activating {
		return nil
	}
	if m.inTransition {
		m.loop.Post(func() {
			if err := m.Activate(name); err != nil {
				log.Printf("Tools: deferred activation of %s failed: %v", name, err)
			}
		})
		return fmt.Errorf("%w: %s", ErrDeferred, name)
	}
	if !d.tool.Enabled(m.mode) {
		return fmt.Errorf("%w: %s in %q", ErrToolDisabled, name, m.mode)
	}

	m.inTransition = true
	defer func() { m.inTransition = false }()

	d.state = Activating
	if prev := m.active; prev != nil && prev != d {
		m.release(prev, false)
	}
	m.active = d
	m.holder = d.capture
	d.tool.OnActivate()
	d.state = Active
	return nil
}

// release deactivates d and frees the capture slot.
func (m *Manager) release(d *descriptor, finish bool) {
	d.state = Deactivating
	d.tool.OnDeactivate(finish)
	d.state = Inactive
	if m.holder == d.capture {
		m.holder = nil
	}
	if m.active == d {
		m.active = nil
	}
}

// Deactivate ends the active tool and activates the default one. With
// finish set the tool commits its in-flight edit. It is ignored while
// another transition runs.
func (m *Manager) Deactivate(finish bool) {
	d := m.active
	if d == nil {
		return
	}
	if m.inTransition {
		log.Printf("Tools: deactivate of %s ignored during transition", d.tool.Name())
		return
	}
	m.inTransition = true
	m.release(d, finish)
	m.inTransition = false

	if d.tool.Name() != m.defaultTool {
		if err := m.Activate(m.defaultTool); err != nil {
			log.Printf("Tools: default tool: %v", err)
		}
	}
}

// Watch subscribes to selection changes in doc.
func (m *Manager) Watch(doc *annotation.Document) {
	m.doc = doc
	schedule := func(annotation.Event) { m.ScheduleModeUpdate() }
	doc.On(annotation.EventItemSelected, schedule)
	doc.On(annotation.EventItemDeselected, schedule)
	doc.On(annotation.EventItemReplaced, schedule)
	doc.On(annotation.EventItemRemoved, schedule)
}

// ScheduleModeUpdate requests a mode recomputation on the next tick.
// Requests made before that tick runs coalesce.
func (m *Manager) ScheduleModeUpdate() {
	if m.updatePending {
		return
	}
	m.updatePending = true
	m.loop.Post(m.recomputeMode)
}

func (m *Manager) recomputeMode() {
	m.updatePending = false
	m.recomputes++

	var selected []*annotation.Feature
	if m.doc != nil {
		selected = m.doc.SelectedFeatures()
	}
	mode := DeriveMode(selected)
	changed := mode != m.mode
	m.mode = mode

	if changed && m.active != nil && !m.active.tool.Enabled(mode) {
		log.Printf("Tools: %s not available in mode %q, finishing", m.active.tool.Name(), mode)
		m.Deactivate(true)
	}

	m.refreshes++
	if m.OnRefresh != nil {
		enabled := make(map[string]bool, len(m.tools))
		for _, d := range m.tools {
			enabled[d.tool.Name()] = d.tool.Enabled(mode)
		}
		m.OnRefresh(mode, enabled)
	}
}

// PointerDown routes input to the capture holder.
func (m *Manager) PointerDown(ev PointerEvent) {
	if t := m.captured(); t != nil {
		t.PointerDown(ev)
	}
}

// PointerDrag routes input to the capture holder.
func (m *Manager) PointerDrag(ev PointerEvent) {
	if t := m.captured(); t != nil {
		t.PointerDrag(ev)
	}
}

// PointerUp routes input to the capture holder.
func (m *Manager) PointerUp(ev PointerEvent) {
	if t := m.captured(); t != nil {
		t.PointerUp(ev)
	}
}

// KeyDown routes input to the capture holder.
func (m *Manager) KeyDown(ev KeyEvent) {
	if t := m.captured(); t != nil {
		t.KeyDown(ev)
	}
}

func (m *Manager) captured() Tool {
	if m.holder == nil || m.active == nil || m.active.capture != m.holder {
		return nil
	}
	return m.active.tool
}
