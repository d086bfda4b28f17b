// Package app wires the annotation document, the viewer host, the tool
// manager and the tools into one editing session.
package app

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"slide-annotator/internal/annotation"
	"slide-annotator/internal/config"
	"slide-annotator/internal/draw"
	"slide-annotator/internal/project"
	"slide-annotator/internal/scene"
	"slide-annotator/internal/tool"
	"slide-annotator/internal/transform"
	"slide-annotator/internal/viewer"
	"slide-annotator/internal/wand"
	"slide-annotator/pkg/geometry"
)

// Tool names registered by NewState.
const (
	ToolNavigate  = "navigate"
	ToolWand      = "wand"
	ToolTransform = "transform"
	ToolPoint     = "point"
	ToolRectangle = "rectangle"
)

// State holds one editing session: the project, the slide, the annotation
// document and the tools working on it.
type State struct {
	mu sync.RWMutex

	// Project
	ProjectPath  string
	DocumentPath string
	Project      *project.File
	Modified     bool

	Config config.Config
	Host   viewer.Host
	Doc    *annotation.Document

	// Tools
	Loop      *tool.Loop
	Tools     *tool.Manager
	Wand      *wand.Tool
	Transform *transform.Tool

	// Event listeners
	listeners map[EventType][]EventListener
}

// EventType identifies different application events.
type EventType int

const (
	EventProjectLoaded EventType = iota
	EventProjectSaved
	EventDocumentLoaded
	EventDocumentSaved
	EventModified
	EventModeChanged
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// NewState creates a session over host with an empty document.
func NewState(cfg config.Config, host viewer.Host) *State {
	reg := annotation.NewRegistry()
	annotation.RegisterDefaults(reg)
	doc := annotation.NewDocument(reg)
	doc.SetDefaultStyle(cfg.DefaultStyle())

	loop := tool.NewLoop()
	s := &State{
		Config:    cfg,
		Host:      host,
		Doc:       doc,
		Loop:      loop,
		Tools:     tool.NewManager(loop),
		listeners: make(map[EventType][]EventListener),
	}

	s.Wand = wand.New(host, doc, scene.PolyclipKernel{}, cfg.WandOptions())
	s.Transform = transform.New(host, doc, cfg.TransformOptions())
	s.Tools.Register(tool.NewNavigate(s.pan))
	s.Tools.Register(s.Wand)
	s.Tools.Register(s.Transform)
	s.Tools.Register(draw.NewPoint(doc))
	s.Tools.Register(draw.NewRectangle(doc))
	s.Tools.SetDefault(ToolNavigate)
	s.Tools.Watch(doc)
	s.Tools.OnRefresh = func(mode string, enabled map[string]bool) {
		s.Emit(EventModeChanged, mode)
	}
	if err := s.Tools.Activate(ToolNavigate); err != nil {
		log.Printf("App: %v", err)
	}

	rescale := func(ev viewer.Event) { doc.Rescale(ev.Zoom) }
	host.On(viewer.EventOpen, rescale)
	host.On(viewer.EventViewportChange, rescale)
	modified := func(annotation.Event) { s.SetModified(true) }
	doc.On(annotation.EventItemReplaced, modified)
	doc.On(annotation.EventItemRemoved, modified)
	doc.On(annotation.EventFeatureCollectionAdded, modified)
	doc.Rescale(host.Zoom())
	return s
}

// pan moves hosts that support it.
func (s *State) pan(d geometry.Point2D) {
	if p, ok := s.Host.(interface{ Pan(geometry.Point2D) }); ok {
		p.Pan(d)
	}
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// SetModified marks the document as modified and emits an event.
func (s *State) SetModified(modified bool) {
	s.mu.Lock()
	changed := s.Modified != modified
	s.Modified = modified
	s.mu.Unlock()
	if changed {
		s.Emit(EventModified, modified)
	}
}

// Tick runs the work queued for the next frame.
func (s *State) Tick() int { return s.Loop.Tick() }

// Select activates a tool by name.
func (s *State) Select(name string) error {
	err := s.Tools.Activate(name)
	s.Loop.RunUntilIdle(8)
	return err
}

// PointerDown and the other input methods route through the manager and
// flush the loop so mode changes land before the next event.
func (s *State) PointerDown(ev tool.PointerEvent) { s.dispatch(func() { s.Tools.PointerDown(ev) }) }
func (s *State) PointerDrag(ev tool.PointerEvent) { s.dispatch(func() { s.Tools.PointerDrag(ev) }) }
func (s *State) PointerUp(ev tool.PointerEvent)   { s.dispatch(func() { s.Tools.PointerUp(ev) }) }
func (s *State) KeyDown(ev tool.KeyEvent)         { s.dispatch(func() { s.Tools.KeyDown(ev) }) }

func (s *State) dispatch(fn func()) {
	editing := s.Tools.Active() != nil && s.Tools.Active().Name() != ToolNavigate
	fn()
	if editing {
		s.SetModified(true)
	}
	s.Loop.RunUntilIdle(8)
}

// LoadDocument appends the collections in a GeoJSON file to the document.
// Features that cannot be built are returned as warnings.
func (s *State) LoadDocument(path string) ([]error, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	warnings, err := s.Doc.LoadGeoJSON(data)
	if err != nil {
		return warnings, fmt.Errorf("load %s: %w", path, err)
	}

	s.mu.Lock()
	s.DocumentPath = path
	s.mu.Unlock()
	s.SetModified(false)
	s.Loop.RunUntilIdle(8)
	s.Emit(EventDocumentLoaded, path)
	return warnings, nil
}

// SaveDocument writes the document as GeoJSON.
func (s *State) SaveDocument(path string) error {
	data, err := s.Doc.MarshalGeoJSON()
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write document: %w", err)
	}

	s.mu.Lock()
	s.DocumentPath = path
	s.mu.Unlock()
	s.SetModified(false)
	log.Printf("Document: saved %d features to %s", len(s.Doc.Features()), path)
	s.Emit(EventDocumentSaved, path)
	return nil
}

// Open loads a project: its config (if any), its slide and its document.
// A missing document is not an error; the session starts empty.
func Open(cfg config.Config, path string) (*State, []error, error) {
	proj, err := project.Load(path)
	if err != nil {
		return nil, nil, err
	}
	if cp := proj.GetConfigPath(path); cp != "" {
		if cfg, err = config.Load(cp); err != nil {
			return nil, nil, err
		}
	}

	host, err := viewer.Load(proj.GetImagePath(path))
	if err != nil {
		return nil, nil, err
	}
	host.SetView(proj.View.Zoom, geometry.Pt(proj.View.OriginX, proj.View.OriginY))

	s := NewState(cfg, host)
	s.Project = proj
	s.ProjectPath = path

	var warnings []error
	docPath := proj.GetDocumentPath(path)
	if _, statErr := os.Stat(docPath); statErr == nil {
		if warnings, err = s.LoadDocument(docPath); err != nil {
			return nil, warnings, err
		}
	} else if !errors.Is(statErr, os.ErrNotExist) {
		return nil, nil, fmt.Errorf("stat document: %w", statErr)
	}
	s.DocumentPath = docPath
	host.Open()

	log.Printf("App: opened project %s (%d features, %d warnings)", path, len(s.Doc.Features()), len(warnings))
	s.Emit(EventProjectLoaded, path)
	return s, warnings, nil
}

// SaveProject writes the project file and its document next to it.
func (s *State) SaveProject(path string) error {
	s.mu.RLock()
	proj := s.Project
	docPath := s.DocumentPath
	s.mu.RUnlock()

	if proj == nil {
		proj = project.New(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	}
	if sh, ok := s.Host.(*viewer.StaticHost); ok && sh.Path != "" {
		proj.SetImage(path, sh.Path)
	}
	r := s.Host.VisibleImageRect()
	proj.View = project.ViewState{Zoom: s.Host.Zoom(), OriginX: r.X, OriginY: r.Y}
	if docPath == "" {
		docPath = proj.GetDocumentPath(path)
	}
	proj.SetDocument(path, docPath)

	if err := s.SaveDocument(docPath); err != nil {
		return err
	}
	if err := proj.Save(path); err != nil {
		return fmt.Errorf("save project: %w", err)
	}

	s.mu.Lock()
	s.Project = proj
	s.ProjectPath = path
	s.mu.Unlock()
	s.Emit(EventProjectSaved, path)
	return nil
}
