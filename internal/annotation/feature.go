package annotation

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"slide-annotator/internal/scene"
)

// LabelSource records where a feature's label came from.
type LabelSource int

const (
	// LabelAuto labels display the item's mode tag and are not serialized.
	LabelAuto LabelSource = iota
	// LabelUser labels were set explicitly or loaded from a document.
	LabelUser
)

func (s LabelSource) String() string {
	if s == LabelUser {
		return "user"
	}
	return "auto"
}

// Feature is one annotated object. Its identity (ID, label, style,
// selection, listeners) survives replacement of its item.
type Feature struct {
	observers

	ID       string
	Userdata map[string]any

	item        Item
	style       Style
	label       string
	labelSource LabelSource
	selected    bool
	collection  *FeatureCollection
}

func newFeature(item Item, style Style) *Feature {
	f := &Feature{
		ID:       uuid.NewString(),
		Userdata: map[string]any{},
		item:     item,
		style:    style.Clone(),
	}
	item.SetStyle(f.style)
	return f
}

// Item returns the current geometry item.
func (f *Feature) Item() Item { return f.item }

// Node returns the scene node owned by the feature.
func (f *Feature) Node() scene.Node { return f.item.Node() }

// Collection returns the owning collection, or nil once removed.
func (f *Feature) Collection() *FeatureCollection { return f.collection }

// IsPlaceholder reports whether the feature has no geometry yet.
func (f *Feature) IsPlaceholder() bool {
	_, ok := f.item.(*Placeholder)
	return ok
}

// Label returns the display label: the user label if set, otherwise the
// item's mode tag.
func (f *Feature) Label() string {
	if f.labelSource == LabelUser {
		return f.label
	}
	if f.IsPlaceholder() {
		return ""
	}
	return ModeTag(f.item)
}

// LabelSource reports the label's provenance.
func (f *Feature) LabelSource() LabelSource { return f.labelSource }

// SetLabel sets a user label; an empty string reverts to the automatic one.
func (f *Feature) SetLabel(s string) {
	f.label = s
	if s == "" {
		f.labelSource = LabelAuto
	} else {
		f.labelSource = LabelUser
	}
}

// Style returns a copy of the feature's style.
func (f *Feature) Style() Style { return f.style.Clone() }

// SetStyle restyles the feature's item.
func (f *Feature) SetStyle(s Style) {
	f.style = s.Clone()
	f.item.SetStyle(f.style)
	f.rescale(f.zoom())
}

// Selected reports the selection flag.
func (f *Feature) Selected() bool { return f.selected }

// Select marks the feature selected and notifies listeners.
func (f *Feature) Select() {
	if f.selected {
		return
	}
	f.selected = true
	f.Node().SetSelected(true)
	f.emit(Event{Type: EventItemSelected, Feature: f, Collection: f.collection})
}

// Deselect clears the selection flag and notifies listeners.
func (f *Feature) Deselect() {
	if !f.selected {
		return
	}
	f.selected = false
	f.Node().SetSelected(false)
	f.emit(Event{Type: EventItemDeselected, Feature: f, Collection: f.collection})
}

// Initialize gives a placeholder its real item, built from the registry
// with the placeholder's style.
func (f *Feature) Initialize(typ, subtype string) error {
	if !f.IsPlaceholder() {
		return fmt.Errorf("%w: %s", ErrNotPlaceholder, ModeTag(f.item))
	}
	reg := f.registry()
	if reg == nil {
		return fmt.Errorf("%w: feature has no registry", ErrUnsupportedGeometry)
	}
	item, err := reg.New(typ, subtype)
	if err != nil {
		return fmt.Errorf("initialize feature: %w", err)
	}
	f.ReplaceItem(item)
	return nil
}

// ReplaceItem swaps the feature's item for next, moving its node into the
// old node's place in the scene graph and carrying style, rescale
// descriptor and selection across. Listeners are notified once.
//
// next must have a geometry type; replacing with an untyped item panics.
func (f *Feature) ReplaceItem(next Item) {
	if next == nil || next.Type() == "" {
		panic("annotation: replacement item has no geometry type")
	}
	prev := f.item
	scene.CopyAttributes(next.Node(), prev.Node())
	scene.ReplaceWith(prev.Node(), next.Node())
	f.item = next
	next.SetStyle(f.style)
	next.Node().SetSelected(f.selected)
	f.rescale(f.zoom())
	f.emit(Event{Type: EventItemReplaced, Feature: f, Collection: f.collection, Previous: prev})
}

// Bake folds the item's matrix into its geometry. An item that can no longer
// hold the result is replaced by the one it demotes to.
func (f *Feature) Bake() {
	Bake(f.item)
	if d, ok := f.item.(Demoter); ok {
		if next := d.Demote(); next != nil {
			f.ReplaceItem(next)
		}
	}
}

// Remove detaches the feature from its collection.
func (f *Feature) Remove() {
	if f.collection != nil {
		f.collection.RemoveFeature(f)
	}
}

func (f *Feature) document() *Document {
	if f.collection == nil {
		return nil
	}
	return f.collection.doc
}

func (f *Feature) registry() *Registry {
	if d := f.document(); d != nil {
		return d.registry
	}
	return nil
}

func (f *Feature) zoom() float64 {
	if d := f.document(); d != nil {
		return d.zoom
	}
	return 1
}

// rescale sets the node's effective stroke width for zoom and resizes
// screen-constant parts.
func (f *Feature) rescale(zoom float64) {
	if zoom <= 0 {
		zoom = 1
	}
	n := f.Node()
	if w, ok := f.style.Rescale["strokeWidth"]; ok {
		n.SetEffectiveStrokeWidth(w / zoom)
	} else {
		n.SetEffectiveStrokeWidth(f.style.StrokeWidth)
	}
	if r, ok := f.item.(Rescaler); ok {
		r.Rescale(zoom)
	}
}

// emit notifies the feature's listeners, then the document's.
func (f *Feature) emit(ev Event) {
	f.observers.emit(ev)
	if d := f.document(); d != nil {
		d.observers.emit(ev)
	}
}

// GeoJSON returns the wire form of the feature.
func (f *Feature) GeoJSON() FeatureJSON {
	ud := f.Userdata
	if ud == nil {
		ud = map[string]any{}
	}
	props := featureProps{
		styleProps: propsFromStyle(f.style),
		Userdata:   ud,
		Selected:   f.selected,
	}
	if f.labelSource == LabelUser {
		l := f.label
		props.Label = &l
	}
	return FeatureJSON{Type: "Feature", Geometry: f.item.Geometry(), Properties: props}
}

// MarshalGeoJSON encodes the feature.
func (f *Feature) MarshalGeoJSON() ([]byte, error) {
	return json.Marshal(f.GeoJSON())
}
