package annotation

import (
	"encoding/json"

	"github.com/google/uuid"

	"slide-annotator/internal/scene"
)

// FeatureCollection is an ordered group of features that share a default
// style and one scene layer.
type FeatureCollection struct {
	observers

	ID       string
	Userdata map[string]any

	label        string
	layer        *scene.Group
	features     []*Feature
	defaultStyle Style
	doc          *Document
}

func newCollection(label string, style Style) *FeatureCollection {
	return &FeatureCollection{
		ID:           uuid.NewString(),
		Userdata:     map[string]any{},
		label:        label,
		layer:        scene.NewLayer(label),
		defaultStyle: style.Clone(),
	}
}

// Label returns the display label.
func (fc *FeatureCollection) Label() string { return fc.label }

// SetLabel renames the collection and its layer.
func (fc *FeatureCollection) SetLabel(s string) {
	fc.label = s
	fc.layer.Name = s
}

// Layer returns the scene layer holding the features' nodes.
func (fc *FeatureCollection) Layer() *scene.Group { return fc.layer }

// Features returns the features in order.
func (fc *FeatureCollection) Features() []*Feature {
	return append([]*Feature(nil), fc.features...)
}

// DefaultStyle returns the style new features start with.
func (fc *FeatureCollection) DefaultStyle() Style { return fc.defaultStyle.Clone() }

// SetDefaultStyle changes the style for features created from now on.
func (fc *FeatureCollection) SetDefaultStyle(s Style) { fc.defaultStyle = s.Clone() }

// Visible reports the layer visibility.
func (fc *FeatureCollection) Visible() bool { return fc.layer.Visible }

// SetVisible shows or hides every feature in the collection.
func (fc *FeatureCollection) SetVisible(v bool) { fc.layer.Visible = v }

// CreateFeature adds a placeholder feature with the default style.
func (fc *FeatureCollection) CreateFeature() *Feature {
	return fc.AddItem(newPlaceholder(), fc.defaultStyle)
}

// AddItem wraps item in a new feature appended to the collection.
func (fc *FeatureCollection) AddItem(item Item, style Style) *Feature {
	f := newFeature(item, style)
	fc.attach(f)
	return f
}

func (fc *FeatureCollection) attach(f *Feature) {
	f.collection = fc
	fc.features = append(fc.features, f)
	fc.layer.AddChild(f.Node())
	f.rescale(f.zoom())
}

// RemoveFeature detaches f and its node.
func (fc *FeatureCollection) RemoveFeature(f *Feature) {
	idx := -1
	for i, g := range fc.features {
		if g == f {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	fc.features = append(fc.features[:idx], fc.features[idx+1:]...)
	f.Node().Remove()
	f.selected = false
	f.Node().SetSelected(false)
	f.emit(Event{Type: EventItemRemoved, Feature: f, Collection: fc})
	f.collection = nil
}

// GeoJSON returns the wire form of the collection.
func (fc *FeatureCollection) GeoJSON() (CollectionJSON, error) {
	visible := fc.Visible()
	out := CollectionJSON{
		Type:     "FeatureCollection",
		Features: make([]json.RawMessage, 0, len(fc.features)),
		Properties: collectionProps{
			Label:        fc.label,
			DefaultStyle: propsFromStyle(fc.defaultStyle),
			Visible:      &visible,
			Userdata:     fc.Userdata,
		},
	}
	for _, f := range fc.features {
		b, err := f.MarshalGeoJSON()
		if err != nil {
			return CollectionJSON{}, err
		}
		out.Features = append(out.Features, b)
	}
	return out, nil
}
