package annotation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"

	"slide-annotator/internal/scene"
)

// Document is the ordered set of feature collections of one image.
type Document struct {
	observers

	registry     *Registry
	root         *scene.Group
	collections  []*FeatureCollection
	defaultStyle Style
	zoom         float64
}

// NewDocument creates an empty document building items from reg.
func NewDocument(reg *Registry) *Document {
	return &Document{
		registry:     reg,
		root:         scene.NewGroup(),
		defaultStyle: DefaultStyle(),
		zoom:         1,
	}
}

// Registry returns the constructor registry.
func (d *Document) Registry() *Registry { return d.registry }

// Root returns the scene group holding every collection layer.
func (d *Document) Root() *scene.Group { return d.root }

// DefaultStyle returns the project-wide default style.
func (d *Document) DefaultStyle() Style { return d.defaultStyle.Clone() }

// SetDefaultStyle changes the style new collections start with.
func (d *Document) SetDefaultStyle(s Style) { d.defaultStyle = s.Clone() }

// Collections returns the collections in order.
func (d *Document) Collections() []*FeatureCollection {
	return append([]*FeatureCollection(nil), d.collections...)
}

// Features returns every feature in document order.
func (d *Document) Features() []*Feature {
	var out []*Feature
	for _, fc := range d.collections {
		out = append(out, fc.features...)
	}
	return out
}

// SelectedFeatures returns the selected features in document order.
func (d *Document) SelectedFeatures() []*Feature {
	var out []*Feature
	for _, f := range d.Features() {
		if f.selected {
			out = append(out, f)
		}
	}
	return out
}

// DeselectAll clears every selection.
func (d *Document) DeselectAll() {
	for _, f := range d.SelectedFeatures() {
		f.Deselect()
	}
}

// AddCollection appends a new collection with the document's default style.
func (d *Document) AddCollection(label string) *FeatureCollection {
	fc := newCollection(label, d.defaultStyle)
	d.attach(fc)
	return fc
}

func (d *Document) attach(fc *FeatureCollection) {
	fc.doc = d
	d.collections = append(d.collections, fc)
	d.root.AddChild(fc.layer)
	d.emit(Event{Type: EventFeatureCollectionAdded, Collection: fc})
}

func (d *Document) emit(ev Event) {
	if ev.Collection != nil {
		ev.Collection.observers.emit(ev)
	}
	d.observers.emit(ev)
}

// RemoveCollection detaches a collection and all of its features' nodes.
func (d *Document) RemoveCollection(fc *FeatureCollection) {
	idx := -1
	for i, c := range d.collections {
		if c == fc {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	for _, f := range fc.Features() {
		fc.RemoveFeature(f)
	}
	d.collections = append(d.collections[:idx], d.collections[idx+1:]...)
	fc.layer.Remove()
	fc.doc = nil
}

// Zoom returns the zoom the document was last rescaled for.
func (d *Document) Zoom() float64 { return d.zoom }

// Rescale updates screen-constant sizes for a new viewer zoom.
func (d *Document) Rescale(zoom float64) {
	if zoom <= 0 {
		return
	}
	d.zoom = zoom
	for _, f := range d.Features() {
		f.rescale(zoom)
	}
}

// LoadGeoJSON appends the collections in data, which is a JSON array of
// FeatureCollection objects or a single one. Features that cannot be built
// are skipped and reported as warnings; err is set only when data itself is
// malformed.
func (d *Document) LoadGeoJSON(data []byte) (warnings []error, err error) {
	var colls []CollectionJSON
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var one CollectionJSON
		if err := json.Unmarshal(trimmed, &one); err != nil {
			return nil, fmt.Errorf("failed to parse document: %w", err)
		}
		colls = []CollectionJSON{one}
	} else if err := json.Unmarshal(trimmed, &colls); err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}

	for ci, cj := range colls {
		style, err := cj.Properties.DefaultStyle.merge(d.defaultStyle)
		if err != nil {
			warnings = append(warnings, fmt.Errorf("collection %d: %w", ci, err))
			style = d.defaultStyle
		}
		fc := newCollection(cj.Properties.Label, style)
		if cj.Properties.Visible != nil {
			fc.layer.Visible = *cj.Properties.Visible
		}
		if cj.Properties.Userdata != nil {
			fc.Userdata = cj.Properties.Userdata
		}
		d.attach(fc)

		for fi, raw := range cj.Features {
			if _, err := fc.addGeoJSON(raw); err != nil {
				log.Printf("Document: skipping feature %d of collection %d: %v", fi, ci, err)
				warnings = append(warnings, fmt.Errorf("collection %d feature %d: %w", ci, fi, err))
			}
		}
	}
	return warnings, nil
}

// CreateFeatureFromGeoJSON builds one feature into fc. Unlike a bulk load,
// any failure is returned and nothing is added.
func (d *Document) CreateFeatureFromGeoJSON(fc *FeatureCollection, data []byte) (*Feature, error) {
	if fc.doc != d {
		return nil, fmt.Errorf("collection %q is not in this document", fc.label)
	}
	return fc.addGeoJSON(data)
}

func (fc *FeatureCollection) addGeoJSON(data []byte) (*Feature, error) {
	var fj FeatureJSON
	if err := json.Unmarshal(data, &fj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
	}
	if fj.Type != "Feature" {
		return nil, fmt.Errorf("%w: object type %q", ErrInvalidGeometry, fj.Type)
	}
	item, err := fc.doc.registry.FromGeometry(fj.Geometry)
	if err != nil {
		return nil, err
	}
	style, err := fj.Properties.styleProps.merge(fc.defaultStyle)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
	}

	f := newFeature(item, style)
	if fj.Properties.Label != nil {
		f.label = *fj.Properties.Label
		f.labelSource = LabelUser
	}
	if fj.Properties.Userdata != nil {
		f.Userdata = fj.Properties.Userdata
	}
	fc.attach(f)
	if fj.Properties.Selected {
		f.Select()
	}
	return f, nil
}

// GeoJSON returns the wire form of every collection.
func (d *Document) GeoJSON() ([]CollectionJSON, error) {
	out := make([]CollectionJSON, 0, len(d.collections))
	for _, fc := range d.collections {
		cj, err := fc.GeoJSON()
		if err != nil {
			return nil, err
		}
		out = append(out, cj)
	}
	return out, nil
}

// MarshalGeoJSON encodes the document as an indented JSON array.
func (d *Document) MarshalGeoJSON() ([]byte, error) {
	colls, err := d.GeoJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	return json.MarshalIndent(colls, "", "  ")
}
