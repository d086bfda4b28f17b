package annotation

// EventType names a lifecycle notification consumed by the UI layer and the
// tool manager.
type EventType string

const (
	EventFeatureCollectionAdded EventType = "feature-collection-added"
	EventItemSelected           EventType = "item-selected"
	EventItemDeselected         EventType = "item-deselected"
	EventItemReplaced           EventType = "item-replaced"
	EventItemRemoved            EventType = "item-removed"
)

// Event carries the subject of a notification. Previous is set for
// EventItemReplaced.
type Event struct {
	Type       EventType
	Feature    *Feature
	Collection *FeatureCollection
	Previous   Item
}

// Listener receives events.
type Listener func(Event)

// observers is the listener list owned by each stateful entity.
type observers struct {
	listeners map[EventType][]Listener
}

// On registers a listener for an event type.
func (o *observers) On(t EventType, l Listener) {
	if o.listeners == nil {
		o.listeners = make(map[EventType][]Listener)
	}
	o.listeners[t] = append(o.listeners[t], l)
}

func (o *observers) emit(ev Event) {
	for _, l := range o.listeners[ev.Type] {
		l(ev)
	}
}
