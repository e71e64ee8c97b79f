package modeling

import (
	"github.com/matzehuels/flowmodel/pkg/eventbus"
	"github.com/matzehuels/flowmodel/pkg/model"
)

// Events fired when elements enter or leave the registry.
const (
	EventShapeAdded        = "shape.added"
	EventShapeRemoved      = "shape.removed"
	EventConnectionAdded   = "connection.added"
	EventConnectionRemoved = "connection.removed"
)

// ElementEvent is the payload of the added and removed events.
type ElementEvent struct {
	Element *model.Element
}

// RegisterContracts installs the payload contracts of the modeling events.
func RegisterContracts(bus *eventbus.Bus) {
	for _, name := range []string{EventShapeAdded, EventShapeRemoved, EventConnectionAdded, EventConnectionRemoved} {
		eventbus.Expect[*ElementEvent](bus, name)
	}
}

func (e *env) added(el *model.Element) error {
	name := EventShapeAdded
	if el.Kind == model.KindConnection {
		name = EventConnectionAdded
	}
	_, err := e.bus.Fire(name, &ElementEvent{Element: el})
	return err
}

func (e *env) removed(removals []model.Removal) error {
	for _, rm := range removals {
		name := EventShapeRemoved
		if rm.Element.Kind == model.KindConnection {
			name = EventConnectionRemoved
		}
		if _, err := e.bus.Fire(name, &ElementEvent{Element: rm.Element}); err != nil {
			return err
		}
	}
	return nil
}
