// Package selection tracks the elements a user currently works on.
package selection

import (
	"slices"

	"github.com/matzehuels/flowmodel/pkg/command"
	"github.com/matzehuels/flowmodel/pkg/eventbus"
	"github.com/matzehuels/flowmodel/pkg/model"
)

// EventChanged is fired whenever the selection changes.
const EventChanged = "selection.changed"

// ChangedEvent is the payload of [EventChanged].
type ChangedEvent struct {
	Old, New []string
}

// Selection is an ordered set of selected element ids.
type Selection struct {
	bus      *eventbus.Bus
	view     model.View
	selected []string
}

// New creates an empty selection. Elements removed from view are dropped
// from the selection when the stack reports them changed.
func New(bus *eventbus.Bus, view model.View) *Selection {
	s := &Selection{bus: bus, view: view}
	eventbus.Expect[*ChangedEvent](bus, EventChanged)
	bus.On(command.EventElementsChanged, eventbus.DefaultPriority, func(ev *eventbus.Event) (any, error) {
		return nil, s.prune()
	})
	return s
}

// Select replaces the selection with ids, or adds them when add is set.
// Unknown ids are ignored.
func (s *Selection) Select(ids []string, add bool) error {
	next := make([]string, 0, len(ids))
	if add {
		next = append(next, s.selected...)
	}
	for _, id := range ids {
		if _, ok := s.view.Get(id); ok && !slices.Contains(next, id) {
			next = append(next, id)
		}
	}
	return s.set(next)
}

// Deselect removes id from the selection.
func (s *Selection) Deselect(id string) error {
	if !s.IsSelected(id) {
		return nil
	}
	return s.set(slices.DeleteFunc(slices.Clone(s.selected), func(v string) bool { return v == id }))
}

// Clear empties the selection.
func (s *Selection) Clear() error { return s.set(nil) }

// Get returns the selected ids in selection order.
func (s *Selection) Get() []string { return slices.Clone(s.selected) }

// IsSelected reports whether id is selected.
func (s *Selection) IsSelected(id string) bool { return slices.Contains(s.selected, id) }

func (s *Selection) prune() error {
	next := slices.DeleteFunc(slices.Clone(s.selected), func(id string) bool {
		_, ok := s.view.Get(id)
		return !ok
	})
	return s.set(next)
}

func (s *Selection) set(next []string) error {
	if slices.Equal(next, s.selected) {
		return nil
	}
	old := s.selected
	s.selected = next
	_, err := s.bus.Fire(EventChanged, &ChangedEvent{Old: old, New: slices.Clone(next)})
	return err
}
