package selection

import (
	"io"
	"slices"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowmodel/pkg/command"
	"github.com/matzehuels/flowmodel/pkg/eventbus"
	"github.com/matzehuels/flowmodel/pkg/model"
)

func setup(t *testing.T) (*eventbus.Bus, *model.Registry, *Selection) {
	t.Helper()
	bus := eventbus.New(eventbus.WithLogger(log.New(io.Discard)))
	command.RegisterContracts(bus)
	reg := model.NewRegistry()
	for _, el := range []*model.Element{
		{ID: "root", Kind: model.KindRoot},
		{ID: "A", Kind: model.KindShape},
		{ID: "B", Kind: model.KindShape},
	} {
		parent := "root"
		if el.Kind == model.KindRoot {
			parent = ""
		}
		if err := reg.Add(el, parent, -1); err != nil {
			t.Fatal(err)
		}
	}
	return bus, reg, New(bus, reg)
}

func TestSelect(t *testing.T) {
	bus, _, s := setup(t)
	var events []*ChangedEvent
	bus.On(EventChanged, eventbus.DefaultPriority, func(ev *eventbus.Event) (any, error) {
		events = append(events, ev.Payload.(*ChangedEvent))
		return nil, nil
	})

	if err := s.Select([]string{"A", "missing"}, false); err != nil {
		t.Fatal(err)
	}
	if err := s.Select([]string{"B", "A"}, true); err != nil {
		t.Fatal(err)
	}
	if got := s.Get(); !slices.Equal(got, []string{"A", "B"}) {
		t.Errorf("Get() = %v, want [A B]", got)
	}
	if err := s.Select([]string{"A", "B"}, false); err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Errorf("got %d change events, want 2", len(events))
	}

	if err := s.Deselect("A"); err != nil {
		t.Fatal(err)
	}
	if s.IsSelected("A") || !s.IsSelected("B") {
		t.Errorf("selection after deselect = %v", s.Get())
	}
}

func TestRemovedElementsAreDropped(t *testing.T) {
	bus, reg, s := setup(t)
	if err := s.Select([]string{"A", "B"}, false); err != nil {
		t.Fatal(err)
	}
	if _, err := reg.Remove("A"); err != nil {
		t.Fatal(err)
	}
	if _, err := bus.Fire(command.EventElementsChanged, &command.ElementsChangedEvent{Elements: []string{"A"}}); err != nil {
		t.Fatal(err)
	}
	if got := s.Get(); !slices.Equal(got, []string{"B"}) {
		t.Errorf("Get() = %v, want [B]", got)
	}
}
