package editor

import (
	"context"

	"github.com/matzehuels/flowmodel/pkg/command"
	"github.com/matzehuels/flowmodel/pkg/eventbus"
	"github.com/matzehuels/flowmodel/pkg/observability"
)

// observer forwards stack activity to the global command hooks.
type observer struct {
	stack *command.Stack
}

func observe(bus *eventbus.Bus, stack *command.Stack) *observer {
	o := &observer{stack: stack}
	bus.On(command.EventElementsChanged, eventbus.DefaultPriority, o.onElementsChanged)
	bus.On(command.EventAborted, eventbus.DefaultPriority, o.onAborted)
	return o
}

func (o *observer) onElementsChanged(ev *eventbus.Event) (any, error) {
	e := ev.Payload.(*command.ElementsChangedEvent)
	ctx := context.Background()
	hooks := observability.Commands()
	switch e.Trigger {
	case command.TriggerExecute:
		var name string
		if entries := o.stack.Entries(); len(entries) > 0 {
			name = entries[len(entries)-1].Command
		}
		hooks.OnExecute(ctx, name, len(e.Elements))
	case command.TriggerUndo:
		hooks.OnUndo(ctx)
	case command.TriggerRedo:
		hooks.OnRedo(ctx)
	}
	return nil, nil
}

func (o *observer) onAborted(ev *eventbus.Event) (any, error) {
	e := ev.Payload.(*command.AbortedEvent)
	if !e.Cancelled {
		observability.Commands().OnAbort(context.Background(), e.Command, e.Err)
	}
	return nil, nil
}
