package command

import "github.com/matzehuels/flowmodel/pkg/eventbus"

// Phase names the lifecycle points at which the stack fires events.
type Phase string

const (
	PhaseCanExecute  Phase = "canExecute"
	PhasePreExecute  Phase = "preExecute"
	PhasePreExecuted Phase = "preExecuted"
	PhaseExecute     Phase = "execute"
	PhaseExecuted    Phase = "executed"
	PhasePostExecute Phase = "postExecute"
	PhasePostExec    Phase = "postExecuted"
	PhaseRevert      Phase = "revert"
	PhaseReverted    Phase = "reverted"
)

// Event names fired by the stack outside of command lifecycles.
const (
	EventChanged         = "commandStack.changed"
	EventElementsChanged = "elements.changed"
	EventElementChanged  = "element.changed"
	EventAborted         = "commandStack.aborted"
)

// Triggers reported in [StackChangedEvent] and [ElementsChangedEvent].
const (
	TriggerExecute = "execute"
	TriggerUndo    = "undo"
	TriggerRedo    = "redo"
	TriggerClear   = "clear"
)

// EventName returns "commandStack.<command>.<phase>", or
// "commandStack.<phase>" when command is empty.
func EventName(command string, phase Phase) string {
	if command == "" {
		return "commandStack." + string(phase)
	}
	return "commandStack." + command + "." + string(phase)
}

// Event is the payload of every commandStack lifecycle event.
type Event struct {
	Command string
	Context any
	Action  *Action
	Phase   Phase
}

// ElementsChangedEvent is fired once per committed, undone or redone
// transaction with every element it touched.
type ElementsChangedEvent struct {
	Elements []string
	Trigger  string
}

// ElementChangedEvent is fired for each element of an
// [ElementsChangedEvent]. Removed is set when the element is no longer
// registered.
type ElementChangedEvent struct {
	ID      string
	Removed bool
}

// StackChangedEvent is fired whenever undo or redo availability may have
// changed.
type StackChangedEvent struct {
	Trigger string
	CanUndo bool
	CanRedo bool
}

// AbortedEvent is fired after a failed transaction was rolled back.
// Cancelled is set when a listener cancelled it.
type AbortedEvent struct {
	Command   string
	Err       error
	Cancelled bool
}

// RegisterContracts installs the payload contracts of the stack's events.
func RegisterContracts(bus *eventbus.Bus) {
	eventbus.Expect[*Event](bus, "commandStack.*.*")
	for _, p := range []Phase{PhasePreExecute, PhasePreExecuted, PhaseExecute, PhaseExecuted,
		PhasePostExecute, PhasePostExec, PhaseRevert, PhaseReverted} {
		eventbus.Expect[*Event](bus, EventName("", p))
	}
	eventbus.Expect[*ElementsChangedEvent](bus, EventElementsChanged)
	eventbus.Expect[*ElementChangedEvent](bus, EventElementChanged)
	eventbus.Expect[*StackChangedEvent](bus, EventChanged)
	eventbus.Expect[*AbortedEvent](bus, EventAborted)
}
