package command

import (
	"slices"

	"github.com/matzehuels/flowmodel/pkg/model"
)

// State is the lifecycle state of one command invocation.
type State int

const (
	StateNotStarted State = iota
	StateExecuting
	StateExecuted
	StateUndoing
	StateUndone
	StateRedoing
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not-started"
	case StateExecuting:
		return "executing"
	case StateExecuted:
		return "executed"
	case StateUndoing:
		return "undoing"
	case StateUndone:
		return "undone"
	case StateRedoing:
		return "redoing"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Action is one command invocation inside a transaction.
type Action struct {
	Command string
	Context any
	State   State

	handler  any
	snapshot *model.Snapshot
}

// Transaction groups the actions executed between an outermost
// [Stack.Execute] call and its return. It is undone and redone as a unit.
type Transaction struct {
	ID      int
	Command string
	Actions []*Action

	dirty []string

	// err is the first failure of a nested command. It aborts the
	// transaction even when the caller ignored it.
	err error
}

func (t *Transaction) markDirty(ids []string) {
	for _, id := range ids {
		if !slices.Contains(t.dirty, id) {
			t.dirty = append(t.dirty, id)
		}
	}
}

// Entry describes one undo group for history views. Command is the
// outermost command of the group.
type Entry struct {
	ID       int
	Command  string
	Commands []string
	Undone   bool
}
