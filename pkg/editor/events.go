package editor

import (
	"github.com/matzehuels/flowmodel/pkg/eventbus"
)

// Events fired by the editor itself.
const (
	EventImportStart = "import.parse.start"
	EventImportDone  = "import.done"
	EventClear       = "diagram.clear"
)

// ImportEvent is the payload of the import events. Warnings and Err are
// only set on import.done.
type ImportEvent struct {
	Diagram  string
	Warnings []string
	Err      error
}

// ClearEvent is the payload of diagram.clear.
type ClearEvent struct {
	Diagram string
}

func registerContracts(bus *eventbus.Bus) {
	eventbus.Expect[*ImportEvent](bus, "import.*")
	eventbus.Expect[*ClearEvent](bus, EventClear)
}
