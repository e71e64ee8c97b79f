// Package observability lets applications watch editors and caches without
// those packages depending on a metrics or tracing backend.
//
// Each category of events has a hook interface with a no-op default. An
// application installs its own implementations once, before building
// editors:
//
//	observability.SetCommandHooks(observability.NewLogHooks(logger))
//
// The editor's observability module forwards command stack activity to
// [Commands], [editor.Editor.Import] reports to [Import] and the render
// cache reports hits and misses to [Cache].
//
// [editor.Editor.Import]: github.com/matzehuels/flowmodel/pkg/editor.Editor.Import
package observability

import (
	"context"
	"sync"
	"time"
)

// CommandHooks receives events from the command stack of every editor.
type CommandHooks interface {
	// OnExecute records a committed transaction.
	OnExecute(ctx context.Context, command string, elements int)

	// OnUndo and OnRedo record history navigation.
	OnUndo(ctx context.Context)
	OnRedo(ctx context.Context)

	// OnAbort records a transaction that was rolled back.
	OnAbort(ctx context.Context, command string, err error)
}

// ImportHooks receives events from document imports.
type ImportHooks interface {
	OnImportStart(ctx context.Context, diagram string)
	OnImportComplete(ctx context.Context, diagram string, elements, warnings int, duration time.Duration, err error)
}

// CacheHooks receives lookups and writes of the artifact cache. keyType
// names the artifact format.
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// NoopCommandHooks ignores all command events.
type NoopCommandHooks struct{}

func (NoopCommandHooks) OnExecute(context.Context, string, int) {}
func (NoopCommandHooks) OnUndo(context.Context)                 {}
func (NoopCommandHooks) OnRedo(context.Context)                 {}
func (NoopCommandHooks) OnAbort(context.Context, string, error) {}

// NoopImportHooks ignores all import events.
type NoopImportHooks struct{}

func (NoopImportHooks) OnImportStart(context.Context, string) {}
func (NoopImportHooks) OnImportComplete(context.Context, string, int, int, time.Duration, error) {
}

// NoopCacheHooks ignores all cache events.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// slot holds the installed hooks of one category.
type slot[T any] struct {
	mu  sync.RWMutex
	cur T
	def T
}

func newSlot[T any](def T) *slot[T] { return &slot[T]{cur: def, def: def} }

func (s *slot[T]) get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

func (s *slot[T]) set(h T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur = h
}

func (s *slot[T]) reset() { s.set(s.def) }

var (
	commandSlot = newSlot[CommandHooks](NoopCommandHooks{})
	importSlot  = newSlot[ImportHooks](NoopImportHooks{})
	cacheSlot   = newSlot[CacheHooks](NoopCacheHooks{})
)

// SetCommandHooks installs h for every editor built afterwards. Nil is
// ignored.
func SetCommandHooks(h CommandHooks) {
	if h != nil {
		commandSlot.set(h)
	}
}

// SetImportHooks installs h. Nil is ignored.
func SetImportHooks(h ImportHooks) {
	if h != nil {
		importSlot.set(h)
	}
}

// SetCacheHooks installs h. Nil is ignored.
func SetCacheHooks(h CacheHooks) {
	if h != nil {
		cacheSlot.set(h)
	}
}

// Commands returns the installed command hooks.
func Commands() CommandHooks { return commandSlot.get() }

// Import returns the installed import hooks.
func Import() ImportHooks { return importSlot.get() }

// Cache returns the installed cache hooks.
func Cache() CacheHooks { return cacheSlot.get() }

// Reset reinstalls the no-op hooks. Tests use it to undo their hooks.
func Reset() {
	commandSlot.reset()
	importSlot.reset()
	cacheSlot.reset()
}
