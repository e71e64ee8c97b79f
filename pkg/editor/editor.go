package editor

import (
	"context"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowmodel/pkg/command"
	"github.com/matzehuels/flowmodel/pkg/errors"
	"github.com/matzehuels/flowmodel/pkg/eventbus"
	"github.com/matzehuels/flowmodel/pkg/injector"
	fio "github.com/matzehuels/flowmodel/pkg/io"
	"github.com/matzehuels/flowmodel/pkg/model"
	"github.com/matzehuels/flowmodel/pkg/modeling"
	"github.com/matzehuels/flowmodel/pkg/observability"
	"github.com/matzehuels/flowmodel/pkg/selection"
)

// Config is the editor configuration; see the Config* keys.
type Config = injector.Config

type options struct {
	modules  []*injector.Module
	defaults bool
	logger   *log.Logger
}

// Option configures [New].
type Option func(*options)

// WithModules adds modules after the default ones. Their services override
// default services of the same name.
func WithModules(modules ...*injector.Module) Option {
	return func(o *options) { o.modules = append(o.modules, modules...) }
}

// WithoutDefaults loads only [CoreModule] plus the modules given with
// [WithModules].
func WithoutDefaults() Option {
	return func(o *options) { o.defaults = false }
}

// WithLogger sets the logger shared by all services.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Editor owns one diagram and the services editing it.
//
// An Editor is not safe for concurrent use; callers serving several
// goroutines must serialize access.
type Editor struct {
	injector *injector.Injector
	bus      *eventbus.Bus
	reg      *model.Registry
	stack    *command.Stack
	ids      *model.Ids
	modeling *modeling.Modeling
	logger   *log.Logger

	doc     *fio.Document
	diagram string
}

// New builds an editor from the default modules plus any given with
// [WithModules]. Dependency problems of the modules surface here as
// UNRESOLVED_DEPENDENCY or CIRCULAR_DEPENDENCY.
func New(cfg Config, opts ...Option) (*Editor, error) {
	o := options{defaults: true}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.Default()
	}

	e := &Editor{logger: o.logger}
	self := &injector.Module{
		Name: "editor",
		Services: map[string]injector.Provider{
			ServiceEditor: injector.Value(e),
			ServiceLogger: injector.Value(o.logger),
		},
	}
	modules := []*injector.Module{self, CoreModule}
	if o.defaults {
		modules = append(modules, DefaultModules...)
	}
	modules = append(modules, o.modules...)

	in, err := injector.New(cfg, modules, injector.WithLogger(o.logger))
	if err != nil {
		return nil, err
	}
	e.injector = in
	e.bus = injector.MustResolve[*eventbus.Bus](in, ServiceEventBus)
	e.reg = injector.MustResolve[*model.Registry](in, ServiceRegistry)
	e.stack = injector.MustResolve[*command.Stack](in, ServiceCommandStack)
	e.ids = injector.MustResolve[*model.Ids](in, ServiceIds)
	e.modeling = injector.MustResolve[*modeling.Modeling](in, ServiceModeling)
	return e, nil
}

// Get returns a service by name. Unknown names fail with
// UNRESOLVED_DEPENDENCY.
func (e *Editor) Get(name string) (any, error) { return e.injector.Get(name) }

// TryGet returns a service by name, or nil when none is registered.
func (e *Editor) TryGet(name string) (any, error) { return e.injector.TryGet(name) }

// Service fetches a typed service from an editor.
func Service[T any](e *Editor, name string) (T, error) {
	return injector.Resolve[T](e.injector, name)
}

// Injector returns the editor's injector.
func (e *Editor) Injector() *injector.Injector { return e.injector }

// Bus returns the editor's event bus.
func (e *Editor) Bus() *eventbus.Bus { return e.bus }

// Registry returns the element registry.
func (e *Editor) Registry() *model.Registry { return e.reg }

// Stack returns the command stack.
func (e *Editor) Stack() *command.Stack { return e.stack }

// Modeling returns the modeling API.
func (e *Editor) Modeling() *modeling.Modeling { return e.modeling }

// Diagram returns the id of the open diagram.
func (e *Editor) Diagram() string { return e.diagram }

// Document returns the last imported document, or nil.
func (e *Editor) Document() *fio.Document { return e.doc }

// Import replaces the editor contents with the first diagram of doc.
//
// The diagram is assembled off-line; the live graph is only swapped when
// that succeeds, so a failed import leaves the previous diagram intact.
// Elements that cannot be placed are skipped and returned as warnings.
func (e *Editor) Import(doc *fio.Document) ([]string, error) {
	return e.importDiagram(doc, "")
}

// Open switches to another diagram of the imported document. Changes to the
// open diagram are kept in the document.
func (e *Editor) Open(diagramID string) ([]string, error) {
	if e.doc == nil {
		return nil, errors.New(errors.ErrCodeNotFound, "no document imported")
	}
	if _, ok := e.doc.Diagram(diagramID); diagramID == "" || !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "diagram %q not found", diagramID)
	}
	doc := e.Export()
	return e.importDiagram(doc, diagramID)
}

func (e *Editor) importDiagram(doc *fio.Document, diagramID string) ([]string, error) {
	start := time.Now()
	ctx := context.Background()
	observability.Import().OnImportStart(ctx, diagramID)
	if _, err := e.bus.Fire(EventImportStart, &ImportEvent{Diagram: diagramID}); err != nil {
		return nil, err
	}

	warnings, err := e.swap(doc, diagramID)
	observability.Import().OnImportComplete(ctx, e.diagram, e.reg.Len(), len(warnings), time.Since(start), err)
	if _, ferr := e.bus.Fire(EventImportDone, &ImportEvent{Diagram: e.diagram, Warnings: warnings, Err: err}); ferr != nil && err == nil {
		err = ferr
	}
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		e.logger.Warn("import", "warning", w)
	}
	return warnings, nil
}

func (e *Editor) swap(doc *fio.Document, diagramID string) ([]string, error) {
	if doc == nil || len(doc.Diagrams) == 0 {
		return nil, errors.New(errors.ErrCodeImportFailed, "no diagram to display")
	}
	dg, ok := doc.Diagram(diagramID)
	if !ok {
		return nil, errors.New(errors.ErrCodeImportFailed, "diagram %q not found", diagramID)
	}
	scratch, warnings, err := build(dg)
	if err != nil {
		return nil, err
	}

	// Clear keeps the history when it fails, so nothing has changed yet.
	if err := e.stack.Clear(); err != nil {
		return nil, err
	}
	e.reg.ReplaceWith(scratch.Snapshot())
	e.ids.Clear()
	for el := range e.reg.All() {
		_ = e.ids.Claim(el.ID)
	}
	if err := e.clearSelection(); err != nil {
		return nil, err
	}
	e.doc = doc
	e.diagram = dg.ID
	return warnings, nil
}

// Export returns the imported document with the open diagram replaced by
// the current graph. Without an imported document the result holds the
// current graph only.
func (e *Editor) Export() *fio.Document {
	out := &fio.Document{}
	if e.doc != nil {
		out.Name = e.doc.Name
		out.Diagrams = slices.Clone(e.doc.Diagrams)
	}
	id := e.diagram
	if id == "" {
		root, ok := e.reg.Root()
		if !ok {
			return out
		}
		id = root.ID
	}
	var name string
	if old, ok := out.Diagram(id); ok {
		name = old.Name
	}
	els := make([]*model.Element, 0, e.reg.Len())
	for el := range e.reg.All() {
		els = append(els, el)
	}
	out.SetDiagram(fio.FromElements(id, name, els))
	return out
}

// CreateDiagram imports an empty process with a single start event.
func (e *Editor) CreateDiagram() error {
	doc := &fio.Document{Diagrams: []fio.Diagram{{
		ID: "Process_1",
		Elements: []fio.Element{
			{ID: "Process_1", Type: model.TypeProcess, Kind: model.KindRoot.String()},
			{ID: "StartEvent_1", Type: model.TypeStartEvent, Kind: model.KindShape.String(),
				Parent: "Process_1", X: 173, Y: 102, Width: 36, Height: 36},
		},
	}}}
	_, err := e.Import(doc)
	return err
}

// Clear empties the diagram and the undo history.
func (e *Editor) Clear() error {
	if _, err := e.bus.Fire(EventClear, &ClearEvent{Diagram: e.diagram}); err != nil {
		return err
	}
	if err := e.stack.Clear(); err != nil {
		return err
	}
	e.reg.Clear()
	e.ids.Clear()
	return e.clearSelection()
}

func (e *Editor) clearSelection() error {
	v, err := e.injector.TryGet(ServiceSelection)
	if err != nil {
		return err
	}
	if s, ok := v.(*selection.Selection); ok {
		return s.Clear()
	}
	return nil
}
