package command

import (
	"errors"
	"io"
	"slices"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	ferrors "github.com/matzehuels/flowmodel/pkg/errors"
	"github.com/matzehuels/flowmodel/pkg/eventbus"
	"github.com/matzehuels/flowmodel/pkg/model"
)

type fixture struct {
	bus   *eventbus.Bus
	reg   *model.Registry
	stack *Stack
}

func newFixture(t *testing.T, maxDepth int) *fixture {
	t.Helper()
	logger := log.New(io.Discard)
	bus := eventbus.New(eventbus.WithLogger(logger))
	RegisterContracts(bus)
	reg := model.NewRegistry()
	if err := reg.Add(&model.Element{ID: "root", Kind: model.KindRoot}, "", -1); err != nil {
		t.Fatal(err)
	}
	s := New(bus, Options{MaxDepth: maxDepth, Registry: reg, Logger: logger})
	f := &fixture{bus: bus, reg: reg, stack: s}

	register := func(name string, h any) {
		t.Helper()
		if err := s.Register(name, h); err != nil {
			t.Fatal(err)
		}
	}
	register("add", &addHandler{reg: reg})
	register("move", &moveHandler{reg: reg})
	register("pair", &pairHandler{stack: s})
	register("fail", failHandler{})
	register("oneWay", &oneWayHandler{reg: reg})
	register("reenter", &reenterHandler{stack: s})
	register("ignore", &ignoreHandler{stack: s})
	return f
}

type addCtx struct{ ID string }

type addHandler struct{ reg *model.Registry }

func (h *addHandler) Execute(ctx any) ([]string, error) {
	c := ctx.(*addCtx)
	el := &model.Element{ID: c.ID, Kind: model.KindShape, Width: 100, Height: 80}
	return []string{c.ID}, h.reg.Add(el, "root", -1)
}

func (h *addHandler) Revert(ctx any) ([]string, error) {
	c := ctx.(*addCtx)
	_, err := h.reg.Remove(c.ID)
	return []string{c.ID}, err
}

type moveCtx struct {
	ID string
	DX float64
}

type moveHandler struct{ reg *model.Registry }

func (h *moveHandler) Execute(ctx any) ([]string, error) {
	c := ctx.(*moveCtx)
	el, err := h.reg.MustGet(c.ID)
	if err != nil {
		return nil, err
	}
	el.X += c.DX
	return []string{c.ID}, nil
}

func (h *moveHandler) Revert(ctx any) ([]string, error) {
	c := ctx.(*moveCtx)
	el, err := h.reg.MustGet(c.ID)
	if err != nil {
		return nil, err
	}
	el.X -= c.DX
	return []string{c.ID}, nil
}

// pairCtx adds two shapes from PreExecute and optionally runs another
// command from PostExecute.
type pairCtx struct {
	A, B string
	Then string
}

type pairHandler struct{ stack *Stack }

func (h *pairHandler) PreExecute(ctx any) error {
	c := ctx.(*pairCtx)
	if err := h.stack.Execute("add", &addCtx{ID: c.A}); err != nil {
		return err
	}
	return h.stack.Execute("add", &addCtx{ID: c.B})
}

func (h *pairHandler) PostExecute(ctx any) error {
	c := ctx.(*pairCtx)
	if c.Then == "" {
		return nil
	}
	return h.stack.Execute(c.Then, &moveCtx{ID: c.A, DX: 10})
}

type failHandler struct{}

func (failHandler) Execute(any) ([]string, error) { return nil, errors.New("boom") }

type oneWayHandler struct{ reg *model.Registry }

func (h *oneWayHandler) Execute(ctx any) ([]string, error) {
	c := ctx.(*moveCtx)
	el, err := h.reg.MustGet(c.ID)
	if err != nil {
		return nil, err
	}
	el.Y += c.DX
	return []string{c.ID}, nil
}

// ignoreHandler runs a failing pair from PreExecute and drops the error.
type ignoreHandler struct{ stack *Stack }

func (h *ignoreHandler) PreExecute(any) error {
	_ = h.stack.Execute("pair", &pairCtx{A: "X", B: "Y", Then: "fail"})
	return nil
}

type reenterHandler struct {
	stack *Stack
	err   error
}

func (h *reenterHandler) Execute(any) ([]string, error) {
	h.err = h.stack.Execute("add", &addCtx{ID: "inner"})
	return nil, nil
}

func (f *fixture) x(t *testing.T, id string) float64 {
	t.Helper()
	el, ok := f.reg.Get(id)
	if !ok {
		t.Fatalf("%s not registered", id)
	}
	return el.X
}

func TestRegisterRejectsInvalidHandlers(t *testing.T) {
	f := newFixture(t, 0)

	if err := f.stack.Register("noop", struct{}{}); !ferrors.Is(err, ferrors.ErrCodeInvalidHandler) {
		t.Errorf("Register(no hooks) error = %v, want INVALID_HANDLER", err)
	}
	if err := f.stack.Register("add", &addHandler{}); !ferrors.Is(err, ferrors.ErrCodeInvalidHandler) {
		t.Errorf("Register(duplicate) error = %v, want INVALID_HANDLER", err)
	}
	if err := f.stack.Execute("unknown", nil); !ferrors.Is(err, ferrors.ErrCodeNotFound) {
		t.Errorf("Execute(unknown) error = %v, want NOT_FOUND", err)
	}
}

func TestLifecycleEventOrder(t *testing.T) {
	f := newFixture(t, 0)
	var events []string
	f.bus.On("commandStack.add.*", eventbus.DefaultPriority, func(e *eventbus.Event) (any, error) {
		events = append(events, strings.TrimPrefix(e.Name, "commandStack.add."))
		return nil, nil
	})

	if err := f.stack.Execute("add", &addCtx{ID: "A"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if err := f.stack.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if err := f.stack.Redo(); err != nil {
		t.Fatalf("Redo: %v", err)
	}

	want := []string{
		"preExecute", "preExecuted", "execute", "executed", "postExecute", "postExecuted",
		"revert", "reverted",
		"execute", "executed",
	}
	if !slices.Equal(events, want) {
		t.Errorf("events = %v\nwant %v", events, want)
	}
}

func TestActionStates(t *testing.T) {
	f := newFixture(t, 0)
	var action *Action
	f.bus.On(EventName("add", PhaseExecute), eventbus.DefaultPriority, func(e *eventbus.Event) (any, error) {
		action = e.Payload.(*Event).Action
		if action.State != StateExecuting && action.State != StateRedoing {
			t.Errorf("state during execute = %v", action.State)
		}
		return nil, nil
	})

	_ = f.stack.Execute("add", &addCtx{ID: "A"})
	if action.State != StateExecuted {
		t.Errorf("after Execute state = %v, want executed", action.State)
	}
	_ = f.stack.Undo()
	if action.State != StateUndone {
		t.Errorf("after Undo state = %v, want undone", action.State)
	}
	_ = f.stack.Redo()
	if action.State != StateExecuted {
		t.Errorf("after Redo state = %v, want executed", action.State)
	}
}

func TestNestedCommandsFormOneUndoGroup(t *testing.T) {
	f := newFixture(t, 0)
	before := f.reg.Snapshot()

	if err := f.stack.Execute("pair", &pairCtx{A: "A", B: "B", Then: "move"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if f.reg.Len() != 3 || f.x(t, "A") != 10 {
		t.Fatalf("unexpected state after pair: len=%d", f.reg.Len())
	}

	entries := f.stack.Entries()
	if len(entries) != 1 {
		t.Fatalf("history has %d entries, want 1", len(entries))
	}
	if want := []string{"add", "add", "pair", "move"}; !slices.Equal(entries[0].Commands, want) {
		t.Errorf("actions = %v, want %v", entries[0].Commands, want)
	}

	if err := f.stack.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if !f.reg.Snapshot().Equal(before) {
		t.Error("one undo did not revert the whole transaction")
	}
	if f.stack.CanUndo() {
		t.Error("CanUndo() = true after undoing the only group")
	}
}

func TestFailedTransactionRollsBack(t *testing.T) {
	f := newFixture(t, 0)
	before := f.reg.Snapshot()

	err := f.stack.Execute("pair", &pairCtx{A: "A", B: "B", Then: "fail"})
	if !ferrors.Is(err, ferrors.ErrCodeTransactionAborted) {
		t.Fatalf("Execute error = %v, want TRANSACTION_ABORTED", err)
	}
	if e, _ := ferrors.Find(err, ferrors.ErrCodeTransactionAborted); e.Command != "pair" {
		t.Errorf("Command = %q, want pair", e.Command)
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("cause lost: %v", err)
	}
	if !f.reg.Snapshot().Equal(before) {
		t.Error("failed transaction left mutations behind")
	}
	if f.stack.CanUndo() {
		t.Error("failed transaction was pushed to history")
	}
}

func TestIgnoredNestedFailureAbortsTransaction(t *testing.T) {
	f := newFixture(t, 0)
	before := f.reg.Snapshot()

	err := f.stack.Execute("ignore", nil)
	if !ferrors.Is(err, ferrors.ErrCodeTransactionAborted) {
		t.Fatalf("Execute error = %v, want TRANSACTION_ABORTED", err)
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("cause lost: %v", err)
	}
	if _, ok := f.reg.Get("X"); ok {
		t.Error("shape added by the failed nested command survived")
	}
	if !f.reg.Snapshot().Equal(before) {
		t.Error("failed transaction left mutations behind")
	}
	if len(f.stack.Entries()) != 0 {
		t.Errorf("entries = %v, want none", f.stack.Entries())
	}
}

func TestClearKeepsHistoryWhenListenerFails(t *testing.T) {
	f := newFixture(t, 0)
	if err := f.stack.Execute("add", &addCtx{ID: "A"}); err != nil {
		t.Fatal(err)
	}
	f.bus.On(EventChanged, eventbus.DefaultPriority, func(e *eventbus.Event) (any, error) {
		if e.Payload.(*StackChangedEvent).Trigger == TriggerClear {
			return nil, errors.New("veto")
		}
		return nil, nil
	})

	if err := f.stack.Clear(); err == nil {
		t.Fatal("Clear() should report the listener failure")
	}
	if !f.stack.CanUndo() || len(f.stack.Entries()) != 1 {
		t.Fatalf("history lost: %v", f.stack.Entries())
	}
	if err := f.stack.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if _, ok := f.reg.Get("A"); ok {
		t.Error("undo after failed clear did not remove A")
	}
}

func TestAbortedEventReportsCause(t *testing.T) {
	f := newFixture(t, 0)
	var got *AbortedEvent
	f.bus.On(EventAborted, eventbus.DefaultPriority, func(e *eventbus.Event) (any, error) {
		got = e.Payload.(*AbortedEvent)
		return nil, nil
	})

	_ = f.stack.Execute("pair", &pairCtx{A: "A", B: "B", Then: "fail"})
	if got == nil {
		t.Fatal("no aborted event")
	}
	if got.Command != "pair" || got.Cancelled || !strings.Contains(got.Err.Error(), "boom") {
		t.Errorf("aborted event = %+v", got)
	}
}

func TestRollbackUsesSnapshotForOneWayCommands(t *testing.T) {
	f := newFixture(t, 0)
	if err := f.stack.Execute("add", &addCtx{ID: "A"}); err != nil {
		t.Fatal(err)
	}
	before := f.reg.Snapshot()

	seq := &seqHandler{stack: f.stack, steps: []step{
		{"oneWay", &moveCtx{ID: "A", DX: 5}},
		{"move", &moveCtx{ID: "A", DX: 7}},
		{"fail", nil},
	}}
	if err := f.stack.Register("seq", seq); err != nil {
		t.Fatal(err)
	}

	if err := f.stack.Execute("seq", nil); !ferrors.Is(err, ferrors.ErrCodeTransactionAborted) {
		t.Fatalf("Execute error = %v, want TRANSACTION_ABORTED", err)
	}
	if !f.reg.Snapshot().Equal(before) {
		t.Error("rollback across a one-way command did not restore the graph")
	}
}

type step struct {
	name string
	ctx  any
}

type seqHandler struct {
	stack *Stack
	steps []step
}

func (h *seqHandler) PreExecute(any) error {
	for _, s := range h.steps {
		if err := h.stack.Execute(s.name, s.ctx); err != nil {
			return err
		}
	}
	return nil
}

func TestUndoNotRevertible(t *testing.T) {
	f := newFixture(t, 0)
	_ = f.stack.Execute("add", &addCtx{ID: "A"})
	if err := f.stack.Execute("oneWay", &moveCtx{ID: "A", DX: 5}); err != nil {
		t.Fatal(err)
	}
	before := f.reg.Snapshot()

	if err := f.stack.Undo(); !ferrors.Is(err, ferrors.ErrCodeNotRevertible) {
		t.Fatalf("Undo error = %v, want NOT_REVERTIBLE", err)
	}
	if !f.reg.Snapshot().Equal(before) {
		t.Error("failed undo changed the graph")
	}
	if !f.stack.CanUndo() {
		t.Error("failed undo consumed the history entry")
	}
}

func TestPreventDefaultCancels(t *testing.T) {
	f := newFixture(t, 0)
	before := f.reg.Snapshot()

	f.bus.On(EventName("move", PhasePreExecute), eventbus.DefaultPriority, func(e *eventbus.Event) (any, error) {
		e.PreventDefault()
		return nil, nil
	})

	err := f.stack.Execute("pair", &pairCtx{A: "A", B: "B", Then: "move"})
	if !ferrors.Is(err, ferrors.ErrCodeCommandCancelled) {
		t.Fatalf("Execute error = %v, want COMMAND_CANCELLED", err)
	}
	if !f.reg.Snapshot().Equal(before) {
		t.Error("cancelled transaction left mutations behind")
	}
}

func TestIllegalInvocationDuringExecute(t *testing.T) {
	f := newFixture(t, 0)
	h, _ := f.stack.Handler("reenter")

	if err := f.stack.Execute("reenter", nil); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if err := h.(*reenterHandler).err; !ferrors.Is(err, ferrors.ErrCodeIllegalInvocation) {
		t.Errorf("nested Execute error = %v, want ILLEGAL_INVOCATION", err)
	}
	if _, ok := f.reg.Get("inner"); ok {
		t.Error("illegal nested command was applied")
	}
}

func TestNewCommandClearsRedo(t *testing.T) {
	f := newFixture(t, 0)
	_ = f.stack.Execute("add", &addCtx{ID: "A"})
	_ = f.stack.Execute("move", &moveCtx{ID: "A", DX: 10})
	_ = f.stack.Undo()
	if !f.stack.CanRedo() {
		t.Fatal("CanRedo() = false after undo")
	}

	_ = f.stack.Execute("move", &moveCtx{ID: "A", DX: 3})
	if f.stack.CanRedo() {
		t.Error("CanRedo() = true after a new command")
	}
	if f.stack.Depth() != 2 {
		t.Errorf("Depth() = %d, want 2", f.stack.Depth())
	}
	if err := f.stack.Redo(); err != nil || f.x(t, "A") != 3 {
		t.Errorf("Redo after truncation changed state: x=%v err=%v", f.x(t, "A"), err)
	}
}

func TestMaxDepthEvictsOldest(t *testing.T) {
	f := newFixture(t, 2)
	_ = f.stack.Execute("add", &addCtx{ID: "A"})
	for range 3 {
		_ = f.stack.Execute("move", &moveCtx{ID: "A", DX: 1})
	}
	if f.stack.Depth() != 2 {
		t.Fatalf("Depth() = %d, want 2", f.stack.Depth())
	}

	for f.stack.CanUndo() {
		if err := f.stack.Undo(); err != nil {
			t.Fatal(err)
		}
	}
	if f.x(t, "A") != 1 {
		t.Errorf("x after undoing everything = %v, want 1", f.x(t, "A"))
	}
	if _, ok := f.reg.Get("A"); !ok {
		t.Error("evicted creation was undone")
	}
}

func TestUndoRedoRoundTrip(t *testing.T) {
	f := newFixture(t, 0)
	initial := f.reg.Snapshot()

	cmds := []struct {
		name string
		ctx  any
	}{
		{"add", &addCtx{ID: "A"}},
		{"add", &addCtx{ID: "B"}},
		{"move", &moveCtx{ID: "A", DX: 50}},
		{"pair", &pairCtx{A: "C", B: "D", Then: "move"}},
		{"move", &moveCtx{ID: "B", DX: -20}},
	}
	for _, c := range cmds {
		if err := f.stack.Execute(c.name, c.ctx); err != nil {
			t.Fatalf("Execute %s: %v", c.name, err)
		}
	}
	final := f.reg.Snapshot()

	for range cmds {
		if err := f.stack.Undo(); err != nil {
			t.Fatal(err)
		}
	}
	if !f.reg.Snapshot().Equal(initial) {
		t.Error("n undos did not restore the initial state")
	}

	for range cmds {
		if err := f.stack.Redo(); err != nil {
			t.Fatal(err)
		}
	}
	if !f.reg.Snapshot().Equal(final) {
		t.Error("n redos did not reproduce the final state")
	}
}

func TestChangeEvents(t *testing.T) {
	f := newFixture(t, 0)
	var changed []*ElementsChangedEvent
	var element []string
	var stack []*StackChangedEvent

	f.bus.On(EventElementsChanged, eventbus.DefaultPriority, func(e *eventbus.Event) (any, error) {
		changed = append(changed, e.Payload.(*ElementsChangedEvent))
		return nil, nil
	})
	f.bus.On(EventElementChanged, eventbus.DefaultPriority, func(e *eventbus.Event) (any, error) {
		p := e.Payload.(*ElementChangedEvent)
		if p.Removed {
			element = append(element, "-"+p.ID)
		} else {
			element = append(element, p.ID)
		}
		return nil, nil
	})
	f.bus.On(EventChanged, eventbus.DefaultPriority, func(e *eventbus.Event) (any, error) {
		stack = append(stack, e.Payload.(*StackChangedEvent))
		return nil, nil
	})

	_ = f.stack.Execute("pair", &pairCtx{A: "A", B: "B"})
	_ = f.stack.Undo()

	if len(changed) != 2 {
		t.Fatalf("elements.changed fired %d times, want 2", len(changed))
	}
	if !slices.Equal(changed[0].Elements, []string{"A", "B"}) || changed[0].Trigger != TriggerExecute {
		t.Errorf("first elements.changed = %+v", changed[0])
	}
	if changed[1].Trigger != TriggerUndo {
		t.Errorf("second trigger = %q, want undo", changed[1].Trigger)
	}
	if want := []string{"A", "B", "-B", "-A"}; !slices.Equal(element, want) {
		t.Errorf("element.changed = %v, want %v", element, want)
	}
	if len(stack) != 2 || !stack[0].CanUndo || stack[1].CanUndo || !stack[1].CanRedo {
		t.Errorf("commandStack.changed payloads = %+v", stack)
	}
}

func TestCanExecute(t *testing.T) {
	f := newFixture(t, 0)

	ok, err := f.stack.CanExecute("add", &addCtx{ID: "A"})
	if err != nil || !ok {
		t.Errorf("CanExecute without rules = %v, %v", ok, err)
	}

	f.bus.On(EventName("add", PhaseCanExecute), eventbus.DefaultPriority, func(e *eventbus.Event) (any, error) {
		if e.Payload.(*Event).Context.(*addCtx).ID == "forbidden" {
			return false, nil
		}
		return nil, nil
	})
	if ok, _ := f.stack.CanExecute("add", &addCtx{ID: "forbidden"}); ok {
		t.Error("CanExecute ignored a denying listener")
	}
	if ok, _ := f.stack.CanExecute("add", &addCtx{ID: "fine"}); !ok {
		t.Error("CanExecute denied an abstaining listener")
	}
}

func TestClear(t *testing.T) {
	f := newFixture(t, 0)
	_ = f.stack.Execute("add", &addCtx{ID: "A"})
	if err := f.stack.Clear(); err != nil {
		t.Fatal(err)
	}
	if f.stack.CanUndo() || f.stack.CanRedo() || f.stack.Depth() != 0 {
		t.Error("Clear left history behind")
	}
}
