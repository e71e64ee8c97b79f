package command

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowmodel/pkg/errors"
	"github.com/matzehuels/flowmodel/pkg/eventbus"
	"github.com/matzehuels/flowmodel/pkg/model"
)

// DefaultMaxDepth is the number of undo groups kept when no limit is configured.
const DefaultMaxDepth = 500

// Options configures a [Stack].
type Options struct {
	// MaxDepth bounds the number of undo groups; the oldest are evicted first.
	MaxDepth int
	// Registry is snapshotted before commands that cannot be reverted, so a
	// failing transaction can still be rolled back. Optional.
	Registry *model.Registry
	Logger   *log.Logger
}

// Stack executes, undoes and redoes commands.
//
// All mutations performed between an outermost [Stack.Execute] call and its
// return form one transaction, which is committed as a single undo group or
// rolled back as a whole.
type Stack struct {
	bus      *eventbus.Bus
	registry *model.Registry
	logger   *log.Logger
	maxDepth int

	handlers map[string]any

	history []*Transaction
	// idx is the number of groups in history that are currently applied;
	// history[idx:] is the redo stack.
	idx int

	current *Transaction
	depth   int
	// atomic is set while execute or revert hooks run.
	atomic bool
	nextID int
}

// New creates a command stack firing its events on bus.
func New(bus *eventbus.Bus, opts Options) *Stack {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Stack{
		bus:      bus,
		registry: opts.Registry,
		logger:   opts.Logger,
		maxDepth: opts.MaxDepth,
		handlers: make(map[string]any),
	}
}

// Register binds a handler to a command name.
func (s *Stack) Register(name string, handler any) error {
	if name == "" {
		return errors.New(errors.ErrCodeInvalidHandler, "command name cannot be empty")
	}
	if !validHandler(handler) {
		return errors.New(errors.ErrCodeInvalidHandler,
			"handler for %s implements none of PreExecute, Execute, PostExecute, Revert", name).WithCommand(name)
	}
	if _, ok := s.handlers[name]; ok {
		return errors.New(errors.ErrCodeInvalidHandler, "handler for %s already registered", name).WithCommand(name)
	}
	s.handlers[name] = handler
	return nil
}

// Handler returns the handler registered for name.
func (s *Stack) Handler(name string) (any, bool) {
	h, ok := s.handlers[name]
	return h, ok
}

// CanExecute asks the "commandStack.<name>.canExecute" listeners, then the
// handler, whether the command may run. Listeners answer by returning a
// bool; no answer means allowed.
func (s *Stack) CanExecute(name string, ctx any) (bool, error) {
	h, ok := s.handlers[name]
	if !ok {
		return false, errors.New(errors.ErrCodeNotFound, "no handler for command %s", name).WithCommand(name)
	}
	answer, err := s.bus.Ask(EventName(name, PhaseCanExecute), &Event{Command: name, Context: ctx, Phase: PhaseCanExecute})
	if err != nil {
		return false, err
	}
	if allowed, ok := answer.(bool); ok {
		return allowed, nil
	}
	if c, ok := h.(CanExecuter); ok {
		return c.CanExecute(ctx), nil
	}
	return true, nil
}

// Execute runs a command. Called while another command's pre- or
// post-execute hook runs, the command joins that transaction.
//
// If any part of the transaction fails, every action executed so far is
// reverted and the failure is returned wrapped in TRANSACTION_ABORTED. A
// failed nested command fails the transaction even if the hook that ran it
// swallowed the error. A
// listener preventing the default of a preExecute event cancels the whole
// transaction with COMMAND_CANCELLED.
func (s *Stack) Execute(name string, ctx any) error {
	if s.atomic {
		return errors.New(errors.ErrCodeIllegalInvocation,
			"cannot execute %s while an execute or revert hook runs", name).WithCommand(name)
	}
	h, ok := s.handlers[name]
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "no handler for command %s", name).WithCommand(name)
	}

	outer := s.depth == 0
	if outer {
		s.nextID++
		s.current = &Transaction{ID: s.nextID, Command: name}
	}

	s.depth++
	err := s.run(&Action{Command: name, Context: ctx, handler: h})
	s.depth--

	if !outer {
		if err != nil && s.current.err == nil {
			s.current.err = err
		}
		return err
	}

	tx := s.current
	s.current = nil
	if err == nil {
		err = tx.err
	}
	if err != nil {
		s.rollback(tx)
		if errors.Is(err, errors.ErrCodeCommandCancelled) {
			s.logger.Debug("command cancelled", "command", name)
			s.aborted(name, err, true)
			return err
		}
		s.logger.Debug("transaction aborted", "command", name, "err", err)
		s.aborted(name, err, false)
		return errors.Wrap(errors.ErrCodeTransactionAborted, err, "%s failed", name).WithCommand(name)
	}
	return s.commit(tx)
}

func (s *Stack) run(a *Action) error {
	a.State = StateExecuting
	ev := &Event{Command: a.Command, Context: a.Context, Action: a}

	prevented, err := s.fire(a.Command, PhasePreExecute, ev)
	if err == nil && prevented {
		err = errors.New(errors.ErrCodeCommandCancelled, "%s cancelled by listener", a.Command).WithCommand(a.Command)
	}
	if err == nil {
		if pre, ok := a.handler.(PreExecutor); ok {
			err = pre.PreExecute(a.Context)
		}
	}
	if err == nil {
		_, err = s.fire(a.Command, PhasePreExecuted, ev)
	}
	if err == nil {
		err = s.atomicExecute(a, ev)
	}
	if err != nil {
		a.State = StateFailed
		return err
	}

	if _, err := s.fire(a.Command, PhasePostExecute, ev); err != nil {
		return err
	}
	if post, ok := a.handler.(PostExecutor); ok {
		if err := post.PostExecute(a.Context); err != nil {
			return err
		}
	}
	_, err = s.fire(a.Command, PhasePostExec, ev)
	return err
}

// atomicExecute runs the execute phase. The action joins the transaction
// once its execute hook succeeded.
func (s *Stack) atomicExecute(a *Action, ev *Event) error {
	s.atomic = true
	defer func() { s.atomic = false }()

	if _, err := s.fire(a.Command, PhaseExecute, ev); err != nil {
		return err
	}
	if ex, ok := a.handler.(Executor); ok {
		if !revertible(a.handler) && s.registry != nil {
			a.snapshot = s.registry.Snapshot()
		}
		dirty, err := ex.Execute(a.Context)
		if err != nil {
			return fmt.Errorf("execute %s: %w", a.Command, err)
		}
		s.current.markDirty(dirty)
	}
	a.State = StateExecuted
	s.current.Actions = append(s.current.Actions, a)

	_, err := s.fire(a.Command, PhaseExecuted, ev)
	return err
}

// rollback reverts the executed actions of a failed transaction in reverse
// order. Non-revertible actions are undone by restoring the registry
// snapshot taken before they ran.
func (s *Stack) rollback(tx *Transaction) {
	s.atomic = true
	defer func() { s.atomic = false }()

	for i := len(tx.Actions) - 1; i >= 0; i-- {
		a := tx.Actions[i]
		ev := &Event{Command: a.Command, Context: a.Context, Action: a}
		a.State = StateUndoing
		s.fireQuiet(a.Command, PhaseRevert, ev)

		switch {
		case a.snapshot != nil:
			s.registry.RollbackTo(a.snapshot)
		default:
			if rev, ok := a.handler.(Reverter); ok {
				if _, err := rev.Revert(a.Context); err != nil {
					s.logger.Error("rollback failed", "command", a.Command, "err", err)
				}
			} else if _, ok := a.handler.(Executor); ok {
				s.logger.Error("rollback impossible without registry snapshot", "command", a.Command)
			}
		}

		a.State = StateUndone
		s.fireQuiet(a.Command, PhaseReverted, ev)
	}
}

func (s *Stack) aborted(name string, err error, cancelled bool) {
	if _, ferr := s.bus.Fire(EventAborted, &AbortedEvent{Command: name, Err: err, Cancelled: cancelled}); ferr != nil {
		s.logger.Error("listener failed after abort", "command", name, "err", ferr)
	}
}

func (s *Stack) commit(tx *Transaction) error {
	if len(tx.Actions) == 0 {
		return nil
	}
	for _, a := range tx.Actions {
		a.snapshot = nil
	}
	s.history = append(s.history[:s.idx], tx)
	s.idx++
	if over := len(s.history) - s.maxDepth; over > 0 {
		s.history = append([]*Transaction(nil), s.history[over:]...)
		s.idx -= over
	}
	s.logger.Debug("command executed", "command", tx.Command, "actions", len(tx.Actions), "dirty", len(tx.dirty))
	return s.changed(tx.dirty, TriggerExecute)
}

// Undo reverts the most recent transaction. It fails with NOT_REVERTIBLE,
// before reverting anything, if the transaction holds an action without a
// revert hook.
func (s *Stack) Undo() error {
	if err := s.checkIdle("undo"); err != nil {
		return err
	}
	if s.idx == 0 {
		return nil
	}
	tx := s.history[s.idx-1]
	for _, a := range tx.Actions {
		if !revertible(a.handler) {
			return errors.New(errors.ErrCodeNotRevertible, "%s cannot be undone", a.Command).WithCommand(a.Command)
		}
	}

	dirty, err := s.revertActions(tx.Actions, len(tx.Actions))
	if err != nil {
		return err
	}
	s.idx--
	return s.changed(dirty, TriggerUndo)
}

// revertActions reverts actions[:n] in reverse order. On failure the
// actions reverted so far are re-applied.
func (s *Stack) revertActions(actions []*Action, n int) ([]string, error) {
	s.atomic = true
	defer func() { s.atomic = false }()

	tx := &Transaction{}
	for i := n - 1; i >= 0; i-- {
		a := actions[i]
		ev := &Event{Command: a.Command, Context: a.Context, Action: a}
		a.State = StateUndoing
		if _, err := s.fire(a.Command, PhaseRevert, ev); err != nil {
			a.State = StateExecuted
			return nil, s.recover(actions, i+1, n, err, TriggerUndo)
		}
		if rev, ok := a.handler.(Reverter); ok {
			dirty, err := rev.Revert(a.Context)
			if err != nil {
				a.State = StateExecuted
				return nil, s.recover(actions, i+1, n, err, TriggerUndo)
			}
			tx.markDirty(dirty)
		}
		a.State = StateUndone
		if _, err := s.fire(a.Command, PhaseReverted, ev); err != nil {
			return nil, s.recover(actions, i, n, err, TriggerUndo)
		}
	}
	return tx.dirty, nil
}

// Redo re-applies the most recently undone transaction by running the
// execute hook of each of its actions in order.
func (s *Stack) Redo() error {
	if err := s.checkIdle("redo"); err != nil {
		return err
	}
	if s.idx >= len(s.history) {
		return nil
	}
	tx := s.history[s.idx]

	dirty, err := s.executeActions(tx.Actions, 0, len(tx.Actions))
	if err != nil {
		return err
	}
	s.idx++
	return s.changed(dirty, TriggerRedo)
}

// executeActions re-executes actions[from:to] in order. On failure the
// actions re-executed so far are reverted again.
func (s *Stack) executeActions(actions []*Action, from, to int) ([]string, error) {
	s.atomic = true
	defer func() { s.atomic = false }()

	tx := &Transaction{}
	for i := from; i < to; i++ {
		a := actions[i]
		ev := &Event{Command: a.Command, Context: a.Context, Action: a}
		a.State = StateRedoing
		if _, err := s.fire(a.Command, PhaseExecute, ev); err != nil {
			return nil, s.recover(actions, from, i, err, TriggerRedo)
		}
		if ex, ok := a.handler.(Executor); ok {
			dirty, err := ex.Execute(a.Context)
			if err != nil {
				a.State = StateUndone
				return nil, s.recover(actions, from, i, err, TriggerRedo)
			}
			tx.markDirty(dirty)
		}
		a.State = StateExecuted
		if _, err := s.fire(a.Command, PhaseExecuted, ev); err != nil {
			return nil, s.recover(actions, from, i+1, err, TriggerRedo)
		}
	}
	return tx.dirty, nil
}

// recover restores the state before a failed undo or redo. For undo,
// actions[from:to] were reverted and are executed again; for redo they
// were executed and are reverted again.
func (s *Stack) recover(actions []*Action, from, to int, cause error, trigger string) error {
	switch trigger {
	case TriggerUndo:
		for i := from; i < to; i++ {
			a := actions[i]
			if ex, ok := a.handler.(Executor); ok {
				if _, err := ex.Execute(a.Context); err != nil {
					s.logger.Error("recovery failed", "command", a.Command, "err", err)
				}
			}
			a.State = StateExecuted
		}
	case TriggerRedo:
		for i := to - 1; i >= from; i-- {
			a := actions[i]
			if rev, ok := a.handler.(Reverter); ok {
				if _, err := rev.Revert(a.Context); err != nil {
					s.logger.Error("recovery failed", "command", a.Command, "err", err)
				}
			}
			a.State = StateUndone
		}
	}
	return errors.Wrap(errors.ErrCodeTransactionAborted, cause, "%s failed", trigger)
}

func (s *Stack) checkIdle(op string) error {
	if s.atomic || s.depth > 0 {
		return errors.New(errors.ErrCodeIllegalInvocation, "cannot %s while a command runs", op)
	}
	return nil
}

// CanUndo reports whether an undo group is available.
func (s *Stack) CanUndo() bool { return s.idx > 0 }

// CanRedo reports whether a redo group is available.
func (s *Stack) CanRedo() bool { return s.idx < len(s.history) }

// Depth returns the number of groups held, including undone ones.
func (s *Stack) Depth() int { return len(s.history) }

// Clear drops the whole history. When a listener of the change
// notification fails, the history is put back and the error returned.
func (s *Stack) Clear() error {
	if err := s.checkIdle("clear"); err != nil {
		return err
	}
	history, idx := s.history, s.idx
	s.history = nil
	s.idx = 0
	if err := s.changed(nil, TriggerClear); err != nil {
		s.history, s.idx = history, idx
		return err
	}
	return nil
}

// Entries returns the history oldest first.
func (s *Stack) Entries() []Entry {
	out := make([]Entry, len(s.history))
	for i, tx := range s.history {
		cmds := make([]string, len(tx.Actions))
		for j, a := range tx.Actions {
			cmds[j] = a.Command
		}
		out[i] = Entry{ID: tx.ID, Command: tx.Command, Commands: cmds, Undone: i >= s.idx}
	}
	return out
}

func (s *Stack) changed(dirty []string, trigger string) error {
	if len(dirty) > 0 {
		if _, err := s.bus.Fire(EventElementsChanged, &ElementsChangedEvent{Elements: dirty, Trigger: trigger}); err != nil {
			return err
		}
		for _, id := range dirty {
			removed := false
			if s.registry != nil {
				_, ok := s.registry.Get(id)
				removed = !ok
			}
			if _, err := s.bus.Fire(EventElementChanged, &ElementChangedEvent{ID: id, Removed: removed}); err != nil {
				return err
			}
		}
	}
	_, err := s.bus.Fire(EventChanged, &StackChangedEvent{Trigger: trigger, CanUndo: s.CanUndo(), CanRedo: s.CanRedo()})
	return err
}

// fire emits "commandStack.<command>.<phase>" and "commandStack.<phase>" and
// reports whether either was default-prevented.
func (s *Stack) fire(command string, phase Phase, ev *Event) (bool, error) {
	ev.Phase = phase
	prevented := false
	for _, name := range []string{EventName(command, phase), EventName("", phase)} {
		e, err := s.bus.Fire(name, ev)
		if err != nil {
			return false, err
		}
		prevented = prevented || e.DefaultPrevented()
	}
	return prevented, nil
}

// fireQuiet fires during rollback, where listener failures can only be logged.
func (s *Stack) fireQuiet(command string, phase Phase, ev *Event) {
	if _, err := s.fire(command, phase, ev); err != nil {
		s.logger.Error("listener failed during rollback", "command", command, "phase", phase, "err", err)
	}
}
