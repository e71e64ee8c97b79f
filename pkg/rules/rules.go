// Package rules answers whether a modeling action may proceed.
//
// Rules are pure functions of a read-only element graph and the action's
// context. They are registered on the event bus as listeners of
// "commandStack.<action>.canExecute", so the first rule giving a verdict,
// by descending priority, decides. An action no rule decides is allowed.
package rules

import (
	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowmodel/pkg/command"
	"github.com/matzehuels/flowmodel/pkg/eventbus"
	"github.com/matzehuels/flowmodel/pkg/model"
)

// Verdict is the answer of a rule.
type Verdict int

const (
	Abstain Verdict = iota
	Allow
	Deny
)

func (v Verdict) String() string {
	switch v {
	case Allow:
		return "allow"
	case Deny:
		return "deny"
	default:
		return "abstain"
	}
}

// Allowed reports whether the verdict lets the action proceed.
func (v Verdict) Allowed() bool { return v != Deny }

// RuleFunc evaluates one rule. It must not mutate the graph.
type RuleFunc func(view model.View, ctx any) Verdict

// Engine registers rules and evaluates actions.
type Engine struct {
	bus    *eventbus.Bus
	view   model.View
	logger *log.Logger
}

// NewEngine creates a rules engine evaluating against view.
func NewEngine(bus *eventbus.Bus, view model.View, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{bus: bus, view: view, logger: logger}
}

// Add registers fn for the named action. Use "*" to match every action.
func (e *Engine) Add(action string, priority int, fn RuleFunc) eventbus.Subscription {
	return e.bus.On(command.EventName(action, command.PhaseCanExecute), priority, func(ev *eventbus.Event) (any, error) {
		var ctx any
		if p, ok := ev.Payload.(*command.Event); ok {
			ctx = p.Context
		}
		switch fn(e.view, ctx) {
		case Allow:
			return true, nil
		case Deny:
			return false, nil
		}
		return nil, nil
	})
}

// Remove unregisters a rule.
func (e *Engine) Remove(sub eventbus.Subscription) {
	e.bus.Off(sub)
}

// Allowed evaluates the rules registered for action.
func (e *Engine) Allowed(action string, ctx any) (Verdict, error) {
	answer, err := e.bus.Ask(command.EventName(action, command.PhaseCanExecute),
		&command.Event{Command: action, Context: ctx, Phase: command.PhaseCanExecute})
	if err != nil {
		return Abstain, err
	}
	v := Abstain
	if allowed, ok := answer.(bool); ok {
		v = Deny
		if allowed {
			v = Allow
		}
	}
	e.logger.Debug("rule verdict", "action", action, "verdict", v)
	return v, nil
}
