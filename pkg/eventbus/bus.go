package eventbus

import (
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// DefaultPriority is the priority assigned by [Bus.On] callers that have no
// ordering preference. Higher priorities run first.
const DefaultPriority = 1000

// Handler reacts to a fired event. A non-nil return value becomes the
// event's return value and stops propagation. A non-nil error aborts the
// dispatch and is returned to the caller of [Bus.Fire].
type Handler func(e *Event) (any, error)

// Event is the value passed to every listener of a single dispatch.
type Event struct {
	Name    string
	Payload any

	stopped     bool
	prevented   bool
	returnValue any
}

// StopPropagation prevents listeners with lower priority from running.
func (e *Event) StopPropagation() { e.stopped = true }

// PreventDefault signals the emitter to skip its default action.
func (e *Event) PreventDefault() { e.prevented = true }

// Stopped reports whether propagation was stopped.
func (e *Event) Stopped() bool { return e.stopped }

// DefaultPrevented reports whether a listener called [Event.PreventDefault].
func (e *Event) DefaultPrevented() bool { return e.prevented }

// ReturnValue is the first non-nil value returned by a listener.
func (e *Event) ReturnValue() any { return e.returnValue }

// Subscription identifies a registered listener for [Bus.Off].
type Subscription struct {
	id      uint64
	pattern string
}

// Pattern returns the event name or wildcard pattern the listener is bound to.
func (s Subscription) Pattern() string { return s.pattern }

type listener struct {
	id       uint64
	pattern  string
	priority int
	handler  Handler
	once     bool
}

// Option configures a [Bus].
type Option func(*Bus)

// WithLogger sets the logger used for dispatch tracing.
func WithLogger(l *log.Logger) Option {
	return func(b *Bus) { b.logger = l }
}

// Bus is a synchronous publish/subscribe hub owned by one editor instance.
//
// Dispatch is re-entrant: a listener may fire further events, which run to
// completion before the outer dispatch continues. Listener changes made
// during a dispatch take effect for the next dispatch.
type Bus struct {
	mu        sync.RWMutex
	nextID    uint64
	exact     map[string][]*listener
	wildcards []*listener
	contracts []contract
	logger    *log.Logger
}

// New creates an empty event bus.
func New(opts ...Option) *Bus {
	b := &Bus{exact: make(map[string][]*listener)}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = log.Default()
	}
	return b
}

// On registers handler for the event name or wildcard pattern (path.Match
// syntax, e.g. "commandStack.*.executed").
func (b *Bus) On(pattern string, priority int, handler Handler) Subscription {
	return b.add(pattern, priority, handler, false)
}

// Once registers a handler that is removed before its first invocation.
func (b *Bus) Once(pattern string, priority int, handler Handler) Subscription {
	return b.add(pattern, priority, handler, true)
}

func (b *Bus) add(pattern string, priority int, handler Handler, once bool) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	l := &listener{id: b.nextID, pattern: pattern, priority: priority, handler: handler, once: once}
	if isPattern(pattern) {
		b.wildcards = append(b.wildcards, l)
	} else {
		b.exact[pattern] = append(b.exact[pattern], l)
	}
	return Subscription{id: l.id, pattern: pattern}
}

// Off removes a listener. Removing an unknown subscription is a no-op.
func (b *Bus) Off(sub Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.remove(sub)
}

func (b *Bus) remove(sub Subscription) {
	match := func(l *listener) bool { return l.id == sub.id }
	if isPattern(sub.pattern) {
		b.wildcards = slices.DeleteFunc(b.wildcards, match)
		return
	}
	ls := slices.DeleteFunc(b.exact[sub.pattern], match)
	if len(ls) == 0 {
		delete(b.exact, sub.pattern)
		return
	}
	b.exact[sub.pattern] = ls
}

// HasListeners reports whether any listener would receive an event named name.
func (b *Bus) HasListeners(name string) bool {
	return len(b.listeners(name)) > 0
}

// listeners returns a dispatch-ordered snapshot of the listeners for name.
func (b *Bus) listeners(name string) []*listener {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := append([]*listener(nil), b.exact[name]...)
	for _, l := range b.wildcards {
		if ok, _ := path.Match(l.pattern, name); ok {
			out = append(out, l)
		}
	}
	slices.SortStableFunc(out, func(a, c *listener) int {
		if a.priority != c.priority {
			return c.priority - a.priority
		}
		return int(a.id) - int(c.id)
	})
	return out
}

// Fire dispatches an event synchronously and returns it so callers can
// inspect [Event.DefaultPrevented] and [Event.ReturnValue].
//
// The first failing listener aborts the dispatch; its error is returned
// unchanged alongside the partially dispatched event.
func (b *Bus) Fire(name string, payload any) (*Event, error) {
	if err := b.checkContract(name, payload); err != nil {
		return nil, err
	}

	ev := &Event{Name: name, Payload: payload}
	for _, l := range b.listeners(name) {
		if l.once {
			b.mu.Lock()
			b.remove(Subscription{id: l.id, pattern: l.pattern})
			b.mu.Unlock()
		}

		ret, err := l.handler(ev)
		if err != nil {
			b.logger.Debug("event listener failed", "event", name, "listener", l.id, "err", err)
			return ev, err
		}
		if ret != nil {
			ev.returnValue = ret
			ev.stopped = true
		}
		if ev.stopped {
			break
		}
	}
	return ev, nil
}

// Ask fires a question-style event and returns the first listener answer.
func (b *Bus) Ask(name string, payload any) (any, error) {
	ev, err := b.Fire(name, payload)
	if err != nil {
		return nil, err
	}
	return ev.returnValue, nil
}

func isPattern(s string) bool {
	return strings.ContainsAny(s, `*?[\`)
}
