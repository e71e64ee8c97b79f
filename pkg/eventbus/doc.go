// Package eventbus implements the synchronous publish/subscribe hub that
// connects the parts of an editor.
//
// # Ordering
//
// Listeners run in descending priority. Listeners with equal priority run in
// the order they were registered. A listener can end a dispatch early by
// calling [Event.StopPropagation] or by returning a non-nil value, which
// becomes the answer of [Bus.Ask].
//
// # Failures
//
// Dispatch is fail-fast: the first listener returning an error aborts the
// dispatch and the error is handed to the caller of [Bus.Fire].
//
// # Payload contracts
//
// Core events carry documented payload types. [Bus.Contract] and [Expect]
// enforce them at fire time; a violation fails with INVALID_PAYLOAD before
// any listener runs.
//
//	bus := eventbus.New()
//	eventbus.Expect[*ChangedEvent](bus, "elements.changed")
//	bus.On("elements.changed", eventbus.DefaultPriority, func(e *eventbus.Event) (any, error) {
//	    return nil, nil
//	})
package eventbus
