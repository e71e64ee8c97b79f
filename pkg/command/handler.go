package command

// Handlers implement any subset of the capability interfaces below. A
// handler implementing none of PreExecutor, Executor, PostExecutor and
// Reverter is rejected by [Stack.Register].
//
// The context passed to every hook is the value given to [Stack.Execute].
// Handlers record what they need for reverting in that context, so it is
// normally a pointer to a handler-specific struct.

// PreExecutor runs before the forward mutation. It may execute further
// commands, which join the current transaction and are undone with it.
type PreExecutor interface {
	PreExecute(ctx any) error
}

// Executor performs the forward mutation and returns the ids of the
// elements it changed. Execute must not leave partial mutations behind
// when it fails. It may not execute further commands.
type Executor interface {
	Execute(ctx any) ([]string, error)
}

// PostExecutor runs after the forward mutation. Like PreExecute it may
// execute further commands.
type PostExecutor interface {
	PostExecute(ctx any) error
}

// Reverter performs the inverse of Execute and returns the ids of the
// elements it changed. Commands whose handler implements Executor but not
// Reverter cannot be undone.
type Reverter interface {
	Revert(ctx any) ([]string, error)
}

// CanExecuter lets a handler veto a command when no rule decided.
type CanExecuter interface {
	CanExecute(ctx any) bool
}

func validHandler(h any) bool {
	switch h.(type) {
	case PreExecutor, Executor, PostExecutor, Reverter:
		return true
	}
	return false
}

// revertible reports whether an action of this handler can be inverted.
// Handlers that only compose other commands have nothing to invert.
func revertible(h any) bool {
	if _, ok := h.(Executor); !ok {
		return true
	}
	_, ok := h.(Reverter)
	return ok
}
