// Package injector composes editor services from feature modules.
//
// Each editor owns exactly one [Injector]; nothing is registered
// process-wide. Services are created lazily on first request and memoized
// for the lifetime of the injector. The full dependency graph is validated
// when the injector is built, so unresolved and circular dependencies
// surface before any editor functionality is used.
//
// Providers of the same service name override each other in module order,
// which lets an additional module replace a core service:
//
//	core := &injector.Module{Name: "core", Services: map[string]injector.Provider{
//	    "rules": injector.Factory(newDefaultRules, "eventBus"),
//	}}
//	strict := &injector.Module{Name: "strict", Requires: []*injector.Module{core},
//	    Services: map[string]injector.Provider{
//	        "rules": injector.Factory(newStrictRules, "eventBus"),
//	    }}
//	in, err := injector.New(nil, []*injector.Module{strict})
package injector

import (
	"fmt"
	"slices"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowmodel/pkg/errors"
)

// Built-in service names.
const (
	ServiceInjector = "injector"
	ServiceConfig   = "config"
)

// Config is the editor configuration. Each top-level key k is also exposed
// as the service "config.k".
type Config map[string]any

// Option configures an [Injector].
type Option func(*Injector)

// WithLogger sets the logger used for instantiation tracing.
func WithLogger(l *log.Logger) Option {
	return func(in *Injector) { in.logger = l }
}

// Injector resolves named services. It is not safe for concurrent use.
type Injector struct {
	providers map[string]Provider
	origin    map[string]string
	instances map[string]any
	resolving []string
	modules   []string
	logger    *log.Logger
}

// New builds an injector from the given modules and validates the resulting
// service graph. Init services of every module are instantiated eagerly, in
// module order.
func New(cfg Config, modules []*Module, opts ...Option) (*Injector, error) {
	in := &Injector{
		providers: make(map[string]Provider),
		origin:    make(map[string]string),
		instances: make(map[string]any),
	}
	for _, opt := range opts {
		opt(in)
	}
	if in.logger == nil {
		in.logger = log.Default()
	}
	if cfg == nil {
		cfg = Config{}
	}

	in.register("<builtin>", ServiceInjector, Value(in))
	in.register("<builtin>", ServiceConfig, Value(cfg))
	for k, v := range cfg {
		in.register("<builtin>", ServiceConfig+"."+k, Value(v))
	}

	ordered := flatten(modules)
	for _, m := range ordered {
		in.modules = append(in.modules, m.Name)
		names := make([]string, 0, len(m.Services))
		for name := range m.Services {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			in.register(m.Name, name, m.Services[name])
		}
	}

	if err := in.validate(); err != nil {
		return nil, err
	}

	for _, m := range ordered {
		for _, name := range m.Init {
			if _, err := in.Get(name); err != nil {
				return nil, fmt.Errorf("module %s: %w", m.Name, err)
			}
		}
	}
	return in, nil
}

func (in *Injector) register(module, name string, p Provider) {
	if prev, ok := in.origin[name]; ok && prev != module {
		in.logger.Debug("service overridden", "service", name, "module", module, "previous", prev)
	}
	in.providers[name] = p
	in.origin[name] = module
}

// validate walks the dependency graph once, reporting the first missing
// service with its requesting chain and the first cycle it meets.
func (in *Injector) validate() error {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(in.providers))
	var stack []string

	var dfs func(name string) error
	dfs = func(name string) error {
		p, ok := in.providers[name]
		if !ok {
			return errors.New(errors.ErrCodeUnresolvedDependency,
				"no provider for service %q", name).WithChain(append(slices.Clone(stack), name)...)
		}
		color[name] = gray
		stack = append(stack, name)
		for _, dep := range p.Requires {
			switch color[dep] {
			case white:
				if err := dfs(dep); err != nil {
					return err
				}
			case gray:
				start := slices.Index(stack, dep)
				cycle := append(slices.Clone(stack[start:]), dep)
				return errors.New(errors.ErrCodeCircularDependency,
					"circular dependency on %q", dep).WithChain(cycle...)
			}
		}
		stack = stack[:len(stack)-1]
		color[name] = black
		return nil
	}

	for _, name := range in.Services() {
		if color[name] == white {
			if err := dfs(name); err != nil {
				return err
			}
		}
	}
	return nil
}

// Get returns the named service, instantiating it and its dependencies on
// first use. Unknown names fail with UNRESOLVED_DEPENDENCY.
func (in *Injector) Get(name string) (any, error) {
	if inst, ok := in.instances[name]; ok {
		return inst, nil
	}

	p, ok := in.providers[name]
	if !ok {
		return nil, errors.New(errors.ErrCodeUnresolvedDependency,
			"no provider for service %q", name).WithChain(append(slices.Clone(in.resolving), name)...)
	}
	if p.isValue {
		in.instances[name] = p.value
		return p.value, nil
	}

	// Factories may look up undeclared services at runtime, which validate
	// cannot see.
	if i := slices.Index(in.resolving, name); i >= 0 {
		cycle := append(slices.Clone(in.resolving[i:]), name)
		return nil, errors.New(errors.ErrCodeCircularDependency,
			"circular dependency on %q", name).WithChain(cycle...)
	}

	in.resolving = append(in.resolving, name)
	defer func() { in.resolving = in.resolving[:len(in.resolving)-1] }()

	for _, dep := range p.Requires {
		if _, err := in.Get(dep); err != nil {
			return nil, err
		}
	}

	inst, err := p.factory(in)
	if err != nil {
		return nil, fmt.Errorf("instantiate %s: %w", name, err)
	}
	in.instances[name] = inst
	in.logger.Debug("service instantiated", "service", name, "module", in.origin[name])
	return inst, nil
}

// TryGet is the non-strict variant of [Injector.Get]: it returns nil without
// error when no provider exists for name.
func (in *Injector) TryGet(name string) (any, error) {
	if !in.Has(name) {
		return nil, nil
	}
	return in.Get(name)
}

// Has reports whether a provider exists for name.
func (in *Injector) Has(name string) bool {
	_, ok := in.providers[name]
	return ok
}

// Services returns all registered service names in sorted order.
func (in *Injector) Services() []string {
	names := make([]string, 0, len(in.providers))
	for name := range in.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Modules returns the loaded module names in load order.
func (in *Injector) Modules() []string {
	return slices.Clone(in.modules)
}

// Resolve fetches a service and asserts its type.
func Resolve[T any](in *Injector, name string) (T, error) {
	var zero T
	inst, err := in.Get(name)
	if err != nil {
		return zero, err
	}
	v, ok := inst.(T)
	if !ok {
		return zero, errors.New(errors.ErrCodeInternal, "service %q is %T, not %T", name, inst, zero)
	}
	return v, nil
}

// MustResolve is like [Resolve] but panics on failure. It is meant for
// factories whose dependencies were declared and validated at build time.
func MustResolve[T any](in *Injector, name string) T {
	v, err := Resolve[T](in, name)
	if err != nil {
		panic(err)
	}
	return v
}
