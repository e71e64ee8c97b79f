package injector

// FactoryFunc builds a service instance. Dependencies declared on the
// [Provider] are instantiated before the factory runs and can be fetched
// with [Resolve].
type FactoryFunc func(in *Injector) (any, error)

// Provider describes how a named service is created.
type Provider struct {
	Requires []string
	factory  FactoryFunc
	value    any
	isValue  bool
}

// Factory returns a lazily instantiated singleton provider depending on the
// named services.
func Factory(fn FactoryFunc, requires ...string) Provider {
	return Provider{Requires: requires, factory: fn}
}

// Value returns a provider for an already constructed instance.
func Value(v any) Provider {
	return Provider{value: v, isValue: true}
}

// Module is a named bundle of service providers.
//
// Requires lists modules that must be loaded first. Init names services that
// are instantiated eagerly when the injector is built, typically listeners
// that only need to exist to do their work.
type Module struct {
	Name     string
	Requires []*Module
	Init     []string
	Services map[string]Provider
}

// flatten orders modules so that every module follows its requirements.
// Each module appears once; a module reachable through several paths keeps
// its first position.
func flatten(modules []*Module) []*Module {
	var (
		out  []*Module
		seen = make(map[*Module]bool)
	)
	var visit func(m *Module)
	visit = func(m *Module) {
		if m == nil || seen[m] {
			return
		}
		seen[m] = true
		for _, dep := range m.Requires {
			visit(dep)
		}
		out = append(out, m)
	}
	for _, m := range modules {
		visit(m)
	}
	return out
}
