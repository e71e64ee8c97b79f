package injector

import (
	"errors"
	"io"
	"slices"
	"testing"

	"github.com/charmbracelet/log"

	ferrors "github.com/matzehuels/flowmodel/pkg/errors"
)

var quiet = WithLogger(log.New(io.Discard))

type counter struct{ n int }

func TestLazySingleton(t *testing.T) {
	built := 0
	m := &Module{Name: "core", Services: map[string]Provider{
		"counter": Factory(func(*Injector) (any, error) {
			built++
			return &counter{}, nil
		}),
	}}

	in, err := New(nil, []*Module{m}, quiet)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if built != 0 {
		t.Fatalf("factory ran before first request")
	}

	a, err := Resolve[*counter](in, "counter")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	b, _ := Resolve[*counter](in, "counter")
	if a != b {
		t.Error("Resolve returned different instances")
	}
	if built != 1 {
		t.Errorf("factory ran %d times, want 1", built)
	}
}

func TestDependenciesResolvedFirst(t *testing.T) {
	var order []string
	m := &Module{Name: "core", Services: map[string]Provider{
		"a": Factory(func(in *Injector) (any, error) {
			order = append(order, "a")
			return MustResolve[string](in, "b") + "a", nil
		}, "b"),
		"b": Factory(func(in *Injector) (any, error) {
			order = append(order, "b")
			return MustResolve[string](in, "c") + "b", nil
		}, "c"),
		"c": Value("c"),
	}}

	in, err := New(nil, []*Module{m}, quiet)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got, err := Resolve[string](in, "a")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != "cba" {
		t.Errorf("a = %q, want %q", got, "cba")
	}
	if !slices.Equal(order, []string{"b", "a"}) {
		t.Errorf("order = %v, want [b a]", order)
	}
}

func TestOverrideLastWins(t *testing.T) {
	base := &Module{Name: "base", Services: map[string]Provider{"greeting": Value("hello")}}
	override := &Module{Name: "override", Requires: []*Module{base}, Services: map[string]Provider{"greeting": Value("hi")}}

	in, err := New(nil, []*Module{override}, quiet)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, _ := Resolve[string](in, "greeting")
	if got != "hi" {
		t.Errorf("greeting = %q, want %q", got, "hi")
	}
	if !slices.Equal(in.Modules(), []string{"base", "override"}) {
		t.Errorf("Modules() = %v", in.Modules())
	}
}

func TestSharedRequirementLoadedOnce(t *testing.T) {
	core := &Module{Name: "core"}
	a := &Module{Name: "a", Requires: []*Module{core}}
	b := &Module{Name: "b", Requires: []*Module{core}}

	in, err := New(nil, []*Module{a, b}, quiet)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !slices.Equal(in.Modules(), []string{"core", "a", "b"}) {
		t.Errorf("Modules() = %v, want [core a b]", in.Modules())
	}
}

func TestUnresolvedDependency(t *testing.T) {
	m := &Module{Name: "core", Services: map[string]Provider{
		"modeling":     Factory(func(*Injector) (any, error) { return 1, nil }, "commandStack"),
		"commandStack": Factory(func(*Injector) (any, error) { return 2, nil }, "eventBus"),
	}}

	_, err := New(nil, []*Module{m}, quiet)
	e, ok := ferrors.Find(err, ferrors.ErrCodeUnresolvedDependency)
	if !ok {
		t.Fatalf("New error = %v, want UNRESOLVED_DEPENDENCY", err)
	}
	if !slices.Equal(e.Chain, []string{"commandStack", "eventBus"}) {
		t.Errorf("Chain = %v, want [commandStack eventBus]", e.Chain)
	}
}

func TestCircularDependencyAtBuildTime(t *testing.T) {
	built := false
	factory := func(*Injector) (any, error) {
		built = true
		return nil, nil
	}
	tests := []struct {
		name     string
		services map[string]Provider
		want     []string
	}{
		{
			name:     "self",
			services: map[string]Provider{"a": Factory(factory, "a")},
			want:     []string{"a", "a"},
		},
		{
			name: "transitive",
			services: map[string]Provider{
				"a": Factory(factory, "b"),
				"b": Factory(factory, "c"),
				"c": Factory(factory, "a"),
			},
			want: []string{"a", "b", "c", "a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(nil, []*Module{{Name: "m", Services: tt.services}}, quiet)
			e, ok := ferrors.Find(err, ferrors.ErrCodeCircularDependency)
			if !ok {
				t.Fatalf("New error = %v, want CIRCULAR_DEPENDENCY", err)
			}
			if !slices.Equal(e.Chain, tt.want) {
				t.Errorf("Chain = %v, want %v", e.Chain, tt.want)
			}
			if built {
				t.Error("factory ran despite invalid graph")
			}
		})
	}
}

func TestRuntimeCycleThroughUndeclaredLookup(t *testing.T) {
	m := &Module{Name: "m", Services: map[string]Provider{
		"a": Factory(func(in *Injector) (any, error) { return in.Get("b") }),
		"b": Factory(func(in *Injector) (any, error) { return in.Get("a") }),
	}}
	in, err := New(nil, []*Module{m}, quiet)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := in.Get("a"); !ferrors.Is(err, ferrors.ErrCodeCircularDependency) {
		t.Errorf("Get error = %v, want CIRCULAR_DEPENDENCY", err)
	}
}

func TestInitServices(t *testing.T) {
	started := false
	m := &Module{
		Name: "m",
		Init: []string{"listener"},
		Services: map[string]Provider{
			"listener": Factory(func(*Injector) (any, error) {
				started = true
				return struct{}{}, nil
			}),
		},
	}
	if _, err := New(nil, []*Module{m}, quiet); err != nil {
		t.Fatalf("New: %v", err)
	}
	if !started {
		t.Error("init service was not instantiated")
	}
}

func TestFactoryError(t *testing.T) {
	boom := errors.New("boom")
	m := &Module{Name: "m", Init: []string{"broken"}, Services: map[string]Provider{
		"broken": Factory(func(*Injector) (any, error) { return nil, boom }),
	}}
	if _, err := New(nil, []*Module{m}, quiet); !errors.Is(err, boom) {
		t.Errorf("New error = %v, want %v", err, boom)
	}
}

func TestBuiltinsAndStrictness(t *testing.T) {
	cfg := Config{"canvas": map[string]any{"deferUpdate": false}}
	in, err := New(cfg, nil, quiet)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	self, err := Resolve[*Injector](in, ServiceInjector)
	if err != nil || self != in {
		t.Errorf("injector service = %v, %v", self, err)
	}
	if _, err := in.Get("config.canvas"); err != nil {
		t.Errorf("config.canvas: %v", err)
	}

	if _, err := in.Get("nonExisting"); !ferrors.Is(err, ferrors.ErrCodeUnresolvedDependency) {
		t.Errorf("strict Get error = %v, want UNRESOLVED_DEPENDENCY", err)
	}
	v, err := in.TryGet("nonExisting")
	if v != nil || err != nil {
		t.Errorf("TryGet = %v, %v, want nil, nil", v, err)
	}

	if _, err := Resolve[int](in, ServiceInjector); !ferrors.Is(err, ferrors.ErrCodeInternal) {
		t.Errorf("Resolve wrong type error = %v", err)
	}
}

func TestIndependentInjectors(t *testing.T) {
	m := &Module{Name: "m", Services: map[string]Provider{
		"counter": Factory(func(*Injector) (any, error) { return &counter{}, nil }),
	}}
	a, _ := New(nil, []*Module{m}, quiet)
	b, _ := New(nil, []*Module{m}, quiet)

	ca := MustResolve[*counter](a, "counter")
	cb := MustResolve[*counter](b, "counter")
	ca.n++
	if ca == cb || cb.n != 0 {
		t.Error("injectors share service instances")
	}
}
