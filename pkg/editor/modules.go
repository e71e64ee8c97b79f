package editor

import (
	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowmodel/pkg/command"
	"github.com/matzehuels/flowmodel/pkg/eventbus"
	"github.com/matzehuels/flowmodel/pkg/injector"
	"github.com/matzehuels/flowmodel/pkg/model"
	"github.com/matzehuels/flowmodel/pkg/modeling"
	"github.com/matzehuels/flowmodel/pkg/rules"
	"github.com/matzehuels/flowmodel/pkg/selection"
)

// Service names of the core modules.
const (
	ServiceEditor        = "editor"
	ServiceEventBus      = "eventBus"
	ServiceRegistry      = "elementRegistry"
	ServiceIds           = "ids"
	ServiceFactory       = "elementFactory"
	ServiceCommandStack  = "commandStack"
	ServiceRules         = "rules"
	ServiceProcessRules  = "processRules"
	ServiceModeling      = "modeling"
	ServiceSelection     = "selection"
	ServiceCopyPaste     = "copyPaste"
	ServiceEditorActions = "editorActions"
	ServiceSearch        = "search"
	ServiceObservability = "observability"
	ServiceLogger        = "logger"
)

// Configuration keys read by the core modules. Each is exposed by the
// injector as the service "config.<key>".
const (
	// ConfigCommandStack holds a [CommandStackConfig].
	ConfigCommandStack = "commandStack"
	// ConfigRegistry holds a [RegistryConfig].
	ConfigRegistry = "elementRegistry"
	// ConfigRules holds a [rules.ProcessOptions].
	ConfigRules = "rules"
)

// CommandStackConfig configures the command stack.
type CommandStackConfig struct {
	MaxDepth int
}

// RegistryConfig sets removal policies per element type.
type RegistryConfig struct {
	Policies map[string]model.Policy
}

// configValue returns the configuration stored under key. It reports false
// when the key is unset or holds another type.
func configValue[T any](in *injector.Injector, key string) (T, bool) {
	v, err := in.TryGet(injector.ServiceConfig + "." + key)
	t, ok := v.(T)
	return t, err == nil && ok
}

// CoreModule provides the event bus, registry, command stack, rules engine
// and modeling services every editor needs.
var CoreModule = &injector.Module{
	Name: "core",
	Init: []string{ServiceModeling},
	Services: map[string]injector.Provider{
		ServiceEventBus: injector.Factory(func(in *injector.Injector) (any, error) {
			bus := eventbus.New(eventbus.WithLogger(injector.MustResolve[*log.Logger](in, ServiceLogger)))
			command.RegisterContracts(bus)
			modeling.RegisterContracts(bus)
			registerContracts(bus)
			return bus, nil
		}, ServiceLogger),

		ServiceRegistry: injector.Factory(func(in *injector.Injector) (any, error) {
			reg := model.NewRegistry()
			cfg, _ := configValue[RegistryConfig](in, ConfigRegistry)
			for typ, p := range cfg.Policies {
				reg.SetPolicy(typ, p)
			}
			return reg, nil
		}),

		ServiceIds: injector.Factory(func(*injector.Injector) (any, error) {
			return model.NewIds(), nil
		}),

		ServiceFactory: injector.Factory(func(in *injector.Injector) (any, error) {
			return model.NewFactory(injector.MustResolve[*model.Ids](in, ServiceIds)), nil
		}, ServiceIds),

		ServiceCommandStack: injector.Factory(func(in *injector.Injector) (any, error) {
			cfg, _ := configValue[CommandStackConfig](in, ConfigCommandStack)
			return command.New(injector.MustResolve[*eventbus.Bus](in, ServiceEventBus), command.Options{
				MaxDepth: cfg.MaxDepth,
				Registry: injector.MustResolve[*model.Registry](in, ServiceRegistry),
				Logger:   injector.MustResolve[*log.Logger](in, ServiceLogger),
			}), nil
		}, ServiceEventBus, ServiceRegistry, ServiceLogger),

		ServiceRules: injector.Factory(func(in *injector.Injector) (any, error) {
			return rules.NewEngine(
				injector.MustResolve[*eventbus.Bus](in, ServiceEventBus),
				injector.MustResolve[*model.Registry](in, ServiceRegistry),
				injector.MustResolve[*log.Logger](in, ServiceLogger),
			), nil
		}, ServiceEventBus, ServiceRegistry, ServiceLogger),

		ServiceModeling: injector.Factory(func(in *injector.Injector) (any, error) {
			m := modeling.New(
				injector.MustResolve[*eventbus.Bus](in, ServiceEventBus),
				injector.MustResolve[*command.Stack](in, ServiceCommandStack),
				injector.MustResolve[*model.Registry](in, ServiceRegistry),
				modeling.Options{
					Factory: injector.MustResolve[*model.Factory](in, ServiceFactory),
					Rules:   injector.MustResolve[*rules.Engine](in, ServiceRules),
					Logger:  injector.MustResolve[*log.Logger](in, ServiceLogger),
				},
			)
			if err := m.RegisterHandlers(); err != nil {
				return nil, err
			}
			return m, nil
		}, ServiceEventBus, ServiceCommandStack, ServiceRegistry, ServiceFactory, ServiceRules, ServiceLogger),
	},
}

// ProcessRulesModule installs the structural rules of process diagrams,
// tuned by the "rules" configuration.
var ProcessRulesModule = &injector.Module{
	Name:     "processRules",
	Requires: []*injector.Module{CoreModule},
	Init:     []string{ServiceProcessRules},
	Services: map[string]injector.Provider{
		ServiceProcessRules: injector.Factory(func(in *injector.Injector) (any, error) {
			opts, ok := configValue[rules.ProcessOptions](in, ConfigRules)
			if !ok {
				opts = rules.DefaultProcessOptions()
			}
			e := injector.MustResolve[*rules.Engine](in, ServiceRules)
			rules.RegisterProcessRules(e, opts)
			return e, nil
		}, ServiceRules),
	},
}

// SelectionModule tracks selected elements.
var SelectionModule = &injector.Module{
	Name:     "selection",
	Requires: []*injector.Module{CoreModule},
	Services: map[string]injector.Provider{
		ServiceSelection: injector.Factory(func(in *injector.Injector) (any, error) {
			return selection.New(
				injector.MustResolve[*eventbus.Bus](in, ServiceEventBus),
				injector.MustResolve[*model.Registry](in, ServiceRegistry),
			), nil
		}, ServiceEventBus, ServiceRegistry),
	},
}

// CopyPasteModule provides the clipboard.
var CopyPasteModule = &injector.Module{
	Name:     "copyPaste",
	Requires: []*injector.Module{CoreModule},
	Services: map[string]injector.Provider{
		ServiceCopyPaste: injector.Factory(func(in *injector.Injector) (any, error) {
			return modeling.NewCopyPaste(
				injector.MustResolve[*modeling.Modeling](in, ServiceModeling),
				injector.MustResolve[*model.Ids](in, ServiceIds),
			), nil
		}, ServiceModeling, ServiceIds),
	},
}

// SearchModule provides element search.
var SearchModule = &injector.Module{
	Name:     "search",
	Requires: []*injector.Module{CoreModule},
	Services: map[string]injector.Provider{
		ServiceSearch: injector.Factory(func(in *injector.Injector) (any, error) {
			return NewSearch(injector.MustResolve[*model.Registry](in, ServiceRegistry)), nil
		}, ServiceRegistry),
	},
}

// EditorActionsModule registers the named editor actions.
var EditorActionsModule = &injector.Module{
	Name:     "editorActions",
	Requires: []*injector.Module{CoreModule, SelectionModule, CopyPasteModule, SearchModule},
	Services: map[string]injector.Provider{
		ServiceEditorActions: injector.Factory(func(in *injector.Injector) (any, error) {
			return newDefaultActions(in)
		}, ServiceCommandStack, ServiceModeling, ServiceSelection, ServiceCopyPaste, ServiceSearch, ServiceRegistry),
	},
}

// ObservabilityModule forwards command stack activity to the registered
// observability hooks.
var ObservabilityModule = &injector.Module{
	Name:     "observability",
	Requires: []*injector.Module{CoreModule},
	Init:     []string{ServiceObservability},
	Services: map[string]injector.Provider{
		ServiceObservability: injector.Factory(func(in *injector.Injector) (any, error) {
			return observe(
				injector.MustResolve[*eventbus.Bus](in, ServiceEventBus),
				injector.MustResolve[*command.Stack](in, ServiceCommandStack),
			), nil
		}, ServiceEventBus, ServiceCommandStack),
	},
}

// DefaultModules are loaded by [New] unless [WithoutDefaults] is given.
var DefaultModules = []*injector.Module{
	CoreModule,
	ProcessRulesModule,
	SelectionModule,
	CopyPasteModule,
	SearchModule,
	EditorActionsModule,
	ObservabilityModule,
}
