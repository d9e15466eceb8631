package cfgcontext

import (
	"github.com/vk/gardenflow/internal/action"
	"github.com/vk/gardenflow/internal/template"
	"github.com/zclconf/go-cty/cty"
)

// Root assembles the full §4.2 layer hierarchy into a single template.Context.
// ProjectContext and EnvironmentContext are static maps sealed before the
// graph is built; ProviderOutputs is static once providers have resolved
// (providers run before any action); ActionOutputs resolves lazily via
// produce; RuntimeContext carries the handful of values only known at the
// moment a task actually runs (the current command name, force flag, etc).
func Root(
	projectVars map[string]cty.Value,
	environmentVars map[string]cty.Value,
	providerOutputs map[string]cty.Value,
	produce Producer,
	runtimeVars map[string]cty.Value,
) *Composite {
	project := NewStaticLayer([]string{"var", "project", "local"}, projectVars)
	environment := NewStaticLayer([]string{"environment"}, environmentVars)
	providers := NewStaticLayer([]string{"providers"}, providerOutputs)
	actions := NewActionOutputs(produce)
	runtime := NewStaticLayer([]string{"runtime", "command"}, runtimeVars)

	// Precedence narrowest-first: an action's own outputs shadow nothing
	// above it, but runtime values (e.g. "command.name") are looked at last
	// since they rarely collide with anything a user would template.
	return NewComposite(project, environment, providers, actions, runtime)
}

// StaticProducer returns a Producer backed by a fixed, already-known map of
// outputs, useful for tests and for re-resolving a graph whose actions have
// already all completed in a prior pass.
func StaticProducer(outputs map[action.Ref]cty.Value) Producer {
	return func(ref action.Ref) (cty.Value, error) {
		if v, ok := outputs[ref]; ok {
			return v, nil
		}
		return cty.DynamicVal, nil
	}
}

var _ template.Context = (*Composite)(nil)
var _ template.Context = (*ActionOutputs)(nil)
var _ template.Context = (*StaticLayer)(nil)
var _ template.Context = ScanContext{}
