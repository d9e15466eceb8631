package registry

import (
	"fmt"
	"log/slog"

	"github.com/vk/gardenflow/internal/plugin"
)

// Module is the interface every Go-native plugin implements to register
// itself with a Registry at startup.
type Module interface {
	Register(r *Registry)
}

// Registry holds every registered plugin and the index needed to resolve
// handlers for an action type without walking every plugin on each call.
type Registry struct {
	plugins map[string]*plugin.Plugin
	// owner maps an action type to the name of the plugin that defines it
	// (as opposed to merely extending it).
	owner map[string]string
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		plugins: make(map[string]*plugin.Plugin),
		owner:   make(map[string]string),
	}
}

// RegisterPlugin adds p to the registry. It panics on a duplicate plugin
// name or a type defined by more than one plugin, the same class of
// programmer error the old HCL/Go parity check used to catch.
func (r *Registry) RegisterPlugin(p *plugin.Plugin) {
	if _, exists := r.plugins[p.Name]; exists {
		panic(fmt.Sprintf("plugin %q already registered", p.Name))
	}
	slog.Debug("registry: registering plugin.", "name", p.Name, "base", p.Base)
	r.plugins[p.Name] = p

	for _, def := range p.Defines {
		if owner, exists := r.owner[def.Type]; exists {
			panic(fmt.Sprintf("action type %q already defined by plugin %q, cannot redefine in %q", def.Type, owner, p.Name))
		}
		r.owner[def.Type] = p.Name
	}
}

// ActionTypeOwner returns the name of the plugin that defines actionType,
// or "" if no plugin defines it.
func (r *Registry) ActionTypeOwner(actionType string) string {
	return r.owner[actionType]
}

// PluginsOf is a convenience accessor used by validation and CLI extension
// assembly to iterate every registered plugin in registration order is not
// guaranteed; callers that need determinism should sort by name.
func (r *Registry) PluginsOf() map[string]*plugin.Plugin {
	return r.plugins
}
