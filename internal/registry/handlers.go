package registry

import (
	"fmt"

	"github.com/vk/gardenflow/internal/action"
	"github.com/vk/gardenflow/internal/plugin"
)

// Resolved is the outcome of resolving a (action_type, kind, handler_name)
// triple: the most-derived handler to call, and (optionally) the base
// implementation it overrides, for handlers that want to delegate to it.
type Resolved struct {
	Handler plugin.HandlerFunc
	Base    plugin.HandlerFunc
}

// Resolve walks actionType's owning plugin and its base chain, most-derived
// first, and returns the first handler registered for (kind, handlerName)
// along with the next one found further down the chain, if any.
//
// Unknown handler names fail with a plugin-not-implemented error, except
// when plugin.Optional reports the slot is allowed to be absent, in which
// case Resolve returns a nil Handler and no error; callers must treat a nil
// Handler as a typed no-op.
func (r *Registry) Resolve(actionType string, kind action.Kind, handlerName string) (*Resolved, error) {
	chain, err := r.baseChain(actionType)
	if err != nil {
		return nil, err
	}

	var found []plugin.HandlerFunc
	for _, p := range chain {
		if h := lookupHandler(p, actionType, kind, handlerName); h != nil {
			found = append(found, h)
		}
	}

	if len(found) == 0 {
		if plugin.Optional(kind, handlerName) {
			return &Resolved{}, nil
		}
		return nil, fmt.Errorf("registry: plugin-not-implemented: action type %q has no %q handler for kind %q", actionType, handlerName, kind)
	}

	res := &Resolved{Handler: found[0]}
	if len(found) > 1 {
		res.Base = found[1]
	}
	return res, nil
}

// lookupHandler searches p's own Defines (for the owning plugin) and Extends
// (for every other plugin in the chain) for actionType's handler table.
func lookupHandler(p *plugin.Plugin, actionType string, kind action.Kind, handlerName string) plugin.HandlerFunc {
	for _, def := range p.Defines {
		if def.Type != actionType {
			continue
		}
		if h := handlerIn(def, kind, handlerName); h != nil {
			return h
		}
	}
	for _, def := range p.Extends {
		if def.Type != actionType {
			continue
		}
		if h := handlerIn(def, kind, handlerName); h != nil {
			return h
		}
	}
	return nil
}

func handlerIn(def *plugin.Definition, kind action.Kind, handlerName string) plugin.HandlerFunc {
	table, ok := def.ConfigKinds[kind]
	if !ok {
		return nil
	}
	return table.Handlers[handlerName]
}

// baseChain returns [owner, owner.Base, owner.Base.Base, ...] for
// actionType's owning plugin, most-derived first. A cycle in the Base chain
// is an internal registration bug, not a user-facing error, so it panics
// the same way a duplicate registration does.
func (r *Registry) baseChain(actionType string) ([]*plugin.Plugin, error) {
	ownerName := r.owner[actionType]
	if ownerName == "" {
		return nil, fmt.Errorf("registry: unknown action type %q", actionType)
	}

	var chain []*plugin.Plugin
	seen := map[string]bool{}
	name := ownerName
	for name != "" {
		if seen[name] {
			panic(fmt.Sprintf("registry: cycle in plugin base chain starting at %q", ownerName))
		}
		seen[name] = true
		p, ok := r.plugins[name]
		if !ok {
			return nil, fmt.Errorf("registry: plugin %q (base of chain for action type %q) is not registered", name, actionType)
		}
		chain = append(chain, p)
		name = p.Base
	}
	return chain, nil
}
