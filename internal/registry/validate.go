package registry

import (
	"fmt"
	"strings"

	"github.com/vk/gardenflow/internal/plugin"
)

// ValidateRegistry checks the structural invariants every registered plugin
// must satisfy: a resolvable (acyclic) base chain for every action type it
// defines or extends, and handler tables that only name the slots §4.4
// declares for their kind. This is a programmer error check, the same class
// of startup validation the old manifest/Go parity check used to perform,
// just against a different pair of things that must agree.
func (r *Registry) ValidateRegistry() error {
	var errs []string

	for _, actionType := range r.ActionTypes() {
		if _, err := r.baseChain(actionType); err != nil {
			errs = append(errs, err.Error())
		}
	}

	for name, p := range r.plugins {
		if p.Base != "" {
			if _, ok := r.plugins[p.Base]; !ok {
				errs = append(errs, fmt.Sprintf("plugin %q declares unknown base %q", name, p.Base))
			}
		}
		for _, def := range append(append([]*plugin.Definition{}, p.Defines...), p.Extends...) {
			for kind, table := range def.ConfigKinds {
				allowed := make(map[string]bool)
				for _, n := range plugin.HandlerNames(kind) {
					allowed[n] = true
				}
				for handlerName := range table.Handlers {
					if !allowed[handlerName] {
						errs = append(errs, fmt.Sprintf("plugin %q, action type %q: unknown handler %q for kind %q", name, def.Type, handlerName, kind))
					}
				}
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}
