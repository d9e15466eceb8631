package cfgcontext

import "github.com/vk/gardenflow/internal/template"

// Composite chains layers in order and returns the first one that
// recognizes a path, implementing the §4.2 hierarchy: ProjectContext ⊃
// EnvironmentContext ⊃ ProviderOutputs ⊃ ActionOutputs ⊃ RuntimeContext.
// Layers earlier in the slice take precedence over later ones for the same
// path, letting a narrower layer shadow a broader one.
type Composite struct {
	layers []template.Context
}

// NewComposite builds a Composite from layers in precedence order, narrowest
// (most specific) first.
func NewComposite(layers ...template.Context) *Composite {
	return &Composite{layers: layers}
}

func (c *Composite) Resolve(path []string) template.Lookup {
	var lastNotFound template.Lookup
	for _, l := range c.layers {
		lookup := l.Resolve(path)
		if lookup.Found {
			return lookup
		}
		lastNotFound = lookup
	}
	if lastNotFound.Message == "" {
		lastNotFound.Message = "unrecognized key path: " + joinPath(path)
	}
	return lastNotFound
}

// ScanContext always reports every path as partial-found, matching §4.1's
// "A ScanContext records every key referenced without requiring a value."
// Its own bookkeeping is handled by template.Scan; this type exists only to
// satisfy template.Context during a scan pass over a real Composite, since a
// scan should never let a cheaply-resolvable static value skip recording
// the touched path via the Lazy/cycle-aware layers' side effects.
type ScanContext struct{}

func (ScanContext) Resolve(path []string) template.Lookup {
	return template.Lookup{Found: true, Partial: true, Message: "scan mode: " + joinPath(path)}
}
