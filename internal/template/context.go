package template

import "github.com/zclconf/go-cty/cty"

// Context is the uniform lookup surface every layer of the Config Context
// hierarchy implements. Resolve is given the dotted/indexed path already
// split into segments (e.g. "actions.build.api.outputs.image-id" becomes
// ["actions", "build", "api", "outputs", "image-id"]).
type Context interface {
	Resolve(path []string) Lookup
}

// Lookup is the outcome of resolving a single key path against a Context.
type Lookup struct {
	// Value holds the resolved value. Only meaningful when Found is true and
	// Partial is false.
	Value cty.Value
	// Found is true when the context recognizes the path at all (even if it
	// cannot produce a concrete value yet).
	Found bool
	// Partial is true when the path is recognized but not yet resolvable
	// (e.g. it names an action output that hasn't run). A partial lookup
	// behaves like "found" for dependency inference but like "missing" for
	// producing a concrete value unless Options.AllowPartial is set.
	Partial bool
	// Message carries a human-readable explanation, mainly for diagnostics
	// attached to missing-key and circular-reference errors.
	Message string
}

// found is a convenience constructor for a concrete, resolved value.
func found(v cty.Value) Lookup { return Lookup{Value: v, Found: true} }

// notFound is a convenience constructor for an unrecognized path.
func notFound(msg string) Lookup { return Lookup{Found: false, Message: msg} }

// partial is a convenience constructor for a recognized-but-unresolved path.
func partial(msg string) Lookup { return Lookup{Found: true, Partial: true, Message: msg} }
