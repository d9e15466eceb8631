package cfgcontext

import (
	"fmt"
	"sync"

	"github.com/vk/gardenflow/internal/action"
	"github.com/vk/gardenflow/internal/template"
	"github.com/zclconf/go-cty/cty"
)

// Producer evaluates an action's outputs on demand. The Graph Builder wires
// this to the Task Graph/Solver: resolving an action's outputs before it has
// run drives that action's Build/Deploy task to completion first.
type Producer func(ref action.Ref) (cty.Value, error)

// ActionOutputs is the lazy layer that answers "actions.<kind>.<name>.outputs.*"
// paths. Resolving triggers Producer, and a resolution stack detects cycles:
// revisiting a ref that is still being produced fails with circular-reference
// rather than deadlocking.
type ActionOutputs struct {
	produce Producer

	mu       sync.Mutex
	resolved map[action.Ref]cty.Value
	failed   map[action.Ref]error
	inFlight map[action.Ref]bool
	stack    []action.Ref
}

// NewActionOutputs builds an ActionOutputs layer backed by produce.
func NewActionOutputs(produce Producer) *ActionOutputs {
	return &ActionOutputs{
		produce:  produce,
		resolved: make(map[action.Ref]cty.Value),
		failed:   make(map[action.Ref]error),
		inFlight: make(map[action.Ref]bool),
	}
}

// Resolve implements template.Context. Only paths of the shape
// "actions.<kind>.<name>.outputs...." are owned by this layer; anything else
// is reported not-found so a composite can fall through to other layers.
func (a *ActionOutputs) Resolve(path []string) template.Lookup {
	if len(path) < 4 || path[0] != "actions" || path[3] != "outputs" {
		return template.Lookup{}
	}
	ref := action.Ref{Kind: action.Kind(path[1]), Name: path[2]}
	if !ref.Kind.Valid() {
		return notFoundLookup(fmt.Sprintf("unknown action kind %q", path[1]))
	}

	v, err := a.get(ref)
	if err != nil {
		if cerr, ok := err.(*cycleError); ok {
			return template.Lookup{Found: true, Partial: true, Message: cerr.Error()}
		}
		return notFoundLookup(err.Error())
	}
	if !v.IsKnown() {
		return template.Lookup{Found: true, Partial: true, Message: "action " + ref.String() + " has not produced outputs yet"}
	}

	outputPath := path[4:]
	for _, seg := range outputPath {
		switch {
		case v.Type().IsObjectType():
			if !v.Type().HasAttribute(seg) {
				return notFoundLookup(fmt.Sprintf("action %s has no output %q", ref, seg))
			}
			v = v.GetAttr(seg)
		case v.Type().IsMapType():
			key := cty.StringVal(seg)
			if !v.HasIndex(key).True() {
				return notFoundLookup(fmt.Sprintf("action %s has no output %q", ref, seg))
			}
			v = v.Index(key)
		default:
			return notFoundLookup(fmt.Sprintf("cannot navigate into output path %q of %s", seg, ref))
		}
	}
	return foundLookup(v)
}

// cycleError marks a resolution-stack cycle; ActionOutputs.Resolve reports it
// as a partial lookup rather than a hard not-found, since the caller (the
// Graph Builder) is expected to translate it into a circular-reference
// ConfigurationError at a higher level once it has the full ref chain.
type cycleError struct {
	chain []action.Ref
}

func (e *cycleError) Error() string {
	s := "circular reference:"
	for _, r := range e.chain {
		s += " " + r.String() + " ->"
	}
	return s
}

func (a *ActionOutputs) get(ref action.Ref) (cty.Value, error) {
	a.mu.Lock()
	if v, ok := a.resolved[ref]; ok {
		a.mu.Unlock()
		return v, nil
	}
	if err, ok := a.failed[ref]; ok {
		a.mu.Unlock()
		return cty.NilVal, err
	}
	if a.inFlight[ref] {
		chain := append(append([]action.Ref{}, a.stack...), ref)
		a.mu.Unlock()
		return cty.NilVal, &cycleError{chain: chain}
	}
	a.inFlight[ref] = true
	a.stack = append(a.stack, ref)
	a.mu.Unlock()

	v, err := a.produce(ref)

	a.mu.Lock()
	a.inFlight[ref] = false
	a.stack = a.stack[:len(a.stack)-1]
	if err != nil {
		a.failed[ref] = err
	} else {
		a.resolved[ref] = v
	}
	a.mu.Unlock()
	return v, err
}
