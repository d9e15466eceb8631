package configgraph

import (
	"github.com/vk/gardenflow/internal/action"
	"github.com/vk/gardenflow/internal/errs"
	"github.com/vk/gardenflow/internal/template"
)

// Node wraps one action's config together with the graph edges the builder
// derived for it (the union of declared and template-implied dependencies).
type Node struct {
	Config       *action.Config
	Dependencies map[action.Ref]*Node
	Dependants   map[action.Ref]*Node
}

// Graph is the immutable artifact the builder produces: every action, fully
// linked, in a topological dependency order.
type Graph struct {
	nodes map[action.Ref]*Node
	order []action.Ref
}

// GetActions returns every enabled action ref in the graph matching filter,
// in topological order. A nil filter returns every enabled action. Disabled
// actions stay in the graph for reference resolution but are never
// returned here.
func (g *Graph) GetActions(filter func(*action.Config) bool) []action.Ref {
	var out []action.Ref
	for _, ref := range g.order {
		cfg := g.nodes[ref].Config
		if cfg.Disabled {
			continue
		}
		if filter == nil || filter(cfg) {
			out = append(out, ref)
		}
	}
	return out
}

// GetConfig returns the resolved config for ref, or nil if ref is not in
// the graph.
func (g *Graph) GetConfig(ref action.Ref) *action.Config {
	n, ok := g.nodes[ref]
	if !ok {
		return nil
	}
	return n.Config
}

// GetDependencies returns ref's dependencies. When recursive is true it
// returns the full transitive closure, deduplicated, in no particular order.
func (g *Graph) GetDependencies(ref action.Ref, recursive bool) []action.Ref {
	n, ok := g.nodes[ref]
	if !ok {
		return nil
	}
	if !recursive {
		return refsOf(n.Dependencies)
	}
	seen := map[action.Ref]bool{}
	var walk func(action.Ref)
	walk = func(r action.Ref) {
		cur, ok := g.nodes[r]
		if !ok {
			return
		}
		for dep := range cur.Dependencies {
			if !seen[dep] {
				seen[dep] = true
				walk(dep)
			}
		}
	}
	walk(ref)
	return refsFromSet(seen)
}

// GetDependants returns the refs that depend on ref, mirroring
// GetDependencies; the two are exact inverses over the graph's edge set.
func (g *Graph) GetDependants(ref action.Ref, recursive bool) []action.Ref {
	n, ok := g.nodes[ref]
	if !ok {
		return nil
	}
	if !recursive {
		return refsOf(n.Dependants)
	}
	seen := map[action.Ref]bool{}
	var walk func(action.Ref)
	walk = func(r action.Ref) {
		cur, ok := g.nodes[r]
		if !ok {
			return
		}
		for dep := range cur.Dependants {
			if !seen[dep] {
				seen[dep] = true
				walk(dep)
			}
		}
	}
	walk(ref)
	return refsFromSet(seen)
}

// GetDependantsForMany unions GetDependants(recursive) over every ref in
// refs.
func (g *Graph) GetDependantsForMany(refs []action.Ref, recursive bool) []action.Ref {
	seen := map[action.Ref]bool{}
	for _, r := range refs {
		for _, d := range g.GetDependants(r, recursive) {
			seen[d] = true
		}
	}
	return refsFromSet(seen)
}

// Resolve produces a fully-resolved action.Resolved for ref against live, a
// context whose ActionOutputs layer is backed by a Producer that can
// actually drive a not-yet-run action to completion (typically the
// session's solver-backed root context). Build only seals what each spec
// statically resolves to; re-resolving against live is what the solver does
// immediately before dispatching a task, once dependency outputs may exist.
func (g *Graph) Resolve(ref action.Ref, live template.Context) (*action.Resolved, error) {
	n, ok := g.nodes[ref]
	if !ok {
		return nil, errs.New(errs.NotFoundError, "unknown action %s", ref).WithRefs(ref.String())
	}
	resolved, err := template.ResolveTree(n.Config.Spec, live, template.Options{})
	if err != nil {
		return nil, errs.Wrap(errs.ConfigurationError, err, "resolving spec of %s", ref).WithRefs(ref.String())
	}
	spec, ok := resolved.(map[string]any)
	if !ok {
		return nil, errs.New(errs.ConfigurationError, "resolved spec of %s is not an object", ref).WithRefs(ref.String())
	}
	return &action.Resolved{Config: n.Config, Spec: spec}, nil
}

func refsOf(m map[action.Ref]*Node) []action.Ref {
	out := make([]action.Ref, 0, len(m))
	for r := range m {
		out = append(out, r)
	}
	return out
}

func refsFromSet(m map[action.Ref]bool) []action.Ref {
	out := make([]action.Ref, 0, len(m))
	for r := range m {
		out = append(out, r)
	}
	return out
}
