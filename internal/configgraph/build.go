package configgraph

import (
	"context"
	"sort"
	"strings"

	"github.com/vk/gardenflow/internal/action"
	"github.com/vk/gardenflow/internal/cfgcontext"
	"github.com/vk/gardenflow/internal/ctxlog"
	"github.com/vk/gardenflow/internal/errs"
	"github.com/vk/gardenflow/internal/template"
)

// Build assembles a Graph from a set of action configs: it derives implicit
// dependencies from template references into other actions' outputs, orders
// the result topologically, partially resolves every spec against ctx, and
// validates the whole thing before returning it. Any failure returns a
// *errs.Error of kind ConfigurationError; the graph is never partially
// constructed.
func Build(ctx context.Context, configs []*action.Config, root *cfgcontext.Composite) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("configgraph: starting build.", "action_count", len(configs))

	g := &Graph{nodes: make(map[action.Ref]*Node, len(configs))}
	for _, cfg := range configs {
		if _, exists := g.nodes[cfg.Ref]; exists {
			return nil, errs.New(errs.ConfigurationError, "duplicate action %s", cfg.Ref).WithRefs(cfg.Ref.String())
		}
		g.nodes[cfg.Ref] = &Node{
			Config:       cfg,
			Dependencies: map[action.Ref]*Node{},
			Dependants:   map[action.Ref]*Node{},
		}
	}

	if err := deriveImplicitDependencies(ctx, g); err != nil {
		return nil, err
	}
	logger.Debug("configgraph: implicit dependency derivation complete.")

	if err := linkDeclaredDependencies(g); err != nil {
		return nil, err
	}

	order, err := topoSort(g)
	if err != nil {
		return nil, err
	}
	g.order = order
	logger.Debug("configgraph: topological order computed.", "count", len(order))

	if err := resolveSpecsInOrder(ctx, g, root); err != nil {
		return nil, err
	}

	if err := validate(g); err != nil {
		return nil, err
	}

	logger.Info("configgraph: build successful.", "action_count", len(g.nodes))
	return g, nil
}

// deriveImplicitDependencies scans each action's spec in partial mode and
// records every "actions.<kind>.<name>.outputs.*" reference it touches, both
// as config.TemplateRefs and as an implicit dependency edge.
func deriveImplicitDependencies(ctx context.Context, g *Graph) error {
	logger := ctxlog.FromContext(ctx)
	for ref, node := range g.nodes {
		sr, err := template.ScanTree(node.Config.Spec, cfgcontext.ScanContext{})
		if err != nil {
			return errs.Wrap(errs.ConfigurationError, err, "scanning spec of %s", ref).WithRefs(ref.String())
		}
		node.Config.TemplateRefs = sr.FoundKeys()

		for _, key := range node.Config.TemplateRefs {
			depRef, ok := implicitActionRef(key)
			if !ok {
				continue
			}
			if depRef == ref {
				return errs.New(errs.ConfigurationError, "action %s references its own outputs", ref).WithRefs(ref.String())
			}
			if !hasRef(node.Config.Dependencies, depRef) {
				node.Config.Dependencies = append(node.Config.Dependencies, depRef)
				logger.Debug("configgraph: derived implicit dependency.", "from", ref.String(), "to", depRef.String())
			}
		}
	}
	return nil
}

// implicitActionRef parses a scanned key path of the form
// "actions.<kind>.<name>.outputs...." into the action.Ref it names.
func implicitActionRef(key string) (action.Ref, bool) {
	parts := strings.SplitN(key, ".", 5)
	if len(parts) < 4 || parts[0] != "actions" || parts[3] != "outputs" {
		return action.Ref{}, false
	}
	k := action.Kind(parts[1])
	if !k.Valid() {
		return action.Ref{}, false
	}
	return action.Ref{Kind: k, Name: parts[2]}, true
}

func hasRef(refs []action.Ref, target action.Ref) bool {
	for _, r := range refs {
		if r == target {
			return true
		}
	}
	return false
}

func linkDeclaredDependencies(g *Graph) error {
	for ref, node := range g.nodes {
		if ref.Kind == action.Build && !action.DependsOnlyOnBuilds(node.Config.Dependencies) {
			return errs.New(errs.ConfigurationError, "build action %s may only depend on other build actions", ref).WithRefs(ref.String())
		}
		for _, depRef := range node.Config.Dependencies {
			depNode, ok := g.nodes[depRef]
			if !ok {
				return errs.New(errs.ConfigurationError, "action %s depends on unknown action %s", ref, depRef).WithRefs(ref.String(), depRef.String())
			}
			node.Dependencies[depRef] = depNode
			depNode.Dependants[ref] = node
		}
	}
	return nil
}

// topoSort orders g's nodes via DFS colouring, the same three-colour scheme
// the dependency graph builder uses for cycle detection, extended here to
// name every ref on the offending cycle.
func topoSort(g *Graph) ([]action.Ref, error) {
	const (
		white = iota
		gray
		black
	)
	color := make(map[action.Ref]int, len(g.nodes))
	var order []action.Ref
	var stack []action.Ref

	var visit func(ref action.Ref) error
	visit = func(ref action.Ref) error {
		color[ref] = gray
		stack = append(stack, ref)
		node := g.nodes[ref]

		depRefs := make([]action.Ref, 0, len(node.Dependencies))
		for d := range node.Dependencies {
			depRefs = append(depRefs, d)
		}
		sort.Slice(depRefs, func(i, j int) bool { return depRefs[i].Less(depRefs[j]) })

		for _, dep := range depRefs {
			switch color[dep] {
			case gray:
				cycle := cycleChain(stack, dep)
				return errs.New(errs.ConfigurationError, "circular dependency").WithRefs(refStrings(cycle)...)
			case white:
				if err := visit(dep); err != nil {
					return err
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[ref] = black
		order = append(order, ref)
		return nil
	}

	refs := make([]action.Ref, 0, len(g.nodes))
	for r := range g.nodes {
		refs = append(refs, r)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Less(refs[j]) })

	for _, ref := range refs {
		if color[ref] == white {
			if err := visit(ref); err != nil {
				return nil, err
			}
		}
	}
	return order, nil
}

func cycleChain(stack []action.Ref, closingTo action.Ref) []action.Ref {
	for i, r := range stack {
		if r == closingTo {
			return append(append([]action.Ref{}, stack[i:]...), closingTo)
		}
	}
	return append(stack, closingTo)
}

func refStrings(refs []action.Ref) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.String()
	}
	return out
}

// resolveSpecsInOrder fully resolves each action's spec in dependency order
// against root, sealing statically-known outputs into the context as it
// goes. Dependencies on not-yet-produced outputs remain as unresolved
// template source, to be finished by the solver once the producing task
// runs.
func resolveSpecsInOrder(ctx context.Context, g *Graph, root *cfgcontext.Composite) error {
	logger := ctxlog.FromContext(ctx)
	for _, ref := range g.order {
		node := g.nodes[ref]
		if node.Config.Disabled {
			logger.Debug("configgraph: skipping disabled action.", "ref", ref.String())
			continue
		}
		resolved, err := template.ResolveTree(node.Config.Spec, root, template.Options{AllowPartial: true})
		if err != nil {
			return errs.Wrap(errs.ConfigurationError, err, "resolving spec of %s", ref).WithRefs(ref.String())
		}
		resolvedMap, ok := resolved.(map[string]any)
		if !ok {
			return errs.New(errs.ConfigurationError, "resolved spec of %s is not an object", ref).WithRefs(ref.String())
		}
		node.Config.Spec = resolvedMap
	}
	return nil
}

// validate checks the structural invariants that must hold across the whole
// graph once it is fully linked: well-known kinds, no self-deps (checked
// during derivation), and build-only dependencies for build actions
// (checked during linking). Disabled actions are retained for reference
// resolution but excluded from scheduling by callers via GetActions.
func validate(g *Graph) error {
	for ref, node := range g.nodes {
		if !ref.Kind.Valid() {
			return errs.New(errs.ConfigurationError, "action %s has unknown kind", ref).WithRefs(ref.String())
		}
		if node.Config.Type == "" {
			return errs.New(errs.ConfigurationError, "action %s has no type", ref).WithRefs(ref.String())
		}
	}
	return nil
}
