package yamlconfig

import (
	"github.com/vk/gardenflow/internal/action"
	"github.com/vk/gardenflow/internal/errs"
)

// Normalize turns a parsed Model into the flat []*action.Config
// configgraph.Build expects: legacy Module documents are split into one
// Build plus zero or more Deploy/Run/Test actions (§4.3 step 1), and every
// declared dependency string is resolved into an action.Ref.
func Normalize(m *Model) ([]*action.Config, error) {
	var cfgs []*action.Config

	for _, mod := range m.Modules {
		split, err := splitModule(mod)
		if err != nil {
			return nil, err
		}
		cfgs = append(cfgs, split...)
	}

	for _, a := range m.Actions {
		cfg, err := actionToConfig(a)
		if err != nil {
			return nil, err
		}
		cfgs = append(cfgs, cfg)
	}

	if err := resolveDependencies(cfgs); err != nil {
		return nil, err
	}
	return cfgs, nil
}

func actionToConfig(a *ActionDecl) (*action.Config, error) {
	kind := action.Kind(a.Kind)
	if !kind.Valid() {
		return nil, errs.New(errs.ConfigurationError, "unknown action kind %q for %q", a.Kind, a.Name).WithRefs(a.Name)
	}
	cfg := &action.Config{
		Ref:        action.Ref{Kind: kind, Name: a.Name},
		Type:       a.Type,
		SourcePath: a.SourcePath,
		Spec:       a.Spec,
		Disabled:   a.Disabled,
		Timeout:    a.Timeout,
		Variables:  a.Variables,
	}
	if a.Build != "" && kind != action.Build {
		cfg.Dependencies = append(cfg.Dependencies, action.Ref{Kind: action.Build, Name: a.Build})
	}
	for _, dep := range a.Dependencies {
		ref, err := action.ParseRef(dep)
		if err != nil {
			return nil, errs.Wrap(errs.ConfigurationError, err, "invalid dependency %q on %s.%s", dep, a.Kind, a.Name).WithRefs(a.Name)
		}
		cfg.Dependencies = append(cfg.Dependencies, ref)
	}
	return cfg, nil
}

// splitModule converts one legacy Module document into a Build action (the
// module's own type/build spec) plus a Deploy/Run/Test action per populated
// sub-block, each depending on the module's Build. A module with no build
// block (pure Deploy/Run/Test wrapper) produces no Build action; its
// sub-actions then carry no implicit build dependency.
func splitModule(mod *Module) ([]*action.Config, error) {
	var out []*action.Config
	buildName := mod.Name

	deps := make([]action.Ref, 0, len(mod.Dependencies))
	for _, dep := range mod.Dependencies {
		ref, err := action.ParseRef(dep)
		if err != nil {
			return nil, errs.Wrap(errs.ConfigurationError, err, "invalid dependency %q on module %q", dep, mod.Name).WithRefs(mod.Name)
		}
		deps = append(deps, ref)
	}

	hasBuild := mod.Build != nil
	if hasBuild {
		out = append(out, &action.Config{
			Ref:          action.Ref{Kind: action.Build, Name: buildName},
			Type:         mod.Type,
			SourcePath:   mod.SourcePath,
			Dependencies: deps,
			Spec:         mod.Build,
			Disabled:     mod.Disabled,
			Variables:    mod.Variables,
		})
	}

	addSub := func(kind action.Kind, spec map[string]any) {
		if spec == nil {
			return
		}
		subDeps := append([]action.Ref{}, deps...)
		if hasBuild {
			subDeps = append(subDeps, action.Ref{Kind: action.Build, Name: buildName})
		}
		out = append(out, &action.Config{
			Ref:          action.Ref{Kind: kind, Name: buildName},
			Type:         mod.Type,
			SourcePath:   mod.SourcePath,
			Dependencies: subDeps,
			Spec:         spec,
			Disabled:     mod.Disabled,
			Variables:    mod.Variables,
		})
	}
	addSub(action.Deploy, mod.Deploy)
	addSub(action.Run, mod.Run)
	addSub(action.Test, mod.Test)

	return out, nil
}

// resolveDependencies validates that every dependency ref named by a config
// actually exists among cfgs, surfacing the same ConfigurationError shape
// configgraph.Build itself would, but early enough to name the declaring
// document's source path.
func resolveDependencies(cfgs []*action.Config) error {
	exists := make(map[action.Ref]bool, len(cfgs))
	for _, c := range cfgs {
		exists[c.Ref] = true
	}
	for _, c := range cfgs {
		for _, dep := range c.Dependencies {
			if !exists[dep] {
				return errs.New(errs.ConfigurationError, "action %s depends on unknown action %s", c.Ref, dep).WithRefs(c.Ref.String(), dep.String())
			}
		}
	}
	return nil
}
