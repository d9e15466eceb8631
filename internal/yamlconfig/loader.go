package yamlconfig

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/gardenflow/internal/errs"
	"gopkg.in/yaml.v3"
)

// Loader walks one or more directory trees (or single files) and parses
// every *.yaml/*.yml document it finds into a Model.
type Loader struct{}

// NewLoader builds a Loader.
func NewLoader() *Loader { return &Loader{} }

// Load reads every YAML document under paths, in deterministic (sorted)
// file order, and returns the aggregated Model. A parse error anywhere
// aborts the whole load with a ConfigurationError naming the offending
// file, matching §4.3's "any step produces a ConfigurationError... the
// graph is not partially constructed".
func (l *Loader) Load(paths ...string) (*Model, error) {
	var files []string
	for _, p := range paths {
		found, err := collectYAMLFiles(p)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}

	m := &Model{}
	for _, f := range files {
		if err := l.loadFile(f, m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func collectYAMLFiles(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, errs.Wrap(errs.ConfigurationError, err, "cannot read config path %q", root)
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" || strings.HasPrefix(d.Name(), ".garden") {
				return fs.SkipDir
			}
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, errs.Wrap(errs.ConfigurationError, err, "walking config path %q", root)
	}
	return files, nil
}

func (l *Loader) loadFile(path string, m *Model) error {
	f, err := os.Open(path)
	if err != nil {
		return errs.Wrap(errs.ConfigurationError, err, "opening %q", path)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	for {
		var raw rawDoc
		var node yaml.Node
		if err := dec.Decode(&node); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return errs.Wrap(errs.ConfigurationError, err, "parsing %q", path).WithRefs(path)
		}
		if err := node.Decode(&raw); err != nil {
			return errs.Wrap(errs.ConfigurationError, err, "parsing document kind in %q", path).WithRefs(path)
		}

		switch strings.ToLower(raw.Kind) {
		case "":
			continue
		case "project":
			var p projectDoc
			if err := node.Decode(&p); err != nil {
				return errs.Wrap(errs.ConfigurationError, err, "parsing Project in %q", path).WithRefs(path)
			}
			m.Project = &Project{Name: p.Name, DefaultEnvironment: p.DefaultEnvironment, Environments: p.Environments}
		case "group":
			var g groupDoc
			if err := node.Decode(&g); err != nil {
				return errs.Wrap(errs.ConfigurationError, err, "parsing Group in %q", path).WithRefs(path)
			}
			m.Groups = append(m.Groups, &Group{Name: g.Name, Variables: g.Variables, Varfiles: g.Varfiles})
		case "module":
			var mod moduleDoc
			if err := node.Decode(&mod); err != nil {
				return errs.Wrap(errs.ConfigurationError, err, "parsing Module in %q", path).WithRefs(path)
			}
			m.Modules = append(m.Modules, &Module{
				Type: mod.Type, Name: mod.Name, SourcePath: path, Disabled: mod.Disabled,
				Dependencies: mod.Dependencies, Build: mod.Build, Deploy: mod.Deploy,
				Run: mod.Run, Test: mod.Test, Variables: mod.Variables,
			})
		case "build", "deploy", "run", "test":
			var a actionDoc
			if err := node.Decode(&a); err != nil {
				return errs.Wrap(errs.ConfigurationError, err, "parsing %s in %q", raw.Kind, path).WithRefs(path)
			}
			if a.Name == "" {
				return errs.New(errs.ConfigurationError, "%s document in %q is missing a name", raw.Kind, path).WithRefs(path)
			}
			m.Actions = append(m.Actions, &ActionDecl{
				Kind: strings.ToLower(a.Kind), Type: a.Type, Name: a.Name, SourcePath: path,
				Disabled: a.Disabled, Dependencies: a.Dependencies, Build: a.Build,
				Spec: a.Spec, Variables: a.Variables, Timeout: a.Timeout,
			})
		case "configtemplate", "rendertemplate":
			var t map[string]any
			if err := node.Decode(&t); err != nil {
				return errs.Wrap(errs.ConfigurationError, err, "parsing %s in %q", raw.Kind, path).WithRefs(path)
			}
			m.Templates = append(m.Templates, t)
		default:
			return errs.New(errs.ConfigurationError, "unknown document kind %q in %q", raw.Kind, path).WithRefs(path)
		}
	}
	return nil
}
