// Package action defines the typed action model: the four action kinds, their
// globally-unique references, and the immutable configuration that a Graph
// Builder produces for each of them.
package action

import (
	"fmt"
	"strings"
)

// Kind is one of the four action kinds a project can declare.
type Kind string

const (
	Build  Kind = "build"
	Deploy Kind = "deploy"
	Run    Kind = "run"
	Test   Kind = "test"
)

// Valid reports whether k is one of the four recognized kinds.
func (k Kind) Valid() bool {
	switch k {
	case Build, Deploy, Run, Test:
		return true
	default:
		return false
	}
}

// Ref is a globally-unique reference to an action within a project: the pair
// (kind, name). Build and Deploy/Run/Test actions live in independent
// namespaces per kind, so "build.api" and "deploy.api" are distinct actions.
type Ref struct {
	Kind Kind
	Name string
}

// String renders the canonical "<kind>.<name>" form used in dependency lists,
// task keys, and template paths like "actions.build.api.outputs.image-id".
func (r Ref) String() string {
	return string(r.Kind) + "." + r.Name
}

// ParseRef parses the canonical "<kind>.<name>" form. Build dependencies may
// also be written as the shorthand "build.<name>" used directly as a Deploy's
// `build` field, which this function accepts identically.
func ParseRef(s string) (Ref, error) {
	parts := strings.SplitN(s, ".", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Ref{}, fmt.Errorf("action: invalid reference %q, expected \"<kind>.<name>\"", s)
	}
	k := Kind(parts[0])
	if !k.Valid() {
		return Ref{}, fmt.Errorf("action: invalid reference %q, unknown kind %q", s, parts[0])
	}
	return Ref{Kind: k, Name: parts[1]}, nil
}

// Less provides a deterministic total order over refs, used wherever action
// sets must be iterated or logged in a stable order.
func (r Ref) Less(other Ref) bool {
	if r.Kind != other.Kind {
		return r.Kind < other.Kind
	}
	return r.Name < other.Name
}

// Config is the immutable, resolution-independent description of an action as
// produced by the config loader and normalized by the Graph Builder. Its Spec
// tree may still contain unresolved template expressions; Dependencies is the
// union of declared dependencies and dependencies implied by template
// references into other actions' outputs.
type Config struct {
	Ref          Ref
	Type         string
	SourcePath   string
	Dependencies []Ref
	Spec         map[string]any
	Disabled     bool
	Timeout      int // seconds; 0 means "no explicit timeout"
	Variables    map[string]any
	// TemplateRefs is the set of context key paths (e.g.
	// "actions.build.api.outputs.image-id") discovered by scanning Spec in
	// partial-resolution mode. It drives implicit dependency inference and
	// re-resolution after a dependency completes.
	TemplateRefs []string
}

// Resolved is a Config whose Spec has been fully evaluated against a
// particular Context snapshot. It is produced lazily, once per task that
// needs it, and is never cached across context snapshots because outputs may
// change between runs.
type Resolved struct {
	Config *Config
	Spec   map[string]any
}

// DependsOnlyOnBuilds reports whether every entry in deps is a Build
// reference. Build actions may only depend on other Build actions (see
// ConfigGraph invariants).
func DependsOnlyOnBuilds(deps []Ref) bool {
	for _, d := range deps {
		if d.Kind != Build {
			return false
		}
	}
	return true
}
