package task

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"

	"github.com/vk/gardenflow/internal/action"
	"github.com/vk/gardenflow/internal/configgraph"
	"github.com/vk/gardenflow/internal/errs"
	"github.com/vk/gardenflow/internal/template"
)

// Versions memoizes per-action content hashes across a single resolve pass,
// so a diamond dependency is hashed once no matter how many descendants
// need its version.
type Versions struct {
	graph *configgraph.Graph
	live  template.Context
	cache map[action.Ref]string
}

// NewVersions creates a Versions calculator over graph, resolving live specs
// through live (typically the solver's own context, so a version reflects
// dependency outputs as they become known).
func NewVersions(graph *configgraph.Graph, live template.Context) *Versions {
	return &Versions{graph: graph, live: live, cache: make(map[action.Ref]string)}
}

// Of returns ref's version: the content hash of its resolved spec plus the
// (already-hashed) versions of every action it depends on, computed
// bottom-up so identical inputs always produce the identical version,
// regardless of evaluation order.
func (v *Versions) Of(ref action.Ref) (string, error) {
	if ver, ok := v.cache[ref]; ok {
		return ver, nil
	}

	deps := v.graph.GetDependencies(ref, false)
	sort.Slice(deps, func(i, j int) bool { return deps[i].Less(deps[j]) })

	depVersions := make([]string, 0, len(deps))
	for _, dep := range deps {
		dv, err := v.Of(dep)
		if err != nil {
			return "", err
		}
		depVersions = append(depVersions, dv)
	}

	resolved, err := v.graph.Resolve(ref, v.live)
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(struct {
		Spec        map[string]any `json:"spec"`
		DepVersions []string       `json:"dep_versions"`
	}{Spec: resolved.Spec, DepVersions: depVersions})
	if err != nil {
		return "", errs.Wrap(errs.InternalError, err, "hashing resolved spec of %s", ref)
	}

	sum := sha256.Sum256(payload)
	ver := hex.EncodeToString(sum[:])
	v.cache[ref] = ver
	return ver, nil
}

// Key builds a fully-versioned Key for (t, ref).
func (v *Versions) Key(t Type, ref action.Ref) (Key, error) {
	ver, err := v.Of(ref)
	if err != nil {
		return Key{}, err
	}
	return Key{Type: t, Ref: ref, Version: ver}, nil
}
