package cfgcontext

import (
	"github.com/vk/gardenflow/internal/template"
	"github.com/zclconf/go-cty/cty"
)

// StaticLayer is a read-only, fully-resolved map of values, used for the
// ProjectContext, EnvironmentContext and RuntimeContext layers: everything
// they expose is known up front, at graph-build time.
type StaticLayer struct {
	owns   func(head string) bool
	values map[string]cty.Value
}

// NewStaticLayer builds a StaticLayer that only answers for paths whose
// first segment is in owns, keyed by the dotted/indexed-free joined path
// (e.g. "project.name", "var.image_tag").
func NewStaticLayer(owns []string, values map[string]cty.Value) *StaticLayer {
	ownsSet := make(map[string]bool, len(owns))
	for _, o := range owns {
		ownsSet[o] = true
	}
	return &StaticLayer{
		owns:   func(head string) bool { return ownsSet[head] },
		values: values,
	}
}

func (l *StaticLayer) Resolve(path []string) template.Lookup {
	if len(path) == 0 || !l.owns(path[0]) {
		return template.Lookup{}
	}
	key := joinPath(path)
	v, ok := l.values[key]
	if !ok {
		return notFoundLookup("no such key: " + key)
	}
	return foundLookup(v)
}

func joinPath(path []string) string {
	s := path[0]
	for _, p := range path[1:] {
		s += "." + p
	}
	return s
}

// package-local constructors matching template's unexported ones, since
// cfgcontext cannot reach template's package-private Lookup helpers.
func foundLookup(v cty.Value) template.Lookup   { return template.Lookup{Value: v, Found: true} }
func notFoundLookup(msg string) template.Lookup { return template.Lookup{Found: false, Message: msg} }
