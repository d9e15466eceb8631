package containerbuild

import (
	"fmt"

	"github.com/vk/gardenflow/internal/action"
)

// spec is the "container" Build action's spec fields.
type spec struct {
	// Context is the build context directory packaged into the image layer.
	Context string
	// Reference is the full image reference the build pushes to, e.g.
	// "registry.example.com/api:latest".
	Reference string
	// Insecure allows pushing to a plain-HTTP registry.
	Insecure bool
}

func specOf(a *action.Resolved) (spec, error) {
	var s spec
	ctxDir, ok := a.Spec["context"].(string)
	if !ok || ctxDir == "" {
		return s, fmt.Errorf("container build %s: spec.context is required", a.Config.Ref)
	}
	ref, ok := a.Spec["reference"].(string)
	if !ok || ref == "" {
		return s, fmt.Errorf("container build %s: spec.reference is required", a.Config.Ref)
	}
	s.Context = ctxDir
	s.Reference = ref
	if insecure, ok := a.Spec["insecure"].(bool); ok {
		s.Insecure = insecure
	}
	return s, nil
}
