// Package containerbuild implements the "container" Build action type: it
// packages a build context directory into a single-layer OCI image and
// pushes it to a registry, and answers getStatus by checking whether the
// target reference already resolves in the remote registry; the remote
// digest is not compared with the image a build would produce.
package containerbuild

import (
	"github.com/vk/gardenflow/internal/action"
	"github.com/vk/gardenflow/internal/plugin"
	"github.com/vk/gardenflow/internal/registry"
)

// Module implements registry.Module for the "container" Build action type.
type Module struct{}

func (m *Module) Register(r *registry.Registry) {
	r.RegisterPlugin(&plugin.Plugin{
		Name: "containerbuild",
		Defines: []*plugin.Definition{{
			Type: "container",
			ConfigKinds: map[action.Kind]*plugin.ActionTypeDef{
				action.Build: {
					Kind: action.Build,
					Handlers: map[string]plugin.HandlerFunc{
						plugin.Build:     build,
						plugin.GetStatus: getStatus,
						plugin.Publish:   publish,
					},
				},
			},
		}},
	})
}
