// Package httphealth implements the "http_service" Deploy action type: deploy
// starts nothing (the service is assumed already running under whatever
// process manager the project delegates to) and only checks the health
// endpoint once, and getStatus polls a health endpoint to decide whether the
// deployment is ready, unhealthy, or missing.
package httphealth

import (
	"github.com/vk/gardenflow/internal/action"
	"github.com/vk/gardenflow/internal/plugin"
	"github.com/vk/gardenflow/internal/registry"
)

// Module implements registry.Module for the "http_service" Deploy action
// type.
type Module struct{}

func (m *Module) Register(r *registry.Registry) {
	r.RegisterPlugin(&plugin.Plugin{
		Name: "httphealth",
		Defines: []*plugin.Definition{{
			Type: "http_service",
			ConfigKinds: map[action.Kind]*plugin.ActionTypeDef{
				action.Deploy: {
					Kind: action.Deploy,
					Handlers: map[string]plugin.HandlerFunc{
						plugin.Deploy:    deploy,
						plugin.GetStatus: getStatus,
					},
				},
			},
		}},
	})
}
