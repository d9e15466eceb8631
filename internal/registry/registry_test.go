package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/gardenflow/internal/action"
	"github.com/vk/gardenflow/internal/plugin"
)

func noopHandler(label string) plugin.HandlerFunc {
	return func(ctx context.Context, req *plugin.Request) (any, error) {
		return label, nil
	}
}

func TestResolve_MostDerivedWinsOverBase(t *testing.T) {
	r := New()
	base := &plugin.Plugin{
		Name: "base",
		Extends: []*plugin.Definition{{
			Type: "container",
			ConfigKinds: map[action.Kind]*plugin.ActionTypeDef{
				action.Build: {Kind: action.Build, Handlers: map[string]plugin.HandlerFunc{
					plugin.Build: noopHandler("base-build"),
				}},
			},
		}},
	}
	derived := &plugin.Plugin{
		Name: "derived",
		Base: "base",
		Defines: []*plugin.Definition{{
			Type: "container",
			ConfigKinds: map[action.Kind]*plugin.ActionTypeDef{
				action.Build: {Kind: action.Build, Handlers: map[string]plugin.HandlerFunc{
					plugin.Build: noopHandler("derived-build"),
				}},
			},
		}},
	}
	r.RegisterPlugin(base)
	r.RegisterPlugin(derived)

	res, err := r.Resolve("container", action.Build, plugin.Build)
	require.NoError(t, err)
	require.NotNil(t, res.Handler)
	require.NotNil(t, res.Base)

	out, _ := res.Handler(context.Background(), &plugin.Request{})
	assert.Equal(t, "derived-build", out)
	baseOut, _ := res.Base(context.Background(), &plugin.Request{})
	assert.Equal(t, "base-build", baseOut)
}

func TestResolve_OptionalHandlerAbsentIsNoop(t *testing.T) {
	r := New()
	r.RegisterPlugin(&plugin.Plugin{
		Name: "p",
		Defines: []*plugin.Definition{{
			Type: "container",
			ConfigKinds: map[action.Kind]*plugin.ActionTypeDef{
				action.Build: {Kind: action.Build, Handlers: map[string]plugin.HandlerFunc{
					plugin.Build: noopHandler("build"),
				}},
			},
		}},
	})

	res, err := r.Resolve("container", action.Build, plugin.Publish)
	require.NoError(t, err)
	assert.Nil(t, res.Handler)
}

func TestResolve_RequiredHandlerMissingFails(t *testing.T) {
	r := New()
	r.RegisterPlugin(&plugin.Plugin{
		Name: "p",
		Defines: []*plugin.Definition{{
			Type:        "container",
			ConfigKinds: map[action.Kind]*plugin.ActionTypeDef{},
		}},
	})

	_, err := r.Resolve("container", action.Build, plugin.Build)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "plugin-not-implemented")
}

func TestRegisterPlugin_PanicsOnDuplicateActionType(t *testing.T) {
	r := New()
	r.RegisterPlugin(&plugin.Plugin{Name: "a", Defines: []*plugin.Definition{{Type: "container"}}})
	assert.Panics(t, func() {
		r.RegisterPlugin(&plugin.Plugin{Name: "b", Defines: []*plugin.Definition{{Type: "container"}}})
	})
}

func TestValidateRegistry_FlagsUnknownHandlerName(t *testing.T) {
	r := New()
	r.RegisterPlugin(&plugin.Plugin{
		Name: "p",
		Defines: []*plugin.Definition{{
			Type: "container",
			ConfigKinds: map[action.Kind]*plugin.ActionTypeDef{
				action.Build: {Kind: action.Build, Handlers: map[string]plugin.HandlerFunc{
					"frobnicate": noopHandler("x"),
				}},
			},
		}},
	})
	err := r.ValidateRegistry()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "frobnicate")
}
