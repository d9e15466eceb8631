package configgraph

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/gardenflow/internal/action"
	"github.com/vk/gardenflow/internal/cfgcontext"
	"github.com/vk/gardenflow/internal/ctxlog"
	"github.com/vk/gardenflow/internal/errs"
	"github.com/zclconf/go-cty/cty"
)

func testCtx() context.Context {
	return ctxlog.WithLogger(context.Background(), slog.Default())
}

func staticRoot() *cfgcontext.Composite {
	return cfgcontext.Root(nil, nil, nil, func(action.Ref) (cty.Value, error) {
		return cty.DynamicVal, nil
	}, nil)
}

func TestBuild_DeclaredDependenciesMatchEffective(t *testing.T) {
	configs := []*action.Config{
		{Ref: action.Ref{Kind: action.Build, Name: "api"}, Type: "container", Spec: map[string]any{}},
		{
			Ref:          action.Ref{Kind: action.Deploy, Name: "api"},
			Type:         "kubernetes",
			Dependencies: []action.Ref{{Kind: action.Build, Name: "api"}},
			Spec:         map[string]any{"image": "static"},
		},
	}
	g, err := Build(testCtx(), configs, staticRoot())
	require.NoError(t, err)

	deployRef := action.Ref{Kind: action.Deploy, Name: "api"}
	buildRef := action.Ref{Kind: action.Build, Name: "api"}
	assert.ElementsMatch(t, []action.Ref{buildRef}, g.GetDependencies(deployRef, false))
	assert.ElementsMatch(t, []action.Ref{deployRef}, g.GetDependants(buildRef, false))
}

func TestBuild_DerivesImplicitDependencyFromOutputsRef(t *testing.T) {
	configs := []*action.Config{
		{Ref: action.Ref{Kind: action.Build, Name: "api"}, Type: "container", Spec: map[string]any{}},
		{
			Ref:  action.Ref{Kind: action.Deploy, Name: "api"},
			Type: "kubernetes",
			Spec: map[string]any{"image": "${actions.build.api.outputs.image-id}"},
		},
	}
	g, err := Build(testCtx(), configs, staticRoot())
	require.NoError(t, err)

	deployRef := action.Ref{Kind: action.Deploy, Name: "api"}
	buildRef := action.Ref{Kind: action.Build, Name: "api"}
	assert.ElementsMatch(t, []action.Ref{buildRef}, g.GetDependencies(deployRef, false))
}

func TestBuild_DependantsAndDependenciesAreInverses(t *testing.T) {
	configs := []*action.Config{
		{Ref: action.Ref{Kind: action.Build, Name: "a"}, Type: "t", Spec: map[string]any{}},
		{Ref: action.Ref{Kind: action.Build, Name: "b"}, Type: "t", Dependencies: []action.Ref{{Kind: action.Build, Name: "a"}}, Spec: map[string]any{}},
		{Ref: action.Ref{Kind: action.Build, Name: "c"}, Type: "t", Dependencies: []action.Ref{{Kind: action.Build, Name: "b"}}, Spec: map[string]any{}},
	}
	g, err := Build(testCtx(), configs, staticRoot())
	require.NoError(t, err)

	a := action.Ref{Kind: action.Build, Name: "a"}
	c := action.Ref{Kind: action.Build, Name: "c"}
	assert.ElementsMatch(t, []action.Ref{a, {Kind: action.Build, Name: "b"}}, g.GetDependencies(c, true))
	assert.ElementsMatch(t, []action.Ref{c, {Kind: action.Build, Name: "b"}}, g.GetDependants(a, true))
}

func TestBuild_DetectsCycle(t *testing.T) {
	configs := []*action.Config{
		{Ref: action.Ref{Kind: action.Run, Name: "a"}, Type: "t", Dependencies: []action.Ref{{Kind: action.Run, Name: "b"}}, Spec: map[string]any{}},
		{Ref: action.Ref{Kind: action.Run, Name: "b"}, Type: "t", Dependencies: []action.Ref{{Kind: action.Run, Name: "a"}}, Spec: map[string]any{}},
	}
	_, err := Build(testCtx(), configs, staticRoot())
	require.Error(t, err)
	kind, ok := errs.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, errs.ConfigurationError, kind)

	var e *errs.Error
	require.ErrorAs(t, err, &e)
	assert.Contains(t, e.Refs, action.Ref{Kind: action.Run, Name: "a"}.String(), "the cycle error must name both offending refs")
	assert.Contains(t, e.Refs, action.Ref{Kind: action.Run, Name: "b"}.String(), "the cycle error must name both offending refs")
}

func TestBuild_DetectsThreeNodeCycle(t *testing.T) {
	configs := []*action.Config{
		{Ref: action.Ref{Kind: action.Run, Name: "a"}, Type: "t", Dependencies: []action.Ref{{Kind: action.Run, Name: "b"}}, Spec: map[string]any{}},
		{Ref: action.Ref{Kind: action.Run, Name: "b"}, Type: "t", Dependencies: []action.Ref{{Kind: action.Run, Name: "c"}}, Spec: map[string]any{}},
		{Ref: action.Ref{Kind: action.Run, Name: "c"}, Type: "t", Dependencies: []action.Ref{{Kind: action.Run, Name: "a"}}, Spec: map[string]any{}},
	}
	_, err := Build(testCtx(), configs, staticRoot())
	require.Error(t, err)
	kind, ok := errs.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, errs.ConfigurationError, kind)

	var e *errs.Error
	require.ErrorAs(t, err, &e)
	assert.Contains(t, e.Refs, action.Ref{Kind: action.Run, Name: "a"}.String(), "the cycle error must name every ref on a longer cycle too")
	assert.Contains(t, e.Refs, action.Ref{Kind: action.Run, Name: "b"}.String(), "the cycle error must name every ref on a longer cycle too")
	assert.Contains(t, e.Refs, action.Ref{Kind: action.Run, Name: "c"}.String(), "the cycle error must name every ref on a longer cycle too")
}

func TestBuild_RejectsBuildDependingOnNonBuild(t *testing.T) {
	configs := []*action.Config{
		{Ref: action.Ref{Kind: action.Deploy, Name: "d"}, Type: "t", Spec: map[string]any{}},
		{Ref: action.Ref{Kind: action.Build, Name: "b"}, Type: "t", Dependencies: []action.Ref{{Kind: action.Deploy, Name: "d"}}, Spec: map[string]any{}},
	}
	_, err := Build(testCtx(), configs, staticRoot())
	require.Error(t, err)
}

func TestBuild_RejectsUnknownDependency(t *testing.T) {
	configs := []*action.Config{
		{Ref: action.Ref{Kind: action.Run, Name: "a"}, Type: "t", Dependencies: []action.Ref{{Kind: action.Run, Name: "ghost"}}, Spec: map[string]any{}},
	}
	_, err := Build(testCtx(), configs, staticRoot())
	require.Error(t, err)
}

func TestBuild_ResolvesStaticSpecFields(t *testing.T) {
	configs := []*action.Config{
		{Ref: action.Ref{Kind: action.Run, Name: "a"}, Type: "t", Spec: map[string]any{"cmd": "echo hi"}},
	}
	g, err := Build(testCtx(), configs, staticRoot())
	require.NoError(t, err)
	cfg := g.GetConfig(action.Ref{Kind: action.Run, Name: "a"})
	require.NotNil(t, cfg)
	assert.Equal(t, "echo hi", cfg.Spec["cmd"])
}
