package task

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/gardenflow/internal/action"
	"github.com/vk/gardenflow/internal/cache"
	"github.com/vk/gardenflow/internal/cfgcontext"
	"github.com/vk/gardenflow/internal/configgraph"
	"github.com/vk/gardenflow/internal/ctxlog"
	"github.com/vk/gardenflow/internal/errs"
	"github.com/vk/gardenflow/internal/plugin"
	"github.com/vk/gardenflow/internal/registry"
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

func buildGraph(t *testing.T) *configgraph.Graph {
	configs := []*action.Config{
		{Ref: action.Ref{Kind: action.Build, Name: "api"}, Type: "container", Spec: map[string]any{"dockerfile": "Dockerfile"}},
		{
			Ref:          action.Ref{Kind: action.Deploy, Name: "api"},
			Type:         "kubernetes",
			Dependencies: []action.Ref{{Kind: action.Build, Name: "api"}},
			Spec:         map[string]any{"replicas": 1},
		},
		{
			Ref:          action.Ref{Kind: action.Run, Name: "migrate"},
			Type:         "exec",
			Dependencies: []action.Ref{{Kind: action.Deploy, Name: "api"}},
			Spec:         map[string]any{"cmd": "migrate up"},
		},
	}
	g, err := configgraph.Build(testCtx(), configs, staticRoot())
	require.NoError(t, err)
	return g
}

func TestPrerequisites_DeployIncludesBuildAndDeployStatus(t *testing.T) {
	g := buildGraph(t)
	deployRef := action.Ref{Kind: action.Deploy, Name: "api"}
	buildRef := action.Ref{Kind: action.Build, Name: "api"}

	got := Prerequisites(Deploy, g, deployRef, false, false)
	assert.Contains(t, got, Prereq{Build, buildRef})
	assert.Contains(t, got, Prereq{DeployStatus, deployRef})
}

func TestPrerequisites_RunIncludesDeployAndRunResult(t *testing.T) {
	g := buildGraph(t)
	runRef := action.Ref{Kind: action.Run, Name: "migrate"}
	deployRef := action.Ref{Kind: action.Deploy, Name: "api"}

	got := Prerequisites(Run, g, runRef, false, false)
	assert.Contains(t, got, Prereq{Deploy, deployRef})
	assert.Contains(t, got, Prereq{RunResult, runRef})
}

func TestPrerequisites_RunResultAndTestResultHaveNone(t *testing.T) {
	g := buildGraph(t)
	runRef := action.Ref{Kind: action.Run, Name: "migrate"}
	assert.Empty(t, Prerequisites(RunResult, g, runRef, false, false))
	assert.Empty(t, Prerequisites(TestResult, g, runRef, false, false))
}

func TestPrerequisites_DeleteDeployHonorsDependantsFirst(t *testing.T) {
	g := buildGraph(t)
	deployRef := action.Ref{Kind: action.Deploy, Name: "api"}

	assert.Empty(t, Prerequisites(DeleteDeploy, g, deployRef, false, false))
	// migrate (a Run) is not a Deploy dependant, so deployRef itself has no
	// Deploy-kind dependants to delete first even with the flag set.
	assert.Empty(t, Prerequisites(DeleteDeploy, g, deployRef, true, false))
}

func TestPrerequisites_TestSkipDependenciesUsesStatusNotBuildOrDeploy(t *testing.T) {
	configs := []*action.Config{
		{Ref: action.Ref{Kind: action.Build, Name: "api"}, Type: "container", Spec: map[string]any{}},
		{
			Ref:          action.Ref{Kind: action.Deploy, Name: "api"},
			Type:         "kubernetes",
			Dependencies: []action.Ref{{Kind: action.Build, Name: "api"}},
			Spec:         map[string]any{},
		},
		{
			Ref:          action.Ref{Kind: action.Test, Name: "smoke"},
			Type:         "exec",
			Dependencies: []action.Ref{{Kind: action.Deploy, Name: "api"}},
			Spec:         map[string]any{},
		},
	}
	g, err := configgraph.Build(testCtx(), configs, staticRoot())
	require.NoError(t, err)

	testRef := action.Ref{Kind: action.Test, Name: "smoke"}
	deployRef := action.Ref{Kind: action.Deploy, Name: "api"}

	withDeps := Prerequisites(Test, g, testRef, false, false)
	assert.Contains(t, withDeps, Prereq{Deploy, deployRef})

	skipped := Prerequisites(Test, g, testRef, false, true)
	assert.NotContains(t, skipped, Prereq{Deploy, deployRef})
	assert.Contains(t, skipped, Prereq{DeployStatus, deployRef})
}

func TestExecute_TestSkipDependenciesFailsFastWhenDeployNotReady(t *testing.T) {
	called := false
	reg := registry.New()
	reg.RegisterPlugin(&plugin.Plugin{
		Name: "exec",
		Defines: []*plugin.Definition{{
			Type: "exec",
			ConfigKinds: map[action.Kind]*plugin.ActionTypeDef{
				action.Test: {Kind: action.Test, Handlers: map[string]plugin.HandlerFunc{
					plugin.RunHandler: func(context.Context, *plugin.Request) (any, error) {
						called = true
						return map[string]any{"success": true}, nil
					},
				}},
			},
		}},
	})

	testRef := action.Ref{Kind: action.Test, Name: "smoke"}
	deployRef := action.Ref{Kind: action.Deploy, Name: "api"}
	req := ExecRequest{
		Key:      Key{Type: Test, Ref: testRef, Version: "v1"},
		Resolved: &action.Resolved{Config: &action.Config{Ref: testRef, Type: "exec"}, Spec: map[string]any{}},
		Deps: map[Prereq]*Result{
			{DeployStatus, deployRef}: {Status: StatusMissing},
		},
		Registry: reg,
		Cache:    cache.New(),
	}

	res, err := Execute(testCtx(), Test, req)
	require.NoError(t, err)
	assert.False(t, called, "the test handler must not run when --skip-dependencies finds a non-ready deploy")
	assert.Equal(t, StatusError, res.Status)
	kind, ok := errs.KindOf(res.Err)
	require.True(t, ok)
	assert.Equal(t, errs.NotFoundError, kind)
}

func TestVersions_SameInputsProduceSameVersion(t *testing.T) {
	g1 := buildGraph(t)
	g2 := buildGraph(t)
	ref := action.Ref{Kind: action.Deploy, Name: "api"}

	v1 := NewVersions(g1, staticRoot())
	v2 := NewVersions(g2, staticRoot())

	ver1, err := v1.Of(ref)
	require.NoError(t, err)
	ver2, err := v2.Of(ref)
	require.NoError(t, err)
	assert.Equal(t, ver1, ver2)
	assert.NotEmpty(t, ver1)
}

func TestVersions_DifferingSpecsProduceDifferentVersions(t *testing.T) {
	g := buildGraph(t)
	buildRef := action.Ref{Kind: action.Build, Name: "api"}
	deployRef := action.Ref{Kind: action.Deploy, Name: "api"}

	v := NewVersions(g, staticRoot())
	before, err := v.Of(deployRef)
	require.NoError(t, err)

	g.GetConfig(buildRef).Spec["dockerfile"] = "Dockerfile.changed"
	v2 := NewVersions(g, staticRoot())
	after, err := v2.Of(deployRef)
	require.NoError(t, err)

	assert.NotEqual(t, before, after, "changing a build dependency's spec must change the deploy's version")
}

func TestKey_String(t *testing.T) {
	k := Key{Type: Build, Ref: action.Ref{Kind: action.Build, Name: "api"}, Version: "abc123"}
	assert.Equal(t, "Build:build.api:abc123", k.String())
}

func TestExecute_BuildShortCircuitsOnReadyStatus(t *testing.T) {
	reg := registry.New()
	reg.RegisterPlugin(&plugin.Plugin{
		Name: "container",
		Defines: []*plugin.Definition{{
			Type: "container",
			ConfigKinds: map[action.Kind]*plugin.ActionTypeDef{
				action.Build: {Kind: action.Build, Handlers: map[string]plugin.HandlerFunc{
					plugin.Build: func(context.Context, *plugin.Request) (any, error) {
						t.Fatal("build handler must not be called when status is already ready")
						return nil, nil
					},
				}},
			},
		}},
	})

	ref := action.Ref{Kind: action.Build, Name: "api"}
	key := Key{Type: Build, Ref: ref, Version: "v1"}
	req := ExecRequest{
		Key:      key,
		Resolved: &action.Resolved{Config: &action.Config{Ref: ref, Type: "container"}, Spec: map[string]any{}},
		Deps: map[Prereq]*Result{
			{BuildStatus, ref}: {Status: StatusReady, Output: "cached-output"},
		},
		Registry: reg,
	}

	res, err := Execute(testCtx(), Build, req)
	require.NoError(t, err)
	assert.Equal(t, StatusReady, res.Status)
	assert.Equal(t, "cached-output", res.Output)
}

func TestExecute_BuildCallsHandlerWhenOutdated(t *testing.T) {
	called := false
	reg := registry.New()
	reg.RegisterPlugin(&plugin.Plugin{
		Name: "container",
		Defines: []*plugin.Definition{{
			Type: "container",
			ConfigKinds: map[action.Kind]*plugin.ActionTypeDef{
				action.Build: {Kind: action.Build, Handlers: map[string]plugin.HandlerFunc{
					plugin.Build: func(context.Context, *plugin.Request) (any, error) {
						called = true
						return map[string]any{"image-id": "sha256:xyz"}, nil
					},
				}},
			},
		}},
	})

	ref := action.Ref{Kind: action.Build, Name: "api"}
	key := Key{Type: Build, Ref: ref, Version: "v1"}
	req := ExecRequest{
		Key:      key,
		Resolved: &action.Resolved{Config: &action.Config{Ref: ref, Type: "container"}, Spec: map[string]any{}},
		Deps: map[Prereq]*Result{
			{BuildStatus, ref}: {Status: StatusOutdated},
		},
		Registry: reg,
		Cache:    cache.New(),
	}

	res, err := Execute(testCtx(), Build, req)
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, StatusReady, res.Status)

	entry, ok := req.Cache.Get(action.Build, "api", "v1")
	require.True(t, ok)
	assert.Equal(t, map[string]any{"image-id": "sha256:xyz"}, entry.Output)
}

func TestExecute_RunResultMissesWhenCacheEmpty(t *testing.T) {
	ref := action.Ref{Kind: action.Run, Name: "migrate"}
	req := ExecRequest{
		Key:   Key{Type: RunResult, Ref: ref, Version: "v1"},
		Cache: cache.New(),
	}
	res, err := Execute(testCtx(), RunResult, req)
	require.NoError(t, err)
	assert.Equal(t, StatusMissing, res.Status)
}

func TestExecute_TestResultRespectsSuccessFlag(t *testing.T) {
	ref := action.Ref{Kind: action.Test, Name: "smoke"}
	c := cache.New()
	c.Put(action.Test, "smoke", "v1", cache.Entry{Output: map[string]any{"success": false}})

	req := ExecRequest{
		Key:   Key{Type: TestResult, Ref: ref, Version: "v1"},
		Cache: c,
	}
	res, err := Execute(testCtx(), TestResult, req)
	require.NoError(t, err)
	assert.Equal(t, StatusMissing, res.Status, "a cached failing test run must not be treated as ready")
}

func TestExecute_MissingOptionalGetStatusReturnsUnknown(t *testing.T) {
	reg := registry.New()
	reg.RegisterPlugin(&plugin.Plugin{
		Name:    "container",
		Defines: []*plugin.Definition{{Type: "container", ConfigKinds: map[action.Kind]*plugin.ActionTypeDef{}}},
	})

	ref := action.Ref{Kind: action.Build, Name: "api"}
	req := ExecRequest{
		Key:      Key{Type: BuildStatus, Ref: ref, Version: "v1"},
		Resolved: &action.Resolved{Config: &action.Config{Ref: ref, Type: "container"}, Spec: map[string]any{}},
		Registry: reg,
	}

	res, err := Execute(testCtx(), BuildStatus, req)
	require.NoError(t, err)
	assert.Equal(t, StatusUnknown, res.Status, "getStatus is optional, absence is a typed no-op")
}
