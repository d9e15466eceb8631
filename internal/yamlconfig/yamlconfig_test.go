package yamlconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/gardenflow/internal/action"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoad_ParsesActionsAcrossMultiDocFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "api.yaml", `
kind: Build
type: container
name: api
spec:
  dockerfile: Dockerfile
---
kind: Deploy
type: kubernetes
name: api
build: api
spec:
  replicas: 1
`)

	m, err := NewLoader().Load(dir)
	require.NoError(t, err)
	assert.Len(t, m.Actions, 2)

	cfgs, err := Normalize(m)
	require.NoError(t, err)
	require.Len(t, cfgs, 2)

	var deploy *action.Config
	for _, c := range cfgs {
		if c.Ref.Kind == action.Deploy {
			deploy = c
		}
	}
	require.NotNil(t, deploy)
	assert.Contains(t, deploy.Dependencies, action.Ref{Kind: action.Build, Name: "api"})
}

func TestNormalize_SplitsModuleIntoBuildAndDeploy(t *testing.T) {
	m := &Model{
		Modules: []*Module{
			{
				Type: "container",
				Name: "web",
				Build: map[string]any{
					"dockerfile": "Dockerfile",
				},
				Deploy: map[string]any{
					"replicas": 2,
				},
			},
		},
	}

	cfgs, err := Normalize(m)
	require.NoError(t, err)
	require.Len(t, cfgs, 2)

	var build, deploy *action.Config
	for _, c := range cfgs {
		switch c.Ref.Kind {
		case action.Build:
			build = c
		case action.Deploy:
			deploy = c
		}
	}
	require.NotNil(t, build)
	require.NotNil(t, deploy)
	assert.Equal(t, "web", build.Ref.Name)
	assert.Contains(t, deploy.Dependencies, action.Ref{Kind: action.Build, Name: "web"})
}

func TestNormalize_RejectsUnknownDependency(t *testing.T) {
	m := &Model{
		Actions: []*ActionDecl{
			{Kind: "deploy", Type: "kubernetes", Name: "api", Dependencies: []string{"build.missing"}},
		},
	}
	_, err := Normalize(m)
	assert.Error(t, err)
}

func TestLoad_RejectsUnknownDocumentKind(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.yaml", "kind: Whatever\nname: x\n")
	_, err := NewLoader().Load(dir)
	assert.Error(t, err)
}
