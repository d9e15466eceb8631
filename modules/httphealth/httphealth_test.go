package httphealth

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/gardenflow/internal/action"
	"github.com/vk/gardenflow/internal/plugin"
)

func resolvedFor(url string) *action.Resolved {
	return &action.Resolved{
		Config: &action.Config{Ref: action.Ref{Kind: action.Deploy, Name: "api"}, Type: "http_service"},
		Spec:   map[string]any{"health_url": url},
	}
}

func TestGetStatus_ReadyOn2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	out, err := getStatus(context.Background(), &plugin.Request{Log: slog.Default(), Action: resolvedFor(srv.URL)})
	require.NoError(t, err)
	assert.Equal(t, "ready", out.(map[string]any)["status"])
}

func TestGetStatus_UnhealthyOnNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	out, err := getStatus(context.Background(), &plugin.Request{Log: slog.Default(), Action: resolvedFor(srv.URL)})
	require.NoError(t, err)
	assert.Equal(t, "unhealthy", out.(map[string]any)["status"])
}

func TestGetStatus_MissingWhenUnreachable(t *testing.T) {
	out, err := getStatus(context.Background(), &plugin.Request{Log: slog.Default(), Action: resolvedFor("http://127.0.0.1:1")})
	require.NoError(t, err)
	assert.Equal(t, "missing", out.(map[string]any)["status"])
}

func TestSpecOf_RequiresHealthURL(t *testing.T) {
	_, err := specOf(&action.Resolved{
		Config: &action.Config{Ref: action.Ref{Kind: action.Deploy, Name: "api"}},
		Spec:   map[string]any{},
	})
	assert.Error(t, err)
}

func TestDeploy_ReadyWhenHealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	out, err := deploy(context.Background(), &plugin.Request{Log: slog.Default(), Action: resolvedFor(srv.URL)})
	require.NoError(t, err)
	assert.Equal(t, "ready", out.(map[string]any)["status"])
}
