package httphealth

import (
	"context"

	"github.com/vk/gardenflow/internal/plugin"
	"resty.dev/v3"
)

// deploy has nothing to stand the service up itself — the project is
// expected to already run it — so it just validates the spec and confirms
// the health endpoint is at least reachable before reporting ready.
func deploy(ctx context.Context, req *plugin.Request) (any, error) {
	s, err := specOf(req.Action)
	if err != nil {
		return nil, err
	}

	client := resty.New().SetTimeout(s.Timeout)
	defer client.Close()

	resp, err := client.R().SetContext(ctx).Get(s.HealthURL)
	if err != nil {
		req.Log.Warn("httphealth: health endpoint unreachable at deploy time.", "url", s.HealthURL, "err", err)
		return map[string]any{"status": "unhealthy", "health_url": s.HealthURL}, nil
	}

	if resp.StatusCode() >= 200 && resp.StatusCode() < 300 {
		return map[string]any{"status": "ready", "health_url": s.HealthURL}, nil
	}
	return map[string]any{"status": "unhealthy", "health_url": s.HealthURL, "status_code": resp.StatusCode()}, nil
}
