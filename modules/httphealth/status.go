package httphealth

import (
	"context"

	"github.com/vk/gardenflow/internal/plugin"
	"resty.dev/v3"
)

// getStatus polls the health endpoint and maps the response to one of the
// statuses §4.4 recognizes for Deploy: ready on 2xx, unhealthy on any other
// response, missing if the endpoint cannot be reached at all.
func getStatus(ctx context.Context, req *plugin.Request) (any, error) {
	s, err := specOf(req.Action)
	if err != nil {
		return nil, err
	}

	client := resty.New().SetTimeout(s.Timeout)
	defer client.Close()

	resp, err := client.R().SetContext(ctx).Get(s.HealthURL)
	if err != nil {
		return map[string]any{"status": "missing", "health_url": s.HealthURL}, nil
	}

	if resp.StatusCode() >= 200 && resp.StatusCode() < 300 {
		return map[string]any{"status": "ready", "health_url": s.HealthURL}, nil
	}
	return map[string]any{"status": "unhealthy", "health_url": s.HealthURL, "status_code": resp.StatusCode()}, nil
}
