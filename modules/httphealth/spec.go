package httphealth

import (
	"fmt"
	"time"

	"github.com/vk/gardenflow/internal/action"
)

// spec is the "http_service" Deploy action's spec fields.
type spec struct {
	// HealthURL is polled by getStatus; a 2xx response means healthy.
	HealthURL string
	// Timeout bounds a single health check request.
	Timeout time.Duration
}

func specOf(a *action.Resolved) (spec, error) {
	var s spec
	url, ok := a.Spec["health_url"].(string)
	if !ok || url == "" {
		return s, fmt.Errorf("http_service deploy %s: spec.health_url is required", a.Config.Ref)
	}
	s.HealthURL = url
	s.Timeout = 5 * time.Second
	if secs, ok := a.Spec["timeout_seconds"].(float64); ok && secs > 0 {
		s.Timeout = time.Duration(secs * float64(time.Second))
	}
	return s, nil
}
