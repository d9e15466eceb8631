package containerbuild

import (
	"context"

	"github.com/vk/gardenflow/internal/plugin"
)

// getStatus checks whether spec.Reference already resolves in the remote
// registry. It cannot know whether that image matches the current build
// context's content hash — only the result cache can, and the router
// consults the cache before ever calling this handler — so a reachable
// reference is reported ready and an unreachable one missing, letting a
// genuine content change (a cache miss) always fall through to build.
func getStatus(ctx context.Context, req *plugin.Request) (any, error) {
	s, err := specOf(req.Action)
	if err != nil {
		return nil, err
	}
	digest, err := remoteDigest(ctx, s)
	if err != nil {
		return map[string]any{"status": "missing"}, nil
	}
	return map[string]any{
		"status":    "ready",
		"reference": s.Reference,
		"digest":    digest,
	}, nil
}
