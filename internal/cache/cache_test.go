package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vk/gardenflow/internal/action"
)

func TestCache_MissBeforePut(t *testing.T) {
	c := New()
	_, ok := c.Get(action.Build, "api", "v1")
	assert.False(t, ok)
}

func TestCache_HitAfterPut(t *testing.T) {
	c := New()
	c.Put(action.Build, "api", "v1", Entry{Output: map[string]any{"image-id": "sha256:abc"}})

	got, ok := c.Get(action.Build, "api", "v1")
	assert.True(t, ok)
	assert.Equal(t, "sha256:abc", got.Output.(map[string]any)["image-id"])
}

func TestCache_VersionChangeInvalidates(t *testing.T) {
	c := New()
	c.Put(action.Build, "api", "v1", Entry{Output: "old"})

	_, ok := c.Get(action.Build, "api", "v2")
	assert.False(t, ok, "a different version must not see the old version's entry")

	c.Put(action.Build, "api", "v2", Entry{Output: "new"})
	got, ok := c.Get(action.Build, "api", "v2")
	assert.True(t, ok)
	assert.Equal(t, "new", got.Output)
}

func TestCache_DistinctNamesDoNotCollide(t *testing.T) {
	c := New()
	c.Put(action.Deploy, "api", "v1", Entry{Output: "api-output"})
	c.Put(action.Deploy, "worker", "v1", Entry{Output: "worker-output"})

	api, _ := c.Get(action.Deploy, "api", "v1")
	worker, _ := c.Get(action.Deploy, "worker", "v1")
	assert.Equal(t, "api-output", api.Output)
	assert.Equal(t, "worker-output", worker.Output)
}
