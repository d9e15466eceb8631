package cache

import (
	"sync"
	"time"

	"github.com/vk/gardenflow/internal/action"
)

// Entry is the cached record of a task's last successful completion. It is
// intentionally smaller than task.Result: the cache does not remember a
// result's status, only the output a later status/result lookup can reuse.
type Entry struct {
	Output      any
	Log         string
	CompletedAt time.Time
}

type key struct {
	Kind    action.Kind
	Name    string
	Version string
}

// Cache is a process-local, thread-safe store of the latest successful
// result per (kind, name, version). It is created once per session and
// never persisted. It is backed by a sync.Map because the writer (a worker
// finishing a task) and
// the reader (a status/result task starting elsewhere) run concurrently and
// each key is independent, so a single global mutex would serialize
// unrelated lookups for no benefit.
type Cache struct {
	entries sync.Map // key -> Entry
}

// New creates an empty Cache.
func New() *Cache {
	return &Cache{}
}

// Get returns the cached entry for (kind, name, version), if any. A miss
// means either the action has never completed successfully, or it has only
// ever completed at a different version — both cases the caller treats as
// "no usable result".
func (c *Cache) Get(kind action.Kind, name, version string) (Entry, bool) {
	v, ok := c.entries.Load(key{Kind: kind, Name: name, Version: version})
	if !ok {
		return Entry{}, false
	}
	return v.(Entry), true
}

// Put records e as the latest successful result for (kind, name, version).
// Called on successful completion of a Build/Deploy/Run/Test task.
func (c *Cache) Put(kind action.Kind, name, version string, e Entry) {
	c.entries.Store(key{Kind: kind, Name: name, Version: version}, e)
}
