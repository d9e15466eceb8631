// Package cache implements the process-local Result Cache: the latest
// successful result per (kind, name, version), used by the *Status/*Result
// tasks to short-circuit their corresponding action. There is no
// persistence and no time-based expiry; an entry stops being reachable the
// moment an action's version changes, which is the only invalidation this
// cache needs.
package cache
