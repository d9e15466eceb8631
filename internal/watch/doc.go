// Package watch implements the Watch & Reconcile Loop (§4.8): a
// fsnotify-backed file watcher over every action's source root, an
// in-process event bus carrying the request/config-change events the loop
// reacts to, and the loop itself, which re-derives task sets via a
// caller-supplied change handler and re-enters after config-changed
// restarts.
package watch
