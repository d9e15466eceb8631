// Package devsync owns the dev-mode sync lifecycle (§4.8): mirroring a
// deploy action's local source root into its plugin-managed sync target
// (e.g. a running container's filesystem) on every SourcesChanged event,
// independent of the file watcher that triggers rebuilds.
package devsync
