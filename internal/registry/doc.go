// Package registry implements the Plugin Registry & Handler Router: it
// stores every registered plugin's action-type definitions and extensions,
// and resolves (action_type, handler_name) pairs to the most-derived
// handler plus a reference to the implementation it overrides, walking
// each plugin's base chain.
//
// A plugin is plain Go code that registers itself at startup (mirroring how
// the core's own modules self-register); there is no separate manifest file
// to keep in sync, so the registry's job is purely bookkeeping and
// resolution, not the cross-checking its HCL-era ancestor used to do.
package registry
