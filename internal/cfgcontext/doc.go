// Package cfgcontext implements the layered lookup hierarchy that backs
// template resolution: ProjectContext, EnvironmentContext, ProviderOutputs,
// ActionOutputs and RuntimeContext, composed in order so a key defined at
// more than one layer resolves to the first layer that defines it.
//
// Every layer is written exactly once, at graph-build time, and is
// thereafter read-only; only ActionOutputs resolves lazily, since an
// action's outputs are not known until its producing task has run.
package cfgcontext
