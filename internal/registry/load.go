package registry

import (
	"sort"

	"github.com/vk/gardenflow/internal/plugin"
)

// CLIExtensions collects every plugin-contributed CLI extension command
// across the registry, sorted by plugin name then command name so the CLI
// surface assembles deterministically regardless of plugin registration
// order.
func (r *Registry) CLIExtensions() []plugin.CLICommand {
	names := make([]string, 0, len(r.plugins))
	for name := range r.plugins {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []plugin.CLICommand
	for _, name := range names {
		cmds := append([]plugin.CLICommand{}, r.plugins[name].CLIExtensions...)
		sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name })
		out = append(out, cmds...)
	}
	return out
}

// ActionTypes returns every action type any registered plugin defines,
// sorted, for CLI help text and config schema error messages.
func (r *Registry) ActionTypes() []string {
	types := make([]string, 0, len(r.owner))
	for t := range r.owner {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
