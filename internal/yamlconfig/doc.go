// Package yamlconfig loads a project's on-disk configuration: a directory
// tree of YAML files, each document declaring exactly one kind of
// Project, Module, Build, Deploy, Run, Test, ConfigTemplate, RenderTemplate
// or Group, per §6. Loader.Load walks the tree and parses every document
// into a Model; Normalize then applies the
// module→action normalization the Graph Builder expects to have already
// happened, and returns the flat []*action.Config configgraph.Build wants.
package yamlconfig
