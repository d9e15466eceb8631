// Package configgraph builds the immutable ConfigGraph from a set of parsed
// action configs: it derives implicit dependencies from template references
// into other actions' outputs, topologically orders and resolves every
// action spec, validates the result, and exposes the read-only accessors the
// rest of the system queries the graph through.
package configgraph
