// Package template implements the `${a.b.c}` expression language used
// throughout action specs: literal/clause concatenation, conditional blocks
// (`${if}...${else}...${endif}`), arithmetic, comparison and logical
// operators, and the `}?` optional-reference suffix.
//
// Resolution is a pure function of (source, Context, Options). There is no
// AST caching between calls: laziness is achieved by re-running Resolve with
// a progressively richer Context, not by memoizing a partially-evaluated
// tree. Values flow as cty.Value so that "unresolved" has a principled
// representation (cty.DynamicVal) instead of a sentinel error path.
package template
