package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

// mapContext is a flat, fully-resolved Context backed by a map, used to
// exercise the resolver without pulling in the real Config Context stack.
type mapContext map[string]cty.Value

func (m mapContext) Resolve(path []string) Lookup {
	key := path[0]
	for _, p := range path[1:] {
		key += "." + p
	}
	if v, ok := m[key]; ok {
		return found(v)
	}
	return notFound("no such key: " + key)
}

func TestResolve_Literal(t *testing.T) {
	out, err := Resolve("hello world", mapContext{}, Options{})
	require.NoError(t, err)
	assert.Equal(t, "hello world", out)
}

func TestResolve_SoleExprPreservesType(t *testing.T) {
	ctx := mapContext{"count": cty.NumberIntVal(3)}
	out, err := Resolve("${count}", ctx, Options{})
	require.NoError(t, err)
	assert.Equal(t, float64(3), out)
}

func TestResolve_Concatenation(t *testing.T) {
	ctx := mapContext{"name": cty.StringVal("api")}
	out, err := Resolve("service-${name}-v1", ctx, Options{})
	require.NoError(t, err)
	assert.Equal(t, "service-api-v1", out)
}

func TestResolve_OrFallback(t *testing.T) {
	ctx := mapContext{}
	out, err := Resolve("${missing || \"default\"}", ctx, Options{})
	require.NoError(t, err)
	assert.Equal(t, "default", out)
}

func TestResolve_MissingKeyFails(t *testing.T) {
	_, err := Resolve("${missing}", mapContext{}, Options{})
	require.Error(t, err)
	var terr *Error
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, ErrMissingKey, terr.Kind)
}

func TestResolve_OptionalMissingIsEmpty(t *testing.T) {
	out, err := Resolve("x${missing}?y", mapContext{}, Options{})
	require.NoError(t, err)
	assert.Equal(t, "xy", out)
}

func TestResolve_PartialFallsBackToSource(t *testing.T) {
	out, err := Resolve("a${missing}b", mapContext{}, Options{AllowPartial: true})
	require.NoError(t, err)
	assert.Equal(t, "a${missing}b", out)
}

func TestResolve_PartialThenFull(t *testing.T) {
	src := "a${x}b${y}c"
	partial, err := Resolve(src, mapContext{"x": cty.StringVal("X")}, Options{AllowPartial: true})
	require.NoError(t, err)
	assert.Equal(t, "aXb${y}c", partial)

	full, err := Resolve(partial.(string), mapContext{"x": cty.StringVal("X"), "y": cty.StringVal("Y")}, Options{})
	require.NoError(t, err)
	assert.Equal(t, "aXbYc", full)
}

func TestResolve_EscapeRoundTrip(t *testing.T) {
	out, err := Resolve("$${x}", mapContext{}, Options{Unescape: true})
	require.NoError(t, err)
	assert.Equal(t, "${x}", out)
}

func TestResolve_EscapeIdempotent(t *testing.T) {
	first, err := Resolve("$${x}", mapContext{}, Options{})
	require.NoError(t, err)
	second, err := Resolve(first.(string), mapContext{}, Options{})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestResolve_Conditional(t *testing.T) {
	ctx := mapContext{"enabled": cty.True}
	out, err := Resolve("${if enabled}on${else}off${endif}", ctx, Options{})
	require.NoError(t, err)
	assert.Equal(t, "on", out)

	ctx2 := mapContext{"enabled": cty.False}
	out2, err := Resolve("${if enabled}on${else}off${endif}", ctx2, Options{})
	require.NoError(t, err)
	assert.Equal(t, "off", out2)
}

func TestResolve_UnmatchedElse(t *testing.T) {
	_, err := Resolve("${else}", mapContext{}, Options{})
	require.Error(t, err)
	var terr *Error
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, ErrTemplateStructure, terr.Kind)
}

func TestResolve_MissingEndif(t *testing.T) {
	_, err := Resolve("${if x}a", mapContext{"x": cty.True}, Options{})
	require.Error(t, err)
	var terr *Error
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, ErrTemplateStructure, terr.Kind)
}

func TestResolve_ArithmeticAndIndex(t *testing.T) {
	ctx := mapContext{
		"a":     cty.NumberIntVal(2),
		"b":     cty.NumberIntVal(3),
		"items": cty.TupleVal([]cty.Value{cty.StringVal("x"), cty.StringVal("y")}),
	}
	out, err := Resolve("${a + b}", ctx, Options{})
	require.NoError(t, err)
	assert.Equal(t, float64(5), out)

	out2, err := Resolve("${items[1]}", ctx, Options{})
	require.NoError(t, err)
	assert.Equal(t, "y", out2)
}

func TestScan_RecordsAllReferences(t *testing.T) {
	sr, err := Scan("${if cond}${a}${else}${b}${endif}", mapContext{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"cond", "a", "b"}, sr.FoundKeys())
}

func TestScan_NeverFails(t *testing.T) {
	_, err := Scan("${missing.deeply.nested}", mapContext{})
	require.NoError(t, err)
}
