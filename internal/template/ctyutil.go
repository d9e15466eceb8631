package template

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// ToCty converts a plain Go value tree (as produced by a plugin handler or
// decoded config) into its cty.Value equivalent, for callers outside this
// package that need to feed a value into an ActionOutputs producer.
func ToCty(v any) (cty.Value, error) {
	return toCty(v)
}

// FromCty is ToCty's inverse, exported for the same reason.
func FromCty(v cty.Value) any {
	return fromCty(v)
}

// toCty converts a plain Go value (string, float64, bool, nil, []any,
// map[string]any, or an already-cty.Value) into its cty.Value equivalent.
func toCty(v any) (cty.Value, error) {
	switch x := v.(type) {
	case cty.Value:
		return x, nil
	case nil:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case string:
		return cty.StringVal(x), nil
	case bool:
		return cty.BoolVal(x), nil
	case float64:
		return cty.NumberFloatVal(x), nil
	case int:
		return cty.NumberIntVal(int64(x)), nil
	case []any:
		if len(x) == 0 {
			return cty.EmptyTupleVal, nil
		}
		vals := make([]cty.Value, len(x))
		for i, e := range x {
			cv, err := toCty(e)
			if err != nil {
				return cty.NilVal, err
			}
			vals[i] = cv
		}
		return cty.TupleVal(vals), nil
	case map[string]any:
		if len(x) == 0 {
			return cty.EmptyObjectVal, nil
		}
		vals := make(map[string]cty.Value, len(x))
		for k, e := range x {
			cv, err := toCty(e)
			if err != nil {
				return cty.NilVal, err
			}
			vals[k] = cv
		}
		return cty.ObjectVal(vals), nil
	default:
		return cty.NilVal, fmt.Errorf("template: cannot represent %T as a value", v)
	}
}

// fromCty converts a cty.Value back into a plain Go value tree, the inverse
// of toCty, used once resolution has produced a final concrete value.
func fromCty(v cty.Value) any {
	if !v.IsKnown() {
		return nil
	}
	if v.IsNull() {
		return nil
	}
	t := v.Type()
	switch {
	case t == cty.String:
		return v.AsString()
	case t == cty.Bool:
		return v.True()
	case t == cty.Number:
		f, _ := v.AsBigFloat().Float64()
		return f
	case t.IsTupleType() || t.IsListType():
		var out []any
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			out = append(out, fromCty(ev))
		}
		return out
	case t.IsObjectType() || t.IsMapType():
		out := map[string]any{}
		for it := v.ElementIterator(); it.Next(); {
			kv, ev := it.Element()
			out[kv.AsString()] = fromCty(ev)
		}
		return out
	default:
		return nil
	}
}

// truthy mirrors §4.1's use of "truthiness" for `&&`/`||`: null and false are
// falsy, the zero number and the empty string are falsy, everything else
// (including non-empty collections) is truthy.
func truthy(v cty.Value) bool {
	if v.IsNull() || !v.IsKnown() {
		return false
	}
	switch {
	case v.Type() == cty.Bool:
		return v.True()
	case v.Type() == cty.String:
		return v.AsString() != ""
	case v.Type() == cty.Number:
		return !v.Equals(cty.Zero).True()
	default:
		return true
	}
}

// ctyToString renders a cty.Value as it should appear when concatenated into
// a literal template (e.g. `"count: ${n}"`).
func ctyToString(v cty.Value) (string, error) {
	if !v.IsKnown() {
		return "", newErr(ErrTypeMismatch, "", "cannot stringify an unknown value")
	}
	if v.IsNull() {
		return "", nil
	}
	switch {
	case v.Type() == cty.String:
		return v.AsString(), nil
	case v.Type() == cty.Bool:
		if v.True() {
			return "true", nil
		}
		return "false", nil
	case v.Type() == cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			i, _ := bf.Int64()
			return fmt.Sprintf("%d", i), nil
		}
		return bf.Text('f', -1), nil
	default:
		return "", newErr(ErrTypeMismatch, "", "cannot stringify a %s value", v.Type().FriendlyName())
	}
}
