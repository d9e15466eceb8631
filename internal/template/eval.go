package template

import (
	"strconv"

	"github.com/zclconf/go-cty/cty"
)

// outcome is the result of evaluating an Expr: either a concrete value, or
// "missing" (an identifier path that the Context does not yet resolve).
// Missing never carries an error by itself — whether it becomes an error
// depends on where it surfaces (see renderBlock and resolveWithScan).
type outcome struct {
	value   cty.Value
	missing bool
}

func evalExpr(e Expr, ctx Context, scan *ScanResult) (outcome, error) {
	switch x := e.(type) {
	case *LiteralExpr:
		v, err := toCty(x.Value)
		return outcome{value: v}, err

	case *PathExpr:
		path := make([]string, len(x.Segments))
		for i, seg := range x.Segments {
			path[i] = seg.Name
		}
		if scan != nil {
			scan.record(pathKey(x.Segments))
		}
		lookup := ctx.Resolve(path)
		if !lookup.Found || lookup.Partial {
			return outcome{missing: true}, nil
		}
		val := lookup.Value
		// Apply any trailing index segments (e.g. `a.b[0]`).
		for _, seg := range x.Segments {
			if seg.HasIdx {
				if !(val.Type().IsTupleType() || val.Type().IsListType()) {
					return outcome{}, newErr(ErrTypeMismatch, pathKey(x.Segments), "cannot index into a %s value", val.Type().FriendlyName())
				}
				idx := cty.NumberIntVal(int64(seg.Idx))
				if !val.HasIndex(idx).True() {
					return outcome{missing: true}, nil
				}
				val = val.Index(idx)
			}
		}
		return outcome{value: val}, nil

	case *UnaryExpr:
		xo, err := evalExpr(x.X, ctx, scan)
		if err != nil {
			return outcome{}, err
		}
		if xo.missing {
			return xo, nil
		}
		switch x.Op {
		case "!":
			return outcome{value: cty.BoolVal(!truthy(xo.value))}, nil
		}
		return outcome{}, newErr(ErrTypeMismatch, "", "unknown unary operator %q", x.Op)

	case *BinaryExpr:
		return evalBinary(x, ctx, scan)

	default:
		return outcome{}, newErr(ErrTemplateStructure, "", "unknown expression node %T", e)
	}
}

func pathKey(segs []PathSegment) string {
	s := ""
	for i, seg := range segs {
		if i > 0 {
			s += "."
		}
		s += seg.Name
		if seg.HasIdx {
			s += "[" + strconv.Itoa(seg.Idx) + "]"
		}
	}
	return s
}

func evalBinary(x *BinaryExpr, ctx Context, scan *ScanResult) (outcome, error) {
	switch x.Op {
	case "&&":
		xo, err := evalExpr(x.X, ctx, scan)
		if err != nil {
			return outcome{}, err
		}
		if xo.missing || !truthy(xo.value) {
			return xo, nil
		}
		return evalExpr(x.Y, ctx, scan)

	case "||":
		xo, err := evalExpr(x.X, ctx, scan)
		if err != nil {
			return outcome{}, err
		}
		if !xo.missing && truthy(xo.value) {
			return xo, nil
		}
		return evalExpr(x.Y, ctx, scan)
	}

	xo, err := evalExpr(x.X, ctx, scan)
	if err != nil {
		return outcome{}, err
	}
	yo, err := evalExpr(x.Y, ctx, scan)
	if err != nil {
		return outcome{}, err
	}
	if xo.missing || yo.missing {
		return outcome{missing: true}, nil
	}

	switch x.Op {
	case "+":
		return evalPlus(xo.value, yo.value)
	case "-", "*", "/", "%":
		return evalArith(x.Op, xo.value, yo.value)
	case "==", "!=":
		return evalEquality(x.Op, xo.value, yo.value)
	case "<", "<=", ">", ">=":
		return evalRelational(x.Op, xo.value, yo.value)
	}
	return outcome{}, newErr(ErrTypeMismatch, "", "unknown binary operator %q", x.Op)
}

func evalPlus(a, b cty.Value) (outcome, error) {
	if a.Type() == cty.Number && b.Type() == cty.Number {
		return outcome{value: a.Add(b)}, nil
	}
	isSeq := func(v cty.Value) bool { return v.Type().IsTupleType() || v.Type().IsListType() }
	if isSeq(a) && isSeq(b) {
		var vals []cty.Value
		for it := a.ElementIterator(); it.Next(); {
			_, v := it.Element()
			vals = append(vals, v)
		}
		for it := b.ElementIterator(); it.Next(); {
			_, v := it.Element()
			vals = append(vals, v)
		}
		if len(vals) == 0 {
			return outcome{value: cty.EmptyTupleVal}, nil
		}
		return outcome{value: cty.TupleVal(vals)}, nil
	}
	return outcome{}, newErr(ErrTypeMismatch, "", "\"+\" requires two numbers or two sequences, got %s and %s", a.Type().FriendlyName(), b.Type().FriendlyName())
}

func evalArith(op string, a, b cty.Value) (outcome, error) {
	if a.Type() != cty.Number || b.Type() != cty.Number {
		return outcome{}, newErr(ErrTypeMismatch, "", "%q requires two numbers, got %s and %s", op, a.Type().FriendlyName(), b.Type().FriendlyName())
	}
	switch op {
	case "-":
		return outcome{value: a.Subtract(b)}, nil
	case "*":
		return outcome{value: a.Multiply(b)}, nil
	case "/":
		return outcome{value: a.Divide(b)}, nil
	case "%":
		return outcome{value: a.Modulo(b)}, nil
	}
	panic("unreachable")
}

func evalEquality(op string, a, b cty.Value) (outcome, error) {
	if !isPrimitive(a) || !isPrimitive(b) {
		return outcome{}, newErr(ErrTypeMismatch, "", "%q is only defined over primitive values", op)
	}
	eq := a.Type().Equals(b.Type()) && a.RawEquals(b)
	if op == "!=" {
		eq = !eq
	}
	return outcome{value: cty.BoolVal(eq)}, nil
}

func isPrimitive(v cty.Value) bool {
	return v.Type() == cty.String || v.Type() == cty.Bool || v.Type() == cty.Number || v.IsNull()
}

func evalRelational(op string, a, b cty.Value) (outcome, error) {
	if a.Type() != cty.Number || b.Type() != cty.Number {
		return outcome{}, newErr(ErrTypeMismatch, "", "%q requires two numbers, got %s and %s", op, a.Type().FriendlyName(), b.Type().FriendlyName())
	}
	var result bool
	switch op {
	case "<":
		result = a.LessThan(b).True()
	case "<=":
		result = a.LessThanOrEqualTo(b).True()
	case ">":
		result = a.GreaterThan(b).True()
	case ">=":
		result = a.GreaterThanOrEqualTo(b).True()
	}
	return outcome{value: cty.BoolVal(result)}, nil
}
