package runtime

import (
	"context"

	"github.com/generalbots/botengine/domain/script"
)

func evalBinaryOp(ctx context.Context, ec *ExecutionContext, e script.BinaryOp, line int) (script.Value, error) {
	left, err := evalExpr(ctx, ec, e.Left, line)
	if err != nil {
		return script.Unit, err
	}
	right, err := evalExpr(ctx, ec, e.Right, line)
	if err != nil {
		return script.Unit, err
	}

	switch e.Op {
	case "=":
		return script.Bool(valuesEqual(left, right)), nil
	case "<>":
		return script.Bool(!valuesEqual(left, right)), nil
	case "<", ">", "<=", ">=":
		return compareOrdered(line, e.Op, left, right)
	case "+":
		return arith(line, left, right, func(a, b int64) int64 { return a + b }, func(a, b float64) float64 { return a + b }, true)
	case "-":
		return arith(line, left, right, func(a, b int64) int64 { return a - b }, func(a, b float64) float64 { return a - b }, false)
	case "*":
		return arith(line, left, right, func(a, b int64) int64 { return a * b }, func(a, b float64) float64 { return a * b }, false)
	case "/":
		if right.Kind() == script.KindInt && right.AsInt() == 0 {
			return script.Unit, typeErr(line, "division by zero")
		}
		if right.Kind() == script.KindFloat && right.AsFloat() == 0 {
			return script.Unit, typeErr(line, "division by zero")
		}
		return arith(line, left, right, func(a, b int64) int64 { return a / b }, func(a, b float64) float64 { return a / b }, false)
	default:
		return script.Unit, typeErr(line, "unknown operator %q", e.Op)
	}
}

func valuesEqual(a, b script.Value) bool {
	if a.Kind() != b.Kind() {
		if isNumeric(a) && isNumeric(b) {
			return numeric(a) == numeric(b)
		}
		return false
	}
	switch a.Kind() {
	case script.KindUnit:
		return true
	case script.KindBool:
		return a.AsBool() == b.AsBool()
	case script.KindInt:
		return a.AsInt() == b.AsInt()
	case script.KindFloat:
		return a.AsFloat() == b.AsFloat()
	case script.KindString:
		return a.AsString() == b.AsString()
	default:
		return a.String() == b.String()
	}
}

func isNumeric(v script.Value) bool {
	return v.Kind() == script.KindInt || v.Kind() == script.KindFloat
}

func numeric(v script.Value) float64 {
	if v.Kind() == script.KindInt {
		return float64(v.AsInt())
	}
	return v.AsFloat()
}

func compareOrdered(line int, op string, a, b script.Value) (script.Value, error) {
	var x, y float64
	switch {
	case isNumeric(a) && isNumeric(b):
		x, y = numeric(a), numeric(b)
	case a.Kind() == script.KindString && b.Kind() == script.KindString:
		switch op {
		case "<":
			return script.Bool(a.AsString() < b.AsString()), nil
		case ">":
			return script.Bool(a.AsString() > b.AsString()), nil
		case "<=":
			return script.Bool(a.AsString() <= b.AsString()), nil
		case ">=":
			return script.Bool(a.AsString() >= b.AsString()), nil
		}
		return script.Unit, typeErr(line, "unknown operator %q", op)
	default:
		return script.Unit, typeErr(line, "cannot compare %v and %v", a.Kind(), b.Kind())
	}
	switch op {
	case "<":
		return script.Bool(x < y), nil
	case ">":
		return script.Bool(x > y), nil
	case "<=":
		return script.Bool(x <= y), nil
	case ">=":
		return script.Bool(x >= y), nil
	}
	return script.Unit, typeErr(line, "unknown operator %q", op)
}

func arith(line int, a, b script.Value, intOp func(int64, int64) int64, floatOp func(float64, float64) float64, allowStringConcat bool) (script.Value, error) {
	if allowStringConcat && a.Kind() == script.KindString && b.Kind() == script.KindString {
		return script.String(a.AsString() + b.AsString()), nil
	}
	if !isNumeric(a) || !isNumeric(b) {
		return script.Unit, typeErr(line, "arithmetic on non-numeric values (%v, %v)", a.Kind(), b.Kind())
	}
	if a.Kind() == script.KindInt && b.Kind() == script.KindInt {
		return script.Int(intOp(a.AsInt(), b.AsInt())), nil
	}
	return script.Float(floatOp(numeric(a), numeric(b))), nil
}
