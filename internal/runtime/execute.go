// Package runtime evaluates a compiled AST (§4.2): scope stack, FOR EACH
// auto-wrap iteration, EXIT FOR unwinding, and keyword-call suspension
// through a BindingTable. Execute performs no I/O itself — every side
// effect happens inside a KeywordFunc the host registered.
package runtime

import (
	"context"

	"github.com/generalbots/botengine/domain/script"
)

// Execute runs every top-level statement in ast against ec in order,
// returning the value of the last statement run: LET, assignment and PRINT
// yield their value, a keyword call its result, IF the value of its branch,
// and FOR EACH yields Unit (as does an empty script). It stops at the first error,
// including ctx cancellation observed at a keyword-call suspension point.
func Execute(ctx context.Context, ast *script.AST, ec *ExecutionContext) (script.Value, error) {
	return execStatements(ctx, ec, ast.Statements)
}

func execStatements(ctx context.Context, ec *ExecutionContext, stmts []script.Statement) (script.Value, error) {
	last := script.Unit
	for _, stmt := range stmts {
		v, err := execStatement(ctx, ec, stmt)
		if err != nil {
			return script.Unit, err
		}
		last = v
	}
	return last, nil
}

func execStatement(ctx context.Context, ec *ExecutionContext, stmt script.Statement) (script.Value, error) {
	switch s := stmt.(type) {
	case script.Let:
		v, err := evalExpr(ctx, ec, s.Expr, s.Line)
		if err != nil {
			return script.Unit, err
		}
		ec.define(s.Name, v)
		return v, nil

	case script.Assign:
		v, err := evalExpr(ctx, ec, s.Expr, s.Line)
		if err != nil {
			return script.Unit, err
		}
		ec.assign(s.Name, v)
		return v, nil

	case script.Call:
		return evalKeywordCall(ctx, ec, s.Keyword, s.Args, s.Line)

	case script.Print:
		v, err := evalExpr(ctx, ec, s.Expr, s.Line)
		if err != nil {
			return script.Unit, err
		}
		ec.println(v.String())
		return v, nil

	case script.ExitFor:
		return script.Unit, exitForSignal{}

	case script.If:
		cond, err := evalExpr(ctx, ec, s.Cond, s.Line)
		if err != nil {
			return script.Unit, err
		}
		branch := s.Else
		if cond.Truthy() {
			branch = s.Then
		}
		ec.push()
		defer ec.pop()
		return execStatements(ctx, ec, branch)

	case script.ForEach:
		return execForEach(ctx, ec, s)

	default:
		return script.Unit, typeErr(0, "unhandled statement type %T", stmt)
	}
}

// execForEach iterates Body once per element of ToArray(Expr), binding Var
// in a fresh per-iteration scope. EXIT FOR unwinds to here and only here;
// the scope depth on return always equals the depth on entry, whether the
// loop ran to completion or exited early (§8's scope-depth invariant).
func execForEach(ctx context.Context, ec *ExecutionContext, fe script.ForEach) (script.Value, error) {
	seq, err := evalExpr(ctx, ec, fe.Expr, fe.Line)
	if err != nil {
		return script.Unit, err
	}
	items := script.ToArray(seq).AsArray()

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return script.Unit, cancelledErr(fe.Line)
		}
		ec.push()
		ec.define(fe.Var, item)
		_, err := execStatements(ctx, ec, fe.Body)
		ec.pop()
		if err != nil {
			if _, ok := err.(exitForSignal); ok {
				return script.Unit, nil
			}
			return script.Unit, err
		}
	}
	return script.Unit, nil
}

func evalKeywordCall(ctx context.Context, ec *ExecutionContext, keyword string, argExprs []script.Expr, line int) (script.Value, error) {
	args := make([]script.Value, len(argExprs))
	for i, ae := range argExprs {
		v, err := evalExpr(ctx, ec, ae, line)
		if err != nil {
			return script.Unit, err
		}
		args[i] = v
	}
	fn, ok := ec.Bindings[keyword]
	if !ok {
		return script.Unit, unknownKeywordErr(line, keyword)
	}
	if err := ctx.Err(); err != nil {
		return script.Unit, cancelledErr(line)
	}
	v, err := fn(ctx, args)
	if err != nil {
		if ctx.Err() != nil {
			return script.Unit, cancelledErr(line)
		}
		return script.Unit, keywordErr(line, keyword, err)
	}
	return v, nil
}

func evalExpr(ctx context.Context, ec *ExecutionContext, expr script.Expr, line int) (script.Value, error) {
	switch e := expr.(type) {
	case script.Literal:
		return e.Value, nil

	case script.Ident:
		v, ok := ec.lookup(e.Name)
		if !ok {
			return script.Unit, undefinedErr(line, e.Name)
		}
		return v, nil

	case script.Member:
		target, err := evalExpr(ctx, ec, e.Target, line)
		if err != nil {
			return script.Unit, err
		}
		v, err := target.Member(e.Name)
		if err != nil {
			return script.Unit, typeErr(line, "%s", err)
		}
		return v, nil

	case script.KeywordCall:
		return evalKeywordCall(ctx, ec, e.Keyword, e.Args, line)

	case script.BinaryOp:
		return evalBinaryOp(ctx, ec, e, line)

	default:
		return script.Unit, typeErr(line, "unhandled expression type %T", expr)
	}
}
