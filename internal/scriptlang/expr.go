package scriptlang

import (
	"strings"

	"github.com/generalbots/botengine/domain/script"
)

// exprParser walks a flat token slice for one expression (a line, or a
// comma-separated argument group never spans multiple lines).
type exprParser struct {
	toks   []token
	pos    int
	lineNo int
}

func (p *parser) parseExprTokens(toks []token, lineNo int) (script.Expr, error) {
	filtered := make([]token, 0, len(toks))
	for _, t := range toks {
		if t.kind != tokEOF {
			filtered = append(filtered, t)
		}
	}
	ep := &exprParser{toks: filtered, lineNo: lineNo}
	expr, err := ep.parseComparison()
	if err != nil {
		return nil, err
	}
	if ep.pos != len(ep.toks) {
		return nil, newErr(ErrUnexpectedToken, lineNo, "unexpected trailing token %q", ep.toks[ep.pos].text)
	}
	return expr, nil
}

func (ep *exprParser) peek() (token, bool) {
	if ep.pos >= len(ep.toks) {
		return token{}, false
	}
	return ep.toks[ep.pos], true
}

func (ep *exprParser) parseComparison() (script.Expr, error) {
	left, err := ep.parseAdditive()
	if err != nil {
		return nil, err
	}
	for {
		t, ok := ep.peek()
		if !ok || t.kind != tokOp || !isCompareOp(t.text) {
			return left, nil
		}
		ep.pos++
		right, err := ep.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = script.BinaryOp{Op: t.text, Left: left, Right: right}
	}
}

func (ep *exprParser) parseAdditive() (script.Expr, error) {
	left, err := ep.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		t, ok := ep.peek()
		if !ok || t.kind != tokOp || (t.text != "+" && t.text != "-") {
			return left, nil
		}
		ep.pos++
		right, err := ep.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = script.BinaryOp{Op: t.text, Left: left, Right: right}
	}
}

func (ep *exprParser) parseMultiplicative() (script.Expr, error) {
	left, err := ep.parsePostfix()
	if err != nil {
		return nil, err
	}
	for {
		t, ok := ep.peek()
		if !ok || t.kind != tokOp || (t.text != "*" && t.text != "/") {
			return left, nil
		}
		ep.pos++
		right, err := ep.parsePostfix()
		if err != nil {
			return nil, err
		}
		left = script.BinaryOp{Op: t.text, Left: left, Right: right}
	}
}

func (ep *exprParser) parsePostfix() (script.Expr, error) {
	base, err := ep.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		t, ok := ep.peek()
		if !ok || t.kind != tokDot {
			return base, nil
		}
		ep.pos++
		name, ok := ep.peek()
		if !ok || name.kind != tokIdent {
			return nil, newErr(ErrUnexpectedToken, ep.lineNo, "expected member name after '.'")
		}
		ep.pos++
		base = script.Member{Target: base, Name: name.text}
	}
}

func (ep *exprParser) parsePrimary() (script.Expr, error) {
	t, ok := ep.peek()
	if !ok {
		return nil, newErr(ErrUnexpectedToken, ep.lineNo, "expected expression")
	}

	switch t.kind {
	case tokString:
		ep.pos++
		return script.Literal{Value: script.String(t.text)}, nil
	case tokInt:
		ep.pos++
		n, err := parseIntLiteral(t.text)
		if err != nil {
			return nil, newErr(ErrUnexpectedToken, ep.lineNo, "invalid integer literal %q", t.text)
		}
		return script.Literal{Value: script.Int(n)}, nil
	case tokFloat:
		ep.pos++
		f, err := parseFloatLiteral(t.text)
		if err != nil {
			return nil, newErr(ErrUnexpectedToken, ep.lineNo, "invalid float literal %q", t.text)
		}
		return script.Literal{Value: script.Float(f)}, nil
	case tokLParen:
		ep.pos++
		inner, err := ep.parseComparison()
		if err != nil {
			return nil, err
		}
		close, ok := ep.peek()
		if !ok || close.kind != tokRParen {
			return nil, newErr(ErrUnexpectedToken, ep.lineNo, "expected ')'")
		}
		ep.pos++
		return inner, nil
	case tokIdent:
		switch strings.ToUpper(t.text) {
		case "TRUE":
			ep.pos++
			return script.Literal{Value: script.Bool(true)}, nil
		case "FALSE":
			ep.pos++
			return script.Literal{Value: script.Bool(false)}, nil
		}
		switch t.text {
		case "FIND":
			return ep.parseFind()
		case "GET":
			return ep.parseGet()
		case "WEBSITE":
			return ep.parseWebsiteOf()
		default:
			ep.pos++
			return script.Ident{Name: t.text}, nil
		}
	}
	return nil, newErr(ErrUnexpectedToken, ep.lineNo, "unexpected token %q", t.text)
}

func (ep *exprParser) parseFind() (script.Expr, error) {
	ep.pos++ // consume FIND
	args, err := ep.parseCommaArgs()
	if err != nil {
		return nil, err
	}
	if len(args) != keywordArity["FIND"] {
		return nil, newErr(ErrArityMismatch, ep.lineNo, "FIND expects %d argument(s), got %d", keywordArity["FIND"], len(args))
	}
	return script.KeywordCall{Keyword: "FIND", Args: args}, nil
}

func (ep *exprParser) parseGet() (script.Expr, error) {
	ep.pos++ // consume GET
	arg, err := ep.parseAdditive()
	if err != nil {
		return nil, err
	}
	return script.KeywordCall{Keyword: "GET", Args: []script.Expr{arg}}, nil
}

func (ep *exprParser) parseWebsiteOf() (script.Expr, error) {
	ep.pos++ // consume WEBSITE
	t, ok := ep.peek()
	if !ok || t.kind != tokIdent || t.text != "OF" {
		return nil, newErr(ErrUnexpectedToken, ep.lineNo, "expected OF after WEBSITE")
	}
	ep.pos++
	arg, err := ep.parseAdditive()
	if err != nil {
		return nil, err
	}
	return script.KeywordCall{Keyword: "WEBSITE OF", Args: []script.Expr{arg}}, nil
}

// parseCommaArgs consumes a run of comma-separated expressions up to the end
// of the remaining token stream (used for FIND's two arguments).
func (ep *exprParser) parseCommaArgs() ([]script.Expr, error) {
	var args []script.Expr
	for {
		expr, err := ep.parseAdditive()
		if err != nil {
			return nil, err
		}
		args = append(args, expr)
		t, ok := ep.peek()
		if !ok || t.kind != tokComma {
			return args, nil
		}
		ep.pos++
	}
}

func isCompareOp(op string) bool {
	switch op {
	case "=", "<>", "<", ">", "<=", ">=":
		return true
	}
	return false
}
