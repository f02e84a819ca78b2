package scriptlang

import (
	"strings"

	"github.com/generalbots/botengine/domain/script"
)

// Keyword arities, checked at compile time per the §4.1 keyword call forms.
var keywordArity = map[string]int{
	"FIND":         2,
	"GET":          1,
	"WEBSITE OF":   1,
	"SET":          3,
	"CREATE SITE":  5,
	"CREATE DRAFT": 3,
}

type parser struct {
	lines []string
	pos   int
}

// Parse runs the recursive-descent Phase 2 over already-normalized source.
func Parse(normalized string) (*script.AST, error) {
	lines := strings.Split(normalized, "\n")
	var content []string
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			content = append(content, l)
		}
	}
	p := &parser{lines: content}
	stmts, err := p.parseStatements(func(l string) bool { return strings.TrimSpace(l) == "}" })
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.lines) {
		return nil, newErr(ErrUnexpectedToken, p.pos+1, "unexpected %q", strings.TrimSpace(p.lines[p.pos]))
	}
	return &script.AST{Statements: stmts}, nil
}

func (p *parser) peekLine() (string, bool) {
	if p.pos >= len(p.lines) {
		return "", false
	}
	return strings.TrimSpace(p.lines[p.pos]), true
}

func (p *parser) lineNo() int { return p.pos + 1 }

func (p *parser) parseStatements(stop func(string) bool) ([]script.Statement, error) {
	var stmts []script.Statement
	for {
		line, ok := p.peekLine()
		if !ok {
			return stmts, nil
		}
		if stop(line) {
			return stmts, nil
		}
		stmt, err := p.parseStatement(line)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
}

func (p *parser) parseStatement(line string) (script.Statement, error) {
	lineNo := p.lineNo()

	if strings.HasSuffix(line, "{") {
		return p.parseForEach(line)
	}

	toks, err := tokenize(line, lineNo)
	if err != nil {
		return nil, err
	}
	if len(toks) == 0 || toks[0].kind == tokEOF {
		return nil, newErr(ErrUnexpectedToken, lineNo, "empty statement")
	}
	head := toks[0]

	switch {
	case head.kind == tokIdent && (head.text == "LET" || head.text == "let"):
		p.pos++
		return p.parseLet(toks[1:], lineNo)

	case head.kind == tokIdent && head.text == "SET":
		p.pos++
		args, err := p.parseArgs(toks[1:], lineNo, "SET")
		if err != nil {
			return nil, err
		}
		return script.Call{Keyword: "SET", Args: args, Line: lineNo}, nil

	case head.kind == tokIdent && head.text == "CREATE":
		p.pos++
		return p.parseCreate(toks[1:], lineNo)

	case head.kind == tokIdent && head.text == "PRINT":
		p.pos++
		expr, err := p.parseExprTokens(toks[1:], lineNo)
		if err != nil {
			return nil, err
		}
		return script.Print{Expr: expr, Line: lineNo}, nil

	case head.kind == tokIdent && head.text == "EXIT":
		p.pos++
		if len(toks) < 2 || toks[1].text != "FOR" {
			return nil, newErr(ErrUnexpectedToken, lineNo, "EXIT must be followed by FOR")
		}
		return script.ExitFor{Line: lineNo}, nil

	case head.kind == tokIdent && head.text == "IF":
		return p.parseIf(toks[1:], lineNo)

	case head.kind == tokIdent && (head.text == "WHILE" || head.text == "WEND"):
		return nil, newErr(ErrUnexpectedToken, lineNo, "WHILE/WEND loops are not supported: scripts are bounded and non-recursive by contract")

	case head.kind == tokIdent && (head.text == "FIND" || head.text == "GET" || head.text == "WEBSITE"):
		p.pos++
		expr, err := p.parseExprTokens(toks, lineNo)
		if err != nil {
			return nil, err
		}
		kc, ok := expr.(script.KeywordCall)
		if !ok {
			return nil, newErr(ErrUnexpectedToken, lineNo, "expected keyword call")
		}
		return script.Call{Keyword: kc.Keyword, Args: kc.Args, Line: lineNo}, nil

	case head.kind == tokIdent && len(toks) >= 2 && toks[1].kind == tokOp && toks[1].text == "=":
		p.pos++
		expr, err := p.parseExprTokens(toks[2:], lineNo)
		if err != nil {
			return nil, err
		}
		return script.Assign{Name: head.text, Expr: expr, Line: lineNo}, nil

	default:
		return nil, newErr(ErrUnexpectedToken, lineNo, "unrecognized statement starting with %q", head.text)
	}
}

func (p *parser) parseLet(rest []token, lineNo int) (script.Statement, error) {
	if len(rest) < 3 || rest[0].kind != tokIdent {
		return nil, newErr(ErrUnexpectedToken, lineNo, "LET requires a variable name")
	}
	name := rest[0].text
	if rest[1].kind != tokOp || rest[1].text != "=" {
		return nil, newErr(ErrUnexpectedToken, lineNo, "LET %s requires '='", name)
	}
	expr, err := p.parseExprTokens(rest[2:], lineNo)
	if err != nil {
		return nil, err
	}
	return script.Let{Name: name, Expr: expr, Line: lineNo}, nil
}

func (p *parser) parseCreate(rest []token, lineNo int) (script.Statement, error) {
	if len(rest) == 0 || rest[0].kind != tokIdent {
		return nil, newErr(ErrUnknownKeyword, lineNo, "CREATE requires SITE or DRAFT")
	}
	switch rest[0].text {
	case "SITE":
		args, err := p.parseArgs(rest[1:], lineNo, "CREATE SITE")
		if err != nil {
			return nil, err
		}
		return script.Call{Keyword: "CREATE SITE", Args: args, Line: lineNo}, nil
	case "DRAFT":
		args, err := p.parseArgs(rest[1:], lineNo, "CREATE DRAFT")
		if err != nil {
			return nil, err
		}
		return script.Call{Keyword: "CREATE DRAFT", Args: args, Line: lineNo}, nil
	default:
		return nil, newErr(ErrUnknownKeyword, lineNo, "unknown CREATE form %q", rest[0].text)
	}
}

func (p *parser) parseIf(condToks []token, lineNo int) (script.Statement, error) {
	p.pos++
	cond, err := p.parseExprTokens(condToks, lineNo)
	if err != nil {
		return nil, err
	}
	thenBody, err := p.parseStatements(func(l string) bool { return l == "ELSE" || l == "END IF" })
	if err != nil {
		return nil, err
	}
	line, ok := p.peekLine()
	if !ok {
		return nil, newErr(ErrUnexpectedToken, lineNo, "IF at line %d missing END IF", lineNo)
	}
	var elseBody []script.Statement
	if line == "ELSE" {
		p.pos++
		elseBody, err = p.parseStatements(func(l string) bool { return l == "END IF" })
		if err != nil {
			return nil, err
		}
	}
	endLine, ok := p.peekLine()
	if !ok || endLine != "END IF" {
		return nil, newErr(ErrUnexpectedToken, lineNo, "IF at line %d missing END IF", lineNo)
	}
	p.pos++
	return script.If{Cond: cond, Then: thenBody, Else: elseBody, Line: lineNo}, nil
}

func (p *parser) parseForEach(line string) (script.Statement, error) {
	lineNo := p.lineNo()
	m := forEachRe.FindStringSubmatch(line)
	if m == nil {
		return nil, newErr(ErrUnexpectedToken, lineNo, "malformed FOR EACH header")
	}
	varName, exprSrc := m[1], m[2]
	exprToks, err := tokenize(exprSrc, lineNo)
	if err != nil {
		return nil, err
	}
	expr, err := p.parseExprTokens(exprToks, lineNo)
	if err != nil {
		return nil, err
	}
	p.pos++

	body, err := p.parseStatements(func(l string) bool { return l == "}" })
	if err != nil {
		return nil, err
	}
	closeLine, ok := p.peekLine()
	if !ok || closeLine != "}" {
		return nil, newErr(ErrUnterminatedFor, lineNo, "FOR EACH %s is never closed by a matching NEXT", varName)
	}
	p.pos++

	nextLine, ok := p.peekLine()
	if !ok {
		return nil, newErr(ErrUnterminatedFor, lineNo, "FOR EACH %s is never closed by a matching NEXT", varName)
	}
	nm := nextRe.FindStringSubmatch(nextLine)
	if nm == nil {
		return nil, newErr(ErrUnexpectedToken, p.lineNo(), "expected NEXT %s", varName)
	}
	if nm[1] != varName {
		return nil, newErr(ErrNextMismatch, p.lineNo(), "NEXT %s does not match FOR EACH %s", nm[1], varName)
	}
	p.pos++

	return script.ForEach{Var: varName, Expr: expr, Body: body, EndVar: nm[1], Line: lineNo}, nil
}

// parseArgs splits a comma-separated argument list and validates arity for
// the named keyword form.
func (p *parser) parseArgs(toks []token, lineNo int, keyword string) ([]script.Expr, error) {
	groups := splitOnComma(toks)
	args := make([]script.Expr, 0, len(groups))
	for _, g := range groups {
		expr, err := p.parseExprTokens(g, lineNo)
		if err != nil {
			return nil, err
		}
		args = append(args, expr)
	}
	if want, ok := keywordArity[keyword]; ok && want != len(args) {
		return nil, newErr(ErrArityMismatch, lineNo, "%s expects %d argument(s), got %d", keyword, want, len(args))
	}
	return args, nil
}

func splitOnComma(toks []token) [][]token {
	var groups [][]token
	var cur []token
	depth := 0
	for _, t := range toks {
		if t.kind == tokEOF {
			continue
		}
		if t.kind == tokLParen {
			depth++
		}
		if t.kind == tokRParen {
			depth--
		}
		if t.kind == tokComma && depth == 0 {
			groups = append(groups, cur)
			cur = nil
			continue
		}
		cur = append(cur, t)
	}
	groups = append(groups, cur)
	return groups
}
