package keywords

import (
	"fmt"
	"regexp"
	"strings"
)

// condition is one parsed "col=val" clause from a FIND/SET filter string.
type condition struct {
	Column string
	Value  string
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// tableIdentRe additionally allows dots, since a table argument may be
// schema-qualified (e.g. public.leads) (§3, §4.3).
var tableIdentRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

// validateIdent rejects anything that is not a bare identifier. Column
// names cannot be bound as query parameters, so they are the one place
// user-influenced text still reaches the SQL string directly; this is the
// guard that keeps that safe (§8's parameterization invariant covers
// values — this covers the identifiers values are compared against).
func validateIdent(name string) error {
	if !identRe.MatchString(name) {
		return fmt.Errorf("invalid identifier %q", name)
	}
	return nil
}

// validateTableIdent is validateIdent's counterpart for the table argument,
// which may be schema-qualified and so is allowed to contain dots.
func validateTableIdent(name string) error {
	if !tableIdentRe.MatchString(name) {
		return fmt.Errorf("invalid table identifier %q", name)
	}
	return nil
}

// parseConditions splits a filter string of whitespace-separated "col=val"
// clauses. Each clause's column is validated as a bare identifier; the
// value is returned verbatim for the caller to bind as a query parameter,
// never interpolated into SQL text.
func parseConditions(filter string) ([]condition, error) {
	fields := strings.Fields(filter)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty filter")
	}
	conds := make([]condition, 0, len(fields))
	for _, f := range fields {
		col, val, ok := strings.Cut(f, "=")
		if !ok {
			return nil, fmt.Errorf("malformed condition %q, expected col=val", f)
		}
		if err := validateIdent(col); err != nil {
			return nil, err
		}
		conds = append(conds, condition{Column: col, Value: val})
	}
	return conds, nil
}

// parseAssignments splits a comma-separated list of "col=val" clauses, as
// used by SET's updates argument (§4.3). Unlike parseConditions, clauses are
// comma-separated rather than whitespace-separated, and surrounding
// whitespace around each clause is trimmed before parsing.
func parseAssignments(updates string) ([]condition, error) {
	fields := strings.Split(updates, ",")
	conds := make([]condition, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		col, val, ok := strings.Cut(f, "=")
		if !ok {
			return nil, fmt.Errorf("malformed assignment %q, expected col=val", f)
		}
		col = strings.TrimSpace(col)
		if err := validateIdent(col); err != nil {
			return nil, err
		}
		conds = append(conds, condition{Column: col, Value: strings.TrimSpace(val)})
	}
	if len(conds) == 0 {
		return nil, fmt.Errorf("empty updates")
	}
	return conds, nil
}

// buildWhere renders conds as a parameterized WHERE clause using Postgres
// positional placeholders starting at startIndex, returning the clause text
// and the ordered parameter values to bind.
func buildWhere(conds []condition, startIndex int) (string, []any) {
	parts := make([]string, len(conds))
	params := make([]any, len(conds))
	for i, c := range conds {
		parts[i] = fmt.Sprintf("%s = $%d", c.Column, startIndex+i)
		params[i] = c.Value
	}
	return strings.Join(parts, " AND "), params
}
