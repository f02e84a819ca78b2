package keywords

import (
	"context"
	"fmt"
	"strings"

	"github.com/generalbots/botengine/domain/script"
	"github.com/generalbots/botengine/infrastructure/errors"
	"github.com/generalbots/botengine/internal/capability"
)

// set implements SET(table, filter, updates): a parameterized UPDATE against
// the Tables capability. filter selects rows exactly like FIND's second
// argument; updates is a comma-separated list of "col=val" clauses
// describing the new column values (§4.3). Every value on both sides is
// bound as a parameter.
func set(caps *capability.Set) func(ctx context.Context, args []script.Value) (script.Value, error) {
	return func(ctx context.Context, args []script.Value) (script.Value, error) {
		if len(args) != 3 {
			return script.Unit, fmt.Errorf("SET expects 3 arguments, got %d", len(args))
		}
		if caps == nil || caps.Tables == nil {
			return script.Unit, errors.BackendUnavailable("tables")
		}
		table := args[0].AsString()
		if err := validateTableIdent(table); err != nil {
			return script.Unit, errors.InvalidInput("table", err.Error())
		}
		whereConds, err := parseConditions(args[1].AsString())
		if err != nil {
			return script.Unit, errors.InvalidInput("filter", err.Error())
		}
		setConds, err := parseAssignments(args[2].AsString())
		if err != nil {
			return script.Unit, errors.InvalidInput("updates", err.Error())
		}

		setClause, setParams := buildAssignments(setConds, 1)
		whereClause, whereParams := buildWhere(whereConds, len(setParams)+1)
		sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s", table, setClause, whereClause)

		params := append(setParams, whereParams...)
		n, err := caps.Tables.Execute(ctx, sql, params...)
		if err != nil {
			return script.Unit, errors.DatabaseError("set", err)
		}
		return script.Int(n), nil
	}
}

func buildAssignments(conds []condition, startIndex int) (string, []any) {
	parts := make([]string, len(conds))
	params := make([]any, len(conds))
	for i, c := range conds {
		parts[i] = fmt.Sprintf("%s = $%d", c.Column, startIndex+i)
		params[i] = c.Value
	}
	return strings.Join(parts, ", "), params
}
