package keywords

import (
	"context"
	"fmt"

	"github.com/generalbots/botengine/domain/script"
	"github.com/generalbots/botengine/infrastructure/errors"
	"github.com/generalbots/botengine/internal/capability"
)

// find implements FIND(table, filter): a parameterized SELECT against the
// Tables capability, returning at most 10 matching rows as an array of
// objects (§4.3). Table and column names are validated identifiers; every
// value in filter is bound as a query parameter, never interpolated.
func find(caps *capability.Set) func(ctx context.Context, args []script.Value) (script.Value, error) {
	return func(ctx context.Context, args []script.Value) (script.Value, error) {
		if len(args) != 2 {
			return script.Unit, fmt.Errorf("FIND expects 2 arguments, got %d", len(args))
		}
		if caps == nil || caps.Tables == nil {
			return script.Unit, errors.BackendUnavailable("tables")
		}
		table := args[0].AsString()
		if err := validateTableIdent(table); err != nil {
			return script.Unit, errors.InvalidInput("table", err.Error())
		}
		conds, err := parseConditions(args[1].AsString())
		if err != nil {
			return script.Unit, errors.InvalidInput("filter", err.Error())
		}
		where, params := buildWhere(conds, 1)
		sql := fmt.Sprintf("SELECT * FROM %s WHERE %s LIMIT 10", table, where)

		rows, err := caps.Tables.Query(ctx, sql, params...)
		if err != nil {
			return script.Unit, errors.DatabaseError("find", err)
		}
		out := make([]script.Value, len(rows))
		for i, row := range rows {
			out[i] = rowToValue(row)
		}
		return script.Array(out), nil
	}
}

func rowToValue(row capability.Row) script.Value {
	fields := make(map[string]script.Value, len(row))
	for k, v := range row {
		fields[k] = anyToValue(v)
	}
	return script.Object(fields)
}

func anyToValue(v any) script.Value {
	switch t := v.(type) {
	case nil:
		return script.Unit
	case bool:
		return script.Bool(t)
	case int64:
		return script.Int(t)
	case int:
		return script.Int(int64(t))
	case float64:
		return script.Float(t)
	case string:
		return script.String(t)
	case []byte:
		return script.String(string(t))
	default:
		return script.String(fmt.Sprintf("%v", t))
	}
}
