package trigger

import (
	"context"
	"fmt"
	"time"

	"github.com/generalbots/botengine/domain/automation"
	"github.com/generalbots/botengine/internal/capability"
)

// watchColumn maps a table-change Kind to the timestamp column it watches.
// Watched tables are expected to carry the corresponding column; an
// automation pointed at a table missing it will simply never fire: the
// failed COUNT query is logged as a warning while the loop evaluates that
// automation, and the rest of the cycle goes on.
func watchColumn(kind automation.Kind) (string, error) {
	switch kind {
	case automation.KindTableInsert:
		return "created_at", nil
	case automation.KindTableUpdate, automation.KindTableDelete:
		return "updated_at", nil
	default:
		return "", fmt.Errorf("kind %q is not a table-change kind", kind)
	}
}

// tableChanged reports whether target has any row whose watch column moved
// past since. It is a COUNT(*), not a diff: the Trigger Loop only needs to
// know whether to fire, not which rows changed (§4.4).
func tableChanged(ctx context.Context, tables capability.Tables, target string, kind automation.Kind, since time.Time) (bool, error) {
	col, err := watchColumn(kind)
	if err != nil {
		return false, err
	}
	if err := validateTableIdent(target); err != nil {
		return false, err
	}
	sql := fmt.Sprintf("SELECT COUNT(*) AS n FROM %s WHERE %s > $1", target, col)
	rows, err := tables.Query(ctx, sql, since)
	if err != nil {
		return false, err
	}
	if len(rows) == 0 {
		return false, nil
	}
	n, _ := rows[0]["n"].(int64)
	return n > 0, nil
}

func validateTableIdent(name string) error {
	for _, r := range name {
		if !(r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return fmt.Errorf("invalid table name %q", name)
		}
	}
	if name == "" {
		return fmt.Errorf("empty table name")
	}
	return nil
}
