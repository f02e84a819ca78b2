// Package postgres implements the Tables capability (and the Trigger Loop's
// AutomationStore) against a real PostgreSQL database via database/sql and
// lib/pq, adapting the teacher's pkg/storage/postgres.BaseStore
// querier/transaction pattern.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/generalbots/botengine/internal/capability"
)

// Tables implements capability.Tables against a *sql.DB. SQL text and
// identifiers are built by internal/keywords; Tables only ever executes
// what it is given, parameters bound positionally.
type Tables struct {
	db *sql.DB
}

// Open opens a PostgreSQL connection pool at dsn and verifies it with Ping.
func Open(dsn string) (*Tables, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Tables{db: db}, nil
}

// NewTables wraps an already-open *sql.DB, for hosts that manage their own
// connection pool (and for tests against sqlmock).
func NewTables(db *sql.DB) *Tables { return &Tables{db: db} }

func (t *Tables) Close() error { return t.db.Close() }

// DB exposes the underlying pool so a host process can build other stores
// (e.g. NewAutomationStore) against the same connections.
func (t *Tables) DB() *sql.DB { return t.db }

func (t *Tables) Query(ctx context.Context, query string, params ...any) ([]capability.Row, error) {
	rows, err := t.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}

	var out []capability.Row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		row := make(capability.Row, len(cols))
		for i, col := range cols {
			row[col] = vals[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (t *Tables) Execute(ctx context.Context, query string, params ...any) (int64, error) {
	res, err := t.db.ExecContext(ctx, query, params...)
	if err != nil {
		return 0, fmt.Errorf("exec: %w", err)
	}
	return res.RowsAffected()
}
