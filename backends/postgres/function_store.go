package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/generalbots/botengine/domain/function"
)

// FunctionStore persists named, reusable script definitions (domain/function)
// against the functions table, so an operator can save a script once and
// reference it by name from more than one Automation.
type FunctionStore struct {
	db *sql.DB
}

func NewFunctionStore(db *sql.DB) *FunctionStore { return &FunctionStore{db: db} }

// Create inserts a new function definition, assigning it a fresh ID.
func (s *FunctionStore) Create(ctx context.Context, f function.Definition) (function.Definition, error) {
	f.ID = uuid.NewString()
	const q = `
INSERT INTO functions (id, name, description, source)
VALUES ($1, $2, $3, $4)
RETURNING created_at, updated_at`
	if err := s.db.QueryRowContext(ctx, q, f.ID, f.Name, f.Description, f.Source).
		Scan(&f.CreatedAt, &f.UpdatedAt); err != nil {
		return function.Definition{}, fmt.Errorf("create function: %w", err)
	}
	return f, nil
}

const selectFunctionByID = `
SELECT id, name, description, source, created_at, updated_at
FROM functions
WHERE id = $1`

// Get fetches a single function definition by ID.
func (s *FunctionStore) Get(ctx context.Context, id string) (function.Definition, error) {
	var f function.Definition
	err := s.db.QueryRowContext(ctx, selectFunctionByID, id).
		Scan(&f.ID, &f.Name, &f.Description, &f.Source, &f.CreatedAt, &f.UpdatedAt)
	if err == sql.ErrNoRows {
		return function.Definition{}, fmt.Errorf("function %s: %w", id, sql.ErrNoRows)
	}
	if err != nil {
		return function.Definition{}, fmt.Errorf("get function %s: %w", id, err)
	}
	return f, nil
}

const selectFunctionByName = `
SELECT id, name, description, source, created_at, updated_at
FROM functions
WHERE name = $1`

// GetByName fetches a single function definition by its unique name, used to
// resolve an automation registration that names a function instead of a
// script path.
func (s *FunctionStore) GetByName(ctx context.Context, name string) (function.Definition, error) {
	var f function.Definition
	err := s.db.QueryRowContext(ctx, selectFunctionByName, name).
		Scan(&f.ID, &f.Name, &f.Description, &f.Source, &f.CreatedAt, &f.UpdatedAt)
	if err == sql.ErrNoRows {
		return function.Definition{}, fmt.Errorf("function %q: %w", name, sql.ErrNoRows)
	}
	if err != nil {
		return function.Definition{}, fmt.Errorf("get function %q: %w", name, err)
	}
	return f, nil
}

const selectAllFunctions = `
SELECT id, name, description, source, created_at, updated_at
FROM functions
ORDER BY name`

// List returns every saved function definition.
func (s *FunctionStore) List(ctx context.Context) ([]function.Definition, error) {
	rows, err := s.db.QueryContext(ctx, selectAllFunctions)
	if err != nil {
		return nil, fmt.Errorf("list functions: %w", err)
	}
	defer rows.Close()

	var out []function.Definition
	for rows.Next() {
		var f function.Definition
		if err := rows.Scan(&f.ID, &f.Name, &f.Description, &f.Source, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan function: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// Update overwrites name, description, and source for an existing function.
func (s *FunctionStore) Update(ctx context.Context, f function.Definition) error {
	const q = `
UPDATE functions
SET name = $1, description = $2, source = $3, updated_at = now()
WHERE id = $4`
	res, err := s.db.ExecContext(ctx, q, f.Name, f.Description, f.Source, f.ID)
	if err != nil {
		return fmt.Errorf("update function %s: %w", f.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update function %s: %w", f.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("function %s: %w", f.ID, sql.ErrNoRows)
	}
	return nil
}

// Delete removes a function definition by ID.
func (s *FunctionStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM functions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete function %s: %w", id, err)
	}
	return nil
}
