package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/generalbots/botengine/domain/automation"
	"github.com/google/uuid"
)

// AutomationStore implements internal/trigger.AutomationStore against the
// automations table.
type AutomationStore struct {
	db *sql.DB
}

func NewAutomationStore(db *sql.DB) *AutomationStore { return &AutomationStore{db: db} }

const selectActiveAutomations = `
SELECT id, kind, target, schedule, param, is_active, last_triggered, created_at, updated_at
FROM automations
WHERE is_active = true`

func (s *AutomationStore) ListActive(ctx context.Context) ([]automation.Automation, error) {
	rows, err := s.db.QueryContext(ctx, selectActiveAutomations)
	if err != nil {
		return nil, fmt.Errorf("list active automations: %w", err)
	}
	defer rows.Close()

	var out []automation.Automation
	for rows.Next() {
		var a automation.Automation
		var lastTriggered sql.NullTime
		if err := rows.Scan(&a.ID, &a.Kind, &a.Target, &a.Schedule, &a.Param, &a.IsActive, &lastTriggered, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan automation: %w", err)
		}
		if lastTriggered.Valid {
			t := lastTriggered.Time
			a.LastTriggered = &t
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *AutomationStore) MarkTriggered(ctx context.Context, id string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE automations SET last_triggered = $1 WHERE id = $2`, at, id)
	if err != nil {
		return fmt.Errorf("mark automation %s triggered: %w", id, err)
	}
	return nil
}

// Create inserts a new automation, assigning it a fresh ID.
func (s *AutomationStore) Create(ctx context.Context, a automation.Automation) (automation.Automation, error) {
	a.ID = uuid.NewString()
	const q = `
INSERT INTO automations (id, kind, target, schedule, param, is_active)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING created_at, updated_at`
	if err := s.db.QueryRowContext(ctx, q, a.ID, a.Kind, a.Target, a.Schedule, a.Param, a.IsActive).
		Scan(&a.CreatedAt, &a.UpdatedAt); err != nil {
		return automation.Automation{}, fmt.Errorf("create automation: %w", err)
	}
	return a, nil
}

const selectAutomationByID = `
SELECT id, kind, target, schedule, param, is_active, last_triggered, created_at, updated_at
FROM automations
WHERE id = $1`

// Get fetches a single automation by ID.
func (s *AutomationStore) Get(ctx context.Context, id string) (automation.Automation, error) {
	var a automation.Automation
	var lastTriggered sql.NullTime
	err := s.db.QueryRowContext(ctx, selectAutomationByID, id).
		Scan(&a.ID, &a.Kind, &a.Target, &a.Schedule, &a.Param, &a.IsActive, &lastTriggered, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return automation.Automation{}, fmt.Errorf("automation %s: %w", id, sql.ErrNoRows)
	}
	if err != nil {
		return automation.Automation{}, fmt.Errorf("get automation %s: %w", id, err)
	}
	if lastTriggered.Valid {
		t := lastTriggered.Time
		a.LastTriggered = &t
	}
	return a, nil
}

const selectAllAutomations = `
SELECT id, kind, target, schedule, param, is_active, last_triggered, created_at, updated_at
FROM automations
ORDER BY created_at DESC`

// List returns every automation, active or not.
func (s *AutomationStore) List(ctx context.Context) ([]automation.Automation, error) {
	rows, err := s.db.QueryContext(ctx, selectAllAutomations)
	if err != nil {
		return nil, fmt.Errorf("list automations: %w", err)
	}
	defer rows.Close()

	var out []automation.Automation
	for rows.Next() {
		var a automation.Automation
		var lastTriggered sql.NullTime
		if err := rows.Scan(&a.ID, &a.Kind, &a.Target, &a.Schedule, &a.Param, &a.IsActive, &lastTriggered, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan automation: %w", err)
		}
		if lastTriggered.Valid {
			t := lastTriggered.Time
			a.LastTriggered = &t
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// SetActive flips an automation's active flag.
func (s *AutomationStore) SetActive(ctx context.Context, id string, active bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE automations SET is_active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return fmt.Errorf("set automation %s active=%v: %w", id, active, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set automation %s active=%v: %w", id, active, err)
	}
	if n == 0 {
		return fmt.Errorf("automation %s: %w", id, sql.ErrNoRows)
	}
	return nil
}

// Delete removes an automation permanently.
func (s *AutomationStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM automations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete automation %s: %w", id, err)
	}
	return nil
}
