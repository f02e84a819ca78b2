package automation

import (
	"fmt"
	"time"
)

// Kind is the condition that makes an Automation eligible to fire: either a
// cron schedule, or a change to a watched table (§3, folding the teacher's
// separate trigger.Type into one record).
type Kind string

const (
	KindScheduled   Kind = "scheduled"
	KindTableInsert Kind = "table_insert"
	KindTableUpdate Kind = "table_update"
	KindTableDelete Kind = "table_delete"
)

func (k Kind) isTableChange() bool {
	return k == KindTableInsert || k == KindTableUpdate || k == KindTableDelete
}

// Automation is one row the Trigger Loop watches: a scheduled script run, or
// a script run on insert/update/delete to Target. Exactly one of Schedule
// (for KindScheduled) or Target (for the table-change kinds) is populated —
// enforced by Validate, never by the zero value alone.
type Automation struct {
	ID   string
	Kind Kind
	// Target is the watched table name for table-change kinds; empty for
	// KindScheduled.
	Target string
	// Schedule is a standard 5-field cron expression for KindScheduled;
	// empty for the table-change kinds.
	Schedule string
	// Param is a path, relative to the configured scripts directory, to the
	// BASIC script this automation runs (see internal/trigger's Dispatch).
	Param         string
	IsActive      bool
	LastTriggered *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Validate enforces the schedule-xor-target invariant and rejects an empty
// script path (Param). The registration API checks it when an automation is
// created; the Trigger Loop does not call it on the automations it loads.
func (a Automation) Validate() error {
	switch a.Kind {
	case KindScheduled:
		if a.Schedule == "" {
			return fmt.Errorf("automation %s: scheduled kind requires a schedule", a.ID)
		}
		if a.Target != "" {
			return fmt.Errorf("automation %s: scheduled kind must not set target", a.ID)
		}
	case KindTableInsert, KindTableUpdate, KindTableDelete:
		if a.Target == "" {
			return fmt.Errorf("automation %s: %s kind requires a target table", a.ID, a.Kind)
		}
		if a.Schedule != "" {
			return fmt.Errorf("automation %s: %s kind must not set schedule", a.ID, a.Kind)
		}
	default:
		return fmt.Errorf("automation %s: unknown kind %q", a.ID, a.Kind)
	}
	if a.Param == "" {
		return fmt.Errorf("automation %s: empty script path", a.ID)
	}
	return nil
}

// IsTableChange reports whether a fires on a table-change event rather than
// a cron schedule.
func (a Automation) IsTableChange() bool { return a.Kind.isTableChange() }
