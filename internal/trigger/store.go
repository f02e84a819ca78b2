// Package trigger implements the Trigger Loop (§4.4): a fixed-interval poll
// that evaluates every active Automation's cron schedule or watched-table
// change, dispatches a script invocation for each one that is due, and
// advances its last_triggered cursor.
package trigger

import (
	"context"
	"time"

	"github.com/generalbots/botengine/domain/automation"
)

// AutomationStore is the persistence seam the loop polls. Backed by
// backends/postgres in production and an in-memory fake in tests.
type AutomationStore interface {
	ListActive(ctx context.Context) ([]automation.Automation, error)
	MarkTriggered(ctx context.Context, id string, at time.Time) error
}
