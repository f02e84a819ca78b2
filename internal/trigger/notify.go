package trigger

import (
	"context"

	"github.com/generalbots/botengine/domain/automation"
	"github.com/generalbots/botengine/pkg/pgnotify"
)

// Notifier lets the loop react to a table change immediately instead of
// waiting for the next poll tick. It is satisfied by *pgnotify.Bus; kept as
// an interface so a Loop under test never needs a live Postgres listener.
type Notifier interface {
	OnInsert(table string, handler func(ctx context.Context, newRow map[string]interface{}) error) (*pgnotify.TableSubscription, error)
	OnUpdate(table string, handler func(ctx context.Context, oldRow, newRow map[string]interface{}) error) (*pgnotify.TableSubscription, error)
	OnDelete(table string, handler func(ctx context.Context, oldRow map[string]interface{}) error) (*pgnotify.TableSubscription, error)
}

// WatchTables subscribes to LISTEN/NOTIFY for every distinct (target, kind)
// pair among the currently active table-change automations, so those fire
// close to the moment the row actually changes rather than waiting up to
// Interval. It is an accelerator, not a replacement: dispatch itself is the
// only path that advances last_triggered, and only on success, so a dropped
// notification just means the next poll catches it instead.
func (l *Loop) WatchTables(ctx context.Context, notifier Notifier) error {
	automations, err := l.Store.ListActive(ctx)
	if err != nil {
		return err
	}

	seen := make(map[string]bool)
	for _, a := range automations {
		if !a.IsTableChange() || a.Target == "" {
			continue
		}
		key := a.Target + ":" + string(a.Kind)
		if seen[key] {
			continue
		}
		seen[key] = true

		target, kind := a.Target, a.Kind
		onChange := func(ctx context.Context) error {
			l.nudge(ctx, target, kind)
			return nil
		}
		switch kind {
		case automation.KindTableInsert:
			_, err = notifier.OnInsert(target, func(ctx context.Context, _ map[string]interface{}) error { return onChange(ctx) })
		case automation.KindTableUpdate:
			_, err = notifier.OnUpdate(target, func(ctx context.Context, _, _ map[string]interface{}) error { return onChange(ctx) })
		case automation.KindTableDelete:
			_, err = notifier.OnDelete(target, func(ctx context.Context, _ map[string]interface{}) error { return onChange(ctx) })
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// nudge dispatches every active automation matching target/kind immediately,
// ahead of the next poll tick; the notification itself counts as the change,
// so the watched table is not queried again first.
func (l *Loop) nudge(ctx context.Context, target string, kind automation.Kind) {
	automations, err := l.Store.ListActive(ctx)
	if err != nil {
		l.Log.WithField("error", err).Warn("list active automations for notify-triggered check")
		return
	}
	for _, a := range automations {
		if a.Target != target || a.Kind != kind {
			continue
		}
		l.dispatch(ctx, a)
	}
}
