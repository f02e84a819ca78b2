package trigger

import (
	"time"

	"github.com/robfig/cron/v3"
)

// cronDue reports whether spec, a standard 5-field cron schedule, has a
// scheduled fire time at or before now, measured from the last time it
// fired (or from since, for an automation that has never fired).
func cronDue(spec string, last *time.Time, since, now time.Time) (bool, error) {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return false, err
	}
	base := since
	if last != nil {
		base = *last
	}
	next := sched.Next(base)
	return !next.After(now), nil
}
