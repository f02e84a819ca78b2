package trigger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCronDueFromNeverTriggered(t *testing.T) {
	since := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	now := time.Date(2026, 7, 30, 12, 1, 0, 0, time.UTC)
	due, err := cronDue("* * * * *", nil, since, now)
	require.NoError(t, err)
	assert.True(t, due)
}

func TestCronNotDueYet(t *testing.T) {
	since := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	now := time.Date(2026, 7, 30, 12, 0, 30, 0, time.UTC)
	due, err := cronDue("0 * * * *", nil, since, now)
	require.NoError(t, err)
	assert.False(t, due)
}

func TestCronDueUsesLastTriggeredOverSince(t *testing.T) {
	last := time.Date(2026, 7, 30, 11, 59, 0, 0, time.UTC)
	since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 7, 30, 12, 0, 1, 0, time.UTC)
	due, err := cronDue("0 * * * *", &last, since, now)
	require.NoError(t, err)
	assert.True(t, due)
}

func TestCronDueRejectsMalformedSpec(t *testing.T) {
	_, err := cronDue("not a cron", nil, time.Now(), time.Now())
	assert.Error(t, err)
}
