package trigger

import (
	"context"
	"testing"
	"time"

	"github.com/generalbots/botengine/domain/automation"
	"github.com/generalbots/botengine/internal/capability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTables struct {
	lastSQL    string
	lastParams []any
	rows       []capability.Row
}

func (f *fakeTables) Query(ctx context.Context, sql string, params ...any) ([]capability.Row, error) {
	f.lastSQL = sql
	f.lastParams = params
	return f.rows, nil
}
func (f *fakeTables) Execute(ctx context.Context, sql string, params ...any) (int64, error) {
	return 0, nil
}

func TestTableChangedUsesWatchColumnPerKind(t *testing.T) {
	ft := &fakeTables{rows: []capability.Row{{"n": int64(3)}}}
	changed, err := tableChanged(context.Background(), ft, "robots", automation.KindTableUpdate, time.Now())
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Contains(t, ft.lastSQL, "updated_at")
	assert.Contains(t, ft.lastSQL, "robots")
}

func TestTableChangedUsesUpdatedAtForDeleteKind(t *testing.T) {
	ft := &fakeTables{rows: []capability.Row{{"n": int64(1)}}}
	changed, err := tableChanged(context.Background(), ft, "robots", automation.KindTableDelete, time.Now())
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Contains(t, ft.lastSQL, "updated_at")
}

func TestTableChangedNoRowsIsFalse(t *testing.T) {
	ft := &fakeTables{rows: []capability.Row{{"n": int64(0)}}}
	changed, err := tableChanged(context.Background(), ft, "robots", automation.KindTableInsert, time.Now())
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestTableChangedRejectsBadIdentifier(t *testing.T) {
	ft := &fakeTables{}
	_, err := tableChanged(context.Background(), ft, "robots; DROP TABLE x", automation.KindTableDelete, time.Now())
	assert.Error(t, err)
}
