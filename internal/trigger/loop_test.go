package trigger

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/generalbots/botengine/domain/automation"
	"github.com/generalbots/botengine/internal/capability"
	"github.com/generalbots/botengine/internal/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScript drops a BASIC source file into a fresh scripts directory and
// returns the directory, so Param can reference it by relative name.
func writeScript(t *testing.T, name, source string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(source), 0o600))
	return dir
}

type fakeStore struct {
	mu        sync.Mutex
	items     []automation.Automation
	triggered map[string]time.Time
}

func (f *fakeStore) ListActive(ctx context.Context) ([]automation.Automation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]automation.Automation, len(f.items))
	copy(out, f.items)
	return out, nil
}

func (f *fakeStore) MarkTriggered(ctx context.Context, id string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.triggered == nil {
		f.triggered = make(map[string]time.Time)
	}
	f.triggered[id] = at
	return nil
}

func TestRunCycleDispatchesDueScheduledAutomation(t *testing.T) {
	scriptsDir := writeScript(t, "a1.bas", "PRINT 1")
	store := &fakeStore{items: []automation.Automation{
		{ID: "a1", Kind: automation.KindScheduled, Schedule: "* * * * *", Param: "a1.bas", IsActive: true, CreatedAt: time.Now().Add(-time.Hour)},
	}}
	loop := NewLoop(store, &fakeTables{}, runtime.BindingTable{}, scriptsDir, nil)
	loop.runCycle(context.Background())

	require.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		_, ok := store.triggered["a1"]
		return ok
	}, time.Second, 10*time.Millisecond)
}

func TestRunCycleSkipsNotYetDue(t *testing.T) {
	scriptsDir := writeScript(t, "a1.bas", "PRINT 1")
	store := &fakeStore{items: []automation.Automation{
		{ID: "a1", Kind: automation.KindScheduled, Schedule: "0 0 1 1 *", Param: "a1.bas", IsActive: true, CreatedAt: time.Now()},
	}}
	loop := NewLoop(store, &fakeTables{}, runtime.BindingTable{}, scriptsDir, nil)
	loop.runCycle(context.Background())

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Empty(t, store.triggered)
}

func TestRunCycleDispatchesDueTableChange(t *testing.T) {
	scriptsDir := writeScript(t, "a1.bas", "PRINT 1")
	store := &fakeStore{items: []automation.Automation{
		{ID: "a1", Kind: automation.KindTableInsert, Target: "robots", Param: "a1.bas", IsActive: true, CreatedAt: time.Now().Add(-time.Hour)},
	}}
	ft := &fakeTables{rows: []capability.Row{{"n": int64(1)}}}
	loop := NewLoop(store, ft, runtime.BindingTable{}, scriptsDir, nil)
	loop.runCycle(context.Background())

	require.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		_, ok := store.triggered["a1"]
		return ok
	}, time.Second, 10*time.Millisecond)
}
