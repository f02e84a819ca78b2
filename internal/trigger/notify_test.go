package trigger

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/generalbots/botengine/domain/automation"
	"github.com/generalbots/botengine/internal/runtime"
	"github.com/generalbots/botengine/pkg/pgnotify"
	"github.com/stretchr/testify/require"
)

type fakeNotifier struct {
	mu      sync.Mutex
	inserts map[string]func(ctx context.Context, newRow map[string]interface{}) error
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{inserts: make(map[string]func(ctx context.Context, newRow map[string]interface{}) error)}
}

func (f *fakeNotifier) OnInsert(table string, handler func(ctx context.Context, newRow map[string]interface{}) error) (*pgnotify.TableSubscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserts[table] = handler
	return &pgnotify.TableSubscription{ID: table, Table: table}, nil
}

func (f *fakeNotifier) OnUpdate(table string, handler func(ctx context.Context, oldRow, newRow map[string]interface{}) error) (*pgnotify.TableSubscription, error) {
	return &pgnotify.TableSubscription{ID: table, Table: table}, nil
}

func (f *fakeNotifier) OnDelete(table string, handler func(ctx context.Context, oldRow map[string]interface{}) error) (*pgnotify.TableSubscription, error) {
	return &pgnotify.TableSubscription{ID: table, Table: table}, nil
}

func (f *fakeNotifier) fireInsert(ctx context.Context, table string) {
	f.mu.Lock()
	handler := f.inserts[table]
	f.mu.Unlock()
	if handler != nil {
		_ = handler(ctx, nil)
	}
}

func TestWatchTablesSubscribesOncePerTargetKind(t *testing.T) {
	scriptsDir := writeScript(t, "a1.bas", "PRINT 1")
	require.NoError(t, os.WriteFile(filepath.Join(scriptsDir, "a2.bas"), []byte("PRINT 2"), 0o600))
	store := &fakeStore{items: []automation.Automation{
		{ID: "a1", Kind: automation.KindTableInsert, Target: "robots", Param: "a1.bas", IsActive: true},
		{ID: "a2", Kind: automation.KindTableInsert, Target: "robots", Param: "a2.bas", IsActive: true},
	}}
	loop := NewLoop(store, &fakeTables{}, runtime.BindingTable{}, scriptsDir, nil)
	notifier := newFakeNotifier()

	require.NoError(t, loop.WatchTables(context.Background(), notifier))
	require.Len(t, notifier.inserts, 1)
}

func TestNudgeDispatchesMatchingAutomationsImmediately(t *testing.T) {
	scriptsDir := writeScript(t, "a1.bas", "PRINT 1")
	store := &fakeStore{items: []automation.Automation{
		{ID: "a1", Kind: automation.KindTableInsert, Target: "robots", Param: "a1.bas", IsActive: true},
	}}
	loop := NewLoop(store, &fakeTables{}, runtime.BindingTable{}, scriptsDir, nil)
	notifier := newFakeNotifier()
	require.NoError(t, loop.WatchTables(context.Background(), notifier))

	notifier.fireInsert(context.Background(), "robots")

	require.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		_, ok := store.triggered["a1"]
		return ok
	}, time.Second, 10*time.Millisecond)
}
