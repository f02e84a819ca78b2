package trigger

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/generalbots/botengine/domain/automation"
	"github.com/generalbots/botengine/infrastructure/errors"
	"github.com/generalbots/botengine/internal/capability"
	"github.com/generalbots/botengine/internal/runtime"
	"github.com/generalbots/botengine/internal/scriptlang"
	"github.com/generalbots/botengine/pkg/logger"
	"github.com/generalbots/botengine/pkg/metrics"
)

// Interval is the fixed poll period the loop ticks at (§4.4).
const Interval = 5 * time.Second

// Loop is the Trigger Loop: every Interval it loads every active
// Automation, evaluates whether it is due (cron schedule elapsed, or its
// watched table changed since it last fired), and dispatches a fresh script
// invocation for each one that is — one goroutine per invocation, never
// blocking the poll itself (§5, §9's at-least-once delivery guarantee).
type Loop struct {
	Store      AutomationStore
	Tables     capability.Tables
	Bindings   runtime.BindingTable
	ScriptsDir string
	Log        *logger.Logger

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewLoop builds a Loop ready to Run. scriptsDir is the directory every
// Automation's Param is resolved against (§4.4 Dispatch).
func NewLoop(store AutomationStore, tables capability.Tables, bindings runtime.BindingTable, scriptsDir string, log *logger.Logger) *Loop {
	if log == nil {
		log = logger.NewDefault("trigger")
	}
	return &Loop{Store: store, Tables: tables, Bindings: bindings, ScriptsDir: scriptsDir, Log: log, stopCh: make(chan struct{})}
}

// Run blocks, polling every Interval until ctx is cancelled or Stop is
// called.
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-l.stopCh:
			return
		case <-ticker.C:
			l.runCycle(ctx)
		}
	}
}

// Stop ends a running Loop; safe to call more than once.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
}

func (l *Loop) runCycle(ctx context.Context) {
	now := time.Now()
	automations, err := l.Store.ListActive(ctx)
	if err != nil {
		l.Log.WithField("error", err).Error("list active automations")
		return
	}

	for _, a := range automations {
		due, err := l.isDue(ctx, a, now)
		if err != nil {
			l.Log.WithField("automation_id", a.ID).WithField("error", err).Warn("evaluate automation due-ness")
			continue
		}
		if !due {
			continue
		}
		l.dispatch(ctx, a)
	}
}

func (l *Loop) isDue(ctx context.Context, a automation.Automation, now time.Time) (bool, error) {
	if a.Kind == automation.KindScheduled {
		since := a.CreatedAt
		return cronDue(a.Schedule, a.LastTriggered, since, now)
	}
	since := a.CreatedAt
	if a.LastTriggered != nil {
		since = *a.LastTriggered
	}
	return tableChanged(ctx, l.Tables, a.Target, a.Kind, since)
}

// dispatch reads, compiles, and runs a's script file in its own goroutine. A
// read, compile, or runtime error is logged and otherwise swallowed: it must
// never take down the loop. last_triggered only advances on success — per
// §7/§9's at-least-once contract, a failed run leaves it unchanged so the
// automation is reconsidered, and may succeed, on the next cycle.
func (l *Loop) dispatch(ctx context.Context, a automation.Automation) {
	go func() {
		start := time.Now()
		source, err := l.readScript(a.Param)
		if err != nil {
			l.Log.WithField("automation_id", a.ID).WithField("error", err).Error("read automation script")
			metrics.RecordAutomationDispatch(a.ID, false)
			return
		}
		ast, err := scriptlang.Compile(source)
		if err != nil {
			l.Log.WithField("automation_id", a.ID).WithField("error", errors.ScriptCompileError(a.Param, err)).Error("compile automation script")
			metrics.RecordAutomationDispatch(a.ID, false)
			return
		}
		ec := runtime.NewExecutionContext(l.Bindings)
		ec.Print = func(line string) {
			l.Log.WithField("automation_id", a.ID).Info(line)
		}
		_, err = runtime.Execute(ctx, ast, ec)
		metrics.RecordScriptRun(err == nil, time.Since(start))
		metrics.RecordAutomationDispatch(a.ID, err == nil)
		if err != nil {
			l.Log.WithField("automation_id", a.ID).WithField("error", errors.ScriptRuntimeError(a.Param, err)).Error("execute automation script")
			return
		}
		if err := l.Store.MarkTriggered(ctx, a.ID, start); err != nil {
			l.Log.WithField("automation_id", a.ID).WithField("error", err).Error("mark automation triggered")
		}
	}()
}

// readScript reads the BASIC source at <ScriptsDir>/<param>, rejecting any
// param that would resolve outside ScriptsDir (§4.4: param is a path
// relative to a configured scripts directory, never an absolute or
// directory-escaping one).
func (l *Loop) readScript(param string) (string, error) {
	full := filepath.Join(l.ScriptsDir, param)
	rel, err := filepath.Rel(l.ScriptsDir, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.InvalidInput("param", "path escapes the scripts directory")
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
