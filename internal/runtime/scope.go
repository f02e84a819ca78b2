package runtime

import "github.com/generalbots/botengine/domain/script"

type scope map[string]script.Value

// ExecutionContext is the mutable state one script invocation carries
// through Execute: a scope stack, the capability-backed binding table, and
// the PRINT sink — there is no shared interpreter state across invocations,
// so concurrent goroutines each get their own ExecutionContext (§5).
type ExecutionContext struct {
	Bindings BindingTable
	// Print receives each PRINT statement's formatted line. Defaults to a
	// no-op sink if left nil; the host wires this to its logger.
	Print  func(line string)
	scopes []scope
}

// NewExecutionContext builds a fresh context with a single, empty top-level
// scope.
func NewExecutionContext(bindings BindingTable) *ExecutionContext {
	return &ExecutionContext{Bindings: bindings, scopes: []scope{make(scope)}}
}

func (ec *ExecutionContext) println(line string) {
	if ec.Print != nil {
		ec.Print(line)
	}
}

// Depth reports the current scope-stack depth, used by tests to assert the
// post-loop invariant in §8.
func (ec *ExecutionContext) Depth() int { return len(ec.scopes) }

func (ec *ExecutionContext) push() { ec.scopes = append(ec.scopes, make(scope)) }

func (ec *ExecutionContext) pop() { ec.scopes = ec.scopes[:len(ec.scopes)-1] }

// define binds name in the current (innermost) scope, shadowing any outer
// binding of the same name — this is LET's semantics.
func (ec *ExecutionContext) define(name string, v script.Value) {
	ec.scopes[len(ec.scopes)-1][name] = v
}

func (ec *ExecutionContext) lookup(name string) (script.Value, bool) {
	for i := len(ec.scopes) - 1; i >= 0; i-- {
		if v, ok := ec.scopes[i][name]; ok {
			return v, true
		}
	}
	return script.Unit, false
}

// assign rebinds name in the nearest enclosing scope that declared it,
// falling back to defining it in the current scope if undeclared anywhere
// (§3's Assign semantics).
func (ec *ExecutionContext) assign(name string, v script.Value) {
	for i := len(ec.scopes) - 1; i >= 0; i-- {
		if _, ok := ec.scopes[i][name]; ok {
			ec.scopes[i][name] = v
			return
		}
	}
	ec.define(name, v)
}
