package runtime

import (
	"context"

	"github.com/generalbots/botengine/domain/script"
)

// KeywordFunc is the shape every keyword binding implements (internal/keywords
// registers one per keyword name). It is the only suspension point in a
// script invocation: the goroutine blocks inside fn for as long as the
// underlying capability call takes, and nowhere else (§5's cooperative
// concurrency model).
type KeywordFunc func(ctx context.Context, args []script.Value) (script.Value, error)

// BindingTable maps keyword names (as they appear in script.Call/KeywordCall)
// to their implementation. It is built once by the host process from
// internal/keywords and shared read-only across every ExecutionContext.
type BindingTable map[string]KeywordFunc
