// Package scriptlang compiles the BASIC-dialect automation scripts of §4.1
// into an AST: Normalize (Phase 1, syntactic line rewriting) followed by
// Parse (Phase 2, recursive descent). Compile is pure — it performs no I/O.
package scriptlang

import "github.com/generalbots/botengine/domain/script"

// Compile turns source text into an AST, or a *CompileError describing the
// first malformed construct encountered.
func Compile(source string) (*script.AST, error) {
	normalized, err := Normalize(source)
	if err != nil {
		return nil, err
	}
	return Parse(normalized)
}
