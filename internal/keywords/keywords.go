// Package keywords implements the fixed keyword surface of §4.3 (FIND, SET,
// GET, WEBSITE OF, CREATE SITE, CREATE DRAFT) as runtime.KeywordFunc closures
// bound against a capability.Set. Build is the only exported entry point;
// every other file in this package is a private binding.
package keywords

import (
	"github.com/generalbots/botengine/internal/capability"
	"github.com/generalbots/botengine/internal/runtime"
)

// Build wires one KeywordFunc per keyword against caps and returns the
// resulting table, ready to hand to runtime.NewExecutionContext. Capabilities
// left nil still produce a binding — it simply fails with a keyword error
// the first time a script invokes it, rather than at wiring time, matching
// the host's free choice of which capabilities to provide.
func Build(caps *capability.Set) runtime.BindingTable {
	return runtime.BindingTable{
		"FIND":         find(caps),
		"SET":          set(caps),
		"GET":          get(caps),
		"WEBSITE OF":   websiteOf(caps),
		"CREATE SITE":  createSite(caps),
		"CREATE DRAFT": createDraft(caps),
	}
}
