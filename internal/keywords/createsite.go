package keywords

import (
	"context"
	"fmt"

	"github.com/generalbots/botengine/domain/script"
	"github.com/generalbots/botengine/infrastructure/errors"
	"github.com/generalbots/botengine/internal/capability"
)

const sitesBucket = "sites"

// createSite implements CREATE SITE(name, description, template, title,
// prompt): asks the LLM capability to draft the page body from prompt, then
// stores it under the ObjectStore at sites/<name>/index.html (§4.3, §9
// supplemented feature grounded on gb-vm's FileManager upload flow).
func createSite(caps *capability.Set) func(ctx context.Context, args []script.Value) (script.Value, error) {
	return func(ctx context.Context, args []script.Value) (script.Value, error) {
		if len(args) != 5 {
			return script.Unit, fmt.Errorf("CREATE SITE expects 5 arguments, got %d", len(args))
		}
		if caps == nil || caps.LLM == nil {
			return script.Unit, errors.BackendUnavailable("llm")
		}
		if caps.ObjectStore == nil {
			return script.Unit, errors.BackendUnavailable("objectstore")
		}
		name, description, template, title, prompt := args[0].AsString(), args[1].AsString(), args[2].AsString(), args[3].AsString(), args[4].AsString()
		if name == "" {
			return script.Unit, fmt.Errorf("CREATE SITE requires a non-empty name")
		}

		fullPrompt := fmt.Sprintf(
			"Generate the HTML body for a page titled %q using the %q template. Description: %s. Instructions: %s",
			title, template, description, prompt,
		)
		content, err := caps.LLM.Invoke(ctx, fullPrompt)
		if err != nil {
			return script.Unit, errors.ExternalAPIError("llm", err)
		}

		key := name + "/index.html"
		if err := caps.ObjectStore.Put(ctx, sitesBucket, key, []byte(content)); err != nil {
			return script.Unit, errors.ExternalAPIError("objectstore", err)
		}
		return script.String(key), nil
	}
}
