package keywords

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/generalbots/botengine/domain/script"
	"github.com/generalbots/botengine/infrastructure/errors"
	"github.com/generalbots/botengine/internal/capability"
)

// searchResultSelectors are tried in order against the search results page.
// Search engines change their markup often enough that a single selector is
// not reliable, so this list is deliberately redundant across a couple of
// common result-link shapes.
var searchResultSelectors = []string{
	"div#search a[href^='http']",
	"a.result-link",
	"a[href^='http']",
}

// searchEngineDomain is excluded from WEBSITE OF's candidates, since
// searchResultSelectors' last, broadest entry also matches the search
// engine's own nav and asset links (§4.3).
const searchEngineDomain = "duckduckgo.com"

const noResultsFound = "No results found"

// websiteOf implements WEBSITE OF(query): runs query through a search engine
// inside a leased browser session and returns the first organic result URL,
// or the literal sentinel "No results found" (§4.3, §9 supplemented feature
// grounded on gb-automation's web navigation flow). Candidates whose href
// belongs to the search engine itself are excluded, and duplicate hrefs
// across selectors are collapsed, before picking the first survivor.
func websiteOf(caps *capability.Set) func(ctx context.Context, args []script.Value) (script.Value, error) {
	return func(ctx context.Context, args []script.Value) (script.Value, error) {
		if len(args) != 1 {
			return script.Unit, fmt.Errorf("WEBSITE OF expects 1 argument, got %d", len(args))
		}
		if caps == nil || caps.Browser == nil {
			return script.Unit, errors.BackendUnavailable("browser")
		}
		searchURL := "https://" + searchEngineDomain + "/html/?q=" + url.QueryEscape(args[0].AsString())

		var result string
		err := caps.Browser.WithBrowser(ctx, func(ctx context.Context, session capability.BrowserSession) error {
			if err := session.Navigate(ctx, searchURL); err != nil {
				return err
			}
			hrefs, err := session.FindAll(ctx, searchResultSelectors)
			if err != nil {
				return err
			}
			result = firstOrganicResult(hrefs)
			return nil
		})
		if err != nil {
			return script.Unit, errors.BrowserSessionError(err)
		}
		if result == "" {
			return script.String(noResultsFound), nil
		}
		return script.String(result), nil
	}
}

// firstOrganicResult returns the first href that is neither the search
// engine's own domain nor a repeat of one already seen, or "" if every
// candidate is excluded.
func firstOrganicResult(hrefs []string) string {
	seen := make(map[string]bool, len(hrefs))
	for _, href := range hrefs {
		if strings.Contains(href, searchEngineDomain) {
			continue
		}
		if seen[href] {
			continue
		}
		seen[href] = true
		return href
	}
	return ""
}
