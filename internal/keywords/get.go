package keywords

import (
	"context"
	"fmt"
	"strings"

	"github.com/generalbots/botengine/domain/script"
	"github.com/generalbots/botengine/infrastructure/errors"
	"github.com/generalbots/botengine/internal/capability"
	"golang.org/x/net/html"
)

// get implements GET(url): fetches the page via HttpFetch and returns the
// visible text content of its body, script/style elements and any
// head/title text excluded (§4.3).
func get(caps *capability.Set) func(ctx context.Context, args []script.Value) (script.Value, error) {
	return func(ctx context.Context, args []script.Value) (script.Value, error) {
		if len(args) != 1 {
			return script.Unit, fmt.Errorf("GET expects 1 argument, got %d", len(args))
		}
		if caps == nil || caps.HttpFetch == nil {
			return script.Unit, errors.BackendUnavailable("httpfetch")
		}
		body, err := caps.HttpFetch.Get(ctx, args[0].AsString())
		if err != nil {
			return script.Unit, errors.ExternalAPIError("httpfetch", err)
		}
		text, err := extractText(body)
		if err != nil {
			return script.Unit, err
		}
		return script.String(text), nil
	}
}

func extractText(body []byte) (string, error) {
	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return "", err
	}
	root := findBody(doc)
	if root == nil {
		return "", nil
	}
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				sb.WriteString(t)
				sb.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return strings.TrimSpace(sb.String()), nil
}

// findBody returns the document's <body> node, or nil if it has none.
func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
