package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
)

// selectorProbeTimeout bounds how long FindFirst waits on each candidate
// selector before moving to the next one.
const selectorProbeTimeout = 2 * time.Second

// Session is a BrowserLease's handle into its own incognito page. It
// implements capability.BrowserSession and is only ever used inside the
// callback passed to Pool.WithBrowser — it must not be retained past that
// call, since the page is closed the moment the callback returns.
type Session struct {
	page *rod.Page
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := s.page.Context(ctx).Navigate(url); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return s.page.Context(ctx).WaitLoad()
}

func (s *Session) Submit(ctx context.Context, selector, value string) error {
	el, err := s.page.Context(ctx).Element(selector)
	if err != nil {
		return fmt.Errorf("locate %s: %w", selector, err)
	}
	if err := el.Input(value); err != nil {
		return fmt.Errorf("input into %s: %w", selector, err)
	}
	return el.Type(input.Enter)
}

func (s *Session) WaitVisible(ctx context.Context, selector string) error {
	el, err := s.page.Context(ctx).Element(selector)
	if err != nil {
		return fmt.Errorf("locate %s: %w", selector, err)
	}
	return el.WaitVisible()
}

// FindFirst tries each selector in order and returns the href of the first
// element matched. A selector matching nothing is not an error — only an
// I/O failure probing the page is; exhausting every selector without a
// match returns found=false so the caller can fall back to its own
// not-found sentinel.
func (s *Session) FindFirst(ctx context.Context, selectors []string) (string, bool, error) {
	for _, sel := range selectors {
		el, err := s.page.Context(ctx).Timeout(selectorProbeTimeout).Element(sel)
		if errors.Is(err, context.DeadlineExceeded) {
			// The probe timeout elapsed: the selector matched nothing.
			continue
		}
		if err != nil {
			return "", false, fmt.Errorf("probe %s: %w", sel, err)
		}
		href, err := el.Attribute("href")
		if err != nil {
			return "", false, fmt.Errorf("read href of %s: %w", sel, err)
		}
		if href == nil {
			continue
		}
		return *href, true, nil
	}
	return "", false, nil
}

// FindAll tries each selector in order and returns every matched element's
// href, across all selectors, in document order — unlike FindFirst it does
// not stop at the first match, so a caller can filter and dedupe candidates
// before picking one (§4.3 WEBSITE OF).
func (s *Session) FindAll(ctx context.Context, selectors []string) ([]string, error) {
	var hrefs []string
	for _, sel := range selectors {
		els, err := s.page.Context(ctx).Timeout(selectorProbeTimeout).Elements(sel)
		if err != nil {
			continue
		}
		for _, el := range els {
			href, err := el.Attribute("href")
			if err != nil || href == nil || *href == "" {
				continue
			}
			hrefs = append(hrefs, *href)
		}
	}
	return hrefs, nil
}

func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	info, err := s.page.Context(ctx).Info()
	if err != nil {
		return "", err
	}
	return info.URL, nil
}
