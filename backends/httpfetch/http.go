// Package httpfetch implements the HttpFetch capability GET relies on. It is
// a plain net/http client: no library in the reference corpus wraps generic
// outbound HTTP fetching (gin, gjson, and rod all address other layers), so
// this is one of the few components built directly on the standard library.
package httpfetch

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/generalbots/botengine/infrastructure/resilience"
)

// Config configures the client's timeout and certificate verification.
type Config struct {
	Timeout time.Duration
	// InsecureSkipVerify allows fetching from hosts with self-signed or
	// otherwise unverifiable certificates, matching the "permissive-TLS"
	// fetcher behavior scripts expect when reaching arbitrary third-party
	// sites (§4.3, §9).
	InsecureSkipVerify bool
}

// Client implements capability.HttpFetch.
type Client struct {
	http *http.Client
}

func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{http: &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify},
		},
	}}
}

// retryConfig is tuned shorter than the LLM backend's default: GET is used
// interactively from script keyword calls, which share the script's overall
// execution budget (§5).
var retryConfig = resilience.RetryConfig{
	MaxAttempts:  2,
	InitialDelay: 50 * time.Millisecond,
	MaxDelay:     500 * time.Millisecond,
	Multiplier:   2,
	Jitter:       0.1,
}

func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	err := resilience.Retry(ctx, retryConfig, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("build request for %s: %w", url, err)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", url, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			return fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
		}
		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read body of %s: %w", url, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}
