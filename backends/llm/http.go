// Package llm implements the LLM capability as a thin HTTP client against an
// OpenAI-compatible chat-completions endpoint, parsing the response body
// with tidwall/gjson rather than a generated SDK type — the response shape
// this backend needs is one string field, not worth a struct.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/generalbots/botengine/infrastructure/resilience"
)

// Config configures the chat-completions endpoint this backend calls.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Client implements capability.LLM.
type Client struct {
	cfg  Config
	http *http.Client
}

func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}}
}

func (c *Client) Invoke(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(map[string]any{
		"model": c.cfg.Model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	var body []byte
	err = resilience.Retry(ctx, resilience.DefaultRetryConfig(), func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.cfg.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("call llm: %w", err)
		}
		defer resp.Body.Close()

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read llm response: %w", err)
		}
		if resp.StatusCode >= 500 {
			return fmt.Errorf("llm returned status %d: %s", resp.StatusCode, gjson.GetBytes(body, "error.message").String())
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	content := gjson.GetBytes(body, "choices.0.message.content")
	if !content.Exists() {
		return "", fmt.Errorf("llm returned an error or an unexpected response: %s", gjson.GetBytes(body, "error.message").String())
	}
	return content.String(), nil
}
