package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// client is the JSON-over-HTTP plumbing shared by every provider.
type client struct {
	name       string
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func newClient(name string, cfg Config) *client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &client{
		name:       name,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// post sends in as JSON and decodes the 2xx response into out. Transport
// failures, 429 and 5xx come back transient, everything else permanent.
func (c *client) post(ctx context.Context, path string, in, out any) error {
	if c.baseURL == "" {
		return permanent(c.name, ErrNotConfigured)
	}

	body, err := json.Marshal(in)
	if err != nil {
		return permanent(c.name, fmt.Errorf("encode request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return permanent(c.name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transient(c.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return transient(c.name, fmt.Errorf("%s returned status %d", c.name, resp.StatusCode))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return permanent(c.name, fmt.Errorf("%s returned status %d: %s", c.name, resp.StatusCode, strings.TrimSpace(string(msg))))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return permanent(c.name, fmt.Errorf("decode response: %w", err))
	}
	return nil
}
