// Package api is the HTTP client for the echo scoring service.
package api

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

// TokenSource supplies and invalidates the process-wide bearer credential.
type TokenSource interface {
	Token() string
	Invalidate()
}

// StaticToken is a fixed, non-invalidating credential used in tests and one-shots.
type StaticToken string

func (t StaticToken) Token() string { return string(t) }
func (t StaticToken) Invalidate()   {}

// Client issues authenticated requests against one scoring-service base URL.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
}

// Config controls client construction.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Tokens  TokenSource
}

// NewClient builds a client with sane timeout and token defaults.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Tokens == nil {
		cfg.Tokens = StaticToken("")
	}
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		tokens:  cfg.Tokens,
	}
}

// BaseURL returns the configured service root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do issues one request with the bearer credential attached.
//
// A 401 from any endpoint invalidates the credential process-wide and
// surfaces as ErrAuthExpired.
func (c *Client) do(ctx context.Context, method, path string, payload any) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s payload: %w", method, path, err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s request: %w", method, path, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Op: fmt.Sprintf("%s %s", method, path), Err: err}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		drain(resp)
		c.tokens.Invalidate()
		return nil, ErrAuthExpired
	}

	return resp, nil
}

// decode reads and unmarshals a response body, then closes it.
func decode(resp *http.Response, out any) error {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: "read response body", Err: err}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// statusError drains the body into an unexpected-status error.
func statusError(resp *http.Response) error {
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}

// drain discards and closes a response body so the connection can be reused.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
