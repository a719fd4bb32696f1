// Package supabase stores events and promotions through the Supabase REST
// (PostgREST) and Storage APIs.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const errBodyLimit = 512

// Client talks to one Supabase project. The service key is sent as both the
// apikey header and a bearer token.
type Client struct {
	baseURL    string
	key        string
	bucket     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a Supabase client. baseURL is the project URL without a
// trailing slash.
func NewClient(baseURL, key, bucket string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		key:        key,
		bucket:     bucket,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// request describes one REST call.
type request struct {
	method  string
	path    string
	query   url.Values
	prefer  string
	body    any
	raw     io.Reader // sent as-is instead of JSON when set
	headers map[string]string
}

// do sends r and decodes a JSON response into out when out is non-nil.
func (c *Client) do(ctx context.Context, r request, out any) error {
	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	var body io.Reader = r.raw
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", r.path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+c.key)
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.prefer != "" {
		req.Header.Set("Prefer", r.prefer)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", r.method, r.path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errBodyLimit))
		return fmt.Errorf("%s %s: status %d: %s", r.method, r.path, resp.StatusCode, msg)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", r.path, err)
	}
	return nil
}
