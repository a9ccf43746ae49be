// Package upstream talks to the third-party product API (DummyJSON shaped).
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"storefront/internal/transport"
)

// Doer sends HTTP requests. *http.Client and *transport.Pipeline both fit.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	baseURL string
	doer    Doer
}

// New builds a client rooted at baseURL. Catalog calls should use the
// authenticated pipeline as doer; login and refresh use a bare client.
func New(baseURL string, doer Doer) *Client {
	return &Client{baseURL: baseURL, doer: doer}
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, dest any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	return c.do(req, dest)
}

func (c *Client) postJSON(ctx context.Context, path string, body, dest any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, dest)
}

func (c *Client) do(req *http.Request, dest any) error {
	req.Header.Set("Accept", "application/json")
	resp, err := c.doer.Do(req)
	if err != nil {
		return err
	}
	if err := transport.CheckResponse(resp); err != nil {
		return err
	}
	defer resp.Body.Close()
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode %s %s: %w", req.Method, req.URL.Path, err)
	}
	return nil
}
