package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nerrad567/gray-logic-connector/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-connector/internal/schema"
)

const defaultTimeout = 10 * time.Second

// Client talks to the remote schema authority. Safe for concurrent use.
type Client struct {
	base       *url.URL
	token      string
	httpClient *http.Client
}

// New creates a Client from configuration.
func New(cfg config.CloudConfig) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.URL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, cfg.URL)
	}

	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		base:  base,
		token: cfg.Token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// UpdateSchema replaces the authority's schema for a device.
func (c *Client) UpdateSchema(ctx context.Context, deviceID string, s schema.Schema) error {
	body, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding schema: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPut, "devices/"+url.PathEscape(deviceID)+"/schema", body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// HealthCheck verifies the authority is reachable and answering.
func (c *Client) HealthCheck(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "health", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// do sends a request and converts non-2xx responses into *StatusError.
// On success the caller owns resp.Body.
func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	u := c.base.JoinPath(path)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreachable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	return resp, nil
}
