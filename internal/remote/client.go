// Package remote implements the HTTP transport to the sync server. Every
// network or remote failure comes back as a *sync.TransportError so the
// orchestrator can tell "the wire broke" from "a row was bad".
package remote

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

	"github.com/agrolabs/pasture/internal/domain"
	"github.com/agrolabs/pasture/internal/sync"
)

// Client talks to the server's farm sync endpoints.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewClient creates a Client for the server at baseURL, authenticating with
// the bearer token.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Ping checks connectivity to the server.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/health", nil)
	if err != nil {
		return &sync.TransportError{Op: "ping", Err: err}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &sync.TransportError{Op: "ping", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &sync.TransportError{Op: "ping", Err: fmt.Errorf("health check failed: %d", resp.StatusCode)}
	}
	return nil
}

// Push sends a change batch to the server.
func (c *Client) Push(ctx context.Context, req sync.PushRequest) (*sync.PushResponse, error) {
	path := fmt.Sprintf("/api/v1/farms/%s/sync/push", url.PathEscape(req.FarmID))

	var resp sync.PushResponse
	if err := c.send(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, &sync.TransportError{Op: "push", Err: err}
	}
	return &resp, nil
}

// Pull fetches the server's changes for a farm since the cutoff. A zero
// cutoff requests the full dataset.
func (c *Client) Pull(ctx context.Context, farmID string, since domain.Timestamp) (*sync.PullResponse, error) {
	path := fmt.Sprintf("/api/v1/farms/%s/sync/pull", url.PathEscape(farmID))
	if !since.IsZero() {
		path += "?since=" + url.QueryEscape(since.String())
	}

	var resp sync.PullResponse
	if err := c.send(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, &sync.TransportError{Op: "pull", Err: err}
	}
	return &resp, nil
}

// send issues an authenticated JSON request and decodes the response into
// out. Non-2xx statuses are errors carrying the server's problem detail.
func (c *Client) send(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// statusError turns a non-2xx response into an error, preferring the
// problem+json detail when the server sent one.
func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var problem struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &problem); err == nil && problem.Detail != "" {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, problem.Detail)
	}
	return fmt.Errorf("server returned %d", resp.StatusCode)
}
