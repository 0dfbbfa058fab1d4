// Package remote speaks to the optional remote store over a minimal REST
// contract: push a record, pull a table, delete by id. Every call is scoped
// to the configured workspace.
//
// The remote store is never authoritative; callers decide what to do with
// its answers.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

type Client struct {
	endpoint   string
	apiKey     string
	workspace  string
	httpClient *http.Client
}

func NewClient(endpoint, apiKey, workspace string) *Client {
	return &Client{
		endpoint:  endpoint,
		apiKey:    apiKey,
		workspace: workspace,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Configured reports whether a remote endpoint is set up. When false the
// service runs in pure local-only mode and no remote call is ever attempted.
func (c *Client) Configured() bool {
	return c != nil && c.endpoint != "" && c.apiKey != ""
}

func (c *Client) Push(ctx context.Context, table string, record interface{}) error {
	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tableURL(table), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build push request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to push to %s: %w", table, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("push to %s returned status %d", table, resp.StatusCode)
	}

	return nil
}

// Pull fetches the complete remote collection for a table into out, which
// must be a pointer to a slice.
func (c *Client) Pull(ctx context.Context, table string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.tableURL(table), nil)
	if err != nil {
		return fmt.Errorf("failed to build pull request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to pull %s: %w", table, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("pull %s returned status %d", table, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read pull response: %w", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode pull response: %w", err)
	}

	return nil
}

func (c *Client) Delete(ctx context.Context, table, id string) error {
	deleteURL := fmt.Sprintf("%s/%s?%s", c.endpoint, url.PathEscape(table)+"/"+url.PathEscape(id), c.workspaceQuery())

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, deleteURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build delete request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete from %s returned status %d", table, resp.StatusCode)
	}

	return nil
}

func (c *Client) tableURL(table string) string {
	return fmt.Sprintf("%s/%s?%s", c.endpoint, url.PathEscape(table), c.workspaceQuery())
}

func (c *Client) workspaceQuery() string {
	params := url.Values{}
	params.Add("workspace", c.workspace)
	return params.Encode()
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("X-Workspace", c.workspace)
}
