package cpctl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cpmanager/pkg/types"
)

// Admin is the daemon's admin surface as seen by the CLI.
type Admin interface {
	Startup(ctx context.Context, params map[string]string) error
	Shutdown(ctx context.Context) error
	Activate(ctx context.Context) error
	Deactivate(ctx context.Context) error
	State(ctx context.Context) (types.ComponentState, error)
	SelfTest(ctx context.Context) ([]types.TestResult, error)
	Version(ctx context.Context) (string, error)
	Objects(ctx context.Context) ([]string, error)
	SBState(ctx context.Context, req types.SBStateRequest) error
}

// APIError is a non-2xx reply from the daemon.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("http %d", e.Status)
	}
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

// Client talks to the admin API over HTTP.
type Client struct {
	base string
	http *http.Client
}

// NewClient returns a client for addr, which may omit the scheme.
func NewClient(addr string, timeout time.Duration) *Client {
	base := strings.TrimRight(addr, "/")
	if !strings.Contains(base, "://") {
		if strings.HasPrefix(base, ":") {
			base = "127.0.0.1" + base
		}
		base = "http://" + base
	}
	return &Client{base: base, http: &http.Client{Timeout: timeout}}
}

// Base returns the resolved base URL.
func (c *Client) Base() string { return c.base }

func (c *Client) Startup(ctx context.Context, params map[string]string) error {
	if params == nil {
		params = map[string]string{}
	}
	return c.do(ctx, http.MethodPost, "/admin/startup", params, nil)
}

func (c *Client) Shutdown(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/admin/shutdown", nil, nil)
}

func (c *Client) Activate(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/admin/activate", nil, nil)
}

func (c *Client) Deactivate(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/admin/deactivate", nil, nil)
}

func (c *Client) State(ctx context.Context) (types.ComponentState, error) {
	var out types.StateResponse
	err := c.do(ctx, http.MethodGet, "/admin/state", nil, &out)
	return out.State, err
}

func (c *Client) SelfTest(ctx context.Context) ([]types.TestResult, error) {
	var out types.SelfTestResponse
	err := c.do(ctx, http.MethodPost, "/admin/selftest", nil, &out)
	return out.Results, err
}

func (c *Client) Version(ctx context.Context) (string, error) {
	var out types.VersionResponse
	err := c.do(ctx, http.MethodGet, "/admin/version", nil, &out)
	return out.Version, err
}

func (c *Client) Objects(ctx context.Context) ([]string, error) {
	var out types.ObjectsResponse
	err := c.do(ctx, http.MethodGet, "/objects", nil, &out)
	return out.Objects, err
}

func (c *Client) SBState(ctx context.Context, req types.SBStateRequest) error {
	return c.do(ctx, http.MethodPost, "/sbstate", req, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	debug("%s %s", method, req.URL)
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e types.ErrorResponse
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&e)
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

var _ Admin = (*Client)(nil)
