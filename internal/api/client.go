package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lecztomek/furnace-panel/internal/schema"
	"github.com/lecztomek/furnace-panel/internal/state"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 10 * time.Second

	// DefaultPort is the controller's default HTTP port.
	DefaultPort = 8000
)

// Client is an HTTP client for the boiler controller's REST API.
//
// The API is treated as an opaque, possibly-failing, possibly-slow
// boundary: no field order is assumed, optional keys may be missing, and
// unexpected field types degrade to the read-only widget rather than
// erroring. All operations take a context for cancellation; the poller
// relies on this to abort the in-flight poll when the panel loses focus.
type Client struct {
	// BaseURL is the controller base URL (e.g., "http://192.168.1.50:8000").
	BaseURL string

	// HTTPClient is the underlying HTTP client.
	HTTPClient *http.Client
}

// NewClient creates a client for a controller at the given host and port.
func NewClient(host string, port int) *Client {
	return NewClientWithURL(fmt.Sprintf("http://%s:%d", host, port))
}

// NewClientWithURL creates a client with a full base URL.
func NewClientWithURL(baseURL string) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: DefaultTimeout},
	}
}

// SetTimeout sets the HTTP request timeout.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.HTTPClient.Timeout = timeout
}

// Ping performs a cheap reachability check against the state endpoint.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.get(ctx, "/state/current")
	return err
}

// GetState fetches the current device state. One call per poll cycle.
func (c *Client) GetState(ctx context.Context) (*state.DeviceState, error) {
	body, err := c.get(ctx, "/state/current")
	if err != nil {
		return nil, err
	}
	s, err := state.Parse(body)
	if err != nil {
		return nil, NewParseError("invalid state payload", err)
	}
	return s, nil
}

// ListModules fetches the ordered list of configurable modules.
func (c *Client) ListModules(ctx context.Context) ([]schema.ModuleInfo, error) {
	body, err := c.get(ctx, "/config/modules")
	if err != nil {
		return nil, err
	}
	mods, err := schema.ParseModules(body)
	if err != nil {
		return nil, NewParseError("invalid module list payload", err)
	}
	return mods, nil
}

// GetSchema fetches the field schema for one module.
func (c *Client) GetSchema(ctx context.Context, moduleID string) (*schema.Schema, error) {
	body, err := c.get(ctx, "/config/schema/"+moduleID)
	if err != nil {
		return nil, err
	}
	s, err := schema.ParseSchema(body)
	if err != nil {
		return nil, NewParseError(fmt.Sprintf("invalid schema payload for module %q", moduleID), err)
	}
	return s, nil
}

// GetValues fetches the current merged configuration values for one module.
func (c *Client) GetValues(ctx context.Context, moduleID string) (map[string]any, error) {
	body, err := c.get(ctx, "/config/values/"+moduleID)
	if err != nil {
		return nil, err
	}
	vals, err := schema.ParseValues(body)
	if err != nil {
		return nil, NewParseError(fmt.Sprintf("invalid values payload for module %q", moduleID), err)
	}
	return vals, nil
}

// PutValues submits a module's complete draft and returns the controller's
// reconciled values. The controller is authoritative after a save: it may
// re-normalize values, and the returned mapping replaces the draft.
func (c *Client) PutValues(ctx context.Context, moduleID string, values map[string]any) (map[string]any, error) {
	body, err := c.send(ctx, http.MethodPut, "/config/values/"+moduleID, values)
	if err != nil {
		return nil, err
	}
	vals, err := schema.ParseValues(body)
	if err != nil {
		return nil, NewParseError(fmt.Sprintf("invalid reconciled values for module %q", moduleID), err)
	}
	return vals, nil
}

// GetValue fetches a single configuration value. Used by the out-of-band
// `config get` command rather than the panel itself.
func (c *Client) GetValue(ctx context.Context, moduleID, key string) (any, error) {
	body, err := c.get(ctx, "/config/value/"+moduleID+"/"+key)
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, NewParseError(fmt.Sprintf("invalid value payload for %s/%s", moduleID, key), err)
	}
	return v, nil
}

// PutValue writes a single configuration value and returns the controller's
// reconciled value.
func (c *Client) PutValue(ctx context.Context, moduleID, key string, value any) (any, error) {
	body, err := c.send(ctx, http.MethodPut, "/config/value/"+moduleID+"/"+key, value)
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, NewParseError(fmt.Sprintf("invalid reconciled value for %s/%s", moduleID, key), err)
	}
	return v, nil
}

// get performs a GET and returns the raw body, mapping failures to the
// error taxonomy.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	return c.send(ctx, http.MethodGet, path, nil)
}

func (c *Client) send(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, NewValidationError(fmt.Sprintf("unencodable request payload: %v", err))
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return nil, NewTransportError("failed to create request", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, NewStaleError("request cancelled")
		}
		return nil, NewTransportError(method+" "+path+" failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewTransportError("failed to read response body", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, NewServerError(resp.StatusCode, extractDetail(body))
	}

	return body, nil
}

// extractDetail pulls the controller's structured error message out of an
// error response body. The controller reports either {"detail": "msg"} or
// {"detail": {"msg": "msg"}}; anything else yields an empty detail and the
// caller falls back to a generic HTTP-status message.
func extractDetail(body []byte) string {
	var envelope struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	switch d := envelope.Detail.(type) {
	case string:
		return d
	case map[string]any:
		if msg, ok := d["msg"].(string); ok {
			return msg
		}
	}
	return ""
}
