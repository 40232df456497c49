package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lecztomek/furnace-panel/internal/state"
)

const (
	// streamReadLimit caps incoming websocket frames.
	streamReadLimit = 1 << 16

	// streamPongWait is how long to wait for a pong before the connection
	// is considered dead.
	streamPongWait = 60 * time.Second
)

// streamEnvelope is the message wrapper the controller's websocket endpoint
// uses for state pushes.
type streamEnvelope struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

// StreamState subscribes to the controller's websocket state push at
// /ws/state and invokes handler for every state message until the context
// is cancelled or the connection fails.
//
// This is an alternative transport to the fixed-interval poller for
// controllers that expose the push endpoint; the watch command uses it.
// Cancellation via ctx returns nil, a broken connection returns a
// transport error.
func (c *Client) StreamState(ctx context.Context, interval time.Duration, handler func(*state.DeviceState)) error {
	wsURL, err := c.streamURL(interval)
	if err != nil {
		return NewValidationError(fmt.Sprintf("cannot derive websocket URL from %q: %v", c.BaseURL, err))
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			return NewServerError(resp.StatusCode, "websocket upgrade refused")
		}
		return NewTransportError("websocket dial failed", err)
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(streamReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPingHandler(func(appData string) error {
		_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(5*time.Second))
	})

	// Close the connection when the context ends so the read loop unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return NewTransportError("websocket read failed", err)
		}
		_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))

		var env streamEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			return NewParseError("invalid stream envelope", err)
		}

		switch env.Type {
		case "state":
			s, err := state.Parse(env.Data)
			if err != nil {
				// A single bad frame does not kill the stream.
				continue
			}
			handler(s)
		case "error":
			return NewServerError(500, env.Error)
		default:
			// Unknown envelope types are ignored for forward compatibility.
		}
	}
}

// streamURL converts the HTTP base URL into the websocket endpoint URL.
func (c *Client) streamURL(interval time.Duration) (string, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws/state"
	if interval > 0 {
		q := u.Query()
		q.Set("interval_ms", fmt.Sprintf("%d", interval.Milliseconds()))
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
