package control

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hylauncher/hylauncher/internal/logsink"
)

// Client talks to a running control API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for the API listening on addr (host:port).
func NewClient(addr string) *Client {
	return &Client{
		baseURL: "http://" + strings.TrimSuffix(addr, "/"),
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

// Status fetches GET /status.
func (c *Client) Status(ctx context.Context) (StatusResponse, error) {
	var out StatusResponse
	err := c.do(ctx, http.MethodGet, "/status", nil, &out)
	return out, err
}

// Profiles fetches GET /profiles.
func (c *Client) Profiles(ctx context.Context) ([]ProfileSummary, error) {
	var out struct {
		Profiles []ProfileSummary `json:"profiles"`
	}
	err := c.do(ctx, http.MethodGet, "/profiles", nil, &out)
	return out.Profiles, err
}

// ActivateProfile calls POST /profiles/active.
func (c *Client) ActivateProfile(ctx context.Context, id string) (ProfileSummary, error) {
	var out ProfileSummary
	err := c.do(ctx, http.MethodPost, "/profiles/active", activateRequest{ID: id}, &out)
	return out, err
}

// LaunchClient calls POST /launch/client.
func (c *Client) LaunchClient(ctx context.Context, server string) error {
	return c.do(ctx, http.MethodPost, "/launch/client", launchClientRequest{Server: server}, nil)
}

// LaunchServer calls POST /launch/server.
func (c *Client) LaunchServer(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/launch/server", nil, nil)
}

// Console dials GET /console and delivers records to fn until ctx is done
// or the stream ends.
func (c *Client) Console(ctx context.Context, fn func(logsink.Record)) error {
	url := "ws" + strings.TrimPrefix(c.baseURL, "http") + "/console"
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("control: dial console: %w", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for {
		var rec logsink.Record
		if err := conn.ReadJSON(&rec); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("control: read console: %w", err)
		}
		fn(rec)
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("control: encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("control: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("control: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("control: %s %s: %s", method, path, apiErr.Error)
		}
		return fmt.Errorf("control: %s %s: unexpected status %s", method, path, resp.Status)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("control: decode %s response: %w", path, err)
	}
	return nil
}
