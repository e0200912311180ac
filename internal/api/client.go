package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/banshee-data/grip.monitor/internal/httputil"
	"github.com/banshee-data/grip.monitor/internal/telemetry"
)

// Client reads the API of a running monitor.
type Client struct {
	base string
	http httputil.HTTPClient
}

// NewClient talks to the monitor at baseURL, e.g. "http://localhost:8080".
// A nil c uses http.DefaultClient.
func NewClient(baseURL string, c httputil.HTTPClient) *Client {
	if c == nil {
		c = http.DefaultClient
	}
	return &Client{base: strings.TrimRight(baseURL, "/"), http: c}
}

// Status fetches /api/status.
func (c *Client) Status(ctx context.Context) (StatusResponse, error) {
	var st StatusResponse
	err := httputil.GetJSON(ctx, c.http, c.base+"/api/status", &st)
	return st, err
}

// Frames fetches one page of frames starting at from.
func (c *Client) Frames(ctx context.Context, from, limit int) (FramesResponse, error) {
	q := url.Values{}
	q.Set("from", fmt.Sprint(from))
	q.Set("limit", fmt.Sprint(limit))
	var page FramesResponse
	err := httputil.GetJSON(ctx, c.http, c.base+"/api/frames?"+q.Encode(), &page)
	return page, err
}

// AllFrames pages through every frame of the current session. If the
// session is reset part way through, it fails rather than mix sessions.
func (c *Client) AllFrames(ctx context.Context) ([]telemetry.Frame, error) {
	var (
		out     []telemetry.Frame
		session string
	)
	for {
		page, err := c.Frames(ctx, len(out), maxFrameLimit)
		if err != nil {
			return nil, err
		}
		if session == "" {
			session = page.SessionID
		} else if page.SessionID != session {
			return nil, fmt.Errorf("session changed from %s to %s while reading frames", session, page.SessionID)
		}
		out = append(out, page.Frames...)
		if len(page.Frames) == 0 || len(out) >= page.Total {
			return out, nil
		}
	}
}

// Reset starts a new decoding session and returns its ID.
func (c *Client) Reset(ctx context.Context) (string, error) {
	var resp map[string]string
	if err := httputil.PostJSON(ctx, c.http, c.base+"/api/reset", &resp); err != nil {
		return "", err
	}
	return resp["session_id"], nil
}
