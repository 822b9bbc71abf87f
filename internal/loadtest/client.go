package loadtest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/okian/ecomap/internal/domain/types"
)

// client wraps http.Client with the calls a run needs.
type client struct {
	http    *http.Client
	baseURL string
}

func newClient(baseURL string, timeout time.Duration) *client {
	return &client{http: &http.Client{Timeout: timeout}, baseURL: baseURL}
}

func (c *client) getJSON(ctx context.Context, path string, v any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	return c.do(req, v)
}

func (c *client) postJSON(ctx context.Context, path string, body, v any) (int, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, v)
}

func (c *client) do(req *http.Request, v any) (int, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	if v != nil && len(body) > 0 && resp.StatusCode < http.StatusBadRequest {
		if err := json.Unmarshal(body, v); err != nil {
			return resp.StatusCode, fmt.Errorf("parse response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

func (c *client) health(ctx context.Context) error {
	status, err := c.getJSON(ctx, "/healthz", nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("health check returned %d", status)
	}
	return nil
}

func (c *client) events(ctx context.Context) ([]types.EventView, error) {
	var list types.EventList
	if _, err := c.getJSON(ctx, "/events", &list); err != nil {
		return nil, err
	}
	return list.Events, nil
}

func (c *client) event(ctx context.Context, id string) (types.EventView, error) {
	var v types.EventView
	status, err := c.getJSON(ctx, "/events/"+url.PathEscape(id), &v)
	if err == nil && status != http.StatusOK {
		err = fmt.Errorf("event %s returned %d", id, status)
	}
	return v, err
}

func (c *client) join(ctx context.Context, j join) outcome {
	in := types.JoinInput{ParticipantID: j.ParticipantID, RequestID: j.RequestID}
	status, err := c.postJSON(ctx, "/events/"+url.PathEscape(j.EventID)+"/join", in, nil)
	switch {
	case err != nil:
		return outcomeFailed
	case status == http.StatusAccepted:
		return outcomeAccepted
	case status == http.StatusOK:
		return outcomeDuplicate
	case status == http.StatusConflict:
		return outcomeRejected
	case status == http.StatusTooManyRequests:
		return outcomeBackpressure
	default:
		return outcomeFailed
	}
}

func (c *client) rank(ctx context.Context, participantID string) (Entry, bool, error) {
	var e Entry
	status, err := c.getJSON(ctx, "/rank/"+url.PathEscape(participantID), &e)
	if err != nil {
		return Entry{}, false, err
	}
	return e, status == http.StatusOK, nil
}

func (c *client) leaderboard(ctx context.Context, n int) ([]Entry, error) {
	var entries []Entry
	status, err := c.getJSON(ctx, fmt.Sprintf("/leaderboard?limit=%d", n), &entries)
	if err == nil && status != http.StatusOK {
		err = fmt.Errorf("leaderboard returned %d", status)
	}
	return entries, err
}

func (c *client) queueLength(ctx context.Context) (int, error) {
	var stats map[string]any
	if _, err := c.getJSON(ctx, "/stats", &stats); err != nil {
		return 0, err
	}
	n, _ := stats["queueLength"].(float64)
	return int(n), nil
}
