package headless

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	service "github.com/okian/pitchlab/internal/app"
	"github.com/okian/pitchlab/internal/domain/model"
	"github.com/okian/pitchlab/internal/domain/session"
)

// httpClient drives a running server through its HTTP API.
type httpClient struct {
	client  *http.Client
	baseURL string
}

func newHTTPClient(baseURL string, timeout time.Duration) *httpClient {
	return &httpClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// apiError is the error body returned by the server.
type apiError struct {
	Status  int
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("server returned %d %s: %s", e.Status, e.Code, e.Message)
}

func (c *httpClient) do(ctx context.Context, method, path string, body, out interface{}, want int) error {
	var rd io.Reader = http.NoBody
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != want {
		apiErr := &apiError{Status: resp.StatusCode}
		_ = json.Unmarshal(data, apiErr)
		return apiErr
	}

	switch v := out.(type) {
	case nil:
		return nil
	case *string:
		*v = string(data)
		return nil
	default:
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		return nil
	}
}

// checkHealth verifies the service is reachable.
func (c *httpClient) checkHealth(ctx context.Context) error {
	if err := c.do(ctx, http.MethodGet, "/healthz", nil, nil, http.StatusOK); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}
	return nil
}

func (c *httpClient) players(ctx context.Context) ([]model.Player, error) {
	var out []model.Player
	err := c.do(ctx, http.MethodGet, "/players", nil, &out, http.StatusOK)
	return out, err
}

func (c *httpClient) start(ctx context.Context, cfg *Config, ids []string) (string, error) {
	body := map[string]interface{}{
		"drill":      cfg.Drill,
		"player_ids": ids,
		"seed":       cfg.Seed,
		"fatigue":    cfg.Fatigue,
	}
	var snap session.Snapshot
	if err := c.do(ctx, http.MethodPost, "/sessions", body, &snap, http.StatusCreated); err != nil {
		return "", err
	}
	return snap.SessionID, nil
}

func (c *httpClient) advance(ctx context.Context, id string, dt float64) (float64, bool, error) {
	var snap session.Snapshot
	err := c.do(ctx, http.MethodPost, "/sessions/"+id+"/tick", map[string]float64{"dt": dt}, &snap, http.StatusOK)
	return snap.ElapsedSec, snap.Done, err
}

func (c *httpClient) stop(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/sessions/"+id+"/stop", nil, nil, http.StatusOK)
}

func (c *httpClient) report(ctx context.Context, id, format string) (string, error) {
	var body string
	err := c.do(ctx, http.MethodGet, "/sessions/"+id+"/report."+format, nil, &body, http.StatusOK)
	return body, err
}

func (c *httpClient) commit(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/sessions/"+id+"/commit", nil, nil, http.StatusAccepted)
}

func (c *httpClient) commitStatus(ctx context.Context, id string) (string, error) {
	var res service.CommitResult
	err := c.do(ctx, http.MethodGet, "/sessions/"+id+"/commit", nil, &res, http.StatusOK)
	return res.Status, err
}

func (c *httpClient) close() { c.client.CloseIdleConnections() }
