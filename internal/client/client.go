// Package client talks to a running cell server over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/neboloop/cell/internal/chat"
	"github.com/neboloop/cell/internal/logging"
	"github.com/neboloop/cell/internal/session"
	"github.com/neboloop/cell/internal/types"
)

const defaultTimeout = 60 * time.Second

// Client calls the /api endpoints of a cell server.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

// StatusError is a non-2xx answer from the server.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Message)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("client: create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e types.ErrorResponse
		json.NewDecoder(resp.Body).Decode(&e)
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &StatusError{Code: resp.StatusCode, Message: e.Error}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("client: decode response: %w", err)
	}
	return nil
}

func (c *Client) Health(ctx context.Context) (*types.HealthResponse, error) {
	var resp types.HealthResponse
	if err := c.do(ctx, http.MethodGet, "/health", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Predict asks the server for the next call. Any failure is an error here;
// PredictNext is the lenient form.
func (c *Client) Predict(ctx context.Context, calls []types.APICall) (*string, error) {
	var resp types.PredictResponse
	if err := c.do(ctx, http.MethodPost, "/api/predict", &types.PredictRequest{APICalls: calls}, &resp); err != nil {
		return nil, err
	}
	return resp.Prediction, nil
}

// PredictNext implements session.Predictor against the server. Failures
// mean no prediction.
func (c *Client) PredictNext(ctx context.Context, calls []types.APICall) *string {
	if len(calls) == 0 {
		return nil
	}
	prediction, err := c.Predict(ctx, calls)
	if err != nil {
		logging.Warnf("[client] prediction failed: %v", err)
		return nil
	}
	return prediction
}

func (c *Client) Chat(ctx context.Context, messages []types.ChatMessage, calls []types.APICall) (string, error) {
	var resp types.ChatResponse
	req := &types.ChatRequest{Messages: messages, APICalls: calls}
	if err := c.do(ctx, http.MethodPost, "/api/chat", req, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Reply implements session.Chatter against the server.
func (c *Client) Reply(ctx context.Context, messages []types.ChatMessage, calls []types.APICall) string {
	text, err := c.Chat(ctx, messages, calls)
	if err != nil {
		logging.Warnf("[client] chat failed: %v", err)
		return chat.Apology
	}
	return text
}

func (c *Client) CreateSession(ctx context.Context) (string, error) {
	var resp types.CreateSessionResponse
	if err := c.do(ctx, http.MethodPost, "/api/sessions", nil, &resp); err != nil {
		return "", err
	}
	return resp.Id, nil
}

func sessionPath(id string, parts ...string) string {
	return "/api/sessions/" + url.PathEscape(id) + strings.Join(parts, "")
}

func (c *Client) snapshot(ctx context.Context, method, path string, body any) (*session.Snapshot, error) {
	var snap session.Snapshot
	if err := c.do(ctx, method, path, body, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *Client) GetSession(ctx context.Context, id string) (*session.Snapshot, error) {
	return c.snapshot(ctx, http.MethodGet, sessionPath(id), nil)
}

func (c *Client) Capture(ctx context.Context, id, endpoint, method string, params map[string]any) (*session.Snapshot, error) {
	body := map[string]any{"endpoint": endpoint, "method": method, "parameters": params}
	return c.snapshot(ctx, http.MethodPost, sessionPath(id, "/calls"), body)
}

func (c *Client) Accept(ctx context.Context, id string) (*session.Snapshot, error) {
	return c.snapshot(ctx, http.MethodPost, sessionPath(id, "/accept"), nil)
}

func (c *Client) Dismiss(ctx context.Context, id string) (*session.Snapshot, error) {
	return c.snapshot(ctx, http.MethodPost, sessionPath(id, "/dismiss"), nil)
}

func (c *Client) ClearCalls(ctx context.Context, id string) (*session.Snapshot, error) {
	return c.snapshot(ctx, http.MethodDelete, sessionPath(id, "/calls"), nil)
}

func (c *Client) SendMessage(ctx context.Context, id, content string) (string, error) {
	var resp types.ChatResponse
	if err := c.do(ctx, http.MethodPost, sessionPath(id, "/messages"), map[string]string{"content": content}, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (c *Client) DeleteSession(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, sessionPath(id), nil, nil)
}
