package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neboloop/cell/internal/agent/ai/aitest"
	"github.com/neboloop/cell/internal/config"
	"github.com/neboloop/cell/internal/realtime"
	"github.com/neboloop/cell/internal/session"
	"github.com/neboloop/cell/internal/svc"
	"github.com/neboloop/cell/internal/types"
)

type testServer struct {
	*httptest.Server
	provider *aitest.Provider
	svcCtx   *svc.ServiceContext
}

func newTestServer(t *testing.T, c config.Config, reply string) *testServer {
	t.Helper()
	p := aitest.New("fake", reply)
	svcCtx, err := svc.NewServiceContext(c, p)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go svcCtx.Hub.Run(ctx)

	srv := httptest.NewServer(NewRouter(c, svcCtx, ServerOptions{Quiet: true}))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return &testServer{Server: srv, provider: p, svcCtx: svcCtx}
}

func (s *testServer) do(t *testing.T, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, s.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

// testConfig disables rate limiting so multi-step tests are not throttled.
func testConfig() config.Config {
	c := config.Default()
	c.Security.RateLimitEnabled = "false"
	return c
}

const historyJSON = `[{"endpoint":"/api/users/list","method":"GET","timestamp":"2024-01-01T10:00:00Z","parameters":{}}]`

func TestHealth(t *testing.T) {
	srv := newTestServer(t, testConfig(), "")

	resp, body := srv.do(t, "GET", "/health", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var health types.HealthResponse
	require.NoError(t, json.Unmarshal(body, &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "fake", health.Provider)
	_, err := time.Parse(time.RFC3339, health.Timestamp)
	assert.NoError(t, err)
}

func TestPredictEndpoint(t *testing.T) {
	srv := newTestServer(t, testConfig(), "  \"/api/users/get\"  ")

	resp, body := srv.do(t, "POST", "/api/predict", `{"apiCalls":`+historyJSON+`}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"prediction":"/api/users/get"}`, string(body))

	resp, body = srv.do(t, "POST", "/api/predict", `{"apiCalls":[]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"prediction":null}`, string(body))
	assert.Len(t, srv.provider.Requests(), 1)
}

func TestPredictInvalidOutputIsNull(t *testing.T) {
	srv := newTestServer(t, testConfig(), "I think they will call users next")

	resp, body := srv.do(t, "POST", "/api/predict", `{"apiCalls":`+historyJSON+`}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"prediction":null}`, string(body))
}

func TestPredictBackendFailureIsNull(t *testing.T) {
	srv := newTestServer(t, testConfig(), "")
	srv.provider.Err = errors.New("connection refused")

	resp, body := srv.do(t, "POST", "/api/predict", `{"apiCalls":`+historyJSON+`}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"prediction":null}`, string(body))
}

func TestPredictMalformedBody(t *testing.T) {
	srv := newTestServer(t, testConfig(), "")

	resp, body := srv.do(t, "POST", "/api/predict", `{"apiCalls":`)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Failed to predict next API call"}`, string(body))
}

func TestChatEndpoint(t *testing.T) {
	srv := newTestServer(t, testConfig(), "You have been listing users.")

	resp, body := srv.do(t, "POST", "/api/chat",
		`{"messages":[{"role":"user","content":"what did I do?"}],"apiCalls":`+historyJSON+`}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"message":"You have been listing users."}`, string(body))
}

func TestChatFailures(t *testing.T) {
	srv := newTestServer(t, testConfig(), "")

	tests := []struct {
		name string
		body string
		err  error
	}{
		{"malformed", `{"messages":`, nil},
		{"no messages", `{"messages":[],"apiCalls":[]}`, nil},
		{"backend error", `{"messages":[{"role":"user","content":"hi"}]}`, errors.New("invalid api key")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv.provider.Err = tt.err
			resp, body := srv.do(t, "POST", "/api/chat", tt.body)
			require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
			assert.JSONEq(t, `{"error":"Failed to process chat request"}`, string(body))
		})
	}
}

func TestSessionLifecycle(t *testing.T) {
	srv := newTestServer(t, testConfig(), "/api/users/get")

	resp, body := srv.do(t, "POST", "/api/sessions", "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created types.CreateSessionResponse
	require.NoError(t, json.Unmarshal(body, &created))
	require.NotEmpty(t, created.Id)
	base := "/api/sessions/" + created.Id

	resp, _ = srv.do(t, "POST", base+"/accept", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body = srv.do(t, "POST", base+"/calls", `{"endpoint":"/api/users/list","method":"get"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var snap session.Snapshot
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.Equal(t, session.StatePredicted, snap.State)
	require.NotNil(t, snap.Prediction)
	assert.Equal(t, "/api/users/get", *snap.Prediction)
	assert.Equal(t, "GET", snap.Calls[0].Method)

	resp, body = srv.do(t, "POST", base+"/accept", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &snap))
	require.Len(t, snap.Calls, 2)
	assert.Equal(t, "/api/users/get", snap.Calls[1].Endpoint)

	resp, body = srv.do(t, "POST", base+"/dismiss", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.Nil(t, snap.Prediction)

	resp, _ = srv.do(t, "POST", base+"/messages", `{"content":"   "}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	srv.provider.SetText("You looked at users.")
	resp, body = srv.do(t, "POST", base+"/messages", `{"content":"what did I do?"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"message":"You looked at users."}`, string(body))

	resp, body = srv.do(t, "GET", base, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.Len(t, snap.Messages, 2)
	assert.True(t, snap.ChatOpen)

	resp, body = srv.do(t, "DELETE", base+"/calls", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.Empty(t, snap.Calls)

	resp, _ = srv.do(t, "DELETE", base, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = srv.do(t, "GET", base, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"error":"session not found"}`, string(body))
}

func TestCaptureRequiresEndpoint(t *testing.T) {
	srv := newTestServer(t, testConfig(), "")
	id := srv.svcCtx.Sessions.Create().ID()

	resp, _ := srv.do(t, "POST", "/api/sessions/"+id+"/calls", `{"method":"GET"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRateLimit(t *testing.T) {
	c := config.Default()
	c.Security.RateLimitRequests = 1
	c.Security.RateLimitInterval = 3600
	c.Security.RateLimitBurst = 2
	srv := newTestServer(t, c, "")

	for i := 0; i < 2; i++ {
		resp, _ := srv.do(t, "POST", "/api/predict", `{"apiCalls":[]}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp, _ := srv.do(t, "POST", "/api/predict", `{"apiCalls":[]}`)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))

	// health is outside the limited group
	resp, _ = srv.do(t, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// mcp shares the same buckets
	resp, _ = srv.do(t, "POST", "/mcp", `{"jsonrpc":"2.0","id":1,"method":"tools/list","params":{}}`)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestRateLimitDisabled(t *testing.T) {
	c := config.Default()
	c.Security.RateLimitEnabled = "false"
	c.Security.RateLimitRequests = 1
	c.Security.RateLimitInterval = 3600
	c.Security.RateLimitBurst = 1
	srv := newTestServer(t, c, "")

	for i := 0; i < 3; i++ {
		resp, _ := srv.do(t, "POST", "/api/predict", `{"apiCalls":[]}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
}

func TestCORSPreflight(t *testing.T) {
	c := config.Default()
	c.Security.AllowedOrigins = "https://app.example.com"
	srv := newTestServer(t, c, "")

	for origin, allowed := range map[string]bool{
		"https://app.example.com": true,
		"http://localhost:5173":   true,
		"https://evil.example":    false,
	} {
		req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/predict", nil)
		require.NoError(t, err)
		req.Header.Set("Origin", origin)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		if allowed {
			assert.Equal(t, origin, resp.Header.Get("Access-Control-Allow-Origin"))
		} else {
			assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
		}
	}
}

func readUntil(t *testing.T, conn *gws.Conn, msgType string) realtime.Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var msg realtime.Message
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == msgType {
			return msg
		}
	}
}

func TestWebSocketSession(t *testing.T) {
	srv := newTestServer(t, testConfig(), "/api/users/get")

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?session=ws-test"
	conn, _, err := gws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	snap := readUntil(t, conn, "snapshot")
	assert.Equal(t, "ws-test", snap.SessionID)

	require.NoError(t, conn.WriteJSON(realtime.ClientMessage{Type: "capture", Endpoint: "/api/users/list"}))
	msg := readUntil(t, conn, "prediction")
	assert.Equal(t, "ws-test", msg.SessionID)
	assert.Equal(t, "/api/users/get", msg.Data)

	require.NoError(t, conn.WriteJSON(realtime.ClientMessage{Type: "ping"}))
	readUntil(t, conn, "pong")

	require.NoError(t, conn.WriteJSON(realtime.ClientMessage{Type: "bogus"}))
	readUntil(t, conn, "error")

	// REST changes to the same session reach the socket too
	resp, _ := srv.do(t, "DELETE", "/api/sessions/ws-test/calls", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	readUntil(t, conn, "cleared")
}

func TestWebSocketRejectsForeignOrigin(t *testing.T) {
	srv := newTestServer(t, testConfig(), "")

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	_, resp, err := gws.DefaultDialer.Dial(url, http.Header{"Origin": []string{"https://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
