package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimiterMiddleware(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{Requests: 1, Interval: time.Hour, Burst: 2})
	h := rl.Middleware()(okHandler())

	do := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/predict", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do("10.0.0.1:1234"))
	assert.Equal(t, http.StatusOK, do("10.0.0.1:5678"))
	assert.Equal(t, http.StatusTooManyRequests, do("10.0.0.1:9999"), "same IP, burst spent")
	assert.Equal(t, http.StatusOK, do("10.0.0.2:1234"), "other clients have their own bucket")
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{IdleTTL: time.Millisecond})
	rl.Allow("a")
	rl.Allow("b")
	time.Sleep(5 * time.Millisecond)

	assert.Equal(t, 2, rl.Cleanup())
	assert.Empty(t, rl.limiters)
}

func TestRateLimiterDefaults(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{})
	assert.Equal(t, 60, rl.cfg.Requests)
	assert.Equal(t, 60, rl.cfg.Burst)
	assert.InDelta(t, 1.0, float64(rl.limit), 0.0001)
}

func TestOriginAllowed(t *testing.T) {
	allowed := []string{"https://app.example.com"}

	assert.True(t, OriginAllowed("", allowed))
	assert.True(t, OriginAllowed("http://localhost:5173", allowed))
	assert.True(t, OriginAllowed("http://127.0.0.1:3000", allowed))
	assert.True(t, OriginAllowed("https://app.example.com", allowed))
	assert.False(t, OriginAllowed("https://evil.example.com", allowed))
	assert.True(t, OriginAllowed("https://anything", []string{"*"}))
}

func TestCORS(t *testing.T) {
	h := CORS(nil)(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodPost, "/api/chat", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
