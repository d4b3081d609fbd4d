package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Prediction.MaxTokens != 50 {
		t.Errorf("expected prediction max tokens 50, got %d", cfg.Prediction.MaxTokens)
	}
	if cfg.Chat.MaxTokens != 500 {
		t.Errorf("expected chat max tokens 500, got %d", cfg.Chat.MaxTokens)
	}
	if cfg.CallLog.Capacity != 50 {
		t.Errorf("expected capacity 50, got %d", cfg.CallLog.Capacity)
	}
	if cfg.PredictionTimeout() != 10*time.Second {
		t.Errorf("expected 10s prediction timeout, got %s", cfg.PredictionTimeout())
	}
	if cfg.ChatTimeout() != 30*time.Second {
		t.Errorf("expected 30s chat timeout, got %s", cfg.ChatTimeout())
	}
	if cfg.SessionIdleTimeout() != time.Hour {
		t.Errorf("expected 1h session idle timeout, got %s", cfg.SessionIdleTimeout())
	}
	if !cfg.IsRateLimitEnabled() {
		t.Error("expected rate limiting enabled by default")
	}
	require.NoError(t, cfg.Validate())
}

func TestLoadFromBytesExpandsEnv(t *testing.T) {
	t.Setenv("CELL_TEST_KEY", "sk-test")

	cfg, err := LoadFromBytes([]byte(`
port: 8080
provider:
  name: openai
  type: openai
  api_key: ${CELL_TEST_KEY}
prediction:
  allowed_endpoints: [/api/users/list, /api/projects/create]
`))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "sk-test", cfg.Provider.APIKey)
	assert.Equal(t, []string{"/api/users/list", "/api/projects/create"}, cfg.Prediction.AllowedEndpoints)
	// untouched sections keep defaults
	assert.Equal(t, 500, cfg.Chat.MaxTokens)
	assert.Equal(t, "127.0.0.1:8080", cfg.Addr())
}

func TestLoadFromBytesInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad yaml", "port: [1"},
		{"bad port", "port: 0"},
		{"bad timezone", "timezone: Mars/Olympus"},
		{"negative capacity", "call_log:\n  capacity: -1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromBytes([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadFromOverlaysBase(t *testing.T) {
	base, err := LoadFromBytes([]byte("port: 9000\nfallback:\n  - name: ollama\n    type: ollama\n"))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "cell.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: debug\n"), 0600))

	cfg, err := LoadFrom(base, path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	require.Len(t, cfg.Providers(), 2)
	assert.Equal(t, "ollama", cfg.Providers()[1].Kind())
}

func TestLoadFromMissingFile(t *testing.T) {
	_, err := LoadFrom(Default(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.True(t, os.IsNotExist(err))
}

func TestParseBool(t *testing.T) {
	assert.True(t, parseBool("", true))
	assert.False(t, parseBool("", false))
	assert.True(t, parseBool(" YES ", false))
	assert.True(t, parseBool("1", false))
	assert.False(t, parseBool("off", true))
}

func TestAllowedOrigins(t *testing.T) {
	cfg := Default()
	assert.Empty(t, cfg.AllowedOrigins())

	cfg.Security.AllowedOrigins = "http://localhost:3000, https://app.example.com,,"
	assert.Equal(t, []string{"http://localhost:3000", "https://app.example.com"}, cfg.AllowedOrigins())
}

func TestLocation(t *testing.T) {
	cfg := Default()
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	cfg.Timezone = "UTC"
	loc, err = cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
}

func TestProviderKind(t *testing.T) {
	assert.Equal(t, "anthropic", ProviderConfig{Name: "claude", Type: "Anthropic"}.Kind())
	assert.Equal(t, "gemini", ProviderConfig{Name: "gemini"}.Kind())
}

func TestWatchReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cell.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 4000\n"), 0600))

	changes := make(chan Config, 4)
	w, err := Watch(Default(), path, func(c Config) { changes <- c })
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte("port: 4001\n"), 0600))

	select {
	case c := <-changes:
		assert.Equal(t, 4001, c.Port)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}
}

func TestWatchRemovedKeyFallsBackToBase(t *testing.T) {
	base, err := LoadFromBytes([]byte("port: 9000\n"))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "cell.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 4000\nlogging:\n  level: debug\n"), 0600))
	loaded, err := LoadFrom(base, path)
	require.NoError(t, err)
	require.Equal(t, 4000, loaded.Port)

	changes := make(chan Config, 4)
	w, err := Watch(base, path, func(c Config) { changes <- c })
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: warn\n"), 0600))

	select {
	case c := <-changes:
		assert.Equal(t, 9000, c.Port, "removed key falls back to the base value")
		assert.Equal(t, "warn", c.Logging.Level)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}
}
