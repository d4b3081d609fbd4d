package credential

import (
	"testing"

	"github.com/stretchr/testify/assert"
	zkr "github.com/zalando/go-keyring"

	"github.com/neboloop/cell/internal/config"
	"github.com/neboloop/cell/internal/keyring"
)

func TestAPIKeyPrecedence(t *testing.T) {
	zkr.MockInit()
	t.Setenv("CELL_KEYRING_DISABLED", "")
	t.Setenv("ANTHROPIC_API_KEY", "")

	p := config.ProviderConfig{Name: "claude", Type: "anthropic"}

	key, src := APIKey(p)
	assert.Empty(t, key)
	assert.Equal(t, SourceNone, src)

	assert.NoError(t, keyring.Set("claude", "from-keychain"))
	key, src = APIKey(p)
	assert.Equal(t, "from-keychain", key)
	assert.Equal(t, SourceKeychain, src)

	t.Setenv("ANTHROPIC_API_KEY", "from-env")
	key, src = APIKey(p)
	assert.Equal(t, "from-env", key)
	assert.Equal(t, SourceEnv, src)

	p.APIKey = " from-config "
	key, src = APIKey(p)
	assert.Equal(t, "from-config", key)
	assert.Equal(t, SourceConfig, src)
}

func TestAPIKeyKeychainDisabled(t *testing.T) {
	zkr.MockInit()
	t.Setenv("CELL_KEYRING_DISABLED", "1")
	t.Setenv("OPENAI_API_KEY", "")

	assert.NoError(t, keyring.Set("openai", "stored"))
	key, src := APIKey(config.ProviderConfig{Type: "openai"})
	assert.Empty(t, key)
	assert.Equal(t, SourceNone, src)
}

func TestNeedsKey(t *testing.T) {
	assert.True(t, NeedsKey("OpenAI"))
	assert.True(t, NeedsKey("gemini"))
	assert.False(t, NeedsKey("ollama"))
	assert.Equal(t, "GEMINI_API_KEY", EnvVar("gemini"))
}

func TestKeychainAccount(t *testing.T) {
	assert.Equal(t, "work", KeychainAccount(config.ProviderConfig{Name: "Work", Type: "openai"}))
	assert.Equal(t, "ollama", KeychainAccount(config.ProviderConfig{Type: "ollama"}))
}
