package credential

import (
	"os"
	"strings"

	"github.com/neboloop/cell/internal/config"
	"github.com/neboloop/cell/internal/keyring"
	"github.com/neboloop/cell/internal/logging"
)

// Source names where an API key was found.
type Source string

const (
	SourceNone     Source = ""
	SourceConfig   Source = "config"
	SourceEnv      Source = "env"
	SourceKeychain Source = "keychain"
)

var envVars = map[string]string{
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
	"gemini":    "GEMINI_API_KEY",
}

// EnvVar returns the conventional environment variable for a provider type.
func EnvVar(kind string) string {
	return envVars[strings.ToLower(kind)]
}

// NeedsKey reports whether the provider type authenticates with an API key.
func NeedsKey(kind string) bool {
	return EnvVar(kind) != ""
}

// KeychainAccount is the keychain account a provider's key is stored under.
func KeychainAccount(p config.ProviderConfig) string {
	if p.Name != "" {
		return strings.ToLower(p.Name)
	}
	return p.Kind()
}

// APIKey resolves the key for p: the config value (already env-expanded),
// then the provider's environment variable, then the OS keychain.
func APIKey(p config.ProviderConfig) (string, Source) {
	if key := strings.TrimSpace(p.APIKey); key != "" {
		return key, SourceConfig
	}
	if name := EnvVar(p.Kind()); name != "" {
		if key := strings.TrimSpace(os.Getenv(name)); key != "" {
			return key, SourceEnv
		}
	}
	if os.Getenv("CELL_KEYRING_DISABLED") == "1" {
		return "", SourceNone
	}
	key, err := keyring.Get(KeychainAccount(p))
	if err != nil {
		if !keyring.IsNotFound(err) {
			logging.Debugf("[credential] %v", err)
		}
		return "", SourceNone
	}
	return key, SourceKeychain
}
