package provider

import (
	"errors"
	"fmt"

	"github.com/neboloop/cell/internal/agent/ai"
	"github.com/neboloop/cell/internal/config"
	"github.com/neboloop/cell/internal/credential"
	"github.com/neboloop/cell/internal/logging"
)

// ErrNoProviders is returned when no configured backend could be built.
var ErrNoProviders = errors.New("no usable provider configured")

// New builds a single backend from its config entry.
func New(pcfg config.ProviderConfig) (ai.Provider, error) {
	kind := pcfg.Kind()

	var key string
	if credential.NeedsKey(kind) {
		var src credential.Source
		key, src = credential.APIKey(pcfg)
		if key == "" {
			return nil, fmt.Errorf("%s: no API key (set %s or run `cell key set %s`)",
				kind, credential.EnvVar(kind), credential.KeychainAccount(pcfg))
		}
		logging.Debugf("[Providers] %s key loaded from %s", credential.KeychainAccount(pcfg), src)
	}

	switch kind {
	case "openai":
		return ai.NewOpenAIProvider(key, pcfg.Model, pcfg.BaseURL), nil
	case "anthropic", "claude":
		return ai.NewAnthropicProvider(key, pcfg.Model), nil
	case "gemini", "google":
		return ai.NewGeminiProvider(key, pcfg.Model), nil
	case "ollama":
		baseURL := pcfg.BaseURL
		if baseURL == "" {
			baseURL = ai.DefaultOllamaURL
		}
		if !ai.CheckOllamaAvailable(baseURL) {
			logging.Warnf("[Providers] Ollama not reachable at %s, requests will fail until it starts", baseURL)
		}
		return ai.NewOllamaProvider(baseURL, pcfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown provider type %q", kind)
	}
}

// Build creates the primary provider and its fallbacks in config order.
// Entries that cannot be built are logged and skipped; when more than one
// remains they are wrapped in an ai.FallbackProvider. only, when non-empty,
// restricts the chain to the entry with that name or type.
func Build(cfg config.Config, only string) (ai.Provider, error) {
	var (
		providers []ai.Provider
		errs      []error
	)
	for _, pcfg := range cfg.Providers() {
		if only != "" && pcfg.Name != only && pcfg.Kind() != only {
			continue
		}
		p, err := New(pcfg)
		if err != nil {
			logging.Warnf("[Providers] skipping %s: %v", credential.KeychainAccount(pcfg), err)
			errs = append(errs, err)
			continue
		}
		providers = append(providers, p)
	}

	switch len(providers) {
	case 0:
		if len(errs) == 0 {
			return nil, ErrNoProviders
		}
		return nil, fmt.Errorf("%w: %w", ErrNoProviders, errors.Join(errs...))
	case 1:
		return providers[0], nil
	default:
		return ai.NewFallbackProvider(providers...), nil
	}
}
