package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the server and CLI configuration, loaded from etc/cell.yaml
// and optionally overridden by a file passed with --config.
type Config struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Timezone string `yaml:"timezone"` // IANA name used when rendering call times; empty = local

	App        AppConfig        `yaml:"app"`
	Provider   ProviderConfig   `yaml:"provider"`
	Fallback   []ProviderConfig `yaml:"fallback"`
	Prediction PredictionConfig `yaml:"prediction"`
	Chat       ChatConfig       `yaml:"chat"`
	CallLog    CallLogConfig    `yaml:"call_log"`
	Sessions   SessionsConfig   `yaml:"sessions"`
	Security   SecurityConfig   `yaml:"security"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type AppConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	BaseURL string `yaml:"base_url"`
}

// ProviderConfig holds configuration for a single backend
type ProviderConfig struct {
	Name    string `yaml:"name"`               // Identifier used in logs and keychain lookups
	Type    string `yaml:"type"`               // "openai", "anthropic", "ollama" or "gemini"
	APIKey  string `yaml:"api_key,omitempty"`  // Usually ${OPENAI_API_KEY}
	Model   string `yaml:"model,omitempty"`    // Empty uses the provider default
	BaseURL string `yaml:"base_url,omitempty"` // OpenAI-compatible endpoint or Ollama daemon
}

// Kind returns the provider type, falling back to the name.
func (p ProviderConfig) Kind() string {
	if p.Type != "" {
		return strings.ToLower(p.Type)
	}
	return strings.ToLower(p.Name)
}

type PredictionConfig struct {
	MaxTokens        int      `yaml:"max_tokens"`
	TimeoutSeconds   int      `yaml:"timeout_seconds"`
	AllowedEndpoints []string `yaml:"allowed_endpoints"` // Empty = any /api/ path
	SchemaFile       string   `yaml:"schema_file"`       // OpenAPI JSON or YAML; its paths join the allow list
}

type ChatConfig struct {
	MaxTokens      int `yaml:"max_tokens"`
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

type CallLogConfig struct {
	Capacity int `yaml:"capacity"`
}

type SessionsConfig struct {
	IdleTimeoutMinutes int `yaml:"idle_timeout_minutes"` // Idle server sessions are dropped after this long
}

type SecurityConfig struct {
	RateLimitEnabled  string `yaml:"rate_limit_enabled"`
	RateLimitRequests int    `yaml:"rate_limit_requests"` // Requests per interval
	RateLimitInterval int    `yaml:"rate_limit_interval"` // Seconds
	RateLimitBurst    int    `yaml:"rate_limit_burst"`
	AllowedOrigins    string `yaml:"allowed_origins"` // Comma separated; empty = same origin only
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	Color string `yaml:"color"`
}

// Default returns a config with the built-in defaults.
func Default() Config {
	return Config{
		Host: "127.0.0.1",
		Port: 3000,
		App: AppConfig{
			Name:    "cell",
			Version: "dev",
		},
		Provider: ProviderConfig{
			Name:  "openai",
			Type:  "openai",
			Model: "gpt-4o",
		},
		Prediction: PredictionConfig{
			MaxTokens:      50,
			TimeoutSeconds: 10,
		},
		Chat: ChatConfig{
			MaxTokens:      500,
			TimeoutSeconds: 30,
		},
		CallLog:  CallLogConfig{Capacity: 50},
		Sessions: SessionsConfig{IdleTimeoutMinutes: 60},
		Security: SecurityConfig{
			RateLimitEnabled:  "true",
			RateLimitRequests: 60,
			RateLimitInterval: 60,
			RateLimitBurst:    10,
		},
		Logging: LoggingConfig{
			Level: "info",
			Color: "true",
		},
	}
}

// LoadFromBytes loads configuration from YAML bytes with environment variable expansion.
// Keys missing from data keep their defaults.
func LoadFromBytes(data []byte) (Config, error) {
	c := Default()
	if err := c.merge(data); err != nil {
		return c, err
	}
	return c, nil
}

// LoadFrom overlays the YAML file at path onto base.
func LoadFrom(base Config, path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, err
	}
	c := base
	// Slices are replaced rather than merged by yaml.v3, copy to avoid aliasing base.
	c.Fallback = append([]ProviderConfig(nil), base.Fallback...)
	c.Prediction.AllowedEndpoints = append([]string(nil), base.Prediction.AllowedEndpoints...)
	if err := c.merge(data); err != nil {
		return base, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func (c *Config) merge(data []byte) error {
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), c); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return c.Validate()
}

// Validate rejects values the services cannot run with.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.Provider.Kind() == "" {
		return fmt.Errorf("provider.type is required")
	}
	if c.Prediction.MaxTokens < 0 || c.Chat.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must not be negative")
	}
	if c.CallLog.Capacity < 0 {
		return fmt.Errorf("call_log.capacity must not be negative")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// parseBool parses a string as boolean with a default value.
// Accepts: "true", "1", "yes" as true; empty or other values return default.
func parseBool(s string, defaultVal bool) bool {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return defaultVal
	}
	return s == "true" || s == "1" || s == "yes"
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Location resolves Timezone, defaulting to the process local zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c Config) PredictionTimeout() time.Duration {
	return seconds(c.Prediction.TimeoutSeconds, 10)
}

func (c Config) ChatTimeout() time.Duration {
	return seconds(c.Chat.TimeoutSeconds, 30)
}

func (c Config) SessionIdleTimeout() time.Duration {
	n := c.Sessions.IdleTimeoutMinutes
	if n <= 0 {
		n = 60
	}
	return time.Duration(n) * time.Minute
}

func seconds(n, def int) time.Duration {
	if n <= 0 {
		n = def
	}
	return time.Duration(n) * time.Second
}

func (c Config) IsRateLimitEnabled() bool {
	return parseBool(c.Security.RateLimitEnabled, true)
}

func (c Config) IsLogColor() bool {
	return parseBool(c.Logging.Color, true)
}

// AllowedOrigins splits the comma separated origin list.
func (c Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.Security.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// Providers returns the primary provider followed by the fallbacks.
func (c Config) Providers() []ProviderConfig {
	return append([]ProviderConfig{c.Provider}, c.Fallback...)
}
