// Package config loads process-level settings from crosscheck.yml. API keys
// may live in the file or in the environment; the environment wins only when
// the file leaves a key empty.
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/crosscheck-ai/crosscheck/internal/backend"
	"github.com/crosscheck-ai/crosscheck/internal/secrets"
)

// BackendConfig holds one backend's credentials and queue tuning.
type BackendConfig struct {
	Enabled *bool               `yaml:"enabled,omitempty"` // nil means enabled when a key resolves
	APIKey  string              `yaml:"apiKey,omitempty"`
	Model   string              `yaml:"model,omitempty"`
	BaseURL string              `yaml:"baseUrl,omitempty"`
	Queue   backend.QueueConfig `yaml:"queue,omitempty"`
}

// CacheConfig tunes the in-memory result cache.
type CacheConfig struct {
	Capacity   int `yaml:"capacity,omitempty"`
	TTLSeconds int `yaml:"ttlSeconds,omitempty"`
}

// StatusConfig tunes retention of terminal status entries.
type StatusConfig struct {
	TTLSeconds           int `yaml:"ttlSeconds,omitempty"`
	SweepIntervalSeconds int `yaml:"sweepIntervalSeconds,omitempty"`
}

// ScannerConfig tunes the secret scanner. Custom patterns and file
// exclusions extend the built-in sets.
type ScannerConfig struct {
	Disabled       bool `yaml:"disabled,omitempty"`
	secrets.Config `yaml:",inline"`
}

// Config holds project-level settings loaded from crosscheck.yml.
type Config struct {
	OpenAI  BackendConfig `yaml:"openai,omitempty"`
	Gemini  BackendConfig `yaml:"gemini,omitempty"`
	Cache   CacheConfig   `yaml:"cache,omitempty"`
	Status  StatusConfig  `yaml:"status,omitempty"`
	Scanner ScannerConfig `yaml:"scanner,omitempty"`

	// DBPath enables persistence across restarts when set.
	DBPath string `yaml:"dbPath,omitempty"`

	// TimeoutMS is the default per-request timeout.
	TimeoutMS int  `yaml:"timeoutMs,omitempty"`
	Verbose   bool `yaml:"verbose,omitempty"`
}

// Load attempts to read crosscheck.yml or crosscheck.yaml from the given
// directory. Returns a zero-value config (not an error) if no config file
// exists.
func Load(dir string) (*Config, error) {
	for _, name := range []string{"crosscheck.yml", "crosscheck.yaml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var cfg Config
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
		return &cfg, nil
	}
	return &Config{}, nil
}

// OpenAIKey resolves the OpenAI API key: file first, then OPENAI_API_KEY.
func (c *Config) OpenAIKey() string {
	if c.OpenAI.APIKey != "" {
		return c.OpenAI.APIKey
	}
	return os.Getenv("OPENAI_API_KEY")
}

// GeminiKey resolves the Gemini API key: file first, then GEMINI_API_KEY,
// then GOOGLE_API_KEY.
func (c *Config) GeminiKey() string {
	if c.Gemini.APIKey != "" {
		return c.Gemini.APIKey
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		return key
	}
	return os.Getenv("GOOGLE_API_KEY")
}

// OpenAIEnabled reports whether the OpenAI backend should be registered.
func (c *Config) OpenAIEnabled() bool {
	if c.OpenAI.Enabled != nil {
		return *c.OpenAI.Enabled
	}
	return c.OpenAIKey() != ""
}

// GeminiEnabled reports whether the Gemini backend should be registered.
func (c *Config) GeminiEnabled() bool {
	if c.Gemini.Enabled != nil {
		return *c.Gemini.Enabled
	}
	return c.GeminiKey() != ""
}

// CacheTTL returns the configured cache TTL, or zero when unset so callers
// fall back to their own default.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// StatusTTL returns the configured status retention, or zero when unset.
func (c *Config) StatusTTL() time.Duration {
	return time.Duration(c.Status.TTLSeconds) * time.Second
}

// SweepInterval returns the configured sweep cadence, or zero when unset.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Status.SweepIntervalSeconds) * time.Second
}
