package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosscheck-ai/crosscheck/internal/review"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	return dir
}

func TestLoad_MissingFileGivesZeroConfig(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, &Config{}, cfg)
}

func TestLoad_ParsesFullConfig(t *testing.T) {
	dir := writeConfig(t, "crosscheck.yml", `
openai:
  apiKey: sk-file-key
  model: gpt-4o-mini
  queue:
    concurrency: 4
    maxDepth: 32
    requestsPerMinute: 60
gemini:
  enabled: false
cache:
  capacity: 500
  ttlSeconds: 1800
status:
  ttlSeconds: 7200
  sweepIntervalSeconds: 60
scanner:
  excludeFiles:
    - generated/
  patterns:
    - name: internal_token
      title: Internal service token
      category: token
      severity: high
      expr: "xct_[A-Za-z0-9]{32}"
dbPath: /var/lib/crosscheck/crosscheck.db
timeoutMs: 90000
verbose: true
`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "sk-file-key", cfg.OpenAI.APIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.Equal(t, 4, cfg.OpenAI.Queue.Concurrency)
	assert.Equal(t, 32, cfg.OpenAI.Queue.MaxDepth)
	assert.Equal(t, 60, cfg.OpenAI.Queue.RequestsPerMinute)

	require.NotNil(t, cfg.Gemini.Enabled)
	assert.False(t, *cfg.Gemini.Enabled)

	assert.Equal(t, 500, cfg.Cache.Capacity)
	assert.Equal(t, 30*60, cfg.Cache.TTLSeconds)

	assert.Equal(t, []string{"generated/"}, cfg.Scanner.ExcludeFiles)
	require.Len(t, cfg.Scanner.Patterns, 1)
	assert.Equal(t, "internal_token", cfg.Scanner.Patterns[0].Name)
	assert.Equal(t, review.SeverityHigh, cfg.Scanner.Patterns[0].Severity)

	assert.Equal(t, "/var/lib/crosscheck/crosscheck.db", cfg.DBPath)
	assert.Equal(t, 90000, cfg.TimeoutMS)
	assert.True(t, cfg.Verbose)
}

func TestLoad_YamlExtensionFallback(t *testing.T) {
	dir := writeConfig(t, "crosscheck.yaml", "verbose: true\n")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.True(t, cfg.Verbose)
}

func TestLoad_MalformedYAML(t *testing.T) {
	dir := writeConfig(t, "crosscheck.yml", "openai: [not a map\n")

	_, err := Load(dir)
	require.Error(t, err)
}

func TestConfig_KeyResolutionPrefersFile(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env-key")

	cfg := &Config{}
	cfg.OpenAI.APIKey = "sk-file-key"
	assert.Equal(t, "sk-file-key", cfg.OpenAIKey())

	cfg.OpenAI.APIKey = ""
	assert.Equal(t, "sk-env-key", cfg.OpenAIKey())
}

func TestConfig_GeminiKeyEnvFallbackOrder(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "gk-primary")
	t.Setenv("GOOGLE_API_KEY", "gk-fallback")

	cfg := &Config{}
	assert.Equal(t, "gk-primary", cfg.GeminiKey())

	t.Setenv("GEMINI_API_KEY", "")
	assert.Equal(t, "gk-fallback", cfg.GeminiKey())
}

func TestConfig_EnabledFollowsKeyPresence(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")

	cfg := &Config{}
	assert.False(t, cfg.OpenAIEnabled(), "no key anywhere means disabled")

	cfg.OpenAI.APIKey = "sk-file-key"
	assert.True(t, cfg.OpenAIEnabled())

	// An explicit enabled flag beats key presence.
	off := false
	cfg.OpenAI.Enabled = &off
	assert.False(t, cfg.OpenAIEnabled())

	on := true
	cfg.Gemini.Enabled = &on
	assert.True(t, cfg.GeminiEnabled(), "explicitly on even without a key")
}
