package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"OPENAI_API_KEY", "OPENAI_BASE_URL", "COWRITER_MODEL", "COWRITER_PORT",
		"COWRITER_LOG_LEVEL", "COWRITER_MOCK_PROVIDER", "COWRITER_ANALYZE_FIRST",
		"TAVILY_API_KEY", "TAVILY_BASE_URL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "gpt-4o", cfg.Provider.Model)
	assert.Equal(t, 500, cfg.Provider.CoWriter.MaxTokens)
	assert.InDelta(t, 0.8, cfg.Provider.CoWriter.Temperature, 0.0001)
	assert.Equal(t, 50*time.Millisecond, cfg.WordDelay())
	assert.Equal(t, 15*time.Millisecond, cfg.CharDelay())
	assert.Equal(t, 60*time.Second, cfg.CycleTimeout())
	assert.False(t, cfg.Session.AnalyzeFirst)
	assert.Equal(t, "https://api.tavily.com", cfg.Search.BaseURL)
	assert.Equal(t, 8000, cfg.Search.PageLimit)
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout())
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "cowriter.yaml")
	yamlDoc := `
server:
  port: "9090"
provider:
  model: gpt-4o-mini
  co_writer:
    max_tokens: 800
    temperature: 0.5
session:
  analyze_first: true
  word_delay: 0s
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o644))

	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("COWRITER_PORT", "7070")
	t.Setenv("TAVILY_API_KEY", "tvly-env")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, "sk-env", cfg.Provider.APIKey)
	assert.Equal(t, "tvly-env", cfg.Search.APIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.Provider.Model)
	assert.Equal(t, 800, cfg.Provider.CoWriter.MaxTokens)
	// untouched nested defaults survive a partial file
	assert.Equal(t, 1000, cfg.Provider.Analysis.MaxTokens)
	assert.True(t, cfg.Session.AnalyzeFirst)
	assert.Equal(t, time.Duration(0), cfg.WordDelay())
}

func TestLoad_BoolEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("COWRITER_MOCK_PROVIDER", "true")
	t.Setenv("COWRITER_ANALYZE_FIRST", "1")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.Provider.Mock)
	assert.True(t, cfg.Session.AnalyzeFirst)
}

func TestLoad_RejectsBadDuration(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("session:\n  cycle_timeout: soon\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session.cycle_timeout")
}

func TestLoad_RejectsBadSearchSettings(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "search.yaml")
	require.NoError(t, os.WriteFile(path, []byte("search:\n  max_results: 0\n  fetch_timeout: later\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "search.max_results")
	assert.Contains(t, err.Error(), "search.fetch_timeout")
}
