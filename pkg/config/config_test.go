package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_AIConfig(t *testing.T) {
	// Setup environment variables
	os.Setenv("AI_PROVIDER", "Anthropic")
	os.Setenv("AI_API_KEY", "test-key")
	os.Setenv("AI_MODEL", "claude-sonnet-4-20250514")
	defer func() {
		os.Unsetenv("AI_PROVIDER")
		os.Unsetenv("AI_API_KEY")
		os.Unsetenv("AI_MODEL")
	}()

	// Load config
	cfg, err := Load()
	assert.NoError(t, err)

	// Verify AI config, provider is lowercased
	assert.Equal(t, "anthropic", cfg.AI.Provider)
	assert.Equal(t, "test-key", cfg.AI.APIKey)
	assert.Equal(t, "claude-sonnet-4-20250514", cfg.AI.Model)
}

func TestLoad_Defaults(t *testing.T) {
	// Ensure env vars are cleared
	os.Unsetenv("AI_PROVIDER")
	os.Unsetenv("AI_MODEL")
	os.Unsetenv("AUDIT_DIR")
	os.Unsetenv("BENCHMARK_DIR")

	cfg, err := Load()
	assert.NoError(t, err)

	// Verify defaults
	assert.Equal(t, "openai", cfg.AI.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.AI.Model)
	assert.Equal(t, "data/audit", cfg.Storage.AuditDir)
	assert.Equal(t, "data/benchmarks", cfg.Storage.BenchmarkDir)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.OTEL.Enabled)
}

func TestLoad_UnknownProvider(t *testing.T) {
	os.Setenv("AI_PROVIDER", "llamafile")
	defer os.Unsetenv("AI_PROVIDER")

	_, err := Load()
	assert.Error(t, err)
}
