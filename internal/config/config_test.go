package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "DEV_MODE", "DATABASE_PATH", "LOG_LEVEL", "AI_PROVIDER",
		"GEMINI_API_KEY", "GEMINI_MODEL", "ANTHROPIC_API_KEY", "ANTHROPIC_MODEL",
		"TAVILY_API_KEY", "BRAVE_API_KEY", "RETENTION_DAYS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Port)
	assert.False(t, cfg.DevMode)
	assert.Equal(t, "./data/stocklens.db", cfg.DatabasePath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "gemini", cfg.DefaultAIProvider)
	assert.Equal(t, "gemini-2.0-flash", cfg.GeminiModel)
	assert.Equal(t, "claude-sonnet-4-20250514", cfg.AnthropicModel)
	assert.Equal(t, 90, cfg.RetentionDays)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9100")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("AI_PROVIDER", "anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	t.Setenv("RETENTION_DAYS", "0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, "anthropic", cfg.DefaultAIProvider)
	assert.Equal(t, 0, cfg.RetentionDays)
	assert.True(t, cfg.SynthesisEnabled())
}

func TestLoadInvalidIntFallsBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Port)
}

func TestValidateRejectsUnknownProvider(t *testing.T) {
	clearEnv(t)
	t.Setenv("AI_PROVIDER", "openai")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AI_PROVIDER must be gemini or anthropic")
}

func TestSynthesisEnabled(t *testing.T) {
	cfg := &Config{DefaultAIProvider: "gemini"}
	assert.False(t, cfg.SynthesisEnabled())

	cfg.GeminiAPIKey = "key"
	assert.True(t, cfg.SynthesisEnabled())

	cfg = &Config{DefaultAIProvider: "anthropic", GeminiAPIKey: "key"}
	assert.False(t, cfg.SynthesisEnabled(), "anthropic selected but no anthropic key")

	cfg.AnthropicAPIKey = "key"
	assert.True(t, cfg.SynthesisEnabled())
}
