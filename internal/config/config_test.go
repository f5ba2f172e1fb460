package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labassist/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "gemini", cfg.Reasoning.Primary.Provider)
	assert.Equal(t, 120, cfg.Reasoning.Primary.TimeoutSecs)
	assert.Equal(t, 2, cfg.Pipeline.MaxRetries)
	assert.Equal(t, time.Second, cfg.Pipeline.BackoffBase)
	assert.Equal(t, 10, cfg.Pipeline.HistoryLimit)
	assert.Equal(t, int64(20*1024*1024), cfg.Pipeline.MaxDocumentBytes())
	assert.Equal(t, []string{"http://localhost:3000", "http://127.0.0.1:3000"}, cfg.Server.CORSOrigins)
	assert.Zero(t, cfg.Reasoning.RequestsPerSecond)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LABASSIST_REASONING_PRIMARY_PROVIDER", "claude")
	t.Setenv("LABASSIST_REASONING_PRIMARY_API_KEY", "sk-test")
	t.Setenv("LABASSIST_REASONING_SECONDARY_PROVIDER", "ollama")
	t.Setenv("LABASSIST_REASONING_REQUESTS_PER_SECOND", "2.5")
	t.Setenv("LABASSIST_PIPELINE_MAX_RETRIES", "4")
	t.Setenv("LABASSIST_PIPELINE_BACKOFF_BASE", "250ms")
	t.Setenv("LABASSIST_SERVER_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("LABASSIST_S3_BUCKET", "reports")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "claude", cfg.Reasoning.Primary.Provider)
	assert.Equal(t, "sk-test", cfg.Reasoning.Primary.APIKey)
	assert.Equal(t, "ollama", cfg.Reasoning.Secondary.Provider)
	assert.Equal(t, 2.5, cfg.Reasoning.RequestsPerSecond)
	assert.Equal(t, 4, cfg.Pipeline.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.Pipeline.BackoffBase)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "reports", cfg.S3.Bucket)
}

func TestLoad_PlatformPort(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("LABASSIST_SERVER_PORT", "")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Server.Port)
}

func TestReasoningConfig_Providers(t *testing.T) {
	cfg := config.ReasoningConfig{
		Primary:  config.ProviderConfig{Provider: "gemini"},
		Tertiary: config.ProviderConfig{Provider: "openai"},
	}

	provs := cfg.Providers()
	require.Len(t, provs, 2)
	assert.Equal(t, "gemini", provs[0].Provider)
	assert.Equal(t, "openai", provs[1].Provider)

	assert.Empty(t, (&config.ReasoningConfig{}).Providers())
}
