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
	for _, k := range []string{
		"DIALOGUE_MODE", "PORT", "DIALOGUE_PORT", "DIALOGUE_LLM_PROVIDER",
		"DIALOGUE_MODEL_NAME", "DIALOGUE_GCP_PROJECT", "DIALOGUE_GCP_LOCATION",
		"DIALOGUE_LLM_BASE_URL", "DIALOGUE_LLM_TIMEOUT", "DIALOGUE_USE_MOCK_LLM",
		"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GEMINI_API_KEY",
		"DIALOGUE_MAX_SOURCE_CHARS", "DIALOGUE_REFLECTION_DELAY",
		"DIALOGUE_READY_TO_END_AFTER", "DIALOGUE_FALLBACK_POOL_FILE",
		"DIALOGUE_ARCHIVE_BACKEND", "DIALOGUE_ARCHIVE_GCP_PROJECT",
		"DIALOGUE_LOG_LEVEL", "DIALOGUE_LOG_FORMAT", "DIALOGUE_ADVISORY_DELAY",
		"DIALOGUE_TRACE_EXPORTER", "OTEL_EXPORTER_OTLP_ENDPOINT", "DIALOGUE_OTLP_INSECURE",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ModeLocal, cfg.Mode)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, ProviderMock, cfg.LLM.Provider)
	assert.Equal(t, 24000, cfg.Session.MaxSourceChars)
	assert.Equal(t, 8, cfg.Session.ReadyToEndAfter)
	assert.Equal(t, ArchiveMemory, cfg.Archive.Backend)
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "dialogue.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "9090"
llm:
  provider: openai
  api_key: sk-file
  timeout: 30s
session:
  max_source_chars: 5000
  reflection_delay: 250ms
`), 0o600))

	t.Setenv("DIALOGUE_MAX_SOURCE_CHARS", "7000")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, "sk-file", cfg.LLM.APIKey)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 7000, cfg.Session.MaxSourceChars)
	assert.Equal(t, 250*time.Millisecond, cfg.Session.ReflectionDelay)
}

func TestProviderAPIKeyFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("DIALOGUE_LLM_PROVIDER", "anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sk-ant", cfg.LLM.APIKey)
}

func TestUseMockOverridesProvider(t *testing.T) {
	clearEnv(t)
	t.Setenv("DIALOGUE_LLM_PROVIDER", "vertex")
	t.Setenv("DIALOGUE_USE_MOCK_LLM", "1")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ProviderMock, cfg.LLM.Provider)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown provider", func(c *Config) { c.LLM.Provider = "llama" }},
		{"vertex without project", func(c *Config) { c.LLM.Provider = ProviderVertex }},
		{"openai without key", func(c *Config) { c.LLM.Provider = ProviderOpenAI }},
		{"firestore without project", func(c *Config) { c.Archive.Backend = ArchiveFirestore }},
		{"non numeric port", func(c *Config) { c.Server.Port = "http" }},
		{"zero ready threshold", func(c *Config) { c.Session.ReadyToEndAfter = 0 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }},
		{"unknown trace exporter", func(c *Config) { c.Tracing.Exporter = "zipkin" }},
		{"otlp without endpoint", func(c *Config) { c.Tracing.Exporter = "otlp"; c.Tracing.OTLPEndpoint = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, Default().Validate())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := Default()
	cfg.LLM.Provider = ProviderGemini
	cfg.LLM.APIKey = "g-key"
	cfg.Session.AdvisoryDelay = 3 * time.Second
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ProviderGemini, loaded.LLM.Provider)
	assert.Equal(t, "g-key", loaded.LLM.APIKey)
	assert.Equal(t, 3*time.Second, loaded.Session.AdvisoryDelay)
}
