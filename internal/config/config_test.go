package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	setCoreEnvEmpty(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.BindAddr)
	assert.Equal(t, "auto", cfg.KnowledgeSource)
	assert.Equal(t, "auto", cfg.InferenceMode)
	assert.Equal(t, "portfolio", cfg.MongoDatabase)
	assert.Equal(t, 10, cfg.HistoryMaxTurns)
	assert.Equal(t, 10, cfg.HistoryWindowTurns)
	assert.Equal(t, 100_000, cfg.PromptMaxBytes)
	assert.InDelta(t, 0.3, cfg.InferenceTemperature, 1e-9)
	assert.InDelta(t, 0.8, cfg.InferenceTopP, 1e-9)
	assert.Equal(t, 40, cfg.InferenceTopK)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.False(t, cfg.ArchiveEnabled)
	assert.Equal(t, 30*time.Minute, cfg.SessionInactivityTimeout)
}

func TestLoadFallsBackToGeminiKey(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("GEMINI_API_KEY", " gem-key ")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "gem-key", cfg.InferenceAPIKey)

	t.Setenv("INFERENCE_API_KEY", "explicit")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "explicit", cfg.InferenceAPIKey)
}

func TestLoadParsesOverrides(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("HISTORY_MAX_TURNS", "6")
	t.Setenv("HISTORY_WINDOW_TURNS", "20")
	t.Setenv("INFERENCE_TOP_K", "10")
	t.Setenv("ARCHIVE_ENABLED", "yes")
	t.Setenv("APP_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.HistoryMaxTurns)
	assert.Equal(t, 6, cfg.HistoryWindowTurns)
	assert.Equal(t, 10, cfg.InferenceTopK)
	assert.True(t, cfg.ArchiveEnabled)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"HISTORY_MAX_TURNS":              "0",
		"PROMPT_MAX_BYTES":               "-1",
		"INFERENCE_TOP_P":                "1.5",
		"INFERENCE_TEMPERATURE":          "abc",
		"APP_SESSION_INACTIVITY_TIMEOUT": "1s",
		"ARCHIVE_ENABLED":                "maybe",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			setCoreEnvEmpty(t)
			t.Setenv(key, value)
			_, err := Load()
			require.Error(t, err)
		})
	}
}

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_BIND_ADDR",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_SESSION_INACTIVITY_TIMEOUT",
		"APP_METRICS_NAMESPACE",
		"APP_LOG_LEVEL",
		"APP_ALLOWED_ORIGINS",
		"ASSISTANT_OWNER_NAME",
		"KNOWLEDGE_SOURCE",
		"KNOWLEDGE_FILE",
		"MONGODB_URI",
		"MONGODB_DATABASE",
		"DATABASE_URL",
		"ARCHIVE_ENABLED",
		"HISTORY_MAX_TURNS",
		"HISTORY_WINDOW_TURNS",
		"PROMPT_MAX_BYTES",
		"INFERENCE_MODE",
		"INFERENCE_BASE_URL",
		"INFERENCE_API_KEY",
		"GEMINI_API_KEY",
		"INFERENCE_MODEL",
		"INFERENCE_HTTP_URL",
		"INFERENCE_TEMPERATURE",
		"INFERENCE_TOP_P",
		"INFERENCE_TOP_K",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}
