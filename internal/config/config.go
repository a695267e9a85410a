package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config contains all runtime settings for the portfolio chat service.
type Config struct {
	BindAddr                 string
	ShutdownTimeout          time.Duration
	SessionInactivityTimeout time.Duration
	MetricsNamespace         string
	LogLevel                 string
	AllowedOrigins           []string

	OwnerName string

	KnowledgeSource string
	KnowledgeFile   string
	MongoURI        string
	MongoDatabase   string
	DatabaseURL     string
	ArchiveEnabled  bool

	HistoryMaxTurns    int
	HistoryWindowTurns int
	PromptMaxBytes     int

	InferenceMode        string
	InferenceBaseURL     string
	InferenceAPIKey      string
	InferenceModel       string
	InferenceHTTPURL     string
	InferenceTemperature float64
	InferenceTopP        float64
	InferenceTopK        int
}

// Load reads environment variables and applies safe defaults. A .env file in
// the working directory is applied first when present; real environment
// variables win over it.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "portfolio_chat"),
		LogLevel:         envOrDefault("APP_LOG_LEVEL", "info"),
		AllowedOrigins:   listFromEnv("APP_ALLOWED_ORIGINS", []string{"*"}),
		OwnerName:        envOrDefault("ASSISTANT_OWNER_NAME", "Abdi Esayas"),
		KnowledgeSource:  envOrDefault("KNOWLEDGE_SOURCE", "auto"),
		KnowledgeFile:    stringsTrimSpace("KNOWLEDGE_FILE"),
		MongoURI:         stringsTrimSpace("MONGODB_URI"),
		MongoDatabase:    envOrDefault("MONGODB_DATABASE", "portfolio"),
		DatabaseURL:      stringsTrimSpace("DATABASE_URL"),
		InferenceMode:    envOrDefault("INFERENCE_MODE", "auto"),
		InferenceBaseURL: stringsTrimSpace("INFERENCE_BASE_URL"),
		InferenceAPIKey:  stringsTrimSpace("INFERENCE_API_KEY"),
		InferenceModel:   stringsTrimSpace("INFERENCE_MODEL"),
		InferenceHTTPURL: stringsTrimSpace("INFERENCE_HTTP_URL"),
		// Five user/assistant exchanges.
		HistoryMaxTurns:          10,
		HistoryWindowTurns:       10,
		PromptMaxBytes:           100_000,
		InferenceTemperature:     0.3,
		InferenceTopP:            0.8,
		InferenceTopK:            40,
		ShutdownTimeout:          15 * time.Second,
		SessionInactivityTimeout: 30 * time.Minute,
	}
	if cfg.InferenceAPIKey == "" {
		cfg.InferenceAPIKey = stringsTrimSpace("GEMINI_API_KEY")
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionInactivityTimeout, err = durationFromEnv("APP_SESSION_INACTIVITY_TIMEOUT", cfg.SessionInactivityTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.ArchiveEnabled, err = boolFromEnv("ARCHIVE_ENABLED", cfg.ArchiveEnabled)
	if err != nil {
		return Config{}, err
	}
	cfg.HistoryMaxTurns, err = intFromEnv("HISTORY_MAX_TURNS", cfg.HistoryMaxTurns)
	if err != nil {
		return Config{}, err
	}
	cfg.HistoryWindowTurns, err = intFromEnv("HISTORY_WINDOW_TURNS", cfg.HistoryWindowTurns)
	if err != nil {
		return Config{}, err
	}
	cfg.PromptMaxBytes, err = intFromEnv("PROMPT_MAX_BYTES", cfg.PromptMaxBytes)
	if err != nil {
		return Config{}, err
	}
	cfg.InferenceTemperature, err = floatFromEnv("INFERENCE_TEMPERATURE", cfg.InferenceTemperature)
	if err != nil {
		return Config{}, err
	}
	cfg.InferenceTopP, err = floatFromEnv("INFERENCE_TOP_P", cfg.InferenceTopP)
	if err != nil {
		return Config{}, err
	}
	cfg.InferenceTopK, err = intFromEnv("INFERENCE_TOP_K", cfg.InferenceTopK)
	if err != nil {
		return Config{}, err
	}

	if cfg.SessionInactivityTimeout < 5*time.Second {
		return Config{}, fmt.Errorf("APP_SESSION_INACTIVITY_TIMEOUT must be at least 5s")
	}
	if cfg.HistoryMaxTurns <= 0 {
		return Config{}, fmt.Errorf("HISTORY_MAX_TURNS must be positive")
	}
	if cfg.HistoryWindowTurns <= 0 {
		return Config{}, fmt.Errorf("HISTORY_WINDOW_TURNS must be positive")
	}
	if cfg.HistoryWindowTurns > cfg.HistoryMaxTurns {
		cfg.HistoryWindowTurns = cfg.HistoryMaxTurns
	}
	if cfg.PromptMaxBytes <= 0 {
		return Config{}, fmt.Errorf("PROMPT_MAX_BYTES must be positive")
	}
	if cfg.InferenceTemperature < 0 || cfg.InferenceTemperature > 2 {
		return Config{}, fmt.Errorf("INFERENCE_TEMPERATURE must be within [0, 2]")
	}
	if cfg.InferenceTopP <= 0 || cfg.InferenceTopP > 1 {
		return Config{}, fmt.Errorf("INFERENCE_TOP_P must be within (0, 1]")
	}
	if cfg.InferenceTopK < 0 {
		return Config{}, fmt.Errorf("INFERENCE_TOP_K must be >= 0")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func floatFromEnv(key string, fallback float64) (float64, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return f, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(stringsTrimSpace(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}

func listFromEnv(key string, fallback []string) []string {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
