package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// It is resolved once at startup and immutable for the process lifetime.
type Config struct {
	OpenAIAPIKey    string
	OpenAIBaseURL   string // empty means the default OpenAI endpoint
	ChatModel       string
	IntentModel     string
	EmbeddingModel  string
	ModerationModel string

	QdrantURL        string
	QdrantCollection string

	// Retrieval and context-assembly tunables. The defaults reflect the
	// current production values; all of them are overridable per deployment.
	SimilarityThreshold float32
	RetrievalLimit      int
	MinContentLength    int
	ContextTokenCeiling int

	// HistoryLimit is the default number of conversation turns kept when the
	// caller does not specify one. Callers may raise it up to HistoryHardCap.
	HistoryLimit int

	DBPath    string
	APIPort   string
	LogLevel  slog.Level
	LogFormat string
}

// HistoryHardCap is the maximum number of history turns honored regardless of
// what the caller requests.
const HistoryHardCap = 10

// Load reads configuration from environment variables and returns a Config.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or project root, it will be
// loaded automatically; variables already set take precedence.
func Load() (*Config, error) {
	_ = godotenv.Load() // Try current directory

	// Walk up a few levels looking for a project-root .env.
	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ {
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	cfg := &Config{
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:    os.Getenv("OPENAI_BASE_URL"),
		ChatModel:        getEnv("CHAT_MODEL", "gpt-4o-mini"),
		IntentModel:      getEnv("INTENT_MODEL", "gpt-4o-mini"),
		EmbeddingModel:   getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		ModerationModel:  getEnv("MODERATION_MODEL", "omni-moderation-latest"),
		QdrantURL:        getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollection: getEnv("QDRANT_COLLECTION", "passages"),
		DBPath:           getEnv("DB_PATH", "./data/legalrag.db"),
		APIPort:          getEnv("API_PORT", "9000"),
		LogFormat:        getEnv("LOG_FORMAT", "text"),
	}

	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}

	threshold, err := getEnvFloat("SIMILARITY_THRESHOLD", 0.5)
	if err != nil {
		return nil, err
	}
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("SIMILARITY_THRESHOLD must be in [0,1], got %v", threshold)
	}
	cfg.SimilarityThreshold = float32(threshold)

	cfg.RetrievalLimit, err = getEnvInt("RETRIEVAL_LIMIT", 10)
	if err != nil {
		return nil, err
	}
	if cfg.RetrievalLimit <= 0 {
		return nil, fmt.Errorf("RETRIEVAL_LIMIT must be greater than 0")
	}

	cfg.MinContentLength, err = getEnvInt("MIN_CONTENT_LENGTH", 30)
	if err != nil {
		return nil, err
	}
	if cfg.MinContentLength < 0 {
		return nil, fmt.Errorf("MIN_CONTENT_LENGTH must not be negative")
	}

	cfg.ContextTokenCeiling, err = getEnvInt("CONTEXT_TOKEN_CEILING", 1500)
	if err != nil {
		return nil, err
	}
	if cfg.ContextTokenCeiling <= 0 {
		return nil, fmt.Errorf("CONTEXT_TOKEN_CEILING must be greater than 0")
	}

	cfg.HistoryLimit, err = getEnvInt("HISTORY_LIMIT", 3)
	if err != nil {
		return nil, err
	}
	if cfg.HistoryLimit < 0 {
		return nil, fmt.Errorf("HISTORY_LIMIT must not be negative")
	}
	if cfg.HistoryLimit > HistoryHardCap {
		cfg.HistoryLimit = HistoryHardCap
	}

	cfg.LogLevel, err = parseLogLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}

	// Create the data directory for the session database if needed.
	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// parseLogLevel converts a textual log level to a slog.Level.
func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid LOG_LEVEL: %q", s)
	}
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable or returns a default value.
func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return parsed, nil
}

// getEnvFloat gets a float environment variable or returns a default value.
func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid number: %w", key, err)
	}
	return parsed, nil
}
