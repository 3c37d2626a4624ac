package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// LLM provider names.
const (
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config holds all configuration values.
type Config struct {
	// SurrealDB connection (conversation store)
	SurrealDBURL       string
	SurrealDBNamespace string
	SurrealDBDatabase  string
	SurrealDBUser      string
	SurrealDBPass      string
	SurrealDBAuthLevel string

	// LLM oracle
	LLMProvider     string
	LLMModel        string
	OllamaHost      string
	OpenAIAPIKey    string
	AnthropicAPIKey string

	// Gmail API
	GmailBaseURL string

	// Redis (recent-context snapshot cache)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// HTTP server
	ServerAddr string
	JWTSecret  string

	// Assistant tuning. Kept configurable rather than hardcoded so the
	// clarification policy and context window can be adjusted per deployment.
	ConfidenceThreshold float64
	HistoryWindow       int

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from environment variables.
func Load() Config {
	return Config{
		SurrealDBURL:       getEnv("SURREALDB_URL", "ws://localhost:8000/rpc"),
		SurrealDBNamespace: getEnv("SURREALDB_NAMESPACE", "mailpilot"),
		SurrealDBDatabase:  getEnv("SURREALDB_DATABASE", "conversations"),
		SurrealDBUser:      getEnv("SURREALDB_USER", "root"),
		SurrealDBPass:      getEnv("SURREALDB_PASS", "root"),
		SurrealDBAuthLevel: getEnv("SURREALDB_AUTH_LEVEL", "root"),

		LLMProvider:     getEnv("MAILPILOT_LLM_PROVIDER", ProviderOllama),
		LLMModel:        getEnv("MAILPILOT_LLM_MODEL", "llama3.2"),
		OllamaHost:      getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),

		GmailBaseURL: getEnv("MAILPILOT_GMAIL_BASE_URL", "https://gmail.googleapis.com/gmail/v1"),

		RedisAddr:     getEnv("MAILPILOT_REDIS_ADDR", ""),
		RedisPassword: getEnv("MAILPILOT_REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("MAILPILOT_REDIS_DB", 0),

		ServerAddr: getEnv("MAILPILOT_SERVER_ADDR", ":8080"),
		JWTSecret:  getEnv("MAILPILOT_JWT_SECRET", ""),

		ConfidenceThreshold: getEnvFloat("MAILPILOT_CONFIDENCE_THRESHOLD", 0.5),
		HistoryWindow:       getEnvInt("MAILPILOT_HISTORY_WINDOW", 5),

		LogFile:  getEnv("MAILPILOT_LOG_FILE", "/tmp/mailpilot.log"),
		LogLevel: parseLogLevel(getEnv("MAILPILOT_LOG_LEVEL", "INFO")),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
