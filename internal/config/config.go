// Package config loads recipebox configuration from the environment and
// builds the process logger.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// LLM providers for the ingredient parser.
const (
	ProviderNone      = "none"
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderBedrock   = "bedrock"
)

// Config holds all configuration values.
type Config struct {
	// SurrealDB connection
	SurrealDBURL       string
	SurrealDBNamespace string
	SurrealDBDatabase  string
	SurrealDBUser      string
	SurrealDBPass      string
	SurrealDBAuthLevel string

	// Logging
	LogFile  string
	LogLevel slog.Level

	// HTTP server and the client that talks to it
	ServerPort int
	ServerURL  string

	// Ingredient parsing
	LLMProvider     string
	LLMModel        string
	OllamaHost      string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	AWSRegion       string
}

// Load reads configuration from environment variables.
func Load() Config {
	return Config{
		// SurrealDB
		SurrealDBURL:       getEnv("SURREALDB_URL", "ws://localhost:8000/rpc"),
		SurrealDBNamespace: getEnv("SURREALDB_NAMESPACE", "recipebox"),
		SurrealDBDatabase:  getEnv("SURREALDB_DATABASE", "recipes"),
		SurrealDBUser:      getEnv("SURREALDB_USER", "root"),
		SurrealDBPass:      getEnv("SURREALDB_PASS", "root"),
		SurrealDBAuthLevel: getEnv("SURREALDB_AUTH_LEVEL", "root"),

		// Logging
		LogFile:  getEnv("RECIPEBOX_LOG_FILE", "/tmp/recipebox.log"),
		LogLevel: parseLogLevel(getEnv("RECIPEBOX_LOG_LEVEL", "INFO")),

		// Server
		ServerPort: getEnvInt("RECIPEBOX_SERVER_PORT", 8484),
		ServerURL:  getEnv("RECIPEBOX_SERVER_URL", "http://localhost:8484"),

		// LLM
		LLMProvider:     strings.ToLower(getEnv("RECIPEBOX_LLM_PROVIDER", ProviderNone)),
		LLMModel:        getEnv("RECIPEBOX_LLM_MODEL", "llama3.2"),
		OllamaHost:      getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		AWSRegion:       getEnv("AWS_REGION", "us-east-1"),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		slog.Warn("invalid integer in environment, using default", "key", key, "value", val, "default", defaultVal)
		return defaultVal
	}
	return n
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
