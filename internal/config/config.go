// Package config provides configuration loading and validation for the
// interview coach service. Values come from environment variables (loaded
// from .env by the entrypoint) with sensible defaults for local runs.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the service configuration.
type Config struct {
	// Port is the HTTP listen port.
	Port int
	// DatabaseURL is the PostgreSQL connection URL. Empty selects the
	// in-memory store (local runs and tests).
	DatabaseURL string
	// GeminiAPIKey authenticates the AI backend. Empty means every
	// generation call fails and the deterministic fallbacks serve all
	// traffic; the service still works.
	GeminiAPIKey string
	// Model overrides the default Gemini model name.
	Model string
	// LogJSON switches the logger to JSON encoding.
	LogJSON bool
	// Debug widens the log level.
	Debug bool
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	port, err := getEnvInt("PORT", 8080)
	if err != nil {
		return nil, err
	}
	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("PORT out of range: %d", port)
	}

	return &Config{
		Port:         port,
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		Model:        os.Getenv("GEMINI_MODEL"),
		LogJSON:      getEnvBool("LOG_JSON", false),
		Debug:        getEnvBool("DEBUG", false),
	}, nil
}

func getEnvInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", key, err)
	}
	return value, nil
}

func getEnvBool(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return value
}
