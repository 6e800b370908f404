package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DatabasePath      string
	LogLevel          string
	Port              int
	DevMode           bool
	DefaultAIProvider string // gemini or anthropic
	GeminiAPIKey      string
	GeminiModel       string
	AnthropicAPIKey   string
	AnthropicModel    string
	TavilyAPIKey      string
	BraveAPIKey       string
	RetentionDays     int // analysis history retention, 0 disables cleanup
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:              getEnvAsInt("PORT", 8000),
		DevMode:           getEnvAsBool("DEV_MODE", false),
		DatabasePath:      getEnv("DATABASE_PATH", "./data/stocklens.db"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		DefaultAIProvider: getEnv("AI_PROVIDER", "gemini"),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		GeminiModel:       getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		AnthropicAPIKey:   getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:    getEnv("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),
		TavilyAPIKey:      getEnv("TAVILY_API_KEY", ""),
		BraveAPIKey:       getEnv("BRAVE_API_KEY", ""),
		RetentionDays:     getEnvAsInt("RETENTION_DAYS", 90),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if c.DefaultAIProvider != "gemini" && c.DefaultAIProvider != "anthropic" {
		return fmt.Errorf("AI_PROVIDER must be gemini or anthropic, got %q", c.DefaultAIProvider)
	}
	// AI keys are optional; analysis runs without a narrative when absent
	return nil
}

// SynthesisEnabled reports whether any AI provider is configured
func (c *Config) SynthesisEnabled() bool {
	switch c.DefaultAIProvider {
	case "anthropic":
		return c.AnthropicAPIKey != ""
	default:
		return c.GeminiAPIKey != ""
	}
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
