package config

import (
	"os"
	"strconv"
	"strings"
)

// Lookup resolves a configuration key to its value. The default
// implementation reads the process environment; tests substitute their own.
type Lookup func(key string) string

type Config struct {
	// Server
	Port    string
	BaseURL string

	// Database (the data source we introspect and generate questions about)
	DBDriver string // "sqlite" or "postgres"
	DBPath   string // SQLite file path
	DBURL    string // PostgreSQL connection string

	// LLM models per provider. API keys are intentionally not cached here:
	// the generator reads OPENAI_API_KEY / ANTHROPIC_API_KEY at call time.
	OpenAIModel    string
	AnthropicModel string
	GoogleModel    string

	// Suggestion refresh
	SuggestSchedule  string // cron expression
	SuggestOnStartup bool
}

func Load() *Config {
	return &Config{
		Port:             getEnv("PORT", "8080"),
		BaseURL:          getEnv("BASE_URL", "http://localhost:8080"),
		DBDriver:         getEnv("DB_DRIVER", "sqlite"),
		DBPath:           getEnv("DB_PATH", "./data/queryloom.db"),
		DBURL:            getEnv("DATABASE_URL", ""),
		OpenAIModel:      getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		AnthropicModel:   getEnv("ANTHROPIC_MODEL", "claude-3-5-haiku-20241022"),
		GoogleModel:      getEnv("GOOGLE_MODEL", "gemini-1.5-flash"),
		SuggestSchedule:  getEnv("SUGGEST_SCHEDULE", "0 * * * *"), // hourly
		SuggestOnStartup: getEnvBool("SUGGEST_ON_STARTUP", false),
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	val = strings.ToLower(val)
	b, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return b
}
