package coach

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config contains the complete configuration for a coaching bot.
//
// Example:
//
//	config := &coach.Config{
//	    LLM: coach.LLMConfig{
//	        Provider: "openai",
//	        APIKey:   "sk-...",
//	        Model:    "gpt-4o-mini",
//	    },
//	    Storage: coach.StorageConfig{
//	        Provider: "sqlite",
//	        SQLitePath: "./coachbot.db",
//	    },
//	    Bot: coach.BotConfig{
//	        AccessCodes: []string{"EARLY2026"},
//	    },
//	}
type Config struct {
	// LLM contains LLM provider configuration.
	LLM LLMConfig `json:"llm"`

	// Storage contains storage backend configuration.
	Storage StorageConfig `json:"storage"`

	// Bot contains conversation behavior configuration.
	Bot BotConfig `json:"bot"`
}

// LLMConfig contains configuration for the LLM provider.
//
// Supported providers: openai, deepseek, ollama
type LLMConfig struct {
	// Provider is the LLM provider name (openai, deepseek, ollama).
	Provider string `json:"provider"`

	// APIKey is the API key for the LLM provider.
	APIKey string `json:"api_key"`

	// Model is the model name to use (e.g., "gpt-4o-mini", "deepseek-chat").
	Model string `json:"model"`

	// BaseURL is the base URL for the API (optional, uses provider default if empty).
	BaseURL string `json:"base_url,omitempty"`
}

// StorageConfig contains configuration for the storage backend.
//
// Supported providers: sqlite, postgres, mysql
type StorageConfig struct {
	// Provider is the storage backend name (sqlite, postgres, mysql).
	Provider string `json:"provider"`

	// SQLitePath is the SQLite database file path (sqlite only).
	SQLitePath string `json:"sqlite_path,omitempty"`

	// Host is the database server host (postgres, mysql).
	Host string `json:"host,omitempty"`

	// Port is the database server port (postgres, mysql).
	Port int `json:"port,omitempty"`

	// User is the database user (postgres, mysql).
	User string `json:"user,omitempty"`

	// Password is the database password (postgres, mysql).
	Password string `json:"password,omitempty"`

	// DBName is the database name (postgres, mysql).
	DBName string `json:"db_name,omitempty"`

	// SSLMode is the SSL mode (postgres only).
	SSLMode string `json:"ssl_mode,omitempty"`
}

// BotConfig contains conversation behavior configuration.
type BotConfig struct {
	// AccessCodes are the codes that grant access during onboarding.
	AccessCodes []string `json:"access_codes"`

	// SystemPrompt overrides the default coaching persona prompt (optional).
	SystemPrompt string `json:"system_prompt,omitempty"`

	// HistoryWindow is how many recent exchanges go into each reply
	// prompt (default 15).
	HistoryWindow int `json:"history_window,omitempty"`
}

// Validate checks that the configuration is complete enough to start.
func (c *Config) Validate() error {
	if c.LLM.Provider == "" {
		return NewCoachError("Config.Validate", ErrInvalidConfig)
	}
	if c.LLM.Provider != "ollama" && c.LLM.APIKey == "" {
		return NewCoachError("Config.Validate", ErrInvalidConfig)
	}
	if c.Storage.Provider == "" {
		return NewCoachError("Config.Validate", ErrInvalidConfig)
	}
	return nil
}

// LoadConfigFromEnv loads configuration from environment variables.
//
// The function:
//  1. Searches for .env or .env.example files (up to 5 directory levels up)
//  2. Loads environment variables from the found file
//  3. Parses environment variables into a Config struct
//
// Supported environment variables:
//   - DATABASE_PROVIDER (sqlite, postgres, mysql)
//   - SQLITE_PATH
//   - POSTGRES_HOST, POSTGRES_PORT, POSTGRES_USER, POSTGRES_PASSWORD,
//     POSTGRES_DATABASE, POSTGRES_SSLMODE
//   - MYSQL_HOST, MYSQL_PORT, MYSQL_USER, MYSQL_PASSWORD, MYSQL_DATABASE
//   - LLM_PROVIDER, LLM_API_KEY, LLM_MODEL, LLM_BASE_URL
//   - BOT_ACCESS_CODES (comma-separated), BOT_SYSTEM_PROMPT, BOT_HISTORY_WINDOW
func LoadConfigFromEnv() (*Config, error) {
	// Use FindEnvFile to locate .env file (supports upward search)
	envPath, found := FindEnvFile()
	if found {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	cfg := &Config{}

	cfg.Storage.Provider = getEnvOrDefault("DATABASE_PROVIDER", "sqlite")
	switch cfg.Storage.Provider {
	case "sqlite":
		cfg.Storage.SQLitePath = getEnvOrDefault("SQLITE_PATH", "./coachbot.db")
	case "postgres":
		port, _ := strconv.Atoi(getEnvOrDefault("POSTGRES_PORT", "5432"))
		cfg.Storage.Host = getEnvOrDefault("POSTGRES_HOST", "localhost")
		cfg.Storage.Port = port
		cfg.Storage.User = getEnvOrDefault("POSTGRES_USER", "postgres")
		cfg.Storage.Password = os.Getenv("POSTGRES_PASSWORD")
		cfg.Storage.DBName = getEnvOrDefault("POSTGRES_DATABASE", "coachbot")
		cfg.Storage.SSLMode = getEnvOrDefault("POSTGRES_SSLMODE", "disable")
	case "mysql":
		port, _ := strconv.Atoi(getEnvOrDefault("MYSQL_PORT", "3306"))
		cfg.Storage.Host = getEnvOrDefault("MYSQL_HOST", "localhost")
		cfg.Storage.Port = port
		cfg.Storage.User = getEnvOrDefault("MYSQL_USER", "root")
		cfg.Storage.Password = os.Getenv("MYSQL_PASSWORD")
		cfg.Storage.DBName = getEnvOrDefault("MYSQL_DATABASE", "coachbot")
	}

	cfg.LLM.Provider = getEnvOrDefault("LLM_PROVIDER", "openai")
	cfg.LLM.APIKey = os.Getenv("LLM_API_KEY")
	cfg.LLM.BaseURL = os.Getenv("LLM_BASE_URL")
	switch cfg.LLM.Provider {
	case "deepseek":
		cfg.LLM.Model = getEnvOrDefault("LLM_MODEL", "deepseek-chat")
	case "ollama":
		cfg.LLM.Model = getEnvOrDefault("LLM_MODEL", "llama3.1:8b")
	default:
		cfg.LLM.Model = getEnvOrDefault("LLM_MODEL", "gpt-4o-mini")
	}

	if codes := os.Getenv("BOT_ACCESS_CODES"); codes != "" {
		for _, code := range strings.Split(codes, ",") {
			code = strings.TrimSpace(code)
			if code != "" {
				cfg.Bot.AccessCodes = append(cfg.Bot.AccessCodes, code)
			}
		}
	}
	cfg.Bot.SystemPrompt = os.Getenv("BOT_SYSTEM_PROMPT")
	if window := os.Getenv("BOT_HISTORY_WINDOW"); window != "" {
		if n, err := strconv.Atoi(window); err == nil && n > 0 {
			cfg.Bot.HistoryWindow = n
		}
	}

	return cfg, nil
}

// LoadConfigFromEnvFile loads configuration from a specific .env file.
func LoadConfigFromEnvFile(envPath string) (*Config, error) {
	if err := godotenv.Load(envPath); err != nil {
		return nil, NewCoachError("LoadConfigFromEnvFile", err)
	}
	return LoadConfigFromEnv()
}

// FindEnvFile searches for .env or .env.example files.
//
// The search:
//  1. Checks the current directory
//  2. Searches up to 5 directory levels up
//  3. Returns the first .env or .env.example file found
func FindEnvFile() (string, bool) {
	if _, err := os.Stat(".env"); err == nil {
		return ".env", true
	}
	if _, err := os.Stat(".env.example"); err == nil {
		return ".env.example", true
	}

	dir, _ := os.Getwd()
	for i := 0; i < 5; i++ {
		envPath := filepath.Join(dir, ".env")
		envExamplePath := filepath.Join(dir, ".env.example")

		if _, err := os.Stat(envPath); err == nil {
			return envPath, true
		}
		if _, err := os.Stat(envExamplePath); err == nil {
			return envExamplePath, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", false
}

// getEnvOrDefault returns the environment variable value or a default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
