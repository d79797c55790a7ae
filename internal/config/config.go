package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Trends    TrendsConfig
	Sentiment SentimentConfig
	Redis     RedisConfig
	Postgres  PostgresConfig
	SMTP      SMTPConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Host        string
	Port        int
	CORSOrigins []string
}

type TrendsConfig struct {
	BaseURL         string
	Regions         []string
	MaxRows         int
	HourOffsets     []int
	Concurrency     int
	RefreshInterval time.Duration
}

type SentimentConfig struct {
	Mode           string // "3class" or "5class"
	BatchSize      int
	OpenAIAPIKey   string
	OpenAIModel    string
	GeminiAPIKey   string
	GeminiModel    string
	EnableFallback bool
	LabelCacheTTL  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

type SMTPConfig struct {
	Host     string
	Port     int
	From     string
	Password string
	DigestN  int
}

type LoggingConfig struct {
	Level string
	File  string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:        getEnv("SERVER_HOST", "0.0.0.0"),
			Port:        getEnvInt("SERVER_PORT", 8080),
			CORSOrigins: parseCommaSeparated(getEnv("CORS_ORIGINS", "*")),
		},
		Trends: TrendsConfig{
			BaseURL:         getEnv("TRENDS_BASE_URL", "https://getdaytrends.com"),
			Regions:         parseCommaSeparated(getEnv("TRENDS_REGIONS", "World,India")),
			MaxRows:         getEnvInt("TRENDS_MAX_ROWS", 50),
			HourOffsets:     parseIntList(getEnv("TRENDS_HOUR_OFFSETS", "")),
			Concurrency:     getEnvInt("TRENDS_CONCURRENCY", 4),
			RefreshInterval: time.Duration(getEnvInt("TRENDS_REFRESH_MINUTES", 30)) * time.Minute,
		},
		Sentiment: SentimentConfig{
			Mode:           getEnv("SENTIMENT_MODE", "5class"),
			BatchSize:      getEnvInt("SENTIMENT_BATCH_SIZE", 32),
			OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
			OpenAIModel:    getEnv("OPENAI_MODEL", "gpt-4.1-mini"),
			GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
			GeminiModel:    getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			EnableFallback: getEnvBool("SENTIMENT_ENABLE_FALLBACK", true),
			LabelCacheTTL:  time.Duration(getEnvInt("SENTIMENT_CACHE_MINUTES", 360)) * time.Minute,
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Postgres: PostgresConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "trendwatch"),
			Password: getEnv("POSTGRES_PASSWORD", ""),
			Database: getEnv("POSTGRES_DB", "trendwatch"),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", "smtp.gmail.com"),
			Port:     getEnvInt("SMTP_PORT", 587),
			From:     getEnv("SMTP_FROM", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			DigestN:  getEnvInt("DIGEST_TOP_N", 10),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Trends.BaseURL == "" {
		return fmt.Errorf("TRENDS_BASE_URL is required")
	}
	if len(c.Trends.Regions) == 0 {
		return fmt.Errorf("TRENDS_REGIONS is required")
	}
	if c.Trends.MaxRows <= 0 {
		return fmt.Errorf("TRENDS_MAX_ROWS must be positive")
	}
	if c.Sentiment.BatchSize <= 0 {
		return fmt.Errorf("SENTIMENT_BATCH_SIZE must be positive")
	}
	if c.Sentiment.Mode != "3class" && c.Sentiment.Mode != "5class" {
		return fmt.Errorf("SENTIMENT_MODE must be 3class or 5class, got %q", c.Sentiment.Mode)
	}
	if c.Sentiment.OpenAIAPIKey == "" && c.Sentiment.GeminiAPIKey == "" {
		return fmt.Errorf("at least one of OPENAI_API_KEY or GEMINI_API_KEY is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func parseCommaSeparated(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func parseIntList(value string) []int {
	if value == "" {
		return []int{}
	}
	parts := strings.Split(value, ",")
	result := make([]int, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			if intVal, err := strconv.Atoi(trimmed); err == nil {
				result = append(result, intVal)
			}
		}
	}
	return result
}
