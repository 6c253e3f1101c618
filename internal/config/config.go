package config

import (
	"os"
	"strconv"
	"time"
	_ "time/tzdata"
)

// OpenAIConfig holds settings for the external image-generation API.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Size       string
	TimeoutSec int
}

// StorageConfig describes where generated images live on local disk.
type StorageConfig struct {
	BaseDir      string
	GeneratedDir string
	ListLimit    int
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost        string
	Port           string
	Timezone       string
	MetricsEnabled bool
	OpenAI         OpenAIConfig
	Storage        StorageConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// A missing OPENAI_API_KEY is not an error here; generation is disabled instead.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:        getEnv("APP_HOST", "localhost:8080"),
		Port:           getEnv("PORT", "8080"),
		Timezone:       getEnv("APP_TIMEZONE", "UTC"),
		MetricsEnabled: getEnvBool("METRICS_ENABLED", true),
		OpenAI: OpenAIConfig{
			APIKey:     getEnv("OPENAI_API_KEY", ""),
			BaseURL:    getEnv("OPENAI_BASE_URL", ""),
			Model:      getEnv("OPENAI_IMAGE_MODEL", "gpt-image-1"),
			Size:       getEnv("OPENAI_IMAGE_SIZE", "1024x1024"),
			TimeoutSec: getEnvInt("OPENAI_TIMEOUT_SEC", 120),
		},
		Storage: StorageConfig{
			BaseDir:      getEnv("STORAGE_BASE_DIR", "."),
			GeneratedDir: getEnv("STORAGE_GENERATED_DIR", "generated"),
			ListLimit:    getEnvInt("STORAGE_LIST_LIMIT", 20),
		},
	}
}

// Location resolves Timezone for log timestamps, falling back to UTC.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
