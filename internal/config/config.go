package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Learning LearningConfig
}

type AppConfig struct {
	Environment string
	LogFilePath string
	NatsURL     string
}

type DatabaseConfig struct {
	Connection string
}

type LearningConfig struct {
	ExtractionInterval time.Duration
	ScoringInterval    time.Duration
	CleanupInterval    time.Duration
	CacheMaxSize       int
	CacheTTL           time.Duration
	MaxPatternAge      time.Duration
	MinUsageCount      int
	MetricsTopic       string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Environment: getEnv("GO_ENV", "development"),
			LogFilePath: getEnv("LOG_FILE_PATH", "app.log"),
			NatsURL:     getEnv("NATS_URL", "nats://localhost:4222"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Learning: LearningConfig{
			ExtractionInterval: getEnvAsDuration("EXTRACTION_INTERVAL", 30*time.Minute),
			ScoringInterval:    getEnvAsDuration("SCORING_INTERVAL", time.Hour),
			CleanupInterval:    getEnvAsDuration("CLEANUP_INTERVAL", 24*time.Hour),
			CacheMaxSize:       getEnvAsInt("CONTEXT_CACHE_MAX_SIZE", 100),
			CacheTTL:           getEnvAsDuration("CONTEXT_CACHE_TTL", 10*time.Minute),
			MaxPatternAge:      getEnvAsDuration("MAX_PATTERN_AGE", 180*24*time.Hour),
			MinUsageCount:      getEnvAsInt("MIN_USAGE_COUNT", 3),
			MetricsTopic:       getEnv("CYCLE_METRICS_TOPIC_NAME", "CYCLE_METRICS"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
