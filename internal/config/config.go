package config

import (
	"os"
	"strconv"

	"edgefinder/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database  DatabaseConfig
	Analysis  AnalysisConfig
	Sentiment SentimentConfig
	Server    ServerConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL string
}

// AnalysisConfig holds the statistical evaluation settings
type AnalysisConfig struct {
	// MinSampleSize is the floor below which no test is attempted
	MinSampleSize int
	// SignificanceLevel is the alpha used for every significance decision
	SignificanceLevel float64
	// BonferroniCorrection is a caller-level opt-in for hypothesis families.
	// The per-hypothesis runner never applies it automatically.
	BonferroniCorrection bool
	// BatchWorkers bounds batch concurrency; 1 means strictly sequential
	BatchWorkers int
	// LookbackDaysDefault applies when a hypothesis omits lookback_days
	LookbackDaysDefault int
}

// SentimentConfig holds the external inference service settings
type SentimentConfig struct {
	URL       string
	Model     string
	BatchSize int
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Analysis: AnalysisConfig{
			MinSampleSize:        getEnvIntOrDefault("MIN_SAMPLE_SIZE", 30),
			SignificanceLevel:    getEnvFloatOrDefault("SIGNIFICANCE_LEVEL", 0.05),
			BonferroniCorrection: getEnvBoolOrDefault("BONFERRONI_CORRECTION", true),
			BatchWorkers:         getEnvIntOrDefault("BATCH_WORKERS", 1),
			LookbackDaysDefault:  getEnvIntOrDefault("LOOKBACK_DAYS_DEFAULT", 365),
		},
		Sentiment: SentimentConfig{
			URL:       getEnvOrDefault("SENTIMENT_URL", "http://localhost:8501"),
			Model:     getEnvOrDefault("SENTIMENT_MODEL", "ProsusAI/finbert"),
			BatchSize: getEnvIntOrDefault("SENTIMENT_BATCH_SIZE", 32),
		},
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8001"),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func validateConfig(config *Config) error {
	if config.Database.URL == "" {
		return errors.ConfigInvalid("DATABASE_URL is required")
	}
	if config.Analysis.MinSampleSize < 2 {
		return errors.ConfigInvalid("MIN_SAMPLE_SIZE must be at least 2")
	}
	if config.Analysis.SignificanceLevel <= 0 || config.Analysis.SignificanceLevel >= 1 {
		return errors.ConfigInvalid("SIGNIFICANCE_LEVEL must be in (0, 1)")
	}
	if config.Analysis.BatchWorkers < 1 {
		return errors.ConfigInvalid("BATCH_WORKERS must be at least 1")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
