package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	AppEnv        string
	Port          string
	DatabaseURL   string
	RedisURL      string
	LogLevel      string
	LogFormat     string
	QueueKey      string
	NotifyChannel string
	SweepInterval time.Duration
	WorkerCount   int
}

func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:        getEnv("APP_ENV", "development"),
		Port:          getEnv("PORT", "8080"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisURL:      getEnv("REDIS_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "text"),
		QueueKey:      getEnv("TASK_QUEUE_KEY", "edunova:tasks"),
		NotifyChannel: getEnv("NOTIFY_CHANNEL", "edunova:notifications"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sweep := getEnv("SCORE_SWEEP_INTERVAL", "1h")
	interval, err := time.ParseDuration(sweep)
	if err != nil {
		return nil, fmt.Errorf("SCORE_SWEEP_INTERVAL must be a valid duration: %w", err)
	}
	cfg.SweepInterval = interval

	workers := getEnv("TASK_WORKERS", "4")
	count, err := strconv.Atoi(workers)
	if err != nil || count < 1 {
		return nil, fmt.Errorf("TASK_WORKERS must be a positive integer, got %q", workers)
	}
	cfg.WorkerCount = count

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
