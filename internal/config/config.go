package config

import (
	"os"
	"time"
)

type Config struct {
	Port string

	LogLevel string
	Env      string

	JWTSecret   string
	ResetSecret string

	// Empty means in-memory sessions / file-only snapshots.
	RedisURL    string
	DatabaseURL string

	SnapshotPath string
	SnapshotCron string

	TickInterval time.Duration
}

func LoadConfig() (*Config, error) {
	tick, err := time.ParseDuration(GetEnv("TICK_INTERVAL", "1s"))
	if err != nil {
		tick = time.Second
	}
	return &Config{
		Port:         GetEnv("PORT", "8081"),
		Env:          GetEnv("ENV", "development"),
		LogLevel:     GetEnv("LOG_LEVEL", "info"),
		JWTSecret:    GetEnv("JWT_SECRET", "dev-session-secret"),
		ResetSecret:  GetEnv("RESET_SECRET", "dev-reset-secret"),
		RedisURL:     GetEnv("REDIS_URL", ""),
		DatabaseURL:  GetEnv("DATABASE_URL", ""),
		SnapshotPath: GetEnv("SNAPSHOT_PATH", "data/snapshot.json"),
		SnapshotCron: GetEnv("SNAPSHOT_CRON", "@every 1m"),
		TickInterval: tick,
	}, nil
}

func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
