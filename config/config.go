// Package config loads solflow's configuration from the environment,
// grounded on the teacher's config.go idiom: godotenv.Load, then
// os.Getenv with Sscanf-based typed helpers for anything optional.
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds solflow's runtime configuration.
type Config struct {
	// Required, fatal at startup if unset (spec.md §6/§7).
	DBPath    string
	GeyserURL string
	XToken    string

	// Ambient, tunable (SPEC_FULL.md §6).
	WriteQueueCapacity  int
	FlushBatchSize      int
	FlushInterval       time.Duration
	SignatureCacheLimit int

	RedisHost     string
	RedisPort     string
	RedisPassword string

	WSAddr string

	SQLDir string
}

// LoadFromEnv loads configuration from the environment, exiting the
// process via log.Fatal if a required variable is missing — the
// configuration-error branch of spec.md §7's error taxonomy.
func LoadFromEnv() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	dbPath := mustGetEnv("SOLFLOW_DB_PATH")
	geyserURL := mustGetEnv("GEYSER_URL")
	xToken := mustGetEnv("X_TOKEN")

	return &Config{
		DBPath:    dbPath,
		GeyserURL: geyserURL,
		XToken:    xToken,

		WriteQueueCapacity:  getEnvInt("SOLFLOW_WRITE_QUEUE_CAPACITY", 1000),
		FlushBatchSize:      getEnvInt("SOLFLOW_FLUSH_BATCH_SIZE", 100),
		FlushInterval:       time.Duration(getEnvInt("SOLFLOW_FLUSH_INTERVAL_MS", 100)) * time.Millisecond,
		SignatureCacheLimit: getEnvInt("SOLFLOW_SIGNATURE_CACHE_LIMIT", 0),

		RedisHost:     getEnvOrDefault("REDIS_HOST", ""),
		RedisPort:     getEnvOrDefault("REDIS_PORT", "6379"),
		RedisPassword: getEnvOrDefault("REDIS_PASSWORD", ""),

		WSAddr: getEnvOrDefault("SOLFLOW_WS_ADDR", ""),
		SQLDir: getEnvOrDefault("SOLFLOW_SQL_DIR", "sql"),
	}
}

func mustGetEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("❌ %s environment variable not set", key)
	}
	return v
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var intValue int
	if _, err := fmt.Sscanf(value, "%d", &intValue); err != nil {
		return defaultValue
	}
	return intValue
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
