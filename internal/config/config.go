package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application runtime configuration.
type Config struct {
	Env             string
	HTTPPort        string
	LogLevel        string
	LogFormat       string
	StoreKey        string
	VaultPath       string
	KVDir           string
	KVMaxBytes      int
	DatabaseURL     string
	SeedImagePath   string
	RateLimit       int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Load reads environment variables and .env (if present).
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Env:             getEnv("APP_ENV", "development"),
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "text"),
		StoreKey:        getEnv("STORE_KEY", "pos-store"),
		VaultPath:       getEnv("VAULT_PATH", "data/vault.db"),
		KVDir:           getEnv("KV_DIR", "data/kv"),
		KVMaxBytes:      getInt("KV_MAX_BYTES", 5<<20),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		SeedImagePath:   os.Getenv("SEED_IMAGE_PATH"),
		RateLimit:       getInt("RATE_LIMIT_PER_MIN", 200),
		ReadTimeout:     getDuration("HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getDuration("HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
	}

	if cfg.StoreKey == "" {
		return cfg, errors.New("STORE_KEY must not be empty")
	}
	if cfg.VaultPath == "" {
		return cfg, errors.New("VAULT_PATH is required")
	}
	if cfg.KVMaxBytes <= 0 {
		return cfg, errors.New("KV_MAX_BYTES must be positive")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func getInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		// Support seconds as integer without suffix.
		if secs, convErr := strconv.Atoi(val); convErr == nil {
			return time.Duration(secs) * time.Second
		}
		return fallback
	}
	return d
}
