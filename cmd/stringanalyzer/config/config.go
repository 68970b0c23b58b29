// Package config reads service settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/SanteonNL/stringanalyzer/cmd/stringanalyzer/result"
)

// Config holds all configuration for the string analyzer service.
type Config struct {
	DatabaseURL string // DATABASE_URL, or assembled from DATABASE_HOSTNAME/PORT/USERNAME/PASSWORD/NAME
	HTTPAddr    string // HTTP_ADDR, default ":8000"

	LogLevel  string // LOG_LEVEL, default "info"
	LogFormat string // LOG_FORMAT, "console" or "json", default "console"
	LogFile   string // LOG_FILE, empty = stdout only

	// CACHE_ENABLED, CACHE_TTL, CACHE_MAX_SIZE, CACHE_CLEANUP_INTERVAL over
	// result.DefaultCacheConfig.
	Cache result.CacheConfig

	RecordCacheSize int           // RECORD_CACHE_SIZE, default 1024
	RecordCacheTTL  time.Duration // RECORD_CACHE_TTL, default 1m
	QueryTimeout    time.Duration // QUERY_TIMEOUT, default 30s

	ShutdownTimeout time.Duration // SHUTDOWN_TIMEOUT, default 10s
}

// Load reads envFile when it exists and then the process environment.
// Variables already set in the environment win over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		HTTPAddr:    getEnv("HTTP_ADDR", ":8000"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "console"),
		LogFile:     os.Getenv("LOG_FILE"),
	}

	defaults := result.DefaultCacheConfig()

	var err error
	if cfg.Cache.Enabled, err = getBool("CACHE_ENABLED", defaults.Enabled); err != nil {
		return nil, err
	}
	if cfg.Cache.DefaultTTL, err = getDuration("CACHE_TTL", defaults.DefaultTTL); err != nil {
		return nil, err
	}
	if cfg.Cache.MaxSize, err = getInt("CACHE_MAX_SIZE", defaults.MaxSize); err != nil {
		return nil, err
	}
	if cfg.Cache.CleanupInterval, err = getDuration("CACHE_CLEANUP_INTERVAL", defaults.CleanupInterval); err != nil {
		return nil, err
	}
	if cfg.RecordCacheSize, err = getInt("RECORD_CACHE_SIZE", 1024); err != nil {
		return nil, err
	}
	if cfg.RecordCacheTTL, err = getDuration("RECORD_CACHE_TTL", time.Minute); err != nil {
		return nil, err
	}
	if cfg.QueryTimeout, err = getDuration("QUERY_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = getDuration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = databaseURLFromParts()
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL or DATABASE_HOSTNAME and DATABASE_NAME must be set")
	}
	if cfg.RecordCacheSize <= 0 {
		return nil, fmt.Errorf("RECORD_CACHE_SIZE must be positive, got %d", cfg.RecordCacheSize)
	}

	return cfg, nil
}

func databaseURLFromParts() string {
	host := os.Getenv("DATABASE_HOSTNAME")
	name := os.Getenv("DATABASE_NAME")
	if host == "" || name == "" {
		return ""
	}

	u := url.URL{
		Scheme:   "postgres",
		Host:     host + ":" + getEnv("DATABASE_PORT", "5432"),
		Path:     "/" + name,
		RawQuery: "sslmode=" + getEnv("DATABASE_SSLMODE", "disable"),
	}
	if user := os.Getenv("DATABASE_USERNAME"); user != "" {
		u.User = url.UserPassword(user, os.Getenv("DATABASE_PASSWORD"))
	}
	return u.String()
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return b, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}
