package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"stockbook/internal/core"
)

// Config is the process configuration, read from the environment.
// Each main loads .env with godotenv before calling Load.
type Config struct {
	DatabaseURL       string
	DBMaxConns        int32
	ServerPort        string
	AllowedOrigins    string
	JWTSecret         string
	LogLevel          string
	Env               string
	LowStockThreshold int
	ShutdownTimeout   time.Duration
}

// Load reads configuration with sensible defaults.
// Precedence: explicit env var > .env file (if loaded) > default.
func Load() (Config, error) {
	cfg := Config{
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		DBMaxConns:        int32(getInt("DB_MAX_CONNS", 0)),
		ServerPort:        getEnv("SERVER_PORT", "8080"),
		AllowedOrigins:    os.Getenv("ALLOWED_ORIGINS"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		Env:               getEnv("APP_ENV", "development"),
		LowStockThreshold: getInt("LOW_STOCK_THRESHOLD", core.LowStockThreshold),
		ShutdownTimeout:   getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
	if cfg.DatabaseURL == "" {
		return cfg, errors.New("DATABASE_URL environment variable not set")
	}
	return cfg, nil
}

// RequireJWTSecret fails when no signing secret is configured.
func (c Config) RequireJWTSecret() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET environment variable not set")
	}
	return nil
}

// IsProduction reports whether APP_ENV is "production".
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil && n > 0 {
			return n
		}
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil && d > 0 {
			return d
		}
	}
	return def
}
