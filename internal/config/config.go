package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultHTTPAddr          = ":8080"
	defaultDatabaseURL       = "equiprent.db"
	defaultJWTSecret         = "change-me-jwt-secret"
	defaultJWTTTL            = "24h"
	defaultLogLevel          = "info"
	defaultBookingMode       = "conditional"
	defaultBookingMaxRetries = "3"
	defaultTimezone          = "Local"
)

const (
	BookingModeSequential  = "sequential"
	BookingModeConditional = "conditional"
)

type Config struct {
	AppEnv             string
	HTTPAddr           string
	DatabaseURL        string
	JWTSecret          string
	JWTTTL             time.Duration
	AdminEmail         string
	LogLevel           string
	LogFormat          string
	BookingMode        string
	BookingMaxRetries  int
	Location           *time.Location
	CORSAllowedOrigins []string
}

// Load reads the environment, after merging an optional .env file from the working directory.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = strings.TrimSpace(os.Getenv("ENV"))
	}
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.HTTPAddr = strings.TrimSpace(getEnv("HTTP_ADDR", defaultHTTPAddr))
	cfg.DatabaseURL = strings.TrimSpace(getEnv("DATABASE_URL", defaultDatabaseURL))
	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret))
	cfg.AdminEmail = strings.ToLower(strings.TrimSpace(getEnv("ADMIN_EMAIL", "")))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(getEnv("LOG_LEVEL", defaultLogLevel)))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(getEnv("LOG_FORMAT", "")))
	cfg.BookingMode = strings.ToLower(strings.TrimSpace(getEnv("BOOKING_MODE", defaultBookingMode)))
	cfg.CORSAllowedOrigins = parseListEnv("CORS_ALLOWED_ORIGINS")

	var err error
	cfg.JWTTTL, err = parseDurationEnv("JWT_TTL", defaultJWTTTL)
	if err != nil {
		return nil, err
	}

	cfg.BookingMaxRetries, err = parseIntEnv("BOOKING_MAX_RETRIES", defaultBookingMaxRetries)
	if err != nil {
		return nil, err
	}

	tz := strings.TrimSpace(getEnv("APP_TIMEZONE", defaultTimezone))
	cfg.Location, err = time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE value %q: %w", tz, err)
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	log.Printf("config loaded: env=%s addr=%s booking_mode=%s tz=%s", cfg.AppEnv, cfg.HTTPAddr, cfg.BookingMode, cfg.Location)

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return isProdLike(c.AppEnv)
}

func validateConfig(cfg *Config) error {
	if cfg.HTTPAddr == "" {
		return fmt.Errorf("HTTP_ADDR must not be empty")
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if cfg.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be > 0")
	}
	if cfg.BookingMaxRetries < 1 {
		return fmt.Errorf("BOOKING_MAX_RETRIES must be >= 1")
	}
	if cfg.BookingMode != BookingModeSequential && cfg.BookingMode != BookingModeConditional {
		return fmt.Errorf("BOOKING_MODE must be one of: %s, %s", BookingModeSequential, BookingModeConditional)
	}
	if cfg.LogFormat != "" && cfg.LogFormat != "json" && cfg.LogFormat != "console" {
		return fmt.Errorf("LOG_FORMAT must be json or console")
	}

	if isProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if cfg.AdminEmail == "" {
			return fmt.Errorf("in prod/release ADMIN_EMAIL must be set")
		}
	}

	return nil
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseIntEnv(name, fallback string) (int, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return n, nil
}

func parseListEnv(name string) []string {
	var out []string
	for _, v := range strings.Split(getEnv(name, ""), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
