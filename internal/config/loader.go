package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads DefaultConfigFile (optional) and the environment.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom applies defaults < YAML < ENV and validates the result.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}
	if err := loadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config env: %w", err)
	}
	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}
	return &cfg, nil
}

func loadYAML(cfg *Config, path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func loadEnv(cfg *Config) error {
	if v := strings.TrimSpace(getEnv("APP_ENV", os.Getenv("ENV"))); v != "" {
		cfg.AppEnv = strings.ToLower(v)
	}
	setString(&cfg.HTTP.Addr, "HTTP_ADDR")
	setString(&cfg.Database.URL, "DATABASE_URL")
	setString(&cfg.Auth.JWTSecret, "JWT_SECRET")
	setString(&cfg.Logging.Level, "LOG_LEVEL")
	setString(&cfg.Logging.Format, "LOG_FORMAT")
	setString(&cfg.Booking.ReferencePrefix, "BOOKING_REFERENCE_PREFIX")
	setString(&cfg.Audit.Publisher, "AUDIT_PUBLISHER")
	setString(&cfg.Audit.Stream, "AUDIT_STREAM")
	setString(&cfg.Audit.Subject, "AUDIT_SUBJECT")
	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.Metrics.Exporter, "METRICS_EXPORTER")
	setString(&cfg.Metrics.Endpoint, "METRICS_OTLP_ENDPOINT")

	if v := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS")); v != "" {
		cfg.HTTP.CORSOrigins = splitList(v)
	}
	if v := strings.TrimSpace(os.Getenv("METRICS_OTLP_INSECURE")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid METRICS_OTLP_INSECURE value %q: %w", v, err)
		}
		cfg.Metrics.Insecure = b
	}

	durations := []struct {
		dst  *time.Duration
		name string
	}{
		{&cfg.Auth.TokenTTL, "JWT_ACCESS_TTL"},
		{&cfg.Booking.TxTimeout, "BOOKING_TX_TIMEOUT"},
		{&cfg.Catalog.CacheTTL, "CATALOG_CACHE_TTL"},
		{&cfg.Audit.RelayInterval, "AUDIT_RELAY_INTERVAL"},
		{&cfg.Metrics.Interval, "METRICS_INTERVAL"},
	}
	for _, d := range durations {
		if err := parseDurationEnv(d.dst, d.name); err != nil {
			return err
		}
	}

	ints := []struct {
		dst  *int
		name string
	}{
		{&cfg.Booking.MaxTxRetries, "BOOKING_MAX_TX_RETRIES"},
		{&cfg.Audit.RelayBatch, "AUDIT_RELAY_BATCH"},
		{&cfg.Redis.DB, "REDIS_DB"},
	}
	for _, i := range ints {
		if err := parseIntEnv(i.dst, i.name); err != nil {
			return err
		}
	}

	if v := strings.TrimSpace(os.Getenv("CATALOG_CACHE_MAX_BYTES")); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid CATALOG_CACHE_MAX_BYTES value %q: %w", v, err)
		}
		cfg.Catalog.CacheMaxBytes = n
	}
	return nil
}

var referencePrefixPattern = regexp.MustCompile(`^[A-Z0-9]{1,4}$`)

func validateConfig(cfg *Config) error {
	if cfg.HTTP.Addr == "" {
		return fmt.Errorf("HTTP_ADDR must not be empty")
	}
	if cfg.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if cfg.Booking.TxTimeout <= 0 {
		return fmt.Errorf("BOOKING_TX_TIMEOUT must be > 0")
	}
	if cfg.Booking.MaxTxRetries < 0 {
		return fmt.Errorf("BOOKING_MAX_TX_RETRIES must be >= 0")
	}
	if !referencePrefixPattern.MatchString(cfg.Booking.ReferencePrefix) {
		return fmt.Errorf("BOOKING_REFERENCE_PREFIX must be 1-4 uppercase letters or digits")
	}
	if cfg.Catalog.CacheMaxBytes <= 0 {
		return fmt.Errorf("CATALOG_CACHE_MAX_BYTES must be > 0")
	}
	if cfg.Auth.TokenTTL <= 0 {
		return fmt.Errorf("JWT_ACCESS_TTL must be > 0")
	}
	switch cfg.Audit.Publisher {
	case "log", "redis", "nats":
	default:
		return fmt.Errorf("AUDIT_PUBLISHER must be one of: log, redis, nats")
	}
	if cfg.Audit.RelayBatch <= 0 {
		return fmt.Errorf("AUDIT_RELAY_BATCH must be > 0")
	}
	switch cfg.Metrics.Exporter {
	case "none", "otlp":
	default:
		return fmt.Errorf("METRICS_EXPORTER must be one of: none, otlp")
	}

	if isProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.Auth.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
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

// splitList parses a comma-separated list, dropping blanks.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func setString(dst *string, name string) {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		*dst = v
	}
}

func parseDurationEnv(dst *time.Duration, name string) error {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	*dst = d
	return nil
}

func parseIntEnv(dst *int, name string) error {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	*dst = n
	return nil
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
