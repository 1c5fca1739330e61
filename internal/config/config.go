package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	defaultEnv             = "development"
	defaultHTTPHost        = "0.0.0.0"
	defaultHTTPPort        = 8080
	defaultRefreshInterval = 5 * time.Minute
	defaultSecondaryVenue  = "binance"
)

// Config keeps the runtime configuration for the service.
type Config struct {
	Env        string
	HTTP       HTTPConfig
	Postgres   PostgresConfig
	Clickhouse ClickhouseConfig
	Refresh    RefreshConfig
}

// HTTPConfig holds HTTP server related settings.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr renders the listen address in host:port form.
func (h HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

// PostgresConfig stores database connection parameters. An empty DSN
// selects the in-memory stores.
type PostgresConfig struct {
	DSN string
}

// ClickhouseConfig stores the price-history database parameters. An empty
// DSN selects the in-memory history store.
type ClickhouseConfig struct {
	DSN string
}

// RefreshConfig stores price refresher behavior.
type RefreshConfig struct {
	Interval       time.Duration
	SecondaryVenue string
}

// Load builds Config from environment variables.
func Load() (*Config, error) {
	host := getString("HTTP_HOST", defaultHTTPHost)
	port, err := getInt("HTTP_PORT", defaultHTTPPort)
	if err != nil {
		return nil, fmt.Errorf("parse HTTP_PORT: %w", err)
	}

	interval, err := getDuration("REFRESH_INTERVAL", defaultRefreshInterval)
	if err != nil {
		return nil, fmt.Errorf("parse REFRESH_INTERVAL: %w", err)
	}

	return &Config{
		Env:  getString("APP_ENV", defaultEnv),
		HTTP: HTTPConfig{Host: host, Port: port},
		Postgres: PostgresConfig{
			DSN: os.Getenv("POSTGRES_DSN"),
		},
		Clickhouse: ClickhouseConfig{
			DSN: os.Getenv("CLICKHOUSE_DSN"),
		},
		Refresh: RefreshConfig{
			Interval:       interval,
			SecondaryVenue: getString("SECONDARY_VENUE", defaultSecondaryVenue),
		},
	}, nil
}

func getString(key, fallback string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	return value
}

func getInt(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("convert %s value %q to int: %w", key, value, err)
	}
	return parsed, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("convert %s value %q to duration: %w", key, value, err)
	}
	return parsed, nil
}
