package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"

	"github.com/couchcryptid/montreal-aqi/internal/observability"
)

// Config holds all settings, populated from environment variables.
type Config struct {
	// Open-data API.
	APIURL           string
	ReadingsResource string
	StationsResource string
	RequestLimit     int
	APITimeout       time.Duration
	CacheTTL         time.Duration

	// ReferenceTablePath replaces the embedded pollutant reference table when set.
	ReferenceTablePath string

	// Exporter.
	Stations        []string
	PollInterval    time.Duration
	HTTPAddr        string
	ShutdownTimeout time.Duration

	LogLevel  slog.Level
	LogFormat string

	// Kafka publishing, enabled when brokers are configured.
	KafkaBrokers   []string
	KafkaSinkTopic string
}

// PublishEnabled reports whether readings are written to Kafka.
func (c *Config) PublishEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Load reads configuration from environment variables, applying defaults
// where unset. A .env file in the working directory is read first; variables
// already set in the environment take precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	apiTimeout, err := parsePositiveDuration("AQI_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	cacheTTL, err := time.ParseDuration(sharedcfg.EnvOrDefault("AQI_CACHE_TTL", "5m"))
	if err != nil || cacheTTL < 0 {
		return nil, errors.New("invalid AQI_CACHE_TTL")
	}

	pollInterval, err := parsePositiveDuration("POLL_INTERVAL", "15m")
	if err != nil {
		return nil, err
	}

	limit, err := strconv.Atoi(sharedcfg.EnvOrDefault("AQI_REQUEST_LIMIT", "1000"))
	if err != nil || limit <= 0 {
		return nil, errors.New("invalid AQI_REQUEST_LIMIT: must be a positive integer")
	}

	level, err := observability.ParseLevel(sharedcfg.EnvOrDefault("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}

	var brokers []string
	if v := strings.TrimSpace(os.Getenv("KAFKA_BROKERS")); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	cfg := &Config{
		APIURL:             sharedcfg.EnvOrDefault("AQI_API_URL", "https://donnees.montreal.ca/api/3/action/datastore_search"),
		ReadingsResource:   sharedcfg.EnvOrDefault("AQI_RESOURCE_READINGS", "a25fdea2-7e86-42ac-8301-ca77db3ff17e"),
		StationsResource:   sharedcfg.EnvOrDefault("AQI_RESOURCE_STATIONS", "29db5545-89a4-4e4a-9e95-05aa6dc2fd80"),
		RequestLimit:       limit,
		APITimeout:         apiTimeout,
		CacheTTL:           cacheTTL,
		ReferenceTablePath: os.Getenv("REFERENCE_TABLE_PATH"),
		Stations:           parseList(os.Getenv("AQI_STATIONS")),
		PollInterval:       pollInterval,
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		ShutdownTimeout:    shutdownTimeout,
		LogLevel:           level,
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		KafkaBrokers:       brokers,
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "station-aqi-readings"),
	}

	if u, err := url.Parse(cfg.APIURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid AQI_API_URL %q", cfg.APIURL)
	}
	if cfg.ReadingsResource == "" || cfg.StationsResource == "" {
		return nil, errors.New("AQI_RESOURCE_READINGS and AQI_RESOURCE_STATIONS are required")
	}
	if cfg.PublishEnabled() && cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

// parseList splits a comma-separated value, dropping blanks.
func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
