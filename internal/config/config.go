// Package config loads indexer configuration from environment variables.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/caarlos0/env/v10"

	"github.com/utafrali/search-indexer/internal/database"
	"github.com/utafrali/search-indexer/internal/document"
	apperrors "github.com/utafrali/search-indexer/internal/errors"
)

// Config holds all configuration for the search indexer.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Admin HTTP server (health, status, metrics)
	HTTPPort int `env:"INDEXER_HTTP_PORT" envDefault:"8020"`

	// Elasticsearch
	ElasticsearchURL string `env:"ELASTICSEARCH_URL" envDefault:"http://localhost:9200"`

	// Index naming: the run writes <name>_<version> and cuts <alias> over
	// to it on success.
	IndexName    string `env:"SEARCH_INDEX_NAME" envDefault:"products"`
	IndexVersion string `env:"SEARCH_INDEX_VERSION" envDefault:"v4"`
	IndexAlias   string `env:"SEARCH_INDEX_ALIAS" envDefault:"products_current"`

	// MappingPath points at an operator-supplied mapping JSON. Empty means
	// the built-in mapping.
	MappingPath string `env:"SEARCH_MAPPING_PATH"`

	BatchSize         int    `env:"INDEX_BATCH_SIZE" envDefault:"500"`
	TimestampFallback string `env:"TIMESTAMP_FALLBACK" envDefault:"now"`

	// PostgreSQL source
	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"catalog"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"catalog_secret"`
	PostgresDB       string `env:"POSTGRES_DB" envDefault:"catalog"`
	PostgresSSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`

	// Kafka completion events
	KafkaBrokers  []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	EventsEnabled bool     `env:"KAFKA_EVENTS_ENABLED" envDefault:"true"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("load indexer config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("invalid batch size: %d", c.BatchSize)
	}
	if c.IndexName == "" || c.IndexVersion == "" || c.IndexAlias == "" {
		return fmt.Errorf("index name, version and alias must all be set")
	}
	if !document.TimestampFallback(c.TimestampFallback).Valid() {
		return fmt.Errorf("invalid timestamp fallback %q (want %q or %q)",
			c.TimestampFallback, document.FallbackNow, document.FallbackZero)
	}
	if c.EventsEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when events are enabled")
	}
	return nil
}

// PhysicalIndexName returns the versioned index a run writes into.
func (c *Config) PhysicalIndexName() string {
	return fmt.Sprintf("%s_%s", c.IndexName, c.IndexVersion)
}

// Postgres returns the connection pool configuration for the source
// database.
func (c *Config) Postgres() database.PostgresConfig {
	pg := database.DefaultPostgresConfig()
	pg.Host = c.PostgresHost
	pg.Port = c.PostgresPort
	pg.User = c.PostgresUser
	pg.Password = c.PostgresPassword
	pg.DBName = c.PostgresDB
	pg.SSLMode = c.PostgresSSLMode
	return pg
}

// LoadMapping reads the operator-supplied mapping file. It returns an empty
// string when no path is configured, which tells the caller to use the
// built-in mapping. An unreadable or syntactically invalid file is fatal.
func (c *Config) LoadMapping() (string, error) {
	if c.MappingPath == "" {
		return "", nil
	}

	raw, err := os.ReadFile(c.MappingPath)
	if err != nil {
		return "", apperrors.SchemaInvalid(c.MappingPath, err)
	}
	if !json.Valid(raw) {
		return "", apperrors.SchemaInvalid(c.MappingPath, fmt.Errorf("not valid JSON"))
	}
	return string(raw), nil
}
