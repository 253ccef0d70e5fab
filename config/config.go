package config

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/booknet/bookgraph/docstore"
	"github.com/booknet/bookgraph/errors"
	"github.com/booknet/bookgraph/graphstore"
	"github.com/booknet/bookgraph/pkg/cache"
	"github.com/booknet/bookgraph/service"
)

// Config is the complete application configuration.
type Config struct {
	Mongo   docstore.Config   `json:"mongo"`
	Neo4j   graphstore.Config `json:"neo4j"`
	Cache   cache.Config      `json:"cache"`
	Metrics MetricsConfig     `json:"metrics"`
	Logging LoggingConfig     `json:"logging"`
	Service ServiceConfig     `json:"service"`
}

// MetricsConfig controls the metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Port    int    `json:"port"`
	Path    string `json:"path"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // json, text
}

// ServiceConfig holds catalog-level settings.
type ServiceConfig struct {
	Namespace      string        `json:"namespace"`
	HealthInterval time.Duration `json:"health_interval"`
}

// Default returns the configuration used when no file is supplied. Store
// addresses have no sensible defaults beyond local development values.
func Default() *Config {
	return &Config{
		Mongo: docstore.Config{
			URI:      "mongodb://localhost:27017",
			Database: "booknet",
		},
		Neo4j: graphstore.Config{
			URI:      "neo4j://localhost:7687",
			Username: "neo4j",
			Database: "neo4j",
		},
		Cache: cache.DefaultConfig(),
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
			Path:    "/metrics",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Service: ServiceConfig{
			Namespace:      service.DefaultNamespace,
			HealthInterval: 15 * time.Second,
		},
	}
}

// Validate checks the assembled configuration section by section.
func (c *Config) Validate() error {
	if err := c.Mongo.Validate(); err != nil {
		return fmt.Errorf("mongo: %w", err)
	}
	if err := c.Neo4j.Validate(); err != nil {
		return fmt.Errorf("neo4j: %w", err)
	}
	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if c.Metrics.Enabled && (c.Metrics.Port < 1 || c.Metrics.Port > 65535) {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "config", "Validate",
			fmt.Sprintf("metrics port %d out of range", c.Metrics.Port))
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return errors.WrapInvalid(errors.ErrInvalidConfig, "config", "Validate",
			fmt.Sprintf("unknown log level %q", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "", "json", "text":
	default:
		return errors.WrapInvalid(errors.ErrInvalidConfig, "config", "Validate",
			fmt.Sprintf("unknown log format %q", c.Logging.Format))
	}
	if c.Service.HealthInterval < 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "config", "Validate",
			"health interval must not be negative")
	}
	return nil
}

// UnmarshalJSON accepts duration fields as Go duration strings ("30s").
func (s *ServiceConfig) UnmarshalJSON(data []byte) error {
	type alias struct {
		Namespace      string `json:"namespace"`
		HealthInterval string `json:"health_interval"`
	}

	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}

	s.Namespace = a.Namespace
	if a.HealthInterval != "" {
		d, err := time.ParseDuration(a.HealthInterval)
		if err != nil {
			return fmt.Errorf("health_interval: %w", err)
		}
		s.HealthInterval = d
	}
	return nil
}
