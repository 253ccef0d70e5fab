package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// envPrefix namespaces every environment override.
const envPrefix = "BOOKGRAPH"

// Loader assembles configuration in layers: built-in defaults, then an
// optional JSON file, then environment overrides, validated at the end.
type Loader struct {
	path string
}

// NewLoader creates a loader. path may be empty to run on defaults and
// environment only.
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load assembles and validates the configuration.
func (l *Loader) Load() (*Config, error) {
	cfg := Default()

	if l.path != "" {
		if err := l.loadFile(cfg); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *Loader) loadFile(cfg *Config) error {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", l.path, err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", l.path, err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides. Secrets are
// expected to arrive this way rather than through the config file.
func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv(envPrefix + "_MONGO_URI"); val != "" {
		cfg.Mongo.URI = val
	}
	if val := os.Getenv(envPrefix + "_MONGO_DATABASE"); val != "" {
		cfg.Mongo.Database = val
	}
	if val := os.Getenv(envPrefix + "_NEO4J_URI"); val != "" {
		cfg.Neo4j.URI = val
	}
	if val := os.Getenv(envPrefix + "_NEO4J_USERNAME"); val != "" {
		cfg.Neo4j.Username = val
	}
	if val := os.Getenv(envPrefix + "_NEO4J_PASSWORD"); val != "" {
		cfg.Neo4j.Password = val
	}
	if val := os.Getenv(envPrefix + "_NEO4J_DATABASE"); val != "" {
		cfg.Neo4j.Database = val
	}
	if val := os.Getenv(envPrefix + "_CACHE_ENABLED"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			cfg.Cache.Enabled = enabled
		}
	}
	if val := os.Getenv(envPrefix + "_METRICS_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			cfg.Metrics.Port = port
		}
	}
	if val := os.Getenv(envPrefix + "_LOG_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
	if val := os.Getenv(envPrefix + "_LOG_FORMAT"); val != "" {
		cfg.Logging.Format = val
	}
	if val := os.Getenv(envPrefix + "_NAMESPACE"); val != "" {
		cfg.Service.Namespace = val
	}
}
