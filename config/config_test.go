package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/booknet/bookgraph/errors"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "booknet", cfg.Service.Namespace)
	assert.True(t, cfg.Cache.Enabled)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{
		"mongo": {"uri": "mongodb://db.internal:27017", "database": "catalog"},
		"neo4j": {"uri": "neo4j://graph.internal:7687", "database": "books"},
		"cache": {"enabled": true, "ttl": "30m", "cleanup_interval": "2m"},
		"service": {"namespace": "prod", "health_interval": "30s"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)

	assert.Equal(t, "catalog", cfg.Mongo.Database)
	assert.Equal(t, "books", cfg.Neo4j.Database)
	assert.Equal(t, 30*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "prod", cfg.Service.Namespace)
	assert.Equal(t, 30*time.Second, cfg.Service.HealthInterval)

	// untouched sections keep their defaults
	assert.Equal(t, 9090, cfg.Metrics.Port)
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	t.Setenv("BOOKGRAPH_MONGO_URI", "mongodb://replica.internal:27017")
	t.Setenv("BOOKGRAPH_NEO4J_PASSWORD", "s3cret")
	t.Setenv("BOOKGRAPH_LOG_LEVEL", "debug")
	t.Setenv("BOOKGRAPH_CACHE_ENABLED", "false")

	cfg, err := NewLoader("").Load()
	require.NoError(t, err)

	assert.Equal(t, "mongodb://replica.internal:27017", cfg.Mongo.URI)
	assert.Equal(t, "s3cret", cfg.Neo4j.Password)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.False(t, cfg.Cache.Enabled)
}

func TestValidateRejectsBadSections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing mongo uri", func(c *Config) { c.Mongo.URI = "" }},
		{"missing neo4j database", func(c *Config) { c.Neo4j.Database = "" }},
		{"metrics port out of range", func(c *Config) { c.Metrics.Port = 70000 }},
		{"unknown log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"unknown log format", func(c *Config) { c.Logging.Format = "xml" }},
		{"negative health interval", func(c *Config) { c.Service.HealthInterval = -time.Second }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsInvalid(err), "expected invalid config error, got %v", err)
		})
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewLoader(path).Load()
	require.Error(t, err)
}
