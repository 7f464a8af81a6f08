package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/medrec/internal/database"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "medrec.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// TestLoadDefaults verifies the built-in settings are valid on their own
func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "database", cfg.Snapshot.Key)
	assert.Equal(t, 100, cfg.Index.QueueCapacity)
}

// TestDefaultsMatchDatabase keeps the configured defaults in step with the
// database's own
func TestDefaultsMatchDatabase(t *testing.T) {
	cfg := Default()
	opts := database.DefaultOptions()
	assert.Equal(t, opts.SnapshotKey, cfg.Snapshot.Key)
	assert.Equal(t, opts.Buckets, cfg.Index.Buckets)
	assert.Equal(t, opts.QueueCapacity, cfg.Index.QueueCapacity)
}

// TestLoadFile verifies YAML values overlay the defaults
func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
storage:
  backend: bolt
  path: /tmp/medrec.db
log:
  format: json
index:
  queue_capacity: 0
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "bolt", cfg.Storage.Backend)
	assert.Equal(t, "/tmp/medrec.db", cfg.Storage.Path)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level, "unset keys keep defaults")
	assert.Equal(t, 0, cfg.Index.QueueCapacity)
	assert.Equal(t, 16, cfg.Index.Buckets)
}

// TestLoadEnvOverrides verifies environment variables win over the file
func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, "storage:\n  backend: bolt\n  path: file.db\n")
	t.Setenv(EnvBackend, "memory")
	t.Setenv(EnvPath, "")
	t.Setenv(EnvLogLevel, "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, "file.db", cfg.Storage.Path, "empty env value is ignored")
	assert.Equal(t, "debug", cfg.Log.Level)
}

// TestLoadErrors covers unreadable and malformed files
func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "storage: [not, a, map"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "storage:\n  backend: tape\n"))
	assert.True(t, errors.Is(err, ErrInvalid))
}

// TestValidate checks each rejected setting
func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.Storage.Backend = "s3" }},
		{"file without path", func(c *Config) { c.Storage.Path = "" }},
		{"empty snapshot key", func(c *Config) { c.Snapshot.Key = "" }},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }},
		{"zero buckets", func(c *Config) { c.Index.Buckets = 0 }},
		{"negative capacity", func(c *Config) { c.Index.QueueCapacity = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.True(t, errors.Is(cfg.Validate(), ErrInvalid))
		})
	}

	t.Run("memory needs no path", func(t *testing.T) {
		cfg := Default()
		cfg.Storage = Storage{Backend: "memory"}
		assert.NoError(t, cfg.Validate())
	})
}

// TestLogApply verifies level and formatter are set on the logger
func TestLogApply(t *testing.T) {
	logger := log.New()

	require.NoError(t, Log{Level: "warn", Format: "json"}.Apply(logger))
	assert.Equal(t, log.WarnLevel, logger.GetLevel())
	assert.IsType(t, &log.JSONFormatter{}, logger.Formatter)

	require.NoError(t, Log{Level: "debug", Format: "text"}.Apply(logger))
	assert.Equal(t, log.DebugLevel, logger.GetLevel())
	assert.IsType(t, &log.TextFormatter{}, logger.Formatter)

	assert.Error(t, Log{Level: "chatty"}.Apply(logger))
}
