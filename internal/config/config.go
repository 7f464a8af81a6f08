// Package config loads medrec settings from an optional YAML file and the
// environment.
//
// Precedence, lowest first: built-in defaults, the YAML file, then the
// MEDREC_* environment variables. The result is checked by Validate before
// it is returned.
//
//	storage:
//	  backend: bolt        # memory | file | bolt
//	  path: /var/lib/medrec/medrec.db
//	snapshot:
//	  key: database
//	log:
//	  level: info          # any logrus level
//	  format: text         # text | json
//	index:
//	  buckets: 16          # hash map bucket count, fixed for the session
//	  queue_capacity: 100  # per-doctor waiting list bound, 0 = unbounded
package config

import (
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"

	"github.com/dreamware/medrec/internal/hashmap"
	"github.com/dreamware/medrec/internal/heap"
	"github.com/dreamware/medrec/internal/storage"
)

// Environment variables that override file settings
const (
	EnvBackend  = "MEDREC_STORAGE_BACKEND"
	EnvPath     = "MEDREC_STORAGE_PATH"
	EnvLogLevel = "MEDREC_LOG_LEVEL"
)

// ErrInvalid wraps every validation failure
var ErrInvalid = errors.New("invalid configuration")

// Config holds every medrec setting
type Config struct {
	Storage  Storage  `yaml:"storage"`
	Snapshot Snapshot `yaml:"snapshot"`
	Log      Log      `yaml:"log"`
	Index    Index    `yaml:"index"`
}

// Storage selects the snapshot backend and where it keeps its data
type Storage struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

// Snapshot names the key the database is committed under
type Snapshot struct {
	Key string `yaml:"key"`
}

// Log configures the logrus standard logger
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Index sizes the in-memory structures
type Index struct {
	Buckets       int `yaml:"buckets"`
	QueueCapacity int `yaml:"queue_capacity"`
}

// Default returns the settings used when nothing else is given
func Default() *Config {
	return &Config{
		Storage:  Storage{Backend: storage.BackendFile, Path: "data"},
		Snapshot: Snapshot{Key: "database"},
		Log:      Log{Level: "info", Format: "text"},
		Index:    Index{Buckets: hashmap.DefaultBuckets, QueueCapacity: heap.DefaultCapacity},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "read config")
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "parse %s", path)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Storage.Backend = getenv(EnvBackend, c.Storage.Backend)
	c.Storage.Path = getenv(EnvPath, c.Storage.Path)
	c.Log.Level = getenv(EnvLogLevel, c.Log.Level)
}

// Validate reports the first setting that cannot be used
func (c *Config) Validate() error {
	if !slices.Contains(storage.Backends(), c.Storage.Backend) {
		return errors.Wrapf(ErrInvalid, "storage.backend %q", c.Storage.Backend)
	}
	if c.Storage.Backend != storage.BackendMemory && c.Storage.Path == "" {
		return errors.Wrapf(ErrInvalid, "storage.path is required for %s", c.Storage.Backend)
	}
	if c.Snapshot.Key == "" {
		return errors.Wrap(ErrInvalid, "snapshot.key is empty")
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrapf(ErrInvalid, "log.level %q", c.Log.Level)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return errors.Wrapf(ErrInvalid, "log.format %q", c.Log.Format)
	}
	if c.Index.Buckets < 1 {
		return errors.Wrapf(ErrInvalid, "index.buckets %d", c.Index.Buckets)
	}
	if c.Index.QueueCapacity < 0 {
		return errors.Wrapf(ErrInvalid, "index.queue_capacity %d", c.Index.QueueCapacity)
	}
	return nil
}

// Apply configures logger's level and formatter
func (l Log) Apply(logger *log.Logger) error {
	level, err := log.ParseLevel(l.Level)
	if err != nil {
		return errors.Wrapf(ErrInvalid, "log.level %q", l.Level)
	}
	logger.SetLevel(level)
	if l.Format == "json" {
		logger.SetFormatter(&log.JSONFormatter{})
	} else {
		logger.SetFormatter(&log.TextFormatter{})
	}
	return nil
}

// getenv returns $k, or def when it is unset or empty
func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
