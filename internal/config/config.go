// Package config loads the log store configuration: defaults, then an
// optional YAML file, then environment overrides.
package config

import (
	"fmt"
	"os"
	"time"

	storemongo "github.com/qscale/logstore/internal/store/mongo"
	"gopkg.in/yaml.v3"
)

// MongoConfig points at the storage engine.
type MongoConfig struct {
	URI            string        `yaml:"uri"`
	Database       string        `yaml:"database"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// Config holds the full application configuration.
type Config struct {
	Mongo     MongoConfig                `yaml:"mongo"`
	Logging   LoggingConfig              `yaml:"logging"`
	Reaper    storemongo.ReaperConfig    `yaml:"reaper"`
	Provision storemongo.ProvisionConfig `yaml:"provision"`

	// CatalogPath optionally replaces the built-in collection catalog
	// (collection names, schemas, retention, index plan) with a YAML
	// file, so schema and retention evolve without redeploying.
	CatalogPath string `yaml:"catalog_path"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Mongo: MongoConfig{
			URI:            "mongodb://localhost:27017",
			Database:       "questionnaire_scale",
			ConnectTimeout: 10 * time.Second,
		},
		Logging:   DefaultLoggingConfig(),
		Reaper:    storemongo.DefaultReaperConfig(),
		Provision: storemongo.DefaultProvisionConfig(),
	}
}

// Load builds the configuration: defaults, then the YAML file at path
// (skipped when the path is empty or the file does not exist), then
// environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("config: read %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyEnvOverrides applies environment variable overrides. Secrets
// (user passwords) are expected to arrive this way rather than in the
// config file.
func (c *Config) ApplyEnvOverrides() {
	if val := os.Getenv("LOGSTORE_MONGO_URI"); val != "" {
		c.Mongo.URI = val
	}
	if val := os.Getenv("LOGSTORE_MONGO_DATABASE"); val != "" {
		c.Mongo.Database = val
	}
	if val := os.Getenv("LOGSTORE_CATALOG"); val != "" {
		c.CatalogPath = val
	}
	if val := os.Getenv("LOGSTORE_LOG_LEVEL"); val != "" {
		c.Logging.Level = val
	}
	if val := os.Getenv("LOGSTORE_APP_USER"); val != "" {
		c.Provision.AppUser = val
	}
	if val := os.Getenv("LOGSTORE_APP_PASSWORD"); val != "" {
		c.Provision.AppPassword = val
	}
	if val := os.Getenv("LOGSTORE_READONLY_USER"); val != "" {
		c.Provision.ReadonlyUser = val
	}
	if val := os.Getenv("LOGSTORE_READONLY_PASSWORD"); val != "" {
		c.Provision.ReadonlyPassword = val
	}
}

// Validate returns an error for configurations that cannot work.
func (c *Config) Validate() error {
	if c.Mongo.URI == "" {
		return fmt.Errorf("config: mongo.uri is required")
	}
	if c.Mongo.Database == "" {
		return fmt.Errorf("config: mongo.database is required")
	}
	return nil
}
