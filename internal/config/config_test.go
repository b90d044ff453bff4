package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "mongodb://localhost:27017", cfg.Mongo.URI)
	assert.Equal(t, "questionnaire_scale", cfg.Mongo.Database)
	assert.Equal(t, 10*time.Second, cfg.Mongo.ConnectTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "qs_app_user", cfg.Provision.AppUser)
	assert.Empty(t, cfg.Provision.AppPassword)
	assert.Equal(t, 15*time.Minute, cfg.Reaper.Interval)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Mongo.URI, cfg.Mongo.URI)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	content := `
mongo:
  uri: mongodb://db.internal:27017
  database: qs_prod
logging:
  level: warn
reaper:
  interval: 1h
  batch_size: 100
catalog_path: /etc/logstore/catalog.yml
`
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "mongodb://db.internal:27017", cfg.Mongo.URI)
	assert.Equal(t, "qs_prod", cfg.Mongo.Database)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, time.Hour, cfg.Reaper.Interval)
	assert.Equal(t, 100, cfg.Reaper.BatchSize)
	assert.Equal(t, "/etc/logstore/catalog.yml", cfg.CatalogPath)

	// Untouched fields keep their defaults.
	assert.Equal(t, 10*time.Second, cfg.Mongo.ConnectTimeout)
	assert.Equal(t, 20, cfg.Reaper.MaxBatchesPerCycle)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("LOGSTORE_MONGO_URI", "mongodb://env:27017")
	t.Setenv("LOGSTORE_MONGO_DATABASE", "qs_env")
	t.Setenv("LOGSTORE_LOG_LEVEL", "debug")
	t.Setenv("LOGSTORE_APP_PASSWORD", "secret")
	t.Setenv("LOGSTORE_CATALOG", "/tmp/catalog.yml")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	assert.Equal(t, "mongodb://env:27017", cfg.Mongo.URI)
	assert.Equal(t, "qs_env", cfg.Mongo.Database)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "secret", cfg.Provision.AppPassword)
	assert.Equal(t, "/tmp/catalog.yml", cfg.CatalogPath)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.Mongo.URI = ""
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Mongo.Database = ""
	assert.Error(t, cfg.Validate())
}
