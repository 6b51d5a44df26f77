package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o600))
	return dir
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Empty(t, cfg.Source)
	assert.Equal(t, "DEV", cfg.Emitter.Env)
	assert.Equal(t, "urn:li:corpuser:admin", cfg.Emitter.Actor)
	assert.Equal(t, "bigquery", cfg.Emitter.DatasetPlatform)
	assert.Equal(t, "datastudio", cfg.Emitter.DashboardPlatform)
	assert.Equal(t, "http://localhost:8080", cfg.Emitter.GMSServer)
	assert.Equal(t, cfg.Emitter.GMSServer, cfg.Client.Server)
	assert.Equal(t, 3, cfg.Client.MaxRetries)
	assert.Equal(t, ":8090", cfg.Server.Addr)
}

func TestLoadReadsFile(t *testing.T) {
	dir := writeConfig(t, `
datahub:
  gms_server: https://gms.example.com
  token: abc
  actor: urn:li:corpuser:etl
  env: PROD
  dataset_platform: snowflake
  dashboard_platform: looker
client:
  timeout: 5s
  max_retries: 1
  rate_limit: 2.5
server:
  addr: ":9000"
  allowed_origins:
    - https://ui.example.com
log:
  level: debug
  environment: production
`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "config.yaml"), cfg.Source)
	assert.Equal(t, "https://gms.example.com", cfg.Emitter.GMSServer)
	assert.Equal(t, "https://gms.example.com", cfg.Client.Server)
	assert.Equal(t, "abc", cfg.Emitter.Token)
	assert.Equal(t, "abc", cfg.Client.Token)
	assert.Equal(t, "urn:li:corpuser:etl", cfg.Emitter.Actor)
	assert.Equal(t, "PROD", cfg.Emitter.Env)
	assert.Equal(t, "snowflake", cfg.Emitter.DatasetPlatform)
	assert.Equal(t, "looker", cfg.Emitter.DashboardPlatform)
	assert.Equal(t, 5*time.Second, cfg.Client.Timeout)
	assert.Equal(t, 1, cfg.Client.MaxRetries)
	assert.Equal(t, 2.5, cfg.Client.RateLimit)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, []string{"https://ui.example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "production", cfg.Log.Environment)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := writeConfig(t, `
datahub:
  token: from-file
  env: PROD
`)
	t.Setenv("METAEMIT_DATAHUB_TOKEN", "from-env")
	t.Setenv("METAEMIT_DATAHUB_GMS_SERVER", "http://gms:9002")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Emitter.Token)
	assert.Equal(t, "from-env", cfg.Client.Token)
	assert.Equal(t, "http://gms:9002", cfg.Client.Server)
	assert.Equal(t, "PROD", cfg.Emitter.Env)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	dir := writeConfig(t, "datahub: [unclosed")
	_, err := Load(dir)
	assert.Error(t, err)
}

func TestLoadExplicitZeroRetriesDisablesRetries(t *testing.T) {
	cfg, err := Load(writeConfig(t, "client:\n  max_retries: 0\n"))
	require.NoError(t, err)
	assert.Equal(t, -1, cfg.Client.MaxRetries)

	t.Setenv("METAEMIT_CLIENT_MAX_RETRIES", "0")
	cfg, err = Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, -1, cfg.Client.MaxRetries)
}
