package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadServer_Defaults(t *testing.T) {
	cfg, err := LoadServer("")
	require.NoError(t, err)

	assert.Equal(t, "localhost:8090", cfg.Addr)
	assert.Equal(t, "report-scheduler.db", cfg.DBPath)
	assert.Equal(t, 2*time.Minute, cfg.PollInterval)
	assert.Equal(t, zerolog.InfoLevel, cfg.Level())
	assert.False(t, cfg.StrictVariableMatch)
}

func TestLoadServer_FileAndEnv(t *testing.T) {
	path := writeFile(t, "config.yaml", `
addr: 0.0.0.0:9000
log_level: debug
poll_interval: 30s
grafana:
  url: http://grafana:3000
  token: secret
  datasource_id: 4
email:
  address: reports@example.org
  host: smtp.example.org
  port: 587
`)
	t.Setenv("REPORTS_DB_PATH", "/data/reports.db")
	t.Setenv("REPORTS_GRAFANA_PLUGIN_ID", "reports-app")

	cfg, err := LoadServer(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.Addr)
	assert.Equal(t, "/data/reports.db", cfg.DBPath)
	assert.Equal(t, 30*time.Second, cfg.PollInterval)
	assert.Equal(t, zerolog.DebugLevel, cfg.Level())

	profile := cfg.Profile()
	assert.Equal(t, "http://grafana:3000", profile.URL)
	assert.Equal(t, "reports-app", profile.PluginID)
	assert.Equal(t, uint(4), profile.DatasourceID)

	defaults := cfg.Defaults()
	assert.Equal(t, "reports@example.org", defaults.SenderEmailAddress)
	assert.Equal(t, 587, defaults.SenderEmailPort)
	assert.Equal(t, uint(4), defaults.DatasourceID)
}

func TestLoadServer_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "log level", content: "log_level: loud\n"},
		{name: "grafana url", content: "grafana:\n  url: grafana\n"},
		{name: "dispatcher url", content: "dispatcher_url: /render\n"},
		{name: "empty addr", content: "addr: \"\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadServer(writeFile(t, "config.yaml", tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadServer_MissingFile(t *testing.T) {
	_, err := LoadServer(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestRegistry(t *testing.T) {
	path := writeFile(t, "reportscfg", `
[DEFAULT]
url = http://localhost:3000
token = glsa_local
plugin_id = reports-app
datasource_id = 2

[staging]
url = https://grafana.staging.example.org
username = admin
password = admin
strict_variable_match = true

[empty]
`)
	registry, err := NewRegistry(path)
	require.NoError(t, err)
	ctx := context.Background()

	profiles, err := registry.GetProfiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"DEFAULT", "staging"}, profiles)

	def, err := registry.GetConfig(ctx, "DEFAULT")
	require.NoError(t, err)
	assert.Equal(t, "glsa_local", def.Token)
	assert.Equal(t, uint(2), def.DatasourceID)
	assert.False(t, def.BasicAuth())
	assert.False(t, def.StrictVariableMatch)

	staging, err := registry.GetConfig(ctx, "staging")
	require.NoError(t, err)
	assert.True(t, staging.BasicAuth())
	assert.Equal(t, "staging", staging.Name)
	assert.True(t, staging.StrictVariableMatch)

	_, err = registry.GetConfig(ctx, "empty")
	assert.Error(t, err)
	_, err = registry.GetConfig(ctx, "prod")
	assert.Error(t, err)
}

func TestNewRegistry_MissingFile(t *testing.T) {
	_, err := NewRegistry(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
