package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackoverflowed/nifimcp/internal/config"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
nifi_servers:
  - id: local
    display_name: Local NiFi
    url: http://localhost:8080/nifi-api
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":8000", cfg.ListenAddr)
	assert.Equal(t, 10, cfg.Workflow.ActionCeiling)
	assert.Equal(t, 1, cfg.Workflow.RetryAttempts)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err, "defaults alone have no nifi_servers and must fail validation")
}

func TestLoadRejectsEmptyServers(t *testing.T) {
	path := writeConfig(t, `nifi_servers: []`)
	_, err := config.Load(path)
	require.Error(t, err)
}

func TestLoadRejectsDuplicateIDs(t *testing.T) {
	path := writeConfig(t, `
nifi_servers:
  - id: dup
    url: http://a
  - id: dup
    url: http://b
`)
	_, err := config.Load(path)
	require.Error(t, err)
}

func TestEnvOverridesActionCeiling(t *testing.T) {
	path := writeConfig(t, `
nifi_servers:
  - id: local
    url: http://localhost:8080/nifi-api
workflow:
  action_ceiling: 5
`)
	t.Setenv("NIFIMCP_WORKFLOW_ACTION_CEILING", "3")
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Workflow.ActionCeiling)
}

func TestLoadDefaultsTelemetryBackendToSlog(t *testing.T) {
	path := writeConfig(t, `
nifi_servers:
  - id: local
    url: http://localhost:8080/nifi-api
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "slog", cfg.Telemetry.Backend)
}

func TestLoadRejectsUnknownTelemetryBackend(t *testing.T) {
	path := writeConfig(t, `
nifi_servers:
  - id: local
    url: http://localhost:8080/nifi-api
telemetry:
  backend: datadog
`)
	_, err := config.Load(path)
	require.Error(t, err)
}

func TestEnvOverridesTelemetryBackend(t *testing.T) {
	path := writeConfig(t, `
nifi_servers:
  - id: local
    url: http://localhost:8080/nifi-api
`)
	t.Setenv("NIFIMCP_TELEMETRY_BACKEND", "clue")
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "clue", cfg.Telemetry.Backend)
}

func TestFind(t *testing.T) {
	path := writeConfig(t, `
nifi_servers:
  - id: local
    url: http://localhost:8080/nifi-api
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	s, ok := cfg.Find("local")
	require.True(t, ok)
	assert.Equal(t, "http://localhost:8080/nifi-api", s.URL)

	_, ok = cfg.Find("missing")
	assert.False(t, ok)
}
