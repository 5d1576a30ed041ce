package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockConfigPaths points the loader at files inside a temp directory.
func mockConfigPaths(t *testing.T) (userPath, projectPath string) {
	t.Helper()
	tempDir := t.TempDir()
	userPath = filepath.Join(tempDir, "user", configFileName)
	projectPath = filepath.Join(tempDir, "project", configFileName)

	originalGetUserConfigPath := getUserConfigPath
	originalGetProjectConfigPath := getProjectConfigPath
	t.Cleanup(func() {
		getUserConfigPath = originalGetUserConfigPath
		getProjectConfigPath = originalGetProjectConfigPath
	})

	getUserConfigPath = func() (string, error) { return userPath, nil }
	getProjectConfigPath = func() (string, error) { return projectPath, nil }
	return userPath, projectPath
}

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadConfig_DefaultOnly(t *testing.T) {
	mockConfigPaths(t)

	loaded, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, GetDefaultConfig(), loaded)
}

func TestLoadConfig_UserOverride(t *testing.T) {
	userPath, _ := mockConfigPaths(t)
	writeConfig(t, userPath, `
backend:
  endpoint: http://aggregator.internal:9000/mcp
connection:
  pingInterval: 3s
  backoff:
    max: 1m
`)

	loaded, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://aggregator.internal:9000/mcp", loaded.Backend.Endpoint)
	assert.Equal(t, TransportStreamableHTTP, loaded.Backend.Transport)
	assert.Equal(t, 3*time.Second, loaded.Connection.PingInterval)
	assert.Equal(t, time.Minute, loaded.Connection.Backoff.Max)
	assert.Equal(t, DefaultBackoffInitial, loaded.Connection.Backoff.Initial)
}

func TestLoadConfig_ProjectOverridesUser(t *testing.T) {
	userPath, projectPath := mockConfigPaths(t)
	writeConfig(t, userPath, `
backend:
  transport: sse
logging:
  level: debug
`)
	writeConfig(t, projectPath, `
logging:
  level: warn
`)

	loaded, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, TransportSSE, loaded.Backend.Transport)
	assert.Equal(t, "warn", loaded.Logging.Level)
}

func TestLoadConfig_EnvOverridesFiles(t *testing.T) {
	userPath, _ := mockConfigPaths(t)
	writeConfig(t, userPath, `
backend:
  endpoint: http://from-file:1/mcp
`)
	t.Setenv("ENVDASH_BACKEND_ENDPOINT", "http://from-env:2/mcp")
	t.Setenv("ENVDASH_CONNECTION_PINGINTERVAL", "250ms")

	loaded, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://from-env:2/mcp", loaded.Backend.Endpoint)
	assert.Equal(t, 250*time.Millisecond, loaded.Connection.PingInterval)
}

func TestLoadConfig_InvalidEnvDuration(t *testing.T) {
	mockConfigPaths(t)
	t.Setenv("ENVDASH_THEME_POLLINTERVAL", "soon")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ENVDASH_THEME_POLLINTERVAL")
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	userPath, _ := mockConfigPaths(t)
	writeConfig(t, userPath, "backend: [not, a, map")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error loading user config")
}

func TestLoadConfig_ExpandsPreferenceFile(t *testing.T) {
	userPath, _ := mockConfigPaths(t)
	writeConfig(t, userPath, `
theme:
  preferenceFile: ~/.config/envdash/appearance
`)
	originalHome := osUserHomeDir
	t.Cleanup(func() { osUserHomeDir = originalHome })
	osUserHomeDir = func() (string, error) { return "/home/dev", nil }

	loaded, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/home/dev", ".config/envdash/appearance"), loaded.Theme.PreferenceFile)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*DashboardConfig)
		wantErr string
	}{
		{"defaults are valid", func(*DashboardConfig) {}, ""},
		{"relative endpoint", func(c *DashboardConfig) { c.Backend.Endpoint = "localhost:8090" }, "backend.endpoint"},
		{"unknown transport", func(c *DashboardConfig) { c.Backend.Transport = "stdio" }, "backend.transport"},
		{"zero ping", func(c *DashboardConfig) { c.Connection.PingInterval = 0 }, "pingInterval"},
		{"factor below one", func(c *DashboardConfig) { c.Connection.Backoff.Factor = 0.5 }, "factor"},
		{"jitter above one", func(c *DashboardConfig) { c.Connection.Backoff.Jitter = 1.5 }, "jitter"},
		{"max below initial", func(c *DashboardConfig) { c.Connection.Backoff.Max = time.Millisecond }, "max must not be below"},
		{"bad log level", func(c *DashboardConfig) { c.Logging.Level = "chatty" }, "logging.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMergeConfigs_ZeroOverlayKeepsBase(t *testing.T) {
	base := GetDefaultConfig()
	assert.Equal(t, base, mergeConfigs(base, DashboardConfig{}))
}
