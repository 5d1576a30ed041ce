package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// For mocking in tests
var osUserHomeDir = os.UserHomeDir
var osGetwd = os.Getwd

const (
	userConfigDir    = ".config/envdash"
	projectConfigDir = ".envdash"
	configFileName   = "config.yaml"
	envPrefix        = "ENVDASH"
)

// LoadConfig loads the configuration by layering defaults, user, project and
// environment settings.
func LoadConfig() (DashboardConfig, error) {
	config := GetDefaultConfig()

	userConfigPath, err := getUserConfigPath()
	if err != nil {
		// User config is optional.
		fmt.Fprintf(os.Stderr, "Warning: Could not determine user config path: %v\n", err)
	} else if config, err = overlayFile(config, userConfigPath); err != nil {
		return DashboardConfig{}, fmt.Errorf("error loading user config from %s: %w", userConfigPath, err)
	}

	projectConfigPath, err := getProjectConfigPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not determine project config path: %v\n", err)
	} else if config, err = overlayFile(config, projectConfigPath); err != nil {
		return DashboardConfig{}, fmt.Errorf("error loading project config from %s: %w", projectConfigPath, err)
	}

	config, err = applyEnv(config)
	if err != nil {
		return DashboardConfig{}, err
	}
	config.Theme.PreferenceFile = expandHome(config.Theme.PreferenceFile)

	if err := config.Validate(); err != nil {
		return DashboardConfig{}, err
	}
	return config, nil
}

var getUserConfigPath = func() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, userConfigDir, configFileName), nil
}

var getProjectConfigPath = func() (string, error) {
	wd, err := osGetwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, projectConfigDir, configFileName), nil
}

func overlayFile(base DashboardConfig, path string) (DashboardConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return base, nil
	}
	overlay, err := loadConfigFromFile(path)
	if err != nil {
		return base, err
	}
	return mergeConfigs(base, overlay), nil
}

// loadConfigFromFile loads a DashboardConfig from a YAML file.
func loadConfigFromFile(filePath string) (DashboardConfig, error) {
	var config DashboardConfig
	data, err := os.ReadFile(filePath)
	if err != nil {
		return DashboardConfig{}, err
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return DashboardConfig{}, err
	}
	return config, nil
}

// mergeConfigs merges non-zero fields of overlay into base.
func mergeConfigs(base, overlay DashboardConfig) DashboardConfig {
	merged := base

	if overlay.Backend.Endpoint != "" {
		merged.Backend.Endpoint = overlay.Backend.Endpoint
	}
	if overlay.Backend.Transport != "" {
		merged.Backend.Transport = overlay.Backend.Transport
	}
	if overlay.Backend.RequestTimeout != 0 {
		merged.Backend.RequestTimeout = overlay.Backend.RequestTimeout
	}

	if overlay.Connection.PingInterval != 0 {
		merged.Connection.PingInterval = overlay.Connection.PingInterval
	}
	if b := overlay.Connection.Backoff; b.Initial != 0 {
		merged.Connection.Backoff.Initial = b.Initial
	}
	if b := overlay.Connection.Backoff; b.Max != 0 {
		merged.Connection.Backoff.Max = b.Max
	}
	if b := overlay.Connection.Backoff; b.Factor != 0 {
		merged.Connection.Backoff.Factor = b.Factor
	}
	if b := overlay.Connection.Backoff; b.Jitter != 0 {
		merged.Connection.Backoff.Jitter = b.Jitter
	}

	if overlay.Theme.PreferenceFile != "" {
		merged.Theme.PreferenceFile = overlay.Theme.PreferenceFile
	}
	if overlay.Theme.PollInterval != 0 {
		merged.Theme.PollInterval = overlay.Theme.PollInterval
	}

	if overlay.Logging.Level != "" {
		merged.Logging.Level = overlay.Logging.Level
	}
	return merged
}

// applyEnv overrides fields from ENVDASH_* environment variables.
func applyEnv(config DashboardConfig) (DashboardConfig, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if s := v.GetString("backend.endpoint"); s != "" {
		config.Backend.Endpoint = s
	}
	if s := v.GetString("backend.transport"); s != "" {
		config.Backend.Transport = s
	}
	if s := v.GetString("theme.preferencefile"); s != "" {
		config.Theme.PreferenceFile = s
	}
	if s := v.GetString("logging.level"); s != "" {
		config.Logging.Level = s
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"backend.requesttimeout", &config.Backend.RequestTimeout},
		{"connection.pinginterval", &config.Connection.PingInterval},
		{"connection.backoff.initial", &config.Connection.Backoff.Initial},
		{"connection.backoff.max", &config.Connection.Backoff.Max},
		{"theme.pollinterval", &config.Theme.PollInterval},
	}
	for _, d := range durations {
		if v.GetString(d.key) == "" {
			continue
		}
		parsed, err := time.ParseDuration(v.GetString(d.key))
		if err != nil {
			return config, fmt.Errorf("invalid %s_%s: %w", envPrefix, strings.ToUpper(strings.ReplaceAll(d.key, ".", "_")), err)
		}
		*d.dst = parsed
	}
	return config, nil
}

// GetUserConfigDir returns the user configuration directory path
func GetUserConfigDir() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, userConfigDir), nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := osUserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
