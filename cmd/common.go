package cmd

import (
	"context"
	"fmt"
	"os"

	"envdash/internal/api"
	"envdash/internal/backend"
	"envdash/internal/config"
	"envdash/internal/connection"
	"envdash/internal/theme"
	"envdash/pkg/logging"
)

// loadConfig loads the layered configuration and applies flag overrides.
func loadConfig() (config.DashboardConfig, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return cfg, fmt.Errorf("failed to load configuration: %w", err)
	}
	if rootOpts.endpoint != "" {
		cfg.Backend.Endpoint = rootOpts.endpoint
	}
	if rootOpts.transport != "" {
		cfg.Backend.Transport = rootOpts.transport
	}
	if rootOpts.logLevel != "" {
		cfg.Logging.Level = rootOpts.logLevel
	}
	if rootOpts.timeout > 0 {
		cfg.Backend.RequestTimeout = rootOpts.timeout
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func logLevel(cfg config.DashboardConfig) logging.LogLevel {
	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return logging.LevelInfo
	}
	return level
}

// initCLILogging sends log output to stderr so stdout stays parseable.
func initCLILogging(cfg config.DashboardConfig) {
	logging.InitForCLI(logLevel(cfg), os.Stderr)
}

func newBackendClient(cfg config.DashboardConfig) *backend.Client {
	return backend.NewClient(backend.Options{
		Endpoint:       cfg.Backend.Endpoint,
		Transport:      cfg.Backend.Transport,
		RequestTimeout: cfg.Backend.RequestTimeout,
		PingInterval:   cfg.Connection.PingInterval,
		Version:        rootCmd.Version,
	})
}

func backoffConfig(cfg config.DashboardConfig) connection.BackoffConfig {
	b := cfg.Connection.Backoff
	return connection.BackoffConfig{
		Initial: b.Initial,
		Max:     b.Max,
		Factor:  b.Factor,
		Jitter:  b.Jitter,
	}
}

// preferenceSource picks the system-preference signal: a watched file when
// configured, otherwise the terminal background.
func preferenceSource(cfg config.DashboardConfig) theme.PreferenceSource {
	if cfg.Theme.PreferenceFile != "" {
		return theme.NewFileSource(cfg.Theme.PreferenceFile, api.AppearanceDark)
	}
	return theme.NewTerminalSource(cfg.Theme.PollInterval)
}

// withBackend opens a one-shot session and runs fn against it.
func withBackend(ctx context.Context, cfg config.DashboardConfig, fn func(context.Context, *backend.Client) error) error {
	ctx, cancel := context.WithTimeout(ctx, cfg.Backend.RequestTimeout)
	defer cancel()

	client := newBackendClient(cfg)
	sess, err := client.Dial(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to backend at %s: %w", cfg.Backend.Endpoint, err)
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			logging.Debug("CLI", "Closing session: %v", cerr)
		}
	}()
	return fn(ctx, client)
}

func commandContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
