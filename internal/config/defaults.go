package config

import "time"

const (
	DefaultEndpoint       = "http://localhost:8090/mcp"
	DefaultRequestTimeout = 30 * time.Second
	DefaultPingInterval   = 10 * time.Second
	DefaultBackoffInitial = 500 * time.Millisecond
	DefaultBackoffMax     = 30 * time.Second
	DefaultBackoffFactor  = 2.0
	DefaultBackoffJitter  = 0.2
	DefaultPollInterval   = 5 * time.Second
	DefaultLogLevel       = "info"
)

// GetDefaultConfig returns the built-in configuration.
func GetDefaultConfig() DashboardConfig {
	return DashboardConfig{
		Backend: BackendConfig{
			Endpoint:       DefaultEndpoint,
			Transport:      TransportStreamableHTTP,
			RequestTimeout: DefaultRequestTimeout,
		},
		Connection: ConnectionConfig{
			PingInterval: DefaultPingInterval,
			Backoff: BackoffConfig{
				Initial: DefaultBackoffInitial,
				Max:     DefaultBackoffMax,
				Factor:  DefaultBackoffFactor,
				Jitter:  DefaultBackoffJitter,
			},
		},
		Theme: ThemeConfig{
			PollInterval: DefaultPollInterval,
		},
		Logging: LoggingConfig{
			Level: DefaultLogLevel,
		},
	}
}
