package config

import (
	"time"
)

// DashboardConfig is the top-level configuration structure for envdash.
type DashboardConfig struct {
	Backend    BackendConfig    `yaml:"backend"`
	Connection ConnectionConfig `yaml:"connection"`
	Theme      ThemeConfig      `yaml:"theme"`
	Logging    LoggingConfig    `yaml:"logging"`
}

const (
	// TransportStreamableHTTP is the streamable HTTP transport.
	TransportStreamableHTTP = "streamable-http"
	// TransportSSE is the Server-Sent Events transport.
	TransportSSE = "sse"
)

// BackendConfig locates the MCP aggregator the dashboard talks to.
type BackendConfig struct {
	Endpoint       string        `yaml:"endpoint,omitempty"`       // aggregator URL, e.g. http://localhost:8090/mcp
	Transport      string        `yaml:"transport,omitempty"`      // streamable-http or sse
	RequestTimeout time.Duration `yaml:"requestTimeout,omitempty"` // per pull request
}

// ConnectionConfig tunes the live session.
type ConnectionConfig struct {
	PingInterval time.Duration `yaml:"pingInterval,omitempty"` // liveness probe period
	Backoff      BackoffConfig `yaml:"backoff,omitempty"`
}

// BackoffConfig bounds the reconnect delay.
type BackoffConfig struct {
	Initial time.Duration `yaml:"initial,omitempty"`
	Max     time.Duration `yaml:"max,omitempty"`
	Factor  float64       `yaml:"factor,omitempty"`
	Jitter  float64       `yaml:"jitter,omitempty"`
}

// ThemeConfig selects where the system light/dark preference comes from.
type ThemeConfig struct {
	PreferenceFile string        `yaml:"preferenceFile,omitempty"` // file containing "dark" or "light"; empty uses the terminal background
	PollInterval   time.Duration `yaml:"pollInterval,omitempty"`   // terminal background polling period
}

// LoggingConfig controls log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"`
}
