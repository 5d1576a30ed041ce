package config

import (
	"errors"
	"fmt"
	"net/url"

	"envdash/pkg/logging"
)

// Validate checks the configuration for values the dashboard cannot use.
func (c DashboardConfig) Validate() error {
	var errs []error

	u, err := url.Parse(c.Backend.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("backend.endpoint %q is not an absolute URL", c.Backend.Endpoint))
	}
	switch c.Backend.Transport {
	case TransportStreamableHTTP, TransportSSE:
	default:
		errs = append(errs, fmt.Errorf("backend.transport %q must be %q or %q", c.Backend.Transport, TransportStreamableHTTP, TransportSSE))
	}
	if c.Backend.RequestTimeout <= 0 {
		errs = append(errs, errors.New("backend.requestTimeout must be positive"))
	}
	if c.Connection.PingInterval <= 0 {
		errs = append(errs, errors.New("connection.pingInterval must be positive"))
	}

	b := c.Connection.Backoff
	if b.Initial <= 0 || b.Max <= 0 {
		errs = append(errs, errors.New("connection.backoff.initial and max must be positive"))
	}
	if b.Max < b.Initial {
		errs = append(errs, errors.New("connection.backoff.max must not be below initial"))
	}
	if b.Factor < 1 {
		errs = append(errs, fmt.Errorf("connection.backoff.factor %v must be at least 1", b.Factor))
	}
	if b.Jitter < 0 || b.Jitter > 1 {
		errs = append(errs, fmt.Errorf("connection.backoff.jitter %v must be within [0, 1]", b.Jitter))
	}

	if c.Theme.PollInterval < 0 {
		errs = append(errs, errors.New("theme.pollInterval must not be negative"))
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}

	return errors.Join(errs...)
}
