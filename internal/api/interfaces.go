package api

import "context"

// ThemeFetcher loads the persisted theme configuration from the backend.
type ThemeFetcher interface {
	FetchTheme(ctx context.Context) (ThemeConfig, error)
}

// ServerLister returns the current ordered server inventory.
type ServerLister interface {
	ListServers(ctx context.Context) ([]ServerDescriptor, error)
}

// ConfigReloader asks the backend to reload its configuration.
type ConfigReloader interface {
	ReloadConfig(ctx context.Context) error
}

// Session is one established live connection to the backend. Done is
// closed when the session is lost or closed; Err then reports why.
type Session interface {
	Done() <-chan struct{}
	Err() error
	Close() error
}

// Dialer opens live sessions. Notifications received on a session are
// passed to onNotify until the session ends.
type Dialer interface {
	Dial(ctx context.Context, onNotify func(Notification)) (Session, error)
}
