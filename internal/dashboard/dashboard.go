// Package dashboard composes the connection, registry, theme and reload
// components into one observable view-model.
package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"envdash/internal/api"
	"envdash/internal/connection"
	"envdash/internal/events"
	"envdash/internal/registry"
	"envdash/internal/reload"
	"envdash/internal/theme"
	"envdash/pkg/logging"

	"golang.org/x/sync/errgroup"
)

const subsystem = "Dashboard"

// DefaultSyncTimeout bounds one background theme load plus inventory refresh.
const DefaultSyncTimeout = 10 * time.Second

// ErrClosed is returned by Start after Close.
var ErrClosed = errors.New("dashboard closed")

// Backend is everything the dashboard needs from the orchestration backend.
type Backend interface {
	api.Dialer
	api.ThemeFetcher
	api.ServerLister
	api.ConfigReloader
}

// Options configures a Dashboard.
type Options struct {
	Backend     Backend
	Preference  theme.PreferenceSource
	Backoff     connection.BackoffConfig
	SyncTimeout time.Duration
}

// View is a consistent read of the whole view-model.
type View struct {
	Status      api.ConnectionStatus
	Registry    registry.Snapshot
	ThemeConfig api.ThemeConfig
	Theme       theme.Effective
}

// Dashboard is the client view-model. Refreshes are triggered by every
// transition to Connected and by inventory-change notifications.
type Dashboard struct {
	conn     *connection.Manager
	registry *registry.Registry
	theme    *theme.Engine
	reloader *reload.Coordinator
	bus      *events.Bus

	syncTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	closed   bool
	unsubs   []func()
	synced   chan struct{}
	syncOnce sync.Once
}

// New wires the components together. Nothing talks to the backend until
// Start is called.
func New(opts Options) *Dashboard {
	if opts.SyncTimeout <= 0 {
		opts.SyncTimeout = DefaultSyncTimeout
	}
	if opts.Backoff == (connection.BackoffConfig{}) {
		opts.Backoff = connection.DefaultBackoff()
	}

	reg := registry.New(opts.Backend)
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dashboard{
		conn:        connection.NewManager(opts.Backend, opts.Backoff),
		registry:    reg,
		theme:       theme.NewEngine(opts.Backend, opts.Preference),
		reloader:    reload.NewCoordinator(opts.Backend, reg),
		bus:         events.NewBus(),
		syncTimeout: opts.SyncTimeout,
		ctx:         ctx,
		cancel:      cancel,
		synced:      make(chan struct{}),
	}

	d.unsubs = append(d.unsubs,
		d.conn.OnStatusChange(d.onStatus),
		d.conn.OnNotification(d.onNotification),
		d.registry.OnChange(func(s registry.Snapshot) { d.bus.Publish(events.ServersChanged(s)) }),
		d.theme.OnChange(func(e theme.Effective) { d.bus.Publish(events.ThemeChanged(e)) }),
	)
	return d
}

// Start opens the live connection. It returns without waiting for it; use
// WaitSynced to wait for the first theme load and inventory refresh.
func (d *Dashboard) Start() error {
	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return ErrClosed
	}
	return d.conn.Connect(d.ctx)
}

// WaitSynced blocks until the first sync after connecting has finished or
// ctx is done.
func (d *Dashboard) WaitSynced(ctx context.Context) error {
	select {
	case <-d.synced:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns the current view-model.
func (d *Dashboard) Snapshot() View {
	return View{
		Status:      d.conn.Status(),
		Registry:    d.registry.Snapshot(),
		ThemeConfig: d.theme.Config(),
		Theme:       d.theme.ResolveEffective(),
	}
}

// Events subscribes to view-model changes.
func (d *Dashboard) Events(filter events.EventFilter, bufferSize int) *events.Subscription {
	return d.bus.Subscribe(filter, bufferSize)
}

// Select makes id the selected server.
func (d *Dashboard) Select(id string) error {
	return d.registry.Select(id)
}

// ClearSelection removes the current selection.
func (d *Dashboard) ClearSelection() {
	d.registry.ClearSelection()
}

// Refresh pulls the server inventory now.
func (d *Dashboard) Refresh(ctx context.Context) error {
	return d.registry.Refresh(ctx)
}

// Reload asks the backend to reload its configuration and refreshes the
// inventory afterwards.
func (d *Dashboard) Reload(ctx context.Context) error {
	err := d.reloader.ReloadConfig(ctx)
	d.bus.Publish(events.ReloadFinished(err))
	return err
}

// SetTheme applies a local theme change.
func (d *Dashboard) SetTheme(p theme.Patch) error {
	return d.theme.SetConfig(p)
}

// SetThemeMode is SetTheme with only the mode.
func (d *Dashboard) SetThemeMode(mode api.ThemeMode) error {
	return d.theme.SetMode(mode)
}

// Close tears everything down: the connection, the system-preference
// subscription, background syncs and event subscriptions.
func (d *Dashboard) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	unsubs := d.unsubs
	d.unsubs = nil
	d.mu.Unlock()

	err := d.conn.Close()
	for _, unsubscribe := range unsubs {
		unsubscribe()
	}
	d.theme.Close()
	d.cancel()
	d.wg.Wait()
	d.bus.Close()
	logging.Info(subsystem, "Dashboard closed")
	return err
}

// onStatus runs on the connection goroutine and must not block.
func (d *Dashboard) onStatus(s api.ConnectionStatus) {
	d.bus.Publish(events.ConnectionChanged(s))
	if s == api.StatusConnected {
		d.spawn("sync after connect", d.sync)
	}
}

func (d *Dashboard) onNotification(n api.Notification) {
	if !n.IsInventoryChange() {
		return
	}
	d.spawn("refresh on "+n.Method, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, d.syncTimeout)
		defer cancel()
		return d.registry.Refresh(ctx)
	})
}

// spawn runs fn in the background unless the dashboard is closed.
func (d *Dashboard) spawn(what string, fn func(context.Context) error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := fn(d.ctx); err != nil && d.ctx.Err() == nil {
			logging.Warn(subsystem, "Background %s failed: %v", what, err)
			d.bus.Publish(events.Failed(err))
		}
	}()
}

// sync loads the theme and refreshes the inventory concurrently. Neither
// failure stops the other.
func (d *Dashboard) sync(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, d.syncTimeout)
	defer cancel()

	// A plain Group never cancels its context, so a failed refresh does not
	// abort the theme load. The theme error is kept aside: a failed load
	// leaves the defaults in place and is reported with the refresh result.
	var themeErr error
	var g errgroup.Group
	g.Go(func() error {
		themeErr = d.theme.Load(ctx)
		return nil
	})
	g.Go(func() error {
		return d.registry.Refresh(ctx)
	})
	refreshErr := g.Wait()

	d.syncOnce.Do(func() { close(d.synced) })
	logging.Debug(subsystem, "Sync finished: servers=%d", len(d.registry.Snapshot().Servers))
	return errors.Join(themeErr, refreshErr)
}
