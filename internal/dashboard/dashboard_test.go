package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"envdash/internal/api"
	"envdash/internal/connection"
	"envdash/internal/events"
	"envdash/internal/theme"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	done chan struct{}
	once sync.Once
	err  error
}

func (s *fakeSession) Done() <-chan struct{} { return s.done }
func (s *fakeSession) Err() error            { return s.err }
func (s *fakeSession) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}

func (s *fakeSession) drop(err error) {
	s.err = err
	_ = s.Close()
}

type fakeBackend struct {
	mu        sync.Mutex
	servers   []api.ServerDescriptor
	theme     api.ThemeConfig
	themeErr  error
	listErr   error
	reloadErr error
	lists     int
	reloads   int
	session   *fakeSession
	onNotify  func(api.Notification)
	dialed    chan struct{}
}

func newFakeBackend(ids ...string) *fakeBackend {
	b := &fakeBackend{
		theme:  api.ThemeConfig{Mode: api.ThemeModeLight, AccentColor: "#112233", Radius: "3px"},
		dialed: make(chan struct{}, 16),
	}
	b.setServers(ids...)
	return b
}

func (b *fakeBackend) setServers(ids ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.servers = nil
	for _, id := range ids {
		b.servers = append(b.servers, api.ServerDescriptor{ID: id})
	}
}

func (b *fakeBackend) Dial(ctx context.Context, onNotify func(api.Notification)) (api.Session, error) {
	b.mu.Lock()
	b.session = &fakeSession{done: make(chan struct{})}
	b.onNotify = onNotify
	s := b.session
	b.mu.Unlock()
	b.dialed <- struct{}{}
	return s, nil
}

func (b *fakeBackend) FetchTheme(ctx context.Context) (api.ThemeConfig, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.theme, b.themeErr
}

func (b *fakeBackend) ListServers(ctx context.Context) ([]api.ServerDescriptor, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lists++
	if b.listErr != nil {
		return nil, b.listErr
	}
	return append([]api.ServerDescriptor(nil), b.servers...), nil
}

func (b *fakeBackend) ReloadConfig(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reloads++
	return b.reloadErr
}

func (b *fakeBackend) push(n api.Notification) {
	b.mu.Lock()
	fn := b.onNotify
	b.mu.Unlock()
	fn(n)
}

func (b *fakeBackend) dropSession() {
	b.mu.Lock()
	s := b.session
	b.mu.Unlock()
	s.drop(errors.New("connection reset"))
}

func (b *fakeBackend) listCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lists
}

func newTestDashboard(t *testing.T, b *fakeBackend) *Dashboard {
	t.Helper()
	d := New(Options{
		Backend:    b,
		Preference: theme.NewStaticSource(api.AppearanceDark),
		Backoff: connection.BackoffConfig{
			Initial: time.Millisecond,
			Max:     5 * time.Millisecond,
			Factor:  2,
		},
		SyncTimeout: 2 * time.Second,
	})
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func startSynced(t *testing.T, d *Dashboard) {
	t.Helper()
	require.NoError(t, d.Start())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, d.WaitSynced(ctx))
}

// waitFor reads events until match accepts one.
func waitFor(t *testing.T, sub *events.Subscription, match func(events.Event) bool) events.Event {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case e, ok := <-sub.C:
			require.True(t, ok, "subscription closed")
			if match(e) {
				return e
			}
		case <-timeout:
			t.Fatal("expected event not received")
			return events.Event{}
		}
	}
}

func serversAre(ids ...string) func(events.Event) bool {
	return func(e events.Event) bool {
		if e.Type != events.EventTypeServers || len(e.Registry.Servers) != len(ids) {
			return false
		}
		for i, id := range ids {
			if e.Registry.Servers[i].ID != id {
				return false
			}
		}
		return true
	}
}

func TestDashboard_StartSyncsThemeAndInventory(t *testing.T) {
	d := newTestDashboard(t, newFakeBackend("alpha", "beta"))
	assert.Equal(t, api.StatusDisconnected, d.Snapshot().Status)

	startSynced(t, d)

	v := d.Snapshot()
	assert.Equal(t, api.StatusConnected, v.Status)
	require.Len(t, v.Registry.Servers, 2)
	assert.Equal(t, "alpha", v.Registry.SelectedID)
	assert.Equal(t, api.ThemeModeLight, v.ThemeConfig.Mode)
	assert.False(t, v.Theme.Dark())
	assert.Equal(t, "#112233", v.Theme.Variables()[theme.VarAccentColor])

	assert.ErrorIs(t, d.Start(), api.ErrAlreadyConnected)
}

func TestDashboard_ThemeFailureIsNotFatal(t *testing.T) {
	b := newFakeBackend("alpha")
	b.themeErr = errors.New("theme store unavailable")
	d := newTestDashboard(t, b)
	sub := d.Events(events.FilterByType(events.EventTypeError), 4)

	startSynced(t, d)

	v := d.Snapshot()
	assert.Equal(t, theme.DefaultConfig(), v.ThemeConfig)
	assert.Equal(t, "alpha", v.Registry.SelectedID)

	e := waitFor(t, sub, func(events.Event) bool { return true })
	assert.True(t, api.IsFetchFailed(e.Err))
}

func TestDashboard_SyncReportsBothFailures(t *testing.T) {
	b := newFakeBackend("alpha")
	b.themeErr = errors.New("theme store unavailable")
	b.listErr = errors.New("aggregator unavailable")
	d := newTestDashboard(t, b)
	sub := d.Events(events.FilterByType(events.EventTypeError), 4)

	startSynced(t, d)

	e := waitFor(t, sub, func(events.Event) bool { return true })
	assert.Contains(t, e.Err.Error(), "theme store unavailable")
	assert.Contains(t, e.Err.Error(), "aggregator unavailable")
	assert.Empty(t, d.Snapshot().Registry.Servers)
	assert.Equal(t, theme.DefaultConfig(), d.Snapshot().ThemeConfig)
}

func TestDashboard_InventoryNotificationRefreshes(t *testing.T) {
	b := newFakeBackend("alpha")
	d := newTestDashboard(t, b)
	startSynced(t, d)
	sub := d.Events(events.FilterByType(events.EventTypeServers), 8)

	b.setServers("alpha", "gamma")
	b.push(api.Notification{Method: "notifications/message"})
	b.push(api.Notification{Method: api.NotificationToolsListChanged})

	waitFor(t, sub, serversAre("alpha", "gamma"))
	assert.Equal(t, "alpha", d.Snapshot().Registry.SelectedID)
}

func TestDashboard_ReconnectRefreshes(t *testing.T) {
	b := newFakeBackend("alpha", "beta")
	d := newTestDashboard(t, b)
	startSynced(t, d)
	<-b.dialed
	sub := d.Events(nil, 32)

	b.setServers("beta")
	b.dropSession()

	var statuses []api.ConnectionStatus
	waitFor(t, sub, func(e events.Event) bool {
		if e.Type == events.EventTypeConnection {
			statuses = append(statuses, e.Status)
		}
		return e.Type == events.EventTypeConnection && e.Status == api.StatusConnected
	})
	assert.Equal(t, []api.ConnectionStatus{api.StatusReconnecting, api.StatusConnecting, api.StatusConnected}, statuses)

	waitFor(t, sub, serversAre("beta"))
	assert.Empty(t, d.Snapshot().Registry.SelectedID, "vanished selection is cleared")
}

func TestDashboard_ReloadRefreshesEvenOnFailure(t *testing.T) {
	b := newFakeBackend("alpha")
	b.reloadErr = errors.New("invalid config")
	d := newTestDashboard(t, b)
	startSynced(t, d)
	sub := d.Events(events.FilterByType(events.EventTypeReload), 2)
	before := b.listCount()

	err := d.Reload(context.Background())
	require.Error(t, err)
	assert.True(t, api.IsReloadFailed(err))
	assert.Equal(t, before+1, b.listCount())

	e := waitFor(t, sub, func(events.Event) bool { return true })
	assert.ErrorIs(t, e.Err, api.ErrReloadFailed)
}

func TestDashboard_SelectAndTheme(t *testing.T) {
	d := newTestDashboard(t, newFakeBackend("alpha", "beta"))
	startSynced(t, d)
	sub := d.Events(events.FilterByType(events.EventTypeTheme), 4)

	require.NoError(t, d.Select("beta"))
	assert.True(t, api.IsNotFound(d.Select("nope")))
	assert.Equal(t, "beta", d.Snapshot().Registry.SelectedID)
	d.ClearSelection()
	assert.Empty(t, d.Snapshot().Registry.SelectedID)

	require.NoError(t, d.SetThemeMode(api.ThemeModeSystem))
	e := waitFor(t, sub, func(events.Event) bool { return true })
	assert.True(t, e.Theme.Dark())

	radius := "1rem"
	require.NoError(t, d.SetTheme(theme.Patch{Radius: &radius}))
	assert.Equal(t, "1rem", d.Snapshot().Theme.Radius)
}

func TestDashboard_Close(t *testing.T) {
	b := newFakeBackend("alpha")
	d := newTestDashboard(t, b)
	startSynced(t, d)
	sub := d.Events(nil, 8)

	require.NoError(t, d.Close())
	require.NoError(t, d.Close())

	assert.Equal(t, api.StatusDisconnected, d.Snapshot().Status)
	assert.ErrorIs(t, d.Start(), ErrClosed)
	for range sub.C {
	}
	assert.Nil(t, d.Events(nil, 1))
}

func TestDashboard_WaitSyncedHonoursContext(t *testing.T) {
	d := newTestDashboard(t, newFakeBackend())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.WaitSynced(ctx), context.DeadlineExceeded)
}
