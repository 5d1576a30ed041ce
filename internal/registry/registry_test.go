package registry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"envdash/internal/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockLister struct {
	mock.Mock
}

func (m *mockLister) ListServers(ctx context.Context) ([]api.ServerDescriptor, error) {
	args := m.Called(ctx)
	servers, _ := args.Get(0).([]api.ServerDescriptor)
	return servers, args.Error(1)
}

func servers(ids ...string) []api.ServerDescriptor {
	out := make([]api.ServerDescriptor, 0, len(ids))
	for _, id := range ids {
		out = append(out, api.ServerDescriptor{ID: id, DisplayName: "srv " + id})
	}
	return out
}

func ids(s Snapshot) []string {
	out := make([]string, 0, len(s.Servers))
	for _, d := range s.Servers {
		out = append(out, d.ID)
	}
	return out
}

// gatedLister releases each call's response only when told to.
type gatedLister struct {
	mu    sync.Mutex
	calls []chan []api.ServerDescriptor
	seen  chan int
}

func newGatedLister() *gatedLister {
	return &gatedLister{seen: make(chan int, 8)}
}

func (g *gatedLister) ListServers(ctx context.Context) ([]api.ServerDescriptor, error) {
	ch := make(chan []api.ServerDescriptor, 1)
	g.mu.Lock()
	g.calls = append(g.calls, ch)
	n := len(g.calls)
	g.mu.Unlock()
	g.seen <- n
	return <-ch, nil
}

func (g *gatedLister) release(call int, s []api.ServerDescriptor) {
	g.mu.Lock()
	ch := g.calls[call-1]
	g.mu.Unlock()
	ch <- s
}

func (g *gatedLister) waitCall(t *testing.T) int {
	t.Helper()
	select {
	case n := <-g.seen:
		return n
	case <-time.After(2 * time.Second):
		t.Fatal("lister not called")
		return 0
	}
}

func TestRefresh_DefaultsSelectionToFirst(t *testing.T) {
	l := &mockLister{}
	l.On("ListServers", mock.Anything).Return(servers("a", "b"), nil).Once()
	r := New(l)

	require.NoError(t, r.Refresh(context.Background()))

	snap := r.Snapshot()
	assert.Equal(t, []string{"a", "b"}, ids(snap))
	assert.Equal(t, "a", snap.SelectedID)
	l.AssertExpectations(t)
}

func TestRefresh_ClearsVanishedSelectionWithoutReassigning(t *testing.T) {
	l := &mockLister{}
	l.On("ListServers", mock.Anything).Return(servers("a", "b"), nil).Once()
	l.On("ListServers", mock.Anything).Return(servers("b", "c"), nil).Once()
	r := New(l)

	require.NoError(t, r.Refresh(context.Background()))
	require.Equal(t, "a", r.SelectedID())

	require.NoError(t, r.Refresh(context.Background()))
	assert.Equal(t, []string{"b", "c"}, ids(r.Snapshot()))
	assert.Empty(t, r.SelectedID(), "selection must be cleared, not moved to b")
}

func TestRefresh_KeepsExistingSelection(t *testing.T) {
	l := &mockLister{}
	l.On("ListServers", mock.Anything).Return(servers("a", "b"), nil).Once()
	l.On("ListServers", mock.Anything).Return(servers("c", "b"), nil).Once()
	r := New(l)

	require.NoError(t, r.Refresh(context.Background()))
	require.NoError(t, r.Select("b"))
	require.NoError(t, r.Refresh(context.Background()))

	assert.Equal(t, "b", r.SelectedID())
}

func TestRefresh_EmptyInventory(t *testing.T) {
	l := &mockLister{}
	l.On("ListServers", mock.Anything).Return(servers(), nil).Once()
	l.On("ListServers", mock.Anything).Return(servers("x"), nil).Once()
	r := New(l)

	require.NoError(t, r.Refresh(context.Background()))
	assert.Empty(t, r.SelectedID())

	require.NoError(t, r.Refresh(context.Background()))
	assert.Equal(t, "x", r.SelectedID())
}

func TestRefresh_FailureKeepsState(t *testing.T) {
	l := &mockLister{}
	l.On("ListServers", mock.Anything).Return(servers("a"), nil).Once()
	l.On("ListServers", mock.Anything).Return(nil, errors.New("aggregator unavailable")).Once()
	r := New(l)

	require.NoError(t, r.Refresh(context.Background()))
	before := r.Snapshot()

	err := r.Refresh(context.Background())
	require.Error(t, err)
	assert.True(t, api.IsFetchFailed(err))
	assert.Contains(t, err.Error(), "aggregator unavailable")
	assert.Equal(t, before, r.Snapshot())
}

func TestRefresh_LaterIssuedResponseWinsOverlap(t *testing.T) {
	g := newGatedLister()
	r := New(g)

	errs := make(chan error, 2)
	go func() { errs <- r.Refresh(context.Background()) }()
	first := g.waitCall(t)
	go func() { errs <- r.Refresh(context.Background()) }()
	second := g.waitCall(t)

	// The second-issued refresh completes first.
	g.release(second, servers("new-1", "new-2"))
	require.NoError(t, <-errs)
	assert.Equal(t, []string{"new-1", "new-2"}, ids(r.Snapshot()))

	// The stale first response arrives afterwards and is discarded.
	g.release(first, servers("old"))
	require.NoError(t, <-errs)

	snap := r.Snapshot()
	assert.Equal(t, []string{"new-1", "new-2"}, ids(snap))
	assert.Equal(t, "new-1", snap.SelectedID)
}

func TestRefresh_InOrderCompletionAppliesBoth(t *testing.T) {
	g := newGatedLister()
	r := New(g)

	errs := make(chan error, 2)
	go func() { errs <- r.Refresh(context.Background()) }()
	first := g.waitCall(t)
	go func() { errs <- r.Refresh(context.Background()) }()
	second := g.waitCall(t)

	g.release(first, servers("a"))
	require.NoError(t, <-errs)
	g.release(second, servers("b"))
	require.NoError(t, <-errs)

	assert.Equal(t, []string{"b"}, ids(r.Snapshot()))
	assert.Empty(t, r.SelectedID())
}

func TestSelect(t *testing.T) {
	l := &mockLister{}
	l.On("ListServers", mock.Anything).Return(servers("a", "b"), nil).Once()
	r := New(l)
	require.NoError(t, r.Refresh(context.Background()))

	t.Run("unknown id is rejected", func(t *testing.T) {
		before := r.Snapshot()
		err := r.Select("zzz")
		require.Error(t, err)
		assert.True(t, api.IsNotFound(err))
		var nf *api.NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, "zzz", nf.ID)
		assert.Equal(t, before, r.Snapshot())
	})

	t.Run("known id is selected", func(t *testing.T) {
		require.NoError(t, r.Select("b"))
		sel, ok := r.Snapshot().Selected()
		require.True(t, ok)
		assert.Equal(t, "srv b", sel.DisplayName)
	})

	t.Run("reselecting is idempotent", func(t *testing.T) {
		before := r.Snapshot()
		require.NoError(t, r.Select("b"))
		assert.Equal(t, before, r.Snapshot())
	})

	t.Run("clear selection", func(t *testing.T) {
		r.ClearSelection()
		assert.Empty(t, r.SelectedID())
		_, ok := r.Snapshot().Selected()
		assert.False(t, ok)
	})
}

func TestSelect_EmptyRegistry(t *testing.T) {
	r := New(&mockLister{})
	assert.True(t, api.IsNotFound(r.Select("a")))
}

func TestOnChange(t *testing.T) {
	l := &mockLister{}
	l.On("ListServers", mock.Anything).Return(servers("a", "b"), nil)
	r := New(l)

	var got []Snapshot
	unsubscribe := r.OnChange(func(s Snapshot) { got = append(got, s) })

	require.NoError(t, r.Refresh(context.Background()))
	require.NoError(t, r.Select("b"))
	unsubscribe()
	require.NoError(t, r.Select("a"))

	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].SelectedID)
	assert.Equal(t, "b", got[1].SelectedID)
	assert.Less(t, got[0].Version, got[1].Version)
}

// Selection must never dangle, whatever sequence of inventories arrives.
func TestRefresh_SelectionNeverDangles(t *testing.T) {
	sequences := [][]string{
		{"a", "b"}, {"b"}, {}, {"c", "d"}, {"d"}, {"a", "d"}, {"e"}, {},
	}
	l := &mockLister{}
	for _, seq := range sequences {
		l.On("ListServers", mock.Anything).Return(servers(seq...), nil).Once()
	}
	r := New(l)

	for i := range sequences {
		require.NoError(t, r.Refresh(context.Background()))
		snap := r.Snapshot()
		if snap.SelectedID != "" {
			_, ok := snap.Selected()
			assert.True(t, ok, "step %d: selection %q dangles", i, snap.SelectedID)
		}
		if len(snap.Servers) > 0 && i > 0 {
			// Try selecting the last server to exercise both paths.
			require.NoError(t, r.Select(snap.Servers[len(snap.Servers)-1].ID))
		}
	}
}

func TestRefresh_SnapshotIsolation(t *testing.T) {
	src := servers("a")
	l := &mockLister{}
	l.On("ListServers", mock.Anything).Return(src, nil).Once()
	r := New(l)
	require.NoError(t, r.Refresh(context.Background()))

	src[0].ID = "mutated"
	got := r.Servers()
	got[0].ID = "mutated-too"
	assert.Equal(t, "a", r.Snapshot().Servers[0].ID)
}

func TestOnChange_ListenerMayCallBackIntoRegistry(t *testing.T) {
	l := &mockLister{}
	l.On("ListServers", mock.Anything).Return(servers("a", "b"), nil)
	r := New(l)

	var got []Snapshot
	r.OnChange(func(s Snapshot) {
		got = append(got, s)
		// Move the default selection to the last server.
		if s.SelectedID == "a" {
			assert.NoError(t, r.Select("b"))
		}
	})

	done := make(chan error, 1)
	go func() { done <- r.Refresh(context.Background()) }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("listener calling Select blocked the refresh")
	}

	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].SelectedID)
	assert.Equal(t, "b", got[1].SelectedID)
	assert.Less(t, got[0].Version, got[1].Version)
	assert.Equal(t, "b", r.SelectedID())
}
