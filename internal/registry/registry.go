// Package registry keeps the dashboard's view of the backend server
// inventory and the currently selected server.
package registry

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"

	"envdash/internal/api"
	"envdash/internal/dispatch"
	"envdash/pkg/logging"

	"github.com/google/uuid"
)

const subsystem = "Registry"

// Snapshot is an immutable view of the registry. SelectedID is empty when
// nothing is selected.
type Snapshot struct {
	Servers    []api.ServerDescriptor
	SelectedID string
	// Version increases with every applied change.
	Version uint64
}

// Selected returns the selected descriptor, if any.
func (s Snapshot) Selected() (api.ServerDescriptor, bool) {
	if s.SelectedID == "" {
		return api.ServerDescriptor{}, false
	}
	i := indexOf(s.Servers, s.SelectedID)
	if i < 0 {
		return api.ServerDescriptor{}, false
	}
	return s.Servers[i], true
}

// ChangeListener is called with the new snapshot after every applied change.
type ChangeListener func(Snapshot)

type listenerEntry struct {
	id string
	fn ChangeListener
}

// Registry owns the server inventory and the selection.
type Registry struct {
	lister api.ServerLister

	// current is replaced wholesale, so readers never see a partial update.
	current atomic.Pointer[Snapshot]

	mu        sync.Mutex
	issued    uint64
	applied   uint64
	listeners []listenerEntry

	// notify is fed under mu and drained after it is released.
	notify dispatch.Queue[Snapshot]
}

// New creates an empty registry backed by lister.
func New(lister api.ServerLister) *Registry {
	r := &Registry{lister: lister}
	r.current.Store(&Snapshot{})
	return r
}

// Snapshot returns the current state.
func (r *Registry) Snapshot() Snapshot {
	return *r.current.Load()
}

// Servers returns a copy of the current inventory.
func (r *Registry) Servers() []api.ServerDescriptor {
	return slices.Clone(r.current.Load().Servers)
}

// SelectedID returns the selected server id, or "" when none is selected.
func (r *Registry) SelectedID() string {
	return r.current.Load().SelectedID
}

// OnChange registers a listener for applied changes. The returned function
// removes it. Listeners run without the registry lock held, in change order,
// and may call Select, ClearSelection or Refresh. A change is delivered by
// whichever goroutine is already delivering, so it can arrive after the call
// that caused it has returned.
func (r *Registry) OnChange(listener ChangeListener) func() {
	id := uuid.NewString()
	r.mu.Lock()
	r.listeners = append(r.listeners, listenerEntry{id: id, fn: listener})
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.listeners = slices.DeleteFunc(r.listeners, func(e listenerEntry) bool { return e.id == id })
	}
}

// Refresh pulls the inventory and replaces the server list.
//
// Overlapping calls are reconciled by issue order: a response is applied
// only if no later-issued refresh has been applied already, so a slow
// earlier response arriving after a newer one is discarded instead of
// rolling the inventory back. On failure the previous state is kept and a
// FetchFailed condition is returned; retrying is up to the caller.
func (r *Registry) Refresh(ctx context.Context) error {
	r.mu.Lock()
	r.issued++
	seq := r.issued
	r.mu.Unlock()

	servers, err := r.lister.ListServers(ctx)
	if err != nil {
		logging.Warn(subsystem, "Inventory refresh #%d failed: %v", seq, err)
		return &api.FetchFailedError{Op: "list servers", Cause: err}
	}

	r.mu.Lock()
	if applied := r.applied; seq < applied {
		r.mu.Unlock()
		logging.Debug(subsystem, "Discarding refresh #%d, #%d already applied", seq, applied)
		return nil
	}
	r.applied = seq

	prev := r.current.Load()
	next := &Snapshot{
		Servers:    slices.Clone(servers),
		SelectedID: reconcileSelection(prev, servers),
		Version:    prev.Version + 1,
	}
	if prev.SelectedID != "" && next.SelectedID == "" {
		logging.Info(subsystem, "Selected server %q is gone, clearing selection", prev.SelectedID)
	}
	r.publishAndUnlock(next)
	logging.Debug(subsystem, "Applied refresh #%d: %d servers, selected=%q", seq, len(servers), next.SelectedID)
	return nil
}

// Select makes id the selected server. It returns a NotFound condition and
// leaves the state untouched when id is not in the inventory. Selecting the
// already selected id is a no-op.
func (r *Registry) Select(id string) error {
	r.mu.Lock()
	prev := r.current.Load()
	if indexOf(prev.Servers, id) < 0 {
		r.mu.Unlock()
		return &api.NotFoundError{ID: id}
	}
	if prev.SelectedID == id {
		r.mu.Unlock()
		return nil
	}
	r.publishAndUnlock(&Snapshot{
		Servers:    prev.Servers,
		SelectedID: id,
		Version:    prev.Version + 1,
	})
	return nil
}

// ClearSelection drops the current selection.
func (r *Registry) ClearSelection() {
	r.mu.Lock()
	prev := r.current.Load()
	if prev.SelectedID == "" {
		r.mu.Unlock()
		return
	}
	r.publishAndUnlock(&Snapshot{Servers: prev.Servers, Version: prev.Version + 1})
}

// publishAndUnlock stores next and queues it for listeners. Caller holds mu;
// it is released here before delivery.
func (r *Registry) publishAndUnlock(next *Snapshot) {
	r.current.Store(next)
	r.notify.Push(*next)
	r.mu.Unlock()
	r.notify.Drain(r.deliver)
}

func (r *Registry) deliver(snap Snapshot) {
	r.mu.Lock()
	listeners := slices.Clone(r.listeners)
	r.mu.Unlock()
	for _, e := range listeners {
		e.fn(snap)
	}
}

// reconcileSelection keeps a selection that still exists, clears one that
// vanished, and picks the first server when the inventory goes from empty
// to non-empty with nothing selected.
func reconcileSelection(prev *Snapshot, servers []api.ServerDescriptor) string {
	if prev.SelectedID != "" {
		if indexOf(servers, prev.SelectedID) >= 0 {
			return prev.SelectedID
		}
		return ""
	}
	if len(prev.Servers) == 0 && len(servers) > 0 {
		return servers[0].ID
	}
	return ""
}

func indexOf(servers []api.ServerDescriptor, id string) int {
	return slices.IndexFunc(servers, func(d api.ServerDescriptor) bool { return d.ID == id })
}
