package connection

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"envdash/internal/api"
	"envdash/pkg/logging"

	"github.com/google/uuid"
	"k8s.io/apimachinery/pkg/util/wait"
)

const subsystem = "Connection"

// StatusListener receives every status transition.
type StatusListener func(api.ConnectionStatus)

// NotificationListener receives push notifications from the live session.
type NotificationListener func(api.Notification)

// BackoffConfig bounds the delay between reconnect attempts.
type BackoffConfig struct {
	Initial time.Duration
	Max     time.Duration
	Factor  float64
	Jitter  float64
}

// DefaultBackoff returns the reconnect policy described in the package docs.
func DefaultBackoff() BackoffConfig {
	return BackoffConfig{
		Initial: 500 * time.Millisecond,
		Max:     30 * time.Second,
		Factor:  2.0,
		Jitter:  0.2,
	}
}

func (c BackoffConfig) backoff() wait.Backoff {
	return wait.Backoff{
		Duration: c.Initial,
		Factor:   c.Factor,
		Jitter:   c.Jitter,
		Steps:    math.MaxInt32,
		Cap:      c.Max,
	}
}

type statusEntry struct {
	id string
	fn StatusListener
}

type notificationEntry struct {
	id string
	fn NotificationListener
}

// Manager keeps one live backend session open until Close.
type Manager struct {
	dialer  api.Dialer
	backoff BackoffConfig

	statusMu sync.RWMutex
	status   api.ConnectionStatus

	// mu serializes lifecycle changes and listener dispatch, so listeners
	// observe transitions in order and never after Close returns.
	mu                    sync.Mutex
	statusListeners       []statusEntry
	notificationListeners []notificationEntry
	running               bool
	generation            uint64
	cancel                context.CancelFunc
	done                  chan struct{}

	attempts atomic.Int64
}

// NewManager creates a Manager. Nothing is dialed until Connect.
func NewManager(dialer api.Dialer, backoff BackoffConfig) *Manager {
	return &Manager{
		dialer:  dialer,
		backoff: backoff,
		status:  api.StatusDisconnected,
	}
}

// Status returns the current connectivity snapshot.
func (m *Manager) Status() api.ConnectionStatus {
	m.statusMu.RLock()
	defer m.statusMu.RUnlock()
	return m.status
}

// Attempts returns the number of dial attempts made so far.
func (m *Manager) Attempts() int64 {
	return m.attempts.Load()
}

// OnStatusChange registers a listener for status transitions. The returned
// function removes it. Listeners run synchronously and must not call Connect
// or Close.
func (m *Manager) OnStatusChange(listener StatusListener) func() {
	id := uuid.NewString()
	m.mu.Lock()
	m.statusListeners = append(m.statusListeners, statusEntry{id: id, fn: listener})
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, e := range m.statusListeners {
			if e.id == id {
				m.statusListeners = append(m.statusListeners[:i:i], m.statusListeners[i+1:]...)
				return
			}
		}
	}
}

// OnNotification registers a listener for push notifications.
func (m *Manager) OnNotification(listener NotificationListener) func() {
	id := uuid.NewString()
	m.mu.Lock()
	m.notificationListeners = append(m.notificationListeners, notificationEntry{id: id, fn: listener})
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, e := range m.notificationListeners {
			if e.id == id {
				m.notificationListeners = append(m.notificationListeners[:i:i], m.notificationListeners[i+1:]...)
				return
			}
		}
	}
}

// Connect starts the connection loop and returns immediately after moving
// to Connecting. It fails only when a loop is already active. Cancelling
// ctx has the same effect as Close.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return api.ErrAlreadyConnected
	}
	m.running = true
	m.generation++
	gen := m.generation

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	m.cancel = cancel
	m.done = done
	m.setStatusLocked(api.StatusConnecting)
	m.mu.Unlock()

	logging.Info(subsystem, "Connecting to backend")
	go m.run(loopCtx, gen, done)
	return nil
}

// Close stops the loop, releases the session and every registered listener,
// and moves to Disconnected. It blocks until the session is released and is
// safe to call more than once.
func (m *Manager) Close() error {
	m.mu.Lock()
	cancel, done, ok := m.stopLocked()
	m.mu.Unlock()
	if !ok {
		return nil
	}

	cancel()
	<-done
	logging.Info(subsystem, "Connection closed")
	return nil
}

// stopLocked ends the current generation. Caller holds m.mu.
func (m *Manager) stopLocked() (context.CancelFunc, chan struct{}, bool) {
	if !m.running {
		return nil, nil, false
	}
	m.running = false
	m.generation++
	m.setStatusLocked(api.StatusDisconnected)
	m.statusListeners = nil
	m.notificationListeners = nil
	return m.cancel, m.done, true
}

// setStatusLocked records s and notifies listeners. Caller holds m.mu.
func (m *Manager) setStatusLocked(s api.ConnectionStatus) {
	m.statusMu.Lock()
	m.status = s
	m.statusMu.Unlock()

	for _, e := range m.statusListeners {
		e.fn(s)
	}
}

// transition applies s only if gen is still the active generation.
func (m *Manager) transition(gen uint64, s api.ConnectionStatus) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.generation {
		return false
	}
	logging.Debug(subsystem, "Status -> %s", s)
	m.setStatusLocked(s)
	return true
}

// teardown handles a loop exit caused by the caller's context.
func (m *Manager) teardown(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.generation {
		return
	}
	if cancel, _, ok := m.stopLocked(); ok {
		cancel()
	}
}

func (m *Manager) notify(gen uint64, n api.Notification) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.generation {
		return
	}
	for _, e := range m.notificationListeners {
		e.fn(n)
	}
}

func (m *Manager) run(ctx context.Context, gen uint64, done chan struct{}) {
	defer close(done)

	backoff := m.backoff.backoff()
	first := true
	for {
		if !first && !m.transition(gen, api.StatusConnecting) {
			return
		}
		first = false

		lost, err := m.attempt(ctx, gen)
		if ctx.Err() != nil {
			m.teardown(gen)
			return
		}
		if lost {
			// A session was established, so start over with short delays.
			backoff = m.backoff.backoff()
			logging.Warn(subsystem, "Connection lost: %v", err)
		} else {
			logging.Warn(subsystem, "Connection attempt %d failed: %v", m.attempts.Load(), err)
		}

		if !m.transition(gen, api.StatusReconnecting) {
			return
		}
		delay := backoff.Step()
		logging.Debug(subsystem, "Reconnecting in %s", delay)
		if !sleep(ctx, delay) {
			m.teardown(gen)
			return
		}
	}
}

// attempt dials once and serves the session until it ends. lost reports
// whether a session had been established before the error.
func (m *Manager) attempt(ctx context.Context, gen uint64) (lost bool, err error) {
	m.attempts.Add(1)

	sess, err := m.dialer.Dial(ctx, func(n api.Notification) { m.notify(gen, n) })
	if err != nil {
		return false, err
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			logging.Debug(subsystem, "Closing session: %v", cerr)
		}
	}()

	if !m.transition(gen, api.StatusConnected) {
		return false, context.Canceled
	}
	logging.Info(subsystem, "Connected to backend")

	select {
	case <-ctx.Done():
		return true, ctx.Err()
	case <-sess.Done():
		return true, sess.Err()
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
