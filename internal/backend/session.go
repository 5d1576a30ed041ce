package backend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"envdash/pkg/logging"
)

// ErrSessionClosed is reported by Err after a session was closed locally.
var ErrSessionClosed = errors.New("session closed")

type session struct {
	client  mcpClient
	cancel  context.CancelFunc
	release func(*session)

	done chan struct{}
	once sync.Once

	mu  sync.Mutex
	err error
}

func newSession(mc mcpClient, cancel context.CancelFunc, release func(*session)) *session {
	return &session{
		client:  mc,
		cancel:  cancel,
		release: release,
		done:    make(chan struct{}),
	}
}

func (s *session) Done() <-chan struct{} { return s.done }

func (s *session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *session) Close() error {
	var closeErr error
	s.end(ErrSessionClosed, func() { closeErr = s.client.Close() })
	return closeErr
}

func (s *session) closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// end records the cause, tears the transport down and closes done once.
func (s *session) end(cause error, closeTransport func()) {
	s.once.Do(func() {
		s.mu.Lock()
		s.err = cause
		s.mu.Unlock()

		s.cancel()
		if closeTransport != nil {
			closeTransport()
		} else {
			_ = s.client.Close()
		}
		if s.release != nil {
			s.release(s)
		}
		close(s.done)
	})
}

// keepAlive pings until the session ends; a failed ping ends it.
func (s *session) keepAlive(ctx context.Context, interval, timeout time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.end(fmt.Errorf("session context done: %w", ctx.Err()), nil)
			return
		case <-s.done:
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, timeout)
			err := s.client.Ping(pingCtx)
			cancel()
			if err != nil {
				if ctx.Err() != nil {
					continue
				}
				logging.Warn(subsystem, "Ping failed, session lost: %v", err)
				s.end(fmt.Errorf("ping failed: %w", err), nil)
				return
			}
		}
	}
}
