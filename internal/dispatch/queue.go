// Package dispatch delivers change notifications in order without holding
// the producer's locks.
package dispatch

import "sync"

// Queue hands pushed values to a deliver func one at a time, in push order.
//
// Producers Push while holding their own lock, which fixes the order, and
// call Drain after releasing it. Only one goroutine drains at a time; a
// Drain that finds another goroutine draining returns at once and its values
// are delivered by that goroutine. A deliver func may Push and Drain again:
// the nested values are delivered after it returns, by the same loop.
type Queue[T any] struct {
	mu       sync.Mutex
	pending  []T
	draining bool
}

// Push appends v.
func (q *Queue[T]) Push(v T) {
	q.mu.Lock()
	q.pending = append(q.pending, v)
	q.mu.Unlock()
}

// Drain delivers pending values until the queue is empty.
func (q *Queue[T]) Drain(deliver func(T)) {
	q.mu.Lock()
	if q.draining {
		q.mu.Unlock()
		return
	}
	q.draining = true

	finished := false
	defer func() {
		// A panicking deliver must not leave the queue stuck.
		if !finished {
			q.mu.Lock()
			q.draining = false
			q.mu.Unlock()
		}
	}()

	for {
		// The flag is cleared under the same lock as the empty check, so a
		// value pushed by a Drain that returned early is never stranded.
		if len(q.pending) == 0 {
			q.draining = false
			finished = true
			q.mu.Unlock()
			return
		}
		v := q.pending[0]
		var zero T
		q.pending[0] = zero
		q.pending = q.pending[1:]
		q.mu.Unlock()
		deliver(v)
		q.mu.Lock()
	}
}

// Len returns the number of undelivered values.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
