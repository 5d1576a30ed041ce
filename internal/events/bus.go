package events

import (
	"sync"

	"github.com/google/uuid"
)

// EventFilter decides whether a subscription receives an event.
type EventFilter func(Event) bool

// Subscription is a buffered channel of events from a Bus.
type Subscription struct {
	ID     string
	C      <-chan Event
	ch     chan Event
	filter EventFilter
	bus    *Bus

	mu     sync.Mutex
	closed bool
}

// Close stops delivery and closes C.
func (s *Subscription) Close() {
	s.bus.remove(s.ID)
	s.close()
}

func (s *Subscription) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		close(s.ch)
		s.closed = true
	}
}

// offer delivers e without blocking; it reports false when the buffer is full.
func (s *Subscription) offer(e Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return true
	}
	select {
	case s.ch <- e:
		return true
	default:
		return false
	}
}

// Metrics counts bus activity.
type Metrics struct {
	ActiveSubscriptions int
	EventsPublished     int64
	EventsDelivered     int64
	EventsDropped       int64
}

// Bus fans events out to subscriptions. Publish never blocks; a full
// subscriber buffer drops the event for that subscriber.
type Bus struct {
	mu            sync.RWMutex
	subscriptions map[string]*Subscription
	metrics       Metrics
	closed        bool
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subscriptions: make(map[string]*Subscription)}
}

// Subscribe returns a subscription receiving events accepted by filter (all
// events when filter is nil). It returns nil once the bus is closed.
func (b *Bus) Subscribe(filter EventFilter, bufferSize int) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}

	ch := make(chan Event, bufferSize)
	sub := &Subscription{
		ID:     uuid.NewString(),
		C:      ch,
		ch:     ch,
		filter: filter,
		bus:    b,
	}
	b.subscriptions[sub.ID] = sub
	return sub
}

// Publish delivers e to every matching subscription.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	subs := make([]*Subscription, 0, len(b.subscriptions))
	for _, s := range b.subscriptions {
		subs = append(subs, s)
	}
	b.mu.RUnlock()

	var delivered, dropped int64
	for _, s := range subs {
		if s.filter != nil && !s.filter(e) {
			continue
		}
		if s.offer(e) {
			delivered++
		} else {
			dropped++
		}
	}

	b.mu.Lock()
	b.metrics.EventsPublished++
	b.metrics.EventsDelivered += delivered
	b.metrics.EventsDropped += dropped
	b.mu.Unlock()
}

// Metrics returns a copy of the bus counters.
func (b *Bus) Metrics() Metrics {
	b.mu.RLock()
	defer b.mu.RUnlock()
	m := b.metrics
	m.ActiveSubscriptions = len(b.subscriptions)
	return m
}

// Close closes every subscription; later publishes are ignored.
func (b *Bus) Close() {
	b.mu.Lock()
	subs := b.subscriptions
	b.subscriptions = make(map[string]*Subscription)
	b.closed = true
	b.mu.Unlock()

	for _, s := range subs {
		s.close()
	}
}

func (b *Bus) remove(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subscriptions, id)
}

// FilterByType matches events of the given types.
func FilterByType(types ...EventType) EventFilter {
	set := make(map[EventType]bool, len(types))
	for _, t := range types {
		set[t] = true
	}
	return func(e Event) bool {
		return set[e.Type]
	}
}
