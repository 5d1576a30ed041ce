package theme

import (
	"slices"
	"sync"

	"envdash/internal/api"

	"github.com/google/uuid"
)

// PreferenceSource reports the ambient light/dark preference.
type PreferenceSource interface {
	Current() api.Appearance
	Subscribe(listener func(api.Appearance)) (unsubscribe func())
}

type subscriber struct {
	id string
	fn func(api.Appearance)
}

// broadcaster is the listener bookkeeping shared by the sources.
type broadcaster struct {
	mu   sync.Mutex
	subs []subscriber
	// onFirst and onLast start and stop any background watching.
	onFirst func()
	onLast  func()
}

func (b *broadcaster) subscribe(fn func(api.Appearance)) func() {
	id := uuid.NewString()
	b.mu.Lock()
	b.subs = append(b.subs, subscriber{id: id, fn: fn})
	first := len(b.subs) == 1
	b.mu.Unlock()
	if first && b.onFirst != nil {
		b.onFirst()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			before := len(b.subs)
			b.subs = slices.DeleteFunc(b.subs, func(s subscriber) bool { return s.id == id })
			last := before > 0 && len(b.subs) == 0
			b.mu.Unlock()
			if last && b.onLast != nil {
				b.onLast()
			}
		})
	}
}

func (b *broadcaster) emit(a api.Appearance) {
	b.mu.Lock()
	subs := slices.Clone(b.subs)
	b.mu.Unlock()
	for _, s := range subs {
		s.fn(a)
	}
}

func (b *broadcaster) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// StaticSource is a preference that only changes through Set.
type StaticSource struct {
	mu sync.RWMutex
	v  api.Appearance
	b  broadcaster
}

// NewStaticSource returns a source fixed at a.
func NewStaticSource(a api.Appearance) *StaticSource {
	return &StaticSource{v: a}
}

func (s *StaticSource) Current() api.Appearance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.v
}

func (s *StaticSource) Subscribe(listener func(api.Appearance)) func() {
	return s.b.subscribe(listener)
}

// Set changes the preference and notifies subscribers when it differs.
func (s *StaticSource) Set(a api.Appearance) {
	s.mu.Lock()
	changed := s.v != a
	s.v = a
	s.mu.Unlock()
	if changed {
		s.b.emit(a)
	}
}

// Subscribers returns the number of active subscriptions.
func (s *StaticSource) Subscribers() int {
	return s.b.count()
}
