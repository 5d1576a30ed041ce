package theme

import (
	"os"
	"sync"
	"time"

	"envdash/internal/api"

	"github.com/charmbracelet/lipgloss"
)

// TerminalSource derives the preference from the terminal background and
// polls it while anyone is subscribed.
type TerminalSource struct {
	interval time.Duration
	detect   func() bool

	mu   sync.Mutex
	last api.Appearance
	stop chan struct{}
	b    broadcaster
}

// detectDarkBackground queries the terminal on every call. The package-level
// lipgloss.HasDarkBackground answers from a cache after the first query.
var detectDarkBackground = func() bool {
	return lipgloss.NewRenderer(os.Stdout).HasDarkBackground()
}

// NewTerminalSource polls the terminal background every interval while
// anyone is subscribed.
func NewTerminalSource(interval time.Duration) *TerminalSource {
	return newTerminalSource(interval, detectDarkBackground)
}

func newTerminalSource(interval time.Duration, detect func() bool) *TerminalSource {
	s := &TerminalSource{interval: interval, detect: detect}
	s.last = s.read()
	s.b.onFirst = s.start
	s.b.onLast = s.halt
	return s
}

func (s *TerminalSource) read() api.Appearance {
	if s.detect() {
		return api.AppearanceDark
	}
	return api.AppearanceLight
}

// Current returns the background seen by the latest poll. Querying the
// terminal is left to the poller, which is also the only writer of the
// value change detection compares against.
func (s *TerminalSource) Current() api.Appearance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *TerminalSource) Subscribe(listener func(api.Appearance)) func() {
	return s.b.subscribe(listener)
}

// Poll re-reads the background once and notifies on change.
func (s *TerminalSource) Poll() {
	a := s.read()
	s.mu.Lock()
	changed := a != s.last
	s.last = a
	s.mu.Unlock()
	if changed {
		s.b.emit(a)
	}
}

func (s *TerminalSource) start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil || s.interval <= 0 {
		return
	}
	stop := make(chan struct{})
	s.stop = stop
	go func() {
		t := time.NewTicker(s.interval)
		defer t.Stop()
		// Catch up with changes made while nobody was subscribed.
		s.Poll()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				s.Poll()
			}
		}
	}()
}

func (s *TerminalSource) halt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
}
