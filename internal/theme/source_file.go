package theme

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"envdash/internal/api"
	"envdash/pkg/logging"

	"github.com/fsnotify/fsnotify"
)

// FileSource reads the preference from a file holding "dark" or "light"
// and watches it for changes. A missing or unreadable file means fallback.
type FileSource struct {
	path     string
	fallback api.Appearance

	mu      sync.Mutex
	last    api.Appearance
	watcher *fsnotify.Watcher
	b       broadcaster
}

// NewFileSource creates a source backed by path.
func NewFileSource(path string, fallback api.Appearance) *FileSource {
	s := &FileSource{path: path, fallback: fallback}
	s.last = s.read()
	s.b.onFirst = s.start
	s.b.onLast = s.halt
	return s
}

func (s *FileSource) read() api.Appearance {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return s.fallback
	}
	a, err := ParseAppearance(string(data))
	if err != nil {
		logging.Debug(subsystem, "Ignoring preference file %s: %v", s.path, err)
		return s.fallback
	}
	return a
}

// Current reads the file. It does not touch the value change detection
// compares against, so a read never hides a change from subscribers.
func (s *FileSource) Current() api.Appearance {
	return s.read()
}

func (s *FileSource) Subscribe(listener func(api.Appearance)) func() {
	return s.b.subscribe(listener)
}

func (s *FileSource) reload() {
	a := s.read()
	s.mu.Lock()
	changed := a != s.last
	s.last = a
	s.mu.Unlock()
	if changed {
		logging.Debug(subsystem, "System preference changed to %s", a)
		s.b.emit(a)
	}
}

func (s *FileSource) start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watcher != nil {
		return
	}
	// The file may have changed while nobody was watching.
	s.last = s.read()
	w, err := fsnotify.NewWatcher()
	if err != nil {
		logging.Warn(subsystem, "Cannot watch %s: %v", s.path, err)
		return
	}
	// Watch the directory so editors that replace the file are still seen.
	if err := w.Add(filepath.Dir(s.path)); err != nil {
		logging.Warn(subsystem, "Cannot watch %s: %v", s.path, err)
		w.Close()
		return
	}
	s.watcher = w
	go s.watch(w)
}

func (s *FileSource) watch(w *fsnotify.Watcher) {
	target := filepath.Clean(s.path)
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
				s.reload()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			logging.Warn(subsystem, "Watching %s: %v", s.path, err)
		}
	}
}

func (s *FileSource) halt() {
	s.mu.Lock()
	w := s.watcher
	s.watcher = nil
	s.mu.Unlock()
	if w != nil {
		w.Close()
	}
}

// ParseAppearance accepts "dark" or "light" (case-insensitive, trimmed).
func ParseAppearance(s string) (api.Appearance, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(api.AppearanceDark):
		return api.AppearanceDark, nil
	case string(api.AppearanceLight):
		return api.AppearanceLight, nil
	}
	return "", fmt.Errorf("unknown appearance %q", strings.TrimSpace(s))
}
