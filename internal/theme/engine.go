package theme

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"envdash/internal/api"
	"envdash/internal/dispatch"
	"envdash/pkg/logging"

	"github.com/google/uuid"
)

const subsystem = "Theme"

// Built-in defaults, used until the backend configuration is loaded and for
// any field the backend leaves empty.
const (
	DefaultMode        = api.ThemeModeDark
	DefaultAccentColor = "#7C3AED"
	DefaultRadius      = "0.5rem"
)

// Presentation variable names derived from the config.
const (
	VarAccentColor = "--accent-color"
	VarRadius      = "--radius"
)

// ErrInvalidMode is returned by SetConfig for a mode outside light/dark/system.
var ErrInvalidMode = errors.New("invalid theme mode")

// DefaultConfig returns the built-in theme configuration.
func DefaultConfig() api.ThemeConfig {
	return api.ThemeConfig{
		Mode:        DefaultMode,
		AccentColor: DefaultAccentColor,
		Radius:      DefaultRadius,
	}
}

// Effective is the theme a presentation layer applies.
type Effective struct {
	Appearance  api.Appearance
	AccentColor string
	Radius      string
}

// Dark reports whether the dark variant is in effect.
func (e Effective) Dark() bool { return e.Appearance == api.AppearanceDark }

// Variables returns the style variables derived from the config.
func (e Effective) Variables() map[string]string {
	return map[string]string{
		VarAccentColor: e.AccentColor,
		VarRadius:      e.Radius,
	}
}

// Patch is a partial config update; nil fields are left unchanged.
type Patch struct {
	Mode        *api.ThemeMode
	AccentColor *string
	Radius      *string
}

// ChangeListener receives the new effective theme whenever it changes.
type ChangeListener func(Effective)

type listenerEntry struct {
	id string
	fn ChangeListener
}

// Engine owns the theme configuration and the system-preference
// subscription.
type Engine struct {
	fetcher api.ThemeFetcher
	source  PreferenceSource

	mu        sync.Mutex
	cfg       api.ThemeConfig
	loaded    bool
	closed    bool
	last      Effective
	listeners []listenerEntry

	// unsubscribe is non-nil exactly while the mode is system.
	unsubscribe func()
	// subGen invalidates callbacks from released subscriptions.
	subGen uint64

	// notify is fed under mu and drained after it is released, so listeners
	// see changes in order and may call back into the engine.
	notify dispatch.Queue[Effective]
}

// NewEngine creates an engine at the built-in defaults.
func NewEngine(fetcher api.ThemeFetcher, source PreferenceSource) *Engine {
	e := &Engine{
		fetcher: fetcher,
		source:  source,
		cfg:     DefaultConfig(),
	}
	e.last = e.effectiveLocked()
	return e
}

// Config returns the current configuration.
func (e *Engine) Config() api.ThemeConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// Subscribed reports whether the engine currently holds a system-preference
// subscription.
func (e *Engine) Subscribed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.unsubscribe != nil
}

// OnChange registers a listener for effective theme changes. Listeners run
// without the engine lock held and may call any Engine method. A change is
// delivered by whichever goroutine is already delivering, so it can arrive
// after the call that caused it has returned.
func (e *Engine) OnChange(listener ChangeListener) func() {
	id := uuid.NewString()
	e.mu.Lock()
	e.listeners = append(e.listeners, listenerEntry{id: id, fn: listener})
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.listeners = slices.DeleteFunc(e.listeners, func(l listenerEntry) bool { return l.id == id })
	}
}

// Load fetches the persisted configuration and replaces the local one. Once
// a load has succeeded further calls do nothing. On failure the current
// configuration is kept and a FetchFailed condition is returned.
func (e *Engine) Load(ctx context.Context) error {
	e.mu.Lock()
	loaded := e.loaded
	e.mu.Unlock()
	if loaded {
		return nil
	}

	cfg, err := e.fetcher.FetchTheme(ctx)
	if err != nil {
		logging.Warn(subsystem, "Loading theme failed, keeping defaults: %v", err)
		return &api.FetchFailedError{Op: "fetch theme", Cause: err}
	}

	e.mu.Lock()
	if e.loaded {
		e.mu.Unlock()
		return nil
	}
	e.loaded = true
	e.applyAndUnlock(normalize(cfg))
	logging.Info(subsystem, "Loaded theme: mode=%s accent=%s radius=%s", cfg.Mode, cfg.AccentColor, cfg.Radius)
	return nil
}

// SetConfig applies a local change without a backend round trip.
func (e *Engine) SetConfig(p Patch) error {
	if p.Mode != nil && !p.Mode.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMode, *p.Mode)
	}

	e.mu.Lock()
	next := e.cfg
	if p.Mode != nil {
		next.Mode = *p.Mode
	}
	if p.AccentColor != nil {
		next.AccentColor = *p.AccentColor
	}
	if p.Radius != nil {
		next.Radius = *p.Radius
	}
	e.applyAndUnlock(normalize(next))
	return nil
}

// SetMode is shorthand for SetConfig with only the mode.
func (e *Engine) SetMode(mode api.ThemeMode) error {
	return e.SetConfig(Patch{Mode: &mode})
}

// ResolveEffective computes the effective theme, querying the system
// preference when the mode is system.
func (e *Engine) ResolveEffective() Effective {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.effectiveLocked()
}

// Close releases the system-preference subscription and all listeners.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	e.releaseLocked()
	e.listeners = nil
}

func (e *Engine) effectiveLocked() Effective {
	return e.effectiveWith(e.systemPreferenceLocked())
}

func (e *Engine) systemPreferenceLocked() api.Appearance {
	if e.cfg.Mode != api.ThemeModeSystem {
		return ""
	}
	if e.source == nil {
		return appearanceOf(DefaultMode)
	}
	return e.source.Current()
}

func (e *Engine) effectiveWith(systemPref api.Appearance) Effective {
	eff := Effective{
		AccentColor: e.cfg.AccentColor,
		Radius:      e.cfg.Radius,
	}
	if e.cfg.Mode == api.ThemeModeSystem {
		eff.Appearance = systemPref
	} else {
		eff.Appearance = appearanceOf(e.cfg.Mode)
	}
	return eff
}

// applyAndUnlock stores cfg, syncs the subscription and notifies listeners
// if the effective theme changed. Caller holds mu; it is released here.
func (e *Engine) applyAndUnlock(cfg api.ThemeConfig) {
	e.cfg = cfg
	e.syncSubscriptionLocked()
	e.publishAndUnlock(e.effectiveLocked())
}

func (e *Engine) syncSubscriptionLocked() {
	wantSystem := e.cfg.Mode == api.ThemeModeSystem && !e.closed
	switch {
	case wantSystem && e.unsubscribe == nil && e.source != nil:
		e.subGen++
		gen := e.subGen
		e.unsubscribe = e.source.Subscribe(func(a api.Appearance) {
			e.onSystemPreference(gen, a)
		})
		logging.Debug(subsystem, "Following system preference")
	case !wantSystem && e.unsubscribe != nil:
		e.releaseLocked()
		logging.Debug(subsystem, "Stopped following system preference")
	}
}

func (e *Engine) releaseLocked() {
	if e.unsubscribe != nil {
		e.unsubscribe()
		e.unsubscribe = nil
	}
	e.subGen++
}

func (e *Engine) onSystemPreference(gen uint64, a api.Appearance) {
	e.mu.Lock()
	if gen != e.subGen || e.unsubscribe == nil {
		e.mu.Unlock()
		return
	}
	e.publishAndUnlock(e.effectiveWith(a))
}

func (e *Engine) publishAndUnlock(eff Effective) {
	if eff == e.last || e.closed {
		e.last = eff
		e.mu.Unlock()
		return
	}
	e.last = eff
	e.notify.Push(eff)
	e.mu.Unlock()
	e.notify.Drain(e.deliver)
}

func (e *Engine) deliver(eff Effective) {
	e.mu.Lock()
	listeners := slices.Clone(e.listeners)
	e.mu.Unlock()
	for _, l := range listeners {
		l.fn(eff)
	}
}

// normalize fills empty fields with defaults and replaces an unknown mode.
func normalize(cfg api.ThemeConfig) api.ThemeConfig {
	if !cfg.Mode.Valid() {
		if cfg.Mode != "" {
			logging.Warn(subsystem, "Unknown theme mode %q, using %s", cfg.Mode, DefaultMode)
		}
		cfg.Mode = DefaultMode
	}
	if cfg.AccentColor == "" {
		cfg.AccentColor = DefaultAccentColor
	}
	if cfg.Radius == "" {
		cfg.Radius = DefaultRadius
	}
	return cfg
}

func appearanceOf(mode api.ThemeMode) api.Appearance {
	if mode == api.ThemeModeLight {
		return api.AppearanceLight
	}
	return api.AppearanceDark
}
