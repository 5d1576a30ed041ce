// Package events carries view-model changes from the dashboard core to its
// presentation layers.
package events

import (
	"time"

	"envdash/internal/api"
	"envdash/internal/registry"
	"envdash/internal/theme"
)

// EventType identifies what part of the view-model changed.
type EventType string

const (
	EventTypeConnection EventType = "connection"
	EventTypeServers    EventType = "servers"
	EventTypeTheme      EventType = "theme"
	EventTypeReload     EventType = "reload"
	EventTypeError      EventType = "error"
)

// Event is one view-model change. Only the field matching Type is set.
type Event struct {
	Type      EventType
	Timestamp time.Time

	Status   api.ConnectionStatus
	Registry registry.Snapshot
	Theme    theme.Effective
	Err      error
}

// ConnectionChanged builds an EventTypeConnection event.
func ConnectionChanged(status api.ConnectionStatus) Event {
	return Event{Type: EventTypeConnection, Timestamp: time.Now(), Status: status}
}

// ServersChanged builds an EventTypeServers event.
func ServersChanged(snap registry.Snapshot) Event {
	return Event{Type: EventTypeServers, Timestamp: time.Now(), Registry: snap}
}

// ThemeChanged builds an EventTypeTheme event.
func ThemeChanged(eff theme.Effective) Event {
	return Event{Type: EventTypeTheme, Timestamp: time.Now(), Theme: eff}
}

// ReloadFinished builds an EventTypeReload event; err is nil on success.
func ReloadFinished(err error) Event {
	return Event{Type: EventTypeReload, Timestamp: time.Now(), Err: err}
}

// Failed builds an EventTypeError event for a background failure.
func Failed(err error) Event {
	return Event{Type: EventTypeError, Timestamp: time.Now(), Err: err}
}
