package tui

import (
	"envdash/internal/events"
	"envdash/pkg/logging"
)

// eventMsg carries one view-model change into the update loop.
type eventMsg struct {
	Event events.Event
}

// eventsClosedMsg is sent once the event subscription has been closed.
type eventsClosedMsg struct{}

type logEntryMsg struct {
	Entry logging.LogEntry
}

type reloadResultMsg struct {
	Err error
}

type refreshResultMsg struct {
	Err error
}

type clearStatusMsg struct {
	id int
}
