package tui

import (
	"envdash/internal/events"
	"envdash/pkg/logging"

	tea "github.com/charmbracelet/bubbletea"
)

// NewProgram creates the full-screen dashboard program.
func NewProgram(vm ViewModel, eventCh <-chan events.Event, logCh <-chan logging.LogEntry) *tea.Program {
	return tea.NewProgram(NewModel(vm, eventCh, logCh), tea.WithAltScreen())
}
