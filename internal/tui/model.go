// Package tui is the terminal presentation of the dashboard view-model.
package tui

import (
	"context"
	"time"

	"envdash/internal/api"
	"envdash/internal/dashboard"
	"envdash/internal/events"
	"envdash/pkg/logging"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	maxLogLines      = 200
	statusClearAfter = 3 * time.Second
	actionTimeout    = 30 * time.Second
)

// ViewModel is the part of the dashboard the TUI drives.
type ViewModel interface {
	Snapshot() dashboard.View
	Select(id string) error
	Refresh(ctx context.Context) error
	Reload(ctx context.Context) error
	SetThemeMode(mode api.ThemeMode) error
}

// MessageType classifies status bar messages.
type MessageType int

const (
	StatusBarInfo MessageType = iota
	StatusBarSuccess
	StatusBarError
)

// Model is the bubbletea model of the dashboard.
type Model struct {
	vm     ViewModel
	events <-chan events.Event
	logs   <-chan logging.LogEntry

	view    dashboard.View
	keys    KeyMap
	help    help.Model
	spinner spinner.Model

	width  int
	height int

	activityLog []string
	busy        bool

	statusMessage string
	statusType    MessageType
	statusID      int

	// writeClipboard is swapped out in tests.
	writeClipboard func(string) error
}

// NewModel creates a model bound to vm. Either channel may be nil.
func NewModel(vm ViewModel, eventCh <-chan events.Event, logCh <-chan logging.LogEntry) *Model {
	return &Model{
		vm:             vm,
		events:         eventCh,
		logs:           logCh,
		view:           vm.Snapshot(),
		keys:           DefaultKeyMap(),
		help:           help.New(),
		spinner:        spinner.New(spinner.WithSpinner(spinner.Dot)),
		writeClipboard: clipboard.WriteAll,
	}
}

// Init starts listening for view-model events and log entries.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		waitForEvent(m.events),
		waitForLog(m.logs),
	)
}

func waitForEvent(ch <-chan events.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		e, ok := <-ch
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg{Event: e}
	}
}

func waitForLog(ch <-chan logging.LogEntry) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		entry, ok := <-ch
		if !ok {
			return nil
		}
		return logEntryMsg{Entry: entry}
	}
}

// selectedIndex returns the position of the selection, or -1.
func (m *Model) selectedIndex() int {
	for i, s := range m.view.Registry.Servers {
		if s.ID == m.view.Registry.SelectedID {
			return i
		}
	}
	return -1
}

// setStatus shows message in the status bar and clears it later.
func (m *Model) setStatus(message string, msgType MessageType) tea.Cmd {
	m.statusID++
	id := m.statusID
	m.statusMessage = message
	m.statusType = msgType
	return tea.Tick(statusClearAfter, func(time.Time) tea.Msg {
		return clearStatusMsg{id: id}
	})
}

func (m *Model) appendLog(line string) {
	m.activityLog = append(m.activityLog, line)
	if len(m.activityLog) > maxLogLines {
		m.activityLog = m.activityLog[len(m.activityLog)-maxLogLines:]
	}
}

func (m *Model) reloadCmd() tea.Cmd {
	vm := m.vm
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		return reloadResultMsg{Err: vm.Reload(ctx)}
	}
}

func (m *Model) refreshCmd() tea.Cmd {
	vm := m.vm
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		return refreshResultMsg{Err: vm.Refresh(ctx)}
	}
}

// nextThemeMode cycles light, dark and system.
func nextThemeMode(mode api.ThemeMode) api.ThemeMode {
	switch mode {
	case api.ThemeModeLight:
		return api.ThemeModeDark
	case api.ThemeModeDark:
		return api.ThemeModeSystem
	default:
		return api.ThemeModeLight
	}
}
