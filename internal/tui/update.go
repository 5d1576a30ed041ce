package tui

import (
	"fmt"

	"envdash/internal/events"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Update handles incoming messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case eventMsg:
		m.view = m.vm.Snapshot()
		if msg.Event.Type == events.EventTypeError && msg.Event.Err != nil {
			m.appendLog("error: " + msg.Event.Err.Error())
		}
		return m, waitForEvent(m.events)

	case eventsClosedMsg:
		m.view = m.vm.Snapshot()
		return m, nil

	case logEntryMsg:
		e := msg.Entry
		line := fmt.Sprintf("%s %-5s [%s] %s", e.Timestamp.Format("15:04:05"), e.Level, e.Subsystem, e.Message)
		if e.Err != nil {
			line += ": " + e.Err.Error()
		}
		m.appendLog(line)
		return m, waitForLog(m.logs)

	case reloadResultMsg:
		m.busy = false
		m.view = m.vm.Snapshot()
		if msg.Err != nil {
			return m, m.setStatus("Reload failed: "+msg.Err.Error(), StatusBarError)
		}
		return m, m.setStatus("Backend configuration reloaded", StatusBarSuccess)

	case refreshResultMsg:
		m.busy = false
		m.view = m.vm.Snapshot()
		if msg.Err != nil {
			return m, m.setStatus("Refresh failed: "+msg.Err.Error(), StatusBarError)
		}
		return m, m.setStatus(fmt.Sprintf("%d servers", len(m.view.Registry.Servers)), StatusBarInfo)

	case clearStatusMsg:
		if msg.id == m.statusID {
			m.statusMessage = ""
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return nil

	case key.Matches(msg, m.keys.Up):
		return m.moveSelection(-1)

	case key.Matches(msg, m.keys.Down):
		return m.moveSelection(1)

	case key.Matches(msg, m.keys.Reload):
		if m.busy {
			return nil
		}
		m.busy = true
		return tea.Batch(m.setStatus("Reloading backend configuration...", StatusBarInfo), m.reloadCmd())

	case key.Matches(msg, m.keys.Refresh):
		if m.busy {
			return nil
		}
		m.busy = true
		return m.refreshCmd()

	case key.Matches(msg, m.keys.Copy):
		sel, ok := m.view.Registry.Selected()
		if !ok {
			return m.setStatus("No server selected", StatusBarError)
		}
		if err := m.writeClipboard(sel.ID); err != nil {
			return m.setStatus("Copy failed: "+err.Error(), StatusBarError)
		}
		return m.setStatus("Copied "+sel.ID, StatusBarSuccess)

	case key.Matches(msg, m.keys.ToggleTheme):
		next := nextThemeMode(m.view.ThemeConfig.Mode)
		if err := m.vm.SetThemeMode(next); err != nil {
			return m.setStatus("Theme change failed: "+err.Error(), StatusBarError)
		}
		m.view = m.vm.Snapshot()
		return m.setStatus("Theme mode: "+string(next), StatusBarInfo)
	}
	return nil
}

// moveSelection selects the neighbour of the current server. With no
// selection it starts from the first server.
func (m *Model) moveSelection(delta int) tea.Cmd {
	servers := m.view.Registry.Servers
	if len(servers) == 0 {
		return nil
	}
	idx := m.selectedIndex()
	switch {
	case idx < 0:
		idx = 0
	default:
		idx = (idx + delta + len(servers)) % len(servers)
	}
	if err := m.vm.Select(servers[idx].ID); err != nil {
		return m.setStatus(err.Error(), StatusBarError)
	}
	m.view = m.vm.Snapshot()
	return nil
}
