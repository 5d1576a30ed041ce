package tui

import (
	"fmt"
	"strings"

	"envdash/internal/api"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

const (
	defaultWidth   = 80
	minNameColumn  = 12
	logLinesInView = 6
)

// View renders the dashboard.
func (m *Model) View() string {
	width := m.width
	if width <= 0 {
		width = defaultWidth
	}
	st := newStyles(m.view.Theme)

	sections := []string{
		m.renderHeader(st, width),
		m.renderServers(st, width),
	}
	if len(m.activityLog) > 0 {
		sections = append(sections, m.renderLog(st, width))
	}
	if m.statusMessage != "" {
		sections = append(sections, m.renderStatusBar(st))
	}
	sections = append(sections, m.help.View(m.keys))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) renderHeader(st styles, width int) string {
	status := m.view.Status
	var indicator string
	switch status {
	case api.StatusConnected:
		indicator = st.success.Render(IconCheck + " " + string(status))
	case api.StatusConnecting, api.StatusReconnecting:
		indicator = st.warning.Render(m.spinner.View() + " " + string(status))
	default:
		indicator = st.error.Render(IconCross + " " + string(status))
	}
	title := fmt.Sprintf("envdash  %s  theme: %s", indicator, m.view.ThemeConfig.Mode)
	return st.header.Width(width).Render(title)
}

func (m *Model) renderServers(st styles, width int) string {
	inner := width - 4
	servers := m.view.Registry.Servers
	lines := []string{st.title.Render(fmt.Sprintf("MCP Servers (%d)", len(servers)))}
	if len(servers) == 0 {
		lines = append(lines, st.muted.Render("No servers reported by the backend"))
		return st.panel.Width(inner).Render(strings.Join(lines, "\n"))
	}

	nameCol := inner / 3
	if nameCol < minNameColumn {
		nameCol = minNameColumn
	}
	for _, s := range servers {
		pointer := "  "
		style := st.item
		if s.ID == m.view.Registry.SelectedID {
			pointer = IconPointer + " "
			style = st.selected
		}
		name := padRight(truncate(s.Label(), nameCol), nameCol)
		detail := truncate(strings.Join(nonEmpty(s.Status, s.Health, s.Type), " · "), inner-nameCol-3)
		lines = append(lines, pointer+style.Render(name)+" "+m.renderState(st, s, detail))
	}
	if sel, ok := m.view.Registry.Selected(); ok && sel.Description != "" {
		lines = append(lines, "", st.muted.Render(truncate(sel.Description, inner)))
	}
	return st.panel.Width(inner).Render(strings.Join(lines, "\n"))
}

func (m *Model) renderState(st styles, s api.ServerDescriptor, detail string) string {
	switch strings.ToLower(s.Health) {
	case "healthy":
		return st.success.Render(detail)
	case "unhealthy":
		return st.error.Render(detail)
	case "":
		return st.muted.Render(detail)
	default:
		return st.warning.Render(detail)
	}
}

func (m *Model) renderLog(st styles, width int) string {
	start := len(m.activityLog) - logLinesInView
	if start < 0 {
		start = 0
	}
	maxWidth := width - 4
	lines := make([]string, 0, logLinesInView)
	for _, line := range m.activityLog[start:] {
		lines = append(lines, st.log.Render(truncate(line, maxWidth)))
	}
	return st.panel.Width(maxWidth).Render(strings.Join(lines, "\n"))
}

func (m *Model) renderStatusBar(st styles) string {
	switch m.statusType {
	case StatusBarSuccess:
		return st.success.Render(IconCheck + " " + m.statusMessage)
	case StatusBarError:
		return st.error.Render(IconWarning + " " + m.statusMessage)
	default:
		return st.muted.Render(m.statusMessage)
	}
}

// truncate shortens s to at most width display cells.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}

func padRight(s string, width int) string {
	return runewidth.FillRight(s, width)
}

func nonEmpty(values ...string) []string {
	out := values[:0:0]
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
