package tui

import (
	"envdash/internal/theme"

	"github.com/charmbracelet/lipgloss"
)

// Icons used in the server list and header.
const (
	IconCheck   = "✔"
	IconCross   = "✘"
	IconWarning = "⚠"
	IconServer  = "▪"
	IconPointer = "▶"
)

// palette holds the colours of one appearance.
type palette struct {
	Text     lipgloss.Color
	Muted    lipgloss.Color
	Border   lipgloss.Color
	Success  lipgloss.Color
	Warning  lipgloss.Color
	Error    lipgloss.Color
	HeaderBg lipgloss.Color
	HeaderFg lipgloss.Color
}

var (
	darkPalette = palette{
		Text:     "#E6E6E6",
		Muted:    "#8B8B8B",
		Border:   "#45475A",
		Success:  "#50FA7B",
		Warning:  "#F1FA8C",
		Error:    "#FF5555",
		HeaderBg: "#303030",
		HeaderFg: "#FFFFFF",
	}
	lightPalette = palette{
		Text:     "#1F1F1F",
		Muted:    "#6B6B6B",
		Border:   "#C0C0C0",
		Success:  "#007700",
		Warning:  "#B8860B",
		Error:    "#CC0000",
		HeaderBg: "#D0D0D0",
		HeaderFg: "#000000",
	}
)

// styles are derived from the effective theme on every render.
type styles struct {
	header   lipgloss.Style
	panel    lipgloss.Style
	title    lipgloss.Style
	item     lipgloss.Style
	selected lipgloss.Style
	muted    lipgloss.Style
	success  lipgloss.Style
	warning  lipgloss.Style
	error    lipgloss.Style
	log      lipgloss.Style
}

func newStyles(eff theme.Effective) styles {
	p := lightPalette
	if eff.Dark() {
		p = darkPalette
	}
	accent := lipgloss.Color(eff.AccentColor)
	panel := lipgloss.NewStyle().
		Border(borderFor(eff.Radius)).
		BorderForeground(p.Border).
		Padding(0, 1)

	return styles{
		header: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.HeaderFg).
			Background(p.HeaderBg).
			Padding(0, 2),
		panel:    panel,
		title:    lipgloss.NewStyle().Bold(true).Foreground(accent),
		item:     lipgloss.NewStyle().Foreground(p.Text),
		selected: lipgloss.NewStyle().Bold(true).Foreground(accent),
		muted:    lipgloss.NewStyle().Foreground(p.Muted),
		success:  lipgloss.NewStyle().Foreground(p.Success),
		warning:  lipgloss.NewStyle().Foreground(p.Warning),
		error:    lipgloss.NewStyle().Foreground(p.Error),
		log:      lipgloss.NewStyle().Foreground(p.Muted),
	}
}

// borderFor maps the radius token to a border: zero radius draws square
// corners, anything else rounded ones.
func borderFor(radius string) lipgloss.Border {
	switch radius {
	case "0", "0px", "0rem", "none":
		return lipgloss.NormalBorder()
	default:
		return lipgloss.RoundedBorder()
	}
}
