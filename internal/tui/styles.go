package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/creamcroissant/ordersync/internal/repository"
)

var (
	// Colors
	colorPrimary = lipgloss.Color("#7C3AED")
	colorSuccess = lipgloss.Color("#22C55E")
	colorWarning = lipgloss.Color("#F59E0B")
	colorInfo    = lipgloss.Color("#38BDF8")
	colorDanger  = lipgloss.Color("#EF4444")
	colorMuted   = lipgloss.Color("#6B7280")

	styleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(colorPrimary).
			Padding(0, 1)

	styleHelp = lipgloss.NewStyle().
			Foreground(colorMuted).
			Padding(0, 1)

	styleError = lipgloss.NewStyle().
			Foreground(colorDanger).
			Bold(true)

	styleNotice = lipgloss.NewStyle().
			Foreground(colorSuccess)

	styleTableHeader = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#FFFFFF")).
				Background(colorPrimary).
				Padding(0, 1)

	styleTableRow = lipgloss.NewStyle().
			Padding(0, 1)

	styleTableRowSelected = lipgloss.NewStyle().
				Background(lipgloss.Color("#1F2937")).
				Foreground(lipgloss.Color("#FFFFFF")).
				Padding(0, 1)

	styleBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(1, 2)
)

func styleMuted() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colorMuted)
}

// StatusChip renders a status key with its colour.
func StatusChip(key repository.StatusKey) string {
	switch key {
	case repository.StatusPreparing:
		return lipgloss.NewStyle().Foreground(colorWarning).Render("◔ preparing")
	case repository.StatusReady:
		return lipgloss.NewStyle().Foreground(colorInfo).Render("◑ ready")
	case repository.StatusOnTheWay:
		return lipgloss.NewStyle().Foreground(colorPrimary).Render("◕ onTheWay")
	case repository.StatusDelivered:
		return lipgloss.NewStyle().Foreground(colorSuccess).Render("● delivered")
	default:
		return styleMuted().Render("? " + string(key))
	}
}
