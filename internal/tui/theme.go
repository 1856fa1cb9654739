package tui

import (
	"charm.land/lipgloss/v2"
)

// Palette
var (
	colorPrimary   = lipgloss.Color("#6366F1") // Indigo
	colorSecondary = lipgloss.Color("#0EA5E9") // Sky
	colorAccent    = lipgloss.Color("#F59E0B") // Amber
	colorSuccess   = lipgloss.Color("#22C55E")
	colorError     = lipgloss.Color("#F43F5E")
	colorText      = lipgloss.Color("#F8FAFC")
	colorTextDim   = lipgloss.Color("#94A3B8")
	colorBgCard    = lipgloss.Color("#1E293B")
	colorBorder    = lipgloss.Color("#334155")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	promptStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Bold(true)

	bodyStyle = lipgloss.NewStyle().
			Foreground(colorText)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorTextDim)

	hintStyle = lipgloss.NewStyle().
			Foreground(colorTextDim).
			Italic(true)

	selectedStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	correctStyle = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Bold(true)

	incorrectStyle = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)

	scoreStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	progressFilled = lipgloss.NewStyle().
			Background(colorSecondary)

	progressEmpty = lipgloss.NewStyle().
			Background(colorBorder)
)
