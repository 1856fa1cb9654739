package tui

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
)

const (
	minWidth  = 60
	minHeight = 16
)

// keyHint is a key binding shown in the footer.
type keyHint struct {
	Key         string
	Description string
}

func isTooSmall(width, height int) bool {
	return width < minWidth || height < minHeight
}

func renderMinSizeMessage(width, height int) string {
	return lipgloss.NewStyle().
		Align(lipgloss.Center).
		Foreground(colorText).
		Width(width).
		Height(height).
		Render(fmt.Sprintf(
			"Terminal too small!\n\nPlease resize to at\nleast %d x %d\n\nCurrent: %d x %d",
			minWidth, minHeight, width, height,
		))
}

// renderHeader draws the app name, the quiz topic and a right-aligned status.
func renderHeader(topic, status string, width int) string {
	left := titleStyle.Render("  Quizly")
	center := bodyStyle.Render(topic)
	right := lipgloss.NewStyle().Foreground(colorAccent).Render(status)

	leftLen := lipgloss.Width(left)
	centerLen := lipgloss.Width(center)
	rightLen := lipgloss.Width(right)

	innerWidth := max(width-4, 0)

	leftGap := max((innerWidth-centerLen)/2-leftLen, 1)
	rightGap := max(innerWidth-leftLen-leftGap-centerLen-rightLen, 1)

	content := left + strings.Repeat(" ", leftGap) + center + strings.Repeat(" ", rightGap) + right

	return lipgloss.NewStyle().
		Width(width).
		Background(colorBgCard).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Render(content)
}

func renderFooter(hints []keyHint, width int) string {
	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		parts = append(parts,
			lipgloss.NewStyle().Foreground(colorText).Bold(true).Render(h.Key)+" "+dimStyle.Render(h.Description))
	}

	return lipgloss.NewStyle().
		Width(width).
		Background(colorBgCard).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Render("  " + strings.Join(parts, "   "))
}

// renderFrame stacks header, content and footer to fill the terminal.
func renderFrame(header, content, footer string, width, height int) string {
	contentHeight := max(height-lipgloss.Height(header)-lipgloss.Height(footer), 0)

	styled := lipgloss.NewStyle().
		Width(width).
		Height(contentHeight).
		MaxHeight(contentHeight).
		Padding(0, 2).
		Render(content)

	return header + "\n" + styled + "\n" + footer
}

func renderProgress(label string, done, total, width int) string {
	label = bodyStyle.Render(label) + "  "
	barWidth := max(width-lipgloss.Width(label)-8, 4)

	filled := 0
	if total > 0 {
		filled = min(barWidth*done/total, barWidth)
	}

	return label +
		progressFilled.Render(strings.Repeat(" ", filled)) +
		progressEmpty.Render(strings.Repeat(" ", barWidth-filled)) +
		dimStyle.Render(fmt.Sprintf("  %d/%d", done, total))
}
