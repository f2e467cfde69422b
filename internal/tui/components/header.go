package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/angristan/hue-classic/internal/tui/styles"
)

// RenderHeader renders the application header with a right-aligned status.
// An empty status renders as "Disconnected".
func RenderHeader(width int, status string, busy bool) string {
	title := " Hue Classic "

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(styles.ColorText).
		Background(styles.ColorPrimary).
		Padding(0, 1)

	statusStyle := lipgloss.NewStyle().
		Foreground(styles.ColorSuccess).
		Padding(0, 1)

	switch {
	case status == "":
		status = "Disconnected"
		statusStyle = statusStyle.Foreground(styles.ColorError)
	case busy:
		statusStyle = statusStyle.Foreground(styles.ColorWarning)
	}

	left := titleStyle.Render(title)
	right := statusStyle.Render(status)

	spacing := width - lipgloss.Width(left) - lipgloss.Width(right)
	if spacing < 0 {
		spacing = 0
	}

	headerBg := lipgloss.NewStyle().
		Background(styles.ColorSurface).
		Width(width)

	return headerBg.Render(left + strings.Repeat(" ", spacing) + right)
}
