package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/angristan/hue-classic/internal/tui/styles"
)

// RenderBrightnessBar renders a horizontal brightness bar of width cells
func RenderBrightnessBar(brightness int, on bool, width int) string {
	if width <= 0 {
		return ""
	}
	if !on {
		return styles.StyleBrightnessBarEmpty.Render(strings.Repeat("─", width))
	}

	segments := (brightness * width) / 100
	if brightness > 0 && segments == 0 {
		segments = 1
	}

	var b strings.Builder
	for i := 1; i <= width; i++ {
		if i <= segments {
			color := styles.GetBrightnessColor(segmentOf(i, width), brightness)
			b.WriteString(lipgloss.NewStyle().Foreground(color).Render("█"))
		} else {
			b.WriteString(styles.StyleBrightnessBarEmpty.Render("─"))
		}
	}

	return b.String()
}

// segmentOf maps cell i of width onto the 1-10 gradient scale
func segmentOf(i, width int) int {
	s := (i * 10) / width
	if s < 1 {
		return 1
	}
	if s > 10 {
		return 10
	}
	return s
}
