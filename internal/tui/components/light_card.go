package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/angristan/hue-classic/internal/models"
	"github.com/angristan/hue-classic/internal/tui/styles"
)

// RenderLightRow renders one line of the light list
func RenderLightRow(light models.IdentifiedLight, selected bool, width int) string {
	cursor := "  "
	if selected {
		cursor = styles.StyleSelected.Render("> ")
	}

	state := light.State
	icon := styles.StyleStatusOff.Render("○")
	if state.On {
		icon = styles.StyleStatusOn.Render("●")
	}

	// cursor(2) + icon(1) + space(1) + id(4) + spaces(2) + space(1) + pct(4) + color(2)
	available := width - 17
	barWidth := available * 35 / 100
	if barWidth < 8 {
		barWidth = 8
	}
	if barWidth > 20 {
		barWidth = 20
	}
	nameWidth := available - barWidth
	if nameWidth < 10 {
		nameWidth = 10
	}
	if nameWidth > 40 {
		nameWidth = 40
	}

	nameStyle := styles.StyleLightNameDim
	if state.On {
		nameStyle = styles.StyleLightName
	}
	if selected {
		nameStyle = styles.StyleSelected
	}
	name := nameStyle.Render(Truncate(light.Name, nameWidth))
	id := styles.StyleTextMuted.Render(fmt.Sprintf("%3d ", light.ID))

	bar := RenderBrightnessBar(state.BrightnessPct(), state.On, barWidth)
	pct := styles.StyleTextMuted.Render(fmt.Sprintf("%3d%%", state.BrightnessPct()))

	suffix := ""
	switch {
	case !state.Reachable:
		suffix = styles.StyleUnreachable.Render(" !")
	case state.On:
		suffix = colorSwatch(state.Color())
	}

	return fmt.Sprintf("%s%s %s%s  %s %s%s", cursor, icon, id, name, bar, pct, suffix)
}

// RenderLightDetail renders the side panel for the selected light
func RenderLightDetail(light models.IdentifiedLight, width int) string {
	var b strings.Builder
	state := light.State

	b.WriteString(styles.StylePanelTitle.Render(light.Name))
	b.WriteString("\n")

	row := func(label, value string) {
		b.WriteString(styles.StyleTextMuted.Render(fmt.Sprintf("%-11s", label)))
		b.WriteString(value)
		b.WriteString("\n")
	}

	row("ID", fmt.Sprintf("%d", light.ID))
	if light.Type != "" {
		row("Type", light.Type)
	}
	if light.ModelID != "" {
		row("Model", light.ModelID)
	}

	power := styles.StyleStatusOff.Render("off")
	if state.On {
		power = styles.StyleStatusOn.Render("on")
	}
	row("Power", power)
	if !state.Reachable {
		row("Reachable", styles.StyleUnreachable.Render("no"))
	}

	barWidth := width - 20
	if barWidth < 5 {
		barWidth = 5
	}
	row("Brightness", fmt.Sprintf("%s %d%%", RenderBrightnessBar(state.BrightnessPct(), state.On, barWidth), state.BrightnessPct()))

	if state.ColorMode != "" {
		row("Mode", state.ColorMode)
		row("Hue", fmt.Sprintf("%d", state.Hue))
		row("Saturation", fmt.Sprintf("%d", state.Sat))
		if state.CT > 0 {
			row("Mirek", fmt.Sprintf("%d", state.CT))
		}
		if c := state.Color(); c != nil {
			row("Color", colorSwatch(c)+" "+c.HexString())
		}
	}

	return styles.StylePanel.Width(width).Render(strings.TrimRight(b.String(), "\n"))
}

func colorSwatch(c *models.Color) string {
	if c == nil {
		return ""
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(c.HexString())).
		Render(" ◆")
}

// Truncate pads or cuts s to exactly maxLen runes
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s + strings.Repeat(" ", maxLen-len(r))
	}
	return string(r[:maxLen-1]) + "…"
}
