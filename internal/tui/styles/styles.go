package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Color palette - Lavender theme
var (
	ColorPrimary    = lipgloss.Color("#B794F4") // Lavender
	ColorAccent     = lipgloss.Color("#E9D8FD") // Light lavender
	ColorSurface    = lipgloss.Color("#2D2D44")
	ColorSurfaceAlt = lipgloss.Color("#3D3D5C")

	ColorText        = lipgloss.Color("#FAFAFA")
	ColorTextMuted   = lipgloss.Color("#A0A0B0")
	ColorTextDim     = lipgloss.Color("#6B6B80")
	ColorTextInverse = lipgloss.Color("#1A1A2E")

	ColorSuccess = lipgloss.Color("#68D391") // Green
	ColorWarning = lipgloss.Color("#F6E05E") // Yellow
	ColorError   = lipgloss.Color("#FC8181") // Red

	ColorLightOn  = lipgloss.Color("#FBBF24") // Warm yellow for on
	ColorLightOff = lipgloss.Color("#4A4A5A") // Gray for off

	// Brightness bar gradient from dim to bright
	brightnessGradient = [10]lipgloss.Color{
		"#3D3D5C", "#4A4A6A", "#5A5A7A", "#6A6A8A", "#7A7A9A",
		"#8A8AAA", "#9A9ABA", "#AAAACA", "#BABADA", "#FBBF24",
	}
)

var (
	StyleHeaderGradient = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorText).
				Background(ColorPrimary).
				Padding(0, 2)

	StyleLightName = lipgloss.NewStyle().
			Foreground(ColorText)

	StyleLightNameDim = lipgloss.NewStyle().
				Foreground(ColorTextMuted)

	StyleSelected = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	StyleStatusOn = lipgloss.NewStyle().
			Foreground(ColorLightOn).
			Bold(true)

	StyleStatusOff = lipgloss.NewStyle().
			Foreground(ColorLightOff)

	StyleUnreachable = lipgloss.NewStyle().
				Foreground(ColorWarning)

	StyleBrightnessBarEmpty = lipgloss.NewStyle().
				Foreground(ColorSurfaceAlt)

	StylePanel = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPrimary).
			Padding(1, 2)

	StylePanelTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent).
			MarginBottom(1)

	StyleInputFocused = lipgloss.NewStyle().
				Border(lipgloss.NormalBorder()).
				BorderForeground(ColorPrimary).
				Padding(0, 1)

	StyleHelp = lipgloss.NewStyle().
			Foreground(ColorTextDim)

	StyleHelpKey = lipgloss.NewStyle().
			Foreground(ColorPrimary)

	StyleListItemSelected = lipgloss.NewStyle().
				Foreground(ColorTextInverse).
				Background(ColorPrimary).
				Padding(0, 1)

	StyleSpinner = lipgloss.NewStyle().
			Foreground(ColorPrimary)

	StyleError = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	StyleSuccess = lipgloss.NewStyle().
			Foreground(ColorSuccess).
			Bold(true)

	StyleTextMuted = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	StylePrimary = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)
)

// GetBrightnessColor returns the color of bar segment (1-10) for a
// brightness percentage
func GetBrightnessColor(segment int, brightness int) lipgloss.Color {
	if segment < 1 || segment > 10 || brightness < segment*10 {
		return ColorSurfaceAlt
	}
	return brightnessGradient[segment-1]
}
