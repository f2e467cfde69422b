package screens

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/angristan/hue-classic/internal/api"
	"github.com/angristan/hue-classic/internal/models"
	"github.com/angristan/hue-classic/internal/tui/components"
	"github.com/angristan/hue-classic/internal/tui/messages"
	"github.com/angristan/hue-classic/internal/tui/styles"
)

const (
	brightnessStep = 10   // percent
	hueStep        = 4096 // 1/16 of the hue wheel
	satStep        = 25

	commandTimeout = 5 * time.Second
)

// MainModel is the light list screen model
type MainModel struct {
	lights       []models.IdentifiedLight
	selected     int
	scrollOffset int

	host    string
	loading bool
	spinner spinner.Model

	// Last action result or error shown in the status line
	status string
	err    error

	width  int
	height int
}

// NewMainModel creates a new main screen model for the bridge at host
func NewMainModel(host string) MainModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.StyleSpinner

	return MainModel{
		host:    host,
		loading: true,
		spinner: sp,
	}
}

// Init initializes the main screen
func (m MainModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *MainModel) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.ensureVisible()
}

func (m *MainModel) SetHost(host string) {
	m.host = host
}

func (m *MainModel) SetLoading(loading bool) {
	m.loading = loading
}

// Lights returns the displayed lights, sorted by id
func (m MainModel) Lights() []models.IdentifiedLight {
	return m.lights
}

// SelectedLight returns the light under the cursor
func (m *MainModel) SelectedLight() *models.IdentifiedLight {
	if m.selected < 0 || m.selected >= len(m.lights) {
		return nil
	}
	return &m.lights[m.selected]
}

// SetLights replaces the list, keeping the cursor on the same light id
func (m *MainModel) SetLights(lights []models.IdentifiedLight) {
	selectedID := -1
	if l := m.SelectedLight(); l != nil {
		selectedID = l.ID
	}

	m.lights = lights
	m.loading = false
	m.reselect(selectedID)
}

// ApplyEvents merges watcher events into the list
func (m *MainModel) ApplyEvents(events []api.Event) {
	selectedID := -1
	if l := m.SelectedLight(); l != nil {
		selectedID = l.ID
	}

	byID := make(map[int]int, len(m.lights))
	for i, l := range m.lights {
		byID[l.ID] = i
	}

	removed := make(map[int]bool)
	for _, e := range events {
		switch e.Type {
		case api.EventTypeAdd, api.EventTypeUpdate:
			if e.Light == nil {
				continue
			}
			if i, ok := byID[e.LightID]; ok {
				m.lights[i].Light = *e.Light
			} else {
				byID[e.LightID] = len(m.lights)
				m.lights = append(m.lights, models.IdentifiedLight{ID: e.LightID, Light: *e.Light})
			}
		case api.EventTypeDelete:
			removed[e.LightID] = true
		}
	}

	if len(removed) > 0 {
		kept := m.lights[:0]
		for _, l := range m.lights {
			if !removed[l.ID] {
				kept = append(kept, l)
			}
		}
		m.lights = kept
	}

	sort.Slice(m.lights, func(i, j int) bool {
		return m.lights[i].ID < m.lights[j].ID
	})
	m.loading = false
	m.reselect(selectedID)
}

func (m *MainModel) reselect(id int) {
	for i, l := range m.lights {
		if l.ID == id {
			m.selected = i
			m.ensureVisible()
			return
		}
	}
	if m.selected >= len(m.lights) {
		m.selected = len(m.lights) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
	m.ensureVisible()
}

// visibleLines returns how many rows fit in the viewport
func (m *MainModel) visibleLines() int {
	// header(1) + blank(1) + status(1) + help(1) + scroll indicators(2)
	visible := m.height - 6
	if visible < 3 {
		visible = 3
	}
	return visible
}

// ensureVisible adjusts scrollOffset so the selection is visible
func (m *MainModel) ensureVisible() {
	visible := m.visibleLines()

	if m.selected < m.scrollOffset {
		m.scrollOffset = m.selected
	}
	if m.selected >= m.scrollOffset+visible {
		m.scrollOffset = m.selected - visible + 1
	}

	maxScroll := len(m.lights) - visible
	if maxScroll < 0 {
		maxScroll = 0
	}
	if m.scrollOffset > maxScroll {
		m.scrollOffset = maxScroll
	}
	if m.scrollOffset < 0 {
		m.scrollOffset = 0
	}
}

// Update handles messages. Commands go to ctrl; the local state is
// updated optimistically and corrected by the next poll.
func (m MainModel) Update(msg tea.Msg, ctrl api.LightController) (MainModel, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if m.selected > 0 {
				m.selected--
				m.ensureVisible()
			}

		case "down", "j":
			if m.selected < len(m.lights)-1 {
				m.selected++
				m.ensureVisible()
			}

		case "pgup":
			m.selected = max(0, m.selected-m.visibleLines())
			m.ensureVisible()

		case "pgdown":
			m.selected = max(0, min(len(m.lights)-1, m.selected+m.visibleLines()))
			m.ensureVisible()

		case "home", "g":
			m.selected = 0
			m.ensureVisible()

		case "end", "G":
			m.selected = max(0, len(m.lights)-1)
			m.ensureVisible()

		case " ", "enter":
			if light := m.SelectedLight(); light != nil {
				light.State.On = !light.State.On
				cmds = append(cmds, setStateCmd(ctrl, light.ID, models.EmptyCommand().WithOn(light.State.On)))
			}

		case "left", "h":
			if light := m.SelectedLight(); light != nil && light.State.On {
				pct := light.State.BrightnessPct() - brightnessStep
				if pct <= 0 {
					light.State.On = false
					cmds = append(cmds, setStateCmd(ctrl, light.ID, models.OffCommand()))
				} else {
					light.State.Bri = briFromPct(pct)
					cmds = append(cmds, setStateCmd(ctrl, light.ID, models.EmptyCommand().WithBri(light.State.Bri)))
				}
			}

		case "right", "l":
			if light := m.SelectedLight(); light != nil {
				if !light.State.On {
					light.State.On = true
					light.State.Bri = briFromPct(brightnessStep)
					cmds = append(cmds, setStateCmd(ctrl, light.ID, models.OnCommand().WithBri(light.State.Bri)))
				} else {
					light.State.Bri = briFromPct(min(100, light.State.BrightnessPct()+brightnessStep))
					cmds = append(cmds, setStateCmd(ctrl, light.ID, models.EmptyCommand().WithBri(light.State.Bri)))
				}
			}

		case "1", "2", "3", "4", "5", "6", "7", "8", "9", "0":
			if light := m.SelectedLight(); light != nil {
				pct := brightnessFromKey(msg.String())
				light.State.Bri = briFromPct(pct)
				cmd := models.EmptyCommand().WithBri(light.State.Bri)
				if !light.State.On {
					light.State.On = true
					cmd = cmd.WithOn(true)
				}
				cmds = append(cmds, setStateCmd(ctrl, light.ID, cmd))
			}

		case "[", "]":
			if light := m.colorLight(); light != nil {
				delta := hueStep
				if msg.String() == "[" {
					delta = -hueStep
				}
				light.State.Hue = uint16((int(light.State.Hue) + delta + 65536) % 65536)
				light.State.ColorMode = string(models.ColorModeHS)
				cmds = append(cmds, setStateCmd(ctrl, light.ID, models.EmptyCommand().WithHue(light.State.Hue)))
			}

		case "-", "=":
			if light := m.colorLight(); light != nil {
				delta := satStep
				if msg.String() == "-" {
					delta = -satStep
				}
				light.State.Sat = uint8(max(0, min(254, int(light.State.Sat)+delta)))
				light.State.ColorMode = string(models.ColorModeHS)
				cmds = append(cmds, setStateCmd(ctrl, light.ID, models.EmptyCommand().WithSat(light.State.Sat)))
			}

		case "r":
			m.loading = true
			cmds = append(cmds, func() tea.Msg { return messages.RefreshMsg{} })

		case "p":
			cmds = append(cmds, func() tea.Msg { return messages.ForgetBridgeMsg{} })
		}

	case messages.LightsFetchedMsg:
		m.SetLights(msg.Lights)

	case messages.LightEventsMsg:
		m.ApplyEvents(msg.Events)

	case messages.LightStateSetMsg:
		m.err = nil
		m.status = fmt.Sprintf("Light %d: %s", msg.LightID, describeChanges(msg.Result))
		m.applyChanges(msg.LightID, msg.Result)

	case messages.ErrorMsg:
		m.err = msg.Err
		m.loading = false

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// colorLight returns the selection when it is on and supports color,
// setting a status message otherwise
func (m *MainModel) colorLight() *models.IdentifiedLight {
	light := m.SelectedLight()
	switch {
	case light == nil:
		return nil
	case light.State.ColorMode != string(models.ColorModeHS) && light.State.ColorMode != string(models.ColorModeXY):
		m.status = fmt.Sprintf("%s has no hue/saturation", light.Name)
		return nil
	case !light.State.On:
		m.status = fmt.Sprintf("%s is off", light.Name)
		return nil
	}
	return light
}

// applyChanges writes the values the bridge confirmed back into the list
func (m *MainModel) applyChanges(lightID int, result *api.StateResult) {
	if result == nil {
		return
	}
	var light *models.IdentifiedLight
	for i := range m.lights {
		if m.lights[i].ID == lightID {
			light = &m.lights[i]
			break
		}
	}
	if light == nil {
		return
	}

	prefix := fmt.Sprintf("/lights/%d/state/", lightID)
	for key, value := range result.Changes {
		field, ok := strings.CutPrefix(key, prefix)
		if !ok {
			continue
		}
		if field == "on" {
			if on, ok := value.(bool); ok {
				light.State.On = on
			}
			continue
		}

		n, ok := value.(json.Number)
		if !ok {
			continue
		}
		v, err := n.Int64()
		if err != nil || v < 0 {
			continue
		}
		switch field {
		case "bri":
			light.State.Bri = uint8(min(v, 255))
		case "hue":
			light.State.Hue = uint16(min(v, 65535))
		case "sat":
			light.State.Sat = uint8(min(v, 255))
		}
	}
}

func describeChanges(result *api.StateResult) string {
	if result == nil || len(result.Changes) == 0 {
		return "no change"
	}
	parts := make([]string, 0, len(result.Changes))
	for key, value := range result.Changes {
		parts = append(parts, fmt.Sprintf("%s=%v", key[strings.LastIndex(key, "/")+1:], value))
	}
	sort.Strings(parts)
	return strings.Join(parts, " ")
}

// View renders the main screen
func (m MainModel) View() string {
	var b strings.Builder

	status := "Connected to " + m.host
	if m.loading {
		status = "Loading..."
	}
	b.WriteString(components.RenderHeader(m.width, status, m.loading))
	b.WriteString("\n\n")

	contentWidth := m.width
	panelWidth := 0
	showPanel := m.width >= 80
	if showPanel {
		panelWidth = max(30, min(45, m.width*30/100))
		contentWidth = m.width - panelWidth - 3
	}

	var content strings.Builder
	visible := m.visibleLines()
	endIdx := min(len(m.lights), m.scrollOffset+visible)

	if m.scrollOffset > 0 {
		content.WriteString(styles.StyleTextMuted.Render(fmt.Sprintf("  ↑ %d more above", m.scrollOffset)))
		content.WriteString("\n")
	}
	for idx := m.scrollOffset; idx < endIdx; idx++ {
		content.WriteString(components.RenderLightRow(m.lights[idx], idx == m.selected, contentWidth))
		content.WriteString("\n")
	}
	if endIdx < len(m.lights) {
		content.WriteString(styles.StyleTextMuted.Render(fmt.Sprintf("  ↓ %d more below", len(m.lights)-endIdx)))
		content.WriteString("\n")
	}

	if len(m.lights) == 0 {
		if m.loading {
			content.WriteString(fmt.Sprintf("  %s Loading lights...", m.spinner.View()))
		} else {
			content.WriteString(styles.StyleTextMuted.Render("  No lights found"))
		}
		content.WriteString("\n")
	}

	contentHeight := max(3, m.height-4)
	contentStyle := lipgloss.NewStyle().Height(contentHeight).MaxHeight(contentHeight)

	if light := m.lightForPanel(); showPanel && light != nil {
		contentStyle = contentStyle.Width(contentWidth)
		panel := components.RenderLightDetail(*light, panelWidth-4)
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, contentStyle.Render(content.String()), "  ", panel))
	} else {
		b.WriteString(contentStyle.Render(content.String()))
	}

	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n")
	b.WriteString(m.renderHelp())

	return b.String()
}

func (m MainModel) lightForPanel() *models.IdentifiedLight {
	if m.selected < 0 || m.selected >= len(m.lights) {
		return nil
	}
	return &m.lights[m.selected]
}

func (m MainModel) renderStatusBar() string {
	if m.err != nil {
		return styles.StyleError.Render("✗ " + errorText(m.err))
	}

	on := 0
	for _, l := range m.lights {
		if l.State.On {
			on++
		}
	}
	status := fmt.Sprintf("%d/%d lights on", on, len(m.lights))
	if m.status != "" {
		status += " • " + m.status
	}
	return styles.StyleTextMuted.Render(status)
}

// errorText shortens the errors users are most likely to hit
func errorText(err error) string {
	var be *api.BridgeError
	if errors.As(err, &be) {
		switch be.Code {
		case api.ErrorCodeUnauthorizedUser:
			return "bridge no longer knows this app, press p to pair again"
		case api.ErrorCodeDeviceIsOff:
			return "light is off"
		}
	}
	if api.IsRetryable(err) {
		return "bridge unreachable: " + err.Error()
	}
	return err.Error()
}

func (m MainModel) renderHelp() string {
	keys := []string{
		styles.StyleHelpKey.Render("↑↓") + " nav",
		styles.StyleHelpKey.Render("space") + " toggle",
		styles.StyleHelpKey.Render("←→") + " dim",
		styles.StyleHelpKey.Render("1-0") + " level",
		styles.StyleHelpKey.Render("[]") + " hue",
		styles.StyleHelpKey.Render("-/=") + " sat",
		styles.StyleHelpKey.Render("r") + " refresh",
		styles.StyleHelpKey.Render("p") + " re-pair",
		styles.StyleHelpKey.Render("q") + " quit",
	}

	if m.width < 60 {
		keys = []string{
			styles.StyleHelpKey.Render("↑↓") + " nav",
			styles.StyleHelpKey.Render("space") + " toggle",
			styles.StyleHelpKey.Render("q") + " quit",
		}
	}

	return styles.StyleHelp.Render(strings.Join(keys, "  "))
}

// setStateCmd sends cmd to one light
func setStateCmd(ctrl api.LightController, lightID int, cmd models.CommandLight) tea.Cmd {
	return func() tea.Msg {
		if ctrl == nil {
			return nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		result, err := ctrl.SetLightState(ctx, lightID, cmd)
		if err != nil {
			return messages.ErrorMsg{Err: fmt.Errorf("light %d: %w", lightID, err)}
		}
		return messages.LightStateSetMsg{LightID: lightID, Result: result}
	}
}

// briFromPct converts a percentage to the bridge's 1-254 brightness range
func briFromPct(pct int) uint8 {
	bri := (pct*255 + 50) / 100
	return uint8(max(1, min(254, bri)))
}

func brightnessFromKey(key string) int {
	if key == "0" {
		return 100
	}
	if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
		return int(key[0]-'0') * 10
	}
	return -1
}
