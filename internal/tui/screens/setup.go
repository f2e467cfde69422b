package screens

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/angristan/hue-classic/internal/api"
	"github.com/angristan/hue-classic/internal/tui/messages"
	"github.com/angristan/hue-classic/internal/tui/styles"
)

// DeviceType identifies this app in the bridge's whitelist
const DeviceType = "hue-classic#tui"

// How long the user has to press the link button
const pairingTimeout = 30 * time.Second

// SetupState represents the current setup state
type SetupState int

const (
	StateDiscovering SetupState = iota
	StateBridgeList
	StateManualEntry
	StatePairing
	StateSuccess
	StateError
)

// SetupModel is the setup screen model
type SetupModel struct {
	state    SetupState
	bridges  []api.DiscoveredBridge
	selected int
	input    textinput.Model
	spinner  spinner.Model
	err      error
	message  string

	discoveryTimeout time.Duration
	bridgeOpts       []api.Option

	// Pairing state
	pairingHost     string
	pairingBridgeID string

	width  int
	height int
}

// NewSetupModel creates a new setup screen model. bridgeOpts are applied to
// the bridge being paired.
func NewSetupModel(discoveryTimeout time.Duration, bridgeOpts ...api.Option) SetupModel {
	ti := textinput.New()
	ti.Placeholder = "192.168.1.x"
	ti.CharLimit = 64

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.StyleSpinner

	return SetupModel{
		state:            StateDiscovering,
		input:            ti,
		spinner:          sp,
		discoveryTimeout: discoveryTimeout,
		bridgeOpts:       bridgeOpts,
	}
}

// Init initializes the setup screen
func (m SetupModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.discoverCmd(),
	)
}

// SetSize sets the terminal size
func (m *SetupModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// State returns the current setup state
func (m SetupModel) State() SetupState {
	return m.state
}

// Update handles messages
func (m SetupModel) Update(msg tea.Msg) (SetupModel, tea.Cmd) {
	var cmds []tea.Cmd
	editing := m.state == StateManualEntry

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch m.state {
		case StateBridgeList:
			switch msg.String() {
			case "up", "k":
				if m.selected > 0 {
					m.selected--
				}
			case "down", "j":
				if m.selected < len(m.bridges) {
					m.selected++
				}
			case "enter":
				if m.selected < len(m.bridges) {
					bridge := m.bridges[m.selected]
					cmds = append(cmds, m.startPairing(bridge.Host, bridge.BridgeID))
				} else {
					cmds = append(cmds, m.startManualEntry())
				}
			case "m":
				cmds = append(cmds, m.startManualEntry())
			case "r":
				m.state = StateDiscovering
				m.err = nil
				cmds = append(cmds, m.spinner.Tick, m.discoverCmd())
			case "q":
				return m, tea.Quit
			}

		case StateManualEntry:
			switch msg.String() {
			case "enter":
				host := strings.TrimSpace(m.input.Value())
				if host != "" {
					m.input.Blur()
					cmds = append(cmds, m.startPairing(host, ""))
				}
			case "esc":
				m.state = StateBridgeList
				m.input.Blur()
			}

		case StateError:
			switch msg.String() {
			case "enter", "esc":
				m.state = StateBridgeList
				m.err = nil
			case "q":
				return m, tea.Quit
			}
		}

	case BridgesDiscoveredMsg:
		m.bridges = msg.Bridges
		m.selected = 0
		m.state = StateBridgeList

	case DiscoveryErrorMsg:
		m.bridges = nil
		m.selected = 0
		m.state = StateBridgeList
		m.err = msg.Err

	case PairingSuccessMsg:
		m.state = StateSuccess
		m.message = "Successfully paired with bridge!"
		bridgeID := m.pairingBridgeID
		return m, func() tea.Msg {
			return messages.BridgeConnectedMsg{
				Bridge:   msg.Bridge,
				BridgeID: bridgeID,
			}
		}

	case PairingErrorMsg:
		m.state = StateError
		m.err = msg.Err

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	// The key that opened manual entry is not part of the address
	if editing && m.state == StateManualEntry {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *SetupModel) startManualEntry() tea.Cmd {
	m.state = StateManualEntry
	m.err = nil
	m.input.SetValue("")
	m.input.Focus()
	return textinput.Blink
}

func (m *SetupModel) startPairing(host, bridgeID string) tea.Cmd {
	m.state = StatePairing
	m.err = nil
	m.pairingHost = host
	m.pairingBridgeID = bridgeID
	return tea.Batch(m.spinner.Tick, m.pairCmd())
}

// View renders the setup screen
func (m SetupModel) View() string {
	var b strings.Builder

	header := styles.StyleHeaderGradient.Render("  Hue Classic Setup  ")
	b.WriteString(lipgloss.Place(m.width, 3, lipgloss.Center, lipgloss.Top, header))
	b.WriteString("\n\n")

	var content string
	switch m.state {
	case StateDiscovering:
		content = m.renderDiscovering()
	case StateBridgeList:
		content = m.renderBridgeList()
	case StateManualEntry:
		content = m.renderManualEntry()
	case StatePairing:
		content = m.renderPairing()
	case StateSuccess:
		content = m.renderSuccess()
	case StateError:
		content = m.renderError()
	}

	b.WriteString(lipgloss.Place(m.width, max(0, m.height-6), lipgloss.Center, lipgloss.Center, content))

	return b.String()
}

func (m SetupModel) renderDiscovering() string {
	return fmt.Sprintf("%s Searching for Hue bridges...", m.spinner.View())
}

func (m SetupModel) renderBridgeList() string {
	var b strings.Builder

	if m.err != nil {
		b.WriteString(styles.StyleError.Render("Discovery failed: "+m.err.Error()) + "\n\n")
	}

	if len(m.bridges) == 0 {
		b.WriteString(styles.StyleTextMuted.Render("No bridges found.") + "\n\n")
	} else {
		b.WriteString("Found bridges:\n\n")
		for i, bridge := range m.bridges {
			cursor := "  "
			style := styles.StyleLightName
			if i == m.selected {
				cursor = "> "
				style = styles.StyleListItemSelected
			}
			b.WriteString(cursor + style.Render(bridgeLabel(bridge)) + "\n")
		}
	}

	cursor := "  "
	style := styles.StyleLightName
	if m.selected >= len(m.bridges) {
		cursor = "> "
		style = styles.StyleListItemSelected
	}
	b.WriteString("\n" + cursor + style.Render("Enter address manually...") + "\n")

	b.WriteString("\n" + styles.StyleHelp.Render("↑/↓ navigate • enter select • r rescan • m manual • q quit"))

	return b.String()
}

func bridgeLabel(bridge api.DiscoveredBridge) string {
	switch {
	case bridge.Name != "":
		return fmt.Sprintf("%s (%s)", bridge.Host, bridge.Name)
	case len(bridge.BridgeID) >= 8:
		return fmt.Sprintf("%s (%s)", bridge.Host, bridge.BridgeID[:8])
	default:
		return bridge.Host
	}
}

func (m SetupModel) renderManualEntry() string {
	var b strings.Builder

	b.WriteString("Enter bridge address (host or host:port):\n\n")
	b.WriteString(styles.StyleInputFocused.Render(m.input.View()))
	b.WriteString("\n\n" + styles.StyleHelp.Render("enter confirm • esc back"))

	return b.String()
}

func (m SetupModel) renderPairing() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%s Pairing with %s...\n\n", m.spinner.View(), m.pairingHost))
	b.WriteString(styles.StylePrimary.Render("Press the link button on your Hue bridge"))

	return b.String()
}

func (m SetupModel) renderSuccess() string {
	return styles.StyleSuccess.Render("✓ " + m.message)
}

func (m SetupModel) renderError() string {
	text := "unknown error"
	if m.err != nil {
		text = m.err.Error()
	}
	return styles.StyleError.Render("✗ Error: "+text) + "\n\n" +
		styles.StyleHelp.Render("enter back • q quit")
}

// Commands

func (m SetupModel) discoverCmd() tea.Cmd {
	timeout := m.discoveryTimeout
	return func() tea.Msg {
		bridges, err := api.DiscoverAll(context.Background(), api.DiscoverOptions{Timeout: timeout})
		if err != nil {
			return DiscoveryErrorMsg{Err: err}
		}
		return BridgesDiscoveredMsg{Bridges: bridges}
	}
}

func (m SetupModel) pairCmd() tea.Cmd {
	host := m.pairingHost
	opts := m.bridgeOpts
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), pairingTimeout)
		defer cancel()

		bridge := api.NewBridge(host, opts...)
		authed, err := api.Pair(ctx, bridge, DeviceType, api.GenerateUsername(), api.DefaultPairingInterval)
		if err != nil {
			return PairingErrorMsg{Err: err}
		}
		return PairingSuccessMsg{Bridge: authed}
	}
}

// Messages

type BridgesDiscoveredMsg struct {
	Bridges []api.DiscoveredBridge
}

type DiscoveryErrorMsg struct {
	Err error
}

type PairingSuccessMsg struct {
	Bridge *api.AuthenticatedBridge
}

type PairingErrorMsg struct {
	Err error
}
