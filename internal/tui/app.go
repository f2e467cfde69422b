package tui

import (
	"context"
	"net/http/httptest"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/angristan/hue-classic/internal/api"
	"github.com/angristan/hue-classic/internal/config"
	"github.com/angristan/hue-classic/internal/tui/messages"
	"github.com/angristan/hue-classic/internal/tui/screens"
)

// Screen represents the current screen state
type Screen int

const (
	ScreenSetup Screen = iota
	ScreenMain
)

const fetchTimeout = 10 * time.Second

// Options tunes how the app talks to bridges
type Options struct {
	// Demo serves an in-process emulated bridge instead of a real one
	Demo bool
	// BridgeOptions are applied to every bridge the app creates
	BridgeOptions []api.Option
}

// Model is the main application model
type Model struct {
	config *config.Config
	opts   Options

	// Bridge connection
	bridge   api.LightController
	bridgeID string
	watcher  *api.LightWatcher
	events   chan []api.Event
	waiting  bool

	demoMode   bool
	demoServer *httptest.Server

	screen Screen

	setupScreen screens.SetupModel
	mainScreen  screens.MainModel

	width  int
	height int

	err error

	ctx    context.Context
	cancel context.CancelFunc
}

// NewModel creates a new application model
func NewModel(cfg *config.Config, opts Options) Model {
	ctx, cancel := context.WithCancel(context.Background())

	m := Model{
		config:   cfg,
		opts:     opts,
		demoMode: opts.Demo,
		events:   make(chan []api.Event, 1),
		ctx:      ctx,
		cancel:   cancel,
	}

	switch {
	case opts.Demo:
		m.demoServer = api.NewDemoBridge().Start()
		m.bridge = api.NewBridge(api.HostOf(m.demoServer), opts.BridgeOptions...).WithUser(api.DemoUsername)
		m.screen = ScreenMain
	case cfg.HasBridges():
		bridgeCfg, _ := cfg.GetLastBridge()
		m.bridge = api.NewBridge(bridgeCfg.Host, opts.BridgeOptions...).WithUser(bridgeCfg.Username)
		m.bridgeID = bridgeCfg.BridgeID
		m.screen = ScreenMain
	default:
		m.screen = ScreenSetup
	}

	host := ""
	if m.bridge != nil {
		host = m.bridge.Host()
	}

	m.setupScreen = screens.NewSetupModel(cfg.GetDiscoveryTimeout(), opts.BridgeOptions...)
	m.mainScreen = screens.NewMainModel(host)

	return m
}

// Init initializes the application
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.SetWindowTitle("Hue Classic"),
	}

	switch m.screen {
	case ScreenSetup:
		cmds = append(cmds, m.setupScreen.Init())
	case ScreenMain:
		cmds = append(cmds, m.mainScreen.Init(), m.fetchLightsCmd())
	}

	return tea.Batch(cmds...)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.mainScreen.SetSize(msg.Width, msg.Height)
		m.setupScreen.SetSize(msg.Width, msg.Height)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.Close()
			return m, tea.Quit
		case "q":
			if m.screen == ScreenMain {
				m.Close()
				return m, tea.Quit
			}
		}

	case messages.BridgeConnectedMsg:
		m.bridge = msg.Bridge

		bridgeID := msg.BridgeID
		if bridgeID == "" {
			bridgeID = msg.Bridge.Host()
		}
		m.config.AddBridge(config.BridgeConfig{
			Host:     msg.Bridge.Host(),
			Username: msg.Bridge.Username(),
			BridgeID: bridgeID,
		})
		m.config.LastBridgeID = bridgeID
		m.bridgeID = bridgeID
		if err := m.config.Save(); err != nil {
			log.Error().Err(err).Str("path", m.config.Path()).Msg("Failed to save config")
			m.err = err
		}

		m.screen = ScreenMain
		m.mainScreen.SetHost(msg.Bridge.Host())
		m.mainScreen.SetLoading(true)
		cmds = append(cmds, m.mainScreen.Init(), m.fetchLightsCmd())

	case messages.LightsFetchedMsg:
		if m.watcher == nil && m.bridge != nil {
			m.watcher = api.NewLightWatcher(m.bridge, m.config.GetPollInterval(), m.forwardEvents)
			m.watcher.Start(m.ctx)
			// one waiter serves every watcher, it re-arms itself
			if !m.waiting {
				m.waiting = true
				cmds = append(cmds, waitForEvents(m.events))
			}
		}

	case messages.LightEventsMsg:
		cmds = append(cmds, waitForEvents(m.events))

	case messages.ErrorMsg:
		log.Debug().Err(msg.Err).Msg("Command failed")
		m.err = msg.Err

	case messages.RefreshMsg:
		cmds = append(cmds, m.fetchLightsCmd())

	case messages.ForgetBridgeMsg:
		if m.demoMode {
			break
		}
		cmd := m.forgetBridge()
		return m, cmd
	}

	switch m.screen {
	case ScreenSetup:
		var cmd tea.Cmd
		m.setupScreen, cmd = m.setupScreen.Update(msg)
		cmds = append(cmds, cmd)

	case ScreenMain:
		var cmd tea.Cmd
		m.mainScreen, cmd = m.mainScreen.Update(msg, m.bridge)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// View renders the current screen
func (m Model) View() string {
	switch m.screen {
	case ScreenSetup:
		return m.setupScreen.View()
	case ScreenMain:
		return m.mainScreen.View()
	default:
		return "Unknown screen"
	}
}

// forgetBridge removes the current bridge from the config and goes back
// to setup
func (m *Model) forgetBridge() tea.Cmd {
	if m.watcher != nil {
		m.watcher.Stop()
		m.watcher = nil
	}

	if m.bridgeID != "" {
		m.config.RemoveBridge(m.bridgeID)
		if err := m.config.Save(); err != nil {
			log.Error().Err(err).Str("path", m.config.Path()).Msg("Failed to save config")
			m.err = err
		}
	}
	log.Info().Str("bridge_id", m.bridgeID).Msg("Forgot bridge")

	m.bridge = nil
	m.bridgeID = ""
	m.screen = ScreenSetup
	m.mainScreen = screens.NewMainModel("")
	m.mainScreen.SetSize(m.width, m.height)
	m.setupScreen = screens.NewSetupModel(m.config.GetDiscoveryTimeout(), m.opts.BridgeOptions...)
	m.setupScreen.SetSize(m.width, m.height)

	return m.setupScreen.Init()
}

// Close stops background polling and the demo bridge. It is safe to call
// more than once.
func (m Model) Close() {
	if m.watcher != nil {
		m.watcher.Stop()
	}
	m.cancel()
	if m.demoServer != nil {
		m.demoServer.Close()
	}
}

// forwardEvents hands watcher events to the program, giving up when the
// app is closing
func (m Model) forwardEvents(events []api.Event) {
	select {
	case m.events <- events:
	case <-m.ctx.Done():
	}
}

// waitForEvents delivers the next batch of watcher events as a message
func waitForEvents(ch <-chan []api.Event) tea.Cmd {
	return func() tea.Msg {
		return messages.LightEventsMsg{Events: <-ch}
	}
}

// fetchLightsCmd creates a command to fetch all lights from the bridge
func (m Model) fetchLightsCmd() tea.Cmd {
	return func() tea.Msg {
		if m.bridge == nil {
			return messages.ErrorMsg{Err: config.ErrNoBridges}
		}

		ctx, cancel := context.WithTimeout(m.ctx, fetchTimeout)
		defer cancel()

		lights, err := m.bridge.GetAllLights(ctx)
		if err != nil {
			return messages.ErrorMsg{Err: err}
		}
		return messages.LightsFetchedMsg{Lights: lights}
	}
}
