package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/angristan/hue-classic/internal/api"
	"github.com/angristan/hue-classic/internal/config"
	"github.com/angristan/hue-classic/internal/tui"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to configuration file (default $XDG_CONFIG_HOME/hue-classic/config.yaml)")
	flag.StringVar(&configPath, "c", "", "Path to configuration file (shorthand)")
	demoMode := flag.Bool("demo", os.Getenv("HUE_DEMO") != "", "Run against a built-in emulated bridge")
	logLevel := flag.String("log-level", "", "Override the configured log level")
	metricsAddr := flag.String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. localhost:9101)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	closeLog, err := setupLogging(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error setting up logging: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	var transport api.Transport = api.NewHTTPTransport(cfg.GetTimeout())
	if *metricsAddr != "" {
		reg := prometheus.NewRegistry()
		instrumented, err := api.NewInstrumentedTransport(transport, reg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error registering metrics: %v\n", err)
			os.Exit(1)
		}
		transport = instrumented
		go serveMetrics(*metricsAddr, reg)
	}

	log.Info().Str("config", cfg.Path()).Bool("demo", *demoMode).Msg("Starting hue-classic")

	model := tui.NewModel(cfg, tui.Options{
		Demo:          *demoMode,
		BridgeOptions: []api.Option{api.WithTransport(transport)},
	})
	p := tea.NewProgram(model, tea.WithAltScreen())

	final, err := p.Run()
	if m, ok := final.(tui.Model); ok {
		m.Close()
	}
	if err != nil {
		log.Error().Err(err).Msg("Program exited with error")
		fmt.Fprintf(os.Stderr, "Error running app: %v\n", err)
		os.Exit(1)
	}
}

// setupLogging points the global logger at the configured file. The TUI
// owns the terminal, so without a file logs are discarded.
func setupLogging(cfg config.LogConfig) (func(), error) {
	zerolog.TimeFieldFormat = time.RFC3339

	level, err := cfg.GetLevel()
	if err != nil {
		return nil, err
	}
	zerolog.SetGlobalLevel(level)

	var out io.Writer = io.Discard
	closeFn := func() {}
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = f
		closeFn = func() { _ = f.Close() }
	}

	if cfg.JSON {
		log.Logger = zerolog.New(out).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: "2006-01-02T15:04:05.000Z07:00",
			NoColor:    true,
		})
	}
	return closeFn, nil
}

func serveMetrics(addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Info().Str("addr", addr).Msg("Serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("Metrics server stopped")
	}
}
