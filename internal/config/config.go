package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

const (
	appName  = "hue-classic"
	fileName = "config.yaml"

	DefaultTimeout          = 10 * time.Second
	DefaultDiscoveryTimeout = 5 * time.Second
	DefaultPollInterval     = 2 * time.Second
)

// BridgeConfig stores connection details for a Hue bridge
type BridgeConfig struct {
	// IP address or hostname of the bridge, optionally with a port
	Host string `yaml:"host"`
	// Whitelisted username returned by pairing
	Username string `yaml:"username"`
	// Unique bridge identifier
	BridgeID string `yaml:"bridge_id"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level string `yaml:"level,omitempty"`
	// Log file; empty discards logs since the TUI owns the terminal
	File string `yaml:"file,omitempty"`
	JSON bool   `yaml:"json,omitempty"`
}

// Config stores all application configuration
type Config struct {
	// List of configured bridges
	Bridges []BridgeConfig `yaml:"bridges"`
	// ID of the last used bridge
	LastBridgeID string `yaml:"last_bridge_id,omitempty"`
	// HTTP timeout for bridge requests
	Timeout Duration `yaml:"timeout,omitempty"`
	// How long discovery waits for mDNS and cloud answers
	DiscoveryTimeout Duration `yaml:"discovery_timeout,omitempty"`
	// Pause between two light list polls
	PollInterval Duration  `yaml:"poll_interval,omitempty"`
	Log          LogConfig `yaml:"log,omitempty"`

	path string
}

var (
	ErrBridgeNotFound = errors.New("bridge not found")
	ErrNoBridges      = errors.New("no bridges configured")
)

// Duration is a wrapper around time.Duration for YAML (un)marshalling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler for Duration
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// configDir returns the configuration directory path
func configDir() (string, error) {
	// Check XDG_CONFIG_HOME first
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, appName), nil
	}

	// Fall back to ~/.config
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// DefaultPath returns the full path to the default config file
func DefaultPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// Load reads the configuration from path, or from DefaultPath when path is
// empty. A missing file yields an empty config bound to that path.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := &Config{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values that cannot be defaulted
func (c *Config) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout.Duration())
	}
	if c.DiscoveryTimeout < 0 {
		return fmt.Errorf("discovery_timeout must not be negative, got %s", c.DiscoveryTimeout.Duration())
	}
	if c.PollInterval < 0 {
		return fmt.Errorf("poll_interval must not be negative, got %s", c.PollInterval.Duration())
	}
	if _, err := c.Log.GetLevel(); err != nil {
		return err
	}
	for i, b := range c.Bridges {
		if strings.TrimSpace(b.Host) == "" {
			return fmt.Errorf("bridges[%d]: host is required", i)
		}
	}
	return nil
}

// Path returns the file Save writes to
func (c *Config) Path() string {
	return c.path
}

// Save writes the configuration to the file it was loaded from
func (c *Config) Save() error {
	path := c.path
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
		c.path = p
	}

	// Ensure config directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	// The file holds bridge usernames, which grant full control
	return os.WriteFile(path, data, 0600)
}

// GetTimeout returns the bridge request timeout with default
func (c *Config) GetTimeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout.Duration()
}

// GetDiscoveryTimeout returns the discovery timeout with default
func (c *Config) GetDiscoveryTimeout() time.Duration {
	if c.DiscoveryTimeout <= 0 {
		return DefaultDiscoveryTimeout
	}
	return c.DiscoveryTimeout.Duration()
}

// GetPollInterval returns the light poll interval with default
func (c *Config) GetPollInterval() time.Duration {
	if c.PollInterval <= 0 {
		return DefaultPollInterval
	}
	return c.PollInterval.Duration()
}

// GetLevel parses the configured level, defaulting to info
func (l LogConfig) GetLevel() (zerolog.Level, error) {
	if l.Level == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(l.Level))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", l.Level, err)
	}
	return level, nil
}

// AddBridge adds or updates a bridge configuration
func (c *Config) AddBridge(bridge BridgeConfig) {
	// Check if bridge already exists and update it
	for i, b := range c.Bridges {
		if b.BridgeID == bridge.BridgeID {
			c.Bridges[i] = bridge
			return
		}
	}

	c.Bridges = append(c.Bridges, bridge)
}

// GetBridge returns the bridge configuration by ID
func (c *Config) GetBridge(bridgeID string) (*BridgeConfig, error) {
	for i := range c.Bridges {
		if c.Bridges[i].BridgeID == bridgeID {
			return &c.Bridges[i], nil
		}
	}
	return nil, ErrBridgeNotFound
}

// GetLastBridge returns the last used bridge or the first available
func (c *Config) GetLastBridge() (*BridgeConfig, error) {
	if len(c.Bridges) == 0 {
		return nil, ErrNoBridges
	}

	if c.LastBridgeID != "" {
		bridge, err := c.GetBridge(c.LastBridgeID)
		if err == nil {
			return bridge, nil
		}
	}

	return &c.Bridges[0], nil
}

// RemoveBridge removes a bridge by ID
func (c *Config) RemoveBridge(bridgeID string) {
	for i, b := range c.Bridges {
		if b.BridgeID == bridgeID {
			c.Bridges = append(c.Bridges[:i], c.Bridges[i+1:]...)
			if c.LastBridgeID == bridgeID {
				c.LastBridgeID = ""
			}
			return
		}
	}
}

// HasBridges returns true if at least one bridge is configured
func (c *Config) HasBridges() bool {
	return len(c.Bridges) > 0
}
