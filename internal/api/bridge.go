package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/angristan/hue-classic/internal/models"
)

// Usernames outside this length range are rejected by the bridge
const (
	MinUsernameLength = 10
	MaxUsernameLength = 40
)

// LightController is what the UI needs from an authenticated bridge.
// Demo mode and a real bridge both satisfy it through AuthenticatedBridge.
type LightController interface {
	GetAllLights(ctx context.Context) ([]models.IdentifiedLight, error)
	SetLightState(ctx context.Context, lightID int, cmd models.CommandLight) (*StateResult, error)
	Host() string
}

// Compile-time check that AuthenticatedBridge implements LightController
var _ LightController = (*AuthenticatedBridge)(nil)

// Option configures a Bridge
type Option func(*Bridge)

// WithTransport replaces the default HTTP transport
func WithTransport(t Transport) Option {
	return func(b *Bridge) {
		b.transport = t
	}
}

// WithTimeout sets the per-request timeout of the default HTTP transport.
// It has no effect together with WithTransport.
func WithTimeout(timeout time.Duration) Option {
	return func(b *Bridge) {
		b.timeout = timeout
	}
}

// Bridge is a bridge known only by its address. It can register users
// but cannot touch lights until a username is attached with WithUser.
type Bridge struct {
	host      string
	transport Transport
	timeout   time.Duration
}

// NewBridge creates an unauthenticated bridge for host ("ip" or "ip:port")
func NewBridge(host string, opts ...Option) *Bridge {
	b := &Bridge{host: host}
	for _, opt := range opts {
		opt(b)
	}
	if b.transport == nil {
		b.transport = NewHTTPTransport(b.timeout)
	}
	return b
}

// Host returns the bridge address
func (b *Bridge) Host() string {
	return b.host
}

// WithUser returns an authenticated bridge for username. The receiver is
// left unchanged and no request is made.
func (b *Bridge) WithUser(username string) *AuthenticatedBridge {
	return &AuthenticatedBridge{
		Bridge:   *b,
		username: username,
	}
}

// Registration is a successful user registration
type Registration struct {
	// Username issued by the bridge; empty if the bridge did not echo one
	Username string
	// Raw decoded response
	Raw []any
}

// registerRequest is the body sent to create a user
type registerRequest struct {
	DeviceType string `json:"devicetype"`
	Username   string `json:"username"`
}

// RegisterUser asks the bridge to create username for deviceType. The
// bridge only accepts this shortly after its link button was pressed and
// answers with ErrorCodeLinkButtonNotPressed otherwise.
func (b *Bridge) RegisterUser(ctx context.Context, deviceType, username string) (*Registration, error) {
	if n := len(username); n < MinUsernameLength || n > MaxUsernameLength {
		return nil, &ValidationError{
			Field:  "username",
			Reason: fmt.Sprintf("must be between %d and %d characters, got %d", MinUsernameLength, MaxUsernameLength, n),
		}
	}

	body, err := json.Marshal(registerRequest{DeviceType: deviceType, Username: username})
	if err != nil {
		return nil, err
	}

	resp, err := b.do(ctx, "POST", b.url("/api"), body, "")
	if err != nil {
		return nil, err
	}

	raw, err := parseWriteResult(resp.Body)
	if err != nil {
		return nil, err
	}

	reg := &Registration{Raw: raw}
	if items := successItems(raw); len(items) > 0 {
		reg.Username, _ = items[0]["username"].(string)
	}

	log.Info().Str("host", b.host).Str("devicetype", deviceType).Msg("Registered bridge user")
	return reg, nil
}

func (b *Bridge) url(path string) string {
	return fmt.Sprintf("http://%s%s", b.host, path)
}

// do sends one request and turns transport failures and non-2xx statuses
// into TransportError. secret is masked in logs and errors.
func (b *Bridge) do(ctx context.Context, method, url string, body []byte, secret string) (*Response, error) {
	shown := url
	if secret != "" {
		shown = strings.ReplaceAll(url, secret, "<username>")
	}

	start := time.Now()
	resp, err := b.transport.Do(ctx, method, url, body)
	if err != nil {
		log.Debug().Err(err).Str("method", method).Str("url", shown).Msg("Bridge request failed")
		return nil, &TransportError{Method: method, URL: shown, Err: err}
	}

	log.Debug().
		Str("method", method).
		Str("url", shown).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("Bridge request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{Method: method, URL: shown, StatusCode: resp.StatusCode}
	}
	return resp, nil
}

// AuthenticatedBridge is a bridge plus the username that authorizes
// light operations
type AuthenticatedBridge struct {
	Bridge
	username string
}

// Username returns the attached username
func (b *AuthenticatedBridge) Username() string {
	return b.username
}

// GetAllLights lists every light the bridge knows, ordered by id
func (b *AuthenticatedBridge) GetAllLights(ctx context.Context) ([]models.IdentifiedLight, error) {
	url := b.url(fmt.Sprintf("/api/%s/lights", b.username))
	resp, err := b.do(ctx, "GET", url, nil, b.username)
	if err != nil {
		return nil, fmt.Errorf("failed to get lights: %w", err)
	}

	lights, err := parseLights(resp.Body)
	if err != nil {
		log.Warn().Err(err).Str("host", b.host).Msg("Unusable lights response")
		return nil, fmt.Errorf("failed to get lights: %w", err)
	}
	return lights, nil
}

// StateResult is a successful state change
type StateResult struct {
	// Address -> new value for every change the bridge confirmed,
	// e.g. "/lights/1/state/on" -> true
	Changes map[string]any
	// Raw decoded response
	Raw []any
}

// SetLightState applies cmd to light lightID. An empty command is still
// sent, as {}.
func (b *AuthenticatedBridge) SetLightState(ctx context.Context, lightID int, cmd models.CommandLight) (*StateResult, error) {
	body, err := json.Marshal(cmd)
	if err != nil {
		return nil, err
	}

	url := b.url(fmt.Sprintf("/api/%s/lights/%d/state", b.username, lightID))
	resp, err := b.do(ctx, "PUT", url, body, b.username)
	if err != nil {
		return nil, fmt.Errorf("failed to set light state: %w", err)
	}

	raw, err := parseWriteResult(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to set light state: %w", err)
	}

	result := &StateResult{Changes: make(map[string]any), Raw: raw}
	for _, item := range successItems(raw) {
		for address, value := range item {
			result.Changes[address] = value
		}
	}
	return result, nil
}
