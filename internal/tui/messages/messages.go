package messages

import (
	"github.com/angristan/hue-classic/internal/api"
	"github.com/angristan/hue-classic/internal/models"
)

// BridgeConnectedMsg indicates a bridge was paired
type BridgeConnectedMsg struct {
	Bridge *api.AuthenticatedBridge
	// Empty when the host was entered manually
	BridgeID string
}

// LightsFetchedMsg contains the full light list, sorted by id
type LightsFetchedMsg struct {
	Lights []models.IdentifiedLight
}

// LightEventsMsg carries the changes seen by one watcher poll
type LightEventsMsg struct {
	Events []api.Event
}

// LightStateSetMsg reports a state change the bridge accepted
type LightStateSetMsg struct {
	LightID int
	Result  *api.StateResult
}

// ErrorMsg indicates an error occurred
type ErrorMsg struct {
	Err error
}

// RefreshMsg requests a full light list refresh
type RefreshMsg struct{}

// ForgetBridgeMsg drops the current bridge from the config and returns to
// setup so it can be paired again
type ForgetBridgeMsg struct{}
