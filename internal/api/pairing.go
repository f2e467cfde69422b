package api

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrPairingTimeout is returned when the link button was not pressed in time
var ErrPairingTimeout = errors.New("pairing timeout - link button was not pressed")

// DefaultPairingInterval is the pause between registration attempts
const DefaultPairingInterval = time.Second

// GenerateUsername returns a random 32 character username, inside the
// length range the bridge accepts
func GenerateUsername() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Pair registers username on bridge, retrying every interval while the
// bridge reports that its link button has not been pressed. It stops at
// the first success, the first other error, or when ctx ends.
func Pair(ctx context.Context, bridge *Bridge, deviceType, username string, interval time.Duration) (*AuthenticatedBridge, error) {
	if interval <= 0 {
		interval = DefaultPairingInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		reg, err := bridge.RegisterUser(ctx, deviceType, username)
		switch {
		case err == nil:
			if reg.Username != "" {
				username = reg.Username
			}
			return bridge.WithUser(username), nil
		case IsBridgeError(err, ErrorCodeLinkButtonNotPressed):
			log.Debug().Str("host", bridge.Host()).Msg("Waiting for link button")
		default:
			return nil, err
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, ErrPairingTimeout
			}
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
