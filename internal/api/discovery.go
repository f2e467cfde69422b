package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/mdns"
	"github.com/rs/zerolog/log"
)

// CloudDiscoveryURL is the N-UPnP endpoint listing bridges on the
// caller's public IP
const CloudDiscoveryURL = "https://discovery.meethue.com"

// DefaultDiscoveryTimeout bounds a discovery round
const DefaultDiscoveryTimeout = 5 * time.Second

// mDNS hands over its entries only once the listen window closes, so the
// window ends this long before the round's deadline
const mdnsMargin = 250 * time.Millisecond

// mdnsWindow is the mDNS listen time inside a round of length timeout
func mdnsWindow(timeout time.Duration) time.Duration {
	if w := timeout - mdnsMargin; w >= timeout/2 {
		return w
	}
	return timeout / 2
}

// DiscoveredBridge represents a Hue bridge found during discovery
type DiscoveredBridge struct {
	// IP address of the bridge
	Host string
	// Unique bridge identifier
	BridgeID string
	// Model ID (e.g., "BSB002")
	ModelID string
	// Name from mDNS
	Name string
}

// DiscoverOptions selects and bounds the discovery methods
type DiscoverOptions struct {
	// Timeout for the whole round; DefaultDiscoveryTimeout when zero
	Timeout time.Duration
	// CloudURL overrides CloudDiscoveryURL
	CloudURL string
	// DisableMDNS skips the local mDNS query
	DisableMDNS bool
	// DisableCloud skips the cloud lookup
	DisableCloud bool
	// BridgeOptions are applied to the returned Bridge
	BridgeOptions []Option
}

// Discover returns a Bridge for the first bridge found, or
// ErrNoBridgeFound. Retrying is left to the caller.
func Discover(ctx context.Context, opts DiscoverOptions) (*Bridge, error) {
	bridges, err := DiscoverAll(ctx, opts)
	if len(bridges) == 0 {
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoBridgeFound, err)
		}
		return nil, ErrNoBridgeFound
	}

	log.Info().Str("host", bridges[0].Host).Str("bridge_id", bridges[0].BridgeID).Msg("Discovered bridge")
	return NewBridge(bridges[0].Host, opts.BridgeOptions...), nil
}

// DiscoverMDNS discovers Hue bridges on the local network using mDNS. It
// listens for timeout, cut short to end before ctx's deadline.
func DiscoverMDNS(ctx context.Context, timeout time.Duration) ([]DiscoveredBridge, error) {
	if timeout <= 0 {
		timeout = DefaultDiscoveryTimeout
	}
	if deadline, ok := ctx.Deadline(); ok {
		if left := mdnsWindow(time.Until(deadline)); left < timeout {
			timeout = left
		}
	}
	if timeout <= 0 {
		return nil, context.DeadlineExceeded
	}

	var bridges []DiscoveredBridge
	var mu sync.Mutex
	done := make(chan struct{})

	entriesCh := make(chan *mdns.ServiceEntry, 10)

	go func() {
		defer close(done)
		for entry := range entriesCh {
			bridge := DiscoveredBridge{
				Name: entry.Name,
			}
			if entry.AddrV4 != nil {
				bridge.Host = entry.AddrV4.String()
			}

			// bridgeid and modelid come as TXT records
			for _, txt := range entry.InfoFields {
				if strings.HasPrefix(txt, "bridgeid=") {
					bridge.BridgeID = strings.TrimPrefix(txt, "bridgeid=")
				}
				if strings.HasPrefix(txt, "modelid=") {
					bridge.ModelID = strings.TrimPrefix(txt, "modelid=")
				}
			}

			if bridge.Name == "" && entry.Host != "" {
				bridge.Name = strings.TrimSuffix(entry.Host, ".")
			}
			if bridge.Host == "" {
				continue
			}

			mu.Lock()
			bridges = append(bridges, bridge)
			mu.Unlock()
		}
	}()

	params := mdns.DefaultParams("_hue._tcp")
	params.Entries = entriesCh
	params.Timeout = timeout
	params.DisableIPv6 = true

	err := mdns.Query(params)
	close(entriesCh)
	<-done

	if err != nil {
		return bridges, fmt.Errorf("mDNS query failed: %w", err)
	}

	return bridges, nil
}

// nupnpResponse is one entry of the cloud discovery answer
type nupnpResponse struct {
	ID                string `json:"id"`
	InternalIPAddress string `json:"internalipaddress"`
	Port              int    `json:"port"`
}

// DiscoverCloud asks the cloud discovery endpoint at url for bridges
func DiscoverCloud(ctx context.Context, url string, timeout time.Duration) (bridges []DiscoveredBridge, err error) {
	client := &http.Client{Timeout: timeout}

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cloud discovery request failed: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close response body: %w", cerr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cloud discovery returned status %d", resp.StatusCode)
	}

	var results []nupnpResponse
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	result := make([]DiscoveredBridge, 0, len(results))
	for _, r := range results {
		if r.InternalIPAddress == "" {
			continue
		}
		host := r.InternalIPAddress
		if r.Port != 0 && r.Port != 80 && r.Port != 443 {
			host = fmt.Sprintf("%s:%d", host, r.Port)
		}
		result = append(result, DiscoveredBridge{
			Host:     host,
			BridgeID: r.ID,
		})
	}

	return result, nil
}

// DiscoverAll runs the enabled discovery methods concurrently and merges
// their results, deduplicated by bridge ID (or host when unknown)
func DiscoverAll(ctx context.Context, opts DiscoverOptions) ([]DiscoveredBridge, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultDiscoveryTimeout
	}
	cloudURL := opts.CloudURL
	if cloudURL == "" {
		cloudURL = CloudDiscoveryURL
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		bridges []DiscoveredBridge
		err     error
		source  string
	}

	results := make(chan result, 2)
	pending := 0

	if !opts.DisableMDNS {
		pending++
		go func() {
			bridges, err := DiscoverMDNS(ctx, mdnsWindow(timeout))
			results <- result{bridges: bridges, err: err, source: "mDNS"}
		}()
	}

	if !opts.DisableCloud {
		pending++
		go func() {
			bridges, err := DiscoverCloud(ctx, cloudURL, timeout)
			results <- result{bridges: bridges, err: err, source: "cloud"}
		}()
	}

	var allBridges []DiscoveredBridge
	seen := make(map[string]bool)
	var lastErr error

	for received := 0; received < pending; {
		select {
		case r := <-results:
			received++
			if r.err != nil {
				log.Debug().Err(r.err).Str("source", r.source).Msg("Discovery method failed")
				lastErr = r.err
				continue
			}
			for _, b := range r.bridges {
				key := b.Host
				if b.BridgeID != "" {
					key = strings.ToLower(b.BridgeID)
				}
				if !seen[key] {
					seen[key] = true
					allBridges = append(allBridges, b)
				}
			}
		case <-ctx.Done():
			// keep whichever method answered in time
			if len(allBridges) > 0 {
				return allBridges, nil
			}
			return nil, ctx.Err()
		}
	}

	if len(allBridges) == 0 && lastErr != nil {
		return nil, lastErr
	}

	return allBridges, nil
}
