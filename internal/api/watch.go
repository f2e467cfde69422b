package api

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/angristan/hue-classic/internal/models"
)

// EventType represents the kind of change a poll observed
type EventType string

const (
	EventTypeAdd    EventType = "add"
	EventTypeUpdate EventType = "update"
	EventTypeDelete EventType = "delete"
)

// DefaultWatchInterval is the pause between two polls
const DefaultWatchInterval = 2 * time.Second

// Event is a change between two consecutive light listings
type Event struct {
	Type    EventType
	LightID int
	// New light value; nil for EventTypeDelete
	Light *models.Light
}

// EventHandler is called with the changes of one poll, ordered by light id
type EventHandler func(events []Event)

// LightWatcher polls a bridge and reports lights that appeared, changed or
// disappeared. The bridge has no push channel on /api, so this is the only
// way to follow changes made by other apps or switches.
type LightWatcher struct {
	ctrl     LightController
	handler  EventHandler
	interval time.Duration

	mu      sync.Mutex
	done    chan struct{}
	running bool
	last    map[int]models.Light
}

// NewLightWatcher creates a watcher polling ctrl every interval
func NewLightWatcher(ctrl LightController, interval time.Duration, handler EventHandler) *LightWatcher {
	if interval <= 0 {
		interval = DefaultWatchInterval
	}
	return &LightWatcher{
		ctrl:     ctrl,
		handler:  handler,
		interval: interval,
	}
}

// Start begins polling in the background. A stopped watcher can be
// started again.
func (w *LightWatcher) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}
	w.running = true
	w.done = make(chan struct{})

	go w.run(ctx, w.done)
}

// Stop ends polling. Calling it on a stopped watcher does nothing.
func (w *LightWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	w.running = false
	close(w.done)
}

func (w *LightWatcher) run(ctx context.Context, done <-chan struct{}) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if err := w.Poll(ctx); err != nil {
			log.Debug().Err(err).Str("host", w.ctrl.Host()).Msg("Light poll failed")
		}

		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-ticker.C:
		}
	}
}

// Poll fetches the lights once and delivers the differences to the
// previous poll. The first poll reports every light as added.
func (w *LightWatcher) Poll(ctx context.Context) error {
	lights, err := w.ctrl.GetAllLights(ctx)
	if err != nil {
		return err
	}

	current := make(map[int]models.Light, len(lights))
	for _, l := range lights {
		current[l.ID] = l.Light
	}

	w.mu.Lock()
	events := diffLights(w.last, current)
	w.last = current
	w.mu.Unlock()

	if len(events) > 0 && w.handler != nil {
		w.handler(events)
	}
	return nil
}

func diffLights(prev, cur map[int]models.Light) []Event {
	var events []Event

	for id, light := range cur {
		old, ok := prev[id]
		switch {
		case !ok:
			events = append(events, Event{Type: EventTypeAdd, LightID: id, Light: light.Clone()})
		case old.Name != light.Name || old.State != light.State:
			events = append(events, Event{Type: EventTypeUpdate, LightID: id, Light: light.Clone()})
		}
	}
	for id := range prev {
		if _, ok := cur[id]; !ok {
			events = append(events, Event{Type: EventTypeDelete, LightID: id})
		}
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].LightID < events[j].LightID
	})
	return events
}
