// Package stream provides real-time price distribution to local consumers.
package stream

import (
	"context"
	"sync"
	"time"

	"tradeassist/internal/feed"
	"tradeassist/internal/models"
)

// HubConfig holds configuration for the price hub.
type HubConfig struct {
	// BufferSize is the size of the internal update channel buffer.
	BufferSize int
	// SubscriberBufferSize is the size of each subscriber's channel buffer.
	SubscriberBufferSize int
}

// DefaultHubConfig returns the default hub configuration.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		BufferSize:           1000,
		SubscriberBufferSize: 100,
	}
}

// Hub fans price updates from the single feed connection out to any number
// of local subscribers without renegotiating the upstream connection per
// subscriber. Broadcasts are non-blocking; a slow consumer drops updates
// instead of stalling the rest.
type Hub struct {
	config      HubConfig
	source      *feed.Client
	mu          sync.RWMutex
	subscribers map[string][]*Subscriber
	updateChan  chan models.LivePrice
	done        chan struct{}
	started     bool

	metricsMu      sync.RWMutex
	updatesIn      uint64
	updatesOut     uint64
	updatesDropped uint64
}

// Subscriber represents a channel subscriber with metadata.
type Subscriber struct {
	ID           string
	Channel      chan models.LivePrice
	DroppedCount int
	CreatedAt    time.Time
}

// NewHub creates a new price hub with default configuration.
func NewHub() *Hub {
	return NewHubWithConfig(DefaultHubConfig())
}

// NewHubWithConfig creates a new price hub with custom configuration.
func NewHubWithConfig(config HubConfig) *Hub {
	return &Hub{
		config:      config,
		subscribers: make(map[string][]*Subscriber),
		updateChan:  make(chan models.LivePrice, config.BufferSize),
		done:        make(chan struct{}),
	}
}

// NewHubWithSource creates a hub fed by a live feed client.
func NewHubWithSource(source *feed.Client) *Hub {
	h := NewHub()
	h.source = source
	return h
}

// SetSource sets the feed client the hub draws updates from.
func (h *Hub) SetSource(source *feed.Client) {
	h.source = source
}

// Start begins the hub's distribution loop.
func (h *Hub) Start(ctx context.Context) error {
	h.mu.Lock()
	if h.started {
		h.mu.Unlock()
		return nil
	}
	h.started = true
	h.mu.Unlock()

	go h.broadcastLoop(ctx)

	if h.source != nil {
		h.source.OnUpdate(func(price models.LivePrice) {
			h.Publish(price)
		})
		if err := h.source.Connect(ctx); err != nil {
			return err
		}
	}

	return nil
}

func (h *Hub) broadcastLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return
		case price := <-h.updateChan:
			h.metricsMu.Lock()
			h.updatesIn++
			h.metricsMu.Unlock()

			h.broadcast(price)
		}
	}
}

// Stop stops the hub and closes all subscriber channels.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.started {
		return
	}

	close(h.done)
	h.started = false

	for key, subs := range h.subscribers {
		for _, sub := range subs {
			close(sub.Channel)
		}
		delete(h.subscribers, key)
	}

	if h.source != nil {
		h.source.Close()
	}
}

// Subscribe adds a subscriber for an instrument key and returns a channel
// of updates. The upstream subscription is idempotent, so many local
// subscribers share one backend stream.
func (h *Hub) Subscribe(instrumentKey string) <-chan models.LivePrice {
	return h.SubscribeWithID(instrumentKey, "")
}

// SubscribeWithID adds a subscriber with a specific ID for an instrument key.
func (h *Hub) SubscribeWithID(instrumentKey, id string) <-chan models.LivePrice {
	ch := make(chan models.LivePrice, h.config.SubscriberBufferSize)
	sub := &Subscriber{
		ID:        id,
		Channel:   ch,
		CreatedAt: time.Now(),
	}

	h.mu.Lock()
	h.subscribers[instrumentKey] = append(h.subscribers[instrumentKey], sub)
	h.mu.Unlock()

	if h.source != nil {
		h.source.Subscribe(instrumentKey)
	}

	return ch
}

// Unsubscribe removes a subscriber channel for an instrument key. When the
// last local subscriber leaves, the upstream subscription is released too.
func (h *Hub) Unsubscribe(instrumentKey string, ch <-chan models.LivePrice) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.subscribers[instrumentKey]
	for i, sub := range subs {
		if sub.Channel == ch {
			close(sub.Channel)
			h.subscribers[instrumentKey] = append(subs[:i], subs[i+1:]...)
			break
		}
	}

	if len(h.subscribers[instrumentKey]) == 0 {
		delete(h.subscribers, instrumentKey)
		if h.source != nil {
			h.source.Unsubscribe(instrumentKey)
		}
	}
}

// UnsubscribeAll removes all subscribers for an instrument key.
func (h *Hub) UnsubscribeAll(instrumentKey string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, sub := range h.subscribers[instrumentKey] {
		close(sub.Channel)
	}
	delete(h.subscribers, instrumentKey)

	if h.source != nil {
		h.source.Unsubscribe(instrumentKey)
	}
}

// Publish sends a price update to the hub for distribution. Non-blocking:
// if the internal buffer is full the update is dropped, because a newer
// one for the same key is always behind it.
func (h *Hub) Publish(price models.LivePrice) {
	select {
	case h.updateChan <- price:
	default:
		h.metricsMu.Lock()
		h.updatesDropped++
		h.metricsMu.Unlock()
	}
}

func (h *Hub) broadcast(price models.LivePrice) {
	// Sends happen under the read lock. Subscriber channels are only closed
	// under the write lock (Unsubscribe, UnsubscribeAll, Stop), so a send
	// can never race a close. The sends are non-blocking, so holding the
	// lock across the loop does not stall subscription changes for long.
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subscribers[price.InstrumentKey] {
		select {
		case sub.Channel <- price:
			h.metricsMu.Lock()
			h.updatesOut++
			h.metricsMu.Unlock()
		default:
			// Skip slow consumers - non-blocking
			sub.DroppedCount++
			h.metricsMu.Lock()
			h.updatesDropped++
			h.metricsMu.Unlock()
		}
	}
}

// SubscriberCount returns the number of subscribers for an instrument key.
func (h *Hub) SubscriberCount(instrumentKey string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[instrumentKey])
}

// SubscribedKeys returns all instrument keys with active subscribers.
func (h *Hub) SubscribedKeys() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	keys := make([]string, 0, len(h.subscribers))
	for key := range h.subscribers {
		keys = append(keys, key)
	}
	return keys
}

// Metrics returns hub counters.
func (h *Hub) Metrics() HubMetrics {
	h.metricsMu.RLock()
	defer h.metricsMu.RUnlock()

	return HubMetrics{
		UpdatesIn:      h.updatesIn,
		UpdatesOut:     h.updatesOut,
		UpdatesDropped: h.updatesDropped,
	}
}

// HubMetrics contains hub performance counters.
type HubMetrics struct {
	UpdatesIn      uint64
	UpdatesOut     uint64
	UpdatesDropped uint64
}

// IsStarted returns whether the hub is running.
func (h *Hub) IsStarted() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.started
}
