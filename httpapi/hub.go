package httpapi

import (
	"context"
	"sync"
	"time"

	"pkt.systems/sparqlab/internal/eventbus"
	"pkt.systems/sparqlab/internal/logx"
	"pkt.systems/sparqlab/schema"
)

// StreamEvent is sent to SSE clients.
type StreamEvent struct {
	Seq       uint64           `json:"seq"`
	Type      string           `json:"type"`
	Event     *schema.TabEvent `json:"event,omitempty"`
	Snapshot  *SnapshotPayload `json:"snapshot,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// SnapshotPayload seeds client state on connect.
type SnapshotPayload struct {
	Tabs            []schema.TabSnapshot `json:"tabs"`
	ActiveTab       schema.TabID         `json:"activeTab"`
	EndpointHistory []string             `json:"endpointHistory"`
}

// Hub relays bus events of one namespace to SSE clients and keeps a
// bounded history for Last-Event-ID replay.
type Hub struct {
	mu          sync.Mutex
	bus         *eventbus.Bus
	namespace   schema.Namespace
	history     []StreamEvent
	historySize int
	subs        map[chan StreamEvent]struct{}
}

// NewHub constructs a hub with the given history size.
func NewHub(bus *eventbus.Bus, ns schema.Namespace, historySize int) *Hub {
	if historySize <= 0 {
		historySize = 1000
	}
	return &Hub{
		bus:         bus,
		namespace:   ns,
		historySize: historySize,
		subs:        make(map[chan StreamEvent]struct{}),
	}
}

// Run consumes the bus until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	ch, cancel := h.bus.Subscribe(h.namespace)
	defer cancel()
	log := logx.WithNamespace(ctx, h.namespace)
	log.Debug("hub started")
	for {
		select {
		case <-ctx.Done():
			log.Debug("hub stopped")
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			h.publish(ctx, event)
		}
	}
}

// Subscribe registers an SSE client.
func (h *Hub) Subscribe() (<-chan StreamEvent, func()) {
	ch := make(chan StreamEvent, 256)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			close(ch)
			h.mu.Unlock()
		})
	}
}

// Replay returns events after the provided seq.
func (h *Hub) Replay(after uint64) []StreamEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	events := make([]StreamEvent, 0, len(h.history))
	for _, event := range h.history {
		if event.Seq > after {
			events = append(events, event)
		}
	}
	return events
}

func (h *Hub) publish(ctx context.Context, event eventbus.Event) {
	tabEvent := event.Tab
	stream := StreamEvent{
		Seq:       tabEvent.Seq,
		Type:      string(event.Type),
		Event:     &tabEvent,
		Timestamp: tabEvent.At,
	}
	if stream.Timestamp.IsZero() {
		stream.Timestamp = time.Now()
	}
	h.mu.Lock()
	h.history = append(h.history, stream)
	if len(h.history) > h.historySize {
		h.history = h.history[len(h.history)-h.historySize:]
	}
	dropped := 0
	for sub := range h.subs {
		select {
		case sub <- stream:
		default:
			dropped++
		}
	}
	h.mu.Unlock()
	if dropped > 0 {
		logx.WithTab(ctx, h.namespace, tabEvent.TabID).Warn("hub event dropped", "type", tabEvent.Type, "dropped", dropped)
	}
}
