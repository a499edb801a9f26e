package eventbus

import (
	"context"
	"sync"

	"pkt.systems/pslog"
	"pkt.systems/sparqlab/schema"
)

// EventType identifies the event payload.
type EventType string

const (
	// EventTab carries per-tab notifications.
	EventTab EventType = "tab"
	// EventStore carries store-wide notifications.
	EventStore EventType = "store"
)

// Event is a UI-facing event emitted by the tab store.
type Event struct {
	Type EventType
	Tab  schema.TabEvent
}

// Bus fans events out to per-namespace subscribers and stamps each event
// with a per-namespace sequence number.
type Bus struct {
	mu    sync.Mutex
	subs  map[schema.Namespace]map[chan Event]struct{}
	seq   map[schema.Namespace]uint64
	log   pslog.Logger
	depth int
}

// New constructs a Bus.
func New(logger pslog.Logger) *Bus {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Bus{
		subs:  make(map[schema.Namespace]map[chan Event]struct{}),
		seq:   make(map[schema.Namespace]uint64),
		log:   logger,
		depth: 256,
	}
}

// Subscribe registers a subscriber for the namespace and returns a channel + cancel.
func (b *Bus) Subscribe(ns schema.Namespace) (<-chan Event, func()) {
	if b == nil {
		return nil, func() {}
	}
	ch := make(chan Event, b.depth)
	b.mu.Lock()
	nsSubs := b.subs[ns]
	if nsSubs == nil {
		nsSubs = make(map[chan Event]struct{})
		b.subs[ns] = nsSubs
	}
	nsSubs[ch] = struct{}{}
	count := len(nsSubs)
	b.mu.Unlock()
	b.log.With("namespace", ns).Debug("eventbus subscribe", "subs", count)
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			if subs := b.subs[ns]; subs != nil {
				delete(subs, ch)
				if len(subs) == 0 {
					delete(b.subs, ns)
				}
			}
			b.mu.Unlock()
			close(ch)
			b.log.With("namespace", ns).Debug("eventbus unsubscribe")
		})
	}
}

// Subscribers returns the number of subscribers of ns.
func (b *Bus) Subscribers(ns schema.Namespace) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[ns])
}

// OnTabEvent publishes a tab or store event.
func (b *Bus) OnTabEvent(event schema.TabEvent) {
	kind := EventTab
	if event.Type.IsStoreEvent() {
		kind = EventStore
	}
	b.publish(event.Namespace, Event{Type: kind, Tab: event})
}

func (b *Bus) publish(ns schema.Namespace, event Event) {
	if b == nil {
		return
	}
	b.mu.Lock()
	b.seq[ns]++
	event.Tab.Seq = b.seq[ns]
	nsSubs := b.subs[ns]
	subs := make([]chan Event, 0, len(nsSubs))
	for sub := range nsSubs {
		subs = append(subs, sub)
	}
	// Sends happen under the lock so a concurrent cancel cannot close a
	// channel mid-send; every send is non-blocking.
	dropped := 0
	for _, sub := range subs {
		select {
		case sub <- event:
		default:
			dropped++
		}
	}
	b.mu.Unlock()
	if dropped > 0 {
		b.log.With("namespace", ns).Trace("eventbus dropped", "count", dropped, "type", event.Tab.Type)
	}
}
