package sparqlab

import (
	"pkt.systems/sparqlab/core"
	"pkt.systems/sparqlab/internal/eventbus"
	"pkt.systems/sparqlab/schema"
)

// tabEventFanout delivers each tab event to every sink in order.
type tabEventFanout []core.EventSink

func (f tabEventFanout) OnTabEvent(event schema.TabEvent) {
	for _, sink := range f {
		sink.OnTabEvent(event)
	}
}

// fanOutTabEvents combines the caller's sink with the hub's bus. A nil sink
// or the bus itself yields the bus alone.
func fanOutTabEvents(bus *eventbus.Bus, extra core.EventSink) core.EventSink {
	if extra == nil {
		return bus
	}
	if b, ok := extra.(*eventbus.Bus); ok && b == bus {
		return bus
	}
	return tabEventFanout{extra, bus}
}
