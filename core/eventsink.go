package core

import "pkt.systems/sparqlab/schema"

// EventSink receives tab and store events from the service.
type EventSink interface {
	OnTabEvent(event schema.TabEvent)
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(event schema.TabEvent)

// OnTabEvent calls f.
func (f EventSinkFunc) OnTabEvent(event schema.TabEvent) { f(event) }
