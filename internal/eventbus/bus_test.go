package eventbus

import (
	"testing"
	"time"

	"pkt.systems/sparqlab/schema"
)

func TestSubscribeAndPublish(t *testing.T) {
	bus := New(nil)
	ch, cancel := bus.Subscribe("lab")
	defer cancel()

	bus.OnTabEvent(schema.TabEvent{Type: schema.TabEventChange, Namespace: "lab", TabID: "tab1"})
	bus.OnTabEvent(schema.TabEvent{Type: schema.StoreEventTabAdd, Namespace: "lab", TabID: "tab2"})

	for i, want := range []EventType{EventTab, EventStore} {
		select {
		case got := <-ch:
			if got.Type != want {
				t.Fatalf("expected %v event, got %v", want, got.Type)
			}
			if got.Tab.Seq != uint64(i+1) {
				t.Fatalf("expected seq %d, got %d", i+1, got.Tab.Seq)
			}
		case <-time.After(500 * time.Millisecond):
			t.Fatalf("timed out waiting for event")
		}
	}
}

func TestNamespacesAreIsolated(t *testing.T) {
	bus := New(nil)
	ch, cancel := bus.Subscribe("a")
	defer cancel()
	bus.OnTabEvent(schema.TabEvent{Type: schema.TabEventChange, Namespace: "b"})
	select {
	case got := <-ch:
		t.Fatalf("unexpected event %+v", got)
	default:
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := New(nil)
	ch, cancel := bus.Subscribe("lab")
	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel to be closed")
	}
	if n := bus.Subscribers("lab"); n != 0 {
		t.Fatalf("expected no subscribers, got %d", n)
	}
}

func TestPublishDoesNotBlockWhenFull(t *testing.T) {
	bus := New(nil)
	bus.depth = 1
	_, cancel := bus.Subscribe("lab")
	defer cancel()

	bus.OnTabEvent(schema.TabEvent{Type: schema.TabEventChange, Namespace: "lab"})
	done := make(chan struct{})
	go func() {
		bus.OnTabEvent(schema.TabEvent{Type: schema.TabEventChange, Namespace: "lab"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("publish blocked on full channel")
	}
}
