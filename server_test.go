package sparqlab

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"pkt.systems/sparqlab/core"
	"pkt.systems/sparqlab/httpapi"
	"pkt.systems/sparqlab/internal/sparql"
	"pkt.systems/sparqlab/schema"
)

type transportFunc func(ctx context.Context, cfg schema.EffectiveRequestConfig, tab schema.TabSnapshot, query string) (*sparql.Response, error)

func (f transportFunc) Execute(ctx context.Context, cfg schema.EffectiveRequestConfig, tab schema.TabSnapshot, query string) (*sparql.Response, error) {
	return f(ctx, cfg, tab, query)
}

type recordingSink struct {
	mu     sync.Mutex
	events []schema.TabEventType
}

func (r *recordingSink) OnTabEvent(event schema.TabEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event.Type)
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestNewRequiresAService(t *testing.T) {
	if _, err := New(ServerConfig{}, ServerDeps{}); err == nil {
		t.Fatalf("expected error without enabled services")
	}
}

func TestNewRejectsInvalidServiceConfig(t *testing.T) {
	cfg := ServerConfig{Service: schema.ServiceConfig{CORSProxy: "not a url"}}
	if _, err := New(cfg, ServerDeps{}, WithHTTP()); err == nil {
		t.Fatalf("expected invalid proxy to fail")
	}
}

func TestServerFansOutEvents(t *testing.T) {
	sink := &recordingSink{}
	srv, err := New(ServerConfig{}, ServerDeps{ServiceDeps: core.ServiceDeps{EventSink: sink}}, WithHTTP())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := srv.Service().CreateTab(context.Background(), schema.CreateTabRequest{}); err != nil {
		t.Fatalf("create tab: %v", err)
	}
	// tabAdd and tabSelect for the first tab.
	if sink.count() != 2 {
		t.Fatalf("expected 2 events, got %d", sink.count())
	}
}

func TestServerStopAbortsQueries(t *testing.T) {
	started := make(chan struct{})
	transport := transportFunc(func(ctx context.Context, _ schema.EffectiveRequestConfig, _ schema.TabSnapshot, _ string) (*sparql.Response, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	})
	cfg := ServerConfig{HTTP: httpapi.Config{Addr: "127.0.0.1:0"}}
	srv, err := New(cfg, ServerDeps{ServiceDeps: core.ServiceDeps{Transport: transport}}, WithHTTP())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := srv.Start(context.Background()); err == nil {
		t.Fatalf("expected second start to fail")
	}
	resp, err := srv.Service().CreateTab(context.Background(), schema.CreateTabRequest{})
	if err != nil {
		t.Fatalf("create tab: %v", err)
	}
	done := make(chan error, 1)
	go func() {
		_, err := srv.Service().RunQuery(context.Background(), schema.RunQueryRequest{TabID: resp.Tab.ID})
		done <- err
	}()
	<-started

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := srv.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	select {
	case err := <-done:
		if !errors.Is(err, schema.ErrQueryAborted) {
			t.Fatalf("expected ErrQueryAborted, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("query did not stop")
	}
	if err := srv.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}
