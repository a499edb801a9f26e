package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"pkt.systems/sparqlab/internal/persist"
	"pkt.systems/sparqlab/internal/sparql"
	"pkt.systems/sparqlab/schema"
)

const selectJSON = `{"head":{"vars":["s"]},"results":{"bindings":[{"s":{"type":"uri","value":"http://example.org/a"}}]}}`

type transportFunc func(ctx context.Context, cfg schema.EffectiveRequestConfig, tab schema.TabSnapshot, query string) (*sparql.Response, error)

func (f transportFunc) Execute(ctx context.Context, cfg schema.EffectiveRequestConfig, tab schema.TabSnapshot, query string) (*sparql.Response, error) {
	return f(ctx, cfg, tab, query)
}

func okResponse(body string) *sparql.Response {
	return &sparql.Response{
		Status:      200,
		StatusText:  "200 OK",
		ContentType: "application/sparql-results+json",
		Body:        []byte(body),
	}
}

type eventRecorder struct {
	mu     sync.Mutex
	events []schema.TabEvent
}

func (r *eventRecorder) OnTabEvent(event schema.TabEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *eventRecorder) types() []schema.TabEventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]schema.TabEventType, 0, len(r.events))
	for _, event := range r.events {
		out = append(out, event.Type)
	}
	return out
}

func (r *eventRecorder) count(kind schema.TabEventType) int {
	n := 0
	for _, t := range r.types() {
		if t == kind {
			n++
		}
	}
	return n
}

func (r *eventRecorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// quotaStore fails every tab write with a quota error.
type quotaStore struct {
	*persist.MemoryStore
	mu      sync.Mutex
	cleared int
}

func (s *quotaStore) Set(key string, value []byte, ttl time.Duration) error {
	if strings.HasPrefix(key, tabPrefix) {
		return fmt.Errorf("set %s: %w", key, schema.ErrStorageQuotaExceeded)
	}
	return s.MemoryStore.Set(key, value, ttl)
}

func (s *quotaStore) RemoveNamespace() error {
	s.mu.Lock()
	s.cleared++
	s.mu.Unlock()
	return s.MemoryStore.RemoveNamespace()
}

func newMemoryStore(t *testing.T) *persist.MemoryStore {
	t.Helper()
	store, err := persist.NewMemoryStore(persist.Options{Namespace: schema.DefaultNamespace})
	if err != nil {
		t.Fatalf("memory store: %v", err)
	}
	return store
}

func newTestService(t *testing.T, cfg schema.ServiceConfig, deps ServiceDeps) *service {
	t.Helper()
	svc, err := newService(cfg, deps)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func createTab(t *testing.T, svc Service, req schema.CreateTabRequest) schema.TabSnapshot {
	t.Helper()
	resp, err := svc.CreateTab(context.Background(), req)
	if err != nil {
		t.Fatalf("create tab: %v", err)
	}
	return resp.Tab
}

func isAborted(err error) bool {
	return errors.Is(err, schema.ErrQueryAborted)
}
