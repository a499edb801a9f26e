package core

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"pkt.systems/sparqlab/internal/sparql"
)

func TestDefaultCORSHeuristic(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{name: "success", err: nil, want: true},
		{name: "network", err: &sparql.NetworkError{Err: errors.New("connection refused")}, want: false},
		{name: "wrapped network", err: fmt.Errorf("probe: %w", &sparql.NetworkError{Err: errors.New("reset")}), want: false},
		{name: "timeout", err: &sparql.NetworkError{Err: context.DeadlineExceeded}, want: true},
		{name: "other", err: errors.New("bad status"), want: true},
	}
	for _, tc := range cases {
		if got := DefaultCORSHeuristic(tc.err); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
	if StrictCORSHeuristic(errors.New("x")) || !StrictCORSHeuristic(nil) {
		t.Fatalf("unexpected strict heuristic verdicts")
	}
	if !HeuristicByName("always")(&sparql.NetworkError{Err: errors.New("x")}) {
		t.Fatalf("expected always heuristic to accept")
	}
	if HeuristicByName("strict")(errors.New("x")) {
		t.Fatalf("expected strict heuristic by name")
	}
}

func TestCORSCacheProbesOncePerEndpoint(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	cache := NewCORSCache(ProberFunc(func(ctx context.Context, endpoint string) error {
		calls.Add(1)
		<-release
		return nil
	}), CORSOptions{})

	const endpoint = "https://example.org/sparql"
	for i := 0; i < 5; i++ {
		cache.Check(endpoint)
	}
	if _, known := cache.Lookup(endpoint); known {
		t.Fatalf("expected verdict pending while probe runs")
	}
	close(release)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	capable, err := cache.Probe(ctx, endpoint)
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if !capable || !cache.Enabled(endpoint) {
		t.Fatalf("expected capable endpoint")
	}
	cache.Check(endpoint)
	if _, err := cache.Probe(ctx, endpoint); err != nil {
		t.Fatalf("probe again: %v", err)
	}
	if n := calls.Load(); n != 1 {
		t.Fatalf("expected one probe, got %d", n)
	}
	if snap := cache.Snapshot(); len(snap) != 1 || !snap[endpoint] {
		t.Fatalf("unexpected snapshot %v", snap)
	}
}

func TestCORSCacheRecordsNetworkFailure(t *testing.T) {
	cache := NewCORSCache(ProberFunc(func(ctx context.Context, endpoint string) error {
		return &sparql.NetworkError{Endpoint: endpoint, Err: errors.New("failed to fetch")}
	}), CORSOptions{})
	capable, err := cache.Probe(context.Background(), "https://closed.example/sparql")
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if capable {
		t.Fatalf("expected not capable")
	}
	if capable, known := cache.Lookup("https://closed.example/sparql"); !known || capable {
		t.Fatalf("expected cached negative verdict, got %v %v", capable, known)
	}
}

func TestCORSCacheProbeHonoursContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	cache := NewCORSCache(ProberFunc(func(ctx context.Context, endpoint string) error {
		<-release
		return nil
	}), CORSOptions{})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := cache.Probe(ctx, "https://slow.example/sparql"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline, got %v", err)
	}
}

func TestCORSCacheWithoutProber(t *testing.T) {
	cache := NewCORSCache(nil, CORSOptions{})
	cache.Check("https://example.org/sparql")
	capable, err := cache.Probe(context.Background(), "https://example.org/sparql")
	if err != nil || capable {
		t.Fatalf("expected no verdict, got %v %v", capable, err)
	}
}
