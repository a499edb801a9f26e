package sparql

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pkt.systems/sparqlab/schema"
)

func TestExecuteReturnsNon2xxWithoutError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.Form.Get("query") == "" {
			t.Errorf("missing query param")
		}
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("parse error"))
	}))
	defer srv.Close()

	client := NewClient(ClientOptions{})
	resp, err := client.Execute(context.Background(), effective(schema.RequestConfig{Endpoint: srv.URL}), schema.TabSnapshot{}, "SELECT * WHERE {")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if resp.OK() || resp.Status != http.StatusBadRequest || string(resp.Body) != "parse error" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestExecuteHonoursCancellation(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := NewClient(ClientOptions{}).Execute(ctx, effective(schema.RequestConfig{Endpoint: srv.URL}), schema.TabSnapshot{}, "ASK {}")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestProbeClassifiesFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Query().Get("query") != ProbeQuery {
			t.Errorf("unexpected probe %s %s", r.Method, r.URL.RawQuery)
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	client := NewClient(ClientOptions{})
	if err := client.Probe(context.Background(), srv.URL); err != nil {
		t.Fatalf("5xx probe should not error: %v", err)
	}
	url := srv.URL
	srv.Close()
	err := client.Probe(context.Background(), url)
	if !IsNetworkError(err) {
		t.Fatalf("expected network error, got %v", err)
	}
}

func TestExecuteWithCredentialsKeepsCookies(t *testing.T) {
	var sawCookie bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := r.Cookie("session"); err == nil {
			sawCookie = true
		}
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc", Path: "/"})
		w.Header().Set("Content-Type", "application/sparql-results+json")
		_, _ = w.Write([]byte(`{"head":{},"boolean":true}`))
	}))
	defer srv.Close()

	yes := true
	cfg := effective(schema.RequestConfig{Endpoint: srv.URL, WithCredentials: &yes})
	client := NewClient(ClientOptions{})
	for range 2 {
		if _, err := client.Execute(context.Background(), cfg, schema.TabSnapshot{}, "ASK {}"); err != nil {
			t.Fatalf("execute: %v", err)
		}
	}
	if !sawCookie {
		t.Fatalf("expected cookie on second credentialed request")
	}
}
