package core

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"pkt.systems/sparqlab/internal/sparql"
	"pkt.systems/sparqlab/schema"
)

func TestRunQueryEventOrder(t *testing.T) {
	rec := &eventRecorder{}
	var gotQuery string
	svc := newTestService(t, schema.ServiceConfig{}, ServiceDeps{
		EventSink: rec,
		Transport: transportFunc(func(_ context.Context, _ schema.EffectiveRequestConfig, _ schema.TabSnapshot, query string) (*sparql.Response, error) {
			gotQuery = query
			return okResponse(selectJSON), nil
		}),
	})
	tab := createTab(t, svc, schema.CreateTabRequest{})
	rec.reset()
	resp, err := svc.RunQuery(context.Background(), schema.RunQueryRequest{TabID: tab.ID})
	if err != nil {
		t.Fatalf("run query: %v", err)
	}
	if resp.Outcome != schema.QueryOutcomeSuccess {
		t.Fatalf("expected success, got %q", resp.Outcome)
	}
	if gotQuery != schema.DefaultQuery {
		t.Fatalf("expected editor query sent, got %q", gotQuery)
	}
	want := []schema.TabEventType{
		schema.TabEventQuery,
		schema.TabEventQueryBefore,
		schema.TabEventQueryResponse,
		schema.TabEventChange,
	}
	got := rec.types()
	if len(got) != len(want) {
		t.Fatalf("expected events %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected events %v, got %v", want, got)
		}
	}
	if resp.Tab.Status != schema.TabStatusIdle || resp.Tab.Result == nil {
		t.Fatalf("expected idle tab with stored result, got %+v", resp.Tab)
	}
}

func TestRunQueryErrorClearsStoredResult(t *testing.T) {
	var fail atomic.Bool
	svc := newTestService(t, schema.ServiceConfig{}, ServiceDeps{
		Transport: transportFunc(func(context.Context, schema.EffectiveRequestConfig, schema.TabSnapshot, string) (*sparql.Response, error) {
			if fail.Load() {
				return &sparql.Response{Status: 500, StatusText: "500 Internal Server Error", Body: []byte("boom")}, nil
			}
			return okResponse(selectJSON), nil
		}),
	})
	ctx := context.Background()
	tab := createTab(t, svc, schema.CreateTabRequest{})
	if _, err := svc.RunQuery(ctx, schema.RunQueryRequest{TabID: tab.ID}); err != nil {
		t.Fatalf("run query: %v", err)
	}
	got, err := svc.GetTab(ctx, schema.GetTabRequest{TabID: tab.ID})
	if err != nil {
		t.Fatalf("get tab: %v", err)
	}
	if got.Persisted.Result.Response == nil || got.Persisted.Result.Response.Data != selectJSON {
		t.Fatalf("expected stored result, got %+v", got.Persisted.Result.Response)
	}

	fail.Store(true)
	resp, err := svc.RunQuery(ctx, schema.RunQueryRequest{TabID: tab.ID})
	if err != nil {
		t.Fatalf("run failing query: %v", err)
	}
	if resp.Outcome != schema.QueryOutcomeError {
		t.Fatalf("expected error outcome, got %q", resp.Outcome)
	}
	if resp.Response == nil || resp.Response.Error == nil || resp.Response.Error.Status != 500 {
		t.Fatalf("expected error summary, got %+v", resp.Response)
	}
	got, err = svc.GetTab(ctx, schema.GetTabRequest{TabID: tab.ID})
	if err != nil {
		t.Fatalf("get tab: %v", err)
	}
	if got.Persisted.Result.Response != nil {
		t.Fatalf("expected stored result cleared, got %+v", got.Persisted.Result.Response)
	}
}

func TestRunQueryTransportFailureIsOutcome(t *testing.T) {
	svc := newTestService(t, schema.ServiceConfig{}, ServiceDeps{
		Transport: transportFunc(func(context.Context, schema.EffectiveRequestConfig, schema.TabSnapshot, string) (*sparql.Response, error) {
			return nil, &sparql.NetworkError{Endpoint: "https://example.org/sparql", Err: errors.New("connection refused")}
		}),
	})
	tab := createTab(t, svc, schema.CreateTabRequest{})
	resp, err := svc.RunQuery(context.Background(), schema.RunQueryRequest{TabID: tab.ID})
	if err != nil {
		t.Fatalf("run query: %v", err)
	}
	if resp.Outcome != schema.QueryOutcomeError || resp.Tab.LastOutcome != schema.QueryOutcomeError {
		t.Fatalf("expected error outcome, got %+v", resp)
	}
}

func TestRunQueryCapsPersistedResult(t *testing.T) {
	svc := newTestService(t, schema.ServiceConfig{MaxPersistentResponseSize: 16}, ServiceDeps{
		Transport: transportFunc(func(context.Context, schema.EffectiveRequestConfig, schema.TabSnapshot, string) (*sparql.Response, error) {
			return okResponse(selectJSON), nil
		}),
	})
	ctx := context.Background()
	tab := createTab(t, svc, schema.CreateTabRequest{})
	resp, err := svc.RunQuery(ctx, schema.RunQueryRequest{TabID: tab.ID})
	if err != nil {
		t.Fatalf("run query: %v", err)
	}
	if resp.Response.Data != selectJSON {
		t.Fatalf("expected full response data")
	}
	got, err := svc.GetTab(ctx, schema.GetTabRequest{TabID: tab.ID})
	if err != nil {
		t.Fatalf("get tab: %v", err)
	}
	stored := got.Persisted.Result.Response
	if stored == nil || stored.Data != "" || !stored.Truncated {
		t.Fatalf("expected truncated stored result, got %+v", stored)
	}
}

func TestRunQueryCancelsPreviousRun(t *testing.T) {
	rec := &eventRecorder{}
	started := make(chan struct{})
	var calls atomic.Int32
	svc := newTestService(t, schema.ServiceConfig{}, ServiceDeps{
		EventSink: rec,
		Transport: transportFunc(func(ctx context.Context, _ schema.EffectiveRequestConfig, _ schema.TabSnapshot, _ string) (*sparql.Response, error) {
			if calls.Add(1) == 1 {
				close(started)
				<-ctx.Done()
				return nil, ctx.Err()
			}
			return okResponse(selectJSON), nil
		}),
	})
	tab := createTab(t, svc, schema.CreateTabRequest{})
	ctx := context.Background()

	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.RunQuery(ctx, schema.RunQueryRequest{TabID: tab.ID})
		firstErr <- err
	}()
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatalf("first query did not start")
	}

	resp, err := svc.RunQuery(ctx, schema.RunQueryRequest{TabID: tab.ID})
	if err != nil {
		t.Fatalf("second query: %v", err)
	}
	if resp.Outcome != schema.QueryOutcomeSuccess {
		t.Fatalf("expected second query to succeed, got %q", resp.Outcome)
	}
	select {
	case err := <-firstErr:
		if !isAborted(err) {
			t.Fatalf("expected first query aborted, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("first query did not return")
	}
	if n := rec.count(schema.TabEventQueryAbort); n != 1 {
		t.Fatalf("expected one queryAbort, got %d (%v)", n, rec.types())
	}
	if n := rec.count(schema.TabEventQueryResponse); n != 1 {
		t.Fatalf("expected one queryResponse, got %d", n)
	}
}

func TestAbortQuery(t *testing.T) {
	started := make(chan struct{})
	svc := newTestService(t, schema.ServiceConfig{}, ServiceDeps{
		Transport: transportFunc(func(ctx context.Context, _ schema.EffectiveRequestConfig, _ schema.TabSnapshot, _ string) (*sparql.Response, error) {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		}),
	})
	tab := createTab(t, svc, schema.CreateTabRequest{})
	ctx := context.Background()
	done := make(chan error, 1)
	go func() {
		_, err := svc.RunQuery(ctx, schema.RunQueryRequest{TabID: tab.ID})
		done <- err
	}()
	<-started
	resp, err := svc.AbortQuery(ctx, schema.AbortQueryRequest{TabID: tab.ID})
	if err != nil {
		t.Fatalf("abort: %v", err)
	}
	if !resp.Aborted || resp.Tab.LastOutcome != schema.QueryOutcomeAborted {
		t.Fatalf("unexpected abort response %+v", resp)
	}
	if err := <-done; !isAborted(err) {
		t.Fatalf("expected aborted run, got %v", err)
	}
	again, err := svc.AbortQuery(ctx, schema.AbortQueryRequest{TabID: tab.ID})
	if err != nil || again.Aborted {
		t.Fatalf("expected nothing to abort, got %+v %v", again, err)
	}
}

func TestRunQueryCallerCancellation(t *testing.T) {
	started := make(chan struct{})
	rec := &eventRecorder{}
	svc := newTestService(t, schema.ServiceConfig{}, ServiceDeps{
		EventSink: rec,
		Transport: transportFunc(func(ctx context.Context, _ schema.EffectiveRequestConfig, _ schema.TabSnapshot, _ string) (*sparql.Response, error) {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		}),
	})
	tab := createTab(t, svc, schema.CreateTabRequest{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := svc.RunQuery(ctx, schema.RunQueryRequest{TabID: tab.ID})
		done <- err
	}()
	<-started
	cancel()
	if err := <-done; !isAborted(err) {
		t.Fatalf("expected aborted run, got %v", err)
	}
	got, err := svc.GetTab(context.Background(), schema.GetTabRequest{TabID: tab.ID})
	if err != nil {
		t.Fatalf("get tab: %v", err)
	}
	if got.Tab.Status != schema.TabStatusIdle || got.Tab.LastOutcome != schema.QueryOutcomeAborted {
		t.Fatalf("expected idle aborted tab, got %+v", got.Tab)
	}
	if rec.count(schema.TabEventQueryAbort) != 1 {
		t.Fatalf("expected queryAbort, got %v", rec.types())
	}
}

func TestCloseTabAbortsRunningQuery(t *testing.T) {
	started := make(chan struct{})
	rec := &eventRecorder{}
	svc := newTestService(t, schema.ServiceConfig{}, ServiceDeps{
		EventSink: rec,
		Transport: transportFunc(func(ctx context.Context, _ schema.EffectiveRequestConfig, _ schema.TabSnapshot, _ string) (*sparql.Response, error) {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		}),
	})
	tab := createTab(t, svc, schema.CreateTabRequest{})
	done := make(chan error, 1)
	go func() {
		_, err := svc.RunQuery(context.Background(), schema.RunQueryRequest{TabID: tab.ID})
		done <- err
	}()
	<-started
	rec.reset()
	if _, err := svc.CloseTab(context.Background(), schema.CloseTabRequest{TabID: tab.ID}); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := <-done; !isAborted(err) {
		t.Fatalf("expected aborted run, got %v", err)
	}
	got := rec.types()
	if len(got) == 0 || got[0] != schema.TabEventQueryAbort {
		t.Fatalf("expected queryAbort first, got %v", got)
	}
}

func TestRunQueryWithoutTransport(t *testing.T) {
	svc := newTestService(t, schema.ServiceConfig{}, ServiceDeps{})
	tab := createTab(t, svc, schema.CreateTabRequest{})
	if _, err := svc.RunQuery(context.Background(), schema.RunQueryRequest{TabID: tab.ID}); !errors.Is(err, schema.ErrNoTransport) {
		t.Fatalf("expected no transport, got %v", err)
	}
}
