package core

import (
	"context"
	"fmt"

	"pkt.systems/sparqlab/internal/logx"
	"pkt.systems/sparqlab/schema"
)

// RunQuery executes the tab's query and blocks until it completes, fails
// or is superseded. A superseded or cancelled run returns ErrQueryAborted.
// Transport and HTTP failures are not errors here; they are reported
// through the response summary and Outcome.
func (s *service) RunQuery(ctx context.Context, req schema.RunQueryRequest) (schema.RunQueryResponse, error) {
	if ctx == nil {
		return schema.RunQueryResponse{}, errMissingContext
	}
	log := logx.WithTab(ctx, s.cfg.Namespace, req.TabID)
	if s.transport == nil {
		return schema.RunQueryResponse{}, schema.ErrNoTransport
	}

	s.mu.Lock()
	t, err := s.editorTabLocked(req.TabID)
	if err != nil {
		s.mu.Unlock()
		log.Warn("service query run failed", "err", err)
		return schema.RunQueryResponse{}, err
	}
	synced := s.syncEditorLocked(t)
	previous := s.abortLocked(t)
	s.runSeq++
	gen := s.runSeq
	runCtx, cancel := context.WithCancel(ctx)
	t.run = &queryRun{gen: gen, cancel: cancel}
	t.status = schema.TabStatusQuerying
	snap := t.Snapshot(s.active == t.id())
	s.mu.Unlock()

	if previous != nil {
		previous()
		s.emit(schema.TabEvent{Type: schema.TabEventQueryAbort, TabID: snap.ID, Tab: &snap})
		log.Info("service query superseded")
	}
	if synced {
		s.changed(log, snap.ID)
	}
	s.emit(schema.TabEvent{Type: schema.TabEventQuery, TabID: snap.ID, Tab: &snap})

	cfg := s.resolver.Resolve(snap)
	runLog := logx.WithEndpoint(log, cfg.Endpoint, cfg.Proxied)
	request := cfg
	s.emit(schema.TabEvent{Type: schema.TabEventQueryBefore, TabID: snap.ID, Tab: &snap, Request: &request})
	runLog.Debug("service query started", "method", cfg.Method, "run", gen)

	start := s.now()
	resp, execErr := s.transport.Execute(runCtx, cfg, snap, snap.Query)
	duration := s.now().Sub(start)

	s.mu.Lock()
	if t.run == nil || t.run.gen != gen {
		s.mu.Unlock()
		cancel()
		runLog.Debug("service query result discarded", "run", gen)
		return schema.RunQueryResponse{}, schema.ErrQueryAborted
	}
	if runCtx.Err() != nil {
		t.run = nil
		t.status = schema.TabStatusIdle
		t.lastOutcome = schema.QueryOutcomeAborted
		aborted := t.Snapshot(s.active == t.id())
		s.mu.Unlock()
		cancel()
		s.emit(schema.TabEvent{Type: schema.TabEventQueryAbort, TabID: aborted.ID, Tab: &aborted})
		runLog.Info("service query cancelled", "err", ctx.Err())
		return schema.RunQueryResponse{}, fmt.Errorf("%w: %v", schema.ErrQueryAborted, ctx.Err())
	}
	t.run = nil
	t.status = schema.TabStatusIdle
	t.viewer.SetResponse(resp, execErr, duration)
	outcome := schema.QueryOutcomeSuccess
	if t.viewer.HasError() {
		outcome = schema.QueryOutcomeError
		t.persisted.Result.Response = nil
	} else {
		t.persisted.Result.Response = t.viewer.StoreObject(s.cfg.MaxPersistentResponseSize)
	}
	t.lastOutcome = outcome
	summary := t.viewer.Summary()
	done := t.Snapshot(s.active == t.id())
	s.mu.Unlock()
	cancel()

	event := schema.TabEvent{
		Type:       schema.TabEventQueryResponse,
		TabID:      done.ID,
		Tab:        &done,
		Response:   summary.Clone(),
		DurationMs: duration.Milliseconds(),
	}
	if summary != nil && summary.Error != nil {
		event.Error = summary.Error.Text
	}
	s.emit(event)
	s.changed(log, done.ID)
	if outcome == schema.QueryOutcomeError {
		runLog.Warn("service query failed", "duration", duration, "err", event.Error)
	} else if summary != nil {
		runLog.Info("service query completed", "status", summary.Status, "duration", duration, "bytes", len(summary.Data))
	}
	return schema.RunQueryResponse{
		Tab:      done,
		Request:  cfg,
		Query:    snap.Query,
		Response: summary,
		Duration: duration,
		Outcome:  outcome,
	}, nil
}

// AbortQuery cancels the in-flight query of a tab. Unknown tabs are ignored.
func (s *service) AbortQuery(ctx context.Context, req schema.AbortQueryRequest) (schema.AbortQueryResponse, error) {
	if ctx == nil {
		return schema.AbortQueryResponse{}, errMissingContext
	}
	log := logx.WithTab(ctx, s.cfg.Namespace, req.TabID)

	s.mu.Lock()
	t := s.tabs[req.TabID]
	if t == nil {
		s.mu.Unlock()
		log.Warn("service query abort ignored", "err", schema.ErrTabNotFound)
		return schema.AbortQueryResponse{}, nil
	}
	cancel := s.abortLocked(t)
	snap := t.Snapshot(s.active == t.id())
	s.mu.Unlock()

	if cancel == nil {
		return schema.AbortQueryResponse{Tab: snap}, nil
	}
	cancel()
	s.emit(schema.TabEvent{Type: schema.TabEventQueryAbort, TabID: snap.ID, Tab: &snap})
	log.Info("service query aborted")
	return schema.AbortQueryResponse{Tab: snap, Aborted: true}, nil
}
