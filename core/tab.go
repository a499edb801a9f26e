package core

import (
	"context"

	"pkt.systems/sparqlab/schema"
)

// tab tracks the state of a single query tab.
type tab struct {
	persisted   schema.PersistedTab
	editor      Editor
	viewer      ResultsViewer
	status      schema.TabStatus
	lastOutcome schema.QueryOutcome
	run         *queryRun
}

// queryRun is the in-flight query of a tab.
type queryRun struct {
	gen    uint64
	cancel context.CancelFunc
}

func (t *tab) id() schema.TabID { return t.persisted.ID }

// Snapshot returns a transport-friendly view of the tab.
func (t *tab) Snapshot(active bool) schema.TabSnapshot {
	query := t.persisted.Query.Value
	if t.editor != nil {
		query = t.editor.Value()
	}
	return schema.TabSnapshot{
		ID:             t.persisted.ID,
		Name:           t.persisted.Name,
		Query:          query,
		EditorHeight:   t.persisted.Query.EditorHeight,
		Endpoint:       t.persisted.RequestConfig.Endpoint,
		RequestConfig:  t.persisted.RequestConfig.Clone(),
		Settings:       t.persisted.Result.Settings.Clone(),
		Result:         t.persisted.Result.Response.Clone(),
		Status:         t.status,
		LastOutcome:    t.lastOutcome,
		Active:         active,
		EditorAttached: t.editor != nil,
	}
}
