package core

import (
	"context"
	"time"

	"pkt.systems/pslog"
	"pkt.systems/sparqlab/internal/persist"
	"pkt.systems/sparqlab/internal/results"
	"pkt.systems/sparqlab/internal/sparql"
	"pkt.systems/sparqlab/schema"
)

// Transport executes SPARQL requests. It must honour ctx cancellation.
type Transport interface {
	Execute(ctx context.Context, cfg schema.EffectiveRequestConfig, tab schema.TabSnapshot, query string) (*sparql.Response, error)
}

// ResultsViewer keeps the current response of one tab.
type ResultsViewer interface {
	SetResponse(resp *sparql.Response, err error, duration time.Duration)
	Restore(summary *schema.ResponseSummary)
	PersistentConfig() schema.ResultSettings
	SetPersistentConfig(settings schema.ResultSettings)
	HasError() bool
	Summary() *schema.ResponseSummary
	StoreObject(maxSize int) *schema.ResponseSummary
}

// EditorFactory builds the editor attached to a tab on first selection.
type EditorFactory func(tab schema.TabSnapshot) Editor

// ViewerFactory builds the results viewer of a tab.
type ViewerFactory func(settings schema.ResultSettings) ResultsViewer

// ServiceDeps captures optional dependencies for the tab store.
type ServiceDeps struct {
	// Storage persists tabs; nil keeps state in memory only.
	Storage   persist.Storage
	Transport Transport
	// CORS overrides the capability cache; by default one is built from Prober.
	CORS          *CORSCache
	Prober        Prober
	Editors       EditorFactory
	Viewers       ViewerFactory
	EventSink     EventSink
	Logger        pslog.Logger
	ProbeTimeout  time.Duration
	CORSHeuristic CORSHeuristic
}

func defaultViewer(settings schema.ResultSettings) ResultsViewer {
	return results.NewViewer(settings)
}
