package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pkt.systems/pslog"
	"pkt.systems/sparqlab/core"
	"pkt.systems/sparqlab/internal/appconfig"
	"pkt.systems/sparqlab/internal/persist"
	"pkt.systems/sparqlab/internal/sparql"
	"pkt.systems/sparqlab/internal/version"
	"pkt.systems/sparqlab/schema"
)

// workbench is a tab store opened from the config for one CLI invocation.
type workbench struct {
	cfg     appconfig.Config
	store   persist.Storage
	client  *sparql.Client
	service core.Service
}

func newSPARQLClient(cfg appconfig.Config, logger pslog.Logger) *sparql.Client {
	return sparql.NewClient(sparql.ClientOptions{
		Timeout:   cfg.RequestTimeout(),
		UserAgent: "sparqlab/" + version.Current(),
		Logger:    logger,
	})
}

func serviceDeps(cfg appconfig.Config, store persist.Storage, client *sparql.Client, logger pslog.Logger, sink core.EventSink) core.ServiceDeps {
	return core.ServiceDeps{
		Storage:       store,
		Transport:     client,
		Prober:        client,
		EventSink:     sink,
		Logger:        logger,
		ProbeTimeout:  cfg.ProbeTimeout(),
		CORSHeuristic: core.HeuristicByName(cfg.CORS.Heuristic),
	}
}

func openWorkbench(ctx context.Context, cfgPath string, sink core.EventSink) (*workbench, error) {
	cfg, err := appconfig.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	return openWorkbenchWithConfig(ctx, cfg, sink)
}

func openWorkbenchWithConfig(ctx context.Context, cfg appconfig.Config, sink core.EventSink) (*workbench, error) {
	logger := pslog.Ctx(ctx)
	serviceCfg, err := cfg.ServiceConfig()
	if err != nil {
		return nil, err
	}
	store, err := persist.Open(cfg.StorageConfig(), logger)
	if err != nil {
		return nil, err
	}
	client := newSPARQLClient(cfg, logger)
	service, err := core.NewService(serviceCfg, serviceDeps(cfg, store, client, logger, sink))
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return &workbench{cfg: cfg, store: store, client: client, service: service}, nil
}

func (w *workbench) Close() error {
	return errors.Join(w.service.Close(), w.store.Close())
}

// resolveTab picks the tab named by ref (id or name), or the active tab
// when ref is empty.
func (w *workbench) resolveTab(ctx context.Context, ref string) (schema.TabSnapshot, error) {
	list, err := w.service.ListTabs(ctx, schema.ListTabsRequest{})
	if err != nil {
		return schema.TabSnapshot{}, err
	}
	ref = strings.TrimSpace(ref)
	if ref == "" {
		for _, tab := range list.Tabs {
			if tab.ID == list.ActiveTab {
				return tab, nil
			}
		}
		return schema.TabSnapshot{}, fmt.Errorf("%w: no active tab", schema.ErrTabNotFound)
	}
	for _, tab := range list.Tabs {
		if string(tab.ID) == ref {
			return tab, nil
		}
	}
	var match *schema.TabSnapshot
	for i := range list.Tabs {
		if string(list.Tabs[i].Name) == ref {
			if match != nil {
				return schema.TabSnapshot{}, fmt.Errorf("%w: tab name %q is ambiguous", schema.ErrInvalidRequest, ref)
			}
			match = &list.Tabs[i]
		}
	}
	if match == nil {
		return schema.TabSnapshot{}, fmt.Errorf("%w: %s", schema.ErrTabNotFound, ref)
	}
	return *match, nil
}

// ensureEditor attaches an in-memory editor to tabs that have none yet.
func (w *workbench) ensureEditor(ctx context.Context, tab schema.TabSnapshot) error {
	if tab.EditorAttached {
		return nil
	}
	return w.service.AttachEditor(ctx, tab.ID, core.NewTextEditor(""))
}
