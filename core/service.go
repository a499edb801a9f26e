package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"pkt.systems/pslog"
	"pkt.systems/sparqlab/internal/logx"
	"pkt.systems/sparqlab/internal/persist"
	"pkt.systems/sparqlab/schema"
)

// service implements the tab store.
type service struct {
	cfg       schema.ServiceConfig
	store     persist.Storage
	transport Transport
	resolver  *Resolver
	cors      *CORSCache
	editors   EditorFactory
	viewers   ViewerFactory
	sink      EventSink
	logger    pslog.Logger
	now       func() time.Time

	persistMu sync.Mutex
	mu        sync.Mutex
	tabs      map[schema.TabID]*tab
	order     []schema.TabID
	active    schema.TabID
	history   *endpointHistory
	runSeq    uint64
}

var errMissingContext = errors.New("missing context")

// NewService constructs the tab store and loads persisted tabs.
func NewService(cfg schema.ServiceConfig, deps ServiceDeps) (Service, error) {
	return newService(cfg, deps)
}

func newService(cfg schema.ServiceConfig, deps ServiceDeps) (*service, error) {
	normalized, err := schema.NormalizeServiceConfig(cfg)
	if err != nil {
		return nil, err
	}
	cfg = normalized
	logger := deps.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	if deps.Storage != nil && deps.Storage.Namespace() != cfg.Namespace {
		return nil, fmt.Errorf("storage namespace %q does not match %q", deps.Storage.Namespace(), cfg.Namespace)
	}
	cors := deps.CORS
	if cors == nil && cfg.CORSProxy != "" {
		prober := deps.Prober
		if prober == nil {
			if p, ok := deps.Transport.(Prober); ok {
				prober = p
			}
		}
		cors = NewCORSCache(prober, CORSOptions{Heuristic: deps.CORSHeuristic, Timeout: deps.ProbeTimeout, Logger: logger})
	}
	if deps.Viewers == nil {
		deps.Viewers = defaultViewer
	}
	s := &service{
		cfg:       cfg,
		store:     deps.Storage,
		transport: deps.Transport,
		resolver:  NewResolver(cfg.Request, cfg.CORSProxy, cors),
		cors:      cors,
		editors:   deps.Editors,
		viewers:   deps.Viewers,
		sink:      deps.EventSink,
		logger:    logger.With("namespace", cfg.Namespace),
		now:       time.Now,
		tabs:      make(map[schema.TabID]*tab),
		history:   newEndpointHistory(cfg.EndpointHistoryMax, nil),
	}
	s.load()
	return s, nil
}

func (s *service) CreateTab(ctx context.Context, req schema.CreateTabRequest) (schema.CreateTabResponse, error) {
	if ctx == nil {
		return schema.CreateTabResponse{}, errMissingContext
	}
	log := logx.WithNamespace(ctx, s.cfg.Namespace)
	var name schema.TabName
	if strings.TrimSpace(string(req.Name)) != "" {
		normalized, err := schema.NormalizeTabName(string(req.Name), s.cfg.TabNameMax)
		if err != nil {
			log.Warn("service tab create failed", "err", err)
			return schema.CreateTabResponse{}, err
		}
		name = normalized
	}
	overrides, err := normalizeRequestConfig(req.RequestConfig)
	if err != nil {
		log.Warn("service tab create failed", "err", err)
		return schema.CreateTabResponse{}, err
	}

	s.mu.Lock()
	if name == "" {
		name = s.nextTabNameLocked()
	}
	persisted := s.defaultsLocked(s.newTabIDLocked(), name)
	persisted.RequestConfig = persisted.RequestConfig.Override(overrides)
	if req.Query != nil {
		persisted.Query.Value = *req.Query
	}
	persisted.Query.EditorHeight = req.EditorHeight
	if req.Settings != nil {
		persisted.Result.Settings = req.Settings.Clone()
	}
	t, selected := s.addTabLocked(persisted, req.Select)
	snap := t.Snapshot(s.active == t.id())
	s.mu.Unlock()

	s.persistTab(log, t.id())
	s.persistList(log)
	s.emit(schema.TabEvent{Type: schema.StoreEventTabAdd, TabID: snap.ID, Tab: &snap})
	if selected {
		s.emit(schema.TabEvent{Type: schema.StoreEventTabSelect, TabID: snap.ID, Tab: &snap})
	}
	log.Info("service tab created", "tab", snap.ID, "name", snap.Name, "endpoint", snap.Endpoint)
	return schema.CreateTabResponse{Tab: snap}, nil
}

func (s *service) RestoreTab(ctx context.Context, req schema.RestoreTabRequest) (schema.RestoreTabResponse, error) {
	if ctx == nil {
		return schema.RestoreTabResponse{}, errMissingContext
	}
	log := logx.WithTab(ctx, s.cfg.Namespace, req.Tab.ID)
	if strings.TrimSpace(string(req.Tab.ID)) == "" {
		log.Warn("service tab restore failed", "err", schema.ErrInvalidConfig)
		return schema.RestoreTabResponse{}, fmt.Errorf("%w: missing id", schema.ErrInvalidConfig)
	}
	persisted := req.Tab.Clone()
	if _, err := normalizeRequestConfig(persisted.RequestConfig); err != nil {
		return schema.RestoreTabResponse{}, fmt.Errorf("%w: %v", schema.ErrInvalidConfig, err)
	}

	s.mu.Lock()
	if _, exists := s.tabs[persisted.ID]; exists {
		s.mu.Unlock()
		log.Warn("service tab restore failed", "err", "duplicate id")
		return schema.RestoreTabResponse{}, fmt.Errorf("%w: duplicate id %q", schema.ErrInvalidConfig, persisted.ID)
	}
	if strings.TrimSpace(string(persisted.Name)) == "" {
		persisted.Name = s.nextTabNameLocked()
	}
	if persisted.Result.Settings.SelectedPlugin == "" {
		persisted.Result.Settings.SelectedPlugin = s.cfg.DefaultResultPlugin
	}
	t, selected := s.addTabLocked(persisted, req.Select)
	snap := t.Snapshot(s.active == t.id())
	s.mu.Unlock()

	s.persistTab(log, t.id())
	s.persistList(log)
	s.emit(schema.TabEvent{Type: schema.StoreEventTabAdd, TabID: snap.ID, Tab: &snap})
	if selected {
		s.emit(schema.TabEvent{Type: schema.StoreEventTabSelect, TabID: snap.ID, Tab: &snap})
	}
	log.Info("service tab restored", "name", snap.Name)
	return schema.RestoreTabResponse{Tab: snap}, nil
}

func (s *service) SelectTab(ctx context.Context, req schema.SelectTabRequest) (schema.SelectTabResponse, error) {
	if ctx == nil {
		return schema.SelectTabResponse{}, errMissingContext
	}
	log := logx.WithTab(ctx, s.cfg.Namespace, req.TabID)

	s.mu.Lock()
	t := s.tabs[req.TabID]
	if t == nil {
		s.mu.Unlock()
		log.Warn("service tab select ignored", "err", schema.ErrTabNotFound)
		return schema.SelectTabResponse{}, nil
	}
	changed := s.selectLocked(t)
	snap := t.Snapshot(true)
	s.mu.Unlock()

	if changed {
		s.persistList(log)
		s.emit(schema.TabEvent{Type: schema.StoreEventTabSelect, TabID: snap.ID, Tab: &snap})
		log.Info("service tab selected")
	}
	return schema.SelectTabResponse{Tab: snap, Applied: true}, nil
}

func (s *service) CloseTab(ctx context.Context, req schema.CloseTabRequest) (schema.CloseTabResponse, error) {
	if ctx == nil {
		return schema.CloseTabResponse{}, errMissingContext
	}
	log := logx.WithTab(ctx, s.cfg.Namespace, req.TabID)

	s.mu.Lock()
	t := s.tabs[req.TabID]
	if t == nil {
		s.mu.Unlock()
		log.Warn("service tab close ignored", "err", schema.ErrTabNotFound)
		return schema.CloseTabResponse{}, nil
	}
	abort := s.abortLocked(t)
	var selected *tab
	if s.active == t.id() {
		if next := neighbour(s.order, t.id()); next != "" {
			selected = s.tabs[next]
			s.selectLocked(selected)
		} else {
			s.active = ""
		}
	}
	s.order = removeTabID(s.order, t.id())
	delete(s.tabs, t.id())
	closed := t.Snapshot(false)
	var selectedSnap schema.TabSnapshot
	if selected != nil {
		selectedSnap = selected.Snapshot(true)
	}
	active := s.active
	s.mu.Unlock()

	if abort != nil {
		abort()
		s.emit(schema.TabEvent{Type: schema.TabEventQueryAbort, TabID: closed.ID, Tab: &closed})
	}
	if selected != nil {
		s.emit(schema.TabEvent{Type: schema.StoreEventTabSelect, TabID: selectedSnap.ID, Tab: &selectedSnap})
	}
	s.removeTab(log, closed.ID)
	s.persistList(log)
	s.emit(schema.TabEvent{Type: schema.StoreEventTabClose, TabID: closed.ID, Tab: &closed})
	s.emit(schema.TabEvent{Type: schema.TabEventClose, TabID: closed.ID, Tab: &closed})
	log.Info("service tab closed", "active", active)
	return schema.CloseTabResponse{Tab: closed, ActiveTab: active, Applied: true}, nil
}

func (s *service) RenameTab(ctx context.Context, req schema.RenameTabRequest) (schema.RenameTabResponse, error) {
	if ctx == nil {
		return schema.RenameTabResponse{}, errMissingContext
	}
	log := logx.WithTab(ctx, s.cfg.Namespace, req.TabID)
	name, err := schema.NormalizeTabName(req.Name, s.cfg.TabNameMax)
	if err != nil {
		log.Warn("service tab rename failed", "err", err)
		return schema.RenameTabResponse{}, err
	}

	s.mu.Lock()
	t := s.tabs[req.TabID]
	if t == nil {
		s.mu.Unlock()
		log.Warn("service tab rename ignored", "err", schema.ErrTabNotFound)
		return schema.RenameTabResponse{}, nil
	}
	changed := t.persisted.Name != name
	t.persisted.Name = name
	snap := t.Snapshot(s.active == t.id())
	s.mu.Unlock()

	if changed {
		s.changed(log, snap.ID)
		log.Info("service tab renamed", "name", name)
	}
	return schema.RenameTabResponse{Tab: snap, Applied: true}, nil
}

func (s *service) ListTabs(ctx context.Context, req schema.ListTabsRequest) (schema.ListTabsResponse, error) {
	_ = req
	if ctx == nil {
		return schema.ListTabsResponse{}, errMissingContext
	}
	log := logx.WithNamespace(ctx, s.cfg.Namespace)

	s.mu.Lock()
	defer s.mu.Unlock()
	tabs := make([]schema.TabSnapshot, 0, len(s.order))
	for _, id := range s.order {
		t := s.tabs[id]
		if t == nil {
			continue
		}
		tabs = append(tabs, t.Snapshot(id == s.active))
	}
	resp := schema.ListTabsResponse{
		Tabs:            tabs,
		ActiveTab:       s.active,
		EndpointHistory: s.history.Entries(),
	}
	log.Trace("service tabs listed", "count", len(tabs), "active", resp.ActiveTab)
	return resp, nil
}

func (s *service) GetTab(ctx context.Context, req schema.GetTabRequest) (schema.GetTabResponse, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.tabs[req.TabID]
	if t == nil {
		return schema.GetTabResponse{}, schema.ErrTabNotFound
	}
	return schema.GetTabResponse{Tab: t.Snapshot(s.active == t.id()), Persisted: t.persisted.Clone()}, nil
}

func (s *service) AttachEditor(ctx context.Context, tabID schema.TabID, editor Editor) error {
	if editor == nil {
		return schema.ErrInvalidRequest
	}
	log := logx.WithTab(ctx, s.cfg.Namespace, tabID)
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.tabs[tabID]
	if t == nil {
		log.Warn("service editor attach failed", "err", schema.ErrTabNotFound)
		return schema.ErrTabNotFound
	}
	editor.SetValue(t.persisted.Query.Value)
	t.editor = editor
	log.Debug("service editor attached")
	return nil
}

func (s *service) SetQuery(ctx context.Context, req schema.SetQueryRequest) (schema.SetQueryResponse, error) {
	if ctx == nil {
		return schema.SetQueryResponse{}, errMissingContext
	}
	log := logx.WithTab(ctx, s.cfg.Namespace, req.TabID)

	s.mu.Lock()
	t, err := s.editorTabLocked(req.TabID)
	if err != nil {
		s.mu.Unlock()
		log.Warn("service query set failed", "err", err)
		return schema.SetQueryResponse{}, err
	}
	t.editor.SetValue(req.Query)
	t.persisted.Query.Value = req.Query
	snap := t.Snapshot(s.active == t.id())
	s.mu.Unlock()

	s.changed(log, snap.ID)
	log.Debug("service query set", "bytes", len(req.Query))
	return schema.SetQueryResponse{Tab: snap}, nil
}

func (s *service) GetQuery(ctx context.Context, req schema.GetQueryRequest) (schema.GetQueryResponse, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.editorTabLocked(req.TabID)
	if err != nil {
		return schema.GetQueryResponse{}, err
	}
	return schema.GetQueryResponse{Query: t.editor.Value()}, nil
}

func (s *service) SyncEditor(ctx context.Context, req schema.SyncEditorRequest) (schema.SyncEditorResponse, error) {
	if ctx == nil {
		return schema.SyncEditorResponse{}, errMissingContext
	}
	log := logx.WithTab(ctx, s.cfg.Namespace, req.TabID)

	s.mu.Lock()
	t, err := s.editorTabLocked(req.TabID)
	if err != nil {
		s.mu.Unlock()
		return schema.SyncEditorResponse{}, err
	}
	changed := s.syncEditorLocked(t)
	snap := t.Snapshot(s.active == t.id())
	s.mu.Unlock()

	if changed {
		s.changed(log, snap.ID)
	}
	return schema.SyncEditorResponse{Tab: snap, Changed: changed}, nil
}

func (s *service) SetEditorHeight(ctx context.Context, req schema.SetEditorHeightRequest) (schema.SetEditorHeightResponse, error) {
	if ctx == nil {
		return schema.SetEditorHeightResponse{}, errMissingContext
	}
	log := logx.WithTab(ctx, s.cfg.Namespace, req.TabID)

	s.mu.Lock()
	t := s.tabs[req.TabID]
	if t == nil {
		s.mu.Unlock()
		log.Warn("service editor height ignored", "err", schema.ErrTabNotFound)
		return schema.SetEditorHeightResponse{}, nil
	}
	height := strings.TrimSpace(req.Height)
	changed := t.persisted.Query.EditorHeight != height
	t.persisted.Query.EditorHeight = height
	snap := t.Snapshot(s.active == t.id())
	s.mu.Unlock()

	if changed {
		s.changed(log, snap.ID)
	}
	return schema.SetEditorHeightResponse{Tab: snap, Applied: true}, nil
}

func (s *service) SetEndpoint(ctx context.Context, req schema.SetEndpointRequest) (schema.SetEndpointResponse, error) {
	if ctx == nil {
		return schema.SetEndpointResponse{}, errMissingContext
	}
	log := logx.WithTab(ctx, s.cfg.Namespace, req.TabID)
	endpoint, err := schema.NormalizeEndpoint(req.Endpoint)
	if err != nil {
		log.Warn("service endpoint set failed", "endpoint", req.Endpoint, "err", err)
		return schema.SetEndpointResponse{}, err
	}

	s.mu.Lock()
	t := s.tabs[req.TabID]
	if t == nil {
		s.mu.Unlock()
		log.Warn("service endpoint set ignored", "err", schema.ErrTabNotFound)
		return schema.SetEndpointResponse{}, nil
	}
	historyChanged := false
	if req.History != nil {
		historyChanged = s.history.Replace(req.History)
	}
	if req.RecordHistory {
		historyChanged = s.history.Record(endpoint) || historyChanged
	}
	changed := t.persisted.RequestConfig.Endpoint != endpoint
	t.persisted.RequestConfig.Endpoint = endpoint
	snap := t.Snapshot(s.active == t.id())
	history := s.history.Entries()
	s.mu.Unlock()

	if historyChanged {
		s.persistList(log)
		s.emit(schema.TabEvent{Type: schema.StoreEventEndpointHistoryChange, EndpointHistory: history})
	}
	s.checkCORS(endpoint)
	if changed {
		s.changed(log, snap.ID)
		s.emit(schema.TabEvent{Type: schema.TabEventEndpointChange, TabID: snap.ID, Tab: &snap, Endpoint: endpoint})
		log.Info("service endpoint changed", "endpoint", endpoint)
	}
	return schema.SetEndpointResponse{Tab: snap, Applied: true, Changed: changed, EndpointHistory: history}, nil
}

func (s *service) SetRequestConfig(ctx context.Context, req schema.SetRequestConfigRequest) (schema.SetRequestConfigResponse, error) {
	if ctx == nil {
		return schema.SetRequestConfigResponse{}, errMissingContext
	}
	log := logx.WithTab(ctx, s.cfg.Namespace, req.TabID)
	cfg, err := normalizeRequestConfig(req.Config)
	if err != nil {
		log.Warn("service request config failed", "err", err)
		return schema.SetRequestConfigResponse{}, err
	}

	s.mu.Lock()
	t := s.tabs[req.TabID]
	if t == nil {
		s.mu.Unlock()
		log.Warn("service request config ignored", "err", schema.ErrTabNotFound)
		return schema.SetRequestConfigResponse{}, nil
	}
	before := t.persisted.RequestConfig.Endpoint
	if req.Replace {
		t.persisted.RequestConfig = cfg.Clone()
	} else {
		t.persisted.RequestConfig = t.persisted.RequestConfig.Override(cfg)
	}
	after := t.persisted.RequestConfig.Endpoint
	snap := t.Snapshot(s.active == t.id())
	s.mu.Unlock()

	s.changed(log, snap.ID)
	if after != before {
		s.checkCORS(after)
		s.emit(schema.TabEvent{Type: schema.TabEventEndpointChange, TabID: snap.ID, Tab: &snap, Endpoint: after})
	}
	log.Debug("service request config updated", "replace", req.Replace)
	return schema.SetRequestConfigResponse{Tab: snap, Applied: true}, nil
}

func (s *service) SetResultSettings(ctx context.Context, req schema.SetResultSettingsRequest) (schema.SetResultSettingsResponse, error) {
	if ctx == nil {
		return schema.SetResultSettingsResponse{}, errMissingContext
	}
	log := logx.WithTab(ctx, s.cfg.Namespace, req.TabID)

	s.mu.Lock()
	t := s.tabs[req.TabID]
	if t == nil {
		s.mu.Unlock()
		log.Warn("service result settings ignored", "err", schema.ErrTabNotFound)
		return schema.SetResultSettingsResponse{}, nil
	}
	t.viewer.SetPersistentConfig(req.Settings)
	t.persisted.Result.Settings = t.viewer.PersistentConfig()
	snap := t.Snapshot(s.active == t.id())
	s.mu.Unlock()

	s.changed(log, snap.ID)
	return schema.SetResultSettingsResponse{Tab: snap, Applied: true}, nil
}

func (s *service) ResolveRequestConfig(ctx context.Context, req schema.ResolveRequestConfigRequest) (schema.ResolveRequestConfigResponse, error) {
	_ = ctx
	s.mu.Lock()
	t := s.tabs[req.TabID]
	if t == nil {
		s.mu.Unlock()
		return schema.ResolveRequestConfigResponse{}, schema.ErrTabNotFound
	}
	snap := t.Snapshot(s.active == t.id())
	s.mu.Unlock()
	return schema.ResolveRequestConfigResponse{Config: s.resolver.Resolve(snap)}, nil
}

func (s *service) Close() error {
	s.mu.Lock()
	var cancels []context.CancelFunc
	for _, t := range s.tabs {
		if cancel := s.abortLocked(t); cancel != nil {
			cancels = append(cancels, cancel)
		}
	}
	s.mu.Unlock()
	for _, cancel := range cancels {
		cancel()
	}
	return nil
}

// changed persists the tab and emits a change event carrying its persisted form.
func (s *service) changed(log pslog.Logger, id schema.TabID) {
	s.persistTab(log, id)
	s.mu.Lock()
	t := s.tabs[id]
	if t == nil {
		s.mu.Unlock()
		return
	}
	snap := t.Snapshot(s.active == id)
	persisted := t.persisted.Clone()
	s.mu.Unlock()
	s.emit(schema.TabEvent{Type: schema.TabEventChange, TabID: id, Tab: &snap, Persisted: &persisted})
}

func (s *service) checkCORS(endpoint string) {
	if s.cfg.CORSProxy == "" || s.cors == nil {
		return
	}
	s.cors.Check(endpoint)
}

func (s *service) emit(event schema.TabEvent) {
	if s.sink == nil {
		return
	}
	event.Namespace = s.cfg.Namespace
	if event.At.IsZero() {
		event.At = s.now()
	}
	s.sink.OnTabEvent(event)
}

func (s *service) defaultsLocked(id schema.TabID, name schema.TabName) schema.PersistedTab {
	return schema.PersistedTab{
		ID:    id,
		Name:  name,
		Query: schema.QueryState{Value: s.cfg.DefaultQuery},
		Result: schema.ResultState{
			Settings: schema.ResultSettings{SelectedPlugin: s.cfg.DefaultResultPlugin, PluginsConfig: map[string]json.RawMessage{}},
		},
		RequestConfig: s.cfg.Request.Literals(),
	}
}

// addTabLocked appends a tab built from persisted. The tab becomes active
// when nothing is active or selectTab is set.
func (s *service) addTabLocked(persisted schema.PersistedTab, selectTab bool) (*tab, bool) {
	t := s.newTabLocked(persisted)
	s.tabs[t.id()] = t
	s.order = append(s.order, t.id())
	selected := false
	if s.active == "" || selectTab {
		selected = s.selectLocked(t)
	}
	return t, selected
}

func (s *service) newTabLocked(persisted schema.PersistedTab) *tab {
	viewer := s.viewers(persisted.Result.Settings)
	viewer.Restore(persisted.Result.Response)
	persisted.Result.Settings = viewer.PersistentConfig()
	return &tab{persisted: persisted, viewer: viewer, status: schema.TabStatusIdle}
}

// selectLocked activates t and attaches its editor. It reports whether
// the active tab changed.
func (s *service) selectLocked(t *tab) bool {
	if s.active == t.id() {
		return false
	}
	s.active = t.id()
	if t.editor == nil {
		var editor Editor
		if s.editors != nil {
			editor = s.editors(t.Snapshot(true))
		}
		if editor == nil {
			editor = NewTextEditor("")
		}
		editor.SetValue(t.persisted.Query.Value)
		t.editor = editor
	}
	return true
}

func (s *service) editorTabLocked(id schema.TabID) (*tab, error) {
	t := s.tabs[id]
	if t == nil {
		return nil, schema.ErrTabNotFound
	}
	if t.editor == nil {
		return nil, schema.ErrUninitializedEditor
	}
	return t, nil
}

func (s *service) syncEditorLocked(t *tab) bool {
	if t.editor == nil {
		return false
	}
	value := t.editor.Value()
	if value == t.persisted.Query.Value {
		return false
	}
	t.persisted.Query.Value = value
	return true
}

// abortLocked detaches the in-flight query of t and returns its cancel func.
func (s *service) abortLocked(t *tab) context.CancelFunc {
	if t.run == nil {
		return nil
	}
	cancel := t.run.cancel
	t.run = nil
	t.status = schema.TabStatusIdle
	t.lastOutcome = schema.QueryOutcomeAborted
	return cancel
}

func (s *service) newTabIDLocked() schema.TabID {
	for {
		id := newTabID()
		if _, exists := s.tabs[id]; !exists {
			return id
		}
	}
}

// nextTabNameLocked returns the base name, or the base name with the
// lowest free numeric suffix.
func (s *service) nextTabNameLocked() schema.TabName {
	taken := make(map[schema.TabName]bool, len(s.tabs))
	for _, t := range s.tabs {
		taken[t.persisted.Name] = true
	}
	base := schema.TabName(s.cfg.DefaultTabName)
	if !taken[base] {
		return base
	}
	for i := 1; ; i++ {
		name := schema.TabName(fmt.Sprintf("%s %d", base, i))
		if !taken[name] {
			return name
		}
	}
}

func normalizeRequestConfig(cfg schema.RequestConfig) (schema.RequestConfig, error) {
	out := cfg.Clone()
	if strings.TrimSpace(out.Endpoint) != "" {
		endpoint, err := schema.NormalizeEndpoint(out.Endpoint)
		if err != nil {
			return schema.RequestConfig{}, err
		}
		out.Endpoint = endpoint
	} else {
		out.Endpoint = ""
	}
	method, err := schema.NormalizeMethod(out.Method)
	if err != nil {
		return schema.RequestConfig{}, err
	}
	out.Method = method
	return out, nil
}

// neighbour returns the tab selected when id is closed: the next tab, or
// the previous one when id is last.
func neighbour(order []schema.TabID, id schema.TabID) schema.TabID {
	i := slices.Index(order, id)
	if i < 0 || len(order) < 2 {
		return ""
	}
	if i == len(order)-1 {
		return order[i-1]
	}
	return order[i+1]
}

func removeTabID(order []schema.TabID, id schema.TabID) []schema.TabID {
	for i, current := range order {
		if current == id {
			return append(order[:i], order[i+1:]...)
		}
	}
	return order
}
