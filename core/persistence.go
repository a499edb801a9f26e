package core

import (
	"encoding/json"
	"errors"

	"pkt.systems/pslog"
	"pkt.systems/sparqlab/schema"
)

const (
	listKey   = "tabs"
	tabPrefix = "tab:"
)

func tabKey(id schema.TabID) string {
	return tabPrefix + string(id)
}

// persistTab writes the persisted form of one tab. Callers must not hold s.mu.
func (s *service) persistTab(log pslog.Logger, id schema.TabID) {
	if s.store == nil {
		return
	}
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	s.mu.Lock()
	t := s.tabs[id]
	if t == nil {
		s.mu.Unlock()
		return
	}
	data, err := json.Marshal(t.persisted)
	s.mu.Unlock()
	if err != nil {
		log.Warn("service persist tab encode failed", "tab", id, "err", err)
		return
	}
	s.writeLocked(log, tabKey(id), data)
}

// persistList writes the tab index together with the active tab and the
// endpoint history.
func (s *service) persistList(log pslog.Logger) {
	if s.store == nil {
		return
	}
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	s.mu.Lock()
	list := schema.TabList{
		Tabs:            append([]schema.TabID(nil), s.order...),
		Active:          s.active,
		EndpointHistory: s.history.Entries(),
	}
	s.mu.Unlock()
	data, err := json.Marshal(list)
	if err != nil {
		log.Warn("service persist list encode failed", "err", err)
		return
	}
	s.writeLocked(log, listKey, data)
}

func (s *service) removeTab(log pslog.Logger, id schema.TabID) {
	if s.store == nil {
		return
	}
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if err := s.store.Remove(tabKey(id)); err != nil {
		log.Warn("service persist remove failed", "tab", id, "err", err)
	}
}

// writeLocked stores data under key. A quota failure clears the whole
// namespace and the write is dropped.
func (s *service) writeLocked(log pslog.Logger, key string, data []byte) {
	err := s.store.Set(key, data, s.cfg.PersistTTL)
	if err == nil {
		return
	}
	if errors.Is(err, schema.ErrStorageQuotaExceeded) {
		if rerr := s.store.RemoveNamespace(); rerr != nil {
			log.Error("service storage clear failed", "err", rerr)
		}
		log.Warn("service storage quota exceeded, namespace cleared", "key", key, "bytes", len(data), "err", err)
		return
	}
	log.Warn("service persist failed", "key", key, "err", err)
}

// load restores tabs from storage. Missing or unreadable tabs are
// skipped; the active tab gets its editor attached.
func (s *service) load() {
	if s.store == nil {
		return
	}
	log := s.logger
	raw, ok, err := s.store.Get(listKey)
	if err != nil {
		log.Warn("service tab list load failed", "err", err)
		return
	}
	if !ok {
		return
	}
	var list schema.TabList
	if err := json.Unmarshal(raw, &list); err != nil {
		log.Warn("service tab list decode failed", "err", err)
		return
	}

	s.mu.Lock()
	s.history = newEndpointHistory(s.cfg.EndpointHistoryMax, list.EndpointHistory)
	for _, id := range list.Tabs {
		if _, exists := s.tabs[id]; exists {
			continue
		}
		persisted, ok := s.loadTab(log, id)
		if !ok {
			continue
		}
		t := s.newTabLocked(persisted)
		s.tabs[id] = t
		s.order = append(s.order, id)
	}
	active := s.tabs[list.Active]
	if active == nil && len(s.order) > 0 {
		active = s.tabs[s.order[0]]
	}
	if active != nil {
		s.selectLocked(active)
	}
	dropped := len(s.order) != len(list.Tabs) || s.active != list.Active
	count := len(s.order)
	activeID := s.active
	s.mu.Unlock()

	if dropped {
		s.persistList(log)
	}
	log.Info("service tabs loaded", "count", count, "active", activeID)
}

func (s *service) loadTab(log pslog.Logger, id schema.TabID) (schema.PersistedTab, bool) {
	raw, ok, err := s.store.Get(tabKey(id))
	if err != nil {
		log.Warn("service tab load failed", "tab", id, "err", err)
		return schema.PersistedTab{}, false
	}
	if !ok {
		log.Debug("service tab missing from storage", "tab", id)
		return schema.PersistedTab{}, false
	}
	var persisted schema.PersistedTab
	if err := json.Unmarshal(raw, &persisted); err != nil {
		log.Warn("service tab decode failed", "tab", id, "err", err)
		return schema.PersistedTab{}, false
	}
	if persisted.ID != id {
		log.Warn("service tab id mismatch", "tab", id, "stored", persisted.ID)
		return schema.PersistedTab{}, false
	}
	if persisted.Name == "" {
		persisted.Name = schema.TabName(s.cfg.DefaultTabName)
	}
	return persisted, true
}
