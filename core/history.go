package core

import (
	"slices"
	"strings"
)

// endpointHistory is the shared most-recent-first endpoint list.
type endpointHistory struct {
	entries []string
	max     int
}

func newEndpointHistory(max int, persisted []string) *endpointHistory {
	h := &endpointHistory{entries: []string{}, max: max}
	h.Replace(persisted)
	return h
}

// Record moves endpoint to the front. It reports whether the list changed.
func (h *endpointHistory) Record(endpoint string) bool {
	if strings.TrimSpace(endpoint) == "" {
		return false
	}
	if len(h.entries) > 0 && h.entries[0] == endpoint {
		return false
	}
	if i := slices.Index(h.entries, endpoint); i >= 0 {
		h.entries = slices.Delete(h.entries, i, i+1)
	}
	h.entries = slices.Insert(h.entries, 0, endpoint)
	if h.max > 0 && len(h.entries) > h.max {
		h.entries = h.entries[:h.max]
	}
	return true
}

// Replace swaps the list, dropping blanks and duplicates. It reports
// whether the list changed.
func (h *endpointHistory) Replace(entries []string) bool {
	next := make([]string, 0, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" || slices.Contains(next, e) {
			continue
		}
		next = append(next, e)
	}
	if h.max > 0 && len(next) > h.max {
		next = next[:h.max]
	}
	if slices.Equal(next, h.entries) {
		return false
	}
	h.entries = next
	return true
}

// Entries returns a copy of the list; never nil.
func (h *endpointHistory) Entries() []string {
	return append(make([]string, 0, len(h.entries)), h.entries...)
}
