package persist

import (
	"slices"
	"sort"
	"sync"
	"time"

	"pkt.systems/sparqlab/schema"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore keeps entries in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	opts    Options
	entries map[string]memoryEntry
}

// NewMemoryStore constructs an in-memory store.
func NewMemoryStore(opts Options) (*MemoryStore, error) {
	normalized, err := opts.normalized()
	if err != nil {
		return nil, err
	}
	return &MemoryStore{opts: normalized, entries: make(map[string]memoryEntry)}, nil
}

// Namespace returns the store namespace.
func (s *MemoryStore) Namespace() schema.Namespace { return s.opts.Namespace }

// Get returns a copy of the value stored at key.
func (s *MemoryStore) Get(key string) ([]byte, bool, error) {
	if err := validateKey(key); err != nil {
		return nil, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	if expired(entry.expiresAt, s.opts.Now()) {
		delete(s.entries, key)
		return nil, false, nil
	}
	return slices.Clone(entry.value), true, nil
}

// Set stores value at key.
func (s *MemoryStore) Set(key string, value []byte, ttl time.Duration) error {
	if err := validateKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.opts.QuotaBytes > 0 {
		var used int64
		for k, entry := range s.entries {
			if k != key {
				used += int64(len(entry.value))
			}
		}
		if used+int64(len(value)) > s.opts.QuotaBytes {
			return quotaError(s.opts.Namespace, key, used, int64(len(value)), s.opts.QuotaBytes)
		}
	}
	s.entries[key] = memoryEntry{value: slices.Clone(value), expiresAt: expiry(s.opts.Now(), ttl)}
	return nil
}

// Remove deletes key.
func (s *MemoryStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// RemoveNamespace deletes every entry.
func (s *MemoryStore) RemoveNamespace() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.entries)
	return nil
}

// Keys lists the live keys in sorted order.
func (s *MemoryStore) Keys() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.opts.Now()
	keys := make([]string, 0, len(s.entries))
	for k, entry := range s.entries {
		if expired(entry.expiresAt, now) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }
