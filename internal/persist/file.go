package persist

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"pkt.systems/pslog"
	"pkt.systems/sparqlab/schema"
)

const fileSuffix = ".json"

// fileEnvelope is the on-disk form of one entry.
type fileEnvelope struct {
	Key       string          `json:"key"`
	ExpiresAt time.Time       `json:"expires_at,omitzero"`
	Data      json.RawMessage `json:"data,omitempty"`
	Raw       []byte          `json:"raw,omitempty"`
}

// isCompactJSON reports whether value is JSON that the encoder writes
// back byte for byte. Anything else goes into Raw.
func isCompactJSON(value []byte) bool {
	if !json.Valid(value) {
		return false
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, value); err != nil {
		return false
	}
	return bytes.Equal(buf.Bytes(), value)
}

func encodeEnvelope(env fileEnvelope) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(env); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e fileEnvelope) value() []byte {
	if e.Data != nil {
		return []byte(e.Data)
	}
	return e.Raw
}

// FileStore persists one JSON file per key under <dir>/<namespace>.
type FileStore struct {
	mu   sync.Mutex
	dir  string
	opts Options
	log  pslog.Logger
}

// NewFileStore constructs a file-backed store rooted at dir.
func NewFileStore(dir string, opts Options) (*FileStore, error) {
	return NewFileStoreWithLogger(dir, opts, nil)
}

// NewFileStoreWithLogger constructs a file-backed store with logging.
func NewFileStoreWithLogger(dir string, opts Options, logger pslog.Logger) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("state directory is required")
	}
	normalized, err := opts.normalized()
	if err != nil {
		return nil, err
	}
	nsDir := filepath.Join(dir, sanitize(string(normalized.Namespace)))
	if err := os.MkdirAll(nsDir, 0o700); err != nil {
		return nil, err
	}
	if logger != nil {
		logger = logger.With("state_dir", nsDir, "namespace", normalized.Namespace)
	}
	return &FileStore{dir: nsDir, opts: normalized, log: logger}, nil
}

// Namespace returns the store namespace.
func (s *FileStore) Namespace() schema.Namespace { return s.opts.Namespace }

// Get reads the value at key. Expired entries are removed and reported missing.
func (s *FileStore) Get(key string) ([]byte, bool, error) {
	if err := validateKey(key); err != nil {
		return nil, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	env, ok, err := s.readLocked(s.pathForKey(key))
	if err != nil || !ok {
		return nil, false, err
	}
	if expired(env.ExpiresAt, s.opts.Now()) {
		if s.log != nil {
			s.log.Debug("state entry expired", "key", key)
		}
		_ = os.Remove(s.pathForKey(key))
		return nil, false, nil
	}
	return env.value(), true, nil
}

// Set writes value at key atomically.
func (s *FileStore) Set(key string, value []byte, ttl time.Duration) error {
	if err := validateKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	path := s.pathForKey(key)
	env := fileEnvelope{Key: key, ExpiresAt: expiry(s.opts.Now(), ttl)}
	if isCompactJSON(value) {
		env.Data = json.RawMessage(value)
	} else {
		env.Raw = value
	}
	data, err := encodeEnvelope(env)
	if err != nil {
		return err
	}
	if s.opts.QuotaBytes > 0 {
		used, err := s.usageLocked(path)
		if err != nil {
			return err
		}
		if used+int64(len(data)) > s.opts.QuotaBytes {
			if s.log != nil {
				s.log.Warn("state save over quota", "key", key, "used", used, "size", len(data))
			}
			return quotaError(s.opts.Namespace, key, used, int64(len(data)), s.opts.QuotaBytes)
		}
	}
	if err := writeFileAtomic(path, data); err != nil {
		if s.log != nil {
			s.log.Warn("state save failed", "key", key, "err", err)
		}
		return err
	}
	if s.log != nil {
		s.log.Trace("state save ok", "key", key, "bytes", len(data))
	}
	return nil
}

// Remove deletes key. Missing keys are not an error.
func (s *FileStore) Remove(key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.pathForKey(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// RemoveNamespace deletes every entry file of the namespace.
func (s *FileStore) RemoveNamespace() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileSuffix) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	if s.log != nil {
		s.log.Info("state namespace cleared", "entries", len(entries))
	}
	return nil
}

// Keys lists live keys in sorted order.
func (s *FileStore) Keys() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	now := s.opts.Now()
	var keys []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		key, err := url.QueryUnescape(strings.TrimSuffix(name, fileSuffix))
		if err != nil {
			continue
		}
		env, ok, err := s.readLocked(filepath.Join(s.dir, name))
		if err != nil || !ok || expired(env.ExpiresAt, now) {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// Close is a no-op.
func (s *FileStore) Close() error { return nil }

func (s *FileStore) readLocked(path string) (fileEnvelope, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileEnvelope{}, false, nil
		}
		if s.log != nil {
			s.log.Warn("state load failed", "path", path, "err", err)
		}
		return fileEnvelope{}, false, err
	}
	var env fileEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		if s.log != nil {
			s.log.Warn("state load failed", "path", path, "err", err)
		}
		return fileEnvelope{}, false, err
	}
	return env, true, nil
}

// usageLocked sums entry file sizes, excluding the file at skip.
func (s *FileStore) usageLocked(skip string) (int64, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileSuffix) {
			continue
		}
		if filepath.Join(s.dir, entry.Name()) == skip {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		total += info.Size()
	}
	return total, nil
}

func (s *FileStore) pathForKey(key string) string {
	return filepath.Join(s.dir, url.QueryEscape(key)+fileSuffix)
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "state-*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
