package persist

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"pkt.systems/sparqlab/schema"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func backends(t *testing.T, opts Options) map[string]Storage {
	t.Helper()
	mem, err := NewMemoryStore(opts)
	if err != nil {
		t.Fatalf("memory store: %v", err)
	}
	file, err := NewFileStore(t.TempDir(), opts)
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	db, err := NewSQLiteStore(filepath.Join(t.TempDir(), "state.db"), opts, nil)
	if err != nil {
		t.Fatalf("sqlite store: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return map[string]Storage{"memory": mem, "file": file, "sqlite": db}
}

func TestStorageGetMissing(t *testing.T) {
	for name, store := range backends(t, Options{Namespace: "ns"}) {
		_, ok, err := store.Get("tabs")
		if err != nil {
			t.Fatalf("%s: get: %v", name, err)
		}
		if ok {
			t.Fatalf("%s: expected missing entry", name)
		}
	}
}

func TestStorageSetGetRemove(t *testing.T) {
	for name, store := range backends(t, Options{Namespace: "ns"}) {
		if err := store.Set("tab:abc", []byte(`{"id":"abc"}`), 0); err != nil {
			t.Fatalf("%s: set: %v", name, err)
		}
		if err := store.Set("blob", []byte{0xff, 0x00}, 0); err != nil {
			t.Fatalf("%s: set blob: %v", name, err)
		}
		got, ok, err := store.Get("tab:abc")
		if err != nil || !ok {
			t.Fatalf("%s: get: ok=%v err=%v", name, ok, err)
		}
		if string(got) != `{"id":"abc"}` {
			t.Fatalf("%s: unexpected value %q", name, got)
		}
		blob, ok, err := store.Get("blob")
		if err != nil || !ok || !reflect.DeepEqual(blob, []byte{0xff, 0x00}) {
			t.Fatalf("%s: unexpected blob %v ok=%v err=%v", name, blob, ok, err)
		}
		keys, err := store.Keys()
		if err != nil {
			t.Fatalf("%s: keys: %v", name, err)
		}
		if !reflect.DeepEqual(keys, []string{"blob", "tab:abc"}) {
			t.Fatalf("%s: unexpected keys %v", name, keys)
		}
		if err := store.Remove("tab:abc"); err != nil {
			t.Fatalf("%s: remove: %v", name, err)
		}
		if _, ok, _ := store.Get("tab:abc"); ok {
			t.Fatalf("%s: expected removed entry", name)
		}
	}
}

func TestStorageValuesRoundTripVerbatim(t *testing.T) {
	values := map[string][]byte{
		"compact":  []byte(`{"query":"SELECT * WHERE { ?s <http://x/p> ?o } & more"}`),
		"indented": []byte("{\n  \"id\": \"abc\"\n}"),
		"spaced":   []byte(`[1, 2, 3]`),
		"text":     []byte("not json"),
	}
	for name, store := range backends(t, Options{Namespace: "ns"}) {
		for key, value := range values {
			if err := store.Set(key, value, 0); err != nil {
				t.Fatalf("%s: set %s: %v", name, key, err)
			}
			got, ok, err := store.Get(key)
			if err != nil || !ok {
				t.Fatalf("%s: get %s: ok=%v err=%v", name, key, ok, err)
			}
			if string(got) != string(value) {
				t.Fatalf("%s: %s changed in storage: %q != %q", name, key, got, value)
			}
		}
	}
}

func TestStorageExpiry(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	for name, store := range backends(t, Options{Namespace: "ns", Now: clock.Now}) {
		clock.now = time.Unix(1_700_000_000, 0)
		if err := store.Set("k", []byte(`1`), time.Minute); err != nil {
			t.Fatalf("%s: set: %v", name, err)
		}
		if _, ok, _ := store.Get("k"); !ok {
			t.Fatalf("%s: expected live entry", name)
		}
		clock.now = clock.now.Add(2 * time.Minute)
		if _, ok, _ := store.Get("k"); ok {
			t.Fatalf("%s: expected expired entry", name)
		}
	}
}

func TestStorageQuotaExceeded(t *testing.T) {
	for name, store := range backends(t, Options{Namespace: "ns", QuotaBytes: 256}) {
		if err := store.Set("small", []byte(`"x"`), 0); err != nil {
			t.Fatalf("%s: set small: %v", name, err)
		}
		big := make([]byte, 512)
		for i := range big {
			big[i] = 'a'
		}
		err := store.Set("big", big, 0)
		if !errors.Is(err, schema.ErrStorageQuotaExceeded) {
			t.Fatalf("%s: expected quota error, got %v", name, err)
		}
		if _, ok, _ := store.Get("small"); !ok {
			t.Fatalf("%s: existing entry lost after quota error", name)
		}
	}
}

func TestStorageRemoveNamespaceKeepsOthers(t *testing.T) {
	dir := t.TempDir()
	a, err := NewFileStore(dir, Options{Namespace: "a"})
	if err != nil {
		t.Fatalf("store a: %v", err)
	}
	b, err := NewFileStore(dir, Options{Namespace: "b"})
	if err != nil {
		t.Fatalf("store b: %v", err)
	}
	_ = a.Set("k", []byte(`1`), 0)
	_ = b.Set("k", []byte(`2`), 0)
	if err := a.RemoveNamespace(); err != nil {
		t.Fatalf("remove namespace: %v", err)
	}
	if _, ok, _ := a.Get("k"); ok {
		t.Fatalf("expected namespace a cleared")
	}
	if got, ok, _ := b.Get("k"); !ok || string(got) != "2" {
		t.Fatalf("expected namespace b intact, got %q ok=%v", got, ok)
	}
}

func TestSQLiteNamespacesShareDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	a, err := NewSQLiteStore(path, Options{Namespace: "a"}, nil)
	if err != nil {
		t.Fatalf("store a: %v", err)
	}
	defer a.Close()
	b, err := NewSQLiteStore(path, Options{Namespace: "b"}, nil)
	if err != nil {
		t.Fatalf("store b: %v", err)
	}
	defer b.Close()
	_ = a.Set("tabs", []byte(`{"tabs":["x"]}`), 0)
	if _, ok, _ := b.Get("tabs"); ok {
		t.Fatalf("namespaces must not see each other's keys")
	}
	if err := b.RemoveNamespace(); err != nil {
		t.Fatalf("remove namespace: %v", err)
	}
	if _, ok, _ := a.Get("tabs"); !ok {
		t.Fatalf("clearing namespace b removed namespace a data")
	}
}

func TestOpenRejectsUnknownBackend(t *testing.T) {
	if _, err := Open(Config{Backend: "redis", Options: Options{Namespace: "ns"}}, nil); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
	store, err := Open(Config{Backend: "memory", Options: Options{Namespace: "ns"}}, nil)
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	if store.Namespace() != "ns" {
		t.Fatalf("unexpected namespace %q", store.Namespace())
	}
}
