package persist

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"pkt.systems/sparqlab/schema"
)

// Storage is a key-value store scoped to one namespace. Set reports
// schema.ErrStorageQuotaExceeded when the write would exceed the quota.
type Storage interface {
	Namespace() schema.Namespace
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte, ttl time.Duration) error
	Remove(key string) error
	// RemoveNamespace deletes every key of the namespace.
	RemoveNamespace() error
	Keys() ([]string, error)
	Close() error
}

// ErrInvalidKey indicates an empty key.
var ErrInvalidKey = errors.New("invalid storage key")

// Options configure a storage backend.
type Options struct {
	Namespace schema.Namespace
	// QuotaBytes caps the total value size of the namespace; zero is unlimited.
	QuotaBytes int64
	// Now overrides the clock used for expiry.
	Now func() time.Time
}

func (o Options) normalized() (Options, error) {
	ns := strings.TrimSpace(string(o.Namespace))
	if ns == "" {
		return Options{}, errors.New("storage namespace is required")
	}
	o.Namespace = schema.Namespace(ns)
	if o.QuotaBytes < 0 {
		o.QuotaBytes = 0
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o, nil
}

func validateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	return nil
}

func expiry(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}

func expired(expiresAt, now time.Time) bool {
	return !expiresAt.IsZero() && !now.Before(expiresAt)
}

func quotaError(ns schema.Namespace, key string, used, size, quota int64) error {
	return fmt.Errorf("%w: namespace %q key %q needs %d bytes, %d of %d used", schema.ErrStorageQuotaExceeded, ns, key, size, used, quota)
}

func sanitize(value string) string {
	var b strings.Builder
	for _, r := range value {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		if r == '-' || r == '_' || r == '.' {
			b.WriteRune(r)
			continue
		}
		b.WriteRune('_')
	}
	return b.String()
}
