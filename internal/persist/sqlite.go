package persist

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"pkt.systems/pslog"
	"pkt.systems/sparqlab/internal/migrations"
	"pkt.systems/sparqlab/schema"
)

// SQLiteStore persists entries in a sqlite kv table shared by namespaces.
type SQLiteStore struct {
	db   *sql.DB
	opts Options
	log  pslog.Logger
}

// NewSQLiteStore opens (and migrates) the database at path.
func NewSQLiteStore(path string, opts Options, logger pslog.Logger) (*SQLiteStore, error) {
	normalized, err := opts.normalized()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to state database: %w", err)
	}
	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	if logger != nil {
		logger = logger.With("database", path, "namespace", normalized.Namespace)
	}
	return &SQLiteStore{db: db, opts: normalized, log: logger}, nil
}

// Namespace returns the store namespace.
func (s *SQLiteStore) Namespace() schema.Namespace { return s.opts.Namespace }

// Get reads the value at key. Expired rows are deleted and reported missing.
func (s *SQLiteStore) Get(key string) ([]byte, bool, error) {
	if err := validateKey(key); err != nil {
		return nil, false, err
	}
	var (
		value     []byte
		expiresAt sql.NullInt64
	)
	err := s.db.QueryRow(
		`SELECT value, expires_at FROM kv WHERE namespace = ? AND key = ?`,
		string(s.opts.Namespace), key,
	).Scan(&value, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %q: %w", key, err)
	}
	if expiresAt.Valid && expired(time.UnixMilli(expiresAt.Int64), s.opts.Now()) {
		if s.log != nil {
			s.log.Debug("state entry expired", "key", key)
		}
		_ = s.Remove(key)
		return nil, false, nil
	}
	return slices.Clone(value), true, nil
}

// Set upserts value at key, enforcing the namespace quota in the same transaction.
func (s *SQLiteStore) Set(key string, value []byte, ttl time.Duration) error {
	if err := validateKey(key); err != nil {
		return err
	}
	now := s.opts.Now()
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if s.opts.QuotaBytes > 0 {
		var used int64
		err := tx.QueryRow(
			`SELECT COALESCE(SUM(length(value)), 0) FROM kv WHERE namespace = ? AND key <> ?`,
			string(s.opts.Namespace), key,
		).Scan(&used)
		if err != nil {
			return fmt.Errorf("failed to compute namespace usage: %w", err)
		}
		if used+int64(len(value)) > s.opts.QuotaBytes {
			if s.log != nil {
				s.log.Warn("state save over quota", "key", key, "used", used, "size", len(value))
			}
			return quotaError(s.opts.Namespace, key, used, int64(len(value)), s.opts.QuotaBytes)
		}
	}
	var expiresAt sql.NullInt64
	if exp := expiry(now, ttl); !exp.IsZero() {
		expiresAt = sql.NullInt64{Int64: exp.UnixMilli(), Valid: true}
	}
	_, err = tx.Exec(
		`INSERT INTO kv (namespace, key, value, expires_at, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(namespace, key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at, updated_at = excluded.updated_at`,
		string(s.opts.Namespace), key, value, expiresAt, now.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to write %q: %w", key, err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	if s.log != nil {
		s.log.Trace("state save ok", "key", key, "bytes", len(value))
	}
	return nil
}

// Remove deletes key.
func (s *SQLiteStore) Remove(key string) error {
	_, err := s.db.Exec(`DELETE FROM kv WHERE namespace = ? AND key = ?`, string(s.opts.Namespace), key)
	return err
}

// RemoveNamespace deletes every row of the namespace.
func (s *SQLiteStore) RemoveNamespace() error {
	res, err := s.db.Exec(`DELETE FROM kv WHERE namespace = ?`, string(s.opts.Namespace))
	if err != nil {
		return err
	}
	if s.log != nil {
		n, _ := res.RowsAffected()
		s.log.Info("state namespace cleared", "entries", n)
	}
	return nil
}

// Keys lists live keys in sorted order.
func (s *SQLiteStore) Keys() ([]string, error) {
	rows, err := s.db.Query(
		`SELECT key FROM kv WHERE namespace = ? AND (expires_at IS NULL OR expires_at > ?) ORDER BY key`,
		string(s.opts.Namespace), s.opts.Now().UnixMilli(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
