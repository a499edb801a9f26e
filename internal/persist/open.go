package persist

import (
	"fmt"
	"path/filepath"
	"strings"

	"pkt.systems/pslog"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config selects and locates a storage backend.
type Config struct {
	Backend string
	// Dir is the state directory for the file backend.
	Dir string
	// Database is the sqlite path; defaults to <Dir>/state.db.
	Database string
	Options  Options
}

// Open constructs the configured backend.
func Open(cfg Config, logger pslog.Logger) (Storage, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case BackendMemory:
		return NewMemoryStore(cfg.Options)
	case "", BackendFile:
		return NewFileStoreWithLogger(cfg.Dir, cfg.Options, logger)
	case BackendSQLite:
		path := strings.TrimSpace(cfg.Database)
		if path == "" {
			if strings.TrimSpace(cfg.Dir) == "" {
				return nil, fmt.Errorf("sqlite backend needs a database path or state directory")
			}
			path = filepath.Join(cfg.Dir, "state.db")
		}
		return NewSQLiteStore(path, cfg.Options, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
