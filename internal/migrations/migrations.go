package migrations

import (
	"database/sql"
	"fmt"
)

// Migration is one schema change applied in version order.
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// All lists the migrations in order.
var All = []Migration{
	{
		Version: 1,
		Name:    "Create kv table",
		Up: `
			CREATE TABLE IF NOT EXISTS kv (
				namespace TEXT NOT NULL,
				key TEXT NOT NULL,
				value BLOB NOT NULL,
				expires_at INTEGER,
				updated_at INTEGER NOT NULL,
				PRIMARY KEY (namespace, key)
			);
		`,
		Down: `DROP TABLE IF EXISTS kv;`,
	},
	{
		Version: 2,
		Name:    "Index kv expiry",
		Up:      `CREATE INDEX IF NOT EXISTS idx_kv_expires_at ON kv(namespace, expires_at);`,
		Down:    `DROP INDEX IF EXISTS idx_kv_expires_at;`,
	},
}

// Run applies every migration newer than the recorded version.
func Run(db *sql.DB) error {
	return RunSet(db, All)
}

// RunSet applies the given migrations, each in its own transaction.
func RunSet(db *sql.DB, set []Migration) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	current, err := CurrentVersion(db)
	if err != nil {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}
	for _, migration := range set {
		if migration.Version <= current {
			continue
		}
		tx, err := db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(migration.Up); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to apply migration %d (%s): %w", migration.Version, migration.Name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version, name) VALUES (?, ?)", migration.Version, migration.Name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}
	return nil
}

// CurrentVersion returns the highest applied migration version.
func CurrentVersion(db *sql.DB) (int, error) {
	var version int
	err := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return 0, err
	}
	return version, nil
}
