package migrations

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRunAppliesAllMigrations(t *testing.T) {
	db := openTestDB(t)
	if err := Run(db); err != nil {
		t.Fatalf("run: %v", err)
	}
	version, err := CurrentVersion(db)
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if want := All[len(All)-1].Version; version != want {
		t.Fatalf("expected version %d, got %d", want, version)
	}
	if _, err := db.Exec(`INSERT INTO kv (namespace, key, value, updated_at) VALUES ('ns', 'k', x'00', 1)`); err != nil {
		t.Fatalf("insert into kv: %v", err)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	if err := Run(db); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := Run(db); err != nil {
		t.Fatalf("second run: %v", err)
	}
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != len(All) {
		t.Fatalf("expected %d recorded migrations, got %d", len(All), count)
	}
}

func TestRunSetStopsOnFailure(t *testing.T) {
	db := openTestDB(t)
	set := []Migration{
		{Version: 1, Name: "ok", Up: `CREATE TABLE a (id INTEGER)`},
		{Version: 2, Name: "broken", Up: `CREATE TABLE (`},
	}
	if err := RunSet(db, set); err == nil {
		t.Fatalf("expected failure")
	}
	version, err := CurrentVersion(db)
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if version != 1 {
		t.Fatalf("expected version 1 after failure, got %d", version)
	}
}
