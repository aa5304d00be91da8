package shared

import (
	"database/sql"
	"testing"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()

	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name).Scan(&count)
	if err != nil {
		t.Fatalf("failed to query sqlite_master: %v", err)
	}
	return count == 1
}

func TestRunMigrations(t *testing.T) {
	db := setupTestDB(t)

	if err := RunMigrations(db); err != nil {
		t.Fatalf("RunMigrations failed: %v", err)
	}

	for _, table := range []string{"playlists", "tracks", "audio_features", "artists", "cache", "generated_playlists"} {
		if !tableExists(t, db, table) {
			t.Errorf("expected table %q after migrations", table)
		}
	}

	// Running again must be a no-op.
	if err := RunMigrations(db); err != nil {
		t.Fatalf("RunMigrations must be idempotent: %v", err)
	}

	var applied int
	if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&applied); err != nil {
		t.Fatalf("failed to count applied migrations: %v", err)
	}
	if applied == 0 {
		t.Error("expected applied migrations recorded")
	}
}

func TestRollbackMigration(t *testing.T) {
	db := setupTestDB(t)

	if err := RunMigrations(db); err != nil {
		t.Fatalf("RunMigrations failed: %v", err)
	}

	var before int
	if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&before); err != nil {
		t.Fatalf("failed to count migrations: %v", err)
	}

	if err := RollbackMigration(db); err != nil {
		t.Fatalf("RollbackMigration failed: %v", err)
	}

	var after int
	if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&after); err != nil {
		t.Fatalf("failed to count migrations: %v", err)
	}
	if after != before-1 {
		t.Errorf("expected one migration removed, got %d -> %d", before, after)
	}
}

func TestRollbackWithoutMigrations(t *testing.T) {
	db := setupTestDB(t)

	if err := createMigrationsTable(db); err != nil {
		t.Fatalf("failed to create migrations table: %v", err)
	}
	if err := RollbackMigration(db); err == nil {
		t.Fatal("expected an error with nothing to roll back")
	}
}
