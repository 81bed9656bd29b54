package database

import (
	"context"
	"testing"
	"testing/fstest"
	"time"
)

// testMigrations is a two-step schema used by the migration tests.
func testMigrations() fstest.MapFS {
	return fstest.MapFS{
		"sql/20261001_090000_create_receivers.up.sql": {Data: []byte(
			"CREATE TABLE test_receivers (id TEXT PRIMARY KEY, name TEXT NOT NULL);")},
		"sql/20261001_090000_create_receivers.down.sql": {Data: []byte(
			"DROP TABLE test_receivers;")},
		"sql/20261002_090000_add_levels.up.sql": {Data: []byte(
			"CREATE TABLE test_levels (receiver TEXT NOT NULL, channel TEXT NOT NULL, level INTEGER);")},
		"sql/20261002_090000_add_levels.down.sql": {Data: []byte(
			"DROP TABLE test_levels;")},
		"sql/README.md": {Data: []byte("ignored")},
	}
}

func withMigrations(t *testing.T, fsys fstest.MapFS, dir string) {
	t.Helper()
	origFS, origDir := MigrationsFS, MigrationsDir
	t.Cleanup(func() {
		MigrationsFS, MigrationsDir = origFS, origDir
	})
	MigrationsFS, MigrationsDir = fsys, dir
}

func tableExists(t *testing.T, db *DB, name string) bool {
	t.Helper()
	var count int
	err := db.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name,
	).Scan(&count)
	if err != nil {
		t.Fatalf("querying sqlite_master: %v", err)
	}
	return count == 1
}

func TestMigrate(t *testing.T) {
	withMigrations(t, testMigrations(), "sql")
	db := openTestDB(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	for _, table := range []string{"test_receivers", "test_levels"} {
		if !tableExists(t, db, table) {
			t.Errorf("table %s not created", table)
		}
	}

	applied, pending, err := db.GetMigrationStatus(ctx)
	if err != nil {
		t.Fatalf("GetMigrationStatus() error = %v", err)
	}
	if len(applied) != 2 {
		t.Errorf("expected 2 applied migrations, got %d", len(applied))
	}
	if len(pending) != 0 {
		t.Errorf("expected 0 pending migrations, got %d", len(pending))
	}
	if applied[0].Version != "20261001_090000" || applied[0].AppliedAt.IsZero() {
		t.Errorf("first applied = %+v", applied[0])
	}

	// Idempotent.
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
}

func TestMigrateDown(t *testing.T) {
	withMigrations(t, testMigrations(), "sql")
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if err := db.MigrateDown(ctx); err != nil {
		t.Fatalf("MigrateDown() error = %v", err)
	}

	if tableExists(t, db, "test_levels") {
		t.Error("test_levels still exists after rollback")
	}
	if !tableExists(t, db, "test_receivers") {
		t.Error("test_receivers dropped by single-step rollback")
	}

	_, pending, err := db.GetMigrationStatus(ctx)
	if err != nil {
		t.Fatalf("GetMigrationStatus() error = %v", err)
	}
	if len(pending) != 1 || pending[0].Name != "add_levels" {
		t.Errorf("pending = %+v, want add_levels", pending)
	}
}

func TestMigrateDown_NothingApplied(t *testing.T) {
	withMigrations(t, testMigrations(), "sql")
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.createMigrationsTable(ctx); err != nil {
		t.Fatalf("createMigrationsTable() error = %v", err)
	}
	if err := db.MigrateDown(ctx); err != nil {
		t.Errorf("MigrateDown() with nothing applied error = %v", err)
	}
}

func TestMigrateDown_NoDownSQL(t *testing.T) {
	fsys := fstest.MapFS{
		"20261001_090000_one_way.up.sql": {Data: []byte("CREATE TABLE one_way (id INTEGER);")},
	}
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.MigrateFS(ctx, fsys, "."); err != nil {
		t.Fatalf("MigrateFS() error = %v", err)
	}
	if err := db.MigrateDownFS(ctx, fsys, "."); err == nil {
		t.Error("MigrateDownFS() expected error for missing down SQL")
	}
}

func TestMigrate_FailureStops(t *testing.T) {
	fsys := fstest.MapFS{
		"20261001_090000_good.up.sql":  {Data: []byte("CREATE TABLE good (id INTEGER);")},
		"20261002_090000_bad.up.sql":   {Data: []byte("CREATE TABLE broken (;")},
		"20261003_090000_later.up.sql": {Data: []byte("CREATE TABLE later (id INTEGER);")},
	}
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.MigrateFS(ctx, fsys, "."); err == nil {
		t.Fatal("MigrateFS() expected error for bad SQL")
	}
	if !tableExists(t, db, "good") {
		t.Error("earlier migration was not kept")
	}
	if tableExists(t, db, "later") {
		t.Error("migration after the failure was applied")
	}
}

func TestMigrateNoMigrations(t *testing.T) {
	withMigrations(t, nil, ".")
	db := openTestDB(t)

	if err := db.Migrate(context.Background()); err != nil {
		t.Errorf("Migrate() with no migrations error = %v", err)
	}

	if err := db.MigrateFS(context.Background(), fstest.MapFS{}, "missing"); err != nil {
		t.Errorf("MigrateFS() with missing dir error = %v", err)
	}
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		wantVersion string
		wantIsUp    bool
		wantOk      bool
	}{
		{"valid up migration", "20261015_120000_state_history.up.sql", "20261015_120000", true, true},
		{"valid down migration", "20261015_120000_state_history.down.sql", "20261015_120000", false, true},
		{"not sql file", "readme.txt", "", false, false},
		{"missing direction", "20261015_120000_state_history.sql", "", false, false},
		{"invalid format", "invalid.up.sql", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, isUp, ok := parseMigrationFilename(tt.filename)
			if ok != tt.wantOk {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOk)
			}
			if !ok {
				return
			}
			if version != tt.wantVersion {
				t.Errorf("version = %v, want %v", version, tt.wantVersion)
			}
			if isUp != tt.wantIsUp {
				t.Errorf("isUp = %v, want %v", isUp, tt.wantIsUp)
			}
		})
	}
}

func TestExtractMigrationName(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"20261015_120000_state_history.up.sql", "state_history"},
		{"20261015_120000_state_history.down.sql", "state_history"},
		{"20261015_120000", "20261015_120000"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := extractMigrationName(tt.filename); got != tt.want {
				t.Errorf("extractMigrationName(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}
