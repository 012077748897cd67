package migrations

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFindLatestMigrationVersion(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"000001_create_table_events.up.sql",
		"000001_create_table_events.down.sql",
		"000012_add_index.up.sql",
		"README.md",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "000099_not_a_file"), 0o755); err != nil {
		t.Fatal(err)
	}

	if got := findLatestMigrationVersion(dir); got != 12 {
		t.Errorf("latest = %d, want 12", got)
	}
}

func TestFindLatestMigrationVersionShippedSet(t *testing.T) {
	if got := findLatestMigrationVersion("../../migrations"); got != 1 {
		t.Errorf("latest = %d, want 1", got)
	}
}

func TestFindLatestMigrationVersionMissingDir(t *testing.T) {
	if got := findLatestMigrationVersion(filepath.Join(t.TempDir(), "nope")); got != 0 {
		t.Errorf("latest = %d, want 0", got)
	}
}

func TestRunRequiresURL(t *testing.T) {
	if err := Run("", "migrations"); err == nil {
		t.Fatal("expected an error for an empty database URL")
	}
}
