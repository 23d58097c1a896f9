package migrate

import (
	"testing"
	"testing/fstest"

	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/migrations"
)

func TestMigrationFiles_SortedAndFiltered(t *testing.T) {
	fsys := fstest.MapFS{
		"010_later.sql":       {Data: []byte("SELECT 1;")},
		"002_second.SQL":      {Data: []byte("SELECT 1;")},
		"001_first.sql":       {Data: []byte("SELECT 1;")},
		"README.md":           {Data: []byte("notes")},
		"nested/003_skip.sql": {Data: []byte("SELECT 1;")},
	}

	files, err := migrationFiles(fsys)
	if err != nil {
		t.Fatalf("migrationFiles failed: %v", err)
	}

	want := []string{"001_first.sql", "002_second.SQL", "010_later.sql"}
	if len(files) != len(want) {
		t.Fatalf("expected %v, got %v", want, files)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], files[i])
		}
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	files, err := migrationFiles(migrations.FS)
	if err != nil {
		t.Fatalf("migrationFiles failed: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("expected 3 embedded migrations, got %v", files)
	}
	if files[0] != "001_create_users_table.sql" {
		t.Errorf("expected users table first, got %s", files[0])
	}
}
