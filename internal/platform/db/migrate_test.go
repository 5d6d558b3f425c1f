package db

import (
	"testing"
	"testing/fstest"
)

func TestMigrationFilesSortedAndFiltered(t *testing.T) {
	fsys := fstest.MapFS{
		"0002_leave.sql":   {Data: []byte("SELECT 1")},
		"0001_init.sql":    {Data: []byte("SELECT 1")},
		"README.md":        {Data: []byte("notes")},
		"archive/0000.sql": {Data: []byte("SELECT 1")},
	}

	files, err := migrationFiles(fsys)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 migration files, got %v", files)
	}
	if files[0] != "0001_init.sql" || files[1] != "0002_leave.sql" {
		t.Fatalf("unexpected order: %v", files)
	}
}
