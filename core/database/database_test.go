package database

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigURLAndDefaults(t *testing.T) {
	cfg := Config{Host: "db", User: "reader", Password: "p@ss word", Name: "books"}
	if err := cfg.Normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	got := cfg.URL()
	want := "postgres://reader:p%40ss%20word@db:5432/books?sslmode=disable"
	if got != want {
		t.Fatalf("url = %s, want %s", got, want)
	}
	if cfg.MaxConnections != 10 || cfg.MigrationsDir != "migrations" {
		t.Fatalf("defaults = %+v", cfg)
	}
	if err := (&Config{}).Normalize(); err == nil {
		t.Fatal("expected error for empty config")
	}
}

func TestMigrationFileSelection(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"000002_b.up.sql", "000001_a.up.sql", "000001_a.down.sql", "000003_c.up.sql"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("--"), 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	files := listMigrationFiles(dir)
	if strings.Join(files, ",") != "000001_a.up.sql,000002_b.up.sql,000003_c.up.sql" {
		t.Fatalf("files = %v", files)
	}
	if got := selectApplied(files, 1, 3); strings.Join(got, ",") != "000002_b.up.sql,000003_c.up.sql" {
		t.Fatalf("applied = %v", got)
	}
	if got := selectApplied(files, 3, 3); len(got) != 0 {
		t.Fatalf("applied on no change = %v", got)
	}
	if parseVersion("garbage") != 0 || parseVersion("000010_x.up.sql") != 10 {
		t.Fatal("unexpected version parse")
	}
}
