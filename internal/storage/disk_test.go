package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSQLiteDiskUsage(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "shindan.db")

	// missing database counts as zero
	got, err := SQLiteDiskUsage(db)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0 {
		t.Errorf("missing db: got %d bytes, want 0", got)
	}

	if err := os.WriteFile(db, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}
	got, err = SQLiteDiskUsage(db)
	if err != nil {
		t.Fatal(err)
	}
	if got != 5 {
		t.Errorf("db only: got %d bytes, want 5", got)
	}

	if err := os.WriteFile(db+"-wal", []byte("abc"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(db+"-shm", []byte("d"), 0644); err != nil {
		t.Fatal(err)
	}
	// unrelated files in the directory are ignored
	if err := os.WriteFile(filepath.Join(dir, "other.db"), []byte("xxxxxxxx"), 0644); err != nil {
		t.Fatal(err)
	}
	got, err = SQLiteDiskUsage(db)
	if err != nil {
		t.Fatal(err)
	}
	if got != 9 {
		t.Errorf("db+sidecars: got %d bytes, want 9", got)
	}

	for _, p := range []string{"", ":memory:"} {
		got, err := SQLiteDiskUsage(p)
		if err != nil || got != 0 {
			t.Errorf("SQLiteDiskUsage(%q) = %d, %v", p, got, err)
		}
	}
}
