package store

import (
	"path/filepath"
	"testing"
)

// OpenTestArchive opens a migrated archive in t.TempDir() and registers
// cleanup.
func OpenTestArchive(t *testing.T) *Archive {
	t.Helper()

	a, db, err := OpenArchive(filepath.Join(t.TempDir(), "archive.sqlite"))
	if err != nil {
		t.Fatalf("open test archive: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return a
}
