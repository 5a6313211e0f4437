package sqlite

import (
	"context"
	"testing"
)

// newTestStore creates a Store backed by a temp-file database.
// File-backed databases give each test its own isolated state; ":memory:"
// in this driver shares one database across the whole process.
func newTestStore(t *testing.T, dbPath string) *Store {
	t.Helper()

	if dbPath == "" {
		dbPath = t.TempDir() + "/test.db"
	}

	store, err := New(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if cerr := store.Close(); cerr != nil {
			t.Fatalf("Failed to close test database: %v", cerr)
		}
	})
	return store
}
