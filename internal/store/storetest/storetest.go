// Package storetest opens throwaway stores for tests in other packages.
package storetest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/abhisek/dealbreaker/internal/store"
)

// Open returns a migrated SQLite store in a per-test temp directory.
func Open(t testing.TB) *store.Store {
	t.Helper()
	s, err := store.Open(context.Background(), store.Config{
		Driver: store.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "test.db"),
	})
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}
