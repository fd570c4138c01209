package testsupport

import (
	"testing"

	"dupscan/internal/config"
	"dupscan/internal/storage/sqlite"
)

// MustOpenStore opens the history store named by cfg and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *sqlite.Store {
	t.Helper()

	store, err := sqlite.Open(cfg.History.DBPath)
	if err != nil {
		t.Fatalf("sqlite.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
