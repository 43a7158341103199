package testutil

import (
	"path/filepath"
	"testing"

	"github.com/roach88/pipecraft/internal/store"
)

// OpenStore opens a store in t's temp dir with sequential ids and a
// deterministic clock. The store is closed when the test ends.
func OpenStore(t testing.TB) *store.Store {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "pipecraft.db"),
		store.WithIDGenerator(NewSequentialIDs("id")),
		store.WithClock(NewDeterministicClock().Now),
	)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}
