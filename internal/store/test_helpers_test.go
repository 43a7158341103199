package store

import (
	"path/filepath"
	"testing"
	"time"
)

// createTestStore creates a new store in a temp dir with deterministic ids
// and a clock that advances one second per record.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	s, err := Open(path,
		WithIDGenerator(&counterGenerator{}),
		WithClock(func() time.Time {
			tick++
			return base.Add(time.Duration(tick) * time.Second)
		}),
	)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

type counterGenerator struct{ n int }

func (g *counterGenerator) Generate() string {
	g.n++
	return "id-" + string(rune('a'+g.n-1))
}
