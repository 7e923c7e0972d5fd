package store

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JudeLabs/ClipCache/internal/clip"
	"github.com/JudeLabs/ClipCache/internal/settings"
	"github.com/JudeLabs/ClipCache/internal/testutil"
)

// testPrefs is a settings.Provider that tests can change between calls.
type testPrefs struct {
	mu sync.Mutex
	s  settings.Settings
}

func newTestPrefs() *testPrefs {
	return &testPrefs{s: settings.Defaults()}
}

func (p *testPrefs) Settings() settings.Settings {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.s
}

func (p *testPrefs) update(fn func(*settings.Settings)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(&p.s)
}

// createTestStore opens a store in a temp dir with default settings and a
// fake clock.
func createTestStore(t *testing.T) (*Store, *testPrefs, *testutil.FakeClock) {
	t.Helper()
	prefs := newTestPrefs()
	clk := testutil.NewFakeClock(testutil.Epoch)
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path, prefs, WithClock(clk))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, prefs, clk
}

// saveText saves a text entry and fails the test on error.
func saveText(t *testing.T, s *Store, text string) int64 {
	t.Helper()
	id, err := s.Save(context.Background(), clip.Text, []byte(text))
	require.NoError(t, err)
	return id
}

// historyIDs returns the ids of the current history in read order.
func historyIDs(t *testing.T, s *Store) []int64 {
	t.Helper()
	entries, err := s.History(context.Background(), 0)
	require.NoError(t, err)
	ids := make([]int64, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	return ids
}
