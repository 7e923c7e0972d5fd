package cli

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/JudeLabs/ClipCache/internal/clip"
	"github.com/JudeLabs/ClipCache/internal/monitor"
	"github.com/JudeLabs/ClipCache/internal/settings"
	"github.com/JudeLabs/ClipCache/internal/store"
	"github.com/JudeLabs/ClipCache/internal/testutil"
)

// fakeClipboard records writes and replays queued changes.
type fakeClipboard struct {
	changes chan monitor.Change

	mu      sync.Mutex
	written []clip.Content
}

func newFakeClipboard() *fakeClipboard {
	return &fakeClipboard{changes: make(chan monitor.Change, 8)}
}

func (f *fakeClipboard) Changes(ctx context.Context) (<-chan monitor.Change, error) {
	return f.changes, nil
}

func (f *fakeClipboard) Write(ctx context.Context, c clip.Content) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.written = append(f.written, c)
	return nil
}

func (f *fakeClipboard) writes() []clip.Content {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]clip.Content(nil), f.written...)
}

// newTestOptions returns root options over a temp data dir with a fake
// clock and clipboard.
func newTestOptions(t *testing.T, format string) (*RootOptions, *testutil.FakeClock, *fakeClipboard) {
	t.Helper()
	clk := testutil.NewFakeClock(testutil.Epoch)
	board := newFakeClipboard()
	return &RootOptions{
		Format:    format,
		Dir:       t.TempDir(),
		Clock:     clk,
		Clipboard: board,
	}, clk, board
}

// openTestStore opens the history under opts.Dir directly.
func openTestStore(t *testing.T, opts *RootOptions, prefs settings.Provider) *store.Store {
	t.Helper()
	st, err := store.Open(opts.path(HistoryFile), prefs, store.WithClock(opts.Clock))
	require.NoError(t, err)
	return st
}

// seedHistory saves texts one minute apart and pins the given ids.
func seedHistory(t *testing.T, opts *RootOptions, clk *testutil.FakeClock, texts []string, pin ...int64) {
	t.Helper()
	st := openTestStore(t, opts, nil)
	defer st.Close()

	ctx := context.Background()
	for _, text := range texts {
		_, err := st.Save(ctx, clip.Text, []byte(text))
		require.NoError(t, err)
		clk.Advance(time.Minute)
	}
	for _, id := range pin {
		_, found, err := st.TogglePin(ctx, id)
		require.NoError(t, err)
		require.True(t, found)
	}
}

// execute runs cmd with args and returns stdout.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	// nil args would make cobra fall back to os.Args.
	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}
