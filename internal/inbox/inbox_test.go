package inbox

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestInbox(t *testing.T) *Inbox {
	t.Helper()
	b, err := Open(filepath.Join(t.TempDir(), "inbox"), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return b
}

// recorder answers requests for ids it knows and records every request.
type recorder struct {
	mu    sync.Mutex
	known map[int64]bool
	seen  []int64
}

func (r *recorder) handle(ctx context.Context, req Request) Reply {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, req.ID)
	return Reply{Found: r.known[req.ID]}
}

func (r *recorder) ids() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.seen...)
}

func serve(t *testing.T, b *Inbox, h Handler) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Serve(ctx, h) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(5 * time.Second):
			t.Error("Serve did not stop")
		}
	})
}

func TestOpen_CreatesPrivateDir(t *testing.T) {
	b := newTestInbox(t)

	info, err := os.Stat(b.Dir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	if runtime.GOOS != "windows" {
		assert.Equal(t, os.FileMode(0o700), info.Mode().Perm())
	}
}

func TestSubmit_RoundTrip(t *testing.T) {
	b := newTestInbox(t)
	rec := &recorder{known: map[int64]bool{7: true}}
	serve(t, b, rec.handle)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	reply, err := b.Submit(ctx, 7)
	require.NoError(t, err)
	assert.True(t, reply.Found)

	reply, err = b.Submit(ctx, 8)
	require.NoError(t, err)
	assert.False(t, reply.Found)

	assert.Equal(t, []int64{7, 8}, rec.ids())

	// Requests and replies are cleaned up.
	entries, err := os.ReadDir(b.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSubmit_CarriesHandlerError(t *testing.T) {
	b := newTestInbox(t)
	serve(t, b, func(ctx context.Context, req Request) Reply {
		return Reply{Found: true, Error: "clipboard unavailable"}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	reply, err := b.Submit(ctx, 1)
	require.NoError(t, err)
	assert.True(t, reply.Found)
	assert.Equal(t, "clipboard unavailable", reply.Error)
}

func TestSubmit_NoServerTimesOut(t *testing.T) {
	b := newTestInbox(t)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := b.Submit(ctx, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// The unanswered request is withdrawn.
	entries, err := os.ReadDir(b.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestServe_AnswersPendingRequestsInOrder(t *testing.T) {
	b := newTestInbox(t)

	require.NoError(t, publish(b.Dir(), b.path("0001", requestExt), Request{ID: 3}))
	require.NoError(t, publish(b.Dir(), b.path("0002", requestExt), Request{ID: 1}))

	rec := &recorder{known: map[int64]bool{3: true}}
	serve(t, b, rec.handle)

	require.Eventually(t, func() bool {
		return len(rec.ids()) == 2
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, []int64{3, 1}, rec.ids())

	reply, ok, err := readReply(b.path("0001", replyExt))
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, reply.Found)
}

func TestServe_DiscardsMalformedRequest(t *testing.T) {
	b := newTestInbox(t)
	path := b.path("0001", requestExt)
	require.NoError(t, os.WriteFile(path, []byte("id: [not a number"), 0o600))

	rec := &recorder{}
	serve(t, b, rec.handle)

	require.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return os.IsNotExist(err)
	}, 5*time.Second, 10*time.Millisecond)
	assert.Empty(t, rec.ids())

	_, err := os.Stat(b.path("0001", replyExt))
	assert.True(t, os.IsNotExist(err))
}

func TestServe_RemovesStaleReplies(t *testing.T) {
	b := newTestInbox(t)
	stale := b.path("0001", replyExt)
	fresh := b.path("0002", replyExt)
	require.NoError(t, publish(b.Dir(), stale, Reply{Found: true}))
	require.NoError(t, publish(b.Dir(), fresh, Reply{Found: true}))
	old := time.Now().Add(-2 * staleReply)
	require.NoError(t, os.Chtimes(stale, old, old))

	serve(t, b, (&recorder{}).handle)

	require.Eventually(t, func() bool {
		_, err := os.Stat(stale)
		return os.IsNotExist(err)
	}, 5*time.Second, 10*time.Millisecond)
	_, err := os.Stat(fresh)
	assert.NoError(t, err)
}
