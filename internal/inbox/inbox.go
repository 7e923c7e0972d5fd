// Package inbox passes re-apply requests from short-lived commands to the
// running watcher, so the watcher performs the clipboard write itself and
// recognizes the resulting change as its own.
//
// Requests and replies are small YAML files in one directory. Each file is
// written under a temporary name and renamed into place, so readers never
// see a partial record. Files are named by a UUIDv7 token, which keeps
// pending requests in submission order.
package inbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

const (
	requestExt = ".req"
	replyExt   = ".reply"

	// rescanInterval bounds how long a request waits if a notification
	// is lost.
	rescanInterval = 250 * time.Millisecond

	// staleReply is how old an unclaimed reply must be before Serve
	// removes it.
	staleReply = time.Minute
)

// Request asks the watcher to put a history entry back on the clipboard.
type Request struct {
	ID          int64     `yaml:"id"`
	RequestedAt time.Time `yaml:"requested_at"`
}

// Reply reports the outcome of a Request.
type Reply struct {
	Found bool   `yaml:"found"`
	Error string `yaml:"error,omitempty"`
}

// Handler answers one request.
type Handler func(ctx context.Context, req Request) Reply

// Inbox is a request directory.
type Inbox struct {
	dir    string
	logger *slog.Logger
}

// Open prepares the request directory, creating it with owner-only
// permissions if needed. A nil logger uses slog.Default.
func Open(dir string, logger *slog.Logger) (*Inbox, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create inbox: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Inbox{dir: dir, logger: logger}, nil
}

// Dir returns the request directory.
func (b *Inbox) Dir() string {
	return b.dir
}

// Submit publishes a request for entry id and waits for the reply.
// When ctx ends first the request is withdrawn.
func (b *Inbox) Submit(ctx context.Context, id int64) (Reply, error) {
	token, err := uuid.NewV7()
	if err != nil {
		return Reply{}, fmt.Errorf("generate request token: %w", err)
	}
	reqPath := b.path(token.String(), requestExt)
	replyPath := b.path(token.String(), replyExt)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return Reply{}, fmt.Errorf("create inbox watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(b.dir); err != nil {
		return Reply{}, fmt.Errorf("watch inbox: %w", err)
	}

	req := Request{ID: id, RequestedAt: time.Now().UTC()}
	if err := publish(b.dir, reqPath, req); err != nil {
		return Reply{}, fmt.Errorf("submit request: %w", err)
	}

	ticker := time.NewTicker(rescanInterval)
	defer ticker.Stop()
	for {
		reply, ok, err := readReply(replyPath)
		if err != nil {
			return Reply{}, err
		}
		if ok {
			os.Remove(replyPath)
			return reply, nil
		}

		select {
		case <-ctx.Done():
			os.Remove(reqPath)
			return Reply{}, fmt.Errorf("wait for reply: %w", ctx.Err())
		case <-watcher.Events:
		case err := <-watcher.Errors:
			if err != nil {
				b.logger.Debug("inbox watcher error", "error", err)
			}
		case <-ticker.C:
		}
	}
}

// Serve answers requests with handle until ctx is done. Requests already
// waiting when Serve starts are answered first, oldest first.
func (b *Inbox) Serve(ctx context.Context, handle Handler) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create inbox watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(b.dir); err != nil {
		return fmt.Errorf("watch inbox: %w", err)
	}

	b.removeStaleReplies()
	b.drain(ctx, handle)

	ticker := time.NewTicker(rescanInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) && filepath.Ext(ev.Name) == requestExt {
				b.answer(ctx, ev.Name, handle)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			b.logger.Warn("inbox watcher error", "error", err)
		case <-ticker.C:
			b.drain(ctx, handle)
		}
	}
}

func (b *Inbox) drain(ctx context.Context, handle Handler) {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		b.logger.Warn("failed to scan inbox", "dir", b.dir, "error", err)
		return
	}
	for _, e := range entries {
		if ctx.Err() != nil {
			return
		}
		if !e.IsDir() && filepath.Ext(e.Name()) == requestExt {
			b.answer(ctx, filepath.Join(b.dir, e.Name()), handle)
		}
	}
}

// answer claims the request at path by removing it, runs handle and
// publishes the reply. A request already claimed is skipped.
func (b *Inbox) answer(ctx context.Context, path string, handle Handler) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return
	}
	if err != nil {
		b.logger.Warn("failed to read request", "path", path, "error", err)
		return
	}
	if err := os.Remove(path); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			b.logger.Warn("failed to claim request", "path", path, "error", err)
		}
		return
	}

	var req Request
	if err := yaml.Unmarshal(data, &req); err != nil || req.ID <= 0 {
		b.logger.Warn("discarded malformed request", "path", path)
		return
	}

	reply := handle(ctx, req)
	token := strings.TrimSuffix(filepath.Base(path), requestExt)
	if err := publish(b.dir, b.path(token, replyExt), reply); err != nil {
		b.logger.Error("failed to write reply", "id", req.ID, "error", err)
	}
}

func (b *Inbox) removeStaleReplies() {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		return
	}
	cutoff := time.Now().Add(-staleReply)
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != replyExt {
			continue
		}
		info, err := e.Info()
		if err == nil && info.ModTime().Before(cutoff) {
			os.Remove(filepath.Join(b.dir, e.Name()))
		}
	}
}

func (b *Inbox) path(token, ext string) string {
	return filepath.Join(b.dir, token+ext)
}

func readReply(path string) (Reply, bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Reply{}, false, nil
	}
	if err != nil {
		return Reply{}, false, fmt.Errorf("read reply: %w", err)
	}
	var reply Reply
	if err := yaml.Unmarshal(data, &reply); err != nil {
		return Reply{}, false, fmt.Errorf("decode reply: %w", err)
	}
	return reply, true, nil
}

// publish writes v as YAML to a temporary file in dir and renames it to
// path.
func publish(dir, path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".pending-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}
