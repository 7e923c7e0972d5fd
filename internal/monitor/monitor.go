package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/JudeLabs/ClipCache/internal/clip"
	"github.com/JudeLabs/ClipCache/internal/settings"
	"github.com/JudeLabs/ClipCache/internal/store"
)

// DefaultSuppression is how long a self-write suppresses capture.
const DefaultSuppression = 100 * time.Millisecond

// Store is what the Monitor needs from the history store.
type Store interface {
	Save(ctx context.Context, ct clip.ContentType, raw []byte) (int64, error)
	Item(ctx context.Context, id int64) (clip.Content, bool, error)
}

// EventKind distinguishes monitor notifications.
type EventKind int

const (
	// Captured reports a newly saved entry.
	Captured EventKind = iota
	// Failed reports a change that could not be read or saved.
	Failed
)

// Event is a monitor notification, used by front-ends to refresh.
type Event struct {
	Kind EventKind
	ID   int64
	Type clip.ContentType
	Err  error
}

// Monitor turns clipboard changes into saved history entries.
//
// A change is captured only in the Idle state, only if it differs from the
// last captured content, and, for images, only while image capture is
// enabled. Read and save failures are logged and monitoring continues.
type Monitor struct {
	board       Clipboard
	store       Store
	prefs       settings.Provider
	logger      *slog.Logger
	suppression time.Duration

	mu    sync.Mutex
	state State
	gen   uint64
	last  clip.Content

	events chan Event
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithSuppression overrides DefaultSuppression.
func WithSuppression(d time.Duration) Option {
	return func(m *Monitor) {
		m.suppression = d
	}
}

// WithLogger sets the monitor's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Monitor) {
		m.logger = logger
	}
}

// New creates a monitor in the Idle state.
func New(board Clipboard, st Store, prefs settings.Provider, opts ...Option) *Monitor {
	m := &Monitor{
		board:       board,
		store:       st,
		prefs:       prefs,
		logger:      slog.Default(),
		suppression: DefaultSuppression,
		state:       Idle,
		events:      make(chan Event, 16),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Events returns the notification channel. Notifications are dropped when
// nobody is receiving.
func (m *Monitor) Events() <-chan Event {
	return m.events
}

// Run consumes clipboard changes until ctx is done or the change stream
// ends.
func (m *Monitor) Run(ctx context.Context) error {
	changes, err := m.board.Changes(ctx)
	if err != nil {
		return fmt.Errorf("watch clipboard: %w", err)
	}

	m.logger.Info("clipboard monitor started", "state", m.State())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case change, ok := <-changes:
			if !ok {
				return nil
			}
			m.handle(ctx, change)
		}
	}
}

// State returns the current capture state.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Pause stops capturing. A pending suppression window is abandoned.
func (m *Monitor) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = Paused
	m.gen++
}

// Resume restarts capturing after Pause.
func (m *Monitor) Resume() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Paused {
		m.state = Idle
	}
}

// Toggle pauses a running monitor or resumes a paused one and returns the
// new state.
func (m *Monitor) Toggle() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Paused {
		m.state = Idle
	} else {
		m.state = Paused
		m.gen++
	}
	return m.state
}

// Apply writes a stored entry back to the clipboard without capturing it
// again. Returns false if the entry does not exist.
func (m *Monitor) Apply(ctx context.Context, id int64) (bool, error) {
	content, found, err := m.store.Item(ctx, id)
	if err != nil {
		return false, fmt.Errorf("apply %d: %w", id, err)
	}
	if !found {
		return false, nil
	}

	prev, gen := m.beginSelfWrite(content)
	if err := m.board.Write(ctx, content); err != nil {
		m.abortSelfWrite(prev, gen)
		return true, fmt.Errorf("apply %d: %w", id, err)
	}
	m.logger.Debug("applied history entry", "id", id, "type", content.Type)
	return true, nil
}

// beginSelfWrite enters SuppressingSelfWrite and schedules the return to
// Idle. The written content also becomes the dedup baseline, so a
// notification arriving after the window still is not captured. It returns
// the previous baseline and the suppression generation for abortSelfWrite.
func (m *Monitor) beginSelfWrite(content clip.Content) (clip.Content, uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev := m.last
	m.last = content
	if m.state == Paused {
		return prev, m.gen
	}

	m.state = SuppressingSelfWrite
	m.gen++
	gen := m.gen
	time.AfterFunc(m.suppression, func() {
		m.endSelfWrite(gen)
	})
	return prev, gen
}

// abortSelfWrite undoes beginSelfWrite after a failed clipboard write.
func (m *Monitor) abortSelfWrite(prev clip.Content, gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.gen != gen {
		return
	}
	m.last = prev
	if m.state == SuppressingSelfWrite {
		m.state = Idle
	}
}

func (m *Monitor) endSelfWrite(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == SuppressingSelfWrite && m.gen == gen {
		m.state = Idle
	}
}

// handle applies the capture rules to one change.
func (m *Monitor) handle(ctx context.Context, change Change) {
	if change.Err != nil {
		m.logger.Warn("failed to read clipboard", "error", change.Err)
		m.emit(Event{Kind: Failed, Err: change.Err})
		return
	}

	content := change.Content
	if content.IsZero() || !content.Type.Valid() {
		return
	}

	if !m.shouldCapture(content) {
		return
	}

	id, err := m.store.Save(ctx, content.Type, content.Data)
	if errors.Is(err, store.ErrEmptyContent) {
		m.logger.Debug("ignored empty clipboard text")
		return
	}
	if err != nil {
		m.logger.Error("failed to save clipboard entry", "type", content.Type, "error", err)
		m.emit(Event{Kind: Failed, Type: content.Type, Err: err})
		return
	}

	m.mu.Lock()
	m.last = content
	m.mu.Unlock()

	m.logger.Debug("captured clipboard entry", "id", id, "type", content.Type, "bytes", len(content.Data))
	m.emit(Event{Kind: Captured, ID: id, Type: content.Type})
}

func (m *Monitor) shouldCapture(content clip.Content) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != Idle {
		m.logger.Debug("ignored clipboard change", "state", m.state)
		return false
	}
	if content.Type == clip.Image && !m.prefs.Settings().ImageCapture {
		return false
	}
	return !m.last.Equal(content)
}

func (m *Monitor) emit(ev Event) {
	select {
	case m.events <- ev:
	default:
	}
}
