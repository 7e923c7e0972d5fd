package retention

import (
	"context"
	"log/slog"
	"time"

	"github.com/JudeLabs/ClipCache/internal/settings"
)

// Sweeper deletes expired unpinned entries.
type Sweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

// Limiter trims unpinned entries down to a capacity.
type Limiter interface {
	EnforceHistoryLimit(ctx context.Context, maxItems int) (int64, error)
}

// Store is what the Scheduler needs from the history store.
type Store interface {
	Sweeper
	Limiter
}

// Scheduler is the periodic expiry trigger.
//
// It ticks every IdleInterval while auto-clear is off or not yet confirmed,
// and every ActiveInterval once a tick has observed auto-clear enabled.
// Every tick sweeps, since entries saved under an earlier auto-clear period
// keep their expiry after it is turned off.
type Scheduler struct {
	store  Store
	prefs  settings.Provider
	logger *slog.Logger

	idle   time.Duration
	active time.Duration

	// OnSweep, if set, is called after each successful sweep with the
	// number of removed entries.
	OnSweep func(removed int64)
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithIntervals overrides the idle and active poll intervals.
func WithIntervals(idle, active time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		s.idle = idle
		s.active = active
	}
}

// WithLogger sets the scheduler's logger.
func WithLogger(logger *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// NewScheduler creates a scheduler over store using prefs for policy.
func NewScheduler(store Store, prefs settings.Provider, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		store:  store,
		prefs:  prefs,
		logger: slog.Default(),
		idle:   IdleInterval,
		active: ActiveInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// interval maps NextInterval onto the configured durations.
func (s *Scheduler) interval(autoClear bool) time.Duration {
	if NextInterval(autoClear) == ActiveInterval {
		return s.active
	}
	return s.idle
}

// Run ticks until ctx is done. Sweep failures are logged and retried on
// the next tick. Returns ctx.Err().
func (s *Scheduler) Run(ctx context.Context) error {
	timer := time.NewTimer(s.idle)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			autoClear := s.Tick(ctx)
			timer.Reset(s.interval(autoClear))
		}
	}
}

// Tick performs one sweep and reports whether auto-clear was active.
func (s *Scheduler) Tick(ctx context.Context) bool {
	autoClear := s.prefs.Settings().AutoClear

	removed, err := s.store.SweepExpired(ctx)
	if err != nil {
		s.logger.Error("expiry sweep failed", "error", err)
		return autoClear
	}
	if removed > 0 {
		s.logger.Debug("expired entries removed", "count", removed)
	}
	if s.OnSweep != nil {
		s.OnSweep(removed)
	}
	return autoClear
}

// Reconcile re-applies the capacity limit from cfg. It is called when
// settings change so a lowered max_history_size takes effect immediately.
func (s *Scheduler) Reconcile(ctx context.Context, cfg settings.Settings) {
	removed, err := s.store.EnforceHistoryLimit(ctx, cfg.MaxHistorySize)
	if err != nil {
		s.logger.Error("history limit enforcement failed", "max", cfg.MaxHistorySize, "error", err)
		return
	}
	if removed > 0 {
		s.logger.Info("history trimmed to new limit", "max", cfg.MaxHistorySize, "removed", removed)
	}
}
