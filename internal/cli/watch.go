package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/JudeLabs/ClipCache/internal/inbox"
	"github.com/JudeLabs/ClipCache/internal/lock"
	"github.com/JudeLabs/ClipCache/internal/monitor"
	"github.com/JudeLabs/ClipCache/internal/retention"
	"github.com/JudeLabs/ClipCache/internal/settings"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	Paused bool
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Capture clipboard changes into history",
		Long: `Capture text and images copied to the system clipboard until stopped.

Only one watcher runs per data directory. Expired entries are swept every
minute, or every second while auto-clear is on. Changes to settings.yaml
apply without a restart. "clipcache copy" requests are carried out by the
watcher, so re-applied entries are not captured again. On Unix, SIGUSR1
pauses or resumes capture.

Examples:
  clipcache watch
  clipcache watch --paused --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Paused, "paused", false, "start with capture paused")

	return cmd
}

func runWatch(opts *WatchOptions, cmd *cobra.Command) error {
	sess, err := openSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer sess.Close()
	logger := sess.logger

	owner, err := lock.Acquire(opts.path(LockFile))
	if errors.Is(err, lock.ErrHeld) {
		return WrapExitError(ExitCommandError, "another watcher is running", err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to take watch lock", err)
	}
	defer func() {
		if err := owner.Release(); err != nil {
			logger.Error("error releasing watch lock", "error", err)
		}
	}()

	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	m := newMonitor(opts.RootOptions, sess)
	if opts.Paused {
		m.Pause()
	}

	sched := retention.NewScheduler(sess.store, sess.settings, retention.WithLogger(logger))
	sched.OnSweep = func(removed int64) {
		if removed > 0 {
			logger.Info("expired entries removed", "count", removed)
		}
	}

	if err := sess.settings.Watch(ctx, func(s settings.Settings) {
		sched.Reconcile(ctx, s)
	}); err != nil {
		// Settings still apply on the next start.
		logger.Warn("settings will not reload while watching", "error", err)
	}

	box, err := inbox.Open(opts.path(InboxDir), logger)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to open request inbox", err)
	}

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	toggleChan := make(chan os.Signal, 1)
	notifyToggle(toggleChan)
	defer signal.Stop(toggleChan)

	go func() {
		for {
			select {
			case sig := <-sigChan:
				logger.Info("received signal, shutting down", "signal", sig)
				cancel()
				return
			case <-toggleChan:
				logger.Info("capture toggled", "state", m.Toggle())
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		for {
			select {
			case ev := <-m.Events():
				if ev.Kind == monitor.Captured {
					logger.Info("captured", "id", ev.ID, "type", ev.Type)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	errs := make(chan error, 3)
	wg.Add(3)
	go func() {
		defer wg.Done()
		errs <- m.Run(ctx)
		// The monitor ending for any reason stops the watcher.
		cancel()
	}()
	go func() {
		defer wg.Done()
		errs <- sched.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		err := box.Serve(ctx, func(ctx context.Context, req inbox.Request) inbox.Reply {
			found, err := m.Apply(ctx, req.ID)
			if err != nil {
				logger.Error("failed to apply entry", "id", req.ID, "error", err)
				return inbox.Reply{Found: found, Error: err.Error()}
			}
			if found {
				logger.Info("applied entry", "id", req.ID)
			}
			return inbox.Reply{Found: found}
		})
		errs <- err
		// Without the inbox, copy requests would go unanswered.
		cancel()
	}()

	fmt.Fprintf(cmd.OutOrStdout(), "Watching clipboard (history in %s).\n", opts.Dir)
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl-C to stop.")

	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			return WrapExitError(ExitFailure, "watcher error", err)
		}
	}

	logger.Info("watcher stopped")
	return nil
}

// newMonitor builds a monitor over the session's store and settings.
func newMonitor(opts *RootOptions, sess *session) *monitor.Monitor {
	return monitor.New(opts.clipboard(), sess.store, sess.settings, monitor.WithLogger(sess.logger))
}
