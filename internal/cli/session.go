package cli

import (
	"context"
	"io"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/JudeLabs/ClipCache/internal/clock"
	"github.com/JudeLabs/ClipCache/internal/monitor"
	"github.com/JudeLabs/ClipCache/internal/settings"
	"github.com/JudeLabs/ClipCache/internal/store"
)

// session is the state shared by commands that touch the history store.
type session struct {
	settings *settings.File
	store    *store.Store
	logger   *slog.Logger
}

// newLogger returns a text logger on w, at Debug level when verbose.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	}))
}

// openSession loads settings and opens the store under opts.Dir.
// Failures are command errors: there is no degraded mode without storage.
func openSession(opts *RootOptions, cmd *cobra.Command) (*session, error) {
	if opts.Dir == "" {
		dir, err := defaultDir()
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to locate data directory", err)
		}
		opts.Dir = dir
	}

	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)

	prefs, err := settings.Load(opts.path(SettingsFile))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load settings", err)
	}
	prefs.SetLogger(logger)

	var clk clock.Clock = clock.System{}
	if opts.Clock != nil {
		clk = opts.Clock
	}

	st, err := store.Open(opts.path(HistoryFile), prefs,
		store.WithClock(clk),
		store.WithLogger(logger),
	)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open history", err)
	}

	return &session{settings: prefs, store: st, logger: logger}, nil
}

func (s *session) Close() {
	if err := s.store.Close(); err != nil {
		s.logger.Error("error closing history", "error", err)
	}
}

// clipboard returns the configured clipboard, defaulting to the OS one.
func (o *RootOptions) clipboard() monitor.Clipboard {
	if o.Clipboard != nil {
		return o.Clipboard
	}
	return monitor.NewOSClipboard()
}

// commandContext returns the command's context, or Background when unset.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// parseID parses an entry id argument.
func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, NewExitError(ExitCommandError, "invalid entry id "+strconv.Quote(arg))
	}
	return id, nil
}
