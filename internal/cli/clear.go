package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/JudeLabs/ClipCache/internal/retention"
)

// ClearOptions holds flags for the clear command.
type ClearOptions struct {
	*RootOptions
	All bool
}

// NewClearCommand creates the clear command.
func NewClearCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ClearOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete unpinned history",
		Long: `Delete every unpinned entry. With --all, pinned entries go too.

Examples:
  clipcache clear
  clipcache clear --all`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(opts.RootOptions, cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			removed, err := sess.store.Clear(commandContext(cmd), opts.All)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to clear history", err)
			}

			formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
			return formatter.Result(map[string]int64{"removed": removed}, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Removed %d entries\n", removed)
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&opts.All, "all", false, "also delete pinned entries")

	return cmd
}

// PruneOptions holds flags for the prune command.
type PruneOptions struct {
	*RootOptions
	Max int
}

// PruneResult reports what prune removed.
type PruneResult struct {
	Expired int64 `json:"expired"`
	Evicted int64 `json:"evicted"`
}

// NewPruneCommand creates the prune command.
func NewPruneCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PruneOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Apply expiry and the history limit now",
		Long: `Delete expired entries, then trim unpinned entries down to the
history limit (max_history_size, or --max).

Examples:
  clipcache prune
  clipcache prune --max 20`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrune(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Max, "max", 0, "keep at most this many unpinned entries (default max_history_size)")

	return cmd
}

func runPrune(opts *PruneOptions, cmd *cobra.Command) error {
	if opts.Max < 0 {
		return NewExitError(ExitCommandError, "--max must not be negative")
	}

	sess, err := openSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx := commandContext(cmd)
	var result PruneResult

	sched := retention.NewScheduler(sess.store, sess.settings, retention.WithLogger(sess.logger))
	sched.OnSweep = func(removed int64) { result.Expired = removed }
	sched.Tick(ctx)

	limit := sess.settings.Settings().MaxHistorySize
	if cmd.Flags().Changed("max") {
		limit = opts.Max
	}
	result.Evicted, err = sess.store.EnforceHistoryLimit(ctx, limit)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to enforce history limit", err)
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return formatter.Result(result, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "Removed %d expired and %d over-limit entries\n", result.Expired, result.Evicted)
		return err
	})
}
